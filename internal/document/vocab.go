package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a symbol value: a number or an expression the engine evaluates
type Expr string

// Num renders a float the way the engine reads it
func Num(v float64) Expr {
	return Expr(FormatValue(v))
}

// FormatValue renders v with the shortest exact decimal representation
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (e Expr) or(def string) string {
	if strings.TrimSpace(string(e)) == "" {
		return def
	}
	return string(e)
}

// Taper is the width profile along a segment
type Taper int

const (
	TaperLinear Taper = iota
	TaperQuadratic
	TaperExponential
)

var taperTokens = []string{"TAPER_LINEAR", "TAPER_QUADRATIC", "TAPER_EXPONENTIAL"}

func (t Taper) String() string {
	if t < 0 || int(t) >= len(taperTokens) {
		return fmt.Sprintf("Taper(%d)", int(t))
	}
	return taperTokens[t]
}

// ParseTaper accepts "linear" or "TAPER_LINEAR"
func ParseTaper(s string) (Taper, error) {
	i, err := parseToken(s, "TAPER_", taperTokens)
	return Taper(i), err
}

// MonitorKind selects what a monitor records
type MonitorKind int

const (
	MonitorFilePower MonitorKind = iota
	MonitorFilePhase
	MonitorWGModePower
	MonitorWGModePhase
	MonitorGaussPower
	MonitorGaussPhase
	MonitorLaunchPower
	MonitorLaunchPhase
	MonitorWGPower
	MonitorTotalPower
	MonitorFieldNeff
	MonitorFieldWidth
	MonitorFieldHeight
	MonitorFieldAeff
)

var monitorTokens = []string{
	"MONITOR_FILE_POWER", "MONITOR_FILE_PHASE",
	"MONITOR_WGMODE_POWER", "MONITOR_WGMODE_PHASE",
	"MONITOR_GAUSS_POWER", "MONITOR_GAUSS_PHASE",
	"MONITOR_LAUNCH_POWER", "MONITOR_LAUNCH_PHASE",
	"MONITOR_WG_POWER", "MONITOR_TOTAL_POWER",
	"MONITOR_FIELD_NEFF", "MONITOR_FIELD_WIDTH", "MONITOR_FIELD_HEIGHT", "MONITOR_FIELD_AEFF",
}

func (k MonitorKind) String() string {
	if k < 0 || int(k) >= len(monitorTokens) {
		return fmt.Sprintf("MonitorKind(%d)", int(k))
	}
	return monitorTokens[k]
}

// ParseMonitorKind accepts "launch_power" or "MONITOR_LAUNCH_POWER"
func ParseMonitorKind(s string) (MonitorKind, error) {
	i, err := parseToken(s, "MONITOR_", monitorTokens)
	return MonitorKind(i), err
}

// LaunchKind selects the launched field
type LaunchKind int

const (
	LaunchFile LaunchKind = iota
	LaunchCompMode
	LaunchWGMode
	LaunchGaussian
	LaunchRectangle
	LaunchMultiMode
	LaunchPlaneWave
)

var launchTokens = []string{
	"LAUNCH_FILE", "LAUNCH_COMPMODE", "LAUNCH_WGMODE", "LAUNCH_GAUSSIAN",
	"LAUNCH_RECTANGLE", "LAUNCH_MULTIMODE", "LAUNCH_PLANEWAVE",
}

func (k LaunchKind) String() string {
	if k < 0 || int(k) >= len(launchTokens) {
		return fmt.Sprintf("LaunchKind(%d)", int(k))
	}
	return launchTokens[k]
}

// ParseLaunchKind accepts "gaussian" or "LAUNCH_GAUSSIAN"
func ParseLaunchKind(s string) (LaunchKind, error) {
	i, err := parseToken(s, "LAUNCH_", launchTokens)
	return LaunchKind(i), err
}

func parseToken(s, prefix string, tokens []string) (int, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(want, prefix) {
		want = prefix + want
	}
	for i, tok := range tokens {
		if tok == want {
			return i, nil
		}
	}
	return -1, &ValidationError{Field: strings.ToLower(strings.TrimSuffix(prefix, "_")), Value: s, Reason: "unknown token"}
}
