package config

import (
	"fmt"
	"math"
	"path/filepath"
	"time"
)

// Project represents one photonic-circuit project file
type Project struct {
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format,omitempty"` // json or text
	Document     Document      `yaml:"document"`
	Materials    *Materials    `yaml:"materials,omitempty"`
	Engine       Engine        `yaml:"engine"`
	Policies     *Policies     `yaml:"policies,omitempty"`
	Sweep        *Sweep        `yaml:"sweep,omitempty"`
	Optimization *Optimization `yaml:"optimization,omitempty"`
	Notify       *Notify       `yaml:"notify,omitempty"`
	Status       *Status       `yaml:"status,omitempty"`
}

// Document locates the circuit document and the layout it is built from
type Document struct {
	Dir    string `yaml:"dir"`
	Name   string `yaml:"name"`
	Layout string `yaml:"layout,omitempty"` // HCL layout file
}

// Path is the .ind location derived from Dir and Name
func (d Document) Path() string {
	return filepath.Join(d.Dir, d.Name+".ind")
}

// Materials points at the external material library
type Materials struct {
	Library string `yaml:"library"`
}

// Engine describes the external simulation engine
type Engine struct {
	Binary     string `yaml:"binary"`
	Workers    int    `yaml:"workers"`
	RunTimeout string `yaml:"run_timeout,omitempty"` // e.g. "30m"; empty waits forever
	ResultExt  string `yaml:"result_ext,omitempty"`
}

// GetRunTimeout parses the run timeout; empty means no bound
func (e *Engine) GetRunTimeout() (time.Duration, error) {
	if e.RunTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(e.RunTimeout)
}

// Policies holds the explicit reduction and sweep policies
type Policies struct {
	FilenameMismatch string `yaml:"filename_mismatch"` // drop or fail
}

// Parameter is a named symbol with candidate values, given as a list or a range
type Parameter struct {
	Name   string    `yaml:"name"`
	Values []float64 `yaml:"values,omitempty"`
	Range  *Range    `yaml:"range,omitempty"`
}

// Range is an inclusive arithmetic progression
type Range struct {
	From float64 `yaml:"from"`
	To   float64 `yaml:"to"`
	Step float64 `yaml:"step"`
}

// Expand returns the candidate values of the parameter
func (p Parameter) Expand() ([]float64, error) {
	if len(p.Values) > 0 {
		return p.Values, nil
	}
	if p.Range == nil {
		return nil, fmt.Errorf("parameter %s: values or range required", p.Name)
	}
	r := p.Range
	if r.Step <= 0 {
		return nil, fmt.Errorf("parameter %s: range step must be positive, got %g", p.Name, r.Step)
	}
	if r.To < r.From {
		return nil, fmt.Errorf("parameter %s: range to (%g) below from (%g)", p.Name, r.To, r.From)
	}
	n := int(math.Floor((r.To-r.From)/r.Step+1e-9)) + 1
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		// strip accumulated binary noise so directory names stay stable
		v := r.From + float64(i)*r.Step
		out = append(out, math.Round(v*1e9)/1e9)
	}
	return out, nil
}

// Sweep lists the symbols of a grid or orthogonal-design scan
type Sweep struct {
	Parameters []Parameter `yaml:"parameters"`
}

// Optimization lists the symbols of the coordinate-wise optimizer; the last one
// is the companion swept in every round.
type Optimization struct {
	Parameters []Parameter `yaml:"parameters"`
}

// Notify configures the completion webhook
type Notify struct {
	CallbackURL    string `yaml:"callback_url"`
	CallbackSecret string `yaml:"callback_secret,omitempty"`
	MaxRetries     int    `yaml:"max_retries,omitempty"`
	Backoff        string `yaml:"backoff,omitempty"` // exponential or constant
	BaseMs         int    `yaml:"base_ms,omitempty"`
}

// Status configures the optional status servers
type Status struct {
	HTTPAddr string `yaml:"http_addr,omitempty"`
	GRPCAddr string `yaml:"grpc_addr,omitempty"`
}
