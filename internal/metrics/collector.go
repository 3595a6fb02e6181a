package metrics

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/models"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/utils"
)

// Run-level metric names
const (
	MetricRunDuration   = "run_duration_ms"
	MetricRunFailures   = "run_failures"
	MetricRoundDuration = "round_duration_ms"
)

// Collector keeps timing series for engine runs and optimization rounds
type Collector struct {
	mu sync.RWMutex

	startTime time.Time

	// metric name -> label key -> points
	series map[string]map[string][]*models.MetricPoint
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		series:    make(map[string]map[string][]*models.MetricPoint),
	}
}

// Record stores a value at a timestamp
func (c *Collector) Record(name string, value float64, ts time.Time, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := labelKey(labels)
	if c.series[name] == nil {
		c.series[name] = make(map[string][]*models.MetricPoint)
	}
	c.series[name][key] = append(c.series[name][key], &models.MetricPoint{
		Timestamp: ts,
		Name:      name,
		Value:     value,
		Labels:    maps.Clone(labels),
	})
}

// RecordRun stores the wall time of a finished run, and a failure marker when
// the run did not complete.
func (c *Collector) RecordRun(run *models.Run) {
	if run == nil || !run.Status.Terminal() {
		return
	}
	labels := map[string]string{"status": string(run.Status)}
	c.Record(MetricRunDuration, utils.TimeToMs(run.Duration()), run.EndedAt, labels)
	if run.Status != models.RunStatusCompleted {
		c.Record(MetricRunFailures, 1, run.EndedAt, nil)
	}
}

// RecordRound stores the wall time of a finished optimization round
func (c *Collector) RecordRound(round *models.Round) {
	if round == nil || round.EndedAt.IsZero() {
		return
	}
	c.Record(MetricRoundDuration, utils.TimeToMs(round.EndedAt.Sub(round.StartedAt)), round.EndedAt,
		map[string]string{"symbol": round.Symbol})
}

// Points returns a copy of the series for one label set
func (c *Collector) Points(name string, labels map[string]string) []*models.MetricPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	points := c.series[name][labelKey(labels)]
	out := make([]*models.MetricPoint, len(points))
	for i, p := range points {
		cp := *p
		cp.Labels = maps.Clone(p.Labels)
		out[i] = &cp
	}
	return out
}

// Aggregate summarizes a metric across every label set; nil when nothing was
// recorded.
func (c *Collector) Aggregate(name string) *models.Aggregation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var values []float64
	for _, points := range c.series[name] {
		for _, p := range points {
			values = append(values, p.Value)
		}
	}
	return aggregate(values)
}

// Names returns the recorded metric names in sorted order
func (c *Collector) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.series))
}

// Summary aggregates every recorded metric
func (c *Collector) Summary() map[string]*models.Aggregation {
	out := make(map[string]*models.Aggregation)
	for _, name := range c.Names() {
		if agg := c.Aggregate(name); agg != nil {
			out[name] = agg
		}
	}
	return out
}

// Uptime is the time since the collector was created or last cleared
func (c *Collector) Uptime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Since(c.startTime)
}

// Clear drops all recorded points
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = make(map[string]map[string][]*models.MetricPoint)
	c.startTime = time.Now()
}

func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(labels)) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
		b.WriteByte(',')
	}
	return b.String()
}

func aggregate(values []float64) *models.Aggregation {
	if len(values) == 0 {
		return nil
	}
	return &models.Aggregation{
		Count: int64(len(values)),
		Sum:   utils.Sum(values),
		Min:   utils.MinOf(values),
		Max:   utils.MaxOf(values),
		Mean:  utils.Mean(values),
		P50:   utils.Percentile(values, 50),
		P95:   utils.Percentile(values, 95),
		P99:   utils.Percentile(values, 99),
	}
}
