package models

import (
	"maps"
	"slices"
	"time"
)

// RunStatus represents the status of one engine invocation
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether no further transition is expected
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// Run is one external engine invocation inside a sweep
type Run struct {
	ID        string            `json:"id"`
	Round     int               `json:"round,omitempty"`
	Prefix    string            `json:"prefix"`
	Dir       string            `json:"dir"`
	Args      []string          `json:"args"`
	Overrides map[string]string `json:"overrides,omitempty"`
	Status    RunStatus         `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	StartedAt time.Time         `json:"started_at,omitempty"`
	EndedAt   time.Time         `json:"ended_at,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Duration is the wall time of a finished run, zero otherwise
func (r *Run) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Clone returns a deep copy safe to hand across goroutines
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}
	out := *r
	out.Args = slices.Clone(r.Args)
	out.Overrides = maps.Clone(r.Overrides)
	return &out
}

// Round is one sweep-reduce-patch cycle of the optimization loop
type Round struct {
	Index           int       `json:"index"`
	Session         string    `json:"session"`
	Symbol          string    `json:"symbol"`
	Companion       string    `json:"companion"`
	Values          []float64 `json:"values"`
	CompanionValues []float64 `json:"companion_values"`
	Dir             string    `json:"dir"`
	Best            float64   `json:"best"`
	Score           float64   `json:"score"`
	Patched         bool      `json:"patched"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// Clone returns a deep copy of the round record
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	out := *r
	out.Values = slices.Clone(r.Values)
	out.CompanionValues = slices.Clone(r.CompanionValues)
	return &out
}

// Aggregation represents aggregated statistics for a metric
type Aggregation struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// MetricPoint represents a single metric data point
type MetricPoint struct {
	Timestamp time.Time         `json:"timestamp"`
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// JobKind names the command a job was started by
type JobKind string

const (
	JobSim      JobKind = "sim"
	JobScan     JobKind = "scan"
	JobOptimize JobKind = "optimize"
	JobDesign   JobKind = "oed"
)

// Job is one top-level command: a single simulation, a scan, an optimization
// or an orthogonal design. It owns the runs it submits.
type Job struct {
	ID        string    `json:"id"`
	Kind      JobKind   `json:"kind"`
	Status    RunStatus `json:"status"`
	Dir       string    `json:"dir,omitempty"`
	Report    string    `json:"report,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

// Clone returns a copy of the job record
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	return &out
}
