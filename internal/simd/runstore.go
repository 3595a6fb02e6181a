package simd

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/photonic-sim/internal/metrics"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/models"
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrJobNotFound = errors.New("job not found")
)

// Stats summarizes what the store has seen
type Stats struct {
	Runs     int                            `json:"runs"`
	ByStatus map[models.RunStatus]int       `json:"by_status"`
	Rounds   int                            `json:"rounds"`
	Jobs     int                            `json:"jobs"`
	Metrics  map[string]*models.Aggregation `json:"metrics,omitempty"`
	UptimeMs float64                        `json:"uptime_ms"`
}

// RunStore keeps every run, round and job record of the process in memory.
// It is the recorder handed to the scheduler and the optimization loop.
type RunStore struct {
	mu sync.RWMutex

	runs     map[string]*models.Run
	runOrder []string

	rounds []*models.Round

	jobs     map[string]*models.Job
	jobOrder []string

	collector *metrics.Collector
}

func NewRunStore() *RunStore {
	return &RunStore{
		runs:      make(map[string]*models.Run),
		jobs:      make(map[string]*models.Job),
		collector: metrics.NewCollector(),
	}
}

// Collector returns the timing collector fed by terminal runs and rounds
func (s *RunStore) Collector() *metrics.Collector {
	return s.collector
}

// RecordRun upserts the run. Terminal states are recorded once in the
// collector.
func (s *RunStore) RecordRun(run *models.Run) {
	if run == nil || run.ID == "" {
		return
	}
	s.mu.Lock()
	prev, exists := s.runs[run.ID]
	if !exists {
		s.runOrder = append(s.runOrder, run.ID)
	}
	s.runs[run.ID] = run.Clone()
	s.mu.Unlock()

	if run.Status.Terminal() && (!exists || !prev.Status.Terminal()) {
		s.collector.RecordRun(run)
	}
}

// RecordRound upserts the round keyed by session and index
func (s *RunStore) RecordRound(round *models.Round) {
	if round == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.rounds, func(r *models.Round) bool {
		return r.Session == round.Session && r.Index == round.Index
	})
	if idx < 0 {
		s.rounds = append(s.rounds, round.Clone())
	} else {
		s.rounds[idx] = round.Clone()
	}
	if !round.EndedAt.IsZero() {
		s.collector.RecordRound(round)
	}
}

// Get returns a copy of one run
func (s *RunStore) Get(runID string) (*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run.Clone(), nil
}

// List returns up to limit runs in submission order, optionally filtered by
// status. A non-positive limit defaults to 50.
func (s *RunStore) List(limit int, status models.RunStatus) []*models.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]*models.Run, 0, min(limit, len(s.runOrder)))
	for _, id := range s.runOrder {
		run := s.runs[id]
		if status != "" && run.Status != status {
			continue
		}
		out = append(out, run.Clone())
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Rounds returns the rounds of one session, or all rounds when session is empty
func (s *RunStore) Rounds(session string) []*models.Round {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Round, 0, len(s.rounds))
	for _, r := range s.rounds {
		if session != "" && r.Session != session {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

// StartJob registers a running job of the given kind
func (s *RunStore) StartJob(kind models.JobKind) *models.Job {
	job := &models.Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    models.RunStatusRunning,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.jobOrder = append(s.jobOrder, job.ID)
	s.mu.Unlock()
	return job.Clone()
}

// FinishJob marks the job terminal. A nil err completes it; a context
// cancellation cancels it; anything else fails it.
func (s *RunStore) FinishJob(id string, dir, report, summary string, err error) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	job.Dir, job.Report, job.Summary = dir, report, summary
	job.EndedAt = time.Now()
	switch {
	case err == nil:
		job.Status = models.RunStatusCompleted
	case isCancellation(err):
		job.Status = models.RunStatusCancelled
		job.Error = err.Error()
	default:
		job.Status = models.RunStatusFailed
		job.Error = err.Error()
	}
	return job.Clone(), nil
}

// Job returns a copy of one job
func (s *RunStore) Job(id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job.Clone(), nil
}

// Jobs returns every job in start order
func (s *RunStore) Jobs() []*models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Job, 0, len(s.jobOrder))
	for _, id := range s.jobOrder {
		out = append(out, s.jobs[id].Clone())
	}
	return out
}

// RunCounts returns the status counts of the runs created at or after since
func (s *RunStore) RunCounts(since time.Time) map[models.RunStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.RunStatus]int)
	for _, run := range s.runs {
		if run.CreatedAt.Before(since) {
			continue
		}
		out[run.Status]++
	}
	return out
}

// Stats returns counts and the timing aggregates
func (s *RunStore) Stats() Stats {
	s.mu.RLock()
	st := Stats{
		Runs:     len(s.runs),
		ByStatus: make(map[models.RunStatus]int),
		Rounds:   len(s.rounds),
		Jobs:     len(s.jobs),
	}
	for _, run := range s.runs {
		st.ByStatus[run.Status]++
	}
	s.mu.RUnlock()

	st.Metrics = s.collector.Summary()
	st.UptimeMs = float64(s.collector.Uptime().Milliseconds())
	return st
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
