package sweep

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/photonic-sim/internal/document"
	"github.com/GoSim-25-26J-441/photonic-sim/internal/metrics"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/models"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/utils"
)

// RunRecorder is told about every run state change
type RunRecorder interface {
	RecordRun(run *models.Run)
}

type noopRecorder struct{}

func (noopRecorder) RecordRun(*models.Run) {}

// Options configures a Scheduler
type Options struct {
	// Document is the circuit file handed to the engine
	Document string
	// Root and Name place the _Sim, _Scan and _OEDsim trees
	Root string
	Name string

	Workers int
	// RunTimeout bounds each run; zero waits forever
	RunTimeout time.Duration

	Reducer    metrics.Options
	Supervisor Supervisor
	Recorder   RunRecorder
}

// Scheduler submits engine runs to a bounded pool and reduces finished grids.
// Sweeps are driven from one goroutine; only the runs themselves execute
// concurrently.
type Scheduler struct {
	engine Engine
	opts   Options

	mu   sync.Mutex
	pool *Pool
}

// New creates a scheduler around an engine
func New(engine Engine, opts Options) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Root == "" && opts.Document != "" {
		opts.Root = filepath.Dir(opts.Document)
	}
	if opts.Name == "" && opts.Document != "" {
		opts.Name = strings.TrimSuffix(filepath.Base(opts.Document), filepath.Ext(opts.Document))
	}
	if opts.Supervisor == nil {
		opts.Supervisor = NoopSupervisor{}
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}
	return &Scheduler{engine: engine, opts: opts, pool: NewPool(opts.Workers)}
}

// Options returns the effective options
func (s *Scheduler) Options() Options { return s.opts }

// SimDir is <root>/<name>_Sim
func (s *Scheduler) SimDir() string {
	return filepath.Join(s.opts.Root, s.opts.Name+"_Sim")
}

// ScanDir is <root>/<name>_Scan
func (s *Scheduler) ScanDir() string {
	return filepath.Join(s.opts.Root, s.opts.Name+"_Scan")
}

// DesignDir is <root>/<name>_OEDsim
func (s *Scheduler) DesignDir() string {
	return filepath.Join(s.opts.Root, s.opts.Name+"_OEDsim")
}

// Submit hands one invocation to the current pool. It blocks while all
// workers are busy.
func (s *Scheduler) Submit(ctx context.Context, inv Invocation) {
	if inv.ID == "" {
		inv.ID = utils.GenerateRunID()
	}
	if inv.Document == "" {
		inv.Document = s.opts.Document
	}

	run := &models.Run{
		ID:        inv.ID,
		Round:     inv.Round,
		Prefix:    inv.Prefix,
		Dir:       inv.Dir,
		Args:      inv.Args(),
		Overrides: make(map[string]string, len(inv.Overrides)),
		Status:    models.RunStatusPending,
		CreatedAt: time.Now(),
	}
	for _, o := range inv.Overrides {
		run.Overrides[o.Symbol] = o.Value
	}
	s.opts.Recorder.RecordRun(run.Clone())

	s.mu.Lock()
	pool := s.pool
	s.mu.Unlock()

	pool.Submit(func(first bool) error {
		return s.execute(ctx, inv, run, first)
	})
}

func (s *Scheduler) execute(ctx context.Context, inv Invocation, run *models.Run, first bool) error {
	log := logger.FromContext(ctx).With("run_id", inv.ID, "prefix", inv.Prefix)

	if s.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()
	}

	finish := func(err error) error {
		run.EndedAt = time.Now()
		switch {
		case err == nil:
			run.Status = models.RunStatusCompleted
		case errors.Is(ctx.Err(), context.Canceled):
			run.Status = models.RunStatusCancelled
			run.Error = err.Error()
		default:
			run.Status = models.RunStatusFailed
			run.Error = err.Error()
		}
		s.opts.Recorder.RecordRun(run.Clone())
		if err != nil {
			log.Warn("engine run failed", "status", run.Status, "error", err)
			return fmt.Errorf("run %s: %w", inv.Prefix, err)
		}
		log.Info("engine run finished", "duration", utils.FormatDuration(run.Duration()))
		return nil
	}

	proc, err := s.engine.Start(ctx, inv)
	if err != nil {
		run.StartedAt = time.Now()
		return finish(err)
	}
	run.Status = models.RunStatusRunning
	run.StartedAt = time.Now()
	s.opts.Recorder.RecordRun(run.Clone())
	log.Info("engine run started", "pid", proc.Pid(), "dir", inv.Dir)
	s.opts.Supervisor.Started(inv, proc.Pid(), first)

	err = proc.Wait()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %s: %w", s.opts.RunTimeout, err)
	}
	return finish(err)
}

// Drain waits for every submitted run, then replaces the pool so the next
// round starts fresh. It returns the joined run errors.
func (s *Scheduler) Drain() error {
	s.mu.Lock()
	pool := s.pool
	s.pool = NewPool(s.opts.Workers)
	s.mu.Unlock()
	err := pool.Wait()
	logger.Debug("sweep drained", "runs", pool.Submitted(), "failed", err != nil)
	return err
}

// RunSingle runs the document once, with the literal prefix "default" when no
// overrides are given, and reduces the run directory.
func (s *Scheduler) RunSingle(ctx context.Context, overrides []Override) (*metrics.Result, error) {
	prefix := "default"
	if len(overrides) > 0 {
		parts := make([]string, len(overrides))
		for i, o := range overrides {
			parts[i] = fmt.Sprintf("%s(%s)", o.Symbol, o.Value)
		}
		prefix = strings.Join(parts, "_")
	}
	dir := filepath.Join(s.SimDir(), prefix)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sim dir: %w", err)
	}

	s.Submit(ctx, Invocation{Prefix: prefix, Dir: dir, Overrides: overrides})
	if err := s.Drain(); err != nil {
		return nil, fmt.Errorf("sim %s: %w", prefix, err)
	}
	return s.reduce(dir, [2][]float64{})
}

// Grid is a two-symbol sweep
type Grid struct {
	Names  [2]string
	Values [2][]float64
	// Dir overrides the default <root>/<name>_Scan/<label> directory
	Dir string
	// Document overrides the scheduler's document
	Document string
	Round    int
}

// Label is "<sym1>(<first>_<last>)_<sym2>(<first>_<last>)"
func (g Grid) Label() string {
	return rangeLabel(g.Names[:], g.Values[:])
}

func rangeLabel(names []string, values [][]float64) string {
	parts := make([]string, len(names))
	for i, name := range names {
		v := values[i]
		parts[i] = fmt.Sprintf("%s(%s_%s)", name, document.FormatValue(v[0]), document.FormatValue(v[len(v)-1]))
	}
	return strings.Join(parts, "_")
}

func (g Grid) validate() error {
	for i, name := range g.Names {
		if name == "" {
			return fmt.Errorf("grid symbol %d is empty", i+1)
		}
		if len(g.Values[i]) == 0 {
			return fmt.Errorf("grid symbol %s has no values", name)
		}
	}
	if g.Names[0] == g.Names[1] {
		return fmt.Errorf("grid symbols must differ, got %s twice", g.Names[0])
	}
	return nil
}

// RunGrid submits one run per combination of the two value lists, each in
// its own subdirectory, drains, and reduces the grid directory.
func (s *Scheduler) RunGrid(ctx context.Context, g Grid) (*metrics.Result, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	dir := g.Dir
	if dir == "" {
		dir = filepath.Join(s.ScanDir(), g.Label())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scan dir: %w", err)
	}

	formats := [2]Format{DetermineFormat(g.Values[0]), DetermineFormat(g.Values[1])}
	logger.Info("grid sweep started", "dir", dir, "runs", len(g.Values[0])*len(g.Values[1]))
	for _, a := range g.Values[0] {
		for _, b := range g.Values[1] {
			prefix := fmt.Sprintf("%s(%s)_%s(%s)",
				g.Names[0], formats[0].Apply(a), g.Names[1], formats[1].Apply(b))
			s.Submit(ctx, Invocation{
				Round:    g.Round,
				Document: g.Document,
				Prefix:   prefix,
				Dir:      filepath.Join(dir, prefix),
				Overrides: []Override{
					{g.Names[0], document.FormatValue(a)},
					{g.Names[1], document.FormatValue(b)},
				},
			})
		}
	}
	if err := s.Drain(); err != nil {
		return nil, fmt.Errorf("sweep %s: %w", dir, err)
	}
	return s.reduce(dir, g.Values)
}

// reduce reduces dir; order, when given, keeps rows in submission order
func (s *Scheduler) reduce(dir string, order [2][]float64) (*metrics.Result, error) {
	opts := s.opts.Reducer
	opts.Order = order
	return metrics.NewReducer(dir, opts).Reduce()
}
