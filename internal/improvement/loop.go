package improvement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/photonic-sim/internal/document"
	"github.com/GoSim-25-26J-441/photonic-sim/internal/metrics"
	"github.com/GoSim-25-26J-441/photonic-sim/internal/sweep"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/models"
)

// ResultLogName is the cumulative log inside an optimization directory
const ResultLogName = "Optimize_result.txt"

// State is the optimization loop position
type State int

const (
	StateIdle State = iota
	StatePreparingRound
	StateSweeping
	StateReducing
	StatePatching
	StateDone
)

var stateNames = []string{"idle", "preparing_round", "sweeping", "reducing", "patching", "done"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Progress describes one state transition
type Progress struct {
	Session string
	State   State
	Round   int
	Symbol  string
	Best    float64
	Score   float64
}

// ProgressReporter observes every transition
type ProgressReporter func(Progress)

// RoundRecorder is told about every round change
type RoundRecorder interface {
	RecordRound(round *models.Round)
}

// Result summarizes a finished optimization
type Result struct {
	Session  string
	Dir      string
	Document string
	Log      string
	Rounds   []*models.Round
}

// Best returns the winning value of every optimized symbol in round order
func (r *Result) Best() map[string]float64 {
	out := make(map[string]float64, len(r.Rounds))
	for _, round := range r.Rounds {
		out[round.Symbol] = round.Best
	}
	return out
}

// Loop optimizes symbols one at a time. Each round sweeps one symbol against
// the trailing companion symbol, picks the best row and patches the winning
// value into a working copy of the document before the next round.
type Loop struct {
	sched    *sweep.Scheduler
	progress ProgressReporter
	recorder RoundRecorder

	mu    sync.RWMutex
	state State
}

// NewLoop creates a loop driving the scheduler
func NewLoop(sched *sweep.Scheduler) *Loop {
	return &Loop{sched: sched}
}

// WithProgressReporter sets a transition callback
func (l *Loop) WithProgressReporter(fn ProgressReporter) *Loop {
	l.progress = fn
	return l
}

// WithRecorder sets where round records go
func (l *Loop) WithRecorder(r RoundRecorder) *Loop {
	l.recorder = r
	return l
}

// State returns the current state
func (l *Loop) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Loop) enter(p Progress) {
	l.mu.Lock()
	l.state = p.State
	l.mu.Unlock()
	logger.Debug("optimization state", "session", p.Session, "state", p.State.String(), "round", p.Round, "symbol", p.Symbol)
	if l.progress != nil {
		l.progress(p)
	}
}

func (l *Loop) record(round *models.Round) {
	if l.recorder != nil {
		l.recorder.RecordRound(round.Clone())
	}
}

func validateInputs(symbols []string, values [][]float64) error {
	if len(symbols) < 2 {
		return fmt.Errorf("optimization needs at least one symbol and a companion, got %d symbols", len(symbols))
	}
	if len(symbols) != len(values) {
		return fmt.Errorf("%d symbols but %d value lists", len(symbols), len(values))
	}
	seen := make(map[string]bool, len(symbols))
	for i, s := range symbols {
		if s == "" {
			return fmt.Errorf("symbol %d is empty", i+1)
		}
		if seen[s] {
			return fmt.Errorf("symbol %s listed twice", s)
		}
		seen[s] = true
		if len(values[i]) == 0 {
			return fmt.Errorf("symbol %s has no values", s)
		}
	}
	return nil
}

// Run optimizes every symbol but the last, which is swept as the companion
// in every round and never optimized.
func (l *Loop) Run(ctx context.Context, symbols []string, values [][]float64) (*Result, error) {
	if err := validateInputs(symbols, values); err != nil {
		return nil, err
	}
	opts := l.sched.Options()

	dir, err := CreateOptimizeDir(opts.Root, opts.Name)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Session:  uuid.NewString(),
		Dir:      dir,
		Document: filepath.Join(dir, opts.Name+"_optimize.ind"),
		Log:      filepath.Join(dir, ResultLogName),
	}
	if err := copyFile(opts.Document, res.Document); err != nil {
		return nil, fmt.Errorf("copy working document: %w", err)
	}
	logFile, err := os.Create(res.Log)
	if err != nil {
		return nil, fmt.Errorf("create optimization log: %w", err)
	}
	defer logFile.Close()

	log := logger.With("session", res.Session, "dir", dir)
	log.Info("optimization started", "symbols", strings.Join(symbols, ","))

	companion, companionValues := symbols[len(symbols)-1], values[len(values)-1]
	for i := range len(symbols) - 1 {
		round, err := l.runRound(ctx, res, i+1, symbols[i], values[i], companion, companionValues, logFile)
		res.Rounds = append(res.Rounds, round)
		if err != nil {
			return res, fmt.Errorf("round %d (%s): %w", i+1, symbols[i], err)
		}
	}

	l.enter(Progress{Session: res.Session, State: StateDone, Round: len(res.Rounds)})
	log.Info("optimization finished", "rounds", len(res.Rounds))
	return res, nil
}

func (l *Loop) runRound(ctx context.Context, res *Result, index int, symbol string, candidates []float64,
	companion string, companionValues []float64, logFile io.Writer) (*models.Round, error) {

	l.enter(Progress{Session: res.Session, State: StatePreparingRound, Round: index, Symbol: symbol})
	grid := sweep.Grid{
		Names:    [2]string{symbol, companion},
		Values:   [2][]float64{candidates, companionValues},
		Document: res.Document,
		Round:    index,
	}
	grid.Dir = filepath.Join(res.Dir, fmt.Sprintf("%d_%s", index, grid.Label()))

	round := &models.Round{
		Index:           index,
		Session:         res.Session,
		Symbol:          symbol,
		Companion:       companion,
		Values:          candidates,
		CompanionValues: companionValues,
		Dir:             grid.Dir,
		StartedAt:       time.Now(),
	}
	fail := func(err error) (*models.Round, error) {
		round.Error = err.Error()
		round.EndedAt = time.Now()
		l.record(round)
		return round, err
	}
	l.record(round)

	l.enter(Progress{Session: res.Session, State: StateSweeping, Round: index, Symbol: symbol})
	result, err := l.sched.RunGrid(ctx, grid)
	if err != nil {
		return fail(err)
	}

	l.enter(Progress{Session: res.Session, State: StateReducing, Round: index, Symbol: symbol})
	best, score, err := result.BestRow()
	if err != nil {
		return fail(err)
	}
	round.Best, round.Score = best, score
	if _, err := metrics.EmitReport(result); err != nil {
		logger.Warn("round report not written", "round", index, "error", err)
	}
	if _, err := metrics.EmitPlots(result); err != nil {
		logger.Warn("round plot not written", "round", index, "error", err)
	}

	l.enter(Progress{Session: res.Session, State: StatePatching, Round: index, Symbol: symbol, Best: best, Score: score})
	patched, err := document.PatchFile(res.Document, symbol, document.Num(best))
	if err != nil {
		return fail(err)
	}
	round.Patched = patched
	if !patched {
		logger.Warn("symbol not declared in working copy, left unpatched", "session", res.Session,
			"round", index, "symbol", symbol)
	}

	if _, err := fmt.Fprintf(logFile, "%s %s\n%s=%s\n", symbol, formatList(candidates), symbol, document.FormatValue(best)); err != nil {
		return fail(fmt.Errorf("write optimization log: %w", err))
	}

	round.EndedAt = time.Now()
	l.record(round)
	logger.Info("round finished", "session", res.Session, "round", index, "symbol", symbol,
		"best", best, "score", score, "patched", patched)
	return round, nil
}

// CreateOptimizeDir returns the first <root>/<name>_Optimize<N> that is free.
// A directory whose result log exists but is empty is left over from an
// aborted run; it is wiped and reused.
func CreateOptimizeDir(root, name string) (string, error) {
	for n := 1; ; n++ {
		dir := filepath.Join(root, fmt.Sprintf("%s_Optimize%d", name, n))
		info, err := os.Stat(dir)
		if errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create optimize dir: %w", err)
			}
			return dir, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat optimize dir: %w", err)
		}
		if !info.IsDir() {
			continue
		}
		logInfo, err := os.Stat(filepath.Join(dir, ResultLogName))
		if err == nil && logInfo.Mode().IsRegular() && logInfo.Size() == 0 {
			logger.Info("reusing empty optimize dir", "dir", dir)
			if err := os.RemoveAll(dir); err != nil {
				return "", fmt.Errorf("clear optimize dir: %w", err)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create optimize dir: %w", err)
			}
			return dir, nil
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func formatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = document.FormatValue(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
