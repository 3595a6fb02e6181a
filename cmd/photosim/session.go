package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/photonic-sim/internal/metrics"
	"github.com/GoSim-25-26J-441/photonic-sim/internal/simd"
	"github.com/GoSim-25-26J-441/photonic-sim/internal/sweep"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/config"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/models"
)

// session is one loaded project with its scheduler, store and notifier
type session struct {
	project  *config.Project
	sched    *sweep.Scheduler
	store    *simd.RunStore
	notifier *simd.Notifier
	servers  *simd.StatusServers
	out      io.Writer
}

// outcome is what a job hands back for the report and the notification
type outcome struct {
	dir     string
	report  string
	summary string
}

func (c *cli) loadProject(cmd *cobra.Command) (*config.Project, error) {
	path, err := filepath.Abs(c.configPath)
	if err != nil {
		return nil, err
	}
	proj, err := config.LoadProject(path)
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed("log-level") && !cmd.Flags().Changed("log-format") {
		logger.SetDefault(logger.NewWithFormat(proj.LogFormat, proj.LogLevel, cmd.ErrOrStderr()))
	}
	if c.workers > 0 {
		proj.Engine.Workers = c.workers
	}
	return proj, nil
}

// openSession loads the project and starts the optional status servers
func (c *cli) openSession(cmd *cobra.Command) (*session, error) {
	proj, err := c.loadProject(cmd)
	if err != nil {
		return nil, err
	}
	timeout, err := proj.Engine.GetRunTimeout()
	if err != nil {
		return nil, fmt.Errorf("engine.run_timeout: %w", err)
	}
	policy, err := metrics.ParseMismatchPolicy(proj.Policies.FilenameMismatch)
	if err != nil {
		return nil, err
	}

	store := simd.NewRunStore()
	servers, err := simd.StartStatusServers(proj.Status, store)
	if err != nil {
		return nil, err
	}

	sched := sweep.New(c.newEngine(proj.Engine.Binary), sweep.Options{
		Document:   proj.Document.Path(),
		Workers:    proj.Engine.Workers,
		RunTimeout: timeout,
		Reducer:    metrics.Options{Ext: proj.Engine.ResultExt, Mismatch: policy},
		Supervisor: logSupervisor{},
		Recorder:   store,
	})
	return &session{
		project:  proj,
		sched:    sched,
		store:    store,
		notifier: simd.NewNotifier(proj.Notify),
		servers:  servers,
		out:      cmd.OutOrStdout(),
	}, nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.servers.Close(ctx); err != nil {
		logger.Error("status server shutdown error", "error", err)
	}
}

// run executes one job: it is registered in the store, its result printed,
// and its completion posted to the webhook whatever the outcome.
func (s *session) run(ctx context.Context, kind models.JobKind, fn func(context.Context) (outcome, error)) error {
	job := s.store.StartJob(kind)
	log := logger.With("job_id", job.ID, "kind", string(kind))
	ctx = logger.WithContext(ctx, log)
	log.Info("job started", "document", s.project.Document.Path())

	res, runErr := fn(ctx)

	finished, err := s.store.FinishJob(job.ID, res.dir, res.report, res.summary, runErr)
	if err != nil {
		return err
	}
	if runErr != nil {
		log.Error("job failed", "error", runErr)
	} else {
		log.Info("job finished", "dir", res.dir, "summary", res.summary)
		if res.summary != "" {
			fmt.Fprintln(s.out, res.summary)
		}
		if res.report != "" {
			fmt.Fprintf(s.out, "report: %s\n", res.report)
		}
	}

	// the job context may already be cancelled; the notification still goes out
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()
	payload := simd.NewPayload(finished, s.store.RunCounts(job.CreatedAt))
	if err := s.notifier.Notify(notifyCtx, payload); err != nil {
		log.Warn("completion notification not delivered", "error", err)
	}
	return runErr
}

// emit writes the report and the plots of a reduced result
func emit(r *metrics.Result) (outcome, error) {
	out := outcome{dir: r.Dir}
	report, err := metrics.EmitReport(r)
	if err != nil {
		return out, err
	}
	out.report = report
	if _, err := metrics.EmitPlots(r); err != nil {
		logger.Warn("plots not written", "dir", r.Dir, "error", err)
	}
	if r.Swept {
		if out.summary, err = r.Summary(); err != nil {
			return out, err
		}
	}
	return out, nil
}

// logSupervisor records engine process starts
type logSupervisor struct{}

func (logSupervisor) Started(inv sweep.Invocation, pid int, first bool) {
	logger.Debug("engine process started", "prefix", inv.Prefix, "pid", pid, "first_in_round", first)
}

// parseOverrides reads sym=value arguments
func parseOverrides(args []string) ([]sweep.Override, error) {
	out := make([]sweep.Override, 0, len(args))
	for _, a := range args {
		name, value, ok := strings.Cut(a, "=")
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("override %q must look like symbol=value", a)
		}
		out = append(out, sweep.Override{Symbol: name, Value: value})
	}
	return out, nil
}

// expandParameters resolves every parameter to its candidate values
func expandParameters(params []config.Parameter) ([]string, [][]float64, error) {
	names := make([]string, len(params))
	values := make([][]float64, len(params))
	for i, p := range params {
		v, err := p.Expand()
		if err != nil {
			return nil, nil, err
		}
		names[i], values[i] = p.Name, v
	}
	return names, values, nil
}
