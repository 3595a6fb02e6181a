package sweep

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
)

// DefaultBinary is the engine executable used when none is configured
const DefaultBinary = "bsimw32"

// Override is one symbol=value pair passed on the engine command line
type Override struct {
	Symbol string
	Value  string
}

func (o Override) String() string { return o.Symbol + "=" + o.Value }

// Invocation is one engine run: document, prefix, overrides and the working
// directory the engine writes its result file into.
type Invocation struct {
	ID        string
	Round     int
	Document  string
	Prefix    string
	Dir       string
	Overrides []Override
}

// Args is the engine argument vector, "<doc> prefix=<p> [sym=val ...]"
func (inv Invocation) Args() []string {
	args := make([]string, 0, 2+len(inv.Overrides))
	args = append(args, inv.Document, "prefix="+inv.Prefix)
	for _, o := range inv.Overrides {
		args = append(args, o.String())
	}
	return args
}

// CommandLine renders the full command for logs
func (inv Invocation) CommandLine(binary string) string {
	return binary + " " + strings.Join(inv.Args(), " ")
}

// Process is a started engine run
type Process interface {
	Pid() int
	Wait() error
}

// Engine starts external simulation runs
type Engine interface {
	Start(ctx context.Context, inv Invocation) (Process, error)
}

// ExecEngine runs the engine binary as a child process. Output goes to
// <prefix>.log inside the run directory.
type ExecEngine struct {
	Binary string
	// WaitDelay bounds how long Wait blocks on output after the process is
	// killed.
	WaitDelay time.Duration
}

// NewExecEngine creates an engine for binary, falling back to DefaultBinary
func NewExecEngine(binary string) *ExecEngine {
	if binary == "" {
		binary = DefaultBinary
	}
	return &ExecEngine{Binary: binary, WaitDelay: 5 * time.Second}
}

type execProcess struct {
	cmd *exec.Cmd
	log *os.File
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Wait() error {
	err := p.cmd.Wait()
	p.log.Close()
	return err
}

// Start launches the binary with the invocation arguments in inv.Dir. The
// process is killed when ctx is done.
func (e *ExecEngine) Start(ctx context.Context, inv Invocation) (Process, error) {
	if err := os.MkdirAll(inv.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	log, err := os.Create(filepath.Join(inv.Dir, inv.Prefix+".log"))
	if err != nil {
		return nil, fmt.Errorf("create run log: %w", err)
	}

	logger.Debug("starting engine", "command", inv.CommandLine(e.Binary), "dir", inv.Dir)
	cmd := exec.CommandContext(ctx, e.Binary, inv.Args()...)
	cmd.Dir = inv.Dir
	cmd.Stdout = log
	cmd.Stderr = log
	cmd.WaitDelay = e.WaitDelay
	if err := cmd.Start(); err != nil {
		log.Close()
		return nil, fmt.Errorf("start %s: %w", e.Binary, err)
	}
	return &execProcess{cmd: cmd, log: log}, nil
}

// Supervisor observes started processes. Host-specific window handling or
// dialog dismissal plugs in here; first is set for the first run of a round.
type Supervisor interface {
	Started(inv Invocation, pid int, first bool)
}

// NoopSupervisor ignores every process
type NoopSupervisor struct{}

func (NoopSupervisor) Started(Invocation, int, bool) {}
