package sweep

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecEngineRunsInDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine")
	}
	bin := filepath.Join(t.TempDir(), "engine.sh")
	script := "#!/bin/sh\necho \"$@\"\nprefix=${2#prefix=}\necho \"0 0.5 0.5\" > \"$prefix.mon\"\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	dir := filepath.Join(t.TempDir(), "run")
	inv := Invocation{Document: "chip.ind", Prefix: "p1", Dir: dir, Overrides: []Override{{"Lta", "3"}}}
	proc, err := NewExecEngine(bin).Start(context.Background(), inv)
	require.NoError(t, err)
	assert.Positive(t, proc.Pid())
	require.NoError(t, proc.Wait())

	_, err = os.Stat(filepath.Join(dir, "p1.mon"))
	assert.NoError(t, err)
	log, err := os.ReadFile(filepath.Join(dir, "p1.log"))
	require.NoError(t, err)
	assert.Equal(t, "chip.ind prefix=p1 Lta=3", strings.TrimSpace(string(log)))
}

func TestExecEngineKilledOnTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine")
	}
	bin := filepath.Join(t.TempDir(), "hang.sh")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexec sleep 10\n"), 0o755))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	proc, err := NewExecEngine(bin).Start(ctx, Invocation{Prefix: "p", Dir: t.TempDir()})
	require.NoError(t, err)

	start := time.Now()
	assert.Error(t, proc.Wait())
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewExecEngineDefaultBinary(t *testing.T) {
	assert.Equal(t, DefaultBinary, NewExecEngine("").Binary)
}
