//go:build !windows

package runner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itcbench/internal/itc"
	"itcbench/internal/portfolio"
)

// writeSolverScript fakes a solver binary with a shell script.
func writeSolverScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "solver.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func execJob(t *testing.T, deadline time.Duration) Job {
	t.Helper()
	dir := t.TempDir()
	instPath := filepath.Join(dir, "inst1_t.xml")
	require.NoError(t, os.WriteFile(instPath, []byte("<x/>"), 0o644))
	inst, err := itc.NewInstance(itc.CategoryTest, 1, instPath)
	require.NoError(t, err)
	return Job{
		Instance:   inst,
		Config:     &portfolio.Configuration{Name: "DEF", Method: portfolio.MethodExact, Args: []string{"--opt-strategy=bb,lin"}},
		Deadline:   deadline,
		OutputPath: filepath.Join(dir, "out", "test1_DEF.json"),
	}
}

func newProcessExecutor(bin string) *ProcessExecutor {
	cfg := &portfolio.Config{
		Solvers:        portfolio.Solvers{ExactBin: bin, LocalBin: bin},
		Configurations: []portfolio.Configuration{{Name: "DEF", Method: portfolio.MethodExact}},
		Deadlines:      map[itc.Category]portfolio.Deadline{itc.CategoryTest: {Duration: time.Minute}},
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return &ProcessExecutor{Config: cfg}
}

func TestProcessExecutorCompletes(t *testing.T) {
	bin := writeSolverScript(t, `echo '{"Result":"SATISFIABLE"}'`)
	job := execJob(t, 10*time.Second)

	out := newProcessExecutor(bin).Run(job)

	assert.Equal(t, OutcomeCompleted, out.Status)
	assert.Equal(t, 0, out.ExitCode)

	data, err := os.ReadFile(job.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SATISFIABLE")
}

func TestProcessExecutorDeadline(t *testing.T) {
	// The script ignores the deadline argument and hangs; the executor
	// must kill it and report timed_out.
	bin := writeSolverScript(t, `echo partial; sleep 30`)
	job := execJob(t, 300*time.Millisecond)

	start := time.Now()
	out := newProcessExecutor(bin).Run(job)

	assert.Equal(t, OutcomeTimedOut, out.Status)
	assert.Less(t, time.Since(start), 5*time.Second, "kill must not wait out the sleep")

	// Partial output written before the kill is preserved and closed.
	data, err := os.ReadFile(job.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "partial")
}

func TestProcessExecutorKillsChildren(t *testing.T) {
	// The solver forks a child that inherits the process group; the
	// group kill must take the child down too, or Wait would block on
	// the shared stdout pipe.
	bin := writeSolverScript(t, `sleep 30 & sleep 30`)
	job := execJob(t, 200*time.Millisecond)

	start := time.Now()
	out := newProcessExecutor(bin).Run(job)

	assert.Equal(t, OutcomeTimedOut, out.Status)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestProcessExecutorCrash(t *testing.T) {
	bin := writeSolverScript(t, `echo boom >&2; exit 3`)
	job := execJob(t, 10*time.Second)

	out := newProcessExecutor(bin).Run(job)

	assert.Equal(t, OutcomeCrashed, out.Status)
	assert.Equal(t, 3, out.ExitCode)
	assert.Contains(t, out.Stderr, "boom")
}

func TestProcessExecutorMissingBinary(t *testing.T) {
	job := execJob(t, time.Second)
	out := newProcessExecutor(filepath.Join(t.TempDir(), "nope")).Run(job)

	assert.Equal(t, OutcomeCrashed, out.Status)
	assert.Contains(t, out.Stderr, "start solver")
}

// Rerunning a job overwrites its output file rather than appending.
func TestProcessExecutorIdempotentRerun(t *testing.T) {
	bin := writeSolverScript(t, `echo '{"Result":"SATISFIABLE"}'`)
	job := execJob(t, 10*time.Second)

	exec := newProcessExecutor(bin)
	first := exec.Run(job)
	second := exec.Run(job)

	assert.Equal(t, first.Status, second.Status)
	data, err := os.ReadFile(job.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "{\"Result\":\"SATISFIABLE\"}\n", string(data))
}
