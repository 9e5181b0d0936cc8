package runner

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"itcbench/internal/portfolio"
)

// OutcomeStatus classifies how a run ended.
type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeTimedOut  OutcomeStatus = "timed_out"
	OutcomeCrashed   OutcomeStatus = "crashed"
)

// Outcome is the raw record of one executed job. It carries no
// interpretation of the solver output; that is the parser's business.
type Outcome struct {
	Job     Job
	Status  OutcomeStatus
	Elapsed time.Duration
	// StdoutPath points at the captured solver output. Stdout is
	// streamed to disk as the solver writes it, so a verbose solver
	// cannot exhaust memory.
	StdoutPath string
	Stderr     string
	ExitCode   int
}

// Executor runs one job to completion. Implementations never return an
// error: every failure mode of the external process is an Outcome
// status. The fake used in tests implements the same interface.
type Executor interface {
	Run(job Job) Outcome
}

// maxStderr caps how much solver stderr is retained per run.
const maxStderr = 16 << 10

// ProcessExecutor invokes the real solver binaries. Each run owns its
// process (and process group) exclusively; the deadline is enforced by
// killing the whole group, so solver children cannot outlive the run.
type ProcessExecutor struct {
	Config *portfolio.Config
	Logger *zap.Logger
}

func (e *ProcessExecutor) Run(job Job) Outcome {
	out := Outcome{Job: job, StdoutPath: job.OutputPath}

	bin, err := e.Config.BinFor(job.Config.Method)
	if err != nil {
		// BuildMatrix verified this; hitting it means the config mutated.
		out.Status = OutcomeCrashed
		out.Stderr = err.Error()
		return out
	}

	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		out.Status = OutcomeCrashed
		out.Stderr = fmt.Sprintf("create output dir: %v", err)
		return out
	}
	f, err := os.Create(job.OutputPath)
	if err != nil {
		out.Status = OutcomeCrashed
		out.Stderr = fmt.Sprintf("create output file: %v", err)
		return out
	}

	args := make([]string, 0, len(job.Config.Args)+2)
	args = append(args, job.Config.Args...)
	args = append(args, fmt.Sprintf("--time-limit=%d", int(job.Deadline.Seconds())))
	args = append(args, job.Instance.Path)

	cmd := exec.Command(bin, args...)
	cmd.Stdout = f
	var stderr limitedBuffer
	cmd.Stderr = &stderr
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		f.Close()
		out.Status = OutcomeCrashed
		out.Stderr = fmt.Sprintf("start solver: %v", err)
		return out
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(job.Deadline)
	defer timer.Stop()

	// Whichever fires first wins. On timeout the group is killed and we
	// still wait for Wait to return, so the output file is closed only
	// after the process is truly gone.
	var waitErr error
	timedOut := false
	select {
	case waitErr = <-done:
	case <-timer.C:
		timedOut = true
		killProcessGroup(cmd)
		waitErr = <-done
	}
	out.Elapsed = time.Since(start)
	f.Close()
	out.Stderr = stderr.String()

	switch {
	case timedOut:
		out.Status = OutcomeTimedOut
		out.ExitCode = -1
	case waitErr == nil:
		out.Status = OutcomeCompleted
	default:
		out.Status = OutcomeCrashed
		if ee, ok := waitErr.(*exec.ExitError); ok {
			out.ExitCode = ee.ExitCode()
		} else {
			out.ExitCode = -1
		}
	}

	if e.Logger != nil {
		e.Logger.Debug("run finished",
			zap.String("job", job.ID()),
			zap.String("status", string(out.Status)),
			zap.Duration("elapsed", out.Elapsed),
			zap.Int("exit_code", out.ExitCode))
	}
	return out
}

// limitedBuffer keeps the first maxStderr bytes and drops the rest.
type limitedBuffer struct {
	buf bytes.Buffer
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if remaining := maxStderr - b.buf.Len(); remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }
