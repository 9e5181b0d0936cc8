package robinx

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ValidationStatus classifies one validator invocation.
type ValidationStatus string

const (
	ValidationValid ValidationStatus = "valid"
	// ValidationCalculated means RobinX exited nonzero but still
	// printed an objective line; the objective is usable, the exit code
	// is recorded. The validator binary is known to be touchy about
	// some well-formed files.
	ValidationCalculated ValidationStatus = "calculated"
	ValidationSegfault   ValidationStatus = "segfault"
	ValidationTimeout    ValidationStatus = "timeout"
	ValidationError      ValidationStatus = "error"
)

// Report is the machine-readable outcome of validating one solution
// against its instance.
type Report struct {
	Status        ValidationStatus
	Infeasibility int
	// Objective is the validator's independently recomputed objective,
	// nil when it could not be extracted.
	Objective *int
	ExitCode  int
	Detail    string
}

// Feasible reports whether the validator confirmed the solution.
func (r Report) Feasible() bool {
	return (r.Status == ValidationValid || r.Status == ValidationCalculated) &&
		r.Objective != nil && r.Infeasibility == 0
}

// Validator is the narrow interface the analysis depends on, so tests
// can substitute a fake for the real binary.
type Validator interface {
	Check(ctx context.Context, instancePath, solutionPath string) Report
}

// RobinX shells out to the RobinX validator executable.
type RobinX struct {
	Bin     string
	Timeout time.Duration
	Logger  *zap.Logger
}

const defaultValidatorTimeout = 10 * time.Second

// The objective line looks like:
//
//	Objective:             0                   1635
//
// first number infeasibility, second the recomputed objective.
var objectiveRe = regexp.MustCompile(`Objective:\s+(\d+)\s+(\d+)`)

func (v *RobinX) Check(ctx context.Context, instancePath, solutionPath string) Report {
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = defaultValidatorTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, v.Bin, "-i", instancePath, "-s", solutionPath)
	output, err := cmd.CombinedOutput()

	rep := Report{ExitCode: -1}
	if cmd.ProcessState != nil {
		rep.ExitCode = cmd.ProcessState.ExitCode()
	}
	if ctx.Err() == context.DeadlineExceeded {
		rep.Status = ValidationTimeout
		rep.Detail = fmt.Sprintf("validator exceeded %s", timeout)
		return v.log(solutionPath, rep)
	}

	rep.Infeasibility, rep.Objective = extractObjective(output)

	switch {
	case err == nil:
		rep.Status = ValidationValid
	case segfaulted(err):
		rep.Status = ValidationSegfault
		rep.Detail = "validator crashed with SIGSEGV"
	case rep.Objective != nil:
		rep.Status = ValidationCalculated
		rep.Detail = fmt.Sprintf("nonzero exit %d but objective extracted", rep.ExitCode)
	default:
		rep.Status = ValidationError
		rep.Detail = firstLine(output)
		if rep.Detail == "" {
			rep.Detail = err.Error()
		}
	}
	return v.log(solutionPath, rep)
}

func (v *RobinX) log(solutionPath string, rep Report) Report {
	if v.Logger != nil {
		v.Logger.Debug("validator run",
			zap.String("solution", solutionPath),
			zap.String("status", string(rep.Status)),
			zap.Int("exit_code", rep.ExitCode))
	}
	return rep
}

func extractObjective(output []byte) (int, *int) {
	m := objectiveRe.FindSubmatch(output)
	if m == nil {
		return 0, nil
	}
	infeasible, err1 := strconv.Atoi(string(m[1]))
	objective, err2 := strconv.Atoi(string(m[2]))
	if err1 != nil || err2 != nil {
		return 0, nil
	}
	return infeasible, &objective
}

func firstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' {
			return string(b[:i])
		}
	}
	return string(b)
}
