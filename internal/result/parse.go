package result

import (
	"fmt"
	"os"

	"itcbench/internal/portfolio"
	"itcbench/internal/runner"
)

// FromOutcome converts one raw run outcome into its canonical Result.
// Exactly one Result comes out per outcome, whatever happened to the
// process: a run that crashed or timed out is parsed from whatever it
// managed to write, and a failed parse is itself a parse_error Result,
// so nothing silently disappears from the final table.
func FromOutcome(out runner.Outcome) Result {
	res := Result{
		InstanceKey: out.Job.Instance.Key(),
		Config:      out.Job.Config.Name,
		Method:      out.Job.Config.Method,
	}

	raw, err := os.ReadFile(out.StdoutPath)
	if err != nil {
		res.Status = StatusParseError
		res.Diagnostic = fmt.Sprintf("read output: %v", err)
		res.SolveTime = out.Elapsed.Seconds()
		return res
	}

	var parsed Result
	switch out.Job.Config.Method {
	case portfolio.MethodExact:
		parsed, err = parseClingo(raw)
	case portfolio.MethodLocalSearch:
		parsed, err = parseLocalSearch(raw)
	default:
		err = fmt.Errorf("no parser for method %q", out.Job.Config.Method)
	}
	if err != nil {
		res.Status = StatusParseError
		res.Diagnostic = err.Error()
		if out.Stderr != "" {
			res.Diagnostic += "; stderr: " + out.Stderr
		}
		res.SolveTime = out.Elapsed.Seconds()
		return res
	}

	res.Status = parsed.Status
	res.Objective = parsed.Objective
	res.Schedule = parsed.Schedule
	res.SolveTime = parsed.SolveTime
	// No solver-side timer in the output: fall back to the external
	// wall clock measured around the process.
	if res.SolveTime <= 0 {
		res.SolveTime = out.Elapsed.Seconds()
	}

	// The output carried no explicit terminal status. If the run was cut
	// off at the deadline the honest answer is unknown, regardless of
	// any partial content; a crash keeps the diagnostic visible.
	if parsed.Status == StatusUnknown {
		switch out.Status {
		case runner.OutcomeTimedOut:
			res.Diagnostic = "deadline exceeded"
		case runner.OutcomeCrashed:
			res.Diagnostic = fmt.Sprintf("solver exited abnormally (code %d)", out.ExitCode)
			if out.Stderr != "" {
				res.Diagnostic += ": " + out.Stderr
			}
		}
	}
	return res
}

// FromOutcomes parses a batch. Order follows the input.
func FromOutcomes(outs []runner.Outcome) []Result {
	results := make([]Result, len(outs))
	for i, out := range outs {
		results[i] = FromOutcome(out)
	}
	return results
}
