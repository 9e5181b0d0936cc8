// Package result turns raw solver output into canonical records the
// reconciler can join. Parsing is deliberately forgiving: truncated or
// garbage output becomes a parse_error record, never a pipeline abort.
package result

import (
	"itcbench/internal/portfolio"
)

// Status is the canonical terminal state of one run.
type Status string

const (
	StatusOptimumFound  Status = "optimum_found"
	StatusSatisfiable   Status = "satisfiable"
	StatusUnsatisfiable Status = "unsatisfiable"
	StatusUnknown       Status = "unknown"
	StatusParseError    Status = "parse_error"
)

// Feasible reports whether the status implies a usable solution was
// found. optimum_found still goes through the external validator before
// the analysis trusts it.
func (s Status) Feasible() bool {
	return s == StatusOptimumFound || s == StatusSatisfiable
}

// Game is one scheduled match from a solution.
type Game struct {
	Home int
	Away int
	Slot int
}

// Result is the canonical parsed record for exactly one job.
type Result struct {
	InstanceKey string
	Config      string
	Method      portfolio.Method
	Status      Status
	// Objective is nil unless a feasible solution reported a value.
	// When the solver emitted several incumbents, this is the last one.
	Objective *int
	// SolveTime is in seconds: the solver's own timer when it reported
	// one, otherwise the externally measured wall clock.
	SolveTime float64
	// Diagnostic carries the raw failure detail for parse_error and
	// crash cases.
	Diagnostic string
	// Schedule is the best solution's games, when the output carried
	// them. Needed to write the solution XML for validation.
	Schedule []Game
}
