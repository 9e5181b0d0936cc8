// Package analyze joins parsed results, reference bounds and validator
// verdicts into the final per-instance analysis table.
package analyze

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"itcbench/internal/bounds"
	"itcbench/internal/itc"
	"itcbench/internal/portfolio"
	"itcbench/internal/result"
	"itcbench/internal/robinx"
)

// Row is one finalized analysis record per instance. Rows are computed
// independently and never mutated after Reconcile returns; recomputing
// means rebuilding the whole table.
type Row struct {
	InstanceKey string
	Category    itc.Category
	Number      int

	// Best feasible objective per solving method, with the
	// configuration that achieved it. Nil when the method produced no
	// feasible result for this instance.
	BestExact       *int
	BestExactConfig string
	BestLocal       *int
	BestLocalConfig string

	// Best across both methods.
	Best          *int
	WinningConfig string
	WinningMethod portfolio.Method

	RefLower   *float64
	RefUpper   *float64
	Provenance bounds.Provenance

	// Gap is the relative distance to the reference lower bound, in
	// percent. When it cannot be computed GapNote says why.
	Gap     *float64
	GapNote string

	// Validated is true only when the external validator independently
	// confirmed the best solution; a solver's own optimum claim is
	// never enough. Disagreement flags a feasibility claim the
	// validator rejected or re-costed differently.
	Validated          bool
	Disagreement       bool
	ValidatorObjective *int
	ValidatorStatus    robinx.ValidationStatus

	Results     int
	ParseErrors int
	OptimaFound int
	Diagnostic  string
}

// Analyzer reconciles one experiment. Bounds and Validator are
// injected; a nil Validator skips the cross-check and leaves every row
// unvalidated.
type Analyzer struct {
	Bounds       *bounds.Table
	Validator    robinx.Validator
	SolutionsDir string
	Logger       *zap.Logger
	Now          func() time.Time
}

// Reconcile produces exactly one Row per instance, in category/number
// order. Every instance in the list gets a row, including those whose
// jobs all failed; those report no feasible result rather than being
// dropped. Rows are independent, so they are computed in parallel.
func (a *Analyzer) Reconcile(ctx context.Context, instances []*itc.Instance, results []result.Result) ([]Row, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	byKey := make(map[string][]result.Result)
	for _, r := range results {
		byKey[r.InstanceKey] = append(byKey[r.InstanceKey], r)
	}

	rows := make([]Row, len(instances))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, inst := range instances {
		eg.Go(func() error {
			rows[i] = a.reconcileInstance(egCtx, inst, byKey[inst.Key()])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Category != rows[j].Category {
			return rows[i].Category < rows[j].Category
		}
		return rows[i].Number < rows[j].Number
	})

	logger.Info("reconciliation complete",
		zap.Int("rows", len(rows)),
		zap.Int("results", len(results)))
	return rows, nil
}

func (a *Analyzer) reconcileInstance(ctx context.Context, inst *itc.Instance, results []result.Result) Row {
	row := Row{
		InstanceKey: inst.Key(),
		Category:    inst.Category,
		Number:      inst.Number,
		Results:     len(results),
	}

	var best *result.Result
	for i := range results {
		r := &results[i]
		switch r.Status {
		case result.StatusParseError:
			row.ParseErrors++
		case result.StatusOptimumFound:
			row.OptimaFound++
		}
		if !r.Status.Feasible() || r.Objective == nil {
			continue
		}
		switch r.Method {
		case portfolio.MethodExact:
			if better(r, row.BestExact, row.BestExactConfig) {
				row.BestExact = r.Objective
				row.BestExactConfig = r.Config
			}
		case portfolio.MethodLocalSearch:
			if better(r, row.BestLocal, row.BestLocalConfig) {
				row.BestLocal = r.Objective
				row.BestLocalConfig = r.Config
			}
		}
		if best == nil || better(r, best.Objective, best.Config) {
			best = r
		}
	}

	if best != nil {
		row.Best = best.Objective
		row.WinningConfig = best.Config
		row.WinningMethod = best.Method
	}

	a.applyBounds(&row)
	if best != nil && a.Validator != nil {
		a.crossCheck(ctx, inst, best, &row)
	}
	return row
}

// better implements the objective comparison with the documented
// tie-break: equal objectives go to the lexicographically smaller
// configuration name.
func better(r *result.Result, cur *int, curConfig string) bool {
	if cur == nil {
		return true
	}
	if *r.Objective != *cur {
		return *r.Objective < *cur
	}
	return r.Config < curConfig
}

func (a *Analyzer) applyBounds(row *Row) {
	if a.Bounds == nil {
		row.GapNote = "no reference bound"
		return
	}
	rb, err := a.Bounds.Lookup(row.InstanceKey)
	if err != nil {
		if _, ok := err.(*bounds.AmbiguousBoundError); ok {
			row.GapNote = "ambiguous reference bound"
			row.Diagnostic = err.Error()
		} else {
			row.GapNote = "no reference bound"
		}
		return
	}
	row.RefLower = rb.Lower
	row.RefUpper = rb.Upper
	row.Provenance = rb.Provenance

	switch {
	case row.Best == nil:
		row.GapNote = "no feasible result"
	case rb.Lower == nil:
		row.GapNote = "no lower bound"
	case *rb.Lower == 0:
		// Corpus convention: against a zero lower bound the gap is the
		// raw cost.
		g := float64(*row.Best)
		row.Gap = &g
	default:
		g := (float64(*row.Best) - *rb.Lower) / *rb.Lower * 100
		row.Gap = &g
	}
}

// crossCheck writes the winning solution as ITC2021 XML and has the
// validator recompute its feasibility and objective.
func (a *Analyzer) crossCheck(ctx context.Context, inst *itc.Instance, best *result.Result, row *Row) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(best.Schedule) == 0 {
		row.Disagreement = best.Status == result.StatusOptimumFound
		row.Diagnostic = appendNote(row.Diagnostic, "winning result carries no schedule to validate")
		return
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	solPath := robinx.SolutionPath(a.SolutionsDir, inst, best.Config)
	if err := robinx.WriteSolution(solPath, inst, *best, now()); err != nil {
		row.Diagnostic = appendNote(row.Diagnostic, fmt.Sprintf("write solution: %v", err))
		return
	}

	rep := a.Validator.Check(ctx, inst.Path, solPath)
	row.ValidatorStatus = rep.Status
	row.ValidatorObjective = rep.Objective

	switch {
	case rep.Feasible() && rep.Objective != nil && *rep.Objective == *best.Objective:
		row.Validated = true
	case rep.Feasible():
		// Validator accepts the schedule but recomputes a different
		// cost than the solver claimed.
		row.Disagreement = true
		row.Diagnostic = appendNote(row.Diagnostic,
			fmt.Sprintf("validator objective %d != solver objective %d", *rep.Objective, *best.Objective))
	default:
		row.Disagreement = true
		row.Diagnostic = appendNote(row.Diagnostic,
			fmt.Sprintf("validator rejected solution (%s): %s", rep.Status, rep.Detail))
		logger.Warn("validator disagreement",
			zap.String("instance", inst.Key()),
			zap.String("config", best.Config),
			zap.String("validator_status", string(rep.Status)))
	}
}

func appendNote(cur, note string) string {
	if cur == "" {
		return note
	}
	return cur + "; " + note
}
