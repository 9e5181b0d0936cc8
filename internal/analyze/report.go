package analyze

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"itcbench/internal/result"
	"itcbench/internal/runner"
)

// Summary is the user-facing digest of one experiment: outcome and
// status censuses, validation verdicts and the instances that need a
// second look. Instances without a feasible result are listed by name,
// never silently omitted.
type Summary struct {
	RunID       string
	GeneratedAt time.Time

	Tally    runner.Tally
	Statuses map[result.Status]int

	Rows          int
	Validated     int
	Disagreements int

	NoFeasible []string
	Ambiguous  []string

	Configs []ConfigPerformance
}

func Summarize(runID string, rows []Row, results []result.Result, tally runner.Tally) Summary {
	s := Summary{
		RunID:       runID,
		GeneratedAt: time.Now(),
		Tally:       tally,
		Statuses:    make(map[result.Status]int),
		Rows:        len(rows),
		Configs:     PerConfiguration(results, rows),
	}
	for _, r := range results {
		s.Statuses[r.Status]++
	}
	for _, row := range rows {
		if row.Validated {
			s.Validated++
		}
		if row.Disagreement {
			s.Disagreements++
		}
		if row.Best == nil {
			s.NoFeasible = append(s.NoFeasible, row.InstanceKey)
		}
		if row.GapNote == "ambiguous reference bound" {
			s.Ambiguous = append(s.Ambiguous, row.InstanceKey)
		}
	}
	sort.Strings(s.NoFeasible)
	sort.Strings(s.Ambiguous)
	return s
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "EXPERIMENT SUMMARY (run %s)\n", s.RunID)
	fmt.Fprintf(&b, "Generated: %s\n\n", s.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "Jobs: %d completed, %d timed out, %d crashed, %d never started (total %d)\n",
		s.Tally.Completed, s.Tally.TimedOut, s.Tally.Crashed, s.Tally.NeverStarted, s.Tally.Total())

	fmt.Fprintf(&b, "Results by status:\n")
	statuses := make([]string, 0, len(s.Statuses))
	for st := range s.Statuses {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		fmt.Fprintf(&b, "  %-15s %d\n", st, s.Statuses[result.Status(st)])
	}

	fmt.Fprintf(&b, "\nInstances analyzed: %d\n", s.Rows)
	fmt.Fprintf(&b, "Validator-confirmed best solutions: %d\n", s.Validated)
	fmt.Fprintf(&b, "Validator disagreements: %d\n", s.Disagreements)

	if len(s.NoFeasible) > 0 {
		fmt.Fprintf(&b, "\nInstances without a feasible result:\n")
		for _, k := range s.NoFeasible {
			fmt.Fprintf(&b, "  %s\n", k)
		}
	}
	if len(s.Ambiguous) > 0 {
		fmt.Fprintf(&b, "\nInstances with ambiguous reference bounds (gap undefined):\n")
		for _, k := range s.Ambiguous {
			fmt.Fprintf(&b, "  %s\n", k)
		}
	}

	if len(s.Configs) > 0 {
		fmt.Fprintf(&b, "\nPer-configuration performance:\n")
		fmt.Fprintf(&b, "  %-12s %5s %10s %12s %12s %5s\n", "config", "n", "best", "mean", "time_mean", "wins")
		for _, c := range s.Configs {
			fmt.Fprintf(&b, "  %-12s %5d %10d %12.2f %10.2fs %5d\n",
				c.Config, c.Cost.N, c.Cost.Best, c.Cost.Mean, c.Time.Mean, c.Wins)
		}
	}
	return b.String()
}

// WriteReport saves the summary as the plain-text pipeline report.
func (s Summary) WriteReport(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(s.String()), 0o644)
}
