package analyze

import (
	"math"
	"sort"

	"itcbench/internal/result"
)

// CostStats summarizes the feasible objectives one configuration
// achieved across instances.
type CostStats struct {
	N    int
	Best int
	Mean float64
	Std  float64
}

func CalcCostStats(values []int) CostStats {
	s := CostStats{N: len(values)}
	if s.N == 0 {
		return s
	}

	best := values[0]
	sum := 0.0
	for _, v := range values {
		if v < best {
			best = v
		}
		sum += float64(v)
	}
	mean := sum / float64(s.N)

	variance := 0.0
	if s.N >= 2 {
		for _, v := range values {
			d := float64(v) - mean
			variance += d * d
		}
		variance /= float64(s.N - 1)
	}

	s.Best = best
	s.Mean = mean
	s.Std = math.Sqrt(variance)
	return s
}

// TimeStats summarizes solve times in seconds.
type TimeStats struct {
	N    int
	Best float64
	Mean float64
	Std  float64
}

func CalcTimeStats(values []float64) TimeStats {
	s := TimeStats{N: len(values)}
	if s.N == 0 {
		return s
	}

	best := values[0]
	sum := 0.0
	for _, v := range values {
		if v < best {
			best = v
		}
		sum += v
	}
	mean := sum / float64(s.N)

	variance := 0.0
	if s.N >= 2 {
		for _, v := range values {
			d := v - mean
			variance += d * d
		}
		variance /= float64(s.N - 1)
	}

	s.Best = best
	s.Mean = mean
	s.Std = math.Sqrt(variance)
	return s
}

// ConfigPerformance aggregates one configuration's record across the
// whole experiment.
type ConfigPerformance struct {
	Config string
	Cost   CostStats
	Time   TimeStats
	// Wins counts instances where this configuration was the winner.
	Wins int
}

// PerConfiguration builds the per-configuration performance table from
// raw results and the finalized rows, sorted by wins then name.
func PerConfiguration(results []result.Result, rows []Row) []ConfigPerformance {
	costs := make(map[string][]int)
	times := make(map[string][]float64)
	for _, r := range results {
		if r.Status.Feasible() && r.Objective != nil {
			costs[r.Config] = append(costs[r.Config], *r.Objective)
		}
		times[r.Config] = append(times[r.Config], r.SolveTime)
	}
	wins := make(map[string]int)
	for _, row := range rows {
		if row.WinningConfig != "" {
			wins[row.WinningConfig]++
		}
	}

	names := make(map[string]bool)
	for c := range times {
		names[c] = true
	}
	for c := range costs {
		names[c] = true
	}

	out := make([]ConfigPerformance, 0, len(names))
	for name := range names {
		out = append(out, ConfigPerformance{
			Config: name,
			Cost:   CalcCostStats(costs[name]),
			Time:   CalcTimeStats(times[name]),
			Wins:   wins[name],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Config < out[j].Config
	})
	return out
}
