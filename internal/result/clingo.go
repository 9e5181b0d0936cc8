package result

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// clingoOutput mirrors the fragment of the clingo JSON document the
// pipeline consumes. Unknown fields are ignored.
type clingoOutput struct {
	Result string `json:"Result"`
	Time   struct {
		Total float64 `json:"Total"`
		Solve float64 `json:"Solve"`
		CPU   float64 `json:"CPU"`
	} `json:"Time"`
	Models struct {
		Number  int    `json:"Number"`
		Optimum string `json:"Optimum"`
	} `json:"Models"`
	Call []struct {
		Witnesses []clingoWitness `json:"Witnesses"`
	} `json:"Call"`
}

type clingoWitness struct {
	Value []string `json:"Value"`
	Costs []int    `json:"Costs"`
}

var clingoStatus = map[string]Status{
	"OPTIMUM FOUND": StatusOptimumFound,
	"SATISFIABLE":   StatusSatisfiable,
	"UNSATISFIABLE": StatusUnsatisfiable,
	"UNKNOWN":       StatusUnknown,
}

var scheduleAtomRe = regexp.MustCompile(`^schedule\((\d+),(\d+),(\d+)\)$`)

// parseClingo extracts status, last incumbent cost, solve time and the
// schedule atoms from a clingo JSON document. Witnesses appear in
// discovery order, so the last one is the best incumbent; earlier
// witnesses are superseded.
func parseClingo(raw []byte) (Result, error) {
	var doc clingoOutput
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Result{}, fmt.Errorf("malformed clingo JSON: %w", err)
	}

	res := Result{Status: StatusUnknown}
	if doc.Result != "" {
		st, ok := clingoStatus[doc.Result]
		if !ok {
			return Result{}, fmt.Errorf("unrecognized result token %q", doc.Result)
		}
		res.Status = st
	}

	// Prefer the solver's pure solving timer; it excludes grounding and
	// process startup. Total is the fallback.
	switch {
	case doc.Time.Solve > 0:
		res.SolveTime = doc.Time.Solve
	case doc.Time.Total > 0:
		res.SolveTime = doc.Time.Total
	}

	if len(doc.Call) > 0 && len(doc.Call[0].Witnesses) > 0 {
		ws := doc.Call[0].Witnesses
		last := ws[len(ws)-1]
		if len(last.Costs) > 0 {
			v := last.Costs[0]
			res.Objective = &v
		}
		res.Schedule = parseScheduleAtoms(last.Value)
	}
	return res, nil
}

func parseScheduleAtoms(atoms []string) []Game {
	var games []Game
	for _, a := range atoms {
		m := scheduleAtomRe.FindStringSubmatch(a)
		if m == nil {
			continue
		}
		home, _ := strconv.Atoi(m[1])
		away, _ := strconv.Atoi(m[2])
		slot, _ := strconv.Atoi(m[3])
		games = append(games, Game{Home: home, Away: away, Slot: slot})
	}
	return games
}
