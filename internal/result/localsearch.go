package result

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// The local-search solver writes a line protocol:
//
//	c <comment>
//	o <objective> t=<seconds>      incumbent report, later lines supersede
//	x <home> <away> <slot>         one game of the current incumbent
//	s FEASIBLE|INFEASIBLE|UNKNOWN  terminal status
//	t <seconds>                    solver-side total timer
//
// A truncated trace (killed at the deadline) typically ends mid-stream
// with incumbents but no "s" line; that still parses, the status just
// stays unknown.
var localStatus = map[string]Status{
	"FEASIBLE":   StatusSatisfiable,
	"INFEASIBLE": StatusUnsatisfiable,
	"UNKNOWN":    StatusUnknown,
}

func parseLocalSearch(raw []byte) (Result, error) {
	res := Result{Status: StatusUnknown}
	sawAnything := false
	var games []Game

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "c":
			sawAnything = true
		case "o":
			if len(fields) < 2 {
				return Result{}, fmt.Errorf("line %d: incumbent line without value", line)
			}
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				return Result{}, fmt.Errorf("line %d: bad incumbent %q", line, fields[1])
			}
			res.Objective = &v
			// A fresh incumbent resets the game list that follows it.
			games = nil
			sawAnything = true
		case "x":
			if len(fields) != 4 {
				return Result{}, fmt.Errorf("line %d: malformed game line", line)
			}
			home, err1 := strconv.Atoi(fields[1])
			away, err2 := strconv.Atoi(fields[2])
			slot, err3 := strconv.Atoi(fields[3])
			if err1 != nil || err2 != nil || err3 != nil {
				return Result{}, fmt.Errorf("line %d: malformed game line", line)
			}
			games = append(games, Game{Home: home, Away: away, Slot: slot})
			sawAnything = true
		case "s":
			if len(fields) < 2 {
				return Result{}, fmt.Errorf("line %d: status line without token", line)
			}
			st, ok := localStatus[fields[1]]
			if !ok {
				return Result{}, fmt.Errorf("line %d: unrecognized status token %q", line, fields[1])
			}
			res.Status = st
			sawAnything = true
		case "t":
			if len(fields) < 2 {
				return Result{}, fmt.Errorf("line %d: timer line without value", line)
			}
			sec, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return Result{}, fmt.Errorf("line %d: bad timer %q", line, fields[1])
			}
			res.SolveTime = sec
			sawAnything = true
		default:
			return Result{}, fmt.Errorf("line %d: unrecognized record %q", line, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("scan output: %w", err)
	}
	if !sawAnything {
		return Result{}, fmt.Errorf("empty output")
	}

	// The solver only proves feasibility, never optimality, so an
	// incumbent with a FEASIBLE status stays satisfiable.
	if res.Status == StatusSatisfiable && res.Objective == nil {
		return Result{}, fmt.Errorf("feasible status without incumbent")
	}
	res.Schedule = games
	return res, nil
}
