// Package robinx speaks the RobinX side of the pipeline: writing
// ITC2021 solution XML documents and invoking the RobinX validator as
// an opaque tool. Everything about the timetabling semantics stays
// inside RobinX; this package only moves bytes across its boundary.
package robinx

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"itcbench/internal/itc"
	"itcbench/internal/result"
)

type solutionDoc struct {
	XMLName  xml.Name     `xml:"Solution"`
	MetaData solutionMeta `xml:"MetaData"`
	Games    struct {
		Matches []scheduledMatch `xml:"ScheduledMatch"`
	} `xml:"Games"`
}

type solutionMeta struct {
	InstanceName string       `xml:"InstanceName"`
	Contributor  string       `xml:"Contributor"`
	Date         solutionDate `xml:"Date"`
}

type solutionDate struct {
	Day   int `xml:"day,attr"`
	Month int `xml:"month,attr"`
	Year  int `xml:"year,attr"`
}

type scheduledMatch struct {
	Home int `xml:"home,attr"`
	Away int `xml:"away,attr"`
	Slot int `xml:"slot,attr"`
}

// WriteSolution emits the schedule of one Result as an ITC2021
// <Solution> document the validator accepts. The objective is left out
// on purpose: RobinX recomputes it, which is the whole point of the
// cross-check.
func WriteSolution(path string, inst *itc.Instance, res result.Result, now time.Time) error {
	if len(res.Schedule) == 0 {
		return fmt.Errorf("result %s_%s carries no schedule", res.InstanceKey, res.Config)
	}

	doc := solutionDoc{
		MetaData: solutionMeta{
			InstanceName: fmt.Sprintf("inst%d_%s.xml", inst.Number, inst.Category.Short()),
			Contributor:  fmt.Sprintf("%s_%s", res.Method, res.Config),
			Date:         solutionDate{Day: now.Day(), Month: int(now.Month()), Year: now.Year()},
		},
	}

	games := make([]scheduledMatch, len(res.Schedule))
	for i, g := range res.Schedule {
		games[i] = scheduledMatch{Home: g.Home, Away: g.Away, Slot: g.Slot}
	}
	sort.SliceStable(games, func(i, j int) bool { return games[i].Slot < games[j].Slot })
	doc.Games.Matches = games

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create solutions dir: %w", err)
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal solution: %w", err)
	}
	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write solution: %w", err)
	}
	return nil
}

// SolutionPath is the conventional location of a solution file,
// e.g. <dir>/Early_12_BB2.xml.
func SolutionPath(dir string, inst *itc.Instance, configName string) string {
	c := string(inst.Category)
	name := fmt.Sprintf("%s%s_%d_%s.xml", strings.ToUpper(c[:1]), c[1:], inst.Number, configName)
	return filepath.Join(dir, name)
}
