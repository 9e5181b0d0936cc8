// Package bounds loads the trusted reference bounds for each instance
// from the RobinX bound corpus. The corpus is the independent yardstick
// the analysis measures solver results against, so ambiguity in it is
// never papered over: two entries for one instance poison that
// instance's reconciliation instead of one being silently picked.
package bounds

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"itcbench/internal/itc"
)

// Provenance tags how trustworthy a reference objective is.
type Provenance string

const (
	// ProvenanceOptimal means lower and upper bound coincide: the value
	// is proven optimal.
	ProvenanceOptimal Provenance = "optimal"
	// ProvenanceBestKnown means the bounds leave a gap; the upper bound
	// is only the best solution anyone has reported.
	ProvenanceBestKnown Provenance = "best_known"
)

// ReferenceBound is the trusted bound record for one instance.
type ReferenceBound struct {
	InstanceKey string
	Lower       *float64
	Upper       *float64
	Provenance  Provenance
	SourceFile  string
}

// AmbiguousBoundError reports duplicate or conflicting corpus entries
// for one instance. It is fatal for that instance's reconciliation
// only; the rest of the table computes normally.
type AmbiguousBoundError struct {
	InstanceKey string
	Files       []string
}

func (e *AmbiguousBoundError) Error() string {
	return fmt.Sprintf("ambiguous reference bound for %s: entries in %s",
		e.InstanceKey, strings.Join(e.Files, ", "))
}

// Table is the extraction result: one bound per cleanly covered
// instance, plus the instances the corpus is ambiguous about.
type Table struct {
	Bounds    map[string]ReferenceBound
	Ambiguous map[string]*AmbiguousBoundError
}

// Lookup returns the bound for an instance key, or the ambiguity error
// if the corpus conflicts on it.
func (t *Table) Lookup(key string) (ReferenceBound, error) {
	if amb, ok := t.Ambiguous[key]; ok {
		return ReferenceBound{}, amb
	}
	rb, ok := t.Bounds[key]
	if !ok {
		return ReferenceBound{}, fmt.Errorf("no reference bound for %s", key)
	}
	return rb, nil
}

// boundFile mirrors the RobinX bound XML layout.
type boundFile struct {
	MetaData struct {
		InstanceName string `xml:"InstanceName"`
	} `xml:"MetaData"`
	LowerBound *struct {
		Objective string `xml:"Objective"`
	} `xml:"LowerBound"`
	UpperBound *struct {
		Objective string `xml:"Objective"`
	} `xml:"UpperBound"`
}

var boundNameRe = regexp.MustCompile(`^ITC2021_([A-Za-z]+)_(\d+)`)

// keyFromBoundFile normalizes ITC2021_Early_1_Bound.xml to early1.
func keyFromBoundFile(name string) (string, error) {
	m := boundNameRe.FindStringSubmatch(name)
	if m == nil {
		return "", fmt.Errorf("bound file %q does not follow the ITC2021 naming scheme", name)
	}
	cat := itc.Category(strings.ToLower(m[1]))
	if !cat.Valid() {
		return "", fmt.Errorf("bound file %q: unknown category %q", name, m[1])
	}
	return string(cat) + m[2], nil
}

// ExtractDir parses every bound XML in dir into a Table. Files that do
// not parse are skipped with a warning (the corpus carries some broken
// exports); a second entry for an already-covered instance marks that
// instance ambiguous.
func ExtractDir(dir string, logger *zap.Logger) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("scan bounds dir: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no bound files found in %s", dir)
	}
	sort.Strings(paths)

	t := &Table{
		Bounds:    make(map[string]ReferenceBound),
		Ambiguous: make(map[string]*AmbiguousBoundError),
	}
	for _, path := range paths {
		name := filepath.Base(path)
		key, err := keyFromBoundFile(name)
		if err != nil {
			logger.Warn("skipping bound file", zap.String("file", name), zap.Error(err))
			continue
		}
		rb, err := parseBoundFile(path, key)
		if err != nil {
			logger.Warn("skipping unparseable bound file", zap.String("file", name), zap.Error(err))
			continue
		}

		if amb, ok := t.Ambiguous[key]; ok {
			amb.Files = append(amb.Files, name)
			continue
		}
		if prev, ok := t.Bounds[key]; ok {
			t.Ambiguous[key] = &AmbiguousBoundError{
				InstanceKey: key,
				Files:       []string{prev.SourceFile, name},
			}
			delete(t.Bounds, key)
			logger.Error("conflicting reference bounds", zap.String("instance", key))
			continue
		}
		t.Bounds[key] = rb
	}
	logger.Info("reference bounds extracted",
		zap.Int("instances", len(t.Bounds)),
		zap.Int("ambiguous", len(t.Ambiguous)))
	return t, nil
}

func parseBoundFile(path, key string) (ReferenceBound, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ReferenceBound{}, err
	}
	var doc boundFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return ReferenceBound{}, fmt.Errorf("parse bound XML: %w", err)
	}

	rb := ReferenceBound{InstanceKey: key, SourceFile: filepath.Base(path)}
	if doc.LowerBound != nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(doc.LowerBound.Objective), 64)
		if err != nil {
			return ReferenceBound{}, fmt.Errorf("bad lower bound objective: %w", err)
		}
		rb.Lower = &v
	}
	if doc.UpperBound != nil {
		v, err := strconv.ParseFloat(strings.TrimSpace(doc.UpperBound.Objective), 64)
		if err != nil {
			return ReferenceBound{}, fmt.Errorf("bad upper bound objective: %w", err)
		}
		rb.Upper = &v
	}
	if rb.Lower == nil && rb.Upper == nil {
		return ReferenceBound{}, fmt.Errorf("bound file carries neither bound")
	}

	rb.Provenance = ProvenanceBestKnown
	if rb.Lower != nil && rb.Upper != nil && *rb.Lower == *rb.Upper {
		rb.Provenance = ProvenanceOptimal
	}
	return rb, nil
}

// WriteCSV dumps the table as the reference_bounds.csv artifact.
func (t *Table) WriteCSV(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"instance_key", "lower_bound", "upper_bound", "provenance", "source_file"}); err != nil {
		return err
	}

	keys := make([]string, 0, len(t.Bounds))
	for k := range t.Bounds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rb := t.Bounds[k]
		row := []string{k, floatCell(rb.Lower), floatCell(rb.Upper), string(rb.Provenance), rb.SourceFile}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
