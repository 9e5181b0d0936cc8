package itc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Category of an ITC2021 instance. The competition splits instances into
// three release waves plus a small test set.
type Category string

const (
	CategoryEarly  Category = "early"
	CategoryMiddle Category = "middle"
	CategoryLate   Category = "late"
	CategoryTest   Category = "test"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryEarly, CategoryMiddle, CategoryLate, CategoryTest:
		return true
	}
	return false
}

// Short returns the single-letter suffix used in instance file names,
// e.g. inst4_m.xml for middle4.
func (c Category) Short() string {
	if !c.Valid() || len(c) == 0 {
		return "?"
	}
	return string(c[:1])
}

type Instance struct {
	Category Category
	Number   int
	// Path is the instance XML file handed to the solvers.
	Path string
}

func NewInstance(category Category, number int, path string) (*Instance, error) {
	inst := &Instance{Category: category, Number: number, Path: path}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

func (inst *Instance) Validate() error {
	if inst == nil {
		return errors.New("instance is nil")
	}
	if !inst.Category.Valid() {
		return fmt.Errorf("unknown category %q", inst.Category)
	}
	if inst.Number <= 0 {
		return fmt.Errorf("instance number must be > 0 (got %d)", inst.Number)
	}
	if inst.Path == "" {
		return errors.New("instance path is empty")
	}
	return nil
}

// Key is the normalized identifier used throughout the pipeline,
// e.g. "early12". Result files, bound entries and analysis rows are
// all joined on this key.
func (inst *Instance) Key() string {
	return string(inst.Category) + strconv.Itoa(inst.Number)
}

// DisplayName is the competition-style name, e.g. "ITC2021_Early_12".
func (inst *Instance) DisplayName() string {
	c := string(inst.Category)
	return "ITC2021_" + strings.ToUpper(c[:1]) + c[1:] + "_" + strconv.Itoa(inst.Number)
}

var keyRe = regexp.MustCompile(`^([a-z]+)(\d+)$`)

// ParseKey splits a normalized key back into category and number.
func ParseKey(key string) (Category, int, error) {
	m := keyRe.FindStringSubmatch(key)
	if m == nil {
		return "", 0, fmt.Errorf("malformed instance key %q", key)
	}
	cat := Category(m[1])
	if !cat.Valid() {
		return "", 0, fmt.Errorf("instance key %q: unknown category %q", key, m[1])
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("instance key %q: bad sequence number", key)
	}
	return cat, n, nil
}

var instFileRe = regexp.MustCompile(`^inst(\d+)_([elmt])\.xml$`)

var shortToCategory = map[string]Category{
	"e": CategoryEarly,
	"m": CategoryMiddle,
	"l": CategoryLate,
	"t": CategoryTest,
}

// Discover scans a directory for instance files in the repository
// naming scheme (inst{N}_{e|m|l|t}.xml) and returns them sorted by
// category then number. Files that do not match the scheme are ignored;
// an empty result is an error because a run without instances is a
// setup mistake, not a valid experiment.
func Discover(dir string) ([]*Instance, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read instance dir: %w", err)
	}

	var out []*Instance
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := instFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		inst, err := NewInstance(shortToCategory[m[2]], n, filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("instance file %s: %w", e.Name(), err)
		}
		out = append(out, inst)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no instance files found in %s", dir)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}
