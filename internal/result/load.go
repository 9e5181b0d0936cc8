package result

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"itcbench/internal/portfolio"
)

var resultFileRe = regexp.MustCompile(`^([a-z]+\d+)_(.+)\.(json|log)$`)

// LoadDir re-parses a results directory produced by an earlier run,
// laid out as <dir>/<method>/<category>/<key>_<config>.<ext>. This is
// the offline path: run once, analyze as often as needed. Files that do
// not follow the naming scheme are skipped with a warning; files whose
// content fails to parse still become parse_error results.
func LoadDir(dir string, logger *zap.Logger) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var results []Result
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 2 {
			logger.Warn("skipping stray file in results dir", zap.String("file", rel))
			return nil
		}
		method := portfolio.Method(parts[0])
		if !method.Valid() {
			logger.Warn("skipping file under unknown method dir", zap.String("file", rel))
			return nil
		}
		m := resultFileRe.FindStringSubmatch(d.Name())
		if m == nil {
			logger.Warn("skipping unrecognized result file name", zap.String("file", rel))
			return nil
		}

		res := Result{InstanceKey: m[1], Config: m[2], Method: method}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}

		var parsed Result
		var perr error
		switch method {
		case portfolio.MethodExact:
			parsed, perr = parseClingo(raw)
		case portfolio.MethodLocalSearch:
			parsed, perr = parseLocalSearch(raw)
		}
		if perr != nil {
			res.Status = StatusParseError
			res.Diagnostic = perr.Error()
		} else {
			res.Status = parsed.Status
			res.Objective = parsed.Objective
			res.Schedule = parsed.Schedule
			res.SolveTime = parsed.SolveTime
		}
		results = append(results, res)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk results dir: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result files found in %s", dir)
	}
	logger.Info("results loaded", zap.String("dir", dir), zap.Int("count", len(results)))
	return results, nil
}
