package analyze

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
)

// WriteCSV writes the analysis table, one row per instance, sorted as
// Reconcile left it.
func WriteCSV(path string, rows []Row) error {
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

	header := []string{
		"instance_key", "category", "number",
		"best", "winning_config", "winning_method",
		"best_exact", "best_exact_config",
		"best_local", "best_local_config",
		"ref_lower", "ref_upper", "provenance",
		"gap_percent", "gap_note",
		"validated", "disagreement", "validator_status", "validator_objective",
		"results", "parse_errors", "optima_found",
		"diagnostic",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		row := []string{
			r.InstanceKey,
			string(r.Category),
			itoa(r.Number),

			intCell(r.Best),
			r.WinningConfig,
			string(r.WinningMethod),

			intCell(r.BestExact),
			r.BestExactConfig,
			intCell(r.BestLocal),
			r.BestLocalConfig,

			floatCell(r.RefLower),
			floatCell(r.RefUpper),
			string(r.Provenance),

			floatCell(r.Gap),
			r.GapNote,

			strconv.FormatBool(r.Validated),
			strconv.FormatBool(r.Disagreement),
			string(r.ValidatorStatus),
			intCell(r.ValidatorObjective),

			itoa(r.Results),
			itoa(r.ParseErrors),
			itoa(r.OptimaFound),

			r.Diagnostic,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func itoa(v int) string { return strconv.Itoa(v) }

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}
