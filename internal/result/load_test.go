package result

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itcbench/internal/portfolio"
)

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, body string) {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	write("exact/early/early12_BB2.json",
		`{"Result":"OPTIMUM FOUND","Time":{"Solve":5.0},"Call":[{"Witnesses":[{"Costs":[1635]}]}]}`)
	write("exact/early/early12_USC15-CR.json", `{"Result":"UNKNOWN","Time":{"Total":600}}`)
	write("local/middle/middle4_SA-FAST.log", "o 2100 t=4\ns FEASIBLE\nt 9.5\n")
	write("exact/late/late1_DEF.json", "not json at all")
	write("exact/late/README.txt", "stray")

	results, err := LoadDir(dir, nil)
	require.NoError(t, err)
	require.Len(t, results, 4)

	byID := map[string]Result{}
	for _, r := range results {
		byID[r.InstanceKey+"_"+r.Config] = r
	}

	opt := byID["early12_BB2"]
	assert.Equal(t, StatusOptimumFound, opt.Status)
	assert.Equal(t, portfolio.MethodExact, opt.Method)
	require.NotNil(t, opt.Objective)
	assert.Equal(t, 1635, *opt.Objective)

	// Configuration names with dashes survive the filename split.
	assert.Equal(t, StatusUnknown, byID["early12_USC15-CR"].Status)

	sa := byID["middle4_SA-FAST"]
	assert.Equal(t, portfolio.MethodLocalSearch, sa.Method)
	assert.Equal(t, StatusSatisfiable, sa.Status)

	// A corrupt file still yields a record, as parse_error.
	assert.Equal(t, StatusParseError, byID["late1_DEF"].Status)
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir(), nil)
	assert.Error(t, err)
}
