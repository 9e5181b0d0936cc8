package runner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itcbench/internal/itc"
	"itcbench/internal/portfolio"
)

func testConfig(t *testing.T) *portfolio.Config {
	t.Helper()
	cfg := &portfolio.Config{
		Solvers: portfolio.Solvers{ExactBin: "clingo", LocalBin: "ttsa"},
		Configurations: []portfolio.Configuration{
			{Name: "DEF", Method: portfolio.MethodExact, Args: []string{"--opt-strategy=bb,lin"}},
			{Name: "USC15", Method: portfolio.MethodExact, Args: []string{"--opt-strategy=usc,15"}},
			{Name: "SA-FAST", Method: portfolio.MethodLocalSearch, Args: []string{"--preset=fast"}},
		},
		Subsets: map[itc.Category][]string{
			itc.CategoryEarly: {"DEF", "SA-FAST"},
		},
		Deadlines: map[itc.Category]portfolio.Deadline{
			itc.CategoryEarly:  {Duration: time.Minute},
			itc.CategoryMiddle: {Duration: 2 * time.Minute},
		},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func testInstance(t *testing.T, dir string, cat itc.Category, n int) *itc.Instance {
	t.Helper()
	path := filepath.Join(dir, "inst.xml")
	require.NoError(t, os.WriteFile(path, []byte("<x/>"), 0o644))
	inst, err := itc.NewInstance(cat, n, path)
	require.NoError(t, err)
	return inst
}

func TestBuildMatrix(t *testing.T) {
	cfg := testConfig(t)
	instances := []*itc.Instance{
		testInstance(t, t.TempDir(), itc.CategoryEarly, 1),
		testInstance(t, t.TempDir(), itc.CategoryMiddle, 4),
	}

	jobs, err := BuildMatrix(instances, cfg, "out")
	require.NoError(t, err)

	// early1 runs its 2-configuration subset, middle4 the full portfolio.
	require.Len(t, jobs, 5)
	assert.Equal(t, "early1_DEF", jobs[0].ID())
	assert.Equal(t, "early1_SA-FAST", jobs[1].ID())
	assert.Equal(t, "middle4_DEF", jobs[2].ID())

	assert.Equal(t, time.Minute, jobs[0].Deadline)
	assert.Equal(t, 2*time.Minute, jobs[2].Deadline)

	assert.Equal(t, filepath.Join("out", "exact", "early", "early1_DEF.json"), jobs[0].OutputPath)
	assert.Equal(t, filepath.Join("out", "local", "early", "early1_SA-FAST.log"), jobs[1].OutputPath)

	// Output paths are partitioned per job.
	seen := map[string]bool{}
	for _, j := range jobs {
		assert.False(t, seen[j.OutputPath], "duplicate output path %s", j.OutputPath)
		seen[j.OutputPath] = true
	}
}

func TestBuildMatrixMissingInstanceFile(t *testing.T) {
	cfg := testConfig(t)
	inst, err := itc.NewInstance(itc.CategoryEarly, 1, filepath.Join(t.TempDir(), "gone.xml"))
	require.NoError(t, err)

	_, err = BuildMatrix([]*itc.Instance{inst}, cfg, "out")
	require.Error(t, err)
	var cfgErr *portfolio.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestBuildMatrixMissingDeadline(t *testing.T) {
	cfg := testConfig(t)
	inst := testInstance(t, t.TempDir(), itc.CategoryLate, 2)

	_, err := BuildMatrix([]*itc.Instance{inst}, cfg, "out")
	require.Error(t, err)
	var cfgErr *portfolio.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}
