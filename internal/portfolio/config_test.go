package portfolio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itcbench/internal/itc"
)

const portfolioYAML = `
solvers:
  exact_bin: /opt/clingo/clingo
  local_bin: /opt/ttsa/ttsa
  validator_bin: /opt/robinx/RobinX
configurations:
  - name: DEF
    method: exact
    args: ["--opt-strategy=bb,lin"]
  - name: USC15
    method: exact
    args: ["--opt-strategy=usc,15"]
  - name: SA-FAST
    method: local
    args: ["--preset=fast"]
category_subsets:
  early: [DEF, SA-FAST]
deadlines:
  early: 30m
  middle: 1h
  late: 1h
  test: 90s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, portfolioYAML))
	require.NoError(t, err)

	d, err := cfg.DeadlineFor(itc.CategoryEarly)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d)

	d, err = cfg.DeadlineFor(itc.CategoryTest)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	bin, err := cfg.BinFor(MethodLocalSearch)
	require.NoError(t, err)
	assert.Equal(t, "/opt/ttsa/ttsa", bin)

	conf, ok := cfg.Lookup("USC15")
	require.True(t, ok)
	assert.Equal(t, MethodExact, conf.Method)
}

func TestForCategorySubset(t *testing.T) {
	cfg, err := Load(writeConfig(t, portfolioYAML))
	require.NoError(t, err)

	early := cfg.ForCategory(itc.CategoryEarly)
	require.Len(t, early, 2)
	assert.Equal(t, "DEF", early[0].Name)
	assert.Equal(t, "SA-FAST", early[1].Name)

	// No subset defined: the whole portfolio applies.
	late := cfg.ForCategory(itc.CategoryLate)
	assert.Len(t, late, 3)
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no configurations", func(c *Config) { c.Configurations = nil }},
		{"unnamed configuration", func(c *Config) { c.Configurations[0].Name = "" }},
		{"unknown method", func(c *Config) { c.Configurations[0].Method = "quantum" }},
		{"duplicate name", func(c *Config) { c.Configurations[1].Name = c.Configurations[0].Name }},
		{"empty arg token", func(c *Config) { c.Configurations[0].Args = []string{""} }},
		{"subset references unknown config", func(c *Config) {
			c.Subsets[itc.CategoryEarly] = []string{"NOPE"}
		}},
		{"subset for unknown category", func(c *Config) {
			c.Subsets["spring"] = []string{"DEF"}
		}},
		{"zero deadline", func(c *Config) {
			c.Deadlines[itc.CategoryLate] = Deadline{}
		}},
		{"no deadlines", func(c *Config) { c.Deadlines = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, portfolioYAML))
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			var cfgErr *ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "want ConfigurationError, got %T", err)
		})
	}
}

func TestLoadBadDeadlineSyntax(t *testing.T) {
	_, err := Load(writeConfig(t, `
configurations:
  - name: DEF
    method: exact
deadlines:
  early: soon
`))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.ForCategory(itc.CategoryMiddle))
}
