package portfolio

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"itcbench/internal/itc"
)

// Method distinguishes the two solving approaches in the portfolio.
// Both run through the same job pipeline; they differ only in the
// binary invoked, the portfolio subset that applies and the raw output
// format the parser has to handle.
type Method string

const (
	MethodExact       Method = "exact"
	MethodLocalSearch Method = "local"
)

func (m Method) Valid() bool {
	return m == MethodExact || m == MethodLocalSearch
}

// ConfigurationError marks a bad portfolio or instance setup. It is
// fatal: nothing is scheduled once one is detected.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Detail
}

func configErrf(format string, args ...any) error {
	return &ConfigurationError{Detail: fmt.Sprintf(format, args...)}
}

// Configuration is one named solver parameterization: the ordered
// argument tokens appended to the solver invocation.
type Configuration struct {
	Name   string   `yaml:"name"`
	Method Method   `yaml:"method"`
	Args   []string `yaml:"args"`
}

// Solvers holds the external executables. They are black boxes; the
// pipeline only needs paths it can exec.
type Solvers struct {
	ExactBin     string `yaml:"exact_bin"`
	LocalBin     string `yaml:"local_bin"`
	ValidatorBin string `yaml:"validator_bin"`
}

// Config is the full experiment setup: the configuration portfolio, the
// per-category configuration subsets, the per-category deadlines and
// the solver binaries. Loaded once at startup and read-only afterward;
// tests construct their own instead of touching globals.
type Config struct {
	Solvers        Solvers                   `yaml:"solvers"`
	Configurations []Configuration           `yaml:"configurations"`
	Subsets        map[itc.Category][]string `yaml:"category_subsets"`
	Deadlines      map[itc.Category]Deadline `yaml:"deadlines"`

	byName map[string]*Configuration
}

// Deadline wraps time.Duration so the YAML file can say "30m".
type Deadline struct {
	time.Duration
}

func (d *Deadline) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("bad deadline %q: %w", s, err)
	}
	d.Duration = dur
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configErrf("read portfolio file: %v", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, configErrf("parse portfolio file %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Configurations) == 0 {
		return configErrf("no configurations defined")
	}
	c.byName = make(map[string]*Configuration, len(c.Configurations))
	for i := range c.Configurations {
		cfg := &c.Configurations[i]
		if cfg.Name == "" {
			return configErrf("configuration %d has no name", i)
		}
		if !cfg.Method.Valid() {
			return configErrf("configuration %q: unknown method %q", cfg.Name, cfg.Method)
		}
		if _, dup := c.byName[cfg.Name]; dup {
			return configErrf("duplicate configuration name %q", cfg.Name)
		}
		for _, a := range cfg.Args {
			if a == "" {
				return configErrf("configuration %q has an empty argument token", cfg.Name)
			}
		}
		c.byName[cfg.Name] = cfg
	}

	for cat, names := range c.Subsets {
		if !cat.Valid() {
			return configErrf("category_subsets: unknown category %q", cat)
		}
		for _, name := range names {
			if _, ok := c.byName[name]; !ok {
				return configErrf("category_subsets[%s] references unknown configuration %q", cat, name)
			}
		}
	}
	for cat, d := range c.Deadlines {
		if !cat.Valid() {
			return configErrf("deadlines: unknown category %q", cat)
		}
		if d.Duration <= 0 {
			return configErrf("deadlines[%s] must be > 0 (got %s)", cat, d.Duration)
		}
	}
	if len(c.Deadlines) == 0 {
		return configErrf("no deadlines defined")
	}
	return nil
}

// Lookup returns the configuration with the given name.
func (c *Config) Lookup(name string) (*Configuration, bool) {
	cfg, ok := c.byName[name]
	return cfg, ok
}

// ForCategory returns the portfolio subset that applies to a category.
// Categories without an explicit subset get the full portfolio; this is
// how the late/middle waves run everything while early runs a trimmed
// set.
func (c *Config) ForCategory(cat itc.Category) []*Configuration {
	names, ok := c.Subsets[cat]
	if !ok {
		out := make([]*Configuration, 0, len(c.Configurations))
		for i := range c.Configurations {
			out = append(out, &c.Configurations[i])
		}
		return out
	}
	out := make([]*Configuration, 0, len(names))
	for _, name := range names {
		out = append(out, c.byName[name])
	}
	return out
}

// DeadlineFor returns the wall-clock budget for one run of an instance
// in the given category.
func (c *Config) DeadlineFor(cat itc.Category) (time.Duration, error) {
	d, ok := c.Deadlines[cat]
	if !ok {
		return 0, configErrf("no deadline for category %q", cat)
	}
	return d.Duration, nil
}

// BinFor maps a method to its solver executable.
func (c *Config) BinFor(m Method) (string, error) {
	switch m {
	case MethodExact:
		if c.Solvers.ExactBin == "" {
			return "", configErrf("solvers.exact_bin not set")
		}
		return c.Solvers.ExactBin, nil
	case MethodLocalSearch:
		if c.Solvers.LocalBin == "" {
			return "", configErrf("solvers.local_bin not set")
		}
		return c.Solvers.LocalBin, nil
	}
	return "", configErrf("unknown method %q", m)
}

// Default returns the portfolio used by the main experiment: clingo
// optimization strategies for the exact method and the annealer presets
// for local search.
func Default() *Config {
	cfg := &Config{
		Solvers: Solvers{
			ExactBin:     "clingo",
			LocalBin:     "ttsa",
			ValidatorBin: "RobinX",
		},
		Configurations: []Configuration{
			{Name: "DEF", Method: MethodExact, Args: []string{"--opt-strategy=bb,lin"}},
			{Name: "BB2", Method: MethodExact, Args: []string{"--opt-strategy=bb,hier"}},
			{Name: "USC15", Method: MethodExact, Args: []string{"--opt-strategy=usc,15"}},
			{Name: "USC15-CR", Method: MethodExact, Args: []string{"--opt-strategy=usc,15", "--opt-usc-shrink=min"}},
			{Name: "SA-FAST", Method: MethodLocalSearch, Args: []string{"--preset=fast"}},
			{Name: "SA-DEEP", Method: MethodLocalSearch, Args: []string{"--preset=deep"}},
		},
		Subsets: map[itc.Category][]string{
			itc.CategoryEarly: {"DEF", "USC15-CR", "SA-FAST"},
			itc.CategoryTest:  {"DEF", "SA-FAST"},
		},
		Deadlines: map[itc.Category]Deadline{
			itc.CategoryEarly:  {30 * time.Minute},
			itc.CategoryMiddle: {time.Hour},
			itc.CategoryLate:   {time.Hour},
			itc.CategoryTest:   {2 * time.Minute},
		},
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}
