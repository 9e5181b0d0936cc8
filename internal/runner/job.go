package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"itcbench/internal/itc"
	"itcbench/internal/portfolio"
)

// Job is one atomic unit of work: run one configuration on one instance
// under one deadline. Jobs are built once by the matrix builder and
// never mutated; a rerun builds a fresh matrix.
type Job struct {
	Instance *itc.Instance
	Config   *portfolio.Configuration
	Deadline time.Duration
	// OutputPath is where the solver's stdout lands. The path is unique
	// per job, so executors never contend on a file.
	OutputPath string
}

// ID identifies the job in logs and file names, e.g. "early12_BB2".
func (j Job) ID() string {
	return j.Instance.Key() + "_" + j.Config.Name
}

// BuildMatrix expands (instances × applicable configurations) into the
// ordered job list. Which configurations apply is decided by the
// instance's category subset; the deadline likewise comes from the
// category. Any setup problem (unresolvable instance file, missing
// deadline, duplicate pair) aborts here, before anything is scheduled.
func BuildMatrix(instances []*itc.Instance, cfg *portfolio.Config, outDir string) ([]Job, error) {
	seen := make(map[string]bool)
	var jobs []Job

	for _, inst := range instances {
		if err := inst.Validate(); err != nil {
			return nil, &portfolio.ConfigurationError{Detail: err.Error()}
		}
		if _, err := os.Stat(inst.Path); err != nil {
			return nil, &portfolio.ConfigurationError{
				Detail: fmt.Sprintf("instance %s: file not resolvable: %v", inst.Key(), err),
			}
		}
		deadline, err := cfg.DeadlineFor(inst.Category)
		if err != nil {
			return nil, err
		}
		for _, conf := range cfg.ForCategory(inst.Category) {
			if _, err := cfg.BinFor(conf.Method); err != nil {
				return nil, err
			}
			key := inst.Key() + "/" + conf.Name
			if seen[key] {
				return nil, &portfolio.ConfigurationError{
					Detail: fmt.Sprintf("duplicate job for %s", key),
				}
			}
			seen[key] = true

			ext := ".json"
			if conf.Method == portfolio.MethodLocalSearch {
				ext = ".log"
			}
			jobs = append(jobs, Job{
				Instance: inst,
				Config:   conf,
				Deadline: deadline,
				OutputPath: filepath.Join(outDir, string(conf.Method),
					string(inst.Category), inst.Key()+"_"+conf.Name+ext),
			})
		}
	}
	return jobs, nil
}
