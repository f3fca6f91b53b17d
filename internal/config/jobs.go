package config

import (
	"fmt"
	"sort"
	"time"

	apperrors "fusioncli/internal/errors"
	"fusioncli/internal/matrix"
	"fusioncli/internal/phase"
	"fusioncli/internal/surprise"
)

// JobConfig is the file form of one output matrix.
type JobConfig struct {
	Name        string             `yaml:"name"`
	Primary     string             `yaml:"primary" validate:"required"`
	Cross       []string           `yaml:"cross"`
	Macro       []string           `yaml:"macro"`
	Surprise    map[string]float64 `yaml:"surprise"` // indicator name to composite weight; 0 means default weight
	Horizons    []int              `yaml:"horizons" validate:"dive,gt=0"`
	Interval    time.Duration      `yaml:"interval" validate:"gte=0"`
	MaxGapHours float64            `yaml:"max_gap_hours" validate:"gte=0"`
	Features    []string           `yaml:"features"`
}

// MatrixJob resolves names into a matrix job.
func (jc JobConfig) MatrixJob() (matrix.Job, error) {
	primary, err := matrix.ParseInstrument(jc.Primary)
	if err != nil {
		return matrix.Job{}, apperrors.NewConfigurationError("invalid primary instrument", err)
	}

	job := matrix.Job{
		Name:        jc.Name,
		Primary:     primary,
		Horizons:    jc.Horizons,
		Interval:    jc.Interval,
		MaxGapHours: jc.MaxGapHours,
		Features:    jc.Features,
	}
	for _, c := range jc.Cross {
		in, err := matrix.ParseInstrument(c)
		if err != nil {
			return matrix.Job{}, apperrors.NewConfigurationError("invalid cross instrument", err)
		}
		job.Cross = append(job.Cross, in)
	}
	for _, m := range jc.Macro {
		ms, err := matrix.ParseMacroSeries(m)
		if err != nil {
			return matrix.Job{}, apperrors.NewConfigurationError("invalid macro series", err)
		}
		job.Macro = append(job.Macro, ms)
	}
	if len(jc.Surprise) > 0 {
		job.Surprise = make(map[surprise.Indicator]float64, len(jc.Surprise))
		names := make([]string, 0, len(jc.Surprise))
		for name := range jc.Surprise {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ind, err := surprise.ParseIndicator(name)
			if err != nil {
				return matrix.Job{}, apperrors.NewConfigurationError("invalid surprise indicator", err)
			}
			w := jc.Surprise[name]
			if w < 0 {
				return matrix.Job{}, apperrors.NewConfigurationError(fmt.Sprintf("negative weight for %s", name), nil)
			}
			if w == 0 {
				w = ind.DefaultWeight()
			}
			job.Surprise[ind] = w
		}
	}

	job = job.WithDefaults()
	if err := job.Validate(); err != nil {
		return matrix.Job{}, err
	}
	return job, nil
}

// MatrixJobs resolves every configured job. Job names must be unique since
// each one owns an output directory.
func (c *Config) MatrixJobs() ([]matrix.Job, error) {
	if len(c.Jobs) == 0 {
		return nil, apperrors.NewConfigurationError("no jobs configured", nil)
	}
	jobs := make([]matrix.Job, 0, len(c.Jobs))
	seen := map[string]bool{}
	for i, jc := range c.Jobs {
		job, err := jc.MatrixJob()
		if err != nil {
			return nil, fmt.Errorf("jobs[%d]: %w", i, err)
		}
		if seen[job.Name] {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("duplicate job name %q", job.Name), nil)
		}
		seen[job.Name] = true
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Windows converts the phase section.
func (p PhaseConfig) Windows() phase.Windows {
	return phase.Windows{
		BlackoutBefore: p.BlackoutBefore,
		Imminent:       p.Imminent,
		Approach:       p.Approach,
		BlackoutAfter:  p.BlackoutAfter,
		Digesting:      p.Digesting,
		Settled:        p.Settled,
	}
}

// CalendarStart returns the configured lower bound for calendar loading, or
// the zero time when unset.
func (s SourcesConfig) CalendarStart() time.Time {
	if s.CalendarFrom == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.DateOnly, s.CalendarFrom)
	if err != nil {
		return time.Time{}
	}
	return t
}
