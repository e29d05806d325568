package config

import (
	"mercator-hq/archivist/pkg/archive"
	"mercator-hq/archivist/pkg/archive/policy"
)

// Keys returns the metadata property names for the policy evaluator.
func (p PolicyConfig) Keys() policy.Keys {
	return policy.Keys{
		PublishDate:    p.PublishDateKey,
		Status:         p.StatusKey,
		Created:        p.CreatedKey,
		CompletedValue: p.CompletedValue,
	}
}

// CutoffSpec converts the cutoff configuration.
func (c CutoffConfig) CutoffSpec() (archive.CutoffSpec, error) {
	if c.Date != "" {
		t, err := archive.ParseDate(c.Date)
		if err != nil {
			return archive.CutoffSpec{}, err
		}
		return archive.CutoffSpec{At: t, Months: c.Months}, nil
	}
	return archive.MonthsBefore(c.Months), nil
}

// Request builds the run request for the configured job.
func (j JobConfig) Request() (archive.Request, error) {
	cutoff, err := j.Cutoff.CutoffSpec()
	if err != nil {
		return archive.Request{}, err
	}
	return archive.Request{
		BasePath:    j.BasePath,
		TargetPath:  j.TargetPath,
		ShadowPaths: append([]string(nil), j.ShadowPaths...),
		Cutoff:      cutoff,
		Mode:        policy.Mode(j.Policy.Mode),
		Keys:        j.Policy.Keys(),
		DryRun:      j.DryRun,
	}, nil
}
