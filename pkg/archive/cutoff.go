package archive

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of absolute cutoff dates on the command line and
// in the HTTP trigger.
const DateLayout = "2006-01-02"

// CutoffSpec describes the run cutoff: either an absolute instant or a number
// of calendar months before the run start.
type CutoffSpec struct {
	// At is the absolute cutoff. It takes precedence when set.
	At time.Time `json:"at,omitempty"`

	// Months is the relative cutoff in calendar months before now.
	Months int `json:"months,omitempty"`
}

// AbsoluteCutoff returns a spec for the instant t.
func AbsoluteCutoff(t time.Time) CutoffSpec {
	return CutoffSpec{At: t}
}

// MonthsBefore returns a spec for n months before the run start.
func MonthsBefore(n int) CutoffSpec {
	return CutoffSpec{Months: n}
}

// IsZero reports whether the spec is unset.
func (c CutoffSpec) IsZero() bool {
	return c.At.IsZero() && c.Months == 0
}

// Validate checks that the spec describes exactly one cutoff.
func (c CutoffSpec) Validate() error {
	switch {
	case !c.At.IsZero() && c.Months != 0:
		return fmt.Errorf("cutoff: set either a date or months, not both")
	case c.At.IsZero() && c.Months <= 0:
		return fmt.Errorf("cutoff: months must be positive, got %d", c.Months)
	}
	return nil
}

// Resolve computes the cutoff instant against clock. It is called once per
// run; the result is frozen for the whole walk.
func (c CutoffSpec) Resolve(clock Clock) (time.Time, error) {
	if err := c.Validate(); err != nil {
		return time.Time{}, err
	}
	if !c.At.IsZero() {
		return c.At.UTC(), nil
	}
	return clock.Now().UTC().AddDate(0, -c.Months, 0), nil
}

// String describes the spec for logs.
func (c CutoffSpec) String() string {
	if !c.At.IsZero() {
		return c.At.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%d months ago", c.Months)
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
