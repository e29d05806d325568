// Package policy implements the retention eligibility policies.
//
// A Policy is a pure function of an item's metadata and the run cutoff. It
// never touches the store, so the archival job may evaluate speculatively
// while deciding what to do with a folder.
//
// Two modes are supported:
//
//   - publish_date: eligible iff the publish timestamp exists and is strictly
//     before the cutoff.
//   - status_and_creation_date: eligible iff the status equals the completed
//     value and the creation timestamp exists and is strictly before the
//     cutoff.
package policy

import (
	"fmt"
	"time"

	"mercator-hq/archivist/pkg/content"
)

// Mode selects the eligibility rule for a run.
type Mode string

const (
	// ModePublishDate archives items whose publish date is before the cutoff.
	ModePublishDate Mode = "publish_date"

	// ModeStatusAndCreationDate archives completed items created before the
	// cutoff.
	ModeStatusAndCreationDate Mode = "status_and_creation_date"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePublishDate, ModeStatusAndCreationDate:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown policy mode %q (want %q or %q)",
			s, ModePublishDate, ModeStatusAndCreationDate)
	}
}

// Verdict is the outcome of evaluating one item.
type Verdict int

const (
	// Indeterminate means required metadata is missing or malformed, or the
	// status does not qualify. Aggregation treats it like Ineligible.
	Indeterminate Verdict = iota

	// Ineligible means the item is too recent.
	Ineligible

	// Eligible means the item may be archived.
	Eligible
)

// String returns the verdict name used in logs and metric labels.
func (v Verdict) String() string {
	switch v {
	case Eligible:
		return "eligible"
	case Ineligible:
		return "ineligible"
	default:
		return "indeterminate"
	}
}

// Result is a verdict plus a human-readable reason.
type Result struct {
	Verdict Verdict
	Reason  string
}

// Eligible reports whether the result allows archiving.
func (r Result) Eligible() bool {
	return r.Verdict == Eligible
}

// Policy decides whether an item is eligible for archiving.
type Policy interface {
	// Mode returns the mode the policy implements.
	Mode() Mode

	// Evaluate classifies metadata against cutoff.
	Evaluate(md content.Metadata, cutoff time.Time) Result
}

// Keys names the metadata properties the policies read.
type Keys struct {
	// PublishDate is the publish timestamp property.
	PublishDate string

	// Status is the lifecycle status property.
	Status string

	// Created is the creation timestamp property.
	Created string

	// CompletedValue is the status value that qualifies for archiving.
	CompletedValue string
}

// DefaultKeys returns the default property names.
func DefaultKeys() Keys {
	return Keys{
		PublishDate:    "publishDate",
		Status:         "status",
		Created:        "created",
		CompletedValue: "COMPLETED",
	}
}

// New builds the policy for mode. Empty keys fall back to DefaultKeys.
func New(mode Mode, keys Keys) (Policy, error) {
	def := DefaultKeys()
	if keys.PublishDate == "" {
		keys.PublishDate = def.PublishDate
	}
	if keys.Status == "" {
		keys.Status = def.Status
	}
	if keys.Created == "" {
		keys.Created = def.Created
	}
	if keys.CompletedValue == "" {
		keys.CompletedValue = def.CompletedValue
	}

	switch mode {
	case ModePublishDate:
		return &PublishDatePolicy{Key: keys.PublishDate}, nil
	case ModeStatusAndCreationDate:
		return &StatusCreationPolicy{
			StatusKey:      keys.Status,
			CompletedValue: keys.CompletedValue,
			CreatedKey:     keys.Created,
		}, nil
	default:
		return nil, fmt.Errorf("unknown policy mode %q", mode)
	}
}

// PublishDatePolicy archives items published strictly before the cutoff.
type PublishDatePolicy struct {
	Key string
}

// Mode returns ModePublishDate.
func (p *PublishDatePolicy) Mode() Mode {
	return ModePublishDate
}

// Evaluate classifies md.
func (p *PublishDatePolicy) Evaluate(md content.Metadata, cutoff time.Time) Result {
	return compareTimestamp(md, p.Key, cutoff)
}

// StatusCreationPolicy archives completed items created strictly before the
// cutoff.
type StatusCreationPolicy struct {
	StatusKey      string
	CompletedValue string
	CreatedKey     string
}

// Mode returns ModeStatusAndCreationDate.
func (p *StatusCreationPolicy) Mode() Mode {
	return ModeStatusAndCreationDate
}

// Evaluate classifies md. The status is checked before the timestamp.
func (p *StatusCreationPolicy) Evaluate(md content.Metadata, cutoff time.Time) Result {
	status, ok := md.String(p.StatusKey)
	if !ok {
		return Result{Verdict: Indeterminate, Reason: fmt.Sprintf("no %s found", p.StatusKey)}
	}
	if status != p.CompletedValue {
		return Result{
			Verdict: Indeterminate,
			Reason:  fmt.Sprintf("%s is %q, not %q", p.StatusKey, status, p.CompletedValue),
		}
	}
	return compareTimestamp(md, p.CreatedKey, cutoff)
}

func compareTimestamp(md content.Metadata, key string, cutoff time.Time) Result {
	ts, present, err := md.Time(key)
	switch {
	case !present:
		return Result{Verdict: Indeterminate, Reason: fmt.Sprintf("no %s found", key)}
	case err != nil:
		return Result{Verdict: Indeterminate, Reason: fmt.Sprintf("failed to parse %s: %v", key, err)}
	case ts.Before(cutoff):
		return Result{Verdict: Eligible, Reason: fmt.Sprintf("%s %s is before cutoff", key, ts.Format(time.RFC3339))}
	default:
		return Result{Verdict: Ineligible, Reason: fmt.Sprintf("%s %s is not before cutoff", key, ts.Format(time.RFC3339))}
	}
}
