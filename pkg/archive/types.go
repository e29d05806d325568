package archive

import (
	"fmt"
	"time"

	"mercator-hq/archivist/pkg/archive/policy"
	"mercator-hq/archivist/pkg/content"
)

// MoveKind distinguishes folder moves from single item moves.
type MoveKind string

const (
	// KindWholeFolder moves a folder with its entire subtree.
	KindWholeFolder MoveKind = "folder"

	// KindSingleItem moves one leaf item.
	KindSingleItem MoveKind = "item"
)

// MoveIntent is a planned relocation.
type MoveIntent struct {
	SourcePath string   `json:"source"`
	DestPath   string   `json:"destination"`
	Kind       MoveKind `json:"kind"`
}

// NewMoveIntent plans moving src into destPrefix under its own name.
func NewMoveIntent(src, destPrefix string, kind MoveKind) MoveIntent {
	return MoveIntent{
		SourcePath: src,
		DestPath:   content.Join(destPrefix, content.Base(src)),
		Kind:       kind,
	}
}

// InPlace reports whether the item already sits at its destination.
func (m MoveIntent) InPlace() bool {
	return m.SourcePath == m.DestPath
}

// Outcome is the result of applying a MoveIntent.
type Outcome string

const (
	// OutcomeMoved means the move was issued successfully.
	OutcomeMoved Outcome = "moved"

	// OutcomeMoveFailed means the store rejected the move.
	OutcomeMoveFailed Outcome = "move_failed"

	// OutcomeInPlace means the item already was at its destination, which
	// happens below a folder that was moved whole.
	OutcomeInPlace Outcome = "in_place"

	// OutcomePlanned means the move was only planned (dry run).
	OutcomePlanned Outcome = "planned"
)

// MoveRecord is the outcome of one MoveIntent.
type MoveRecord struct {
	MoveIntent
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// State is the run state.
type State int

const (
	// StateIdle means no run is active.
	StateIdle State = iota
	// StateWalking means the tree is being walked.
	StateWalking
	// StateCommitting means the session is being committed.
	StateCommitting
	// StateDone means the run completed. Per-item errors may still exist.
	StateDone
	// StateFailed means the run aborted or the commit failed.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWalking:
		return "walking"
	case StateCommitting:
		return "committing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for st := StateIdle; st <= StateFailed; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown run state %q", text)
}

// Request describes one run.
type Request struct {
	// BasePath is the folder whose content is archived. It is never moved
	// itself.
	BasePath string

	// TargetPath is the primary archive location.
	TargetPath string

	// ShadowPaths are extra locations cleared of conflicting names before
	// each move, checked in order before TargetPath.
	ShadowPaths []string

	// Cutoff is resolved once at run start.
	Cutoff CutoffSpec

	// Mode selects the eligibility policy.
	Mode policy.Mode

	// Keys names the metadata properties read by the policy. Empty fields
	// fall back to Config.PolicyKeys, then to policy.DefaultKeys.
	Keys policy.Keys

	// DryRun plans and logs moves without mutating the store.
	DryRun bool
}

// RunSummary is the result of a run. A run always produces one.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	BasePath   string    `json:"base_path"`
	TargetPath string    `json:"target_path"`
	Mode       string    `json:"mode"`
	Cutoff     time.Time `json:"cutoff"`
	DryRun     bool      `json:"dry_run,omitempty"`
	State      State     `json:"state"`

	// EvaluatedCount is the number of leaf items classified.
	EvaluatedCount int `json:"evaluated"`

	// EligibleCount is the number of classified items found eligible.
	EligibleCount int `json:"eligible"`

	// SkippedCount is the number of classified items left in place because
	// they were ineligible or indeterminate.
	SkippedCount int `json:"skipped"`

	// IndeterminateCount is the subset of SkippedCount that was indeterminate.
	IndeterminateCount int `json:"indeterminate"`

	// MovedCount is the number of successful moves (folders count once).
	MovedCount int `json:"moved"`

	// PlannedCount is the number of moves planned in a dry run.
	PlannedCount int `json:"planned,omitempty"`

	// FailedCount is the number of moves the store rejected.
	FailedCount int `json:"failed"`

	Moves      []MoveRecord `json:"moves,omitempty"`
	Errors     []*RunError  `json:"errors,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Duration returns the run duration.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// HasErrors reports whether the run recorded any error.
func (s *RunSummary) HasErrors() bool {
	return len(s.Errors) > 0
}

// MovedByKind counts successful moves of kind.
func (s *RunSummary) MovedByKind(kind MoveKind) int {
	n := 0
	for _, m := range s.Moves {
		if m.Kind == kind && m.Outcome == OutcomeMoved {
			n++
		}
	}
	return n
}

// RunContext is the state of an active run. It is created at run start and
// discarded when the run ends.
type RunContext struct {
	RunID       string
	BasePath    string
	TargetPath  string
	ShadowPaths []string
	Cutoff      time.Time
	DryRun      bool

	summary *RunSummary
}

func (rc *RunContext) recordError(err *RunError) {
	rc.summary.Errors = append(rc.summary.Errors, err)
}

func (rc *RunContext) recordMove(rec MoveRecord) {
	rc.summary.Moves = append(rc.summary.Moves, rec)
	switch rec.Outcome {
	case OutcomeMoved:
		rc.summary.MovedCount++
	case OutcomeMoveFailed:
		rc.summary.FailedCount++
	case OutcomePlanned:
		rc.summary.PlannedCount++
	}
}

func (rc *RunContext) recordVerdict(v policy.Verdict) {
	rc.summary.EvaluatedCount++
	switch v {
	case policy.Eligible:
		rc.summary.EligibleCount++
	case policy.Indeterminate:
		rc.summary.IndeterminateCount++
		rc.summary.SkippedCount++
	default:
		rc.summary.SkippedCount++
	}
}
