package archive

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRunInProgress is returned by TryRun when another run is active.
var ErrRunInProgress = errors.New("archive: run already in progress")

// ErrOverlappingPaths is recorded when the target or a shadow path lies
// inside the base path or the other way round.
var ErrOverlappingPaths = errors.New("archive: base and target paths overlap")

// Operations recorded in RunError.Op.
const (
	OpRequest  = "request"
	OpSession  = "session"
	OpCutoff   = "cutoff"
	OpPolicy   = "policy"
	OpResolve  = "resolve"
	OpChildren = "children"
	OpCreate   = "create"
	OpDelete   = "delete"
	OpMove     = "move"
	OpCommit   = "commit"
	OpPanic    = "panic"
)

// RunError is an error recorded during a run.
type RunError struct {
	Op   string // Operation that failed (see the Op constants)
	Path string // Path the operation was applied to, if any
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *RunError) Unwrap() error {
	return e.Err
}

// MarshalJSON encodes the error with its message.
func (e *RunError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Op      string `json:"op"`
		Path    string `json:"path,omitempty"`
		Message string `json:"message"`
	}{e.Op, e.Path, msg})
}

// NewRunError creates a new RunError.
func NewRunError(op, path string, err error) *RunError {
	return &RunError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
