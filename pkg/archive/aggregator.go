package archive

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/archivist/pkg/archive/policy"
	"mercator-hq/archivist/pkg/content"
)

// DecisionKind is what happens to a folder.
type DecisionKind int

const (
	// DecisionSkip leaves the folder where it is.
	DecisionSkip DecisionKind = iota

	// DecisionMoveWholeFolder moves the folder with its subtree.
	DecisionMoveWholeFolder

	// DecisionMovePartial moves only the eligible children into a
	// destination folder of the same name.
	DecisionMovePartial
)

// String returns the decision name.
func (k DecisionKind) String() string {
	switch k {
	case DecisionMoveWholeFolder:
		return "move_whole_folder"
	case DecisionMovePartial:
		return "move_partial"
	default:
		return "skip"
	}
}

// Classification is the verdict for one leaf item.
type Classification struct {
	Node   *content.Node
	Result policy.Result
}

// Decision is the immutable outcome of evaluating one folder. It is computed
// from a single read of the folder's children and never refreshed.
type Decision struct {
	Folder     *content.Node
	Kind       DecisionKind
	Classified []Classification
	Eligible   []*content.Node
	Subfolders []*content.Node
}

// Decide evaluates the immediate children of folder. Leaf items are classified
// with p; folders are collected as subfolders without being classified.
//
//   - no eligible child: skip
//   - every classified child eligible: move the whole folder
//   - otherwise: move the eligible children only
//
// The only error returned is a failure to list the folder's children. A
// failure to read one child's metadata classifies that child as
// indeterminate.
func Decide(ctx context.Context, r content.Reader, p policy.Policy, folder *content.Node, cutoff time.Time) (*Decision, error) {
	children, err := r.Children(ctx, folder.Path)
	if err != nil {
		return nil, err
	}

	d := &Decision{Folder: folder}
	anyEligible := false
	allEligible := true

	for _, child := range children {
		if !child.IsLeaf() {
			d.Subfolders = append(d.Subfolders, child)
			continue
		}

		result := Classify(ctx, r, p, child, cutoff)
		d.Classified = append(d.Classified, Classification{Node: child, Result: result})
		if result.Eligible() {
			anyEligible = true
			d.Eligible = append(d.Eligible, child)
		} else {
			allEligible = false
		}
	}

	switch {
	case !anyEligible:
		d.Kind = DecisionSkip
	case allEligible:
		d.Kind = DecisionMoveWholeFolder
	default:
		d.Kind = DecisionMovePartial
	}
	return d, nil
}

// Classify evaluates one item with p, reading its metadata from r.
func Classify(ctx context.Context, r content.Reader, p policy.Policy, node *content.Node, cutoff time.Time) policy.Result {
	md, err := r.Metadata(ctx, node.Path)
	if err != nil {
		return policy.Result{
			Verdict: policy.Indeterminate,
			Reason:  fmt.Sprintf("failed to read metadata: %v", err),
		}
	}
	return p.Evaluate(md, cutoff)
}
