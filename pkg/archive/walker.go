package archive

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/archivist/pkg/archive/policy"
	"mercator-hq/archivist/pkg/content"
	"mercator-hq/archivist/pkg/telemetry/tracing"
)

// Walker traverses a content tree and applies folder decisions within one
// session. It is single-use and not safe for concurrent use.
type Walker struct {
	session  content.Session
	policy   policy.Policy
	resolver *Resolver
	rc       *RunContext
	logger   *slog.Logger

	// ensured holds destination folders already checked or created.
	ensured map[string]bool
}

// NewWalker creates a walker that records its outcomes in rc.
func NewWalker(s content.Session, p policy.Policy, rc *RunContext) *Walker {
	return &Walker{
		session:  s,
		policy:   p,
		resolver: NewResolver(rc.TargetPath, rc.ShadowPaths),
		rc:       rc,
		logger:   slog.Default().With("component", "archive.walker"),
		ensured:  make(map[string]bool),
	}
}

// Walk processes the children of folder, archiving eligible content below
// destPrefix. Leaf items are evaluated directly; folders are aggregated and
// then descended into.
func (w *Walker) Walk(ctx context.Context, folder, destPrefix string) {
	children, err := w.session.Children(ctx, folder)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to list folder", "path", folder, "error", err)
		w.rc.recordError(NewRunError(OpChildren, folder, err))
		return
	}

	for _, child := range children {
		if child.IsLeaf() {
			w.walkItem(ctx, child, destPrefix)
		} else {
			w.walkFolder(ctx, child, destPrefix, false)
		}
	}
}

func (w *Walker) walkItem(ctx context.Context, item *content.Node, destPrefix string) {
	result := Classify(ctx, w.session, w.policy, item, w.rc.Cutoff)
	w.observe(ctx, item, result)
	if result.Eligible() {
		w.apply(ctx, NewMoveIntent(item.Path, destPrefix, KindSingleItem))
	}
}

// walkFolder evaluates folder, applies the decision and recurses into the
// subfolders of the snapshot taken by Decide.
//
// withParent is set in a dry run below a folder planned for a whole move. The
// folder is then still read at its source path, but every intent is recorded
// at the destination, where a real run finds the content already in place.
func (w *Walker) walkFolder(ctx context.Context, folder *content.Node, destPrefix string, withParent bool) {
	d, err := Decide(ctx, w.session, w.policy, folder, w.rc.Cutoff)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to list folder", "path", folder.Path, "error", err)
		w.rc.recordError(NewRunError(OpChildren, folder.Path, err))
		return
	}
	for _, c := range d.Classified {
		w.observe(ctx, c.Node, c.Result)
	}

	childPrefix := content.Join(destPrefix, folder.Name)
	current := folder.Path

	intentFor := func(source, prefix string, kind MoveKind) MoveIntent {
		if withParent {
			source = content.Join(prefix, content.Base(source))
		}
		return NewMoveIntent(source, prefix, kind)
	}

	switch d.Kind {
	case DecisionSkip:
		w.logger.DebugContext(ctx, "no eligible items in folder", "path", folder.Path)

	case DecisionMoveWholeFolder:
		intent := intentFor(folder.Path, destPrefix, KindWholeFolder)
		if w.apply(ctx, intent) {
			if !w.rc.DryRun {
				current = intent.DestPath
			} else if !intent.InPlace() {
				withParent = true
			}
		}

	case DecisionMovePartial:
		w.logger.InfoContext(ctx, "moving eligible items of folder",
			"path", folder.Path,
			"eligible", len(d.Eligible),
			"classified", len(d.Classified),
		)
		w.ensure(ctx, childPrefix)
		for _, item := range d.Eligible {
			w.apply(ctx, intentFor(item.Path, childPrefix, KindSingleItem))
		}
	}

	for _, sub := range d.Subfolders {
		next := *sub
		next.Path = content.Join(current, sub.Name)
		w.walkFolder(ctx, &next, childPrefix, withParent)
	}
}

func (w *Walker) observe(ctx context.Context, node *content.Node, result policy.Result) {
	w.rc.recordVerdict(result.Verdict)
	w.logger.DebugContext(ctx, "evaluated item",
		"path", node.Path,
		"verdict", result.Verdict.String(),
		"reason", result.Reason,
	)
}

// apply executes intent. It reports whether the item is at its destination
// afterwards (or would be, in a dry run).
func (w *Walker) apply(ctx context.Context, intent MoveIntent) bool {
	rec := MoveRecord{MoveIntent: intent}
	logger := w.logger.With(
		"source", intent.SourcePath,
		"destination", intent.DestPath,
		"kind", string(intent.Kind),
	)

	if intent.InPlace() {
		rec.Outcome = OutcomeInPlace
		w.rc.recordMove(rec)
		logger.DebugContext(ctx, "item already in place")
		return true
	}

	if w.rc.DryRun {
		rec.Outcome = OutcomePlanned
		w.rc.recordMove(rec)
		logger.InfoContext(ctx, "would move item")
		return true
	}

	ctx, span := tracing.Start(ctx, "archive.move", trace.WithAttributes(
		attribute.String("archive.source", intent.SourcePath),
		attribute.String("archive.destination", intent.DestPath),
		attribute.String("archive.kind", string(intent.Kind)),
	))
	defer span.End()

	w.ensure(ctx, content.Parent(intent.DestPath))

	for _, err := range w.resolver.ClearFor(ctx, w.session, intent) {
		var runErr *RunError
		if !errors.As(err, &runErr) {
			runErr = NewRunError(OpDelete, intent.DestPath, err)
		}
		w.rc.recordError(runErr)
	}

	if err := w.session.Move(ctx, intent.SourcePath, intent.DestPath); err != nil {
		logger.ErrorContext(ctx, "failed to move item", "error", err)
		rec.Outcome = OutcomeMoveFailed
		rec.Error = err.Error()
		w.rc.recordMove(rec)
		w.rc.recordError(NewRunError(OpMove, intent.SourcePath, err))
		tracing.SetStatus(span, err)
		return false
	}

	rec.Outcome = OutcomeMoved
	w.rc.recordMove(rec)
	logger.InfoContext(ctx, "moved item")
	return true
}

// ensure makes sure the destination folder exists, creating missing
// ancestors. Failures are recorded; the moves into the folder then fail on
// their own.
func (w *Walker) ensure(ctx context.Context, folder string) {
	if w.rc.DryRun || w.ensured[folder] {
		return
	}
	w.ensured[folder] = true

	if _, err := w.session.Resolve(ctx, folder); err == nil {
		return
	} else if !content.IsNotFound(err) {
		w.logger.ErrorContext(ctx, "failed to check destination folder", "path", folder, "error", err)
		w.rc.recordError(NewRunError(OpResolve, folder, err))
		return
	}

	if err := content.EnsurePath(ctx, w.session, folder); err != nil {
		w.logger.ErrorContext(ctx, "failed to create destination folder", "path", folder, "error", err)
		w.rc.recordError(NewRunError(OpCreate, folder, err))
		return
	}
	w.logger.InfoContext(ctx, "created destination folder", "path", folder)
}
