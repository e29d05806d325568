package archive

import (
	"context"
	"log/slog"

	"mercator-hq/archivist/pkg/content"
)

// Resolver clears naming conflicts at the archive locations before a move.
//
// Shadow locations mirror the target layout: for a destination folder
// target/rel the matching shadow folder is shadow/rel.
type Resolver struct {
	target  string
	shadows []string
	logger  *slog.Logger
}

// NewResolver creates a resolver for target and its shadow roots.
func NewResolver(target string, shadows []string) *Resolver {
	cleaned := make([]string, 0, len(shadows))
	for _, s := range shadows {
		cleaned = append(cleaned, content.Clean(s))
	}
	return &Resolver{
		target:  content.Clean(target),
		shadows: cleaned,
		logger:  slog.Default().With("component", "archive.resolver"),
	}
}

// Locations returns the folders checked for a move into destPrefix: the
// shadow folders in configuration order, then destPrefix itself.
func (r *Resolver) Locations(destPrefix string) []string {
	destPrefix = content.Clean(destPrefix)
	locations := make([]string, 0, len(r.shadows)+1)
	for _, shadow := range r.shadows {
		loc, err := content.Rebase(destPrefix, r.target, shadow)
		if err != nil {
			continue
		}
		locations = append(locations, loc)
	}
	return append(locations, destPrefix)
}

// ClearFor clears conflicts for intent. The folder holding the source item is
// never cleared.
func (r *Resolver) ClearFor(ctx context.Context, s content.Session, intent MoveIntent) []error {
	sourceParent := content.Parent(intent.SourcePath)
	var locations []string
	for _, loc := range r.Locations(content.Parent(intent.DestPath)) {
		if loc != sourceParent {
			locations = append(locations, loc)
		}
	}
	return r.Clear(ctx, s, content.Base(intent.DestPath), locations)
}

// Clear deletes the item called name from each location, in order. Failures
// are logged and returned; they never stop the remaining locations.
func (r *Resolver) Clear(ctx context.Context, s content.Session, name string, locations []string) []error {
	var errs []error
	for _, loc := range locations {
		path := content.Join(loc, name)

		if _, err := s.Resolve(ctx, path); err != nil {
			if content.IsNotFound(err) {
				continue
			}
			r.logger.ErrorContext(ctx, "failed to check for conflicting item",
				"path", path,
				"error", err,
			)
			errs = append(errs, NewRunError(OpResolve, path, err))
			continue
		}

		if err := s.Delete(ctx, path); err != nil {
			r.logger.ErrorContext(ctx, "failed to delete conflicting item",
				"path", path,
				"error", err,
			)
			errs = append(errs, NewRunError(OpDelete, path, err))
			continue
		}
		r.logger.InfoContext(ctx, "deleted conflicting item", "path", path)
	}
	return errs
}
