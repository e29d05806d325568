package content

import "context"

// EnsurePath creates every missing folder on the way to path, like mkdir -p.
func EnsurePath(ctx context.Context, s Session, path string) error {
	path = Clean(path)
	if path == Root {
		return nil
	}
	if _, err := s.Resolve(ctx, path); err == nil {
		return nil
	} else if !IsNotFound(err) {
		return err
	}
	if err := EnsurePath(ctx, s, Parent(path)); err != nil {
		return err
	}
	_, err := s.CreateChild(ctx, Parent(path), Base(path))
	return err
}
