package content

import (
	"fmt"
	"path"
	"strings"
)

// Root is the path of the tree root.
const Root = "/"

// Clean normalizes p into an absolute slash-separated path without a trailing
// slash.
func Clean(p string) string {
	if p == "" {
		return Root
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Join appends name to parent.
func Join(parent, name string) string {
	if parent == Root || parent == "" {
		return "/" + name
	}
	return parent + "/" + name
}

// Parent returns the parent path of p. The parent of the root is the root.
func Parent(p string) string {
	return path.Dir(Clean(p))
}

// Base returns the last segment of p.
func Base(p string) string {
	return path.Base(Clean(p))
}

// IsWithin reports whether p equals dir or lies below it.
func IsWithin(p, dir string) bool {
	p, dir = Clean(p), Clean(dir)
	if dir == Root {
		return true
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// Rebase maps p, which must lie within from, to the same relative position
// under to.
func Rebase(p, from, to string) (string, error) {
	p, from, to = Clean(p), Clean(from), Clean(to)
	if !IsWithin(p, from) {
		return "", fmt.Errorf("path %q is not within %q", p, from)
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(p, from), "/")
	if rel == "" {
		return to, nil
	}
	return Join(to, rel), nil
}

// ValidateName checks that name can be used as a single path segment.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid node name %q", name)
	case strings.Contains(name, "/"):
		return fmt.Errorf("node name %q must not contain '/'", name)
	}
	return nil
}
