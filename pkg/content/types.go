package content

import (
	"context"
)

// Node is a single entry of the content tree.
// Nodes returned by a Session are snapshots; mutating them has no effect on
// the store.
type Node struct {
	// Path is the absolute, slash-separated path of the node.
	Path string `json:"path" yaml:"path"`

	// Name is the last path segment.
	Name string `json:"name" yaml:"name"`

	// HasContent reports whether the node carries a content sub-node, which
	// marks it as a leaf item rather than a folder.
	HasContent bool `json:"has_content" yaml:"has_content"`

	// Metadata holds the node's properties.
	Metadata Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// IsLeaf reports whether the node is a leaf item.
func (n *Node) IsLeaf() bool {
	return n.HasContent
}

// Reader is the read-only part of a Session.
type Reader interface {
	// Resolve returns the node at path, or ErrNotFound.
	Resolve(ctx context.Context, path string) (*Node, error)

	// Children returns the immediate children of path in store-native order.
	Children(ctx context.Context, path string) ([]*Node, error)

	// Metadata returns the properties of the node at path.
	Metadata(ctx context.Context, path string) (Metadata, error)
}

// Session is a unit of work against the content store.
// Implementations are not required to be safe for concurrent use.
type Session interface {
	Reader

	// Move relocates the node at src, including its subtree, to dst.
	// Fails with ErrPathConflict if dst exists and ErrNotFound if src or the
	// parent of dst does not exist.
	Move(ctx context.Context, src, dst string) error

	// Delete removes the node at path and its subtree.
	Delete(ctx context.Context, path string) error

	// CreateChild creates an empty folder named name under parentPath.
	CreateChild(ctx context.Context, parentPath, name string) (*Node, error)

	// Commit makes all queued mutations durable. A session cannot be used
	// after Commit.
	Commit(ctx context.Context) error

	// Close releases the session, discarding uncommitted work.
	Close() error
}

// Repository hands out sessions.
type Repository interface {
	// Session opens a new session.
	Session(ctx context.Context) (Session, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the repository.
	Close() error
}

// Writer is implemented by sessions that can store whole nodes. Imports use
// it; the archival job itself only moves, deletes and creates folders.
type Writer interface {
	// Put creates the node at n.Path, or replaces its flags and metadata
	// while keeping its children. The parent must exist.
	Put(ctx context.Context, n *Node) error
}
