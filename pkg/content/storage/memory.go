package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"mercator-hq/archivist/pkg/content"
)

const backendMemory = "memory"

// Fault operations understood by MemoryStorage.FailOn.
const (
	OpSession  = "session"
	OpChildren = "children"
	OpMetadata = "metadata"
	OpMove     = "move"
	OpDelete   = "delete"
	OpCreate   = "create"
	OpCommit   = "commit"
)

// memNode is one node of the in-memory tree. Children keep insertion order.
type memNode struct {
	name       string
	hasContent bool
	metadata   content.Metadata
	children   []*memNode
}

func (n *memNode) child(name string) (*memNode, int) {
	for i, c := range n.children {
		if c.name == name {
			return c, i
		}
	}
	return nil, -1
}

func (n *memNode) clone() *memNode {
	cp := &memNode{
		name:       n.name,
		hasContent: n.hasContent,
		metadata:   n.metadata.Clone(),
		children:   make([]*memNode, len(n.children)),
	}
	for i, c := range n.children {
		cp.children[i] = c.clone()
	}
	return cp
}

func (n *memNode) snapshot(path string) *content.Node {
	return &content.Node{
		Path:       path,
		Name:       content.Base(path),
		HasContent: n.hasContent,
		Metadata:   n.metadata.Clone(),
	}
}

type faultKey struct {
	op   string
	path string
}

// MemoryStorage implements content.Repository with an in-memory tree.
// Each session works on a private copy of the tree and Commit swaps that copy
// in, so uncommitted sessions never affect the repository.
// This implementation is intended for tests and demos.
type MemoryStorage struct {
	mu     sync.RWMutex
	root   *memNode
	faults map[faultKey]error
}

// NewMemoryStorage creates an empty in-memory repository containing only the
// root folder.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		root:   &memNode{name: ""},
		faults: make(map[faultKey]error),
	}
}

// FailOn makes op fail with err when applied to path (for testing).
// Use an empty path for OpSession and OpCommit. A nil err clears the fault.
func (s *MemoryStorage) FailOn(op, path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := faultKey{op: op, path: path}
	if path != "" {
		key.path = content.Clean(path)
	}
	if err == nil {
		delete(s.faults, key)
		return
	}
	s.faults[key] = err
}

func (s *MemoryStorage) fault(op, path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.faults[faultKey{op: op, path: path}]
}

// Session opens a session on a private copy of the tree.
func (s *MemoryStorage) Session(ctx context.Context) (content.Session, error) {
	if err := s.fault(OpSession, ""); err != nil {
		return nil, content.NewStorageError(backendMemory, "session", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return &memorySession{
		store: s,
		root:  s.root.clone(),
	}, nil
}

// Ping always succeeds.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close releases the tree.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.root = &memNode{name: ""}
	return nil
}

// memorySession is a content.Session over a private tree copy.
type memorySession struct {
	store *MemoryStorage
	root  *memNode
	done  bool
}

func (ms *memorySession) lookup(path string) *memNode {
	path = content.Clean(path)
	if path == content.Root {
		return ms.root
	}
	node := ms.root
	for _, seg := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		node, _ = node.child(seg)
		if node == nil {
			return nil
		}
	}
	return node
}

// Resolve returns the node at path.
func (ms *memorySession) Resolve(ctx context.Context, path string) (*content.Node, error) {
	if ms.done {
		return nil, content.ErrSessionClosed
	}
	path = content.Clean(path)
	node := ms.lookup(path)
	if node == nil {
		return nil, fmt.Errorf("resolve %s: %w", path, content.ErrNotFound)
	}
	return node.snapshot(path), nil
}

// Children returns snapshots of the immediate children of path.
func (ms *memorySession) Children(ctx context.Context, path string) ([]*content.Node, error) {
	if ms.done {
		return nil, content.ErrSessionClosed
	}
	path = content.Clean(path)
	if err := ms.store.fault(OpChildren, path); err != nil {
		return nil, content.NewStorageError(backendMemory, "children", err)
	}
	node := ms.lookup(path)
	if node == nil {
		return nil, fmt.Errorf("children %s: %w", path, content.ErrNotFound)
	}

	children := make([]*content.Node, 0, len(node.children))
	for _, c := range node.children {
		children = append(children, c.snapshot(content.Join(path, c.name)))
	}
	return children, nil
}

// Metadata returns a copy of the properties of the node at path.
func (ms *memorySession) Metadata(ctx context.Context, path string) (content.Metadata, error) {
	if ms.done {
		return nil, content.ErrSessionClosed
	}
	path = content.Clean(path)
	if err := ms.store.fault(OpMetadata, path); err != nil {
		return nil, content.NewStorageError(backendMemory, "metadata", err)
	}
	node := ms.lookup(path)
	if node == nil {
		return nil, fmt.Errorf("metadata %s: %w", path, content.ErrNotFound)
	}
	return node.metadata.Clone(), nil
}

// Move relocates src and its subtree to dst.
func (ms *memorySession) Move(ctx context.Context, src, dst string) error {
	if ms.done {
		return content.ErrSessionClosed
	}
	src, dst = content.Clean(src), content.Clean(dst)
	if err := ms.store.fault(OpMove, src); err != nil {
		return content.NewPersistenceError("move", src, err)
	}

	if src == content.Root {
		return content.NewPersistenceError("move", src, fmt.Errorf("cannot move the root"))
	}
	if content.IsWithin(dst, src) {
		return content.NewPersistenceError("move", src, fmt.Errorf("destination %s lies within source", dst))
	}

	srcParent := ms.lookup(content.Parent(src))
	if srcParent == nil {
		return content.NewPersistenceError("move", src, content.ErrNotFound)
	}
	node, idx := srcParent.child(content.Base(src))
	if node == nil {
		return content.NewPersistenceError("move", src, content.ErrNotFound)
	}

	dstParent := ms.lookup(content.Parent(dst))
	if dstParent == nil {
		return content.NewPersistenceError("move", src,
			fmt.Errorf("destination parent %s: %w", content.Parent(dst), content.ErrNotFound))
	}
	if existing, _ := dstParent.child(content.Base(dst)); existing != nil {
		return content.NewPersistenceError("move", src,
			fmt.Errorf("%w: %s", content.ErrPathConflict, dst))
	}

	srcParent.children = append(srcParent.children[:idx], srcParent.children[idx+1:]...)
	node.name = content.Base(dst)
	dstParent.children = append(dstParent.children, node)
	return nil
}

// Delete removes the node at path and its subtree.
func (ms *memorySession) Delete(ctx context.Context, path string) error {
	if ms.done {
		return content.ErrSessionClosed
	}
	path = content.Clean(path)
	if err := ms.store.fault(OpDelete, path); err != nil {
		return content.NewPersistenceError("delete", path, err)
	}
	if path == content.Root {
		return content.NewPersistenceError("delete", path, fmt.Errorf("cannot delete the root"))
	}

	parent := ms.lookup(content.Parent(path))
	if parent == nil {
		return content.NewPersistenceError("delete", path, content.ErrNotFound)
	}
	node, idx := parent.child(content.Base(path))
	if node == nil {
		return content.NewPersistenceError("delete", path, content.ErrNotFound)
	}
	parent.children = append(parent.children[:idx], parent.children[idx+1:]...)
	return nil
}

// CreateChild creates an empty folder under parentPath.
func (ms *memorySession) CreateChild(ctx context.Context, parentPath, name string) (*content.Node, error) {
	if ms.done {
		return nil, content.ErrSessionClosed
	}
	parentPath = content.Clean(parentPath)
	path := content.Join(parentPath, name)
	if err := ms.store.fault(OpCreate, path); err != nil {
		return nil, content.NewPersistenceError("create", path, err)
	}
	if err := content.ValidateName(name); err != nil {
		return nil, content.NewPersistenceError("create", path, err)
	}

	parent := ms.lookup(parentPath)
	if parent == nil {
		return nil, content.NewPersistenceError("create", path, content.ErrNotFound)
	}
	if existing, _ := parent.child(name); existing != nil {
		return nil, content.NewPersistenceError("create", path, content.ErrPathConflict)
	}

	node := &memNode{name: name}
	parent.children = append(parent.children, node)
	return node.snapshot(path), nil
}

// Put creates or updates the node at n.Path.
func (ms *memorySession) Put(ctx context.Context, n *content.Node) error {
	if ms.done {
		return content.ErrSessionClosed
	}
	path := content.Clean(n.Path)
	if path == content.Root {
		return content.NewPersistenceError("put", path, fmt.Errorf("cannot replace the root"))
	}
	parent := ms.lookup(content.Parent(path))
	if parent == nil {
		return content.NewPersistenceError("put", path, content.ErrNotFound)
	}

	name := content.Base(path)
	if existing, _ := parent.child(name); existing != nil {
		existing.hasContent = n.HasContent
		existing.metadata = n.Metadata.Clone()
		return nil
	}
	parent.children = append(parent.children, &memNode{
		name:       name,
		hasContent: n.HasContent,
		metadata:   n.Metadata.Clone(),
	})
	return nil
}

// Commit swaps the session tree into the repository.
func (ms *memorySession) Commit(ctx context.Context) error {
	if ms.done {
		return content.ErrSessionClosed
	}
	if err := ms.store.fault(OpCommit, ""); err != nil {
		return content.NewCommitError(backendMemory, err)
	}

	ms.store.mu.Lock()
	ms.store.root = ms.root
	ms.store.mu.Unlock()

	ms.done = true
	return nil
}

// Close discards the session tree.
func (ms *memorySession) Close() error {
	ms.done = true
	return nil
}
