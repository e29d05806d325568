package storage

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mercator-hq/archivist/pkg/content"
)

// TreeDocument is the YAML representation of a content subtree.
//
//	root: /content/projects
//	nodes:
//	  - name: F1
//	    children:
//	      - name: N1
//	        content: true
//	        metadata:
//	          status: COMPLETED
//	          created: "2023-01-01T00:00:00.000Z"
type TreeDocument struct {
	// Root is the path the nodes are placed under. Missing ancestors are
	// created on import.
	Root string `yaml:"root"`

	// Nodes are the top-level nodes below Root.
	Nodes []TreeNode `yaml:"nodes"`
}

// TreeNode is one node of a TreeDocument.
type TreeNode struct {
	Name     string           `yaml:"name"`
	Content  bool             `yaml:"content,omitempty"`
	Metadata content.Metadata `yaml:"metadata,omitempty"`
	Children []TreeNode       `yaml:"children,omitempty"`
}

// ParseTree decodes a YAML tree document.
func ParseTree(data []byte) (*TreeDocument, error) {
	var doc TreeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tree document: %w", err)
	}
	if doc.Root == "" {
		doc.Root = content.Root
	}
	doc.Root = content.Clean(doc.Root)
	return &doc, nil
}

// LoadTreeFile reads and decodes a YAML tree document from path.
func LoadTreeFile(path string) (*TreeDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree file %q: %w", path, err)
	}
	return ParseTree(data)
}

// Count returns the number of nodes in doc.
func (d *TreeDocument) Count() int64 {
	var count func(nodes []TreeNode) int64
	count = func(nodes []TreeNode) int64 {
		n := int64(len(nodes))
		for _, c := range nodes {
			n += count(c.Children)
		}
		return n
	}
	return count(d.Nodes)
}

// ImportOption configures Import.
type ImportOption func(*importOptions)

type importOptions struct {
	progress func(written int)
}

// WithProgress calls fn with the running count after each written node.
func WithProgress(fn func(written int)) ImportOption {
	return func(o *importOptions) {
		o.progress = fn
	}
}

// MarshalTree encodes doc as YAML.
func MarshalTree(doc *TreeDocument) ([]byte, error) {
	return yaml.Marshal(doc)
}

// Import writes doc into repo in a single session and commits it.
// Existing nodes at the same paths are updated in place. It returns the number
// of nodes written.
func Import(ctx context.Context, repo content.Repository, doc *TreeDocument, opts ...ImportOption) (int, error) {
	var o importOptions
	for _, opt := range opts {
		opt(&o)
	}

	session, err := repo.Session(ctx)
	if err != nil {
		return 0, err
	}
	defer session.Close()

	w, ok := session.(content.Writer)
	if !ok {
		return 0, fmt.Errorf("session %T does not support imports", session)
	}

	if err := content.EnsurePath(ctx, session, doc.Root); err != nil {
		return 0, err
	}

	count := 0
	var put func(parent string, nodes []TreeNode) error
	put = func(parent string, nodes []TreeNode) error {
		for _, n := range nodes {
			if err := content.ValidateName(n.Name); err != nil {
				return fmt.Errorf("under %s: %w", parent, err)
			}
			path := content.Join(parent, n.Name)
			if err := w.Put(ctx, &content.Node{
				Path:       path,
				Name:       n.Name,
				HasContent: n.Content,
				Metadata:   n.Metadata,
			}); err != nil {
				return err
			}
			count++
			if o.progress != nil {
				o.progress(count)
			}
			if err := put(path, n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := put(doc.Root, doc.Nodes); err != nil {
		return count, err
	}

	if err := session.Commit(ctx); err != nil {
		return count, err
	}
	return count, nil
}

// Export reads the subtree below root into a TreeDocument.
func Export(ctx context.Context, r content.Reader, root string) (*TreeDocument, error) {
	root = content.Clean(root)
	if _, err := r.Resolve(ctx, root); err != nil {
		return nil, err
	}

	var read func(path string) ([]TreeNode, error)
	read = func(path string) ([]TreeNode, error) {
		children, err := r.Children(ctx, path)
		if err != nil {
			return nil, err
		}
		nodes := make([]TreeNode, 0, len(children))
		for _, c := range children {
			sub, err := read(c.Path)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, TreeNode{
				Name:     c.Name,
				Content:  c.HasContent,
				Metadata: c.Metadata,
				Children: sub,
			})
		}
		return nodes, nil
	}

	nodes, err := read(root)
	if err != nil {
		return nil, err
	}
	return &TreeDocument{Root: root, Nodes: nodes}, nil
}
