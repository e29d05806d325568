package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/archivist/pkg/archive/policy"
	"mercator-hq/archivist/pkg/content"
	"mercator-hq/archivist/pkg/content/storage"
)

var (
	testCutoff = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	testNow    = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	errBoom    = errors.New("boom")
)

// endToEndTree is /A = {F1: [N1 COMPLETED 2023-01-01], F2: [N2 COMPLETED 2024-12-01]}.
const endToEndTree = `
root: /A
nodes:
  - name: F1
    children:
      - name: N1
        content: true
        metadata:
          status: COMPLETED
          created: "2023-01-01T00:00:00.000Z"
  - name: F2
    children:
      - name: N2
        content: true
        metadata:
          status: COMPLETED
          created: "2024-12-01T00:00:00.000Z"
`

// seed imports a YAML tree document into repo.
func seed(t *testing.T, repo content.Repository, tree string) {
	t.Helper()

	doc, err := storage.ParseTree([]byte(tree))
	if err != nil {
		t.Fatalf("ParseTree() failed: %v", err)
	}
	if _, err := storage.Import(context.Background(), repo, doc); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
}

// snapshot maps every path in repo to its HasContent flag.
func snapshot(t *testing.T, repo content.Repository) map[string]bool {
	t.Helper()

	ctx := context.Background()
	session, err := repo.Session(ctx)
	if err != nil {
		t.Fatalf("Session() failed: %v", err)
	}
	defer session.Close()

	out := make(map[string]bool)
	var walk func(path string)
	walk = func(path string) {
		children, err := session.Children(ctx, path)
		if err != nil {
			t.Fatalf("Children(%s) failed: %v", path, err)
		}
		for _, c := range children {
			out[c.Path] = c.HasContent
			walk(c.Path)
		}
	}
	walk(content.Root)
	return out
}

// metadataAt returns the metadata stored at path.
func metadataAt(t *testing.T, repo content.Repository, path string) content.Metadata {
	t.Helper()

	ctx := context.Background()
	session, err := repo.Session(ctx)
	if err != nil {
		t.Fatalf("Session() failed: %v", err)
	}
	defer session.Close()

	md, err := session.Metadata(ctx, path)
	if err != nil {
		t.Fatalf("Metadata(%s) failed: %v", path, err)
	}
	return md
}

func newSQLiteRepo(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	cfg := storage.DefaultSQLiteConfig()
	cfg.Path = filepath.Join(t.TempDir(), "content.db")
	repo, err := storage.NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestController(repo content.Repository) *Controller {
	return NewController(repo, Config{Clock: FixedClock(testNow)})
}

func completedRequest() Request {
	return Request{
		BasePath:   "/A",
		TargetPath: "/B",
		Cutoff:     AbsoluteCutoff(testCutoff),
		Mode:       policy.ModeStatusAndCreationDate,
	}
}

// opErrors returns the recorded errors for op.
func opErrors(s *RunSummary, op string) []*RunError {
	var out []*RunError
	for _, e := range s.Errors {
		if e.Op == op {
			out = append(out, e)
		}
	}
	return out
}

// findMove returns the move record with the given source path.
func findMove(s *RunSummary, source string) (MoveRecord, bool) {
	for _, m := range s.Moves {
		if m.SourcePath == source {
			return m, true
		}
	}
	return MoveRecord{}, false
}
