package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/archivist/pkg/content"
)

// backends returns a fresh repository per supported backend.
func backends(t *testing.T) map[string]content.Repository {
	t.Helper()

	repos := map[string]content.Repository{
		"memory": NewMemoryStorage(),
	}
	for _, driver := range []string{DriverPureGo, DriverCGO} {
		cfg := DefaultSQLiteConfig()
		cfg.Driver = driver
		cfg.Path = filepath.Join(t.TempDir(), "content.db")
		s, err := NewSQLiteStorage(cfg)
		if err != nil {
			t.Fatalf("failed to open %s storage: %v", driver, err)
		}
		t.Cleanup(func() { s.Close() })
		repos["sqlite/"+driver] = s
	}
	return repos
}

func writer(t *testing.T, s content.Session) content.Writer {
	t.Helper()
	w, ok := s.(content.Writer)
	if !ok {
		t.Fatalf("session %T does not implement content.Writer", s)
	}
	return w
}

// seed writes /A/F/N1 (content) and /A/F/N2 and commits.
func seed(t *testing.T, repo content.Repository) {
	t.Helper()
	ctx := context.Background()

	s, err := repo.Session(ctx)
	if err != nil {
		t.Fatalf("Session() error: %v", err)
	}
	defer s.Close()

	if err := content.EnsurePath(ctx, s, "/A/F"); err != nil {
		t.Fatalf("EnsurePath() error: %v", err)
	}
	w := writer(t, s)
	for _, n := range []*content.Node{
		{Path: "/A/F/N1", HasContent: true, Metadata: content.Metadata{"status": "COMPLETED"}},
		{Path: "/A/F/N2"},
	} {
		if err := w.Put(ctx, n); err != nil {
			t.Fatalf("Put(%s) error: %v", n.Path, err)
		}
	}
	if err := s.Commit(ctx); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
}

func childNames(t *testing.T, r content.Reader, path string) []string {
	t.Helper()
	children, err := r.Children(context.Background(), path)
	if err != nil {
		t.Fatalf("Children(%s) error: %v", path, err)
	}
	names := make([]string, 0, len(children))
	for _, c := range children {
		names = append(names, c.Name)
	}
	return names
}

func TestRepository_ResolveAndChildren(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo)
			ctx := context.Background()

			s, err := repo.Session(ctx)
			if err != nil {
				t.Fatalf("Session() error: %v", err)
			}
			defer s.Close()

			node, err := s.Resolve(ctx, "A/F/N1/")
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if node.Path != "/A/F/N1" || node.Name != "N1" || !node.HasContent {
				t.Errorf("unexpected node %+v", node)
			}
			if status, _ := node.Metadata.String("status"); status != "COMPLETED" {
				t.Errorf("expected status COMPLETED, got %q", status)
			}

			if diff := cmp.Diff([]string{"N1", "N2"}, childNames(t, s, "/A/F")); diff != "" {
				t.Errorf("children mismatch (-want +got):\n%s", diff)
			}

			if _, err := s.Resolve(ctx, "/A/missing"); !content.IsNotFound(err) {
				t.Errorf("expected not found, got %v", err)
			}
			if _, err := s.Children(ctx, "/A/missing"); !content.IsNotFound(err) {
				t.Errorf("expected not found for children, got %v", err)
			}
			if md, err := s.Metadata(ctx, "/A/F/N2"); err != nil || len(md) != 0 {
				t.Errorf("expected empty metadata, got %v (%v)", md, err)
			}
		})
	}
}

func TestRepository_SessionIsolation(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo)
			ctx := context.Background()

			s, err := repo.Session(ctx)
			if err != nil {
				t.Fatalf("Session() error: %v", err)
			}
			if err := content.EnsurePath(ctx, s, "/B"); err != nil {
				t.Fatalf("EnsurePath() error: %v", err)
			}
			if err := s.Move(ctx, "/A/F", "/B/F"); err != nil {
				t.Fatalf("Move() error: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close() error: %v", err)
			}

			check, err := repo.Session(ctx)
			if err != nil {
				t.Fatalf("Session() error: %v", err)
			}
			defer check.Close()
			if _, err := check.Resolve(ctx, "/A/F/N1"); err != nil {
				t.Errorf("expected uncommitted move to be discarded, got %v", err)
			}
			if _, err := check.Resolve(ctx, "/B"); !content.IsNotFound(err) {
				t.Errorf("expected /B to be discarded, got %v", err)
			}
		})
	}
}

func TestRepository_MoveCommit(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo)
			ctx := context.Background()

			s, err := repo.Session(ctx)
			if err != nil {
				t.Fatalf("Session() error: %v", err)
			}
			if err := content.EnsurePath(ctx, s, "/archive/2023"); err != nil {
				t.Fatalf("EnsurePath() error: %v", err)
			}
			if err := s.Move(ctx, "/A/F", "/archive/2023/F"); err != nil {
				t.Fatalf("Move() error: %v", err)
			}
			if err := s.Commit(ctx); err != nil {
				t.Fatalf("Commit() error: %v", err)
			}
			if err := s.Move(ctx, "/A", "/C"); !errors.Is(err, content.ErrSessionClosed) {
				t.Errorf("expected ErrSessionClosed after commit, got %v", err)
			}

			check, err := repo.Session(ctx)
			if err != nil {
				t.Fatalf("Session() error: %v", err)
			}
			defer check.Close()

			node, err := check.Resolve(ctx, "/archive/2023/F/N1")
			if err != nil {
				t.Fatalf("expected moved subtree, got %v", err)
			}
			if status, _ := node.Metadata.String("status"); status != "COMPLETED" {
				t.Errorf("metadata lost in move: %v", node.Metadata)
			}
			if got := childNames(t, check, "/A"); len(got) != 0 {
				t.Errorf("expected /A to be empty, got %v", got)
			}
		})
	}
}

func TestRepository_MoveErrors(t *testing.T) {
	tests := []struct {
		name     string
		src, dst string
		check    func(error) bool
	}{
		{"missing source", "/A/missing", "/A/X", content.IsNotFound},
		{"missing destination parent", "/A/F/N1", "/Z/N1", content.IsNotFound},
		{"destination occupied", "/A/F/N1", "/A/F/N2", content.IsPathConflict},
		{"into own subtree", "/A", "/A/F/A", func(err error) bool { return err != nil }},
		{"root", "/", "/X", func(err error) bool { return err != nil }},
	}

	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo)
			ctx := context.Background()

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					s, err := repo.Session(ctx)
					if err != nil {
						t.Fatalf("Session() error: %v", err)
					}
					defer s.Close()

					err = s.Move(ctx, tt.src, tt.dst)
					if !tt.check(err) {
						t.Errorf("Move(%s, %s) unexpected error: %v", tt.src, tt.dst, err)
					}
					var perr *content.PersistenceError
					if !errors.As(err, &perr) {
						t.Errorf("expected *PersistenceError, got %T", err)
					}
				})
			}
		})
	}
}

func TestRepository_CreateAndDelete(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo)
			ctx := context.Background()

			s, err := repo.Session(ctx)
			if err != nil {
				t.Fatalf("Session() error: %v", err)
			}
			defer s.Close()

			node, err := s.CreateChild(ctx, "/A", "G")
			if err != nil {
				t.Fatalf("CreateChild() error: %v", err)
			}
			if node.Path != "/A/G" || node.HasContent {
				t.Errorf("unexpected node %+v", node)
			}
			if _, err := s.CreateChild(ctx, "/A", "G"); !content.IsPathConflict(err) {
				t.Errorf("expected conflict on duplicate create, got %v", err)
			}
			if _, err := s.CreateChild(ctx, "/missing", "G"); !content.IsNotFound(err) {
				t.Errorf("expected not found for missing parent, got %v", err)
			}
			if _, err := s.CreateChild(ctx, "/A", "a/b"); err == nil {
				t.Error("expected error for invalid name")
			}

			writer(t, s)
			if err := s.Delete(ctx, "/A/F"); err != nil {
				t.Fatalf("Delete() error: %v", err)
			}
			if _, err := s.Resolve(ctx, "/A/F/N1"); !content.IsNotFound(err) {
				t.Errorf("expected subtree to be deleted, got %v", err)
			}
			if err := s.Delete(ctx, "/A/F"); !content.IsNotFound(err) {
				t.Errorf("expected not found on second delete, got %v", err)
			}
			if err := s.Delete(ctx, "/"); err == nil {
				t.Error("expected error deleting the root")
			}
		})
	}
}

func TestRepository_PutUpdatesInPlace(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, repo)
			ctx := context.Background()

			s, err := repo.Session(ctx)
			if err != nil {
				t.Fatalf("Session() error: %v", err)
			}
			defer s.Close()

			w := writer(t, s)
			if err := w.Put(ctx, &content.Node{Path: "/A/F/N1", Metadata: content.Metadata{"status": "DRAFT"}}); err != nil {
				t.Fatalf("Put() error: %v", err)
			}
			node, err := s.Resolve(ctx, "/A/F/N1")
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if status, _ := node.Metadata.String("status"); status != "DRAFT" || node.HasContent {
				t.Errorf("expected updated node, got %+v", node)
			}
			if diff := cmp.Diff([]string{"N1", "N2"}, childNames(t, s, "/A/F")); diff != "" {
				t.Errorf("order changed by update (-want +got):\n%s", diff)
			}
			if err := w.Put(ctx, &content.Node{Path: "/missing/N"}); !content.IsNotFound(err) {
				t.Errorf("expected not found for missing parent, got %v", err)
			}
		})
	}
}

func TestMemoryStorage_FailOn(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("boom")

	repo := NewMemoryStorage()
	seed(t, repo)

	repo.FailOn(OpSession, "", errBoom)
	if _, err := repo.Session(ctx); !errors.Is(err, errBoom) {
		t.Fatalf("expected session fault, got %v", err)
	}
	repo.FailOn(OpSession, "", nil)

	repo.FailOn(OpMove, "A/F", errBoom)
	repo.FailOn(OpChildren, "/A", errBoom)
	repo.FailOn(OpMetadata, "/A/F/N1", errBoom)
	repo.FailOn(OpCommit, "", errBoom)

	s, err := repo.Session(ctx)
	if err != nil {
		t.Fatalf("Session() error: %v", err)
	}
	defer s.Close()

	if err := s.Move(ctx, "/A/F", "/F"); !errors.Is(err, errBoom) {
		t.Errorf("expected move fault, got %v", err)
	}
	if _, err := s.Children(ctx, "/A"); !errors.Is(err, errBoom) {
		t.Errorf("expected children fault, got %v", err)
	}
	if _, err := s.Metadata(ctx, "/A/F/N1"); !errors.Is(err, errBoom) {
		t.Errorf("expected metadata fault, got %v", err)
	}

	err = s.Commit(ctx)
	var cerr *content.CommitError
	if !errors.As(err, &cerr) || !errors.Is(err, errBoom) {
		t.Errorf("expected commit fault, got %v", err)
	}
}

func TestMemoryStorage_ClosedSession(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStorage().Session(ctx)
	if err != nil {
		t.Fatalf("Session() error: %v", err)
	}
	s.Close()

	if _, err := s.Resolve(ctx, "/"); !errors.Is(err, content.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if err := s.Commit(ctx); !errors.Is(err, content.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed on commit, got %v", err)
	}
}

func TestNewSQLiteStorage_UnsupportedDriver(t *testing.T) {
	cfg := DefaultSQLiteConfig()
	cfg.Driver = "postgres"
	cfg.Path = filepath.Join(t.TempDir(), "content.db")

	if _, err := NewSQLiteStorage(cfg); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	cfg := DefaultSQLiteConfig()
	cfg.Path = filepath.Join(t.TempDir(), "content.db")

	s, err := NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error: %v", err)
	}
	seed(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	s, err = NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
	session, err := s.Session(context.Background())
	if err != nil {
		t.Fatalf("Session() error: %v", err)
	}
	defer session.Close()
	if _, err := session.Resolve(context.Background(), "/A/F/N1"); err != nil {
		t.Errorf("expected persisted node, got %v", err)
	}
}

func TestSQLiteStorage_BusyTimeoutOnEveryConnection(t *testing.T) {
	for _, driver := range []string{DriverPureGo, DriverCGO} {
		t.Run(driver, func(t *testing.T) {
			cfg := DefaultSQLiteConfig()
			cfg.Driver = driver
			cfg.Path = filepath.Join(t.TempDir(), "content.db")
			cfg.BusyTimeout = 1234 * time.Millisecond

			s, err := NewSQLiteStorage(cfg)
			if err != nil {
				t.Fatalf("NewSQLiteStorage() error: %v", err)
			}
			defer s.Close()

			ctx := context.Background()
			for i := 0; i < cfg.MaxOpenConns; i++ {
				// Held open so every iteration gets a distinct pooled connection.
				conn, err := s.db.Conn(ctx)
				if err != nil {
					t.Fatalf("Conn() error: %v", err)
				}
				defer conn.Close()

				var ms int
				if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&ms); err != nil {
					t.Fatalf("PRAGMA busy_timeout error: %v", err)
				}
				if ms != 1234 {
					t.Errorf("connection %d: busy_timeout = %d, want 1234", i, ms)
				}
			}
		})
	}
}

func TestDataSourceName(t *testing.T) {
	tests := []struct {
		name string
		cfg  SQLiteConfig
		want string
	}{
		{"pure go", SQLiteConfig{Driver: DriverPureGo, Path: "c.db", BusyTimeout: 5 * time.Second}, "c.db?_pragma=busy_timeout(5000)"},
		{"cgo", SQLiteConfig{Driver: DriverCGO, Path: "c.db", BusyTimeout: 5 * time.Second}, "c.db?_busy_timeout=5000"},
		{"no timeout", SQLiteConfig{Driver: DriverPureGo, Path: "c.db"}, "c.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dataSourceName(&tt.cfg); got != tt.want {
				t.Errorf("dataSourceName() = %q, want %q", got, tt.want)
			}
		})
	}
}
