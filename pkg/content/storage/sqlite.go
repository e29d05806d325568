package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3" // "sqlite3" driver (cgo)
	_ "modernc.org/sqlite"          // "sqlite" driver (pure Go)

	"mercator-hq/archivist/pkg/content"
)

const backendSQLite = "sqlite"

// Supported database/sql driver names.
const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Driver selects the database/sql driver: "sqlite3" (mattn/go-sqlite3)
	// or "sqlite" (modernc.org/sqlite).
	// Default: "sqlite"
	Driver string

	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 4
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 2
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       DriverPureGo,
		Path:         "data/content.db",
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements content.Repository on a SQLite database.
// A session is one database transaction.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database and initializes the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverPureGo
	}
	if config.Driver != DriverCGO && config.Driver != DriverPureGo {
		return nil, content.NewStorageError(backendSQLite, "open",
			fmt.Errorf("unsupported driver %q", config.Driver))
	}

	logger := slog.Default().With("component", "content.storage.sqlite")

	db, err := sql.Open(config.Driver, dataSourceName(config))
	if err != nil {
		return nil, content.NewStorageError(backendSQLite, "open", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite content storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// dataSourceName builds the driver DSN. The busy timeout is a per-connection
// setting, so it goes into the DSN where each pooled connection applies it.
func dataSourceName(config *SQLiteConfig) string {
	if config.BusyTimeout <= 0 {
		return config.Path
	}
	ms := config.BusyTimeout.Milliseconds()
	if config.Driver == DriverCGO {
		return fmt.Sprintf("%s?_busy_timeout=%d", config.Path, ms)
	}
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)", config.Path, ms)
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return content.NewStorageError(backendSQLite, "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return content.NewStorageError(backendSQLite, "create_schema", err)
	}
	if _, err := s.db.Exec(InsertRoot); err != nil {
		return content.NewStorageError(backendSQLite, "insert_root", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return content.NewStorageError(backendSQLite, "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return content.NewStorageError(backendSQLite, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return content.NewStorageError(backendSQLite, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Session begins a transaction.
func (s *SQLiteStorage) Session(ctx context.Context) (content.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, content.NewStorageError(backendSQLite, "begin", err)
	}
	return &sqliteSession{tx: tx}, nil
}

// Ping verifies the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return content.NewStorageError(backendSQLite, "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// sqliteSession is a content.Session bound to one transaction.
type sqliteSession struct {
	tx   *sql.Tx
	done bool
}

func (ss *sqliteSession) scanNode(row interface{ Scan(...any) error }) (*content.Node, error) {
	var (
		node     content.Node
		metadata sql.NullString
	)
	if err := row.Scan(&node.Path, &node.Name, &node.HasContent, &metadata); err != nil {
		return nil, err
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &node.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", node.Path, err)
		}
	}
	return &node, nil
}

func (ss *sqliteSession) exists(ctx context.Context, path string) (bool, error) {
	var one int
	err := ss.tx.QueryRowContext(ctx, `SELECT 1 FROM nodes WHERE path = ?`, path).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, content.NewStorageError(backendSQLite, "query", err)
	}
	return true, nil
}

func (ss *sqliteSession) nextPosition(ctx context.Context, parent string) (int64, error) {
	var pos sql.NullInt64
	err := ss.tx.QueryRowContext(ctx, `SELECT MAX(position) FROM nodes WHERE parent = ?`, parent).Scan(&pos)
	if err != nil {
		return 0, content.NewStorageError(backendSQLite, "query", err)
	}
	if !pos.Valid {
		return 0, nil
	}
	return pos.Int64 + 1, nil
}

// Resolve returns the node at path.
func (ss *sqliteSession) Resolve(ctx context.Context, path string) (*content.Node, error) {
	if ss.done {
		return nil, content.ErrSessionClosed
	}
	path = content.Clean(path)
	row := ss.tx.QueryRowContext(ctx,
		`SELECT path, name, has_content, metadata FROM nodes WHERE path = ?`, path)
	node, err := ss.scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolve %s: %w", path, content.ErrNotFound)
	}
	if err != nil {
		return nil, content.NewStorageError(backendSQLite, "resolve", err)
	}
	return node, nil
}

// Children returns the immediate children of path ordered by position.
func (ss *sqliteSession) Children(ctx context.Context, path string) ([]*content.Node, error) {
	if ss.done {
		return nil, content.ErrSessionClosed
	}
	path = content.Clean(path)
	ok, err := ss.exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("children %s: %w", path, content.ErrNotFound)
	}

	rows, err := ss.tx.QueryContext(ctx,
		`SELECT path, name, has_content, metadata FROM nodes WHERE parent = ? ORDER BY position`, path)
	if err != nil {
		return nil, content.NewStorageError(backendSQLite, "children", err)
	}
	defer rows.Close()

	var children []*content.Node
	for rows.Next() {
		node, err := ss.scanNode(rows)
		if err != nil {
			return nil, content.NewStorageError(backendSQLite, "children", err)
		}
		children = append(children, node)
	}
	if err := rows.Err(); err != nil {
		return nil, content.NewStorageError(backendSQLite, "children", err)
	}
	return children, nil
}

// Metadata returns the properties of the node at path.
func (ss *sqliteSession) Metadata(ctx context.Context, path string) (content.Metadata, error) {
	node, err := ss.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	return node.Metadata, nil
}

// Move relocates src and its subtree to dst by rewriting path prefixes.
func (ss *sqliteSession) Move(ctx context.Context, src, dst string) error {
	if ss.done {
		return content.ErrSessionClosed
	}
	src, dst = content.Clean(src), content.Clean(dst)
	if src == content.Root {
		return content.NewPersistenceError("move", src, fmt.Errorf("cannot move the root"))
	}
	if content.IsWithin(dst, src) {
		return content.NewPersistenceError("move", src, fmt.Errorf("destination %s lies within source", dst))
	}

	ok, err := ss.exists(ctx, src)
	if err != nil {
		return content.NewPersistenceError("move", src, err)
	}
	if !ok {
		return content.NewPersistenceError("move", src, content.ErrNotFound)
	}
	dstParent := content.Parent(dst)
	if ok, err = ss.exists(ctx, dstParent); err != nil {
		return content.NewPersistenceError("move", src, err)
	} else if !ok {
		return content.NewPersistenceError("move", src,
			fmt.Errorf("destination parent %s: %w", dstParent, content.ErrNotFound))
	}
	if ok, err = ss.exists(ctx, dst); err != nil {
		return content.NewPersistenceError("move", src, err)
	} else if ok {
		return content.NewPersistenceError("move", src, fmt.Errorf("%w: %s", content.ErrPathConflict, dst))
	}

	pos, err := ss.nextPosition(ctx, dstParent)
	if err != nil {
		return content.NewPersistenceError("move", src, err)
	}

	_, err = ss.tx.ExecContext(ctx,
		`UPDATE nodes SET path = ?, parent = ?, name = ?, position = ? WHERE path = ?`,
		dst, dstParent, content.Base(dst), pos, src)
	if err != nil {
		return content.NewPersistenceError("move", src, err)
	}

	// SQLite substr counts characters, not bytes.
	n := utf8.RuneCountInString(src)
	_, err = ss.tx.ExecContext(ctx,
		`UPDATE nodes
		    SET path = ? || substr(path, ?),
		        parent = ? || substr(parent, ?)
		  WHERE substr(path, 1, ?) = ?`,
		dst, n+1, dst, n+1, n+1, src+"/")
	if err != nil {
		return content.NewPersistenceError("move", src, err)
	}
	return nil
}

// Delete removes the node at path and its subtree.
func (ss *sqliteSession) Delete(ctx context.Context, path string) error {
	if ss.done {
		return content.ErrSessionClosed
	}
	path = content.Clean(path)
	if path == content.Root {
		return content.NewPersistenceError("delete", path, fmt.Errorf("cannot delete the root"))
	}

	n := utf8.RuneCountInString(path)
	res, err := ss.tx.ExecContext(ctx,
		`DELETE FROM nodes WHERE path = ? OR substr(path, 1, ?) = ?`,
		path, n+1, path+"/")
	if err != nil {
		return content.NewPersistenceError("delete", path, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return content.NewPersistenceError("delete", path, err)
	}
	if affected == 0 {
		return content.NewPersistenceError("delete", path, content.ErrNotFound)
	}
	return nil
}

// CreateChild creates an empty folder under parentPath.
func (ss *sqliteSession) CreateChild(ctx context.Context, parentPath, name string) (*content.Node, error) {
	if ss.done {
		return nil, content.ErrSessionClosed
	}
	parentPath = content.Clean(parentPath)
	path := content.Join(parentPath, name)
	if err := content.ValidateName(name); err != nil {
		return nil, content.NewPersistenceError("create", path, err)
	}

	ok, err := ss.exists(ctx, parentPath)
	if err != nil {
		return nil, content.NewPersistenceError("create", path, err)
	}
	if !ok {
		return nil, content.NewPersistenceError("create", path, content.ErrNotFound)
	}
	if ok, err = ss.exists(ctx, path); err != nil {
		return nil, content.NewPersistenceError("create", path, err)
	} else if ok {
		return nil, content.NewPersistenceError("create", path, content.ErrPathConflict)
	}

	if err := ss.insert(ctx, &content.Node{Path: path, Name: name}); err != nil {
		return nil, content.NewPersistenceError("create", path, err)
	}
	return &content.Node{Path: path, Name: name}, nil
}

// Put creates or updates the node at n.Path.
func (ss *sqliteSession) Put(ctx context.Context, n *content.Node) error {
	if ss.done {
		return content.ErrSessionClosed
	}
	path := content.Clean(n.Path)
	if path == content.Root {
		return content.NewPersistenceError("put", path, fmt.Errorf("cannot replace the root"))
	}
	ok, err := ss.exists(ctx, content.Parent(path))
	if err != nil {
		return content.NewPersistenceError("put", path, err)
	}
	if !ok {
		return content.NewPersistenceError("put", path, content.ErrNotFound)
	}

	metadata, err := encodeMetadata(n.Metadata)
	if err != nil {
		return content.NewPersistenceError("put", path, err)
	}
	res, err := ss.tx.ExecContext(ctx,
		`UPDATE nodes SET has_content = ?, metadata = ? WHERE path = ?`,
		n.HasContent, metadata, path)
	if err != nil {
		return content.NewPersistenceError("put", path, err)
	}
	if affected, _ := res.RowsAffected(); affected > 0 {
		return nil
	}

	node := *n
	node.Path = path
	if err := ss.insert(ctx, &node); err != nil {
		return content.NewPersistenceError("put", path, err)
	}
	return nil
}

func (ss *sqliteSession) insert(ctx context.Context, n *content.Node) error {
	parent := content.Parent(n.Path)
	pos, err := ss.nextPosition(ctx, parent)
	if err != nil {
		return err
	}
	metadata, err := encodeMetadata(n.Metadata)
	if err != nil {
		return err
	}
	_, err = ss.tx.ExecContext(ctx,
		`INSERT INTO nodes (path, parent, name, position, has_content, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.Path, parent, content.Base(n.Path), pos, n.HasContent, metadata, time.Now().UTC())
	return err
}

// Commit commits the transaction.
func (ss *sqliteSession) Commit(ctx context.Context) error {
	if ss.done {
		return content.ErrSessionClosed
	}
	ss.done = true
	if err := ss.tx.Commit(); err != nil {
		return content.NewCommitError(backendSQLite, err)
	}
	return nil
}

// Close rolls back the transaction unless it was committed.
func (ss *sqliteSession) Close() error {
	if ss.done {
		return nil
	}
	ss.done = true
	if err := ss.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return content.NewStorageError(backendSQLite, "rollback", err)
	}
	return nil
}

func encodeMetadata(m content.Metadata) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}
