package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/muurk/skylog/internal/feed"
	"github.com/muurk/skylog/internal/logging"
	"go.uber.org/zap"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is one JSON document in a collection.
type Document struct {
	ID         string         `json:"id"`
	Collection string         `json:"collection"`
	Owner      string         `json:"owner"`
	Data       map[string]any `json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Snapshot is one delivery of a live query.
type Snapshot struct {
	Docs []Document
	Err  error

	seq uint64 // order in which the query started
}

// Store is a document store over database/sql. Documents are grouped by
// collection and owner; queries return them newest first.
type Store struct {
	db     *sql.DB
	driver string
	path   string // sqlite file, empty for mysql

	mu   sync.Mutex
	hubs map[string]*feed.Hub[Snapshot]
	seq  atomic.Uint64

	now   func() time.Time
	newID func() string
}

// Open connects to the store. For sqlite, dsn is a file path whose parent
// directory is created if needed. For mysql, dsn is a go-sql-driver DSN.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, "":
		if err := os.MkdirAll(filepath.Dir(dsn), 0700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		db, err := sql.Open(DriverSQLite, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// One connection keeps pragmas in force and serializes writers.
		db.SetMaxOpenConns(1)
		s, err := New(db, DriverSQLite)
		if err != nil {
			db.Close()
			return nil, err
		}
		s.path = dsn
		return s, nil

	case DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql DSN: %w", err)
		}
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create mysql connector: %w", err)
		}
		db := sql.OpenDB(connector)
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		s, err := New(db, DriverMySQL)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q (expected sqlite or mysql)", driver)
	}
}

// New wraps an open database and creates the schema.
func New(db *sql.DB, driver string) (*Store, error) {
	s := &Store{
		db:     db,
		driver: driver,
		hubs:   make(map[string]*feed.Hub[Snapshot]),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	if err := s.initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// initialize creates the documents table.
func (s *Store) initialize() error {
	var stmts []string
	if s.driver == DriverMySQL {
		stmts = []string{`
		CREATE TABLE IF NOT EXISTS documents (
			id VARCHAR(64) NOT NULL PRIMARY KEY,
			collection VARCHAR(64) NOT NULL,
			owner VARCHAR(128) NOT NULL,
			data TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			INDEX idx_documents_owner (collection, owner, created_at)
		)`}
	} else {
		stmts = []string{
			`PRAGMA journal_mode = WAL`,
			`PRAGMA busy_timeout = 5000`,
			`CREATE TABLE IF NOT EXISTS documents (
				id VARCHAR(64) NOT NULL PRIMARY KEY,
				collection VARCHAR(64) NOT NULL,
				owner VARCHAR(128) NOT NULL,
				data TEXT NOT NULL,
				created_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(collection, owner, created_at)`,
		}
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Close closes the database and detaches every live query.
func (s *Store) Close() error {
	s.mu.Lock()
	hubs := s.hubs
	s.hubs = make(map[string]*feed.Hub[Snapshot])
	s.mu.Unlock()

	// h.Close waits for running callbacks and must not run under s.mu.
	for _, h := range hubs {
		h.Close()
	}
	return s.db.Close()
}

// Driver returns the driver name.
func (s *Store) Driver() string {
	return s.driver
}

// AddRecord creates a document and returns its generated id.
func (s *Store) AddRecord(ctx context.Context, collection, owner string, data map[string]any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	id := s.newID()
	now := s.now().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, owner, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, collection, owner, string(raw), now, now)
	if err != nil {
		return "", fmt.Errorf("failed to add document to %s: %w", collection, err)
	}

	logging.Debug("Document added",
		zap.String("collection", collection),
		zap.String("id", id),
	)
	s.notify(ctx, collection, owner)
	return id, nil
}

// SetRecord writes a document under a known id. With merge, fields in data
// are layered over the stored fields; without it the document is replaced.
// The creation time of an existing document is preserved either way.
func (s *Store) SetRecord(ctx context.Context, collection, id, owner string, data map[string]any, merge bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&existing)

	now := s.now().UnixMilli()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, collection, owner, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, collection, owner, string(raw), now, now); err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}

	case err != nil:
		return fmt.Errorf("failed to read document: %w", err)

	default:
		merged := data
		if merge {
			current := map[string]any{}
			if err := json.Unmarshal([]byte(existing), &current); err != nil {
				return fmt.Errorf("failed to decode stored document: %w", err)
			}
			for k, v := range data {
				current[k] = v
			}
			merged = current
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET data = ?, owner = ?, updated_at = ? WHERE collection = ? AND id = ?`,
			string(raw), owner, now, collection, id); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document: %w", err)
	}
	s.notify(ctx, collection, owner)
	return nil
}

// GetRecord reads one document.
func (s *Store) GetRecord(ctx context.Context, collection, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, collection, owner, data, created_at, updated_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

// Query returns the owner's documents in a collection, newest first.
func (s *Store) Query(ctx context.Context, collection, owner string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, collection, owner, data, created_at, updated_at FROM documents
		WHERE collection = ? AND owner = ? ORDER BY created_at DESC, id DESC`,
		collection, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	return docs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var (
		doc              Document
		raw              string
		created, updated int64
	)
	if err := row.Scan(&doc.ID, &doc.Collection, &doc.Owner, &raw, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, err
		}
		return Document{}, fmt.Errorf("failed to scan document: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &doc.Data); err != nil {
		return Document{}, fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}
	doc.CreatedAt = time.UnixMilli(created)
	doc.UpdatedAt = time.UnixMilli(updated)
	return doc, nil
}
