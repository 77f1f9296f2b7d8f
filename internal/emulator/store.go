package emulator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/yaroslav/topoctl/internal/metrics"
	"github.com/yaroslav/topoctl/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS tenants (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS hosts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	alive INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS resources (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL UNIQUE,
	kind TEXT NOT NULL,
	id TEXT NOT NULL,
	parent_path TEXT REFERENCES resources(path),
	payload TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS resource_refs (
	from_path TEXT NOT NULL REFERENCES resources(path) ON DELETE CASCADE,
	to_path TEXT NOT NULL REFERENCES resources(path),
	PRIMARY KEY (from_path, to_path)
);
`

// Record is one live resource held by the emulator.
type Record struct {
	// Path is the canonical path of the resource, also its delete path.
	Path string `json:"path"`

	// Kind is the resource kind.
	Kind models.Kind `json:"kind"`

	// ID is the identifier returned to the client.
	ID string `json:"id"`

	// ParentPath is the owning resource, if any. A parent cannot be
	// deleted while it has children.
	ParentPath string `json:"parentPath,omitempty"`

	// Refs are other resources this one points at. A referenced resource
	// cannot be deleted while the reference exists.
	Refs []string `json:"refs,omitempty"`

	// Payload is the JSON body the resource was created with.
	Payload string `json:"payload"`
}

// Store keeps emulated controller state in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and initializes) the store at dsn. An empty dsn opens a
// private in-memory database.
func OpenStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	if !strings.Contains(dsn, "_pragma=foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddTenant registers a tenant.
func (s *Store) AddTenant(ctx context.Context, t models.Tenant) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO tenants (id, name) VALUES (?, ?)`, t.ID, t.Name)
	if err != nil {
		return fmt.Errorf("failed to add tenant %q: %w", t.Name, classify(err))
	}
	return nil
}

// AddHost registers a host.
func (s *Store) AddHost(ctx context.Context, h models.Host) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO hosts (id, name, alive) VALUES (?, ?, ?)`, h.ID, h.Name, h.Alive)
	if err != nil {
		return fmt.Errorf("failed to add host %s: %w", h.ID, classify(err))
	}
	return nil
}

// TenantsByName returns the tenants called name.
func (s *Store) TenantsByName(ctx context.Context, name string) ([]models.Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM tenants WHERE name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer rows.Close()

	tenants := []models.Tenant{}
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// Host returns the host with the given id, or models.ErrHostNotFound.
func (s *Store) Host(ctx context.Context, id string) (*models.Host, error) {
	var h models.Host
	err := s.db.QueryRowContext(ctx, `SELECT id, name, alive FROM hosts WHERE id = ?`, id).
		Scan(&h.ID, &h.Name, &h.Alive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrHostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query host: %w", err)
	}
	return &h, nil
}

// Insert stores rec. The parent and every referenced resource must exist
// (models.ErrNotFound otherwise); the path must be free (models.ErrConflict
// otherwise).
func (s *Store) Insert(ctx context.Context, rec Record) error {
	defer observe("insert", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deps := rec.Refs
	if rec.ParentPath != "" {
		deps = append([]string{rec.ParentPath}, deps...)
	}
	for _, dep := range deps {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM resources WHERE path = ?`, dep).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", models.ErrNotFound, dep)
		}
		if err != nil {
			return fmt.Errorf("failed to look up %s: %w", dep, err)
		}
	}

	var parent interface{}
	if rec.ParentPath != "" {
		parent = rec.ParentPath
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO resources (path, kind, id, parent_path, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Path, string(rec.Kind), rec.ID, parent, rec.Payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", rec.Path, classify(err))
	}

	for _, ref := range rec.Refs {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO resource_refs (from_path, to_path) VALUES (?, ?)`, rec.Path, ref)
		if err != nil {
			return fmt.Errorf("failed to insert reference %s -> %s: %w", rec.Path, ref, classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", classify(err))
	}

	metrics.StoreResources.WithLabelValues(string(rec.Kind)).Inc()
	return nil
}

// Delete removes the resource at path. It fails with models.ErrNotFound if
// there is none and models.ErrConflict while children or references to it
// remain.
func (s *Store) Delete(ctx context.Context, path string) error {
	defer observe("delete", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var kind string
	err = tx.QueryRowContext(ctx, `SELECT kind FROM resources WHERE path = ?`, path).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", models.ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", path, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM resources WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, classify(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", classify(err))
	}

	metrics.StoreResources.WithLabelValues(kind).Dec()
	return nil
}

// Get returns the resource at path.
func (s *Store) Get(ctx context.Context, path string) (*Record, error) {
	rec := &Record{}
	var parent sql.NullString
	var kind string
	err := s.db.QueryRowContext(ctx,
		`SELECT path, kind, id, parent_path, payload FROM resources WHERE path = ?`, path).
		Scan(&rec.Path, &kind, &rec.ID, &parent, &rec.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", path, err)
	}
	rec.Kind = models.Kind(kind)
	rec.ParentPath = parent.String

	rows, err := s.db.QueryContext(ctx, `SELECT to_path FROM resource_refs WHERE from_path = ? ORDER BY to_path`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query references: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("failed to scan reference: %w", err)
		}
		rec.Refs = append(rec.Refs, ref)
	}
	return rec, rows.Err()
}

// List returns every live resource in creation order.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, kind, id, parent_path, payload FROM resources ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var parent sql.NullString
		var kind string
		if err := rows.Scan(&rec.Path, &kind, &rec.ID, &parent, &rec.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		rec.Kind = models.Kind(kind)
		rec.ParentPath = parent.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of live resources.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// classify maps SQLite constraint violations to models.ErrConflict.
func classify(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %v", models.ErrConflict, err)
	}
	return err
}

func observe(operation string, start time.Time) {
	metrics.StoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
