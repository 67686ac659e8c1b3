// Package tablecache stores compiled language tables in SQLite, keyed by the
// fingerprint of the grammar they were built from.
package tablecache

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/vbsitter/grammar"
	"github.com/dhamidi/vbsitter/language"
)

var ErrNotFound = errors.New("table not cached")

var log = commonlog.GetLogger("vbsitter.tablecache")

// Entry describes a cached table.
type Entry struct {
	Fingerprint string
	Name        string
	Version     uint32
	Size        int
	CreatedAt   time.Time
}

// Cache is a table cache backed by a SQLite database.
type Cache struct {
	db   *sql.DB
	path string
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	// WAL lets several processes read while one writes.
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS tables (
			fingerprint TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			version INTEGER NOT NULL,
			data BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Cache{db: db, path: path}, nil
}

func (c *Cache) Path() string { return c.path }

func (c *Cache) Close() error { return c.db.Close() }

// Get returns the table built from the grammar with the given fingerprint.
// Tables written by another table layout version are reported as missing.
func (c *Cache) Get(ctx context.Context, fingerprint string) (*language.Language, error) {
	var data []byte
	var version uint32
	err := c.db.QueryRowContext(ctx,
		`SELECT version, data FROM tables WHERE fingerprint = ?`, fingerprint,
	).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fingerprint)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	if version != language.Version {
		return nil, fmt.Errorf("%w: %s has version %d", ErrNotFound, fingerprint, version)
	}

	lang, err := language.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return lang, nil
}

// Put stores lang, replacing any table with the same fingerprint.
func (c *Cache) Put(ctx context.Context, lang *language.Language) error {
	var buf bytes.Buffer
	if err := lang.Encode(&buf); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO tables (fingerprint, name, version, data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			data = excluded.data,
			created_at = excluded.created_at
	`, lang.Fingerprint, lang.Name, lang.Version, buf.Bytes(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store table: %w", err)
	}
	return nil
}

// Load returns the cached table for g, building and storing it on a miss.
// A corrupt cache entry is rebuilt.
func (c *Cache) Load(ctx context.Context, g *grammar.Grammar) (*language.Language, error) {
	fp := g.Fingerprint()
	lang, err := c.Get(ctx, fp)
	switch {
	case err == nil:
		log.Debugf("cache hit for %s (%s)", g.Name, fp[:12])
		return lang, nil
	case errors.Is(err, ErrNotFound):
		log.Infof("building table for %s", g.Name)
	default:
		log.Warningf("discarding cached table for %s: %s", g.Name, err)
	}

	lang, err = language.Build(g)
	if err != nil {
		return nil, err
	}
	if err := c.Put(ctx, lang); err != nil {
		return nil, err
	}
	return lang, nil
}

// List returns the cached tables, newest first.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT fingerprint, name, version, length(data), created_at
		FROM tables ORDER BY created_at DESC, fingerprint
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Fingerprint, &e.Name, &e.Version, &e.Size, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the table with the given fingerprint.
func (c *Cache) Delete(ctx context.Context, fingerprint string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM tables WHERE fingerprint = ?`, fingerprint)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, fingerprint)
	}
	return nil
}

// Prune removes tables written by other table layout versions and returns
// how many were removed.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM tables WHERE version != ?`, language.Version)
	if err != nil {
		return 0, fmt.Errorf("failed to prune tables: %w", err)
	}
	return res.RowsAffected()
}
