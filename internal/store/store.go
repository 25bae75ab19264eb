// Package store provides the SQLite cache that mirrors the article
// collection across restarts.
//
// The cache is disposable: when the schema version recorded in the database
// does not match SchemaVersion the table is dropped and recreated empty
// instead of being migrated.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abelbrown/feedline/internal/article"
	"github.com/abelbrown/feedline/internal/logging"
	_ "modernc.org/sqlite"
)

// SchemaVersion is stored in PRAGMA user_version.
const SchemaVersion = 1

// deleteBatch bounds the number of keys per DELETE statement.
const deleteBatch = 200

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

var memSeq atomic.Int64

// Open creates a new Store with the given database path.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	// Build connection string based on database type
	connStr := dbPath
	if dbPath == ":memory:" {
		// Each in-memory store gets its own named database; shared cache lets
		// the pool's connection see it.
		connStr = fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", memSeq.Add(1))
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// For in-memory databases, limit to 1 connection to avoid issues
	// with multiple connections getting different databases
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Enable WAL mode for file-based databases (not :memory:)
	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare schema: %w", err)
	}

	return s, nil
}

const createArticles = `
	CREATE TABLE IF NOT EXISTS Articles (
		id TEXT,
		source TEXT,
		title TEXT NOT NULL,
		sub_title TEXT NOT NULL,
		content TEXT NOT NULL,
		date TEXT,
		PRIMARY KEY (id, source)
	)`

// migrate checks the schema version and recreates the table on mismatch.
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version == SchemaVersion {
		if _, err := s.db.Exec(createArticles); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		return nil
	}

	if version != 0 {
		logging.Warn("cache schema mismatch, recreating", "found", version, "want", SchemaVersion)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DROP TABLE IF EXISTS Articles"); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.Exec(createArticles); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return tx.Commit()
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// LoadAll returns every cached article. Order is unspecified; the collection
// orders them. A stored date that no longer parses is treated as absent.
// Thread-safe: acquires read lock.
func (s *Store) LoadAll() ([]article.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, source, title, sub_title, content, date
		FROM Articles
	`)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []article.Article
	for rows.Next() {
		var a article.Article
		var id, source, date sql.NullString
		if err := rows.Scan(&id, &source, &a.Title, &a.SubTitle, &a.Content, &date); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.ID = id.String
		a.Source = source.String
		if date.Valid {
			if t, err := time.Parse(time.RFC3339Nano, date.String); err == nil {
				a.Date = t
			}
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return articles, nil
}

// Upsert inserts a or replaces the row with the same (id, source).
// Thread-safe: acquires write lock.
func (s *Store) Upsert(a article.Article) error {
	return s.Apply([]article.Article{a}, nil)
}

// Delete removes the rows for keys.
// Thread-safe: acquires write lock.
func (s *Store) Delete(keys []article.Key) error {
	return s.Apply(nil, keys)
}

const upsertArticle = `
	INSERT INTO Articles (id, source, title, sub_title, content, date)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id, source) DO UPDATE SET
		title = excluded.title,
		sub_title = excluded.sub_title,
		content = excluded.content,
		date = excluded.date
`

// Apply upserts and deletes in a single transaction: either the whole
// cycle's write lands or none of it does.
// Thread-safe: acquires write lock.
func (s *Store) Apply(upserts []article.Article, deletes []article.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if len(upserts) > 0 {
		stmt, err := tx.Prepare(upsertArticle)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, a := range upserts {
			if _, err := stmt.Exec(a.ID, a.Source, a.Title, a.SubTitle, a.Content, formatDate(a.Date)); err != nil {
				return fmt.Errorf("upsert %s: %w", a.Key(), err)
			}
		}
	}

	for start := 0; start < len(deletes); start += deleteBatch {
		end := min(start+deleteBatch, len(deletes))
		if err := deleteKeys(tx, deletes[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// deleteKeys removes one batch of keys with a single statement.
func deleteKeys(tx *sql.Tx, keys []article.Key) error {
	placeholders := make([]string, len(keys))
	args := make([]any, 0, 2*len(keys))
	for i, k := range keys {
		placeholders[i] = "(?, ?)"
		args = append(args, k.ID, k.Source)
	}
	query := "DELETE FROM Articles WHERE (id, source) IN (VALUES " + strings.Join(placeholders, ", ") + ")"
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("delete articles: %w", err)
	}
	return nil
}

// Count returns the number of cached articles.
// Thread-safe: acquires read lock.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM Articles").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// formatDate returns the RFC-3339 form of t, or NULL when t is absent.
func formatDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339Nano), Valid: true}
}
