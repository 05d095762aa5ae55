package bbs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Import SQLite driver for database/sql
)

type sqliteStore struct{ db *sql.DB }

// sqliteTimeFormat is RFC 3339 with a fixed-width fraction, so the TEXT
// column sorts chronologically. RFC3339Nano trims trailing zeros and does
// not.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// OpenSQLiteStore opens/creates a SQLite DB and ensures schema + PRAGMAs.
func OpenSQLiteStore(dsn string) (ServerStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	st := &sqliteStore{db: db}
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", p, err)
		}
	}
	schema := `
CREATE TABLE IF NOT EXISTS posts (
  id              INTEGER PRIMARY KEY AUTOINCREMENT,
  name            TEXT NOT NULL,
  content         TEXT NOT NULL,
  delete_key_hash TEXT NOT NULL,
  created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_created_at ON posts(created_at DESC);
CREATE TABLE IF NOT EXISTS counter (
  id         INTEGER PRIMARY KEY CHECK(id=1),
  count      INTEGER NOT NULL DEFAULT 0,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
INSERT INTO counter(id, count) VALUES(1, 0) ON CONFLICT(id) DO NOTHING;
`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

// Close releases the underlying database handle.
func (s *sqliteStore) Close() error { return s.db.Close() }

// ListPosts selects at most ListLimit posts, newest first with ties broken
// by reverse insertion order. The delete-key digest is never part of the
// projection.
func (s *sqliteStore) ListPosts(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, content, created_at FROM posts
		 ORDER BY created_at DESC, id DESC LIMIT ?`, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var (
			id        int64
			p         Post
			createdAt string
		)
		if err := rows.Scan(&id, &p.Name, &p.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.ID = strconv.FormatInt(id, 10)
		p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreatePost validates in, then inserts the escaped fields with a hashed
// delete key and re-selects the row, so success is only reported once the
// created record is confirmed.
func (s *sqliteStore) CreatePost(ctx context.Context, in PostInput) (Post, error) {
	if err := ValidatePost(in); err != nil {
		return Post{}, err
	}

	name := EscapeHTML(strings.TrimSpace(in.Name))
	content := EscapeHTML(strings.TrimSpace(in.Content))
	hash := HashDeleteKey(strings.TrimSpace(in.DeleteKey))
	createdAt := time.Now().UTC().Format(sqliteTimeFormat)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return Post{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO posts(name, content, delete_key_hash, created_at) VALUES(?, ?, ?, ?)`,
		name, content, hash, createdAt)
	if err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Post{}, fmt.Errorf("last insert id: %w", err)
	}

	var (
		p      Post
		stored string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT name, content, created_at FROM posts WHERE id = ?`, id).
		Scan(&p.Name, &p.Content, &stored)
	if err != nil {
		return Post{}, fmt.Errorf("select inserted post: %w", err)
	}
	p.ID = strconv.FormatInt(id, 10)
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, stored); err != nil {
		return Post{}, fmt.Errorf("parse created_at %q: %w", stored, err)
	}

	if err := tx.Commit(); err != nil {
		return Post{}, err
	}
	return p, nil
}

// DeletePost looks up the stored digest, verifies the delete key, and removes
// the row, all within one transaction.
func (s *sqliteStore) DeletePost(ctx context.Context, id, deleteKey string) error {
	key := strings.TrimSpace(deleteKey)
	if key == "" {
		return ErrMissingDeleteKey
	}
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrPostNotFound
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var hash string
	err = tx.QueryRowContext(ctx,
		`SELECT delete_key_hash FROM posts WHERE id = ?`, rowID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("select post: %w", err)
	}

	if !VerifyDeleteKey(key, hash) {
		return ErrWrongDeleteKey
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, rowID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return tx.Commit()
}

// VisitCount returns the current visit counter value.
func (s *sqliteStore) VisitCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT count FROM counter WHERE id = 1`).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select counter: %w", err)
	}
	return n, nil
}

// IncrementVisits bumps the counter and returns the new value.
func (s *sqliteStore) IncrementVisits(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE counter SET count = count + 1, updated_at = CURRENT_TIMESTAMP WHERE id = 1`); err != nil {
		return 0, fmt.Errorf("update counter: %w", err)
	}
	var n int64
	if err := tx.QueryRowContext(ctx, `SELECT count FROM counter WHERE id = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("select counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}
