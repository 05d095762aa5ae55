package bbs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct{ pool *pgxpool.Pool }

// OpenPostgresStore connects to a PostgreSQL database and ensures the schema.
// Used when the configured database URL has a postgres scheme; semantics are
// identical to the SQLite backend.
func OpenPostgresStore(ctx context.Context, url string) (ServerStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	// One statement per Exec: the extended protocol rejects batches.
	schema := []string{
		`CREATE TABLE IF NOT EXISTS posts (
  id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  name            TEXT NOT NULL,
  content         TEXT NOT NULL,
  delete_key_hash TEXT NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC, id DESC)`,
		`CREATE TABLE IF NOT EXISTS counter (
  id         INT PRIMARY KEY CHECK (id = 1),
  count      BIGINT NOT NULL DEFAULT 0,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`INSERT INTO counter (id, count) VALUES (1, 0) ON CONFLICT (id) DO NOTHING`,
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	return &postgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *postgresStore) ListPosts(ctx context.Context) ([]Post, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, content, created_at FROM posts
		 ORDER BY created_at DESC, id DESC LIMIT $1`, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("select posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var (
			id        int64
			p         Post
			createdAt time.Time
		)
		if err := rows.Scan(&id, &p.Name, &p.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.ID = strconv.FormatInt(id, 10)
		p.CreatedAt = createdAt
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *postgresStore) CreatePost(ctx context.Context, in PostInput) (Post, error) {
	if err := ValidatePost(in); err != nil {
		return Post{}, err
	}

	name := EscapeHTML(strings.TrimSpace(in.Name))
	content := EscapeHTML(strings.TrimSpace(in.Content))
	hash := HashDeleteKey(strings.TrimSpace(in.DeleteKey))

	var (
		id        int64
		p         Post
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO posts (name, content, delete_key_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, content, created_at`,
		name, content, hash).Scan(&id, &p.Name, &p.Content, &createdAt)
	if err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	p.ID = strconv.FormatInt(id, 10)
	p.CreatedAt = createdAt
	return p, nil
}

func (s *postgresStore) DeletePost(ctx context.Context, id, deleteKey string) error {
	key := strings.TrimSpace(deleteKey)
	if key == "" {
		return ErrMissingDeleteKey
	}
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrPostNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var hash string
	err = tx.QueryRow(ctx,
		`SELECT delete_key_hash FROM posts WHERE id = $1`, rowID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("select post: %w", err)
	}

	if !VerifyDeleteKey(key, hash) {
		return ErrWrongDeleteKey
	}

	if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, rowID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *postgresStore) VisitCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count FROM counter WHERE id = 1`).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select counter: %w", err)
	}
	return n, nil
}

func (s *postgresStore) IncrementVisits(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`UPDATE counter SET count = count + 1, updated_at = now()
		 WHERE id = 1 RETURNING count`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("update counter: %w", err)
	}
	return n, nil
}
