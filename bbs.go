// Package bbs implements the guestbook backend of the legacy homepage:
// validation, delete-key authentication, and dual-mode persistence that keeps
// the same contract whether posts live behind the remote API or in a local
// on-device snapshot.
package bbs

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Field limits, counted in runes on the trimmed value.
const (
	MaxNameLen      = 20
	MaxContentLen   = 1000
	MaxDeleteKeyLen = 20
)

// ListLimit caps how many posts a listing returns. Older posts stay stored
// but are never served.
const ListLimit = 100

// Post is one guestbook entry as exposed to readers. Name and Content are
// stored HTML-escaped; the delete-key digest is store-internal and never
// appears here.
type Post struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostInput carries the raw, untrusted form fields for a new post.
type PostInput struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	DeleteKey string `json:"deleteKey"`
}

// ErrPostNotFound indicates the referenced post does not exist (bad id, or
// already deleted).
var ErrPostNotFound = errors.New("post not found")

// ErrWrongDeleteKey indicates the post exists but the supplied delete key
// does not verify against its stored digest.
var ErrWrongDeleteKey = errors.New("wrong delete key")

// ErrMissingDeleteKey indicates a delete was attempted with an empty key.
var ErrMissingDeleteKey = errors.New("missing delete key")

// User-facing messages, in the site's locale.
const (
	MsgPostNotFound     = "投稿が見つかりません"
	MsgWrongDeleteKey   = "削除キーが間違っています"
	MsgMissingDeleteKey = "削除キーを入力してください"
	MsgListFailed       = "投稿の取得に失敗しました"
	MsgCreateFailed     = "投稿の作成に失敗しました"
	MsgDeleteFailed     = "投稿の削除に失敗しました"
	MsgPostDeleted      = "投稿を削除しました"
	MsgCounterGetFailed = "カウンターの取得に失敗しました"
	MsgCounterIncFailed = "カウンターの更新に失敗しました"
)

// ValidationError aggregates every failing field message for a create
// attempt, in field order (name, content, delete key).
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

// Store abstracts guestbook persistence. Every backend applies the same
// validation, escaping, hashing, ordering, and listing cap, so callers
// cannot tell the variants apart.
type Store interface {
	// ListPosts returns at most ListLimit posts, newest first. The
	// delete-key digest is never part of the projection.
	ListPosts(ctx context.Context) ([]Post, error)

	// CreatePost validates in, then persists a new post with escaped
	// fields and a hashed delete key. Validation failures surface as
	// *ValidationError without touching storage.
	CreatePost(ctx context.Context, in PostInput) (Post, error)

	// DeletePost removes the post iff deleteKey verifies against its
	// stored digest. Returns ErrPostNotFound, ErrMissingDeleteKey, or
	// ErrWrongDeleteKey on the corresponding failures.
	DeletePost(ctx context.Context, id, deleteKey string) error
}

// CounterStore persists the visit counter.
type CounterStore interface {
	VisitCount(ctx context.Context) (int64, error)
	IncrementVisits(ctx context.Context) (int64, error)
}

// ServerStore is the durable persistence the API server runs on.
type ServerStore interface {
	Store
	CounterStore
}
