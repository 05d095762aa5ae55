package bbs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// localRecord is the persisted form of a post in the on-device snapshot.
// Unlike the API projection it carries the delete-key digest: there is no
// separate server to keep it hidden from the same device, so this is
// consistency with remote mode rather than a security boundary.
type localRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Content       string    `json:"content"`
	DeleteKeyHash string    `json:"deleteKeyHash"`
	CreatedAt     time.Time `json:"createdAt"`
}

const (
	postsFileName = "bbs_posts.json"
	countFileName = "access_count"
)

// LocalStore persists posts as a single JSON-encoded newest-first array in
// one file, plus a small count file for the visit counter. Every operation
// is a serialized read-modify-write; the snapshot is replaced via rename so
// no partial write is ever observable.
type LocalStore struct {
	dir string

	mu     sync.Mutex
	lastID int64 // last issued millisecond id token
}

// OpenLocalStore creates or opens an on-device store rooted at dir.
func OpenLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// loadLocked reads the snapshot. A missing or corrupt file reads as an empty
// collection rather than an error; corruption must never surface to the user
// as a hard failure.
func (s *LocalStore) loadLocked() []localRecord {
	data, err := os.ReadFile(filepath.Join(s.dir, postsFileName))
	if err != nil {
		return nil
	}
	var recs []localRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil
	}
	return recs
}

// saveLocked writes the full snapshot through a temp file and rename.
func (s *LocalStore) saveLocked(recs []localRecord) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode posts: %w", err)
	}
	return s.writeFileLocked(postsFileName, data)
}

func (s *LocalStore) writeFileLocked(name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// ListPosts returns at most ListLimit posts, newest first. Ties on the
// creation timestamp keep reverse insertion order.
func (s *LocalStore) ListPosts(_ context.Context) ([]Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.loadLocked()
	// The snapshot is maintained newest-first; a stable sort repairs any
	// outside edits without disturbing tie order.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	if len(recs) > ListLimit {
		recs = recs[:ListLimit]
	}
	posts := make([]Post, 0, len(recs))
	for _, r := range recs {
		posts = append(posts, Post{
			ID:        r.ID,
			Name:      r.Name,
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
		})
	}
	return posts, nil
}

// CreatePost validates in, then prepends a new record to the snapshot. The
// id is a unique millisecond-timestamp token; createdAt is the time of the
// call.
func (s *LocalStore) CreatePost(_ context.Context, in PostInput) (Post, error) {
	if err := ValidatePost(in); err != nil {
		return Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	rec := localRecord{
		ID:            strconv.FormatInt(id, 10),
		Name:          EscapeHTML(strings.TrimSpace(in.Name)),
		Content:       EscapeHTML(strings.TrimSpace(in.Content)),
		DeleteKeyHash: HashDeleteKey(strings.TrimSpace(in.DeleteKey)),
		CreatedAt:     now,
	}

	recs := append([]localRecord{rec}, s.loadLocked()...)
	if err := s.saveLocked(recs); err != nil {
		return Post{}, err
	}
	return Post{ID: rec.ID, Name: rec.Name, Content: rec.Content, CreatedAt: rec.CreatedAt}, nil
}

// DeletePost removes the post with id after the delete key verifies.
func (s *LocalStore) DeletePost(_ context.Context, id, deleteKey string) error {
	key := strings.TrimSpace(deleteKey)
	if key == "" {
		return ErrMissingDeleteKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.loadLocked()
	for i, r := range recs {
		if r.ID != id {
			continue
		}
		if !VerifyDeleteKey(key, r.DeleteKeyHash) {
			return ErrWrongDeleteKey
		}
		recs = append(recs[:i], recs[i+1:]...)
		return s.saveLocked(recs)
	}
	return ErrPostNotFound
}

// VisitCount reads the stored visit count. Missing or unreadable counts read
// as zero.
func (s *LocalStore) VisitCount(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(), nil
}

// IncrementVisits bumps the counter and returns the new value.
func (s *LocalStore) IncrementVisits(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.countLocked() + 1
	if err := s.writeFileLocked(countFileName, []byte(strconv.FormatInt(n, 10))); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *LocalStore) countLocked() int64 {
	data, err := os.ReadFile(filepath.Join(s.dir, countFileName))
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
