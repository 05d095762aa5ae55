package bbs

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// backend is the full operation set a service mode needs.
type backend interface {
	Store
	CounterStore
}

// Service is the client-facing orchestrator. The backend is chosen once at
// construction: with an API URL configured it runs against the remote store
// and keeps the local snapshot as a best-effort read fallback; without one
// it runs purely on-device. Reads fall back, writes never do, so remote and
// local state cannot silently diverge.
type Service struct {
	remote backend // nil in local mode
	local  backend
	log    *slog.Logger

	mu    sync.Mutex
	posts []Post
}

// NewService wires a service from cfg. The local store is always opened: it
// is the primary in local mode and the read fallback in remote mode.
func NewService(cfg Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	local, err := OpenLocalStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	s := &Service{local: local, log: logger}
	if cfg.APIURL != "" {
		s.remote = NewRemoteStore(cfg.APIURL, cfg.Timeout())
	}
	return s, nil
}

// newServiceWith wires explicit backends; used by tests to substitute fakes.
func newServiceWith(remote, local backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{remote: remote, local: local, log: logger}
}

// RemoteMode reports whether the service talks to the remote API.
func (s *Service) RemoteMode() bool { return s.remote != nil }

func (s *Service) primary() backend {
	if s.remote != nil {
		return s.remote
	}
	return s.local
}

// Load refreshes the visible post collection. A remote failure is logged and
// answered from the local snapshot; if that also yields nothing the
// collection is simply empty. A read is never a hard failure in remote mode.
func (s *Service) Load(ctx context.Context) ([]Post, error) {
	var posts []Post
	if s.remote != nil {
		var err error
		posts, err = s.remote.ListPosts(ctx)
		if err != nil {
			s.log.Warn("remote load failed, falling back to local snapshot", "error", err)
			if posts, err = s.local.ListPosts(ctx); err != nil {
				posts = nil
			}
		}
	} else {
		var err error
		if posts, err = s.local.ListPosts(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()
	return slices.Clone(posts), nil
}

// AddPost creates a post through the primary backend only; there is no
// fallback write. On success the new post is prepended to the cached
// collection without a re-fetch.
func (s *Service) AddPost(ctx context.Context, in PostInput) (Post, error) {
	post, err := s.primary().CreatePost(ctx, in)
	if err != nil {
		return Post{}, err
	}

	s.mu.Lock()
	s.posts = append([]Post{post}, s.posts...)
	s.mu.Unlock()
	return post, nil
}

// DeletePost removes a post through the primary backend only. NotFound and
// WrongDeleteKey come back as their distinct sentinels; the caller decides
// the wording.
func (s *Service) DeletePost(ctx context.Context, id, deleteKey string) error {
	if err := s.primary().DeletePost(ctx, id, deleteKey); err != nil {
		return err
	}

	s.mu.Lock()
	s.posts = slices.DeleteFunc(s.posts, func(p Post) bool { return p.ID == id })
	s.mu.Unlock()
	return nil
}

// Posts returns a snapshot of the currently visible collection (as of the
// last Load plus any successful writes).
func (s *Service) Posts() []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.posts)
}

// IncrementVisits bumps the visit counter. When the remote increment fails
// the last locally known count is served instead, read-only, so the page
// still shows a number.
func (s *Service) IncrementVisits(ctx context.Context) (int64, error) {
	if s.remote != nil {
		n, err := s.remote.IncrementVisits(ctx)
		if err != nil {
			s.log.Warn("remote counter failed, serving local count", "error", err)
			return s.local.VisitCount(ctx)
		}
		return n, nil
	}
	return s.local.IncrementVisits(ctx)
}

// VisitCount reads the counter with the same read-fallback policy as Load.
func (s *Service) VisitCount(ctx context.Context) (int64, error) {
	if s.remote != nil {
		n, err := s.remote.VisitCount(ctx)
		if err != nil {
			s.log.Warn("remote counter failed, serving local count", "error", err)
			return s.local.VisitCount(ctx)
		}
		return n, nil
	}
	return s.local.VisitCount(ctx)
}
