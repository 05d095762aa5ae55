package bbs

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server provides the guestbook HTTP API over a durable store. Every
// response is JSON with permissive CORS headers, matching what the retro
// front end expects.
type Server struct {
	store  ServerStore
	log    *slog.Logger
	router chi.Router
}

// NewServer builds the API router over store. A nil logger discards logs.
func NewServer(store ServerStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{store: store, log: logger}

	r := chi.NewRouter()
	r.Use(s.corsMiddleware)
	r.Use(s.logMiddleware)
	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", s.handleListPosts)
		r.Post("/posts", s.handleCreatePost)
		r.Delete("/posts/{id}", s.handleDeletePost)
		r.Get("/health", s.handleHealth)
		r.Get("/counter", s.handleGetCounter)
		r.Post("/counter", s.handleIncrementCounter)
	})
	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// corsMiddleware stamps the CORS headers on every response and short-circuits
// preflight requests with 204.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

type listResponse struct {
	Success bool   `json:"success"`
	Posts   []Post `json:"posts"`
}

type postResponse struct {
	Success bool `json:"success"`
	Post    Post `json:"post"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type healthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type counterResponse struct {
	Success bool  `json:"success"`
	Count   int64 `json:"count"`
}

type errorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		s.log.Error("list posts", "error", err)
		s.writeError(w, http.StatusInternalServerError, MsgListFailed)
		return
	}
	if posts == nil {
		posts = []Post{}
	}
	s.writeJSON(w, http.StatusOK, listResponse{Success: true, Posts: posts})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in PostInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.log.Error("create post: decode body", "error", err)
		s.writeError(w, http.StatusInternalServerError, MsgCreateFailed)
		return
	}

	post, err := s.store.CreatePost(r.Context(), in)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Errors: verr.Errors})
			return
		}
		s.log.Error("create post", "error", err)
		s.writeError(w, http.StatusInternalServerError, MsgCreateFailed)
		return
	}
	s.writeJSON(w, http.StatusCreated, postResponse{Success: true, Post: post})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		DeleteKey string `json:"deleteKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.log.Error("delete post: decode body", "error", err)
		s.writeError(w, http.StatusInternalServerError, MsgDeleteFailed)
		return
	}
	if strings.TrimSpace(body.DeleteKey) == "" {
		s.writeError(w, http.StatusBadRequest, MsgMissingDeleteKey)
		return
	}

	switch err := s.store.DeletePost(r.Context(), id, body.DeleteKey); {
	case err == nil:
		s.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: MsgPostDeleted})
	case errors.Is(err, ErrPostNotFound):
		s.writeError(w, http.StatusNotFound, MsgPostNotFound)
	case errors.Is(err, ErrWrongDeleteKey):
		s.writeError(w, http.StatusForbidden, MsgWrongDeleteKey)
	case errors.Is(err, ErrMissingDeleteKey):
		s.writeError(w, http.StatusBadRequest, MsgMissingDeleteKey)
	default:
		s.log.Error("delete post", "error", err)
		s.writeError(w, http.StatusInternalServerError, MsgDeleteFailed)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Success:   true,
		Message:   "API is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetCounter(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.VisitCount(r.Context())
	if err != nil {
		s.log.Error("get counter", "error", err)
		s.writeError(w, http.StatusInternalServerError, MsgCounterGetFailed)
		return
	}
	s.writeJSON(w, http.StatusOK, counterResponse{Success: true, Count: n})
}

func (s *Server) handleIncrementCounter(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.IncrementVisits(r.Context())
	if err != nil {
		s.log.Error("increment counter", "error", err)
		s.writeError(w, http.StatusInternalServerError, MsgCounterIncFailed)
		return
	}
	s.writeJSON(w, http.StatusOK, counterResponse{Success: true, Count: n})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusNotFound, "Not Found")
}
