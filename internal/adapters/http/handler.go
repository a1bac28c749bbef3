package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PabloGalante/messenger/internal/app/store"
	"github.com/PabloGalante/messenger/internal/domain"
	"github.com/PabloGalante/messenger/internal/observability"
)

type Server struct {
	svc *store.Service
}

// Options tunes the middleware stack. Zero RateRPS disables rate limiting.
type Options struct {
	RateRPS   int
	RateBurst int
}

func NewServer(svc *store.Service, opts Options) http.Handler {
	s := &Server{svc: svc}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /users    → GET: list, POST: create
	mux.HandleFunc("/users", s.handleUsers)

	// /messages → GET: full collection, POST: append one
	mux.HandleFunc("/messages", s.handleMessages)

	middlewares := []func(http.Handler) http.Handler{withCORS, withLogging}
	if opts.RateRPS > 0 {
		middlewares = append(middlewares, NewRateLimiter(opts.RateRPS, opts.RateBurst).Middleware)
	}
	middlewares = append(middlewares, withRequestID)

	return chainMiddlewares(mux, middlewares...)
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// /users
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListUsers(w, r)
	case http.MethodPost:
		s.handleCreateUser(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /messages
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListMessages(w, r)
	case http.MethodPost:
		s.handlePostMessage(w, r)
	default:
		methodNotAllowed(w)
	}
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.ListUsers(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.User
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	user, err := s.svc.CreateUser(r.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrInvalid) {
			badRequest(w, err.Error())
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.svc.ListMessages(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.Message
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	msg, err := s.svc.PostMessage(r.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrInvalid) {
			badRequest(w, err.Error())
			return
		}
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
