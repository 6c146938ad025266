// Package httprecv is the collector side of the HTTP transport.
package httprecv

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/crimson-sun/runlog/internal/model"
	"github.com/crimson-sun/runlog/internal/output"
	"github.com/crimson-sun/runlog/internal/output/multi"
	"github.com/crimson-sun/runlog/internal/transport/httpsend"
)

const (
	maxBodyBytes = 32 << 20
	seenCapacity = 4096
)

// Server accepts envelopes over HTTP and writes them to an output.
// Envelopes are written in the order their requests are handled, so a
// single sending queue on the other side keeps them ordered.
type Server struct {
	out    output.Output
	logger *slog.Logger
	router chi.Router

	mu   sync.Mutex
	seen map[string]struct{}
	ring []string // insertion order of seen, oldest first
}

// New builds the collector router. A nil logger falls back to slog.Default.
func New(out output.Output, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{out: out, logger: logger, seen: make(map[string]struct{})}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post(httpsend.MessagesPath, s.handleMessage)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var env model.Envelope
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&env); err != nil {
		http.Error(w, "invalid envelope: "+err.Error(), http.StatusBadRequest)
		return
	}
	if env.Spec == "" {
		http.Error(w, "invalid envelope: spec is required", http.StatusBadRequest)
		return
	}

	id := r.Header.Get(httpsend.MessageIDHeader)
	if s.duplicate(id) {
		s.logger.Debug("duplicate envelope ignored", "id", id)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.out.Write(r.Context(), env); err != nil {
		var werr *multi.WriteError
		if errors.As(err, &werr) && werr.Partial() {
			// Some outputs already printed it; a retry would print it twice.
			s.logger.Warn("envelope partially written", "id", id, "spec", env.Spec, "test", env.Test,
				"delivered", werr.Delivered, "failed", werr.Failed, "error", werr.Err)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.logger.Error("envelope write failed", "id", id, "spec", env.Spec, "test", env.Test, "error", err)
		s.forget(id)
		http.Error(w, "write failed", http.StatusInternalServerError)
		return
	}
	s.logger.Debug("envelope received", "id", id, "spec", env.Spec, "test", env.Test,
		"file_messages", len(env.FileMessages), "terminal_messages", len(env.TerminalMessages))
	w.WriteHeader(http.StatusNoContent)
}

// duplicate records id and reports whether it was already seen. Empty ids
// are never treated as duplicates.
func (s *Server) duplicate(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; ok {
		return true
	}
	if len(s.ring) >= seenCapacity {
		delete(s.seen, s.ring[0])
		s.ring = s.ring[1:]
	}
	s.seen[id] = struct{}{}
	s.ring = append(s.ring, id)
	return false
}

// forget drops id so a retry of a failed write is accepted.
func (s *Server) forget(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; !ok {
		return
	}
	delete(s.seen, id)
	for i := len(s.ring) - 1; i >= 0; i-- {
		if s.ring[i] == id {
			s.ring = append(s.ring[:i], s.ring[i+1:]...)
			break
		}
	}
}
