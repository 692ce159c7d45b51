package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/narrator"
	"github.com/aretw0/narrator/internal/logging"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
	"github.com/aretw0/narrator/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a Narrator over HTTP.
type Server struct {
	Narrator *narrator.Narrator
	Streams  *StreamManager

	// Root is the document a session opened over HTTP enters.
	Root domain.Node
	// Resolver turns the node IDs of focus events into nodes. Without one, focus_changed
	// cannot be posted.
	Resolver ports.NodeResolver

	logger   *slog.Logger
	registry *prometheus.Registry
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithResolver resolves the node IDs of posted focus events.
func WithResolver(r ports.NodeResolver) Option {
	return func(s *Server) {
		s.Resolver = r
	}
}

// WithMetrics serves the collectors of reg at /metrics.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// NewHandler creates the HTTP handler for n. streams must be the Presenter n was built
// with, so that command responses carry their presentations.
func NewHandler(n *narrator.Narrator, streams *StreamManager, root domain.Node, opts ...Option) http.Handler {
	server := &Server{
		Narrator: n,
		Streams:  streams,
		Root:     root,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	return enableCORS(server.Routes())
}

// Routes registers the endpoints on a chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/commands", s.ListCommands)
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/", s.OpenSession)
			r.Get("/", s.InspectSession)
			r.Delete("/", s.CloseSession)
			r.Post("/commands", s.ExecuteCommand)
			r.Post("/interrupt", s.Interrupt)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CommandRequest is the body of POST /sessions/{id}/commands.
type CommandRequest struct {
	Command string `json:"command"`
	// Notify defaults to true.
	Notify *bool  `json:"notify,omitempty"`
	Key    string `json:"key,omitempty"`
	// Focus and Previous are node IDs, for focus_changed.
	Focus    string `json:"focus,omitempty"`
	Previous string `json:"previous,omitempty"`
}

// CommandResponse is the result of a command.
type CommandResponse struct {
	Handled       bool                  `json:"handled"`
	Presentations []runner.Presentation `json:"presentations"`
}

// InterruptRequest is the body of POST /sessions/{id}/interrupt.
type InterruptRequest struct {
	Cause domain.InterruptCause `json:"cause"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{
		"app":     "narrator-http",
		"version": narrator.Version,
	})
}

// ListCommands handles GET /commands.
func (s *Server) ListCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, narrator.Commands())
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Narrator.Sessions().List(r.Context())
	if err != nil {
		s.fail(w, "list sessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, s.logger, http.StatusOK, ids)
}

// OpenSession handles POST /sessions/{id}: the session enters the served document.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Narrator.Open(r.Context(), id, s.Root); err != nil {
		s.fail(w, "open session", err)
		return
	}
	s.logger.Info("session opened", "session_id", id)
	s.inspect(w, r, id, http.StatusCreated)
}

// InspectSession handles GET /sessions/{id}.
func (s *Server) InspectSession(w http.ResponseWriter, r *http.Request) {
	s.inspect(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (s *Server) inspect(w http.ResponseWriter, r *http.Request, id string, status int) {
	in, err := s.Narrator.Inspect(r.Context(), id)
	if err != nil {
		s.fail(w, "inspect session", err)
		return
	}
	writeJSON(w, s.logger, status, in)
}

// CloseSession handles DELETE /sessions/{id}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Narrator.CloseDocument(r.Context(), id); err != nil {
		s.fail(w, "close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExecuteCommand handles POST /sessions/{id}/commands.
func (s *Server) ExecuteCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("ExecuteCommand: invalid request body", "err", err)
		return
	}
	cmd, err := runner.SanitizeInput(body.Command)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid command: %v", err), http.StatusBadRequest)
		s.logger.Warn("ExecuteCommand: command rejected", "err", err, "size", len(body.Command))
		return
	}

	ev, err := s.event(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	notify := body.Notify == nil || *body.Notify

	ctx, presented := withCollector(r.Context())
	handled, err := s.Narrator.Execute(ctx, id, cmd, ev, notify)
	if err != nil {
		s.fail(w, "execute command", err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, CommandResponse{Handled: handled, Presentations: presented.list()})
}

func (s *Server) event(body CommandRequest) (*narrator.Event, error) {
	ev := &narrator.Event{Key: body.Key}
	if body.Focus == "" && body.Previous == "" {
		return ev, nil
	}
	if s.Resolver == nil {
		return nil, errors.New("focus events are not supported by this document")
	}
	var err error
	if body.Focus != "" {
		if ev.Focus, err = s.Resolver.Resolve(body.Focus); err != nil {
			return nil, fmt.Errorf("focus: %w", err)
		}
	}
	if body.Previous != "" {
		if ev.Previous, err = s.Resolver.Resolve(body.Previous); err != nil {
			// the node that lost focus may be gone already
			s.logger.Debug("previous focus not resolved", "node", body.Previous, "err", err)
			ev.Previous = nil
		}
	}
	return ev, nil
}

// Interrupt handles POST /sessions/{id}/interrupt.
func (s *Server) Interrupt(w http.ResponseWriter, r *http.Request) {
	var body InterruptRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	switch body.Cause {
	case domain.CauseNone, domain.CauseMoveUp, domain.CauseMoveDown, domain.CauseOther:
	default:
		http.Error(w, fmt.Sprintf("Unknown cause %q", body.Cause), http.StatusBadRequest)
		return
	}
	ok := s.Narrator.Interrupt(chi.URLParam(r, "id"), body.Cause)
	writeJSON(w, s.logger, http.StatusOK, map[string]bool{"interrupted": ok})
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: subscribed", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownCommand),
		errors.Is(err, domain.ErrNoDocument),
		errors.Is(err, narrator.ErrMissingEvent):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
