// Package server exposes the session orchestrator over HTTP: a JSON chat
// endpoint, memory management endpoints, a websocket chat stream, health and
// Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/contextware/memchat/llm"
	"github.com/contextware/memchat/observability"
	"github.com/contextware/memchat/session"
)

// Orchestrator is what the gateway needs from a session.
type Orchestrator interface {
	Chat(ctx context.Context, utterance string, metadata map[string]string) (string, error)
	ClearMemory(ctx context.Context, clearLongTerm bool) error
	Stats(ctx context.Context) session.Stats
}

// Server is the HTTP gateway over one session orchestrator.
type Server struct {
	orch     Orchestrator
	metrics  *observability.Metrics
	log      *logrus.Entry
	upgrader websocket.Upgrader
}

// New creates the gateway.
func New(orch Orchestrator, metrics *observability.Metrics, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		orch:    orch,
		metrics: metrics,
		log:     log.WithField("component", "server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat", s.handleChat)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Post("/v1/memory/clear", s.handleClear)
	r.Get("/v1/memory/stats", s.handleStats)

	return r
}

type chatRequest struct {
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be JSON with a non-empty 'message'"})
		return
	}

	start := time.Now()
	text, err := s.orch.Chat(r.Context(), req.Message, req.Metadata)
	if err != nil {
		s.metrics.ObserveChat("completion_error", time.Since(start))
		status, kind := completionStatus(err)
		s.log.WithError(err).Warn("chat failed")
		respondJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
		return
	}

	s.metrics.ObserveChat("ok", time.Since(start))
	respondJSON(w, http.StatusOK, chatResponse{Response: text})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LongTerm bool `json:"long_term"`
	}
	if r.Body != nil {
		// An empty body clears short-term only.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := s.orch.ClearMemory(r.Context(), req.LongTerm); err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"cleared": true, "long_term": req.LongTerm})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.orch.Stats(r.Context()))
}

// handleChatWS serves a request/response chat stream over a websocket:
// each inbound {"message": ...} frame yields one {"response": ...} or
// {"error": ...} frame.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.WithError(err).Debug("websocket read ended")
			}
			return
		}
		if req.Message == "" {
			if err := conn.WriteJSON(errorResponse{Error: "message must not be empty"}); err != nil {
				return
			}
			continue
		}

		start := time.Now()
		text, err := s.orch.Chat(r.Context(), req.Message, req.Metadata)
		if err != nil {
			s.metrics.ObserveChat("completion_error", time.Since(start))
			_, kind := completionStatus(err)
			if werr := conn.WriteJSON(errorResponse{Error: err.Error(), Kind: kind}); werr != nil {
				return
			}
			continue
		}
		s.metrics.ObserveChat("ok", time.Since(start))
		if err := conn.WriteJSON(chatResponse{Response: text}); err != nil {
			return
		}
	}
}

// completionStatus maps a chat failure to an HTTP status and error kind.
func completionStatus(err error) (int, string) {
	var cerr *llm.Error
	if !errors.As(err, &cerr) {
		return http.StatusInternalServerError, ""
	}
	switch cerr.Kind {
	case llm.KindTimeout:
		return http.StatusGatewayTimeout, cerr.Kind.String()
	case llm.KindRateLimit:
		return http.StatusTooManyRequests, cerr.Kind.String()
	case llm.KindAuth:
		return http.StatusBadGateway, cerr.Kind.String()
	default:
		return http.StatusBadGateway, cerr.Kind.String()
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
