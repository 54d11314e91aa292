// Package server exposes the game over HTTP: a JSON API for session
// control, a websocket stream of game state, and a websocket ingest for raw
// microphone audio.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wrsmith108/bingo-demo/internal/category"
	"github.com/wrsmith108/bingo-demo/internal/health"
	"github.com/wrsmith108/bingo-demo/internal/observe"
	"github.com/wrsmith108/bingo-demo/internal/session"
	"github.com/wrsmith108/bingo-demo/internal/store/postgres"
	"github.com/wrsmith108/bingo-demo/internal/transcript"
)

// GameLog reads the persisted record of completed games. Implemented by the
// postgres store; nil disables the endpoint.
type GameLog interface {
	CompletedGames(ctx context.Context, limit int) ([]postgres.CompletedGame, error)
}

// Option configures a Server.
type Option func(*Server)

// WithListener wires the speech listener behind the /api/listen endpoints.
func WithListener(l *transcript.Listener) Option {
	return func(s *Server) { s.listener = l }
}

// WithGameLog enables GET /api/games.
func WithGameLog(log GameLog) Option {
	return func(s *Server) { s.games = log }
}

// WithMetrics wires request instrumentation and the /metrics endpoint.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithPublicURL sets the base URL embedded in share text.
func WithPublicURL(url string) Option {
	return func(s *Server) { s.publicURL = url }
}

// WithHealthCheckers adds readiness checks to /readyz.
func WithHealthCheckers(checkers ...health.Checker) Option {
	return func(s *Server) { s.checkers = append(s.checkers, checkers...) }
}

// Server is the HTTP front end for one game controller.
type Server struct {
	ctl        *session.Controller
	categories *category.Registry
	hub        *Hub
	listener   *transcript.Listener
	games      GameLog
	metrics    *observe.Metrics
	publicURL  string
	checkers   []health.Checker
}

// New creates a Server for ctl. The hub must be fed by the controller's
// change callback, typically session.WithOnChange(hub.Publish).
func New(ctl *session.Controller, categories *category.Registry, hub *Hub, opts ...Option) *Server {
	s := &Server{
		ctl:        ctl,
		categories: categories,
		hub:        hub,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the full route table:
//
//	GET    /api/categories                    — available word categories
//	GET    /api/session                       — current game state
//	POST   /api/session                       — start a new game
//	DELETE /api/session                       — abandon the current game
//	POST   /api/session/squares/{id}/toggle   — manually toggle a square
//	POST   /api/session/transcript            — feed a transcript line
//	GET    /api/session/hint                  — squares needed for the nearest line
//	GET    /api/session/share                 — shareable result text
//	GET    /api/session/ws                    — websocket stream of game state
//	GET    /api/games                         — completed game history
//	POST   /api/listen/start, /api/listen/stop — speech capture control
//	GET    /api/listen                        — capture status and live caption
//	GET    /api/listen/ws                     — websocket ingest for PCM audio
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/session", s.handleGetSession)
	mux.HandleFunc("POST /api/session", s.handleStartSession)
	mux.HandleFunc("DELETE /api/session", s.handleResetSession)
	mux.HandleFunc("POST /api/session/squares/{id}/toggle", s.handleToggleSquare)
	mux.HandleFunc("POST /api/session/transcript", s.handleTranscript)
	mux.HandleFunc("GET /api/session/hint", s.handleHint)
	mux.HandleFunc("GET /api/session/share", s.handleShare)
	mux.HandleFunc("GET /api/session/ws", s.handleSessionWS)
	mux.HandleFunc("GET /api/games", s.handleGames)
	mux.HandleFunc("GET /api/listen", s.handleListenStatus)
	mux.HandleFunc("POST /api/listen/start", s.handleListenStart)
	mux.HandleFunc("POST /api/listen/stop", s.handleListenStop)
	mux.HandleFunc("GET /api/listen/ws", s.handleListenWS)
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(s.checkers...).Register(mux)

	if s.metrics != nil {
		return observe.Middleware(s.metrics)(mux)
	}
	return mux
}

// categoryInfo is one entry in the categories listing.
type categoryInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	WordCount int    `json:"wordCount"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	all := s.categories.All()
	out := make([]categoryInfo, 0, len(all))
	for _, c := range all {
		out = append(out, categoryInfo{ID: c.ID, Name: c.Name, WordCount: len(c.Words)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Snapshot())
}

// startRequest is the JSON body for starting a game.
type startRequest struct {
	Category string `json:"category"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Category == "" {
		http.Error(w, "category is required", http.StatusBadRequest)
		return
	}

	snap, err := s.ctl.Start(req.Category)
	if err != nil {
		if errors.Is(err, category.ErrUnknown) {
			http.Error(w, "unknown category: "+req.Category, http.StatusNotFound)
			return
		}
		http.Error(w, "failed to start game: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Add(r.Context(), 1)
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	if s.listener != nil {
		s.listener.Stop()
	}
	wasActive := s.ctl.Snapshot().Status != session.StatusIdle
	s.ctl.Reset()
	if wasActive && s.metrics != nil {
		s.metrics.ActiveSessions.Add(r.Context(), -1)
	}
	writeJSON(w, http.StatusOK, s.ctl.Snapshot())
}

func (s *Server) handleToggleSquare(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.ctl.Snapshot().Status == session.StatusIdle {
		http.Error(w, "no game in progress", http.StatusConflict)
		return
	}
	snap := s.ctl.FillManual(id)
	writeJSON(w, http.StatusOK, snap)
}

// transcriptRequest is the JSON body for feeding a transcript line by hand,
// used by clients doing their own speech recognition.
type transcriptRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	var req transcriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if s.ctl.Snapshot().Status != session.StatusPlaying {
		http.Error(w, "no game in progress", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.ApplyTranscript(req.Text))
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	snap := s.ctl.Snapshot()
	if snap.Status != session.StatusPlaying {
		http.Error(w, "no game in progress", http.StatusConflict)
		return
	}
	hint := snap.Hint()
	if hint == nil {
		http.Error(w, "no hint available", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, hint)
}

// shareResponse wraps the plain-text game summary.
type shareResponse struct {
	Text string `json:"text"`
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	snap := s.ctl.Snapshot()
	if snap.Status == session.StatusIdle {
		http.Error(w, "no game to share", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{Text: snap.ShareText(s.publicURL)})
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	if s.games == nil {
		http.Error(w, "game history not configured", http.StatusServiceUnavailable)
		return
	}
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	games, err := s.games.CompletedGames(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to load games: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if games == nil {
		games = []postgres.CompletedGame{}
	}
	writeJSON(w, http.StatusOK, games)
}

// listenStatus reports speech capture state and the live caption.
type listenStatus struct {
	Listening bool   `json:"listening"`
	Interim   string `json:"interim,omitempty"`
}

func (s *Server) handleListenStatus(w http.ResponseWriter, r *http.Request) {
	if s.listener == nil {
		http.Error(w, "speech capture not configured", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, listenStatus{
		Listening: s.listener.Listening(),
		Interim:   s.listener.Interim(),
	})
}

func (s *Server) handleListenStart(w http.ResponseWriter, r *http.Request) {
	if s.listener == nil {
		http.Error(w, "speech capture not configured", http.StatusServiceUnavailable)
		return
	}
	if err := s.listener.Start(context.WithoutCancel(r.Context())); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, listenStatus{Listening: true})
}

func (s *Server) handleListenStop(w http.ResponseWriter, r *http.Request) {
	if s.listener == nil {
		http.Error(w, "speech capture not configured", http.StatusServiceUnavailable)
		return
	}
	s.listener.Stop()
	writeJSON(w, http.StatusOK, listenStatus{Listening: false})
}

// handleSessionWS streams game state over a websocket. The current snapshot
// is sent immediately, then every state change until the client disconnects.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	// Discard inbound frames; closes ctx when the client goes away.
	ctx := conn.CloseRead(r.Context())

	updates, cancel := s.hub.Subscribe()
	defer cancel()

	if err := wsjson.Write(ctx, conn, s.ctl.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case snap := <-updates:
			if err := wsjson.Write(ctx, conn, snap); err != nil {
				return
			}
		}
	}
}

// writeJSON writes v with the given status. Encoding failures are logged,
// not surfaced; headers are already gone by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}
