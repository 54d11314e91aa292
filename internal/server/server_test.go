package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wrsmith108/bingo-demo/internal/category"
	"github.com/wrsmith108/bingo-demo/internal/game"
	"github.com/wrsmith108/bingo-demo/internal/session"
	"github.com/wrsmith108/bingo-demo/internal/store/postgres"
	"github.com/wrsmith108/bingo-demo/internal/transcript"
	"github.com/wrsmith108/bingo-demo/pkg/stt/mock"
)

func testRegistry(t *testing.T) *category.Registry {
	t.Helper()
	reg := category.NewRegistry()
	words := make([]string, 24)
	for i := range words {
		words[i] = "word" + string(rune('a'+i))
	}
	if err := reg.Add(category.Category{ID: "testwords", Name: "Test Words", Words: words}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return reg
}

// newTestServer wires a controller, hub, and server with a mock speech
// provider. The controller's change callback feeds the hub as in production.
func newTestServer(t *testing.T, opts ...Option) (*Server, *session.Controller) {
	t.Helper()
	reg := testRegistry(t)
	hub := NewHub()
	ctl := session.New(reg, session.WithOnChange(hub.Publish))
	listener := transcript.New(&mock.Provider{Session: mock.NewSession()}, ctl)
	t.Cleanup(listener.Stop)
	opts = append([]Option{WithListener(listener)}, opts...)
	return New(ctl, reg, hub, opts...), ctl
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestCategories(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/api/categories", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	cats := decode[[]categoryInfo](t, w)
	found := false
	for _, c := range cats {
		if c.ID == "testwords" && c.Name == "Test Words" && c.WordCount == 24 {
			found = true
		}
	}
	if !found {
		t.Errorf("categories %v missing testwords", cats)
	}
}

func TestStartSession(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/session", startRequest{Category: "testwords"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body)
	}
	snap := decode[session.Snapshot](t, w)
	if snap.Status != session.StatusPlaying || snap.FilledCount != 1 {
		t.Errorf("snapshot = %s / %d filled", snap.Status, snap.FilledCount)
	}

	w = doJSON(t, h, http.MethodGet, "/api/session", nil)
	if got := decode[session.Snapshot](t, w); got.Status != session.StatusPlaying {
		t.Errorf("GET status = %s, want playing", got.Status)
	}
}

func TestStartSessionErrors(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	h := srv.Handler()

	cases := []struct {
		name string
		body any
		want int
	}{
		{"unknown category", startRequest{Category: "nope"}, http.StatusNotFound},
		{"missing category", startRequest{}, http.StatusBadRequest},
		{"malformed body", "not json", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, "/api/session", tc.body)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestToggleSquare(t *testing.T) {
	t.Parallel()

	srv, ctl := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/session/squares/0-0/toggle", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("toggle without game = %d, want 409", w.Code)
	}

	if _, err := ctl.Start("testwords"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w = doJSON(t, h, http.MethodPost, "/api/session/squares/0-0/toggle", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	snap := decode[session.Snapshot](t, w)
	if !snap.Card.Squares[0][0].Filled {
		t.Error("square 0-0 not filled after toggle")
	}

	// Unknown square IDs are a silent no-op, same as the controller.
	w = doJSON(t, h, http.MethodPost, "/api/session/squares/9-9/toggle", nil)
	if w.Code != http.StatusOK {
		t.Errorf("unknown square = %d, want 200", w.Code)
	}
}

func TestTranscriptEndpoint(t *testing.T) {
	t.Parallel()

	srv, ctl := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/session/transcript", transcriptRequest{Text: "worda"})
	if w.Code != http.StatusConflict {
		t.Errorf("transcript without game = %d, want 409", w.Code)
	}

	if _, err := ctl.Start("testwords"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w = doJSON(t, h, http.MethodPost, "/api/session/transcript", transcriptRequest{Text: "someone said worda today"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if snap := decode[session.Snapshot](t, w); snap.FilledCount != 2 {
		t.Errorf("FilledCount = %d, want 2", snap.FilledCount)
	}
}

func TestHint(t *testing.T) {
	t.Parallel()

	srv, ctl := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/api/session/hint", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("hint without game = %d, want 409", w.Code)
	}

	if _, err := ctl.Start("testwords"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w = doJSON(t, h, http.MethodGet, "/api/session/hint", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	hint := decode[session.Hint](t, w)
	if hint.Needed != 4 {
		t.Errorf("hint.Needed = %d, want 4 on a fresh card", hint.Needed)
	}
}

func TestShare(t *testing.T) {
	t.Parallel()

	srv, ctl := newTestServer(t, WithPublicURL("https://bingo.example.com"))
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/api/session/share", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("share without game = %d, want 409", w.Code)
	}

	if _, err := ctl.Start("testwords"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w = doJSON(t, h, http.MethodGet, "/api/session/share", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	share := decode[shareResponse](t, w)
	if share.Text == "" {
		t.Error("share text is empty")
	}
}

func TestResetSession(t *testing.T) {
	t.Parallel()

	srv, ctl := newTestServer(t)
	h := srv.Handler()

	if _, err := ctl.Start("testwords"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w := doJSON(t, h, http.MethodDelete, "/api/session", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if snap := decode[session.Snapshot](t, w); snap.Status != session.StatusIdle {
		t.Errorf("status after reset = %s, want idle", snap.Status)
	}
}

// fakeGameLog serves canned completed games.
type fakeGameLog struct {
	games []postgres.CompletedGame
	err   error
	limit int
}

func (f *fakeGameLog) CompletedGames(_ context.Context, limit int) ([]postgres.CompletedGame, error) {
	f.limit = limit
	return f.games, f.err
}

func TestGames(t *testing.T) {
	t.Parallel()

	log := &fakeGameLog{games: []postgres.CompletedGame{{
		CategoryID:  "testwords",
		WinningWord: "worda",
		LineType:    string(game.LineRow),
		FilledCount: 6,
	}}}
	srv, _ := newTestServer(t, WithGameLog(log))
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/api/games?limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	games := decode[[]postgres.CompletedGame](t, w)
	if len(games) != 1 || games[0].WinningWord != "worda" {
		t.Errorf("games = %+v", games)
	}
	if log.limit != 5 {
		t.Errorf("limit passed = %d, want 5", log.limit)
	}

	w = doJSON(t, h, http.MethodGet, "/api/games?limit=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d, want 400", w.Code)
	}
}

func TestGamesUnavailable(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	hub := NewHub()
	srv := New(session.New(reg), reg, hub)
	w := doJSON(t, srv.Handler(), http.MethodGet, "/api/games", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestGamesError(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, WithGameLog(&fakeGameLog{err: errors.New("connection refused")}))
	w := doJSON(t, srv.Handler(), http.MethodGet, "/api/games", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestListenLifecycle(t *testing.T) {
	t.Parallel()

	srv, ctl := newTestServer(t)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/listen/start", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("listen without game = %d, want 409", w.Code)
	}

	if _, err := ctl.Start("testwords"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w = doJSON(t, h, http.MethodPost, "/api/listen/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("listen start = %d, want 200: %s", w.Code, w.Body)
	}

	w = doJSON(t, h, http.MethodGet, "/api/listen", nil)
	if got := decode[listenStatus](t, w); !got.Listening {
		t.Error("listening = false after start")
	}

	w = doJSON(t, h, http.MethodPost, "/api/listen/stop", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("listen stop = %d, want 200", w.Code)
	}
	w = doJSON(t, h, http.MethodGet, "/api/listen", nil)
	if got := decode[listenStatus](t, w); got.Listening {
		t.Error("listening = true after stop")
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	h := srv.Handler()

	for _, path := range []string{"/healthz", "/readyz"} {
		w := doJSON(t, h, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}
}

func TestHubPublishesStateChanges(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctl := session.New(testRegistry(t), session.WithOnChange(hub.Publish))
	updates, cancel := hub.Subscribe()
	defer cancel()

	if _, err := ctl.Start("testwords"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case snap := <-updates:
		if snap.Status != session.StatusPlaying {
			t.Errorf("published status = %s, want playing", snap.Status)
		}
	case <-time.After(time.Second):
		t.Fatal("no update published after Start")
	}
}

func TestHubDropsSlowSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	updates, cancel := hub.Subscribe()
	defer cancel()

	snap := session.Snapshot{Status: session.StatusPlaying}
	for i := 0; i < subscriberBuffer*2; i++ {
		hub.Publish(snap) // must not block
	}
	if len(updates) != subscriberBuffer {
		t.Errorf("queued = %d, want %d", len(updates), subscriberBuffer)
	}

	cancel()
	cancel() // idempotent
	if hub.Len() != 0 {
		t.Errorf("Len() = %d after cancel, want 0", hub.Len())
	}
}
