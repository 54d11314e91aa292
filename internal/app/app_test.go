package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wrsmith108/bingo-demo/internal/config"
	"github.com/wrsmith108/bingo-demo/internal/game"
	"github.com/wrsmith108/bingo-demo/internal/session"
	"github.com/wrsmith108/bingo-demo/internal/store/postgres"
	"github.com/wrsmith108/bingo-demo/pkg/stt/mock"
)

// fakeStore records persistence calls and serves a canned saved game.
type fakeStore struct {
	mu        sync.Mutex
	saved     []session.Snapshot
	completed []session.Snapshot
	cleared   int
	loaded    *session.Snapshot
}

func (f *fakeStore) SaveSnapshot(_ context.Context, snap session.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, snap)
	return nil
}

func (f *fakeStore) LoadSnapshot(context.Context) (session.Snapshot, bool, error) {
	if f.loaded == nil {
		return session.Snapshot{}, false, nil
	}
	return *f.loaded, true, nil
}

func (f *fakeStore) ClearSnapshot(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

func (f *fakeStore) RecordCompletedGame(_ context.Context, snap session.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, snap)
	return nil
}

func (f *fakeStore) CompletedGames(context.Context, int) ([]postgres.CompletedGame, error) {
	return nil, nil
}

func (f *fakeStore) WriteTranscript(context.Context, string, []string) error { return nil }
func (f *fakeStore) Ping(context.Context) error                              { return nil }
func (f *fakeStore) Close()                                                  {}

func (f *fakeStore) counts() (saved, completed, cleared int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved), len(f.completed), f.cleared
}

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddr: "127.0.0.1:0",
			LogLevel:   config.LogInfo,
		},
		Game: config.GameConfig{DefaultCategory: "agile"},
	}
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithSTTProvider(&mock.Provider{Session: mock.NewSession()})}, opts...)
	a, err := New(context.Background(), cfg, config.NewRegistry(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Shutdown(ctx)
	})
	return a
}

func TestNewMinimalConfig(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, baseConfig())
	if a.Controller() == nil {
		t.Fatal("Controller() = nil")
	}
	if snap := a.Controller().Snapshot(); snap.Status != session.StatusIdle {
		t.Errorf("initial status = %s, want idle", snap.Status)
	}
}

func TestStateChangesPersist(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	a := newTestApp(t, baseConfig(), WithStore(store))
	ctl := a.Controller()

	snap, err := ctl.Start("agile")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if saved, _, _ := store.counts(); saved != 1 {
		t.Errorf("saves after start = %d, want 1", saved)
	}

	// Fill a full row to win.
	for col := 0; col < game.Size; col++ {
		sq := snap.Card.Squares[0][col]
		if !sq.FreeSpace {
			ctl.FillManual(sq.ID)
		}
	}
	if ctl.Snapshot().Status != session.StatusWon {
		t.Fatal("expected a win after filling row 0")
	}
	if _, completed, _ := store.counts(); completed != 1 {
		t.Errorf("completed games recorded = %d, want 1", completed)
	}

	ctl.Reset()
	if _, _, cleared := store.counts(); cleared != 1 {
		t.Errorf("clears after reset = %d, want 1", cleared)
	}
}

func TestResumeSavedGame(t *testing.T) {
	t.Parallel()

	// Build a playing snapshot through a scratch controller, then feed it
	// into a fresh app via the store.
	scratch := newTestApp(t, baseConfig())
	snap, err := scratch.Controller().Start("agile")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap = scratch.Controller().FillManual(nonFreeSquareID(snap))

	store := &fakeStore{loaded: &snap}
	a := newTestApp(t, baseConfig(), WithStore(store))

	got := a.Controller().Snapshot()
	if got.Status != session.StatusPlaying {
		t.Fatalf("resumed status = %s, want playing", got.Status)
	}
	if got.FilledCount != snap.FilledCount {
		t.Errorf("resumed FilledCount = %d, want %d", got.FilledCount, snap.FilledCount)
	}
}

func TestHandleConfigChangeReloadsPacks(t *testing.T) {
	t.Parallel()

	packPath := filepath.Join(t.TempDir(), "pack.yaml")
	var words []string
	for i := 0; i < 24; i++ {
		words = append(words, fmt.Sprintf("    - packword%02d", i))
	}
	pack := "categories:\n  - id: custom\n    name: Custom Pack\n    words:\n" + strings.Join(words, "\n") + "\n"
	if err := os.WriteFile(packPath, []byte(pack), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}

	a := newTestApp(t, baseConfig())
	if _, err := a.categories.Get("custom"); err == nil {
		t.Fatal("custom pack registered before reload")
	}

	old := baseConfig()
	next := baseConfig()
	next.Game.CategoryPacks = []string{packPath}
	next.Game.DefaultCategory = "custom"
	a.HandleConfigChange(old, next)

	if _, err := a.categories.Get("custom"); err != nil {
		t.Errorf("custom pack not registered after reload: %v", err)
	}
	if a.cfg.Game.DefaultCategory != "custom" {
		t.Errorf("default category = %q, want custom", a.cfg.Game.DefaultCategory)
	}
}

func TestRunServesAndShutsDown(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, baseConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	// Give the listener a moment, then stop.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil on cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// nonFreeSquareID returns the first square ID that is not the free space.
func nonFreeSquareID(snap session.Snapshot) string {
	for row := 0; row < game.Size; row++ {
		for col := 0; col < game.Size; col++ {
			if sq := snap.Card.Squares[row][col]; !sq.FreeSpace {
				return sq.ID
			}
		}
	}
	return ""
}
