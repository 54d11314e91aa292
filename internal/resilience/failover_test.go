package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wrsmith108/bingo-demo/pkg/stt"
	"github.com/wrsmith108/bingo-demo/pkg/stt/mock"
)

func TestFailoverUsesPrimary(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{}
	fallback := &mock.Provider{}
	f := NewFailover("primary", primary, BreakerConfig{})
	f.Add("fallback", fallback)

	handle, err := f.StartStream(context.Background(), stt.StreamConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	defer handle.Close()

	if got := len(primary.Calls()); got != 1 {
		t.Fatalf("primary calls = %d, want 1", got)
	}
	if got := len(fallback.Calls()); got != 0 {
		t.Fatalf("fallback calls = %d, want 0", got)
	}
	if cfg := primary.Calls()[0].Cfg; cfg.SampleRate != 16000 || cfg.Channels != 1 {
		t.Fatalf("stream config not forwarded: %+v", cfg)
	}
}

func TestFailoverFallsBackOnError(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{StartStreamErr: errBackend}
	fallback := &mock.Provider{}
	f := NewFailover("primary", primary, BreakerConfig{})
	f.Add("fallback", fallback)

	handle, err := f.StartStream(context.Background(), stt.StreamConfig{})
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	defer handle.Close()

	if got := len(primary.Calls()); got != 1 {
		t.Fatalf("primary calls = %d, want 1", got)
	}
	if got := len(fallback.Calls()); got != 1 {
		t.Fatalf("fallback calls = %d, want 1", got)
	}
}

func TestFailoverAllFailed(t *testing.T) {
	t.Parallel()

	f := NewFailover("primary", &mock.Provider{StartStreamErr: errBackend}, BreakerConfig{})
	f.Add("fallback", &mock.Provider{StartStreamErr: errBackend})

	_, err := f.StartStream(context.Background(), stt.StreamConfig{})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("StartStream = %v, want ErrAllFailed", err)
	}
}

func TestFailoverSkipsOpenBreaker(t *testing.T) {
	t.Parallel()

	primary := &mock.Provider{StartStreamErr: errBackend}
	fallback := &mock.Provider{}
	f := NewFailover("primary", primary, BreakerConfig{Trip: 2, Cooldown: time.Minute})
	f.Add("fallback", fallback)

	for i := 0; i < 2; i++ {
		if _, err := f.StartStream(context.Background(), stt.StreamConfig{}); err != nil {
			t.Fatalf("StartStream %d: %v", i, err)
		}
	}
	if got := len(primary.Calls()); got != 2 {
		t.Fatalf("primary calls before trip = %d, want 2", got)
	}

	// Primary's breaker is now open; it must not be called again.
	if _, err := f.StartStream(context.Background(), stt.StreamConfig{}); err != nil {
		t.Fatalf("StartStream with open primary: %v", err)
	}
	if got := len(primary.Calls()); got != 2 {
		t.Fatalf("primary calls after trip = %d, want 2", got)
	}
	if got := len(fallback.Calls()); got != 3 {
		t.Fatalf("fallback calls = %d, want 3", got)
	}
}

func TestFailoverSingleProvider(t *testing.T) {
	t.Parallel()

	f := NewFailover("only", &mock.Provider{}, BreakerConfig{})

	handle, err := f.StartStream(context.Background(), stt.StreamConfig{})
	if err != nil {
		t.Fatalf("StartStream: %v", err)
	}
	handle.Close()
}
