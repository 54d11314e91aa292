package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wrsmith108/bingo-demo/pkg/stt"
)

// ErrAllFailed is returned when every chained provider fails or has an open
// breaker.
var ErrAllFailed = errors.New("resilience: all speech providers failed")

// Failover implements [stt.Provider] across an ordered chain of backends,
// each guarded by its own [Breaker]. Streams are started against the first
// healthy backend; an existing stream is not migrated when its backend later
// degrades, only new streams route around it.
type Failover struct {
	entries []failoverEntry
	breaker BreakerConfig
}

type failoverEntry struct {
	name     string
	provider stt.Provider
	breaker  *Breaker
}

var _ stt.Provider = (*Failover)(nil)

// NewFailover creates a Failover with primary as the preferred backend.
// breaker configures every per-backend breaker; its Name is overridden.
func NewFailover(primaryName string, primary stt.Provider, breaker BreakerConfig) *Failover {
	f := &Failover{breaker: breaker}
	f.Add(primaryName, primary)
	return f
}

// Add appends a fallback backend, tried after all earlier ones.
func (f *Failover) Add(name string, provider stt.Provider) {
	cfg := f.breaker
	cfg.Name = name
	f.entries = append(f.entries, failoverEntry{
		name:     name,
		provider: provider,
		breaker:  NewBreaker(cfg),
	})
}

// StartStream opens a session on the first healthy backend. Backends with an
// open breaker are skipped; every backend failing yields [ErrAllFailed]
// wrapping the last error.
func (f *Failover) StartStream(ctx context.Context, cfg stt.StreamConfig) (stt.SessionHandle, error) {
	var lastErr error
	for i := range f.entries {
		e := &f.entries[i]

		var handle stt.SessionHandle
		err := e.breaker.Do(func() error {
			var innerErr error
			handle, innerErr = e.provider.StartStream(ctx, cfg)
			return innerErr
		})
		if err == nil {
			if i > 0 {
				slog.Info("speech stream on fallback provider", "provider", e.name)
			}
			return handle, nil
		}
		lastErr = err
		if errors.Is(err, ErrOpen) {
			slog.Debug("skipping speech provider, breaker open", "provider", e.name)
		} else {
			slog.Warn("speech provider failed, trying next", "provider", e.name, "error", err)
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
