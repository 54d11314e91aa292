// Package transcript connects a speech-to-text stream to the game. A
// Listener owns at most one STT session: it opens the stream with the card's
// words as keyword boosts, forwards PCM audio, keeps the latest interim
// caption for UIs, and hands every final transcript to the session
// controller for word detection.
package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wrsmith108/bingo-demo/internal/detect"
	"github.com/wrsmith108/bingo-demo/internal/game"
	"github.com/wrsmith108/bingo-demo/internal/observe"
	"github.com/wrsmith108/bingo-demo/internal/session"
	"github.com/wrsmith108/bingo-demo/pkg/stt"
)

// keywordBoost is the recognition boost applied to card words and their
// spoken aliases.
const keywordBoost = 3

// maxStreamRestarts bounds consecutive reconnects after transport drops.
// A completed final resets the count.
const maxStreamRestarts = 3

// Log receives every processed final transcript together with the words
// detection credited from it. Implemented by the postgres store; nil
// disables logging.
type Log interface {
	WriteTranscript(ctx context.Context, text string, detected []string) error
}

// Option configures a Listener.
type Option func(*Listener)

// WithMetrics wires metric recording. Defaults to none.
func WithMetrics(m *observe.Metrics) Option {
	return func(l *Listener) { l.metrics = m }
}

// WithLog persists processed finals to log.
func WithLog(log Log) Option {
	return func(l *Listener) { l.log = log }
}

// WithOnInterim registers a callback fired with every interim caption.
func WithOnInterim(fn func(string)) Option {
	return func(l *Listener) { l.onInterim = fn }
}

// WithStreamConfig overrides the audio format of new sessions. Keywords are
// always replaced with the active card's words.
func WithStreamConfig(cfg stt.StreamConfig) Option {
	return func(l *Listener) { l.streamCfg = cfg }
}

// Listener manages the lifecycle of one STT session and routes its output.
// Safe for concurrent use.
type Listener struct {
	provider  stt.Provider
	ctl       *session.Controller
	metrics   *observe.Metrics
	log       Log
	onInterim func(string)
	streamCfg stt.StreamConfig

	mu       sync.Mutex
	handle   stt.SessionHandle
	interim  string
	restarts int
	wg       sync.WaitGroup
}

// New creates a Listener routing transcripts from provider into ctl.
func New(provider stt.Provider, ctl *session.Controller, opts ...Option) *Listener {
	l := &Listener{
		provider: provider,
		ctl:      ctl,
		streamCfg: stt.StreamConfig{
			SampleRate: 16000,
			Channels:   1,
		},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Start opens an STT session for the current game. It fails when no game is
// playing or a session is already open. The card's 24 words plus their
// spoken aliases are sent as keyword boosts.
func (l *Listener) Start(ctx context.Context) error {
	snap := l.ctl.Snapshot()
	if snap.Status != session.StatusPlaying {
		return fmt.Errorf("transcript: no game in progress")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle != nil {
		return fmt.Errorf("transcript: already listening")
	}

	cfg := l.streamCfg
	cfg.Keywords = cardKeywords(snap.Card)

	handle, err := l.provider.StartStream(ctx, cfg)
	if err != nil {
		return fmt.Errorf("transcript: start stream: %w", err)
	}
	l.handle = handle
	l.interim = ""
	l.restarts = 0

	if l.metrics != nil {
		l.metrics.ActiveListeners.Add(ctx, 1)
	}
	slog.Info("listening started", "keywords", len(cfg.Keywords))

	l.wg.Add(2)
	go l.drainPartials(handle)
	go l.drainFinals(ctx, handle)
	return nil
}

// Stop closes the active STT session. Stopping an idle listener is a no-op.
func (l *Listener) Stop() {
	l.mu.Lock()
	handle := l.handle
	l.handle = nil
	l.interim = ""
	l.mu.Unlock()

	if handle == nil {
		return
	}
	if err := handle.Close(); err != nil {
		slog.Warn("transcript: close session", "error", err)
	}
	l.wg.Wait()
	if l.metrics != nil {
		l.metrics.ActiveListeners.Add(context.Background(), -1)
	}
	slog.Info("listening stopped")
}

// Listening reports whether an STT session is open.
func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle != nil
}

// Interim returns the most recent interim caption, empty when nothing is
// being spoken or the listener is stopped.
func (l *Listener) Interim() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interim
}

// SendAudio forwards a PCM chunk to the open session.
func (l *Listener) SendAudio(chunk []byte) error {
	l.mu.Lock()
	handle := l.handle
	l.mu.Unlock()

	if handle == nil {
		return stt.ErrSessionClosed
	}
	return handle.SendAudio(chunk)
}

func (l *Listener) drainPartials(handle stt.SessionHandle) {
	defer l.wg.Done()
	for t := range handle.Partials() {
		l.mu.Lock()
		l.interim = t.Text
		l.mu.Unlock()
		if l.onInterim != nil {
			l.onInterim(t.Text)
		}
	}
}

func (l *Listener) drainFinals(ctx context.Context, handle stt.SessionHandle) {
	defer l.wg.Done()
	for t := range handle.Finals() {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		l.processFinal(ctx, t.Text)
	}
	l.maybeRestart(ctx, handle)
}

// maybeRestart reopens the stream when it ended without Stop being called,
// typically a dropped websocket. Runs on the drainFinals goroutine, so the
// session the new stream replaces is already fully drained.
func (l *Listener) maybeRestart(ctx context.Context, old stt.SessionHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle != old {
		// Stop owns this shutdown.
		return
	}
	l.handle = nil
	l.interim = ""

	snap := l.ctl.Snapshot()
	if snap.Status == session.StatusPlaying && l.restarts < maxStreamRestarts {
		l.restarts++
		cfg := l.streamCfg
		cfg.Keywords = cardKeywords(snap.Card)
		handle, err := l.provider.StartStream(ctx, cfg)
		if err == nil {
			l.handle = handle
			slog.Info("listening restarted after stream drop", "attempt", l.restarts)
			l.wg.Add(2)
			go l.drainPartials(handle)
			go l.drainFinals(ctx, handle)
			return
		}
		slog.Warn("transcript: restart stream", "error", err)
	}

	if l.metrics != nil {
		l.metrics.ActiveListeners.Add(ctx, -1)
	}
	slog.Info("listening stopped", "reason", "stream closed")
}

// processFinal runs one final transcript through detection via the session
// controller, then records metrics and the transcript log entry.
func (l *Listener) processFinal(ctx context.Context, text string) {
	before := l.ctl.Snapshot()
	start := time.Now()
	after := l.ctl.ApplyTranscript(text)
	elapsed := time.Since(start)

	detected := autoFillDiff(before, after)

	if l.metrics != nil {
		l.metrics.RecordTranscript(ctx, elapsed.Seconds())
		for range detected {
			l.metrics.RecordSquareFilled(ctx, "auto")
		}
		if before.Status != session.StatusWon && after.Status == session.StatusWon && after.WinningLine != nil {
			l.metrics.RecordWin(ctx, string(after.WinningLine.Type))
		}
	}

	if l.log != nil {
		if err := l.log.WriteTranscript(ctx, text, detected); err != nil {
			slog.Warn("transcript: log write failed", "error", err)
		}
	}

	l.mu.Lock()
	l.interim = ""
	l.restarts = 0
	l.mu.Unlock()
}

// cardKeywords builds the boost list for a card: every word plus its spoken
// aliases.
func cardKeywords(card *game.Card) []stt.KeywordBoost {
	if card == nil {
		return nil
	}
	var boosts []stt.KeywordBoost
	for _, w := range card.Words {
		boosts = append(boosts, stt.KeywordBoost{Keyword: w, Boost: keywordBoost})
		for _, alias := range detect.Aliases(w) {
			boosts = append(boosts, stt.KeywordBoost{Keyword: alias, Boost: keywordBoost})
		}
	}
	return boosts
}

// autoFillDiff returns the words of squares that became speech-filled
// between two snapshots, in reading order.
func autoFillDiff(before, after session.Snapshot) []string {
	if before.Card == nil || after.Card == nil {
		return nil
	}
	var words []string
	for row := 0; row < game.Size; row++ {
		for col := 0; col < game.Size; col++ {
			b := before.Card.Squares[row][col]
			a := after.Card.Squares[row][col]
			if !b.Filled && a.Filled && a.AutoFilled {
				words = append(words, a.Word)
			}
		}
	}
	return words
}
