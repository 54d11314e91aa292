// Package stt defines the Provider interface for speech-to-text backends.
//
// An STT provider wraps a real-time transcription service (e.g., Deepgram, or
// a local whisper.cpp model) and exposes a uniform streaming interface. The
// central abstraction is SessionHandle: once opened, a session accepts raw
// PCM audio frames and emits two streams of Transcript values — low-latency
// partials for UI feedback and authoritative finals for word detection.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"errors"
	"time"
)

// ErrNotSupported is returned by optional SessionHandle operations the
// underlying provider cannot perform.
var ErrNotSupported = errors.New("stt: operation not supported by provider")

// ErrSessionClosed is returned when audio is sent to a closed session.
var ErrSessionClosed = errors.New("stt: session is closed")

// KeywordBoost is a vocabulary hint that raises recognition probability for
// a specific word or phrase, used to bias the recogniser toward the words on
// the active card.
type KeywordBoost struct {
	// Keyword is the text to boost (e.g., "synergy").
	Keyword string

	// Boost is the intensity of the boost (provider-specific scale).
	Boost float64
}

// Transcript is a speech-to-text result. Both partial (interim) and final
// transcripts use this type.
type Transcript struct {
	// Text is the transcribed speech content.
	Text string

	// IsFinal indicates whether this is a final (authoritative) or partial
	// (interim) transcript. Only finals should drive word detection.
	IsFinal bool

	// Confidence is the overall confidence score (0.0–1.0). Zero when the
	// provider does not report confidence.
	Confidence float64

	// Timestamp marks when the utterance started, relative to session start.
	Timestamp time.Duration

	// Duration is the length of the utterance.
	Duration time.Duration
}

// StreamConfig describes the audio format and recognition hints for a new
// STT session.
type StreamConfig struct {
	// SampleRate is the audio sample rate in Hz. Common values: 16000
	// (browser capture downsampled for STT), 48000 (Discord Opus decode
	// output).
	SampleRate int

	// Channels is the number of audio channels. 1 = mono (required by most
	// STT providers). Implementations may downmix stereo internally.
	Channels int

	// Language is the BCP-47 language tag for recognition (e.g., "en-US").
	// An empty string lets the provider auto-detect, if supported.
	Language string

	// Keywords lists vocabulary hints, typically the 24 words on the
	// active card plus their spoken aliases.
	Keywords []KeywordBoost
}

// SessionHandle represents an open STT streaming session. It is an interface
// so that test code can provide doubles without a live provider connection.
//
// Callers must call Close when the session is no longer needed; failing to
// do so may leak goroutines and network connections inside the provider.
// All methods must be safe for concurrent use.
type SessionHandle interface {
	// SendAudio delivers a chunk of raw PCM audio bytes for transcription.
	// The chunk must match the SampleRate, Channels, and bit depth agreed
	// in StreamConfig. Returns ErrSessionClosed after Close.
	SendAudio(chunk []byte) error

	// Partials returns a read-only channel of interim transcripts. These
	// drive the live caption display and must never be fed to word
	// detection. Closed when the session ends.
	Partials() <-chan Transcript

	// Finals returns a read-only channel of committed transcripts. These
	// are the values handed to word detection. Closed when the session
	// ends.
	Finals() <-chan Transcript

	// SetKeywords replaces the active keyword boost list without
	// restarting the session. Providers that cannot update keywords
	// mid-session return ErrNotSupported.
	SetKeywords(keywords []KeywordBoost) error

	// Close terminates the session, flushes pending audio, and releases
	// all resources. After Close returns, the Partials and Finals channels
	// are closed. Calling Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any STT backend.
type Provider interface {
	// StartStream opens a new streaming transcription session with the
	// given audio format and recognition configuration. The returned
	// SessionHandle is ready to accept audio immediately. The caller owns
	// the handle and must call Close when done.
	StartStream(ctx context.Context, cfg StreamConfig) (SessionHandle, error)
}
