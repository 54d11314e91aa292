package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/wrsmith108/bingo-demo/pkg/stt"
)

// maxAudioFrame caps inbound websocket messages. 64 KiB fits over two
// seconds of 16 kHz mono PCM per frame.
const maxAudioFrame = 64 * 1024

// handleListenWS ingests raw PCM audio from a browser microphone. Binary
// frames are 16-bit little-endian PCM at the configured stream sample rate;
// text frames are ignored. The connection closes when speech capture stops
// or the game ends.
func (s *Server) handleListenWS(w http.ResponseWriter, r *http.Request) {
	if s.listener == nil {
		http.Error(w, "speech capture not configured", http.StatusServiceUnavailable)
		return
	}
	if !s.listener.Listening() {
		http.Error(w, "speech capture not started", http.StatusConflict)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxAudioFrame)

	ctx := r.Context()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				slog.Debug("audio websocket read ended", "error", err)
			}
			return
		}
		if typ != websocket.MessageBinary {
			continue
		}
		if err := s.listener.SendAudio(data); err != nil {
			if errors.Is(err, stt.ErrSessionClosed) {
				conn.Close(websocket.StatusNormalClosure, "capture stopped")
			} else {
				slog.Warn("audio forward failed", "error", err)
				conn.Close(websocket.StatusInternalError, "audio forward failed")
			}
			return
		}
	}
}
