package discord

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"

	"github.com/wrsmith108/bingo-demo/pkg/stt"
)

// Discord voice uses 48 kHz stereo Opus at 20 ms frame size.
const (
	// VoiceSampleRate and VoiceChannels describe the PCM the receiver
	// forwards; the speech stream must be configured to match.
	VoiceSampleRate = 48000
	VoiceChannels   = 2

	opusFrameSizeMs = 20
	// opusFrameSize is the number of samples per channel per 20 ms frame.
	opusFrameSize = VoiceSampleRate * opusFrameSizeMs / 1000 // 960
)

// AudioSink receives decoded PCM from the voice channel. Implemented by the
// transcript listener.
type AudioSink interface {
	SendAudio(chunk []byte) error
}

// VoiceReceiver joins one voice channel and forwards everything spoken there
// to an AudioSink as 48 kHz stereo 16-bit PCM. Each speaker's Opus stream is
// decoded with its own decoder to keep decoder state correct across frames,
// then all streams share the sink: for bingo it only matters that a word was
// said, not who said it.
type VoiceReceiver struct {
	session *discordgo.Session
	guildID string
	sink    AudioSink

	mu        sync.Mutex
	vc        *discordgo.VoiceConnection
	done      chan struct{}
	closeOnce *sync.Once
}

// NewVoiceReceiver creates a receiver forwarding audio from guildID to sink.
func NewVoiceReceiver(session *discordgo.Session, guildID string, sink AudioSink) *VoiceReceiver {
	return &VoiceReceiver{
		session: session,
		guildID: guildID,
		sink:    sink,
	}
}

// Join connects to channelID muted and starts the receive loop. Joining
// while already connected is an error; Leave first.
func (r *VoiceReceiver) Join(channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vc != nil {
		return fmt.Errorf("discord: already in a voice channel")
	}

	vc, err := r.session.ChannelVoiceJoin(r.guildID, channelID, true, false)
	if err != nil {
		return fmt.Errorf("discord: join voice channel: %w", err)
	}

	r.vc = vc
	r.done = make(chan struct{})
	r.closeOnce = &sync.Once{}
	go r.recvLoop(vc, r.done)

	slog.Info("voice channel joined", "channel_id", channelID)
	return nil
}

// Active reports whether the receiver is connected to a voice channel.
func (r *VoiceReceiver) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vc != nil
}

// Leave disconnects from the voice channel and stops the receive loop. Safe
// to call when not connected.
func (r *VoiceReceiver) Leave() error {
	r.mu.Lock()
	vc := r.vc
	done := r.done
	once := r.closeOnce
	r.vc = nil
	r.mu.Unlock()

	if vc == nil {
		return nil
	}
	var err error
	once.Do(func() {
		close(done)
		err = vc.Disconnect()
	})
	if err != nil {
		return fmt.Errorf("discord: leave voice channel: %w", err)
	}
	slog.Info("voice channel left")
	return nil
}

// recvLoop reads Opus packets from the voice connection, decodes them per
// SSRC, and forwards the PCM to the sink until done closes or the sink's
// speech session ends.
func (r *VoiceReceiver) recvLoop(vc *discordgo.VoiceConnection, done chan struct{}) {
	decoders := make(map[uint32]*gopus.Decoder)

	for {
		select {
		case <-done:
			return
		case pkt, ok := <-vc.OpusRecv:
			if !ok {
				return
			}
			if pkt == nil {
				continue
			}

			dec, exists := decoders[pkt.SSRC]
			if !exists {
				var err error
				dec, err = gopus.NewDecoder(VoiceSampleRate, VoiceChannels)
				if err != nil {
					slog.Error("discord: failed to create opus decoder", "ssrc", pkt.SSRC, "error", err)
					continue
				}
				decoders[pkt.SSRC] = dec
			}

			pcm, err := dec.Decode(pkt.Opus, opusFrameSize, false)
			if err != nil {
				slog.Warn("discord: opus decode error", "ssrc", pkt.SSRC, "error", err)
				continue
			}

			if err := r.sink.SendAudio(int16sToBytes(pcm)); err != nil {
				if errors.Is(err, stt.ErrSessionClosed) {
					slog.Debug("discord: speech session closed, stopping voice forward")
					return
				}
				slog.Warn("discord: audio forward failed", "error", err)
			}
		}
	}
}

// int16sToBytes converts a slice of int16 PCM samples to little-endian bytes.
func int16sToBytes(pcm []int16) []byte {
	b := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}
