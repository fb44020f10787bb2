// Package playback plays synthesized question audio. A Speaker wraps a
// Player and enforces the cancel-before-start discipline: a new clip
// always cancels the previous one before its own playback begins.
package playback

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"ai-interview-voice-core/internal/observability/logging"
	"ai-interview-voice-core/internal/observability/metrics"
)

// Player renders one decoded audio clip. Play blocks until the clip
// finished or ctx was cancelled, returning ctx.Err() in the latter case.
type Player interface {
	Play(ctx context.Context, audio []byte, format string) error
}

// Speaker schedules clips on a Player one at a time.
type Speaker struct {
	player Player
	log    zerolog.Logger
	m      *metrics.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	playing bool
	gen     int
}

// New creates a Speaker over the given player.
func New(player Player) *Speaker {
	return &Speaker{
		player: player,
		log:    logging.WithComponent("playback"),
		m:      metrics.Default,
	}
}

// Speak decodes base64-encoded audio and plays it asynchronously.
// Any in-flight clip is cancelled first. onDone runs only when the clip
// plays to completion, never when it is cancelled or fails.
func (s *Speaker) Speak(audioBase64, format string, onDone func()) error {
	clip, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return fmt.Errorf("decoding audio payload: %w", err)
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.m.RecordPlaybackCancelled()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.playing = true
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.m.RecordPlaybackStart()
	s.log.Debug().Int("bytes", len(clip)).Str("format", format).Msg("Playback started")

	go func() {
		err := s.player.Play(ctx, clip, format)

		s.mu.Lock()
		if s.gen != gen {
			// A newer clip took over; nothing left to report.
			s.mu.Unlock()
			return
		}
		s.playing = false
		s.cancel = nil
		s.mu.Unlock()

		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn().Err(err).Msg("Playback failed")
			}
			return
		}
		if onDone != nil {
			onDone()
		}
	}()
	return nil
}

// Cancel stops any in-flight clip. The clip's onDone will not run.
func (s *Speaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.playing = false
		s.m.RecordPlaybackCancelled()
	}
}

// Playing reports whether a clip is currently in flight.
func (s *Speaker) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}
