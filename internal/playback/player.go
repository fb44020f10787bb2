package playback

import (
	"context"
	"sync"
	"time"
)

// TimedPlayer approximates playback on hosts without an audio output.
// It sleeps for the clip's estimated duration based on the encoded byte
// rate, which keeps interview pacing realistic in development runs.
type TimedPlayer struct {
	// BytesPerSecond of the incoming clips. Zero defaults to 32000
	// (16 kHz mono LINEAR16).
	BytesPerSecond int
}

func (p *TimedPlayer) Play(ctx context.Context, audio []byte, format string) error {
	rate := p.BytesPerSecond
	if rate <= 0 {
		rate = 32000
	}
	d := time.Duration(len(audio)) * time.Second / time.Duration(rate)
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FakePlayer records clips for tests. In Manual mode each Play blocks
// until Finish is called or its context is cancelled; otherwise Play
// returns immediately.
type FakePlayer struct {
	// Manual makes Play block until Finish.
	Manual bool
	// PlayErr, when set, is returned by every Play.
	PlayErr error

	mu      sync.Mutex
	clips   [][]byte
	formats []string
	release chan struct{}
}

func (p *FakePlayer) Play(ctx context.Context, audio []byte, format string) error {
	p.mu.Lock()
	p.clips = append(p.clips, audio)
	p.formats = append(p.formats, format)
	release := p.release
	if release == nil && p.Manual {
		release = make(chan struct{})
		p.release = release
	}
	p.mu.Unlock()

	if p.PlayErr != nil {
		return p.PlayErr
	}
	if !p.Manual {
		return nil
	}
	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finish unblocks the current manual Play.
func (p *FakePlayer) Finish() {
	p.mu.Lock()
	release := p.release
	p.release = nil
	p.mu.Unlock()
	if release != nil {
		close(release)
	}
}

// Clips returns the recorded clip payloads.
func (p *FakePlayer) Clips() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.clips))
	copy(out, p.clips)
	return out
}

// Formats returns the recorded clip formats.
func (p *FakePlayer) Formats() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.formats))
	copy(out, p.formats)
	return out
}
