// Package capture implements the audio-capture pipeline: it acquires the
// microphone, drives a continuous speech-to-text engine, and exposes an
// incrementally-updated transcript. The capture owns the microphone
// stream and is the only component allowed to release it.
package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"ai-interview-voice-core/internal/audio"
	"ai-interview-voice-core/internal/observability/logging"
	"ai-interview-voice-core/internal/observability/metrics"
	"ai-interview-voice-core/internal/stt"
)

// Callbacks receives capture output. Callbacks run on engine/device
// goroutines and must not block.
type Callbacks struct {
	// OnTranscript delivers the merged transcript after every partial or
	// finalized recognition result.
	OnTranscript func(text string, final bool)
	// OnError delivers classified capture errors.
	OnError func(err *Error)
}

// Capture is the audio-capture pipeline for one session.
type Capture struct {
	device  audio.Device
	adapter stt.Adapter
	cb      Callbacks
	log     zerolog.Logger
	m       *metrics.Metrics

	buffer Buffer

	mu      sync.Mutex
	stream  *audio.Stream
	detach  func()
	running bool
}

// New creates a capture pipeline over the given device and STT engine.
func New(device audio.Device, adapter stt.Adapter, cb Callbacks) *Capture {
	return &Capture{
		device:  device,
		adapter: adapter,
		cb:      cb,
		log:     logging.WithComponent("capture"),
		m:       metrics.Default,
	}
}

// Start requests microphone access and begins continuous recognition.
// On permission denial the capture does not start and a permission error
// is reported. The transcript buffer is cleared for the new cycle.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	stream, err := c.device.Open(ctx)
	if err != nil {
		cerr := c.classifyOpen(err)
		c.report(cerr)
		return cerr
	}

	c.buffer.Clear()

	if err := c.adapter.Start(ctx, c); err != nil {
		// The device must be released on every exit path.
		stream.Close()
		cerr := &Error{Class: ClassRecognition, Err: err}
		c.report(cerr)
		return cerr
	}

	c.stream = stream
	c.detach = stream.Tap(func(frame audio.Frame) {
		if err := c.adapter.SendAudio(ctx, pcmBytes(frame)); err != nil {
			c.OnError(err)
		}
	})
	c.running = true

	c.m.RecordCaptureSession()
	c.log.Info().Msg("Capture started")
	return nil
}

// Stop ends recognition and releases the microphone device. Idempotent.
func (c *Capture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Capture) stopLocked() {
	if !c.running {
		return
	}
	c.running = false

	if c.detach != nil {
		c.detach()
		c.detach = nil
	}
	if err := c.adapter.Close(); err != nil {
		c.log.Warn().Err(err).Msg("Engine close failed")
	}
	// Capture owns the stream: releasing the microphone happens here and
	// nowhere else.
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
	c.log.Info().Msg("Capture stopped, microphone released")
}

// Stream exposes the live microphone stream so the silence monitor can
// attach its non-owning tap. Nil when not running.
func (c *Capture) Stream() *audio.Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}

// Buffer returns the merged transcript: trimmed(committed + pending).
func (c *Capture) Buffer() string {
	return c.buffer.Merged()
}

// Clear resets the merged transcript.
func (c *Capture) Clear() {
	c.buffer.Clear()
}

// Running reports whether a listening cycle is active.
func (c *Capture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// --- stt.Callback implementation ---

// OnPartial replaces the interim hypothesis and emits the merged view.
func (c *Capture) OnPartial(text string) {
	c.buffer.SetPending(text)
	c.m.RecordTranscript(false)
	if c.cb.OnTranscript != nil {
		c.cb.OnTranscript(c.buffer.Merged(), false)
	}
}

// OnFinal commits the chunk, clears the interim text, and emits the
// merged view.
func (c *Capture) OnFinal(text string, confidence float64) {
	c.buffer.AppendFinal(text)
	c.m.RecordTranscript(true)
	c.log.Debug().Str("text", text).Float64("confidence", confidence).Msg("Final transcript chunk")
	if c.cb.OnTranscript != nil {
		c.cb.OnTranscript(c.buffer.Merged(), true)
	}
}

// OnError classifies engine errors. "No speech" is benign and swallowed;
// device loss and everything else surface with distinct classes.
func (c *Capture) OnError(err error) {
	switch {
	case errors.Is(err, stt.ErrNoSpeech):
		c.log.Debug().Msg("No speech in recognition window, ignoring")
	case errors.Is(err, audio.ErrDeviceUnavailable):
		c.report(&Error{Class: ClassDevice, Err: err})
	default:
		c.report(&Error{Class: ClassRecognition, Err: err})
	}
}

func (c *Capture) classifyOpen(err error) *Error {
	switch {
	case errors.Is(err, audio.ErrPermissionDenied):
		return &Error{Class: ClassPermission, Err: err}
	case errors.Is(err, audio.ErrDeviceUnavailable):
		return &Error{Class: ClassDevice, Err: err}
	default:
		return &Error{Class: ClassDevice, Err: err}
	}
}

func (c *Capture) report(cerr *Error) {
	c.m.RecordCaptureError(string(cerr.Class))
	c.log.Warn().Err(cerr.Err).Str("class", string(cerr.Class)).Msg("Capture error")
	if c.cb.OnError != nil {
		c.cb.OnError(cerr)
	}
}

// pcmBytes converts samples to the little-endian byte layout STT engines
// expect for LINEAR16 audio.
func pcmBytes(frame audio.Frame) []byte {
	out := make([]byte, 2*len(frame))
	for i, s := range frame {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}
