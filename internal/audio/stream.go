// Package audio provides the microphone device abstraction shared by the
// capture pipeline and the silence monitor. A Stream fans incoming PCM
// frames out to taps; taps never own the stream and may only detach
// themselves. Release of the underlying device belongs to whoever opened
// it (the capture pipeline).
package audio

import (
	"context"
	"errors"
	"sync"
)

// Device acquisition errors. Capture surfaces these distinctly.
var (
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceUnavailable = errors.New("microphone device unavailable")
)

// Format describes PCM stream parameters.
type Format struct {
	SampleRateHz int
	Channels     int
}

// Frame is a chunk of 16-bit PCM samples.
type Frame []int16

// Device acquires a microphone stream.
type Device interface {
	Open(ctx context.Context) (*Stream, error)
}

// Stream is a live microphone stream. Device implementations feed it via
// Push; consumers attach taps. Close releases the device exactly once.
type Stream struct {
	format Format

	mu      sync.Mutex
	taps    map[int]func(Frame)
	nextTap int
	closed  bool
	release func()
}

// NewStream creates a stream with the given format. release, if non-nil,
// is invoked once on Close to free the underlying device.
func NewStream(format Format, release func()) *Stream {
	return &Stream{
		format:  format,
		taps:    make(map[int]func(Frame)),
		release: release,
	}
}

// Format returns the stream's PCM parameters.
func (s *Stream) Format() Format {
	return s.format
}

// Push delivers a frame to every attached tap. Taps run on the device's
// delivery goroutine and must be quick.
func (s *Stream) Push(frame Frame) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	taps := make([]func(Frame), 0, len(s.taps))
	for _, tap := range s.taps {
		taps = append(taps, tap)
	}
	s.mu.Unlock()

	for _, tap := range taps {
		tap(frame)
	}
}

// Tap attaches a frame consumer and returns its detach function. Detach
// is idempotent and never affects the stream or other taps.
func (s *Stream) Tap(fn func(Frame)) (detach func()) {
	s.mu.Lock()
	id := s.nextTap
	s.nextTap++
	s.taps[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.taps, id)
			s.mu.Unlock()
		})
	}
}

// Close releases the device. Idempotent. Only the component that opened
// the stream may call it.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.taps = map[int]func(Frame){}
	release := s.release
	s.mu.Unlock()

	if release != nil {
		release()
	}
}

// Closed reports whether the stream has been released.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
