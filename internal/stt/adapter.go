// Package stt defines the interface for speech-to-text engines. The
// capture pipeline treats engines as opaque: it feeds audio in and
// receives transcripts through the callback.
package stt

import (
	"context"
	"errors"
)

// ErrNoSpeech is the benign engine condition reported when no speech was
// heard in the recognition window. Consumers swallow it.
var ErrNoSpeech = errors.New("no speech detected")

// Callback receives transcript results from the STT engine.
type Callback interface {
	// OnPartial is called when an interim transcript is received. The
	// text is the engine's full current hypothesis for the utterance.
	OnPartial(text string)

	// OnFinal is called when a finalized transcript chunk is received.
	OnFinal(text string, confidence float64)

	// OnError is called when an error occurs during recognition.
	OnError(err error)
}

// Adapter defines the interface for STT engines (Google, mock, ...).
type Adapter interface {
	// Start begins a streaming recognition session. Adapters are
	// restartable: Start may be called again after Close.
	Start(ctx context.Context, cb Callback) error

	// SendAudio sends PCM bytes to the engine.
	SendAudio(ctx context.Context, audio []byte) error

	// Close ends the session and releases engine resources.
	Close() error
}
