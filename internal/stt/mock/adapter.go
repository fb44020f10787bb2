// Package mock provides a mock STT adapter for testing without cloud
// credentials. It simulates realistic recognition behavior: progressive
// interim transcripts followed by exactly one final per utterance.
package mock

import (
	"context"
	"sync"
	"time"

	"ai-interview-voice-core/internal/stt"
)

// SimulatedUtterance represents a mock utterance with progressive transcripts.
type SimulatedUtterance struct {
	Partials   []string // Progressive interim transcripts
	Final      string   // Final transcript text
	Confidence float64  // Confidence score for final
}

// DefaultUtterances provides sample interview answers for simulation.
var DefaultUtterances = []SimulatedUtterance{
	{
		Partials:   []string{"I led", "I led the migration", "I led the migration of our"},
		Final:      "I led the migration of our monolith to services",
		Confidence: 0.94,
	},
	{
		Partials:   []string{"My biggest", "My biggest strength is"},
		Final:      "My biggest strength is debugging under pressure",
		Confidence: 0.97,
	},
	{
		Partials:   []string{"We used", "We used a message", "We used a message queue to"},
		Final:      "We used a message queue to decouple the pipeline",
		Confidence: 0.91,
	},
	{
		Partials:   []string{"I would start", "I would start by profiling"},
		Final:      "I would start by profiling the slowest endpoint",
		Confidence: 0.89,
	},
	{
		Partials:   []string{"Thank you"},
		Final:      "Thank you for the opportunity",
		Confidence: 0.98,
	},
}

// Adapter implements stt.Adapter with mock responses:
// - one interim transcript per audio frame while the script lasts
// - exactly one final transcript once the script is exhausted
type Adapter struct {
	// Delay before each simulated callback. Zero means synchronous
	// delivery, which deterministic tests rely on.
	Latency time.Duration

	cb            stt.Callback
	mu            sync.Mutex
	audioReceived int
	utterance     SimulatedUtterance
	cycling       bool
	started       bool
	partialIndex  int
	finalSent     bool
	closed        bool
}

// utteranceCounter cycles through the default utterances across adapters.
var (
	utteranceCounter int
	counterMu        sync.Mutex
)

// New creates a new mock STT adapter.
func New() *Adapter {
	counterMu.Lock()
	idx := utteranceCounter % len(DefaultUtterances)
	utteranceCounter++
	counterMu.Unlock()

	return &Adapter{
		utterance: DefaultUtterances[idx],
		cycling:   true,
	}
}

// NewScripted creates a mock adapter with a fixed utterance.
func NewScripted(u SimulatedUtterance) *Adapter {
	return &Adapter{utterance: u}
}

// Start begins a mock recognition session. Like the real engines, an
// adapter may be restarted after Close for a fresh session; cycling
// adapters move on to the next canned utterance.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	a.mu.Lock()
	a.cb = cb
	a.closed = false
	a.partialIndex = 0
	a.finalSent = false
	a.audioReceived = 0
	if a.started && a.cycling {
		counterMu.Lock()
		idx := utteranceCounter % len(DefaultUtterances)
		utteranceCounter++
		counterMu.Unlock()
		a.utterance = DefaultUtterances[idx]
	}
	a.started = true
	a.mu.Unlock()
	return nil
}

// SendAudio simulates receiving audio and triggers progressive interim
// transcripts; when all are delivered the final is emitted once.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.cb == nil {
		return nil
	}

	a.audioReceived++

	if a.partialIndex < len(a.utterance.Partials) {
		partial := a.utterance.Partials[a.partialIndex]
		a.partialIndex++
		a.deliverLocked(func(cb stt.Callback) { cb.OnPartial(partial) })
	} else if !a.finalSent {
		a.finalSent = true
		utt := a.utterance
		a.deliverLocked(func(cb stt.Callback) { cb.OnFinal(utt.Final, utt.Confidence) })
	}

	return nil
}

// deliverLocked invokes fn either synchronously or after Latency.
// Caller holds a.mu.
func (a *Adapter) deliverLocked(fn func(stt.Callback)) {
	cb := a.cb
	if a.Latency == 0 {
		a.mu.Unlock()
		fn(cb)
		a.mu.Lock()
		return
	}
	go func() {
		time.Sleep(a.Latency)
		a.mu.Lock()
		closed := a.closed
		a.mu.Unlock()
		if !closed {
			fn(cb)
		}
	}()
}

// Close ends the mock session. If the final was not delivered yet, it is
// delivered now so a listening cycle that is cut short still finalizes.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}

	if !a.finalSent && a.cb != nil && a.partialIndex > 0 {
		a.finalSent = true
		utt := a.utterance
		a.deliverLocked(func(cb stt.Callback) { cb.OnFinal(utt.Final, utt.Confidence) })
	}
	a.closed = true

	return nil
}
