package channel

import "time"

// Backoff computes exponential reconnect delays: the first attempt is
// scheduled after Base, each subsequent failure doubles the delay up to
// Max, and after MaxAttempts scheduled attempts no more are allowed.
// A successful connection must call Reset.
type Backoff struct {
	Base        time.Duration
	Max         time.Duration
	MaxAttempts int

	attempts int
	delay    time.Duration
}

// Next returns the delay for the next reconnect attempt and whether an
// attempt may still be scheduled. The returned delay never decreases
// between consecutive failures.
func (b *Backoff) Next() (time.Duration, bool) {
	if b.attempts >= b.MaxAttempts {
		return 0, false
	}
	b.attempts++

	if b.delay == 0 {
		b.delay = b.Base
	} else {
		b.delay *= 2
	}
	if b.delay > b.Max {
		b.delay = b.Max
	}
	return b.delay, true
}

// Reset restores the counter and delay to their initial values.
func (b *Backoff) Reset() {
	b.attempts = 0
	b.delay = 0
}

// Attempts returns the number of attempts scheduled since the last reset.
func (b *Backoff) Attempts() int {
	return b.attempts
}
