package audio

import "context"

// FakeDevice is an in-memory Device for tests and credential-free dev
// runs. Frames are injected with Push on the opened stream.
type FakeDevice struct {
	// OpenErr, when set, is returned by Open (e.g. ErrPermissionDenied).
	OpenErr error
	// Format of opened streams. Zero value defaults to 16 kHz mono.
	StreamFormat Format
	// Released counts how many times an opened stream was closed.
	Released int
}

// Open returns a new fake stream, or OpenErr when configured to fail.
func (d *FakeDevice) Open(_ context.Context) (*Stream, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	format := d.StreamFormat
	if format.SampleRateHz == 0 {
		format = Format{SampleRateHz: 16000, Channels: 1}
	}
	return NewStream(format, func() { d.Released++ }), nil
}
