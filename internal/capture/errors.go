package capture

import "fmt"

// Class partitions capture failures the way the presentation layer needs
// to tell them apart.
type Class string

const (
	// ClassPermission: microphone access denied; capture never started.
	ClassPermission Class = "permission"
	// ClassDevice: the microphone is or became unavailable.
	ClassDevice Class = "device"
	// ClassRecognition: any other engine-reported failure.
	ClassRecognition Class = "recognition"
)

// Error wraps a capture failure with its class. Benign "no speech"
// engine conditions are swallowed and never produce an Error.
type Error struct {
	Class Class
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("capture %s error: %v", e.Class, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
