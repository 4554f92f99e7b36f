// Package audio captures microphone input into clips and checks them
// before upload.
package audio

import (
	"context"
	"time"
)

// Constraints are the processing options requested from the microphone.
type Constraints struct {
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
}

// DefaultConstraints enables all input processing.
func DefaultConstraints() Constraints {
	return Constraints{
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
	}
}

// Device is an audio input that can be opened for recording.
type Device interface {
	// Open acquires the input. Failures should wrap one of the device
	// error categories so DescribeError can explain them.
	Open(ctx context.Context, c Constraints) (Stream, error)

	// IsTypeSupported reports whether the device can encode mimeType.
	IsTypeSupported(mimeType string) bool
}

// Stream is an acquired input.
type Stream interface {
	// Start begins encoding. Data arrives in slices of roughly timeslice
	// length; the channel is closed once the stream stopped and the last
	// slice was delivered.
	Start(mimeType string, timeslice time.Duration) (<-chan []byte, error)

	// Stop ends encoding. It does not release the input.
	Stop() error

	// Release frees the input. It is safe to call more than once.
	Release()
}

// PreferredMimeTypes is the encoding preference, best first.
var PreferredMimeTypes = []string{
	"audio/webm;codecs=opus",
	"audio/webm",
	"audio/mp4",
	"audio/mpeg",
	"audio/ogg;codecs=opus",
	"audio/wav",
}

// PickMimeType returns the first preferred type the device supports.
func PickMimeType(d Device) (string, error) {
	for _, mt := range PreferredMimeTypes {
		if d.IsTypeSupported(mt) {
			return mt, nil
		}
	}
	return "", ErrUnsupported
}
