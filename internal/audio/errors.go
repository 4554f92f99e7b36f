package audio

import "errors"

// Device error categories.
var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrNoDevice         = errors.New("no microphone found")
	ErrDeviceBusy       = errors.New("microphone is in use")
	ErrUnsupported      = errors.New("audio recording is not supported")
)

// Recorder and clip errors.
var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
	ErrEmptyClip        = errors.New("no audio captured")
	ErrClipTooShort     = errors.New("recording too short")
	ErrNotAudio         = errors.New("not an audio file")
)

// DescribeError returns the message shown to the user for a recording
// failure.
func DescribeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "Microphone access was denied. Allow microphone access and try again."
	case errors.Is(err, ErrNoDevice):
		return "No microphone was found. Connect a microphone and try again."
	case errors.Is(err, ErrDeviceBusy):
		return "The microphone is being used by another application."
	case errors.Is(err, ErrUnsupported):
		return "Audio recording is not supported on this system."
	case errors.Is(err, ErrAlreadyRecording):
		return "A recording is already in progress."
	case errors.Is(err, ErrEmptyClip):
		return "No audio was captured. Please try again."
	case errors.Is(err, ErrClipTooShort):
		return "Recording too short. Please record for at least a second."
	case errors.Is(err, ErrNotAudio):
		return "That file is not an audio recording."
	default:
		return "Could not access the microphone. Please try again."
	}
}
