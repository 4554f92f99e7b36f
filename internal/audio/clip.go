package audio

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Clip is a finished recording ready for upload.
type Clip struct {
	Data     []byte
	MimeType string

	// Source is the path the clip was loaded from, empty for live captures.
	Source string

	Duration time.Duration
}

// Size returns the clip length in bytes.
func (c Clip) Size() int { return len(c.Data) }

// HumanSize formats the size for display, e.g. "48 kB".
func (c Clip) HumanSize() string { return humanize.Bytes(uint64(len(c.Data))) }

// Extension returns the file extension matching the clip's container.
func (c Clip) Extension() string {
	base := strings.TrimSpace(strings.SplitN(c.MimeType, ";", 2)[0])
	switch base {
	case "audio/webm", "video/webm":
		return ".webm"
	case "audio/ogg":
		return ".ogg"
	case "audio/mp4", "audio/x-m4a", "video/mp4":
		return ".m4a"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	default:
		return ".bin"
	}
}

// Filename is the name the clip is uploaded under.
func (c Clip) Filename() string { return "recording" + c.Extension() }

// BaseMimeType strips codec parameters ("audio/webm;codecs=opus" becomes
// "audio/webm").
func (c Clip) BaseMimeType() string {
	return strings.TrimSpace(strings.SplitN(c.MimeType, ";", 2)[0])
}
