package audio

import (
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxFileBytes bounds imported audio files.
const MaxFileBytes = 100 << 20

// containers lists video container types that usually hold voice memos.
var containers = map[string]string{
	"video/webm": "audio/webm",
	"video/mp4":  "audio/mp4",
	"video/ogg":  "audio/ogg",
}

// LoadFile reads an audio file into a clip. The type is sniffed from the
// content, not the extension.
func LoadFile(path string) (Clip, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Clip{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return Clip{}, fmt.Errorf("%s: %w", path, ErrNotAudio)
	}
	if info.Size() == 0 {
		return Clip{}, ErrEmptyClip
	}
	if info.Size() > MaxFileBytes {
		return Clip{}, fmt.Errorf("%s is larger than %d MB", path, MaxFileBytes>>20)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Clip{}, fmt.Errorf("reading %s: %w", path, err)
	}

	mt, ok := DetectMimeType(data)
	if !ok {
		return Clip{}, fmt.Errorf("%s (%s): %w", path, mimetype.Detect(data).String(), ErrNotAudio)
	}
	return Clip{Data: data, MimeType: mt, Source: path}, nil
}

// DetectMimeType sniffs data and returns its audio MIME type.
func DetectMimeType(data []byte) (string, bool) {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		base := strings.SplitN(m.String(), ";", 2)[0]
		if strings.HasPrefix(base, "audio/") {
			return base, true
		}
		if audio, ok := containers[base]; ok {
			return audio, true
		}
	}
	return "", false
}
