package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFFmpeg writes a script that ignores its arguments and prints n zero
// bytes to stdout.
func fakeFFmpeg(t *testing.T, n int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("head"); err != nil {
		t.Skip("head not available")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nexec head -c " + strconv.Itoa(n) + " /dev/zero\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestFFmpegStreamDeliversWholeOutput(t *testing.T) {
	const size = 2_000_000
	dev := &FFmpegDevice{Binary: fakeFFmpeg(t, size)}

	for i := 0; i < 10; i++ {
		s, err := dev.Open(context.Background(), DefaultConstraints())
		require.NoError(t, err)
		out, err := s.Start("audio/wav", 50*time.Millisecond)
		require.NoError(t, err)

		got := 0
		for b := range out {
			got += len(b)
		}
		assert.Equal(t, size, got, "run %d", i)
		assert.NoError(t, s.Stop(), "ffmpeg exited cleanly")
		s.Release()
	}
}
