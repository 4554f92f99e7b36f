package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FFmpegDevice records from a system input through an ffmpeg subprocess.
type FFmpegDevice struct {
	// Binary is the ffmpeg executable. Empty means "ffmpeg" on PATH.
	Binary string

	// Format is the ffmpeg input format ("pulse", "alsa", "avfoundation").
	Format string

	// Input names the capture device within Format.
	Input string

	Logger *zap.Logger
}

// NewFFmpegDevice returns a device reading format/input.
func NewFFmpegDevice(format, input string, logger *zap.Logger) *FFmpegDevice {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegDevice{Format: format, Input: input, Logger: logger}
}

// encoders maps supported MIME types to ffmpeg codec and muxer arguments.
// mp4 is absent because its muxer needs a seekable output.
var encoders = map[string][]string{
	"audio/webm;codecs=opus": {"-c:a", "libopus", "-f", "webm"},
	"audio/webm":             {"-c:a", "libopus", "-f", "webm"},
	"audio/mpeg":             {"-c:a", "libmp3lame", "-f", "mp3"},
	"audio/ogg;codecs=opus":  {"-c:a", "libopus", "-f", "ogg"},
	"audio/wav":              {"-c:a", "pcm_s16le", "-f", "wav"},
}

// IsTypeSupported implements Device.
func (d *FFmpegDevice) IsTypeSupported(mimeType string) bool {
	_, ok := encoders[mimeType]
	return ok
}

// Open implements Device. The subprocess starts with Stream.Start.
func (d *FFmpegDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	bin := d.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrUnsupported, bin)
	}

	format, input := d.Format, d.Input
	if format == "" {
		format = "pulse"
	}
	if input == "" {
		input = "default"
	}

	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ffmpegStream{
		ctx:         ctx,
		path:        path,
		format:      format,
		input:       input,
		constraints: c,
		logger:      logger,
	}, nil
}

type ffmpegStream struct {
	ctx         context.Context
	path        string
	format      string
	input       string
	constraints Constraints
	logger      *zap.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stderr  bytes.Buffer
	exited  chan struct{}
	waitErr error
	stopped bool
	release sync.Once
}

// filters translates constraints into an ffmpeg audio filter chain. ffmpeg
// has no echo canceller, so EchoCancellation is ignored.
func filters(c Constraints) string {
	var chain []string
	if c.NoiseSuppression {
		chain = append(chain, "afftdn")
	}
	if c.AutoGainControl {
		chain = append(chain, "dynaudnorm")
	}
	return strings.Join(chain, ",")
}

func (s *ffmpegStream) args(mimeType string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", s.format, "-i", s.input,
		"-ac", "1",
	}
	if f := filters(s.constraints); f != "" {
		args = append(args, "-af", f)
	}
	args = append(args, encoders[mimeType]...)
	return append(args, "pipe:1")
}

func (s *ffmpegStream) Start(mimeType string, timeslice time.Duration) (<-chan []byte, error) {
	if _, ok := encoders[mimeType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mimeType)
	}
	if timeslice <= 0 {
		timeslice = DefaultTimeslice
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil {
		return nil, ErrAlreadyRecording
	}

	cmd := exec.CommandContext(s.ctx, s.path, s.args(mimeType)...)
	cmd.Stderr = &lockedWriter{mu: &s.mu, buf: &s.stderr}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, classify(err.Error(), err)
	}
	s.cmd = cmd
	s.exited = make(chan struct{})

	out := make(chan []byte, 4)
	raw := make(chan []byte, 16)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		readChunks(stdout, raw)
	}()
	go slice(raw, out, timeslice)
	go func() {
		// Wait closes stdout, so it must not run before the tail is read.
		<-readDone
		err := cmd.Wait()
		s.mu.Lock()
		s.waitErr = err
		s.mu.Unlock()
		close(s.exited)
	}()

	s.logger.Debug("ffmpeg started",
		zap.String("format", s.format),
		zap.String("input", s.input),
		zap.String("mime_type", mimeType),
	)
	return out, nil
}

// Stop asks ffmpeg to finish the container and waits for it to exit.
func (s *ffmpegStream) Stop() error {
	s.mu.Lock()
	cmd, exited := s.cmd, s.exited
	if cmd == nil || s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	select {
	case <-exited:
		// Exited on its own, usually a device failure.
	default:
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			_ = cmd.Process.Kill()
		}
		select {
		case <-exited:
		case <-time.After(5 * time.Second):
			_ = cmd.Process.Kill()
			<-exited
		}
		return nil
	}

	s.mu.Lock()
	waitErr, stderr := s.waitErr, s.stderr.String()
	s.mu.Unlock()
	if waitErr != nil {
		return classify(stderr, waitErr)
	}
	return nil
}

func (s *ffmpegStream) Release() {
	s.release.Do(func() {
		s.mu.Lock()
		cmd, exited := s.cmd, s.exited
		s.mu.Unlock()
		if cmd == nil {
			return
		}
		select {
		case <-exited:
		default:
			_ = cmd.Process.Kill()
			<-exited
		}
	})
}

// classify maps ffmpeg diagnostics to device error categories.
func classify(stderr string, cause error) error {
	msg := strings.ToLower(stderr)
	switch {
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "access denied"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, cause)
	case strings.Contains(msg, "device or resource busy"):
		return fmt.Errorf("%w: %v", ErrDeviceBusy, cause)
	case strings.Contains(msg, "no such file or directory"),
		strings.Contains(msg, "no such device"),
		strings.Contains(msg, "connection refused"):
		return fmt.Errorf("%w: %v", ErrNoDevice, cause)
	case strings.Contains(msg, "unknown input format"),
		strings.Contains(msg, "unknown encoder"),
		strings.Contains(msg, "encoder not found"):
		return fmt.Errorf("%w: %v", ErrUnsupported, cause)
	case errors.Is(cause, exec.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrUnsupported, cause)
	}
	if s := strings.TrimSpace(stderr); s != "" {
		return fmt.Errorf("ffmpeg: %s: %w", s, cause)
	}
	return fmt.Errorf("ffmpeg: %w", cause)
}

// readChunks forwards everything read from r, closing raw at EOF.
func readChunks(r io.Reader, raw chan<- []byte) {
	defer close(raw)
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			raw <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			return
		}
	}
}

// slice groups raw reads into one chunk per timeslice, flushing the rest
// when raw closes.
func slice(raw <-chan []byte, out chan<- []byte, timeslice time.Duration) {
	defer close(out)
	ticker := time.NewTicker(timeslice)
	defer ticker.Stop()

	var pending []byte
	for {
		select {
		case b, ok := <-raw:
			if !ok {
				if len(pending) > 0 {
					out <- pending
				}
				return
			}
			pending = append(pending, b...)
		case <-ticker.C:
			if len(pending) > 0 {
				out <- pending
				pending = nil
			}
		}
	}
}

type lockedWriter struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}
