package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/voicenote/internal/logging"
)

// Recorder defaults.
const (
	DefaultMinBytes  = 1000
	DefaultTimeslice = time.Second
)

// Recorder captures one clip at a time from a Device. Data is buffered in
// timeslice chunks and joined on Stop.
type Recorder struct {
	device      Device
	constraints Constraints
	minBytes    int
	timeslice   time.Duration
	logger      *zap.Logger
	now         func() time.Time

	mu        sync.Mutex
	recording bool
	session   *session
}

// session is one capture. Each owns its chunks so a collector that
// outlives Stop or Cancel cannot leak data into the next capture.
type session struct {
	stream   Stream
	mimeType string
	started  time.Time
	chunks   [][]byte
	done     chan struct{}
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithMinBytes sets the size below which a clip is too short.
func WithMinBytes(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.minBytes = n
		}
	}
}

// WithTimeslice sets the buffering interval.
func WithTimeslice(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.timeslice = d
		}
	}
}

// WithConstraints overrides the default input processing.
func WithConstraints(c Constraints) RecorderOption {
	return func(r *Recorder) { r.constraints = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a Recorder for device.
func NewRecorder(device Device, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		device:      device,
		constraints: DefaultConstraints(),
		minBytes:    DefaultMinBytes,
		timeslice:   DefaultTimeslice,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsRecording reports whether a capture is in progress.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Elapsed returns how long the current capture has run.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0
	}
	return r.now().Sub(r.session.started)
}

// Buffered returns the number of bytes captured so far.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return 0
	}
	n := 0
	for _, c := range r.session.chunks {
		n += len(c)
	}
	return n
}

// Start acquires the device and begins capturing.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	// Reserve the recorder while the device is opened.
	r.recording = true
	r.mu.Unlock()

	stream, mimeType, data, err := r.open(ctx)
	if err != nil {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		r.logger.Warn("starting recording", zap.Error(err))
		return err
	}

	sess := &session{
		stream:   stream,
		mimeType: mimeType,
		started:  r.now(),
		done:     make(chan struct{}),
	}
	r.mu.Lock()
	r.session = sess
	r.mu.Unlock()

	go r.collect(sess, data)

	r.logger.Debug("recording started", zap.String(logging.FieldMimeType, mimeType))
	return nil
}

func (r *Recorder) open(ctx context.Context) (Stream, string, <-chan []byte, error) {
	mimeType, err := PickMimeType(r.device)
	if err != nil {
		return nil, "", nil, err
	}
	stream, err := r.device.Open(ctx, r.constraints)
	if err != nil {
		return nil, "", nil, fmt.Errorf("opening microphone: %w", err)
	}
	data, err := stream.Start(mimeType, r.timeslice)
	if err != nil {
		stream.Release()
		return nil, "", nil, fmt.Errorf("starting capture: %w", err)
	}
	return stream, mimeType, data, nil
}

func (r *Recorder) collect(sess *session, data <-chan []byte) {
	defer close(sess.done)
	for chunk := range data {
		if len(chunk) == 0 {
			continue
		}
		r.mu.Lock()
		sess.chunks = append(sess.chunks, chunk)
		r.mu.Unlock()
	}
}

// detach takes the current session so exactly one Stop or Cancel ends it.
// The recorder stays reserved until reset.
func (r *Recorder) detach() *session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := r.session
	r.session = nil
	return sess
}

// Stop ends the capture and returns the validated clip. The device is
// released whether or not the clip is usable.
func (r *Recorder) Stop() (Clip, error) {
	sess := r.detach()
	if sess == nil {
		return Clip{}, ErrNotRecording
	}
	defer r.reset()
	defer sess.stream.Release()

	if err := sess.stream.Stop(); err != nil {
		return Clip{}, fmt.Errorf("stopping capture: %w", err)
	}
	<-sess.done

	r.mu.Lock()
	data := bytes.Join(sess.chunks, nil)
	r.mu.Unlock()

	clip := Clip{
		Data:     data,
		MimeType: sess.mimeType,
		Duration: r.now().Sub(sess.started),
	}
	if err := Validate(clip, r.minBytes); err != nil {
		r.logger.Info("discarding recording",
			zap.Int(logging.FieldBytes, clip.Size()),
			zap.Error(err),
		)
		return Clip{}, err
	}

	r.logger.Info("recording captured",
		zap.Int(logging.FieldBytes, clip.Size()),
		zap.String(logging.FieldMimeType, sess.mimeType),
		zap.Duration(logging.FieldDuration, clip.Duration),
	)
	return clip, nil
}

// Cancel discards the current capture. It blocks until the device has
// been released.
func (r *Recorder) Cancel() {
	sess := r.detach()
	if sess == nil {
		return
	}
	defer r.reset()
	_ = sess.stream.Stop()
	sess.stream.Release()
}

func (r *Recorder) reset() {
	r.mu.Lock()
	r.recording = false
	r.mu.Unlock()
}

// Validate rejects clips that must not be uploaded.
func Validate(c Clip, minBytes int) error {
	if c.Size() == 0 {
		return ErrEmptyClip
	}
	if minBytes <= 0 {
		minBytes = DefaultMinBytes
	}
	if c.Size() < minBytes {
		return ErrClipTooShort
	}
	return nil
}
