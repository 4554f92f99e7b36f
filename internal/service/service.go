// Package service binds API endpoints to query keys. Each entity exposes
// watchable reads, blocking reads for the CLI, and mutators that keep the
// cache consistent after writes.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

// RecordingLog keeps local history of uploaded clips.
type RecordingLog interface {
	AddRecording(ctx context.Context, r model.Recording) error
	UpdateRecording(ctx context.Context, r model.Recording) error
}

// Service is the entry point for domain reads and writes.
type Service struct {
	api        *api.Client
	cache      *query.Cache
	logger     *zap.Logger
	recordings RecordingLog
	staleTime  time.Duration
	pageSize   int
	now        func() time.Time
	newID      func() string
	clientID   func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStaleTime sets how long reads treat cached data as fresh.
func WithStaleTime(d time.Duration) Option {
	return func(s *Service) { s.staleTime = d }
}

// WithPageSize sets the default list page size.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithRecordings records every upload in log.
func WithRecordings(log RecordingLog) Option {
	return func(s *Service) { s.recordings = log }
}

// WithClock replaces time.Now for provisional timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the generator of local recording ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New creates a Service.
func New(client *api.Client, cache *query.Cache, opts ...Option) *Service {
	s := &Service{
		api:       client,
		cache:     cache,
		logger:    zap.NewNop(),
		staleTime: 30 * time.Second,
		pageSize:  model.DefaultPageSize,
		now:       time.Now,
		newID:     newULID,
		clientID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache returns the shared query cache.
func (s *Service) Cache() *query.Cache { return s.cache }

// API returns the underlying client.
func (s *Service) API() *api.Client { return s.api }

// Page returns p with the service's default page size applied.
func (s *Service) Page(p model.PageParams) model.PageParams {
	if p.Limit <= 0 {
		p.Limit = s.pageSize
	}
	return p.WithDefaults()
}

func (s *Service) options(enabled bool) query.Options {
	return query.Options{Disabled: !enabled, StaleTime: s.staleTime}
}

// watch subscribes to key with a typed loader.
func watch[T any](
	s *Service,
	key query.Key,
	enabled bool,
	fn func(ctx context.Context) (T, error),
	l query.Listener,
) *query.Observer {
	return s.cache.Watch(key, query.Typed(fn), s.options(enabled), l)
}

// get reads key through the cache, fetching if needed.
func get[T any](
	ctx context.Context,
	s *Service,
	key query.Key,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	return query.FetchAs(ctx, s.cache, key, fn, s.options(true))
}

// invalidate marks every prefix stale.
func (s *Service) invalidate(prefixes ...query.Key) {
	for _, p := range prefixes {
		s.cache.Invalidate(p)
	}
}

// None is the result of mutations that return nothing.
type None struct{}
