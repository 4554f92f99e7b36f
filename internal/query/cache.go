// Package query is a keyed, observable cache for server state. Reads are
// deduplicated per key, results fan out to every observer of the key, and
// mutations mark entries stale so active observers refetch.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nhle/voicenote/internal/logging"
)

const (
	// DefaultRetry is how many times a failed fetch is repeated.
	DefaultRetry = 1

	// DefaultGCTime is how long an entry without observers is kept.
	DefaultGCTime = 5 * time.Minute

	defaultRetryDelay = 500 * time.Millisecond
)

// ErrClosed is returned by reads on a closed cache.
var ErrClosed = errors.New("query cache is closed")

// FetchFunc loads the data for one key.
type FetchFunc func(ctx context.Context) (any, error)

// Options controls how an observer or read treats its key.
type Options struct {
	// Disabled suppresses fetching. Cached data is still reported.
	Disabled bool

	// StaleTime is how long data counts as fresh. Zero means data is stale
	// as soon as it lands, so every new observer revalidates.
	StaleTime time.Duration

	// RefetchInterval, when positive, refetches periodically while the
	// observer is open and enabled.
	RefetchInterval time.Duration
}

// Snapshot is the state of one key as seen by one observer.
type Snapshot struct {
	Key        Key
	Data       any
	HasData    bool
	Err        error
	IsFetching bool
	IsStale    bool
	Disabled   bool
	UpdatedAt  time.Time
}

// IsLoading reports a first load: enabled, no data and no error yet.
func (s Snapshot) IsLoading() bool {
	return !s.HasData && s.Err == nil && !s.Disabled
}

// Listener receives a snapshot whenever the observed entry changes. It is
// called without the cache lock held, possibly from a fetch goroutine.
type Listener func(Snapshot)

type entry struct {
	key  Key
	hash string

	data      any
	hasData   bool
	err       error
	updatedAt time.Time

	// gen increases on every invalidation and direct write. A fetch whose
	// generation is older than gen when it lands is superseded.
	gen         uint64
	invalidated bool

	pending    bool
	pendingGen uint64
	pendingKey string

	observers []*Observer
	gcTimer   *time.Timer
}

// Cache holds query entries. Construct one with New and pass it to the
// components that need it.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	sf      singleflight.Group
	seq     uint64
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc

	retry      int
	retryDelay time.Duration
	gcTime     time.Duration
	now        func() time.Time
	logger     *zap.Logger
	metrics    *metrics
	persister  Persister

	cronOnce sync.Once
	cron     *cron.Cron
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetry sets how many times a failed fetch is retried before the
// error is surfaced.
func WithRetry(n int) CacheOption {
	return func(c *Cache) {
		if n >= 0 {
			c.retry = n
		}
	}
}

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(d time.Duration) CacheOption {
	return func(c *Cache) { c.retryDelay = d }
}

// WithGCTime sets how long unobserved entries survive.
func WithGCTime(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.gcTime = d
		}
	}
}

// WithClock replaces time.Now for staleness bookkeeping.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithRegisterer registers the cache metrics on reg instead of a private
// registry.
func WithRegisterer(reg prometheus.Registerer) CacheOption {
	return func(c *Cache) { c.metrics = newMetrics(reg) }
}

// WithPersister saves successful payloads through p.
func WithPersister(p Persister) CacheOption {
	return func(c *Cache) { c.persister = p }
}

// New creates an empty cache.
func New(opts ...CacheOption) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		entries:    make(map[string]*entry),
		ctx:        ctx,
		cancel:     cancel,
		retry:      DefaultRetry,
		retryDelay: defaultRetryDelay,
		gcTime:     DefaultGCTime,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = newMetrics(prometheus.NewRegistry())
	}
	return c
}

// Close cancels running fetches and stops timers. Observers receive no
// further notifications.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, e := range c.entries {
		if e.gcTimer != nil {
			e.gcTimer.Stop()
		}
		e.observers = nil
	}
	c.mu.Unlock()

	c.cancel()
	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
}

// Watch subscribes to key. It fetches when the key has no data or its data
// is stale, unless opts.Disabled is set. The listener is called on every
// change until the observer is closed.
func (c *Cache) Watch(key Key, fetch FetchFunc, opts Options, l Listener) *Observer {
	o := &Observer{
		cache:    c,
		key:      key,
		hash:     key.String(),
		fetch:    fetch,
		opts:     opts,
		listener: l,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		o.closed = true
		return o
	}
	e := c.entryLocked(key)
	e.observers = append(e.observers, o)
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
	c.ensureFreshLocked(e, fetch, opts)
	c.mu.Unlock()

	o.schedule()
	return o
}

// Fetch returns the data for key, fetching it when missing or stale.
// Concurrent callers, and a fetch already started by an observer, share
// one call. Cancelling ctx abandons the wait, not the fetch.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch FetchFunc, opts Options) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e := c.entryLocked(key)
	if e.hasData && !c.isStaleLocked(e, opts.StaleTime) {
		c.metrics.hits.Inc()
		data := e.data
		c.scheduleGCLocked(e)
		c.mu.Unlock()
		return data, nil
	}
	ch := c.dispatchLocked(e, fetch)
	c.scheduleGCLocked(e)
	c.mu.Unlock()

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetData returns the cached data for key without fetching.
func (c *Cache) GetData(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// SetData writes data for key directly, marking it fresh. Fetches already
// in flight for key are superseded and their results discarded.
func (c *Cache) SetData(key Key, data any) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	e := c.entryLocked(key)
	c.writeLocked(e, data)
	c.scheduleGCLocked(e)
	calls := c.notificationsLocked(e)
	c.mu.Unlock()

	deliver(calls)
}

// UpdateData rewrites the data of every entry under prefix that has data.
// fn returns the new value and whether to store it.
func (c *Cache) UpdateData(prefix Key, fn func(key Key, data any) (any, bool)) {
	c.mu.Lock()
	var matched []*entry
	for _, e := range c.entries {
		if e.hasData && e.key.HasPrefix(prefix) {
			matched = append(matched, e)
		}
	}
	c.mu.Unlock()

	for _, e := range matched {
		c.mu.Lock()
		if c.entries[e.hash] != e || !e.hasData {
			c.mu.Unlock()
			continue
		}
		current, key := e.data, e.key
		c.mu.Unlock()

		next, ok := fn(key, current)
		if !ok {
			continue
		}

		c.mu.Lock()
		if c.entries[e.hash] != e {
			c.mu.Unlock()
			continue
		}
		c.writeLocked(e, next)
		calls := c.notificationsLocked(e)
		c.mu.Unlock()
		deliver(calls)
	}
}

// Invalidate marks every entry under prefix stale. Entries with an enabled
// observer refetch; the rest refetch on their next read. Invalidating an
// entry that is already stale and refetching is a no-op.
func (c *Cache) Invalidate(prefix Key) {
	c.mu.Lock()
	var calls []notification
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		if e.invalidated && e.pending && e.pendingGen == e.gen {
			continue
		}
		fetch := activeFetch(e)
		if e.invalidated && fetch == nil {
			continue
		}

		e.invalidated = true
		e.gen++
		c.metrics.invalidations.Inc()
		if fetch != nil {
			c.dispatchLocked(e, fetch)
		}
		calls = append(calls, c.notificationsLocked(e)...)
	}
	c.mu.Unlock()

	c.logger.Debug("invalidated", zap.String(logging.FieldKey, prefix.String()))
	deliver(calls)
}

// Remove deletes every entry under prefix. Entries still observed are reset
// to empty instead, and are not refetched.
func (c *Cache) Remove(prefix Key) {
	c.mu.Lock()
	var (
		calls   []notification
		dropped []string
	)
	for hash, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		dropped = append(dropped, hash)
		if len(e.observers) == 0 {
			if e.gcTimer != nil {
				e.gcTimer.Stop()
			}
			delete(c.entries, hash)
			continue
		}
		e.data, e.hasData, e.err = nil, false, nil
		e.updatedAt = time.Time{}
		e.gen++
		e.pending = false
		calls = append(calls, c.notificationsLocked(e)...)
	}
	c.mu.Unlock()

	if c.persister != nil {
		for _, hash := range dropped {
			if err := c.persister.Delete(hash); err != nil {
				c.logger.Warn("deleting persisted query", zap.String(logging.FieldKey, hash), zap.Error(err))
			}
		}
	}
	deliver(calls)
}

// Hydrate seeds key with previously persisted data. The entry is stale, so
// the first observer shows it immediately and revalidates. Keys that
// already hold data are left alone.
func (c *Cache) Hydrate(key Key, data json.RawMessage, updatedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	if e.hasData {
		return
	}
	e.data = data
	e.hasData = true
	e.updatedAt = updatedAt
	e.invalidated = true
	c.scheduleGCLocked(e)
}

// Restore hydrates every entry the persister holds.
func (c *Cache) Restore() (int, error) {
	if c.persister == nil {
		return 0, nil
	}
	stored, err := c.persister.Load()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range stored {
		key, err := ParseKey(s.Key)
		if err != nil {
			c.logger.Warn("skipping persisted query", zap.String(logging.FieldKey, s.Key), zap.Error(err))
			continue
		}
		c.Hydrate(key, s.Data, s.UpdatedAt)
		n++
	}
	return n, nil
}

// Len returns the number of entries, for tests and diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) entryLocked(key Key) *entry {
	hash := key.String()
	e, ok := c.entries[hash]
	if !ok {
		e = &entry{key: key, hash: hash}
		c.entries[hash] = e
	}
	return e
}

func (c *Cache) isStaleLocked(e *entry, staleTime time.Duration) bool {
	if !e.hasData || e.invalidated {
		return true
	}
	return !c.now().Before(e.updatedAt.Add(staleTime))
}

// writeLocked stores data as fresh and supersedes pending fetches.
func (c *Cache) writeLocked(e *entry, data any) {
	e.data = data
	e.hasData = true
	e.err = nil
	e.updatedAt = c.now()
	e.invalidated = false
	e.gen++
	e.pending = false
}

// ensureFreshLocked starts a fetch when opts allow and the entry needs one.
func (c *Cache) ensureFreshLocked(e *entry, fetch FetchFunc, opts Options) {
	if opts.Disabled || fetch == nil {
		return
	}
	if !c.isStaleLocked(e, opts.StaleTime) {
		c.metrics.hits.Inc()
		return
	}
	c.dispatchLocked(e, fetch)
}

// dispatchLocked starts a fetch for e's current generation, or joins the
// one already running.
func (c *Cache) dispatchLocked(e *entry, fetch FetchFunc) <-chan singleflight.Result {
	if e.pending && e.pendingGen == e.gen {
		c.metrics.joins.Inc()
		return c.sf.DoChan(e.pendingKey, func() (any, error) {
			return c.execute(e, e.gen, fetch)
		})
	}

	c.seq++
	gen := e.gen
	sfKey := e.hash + "#" + strconv.FormatUint(c.seq, 10)
	e.pending = true
	e.pendingGen = gen
	e.pendingKey = sfKey

	return c.sf.DoChan(sfKey, func() (any, error) {
		return c.execute(e, gen, fetch)
	})
}

// execute runs fetch with retries and settles the result into e.
func (c *Cache) execute(e *entry, gen uint64, fetch FetchFunc) (any, error) {
	deliver(c.notifyEntry(e))

	var (
		data any
		err  error
	)
	for attempt := 0; ; attempt++ {
		data, err = fetch(c.ctx)
		if err == nil || attempt >= c.retry || c.ctx.Err() != nil {
			break
		}
		c.metrics.retries.Inc()
		c.logger.Debug("retrying fetch",
			zap.String(logging.FieldKey, e.hash),
			zap.Int(logging.FieldAttempt, attempt+1),
			zap.Error(err),
		)
		select {
		case <-time.After(c.retryDelay):
		case <-c.ctx.Done():
		}
	}

	c.settle(e, gen, data, err)
	return data, err
}

// settle records a fetch outcome. A result superseded by a later
// invalidation or write is dropped, except that it fills an entry which
// has no data at all.
func (c *Cache) settle(e *entry, gen uint64, data any, err error) {
	c.mu.Lock()
	if c.closed || c.entries[e.hash] != e {
		c.mu.Unlock()
		return
	}
	if e.pending && e.pendingGen == gen {
		e.pending = false
	}
	superseded := gen != e.gen

	persist := false
	if err != nil {
		c.metrics.fetches.WithLabelValues("error").Inc()
		if !superseded {
			e.err = err
		}
	} else {
		c.metrics.fetches.WithLabelValues("success").Inc()
		if !superseded || !e.hasData {
			e.data = data
			e.hasData = true
			e.err = nil
			e.updatedAt = c.now()
			e.invalidated = superseded
			persist = !superseded
		}
	}
	calls := c.notificationsLocked(e)
	key := e.hash
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("fetch failed", zap.String(logging.FieldKey, key), zap.Error(err))
	}
	if persist {
		c.save(key, data)
	}
	deliver(calls)
}

func (c *Cache) save(key string, data any) {
	if c.persister == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		c.logger.Warn("encoding query for persistence", zap.String(logging.FieldKey, key), zap.Error(err))
		return
	}
	if err := c.persister.Save(key, raw, c.now()); err != nil {
		c.logger.Warn("persisting query", zap.String(logging.FieldKey, key), zap.Error(err))
	}
}

// scheduleGCLocked arms the collection timer of an unobserved entry.
func (c *Cache) scheduleGCLocked(e *entry) {
	if len(e.observers) > 0 || c.closed {
		return
	}
	if e.gcTimer != nil {
		e.gcTimer.Stop()
	}
	e.gcTimer = time.AfterFunc(c.gcTime, func() { c.collect(e) })
}

func (c *Cache) collect(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[e.hash] != e || len(e.observers) > 0 {
		return
	}
	if e.pending {
		c.scheduleGCLocked(e)
		return
	}
	delete(c.entries, e.hash)
}

// activeFetch returns the fetch function of the first enabled observer.
func activeFetch(e *entry) FetchFunc {
	for _, o := range e.observers {
		if !o.opts.Disabled && o.fetch != nil {
			return o.fetch
		}
	}
	return nil
}

type notification struct {
	listener Listener
	snapshot Snapshot
}

func (c *Cache) notifyEntry(e *entry) []notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[e.hash] != e {
		return nil
	}
	return c.notificationsLocked(e)
}

// notificationsLocked captures one snapshot per observer, in subscription
// order.
func (c *Cache) notificationsLocked(e *entry) []notification {
	if len(e.observers) == 0 {
		return nil
	}
	calls := make([]notification, 0, len(e.observers))
	for _, o := range e.observers {
		if o.listener == nil {
			continue
		}
		calls = append(calls, notification{
			listener: o.listener,
			snapshot: c.snapshotLocked(e, o.opts),
		})
	}
	return calls
}

func (c *Cache) snapshotLocked(e *entry, opts Options) Snapshot {
	return Snapshot{
		Key:        e.key,
		Data:       e.data,
		HasData:    e.hasData,
		Err:        e.err,
		IsFetching: e.pending,
		IsStale:    c.isStaleLocked(e, opts.StaleTime),
		Disabled:   opts.Disabled,
		UpdatedAt:  e.updatedAt,
	}
}

func deliver(calls []notification) {
	for _, n := range calls {
		n.listener(n.snapshot)
	}
}

func (c *Cache) scheduler() *cron.Cron {
	c.cronOnce.Do(func() {
		c.cron = cron.New()
		c.cron.Start()
	})
	return c.cron
}
