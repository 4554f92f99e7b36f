package query

import (
	"github.com/robfig/cron/v3"
)

// Observer is one subscription to a key. Closing it stops notifications;
// a fetch it started keeps running and its result still lands in the
// cache.
type Observer struct {
	cache    *Cache
	key      Key
	hash     string
	fetch    FetchFunc
	opts     Options
	listener Listener

	cronID cron.EntryID
	closed bool
}

// Key returns the observed key.
func (o *Observer) Key() Key { return o.key }

// Current returns the present state of the observed key.
func (o *Observer) Current() Snapshot {
	c := o.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[o.hash]
	if !ok {
		return Snapshot{Key: o.key, Disabled: o.opts.Disabled}
	}
	return c.snapshotLocked(e, o.opts)
}

// SetOptions changes the observer's options. Enabling a disabled observer
// fetches if the key needs it.
func (o *Observer) SetOptions(opts Options) {
	c := o.cache
	c.mu.Lock()
	if o.closed {
		c.mu.Unlock()
		return
	}
	prev := o.opts
	o.opts = opts
	if e, ok := c.entries[o.hash]; ok {
		c.ensureFreshLocked(e, o.fetch, opts)
	}
	c.mu.Unlock()

	if prev.RefetchInterval != opts.RefetchInterval || prev.Disabled != opts.Disabled {
		o.unschedule()
		o.schedule()
	}
}

// Refetch fetches the key now, even if its data is fresh. It joins a
// fetch already running for the current generation.
func (o *Observer) Refetch() {
	c := o.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	if o.closed || c.closed || o.opts.Disabled || o.fetch == nil {
		return
	}
	e, ok := c.entries[o.hash]
	if !ok {
		return
	}
	c.dispatchLocked(e, o.fetch)
}

// Close unsubscribes. The entry is garbage collected once no observer
// remains for the GC time.
func (o *Observer) Close() {
	c := o.cache
	c.mu.Lock()
	if o.closed {
		c.mu.Unlock()
		return
	}
	o.closed = true
	if e, ok := c.entries[o.hash]; ok {
		for i, other := range e.observers {
			if other == o {
				e.observers = append(e.observers[:i], e.observers[i+1:]...)
				break
			}
		}
		c.scheduleGCLocked(e)
	}
	c.mu.Unlock()

	o.unschedule()
}

// schedule registers the periodic refetch job.
func (o *Observer) schedule() {
	c := o.cache
	c.mu.Lock()
	interval := o.opts.RefetchInterval
	skip := o.closed || o.opts.Disabled || interval <= 0
	c.mu.Unlock()
	if skip {
		return
	}

	id := c.scheduler().Schedule(cron.Every(interval), cron.FuncJob(o.Refetch))

	c.mu.Lock()
	o.cronID = id
	c.mu.Unlock()
}

func (o *Observer) unschedule() {
	c := o.cache
	c.mu.Lock()
	id := o.cronID
	o.cronID = 0
	c.mu.Unlock()
	if id != 0 {
		c.scheduler().Remove(id)
	}
}
