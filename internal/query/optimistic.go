package query

import "context"

// Optimism is a snapshot/apply/restore protocol for optimistic writes:
// Snapshot captures the value to roll back to, Apply shows the expected
// result right away, Restore puts the snapshot back when the write fails,
// and Settle runs after every write to reconcile with the server.
type Optimism[V any] struct {
	Snapshot func() any
	Apply    func(v V)
	Restore  func(snapshot any)
	Settle   func()
}

type optimisticContext struct {
	snapshot any
	inner    any
}

// WithOptimism returns m with o wrapped around its hooks. m's own hooks
// still run and receive the context their OnMutate returned.
func WithOptimism[V, R any](m Mutation[V, R], o Optimism[V]) Mutation[V, R] {
	inner := m
	return Mutation[V, R]{
		Fn: inner.Fn,
		OnMutate: func(v V) (any, error) {
			oc := optimisticContext{}
			if o.Snapshot != nil {
				oc.snapshot = o.Snapshot()
			}
			if o.Apply != nil {
				o.Apply(v)
			}
			if inner.OnMutate != nil {
				mctx, err := inner.OnMutate(v)
				oc.inner = mctx
				if err != nil {
					return oc, err
				}
			}
			return oc, nil
		},
		OnSuccess: func(r R, v V, mctx any) {
			if inner.OnSuccess != nil {
				inner.OnSuccess(r, v, innerContext(mctx))
			}
		},
		OnError: func(err error, v V, mctx any) {
			if oc, ok := mctx.(optimisticContext); ok && o.Restore != nil {
				o.Restore(oc.snapshot)
			}
			if inner.OnError != nil {
				inner.OnError(err, v, innerContext(mctx))
			}
		},
		OnSettled: func(r R, err error, v V, mctx any) {
			if o.Settle != nil {
				o.Settle()
			}
			if inner.OnSettled != nil {
				inner.OnSettled(r, err, v, innerContext(mctx))
			}
		},
	}
}

func innerContext(mctx any) any {
	if oc, ok := mctx.(optimisticContext); ok {
		return oc.inner
	}
	return mctx
}

type cacheSnapshot struct {
	data any
	ok   bool
}

// CacheOptimism builds an Optimism against one cache key. apply derives the
// optimistic value from the current one (had is false when the key holds
// nothing). Failures restore the previous value, or remove the key when
// there was none. Settle invalidates the invalidate prefix.
func CacheOptimism[T, V any](
	c *Cache,
	key Key,
	invalidate Key,
	apply func(prev T, had bool, v V) T,
) Optimism[V] {
	return Optimism[V]{
		Snapshot: func() any {
			data, ok := c.GetData(key)
			return cacheSnapshot{data: data, ok: ok}
		},
		Apply: func(v V) {
			prev, had := GetAs[T](c, key)
			c.SetData(key, apply(prev, had, v))
		},
		Restore: func(snapshot any) {
			s, _ := snapshot.(cacheSnapshot)
			if s.ok {
				c.SetData(key, s.data)
				return
			}
			c.Remove(key)
		},
		Settle: func() {
			c.Invalidate(invalidate)
		},
	}
}

// Optimistic is shorthand for NewMutator(WithOptimism(m, o)).
func Optimistic[V, R any](m Mutation[V, R], o Optimism[V]) *Mutator[V, R] {
	return NewMutator(WithOptimism(m, o))
}

// Func adapts a plain function to a Mutation with no hooks.
func Func[V, R any](fn func(ctx context.Context, v V) (R, error)) Mutation[V, R] {
	return Mutation[V, R]{Fn: fn}
}
