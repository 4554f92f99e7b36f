package query

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationHookOrder(t *testing.T) {
	var calls []string
	m := Mutation[string, int]{
		Fn: func(_ context.Context, v string) (int, error) {
			calls = append(calls, "fn:"+v)
			return len(v), nil
		},
		OnMutate: func(v string) (any, error) {
			calls = append(calls, "mutate")
			return "ctx", nil
		},
		OnSuccess: func(r int, v string, mctx any) {
			calls = append(calls, "success")
			assert.Equal(t, 3, r)
			assert.Equal(t, "ctx", mctx)
		},
		OnError: func(error, string, any) {
			calls = append(calls, "error")
		},
		OnSettled: func(r int, err error, v string, mctx any) {
			calls = append(calls, "settled")
			assert.NoError(t, err)
		},
	}

	r, err := m.Run(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, r)
	assert.Equal(t, []string{"mutate", "fn:abc", "success", "settled"}, calls)
}

func TestMutationFailingOnMutateSkipsFn(t *testing.T) {
	var fnCalled, errCalled, settled bool
	m := Mutation[int, int]{
		Fn: func(context.Context, int) (int, error) {
			fnCalled = true
			return 0, nil
		},
		OnMutate:  func(int) (any, error) { return nil, errors.New("invalid") },
		OnError:   func(error, int, any) { errCalled = true },
		OnSettled: func(int, error, int, any) { settled = true },
	}

	_, err := m.Run(context.Background(), 1)
	assert.EqualError(t, err, "invalid")
	assert.False(t, fnCalled)
	assert.True(t, errCalled)
	assert.True(t, settled)
}

func TestMutatorState(t *testing.T) {
	release := make(chan struct{})
	mu := NewMutator(Func(func(_ context.Context, v int) (int, error) {
		<-release
		if v < 0 {
			return 0, errors.New("negative")
		}
		return v * 2, nil
	}))

	done := make(chan struct{})
	go func() {
		_, _ = mu.Mutate(context.Background(), 21)
		close(done)
	}()

	require.Eventually(t, func() bool { return mu.State().IsPending }, waitFor, time.Millisecond)
	assert.Equal(t, 21, mu.State().Variables)
	close(release)
	<-done

	st := mu.State()
	assert.False(t, st.IsPending)
	assert.Equal(t, 42, st.Data)
	assert.NoError(t, st.Err)

	_, err := mu.Mutate(context.Background(), -1)
	assert.Error(t, err)
	assert.EqualError(t, mu.State().Err, "negative")

	mu.Reset()
	assert.Equal(t, MutationState[int, int]{}, mu.State())
}

type page struct {
	Items []string
	Total int
}

func prepend(prev page, had bool, item string) page {
	items := append([]string{item}, prev.Items...)
	return page{Items: items, Total: prev.Total + 1}
}

func TestOptimisticRollbackOnFailure(t *testing.T) {
	c := New()
	defer c.Close()

	key := K("feedback", 50, 0)
	before := page{Items: []string{"b", "a"}, Total: 2}
	c.SetData(key, before)

	var seen page
	mu := Optimistic(Mutation[string, string]{
		Fn: func(_ context.Context, v string) (string, error) {
			seen, _ = GetAs[page](c, key)
			return "", errors.New("server rejected")
		},
	}, CacheOptimism(c, key, K("feedback"), prepend))

	_, err := mu.Mutate(context.Background(), "c")
	require.Error(t, err)

	assert.Equal(t, page{Items: []string{"c", "b", "a"}, Total: 3}, seen, "optimistic value visible while in flight")
	after, ok := GetAs[page](c, key)
	require.True(t, ok)
	assert.Equal(t, before, after)

	_, _, stale := peek(c, key)
	assert.True(t, stale, "settling always invalidates")
}

func TestOptimisticRollbackWithoutPriorData(t *testing.T) {
	c := New()
	defer c.Close()

	key := K("feedback", 50, 0)
	mu := Optimistic(Mutation[string, string]{
		Fn: func(context.Context, string) (string, error) {
			return "", errors.New("offline")
		},
	}, CacheOptimism(c, key, K("feedback"), prepend))

	_, err := mu.Mutate(context.Background(), "first")
	require.Error(t, err)

	_, ok := c.GetData(key)
	assert.False(t, ok)
}

func TestOptimisticSuccessRefetches(t *testing.T) {
	c := New()
	defer c.Close()

	key := K("feedback", 50, 0)
	var server atomic.Value
	server.Store(page{Items: []string{"a"}, Total: 1})

	updates := make(chan Snapshot, 8)
	o := c.Watch(key, func(context.Context) (any, error) {
		return server.Load().(page), nil
	}, Options{StaleTime: time.Hour}, settled(updates))
	defer o.Close()
	recv(t, updates)

	var innerSettled atomic.Bool
	mu := Optimistic(Mutation[string, string]{
		Fn: func(_ context.Context, v string) (string, error) {
			server.Store(page{Items: []string{v + "#server", "a"}, Total: 2})
			return v, nil
		},
		OnSettled: func(string, error, string, any) { innerSettled.Store(true) },
	}, CacheOptimism(c, key, K("feedback"), prepend))

	_, err := mu.Mutate(context.Background(), "b")
	require.NoError(t, err)
	assert.True(t, innerSettled.Load())

	require.Eventually(t, func() bool {
		p, ok := Result[page](o.Current())
		return ok && len(p.Items) == 2 && p.Items[0] == "b#server"
	}, waitFor, 5*time.Millisecond)
}

func TestOptimisticRollbackRestoresExactly(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("a failed write leaves the cache as it was", prop.ForAll(
		func(existing []string, item string) bool {
			c := New()
			defer c.Close()

			key := K("feedback", 50, 0)
			before := page{Items: existing, Total: len(existing)}
			c.SetData(key, before)

			mu := Optimistic(Mutation[string, string]{
				Fn: func(context.Context, string) (string, error) {
					return "", errors.New("rejected")
				},
			}, CacheOptimism(c, key, K("feedback"), prepend))
			_, _ = mu.Mutate(context.Background(), item)

			after, ok := GetAs[page](c, key)
			if !ok || after.Total != before.Total || len(after.Items) != len(before.Items) {
				return false
			}
			for i := range before.Items {
				if after.Items[i] != before.Items[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
