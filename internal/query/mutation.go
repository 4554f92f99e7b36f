package query

import (
	"context"
	"sync"
)

// Mutation describes a server write and its lifecycle hooks. The hooks run
// in order: OnMutate before Fn, then OnSuccess or OnError, then OnSettled,
// which runs whatever the outcome. OnMutate returns a context value that is
// handed to the later hooks.
type Mutation[V, R any] struct {
	Fn        func(ctx context.Context, v V) (R, error)
	OnMutate  func(v V) (any, error)
	OnSuccess func(r R, v V, mctx any)
	OnError   func(err error, v V, mctx any)
	OnSettled func(r R, err error, v V, mctx any)
}

// Run executes the mutation once. A failing OnMutate aborts before Fn but
// still runs OnError and OnSettled.
func (m Mutation[V, R]) Run(ctx context.Context, v V) (R, error) {
	var (
		result R
		mctx   any
		err    error
	)
	if m.OnMutate != nil {
		mctx, err = m.OnMutate(v)
	}
	if err == nil {
		result, err = m.Fn(ctx, v)
	}

	if err != nil {
		if m.OnError != nil {
			m.OnError(err, v, mctx)
		}
	} else if m.OnSuccess != nil {
		m.OnSuccess(result, v, mctx)
	}
	if m.OnSettled != nil {
		m.OnSettled(result, err, v, mctx)
	}
	return result, err
}

// MutationState is what a view needs to render a mutation.
type MutationState[V, R any] struct {
	IsPending bool
	Variables V
	Data      R
	Err       error
}

// Mutator runs a Mutation and tracks its latest state.
type Mutator[V, R any] struct {
	m Mutation[V, R]

	mu    sync.Mutex
	state MutationState[V, R]
	seq   int
}

// NewMutator wraps m.
func NewMutator[V, R any](m Mutation[V, R]) *Mutator[V, R] {
	return &Mutator[V, R]{m: m}
}

// Mutate runs the mutation. When calls overlap, the state reflects the
// most recent one.
func (mu *Mutator[V, R]) Mutate(ctx context.Context, v V) (R, error) {
	mu.mu.Lock()
	mu.seq++
	seq := mu.seq
	mu.state = MutationState[V, R]{IsPending: true, Variables: v}
	mu.mu.Unlock()

	r, err := mu.m.Run(ctx, v)

	mu.mu.Lock()
	if seq == mu.seq {
		mu.state = MutationState[V, R]{Variables: v, Data: r, Err: err}
	}
	mu.mu.Unlock()
	return r, err
}

// State returns the latest mutation state.
func (mu *Mutator[V, R]) State() MutationState[V, R] {
	mu.mu.Lock()
	defer mu.mu.Unlock()
	return mu.state
}

// Reset clears the state, e.g. after a form is dismissed.
func (mu *Mutator[V, R]) Reset() {
	mu.mu.Lock()
	defer mu.mu.Unlock()
	mu.seq++
	mu.state = MutationState[V, R]{}
}
