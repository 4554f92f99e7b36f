package query

import (
	"context"
	"encoding/json"
	"fmt"
)

// As converts cached data to T. Hydrated entries hold raw JSON, which is
// decoded on the way out.
func As[T any](data any) (T, bool) {
	var zero T
	switch v := data.(type) {
	case T:
		return v, true
	case *T:
		if v == nil {
			return zero, false
		}
		return *v, true
	case json.RawMessage:
		var out T
		if err := json.Unmarshal(v, &out); err != nil {
			return zero, false
		}
		return out, true
	default:
		return zero, false
	}
}

// Result returns a snapshot's data as T.
func Result[T any](s Snapshot) (T, bool) {
	if !s.HasData {
		var zero T
		return zero, false
	}
	return As[T](s.Data)
}

// GetAs returns cached data for key as T without fetching.
func GetAs[T any](c *Cache, key Key) (T, bool) {
	data, ok := c.GetData(key)
	if !ok {
		var zero T
		return zero, false
	}
	return As[T](data)
}

// Typed adapts a typed loader to a FetchFunc.
func Typed[T any](fn func(ctx context.Context) (T, error)) FetchFunc {
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}

// FetchAs is Fetch with a typed loader and result.
func FetchAs[T any](
	ctx context.Context,
	c *Cache,
	key Key,
	fn func(ctx context.Context) (T, error),
	opts Options,
) (T, error) {
	var zero T
	data, err := c.Fetch(ctx, key, Typed(fn), opts)
	if err != nil {
		return zero, err
	}
	out, ok := As[T](data)
	if !ok {
		return zero, fmt.Errorf("query %s holds %T, not the requested type", key, data)
	}
	return out, nil
}
