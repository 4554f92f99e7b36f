package query

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCanonicalForm(t *testing.T) {
	assert.Equal(t, `["notes","work",50,0]`, K("notes", "work", 50, 0).String())
	assert.Equal(t, K("note", 1).String(), K("note", int64(1)).String())
	assert.Equal(t, K("note", 1).String(), K("note", 1.0).String())
	assert.NotEqual(t, K("note", 1).String(), K("note", "1").String())
	assert.Equal(t, `["search",null]`, K("search", nil).String())
}

func TestKeyHasPrefix(t *testing.T) {
	k := K("todos", "accepted", 50, 0)

	assert.True(t, k.HasPrefix(K()))
	assert.True(t, k.HasPrefix(K("todos")))
	assert.True(t, k.HasPrefix(K("todos", "accepted")))
	assert.False(t, k.HasPrefix(K("todo")))
	assert.False(t, k.HasPrefix(K("todos", "completed")))
	assert.False(t, K("todos").HasPrefix(k))
}

func TestParseKeyRoundTrip(t *testing.T) {
	k := K("meals", "lunch", "2026-10-01", "", 50, 0)
	parsed, err := ParseKey(k.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(k))

	_, err = ParseKey("not json")
	assert.Error(t, err)
}

func TestKeyPrefixProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("every truncation of a key is a prefix of it", prop.ForAll(
		func(parts []string, cut int) bool {
			k := make(Key, len(parts))
			for i, p := range parts {
				k[i] = p
			}
			if cut > len(k) {
				cut = len(k)
			}
			return k.HasPrefix(k[:cut])
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(0, 8),
	))

	properties.Property("parsing the canonical form yields an equal key", prop.ForAll(
		func(name string, n int) bool {
			k := K(name, n)
			parsed, err := ParseKey(k.String())
			return err == nil && parsed.Equal(k)
		},
		gen.AlphaString(),
		gen.IntRange(-1<<40, 1<<40),
	))

	properties.TestingRun(t)
}
