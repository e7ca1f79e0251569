package appctx

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type conn struct{ dsn string }

func TestSetGetSameReference(t *testing.T) {
	c := New()
	db := &conn{dsn: "mem"}
	require.NoError(t, c.Set("db", db))

	got, err := c.Get("db")
	require.NoError(t, err)
	assert.Same(t, db, got)

	typed, err := Value[*conn](c, "db")
	require.NoError(t, err)
	assert.Same(t, db, typed)
}

func TestGetUnset(t *testing.T) {
	c := New()
	_, err := c.Get("missing")
	assert.ErrorIs(t, err, ErrUnset)
	assert.False(t, c.Has("missing"))
	assert.Panics(t, func() { c.MustGet("missing") })
}

func TestLastWriteWins(t *testing.T) {
	c := New()
	require.NoError(t, c.Set("mode", "a"))
	require.NoError(t, c.Set("mode", "b"))
	assert.Equal(t, "b", c.MustGet("mode"))
}

func TestValueWrongType(t *testing.T) {
	c := New()
	require.NoError(t, c.Set("port", 8080))
	_, err := Value[string](c, "port")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestSetRejectsNonIdentifiers(t *testing.T) {
	c := New()
	for _, name := range []string{"", "1db", "my-db", "a b", "x.y"} {
		assert.ErrorIs(t, c.Set(name, 1), ErrInvalidName, "name %q", name)
	}
	for _, name := range []string{"db", "_private", "cache2", "Ümlaut"} {
		assert.NoError(t, c.Set(name, 1), "name %q", name)
	}
}

func TestNamesSorted(t *testing.T) {
	c := New()
	for _, n := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, c.Set(n, n))
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, c.Names())
}

func TestConcurrentWriters(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Set("counter", i)
			_ = c.Set(fmt.Sprintf("k%d", i), i)
		}(i)
	}
	wg.Wait()
	assert.True(t, c.Has("counter"))
	assert.Len(t, c.Names(), 33)
}
