package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	got, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, got)

	_, ok = c.Get("missing")
	require.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, string]()

	c.Set("k", "v", 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestTTLCacheZeroTTLIgnored(t *testing.T) {
	c := NewTTLCache[string, string]()

	c.Set("k", "v", 0)
	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestTTLCacheDeleteAndPurge(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	c.Delete("a")
	_, ok := c.Get("a")
	require.False(t, ok)

	c.Purge()
	_, ok = c.Get("b")
	require.False(t, ok)
}
