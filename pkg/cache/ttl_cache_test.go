package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTTLCache_GetSet(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCache_Expiry(t *testing.T) {
	c := New[string, string](time.Minute, time.Hour)
	defer c.Close()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.SetWithTTL("short", "v", time.Second)

	now = now.Add(2 * time.Second)
	_, ok := c.Get("short")
	assert.False(t, ok, "short entry must be expired")
	_, ok = c.Get("k")
	assert.True(t, ok)

	c.evictExpired()
	assert.Equal(t, 1, c.Len())
}

func TestTTLCache_CloseIdempotent(t *testing.T) {
	c := New[int, int](time.Second, time.Millisecond)
	c.Close()
	c.Close()
}
