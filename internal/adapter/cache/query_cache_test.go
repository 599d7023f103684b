package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"docrag/internal/domain"
)

func TestCachePutGet(t *testing.T) {
	c := NewQueryCache[string](4, time.Minute)
	c.Put("k", "v")

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheEvictsOldest(t *testing.T) {
	c := NewQueryCache[int](2, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry evicted")
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestCacheGetRefreshesOrder(t *testing.T) {
	c := NewQueryCache[int](2, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewQueryCache[int](4, time.Nanosecond)
	c.Put("a", 1)
	time.Sleep(time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestKeyDistinguishesRequestShape(t *testing.T) {
	base := Key("熱制御", 10, nil)
	assert.NotEqual(t, base, Key("熱制御", 5, nil))
	assert.NotEqual(t, base, Key("熱制御", 10, domain.DocFilter{"JERG-2-310"}))
	assert.NotEqual(t,
		Key("熱制御", 10, domain.DocFilter{"JERG-2-310", "JERG-2-320"}),
		Key("熱制御", 10, domain.DocFilter{"JERG-2-320", "JERG-2-310"}))
}
