package storage

import (
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestCache_SetGetClear(t *testing.T) {
	c := NewCache[string, int](100, time.Minute, ExpireAfterWrite)

	c.Set("!gamble", 100)
	c.Set("!points", 1)

	v, ok := c.Get("!gamble")
	assert.True(t, ok)
	assert.Equal(t, 100, v)

	c.ClearKey("!gamble")
	_, ok = c.Get("!gamble")
	assert.False(t, ok)

	assert.Equal(t, map[string]int{"!points": 1}, c.All())

	c.ClearAll()
	assert.Empty(t, c.All())
	assert.Equal(t, time.Minute, c.TTL())
}

func TestCache_NoTTL(t *testing.T) {
	c := NewCache[string, bool](10, 0, ExpireAfterAccess)
	c.Set("a", true)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.True(t, v)
}
