package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathIndex_Changed(t *testing.T) {
	p := NewPathIndex()

	assert.True(t, p.Changed("a.rec", "h1"), "first sighting")
	assert.False(t, p.Changed("a.rec", "h1"), "same content")
	assert.True(t, p.Changed("a.rec", "h2"), "content changed")

	h, ok := p.Get("a.rec")
	assert.True(t, ok)
	assert.Equal(t, "h2", h)
}

func TestPathIndex_DeleteAndReset(t *testing.T) {
	p := NewPathIndex()
	p.Changed("a.rec", "h1")
	p.Changed("b.rec", "h2")

	p.Delete("a.rec")
	_, ok := p.Get("a.rec")
	assert.False(t, ok)

	p.Reset()
	_, ok = p.Get("b.rec")
	assert.False(t, ok)
	assert.True(t, p.Changed("b.rec", "h2"))
}
