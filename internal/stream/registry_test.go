package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryAddAssignsMonotonicIDs(t *testing.T) {
	r := NewRegistry()

	a := r.Add(ChannelTicker, "KXHIGHNY-25DEC31")
	b := r.Add(ChannelTrade, "")
	c := r.Add(ChannelOrderbookDelta, "KXHIGHNY-25DEC31")

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, int64(3), c.ID)
	assert.Equal(t, 3, r.Len())
}

func TestRegistrySnapshotPreservesInsertionOrder(t *testing.T) {
	r := NewRegistry()

	a := r.Add(ChannelTicker, "A")
	b := r.Add(ChannelTrade, "B")
	c := r.Add(ChannelFill, "")

	snap := r.Snapshot()
	assert.Equal(t, []Intent{a, b, c}, snap)

	// Removing the middle intent keeps relative order of the rest.
	r.Remove(b.ID)
	snap = r.Snapshot()
	assert.Equal(t, []Intent{a, c}, snap)
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	a := r.Add(ChannelTicker, "A")

	r.Remove(a.ID)
	assert.Equal(t, 0, r.Len())

	r.Remove(a.ID)
	r.Remove(999)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryIDsNotReusedAfterRemove(t *testing.T) {
	r := NewRegistry()
	a := r.Add(ChannelTicker, "A")
	r.Remove(a.ID)

	b := r.Add(ChannelTicker, "A")
	assert.Greater(t, b.ID, a.ID)
}

func TestRegistryGetAndClear(t *testing.T) {
	r := NewRegistry()
	a := r.Add(ChannelTicker, "A")

	got, ok := r.Get(a.ID)
	assert.True(t, ok)
	assert.Equal(t, a, got)

	r.Clear()
	_, ok = r.Get(a.ID)
	assert.False(t, ok)
	assert.Empty(t, r.Snapshot())
}
