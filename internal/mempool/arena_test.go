package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArena_ReleasesInReverseOrder(t *testing.T) {
	var order []int
	a := NewArena()
	for i := range 3 {
		a.Add(ReleaseFunc(func() { order = append(order, i) }))
	}
	a.Add(nil)
	assert.Equal(t, 3, a.Len())

	assert.Equal(t, 3, a.Release())
	assert.Equal(t, []int{2, 1, 0}, order)

	assert.Zero(t, a.Release(), "second release is a no-op")
	assert.Equal(t, []int{2, 1, 0}, order)
}

func TestArena_ReturnsPooledBuffers(t *testing.T) {
	before := Outstanding()
	a := NewArena()
	for range 4 {
		buf := GetUint8(4096)
		a.Add(ReleaseFunc(func() { PutUint8(buf) }))
	}
	assert.Equal(t, before+4, Outstanding())
	a.Release()
	assert.Equal(t, before, Outstanding())
}

func TestArena_NilSafe(t *testing.T) {
	var a *Arena
	a.Add(ReleaseFunc(func() {}))
	assert.Zero(t, a.Release())
}
