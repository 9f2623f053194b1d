package mempool

import (
	"sync"
	"sync/atomic"
)

// Sized pools for pixel and gradient buffers on the per-frame hot path.

var (
	uint8Pools   sync.Map // key: size class (int), value: *sync.Pool
	float32Pools sync.Map // key: size class (int), value: *sync.Pool

	outstanding atomic.Int64
)

// sizeClass rounds n up to the next multiple of 1024 to reduce churn.
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	r := (n + step - 1) / step
	return r * step
}

func get[T any](pools *sync.Map, n int) []T {
	cls := sizeClass(n)
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	outstanding.Add(1)
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]T, cls)[:n]
	}
	buf, ok := p.Get().([]T)
	if !ok || cap(buf) < cls {
		buf = make([]T, cls)
	}
	return buf[:n]
}

func put[T any](pools *sync.Map, buf []T) {
	if buf == nil {
		return
	}
	outstanding.Add(-1)
	cls := sizeClass(cap(buf))
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}

// GetUint8 retrieves a []uint8 buffer of length n. Contents are undefined;
// use GetUint8Zeroed when the caller does not overwrite every element.
func GetUint8(n int) []uint8 { return get[uint8](&uint8Pools, n) }

// GetUint8Zeroed retrieves a cleared []uint8 buffer of length n.
func GetUint8Zeroed(n int) []uint8 {
	buf := GetUint8(n)
	clear(buf)
	return buf
}

// PutUint8 returns a buffer to the pool. It is safe to pass a nil slice.
func PutUint8(buf []uint8) { put(&uint8Pools, buf) }

// GetFloat32 retrieves a []float32 buffer of length n with undefined contents.
func GetFloat32(n int) []float32 { return get[float32](&float32Pools, n) }

// PutFloat32 returns a buffer to the pool. It is safe to pass a nil slice.
func PutFloat32(buf []float32) { put(&float32Pools, buf) }

// Outstanding reports buffers handed out and not yet returned.
func Outstanding() int64 { return outstanding.Load() }
