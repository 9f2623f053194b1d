package pipeline

import (
	"runtime"

	"github.com/MeKo-Tech/notescan/internal/mempool"
)

// MemStats is a snapshot of heap usage and pooled buffers.
type MemStats struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	NumGC           uint32 `json:"num_gc"`
	Goroutines      int    `json:"goroutines"`
	PooledBuffers   int64  `json:"pooled_buffers_outstanding"`
}

// GetMemStats captures current memory statistics.
func GetMemStats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemStats{
		AllocBytes:      m.Alloc,
		TotalAllocBytes: m.TotalAlloc,
		NumGC:           m.NumGC,
		Goroutines:      runtime.NumGoroutine(),
		PooledBuffers:   mempool.Outstanding(),
	}
}
