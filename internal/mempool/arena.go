package mempool

import "sync"

// Releaser is anything holding pooled memory.
type Releaser interface {
	Release()
}

// ReleaseFunc adapts a plain function to Releaser.
type ReleaseFunc func()

// Release calls f.
func (f ReleaseFunc) Release() { f() }

// Arena collects the buffers produced while handling one frame or one scan
// and returns all of them at once. Release is idempotent.
type Arena struct {
	mu    sync.Mutex
	items []Releaser
}

// NewArena creates an empty arena.
func NewArena() *Arena { return &Arena{} }

// Add registers r for release. Nil releasers are ignored.
func (a *Arena) Add(r Releaser) {
	if a == nil || r == nil {
		return
	}
	a.mu.Lock()
	a.items = append(a.items, r)
	a.mu.Unlock()
}

// Len reports the number of pending releasers.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

// Release frees everything in reverse registration order and returns the
// number of items released.
func (a *Arena) Release() int {
	if a == nil {
		return 0
	}
	a.mu.Lock()
	items := a.items
	a.items = nil
	a.mu.Unlock()
	for i := len(items) - 1; i >= 0; i-- {
		items[i].Release()
	}
	return len(items)
}
