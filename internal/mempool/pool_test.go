package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"small size gets minimum", 1, 1024},
		{"exactly 1024", 1024, 1024},
		{"just over 1024", 1025, 2048},
		{"odd number", 1500, 2048},
		{"large size", 10000, 10240},
		{"zero size", 0, 1024},
		{"negative size", -1, 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sizeClass(tt.input))
		})
	}
}

func TestGetPutUint8(t *testing.T) {
	before := Outstanding()
	buf := GetUint8(3000)
	require.Len(t, buf, 3000)
	assert.GreaterOrEqual(t, cap(buf), 3072)
	assert.Equal(t, before+1, Outstanding())

	for i := range buf {
		buf[i] = 7
	}
	PutUint8(buf)
	assert.Equal(t, before, Outstanding())

	z := GetUint8Zeroed(3000)
	for _, v := range z {
		require.Zero(t, v)
	}
	PutUint8(z)
	PutUint8(nil)
	assert.Equal(t, before, Outstanding())
}

func TestGetPutFloat32_Concurrent(t *testing.T) {
	before := Outstanding()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				b := GetFloat32(640 * 480)
				b[0] = 1
				PutFloat32(b)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, before, Outstanding())
}
