package imgproc

import "math"

// Canny detects edges with 3x3 Sobel gradients, L1 magnitude,
// non-maximum suppression and hysteresis between low and high.
func Canny(src *Gray, low, high float64) *Gray {
	w, h := src.W, src.H
	out := NewGray(w, h)
	if w < 3 || h < 3 {
		return out
	}
	if low > high {
		low, high = high, low
	}

	mag := make([]int32, w*h)
	gxs := make([]int32, w*h)
	gys := make([]int32, w*h)
	px := func(x, y int) int32 {
		return int32(src.Pix[reflect101(y, h)*w+reflect101(x, w)])
	}
	for y := range h {
		for x := range w {
			gx := px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1)
			gy := px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1)
			i := y*w + x
			gxs[i], gys[i] = gx, gy
			mag[i] = abs32(gx) + abs32(gy)
		}
	}

	const (
		strong = 2
		weak   = 1
	)
	tan22 := math.Tan(math.Pi / 8)
	tan67 := math.Tan(3 * math.Pi / 8)
	state := make([]uint8, w*h)
	stack := make([]int, 0, 1024)
	at := func(x, y int) int32 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	for y := range h {
		for x := range w {
			i := y*w + x
			m := mag[i]
			if float64(m) <= low {
				continue
			}
			ax, ay := math.Abs(float64(gxs[i])), math.Abs(float64(gys[i]))
			var a, b int32
			switch {
			case ay <= ax*tan22:
				a, b = at(x-1, y), at(x+1, y)
			case ay > ax*tan67:
				a, b = at(x, y-1), at(x, y+1)
			case (gxs[i] < 0) != (gys[i] < 0):
				a, b = at(x+1, y-1), at(x-1, y+1)
			default:
				a, b = at(x-1, y-1), at(x+1, y+1)
			}
			if m <= a || m < b {
				continue
			}
			if float64(m) > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.Pix[i] = 255
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == weak {
					state[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
