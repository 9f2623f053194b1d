package imgproc

import (
	"image"

	"github.com/MeKo-Tech/notescan/internal/utils"
)

// Contour is the outer boundary of one connected foreground region.
type Contour struct {
	Points []utils.Point   // boundary pixel centres, collinear runs collapsed
	Bounds image.Rectangle // pixel bounding box, Max exclusive
	Pixels int             // number of foreground pixels in the region
}

// Area returns the polygon area enclosed by the traced boundary.
func (c Contour) Area() float64 { return utils.PolygonArea(c.Points) }

// Perimeter returns the closed length of the traced boundary.
func (c Contour) Perimeter() float64 { return utils.Perimeter(c.Points) }

type compStats struct {
	count                  int
	minX, minY, maxX, maxY int
	external               bool
}

var (
	dx8 = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	dy8 = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
	dx4 = [4]int{1, -1, 0, 0}
	dy4 = [4]int{0, 0, 1, -1}
)

// FindExternalContours returns the outer boundaries of the 8-connected
// foreground regions of mask that are not nested inside a hole of another
// region.
func FindExternalContours(mask *Gray) []Contour {
	w, h := mask.W, mask.H
	if w == 0 || h == 0 {
		return nil
	}
	labels := make([]int32, w*h)
	comps := labelComponents(mask, labels)
	if len(comps) == 0 {
		return nil
	}
	markExternal(mask, labels, comps)

	out := make([]Contour, 0, len(comps))
	for i, st := range comps {
		if !st.external {
			continue
		}
		label := int32(i + 1)
		pts := traceBoundary(labels, w, h, label, st)
		out = append(out, Contour{
			Points: pts,
			Bounds: image.Rect(st.minX, st.minY, st.maxX+1, st.maxY+1),
			Pixels: st.count,
		})
	}
	return out
}

// labelComponents assigns 8-connected labels (1-based) with a BFS queue.
func labelComponents(mask *Gray, labels []int32) []compStats {
	w, h := mask.W, mask.H
	var comps []compStats
	queue := make([]int, 0, 256)
	for start := range w * h {
		if mask.Pix[start] == 0 || labels[start] != 0 {
			continue
		}
		label := int32(len(comps) + 1)
		sx, sy := start%w, start/w
		st := compStats{minX: sx, minY: sy, maxX: sx, maxY: sy}
		labels[start] = label
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			ci := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			cx, cy := ci%w, ci/w
			st.count++
			st.minX, st.minY = min(st.minX, cx), min(st.minY, cy)
			st.maxX, st.maxY = max(st.maxX, cx), max(st.maxY, cy)
			for d := range 8 {
				nx, ny := cx+dx8[d], cy+dy8[d]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				ni := ny*w + nx
				if mask.Pix[ni] != 0 && labels[ni] == 0 {
					labels[ni] = label
					queue = append(queue, ni)
				}
			}
		}
		comps = append(comps, st)
	}
	return comps
}

// markExternal flood-fills the background reachable from the image border
// and flags every region touching the border or that background.
func markExternal(mask *Gray, labels []int32, comps []compStats) {
	w, h := mask.W, mask.H
	outside := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))
	seed := func(x, y int) {
		i := y*w + x
		if mask.Pix[i] == 0 && !outside[i] {
			outside[i] = true
			queue = append(queue, i)
		} else if mask.Pix[i] != 0 {
			comps[labels[i]-1].external = true
		}
	}
	for x := range w {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := range h {
		seed(0, y)
		seed(w-1, y)
	}
	for len(queue) > 0 {
		ci := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		cx, cy := ci%w, ci/w
		for d := range 4 {
			nx, ny := cx+dx4[d], cy+dy4[d]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			ni := ny*w + nx
			if mask.Pix[ni] != 0 {
				comps[labels[ni]-1].external = true
				continue
			}
			if !outside[ni] {
				outside[ni] = true
				queue = append(queue, ni)
			}
		}
	}
}

// traceBoundary follows the region's outline with Moore-neighbour tracing,
// starting from its first pixel in raster order with the backtrack to the
// west. It stops once the start pixel is left by the same move twice.
func traceBoundary(labels []int32, w, h int, label int32, st compStats) []utils.Point {
	sx, sy := -1, -1
	for y := st.minY; y <= st.maxY && sx < 0; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			if labels[y*w+x] == label {
				sx, sy = x, y
				break
			}
		}
	}
	if sx < 0 {
		return nil
	}
	is := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == label
	}
	dirOf := func(dx, dy int) int {
		for i := range 8 {
			if dx8[i] == dx && dy8[i] == dy {
				return i
			}
		}
		return 0
	}

	pts := make([]utils.Point, 0, 64)
	add := func(x, y int) {
		p := utils.Point{X: float64(x), Y: float64(y)}
		n := len(pts)
		if n > 0 && pts[n-1] == p {
			return
		}
		if n >= 2 {
			a, b := pts[n-2], pts[n-1]
			if (b.X-a.X)*(p.Y-b.Y)-(b.Y-a.Y)*(p.X-b.X) == 0 {
				pts = pts[:n-1]
			}
		}
		pts = append(pts, p)
	}
	add(sx, sy)

	cx, cy := sx, sy
	bx, by := sx-1, sy
	firstX, firstY := -1, -1
	for steps := 0; steps < 4*st.count+8; steps++ {
		start := (dirOf(bx-cx, by-cy) + 1) % 8
		nx, ny := -1, -1
		pbx, pby := bx, by
		for k := range 8 {
			i := (start + k) % 8
			tx, ty := cx+dx8[i], cy+dy8[i]
			if is(tx, ty) {
				nx, ny = tx, ty
				break
			}
			pbx, pby = tx, ty
		}
		if nx < 0 {
			break
		}
		if firstX < 0 {
			firstX, firstY = nx, ny
		} else if cx == sx && cy == sy && nx == firstX && ny == firstY {
			break
		}
		bx, by = pbx, pby
		cx, cy = nx, ny
		add(cx, cy)
	}

	if n := len(pts); n >= 2 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	if n := len(pts); n >= 3 {
		a, b, c := pts[n-2], pts[n-1], pts[0]
		if (b.X-a.X)*(c.Y-b.Y)-(b.Y-a.Y)*(c.X-b.X) == 0 {
			pts = pts[:n-1]
		}
	}
	return pts
}
