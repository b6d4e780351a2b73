package detection

import (
	"image"
	"math"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is a closed outer border. Consecutive points are joined by straight
// segments and the last point joins the first.
type Contour []Point

// Chain-code directions, counterclockwise on screen starting east.
var directions = [8]Point{
	{X: 1, Y: 0},   // 0: E
	{X: 1, Y: -1},  // 1: NE
	{X: 0, Y: -1},  // 2: N
	{X: -1, Y: -1}, // 3: NW
	{X: -1, Y: 0},  // 4: W
	{X: -1, Y: 1},  // 5: SW
	{X: 0, Y: 1},   // 6: S
	{X: 1, Y: 1},   // 7: SE
}

const (
	background   int32 = 0
	outsideLabel int32 = -1
)

// grid is a label plane with a one pixel background frame around the mask, so
// that neighbour lookups never leave the slice.
type grid struct {
	width, height int // padded size
	labels        []int32
}

func (g *grid) index(x, y int) int {
	return (y+1)*g.width + (x + 1)
}

// FindExternalContours returns the outer borders of the outermost connected
// components of a binary mask.
//
// Pixels with a non-zero value are foreground. Foreground is 8-connected and
// background 4-connected, so a component lying inside a hole of another
// component is not outermost and is not returned; neither are hole borders.
// Pixels outside the mask count as background.
//
// # Algorithm
//
//  1. Label foreground components with an iterative flood fill, recording
//     the first pixel of each component in raster order.
//  2. Flood the background from the frame to find which components touch the
//     outside.
//  3. For each outermost component, follow its outer border from the raster
//     start pixel (Suzuki and Abe, 1985).
//  4. Compress horizontal, vertical and diagonal runs to their end points.
//
// Contours are returned in reverse discovery order, so the component whose
// top-left pixel comes last in raster order is first. This is the order OpenCV
// reports for RETR_EXTERNAL and keeps region numbering stable against it.
func FindExternalContours(mask *image.Gray) []Contour {
	bounds := mask.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	g := &grid{width: w + 2, height: h + 2, labels: make([]int32, (w+2)*(h+2))}

	// Seed foreground with a provisional label so the fill can tell it apart
	// from background.
	const unlabeled int32 = math.MaxInt32
	for y := 0; y < h; y++ {
		off := mask.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x, v := range mask.Pix[off : off+w] {
			if v != 0 {
				g.labels[g.index(x, y)] = unlabeled
			}
		}
	}

	var starts []Point
	next := int32(1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := g.index(x, y)
			if g.labels[i] != unlabeled {
				continue
			}
			fillComponent(g, i, unlabeled, next)
			starts = append(starts, Point{X: x, Y: y})
			next++
		}
	}
	if len(starts) == 0 {
		return nil
	}

	fillOutside(g)

	outer := make([]bool, next)
	for i, l := range g.labels {
		if l <= 0 || outer[l] {
			continue
		}
		if g.labels[i-1] == outsideLabel || g.labels[i+1] == outsideLabel ||
			g.labels[i-g.width] == outsideLabel || g.labels[i+g.width] == outsideLabel {
			outer[l] = true
		}
	}

	contours := make([]Contour, 0, len(starts))
	for n := len(starts) - 1; n >= 0; n-- {
		if !outer[n+1] {
			continue
		}
		contours = append(contours, compressChain(followBorder(g, starts[n])))
	}
	return contours
}

// fillComponent relabels the 8-connected component containing start from
// `from` to `to`. It uses an explicit stack to avoid deep recursion on large
// components.
func fillComponent(g *grid, start int, from, to int32) {
	offsets := [8]int{
		1, -1, g.width, -g.width,
		g.width + 1, g.width - 1, -g.width + 1, -g.width - 1,
	}

	stack := []int{start}
	g.labels[start] = to
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, o := range offsets {
			if n := p + o; g.labels[n] == from {
				g.labels[n] = to
				stack = append(stack, n)
			}
		}
	}
}

// fillOutside marks every background pixel 4-connected to the frame with
// outsideLabel.
func fillOutside(g *grid) {
	var stack []int
	push := func(i int) {
		if g.labels[i] == background {
			g.labels[i] = outsideLabel
			stack = append(stack, i)
		}
	}

	for x := 0; x < g.width; x++ {
		push(x)
		push((g.height-1)*g.width + x)
	}
	for y := 0; y < g.height; y++ {
		push(y * g.width)
		push(y*g.width + g.width - 1)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x := p % g.width
		if x > 0 {
			push(p - 1)
		}
		if x < g.width-1 {
			push(p + 1)
		}
		if p >= g.width {
			push(p - g.width)
		}
		if p < len(g.labels)-g.width {
			push(p + g.width)
		}
	}
}

// followBorder traces the outer border of the component whose raster-first
// pixel is start. The west neighbour of start is background by construction.
func followBorder(g *grid, start Point) []Point {
	isFg := func(p Point) bool {
		return g.labels[g.index(p.X, p.Y)] > 0
	}
	step := func(p Point, d int) Point {
		return Point{X: p.X + directions[d].X, Y: p.Y + directions[d].Y}
	}

	// Search clockwise from the west neighbour for the first foreground pixel.
	first := -1
	for k := 0; k < 8; k++ {
		d := (4 - k + 8) % 8
		if isFg(step(start, d)) {
			first = d
			break
		}
	}
	if first < 0 {
		return []Point{start}
	}

	p1 := step(start, first)
	prev, cur := p1, start
	var border []Point
	for {
		// Counterclockwise search around cur, beginning just after prev.
		back := directionOf(cur, prev)
		var nxt Point
		for k := 1; k <= 8; k++ {
			if c := step(cur, (back+k)%8); isFg(c) {
				nxt = c
				break
			}
		}

		border = append(border, cur)
		if nxt == start && cur == p1 {
			return border
		}
		prev, cur = cur, nxt
	}
}

// directionOf returns the chain code of the step from a to its neighbour b.
func directionOf(a, b Point) int {
	dx, dy := b.X-a.X, b.Y-a.Y
	for d, v := range directions {
		if v.X == dx && v.Y == dy {
			return d
		}
	}
	return 0
}

// compressChain keeps only the points where the chain changes direction. The
// starting point is always kept.
func compressChain(points []Point) Contour {
	if len(points) < 3 {
		return Contour(points)
	}

	out := Contour{points[0]}
	n := len(points)
	for i := 1; i < n; i++ {
		in := directionOf(points[i-1], points[i])
		outDir := directionOf(points[i], points[(i+1)%n])
		if in != outDir {
			out = append(out, points[i])
		}
	}
	return out
}

// ContourArea returns the area enclosed by the contour polygon using the
// shoelace formula. Vertices are pixel centres, so a single pixel or a
// one-pixel-wide line encloses zero area and a filled n x n block encloses
// (n-1)^2.
func ContourArea(c Contour) float64 {
	if len(c) < 3 {
		return 0
	}

	var sum int
	for i := range c {
		j := (i + 1) % len(c)
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// BoundingRect returns the smallest rectangle containing every contour point.
// The rectangle includes the extreme pixels, so a 20x20 block yields a 20x20
// rectangle.
func BoundingRect(c Contour) image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}

	minX, minY := c[0].X, c[0].Y
	maxX, maxY := c[0].X, c[0].Y
	for _, p := range c[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
