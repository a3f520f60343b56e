package quarkgl

import "quarktrail/vmath"

// nearW is the smallest clip-space w accepted; vertices closer to or behind
// the eye are dropped with their primitive.
const nearW = 1e-4

type screenPoint struct {
	X, Y float32
	Z    float32 // NDC depth in [-1, 1]
}

func (d *Device) project(p vmath.Vec4) (screenPoint, bool) {
	if p.W <= nearW {
		return screenPoint{}, false
	}
	inv := 1 / p.W
	x, y, z := p.X*inv, p.Y*inv, p.Z*inv
	return screenPoint{
		X: (x*0.5 + 0.5) * float32(d.w-1),
		Y: (1 - (y*0.5 + 0.5)) * float32(d.h-1),
		Z: z,
	}, true
}

func (d *Device) clearDepth() {
	for i := range d.depthBuf {
		d.depthBuf[i] = 1e9
	}
}

func (d *Device) depthTest(x, y int, z float32) bool {
	if !d.DepthTest || d.depthBuf == nil {
		return true
	}
	idx := y*d.w + x
	if idx < 0 || idx >= len(d.depthBuf) {
		return false
	}
	// NDC z is in [-1,1]. Map to [0,1].
	v := vmath.Clamp01(z*0.5 + 0.5)
	if v > d.depthBuf[idx] {
		return false
	}
	d.depthBuf[idx] = v
	return true
}

// clipLine clips the segment to the viewport (Liang–Barsky) and returns the
// parameter range that remains visible.
func (d *Device) clipLine(p0, p1 screenPoint) (t0, t1 float32, ok bool) {
	t0, t1 = 0, 1
	dx := p1.X - p0.X
	dy := p1.Y - p0.Y
	maxX := float32(d.w - 1)
	maxY := float32(d.h - 1)
	edges := [4][2]float32{
		{-dx, p0.X},
		{dx, maxX - p0.X},
		{-dy, p0.Y},
		{dy, maxY - p0.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return t0, t1, true
}

func lerpPoint(a, b screenPoint, t float32) screenPoint {
	return screenPoint{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

func (d *Device) drawLine(p0, p1 screenPoint, c Color) {
	if d.target == nil {
		return
	}
	t0, t1, ok := d.clipLine(p0, p1)
	if !ok {
		return
	}
	a := lerpPoint(p0, p1, t0)
	b := lerpPoint(p0, p1, t1)

	x0, y0 := int(a.X+0.5), int(a.Y+0.5)
	x1, y1 := int(b.X+0.5), int(b.Y+0.5)

	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	steps := dx
	if -dy > steps {
		steps = -dy
	}
	err := dx + dy
	for i := 0; ; i++ {
		z := a.Z
		if steps > 0 {
			z += (b.Z - a.Z) * float32(i) / float32(steps)
		}
		if x0 >= 0 && y0 >= 0 && x0 < d.w && y0 < d.h && d.depthTest(x0, y0, z) {
			d.target.SetPixel(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (d *Device) fillTriangleFlat(p0, p1, p2 screenPoint, c Color) {
	if d.target == nil {
		return
	}
	x0, y0 := int(p0.X+0.5), int(p0.Y+0.5)
	x1, y1 := int(p1.X+0.5), int(p1.Y+0.5)
	x2, y2 := int(p2.X+0.5), int(p2.Y+0.5)

	minX, maxX := min3(x0, x1, x2), max3(x0, x1, x2)
	minY, maxY := min3(y0, y1, y2), max3(y0, y1, y2)
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= d.w {
		maxX = d.w - 1
	}
	if maxY >= d.h {
		maxY = d.h - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	area := edgeFn(x0, y0, x1, y1, x2, y2)
	if area == 0 {
		return
	}
	// Accept either winding.
	sign := 1
	if area < 0 {
		sign = -1
	}
	invArea := 1.0 / float32(area)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := edgeFn(x1, y1, x2, y2, x, y) * sign
			w1 := edgeFn(x2, y2, x0, y0, x, y) * sign
			w2 := edgeFn(x0, y0, x1, y1, x, y) * sign
			if (w0 | w1 | w2) < 0 {
				continue
			}
			a0 := float32(w0*sign) * invArea
			a1 := float32(w1*sign) * invArea
			a2 := float32(w2*sign) * invArea
			z := a0*p0.Z + a1*p1.Z + a2*p2.Z
			if !d.depthTest(x, y, z) {
				continue
			}
			d.target.SetPixel(x, y, c)
		}
	}
}

func edgeFn(x0, y0, x1, y1, x, y int) int {
	return (x-x0)*(y1-y0) - (y-y0)*(x1-x0)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func min3(a, b, c int) int {
	if a > b {
		a = b
	}
	if a > c {
		a = c
	}
	return a
}

func max3(a, b, c int) int {
	if a < b {
		a = b
	}
	if a < c {
		a = c
	}
	return a
}
