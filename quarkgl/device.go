package quarkgl

import (
	"fmt"

	"quarktrail/gpu"
	"quarktrail/vmath"
)

// Stats counts device traffic since creation.
type Stats struct {
	Buffers  int // buffers created
	Programs int // programs linked
	Released int // buffers and programs released

	FullUploads      int
	PartialUploads   int
	ElementsUploaded int

	Draws      int // DrawElements calls, including rejected ones
	Primitives int // primitives rasterized
}

// DrawCall describes the last accepted DrawElements call.
type DrawCall struct {
	Mode   gpu.Primitive
	Count  int
	Type   gpu.IndexType
	Offset int
	Color  Color
}

// Device is a software implementation of gpu.Device.
//
// Create it once and reuse it; it is not safe for concurrent use.
type Device struct {
	// DepthTest enables per-pixel depth testing against the frame's depth buffer.
	DepthTest bool

	target   Target
	w, h     int
	depthBuf []float32

	program  *Program
	elements *Buffer[uint32]
	array    *Buffer[vmath.Vec3]

	err   error
	stats Stats
	last  DrawCall
}

var _ gpu.Device = (*Device)(nil)

// NewDevice returns a device with depth testing enabled and no target bound.
//
// Draws without a target are validated but produce no pixels.
func NewDevice() *Device {
	return &Device{DepthTest: true}
}

// Frame binds t as the render target and clears it and the depth buffer.
func (d *Device) Frame(t Target, clear Color) {
	d.target = t
	d.w, d.h = 0, 0
	if t == nil {
		return
	}
	d.w, d.h = t.Size()
	if d.w <= 0 || d.h <= 0 {
		d.target = nil
		return
	}
	t.Clear(clear)
	n := d.w * d.h
	if cap(d.depthBuf) < n {
		d.depthBuf = make([]float32, n)
	} else {
		d.depthBuf = d.depthBuf[:n]
	}
	d.clearDepth()
}

// Size returns the size of the bound target.
func (d *Device) Size() (w, h int) { return d.w, d.h }

func (d *Device) Stats() Stats              { return d.stats }
func (d *Device) LastDraw() DrawCall        { return d.last }
func (d *Device) Program() *Program         { return d.program }
func (d *Device) Elements() *Buffer[uint32] { return d.elements }

// Verify returns the first error recorded since the previous call and clears it.
func (d *Device) Verify() error {
	err := d.err
	d.err = nil
	return err
}

func (d *Device) record(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Device) DrawElements(mode gpu.Primitive, count int, typ gpu.IndexType, offset int) {
	d.stats.Draws++

	p := d.program
	if p == nil || p.released {
		d.record(fmt.Errorf("%w: draw without program", gpu.ErrInvalidOperation))
		return
	}
	if typ != gpu.UnsignedInt {
		d.record(fmt.Errorf("%w: index type %d", gpu.ErrInvalidValue, typ))
		return
	}
	if count < 0 || offset < 0 {
		d.record(fmt.Errorf("%w: draw count %d offset %d", gpu.ErrInvalidValue, count, offset))
		return
	}
	el := d.elements
	if el == nil || el.store == nil {
		d.record(fmt.Errorf("%w: draw without loaded element buffer", gpu.ErrInvalidOperation))
		return
	}
	if offset+count > len(el.store) {
		d.record(fmt.Errorf("%w: draw [%d,%d) past element buffer of %d", gpu.ErrInvalidOperation, offset, offset+count, len(el.store)))
		return
	}
	a := p.posAttr
	if !a.enabled || a.buf == nil || a.buf.released || a.buf.store == nil {
		d.record(fmt.Errorf("%w: attribute %s not enabled or not sourced", gpu.ErrInvalidOperation, a.name))
		return
	}

	mvp := vmath.Mat4Identity()
	for _, u := range p.chain {
		mvp = vmath.Mat4Mul(mvp, u.val)
	}
	c := ColorFromVec3(p.color.val)
	d.last = DrawCall{Mode: mode, Count: count, Type: typ, Offset: offset, Color: c}

	idx := el.store[offset : offset+count]
	switch mode {
	case gpu.Points:
		for _, i := range idx {
			if v, ok := d.fetch(a, i, mvp); ok {
				d.plot(v, c)
			}
		}
	case gpu.Lines:
		for k := 0; k+1 < len(idx); k += 2 {
			d.line(a, idx[k], idx[k+1], mvp, c)
		}
	case gpu.LineStrip:
		for k := 0; k+1 < len(idx); k++ {
			d.line(a, idx[k], idx[k+1], mvp, c)
		}
	case gpu.Triangles:
		for k := 0; k+2 < len(idx); k += 3 {
			d.triangle(a, idx[k], idx[k+1], idx[k+2], mvp, c)
		}
	default:
		d.record(fmt.Errorf("%w: primitive %d", gpu.ErrInvalidValue, mode))
	}
}

// fetch transforms vertex i into screen space.
func (d *Device) fetch(a *Attribute, i uint32, mvp vmath.Mat4) (screenPoint, bool) {
	v, ok := a.vertex(int(i))
	if !ok {
		d.record(fmt.Errorf("%w: index %d past attribute %s", gpu.ErrInvalidValue, i, a.name))
		return screenPoint{}, false
	}
	if d.target == nil {
		return screenPoint{}, false
	}
	return d.project(vmath.Mat4MulV4(mvp, v.Vec4(1)))
}

func (d *Device) line(a *Attribute, i0, i1 uint32, mvp vmath.Mat4, c Color) {
	p0, ok0 := d.fetch(a, i0, mvp)
	p1, ok1 := d.fetch(a, i1, mvp)
	if !ok0 || !ok1 {
		return
	}
	d.stats.Primitives++
	d.drawLine(p0, p1, c)
}

func (d *Device) triangle(a *Attribute, i0, i1, i2 uint32, mvp vmath.Mat4, c Color) {
	p0, ok0 := d.fetch(a, i0, mvp)
	p1, ok1 := d.fetch(a, i1, mvp)
	p2, ok2 := d.fetch(a, i2, mvp)
	if !ok0 || !ok1 || !ok2 {
		return
	}
	d.stats.Primitives++
	d.fillTriangleFlat(p0, p1, p2, c)
}

func (d *Device) plot(p screenPoint, c Color) {
	d.stats.Primitives++
	x, y := int(p.X+0.5), int(p.Y+0.5)
	if x < 0 || y < 0 || x >= d.w || y >= d.h {
		return
	}
	if d.depthTest(x, y, p.Z) {
		d.target.SetPixel(x, y, c)
	}
}
