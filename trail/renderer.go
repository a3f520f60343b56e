// Package trail draws the recent path of a moving object as a connected line
// strip held in fixed-size GPU rings.
//
// A Renderer with capacity N keeps N points and N-1 segments. Each Push
// overwrites the oldest point and the one segment that touched it, so exactly
// one vertex and one index pair are re-uploaded regardless of N.
//
// Two cyclic counters drive the rings: the write cursor walks the N point
// slots and the index cursor walks the N-1 pair slots. Index pairs hold point
// slots, never index positions. The pair evicted by a push is always the one
// connecting the overwritten point to its successor, and that pair slot
// advances by one per push with period N-1, which is exactly the index
// cursor's period. The relative phase of the two counters shifts every lap,
// yet the pair ring read from the index cursor is always one polyline from the
// oldest retained point to the newest. Both cursors return to zero together
// every N*(N-1) pushes.
package trail

import (
	"errors"
	"fmt"

	"quarktrail/gpu"
	"quarktrail/internal/cyclic"
	"quarktrail/vmath"
)

var (
	// ErrTooFewPoints is returned when a trail would have no segment.
	ErrTooFewPoints = errors.New("trail: at least two points are required")
	// ErrRender wraps GPU errors reported after a draw.
	ErrRender = errors.New("trail: render failed")
)

// DefaultColor is the trail color used unless WithColor is given.
var DefaultColor = vmath.V3(1, 1, 1)

// Option configures a Renderer at construction.
type Option func(*options)

type options struct {
	color vmath.Vec3
	usage gpu.Usage
}

// WithColor sets the flat trail color as RGB in [0,1].
func WithColor(c vmath.Vec3) Option {
	return func(o *options) { o.color = c }
}

// WithUsage overrides the buffer usage hint (gpu.DynamicDraw by default).
func WithUsage(u gpu.Usage) Option {
	return func(o *options) { o.usage = u }
}

// Renderer owns a trail's point and index rings and the program that draws them.
//
// It is not safe for concurrent use.
type Renderer struct {
	dev gpu.Device

	prog  gpu.Program
	pos   gpu.Attribute
	color gpu.Uniform[vmath.Vec3]
	view  gpu.Uniform[vmath.Mat4]
	proj  gpu.Uniform[vmath.Mat4]

	vtx      gpu.Buffer[vmath.Vec3]
	inds     gpu.Buffer[uint32]
	vtxEnd   cyclic.Counter[int]
	indsEnd  cyclic.Counter[int]
	numLines int

	rgb      vmath.Vec3
	pushes   uint64
	released bool
}

// Default creates a one-segment trail from the origin to (1,1,1).
func Default(dev gpu.Device, opts ...Option) (*Renderer, error) {
	return FromPoints(dev, []vmath.Vec3{vmath.V3(0, 0, 0), vmath.V3(1, 1, 1)}, opts...)
}

// FromPoint creates a trail of length copies of p.
func FromPoint(dev gpu.Device, length int, p vmath.Vec3, opts ...Option) (*Renderer, error) {
	if length < 2 {
		return nil, fmt.Errorf("%w: length %d", ErrTooFewPoints, length)
	}
	pts := make([]vmath.Vec3, length)
	for i := range pts {
		pts[i] = p
	}
	return FromPoints(dev, pts, opts...)
}

// FromPoints creates a trail through points in order. Its capacity is len(points).
func FromPoints(dev gpu.Device, points []vmath.Vec3, opts ...Option) (_ *Renderer, err error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(points))
	}
	o := options{color: DefaultColor, usage: gpu.DynamicDraw}
	for _, opt := range opts {
		opt(&o)
	}

	numVertices := len(points)
	numLines := numVertices - 1
	r := &Renderer{
		dev:      dev,
		vtxEnd:   cyclic.ExclusiveMax(numVertices),
		indsEnd:  cyclic.ExclusiveMax(2 * numLines),
		numLines: numLines,
		rgb:      o.color,
	}
	defer func() {
		if err != nil {
			r.Release()
		}
	}()

	if r.prog, err = dev.Compile(VertexShader, FragmentShader); err != nil {
		return nil, fmt.Errorf("trail: compile line program: %w", err)
	}
	r.prog.Use()
	if r.pos, err = r.prog.Attribute("position"); err != nil {
		return nil, fmt.Errorf("trail: %w", err)
	}
	if r.color, err = r.prog.Vec3Uniform("color"); err != nil {
		return nil, fmt.Errorf("trail: %w", err)
	}
	if r.view, err = r.prog.Mat4Uniform("view"); err != nil {
		return nil, fmt.Errorf("trail: %w", err)
	}
	if r.proj, err = r.prog.Mat4Uniform("proj"); err != nil {
		return nil, fmt.Errorf("trail: %w", err)
	}

	indices := make([]uint32, 0, 2*numLines)
	for i := 0; i < numLines; i++ {
		indices = append(indices, uint32(i), uint32(i+1))
	}
	if r.inds, err = dev.NewIndexBuffer(indices, o.usage); err != nil {
		return nil, fmt.Errorf("trail: index buffer: %w", err)
	}
	if r.vtx, err = dev.NewVertexBuffer(points, o.usage); err != nil {
		return nil, fmt.Errorf("trail: vertex buffer: %w", err)
	}
	r.vtx.Load()
	r.inds.Load()
	if err = dev.Verify(); err != nil {
		return nil, fmt.Errorf("trail: initial upload: %w", err)
	}
	return r, nil
}

// Push appends p as the newest point, overwriting the oldest one.
//
// It panics if r has been released.
func (r *Renderer) Push(p vmath.Vec3) {
	if r.released {
		panic("trail: Push on released renderer")
	}
	cur := r.vtxEnd.Current()
	r.vtx.ReplaceFrom(cur, p)
	r.inds.ReplaceFrom(r.indsEnd.Current(), uint32(r.vtxEnd.PeekLast()), uint32(cur))
	r.vtxEnd.IncrementOne()
	r.indsEnd.IncrementBy(2)
	r.pushes++
}

// Render draws the trail for the given pass. Any error reported by the device
// is returned wrapped in ErrRender and must be treated as fatal by the caller.
func (r *Renderer) Render(pass int, camera gpu.Camera) error {
	if r.released {
		return fmt.Errorf("%w: %w", ErrRender, gpu.ErrReleased)
	}
	if r.vtx.Len() == 0 {
		return nil
	}

	r.prog.Use()
	r.pos.Enable()
	r.color.Upload(r.rgb)

	camera.Upload(pass, r.proj, r.view)

	r.pos.BindSubBuffer(r.vtx, 0, 0)
	r.inds.Bind()
	r.dev.DrawElements(gpu.Lines, r.inds.Len(), gpu.UnsignedInt, 0)
	r.pos.Disable()

	if err := r.dev.Verify(); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

// Release frees the buffers and the program. It is safe to call more than once.
func (r *Renderer) Release() {
	if r.released {
		return
	}
	r.released = true
	if r.vtx != nil {
		r.vtx.Release()
	}
	if r.inds != nil {
		r.inds.Release()
	}
	if r.prog != nil {
		r.prog.Release()
	}
}

// SetColor changes the trail color used by subsequent renders.
func (r *Renderer) SetColor(c vmath.Vec3) { r.rgb = c }

// Color returns the trail color.
func (r *Renderer) Color() vmath.Vec3 { return r.rgb }

// Capacity returns the number of point slots.
func (r *Renderer) Capacity() int { return r.vtxEnd.Max() }

// Pushes returns the number of points pushed since construction.
func (r *Renderer) Pushes() uint64 { return r.pushes }

// Cursors returns the next point slot and the next index slot to be written.
func (r *Renderer) Cursors() (write, index int) {
	return r.vtxEnd.Current(), r.indsEnd.Current()
}

// Head returns the newest point.
func (r *Renderer) Head() vmath.Vec3 {
	return r.vtx.Data()[r.vtxEnd.PeekLast()]
}

// Points returns a copy of the points ordered from oldest to newest.
func (r *Renderer) Points() []vmath.Vec3 {
	data := r.vtx.Data()
	n := len(data)
	out := make([]vmath.Vec3, 0, n)
	start := r.vtxEnd.Current()
	for i := 0; i < n; i++ {
		out = append(out, data[(start+i)%n])
	}
	return out
}

// Indices returns the raw index ring. Callers must not modify it.
func (r *Renderer) Indices() []uint32 { return r.inds.Data() }

// Segments returns the index pairs ordered from the oldest segment to the newest.
func (r *Renderer) Segments() [][2]uint32 {
	data := r.inds.Data()
	out := make([][2]uint32, 0, r.numLines)
	start := r.indsEnd.Current() / 2
	for i := 0; i < r.numLines; i++ {
		k := 2 * ((start + i) % r.numLines)
		out = append(out, [2]uint32{data[k], data[k+1]})
	}
	return out
}
