package trail

import (
	"fmt"

	"quarktrail/gpu"
	"quarktrail/vmath"
)

// fakeDevice records every call made through the gpu contracts.
type fakeDevice struct {
	log []string

	compileErr error
	missing    map[string]bool
	bufferErr  map[gpu.BufferType]error
	verifyErr  error

	buffers  []interface{ released() bool }
	programs []*fakeProgram
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{missing: map[string]bool{}, bufferErr: map[gpu.BufferType]error{}}
}

func (d *fakeDevice) logf(format string, args ...any) {
	d.log = append(d.log, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) NewVertexBuffer(data []vmath.Vec3, usage gpu.Usage) (gpu.Buffer[vmath.Vec3], error) {
	if err := d.bufferErr[gpu.ArrayBuffer]; err != nil {
		return nil, err
	}
	b := &fakeBuffer[vmath.Vec3]{dev: d, name: "points", data: append([]vmath.Vec3(nil), data...)}
	d.buffers = append(d.buffers, b)
	d.logf("new points %d %s", len(data), usage)
	return b, nil
}

func (d *fakeDevice) NewIndexBuffer(data []uint32, usage gpu.Usage) (gpu.Buffer[uint32], error) {
	if err := d.bufferErr[gpu.ElementArrayBuffer]; err != nil {
		return nil, err
	}
	b := &fakeBuffer[uint32]{dev: d, name: "indices", data: append([]uint32(nil), data...)}
	d.buffers = append(d.buffers, b)
	d.logf("new indices %d %s", len(data), usage)
	return b, nil
}

func (d *fakeDevice) Compile(vs, fs string) (gpu.Program, error) {
	if d.compileErr != nil {
		return nil, d.compileErr
	}
	p := &fakeProgram{dev: d}
	d.programs = append(d.programs, p)
	d.logf("compile")
	return p, nil
}

func (d *fakeDevice) DrawElements(mode gpu.Primitive, count int, typ gpu.IndexType, offset int) {
	d.logf("draw %s %d %d", mode, count, offset)
}

func (d *fakeDevice) Verify() error {
	err := d.verifyErr
	d.verifyErr = nil
	return err
}

type fakeBuffer[T any] struct {
	dev  *fakeDevice
	name string
	data []T
	rel  bool
}

func (b *fakeBuffer[T]) Len() int       { return len(b.data) }
func (b *fakeBuffer[T]) Data() []T      { return b.data }
func (b *fakeBuffer[T]) Load()          { b.dev.logf("load %s", b.name) }
func (b *fakeBuffer[T]) Bind()          { b.dev.logf("bind %s", b.name) }
func (b *fakeBuffer[T]) released() bool { return b.rel }
func (b *fakeBuffer[T]) Release()       { b.rel = true; b.dev.logf("release %s", b.name) }

func (b *fakeBuffer[T]) ReplaceFrom(off int, vals ...T) {
	copy(b.data[off:], vals)
	b.dev.logf("replace %s %d %v", b.name, off, vals)
}

type fakeProgram struct {
	dev *fakeDevice
	rel bool
}

func (p *fakeProgram) Use()     { p.dev.logf("use") }
func (p *fakeProgram) Release() { p.rel = true; p.dev.logf("release program") }

func (p *fakeProgram) Attribute(name string) (gpu.Attribute, error) {
	if p.dev.missing[name] {
		return nil, fmt.Errorf("%w: %s", gpu.ErrNoSuchBinding, name)
	}
	return &fakeAttribute{dev: p.dev, name: name}, nil
}

func (p *fakeProgram) Vec3Uniform(name string) (gpu.Uniform[vmath.Vec3], error) {
	if p.dev.missing[name] {
		return nil, fmt.Errorf("%w: %s", gpu.ErrNoSuchBinding, name)
	}
	return &fakeUniform[vmath.Vec3]{dev: p.dev, name: name}, nil
}

func (p *fakeProgram) Mat4Uniform(name string) (gpu.Uniform[vmath.Mat4], error) {
	if p.dev.missing[name] {
		return nil, fmt.Errorf("%w: %s", gpu.ErrNoSuchBinding, name)
	}
	return &fakeUniform[vmath.Mat4]{dev: p.dev, name: name}, nil
}

type fakeAttribute struct {
	dev  *fakeDevice
	name string
}

func (a *fakeAttribute) Enable()  { a.dev.logf("enable %s", a.name) }
func (a *fakeAttribute) Disable() { a.dev.logf("disable %s", a.name) }

func (a *fakeAttribute) BindSubBuffer(buf gpu.Buffer[vmath.Vec3], stride, offset int) {
	a.dev.logf("source %s %d %d %d", a.name, buf.Len(), stride, offset)
}

type fakeUniform[T any] struct {
	dev  *fakeDevice
	name string
	val  T
}

func (u *fakeUniform[T]) Upload(v T) {
	u.val = v
	u.dev.logf("upload %s", u.name)
}

type fakeCamera struct {
	passes []int
}

func (c *fakeCamera) Upload(pass int, proj, view gpu.Uniform[vmath.Mat4]) {
	c.passes = append(c.passes, pass)
	proj.Upload(vmath.Mat4Identity())
	view.Upload(vmath.Mat4Identity())
}
