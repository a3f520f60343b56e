package quarkgl

import (
	"fmt"

	"quarktrail/gpu"
	"quarktrail/vmath"
)

// Program is a compiled and linked shader program.
type Program struct {
	dev      *Device
	released bool

	attrs map[string]*Attribute
	vec3s map[string]*Uniform[vmath.Vec3]
	mat4s map[string]*Uniform[vmath.Mat4]

	chain   []*Uniform[vmath.Mat4]
	posAttr *Attribute
	color   *Uniform[vmath.Vec3]
}

// Compile compiles and links a vertex/fragment pair.
func (d *Device) Compile(vertexSrc, fragmentSrc string) (gpu.Program, error) {
	vs, err := compileStage(vertexStage, vertexSrc)
	if err != nil {
		return nil, err
	}
	fs, err := compileStage(fragmentStage, fragmentSrc)
	if err != nil {
		return nil, err
	}
	colorName, err := link(vs, fs)
	if err != nil {
		return nil, err
	}

	p := &Program{
		dev:   d,
		attrs: make(map[string]*Attribute),
		vec3s: make(map[string]*Uniform[vmath.Vec3]),
		mat4s: make(map[string]*Uniform[vmath.Mat4]),
	}
	for _, st := range []*shaderStage{vs, fs} {
		for name, dc := range st.decls {
			switch {
			case dc.qualifier == "attribute" && dc.typ == "vec3":
				p.attrs[name] = &Attribute{prog: p, name: name}
			case dc.qualifier == "uniform" && dc.typ == "vec3":
				if p.vec3s[name] == nil {
					p.vec3s[name] = &Uniform[vmath.Vec3]{prog: p, name: name}
				}
			case dc.qualifier == "uniform" && dc.typ == "mat4":
				if p.mat4s[name] == nil {
					p.mat4s[name] = &Uniform[vmath.Mat4]{prog: p, name: name, val: vmath.Mat4Identity()}
				}
			}
		}
	}
	for _, name := range vs.chain {
		p.chain = append(p.chain, p.mat4s[name])
	}
	p.posAttr = p.attrs[vs.posAttr]
	p.color = p.vec3s[colorName]
	d.stats.Programs++
	return p, nil
}

func (p *Program) Use() {
	if p.released {
		p.dev.record(fmt.Errorf("%w: use of program", gpu.ErrReleased))
		return
	}
	p.dev.program = p
}

func (p *Program) Attribute(name string) (gpu.Attribute, error) {
	a, ok := p.attrs[name]
	if !ok {
		return nil, fmt.Errorf("%w: attribute %q", gpu.ErrNoSuchBinding, name)
	}
	return a, nil
}

func (p *Program) Vec3Uniform(name string) (gpu.Uniform[vmath.Vec3], error) {
	u, ok := p.vec3s[name]
	if !ok {
		return nil, fmt.Errorf("%w: vec3 uniform %q", gpu.ErrNoSuchBinding, name)
	}
	return u, nil
}

func (p *Program) Mat4Uniform(name string) (gpu.Uniform[vmath.Mat4], error) {
	u, ok := p.mat4s[name]
	if !ok {
		return nil, fmt.Errorf("%w: mat4 uniform %q", gpu.ErrNoSuchBinding, name)
	}
	return u, nil
}

func (p *Program) Release() {
	if p.released {
		return
	}
	p.released = true
	p.dev.stats.Released++
	if p.dev.program == p {
		p.dev.program = nil
	}
}

// current reports whether p is the program in use, recording an error if not.
func (p *Program) current(op string) bool {
	switch {
	case p.released:
		p.dev.record(fmt.Errorf("%w: %s on released program", gpu.ErrReleased, op))
		return false
	case p.dev.program != p:
		p.dev.record(fmt.Errorf("%w: %s on program not in use", gpu.ErrInvalidOperation, op))
		return false
	}
	return true
}

// Uniform is a uniform slot of a Program.
type Uniform[T any] struct {
	prog *Program
	name string
	val  T
}

func (u *Uniform[T]) Upload(v T) {
	if !u.prog.current("upload " + u.name) {
		return
	}
	u.val = v
}

// Value returns the last uploaded value.
func (u *Uniform[T]) Value() T { return u.val }

// Attribute is a vertex attribute of a Program.
type Attribute struct {
	prog    *Program
	name    string
	enabled bool

	buf    *Buffer[vmath.Vec3]
	stride int
	offset int
}

func (a *Attribute) Enable() {
	if a.prog.current("enable " + a.name) {
		a.enabled = true
	}
}

func (a *Attribute) Disable() {
	if a.prog.current("disable " + a.name) {
		a.enabled = false
	}
}

// Enabled reports whether the attribute array is enabled.
func (a *Attribute) Enabled() bool { return a.enabled }

func (a *Attribute) BindSubBuffer(buf gpu.Buffer[vmath.Vec3], stride, offset int) {
	if !a.prog.current("bind " + a.name) {
		return
	}
	b, ok := buf.(*Buffer[vmath.Vec3])
	if !ok || b.dev != a.prog.dev {
		a.prog.dev.record(fmt.Errorf("%w: %s bound to foreign buffer", gpu.ErrInvalidOperation, a.name))
		return
	}
	if stride < 0 || offset < 0 {
		a.prog.dev.record(fmt.Errorf("%w: %s stride %d offset %d", gpu.ErrInvalidValue, a.name, stride, offset))
		return
	}
	b.Bind()
	a.buf = b
	a.stride = stride
	a.offset = offset
}

// vertex fetches the i-th vertex of the bound buffer.
func (a *Attribute) vertex(i int) (vmath.Vec3, bool) {
	j := a.offset + i*(a.stride+1)
	if i < 0 || j >= len(a.buf.store) {
		return vmath.Vec3{}, false
	}
	return a.buf.store[j], true
}
