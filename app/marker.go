package app

import (
	"fmt"

	"quarktrail/gpu"
	"quarktrail/trail"
	"quarktrail/vmath"
)

const markerVertexShader = `#version 100
attribute vec3 position;
uniform   vec3 color;
varying   vec3 vColor;
uniform   mat4 proj;
uniform   mat4 view;
uniform   mat4 model;
void main() {
    gl_Position = proj * view * model * vec4(position, 1.0);
    vColor = color;
}`

// Unit octahedron: +X -X +Y -Y +Z -Z.
var (
	octahedronVertices = []vmath.Vec3{
		{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
	}
	octahedronIndices = []uint32{
		0, 2, 4, 4, 2, 1, 1, 2, 5, 5, 2, 0,
		4, 3, 0, 1, 3, 4, 5, 3, 1, 0, 3, 5,
	}
)

// marker draws a small solid octahedron at the trail head.
type marker struct {
	dev   gpu.Device
	prog  gpu.Program
	pos   gpu.Attribute
	color gpu.Uniform[vmath.Vec3]
	proj  gpu.Uniform[vmath.Mat4]
	view  gpu.Uniform[vmath.Mat4]
	model gpu.Uniform[vmath.Mat4]
	vtx   gpu.Buffer[vmath.Vec3]
	inds  gpu.Buffer[uint32]
	size  float32
}

func newMarker(dev gpu.Device, size float32) (_ *marker, err error) {
	m := &marker{dev: dev, size: size}
	defer func() {
		if err != nil {
			m.release()
		}
	}()

	if m.prog, err = dev.Compile(markerVertexShader, trail.FragmentShader); err != nil {
		return nil, fmt.Errorf("marker: %w", err)
	}
	m.prog.Use()
	if m.pos, err = m.prog.Attribute("position"); err != nil {
		return nil, fmt.Errorf("marker: %w", err)
	}
	if m.color, err = m.prog.Vec3Uniform("color"); err != nil {
		return nil, fmt.Errorf("marker: %w", err)
	}
	for name, dst := range map[string]*gpu.Uniform[vmath.Mat4]{"proj": &m.proj, "view": &m.view, "model": &m.model} {
		if *dst, err = m.prog.Mat4Uniform(name); err != nil {
			return nil, fmt.Errorf("marker: %w", err)
		}
	}
	if m.vtx, err = dev.NewVertexBuffer(octahedronVertices, gpu.StaticDraw); err != nil {
		return nil, fmt.Errorf("marker: %w", err)
	}
	if m.inds, err = dev.NewIndexBuffer(octahedronIndices, gpu.StaticDraw); err != nil {
		return nil, fmt.Errorf("marker: %w", err)
	}
	m.vtx.Load()
	m.inds.Load()
	if err = dev.Verify(); err != nil {
		return nil, fmt.Errorf("marker: %w", err)
	}
	return m, nil
}

func (m *marker) draw(pass int, cam gpu.Camera, at, rgb vmath.Vec3) error {
	m.prog.Use()
	m.pos.Enable()
	m.color.Upload(rgb)
	cam.Upload(pass, m.proj, m.view)
	m.model.Upload(vmath.Mat4Mul(vmath.Mat4Translate(at), vmath.Mat4Scale(vmath.V3(m.size, m.size, m.size))))
	m.pos.BindSubBuffer(m.vtx, 0, 0)
	m.inds.Bind()
	m.dev.DrawElements(gpu.Triangles, m.inds.Len(), gpu.UnsignedInt, 0)
	m.pos.Disable()
	if err := m.dev.Verify(); err != nil {
		return fmt.Errorf("marker: %w", err)
	}
	return nil
}

func (m *marker) release() {
	if m.vtx != nil {
		m.vtx.Release()
	}
	if m.inds != nil {
		m.inds.Release()
	}
	if m.prog != nil {
		m.prog.Release()
	}
	m.vtx, m.inds, m.prog = nil, nil, nil
}
