package quarkgl

import (
	"quarktrail/gpu"
	"quarktrail/vmath"
)

// CameraType selects camera projection.
type CameraType uint8

const (
	CameraPerspective CameraType = iota
	CameraOrtho
)

// Camera describes the viewing transform. It implements gpu.Camera.
type Camera struct {
	Type CameraType

	Position vmath.Vec3
	Target   vmath.Vec3
	Up       vmath.Vec3

	// Perspective.
	FOVYRad float32

	// Orthographic (half-height).
	OrthoSize float32

	Near float32
	Far  float32

	// Aspect is width/height of the viewport; 0 means 1.
	Aspect float32

	// EyeSeparation splits passes 0 and 1 into left and right eyes when non-zero.
	EyeSeparation float32
}

var _ gpu.Camera = (*Camera)(nil)

// DefaultCamera looks at the origin from +Z.
func DefaultCamera() Camera {
	return Camera{
		Type:      CameraPerspective,
		Position:  vmath.V3(0, 0, 3),
		Target:    vmath.V3(0, 0, 0),
		Up:        vmath.V3(0, 1, 0),
		FOVYRad:   1.0,
		Near:      0.05,
		Far:       100,
		OrthoSize: 1,
	}
}

func (c *Camera) up() vmath.Vec3 {
	if c.Up == (vmath.Vec3{}) {
		return vmath.V3(0, 1, 0)
	}
	return c.Up
}

// View returns the camera view matrix.
func (c *Camera) View() vmath.Mat4 {
	return vmath.Mat4LookAt(c.Position, c.Target, c.up())
}

// ViewForPass returns the view matrix for a render pass.
//
// With EyeSeparation set, pass 0 is the left eye and pass 1 the right eye;
// other passes use the center view.
func (c *Camera) ViewForPass(pass int) vmath.Mat4 {
	if c.EyeSeparation == 0 || pass > 1 || pass < 0 {
		return c.View()
	}
	right := vmath.Normalize(vmath.Cross(c.Target.Sub(c.Position), c.up()))
	shift := right.Mul(c.EyeSeparation / 2)
	if pass == 0 {
		shift = shift.Mul(-1)
	}
	return vmath.Mat4LookAt(c.Position.Add(shift), c.Target.Add(shift), c.up())
}

// Projection returns the projection matrix for the camera aspect.
func (c *Camera) Projection() vmath.Mat4 {
	aspect := c.Aspect
	if aspect == 0 {
		aspect = 1
	}
	switch c.Type {
	case CameraOrtho:
		size := c.OrthoSize
		if size == 0 {
			size = 1
		}
		right := size * aspect
		return vmath.Mat4Ortho(-right, right, -size, size, c.Near, c.Far)
	default:
		fov := c.FOVYRad
		if fov == 0 {
			fov = 1.0
		}
		return vmath.Mat4Perspective(fov, aspect, c.Near, c.Far)
	}
}

// Upload writes the projection and view matrices for pass.
func (c *Camera) Upload(pass int, proj, view gpu.Uniform[vmath.Mat4]) {
	proj.Upload(c.Projection())
	view.Upload(c.ViewForPass(pass))
}

// OrbitController provides basic orbit/zoom interactions for a camera.
//
// It does not depend on any input system.
type OrbitController struct {
	Target vmath.Vec3
	Yaw    float32
	Pitch  float32
	Radius float32

	MinRadius float32
	MaxRadius float32
}

func (c *OrbitController) Apply(cam *Camera) {
	if cam == nil {
		return
	}
	r := c.Radius
	if r == 0 {
		r = 3
	}
	if c.MinRadius != 0 && r < c.MinRadius {
		r = c.MinRadius
	}
	if c.MaxRadius != 0 && r > c.MaxRadius {
		r = c.MaxRadius
	}

	m := vmath.Mat4Mul(vmath.Mat4RotateY(c.Yaw), vmath.Mat4RotateX(c.Pitch))
	p := vmath.Mat4MulV4(m, vmath.Vec4{X: 0, Y: 0, Z: r, W: 1})

	cam.Position = c.Target.Add(vmath.V3(p.X, p.Y, p.Z))
	cam.Target = c.Target
	if cam.Up == (vmath.Vec3{}) {
		cam.Up = vmath.V3(0, 1, 0)
	}
}

// maxPitch keeps the eye off the poles where the up vector degenerates.
const maxPitch = 1.5

func (c *OrbitController) Rotate(deltaYaw, deltaPitch float32) {
	c.Yaw += deltaYaw
	c.Pitch += deltaPitch
	if c.Pitch > maxPitch {
		c.Pitch = maxPitch
	}
	if c.Pitch < -maxPitch {
		c.Pitch = -maxPitch
	}
}

func (c *OrbitController) Zoom(delta float32) {
	c.Radius += delta
	if c.MinRadius != 0 && c.Radius < c.MinRadius {
		c.Radius = c.MinRadius
	}
	if c.MaxRadius != 0 && c.Radius > c.MaxRadius {
		c.Radius = c.MaxRadius
	}
}
