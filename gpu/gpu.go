// Package gpu defines the narrow GPU contracts consumed by the trail renderer.
//
// The renderer never talks to a graphics API directly. It receives a Device
// handle and works through buffers, a shader program, its attribute and uniform
// bindings, and a camera that knows how to fill projection and view uniforms.
// Package quarkgl provides a software implementation.
package gpu

import (
	"errors"

	"quarktrail/vmath"
)

var (
	// ErrInvalidValue reports an out-of-range argument (GL_INVALID_VALUE).
	ErrInvalidValue = errors.New("gpu: invalid value")
	// ErrInvalidOperation reports a call that is illegal in the current state
	// (GL_INVALID_OPERATION).
	ErrInvalidOperation = errors.New("gpu: invalid operation")
	// ErrReleased reports use of a buffer or program after Release.
	ErrReleased = errors.New("gpu: resource released")
	// ErrCompile reports a shader that failed to compile.
	ErrCompile = errors.New("gpu: shader compile failed")
	// ErrLink reports shader stages that failed to link.
	ErrLink = errors.New("gpu: program link failed")
	// ErrNoSuchBinding reports a missing or mistyped attribute or uniform.
	ErrNoSuchBinding = errors.New("gpu: no such binding")
)

// BufferType selects the binding target of a buffer.
type BufferType uint8

const (
	ArrayBuffer BufferType = iota + 1
	ElementArrayBuffer
)

func (t BufferType) String() string {
	switch t {
	case ArrayBuffer:
		return "array"
	case ElementArrayBuffer:
		return "element-array"
	}
	return "unknown"
}

// Usage is the allocation hint given when a buffer is created.
type Usage uint8

const (
	StaticDraw Usage = iota + 1
	DynamicDraw
	StreamDraw
)

func (u Usage) String() string {
	switch u {
	case StaticDraw:
		return "static"
	case DynamicDraw:
		return "dynamic"
	case StreamDraw:
		return "stream"
	}
	return "unknown"
}

// Primitive selects how indexed vertices are assembled.
type Primitive uint8

const (
	Points Primitive = iota + 1
	Lines
	LineStrip
	Triangles
)

func (p Primitive) String() string {
	switch p {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case LineStrip:
		return "line-strip"
	case Triangles:
		return "triangles"
	}
	return "unknown"
}

// IndexType is the integer type of element indices.
type IndexType uint8

const (
	UnsignedInt IndexType = iota + 1
)

// Buffer is a GPU-resident array with a CPU-side mirror.
type Buffer[T any] interface {
	// Len returns the number of elements. It never changes.
	Len() int
	// Data returns the CPU mirror. Callers must not modify it.
	Data() []T
	// ReplaceFrom overwrites len(vals) elements starting at off, in the
	// mirror and in device storage. Only that range is re-uploaded.
	ReplaceFrom(off int, vals ...T)
	// Load uploads the whole mirror to device storage.
	Load()
	// Bind makes the buffer current for its BufferType.
	Bind()
	// Release frees device storage. Further calls are no-ops.
	Release()
}

// Uniform is a resolved uniform slot of a program.
type Uniform[T any] interface {
	Upload(v T)
}

// Attribute is a resolved vertex attribute of a program.
type Attribute interface {
	Enable()
	Disable()
	// BindSubBuffer sources the attribute from buf, skipping stride elements
	// between vertices, starting at element offset.
	BindSubBuffer(buf Buffer[vmath.Vec3], stride, offset int)
}

// Program is a linked shader program.
type Program interface {
	Use()
	Attribute(name string) (Attribute, error)
	Vec3Uniform(name string) (Uniform[vmath.Vec3], error)
	Mat4Uniform(name string) (Uniform[vmath.Mat4], error)
	Release()
}

// Device is the GPU context handle.
//
// Errors raised by buffer, program and draw calls are recorded rather than
// returned, as in OpenGL. Verify reports and clears them.
type Device interface {
	NewVertexBuffer(data []vmath.Vec3, usage Usage) (Buffer[vmath.Vec3], error)
	NewIndexBuffer(data []uint32, usage Usage) (Buffer[uint32], error)
	Compile(vertexSrc, fragmentSrc string) (Program, error)
	DrawElements(mode Primitive, count int, typ IndexType, offset int)
	Verify() error
}

// Camera fills projection and view uniforms for a render pass.
type Camera interface {
	Upload(pass int, proj, view Uniform[vmath.Mat4])
}
