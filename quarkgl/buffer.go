package quarkgl

import (
	"fmt"

	"quarktrail/gpu"
	"quarktrail/vmath"
)

// Buffer is a device buffer with a CPU mirror.
//
// Device storage is allocated by the first Load. ReplaceFrom before that only
// touches the mirror; the following Load carries the change.
type Buffer[T any] struct {
	dev      *Device
	typ      gpu.BufferType
	usage    gpu.Usage
	data     []T
	store    []T
	released bool
}

func newBuffer[T any](d *Device, typ gpu.BufferType, data []T, usage gpu.Usage) (*Buffer[T], error) {
	switch usage {
	case gpu.StaticDraw, gpu.DynamicDraw, gpu.StreamDraw:
	default:
		return nil, fmt.Errorf("%w: buffer usage %d", gpu.ErrInvalidValue, usage)
	}
	d.stats.Buffers++
	return &Buffer[T]{
		dev:   d,
		typ:   typ,
		usage: usage,
		data:  append([]T(nil), data...),
	}, nil
}

// NewVertexBuffer creates an array buffer of positions.
func (d *Device) NewVertexBuffer(data []vmath.Vec3, usage gpu.Usage) (gpu.Buffer[vmath.Vec3], error) {
	b, err := newBuffer(d, gpu.ArrayBuffer, data, usage)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// NewIndexBuffer creates an element array buffer.
func (d *Device) NewIndexBuffer(data []uint32, usage gpu.Usage) (gpu.Buffer[uint32], error) {
	b, err := newBuffer(d, gpu.ElementArrayBuffer, data, usage)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Buffer[T]) Len() int             { return len(b.data) }
func (b *Buffer[T]) Data() []T            { return b.data }
func (b *Buffer[T]) Type() gpu.BufferType { return b.typ }
func (b *Buffer[T]) Usage() gpu.Usage     { return b.usage }
func (b *Buffer[T]) Loaded() bool         { return b.store != nil }
func (b *Buffer[T]) Released() bool       { return b.released }

// Stored returns the device-side copy, nil before the first Load.
func (b *Buffer[T]) Stored() []T { return b.store }

func (b *Buffer[T]) ReplaceFrom(off int, vals ...T) {
	if b.released {
		b.dev.record(fmt.Errorf("%w: replace on %s buffer", gpu.ErrReleased, b.typ))
		return
	}
	if off < 0 || off+len(vals) > len(b.data) {
		b.dev.record(fmt.Errorf("%w: replace [%d,%d) in %s buffer of %d", gpu.ErrInvalidValue, off, off+len(vals), b.typ, len(b.data)))
		return
	}
	copy(b.data[off:], vals)
	if b.store == nil {
		return
	}
	copy(b.store[off:], vals)
	b.dev.stats.PartialUploads++
	b.dev.stats.ElementsUploaded += len(vals)
}

func (b *Buffer[T]) Load() {
	if b.released {
		b.dev.record(fmt.Errorf("%w: load of %s buffer", gpu.ErrReleased, b.typ))
		return
	}
	if b.store == nil {
		b.store = make([]T, len(b.data))
	}
	copy(b.store, b.data)
	b.dev.stats.FullUploads++
	b.dev.stats.ElementsUploaded += len(b.data)
}

func (b *Buffer[T]) Bind() {
	if b.released {
		b.dev.record(fmt.Errorf("%w: bind of %s buffer", gpu.ErrReleased, b.typ))
		return
	}
	switch v := any(b).(type) {
	case *Buffer[uint32]:
		if b.typ == gpu.ElementArrayBuffer {
			b.dev.elements = v
			return
		}
	case *Buffer[vmath.Vec3]:
		if b.typ == gpu.ArrayBuffer {
			b.dev.array = v
			return
		}
	}
	b.dev.record(fmt.Errorf("%w: bind of %s buffer", gpu.ErrInvalidOperation, b.typ))
}

func (b *Buffer[T]) Release() {
	if b.released {
		return
	}
	b.released = true
	b.store = nil
	b.dev.stats.Released++
	switch v := any(b).(type) {
	case *Buffer[uint32]:
		if b.dev.elements == v {
			b.dev.elements = nil
		}
	case *Buffer[vmath.Vec3]:
		if b.dev.array == v {
			b.dev.array = nil
		}
	}
}
