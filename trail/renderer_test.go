package trail

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"quarktrail/gpu"
	"quarktrail/quarkgl"
	"quarktrail/vmath"
)

func linePoints(n int) []vmath.Vec3 {
	pts := make([]vmath.Vec3, n)
	for i := range pts {
		pts[i] = vmath.V3(float32(i), 0, 0)
	}
	return pts
}

func TestFromPointsIndexRing(t *testing.T) {
	for n := 2; n <= 32; n++ {
		dev := quarkgl.NewDevice()
		r, err := FromPoints(dev, linePoints(n))
		if err != nil {
			t.Fatalf("n=%d: FromPoints: %v", n, err)
		}
		inds := r.Indices()
		if len(inds) != 2*(n-1) {
			t.Fatalf("n=%d: len(indices) = %d, want %d", n, len(inds), 2*(n-1))
		}
		for i, v := range inds {
			if int(v) >= n {
				t.Fatalf("n=%d: index[%d] = %d out of range", n, i, v)
			}
		}
		for k := 0; k < n-1; k++ {
			if inds[2*k] != uint32(k) || inds[2*k+1] != uint32(k+1) {
				t.Fatalf("n=%d: pair %d = (%d,%d), want (%d,%d)", n, k, inds[2*k], inds[2*k+1], k, k+1)
			}
		}
		if r.Capacity() != n {
			t.Fatalf("n=%d: Capacity() = %d", n, r.Capacity())
		}
		r.Release()
	}
}

func TestFromPointFillsRing(t *testing.T) {
	p := vmath.V3(1, -2, 3)
	for n := 2; n <= 16; n++ {
		r, err := FromPoint(quarkgl.NewDevice(), n, p)
		if err != nil {
			t.Fatalf("n=%d: FromPoint: %v", n, err)
		}
		pts := r.Points()
		if len(pts) != n {
			t.Fatalf("n=%d: len(points) = %d", n, len(pts))
		}
		for i, got := range pts {
			if got != p {
				t.Fatalf("n=%d: point %d = %+v, want %+v", n, i, got, p)
			}
		}
	}
}

func TestDefaultTrail(t *testing.T) {
	r, err := Default(quarkgl.NewDevice())
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	want := []vmath.Vec3{vmath.V3(0, 0, 0), vmath.V3(1, 1, 1)}
	if got := r.Points(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Points() = %v, want %v", got, want)
	}
	if got := r.Segments(); !reflect.DeepEqual(got, [][2]uint32{{0, 1}}) {
		t.Fatalf("Segments() = %v", got)
	}
	if r.Color() != DefaultColor {
		t.Fatalf("Color() = %+v, want %+v", r.Color(), DefaultColor)
	}
}

func TestTooFewPoints(t *testing.T) {
	dev := quarkgl.NewDevice()
	if _, err := FromPoints(dev, nil); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("FromPoints(nil) err = %v", err)
	}
	if _, err := FromPoints(dev, linePoints(1)); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("FromPoints(1) err = %v", err)
	}
	if _, err := FromPoint(dev, 1, vmath.Vec3{}); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("FromPoint(1) err = %v", err)
	}
	if st := dev.Stats(); st.Programs != 0 || st.Buffers != 0 {
		t.Fatalf("resources allocated on rejected input: %+v", st)
	}
}

func TestPushScenario(t *testing.T) {
	dev := quarkgl.NewDevice()
	r, err := FromPoints(dev, []vmath.Vec3{vmath.V3(0, 0, 0), vmath.V3(1, 0, 0), vmath.V3(2, 0, 0)})
	if err != nil {
		t.Fatalf("FromPoints: %v", err)
	}
	if got := r.Indices(); !reflect.DeepEqual(got, []uint32{0, 1, 1, 2}) {
		t.Fatalf("initial indices = %v, want [0 1 1 2]", got)
	}

	before := dev.Stats()
	r.Push(vmath.V3(3, 0, 0))
	after := dev.Stats()

	w, i := r.Cursors()
	if w != 1 || i != 2 {
		t.Fatalf("Cursors() = (%d,%d), want (1,2)", w, i)
	}
	if got := r.Indices(); !reflect.DeepEqual(got, []uint32{2, 0, 1, 2}) {
		t.Fatalf("indices = %v, want [2 0 1 2]", got)
	}
	for _, p := range r.Points() {
		if p == vmath.V3(0, 0, 0) {
			t.Fatalf("overwritten point still present: %v", r.Points())
		}
	}
	if got := r.Points(); !reflect.DeepEqual(got, []vmath.Vec3{vmath.V3(1, 0, 0), vmath.V3(2, 0, 0), vmath.V3(3, 0, 0)}) {
		t.Fatalf("Points() = %v", got)
	}
	if r.Head() != vmath.V3(3, 0, 0) {
		t.Fatalf("Head() = %+v", r.Head())
	}
	if len(r.Indices()) != 4 || r.Capacity() != 3 {
		t.Fatalf("sizes changed")
	}

	if got := after.PartialUploads - before.PartialUploads; got != 2 {
		t.Fatalf("partial uploads per push = %d, want 2", got)
	}
	if got := after.ElementsUploaded - before.ElementsUploaded; got != 3 {
		t.Fatalf("elements uploaded per push = %d, want 3", got)
	}
	if after.FullUploads != before.FullUploads {
		t.Fatalf("push caused a full upload")
	}
	if err := dev.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestPushUploadCostIndependentOfCapacity(t *testing.T) {
	for _, n := range []int{2, 10, 1000} {
		dev := quarkgl.NewDevice()
		r, err := FromPoint(dev, n, vmath.Vec3{})
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		before := dev.Stats()
		for k := 0; k < 3*n; k++ {
			r.Push(vmath.V3(float32(k), 1, 0))
		}
		after := dev.Stats()
		if got := after.ElementsUploaded - before.ElementsUploaded; got != 3*3*n {
			t.Fatalf("n=%d: uploaded %d elements for %d pushes", n, got, 3*n)
		}
	}
}

// TestRingStaysConnected pushes through several full realignment periods and
// checks that the segments read from the index cursor always form one polyline
// over the point slots in temporal order.
func TestRingStaysConnected(t *testing.T) {
	for n := 2; n <= 12; n++ {
		dev := quarkgl.NewDevice()
		r, err := FromPoints(dev, linePoints(n))
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		period := n * (n - 1)
		for k := 1; k <= 3*period; k++ {
			r.Push(vmath.V3(float32(n+k), 0, 0))

			if len(r.Indices()) != 2*(n-1) || len(r.Points()) != n {
				t.Fatalf("n=%d push %d: ring sizes changed", n, k)
			}
			w, _ := r.Cursors()
			segs := r.Segments()
			for i, s := range segs {
				want := [2]uint32{uint32((w + i) % n), uint32((w + i + 1) % n)}
				if s != want {
					t.Fatalf("n=%d push %d: segment %d = %v, want %v (all %v)", n, k, i, s, want, segs)
				}
			}

			// Temporal order: positions strictly increase along the polyline.
			pts := r.Points()
			for i := 1; i < len(pts); i++ {
				if k >= n-1 && pts[i].X <= pts[i-1].X {
					t.Fatalf("n=%d push %d: points out of order %v", n, k, pts)
				}
			}
		}
		if err := dev.Verify(); err != nil {
			t.Fatalf("n=%d: Verify: %v", n, err)
		}
	}
}

// TestCursorsRealign checks that both cursors return to zero together exactly
// every n*(n-1) pushes and never earlier.
func TestCursorsRealign(t *testing.T) {
	for n := 2; n <= 12; n++ {
		r, err := FromPoint(quarkgl.NewDevice(), n, vmath.Vec3{})
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		period := n * (n - 1)
		for k := 1; k <= 2*period; k++ {
			r.Push(vmath.Vec3{})
			w, i := r.Cursors()
			together := w == 0 && i == 0
			if together != (k%period == 0) {
				t.Fatalf("n=%d push %d: cursors (%d,%d), period %d", n, k, w, i, period)
			}
		}
		if r.Pushes() != uint64(2*period) {
			t.Fatalf("n=%d: Pushes() = %d", n, r.Pushes())
		}
	}
}

func TestRenderCallSequence(t *testing.T) {
	dev := newFakeDevice()
	r, err := FromPoints(dev, linePoints(4))
	if err != nil {
		t.Fatalf("FromPoints: %v", err)
	}
	dev.log = nil

	cam := &fakeCamera{}
	if err := r.Render(1, cam); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := []string{
		"use",
		"enable position",
		"upload color",
		"upload proj",
		"upload view",
		"source position 4 0 0",
		"bind indices",
		"draw lines 6 0",
		"disable position",
	}
	if !reflect.DeepEqual(dev.log, want) {
		t.Fatalf("render calls:\n%s\nwant:\n%s", strings.Join(dev.log, "\n"), strings.Join(want, "\n"))
	}
	if !reflect.DeepEqual(cam.passes, []int{1}) {
		t.Fatalf("camera passes = %v", cam.passes)
	}
}

func TestPushCallSequence(t *testing.T) {
	dev := newFakeDevice()
	r, err := FromPoints(dev, linePoints(3))
	if err != nil {
		t.Fatalf("FromPoints: %v", err)
	}
	dev.log = nil
	r.Push(vmath.V3(9, 0, 0))
	want := []string{
		"replace points 0 [{9 0 0}]",
		"replace indices 0 [2 0]",
	}
	if !reflect.DeepEqual(dev.log, want) {
		t.Fatalf("push calls = %q, want %q", dev.log, want)
	}
}

func TestConstructionUploadsOnce(t *testing.T) {
	dev := newFakeDevice()
	if _, err := FromPoints(dev, linePoints(5), WithUsage(gpu.StreamDraw)); err != nil {
		t.Fatalf("FromPoints: %v", err)
	}
	want := []string{
		"compile",
		"use",
		"new indices 8 stream",
		"new points 5 stream",
		"load points",
		"load indices",
	}
	if !reflect.DeepEqual(dev.log, want) {
		t.Fatalf("construction calls = %q, want %q", dev.log, want)
	}
}

func TestRenderSurfacesDeviceErrors(t *testing.T) {
	dev := newFakeDevice()
	r, err := FromPoints(dev, linePoints(3))
	if err != nil {
		t.Fatalf("FromPoints: %v", err)
	}
	dev.verifyErr = gpu.ErrInvalidOperation
	err = r.Render(0, &fakeCamera{})
	if !errors.Is(err, ErrRender) || !errors.Is(err, gpu.ErrInvalidOperation) {
		t.Fatalf("Render err = %v", err)
	}
}

func TestMissingBindingFailsConstruction(t *testing.T) {
	for _, name := range []string{"position", "color", "view", "proj"} {
		t.Run(name, func(t *testing.T) {
			dev := newFakeDevice()
			dev.missing[name] = true
			r, err := FromPoints(dev, linePoints(3))
			if r != nil || !errors.Is(err, gpu.ErrNoSuchBinding) {
				t.Fatalf("FromPoints = %v, %v", r, err)
			}
			if len(dev.programs) != 1 || !dev.programs[0].rel {
				t.Fatalf("program not released after failed construction")
			}
			if len(dev.buffers) != 0 {
				t.Fatalf("buffers allocated before bindings resolved")
			}
		})
	}
}

func TestBufferFailureReleasesEverything(t *testing.T) {
	dev := newFakeDevice()
	dev.bufferErr[gpu.ArrayBuffer] = gpu.ErrInvalidValue
	r, err := FromPoints(dev, linePoints(3))
	if r != nil || !errors.Is(err, gpu.ErrInvalidValue) {
		t.Fatalf("FromPoints = %v, %v", r, err)
	}
	if !dev.programs[0].rel {
		t.Fatalf("program leaked")
	}
	for i, b := range dev.buffers {
		if !b.released() {
			t.Fatalf("buffer %d leaked", i)
		}
	}
}

func TestCompileFailure(t *testing.T) {
	dev := newFakeDevice()
	dev.compileErr = gpu.ErrCompile
	if _, err := FromPoints(dev, linePoints(2)); !errors.Is(err, gpu.ErrCompile) {
		t.Fatalf("FromPoints err = %v", err)
	}
}

func TestReleaseOnce(t *testing.T) {
	dev := quarkgl.NewDevice()
	r, err := FromPoints(dev, linePoints(3))
	if err != nil {
		t.Fatalf("FromPoints: %v", err)
	}
	r.Release()
	r.Release()
	if got := dev.Stats().Released; got != 3 {
		t.Fatalf("Released = %d, want 3", got)
	}
	cam := quarkgl.DefaultCamera()
	if err := r.Render(0, &cam); !errors.Is(err, gpu.ErrReleased) {
		t.Fatalf("Render after Release err = %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("Push after Release did not panic")
		}
	}()
	r.Push(vmath.Vec3{})
}

func newTarget(w, h int) *quarkgl.RGB565Target {
	return &quarkgl.RGB565Target{Buf: make([]byte, w*h*2), Stride: w * 2, W: w, H: h}
}

func TestRenderDrawsTrailPixels(t *testing.T) {
	dev := quarkgl.NewDevice()
	r, err := FromPoints(dev, []vmath.Vec3{vmath.V3(-1, 0, 0), vmath.V3(0, 0, 0), vmath.V3(1, 0, 0)}, WithColor(vmath.V3(1, 0, 0)))
	if err != nil {
		t.Fatalf("FromPoints: %v", err)
	}
	target := newTarget(64, 64)
	dev.Frame(target, quarkgl.RGB(0, 0, 0))
	cam := quarkgl.DefaultCamera()
	if err := r.Render(0, &cam); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if got := target.Pixel(32, 32); got != quarkgl.RGB(255, 0, 0) {
		t.Fatalf("center pixel = %+v, want red", got)
	}
	if got := target.Pixel(32, 10); got != quarkgl.RGB(0, 0, 0) {
		t.Fatalf("pixel off the trail = %+v, want background", got)
	}

	last := dev.LastDraw()
	if last.Mode != gpu.Lines || last.Count != 4 || last.Offset != 0 || last.Type != gpu.UnsignedInt {
		t.Fatalf("LastDraw() = %+v", last)
	}
	a, err := dev.Program().Attribute("position")
	if err != nil {
		t.Fatalf("Attribute: %v", err)
	}
	if a.(*quarkgl.Attribute).Enabled() {
		t.Fatalf("position attribute left enabled after render")
	}
	if st := dev.Stats(); st.Draws != 1 || st.Primitives != 2 {
		t.Fatalf("Stats() = %+v, want 1 draw of 2 segments", st)
	}
}

func TestRenderAfterPushMovesTrail(t *testing.T) {
	dev := quarkgl.NewDevice()
	r, err := FromPoints(dev, []vmath.Vec3{vmath.V3(-1, 0, 0), vmath.V3(-0.5, 0, 0)})
	if err != nil {
		t.Fatalf("FromPoints: %v", err)
	}
	cam := quarkgl.DefaultCamera()
	target := newTarget(64, 64)

	dev.Frame(target, quarkgl.RGB(0, 0, 0))
	if err := r.Render(0, &cam); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := target.Pixel(40, 32); got != quarkgl.RGB(0, 0, 0) {
		t.Fatalf("pixel right of origin lit before push: %+v", got)
	}

	// The only segment now runs from (-0.5,0,0) to (0.5,0,0).
	r.Push(vmath.V3(0.5, 0, 0))
	dev.Frame(target, quarkgl.RGB(0, 0, 0))
	if err := r.Render(0, &cam); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := target.Pixel(32, 32); got != quarkgl.RGB(255, 255, 255) {
		t.Fatalf("center pixel after push = %+v, want white", got)
	}
	if got := target.Pixel(15, 32); got != quarkgl.RGB(0, 0, 0) {
		t.Fatalf("evicted segment still drawn: %+v", got)
	}
}
