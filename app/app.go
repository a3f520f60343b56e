// Package app is the trail demo: an object orbits on a tilted circle, its
// recent path is drawn by a trail.Renderer and a marker sits at the head.
package app

import (
	"errors"
	"fmt"
	"image/color"

	"quarktrail/hal"
	"quarktrail/internal/buildinfo"
	"quarktrail/internal/config"
	"quarktrail/internal/font6x8"
	"quarktrail/quarkgl"
	"quarktrail/trail"
	"quarktrail/vmath"

	"github.com/chewxy/math32"
	"tinygo.org/x/tinyfont"
)

// ErrDisplay is returned when the host has no usable RGB565 framebuffer.
var ErrDisplay = errors.New("app: no RGB565 framebuffer")

const (
	rotateStep = 0.08
	zoomStep   = 0.25
	orbitTilt  = 0.45
	markerSize = 0.06
)

var (
	background = quarkgl.RGB(0x05, 0x08, 0x12)
	hudColor   = color.RGBA{R: 0xE0, G: 0xE8, B: 0xFF, A: 0xFF}
	hintColor  = color.RGBA{R: 0x90, G: 0xA0, B: 0xB8, A: 0xFF}

	palette = []vmath.Vec3{
		vmath.V3(0.3, 0.9, 1),
		vmath.V3(1, 0.6, 0.2),
		vmath.V3(0.5, 1, 0.4),
		vmath.V3(1, 0.35, 0.8),
	}
)

// Demo owns the device, the trail and the camera. It is driven by Step on the
// runner goroutine.
type Demo struct {
	cfg   config.Config
	log   hal.Logger
	fb    hal.Framebuffer
	kbd   hal.Keyboard
	ticks <-chan uint64
	font  tinyfont.Fonter

	dev    *quarkgl.Device
	trail  *trail.Renderer
	marker *marker
	cam    quarkgl.Camera
	orbit  quarkgl.OrbitController

	phi      float32
	now      uint64 // host milliseconds
	nextPush uint64
	started  bool
	paused   bool
	colorIdx int // 0 is the configured color, then palette
}

// New returns a runner callback building a Demo from cfg. Construction and
// render failures are logged and returned from the step function.
func New(cfg config.Config) hal.NewAppFunc {
	return func(h hal.HAL) hal.StepFunc {
		d, err := NewDemo(h, cfg)
		if err != nil {
			logLine(h.Logger(), "trail: %v", err)
			return func() error { return err }
		}
		return func() error {
			err := d.Step()
			if err != nil {
				d.Release()
			}
			return err
		}
	}
}

// NewDemo builds the trail and marker on a software device bound to the
// host framebuffer.
func NewDemo(h hal.HAL, cfg config.Config) (*Demo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Demo{cfg: cfg, log: h.Logger(), font: font6x8.Font}
	if disp := h.Display(); disp != nil {
		d.fb = disp.Framebuffer()
	}
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return nil, ErrDisplay
	}
	if in := h.Input(); in != nil {
		d.kbd = in.Keyboard()
	}
	if t := h.Time(); t != nil {
		d.ticks = t.Ticks()
	}

	d.dev = quarkgl.NewDevice()
	var err error
	d.trail, err = trail.FromPoint(d.dev, cfg.Capacity, d.orbitPoint(0), trail.WithColor(cfg.TrailColor()))
	if err != nil {
		return nil, err
	}
	if d.marker, err = newMarker(d.dev, markerSize*cfg.OrbitRadius); err != nil {
		d.trail.Release()
		return nil, err
	}

	d.cam = quarkgl.DefaultCamera()
	d.cam.EyeSeparation = cfg.EyeSeparation
	d.orbit = quarkgl.OrbitController{
		Radius:    3.2 * cfg.OrbitRadius,
		Pitch:     0.35,
		MinRadius: 1.2 * cfg.OrbitRadius,
		MaxRadius: 12 * cfg.OrbitRadius,
	}
	d.orbit.Apply(&d.cam)

	logLine(d.log, "trail: capacity=%d push_interval=%dms color=%s stereo=%t build=%s",
		cfg.Capacity, cfg.PushIntervalMS, cfg.Color, cfg.EyeSeparation > 0, buildinfo.Short())
	return d, nil
}

// Step handles pending input, pushes the points due since the last step and
// renders a frame. It returns hal.ErrStop when the user quits.
func (d *Demo) Step() error {
	if err := d.input(); err != nil {
		return err
	}
	d.advance()
	return d.render()
}

// Release frees the GPU resources. Safe to call more than once.
func (d *Demo) Release() {
	if d.trail != nil {
		d.trail.Release()
	}
	if d.marker != nil {
		d.marker.release()
	}
}

// Trail exposes the renderer for inspection.
func (d *Demo) Trail() *trail.Renderer { return d.trail }

func (d *Demo) Paused() bool { return d.paused }

func (d *Demo) input() error {
	if d.kbd == nil {
		return nil
	}
	for {
		select {
		case ev := <-d.kbd.Events():
			if err := d.handleKey(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (d *Demo) handleKey(ev hal.KeyEvent) error {
	if !ev.Press {
		return nil
	}
	switch ev.Code {
	case hal.KeyEscape:
		return hal.ErrStop
	case hal.KeyUp:
		d.orbit.Rotate(0, rotateStep)
	case hal.KeyDown:
		d.orbit.Rotate(0, -rotateStep)
	case hal.KeyLeft:
		d.orbit.Rotate(-rotateStep, 0)
	case hal.KeyRight:
		d.orbit.Rotate(rotateStep, 0)
	}
	switch ev.Rune {
	case 'q', 'Q':
		return hal.ErrStop
	case 'w', 'W':
		d.orbit.Rotate(0, rotateStep)
	case 's', 'S':
		d.orbit.Rotate(0, -rotateStep)
	case 'a', 'A':
		d.orbit.Rotate(-rotateStep, 0)
	case 'd', 'D':
		d.orbit.Rotate(rotateStep, 0)
	case '+', '=':
		d.orbit.Zoom(-zoomStep)
	case '-', '_':
		d.orbit.Zoom(zoomStep)
	case 'c', 'C':
		d.cycleColor()
	case 'p', 'P':
		d.paused = !d.paused
		logLine(d.log, "trail: paused=%t pushes=%d", d.paused, d.trail.Pushes())
	}
	d.orbit.Apply(&d.cam)
	return nil
}

func (d *Demo) cycleColor() {
	d.colorIdx = (d.colorIdx + 1) % (len(palette) + 1)
	c := d.cfg.TrailColor()
	if d.colorIdx > 0 {
		c = palette[d.colorIdx-1]
	}
	d.trail.SetColor(c)
	logLine(d.log, "trail: color=%.2f,%.2f,%.2f", c.X, c.Y, c.Z)
}

// advance consumes host ticks and pushes one point per elapsed interval.
// A stall longer than a full ring pushes at most Capacity points.
func (d *Demo) advance() {
	for drained := false; !drained; {
		select {
		case v := <-d.ticks:
			d.now = v
		default:
			drained = true
		}
	}

	interval := uint64(d.cfg.PushIntervalMS)
	if !d.started || d.paused {
		d.started = true
		d.nextPush = d.now + interval
		return
	}
	dphi := d.cfg.OrbitSpeed * float32(interval) / 1000
	for n := 0; d.now >= d.nextPush && n < d.trail.Capacity(); n++ {
		d.phi += dphi
		d.trail.Push(d.orbitPoint(d.phi))
		d.nextPush += interval
	}
	if d.now >= d.nextPush {
		d.nextPush = d.now + interval
	}
}

// orbitPoint is the object position at angle phi: a circle tilted about X
// with a small vertical wobble.
func (d *Demo) orbitPoint(phi float32) vmath.Vec3 {
	r := d.cfg.OrbitRadius
	s, c := math32.Sincos(phi)
	st, ct := math32.Sincos(orbitTilt)
	wobble := 0.15 * r * math32.Sin(3*phi)
	return vmath.V3(r*c, r*s*ct+wobble, r*s*st)
}

func (d *Demo) render() error {
	passes := 1
	if d.cam.EyeSeparation > 0 {
		passes = 2
	}
	for pass := 0; pass < passes; pass++ {
		t := viewport(d.fb, pass, passes)
		d.dev.Frame(t, background)
		d.cam.Aspect = float32(t.W) / float32(t.H)
		if err := d.trail.Render(pass, &d.cam); err != nil {
			return d.fail(err)
		}
		if err := d.marker.draw(pass, &d.cam, d.trail.Head(), d.trail.Color()); err != nil {
			return d.fail(err)
		}
	}
	d.drawHUD()
	return d.fb.Present()
}

func (d *Demo) drawHUD() {
	disp := newDisplayer(d.fb)
	lh := int(d.font.GetYAdvance()) + 2
	write, index := d.trail.Cursors()
	lines := []string{
		"quarktrail " + buildinfo.Short(),
		fmt.Sprintf("cap %d  pushes %d", d.trail.Capacity(), d.trail.Pushes()),
		fmt.Sprintf("cursor %d/%d", write, index),
	}
	if d.paused {
		lines = append(lines, "paused")
	}
	for i, s := range lines {
		writeLine(disp, d.font, 4, 4+i*lh, s, hudColor)
	}
	if y := d.fb.Height() - lh; y > 4+len(lines)*lh {
		writeLine(disp, d.font, 4, y, "wasd +- c p q", hintColor)
	}
}

// fail logs err, paints the failure screen and returns err.
func (d *Demo) fail(err error) error {
	lines := failureLines(err)
	for _, l := range lines {
		d.log.WriteLineString(l)
	}
	drawFailure(d.fb, d.font, lines)
	return err
}

func logLine(l hal.Logger, format string, args ...any) {
	if l == nil {
		return
	}
	l.WriteLineString(fmt.Sprintf(format, args...))
}
