package app

import (
	"image/color"

	"quarktrail/hal"
	"quarktrail/quarkgl"

	"tinygo.org/x/tinyfont"
)

// fbDisplayer adapts an RGB565 framebuffer to drivers.Displayer for tinyfont.
type fbDisplayer struct {
	t quarkgl.RGB565Target
}

func newDisplayer(fb hal.Framebuffer) *fbDisplayer {
	return &fbDisplayer{t: fullTarget(fb)}
}

func (d *fbDisplayer) Size() (x, y int16) { return int16(d.t.W), int16(d.t.H) }
func (d *fbDisplayer) Display() error     { return nil }

func (d *fbDisplayer) SetPixel(x, y int16, c color.RGBA) {
	d.t.SetPixel(int(x), int(y), quarkgl.RGB(c.R, c.G, c.B))
}

// writeLine draws s with its top edge at y.
func writeLine(d *fbDisplayer, font tinyfont.Fonter, x, y int, s string, c color.RGBA) {
	tinyfont.WriteLine(d, font, int16(x), int16(y)+int16(font.GetYAdvance())-1, s, c)
}

func fullTarget(fb hal.Framebuffer) quarkgl.RGB565Target {
	return quarkgl.RGB565Target{
		Buf:    fb.Buffer(),
		Stride: fb.StrideBytes(),
		W:      fb.Width(),
		H:      fb.Height(),
	}
}

// viewport returns the i-th of n side-by-side columns of fb.
func viewport(fb hal.Framebuffer, i, n int) *quarkgl.RGB565Target {
	t := fullTarget(fb)
	w := t.W / n
	t.Buf = t.Buf[i*w*2:]
	t.W = w
	return &t
}
