//go:build cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// RunWindow starts a desktop window that displays the framebuffer and forwards keyboard input.
// It blocks until the window closes or the step function fails.
func RunWindow(opts Options, newApp NewAppFunc) error {
	opts = opts.withDefaults()
	h := newHost(opts)
	step := newApp(h)

	g := &hostGame{h: h, step: step}
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(opts.Width*opts.Scale, opts.Height*opts.Scale)
	ebiten.SetTPS(opts.Hz)
	return stopped(ebiten.RunGame(g))
}

type hostGame struct {
	h       *hostHAL
	step    StepFunc
	fbImg   *ebiten.Image
	scratch []byte
	rgba    []byte
}

var windowKeys = []struct {
	key  ebiten.Key
	code KeyCode
}{
	{ebiten.KeyArrowUp, KeyUp},
	{ebiten.KeyArrowDown, KeyDown},
	{ebiten.KeyArrowLeft, KeyLeft},
	{ebiten.KeyArrowRight, KeyRight},
	{ebiten.KeyEnter, KeyEnter},
	{ebiten.KeyEscape, KeyEscape},
	{ebiten.KeyBackspace, KeyBackspace},
	{ebiten.KeyTab, KeyTab},
}

func (g *hostGame) poll() {
	kbd := g.h.kbd
	for _, r := range ebiten.AppendInputChars(nil) {
		kbd.text(r)
	}
	for _, k := range windowKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			kbd.key(k.code, true)
		}
		if inpututil.IsKeyJustReleased(k.key) {
			kbd.key(k.code, false)
		}
	}
}

func (g *hostGame) Update() error {
	g.poll()
	g.h.t.step()
	if g.step == nil {
		return nil
	}
	if err := g.step(); err != nil {
		if stopped(err) == nil {
			return ebiten.Termination
		}
		return err
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	g.scratch = fb.snapshot(g.scratch)
	w, h := fb.Width(), fb.Height()
	if g.fbImg == nil || g.fbImg.Bounds().Dx() != w || g.fbImg.Bounds().Dy() != h {
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(w, h)
		g.rgba = make([]byte, w*h*4)
	}

	for i, j := 0, 0; i+1 < len(g.scratch) && j+3 < len(g.rgba); i, j = i+2, j+4 {
		g.rgba[j], g.rgba[j+1], g.rgba[j+2] = pixelAt(g.scratch, i)
		g.rgba[j+3] = 0xFF
	}
	g.fbImg.WritePixels(g.rgba)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.Width(), g.h.fb.Height()
}
