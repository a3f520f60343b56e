package hal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
)

// RunTerminal renders the framebuffer into the controlling terminal with
// upper-half-block cells, two pixel rows per text row. Options.Width and
// Options.Height are ignored; the framebuffer follows the terminal size.
func RunTerminal(ctx context.Context, opts Options, newApp NewAppFunc) error {
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	return runTerminal(ctx, s, opts, newApp)
}

func runTerminal(ctx context.Context, s tcell.Screen, opts Options, newApp NewAppFunc) error {
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()
	s.HideCursor()

	cols, rows := s.Size()
	opts.Width, opts.Height = cols, rows*2
	opts = opts.withDefaults()
	h := newHost(opts)
	step := newApp(h)

	events := make(chan tcell.Event, 64)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := s.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	t := time.NewTicker(time.Second / time.Duration(opts.Hz))
	defer t.Stop()

	var scratch []byte
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if !handleTerminalEvent(s, h, ev) {
				return nil
			}
		case <-t.C:
			h.t.step()
			if step != nil {
				if err := step(); err != nil {
					return stopped(err)
				}
			}
			scratch = drawTerminal(s, h.fb, scratch)
		}
	}
}

// handleTerminalEvent forwards ev to the host and reports whether to keep running.
func handleTerminalEvent(s tcell.Screen, h *hostHAL, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ke, ok := terminalKey(ev); ok {
			h.kbd.emit(ke)
		}
	case *tcell.EventResize:
		cols, rows := s.Size()
		if h.fb.resize(cols, rows*2) {
			s.Sync()
		}
	}
	return true
}

var terminalKeys = map[tcell.Key]KeyCode{
	tcell.KeyUp:        KeyUp,
	tcell.KeyDown:      KeyDown,
	tcell.KeyLeft:      KeyLeft,
	tcell.KeyRight:     KeyRight,
	tcell.KeyEnter:     KeyEnter,
	tcell.KeyEscape:    KeyEscape,
	tcell.KeyBackspace: KeyBackspace,
	tcell.KeyTab:       KeyTab,
}

// terminalKey maps a tcell key to a press event. Terminals report no
// releases.
func terminalKey(ev *tcell.EventKey) (KeyEvent, bool) {
	if ev.Key() == tcell.KeyRune {
		return KeyEvent{Press: true, Rune: ev.Rune()}, true
	}
	code, ok := terminalKeys[ev.Key()]
	if !ok {
		return KeyEvent{}, false
	}
	return KeyEvent{Code: code, Press: true}, true
}

// drawTerminal paints fb with one '▀' per cell: foreground is the upper
// pixel, background the lower one.
func drawTerminal(s tcell.Screen, fb *hostFramebuffer, scratch []byte) []byte {
	scratch = fb.snapshot(scratch)
	w, h := fb.Width(), fb.Height()
	stride := w * 2
	for y := 0; y+1 < h; y += 2 {
		for x := 0; x < w; x++ {
			top := y*stride + x*2
			bot := top + stride
			if bot+1 >= len(scratch) {
				break
			}
			tr, tg, tb := pixelAt(scratch, top)
			br, bg, bb := pixelAt(scratch, bot)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(tr), int32(tg), int32(tb))).
				Background(tcell.NewRGBColor(int32(br), int32(bg), int32(bb)))
			s.SetContent(x, y/2, '▀', nil, style)
		}
	}
	s.Show()
	return scratch
}
