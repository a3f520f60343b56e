package app

import (
	"image/color"
	"strings"
	"unicode/utf8"

	"quarktrail/hal"

	"tinygo.org/x/tinyfont"
)

// failureLines splits err into the lines shown on the failure screen, one per
// wrapping context.
func failureLines(err error) []string {
	lines := []string{"trail stopped:"}
	for _, part := range strings.Split(err.Error(), ": ") {
		if part != "" {
			lines = append(lines, part)
		}
	}
	return lines
}

// drawFailure fills fb with the failure screen for lines, wrapping at the
// display width and dropping what does not fit.
func drawFailure(fb hal.Framebuffer, font tinyfont.Fonter, lines []string) {
	fb.ClearRGB(0x60, 0x00, 0x00)
	d := newDisplayer(fb)
	fg := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	_, outboxWidth := tinyfont.LineWidth(font, "0")
	fontWidth := int(outboxWidth)
	fontHeight := int(font.GetYAdvance())
	if fontWidth <= 0 || fontHeight <= 0 {
		_ = fb.Present()
		return
	}
	cols := fb.Width() / fontWidth
	if cols <= 0 {
		cols = 1
	}

	y := 0
	for _, line := range lines {
		for len(line) > 0 {
			if y+fontHeight > fb.Height() {
				_ = fb.Present()
				return
			}
			chunk, rest := takeRunes(line, cols)
			writeLine(d, font, 0, y, chunk, fg)
			y += fontHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
	_ = fb.Present()
}

func takeRunes(s string, n int) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	i, count := 0, 0
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], s[i:]
}
