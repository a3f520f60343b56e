package quarkgl

import (
	"image/color"

	"quarktrail/vmath"
)

// Color is an RGBA color in 8-bit channels.
type Color struct {
	R, G, B, A uint8
}

func RGB(r, g, b uint8) Color     { return Color{R: r, G: g, B: b, A: 0xFF} }
func RGBA(r, g, b, a uint8) Color { return Color{R: r, G: g, B: b, A: a} }

// ColorFromVec3 converts a [0,1] RGB triple, as held in a vec3 uniform, to a Color.
func ColorFromVec3(v vmath.Vec3) Color {
	return Color{
		R: uint8(vmath.Clamp01(v.X)*255 + 0.5),
		G: uint8(vmath.Clamp01(v.Y)*255 + 0.5),
		B: uint8(vmath.Clamp01(v.Z)*255 + 0.5),
		A: 0xFF,
	}
}

func (c Color) MulScalar(s float32) Color {
	s = vmath.Clamp01(s)
	t := uint32(s * 255)
	mul := func(ch uint8) uint8 {
		return uint8((uint32(ch) * t) / 255)
	}
	return Color{R: mul(c.R), G: mul(c.G), B: mul(c.B), A: c.A}
}

func (c Color) WithAlpha(a uint8) Color { c.A = a; return c }

// StdRGBA returns c as a standard library color, for font and display drivers.
func (c Color) StdRGBA() color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A} }
