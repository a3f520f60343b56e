// Package quarkgl is a small software GPU device.
//
// It implements the gpu contracts (buffers, programs, attributes, uniforms and
// indexed draws) over a caller-provided pixel Target. It is meant for
// visualization of line work such as trails, plus flat-shaded markers; it is
// not a general GLSL implementation.
//
// Pipeline (fixed):
//
//	Buffers → Program (position = M1 * … * Mn * vec4(attr, 1)) → Clip → Rasterize → Target.
//
// Shader sources are GLSL ES 1.00. Compile reads their interface (attributes,
// uniforms, varyings) and the gl_Position / gl_FragColor expressions, and
// rejects anything outside that shape. Errors raised while drawing are
// recorded GL-style and reported by Verify.
//
// The device avoids allocations in the draw hot path; reuse it across frames.
package quarkgl
