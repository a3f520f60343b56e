package quarkgl

import (
	"errors"
	"strings"
	"testing"

	"quarktrail/gpu"
)

const testVS = `#version 100
// flat line program
attribute vec3 position;
uniform   vec3 color;
varying   vec3 vColor;
uniform   mat4 proj;
uniform   mat4 view;
void main() {
    gl_Position = proj * view * vec4(position, 1.0);
    vColor = color; /* pass through */
}`

const testFS = `#version 100
#ifdef GL_FRAGMENT_PRECISION_HIGH
   precision highp float;
#else
   precision mediump float;
#endif
varying vec3 vColor;
void main() {
    gl_FragColor = vec4(vColor, 1.0);
}`

func TestCompileLineProgram(t *testing.T) {
	d := NewDevice()
	p, err := d.Compile(testVS, testFS)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	prog := p.(*Program)
	if len(prog.chain) != 2 || prog.chain[0].name != "proj" || prog.chain[1].name != "view" {
		t.Fatalf("position chain not proj*view")
	}
	if prog.posAttr.name != "position" {
		t.Fatalf("position attribute = %q", prog.posAttr.name)
	}
	if prog.color.name != "color" {
		t.Fatalf("color source = %q", prog.color.name)
	}
	for _, name := range []string{"proj", "view"} {
		if _, err := p.Mat4Uniform(name); err != nil {
			t.Fatalf("Mat4Uniform(%q): %v", name, err)
		}
	}
	if _, err := p.Vec3Uniform("color"); err != nil {
		t.Fatalf("Vec3Uniform: %v", err)
	}
	if _, err := p.Attribute("position"); err != nil {
		t.Fatalf("Attribute: %v", err)
	}
}

func TestMissingBindings(t *testing.T) {
	d := NewDevice()
	p, err := d.Compile(testVS, testFS)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := p.Attribute("normal"); !errors.Is(err, gpu.ErrNoSuchBinding) {
		t.Fatalf("Attribute(normal) err = %v", err)
	}
	if _, err := p.Mat4Uniform("color"); !errors.Is(err, gpu.ErrNoSuchBinding) {
		t.Fatalf("Mat4Uniform(color) err = %v", err)
	}
	if _, err := p.Vec3Uniform("proj"); !errors.Is(err, gpu.ErrNoSuchBinding) {
		t.Fatalf("Vec3Uniform(proj) err = %v", err)
	}
}

func TestFragmentReadsUniformDirectly(t *testing.T) {
	fs := `#version 100
precision mediump float;
uniform vec3 tint;
void main() { gl_FragColor = vec4(tint, 1.0); }`
	vs := `#version 100
attribute highp vec3 pos;
uniform mat4 mvp;
void main() { gl_Position = mvp * vec4(pos, 1.0); }`
	p, err := NewDevice().Compile(vs, fs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p.(*Program).color.name != "tint" {
		t.Fatalf("color source = %q", p.(*Program).color.name)
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name   string
		vs, fs string
		want   error
	}{
		{"no version", strings.Replace(testVS, "#version 100", "", 1), testFS, gpu.ErrCompile},
		{"wrong version", strings.Replace(testVS, "#version 100", "#version 330", 1), testFS, gpu.ErrCompile},
		{"empty", "", testFS, gpu.ErrCompile},
		{"no main", "#version 100\nattribute vec3 p;", testFS, gpu.ErrCompile},
		{"no position", strings.Replace(testVS, "gl_Position = proj * view * vec4(position, 1.0);", "", 1), testFS, gpu.ErrCompile},
		{"no frag color", testVS, strings.Replace(testFS, "gl_FragColor = vec4(vColor, 1.0);", "", 1), gpu.ErrCompile},
		{"bad type", strings.Replace(testVS, "uniform   vec3 color", "uniform ivec3 color", 1), testFS, gpu.ErrCompile},
		{"attribute in fragment", testVS, strings.Replace(testFS, "varying vec3 vColor;", "varying vec3 vColor;\nattribute vec3 p;", 1), gpu.ErrCompile},
		{"unsupported statement", strings.Replace(testVS, "vColor = color;", "vColor = color; discard;", 1), testFS, gpu.ErrCompile},
		{"position from uniform", strings.Replace(testVS, "vec4(position, 1.0)", "vec4(color, 1.0)", 1), testFS, gpu.ErrCompile},
		{"chain with vec3", strings.Replace(testVS, "proj * view", "proj * color", 1), testFS, gpu.ErrCompile},
		{"redeclared", strings.Replace(testVS, "uniform   mat4 view;", "uniform   mat4 view;\nuniform mat4 view;", 1), testFS, gpu.ErrCompile},
		{"varying not declared", strings.Replace(testVS, "varying   vec3 vColor;", "", 1), testFS, gpu.ErrCompile},
		{"varying not written", strings.Replace(testVS, "vColor = color;", "", 1), testFS, gpu.ErrLink},
		{"varying unknown to vertex", testVS, strings.ReplaceAll(testFS, "vColor", "vTint"), gpu.ErrLink},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDevice()
			_, err := d.Compile(tc.vs, tc.fs)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Compile err = %v, want %v", err, tc.want)
			}
			if d.Stats().Programs != 0 {
				t.Fatalf("program counted after failure")
			}
		})
	}
}

func TestStripComments(t *testing.T) {
	got := stripComments("a // x\nb /* y\nz */ c")
	if got != "a \nb  c" {
		t.Fatalf("stripComments = %q", got)
	}
}
