package quarkgl

import (
	"fmt"
	"strings"

	"quarktrail/gpu"
)

type stageKind uint8

const (
	vertexStage stageKind = iota
	fragmentStage
)

func (k stageKind) String() string {
	if k == vertexStage {
		return "vertex"
	}
	return "fragment"
}

type decl struct {
	qualifier string // attribute, uniform or varying
	typ       string
	name      string
}

// shaderStage is the parsed interface and output expressions of one stage.
type shaderStage struct {
	kind  stageKind
	decls map[string]decl

	// varying name -> uniform it is assigned from.
	assigns map[string]string

	// Vertex: gl_Position = chain[0] * ... * vec4(posAttr, 1.0).
	chain   []string
	posAttr string

	// Fragment: gl_FragColor = vec4(fragColor, 1.0).
	fragColor string
}

var glslTypes = map[string]bool{
	"float": true,
	"vec2":  true,
	"vec3":  true,
	"vec4":  true,
	"mat4":  true,
}

var precisions = map[string]bool{
	"lowp":    true,
	"mediump": true,
	"highp":   true,
}

func compileStage(kind stageKind, src string) (*shaderStage, error) {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", gpu.ErrCompile, kind, fmt.Sprintf(format, args...))
	}

	src = stripComments(src)
	lines := strings.Split(src, "\n")
	first := -1
	var body strings.Builder
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if first < 0 {
			first = i
			if strings.Join(strings.Fields(t), " ") != "#version 100" {
				return nil, fail("first directive must be #version 100, got %q", t)
			}
			continue
		}
		// Conditional precision blocks are accepted and ignored.
		if strings.HasPrefix(t, "#") {
			continue
		}
		body.WriteString(t)
		body.WriteByte('\n')
	}
	if first < 0 {
		return nil, fail("empty source")
	}

	text := body.String()
	mainAt := strings.Index(text, "void main")
	if mainAt < 0 {
		return nil, fail("missing main")
	}
	open := strings.Index(text[mainAt:], "{")
	end := strings.LastIndex(text, "}")
	if open < 0 || end < mainAt+open {
		return nil, fail("malformed main")
	}
	if sig := strings.Join(strings.Fields(text[mainAt:mainAt+open]), ""); sig != "voidmain()" {
		return nil, fail("unexpected main signature %q", sig)
	}
	if rest := strings.TrimSpace(text[end+1:]); rest != "" {
		return nil, fail("unexpected text after main: %q", rest)
	}

	st := &shaderStage{
		kind:    kind,
		decls:   make(map[string]decl),
		assigns: make(map[string]string),
	}
	for _, stmt := range strings.Split(text[:mainAt], ";") {
		if err := st.declare(stmt); err != nil {
			return nil, fail("%v", err)
		}
	}
	for _, stmt := range strings.Split(text[mainAt+open+1:end], ";") {
		if err := st.statement(stmt); err != nil {
			return nil, fail("%v", err)
		}
	}

	switch kind {
	case vertexStage:
		if st.posAttr == "" {
			return nil, fail("gl_Position is never written")
		}
	case fragmentStage:
		if st.fragColor == "" {
			return nil, fail("gl_FragColor is never written")
		}
	}
	return st, nil
}

func (st *shaderStage) declare(stmt string) error {
	f := strings.Fields(stmt)
	if len(f) == 0 {
		return nil
	}
	if f[0] == "precision" {
		if len(f) != 3 || !precisions[f[1]] || f[2] != "float" {
			return fmt.Errorf("bad precision statement %q", strings.Join(f, " "))
		}
		return nil
	}
	q := f[0]
	switch q {
	case "attribute", "uniform", "varying":
	default:
		return fmt.Errorf("unsupported declaration %q", strings.Join(f, " "))
	}
	f = f[1:]
	if len(f) == 3 && precisions[f[0]] {
		f = f[1:]
	}
	if len(f) != 2 {
		return fmt.Errorf("malformed %s declaration", q)
	}
	typ, name := f[0], f[1]
	if !glslTypes[typ] {
		return fmt.Errorf("unsupported type %q for %s", typ, name)
	}
	if !isIdent(name) {
		return fmt.Errorf("bad identifier %q", name)
	}
	if q == "attribute" && st.kind != vertexStage {
		return fmt.Errorf("attribute %s outside vertex stage", name)
	}
	if _, dup := st.decls[name]; dup {
		return fmt.Errorf("%s redeclared", name)
	}
	st.decls[name] = decl{qualifier: q, typ: typ, name: name}
	return nil
}

func (st *shaderStage) statement(stmt string) error {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return nil
	}
	lhs, rhs, ok := strings.Cut(stmt, "=")
	if !ok {
		return fmt.Errorf("unsupported statement %q", stmt)
	}
	lhs = strings.TrimSpace(lhs)
	rhs = strings.Join(strings.Fields(rhs), "")

	switch {
	case lhs == "gl_Position" && st.kind == vertexStage:
		return st.position(rhs)
	case lhs == "gl_FragColor" && st.kind == fragmentStage:
		v, err := vec4Of(rhs)
		if err != nil {
			return err
		}
		d, ok := st.decls[v]
		if !ok || d.typ != "vec3" || (d.qualifier != "varying" && d.qualifier != "uniform") {
			return fmt.Errorf("gl_FragColor source %q is not a vec3 varying or uniform", v)
		}
		st.fragColor = v
		return nil
	}

	d, ok := st.decls[lhs]
	if !ok || d.qualifier != "varying" || st.kind != vertexStage {
		return fmt.Errorf("cannot assign to %q", lhs)
	}
	src, ok := st.decls[rhs]
	if !ok || src.qualifier != "uniform" || src.typ != d.typ {
		return fmt.Errorf("varying %s must be assigned a %s uniform, got %q", lhs, d.typ, rhs)
	}
	st.assigns[lhs] = rhs
	return nil
}

func (st *shaderStage) position(rhs string) error {
	terms := strings.Split(rhs, "*")
	attr, err := vec4Of(terms[len(terms)-1])
	if err != nil {
		return fmt.Errorf("gl_Position: %v", err)
	}
	d, ok := st.decls[attr]
	if !ok || d.qualifier != "attribute" || d.typ != "vec3" {
		return fmt.Errorf("gl_Position: %q is not a vec3 attribute", attr)
	}
	chain := make([]string, 0, len(terms)-1)
	for _, term := range terms[:len(terms)-1] {
		d, ok := st.decls[term]
		if !ok || d.qualifier != "uniform" || d.typ != "mat4" {
			return fmt.Errorf("gl_Position: %q is not a mat4 uniform", term)
		}
		chain = append(chain, term)
	}
	st.chain = chain
	st.posAttr = attr
	return nil
}

// vec4Of accepts vec4(name,1.0) with whitespace already removed.
func vec4Of(expr string) (string, error) {
	inner, ok := strings.CutPrefix(expr, "vec4(")
	if !ok || !strings.HasSuffix(inner, ")") {
		return "", fmt.Errorf("expected vec4(v, 1.0), got %q", expr)
	}
	inner = strings.TrimSuffix(inner, ")")
	name, w, ok := strings.Cut(inner, ",")
	if !ok || (w != "1.0" && w != "1." && w != "1") {
		return "", fmt.Errorf("expected vec4(v, 1.0), got %q", expr)
	}
	if !isIdent(name) {
		return "", fmt.Errorf("bad identifier %q", name)
	}
	return name, nil
}

func stripComments(src string) string {
	var b strings.Builder
	for i := 0; i < len(src); i++ {
		switch {
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				b.WriteByte('\n')
			}
		case strings.HasPrefix(src[i:], "/*"):
			j := strings.Index(src[i+2:], "*/")
			if j < 0 {
				return b.String()
			}
			i += j + 3
		default:
			b.WriteByte(src[i])
		}
	}
	return b.String()
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// link checks the stages against each other and resolves the flat color source.
func link(vs, fs *shaderStage) (colorUniform string, err error) {
	for name, fd := range fs.decls {
		vd, ok := vs.decls[name]
		switch fd.qualifier {
		case "varying":
			if !ok || vd.qualifier != "varying" || vd.typ != fd.typ {
				return "", fmt.Errorf("%w: varying %s not declared by vertex stage", gpu.ErrLink, name)
			}
			if _, assigned := vs.assigns[name]; !assigned {
				return "", fmt.Errorf("%w: varying %s never written by vertex stage", gpu.ErrLink, name)
			}
		case "uniform":
			if ok && (vd.qualifier != "uniform" || vd.typ != fd.typ) {
				return "", fmt.Errorf("%w: uniform %s declared differently in each stage", gpu.ErrLink, name)
			}
		}
	}
	src := fs.decls[fs.fragColor]
	if src.qualifier == "uniform" {
		return src.name, nil
	}
	return vs.assigns[src.name], nil
}
