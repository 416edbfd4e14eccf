package msl

import (
	"fmt"
	"strings"

	"github.com/gogpu/psc/dialect"
	"github.com/gogpu/psc/ir"
)

// Writer generates MSL source code for a whole unit.
type Writer struct {
	unit    *ir.Unit
	layout  *ir.Layout
	options *Options

	// Output buffer
	out strings.Builder

	// Shared structs are written before the first vertex or fragment entry.
	wroteTypes bool

	rewrites int
}

// newWriter creates a new MSL writer.
func newWriter(unit *ir.Unit, layout *ir.Layout, options *Options) *Writer {
	return &Writer{
		unit:    unit,
		layout:  layout,
		options: options,
	}
}

// String returns the generated MSL source code.
func (w *Writer) String() string {
	return w.out.String()
}

// writeModule writes the header, then the body with every sentinel replaced,
// the common data inserted at its marker and uniform accesses rewritten.
func (w *Writer) writeModule() {
	w.writeHeader()

	body := &Writer{unit: w.unit, layout: w.layout, options: w.options}
	for _, f := range w.unit.Module.Body {
		switch f.Kind {
		case ir.FragmentText:
			body.out.WriteString(f.Text)
		case ir.FragmentCommonData:
			body.out.WriteString(w.unit.CommonData)
		case ir.FragmentBegin:
			body.writeEntryBegin(f.Stage)
		case ir.FragmentEnd:
			body.writeEntryEnd(f.Stage)
		}
	}

	text, n := rewritePointerAccess(body.String())
	w.rewrites = n
	w.out.WriteString(text)
	w.out.WriteByte('\n')
}

// writeTypes writes SpecUBO, InVert and OutVert.
func (w *Writer) writeTypes() {
	w.writeLine("struct SpecUBO {")
	for _, b := range w.layout.Uniforms {
		w.writeLine("  %s %s;", b.Type, b.Name)
	}
	w.writeLine("};")

	w.writeLine("struct InVert {")
	for _, b := range w.layout.VertexInputs {
		w.writeLine("  %s %s[[attribute(%d)]];", b.Type, b.Name, b.Index)
	}
	w.writeLine("};")

	w.writeLine("struct OutVert {")
	w.writeLine("  float4 gl_Position[[position]];")
	w.writeLine("  float  gl_PointSize[[point_size]];")
	for _, b := range w.layout.VertexOutputs {
		w.writeLine("  %s %s;", b.Type, b.Name)
	}
	w.writeLine("};")
}

// writeEntryBegin replaces a begin sentinel with the entry signature and the
// locals that give the body GLSL-style access to inputs and outputs.
func (w *Writer) writeEntryBegin(s ir.Stage) {
	if s != ir.StageCompute && !w.wroteTypes {
		w.writeTypes()
		w.wroteTypes = true
	}

	switch s {
	case ir.StageVertex:
		fmt.Fprintf(&w.out, "vertex OutVert %s(uint vertexID [[vertex_id]], InVert in_data [[stage_in]], %s", VertexEntry, w.uniformParams())
		w.writeTextureParams()
		w.writeLine("){")
		w.writeLine("  OutVert out;")
		for _, b := range w.layout.VertexInputs {
			w.writeLine("  %s %s = in_data.%s;", b.Type, b.Name, b.Name)
		}
		w.writeLine("  float4 gl_Position;")
		for _, b := range w.layout.VertexOutputs {
			w.writeLine("  %s %s;", b.Type, b.Name)
		}

	case ir.StageFragment:
		fmt.Fprintf(&w.out, "fragment float4 %s(OutVert in [[stage_in]], %s", FragmentEntry, w.uniformParams())
		w.writeTextureParams()
		w.writeLine(")")
		w.writeLine("{")
		w.writeLine("  float4 out_color;")
		for _, b := range w.layout.VertexOutputs {
			w.writeLine("  %s %s = in.%s;", b.Type, b.Name, b.Name)
		}

	case ir.StageCompute:
		fmt.Fprintf(&w.out, "kernel void %s(uint3 gl_GlobalInvocationID [[thread_position_in_grid]]", KernelEntry)
		for _, b := range w.layout.Images {
			w.out.WriteString(",")
			w.out.WriteString(imageParam(b))
		}
		w.writeLine("){")
	}
}

// writeEntryEnd replaces an end sentinel.
func (w *Writer) writeEntryEnd(s ir.Stage) {
	switch s {
	case ir.StageVertex:
		w.writeLine("  out.gl_Position = gl_Position;")
		w.writeLine("  out.gl_PointSize = %s;", w.options.PointSize)
		for _, b := range w.layout.VertexOutputs {
			w.writeLine("  out.%s = %s;", b.Name, b.Name)
		}
		w.writeLine("  return out;")
		w.writeLine("}")
	case ir.StageFragment:
		w.writeLine("  return out_color;")
		w.out.WriteString("}")
	case ir.StageCompute:
		w.writeLine("}")
	}
}

func (w *Writer) uniformParams() string {
	return fmt.Sprintf("constant const CmUBO   *in_glob [[buffer(%d)]], constant const SpecUBO *in_spec [[buffer(%d)]]",
		w.options.GlobalBuffer, w.options.SpecBuffer)
}

func (w *Writer) writeTextureParams() {
	for _, b := range w.layout.Textures {
		w.out.WriteString(",\n    ")
		w.out.WriteString(textureParam(b))
	}
}

// writeLine writes a line and a newline.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// rewritePointerAccess turns glob.x into in_glob->x and spec.x into
// in_spec->x. Only whole identifiers outside comments and strings are
// rewritten.
func rewritePointerAccess(src string) (string, int) {
	tokens := dialect.Tokenize(src)
	var sb strings.Builder
	sb.Grow(len(src))
	n := 0
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if isPointerScope(tok) && i+1 < len(tokens) && tokens[i+1].Kind == dialect.TokenPunct && tokens[i+1].Lexeme == "." {
			sb.WriteString("in_")
			sb.WriteString(tok.Lexeme)
			sb.WriteString("->")
			i++ // the dot
			n++
			continue
		}
		sb.WriteString(tok.Lexeme)
	}
	return sb.String(), n
}

// isPointerScope reports whether tok names a uniform scope that MSL passes
// by pointer.
func isPointerScope(tok dialect.Token) bool {
	return tok.Kind == dialect.TokenIdent && (tok.Lexeme == "glob" || tok.Lexeme == "spec")
}
