// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/psc/ir"
)

// Writer generates the GLSL source of one stage.
type Writer struct {
	unit    *ir.Unit
	layout  *ir.Layout
	options *Options
	stage   ir.Stage

	// Output buffer
	out strings.Builder

	// Current indentation level
	indent int
}

// newWriter creates a new GLSL writer for stage.
func newWriter(unit *ir.Unit, layout *ir.Layout, options *Options, stage ir.Stage) *Writer {
	return &Writer{
		unit:    unit,
		layout:  layout,
		options: options,
		stage:   stage,
	}
}

// String returns the generated GLSL source code.
func (w *Writer) String() string {
	return w.out.String()
}

// writeStage writes the shared header, the stage's resource header and the
// stage body with its sentinels replaced by prologue and epilogue.
func (w *Writer) writeStage() {
	w.writeHeader()

	switch w.stage {
	case ir.StageVertex, ir.StageFragment:
		w.writeTextures()
	case ir.StageCompute:
		w.writeComputeLayout()
		w.writeImages()
	}

	w.writeBody()
}

// writeHeader writes the part every stage shares.
func (w *Writer) writeHeader() {
	w.writeLine("#version %s", w.options.LangVersion.String())
	w.writePrecisionQualifiers()

	// The Metal path gives these macros meaning; here they expand to nothing.
	w.writeLine("#define USE_TEXTURES")
	w.writeLine("#define PASS_TEXTURES")
	w.writeLine("#define USE_UBO")
	w.writeLine("#define PASS_UBO")
	w.writeLine("#define constant")
	w.writeLine("#define fmod(x, y) mod(x, y)")
	w.writeLine("#define M_PI 3.1415926535897932384626433832795")
	w.writeLine("")

	w.out.WriteString(w.unit.CommonData)
	w.writeUniformBlock()
	w.writeLine("")
}

// writePrecisionQualifiers writes precision qualifiers for ES.
func (w *Writer) writePrecisionQualifiers() {
	if !w.options.LangVersion.ES {
		return
	}

	// ES requires precision qualifiers
	w.writeLine("precision highp float;")
	w.writeLine("precision highp int;")
	w.writeLine("precision highp sampler2D;")
	w.writeLine("precision highp sampler2DArray;")
	w.writeLine("precision highp sampler3D;")
	w.writeLine("precision highp image2D;")
	w.writeLine("precision highp image2DArray;")
	w.writeLine("precision highp image3D;")
}

// writeUniformBlock writes the SpecUBO block when any uniform is declared.
func (w *Writer) writeUniformBlock() {
	if len(w.layout.Uniforms) == 0 {
		return
	}
	w.writeLine("layout(set = %d, binding = 0, std140) uniform SpecUBO {", w.options.UniformSet)
	w.pushIndent()
	for _, b := range w.layout.Uniforms {
		w.writeLine("%s %s;", b.Type, b.Name)
	}
	w.popIndent()
	w.writeLine("} spec;")
}

// writeTextures binds sampled textures for the vertex and fragment stages.
func (w *Writer) writeTextures() {
	for _, b := range w.layout.Textures {
		w.writeLine("layout(set = %d, binding = %d) uniform %s %s;",
			w.options.TextureSet, b.Index, samplerType(b.Kind), b.Name)
	}
}

// writeComputeLayout writes compute shader layout declaration.
func (w *Writer) writeComputeLayout() {
	w.writeLine("layout(local_size_x = 1, local_size_y = 1, local_size_z = 1) in;")
}

// writeImages binds compute images.
func (w *Writer) writeImages() {
	for _, b := range w.layout.Images {
		w.writeLine("layout(%s, set = %d, binding = %d) uniform %s %s;",
			w.options.ImageFormat, w.options.ImageSet, b.Index, imageType(b.Kind), b.Name)
	}
}

// writeBody writes the stage's slice of the module body.
func (w *Writer) writeBody() {
	for _, f := range w.unit.Module.Slice(w.stage) {
		switch f.Kind {
		case ir.FragmentBegin:
			w.writePrologue()
		case ir.FragmentEnd:
			w.writeEpilogue()
		default:
			// Text, and the common-data marker, which stays a comment.
			w.out.WriteString(f.Text)
		}
	}
	w.out.WriteByte('\n')
}

// writePrologue replaces the stage's begin sentinel.
func (w *Writer) writePrologue() {
	switch w.stage {
	case ir.StageVertex:
		w.writeInterface("in", w.layout.VertexInputs)
		w.writeInterface("out", w.layout.VertexOutputs)
	case ir.StageFragment:
		// Fragment inputs mirror vertex outputs location for location.
		w.writeInterface("in", w.layout.VertexOutputs)
		w.writeLine("layout(location = 0) out vec4 out_color;")
	}
	w.writeLine("void main()")
	w.writeLine("{")
}

// writeEpilogue replaces the stage's end sentinel.
func (w *Writer) writeEpilogue() {
	if w.stage == ir.StageVertex {
		w.pushIndent()
		if w.options.FlipClipSpace {
			w.writeLine("gl_Position.x = -gl_Position.x; gl_Position.y = -gl_Position.y;")
		}
		w.popIndent()
		w.writeLine("}")
		return
	}
	w.out.WriteString("}")
}

// writeInterface declares stage inputs or outputs at their locations.
func (w *Writer) writeInterface(qualifier string, bindings []ir.Binding) {
	for _, b := range bindings {
		w.writeLine("layout(location=%d) %s %s %s;", b.Index, qualifier, b.Type, b.Name)
	}
}

// Output helpers

// writeLine writes a line with indentation and newline.
//
//nolint:goprintffuncname
func (w *Writer) writeLine(format string, args ...any) {
	if format != "" {
		w.writeIndent()
	}
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// writeIndent writes the current indentation.
func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteString("  ")
	}
}

// pushIndent increases indentation.
func (w *Writer) pushIndent() {
	w.indent++
}

// popIndent decreases indentation.
func (w *Writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}
