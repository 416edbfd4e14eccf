// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"strings"

	"github.com/gogpu/psc/ir"
)

// glslKeywords contains GLSL reserved words a declaration must not use as
// its name: current keywords, future reserved words and built-in type names.
// Based on GLSL 4.60 and GLSL ES 3.20 specifications.
var glslKeywords = map[string]struct{}{
	// Basic types
	"void": {}, "bool": {}, "int": {}, "uint": {}, "float": {}, "double": {},

	// Vector types
	"vec2": {}, "vec3": {}, "vec4": {},
	"ivec2": {}, "ivec3": {}, "ivec4": {},
	"uvec2": {}, "uvec3": {}, "uvec4": {},
	"bvec2": {}, "bvec3": {}, "bvec4": {},
	"dvec2": {}, "dvec3": {}, "dvec4": {},

	// Matrix types
	"mat2": {}, "mat3": {}, "mat4": {},
	"mat2x2": {}, "mat2x3": {}, "mat2x4": {},
	"mat3x2": {}, "mat3x3": {}, "mat3x4": {},
	"mat4x2": {}, "mat4x3": {}, "mat4x4": {},
	"dmat2": {}, "dmat3": {}, "dmat4": {},

	// Sampler and image types
	"sampler": {}, "sampler1D": {}, "sampler2D": {}, "sampler3D": {},
	"samplerCube": {}, "sampler2DArray": {}, "sampler2DShadow": {},
	"isampler2D": {}, "usampler2D": {},
	"image1D": {}, "image2D": {}, "image3D": {},
	"imageCube": {}, "image2DArray": {},
	"iimage2D": {}, "uimage2D": {},
	"atomic_uint": {},

	// Keywords
	"attribute": {}, "const": {}, "uniform": {}, "varying": {},
	"buffer": {}, "shared": {}, "coherent": {}, "volatile": {}, "restrict": {}, "readonly": {}, "writeonly": {},
	"layout": {}, "centroid": {}, "flat": {}, "smooth": {}, "noperspective": {},
	"patch": {}, "sample": {},
	"break": {}, "continue": {}, "do": {}, "for": {}, "while": {}, "switch": {}, "case": {}, "default": {},
	"if": {}, "else": {},
	"subroutine": {},
	"in":         {}, "out": {}, "inout": {},
	"true": {}, "false": {},
	"invariant": {}, "precise": {},
	"discard": {}, "return": {},
	"struct": {},

	// Precision qualifiers
	"lowp": {}, "mediump": {}, "highp": {}, "precision": {},

	// Reserved for future use
	"common": {}, "partition": {}, "active": {},
	"asm": {}, "class": {}, "union": {}, "enum": {}, "typedef": {}, "template": {}, "this": {},
	"resource": {},
	"goto":     {},
	"inline":   {}, "noinline": {}, "public": {}, "static": {}, "extern": {}, "external": {}, "interface": {},
	"long": {}, "short": {}, "half": {}, "fixed": {}, "unsigned": {}, "superp": {},
	"input": {}, "output": {},
	"filter": {}, "sizeof": {}, "cast": {},
	"namespace": {}, "using": {},

	// Built-in functions the body is likely to call
	"texture": {}, "textureLod": {}, "texelFetch": {}, "imageLoad": {}, "imageStore": {},
	"mod": {}, "mix": {}, "clamp": {}, "length": {}, "normalize": {}, "dot": {}, "cross": {},
}

// generatedNames are identifiers the writer emits into every source.
var generatedNames = map[string]struct{}{
	"main":      {},
	"spec":      {},
	"SpecUBO":   {},
	"out_color": {},
	"M_PI":      {},
	"fmod":      {},
}

// isKeyword checks if a name is a GLSL keyword or reserved word.
func isKeyword(name string) bool {
	_, ok := glslKeywords[name]
	return ok
}

// isReserved reports whether name cannot be declared in generated GLSL.
func isReserved(name string) bool {
	if isKeyword(name) {
		return true
	}
	if _, ok := generatedNames[name]; ok {
		return true
	}
	// gl_ is a reserved prefix
	return strings.HasPrefix(name, "gl_")
}

// reservedDeclarations returns the declarations whose names are reserved.
func reservedDeclarations(decls []ir.Declaration) []ir.Declaration {
	var out []ir.Declaration
	for _, d := range decls {
		if isReserved(d.Name) {
			out = append(out, d)
		}
	}
	return out
}
