// Package dialect reads annotated shader sources.
//
// A shader unit is GLSL-like code with a few additions:
//
//	#include <name>              inlines a file from the include directory
//	u_in <type> <name>;          uniform-block member
//	v_in <type> <name>;          vertex input
//	v_out <type> <name>;         vertex output, fragment input
//	cs_in <kind> <name>;         compute image (2d, 2darray, 3d)
//	in_texture <kind> <name>;    sampled texture (2d, 2darray, 3d)
//	VS_BEGIN ... VS_END          vertex stage body, likewise FS_ and CS_
//	//!COMMON_DATA               where the Metal path inserts common data
//
// Resolver expands include directives. Parser tokenizes the result with Lexer,
// extracts declarations and stage regions, and builds an ir.Module.
//
// # Usage
//
//	diags := diag.NewList(nil)
//	r := &dialect.Resolver{Dir: "shaders/include/", Diags: diags}
//	module := dialect.Parse(r.Resolve(text, "sprite.prs"), diags)
package dialect
