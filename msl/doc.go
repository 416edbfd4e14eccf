// Package msl implements Metal Shading Language (MSL) generation for annotated
// shader units.
//
// Unlike the GLSL backend, which writes one source per stage, this backend
// writes the whole unit as one MSL source. Metal compiles all entry functions
// from a single library, so every present stage keeps its region and gets its
// own entry function:
//
//   - vertex:   vertexShader, with InVert as [[stage_in]]
//   - fragment: fragmentShader, with OutVert as [[stage_in]]
//   - kernel:   kernel_main, with [[thread_position_in_grid]]
//
// # Usage
//
//	source, info, err := msl.Compile(unit, msl.DefaultOptions())
//
// # Compatibility Header
//
// Stage bodies are written in a GLSL-like subset. The header maps GLSL vector
// and matrix names to MSL types, defines texture, textureLod and imageStore
// wrappers and the USE_TEXTURES, PASS_TEXTURES, USE_UBO and PASS_UBO macros
// that forward the entry function's resources to helper functions.
//
// # Uniforms
//
// CmUBO (engine-wide, supplied by the common data) and SpecUBO (the unit's
// u_in members) arrive as constant pointers. Member accesses glob.x and
// spec.x in the body are rewritten to in_glob->x and in_spec->x.
//
// # Bindings
//
// Vertex input i is [[attribute(i)]], texture i is [[texture(i)]] and compute
// image i is [[texture(i)]] of the kernel, matching the GLSL backend's
// locations and bindings for the same declarations.
package msl
