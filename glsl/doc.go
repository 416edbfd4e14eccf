// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glsl generates Vulkan-flavored GLSL from an annotated shader unit.
//
// Every present stage becomes a self-contained source that an external
// compiler such as glslc turns into SPIR-V:
//
//   - a shared header with the version directive, compatibility macros, the
//     common data and, if any uniform is declared, the SpecUBO block
//   - the stage's resources: sampled textures for vertex and fragment
//     stages, the work-group size and storage images for compute
//   - the stage body, with the begin sentinel replaced by the interface
//     declarations and main() and the end sentinel by the closing brace
//
// Binding indices come from the unit's ir.Layout, so they match the indices
// the Metal backend assigns to the same declarations.
//
// # Basic Usage
//
//	sources, info, err := glsl.Compile(unit, glsl.DefaultOptions())
//
// # Clip Space
//
// With FlipClipSpace the vertex stage ends by negating gl_Position.x and
// gl_Position.y, which converts the runtime's clip-space convention to
// Vulkan's.
//
// # Reserved Words
//
// Declared names that collide with GLSL reserved words or with identifiers
// the generator emits are listed in TranslationInfo.Reserved. They are not
// renamed: the body refers to them by their declared names.
package glsl
