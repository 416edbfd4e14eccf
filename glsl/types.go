// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import "github.com/gogpu/psc/ir"

// samplerType returns the GLSL combined image-sampler type for a texture kind.
func samplerType(k ir.TextureKind) string {
	switch k {
	case ir.Texture2DArray:
		return "sampler2DArray"
	case ir.Texture3D:
		return "sampler3D"
	default:
		return "sampler2D"
	}
}

// imageType returns the GLSL storage image type for a texture kind.
func imageType(k ir.TextureKind) string {
	switch k {
	case ir.Texture2DArray:
		return "image2DArray"
	case ir.Texture3D:
		return "image3D"
	default:
		return "image2D"
	}
}
