package msl

import (
	"fmt"

	"github.com/gogpu/psc/ir"
)

// textureType returns the sampled texture type for a texture kind.
func textureType(k ir.TextureKind) string {
	switch k {
	case ir.Texture2DArray:
		return "texture2d_array<float>"
	case ir.Texture3D:
		return "texture3d<float>"
	default:
		return "texture2d<float>"
	}
}

// imageType returns the write-only texture type of a compute image.
func imageType(k ir.TextureKind) string {
	switch k {
	case ir.Texture2DArray:
		return "texture2d_array<float, access::write>"
	case ir.Texture3D:
		return "texture3d<float, access::write>"
	default:
		return "texture2d<float, access::write>"
	}
}

// textureParam returns the entry-function parameter of a sampled texture.
func textureParam(b ir.Binding) string {
	return fmt.Sprintf("%s %s [[texture(%d)]]", textureType(b.Kind), b.Name, b.Index)
}

// imageParam returns the kernel parameter of a compute image.
func imageParam(b ir.Binding) string {
	return fmt.Sprintf("%s %s[[texture(%d)]]", imageType(b.Kind), b.Name, b.Index)
}
