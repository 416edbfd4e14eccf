// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/psc/ir"
)

// Version represents a GLSL version.
type Version struct {
	Major uint8
	Minor uint8
	ES    bool // true for GLSL ES (OpenGL ES / Vulkan mobile profiles)
}

// Common GLSL versions.
var (
	// Desktop OpenGL versions
	Version330 = Version{Major: 3, Minor: 30, ES: false} // OpenGL 3.3 Core
	Version410 = Version{Major: 4, Minor: 10, ES: false} // OpenGL 4.1
	Version430 = Version{Major: 4, Minor: 30, ES: false} // OpenGL 4.3 (compute shaders)
	Version450 = Version{Major: 4, Minor: 50, ES: false} // OpenGL 4.5
	Version460 = Version{Major: 4, Minor: 60, ES: false} // OpenGL 4.6

	// OpenGL ES versions
	VersionES300 = Version{Major: 3, Minor: 0, ES: true}  // ES 3.0 (explicit locations)
	VersionES310 = Version{Major: 3, Minor: 10, ES: true} // ES 3.1 (compute shaders)
	VersionES320 = Version{Major: 3, Minor: 20, ES: true} // ES 3.2
)

// String returns the version as a GLSL version directive value.
func (v Version) String() string {
	if v.ES {
		return fmt.Sprintf("%d%02d es", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d%02d core", v.Major, v.Minor)
}

// VersionNumber returns just the numeric version (e.g., "430", "310").
func (v Version) VersionNumber() string {
	return fmt.Sprintf("%d%02d", v.Major, v.Minor)
}

// SupportsCompute returns true if this version supports compute shaders.
func (v Version) SupportsCompute() bool {
	if v.ES {
		return v.Major > 3 || (v.Major == 3 && v.Minor >= 10)
	}
	return v.Major > 4 || (v.Major == 4 && v.Minor >= 30)
}

// SupportsExplicitLocations returns true if in/out variables may carry
// layout(location=N) without extensions.
func (v Version) SupportsExplicitLocations() bool {
	if v.ES {
		return v.Major >= 3
	}
	return v.Major > 4 || (v.Major == 4 && v.Minor >= 10)
}

// ParseVersion parses a version directive value such as "430", "430 core"
// or "310 es".
func ParseVersion(s string) (Version, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return Version{}, fmt.Errorf("glsl: invalid version %q", s)
	}
	es := false
	if len(fields) == 2 {
		switch fields[1] {
		case "core":
		case "es":
			es = true
		default:
			return Version{}, fmt.Errorf("glsl: invalid version profile %q", fields[1])
		}
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 100 || n > 999 {
		return Version{}, fmt.Errorf("glsl: invalid version number %q", fields[0])
	}
	return Version{Major: uint8(n / 100), Minor: uint8(n % 100), ES: es}, nil //nolint:gosec // G115: bounded above
}

// Options configures GLSL code generation.
type Options struct {
	// LangVersion is the target GLSL version.
	// Defaults to Version430 if zero.
	LangVersion Version

	// UniformSet is the descriptor set of the SpecUBO uniform block (binding 0).
	UniformSet uint32

	// TextureSet is the descriptor set of sampled textures in vertex and fragment stages.
	TextureSet uint32

	// ImageSet is the descriptor set of compute images.
	ImageSet uint32

	// ImageFormat is the layout format qualifier of compute images.
	// Defaults to "rgba8" if empty.
	ImageFormat string

	// FlipClipSpace negates gl_Position.x and gl_Position.y at the end of the
	// vertex stage.
	FlipClipSpace bool
}

// DefaultOptions returns the options the shader runtime expects: GLSL 4.30,
// uniforms in set 1, textures in set 2, images in set 0 and the clip-space flip.
func DefaultOptions() Options {
	return Options{
		LangVersion:   Version430,
		UniformSet:    1,
		TextureSet:    2,
		ImageSet:      0,
		ImageFormat:   "rgba8",
		FlipClipSpace: true,
	}
}

// StageSource is the generated GLSL of one stage.
type StageSource struct {
	Stage  ir.Stage
	Source string
}

// TranslationInfo contains metadata about the translation.
type TranslationInfo struct {
	// Stages lists the generated stages in emission order.
	Stages []ir.Stage

	// RequiredVersion is the minimum GLSL version needed for this unit.
	// May be higher than the requested version when interface variables need
	// explicit locations.
	RequiredVersion Version

	// Reserved lists declarations whose names collide with GLSL reserved
	// words or with names the generator emits.
	Reserved []ir.Declaration
}

// ErrComputeUnsupported is returned when a unit has a compute stage and the
// requested version has no compute shaders.
var ErrComputeUnsupported = errors.New("compute shaders are not supported by this GLSL version")

// Compile generates one GLSL source per present stage of the unit.
// Sources are returned in emission order: vertex, fragment, compute.
func Compile(unit *ir.Unit, options Options) ([]StageSource, TranslationInfo, error) {
	if unit == nil || unit.Module == nil {
		return nil, TranslationInfo{}, errors.New("glsl: unit has no module")
	}

	// Apply defaults for zero values
	if options.LangVersion.Major == 0 {
		options.LangVersion = Version430
	}
	if options.ImageFormat == "" {
		options.ImageFormat = "rgba8"
	}

	layout := unit.Layout
	if layout == nil {
		layout = ir.NewLayout(unit.Module, nil)
	}

	if errs, err := ir.Validate(unit.Module); err != nil {
		return nil, TranslationInfo{}, fmt.Errorf("glsl: %w", err)
	} else if len(errs) > 0 {
		return nil, TranslationInfo{}, fmt.Errorf("glsl: invalid module: %w", errs[0])
	}

	info := TranslationInfo{
		RequiredVersion: options.LangVersion,
		Reserved:        reservedDeclarations(unit.Module.Declarations),
	}

	m := unit.Module
	usesLocations := m.HasStage(ir.StageFragment) ||
		(m.HasStage(ir.StageVertex) && len(layout.VertexInputs)+len(layout.VertexOutputs) > 0)
	if usesLocations && !options.LangVersion.SupportsExplicitLocations() {
		info.RequiredVersion = Version410
		if options.LangVersion.ES {
			info.RequiredVersion = VersionES300
		}
	}

	if m.HasStage(ir.StageCompute) && !options.LangVersion.SupportsCompute() {
		return nil, info, fmt.Errorf("glsl: %s: %w", options.LangVersion, ErrComputeUnsupported)
	}

	var sources []StageSource
	for _, stage := range m.PresentStages() {
		w := newWriter(unit, layout, &options, stage)
		w.writeStage()
		sources = append(sources, StageSource{Stage: stage, Source: w.String()})
		info.Stages = append(info.Stages, stage)
	}

	return sources, info, nil
}

// FileSuffix returns the suffix of a stage's generated source file.
func FileSuffix(s ir.Stage) string {
	switch s {
	case ir.StageVertex:
		return ".prs.vert"
	case ir.StageFragment:
		return ".prs.frag"
	default:
		return ".prs.comp"
	}
}

// BytecodeSuffix returns the suffix of a stage's compiled SPIR-V file.
func BytecodeSuffix(s ir.Stage) string {
	return strings.TrimPrefix(FileSuffix(s), ".prs")
}
