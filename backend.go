package psc

import (
	"context"
	"fmt"

	"github.com/gogpu/psc/container"
	"github.com/gogpu/psc/diag"
	"github.com/gogpu/psc/glsl"
	"github.com/gogpu/psc/glslc"
	"github.com/gogpu/psc/ir"
	"github.com/gogpu/psc/msl"
)

// Artifact is one generated source file.
type Artifact struct {
	// Suffix is appended to the destination prefix to form the file name.
	Suffix string

	// Stage is the stage of a per-stage artifact. Metal artifacts hold all
	// stages and leave it zero.
	Stage ir.Stage

	// Tag is the container tag of the record built from this artifact.
	Tag container.Tag

	Text string
}

// StageCompiler compiles a generated GLSL file into SPIR-V and returns the
// bytecode. *glslc.Compiler implements it.
type StageCompiler interface {
	Compile(ctx context.Context, src, dst string) ([]byte, error)
}

// Backend turns a unit into source artifacts and container records.
type Backend interface {
	Name() BackendKind

	// Generate produces the unit's source files. Backend-specific findings
	// such as reserved identifiers are reported to diags.
	Generate(unit *ir.Unit, diags *diag.List) ([]Artifact, error)

	// Outputs lists every file Package and Build will write for the
	// artifacts under the dest prefix, the container excluded.
	Outputs(dest string, artifacts []Artifact) []string

	// Package builds the container records once the artifacts are on disk
	// under the dest prefix.
	Package(ctx context.Context, dest string, artifacts []Artifact) ([]container.Record, error)
}

// NewBackend returns the backend selected by opts.
func NewBackend(opts Options) (Backend, error) {
	switch opts.Backend {
	case BackendGLSL, "":
		compiler := opts.Compiler
		if compiler == nil {
			compiler = glslc.New()
		}
		return &glslBackend{options: opts.GLSL, compiler: compiler}, nil
	case BackendMSL:
		return &mslBackend{options: opts.MSL}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}

// StageTag returns the container tag of a compiled stage.
func StageTag(s ir.Stage) container.Tag {
	switch s {
	case ir.StageVertex:
		return container.TagVertex
	case ir.StageFragment:
		return container.TagFragment
	default:
		return container.TagCompute
	}
}

// =============================================================================
// GLSL/SPIR-V
// =============================================================================

type glslBackend struct {
	options  glsl.Options
	compiler StageCompiler
}

func (b *glslBackend) Name() BackendKind { return BackendGLSL }

func (b *glslBackend) Generate(unit *ir.Unit, diags *diag.List) ([]Artifact, error) {
	sources, info, err := glsl.Compile(unit, b.options)
	if err != nil {
		return nil, err
	}
	if requested := b.requestedVersion(); info.RequiredVersion != requested {
		diags.Report(diag.VersionTooLow, unit.Name, 0, 0,
			"GLSL %s has no layout(location) on stage inputs and outputs; version %s or later is required",
			requested.VersionNumber(), info.RequiredVersion.VersionNumber())
	}
	for _, d := range info.Reserved {
		diags.Report(diag.ReservedIdentifier, d.File, d.Line, 0,
			"%s %q collides with a GLSL reserved or generated name", d.Category, d.Name)
	}

	artifacts := make([]Artifact, 0, len(sources))
	for _, s := range sources {
		artifacts = append(artifacts, Artifact{
			Suffix: glsl.FileSuffix(s.Stage),
			Stage:  s.Stage,
			Tag:    StageTag(s.Stage),
			Text:   s.Source,
		})
	}
	return artifacts, nil
}

func (b *glslBackend) Outputs(dest string, artifacts []Artifact) []string {
	paths := make([]string, 0, 2*len(artifacts))
	for _, a := range artifacts {
		paths = append(paths, dest+a.Suffix, dest+glsl.BytecodeSuffix(a.Stage))
	}
	return paths
}

func (b *glslBackend) requestedVersion() glsl.Version {
	if b.options.LangVersion.Major == 0 {
		return glsl.Version430
	}
	return b.options.LangVersion
}

// Package compiles each stage source in emission order, so records come out
// as v, f, c for whichever stages are present.
func (b *glslBackend) Package(ctx context.Context, dest string, artifacts []Artifact) ([]container.Record, error) {
	records := make([]container.Record, 0, len(artifacts))
	for _, a := range artifacts {
		data, err := b.compiler.Compile(ctx, dest+a.Suffix, dest+glsl.BytecodeSuffix(a.Stage))
		if err != nil {
			return nil, err
		}
		records = append(records, container.Record{Tag: a.Tag, Payload: data})
	}
	return records, nil
}

// =============================================================================
// Metal
// =============================================================================

type mslBackend struct {
	options msl.Options
}

func (b *mslBackend) Name() BackendKind { return BackendMSL }

func (b *mslBackend) Generate(unit *ir.Unit, _ *diag.List) ([]Artifact, error) {
	source, _, err := msl.Compile(unit, b.options)
	if err != nil {
		return nil, err
	}
	return []Artifact{{Suffix: msl.FileSuffix, Tag: container.TagMetal, Text: source}}, nil
}

func (b *mslBackend) Outputs(dest string, artifacts []Artifact) []string {
	paths := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		paths = append(paths, dest+a.Suffix)
	}
	return paths
}

// Package stores the generated source uncompiled in a single record.
func (b *mslBackend) Package(_ context.Context, _ string, artifacts []Artifact) ([]container.Record, error) {
	records := make([]container.Record, 0, len(artifacts))
	for _, a := range artifacts {
		records = append(records, container.Record{Tag: a.Tag, Payload: []byte(a.Text)})
	}
	return records, nil
}
