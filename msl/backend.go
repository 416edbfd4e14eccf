package msl

import (
	"errors"
	"fmt"

	"github.com/gogpu/psc/ir"
)

// Entry function names.
const (
	VertexEntry   = "vertexShader"
	FragmentEntry = "fragmentShader"
	KernelEntry   = "kernel_main"
)

// FileSuffix is the suffix of the generated source file.
const FileSuffix = ".prs"

// Options configures MSL code generation.
type Options struct {
	// GlobalBuffer is the buffer index of the engine-wide CmUBO argument.
	GlobalBuffer uint8

	// SpecBuffer is the buffer index of the unit's SpecUBO argument.
	SpecBuffer uint8

	// PointSize is the literal written to gl_PointSize by the vertex entry.
	// Defaults to "2." if empty.
	PointSize string
}

// DefaultOptions returns the argument-table layout the runtime binds:
// CmUBO at buffer 2 and SpecUBO at buffer 3.
func DefaultOptions() Options {
	return Options{
		GlobalBuffer: 2,
		SpecBuffer:   3,
		PointSize:    "2.",
	}
}

// TranslationInfo contains information about the compiled MSL output.
type TranslationInfo struct {
	// EntryPointNames maps each present stage to its entry function.
	EntryPointNames map[ir.Stage]string

	// Rewrites counts glob. and spec. accesses turned into pointer accesses.
	Rewrites int
}

// Compile generates one MSL source holding every present stage of the unit.
func Compile(unit *ir.Unit, options Options) (string, TranslationInfo, error) {
	if unit == nil || unit.Module == nil {
		return "", TranslationInfo{}, errors.New("msl: unit has no module")
	}

	// Apply defaults for zero values
	if options.GlobalBuffer == 0 && options.SpecBuffer == 0 {
		def := DefaultOptions()
		options.GlobalBuffer, options.SpecBuffer = def.GlobalBuffer, def.SpecBuffer
	}
	if options.GlobalBuffer == options.SpecBuffer {
		return "", TranslationInfo{}, fmt.Errorf("msl: CmUBO and SpecUBO share buffer %d", options.GlobalBuffer)
	}
	if options.PointSize == "" {
		options.PointSize = "2."
	}

	if errs, err := ir.Validate(unit.Module); err != nil {
		return "", TranslationInfo{}, fmt.Errorf("msl: %w", err)
	} else if len(errs) > 0 {
		return "", TranslationInfo{}, fmt.Errorf("msl: invalid module: %w", errs[0])
	}

	layout := unit.Layout
	if layout == nil {
		layout = ir.NewLayout(unit.Module, nil)
	}

	w := newWriter(unit, layout, &options)
	w.writeModule()

	info := TranslationInfo{
		EntryPointNames: make(map[ir.Stage]string),
		Rewrites:        w.rewrites,
	}
	for _, s := range unit.Module.PresentStages() {
		info.EntryPointNames[s] = entryName(s)
	}

	return w.String(), info, nil
}

func entryName(s ir.Stage) string {
	switch s {
	case ir.StageVertex:
		return VertexEntry
	case ir.StageFragment:
		return FragmentEntry
	default:
		return KernelEntry
	}
}
