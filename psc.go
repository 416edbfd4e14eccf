// Package psc compiles annotated shader units for GLSL/SPIR-V and Metal
// runtimes.
//
// A shader unit is one source file written in a GLSL-like dialect. It declares
// its resources with five statement forms
//
//	u_in <type> <name>;        uniform-block member
//	v_in <type> <name>;        vertex input
//	v_out <type> <name>;       vertex output
//	cs_in <kind> <name>;       compute image
//	in_texture <kind> <name>;  sampled texture
//
// and marks its stages with VS_BEGIN/VS_END, FS_BEGIN/FS_END and
// CS_BEGIN/CS_END. Binding indices follow declaration order, so both backends
// agree on the resource layout of the same unit.
//
// Example usage:
//
//	opts := psc.DefaultOptions()
//	opts.Backend = psc.BackendMSL
//	opts.CommonDataFile = "shaders/common.prs"
//	res, err := psc.Build(ctx, "shaders/sprite.prs", "build/sprite", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Container) // build/sprite.ps
//
// The pipeline stages are also available on their own: Load resolves includes
// and extracts the module, Generate runs a backend, and the container and
// glslc packages package and compile the result.
package psc

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/gogpu/psc/diag"
	"github.com/gogpu/psc/dialect"
	"github.com/gogpu/psc/glsl"
	"github.com/gogpu/psc/ir"
	"github.com/gogpu/psc/msl"
)

// Version is the tool version reported by the CLI.
const Version = "0.3.0"

// BackendKind selects the output backend.
type BackendKind string

// Backends.
const (
	BackendGLSL BackendKind = "glsl"
	BackendMSL  BackendKind = "msl"
)

// ParseBackend parses a backend name.
func ParseBackend(s string) (BackendKind, error) {
	switch BackendKind(s) {
	case BackendGLSL:
		return BackendGLSL, nil
	case BackendMSL, "metal":
		return BackendMSL, nil
	}
	return "", fmt.Errorf("unknown backend %q (want glsl or msl)", s)
}

// Options configures a build.
type Options struct {
	// Backend selects GLSL/SPIR-V or Metal output. Defaults to GLSL.
	Backend BackendKind

	// CommonData is the shared text embedded in every generated source.
	// When empty, CommonDataFile is read instead.
	CommonData     string
	CommonDataFile string

	// IncludeDir is where #include names are looked up. Empty means the
	// directory of the source file.
	IncludeDir string

	// IncludeDepth is how many levels of includes are expanded. Zero means 1.
	IncludeDepth int

	// Policy classifies diagnostics. Nil means diag.DefaultPolicy.
	Policy diag.Policy

	// Compiler turns generated GLSL into SPIR-V. Nil means glslc on PATH.
	Compiler StageCompiler

	GLSL glsl.Options
	MSL  msl.Options

	// Logger receives progress messages. Nil disables them.
	Logger *log.Logger
}

// DefaultOptions returns options for the GLSL backend with the runtime's
// default bindings.
func DefaultOptions() Options {
	return Options{
		Backend:      BackendGLSL,
		IncludeDepth: 1,
		GLSL:         glsl.DefaultOptions(),
		MSL:          msl.DefaultOptions(),
	}
}

// NewLogger returns a progress logger writing to w with the psc prefix.
func NewLogger(w io.Writer) *log.Logger {
	return log.New(w, "psc: ", 0)
}

func (o *Options) logf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}

func (o *Options) policy() diag.Policy {
	if o.Policy == nil {
		return diag.DefaultPolicy()
	}
	return o.Policy
}

// Load reads the unit at path, resolves its includes and extracts its
// declarations and stages. Problems in the text are reported to diags; the
// error is only set for an unreadable source or common-data file.
func Load(path string, opts Options, diags *diag.List) (*ir.Unit, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: source path comes from the user
	if err != nil {
		return nil, err
	}
	common, err := commonData(opts)
	if err != nil {
		return nil, err
	}
	if opts.IncludeDir == "" {
		opts.IncludeDir = filepath.Dir(path)
	}
	return LoadSource(string(data), path, common, opts, diags), nil
}

// LoadSource is Load for in-memory text. name identifies the unit in
// diagnostics and common is the common data.
func LoadSource(text, name, common string, opts Options, diags *diag.List) *ir.Unit {
	if diags == nil {
		diags = diag.NewList(opts.policy())
	}
	resolver := &dialect.Resolver{
		Dir:      opts.IncludeDir,
		MaxDepth: opts.IncludeDepth,
		Diags:    diags,
	}
	src := resolver.Resolve(text, name)
	module := dialect.Parse(src, diags)

	if common == "" {
		diags.Report(diag.EmptyCommonData, name, 0, 0, "common data is empty")
	}

	return &ir.Unit{
		Name:       name,
		Module:     module,
		Layout:     ir.NewLayout(module, diags),
		CommonData: common,
	}
}

func commonData(opts Options) (string, error) {
	if opts.CommonData != "" || opts.CommonDataFile == "" {
		return opts.CommonData, nil
	}
	data, err := os.ReadFile(opts.CommonDataFile)
	if err != nil {
		return "", fmt.Errorf("common data: %w", err)
	}
	return string(data), nil
}
