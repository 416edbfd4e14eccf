package psc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/psc/container"
	"github.com/gogpu/psc/diag"
	"github.com/gogpu/psc/ir"
)

// Result describes one built unit.
type Result struct {
	Source string
	Dest   string

	// Unit is the loaded unit, nil if the source could not be read.
	Unit *ir.Unit

	// Files lists the generated source files in write order.
	Files []string

	// Container is the written .ps path, empty if the build stopped earlier.
	Container string
	Records   []container.Record

	// Diagnostics holds everything reported, warnings included.
	Diagnostics []diag.Diagnostic
}

// Build compiles the unit at source and writes its outputs under the dest
// prefix: the generated sources, the compiled bytecode (GLSL) and dest.ps.
//
// Error-level diagnostics stop the build before any file is written. The
// returned Result is non-nil even on error and carries the diagnostics.
func Build(ctx context.Context, source, dest string, opts Options) (*Result, error) {
	diags := diag.NewList(opts.policy())
	res := &Result{Source: source, Dest: dest}
	err := build(ctx, res, opts, diags)
	res.Diagnostics = diags.Diagnostics()
	return res, err
}

func build(ctx context.Context, res *Result, opts Options, diags *diag.List) error {
	backend, err := NewBackend(opts)
	if err != nil {
		return err
	}

	unit, err := Load(res.Source, opts, diags)
	if err != nil {
		return err
	}
	res.Unit = unit

	artifacts, err := backend.Generate(unit, diags)
	if err != nil {
		return fmt.Errorf("%s: %w", res.Source, err)
	}
	if err := diags.Err(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkOutputs(res.Source, append(backend.Outputs(res.Dest, artifacts), res.Dest+container.Extension)); err != nil {
		return err
	}

	if dir := filepath.Dir(res.Dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: build output directory
			return err
		}
	}
	for _, a := range artifacts {
		path := res.Dest + a.Suffix
		if err := os.WriteFile(path, []byte(a.Text), 0o644); err != nil { //nolint:gosec // G306: generated sources are build outputs
			return err
		}
		res.Files = append(res.Files, path)
		opts.logf("wrote %s", path)
	}

	records, err := backend.Package(ctx, res.Dest, artifacts)
	if err != nil {
		var de *diag.ErrorList
		if errors.As(err, &de) {
			for _, d := range de.Diagnostics {
				diags.Add(d)
			}
		}
		return err
	}

	path := res.Dest + container.Extension
	if err := container.WriteFile(path, records); err != nil {
		return err
	}
	res.Container = path
	res.Records = records
	opts.logf("wrote %s (%d records, %d bytes)", path, len(records), container.Size(records))
	return nil
}

// ErrOverwritesSource is returned when an output path names the source file.
var ErrOverwritesSource = errors.New("output would overwrite the source")

// checkOutputs rejects output paths that resolve to the source file.
func checkOutputs(source string, outputs []string) error {
	src, err := filepath.Abs(source)
	if err != nil {
		return err
	}
	srcInfo, statErr := os.Stat(src)
	for _, out := range outputs {
		abs, err := filepath.Abs(out)
		if err != nil {
			return err
		}
		if abs == src {
			return fmt.Errorf("%s: %w", out, ErrOverwritesSource)
		}
		if statErr != nil {
			continue
		}
		if fi, err := os.Stat(abs); err == nil && os.SameFile(srcInfo, fi) {
			return fmt.Errorf("%s: %w", out, ErrOverwritesSource)
		}
	}
	return nil
}
