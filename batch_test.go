package psc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/psc/container"
)

// writeUnits writes n compute units with distinct image names.
func writeUnits(t *testing.T, dir string, n int) []Target {
	t.Helper()
	targets := make([]Target, n)
	for i := range targets {
		src := filepath.Join(dir, fmt.Sprintf("unit%d.prs", i))
		text := fmt.Sprintf("cs_in 2d image%d;\nCS_BEGIN\n  imageStore(image%d, ivec2(0), vec4(%d.0));\nCS_END\n", i, i, i)
		if err := os.WriteFile(src, []byte(text), 0o600); err != nil {
			t.Fatal(err)
		}
		targets[i] = Target{Source: src, Dest: filepath.Join(dir, "out", fmt.Sprintf("unit%d", i))}
	}
	return targets
}

func TestBuildAll(t *testing.T) {
	dir := t.TempDir()
	targets := writeUnits(t, dir, 8)

	for _, backend := range []BackendKind{BackendGLSL, BackendMSL} {
		t.Run(string(backend), func(t *testing.T) {
			fc := &fakeCompiler{}
			opts := DefaultOptions()
			opts.Backend = backend
			opts.CommonData = "struct CmUBO { float scale; };\n"
			opts.Compiler = fc

			results, err := BuildAll(context.Background(), targets, opts, 3)
			if err != nil {
				t.Fatalf("BuildAll failed: %v", err)
			}
			if len(results) != len(targets) {
				t.Fatalf("got %d results", len(results))
			}
			for i, res := range results {
				if res == nil || res.Source != targets[i].Source {
					t.Fatalf("results[%d] out of order: %+v", i, res)
				}
				records, err := container.ReadFile(res.Container)
				if err != nil {
					t.Fatalf("ReadFile failed: %v", err)
				}
				if len(records) != 1 {
					t.Fatalf("unit %d: %d records", i, len(records))
				}
				want := fmt.Sprintf("image%d", i)
				if !bytes.Contains(records[0].Payload, []byte(want)) {
					t.Errorf("unit %d container holds another unit's output", i)
				}
			}
			if backend == BackendGLSL && len(fc.calls) != len(targets) {
				t.Errorf("compiler ran %d times, want %d", len(fc.calls), len(targets))
			}
		})
	}
}

func TestBuildAll_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	targets := writeUnits(t, dir, 3)
	targets[1].Source = filepath.Join(dir, "missing.prs")

	opts := DefaultOptions()
	opts.Backend = BackendMSL
	opts.CommonData = "struct CmUBO { float scale; };\n"

	results, err := BuildAll(context.Background(), targets, opts, 0)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
	if results[0].Container == "" || results[2].Container == "" {
		t.Error("other targets should still be built")
	}
	if results[1].Container != "" {
		t.Error("failed target reported a container")
	}
}

func TestBuildAll_DuplicateDest(t *testing.T) {
	dir := t.TempDir()
	targets := writeUnits(t, dir, 2)
	targets[1].Dest = filepath.Join(dir, "out", ".", "unit0")

	results, err := BuildAll(context.Background(), targets, DefaultOptions(), 2)
	if !errors.Is(err, ErrDuplicateDest) {
		t.Fatalf("err = %v, want ErrDuplicateDest", err)
	}
	if results != nil {
		t.Error("nothing should be built")
	}
	if _, err := os.Stat(filepath.Join(dir, "out")); err == nil {
		t.Error("output directory created for a rejected batch")
	}
}

func TestBuildAll_Canceled(t *testing.T) {
	dir := t.TempDir()
	targets := writeUnits(t, dir, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultOptions()
	opts.Backend = BackendMSL
	_, err := BuildAll(ctx, targets, opts, 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want Canceled", err)
	}
}

func TestBuildAll_Empty(t *testing.T) {
	results, err := BuildAll(context.Background(), nil, DefaultOptions(), 4)
	if err != nil || results != nil {
		t.Errorf("BuildAll(nil) = %v, %v", results, err)
	}
}
