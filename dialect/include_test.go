package dialect

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/psc/diag"
)

// mapFiles serves includes from memory.
func mapFiles(files map[string]string) func(string) ([]byte, error) {
	return func(name string) ([]byte, error) {
		data, ok := files[filepath.ToSlash(name)]
		if !ok {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		return []byte(data), nil
	}
}

func TestResolve(t *testing.T) {
	files := map[string]string{
		"inc/light.glsl":  "float light() { return 1.0; }",
		"inc/nested.glsl": "#include light.glsl\nfloat nested;",
	}

	tests := []struct {
		name     string
		source   string
		maxDepth int
		want     string
		kinds    []diag.Kind
	}{
		{
			name:   "plain",
			source: "a\nb\n",
			want:   "a\nb\n",
		},
		{
			name:   "one include",
			source: "a\n#include light.glsl\nb",
			want:   "a\nfloat light() { return 1.0; }\nb",
		},
		{
			name:   "quoted and angled names",
			source: "#include \"light.glsl\"\n#include <light.glsl>\n",
			want:   "float light() { return 1.0; }\nfloat light() { return 1.0; }\n",
		},
		{
			name:   "two arguments",
			source: "a\n#include light.glsl extra\nb\n",
			want:   "a\nb\n",
			kinds:  []diag.Kind{diag.MalformedDirective},
		},
		{
			name:   "no argument",
			source: "#include\nb",
			want:   "b",
			kinds:  []diag.Kind{diag.MalformedDirective},
		},
		{
			name:   "indented directive is code",
			source: "  #include light.glsl\n",
			want:   "  #include light.glsl\n",
		},
		{
			name:   "longer word is not a directive",
			source: "#includes light.glsl\n",
			want:   "#includes light.glsl\n",
		},
		{
			name:   "missing file",
			source: "#include missing.glsl\nb\n",
			want:   "b\n",
			kinds:  []diag.Kind{diag.IncludeNotFound},
		},
		{
			name:   "depth one leaves nested directives",
			source: "#include nested.glsl\n",
			want:   "#include light.glsl\nfloat nested;\n",
		},
		{
			name:     "depth two expands nested directives",
			source:   "#include nested.glsl\n",
			maxDepth: 2,
			want:     "float light() { return 1.0; }\nfloat nested;\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := diag.NewList(nil)
			r := &Resolver{Dir: "inc", MaxDepth: tt.maxDepth, ReadFile: mapFiles(files), Diags: diags}

			got := r.Resolve(tt.source, "main.prs")

			if got.Text != tt.want {
				t.Errorf("Resolve() =\n%q\nwant\n%q", got.Text, tt.want)
			}
			if diags.Len() != len(tt.kinds) {
				t.Fatalf("got diagnostics %v, want kinds %v", diags.Diagnostics(), tt.kinds)
			}
			for i, d := range diags.Diagnostics() {
				if d.Kind != tt.kinds[i] {
					t.Errorf("diagnostic %d kind = %v, want %v", i, d.Kind, tt.kinds[i])
				}
			}
		})
	}
}

func TestResolve_IncludeNotFoundIsFatal(t *testing.T) {
	diags := diag.NewList(nil)
	r := &Resolver{Dir: "inc", ReadFile: mapFiles(nil), Diags: diags}
	r.Resolve("#include gone.glsl\n", "main.prs")

	err := diags.Err()
	var derr *diag.ErrorList
	if !errors.As(err, &derr) || !derr.Has(diag.IncludeNotFound) {
		t.Fatalf("Err() = %v, want IncludeNotFound error", err)
	}
	if d := derr.Diagnostics[0]; d.File != "main.prs" || d.Line != 1 {
		t.Errorf("diagnostic at %s:%d, want main.prs:1", d.File, d.Line)
	}
}

func TestResolve_Cycle(t *testing.T) {
	files := map[string]string{
		"inc/a.glsl": "#include b.glsl\na",
		"inc/b.glsl": "#include a.glsl\nb",
	}
	diags := diag.NewList(nil)
	r := &Resolver{Dir: "inc", MaxDepth: 8, ReadFile: mapFiles(files), Diags: diags}

	got := r.Resolve("#include a.glsl\n", "main.prs")

	if len(diags.OfKind(diag.IncludeCycle)) != 1 {
		t.Fatalf("diagnostics = %v, want one IncludeCycle", diags.Diagnostics())
	}
	if got.Text != "b\na\n" {
		t.Errorf("Resolve() = %q", got.Text)
	}
}

func TestResolve_Origins(t *testing.T) {
	files := map[string]string{"inc/two.glsl": "x\ny"}
	r := &Resolver{Dir: "inc", ReadFile: mapFiles(files)}

	src := r.Resolve("first\n#include two.glsl\nlast\n", "main.prs")

	// first / x / y / last
	want := []Origin{
		{File: "main.prs", Line: 1},
		{File: filepath.Join("inc", "two.glsl"), Line: 1},
		{File: filepath.Join("inc", "two.glsl"), Line: 2},
		{File: "main.prs", Line: 3},
	}
	for i, w := range want {
		if got := src.Origin(i + 1); got != w {
			t.Errorf("Origin(%d) = %+v, want %+v", i+1, got, w)
		}
	}
}

func TestResolve_ReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "common.glsl"), []byte("float c;"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := &Resolver{Dir: dir}
	got := r.Resolve("#include common.glsl", "main.prs")
	if got.Text != "float c;\n" {
		t.Errorf("Resolve() = %q", got.Text)
	}
}

func TestNewSource(t *testing.T) {
	src := NewSource("a\nb", "x.prs")
	if o := src.Origin(2); o.File != "x.prs" || o.Line != 2 {
		t.Errorf("Origin(2) = %+v", o)
	}
	if o := src.Origin(7); o.File != "" || o.Line != 7 {
		t.Errorf("Origin(7) = %+v", o)
	}
}
