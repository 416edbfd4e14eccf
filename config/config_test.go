package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/psc"
	"github.com/gogpu/psc/diag"
	"github.com/gogpu/psc/glsl"
	"github.com/gogpu/psc/glslc"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "psc.json")

	writeConfig(t, configPath, `{
		"backend": "msl",
		"glslc": "/opt/vulkan/bin/glslc",
		"glslcArgs": ["-g", "-O"],
		"commonData": "common/common.prs",
		"includeDepth": 3,
		"strict": true,
		"units": [{"source": "a.prs", "output": "out/a"}]
	}`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Backend != "msl" {
		t.Errorf("Backend: got %q, want msl", cfg.Backend)
	}
	if len(cfg.GlslcArgs) != 2 || cfg.GlslcArgs[1] != "-O" {
		t.Errorf("GlslcArgs: got %v", cfg.GlslcArgs)
	}
	if cfg.IncludeDepth == nil || *cfg.IncludeDepth != 3 {
		t.Errorf("IncludeDepth: got %v, want 3", cfg.IncludeDepth)
	}
	if cfg.Strict == nil || !*cfg.Strict {
		t.Errorf("Strict: got %v, want true", cfg.Strict)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir: got %q, want %q", cfg.Dir(), tmpDir)
	}
	if got, want := cfg.Resolve(cfg.CommonData), filepath.Join(tmpDir, "common", "common.prs"); got != want {
		t.Errorf("Resolve: got %q, want %q", got, want)
	}
}

func TestLoadFileInvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".pscrc")
	writeConfig(t, configPath, `{"backend": `)
	if _, err := LoadFile(configPath); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoad(t *testing.T) {
	// Config in project dir, search from project/shaders/effects
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "project", "shaders", "effects")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}
	configPath := filepath.Join(tmpDir, "project", ".pscrc.json")
	writeConfig(t, configPath, `{"ignoreCompilerStatus": true}`)

	cfg, foundPath, err := Load(subDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config, got nil")
	}
	if foundPath != configPath {
		t.Errorf("found config at %s, expected %s", foundPath, configPath)
	}
	if cfg.IgnoreCompilerStatus == nil || !*cfg.IgnoreCompilerStatus {
		t.Errorf("IgnoreCompilerStatus: got %v, want true", cfg.IgnoreCompilerStatus)
	}
}

func TestLoadPrefersPscJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, filepath.Join(tmpDir, ".pscrc"), `{"backend": "msl"}`)
	writeConfig(t, filepath.Join(tmpDir, "psc.json"), `{"backend": "glsl"}`)

	cfg, path, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if filepath.Base(path) != "psc.json" || cfg.Backend != "glsl" {
		t.Errorf("Load picked %s (backend %q)", path, cfg.Backend)
	}
}

func TestLoadNoConfig(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, path, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %v", cfg)
	}
	if path != "" {
		t.Errorf("expected empty path, got %s", path)
	}
}

func TestToOptionsDefaults(t *testing.T) {
	opts, err := (&Config{}).ToOptions()
	if err != nil {
		t.Fatalf("ToOptions failed: %v", err)
	}
	if opts.Backend != psc.BackendGLSL {
		t.Errorf("Backend: got %q", opts.Backend)
	}
	if opts.GLSL != glsl.DefaultOptions() {
		t.Errorf("GLSL: got %+v", opts.GLSL)
	}
	if opts.Policy != nil {
		t.Error("Policy should default to nil")
	}
	c, ok := opts.Compiler.(*glslc.Compiler)
	if !ok {
		t.Fatalf("Compiler: got %T", opts.Compiler)
	}
	if c.Bin != glslc.DefaultBin || c.Args != nil || c.Policy != glslc.PolicyFailFast {
		t.Errorf("Compiler: got %+v", c)
	}
}

func TestToOptions(t *testing.T) {
	falseVal := false
	trueVal := true
	one := uint32(1)
	five := uint32(5)
	depth := 2

	cfg := &Config{
		Backend:              "glsl",
		Glslc:                "glslc-custom",
		GlslcArgs:            []string{},
		IncludeDepth:         &depth,
		Strict:               &trueVal,
		IgnoreCompilerStatus: &trueVal,
		GLSLVersion:          "310 es",
		UniformSet:           &five,
		TextureSet:           &one,
		FlipClipSpace:        &falseVal,
	}

	opts, err := cfg.ToOptions()
	if err != nil {
		t.Fatalf("ToOptions failed: %v", err)
	}

	if opts.IncludeDepth != 2 {
		t.Errorf("IncludeDepth: got %d, want 2", opts.IncludeDepth)
	}
	if opts.Policy.Severity(diag.MalformedDeclaration) != diag.Error {
		t.Error("strict should make malformed declarations fatal")
	}
	if opts.GLSL.LangVersion != glsl.VersionES310 {
		t.Errorf("LangVersion: got %v", opts.GLSL.LangVersion)
	}
	if opts.GLSL.UniformSet != 5 || opts.GLSL.TextureSet != 1 || opts.GLSL.ImageSet != 0 {
		t.Errorf("sets: got %d/%d/%d", opts.GLSL.UniformSet, opts.GLSL.TextureSet, opts.GLSL.ImageSet)
	}
	if opts.GLSL.FlipClipSpace {
		t.Error("FlipClipSpace: got true, want false")
	}

	c := opts.Compiler.(*glslc.Compiler)
	if c.Bin != "glslc-custom" || c.Args == nil || len(c.Args) != 0 || c.Policy != glslc.PolicyIgnore {
		t.Errorf("Compiler: got %+v", c)
	}
}

func TestToOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"backend", Config{Backend: "hlsl"}},
		{"version", Config{GLSLVersion: "4.3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.ToOptions(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMerge(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "psc.json")
	writeConfig(t, configPath, `{
		"backend": "glsl",
		"commonData": "common.prs",
		"includeDir": "include",
		"strict": true
	}`)
	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}

	// No CLI values: file wins
	opts, err := cfg.Merge(MergeOptions{})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if opts.Backend != psc.BackendGLSL {
		t.Errorf("Backend: got %q", opts.Backend)
	}
	if opts.CommonDataFile != filepath.Join(tmpDir, "common.prs") {
		t.Errorf("CommonDataFile: got %q", opts.CommonDataFile)
	}
	if opts.IncludeDir != filepath.Join(tmpDir, "include") {
		t.Errorf("IncludeDir: got %q", opts.IncludeDir)
	}

	// CLI overrides
	falseVal := false
	depth := 4
	opts, err = cfg.Merge(MergeOptions{
		Backend:      "metal",
		CommonData:   "cli/common.prs",
		IncludeDir:   "cli/include",
		IncludeDepth: &depth,
		Strict:       &falseVal,
	})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if opts.Backend != psc.BackendMSL {
		t.Errorf("Backend: got %q, want msl", opts.Backend)
	}
	if opts.CommonDataFile != "cli/common.prs" || opts.IncludeDir != "cli/include" {
		t.Errorf("CLI paths should not be resolved against the config: %q %q", opts.CommonDataFile, opts.IncludeDir)
	}
	if opts.IncludeDepth != 4 {
		t.Errorf("IncludeDepth: got %d", opts.IncludeDepth)
	}
	if opts.Policy != nil {
		t.Error("strict=false on the CLI should override the file")
	}

	// The file config itself is unchanged
	if cfg.Strict == nil || !*cfg.Strict || cfg.Backend != "glsl" {
		t.Error("Merge modified the config")
	}

	negative := -1
	if _, err := cfg.Merge(MergeOptions{IncludeDepth: &negative}); err == nil {
		t.Error("expected error for negative depth")
	}
}

func TestTargets(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "psc.json")
	writeConfig(t, configPath, `{
		"jobs": 3,
		"units": [
			{"source": "shaders/a.prs", "output": "build/a"},
			{"source": "/abs/b.prs", "output": "build/b"}
		]
	}`)
	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}

	targets, err := cfg.Targets()
	if err != nil {
		t.Fatalf("Targets failed: %v", err)
	}
	want := []psc.Target{
		{Source: filepath.Join(tmpDir, "shaders", "a.prs"), Dest: filepath.Join(tmpDir, "build", "a")},
		{Source: "/abs/b.prs", Dest: filepath.Join(tmpDir, "build", "b")},
	}
	if len(targets) != len(want) {
		t.Fatalf("got %d targets", len(targets))
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Errorf("targets[%d] = %+v, want %+v", i, targets[i], want[i])
		}
	}
	if cfg.JobCount() != 3 {
		t.Errorf("JobCount: got %d", cfg.JobCount())
	}

	bad := &Config{Units: []Unit{{Source: "a.prs"}}}
	if _, err := bad.Targets(); err == nil {
		t.Error("expected error for unit without output")
	}
}
