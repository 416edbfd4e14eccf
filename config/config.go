// Package config handles loading build configuration from files.
//
// Configuration can be specified in a JSON file named psc.json, .pscrc or
// .pscrc.json. The config file is searched for in the source's directory and
// its parent directories. Relative paths in the file are relative to the
// directory holding it.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/psc"
	"github.com/gogpu/psc/diag"
	"github.com/gogpu/psc/glsl"
	"github.com/gogpu/psc/glslc"
)

// Config represents the configuration file structure.
// All fields are optional and will use default values if not specified.
type Config struct {
	// Backend is glsl or msl
	Backend string `json:"backend,omitempty"`

	// Glslc is the GLSL compiler executable
	Glslc string `json:"glslc,omitempty"`

	// GlslcArgs replaces the default -g passed before the source path
	GlslcArgs []string `json:"glslcArgs,omitempty"`

	// CommonData is the path of the common-data file
	CommonData string `json:"commonData,omitempty"`

	// IncludeDir is where #include names are looked up
	IncludeDir string `json:"includeDir,omitempty"`

	// IncludeDepth is how many levels of includes are expanded (default 1)
	IncludeDepth *int `json:"includeDepth,omitempty"`

	// Strict makes malformed directives and declarations fatal
	Strict *bool `json:"strict,omitempty"`

	// IgnoreCompilerStatus packages whatever the compiler wrote, even when it failed
	IgnoreCompilerStatus *bool `json:"ignoreCompilerStatus,omitempty"`

	// GLSLVersion is the #version of generated GLSL, e.g. "430" or "310 es"
	GLSLVersion string `json:"glslVersion,omitempty"`

	UniformSet *uint32 `json:"uniformSet,omitempty"`
	TextureSet *uint32 `json:"textureSet,omitempty"`
	ImageSet   *uint32 `json:"imageSet,omitempty"`

	// FlipClipSpace negates gl_Position.xy at the end of GLSL vertex stages (default true)
	FlipClipSpace *bool `json:"flipClipSpace,omitempty"`

	// Jobs is the number of concurrent builds in batch mode
	Jobs *int `json:"jobs,omitempty"`

	// Units lists the shader units of a batch build
	Units []Unit `json:"units,omitempty"`

	dir string
}

// Unit is one entry of the units list.
type Unit struct {
	Source string `json:"source"`
	Output string `json:"output"`
}

// ConfigFileNames are the names searched for config files, in order of preference.
var ConfigFileNames = []string{
	"psc.json",
	".pscrc",
	".pscrc.json",
}

// Load searches for a config file starting from the given directory
// and walking up to parent directories. Returns nil if no config file is found.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, no config found
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: config path is chosen by the user
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)

	return &cfg, nil
}

// Dir returns the directory of the loaded file, empty for a zero Config.
func (c *Config) Dir() string { return c.dir }

// Resolve makes a path from the file relative to the file's directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}

// ToOptions converts a Config to psc.Options, using defaults for unset fields.
func (c *Config) ToOptions() (psc.Options, error) {
	opts := psc.DefaultOptions()

	if c.Backend != "" {
		b, err := psc.ParseBackend(c.Backend)
		if err != nil {
			return opts, err
		}
		opts.Backend = b
	}
	opts.CommonDataFile = c.Resolve(c.CommonData)
	opts.IncludeDir = c.Resolve(c.IncludeDir)
	if c.IncludeDepth != nil {
		opts.IncludeDepth = *c.IncludeDepth
	}
	if c.Strict != nil && *c.Strict {
		opts.Policy = diag.StrictPolicy()
	}

	compiler := glslc.New()
	if c.Glslc != "" {
		compiler.Bin = c.Glslc
	}
	if c.GlslcArgs != nil {
		compiler.Args = c.GlslcArgs
	}
	if c.IgnoreCompilerStatus != nil && *c.IgnoreCompilerStatus {
		compiler.Policy = glslc.PolicyIgnore
	}
	opts.Compiler = compiler

	if c.GLSLVersion != "" {
		v, err := glsl.ParseVersion(c.GLSLVersion)
		if err != nil {
			return opts, err
		}
		opts.GLSL.LangVersion = v
	}
	if c.UniformSet != nil {
		opts.GLSL.UniformSet = *c.UniformSet
	}
	if c.TextureSet != nil {
		opts.GLSL.TextureSet = *c.TextureSet
	}
	if c.ImageSet != nil {
		opts.GLSL.ImageSet = *c.ImageSet
	}
	if c.FlipClipSpace != nil {
		opts.GLSL.FlipClipSpace = *c.FlipClipSpace
	}

	return opts, nil
}

// Targets returns the units with resolved paths.
func (c *Config) Targets() ([]psc.Target, error) {
	targets := make([]psc.Target, 0, len(c.Units))
	for i, u := range c.Units {
		if u.Source == "" || u.Output == "" {
			return nil, fmt.Errorf("units[%d]: source and output are required", i)
		}
		targets = append(targets, psc.Target{Source: c.Resolve(u.Source), Dest: c.Resolve(u.Output)})
	}
	return targets, nil
}

// JobCount returns the configured number of batch workers, 0 if unset.
func (c *Config) JobCount() int {
	if c.Jobs == nil {
		return 0
	}
	return *c.Jobs
}

// MergeOptions holds CLI values. Zero values and nil pointers mean not
// specified on the CLI.
type MergeOptions struct {
	Backend              string
	Glslc                string
	CommonData           string
	IncludeDir           string
	IncludeDepth         *int
	Strict               *bool
	IgnoreCompilerStatus *bool
	GLSLVersion          string
}

// ErrInvalidDepth is returned for a negative include depth.
var ErrInvalidDepth = errors.New("include depth must not be negative")

// Merge merges CLI options with config file options.
// CLI options override config file options when specified.
func (c *Config) Merge(cli MergeOptions) (psc.Options, error) {
	merged := *c
	if cli.Backend != "" {
		merged.Backend = cli.Backend
	}
	if cli.Glslc != "" {
		merged.Glslc = cli.Glslc
	}
	if cli.GLSLVersion != "" {
		merged.GLSLVersion = cli.GLSLVersion
	}
	if cli.IncludeDepth != nil {
		merged.IncludeDepth = cli.IncludeDepth
	}
	if cli.Strict != nil {
		merged.Strict = cli.Strict
	}
	if cli.IgnoreCompilerStatus != nil {
		merged.IgnoreCompilerStatus = cli.IgnoreCompilerStatus
	}
	if merged.IncludeDepth != nil && *merged.IncludeDepth < 0 {
		return psc.Options{}, ErrInvalidDepth
	}

	opts, err := merged.ToOptions()
	if err != nil {
		return opts, err
	}

	// CLI paths are relative to the working directory, not the config file
	if cli.CommonData != "" {
		opts.CommonDataFile = cli.CommonData
	}
	if cli.IncludeDir != "" {
		opts.IncludeDir = cli.IncludeDir
	}
	return opts, nil
}
