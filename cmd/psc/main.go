// Command psc compiles annotated shader units into .ps containers.
//
// Usage:
//
//	psc [options] -o <dest> <source.prs>
//	psc [options]                        # build the units listed in the config
//
// Examples:
//
//	psc -common common.prs -I include -o build/sprite sprite.prs
//	psc -backend msl -common common.prs -o build/sprite sprite.prs
//	psc -config shaders/psc.json -j 8
//
// The GLSL backend writes <dest>.prs.vert/.frag/.comp, runs glslc on each to
// produce <dest>.vert/.frag/.comp and packages the bytecode into <dest>.ps.
// The Metal backend writes <dest>.prs and packages that source into <dest>.ps.
//
// Config file:
//
//	psc looks for psc.json, .pscrc or .pscrc.json in the source's directory
//	and its parents (the working directory in batch mode). CLI flags override
//	config file settings.
//
// Example psc.json:
//
//	{
//	    "backend": "glsl",
//	    "glslc": "/opt/vulkan/bin/glslc",
//	    "commonData": "common.prs",
//	    "includeDir": "include",
//	    "units": [
//	        {"source": "sprite.prs", "output": "../build/sprite"}
//	    ]
//	}
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gogpu/psc"
	"github.com/gogpu/psc/config"
	"github.com/gogpu/psc/diag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "psc: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	var (
		backend              string
		glslcBin             string
		commonData           string
		includeDir           string
		includeDepth         int
		outputPrefix         string
		strict               bool
		ignoreCompilerStatus bool
		glslVersion          string
		configFile           string
		noConfig             bool
		jobs                 int
		verbose              bool
		showVersion          bool
	)

	flag.StringVar(&backend, "backend", "", "Output backend: glsl or msl (default glsl)")
	flag.StringVar(&glslcBin, "glslc", "", "GLSL compiler `executable` (default glslc)")
	flag.StringVar(&commonData, "common", "", "Common-data `file` embedded in every generated source")
	flag.StringVar(&includeDir, "I", "", "Include `dir` (default: the source's directory)")
	flag.IntVar(&includeDepth, "include-depth", 1, "Levels of #include to expand")
	flag.StringVar(&outputPrefix, "o", "", "Destination `prefix`; outputs are <prefix>.ps and friends")
	flag.BoolVar(&strict, "strict", false, "Treat malformed directives and declarations as errors")
	flag.BoolVar(&ignoreCompilerStatus, "ignore-compiler-status", false, "Package glslc output even when glslc fails")
	flag.StringVar(&glslVersion, "glsl-version", "", "GLSL `version`, e.g. 430 or \"310 es\"")
	flag.StringVar(&configFile, "config", "", "Use specific config `file`")
	flag.BoolVar(&noConfig, "no-config", false, "Ignore config files")
	flag.IntVar(&jobs, "j", 0, "Concurrent builds in batch mode (default: number of CPUs)")
	flag.BoolVar(&verbose, "v", false, "Log progress to stderr")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "psc - preprocessed shader compiler v%s\n\n", psc.Version)
		fmt.Fprintf(os.Stderr, "Usage: psc [options] -o <dest> <source.prs>\n")
		fmt.Fprintf(os.Stderr, "       psc [options]   (builds the units of the config file)\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nConfig file:\n")
		fmt.Fprintf(os.Stderr, "  Searches for psc.json, .pscrc or .pscrc.json in the source directory and its parents.\n")
		fmt.Fprintf(os.Stderr, "  CLI flags override config file settings.\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("psc v%s\n", psc.Version)
		return nil
	}
	if flag.NArg() > 1 {
		flag.Usage()
		return errors.New("expected at most one source file")
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Load config file
	var cfg *config.Config
	var configPath string
	if !noConfig {
		var err error
		if configFile != "" {
			cfg, err = config.LoadFile(configFile)
			if err != nil {
				return fmt.Errorf("loading config file %s: %w", configFile, err)
			}
			configPath = configFile
		} else {
			startDir, _ := os.Getwd()
			if flag.NArg() > 0 {
				startDir = filepath.Dir(flag.Arg(0))
			}
			cfg, configPath, err = config.Load(startDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
		}
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	// Build CLI overrides - only set if explicitly specified
	cliOpts := config.MergeOptions{
		Backend:     backend,
		Glslc:       glslcBin,
		CommonData:  commonData,
		IncludeDir:  includeDir,
		GLSLVersion: glslVersion,
	}
	if set["include-depth"] {
		cliOpts.IncludeDepth = &includeDepth
	}
	if set["strict"] {
		cliOpts.Strict = &strict
	}
	if set["ignore-compiler-status"] {
		cliOpts.IgnoreCompilerStatus = &ignoreCompilerStatus
	}

	opts, err := cfg.Merge(cliOpts)
	if err != nil {
		return err
	}
	if verbose {
		opts.Logger = psc.NewLogger(os.Stderr)
		if configPath != "" {
			opts.Logger.Printf("using config %s", configPath)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Single unit
	if flag.NArg() == 1 {
		if outputPrefix == "" {
			flag.Usage()
			return errors.New("no destination specified (-o)")
		}
		res, err := psc.Build(ctx, flag.Arg(0), outputPrefix, opts)
		report(res)
		return summarize(flag.Arg(0), err)
	}

	// Batch
	targets, err := cfg.Targets()
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		flag.Usage()
		return errors.New("no input file specified")
	}
	if !set["j"] {
		jobs = cfg.JobCount()
	}
	results, err := psc.BuildAll(ctx, targets, opts, jobs)
	for _, res := range results {
		report(res)
	}
	if err != nil {
		return fmt.Errorf("batch failed:\n%w", err)
	}
	if opts.Logger != nil {
		opts.Logger.Printf("built %d units", len(results))
	}
	return nil
}

// report prints the diagnostics of a build to stderr.
func report(res *psc.Result) {
	if res == nil {
		return
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintln(os.Stderr, d.Error())
	}
}

// summarize shortens diagnostic errors, which report already printed.
func summarize(source string, err error) error {
	var de *diag.ErrorList
	if errors.As(err, &de) {
		return fmt.Errorf("%s: build failed with %d error(s)", source, len(de.Diagnostics))
	}
	return err
}
