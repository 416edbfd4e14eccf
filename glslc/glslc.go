// Package glslc runs an external GLSL to SPIR-V compiler.
//
// The compiler is invoked as
//
//	Bin Args... <source> -o <output>
//
// which with the default arguments is glslc -g <source> -o <output>.
package glslc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/gogpu/psc/diag"
)

// DefaultBin is the compiler looked up on PATH when Bin is empty.
const DefaultBin = "glslc"

// Policy controls how compiler failures are treated.
type Policy uint8

const (
	// PolicyFailFast reports a non-zero exit status, a missing output file
	// or output without the SPIR-V magic number as a CompilerFailed error.
	PolicyFailFast Policy = iota

	// PolicyIgnore does not inspect the exit status. Whatever output file
	// exists after the run is returned; only a missing file is an error.
	PolicyIgnore
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyFailFast:
		return "fail-fast"
	case PolicyIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("Policy(%d)", p)
	}
}

// Compiler invokes an external compiler binary.
type Compiler struct {
	// Bin is the executable name or path. Defaults to glslc.
	Bin string

	// Args are passed before the source path. Nil means -g.
	Args []string

	// Env is the process environment. Nil inherits the current one.
	Env []string

	Policy Policy
}

// New returns a compiler running glslc with default arguments.
func New() *Compiler { return &Compiler{Bin: DefaultBin} }

func (c *Compiler) bin() string {
	if c.Bin == "" {
		return DefaultBin
	}
	return c.Bin
}

func (c *Compiler) args(src, dst string) []string {
	args := c.Args
	if args == nil {
		args = []string{"-g"}
	}
	out := make([]string, 0, len(args)+3)
	out = append(out, args...)
	return append(out, src, "-o", dst)
}

// Available reports whether the compiler binary can be found.
func (c *Compiler) Available() error {
	if _, err := exec.LookPath(c.bin()); err != nil {
		return fmt.Errorf("glslc: %w", err)
	}
	return nil
}

// Compile compiles the GLSL file src into dst and returns the contents of dst.
// Under PolicyFailFast a stale dst is removed before the run so that only
// freshly written bytecode is accepted.
func (c *Compiler) Compile(ctx context.Context, src, dst string) ([]byte, error) {
	if c.Policy == PolicyFailFast {
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("glslc: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, c.bin(), c.args(src, dst)...) //nolint:gosec // G204: compiler path is configured by the user
	cmd.Env = c.Env
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("glslc: %s: %w", src, ctxErr)
	}
	if runErr != nil && c.Policy == PolicyFailFast {
		return nil, failed(src, "failed to run %v: %v%s", cmd.Args, runErr, indent(stderr.String()))
	}

	data, err := os.ReadFile(dst) //nolint:gosec // G304: dst is the output path chosen by the caller
	if err != nil {
		if c.Policy == PolicyIgnore {
			return nil, fmt.Errorf("glslc: no output for %s: %w", src, err)
		}
		return nil, failed(src, "no output written to %s%s", dst, indent(stderr.String()))
	}

	if c.Policy == PolicyFailFast {
		if _, err := ParseHeader(data); err != nil {
			return nil, failed(src, "%s: %v", dst, err)
		}
	}
	return data, nil
}

// failed builds a CompilerFailed error for src.
func failed(src, format string, args ...any) error {
	return &diag.ErrorList{Diagnostics: []diag.Diagnostic{{
		Kind:     diag.CompilerFailed,
		Severity: diag.Error,
		File:     src,
		Message:  fmt.Sprintf(format, args...),
	}}}
}

// indent formats compiler output for appending to a message.
func indent(output string) string {
	output = strings.TrimRight(output, "\n")
	if output == "" {
		return ""
	}
	return "\n\t" + strings.ReplaceAll(output, "\n", "\n\t")
}
