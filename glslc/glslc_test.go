package glslc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/psc/diag"
)

// spirvModule returns a minimal SPIR-V 1.0 header followed by one word.
func spirvModule() []byte {
	buf := make([]byte, HeaderSize+4)
	binary.LittleEndian.PutUint32(buf[0:], MagicNumber)
	binary.LittleEndian.PutUint32(buf[4:], 0x00010000)
	binary.LittleEndian.PutUint32(buf[8:], 0x000D000B)
	binary.LittleEndian.PutUint32(buf[12:], 42)
	return buf
}

// TestHelperProcess stands in for the compiler binary. It is only active when
// run as a subprocess by helperCompiler.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) != 4 || args[2] != "-o" {
		fmt.Fprintf(os.Stderr, "usage: -- <src> -o <dst>, got %q\n", args)
		os.Exit(2)
	}
	src, dst := args[1], args[3]

	switch os.Getenv("HELPER_MODE") {
	case "ok":
		if _, err := os.Stat(src); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		_ = os.WriteFile(dst, spirvModule(), 0o600)
	case "error":
		fmt.Fprintf(os.Stderr, "%s:3: error: 'foo' : undeclared identifier\n1 error generated.\n", src)
		os.Exit(1)
	case "error-with-output":
		_ = os.WriteFile(dst, spirvModule(), 0o600)
		os.Exit(1)
	case "garbage":
		_ = os.WriteFile(dst, []byte("not spirv at all...."), 0o600)
	case "silent":
	case "sleep":
		time.Sleep(10 * time.Second)
	}
}

func helperCompiler(mode string, policy Policy) *Compiler {
	return &Compiler{
		Bin:    os.Args[0],
		Args:   []string{"-test.run=TestHelperProcess", "--"},
		Env:    append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "HELPER_MODE="+mode),
		Policy: policy,
	}
}

func writeSource(t *testing.T) (src, dst string) {
	t.Helper()
	dir := t.TempDir()
	src = filepath.Join(dir, "unit.prs.vert")
	dst = filepath.Join(dir, "unit.vert")
	if err := os.WriteFile(src, []byte("#version 430\nvoid main() {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return src, dst
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		policy  Policy
		wantErr bool
		failed  bool // error carries a CompilerFailed diagnostic
	}{
		{"success", "ok", PolicyFailFast, false, false},
		{"exit status", "error", PolicyFailFast, true, true},
		{"exit status with output", "error-with-output", PolicyFailFast, true, true},
		{"bad magic", "garbage", PolicyFailFast, true, true},
		{"no output", "silent", PolicyFailFast, true, true},
		{"ignored status", "error-with-output", PolicyIgnore, false, false},
		{"ignored bad magic", "garbage", PolicyIgnore, false, false},
		{"ignored without output", "error", PolicyIgnore, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst := writeSource(t)
			data, err := helperCompiler(tt.mode, tt.policy).Compile(context.Background(), src, dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Compile error = %v, wantErr %v", err, tt.wantErr)
			}

			var de *diag.ErrorList
			if got := errors.As(err, &de) && de.Has(diag.CompilerFailed); got != tt.failed {
				t.Errorf("CompilerFailed = %v, want %v (err %v)", got, tt.failed, err)
			}
			if !tt.wantErr && len(data) == 0 {
				t.Error("expected bytecode")
			}
		})
	}
}

func TestCompile_ReportsCompilerOutput(t *testing.T) {
	src, dst := writeSource(t)
	_, err := helperCompiler("error", PolicyFailFast).Compile(context.Background(), src, dst)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "undeclared identifier") {
		t.Errorf("error should include compiler output: %v", err)
	}
	if !strings.Contains(err.Error(), "failed to run") {
		t.Errorf("error should name the command: %v", err)
	}
}

func TestCompile_RemovesStaleOutput(t *testing.T) {
	src, dst := writeSource(t)
	if err := os.WriteFile(dst, spirvModule(), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := helperCompiler("silent", PolicyFailFast).Compile(context.Background(), src, dst); err == nil {
		t.Error("stale output must not be accepted")
	}
	if _, err := os.Stat(dst); err == nil {
		t.Error("stale output should be removed")
	}
}

func TestCompile_Canceled(t *testing.T) {
	src, dst := writeSource(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := helperCompiler("sleep", PolicyIgnore).Compile(ctx, src, dst)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestCompile_MissingBinary(t *testing.T) {
	src, dst := writeSource(t)
	c := &Compiler{Bin: filepath.Join(t.TempDir(), "no-such-glslc")}
	if c.Available() == nil {
		t.Error("Available should fail for a missing binary")
	}
	if _, err := c.Compile(context.Background(), src, dst); err == nil {
		t.Error("expected error")
	}
}

func TestArgs(t *testing.T) {
	got := New().args("a.prs.frag", "a.frag")
	want := []string{"-g", "a.prs.frag", "-o", "a.frag"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("args = %q, want %q", got, want)
	}

	got = (&Compiler{Args: []string{}}).args("s", "d")
	if strings.Join(got, " ") != "s -o d" {
		t.Errorf("empty Args should drop -g: %q", got)
	}
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader(spirvModule())
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if major, minor := h.MajorMinor(); major != 1 || minor != 0 {
		t.Errorf("version = %d.%d", major, minor)
	}
	if h.Bound != 42 {
		t.Errorf("Bound = %d", h.Bound)
	}
	if !strings.HasPrefix(h.String(), "SPIR-V 1.0") {
		t.Errorf("String = %q", h.String())
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrShortModule},
		{"short", make([]byte, 16), ErrShortModule},
		{"zero magic", make([]byte, HeaderSize), ErrBadMagic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHeader(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := ParseHeader(make([]byte, HeaderSize+1)); err == nil {
		t.Error("unaligned module should be rejected")
	}
}

func TestPolicyString(t *testing.T) {
	if PolicyFailFast.String() != "fail-fast" || PolicyIgnore.String() != "ignore" {
		t.Error("unexpected policy names")
	}
}
