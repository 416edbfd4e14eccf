//go:build darwin

package msl

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestMSLCompilesWithXcrun(t *testing.T) {
	const common = `struct CmUBO {
  mat4 view;
  float time;
};
`
	const source = `//!COMMON_DATA
u_in float speed;
v_in vec3 position;
v_in vec2 texcoord;
v_out vec2 uv;
in_texture 2d albedo;
in_texture 2darray layers;

vec2 wrap(vec2 p) {
  return fract(p);
}

VS_BEGIN
  gl_Position = glob.view * vec4(position, 1.0);
  uv = texcoord * spec.speed + glob.time;
VS_END

FS_BEGIN
  out_color = texture(albedo, wrap(uv)) + texture(layers, vec3(uv, 0.0));
FS_END
`
	src, _ := compileSource(t, source, common)
	verifyMSLWithXcrun(t, src)
}

func TestMSLKernelCompilesWithXcrun(t *testing.T) {
	const source = `cs_in 2d target;
cs_in 3d volume;

CS_BEGIN
  imageStore(target, ivec2(gl_GlobalInvocationID.xy), vec4(1.0));
  imageStore(volume, ivec3(gl_GlobalInvocationID), vec4(0.5));
CS_END
`
	src, _ := compileSource(t, source, "")
	verifyMSLWithXcrun(t, src)
}

func verifyMSLWithXcrun(t *testing.T, source string) {
	t.Helper()

	if _, err := exec.LookPath("xcrun"); err != nil {
		t.Skip("xcrun not found; skipping MSL compile check")
	}
	if err := exec.Command("xcrun", "--find", "metal").Run(); err != nil {
		t.Skip("xcrun metal tool not found; skipping MSL compile check")
	}

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "shader.metal")
	outPath := filepath.Join(dir, "shader.air")
	if err := os.WriteFile(srcPath, []byte(source), 0o600); err != nil {
		t.Fatalf("write MSL temp file: %v", err)
	}

	cmd := exec.Command("xcrun", "-sdk", "macosx", "metal", "-c", srcPath, "-o", outPath) //nolint:gosec // G204: args are temp paths in tests
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("xcrun metal failed: %v\n%s\nMSL:\n%s", err, out, source)
	}
}
