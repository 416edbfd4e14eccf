package psc

import (
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/gogpu/psc/diag"
	"github.com/gogpu/psc/ir"
)

// ---------------------------------------------------------------------------
// Test shader sources at different complexity levels
// ---------------------------------------------------------------------------

const benchCommon = `struct CmUBO {
  mat4 view;
  mat4 proj;
  float time;
};
`

// shaderSmallFragment is a fragment-only unit with one texture.
const shaderSmallFragment = `in_texture 2d tex;
v_out vec2 uv;
FS_BEGIN
  out_color = texture(tex, uv);
FS_END
`

// shaderSprite is a vertex/fragment pair with uniforms and two textures.
const shaderSprite = `//!COMMON_DATA
u_in vec4 tint;
u_in float fade;
v_in vec3 position;
v_in vec2 texcoord;
v_out vec2 uv;
in_texture 2d albedo;
in_texture 2darray atlas;

vec4 sampleAtlas(USE_TEXTURES vec2 p, float layer) {
  return texture(atlas, vec3(p, layer));
}

VS_BEGIN
  gl_Position = glob.proj * glob.view * vec4(position, 1.0);
  uv = texcoord;
VS_END

FS_BEGIN
  vec4 base = texture(albedo, uv) * spec.tint;
  out_color = mix(base, sampleAtlas(PASS_TEXTURES uv, 0.0), spec.fade);
FS_END
`

// largeUnit builds a unit with n declarations per category and all stages.
func largeUnit(n int) string {
	var sb strings.Builder
	sb.WriteString("//!COMMON_DATA\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "u_in vec4 param%d;\n", i)
		fmt.Fprintf(&sb, "v_in vec4 attr%d;\n", i)
		fmt.Fprintf(&sb, "v_out vec4 vary%d;\n", i)
		fmt.Fprintf(&sb, "in_texture 2d tex%d;\n", i)
		fmt.Fprintf(&sb, "cs_in 2d img%d;\n", i)
	}
	sb.WriteString("VS_BEGIN\n  gl_Position = vec4(0.0);\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "  vary%d = attr%d * spec.param%d; // glob.time\n", i, i, i)
	}
	sb.WriteString("VS_END\nFS_BEGIN\n  out_color = vec4(0.0);\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "  out_color += texture(tex%d, vary%d.xy) * glob.time;\n", i, i)
	}
	sb.WriteString("FS_END\nCS_BEGIN\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "  imageStore(img%d, ivec2(gl_GlobalInvocationID.xy), vec4(%d.0));\n", i, i)
	}
	sb.WriteString("CS_END\n")
	return sb.String()
}

type shaderCase struct {
	name   string
	source string
}

var shadersByComplexity = []shaderCase{
	{"small_fragment", shaderSmallFragment},
	{"sprite", shaderSprite},
	{"large_16", largeUnit(16)},
	{"large_128", largeUnit(128)},
}

func benchOptions() Options {
	opts := DefaultOptions()
	opts.Policy = diag.DefaultPolicy()
	return opts
}

// ---------------------------------------------------------------------------
// Front end
// ---------------------------------------------------------------------------

// BenchmarkLoadSource benchmarks include resolution, declaration extraction
// and layout assignment.
func BenchmarkLoadSource(b *testing.B) {
	opts := benchOptions()
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			var unit *ir.Unit
			for i := 0; i < b.N; i++ {
				unit = LoadSource(sc.source, sc.name, benchCommon, opts, nil)
			}
			runtime.KeepAlive(unit)
		})
	}
}

// ---------------------------------------------------------------------------
// Backends
// ---------------------------------------------------------------------------

// BenchmarkGenerate benchmarks source generation for both backends on an
// already loaded unit.
func BenchmarkGenerate(b *testing.B) {
	for _, kind := range []BackendKind{BackendGLSL, BackendMSL} {
		opts := benchOptions()
		opts.Backend = kind
		backend, err := NewBackend(opts)
		if err != nil {
			b.Fatal(err)
		}

		for _, sc := range shadersByComplexity {
			unit := LoadSource(sc.source, sc.name, benchCommon, opts, nil)
			b.Run(string(kind)+"/"+sc.name, func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(sc.source)))
				b.ResetTimer()

				var artifacts []Artifact
				for i := 0; i < b.N; i++ {
					var err error
					artifacts, err = backend.Generate(unit, diag.NewList(nil))
					if err != nil {
						b.Fatalf("generate failed: %v", err)
					}
				}
				runtime.KeepAlive(artifacts)
			})
		}
	}
}
