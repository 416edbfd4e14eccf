package msl

// compatHeader lets GLSL-flavored bodies compile as MSL: GLSL type names,
// GLSL math and sampling functions, and imageStore for every image kind.
const compatHeader = `#include <metal_stdlib>
using namespace metal;
#define discard discard_fragment()

//Type conversions
typedef float2   vec2;
typedef float3   vec3;
typedef float4   vec4;
typedef int2     ivec2;
typedef int3     ivec3;
typedef int4     ivec4;
typedef float2x2 mat2;
typedef float3x3 mat3;
typedef float4x4 mat4;

//Math functions
template<typename A, typename B> A atan(A x, B y) { return atan2(x, y); }
template<typename A> A fwidth(A x) { return abs(dfdx(x)) + abs(dfdy(x)); }
#define M_PI 3.1415926535897932384626433832795

//Texture read
float4 texture(texture2d<float> tex, float2 point)
{
  constexpr sampler textureSampler (mag_filter::linear, min_filter::linear, mip_filter::linear, address::repeat);
  return tex.sample(textureSampler, float2(point.x, point.y));
}
float4 textureLod(texture2d<float> tex, float2 point, float lod)
{
  constexpr sampler textureSampler (mag_filter::linear, min_filter::linear, mip_filter::linear, address::repeat);
  return tex.sample(textureSampler, float2(point.x, point.y), level(lod));
}
float4 texture(texture2d_array<float> tex, float3 point)
{
  constexpr sampler textureSampler (mag_filter::linear, min_filter::linear, mip_filter::linear, address::repeat);
  return tex.sample(textureSampler, float2(point.x, point.y), point.z);
}
float4 texture(texture3d<float> tex, float3 point)
{
  constexpr sampler textureSampler (mag_filter::linear, min_filter::linear, mip_filter::linear, address::repeat);
  return tex.sample(textureSampler, point);
}

//Texture write
void imageStore( texture2d<float, access::write> tex, int2 point, float4 value)
{
  tex.write(value, uint2(point));
}
void imageStore( texture2d_array<float, access::write> tex, int3 point, float4 value)
{
  tex.write(value, uint2(point.xy), uint(point.z));
}
void imageStore( texture3d<float, access::write> tex, int3 point, float4 value)
{
  tex.write(value, uint3(point), 0);
}

`

// writeHeader writes the compatibility header and the macros that let shared
// helper functions receive the entry function's textures and uniforms.
func (w *Writer) writeHeader() {
	w.out.WriteString(compatHeader)

	w.out.WriteString("#define USE_TEXTURES ")
	for _, b := range w.layout.Textures {
		w.out.WriteString(textureParam(b))
		w.out.WriteString(", ")
	}
	w.out.WriteByte('\n')

	w.out.WriteString("#define PASS_TEXTURES ")
	for _, b := range w.layout.Textures {
		w.out.WriteString(b.Name)
		w.out.WriteString(", ")
	}
	w.out.WriteByte('\n')

	w.writeLine("#define USE_UBO constant const CmUBO *in_glob, constant const SpecUBO *in_spec,")
	w.writeLine("#define PASS_UBO in_glob, in_spec,")
	w.writeLine("typedef texture2d<float> sampler2D;")
	w.writeLine("typedef texture2d_array<float> sampler2DArray;")
	w.writeLine("typedef texture3d<float> sampler3D;")
}
