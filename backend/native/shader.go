// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"

	"github.com/gogpu/blit"
)

// ErrShaderCompile is returned when the quad shader fails to compile.
var ErrShaderCompile = errors.New("native: shader compilation failed")

// quadShaderWGSL is the single shader pair for all pipeline variants.
// Per-draw behavior keys off the flags word in the parameter block;
// the vertex stage applies unit conversion, rotation, scale, and
// translation in that order, then the orthographic projection.
const quadShaderWGSL = `
struct Uniforms {
    ortho: mat4x4<f32>,
    scale: u32,
    pad0: u32,
    pad1: u32,
    pad2: u32,
}

struct Constants {
    flags: u32,
    scale_x: f32,
    scale_y: f32,
    rotation: f32,
    opacity: f32,
    translation_x: i32,
    translation_y: i32,
}

const FLAG_DIPS: u32 = 1u;
const FLAG_SCALE: u32 = 2u;
const FLAG_ROTATE: u32 = 4u;
const FLAG_TRANSLATE: u32 = 8u;
const FLAG_TEXTURED: u32 = 16u;
const FLAG_MASKED: u32 = 32u;

@group(0) @binding(0) var<uniform> uniforms: Uniforms;
@group(0) @binding(1) var tex: texture_2d<f32>;
@group(0) @binding(2) var tex_sampler: sampler;
@group(1) @binding(0) var<uniform> constants: Constants;

struct VertexInput {
    @location(0) position: vec2<i32>,
    @location(1) uv: vec2<u32>,
    @location(2) color: u32,
}

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) color: vec4<f32>,
}

fn unpack_color(packed: u32) -> vec4<f32> {
    return vec4<f32>(
        f32((packed >> 24u) & 0xffu) / 255.0,
        f32((packed >> 16u) & 0xffu) / 255.0,
        f32((packed >> 8u) & 0xffu) / 255.0,
        f32(packed & 0xffu) / 255.0,
    );
}

@vertex
fn vertex(input: VertexInput) -> VertexOutput {
    var position = vec2<f32>(f32(input.position.x), f32(input.position.y)) / 4.0;

    if ((constants.flags & FLAG_DIPS) != 0u) {
        let numerator = f32(uniforms.scale & 0xffffu);
        let denominator = f32(uniforms.scale >> 16u);
        position = position * numerator / denominator;
    }
    if ((constants.flags & FLAG_ROTATE) != 0u) {
        let cos_r = cos(constants.rotation);
        let sin_r = sin(constants.rotation);
        position = vec2<f32>(
            position.x * cos_r - position.y * sin_r,
            position.x * sin_r + position.y * cos_r,
        );
    }
    if ((constants.flags & FLAG_SCALE) != 0u) {
        position = position * vec2<f32>(constants.scale_x, constants.scale_y);
    }
    if ((constants.flags & FLAG_TRANSLATE) != 0u) {
        position = position + vec2<f32>(
            f32(constants.translation_x),
            f32(constants.translation_y),
        ) / 4.0;
    }

    var output: VertexOutput;
    output.position = uniforms.ortho * vec4<f32>(position, 0.0, 1.0);
    let tex_size = textureDimensions(tex);
    output.uv = vec2<f32>(f32(input.uv.x), f32(input.uv.y)) /
        vec2<f32>(f32(tex_size.x), f32(tex_size.y));
    output.color = unpack_color(input.color);
    return output;
}

@fragment
fn fragment(input: VertexOutput) -> @location(0) vec4<f32> {
    var color = input.color;
    if ((constants.flags & FLAG_MASKED) != 0u) {
        let coverage = textureSample(tex, tex_sampler, input.uv).r;
        color = vec4<f32>(color.rgb, color.a * coverage);
    } else if ((constants.flags & FLAG_TEXTURED) != 0u) {
        color = color * textureSample(tex, tex_sampler, input.uv);
    }
    return vec4<f32>(color.rgb, color.a * constants.opacity);
}
`

// compileShaderToSPIRV compiles WGSL source to SPIR-V words. SPIR-V is
// little-endian 32-bit words.
func compileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShaderCompile, err)
	}
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// ShaderSet holds the compiled quad shader and the layouts shared by
// every pipeline variant.
type ShaderSet struct {
	device      hal.Device
	module      hal.ShaderModule
	frameLayout hal.BindGroupLayout
	drawLayout  hal.BindGroupLayout
	layout      hal.PipelineLayout
}

// NewShaderSet compiles the quad shader and creates its layouts on
// device.
func NewShaderSet(device hal.Device) (*ShaderSet, error) {
	if device == nil {
		return nil, ErrNilHALDevice
	}
	spirv, err := compileShaderToSPIRV(quadShaderWGSL)
	if err != nil {
		return nil, err
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "blit_quad_shader",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader module: %w", err)
	}

	s := &ShaderSet{device: device, module: module}
	if err := s.createLayouts(); err != nil {
		s.Destroy()
		return nil, err
	}
	blit.Logger().Debug("quad shader compiled", "spirv_words", len(spirv))
	return s, nil
}

// createLayouts creates the frame bind group layout (uniforms, texture,
// sampler), the per-draw layout (parameter block), and the pipeline
// layout over both.
func (s *ShaderSet) createLayouts() error {
	frameLayout, err := s.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "blit_frame_layout",
		Entries: []types.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: types.ShaderStageVertex | types.ShaderStageFragment,
				Buffer: &types.BufferBindingLayout{
					Type:           types.BufferBindingTypeUniform,
					MinBindingSize: blit.UniformsSize,
				},
			},
			{
				Binding:    1,
				Visibility: types.ShaderStageVertex | types.ShaderStageFragment,
				Texture: &types.TextureBindingLayout{
					SampleType:    types.TextureSampleTypeFloat,
					ViewDimension: types.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: types.ShaderStageFragment,
				Sampler: &types.SamplerBindingLayout{
					Type: types.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("native: create frame bind group layout: %w", err)
	}
	s.frameLayout = frameLayout

	drawLayout, err := s.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "blit_draw_layout",
		Entries: []types.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: types.ShaderStageVertex | types.ShaderStageFragment,
				Buffer: &types.BufferBindingLayout{
					Type:           types.BufferBindingTypeUniform,
					MinBindingSize: blit.PushConstantsSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("native: create draw bind group layout: %w", err)
	}
	s.drawLayout = drawLayout

	layout, err := s.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "blit_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{s.frameLayout, s.drawLayout},
	})
	if err != nil {
		return fmt.Errorf("native: create pipeline layout: %w", err)
	}
	s.layout = layout
	return nil
}

// Module returns the compiled shader module.
func (s *ShaderSet) Module() hal.ShaderModule { return s.module }

// PipelineLayout returns the shared pipeline layout.
func (s *ShaderSet) PipelineLayout() hal.PipelineLayout { return s.layout }

// Destroy releases the shader module and layouts in reverse creation
// order.
func (s *ShaderSet) Destroy() {
	if s.layout != nil {
		s.device.DestroyPipelineLayout(s.layout)
		s.layout = nil
	}
	if s.drawLayout != nil {
		s.device.DestroyBindGroupLayout(s.drawLayout)
		s.drawLayout = nil
	}
	if s.frameLayout != nil {
		s.device.DestroyBindGroupLayout(s.frameLayout)
		s.frameLayout = nil
	}
	if s.module != nil {
		s.device.DestroyShaderModule(s.module)
		s.module = nil
	}
}
