package blit

import (
	"encoding/binary"
	"math"
)

// PipelineVariant selects which render pipeline a batch run binds.
// Whether a graphic is textured is fixed when it is built, so the
// variant never changes for a given Drawable.
type PipelineVariant uint8

const (
	// PipelineUntextured renders vertex colors only.
	PipelineUntextured PipelineVariant = iota

	// PipelineTextured samples an RGBA texture modulated by vertex
	// color.
	PipelineTextured

	// PipelineMasked samples a single-channel mask texture (glyph
	// atlases) as coverage for the vertex color.
	PipelineMasked
)

// flags returns the sampling flag bits the fragment shader branches on
// for this variant.
func (v PipelineVariant) flags() uint32 {
	switch v {
	case PipelineTextured:
		return FlagTextured
	case PipelineMasked:
		return FlagMasked
	default:
		return 0
	}
}

func (v PipelineVariant) String() string {
	switch v {
	case PipelineUntextured:
		return "untextured"
	case PipelineTextured:
		return "textured"
	case PipelineMasked:
		return "masked"
	default:
		return "unknown"
	}
}

// Push-constant flag bits. The vertex shader applies the enabled
// transforms in a fixed order: unit conversion, then rotation, then
// scale, then translation. Every implementation of the shader contract
// must preserve that order to match pixel output.
const (
	// FlagDips marks vertex positions as logical units needing the
	// uniform scale ratio applied.
	FlagDips uint32 = 1 << 0

	// FlagScale enables the per-draw scale factor.
	FlagScale uint32 = 1 << 1

	// FlagRotate enables the per-draw rotation.
	FlagRotate uint32 = 1 << 2

	// FlagTranslate enables the per-draw integer translation.
	FlagTranslate uint32 = 1 << 3

	// FlagTextured enables texture sampling.
	FlagTextured uint32 = 1 << 4

	// FlagMasked reinterprets the sampled texel as coverage.
	FlagMasked uint32 = 1 << 5
)

// PushConstants is the per-draw parameter block pushed to the GPU with
// every draw call. It carries the whole transform so static vertex
// buffers never need CPU-side rewriting.
//
// Wire layout, 28 bytes little-endian: flags u32, scale f32 x2,
// rotation f32, opacity f32, translation i32 x2.
type PushConstants struct {
	Flags    uint32
	ScaleX   float32
	ScaleY   float32
	Rotation float32
	Opacity  float32
	// Translation is in quarter-pixel fixed point, matching vertex
	// positions.
	Translation Point[Px]
}

// PushConstantsSize is the byte size of the encoded block.
const PushConstantsSize = 28

// Encode appends the wire representation of the block to buf.
func (c PushConstants) Encode(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, c.Flags)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c.ScaleX))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c.ScaleY))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c.Rotation))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c.Opacity))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(c.Translation.X))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(c.Translation.Y))
	return buf
}

// Uniforms is the per-surface uniform block: an orthographic projection
// of the surface plus the packed DIP scaling ratio.
type Uniforms struct {
	Ortho [16]float32
	Scale uint32
}

// UniformsSize is the byte size of the encoded block including the
// trailing padding required by uniform buffer alignment.
const UniformsSize = 80

// NewUniforms builds the uniform block for a surface of the given pixel
// size and scaling ratio.
func NewUniforms(size Size[UPx], scale Fraction) Uniforms {
	return Uniforms{
		Ortho: orthographicProjection(0, 0, float32(size.Width), float32(size.Height), -1, 1),
		Scale: scale.Packed(),
	}
}

// Encode appends the wire representation of the block to buf, padded to
// UniformsSize.
func (u Uniforms) Encode(buf []byte) []byte {
	for _, v := range u.Ortho {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	buf = binary.LittleEndian.AppendUint32(buf, u.Scale)
	buf = append(buf, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	return buf
}

// orthographicProjection returns a column-major orthographic projection
// matrix mapping the given rectangle onto clip space.
func orthographicProjection(left, top, right, bottom, near, far float32) [16]float32 {
	tx := -((right + left) / (right - left))
	ty := -((top + bottom) / (top - bottom))
	tz := -((far + near) / (far - near))

	return [16]float32{
		2 / (right - left), 0, 0, 0,
		0, 2 / (top - bottom), 0, 0,
		0, 0, -2 / (far - near), 0,
		tx, ty, tz, 1,
	}
}
