package blit

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// DrawParams is the per-draw parameter block supplied with every draw
// of a prepared graphic or drawable. The zero value draws untransformed
// at full opacity. Transforms are applied by the GPU in a fixed order:
// unit conversion, rotation, scale, translation.
type DrawParams struct {
	// Translation moves the graphic, in quarter-pixel units.
	Translation Point[Px]

	// Rotation is an angle in radians around the graphic's origin.
	// Zero disables the rotation stage.
	Rotation float32

	// Scale is a uniform scale factor. Zero means unscaled.
	Scale float32

	// Opacity multiplies the alpha of every fragment. Zero means fully
	// opaque, matching the zero value of the struct.
	Opacity float32
}

// constants lowers the params into the push-constant block, setting
// flag bits only for the stages that are active.
func (p DrawParams) constants(logical bool) PushConstants {
	c := PushConstants{ScaleX: 1, ScaleY: 1, Opacity: 1}
	if logical {
		c.Flags |= FlagDips
	}
	if p.Rotation != 0 {
		c.Flags |= FlagRotate
		c.Rotation = p.Rotation
	}
	if p.Scale != 0 && p.Scale != 1 {
		c.Flags |= FlagScale
		c.ScaleX = p.Scale
		c.ScaleY = p.Scale
	}
	if p.Opacity != 0 && p.Opacity != 1 {
		c.Opacity = p.Opacity
	}
	if !p.Translation.IsZero() {
		c.Flags |= FlagTranslate
		c.Translation = p.Translation
	}
	return c
}

// PreparedGraphic is geometry resident on the GPU and ready to render:
// an immutable vertex/index buffer pair built once from a drawable.
// It may be drawn any number of times across any number of frames, each
// draw supplying its own DrawParams, without re-uploading vertices.
//
// Whether the graphic is textured is fixed at build time. If it was
// built from an atlas slot, the texture coordinates are baked against
// the slot's rectangle as of the build; should the backing texture be
// rebuilt, rendering fails with ErrStaleSlot and the owner must rebuild
// the graphic.
type PreparedGraphic struct {
	vertices   Buffer
	indices    Buffer
	indexCount uint32
	variant    PipelineVariant
	logical    bool
	texture    Texture
	slot       *Slot
	released   bool
}

// NewPreparedGraphic uploads a drawable's geometry and returns the
// reusable graphic. The drawable's slot, if any, is cloned: the graphic
// holds its own reference until Release.
func NewPreparedGraphic(device Device, d *Drawable) (*PreparedGraphic, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if d.IsEmpty() {
		return nil, fmt.Errorf("blit: preparing empty drawable")
	}
	if d.Slot != nil {
		if err := d.Slot.Valid(); err != nil {
			return nil, err
		}
	}
	vertices, err := device.CreateBuffer("blit.vertices", encodeVertices(d.Vertices), gputypes.BufferUsageVertex)
	if err != nil {
		return nil, fmt.Errorf("blit: vertex buffer: %w", err)
	}
	indices, err := device.CreateBuffer("blit.indices", encodeIndices(d.Indices), gputypes.BufferUsageIndex)
	if err != nil {
		vertices.Destroy()
		return nil, fmt.Errorf("blit: index buffer: %w", err)
	}
	g := &PreparedGraphic{
		vertices:   vertices,
		indices:    indices,
		indexCount: uint32(len(d.Indices)),
		variant:    d.Variant(),
		logical:    d.Logical,
		texture:    d.Texture,
	}
	if d.Slot != nil {
		g.slot = d.Slot.Clone()
	}
	return g, nil
}

// Textured reports whether the graphic samples a texture.
func (g *PreparedGraphic) Textured() bool { return g.variant != PipelineUntextured }

// Variant returns the pipeline the graphic renders with.
func (g *PreparedGraphic) Variant() PipelineVariant { return g.variant }

// IndexCount returns the number of indices drawn per render.
func (g *PreparedGraphic) IndexCount() uint32 { return g.indexCount }

// Render submits the graphic to pass with the given parameters. It
// validates liveness first: drawing a released graphic or a stale atlas
// slot returns the corresponding error and touches no GPU state.
func (g *PreparedGraphic) Render(pass RenderPass, params DrawParams) error {
	if g.released {
		return ErrGraphicReleased
	}
	texture := g.texture
	if g.slot != nil {
		var err error
		if texture, err = g.slot.Texture(); err != nil {
			return err
		}
	}
	pass.SetPipeline(g.variant)
	pass.SetVertexBuffer(g.vertices)
	pass.SetIndexBuffer(g.indices)
	if g.variant != PipelineUntextured {
		pass.BindTexture(texture)
	}
	constants := params.constants(g.logical)
	constants.Flags |= g.variant.flags()
	pass.SetConstants(constants)
	pass.DrawIndexed(0, g.indexCount)
	return nil
}

// Release frees the GPU buffers and drops the graphic's atlas
// reference. Further renders return ErrGraphicReleased.
func (g *PreparedGraphic) Release() {
	if g.released {
		return
	}
	g.released = true
	g.vertices.Destroy()
	g.indices.Destroy()
	if g.slot != nil {
		g.slot.Release()
		g.slot = nil
	}
}
