package blit

// Drawable is the closed set of primitives the batching core consumes:
// a textured quad or an untextured mesh, carrying only already-baked
// vertex and index data plus an optional atlas reference. Higher-level
// kinds (sprites, tiles, glyph runs, tessellated paths) are producers
// that translate into Drawables; the batching core never needs to know
// about them.
type Drawable struct {
	Vertices []Vertex
	Indices  []uint32

	// Slot is the atlas region the texture coordinates were baked
	// against, when the geometry samples an atlas. Nil otherwise.
	Slot *Slot

	// Texture is a whole texture to sample, for geometry not using the
	// atlas. Mutually exclusive with Slot.
	Texture Texture

	// Masked marks single-channel coverage sampling (glyph atlases).
	Masked bool

	// Logical marks vertex positions as device-independent units; the
	// GPU applies the context's integer scale ratio.
	Logical bool
}

// Textured reports whether the drawable samples a texture.
func (d *Drawable) Textured() bool { return d.Slot != nil || d.Texture != nil }

// IsEmpty reports whether the drawable has no geometry. Empty drawables
// are visually equivalent to not drawing and are skipped, not errors.
func (d *Drawable) IsEmpty() bool { return len(d.Indices) == 0 }

// Variant returns the pipeline the drawable renders with. Fixed by
// construction: a drawable never changes variant.
func (d *Drawable) Variant() PipelineVariant {
	switch {
	case !d.Textured():
		return PipelineUntextured
	case d.Masked:
		return PipelineMasked
	default:
		return PipelineTextured
	}
}

// texture resolves the texture a draw of this drawable binds, checking
// slot validity.
func (d *Drawable) texture() (Texture, error) {
	if d.Slot != nil {
		return d.Slot.Texture()
	}
	return d.Texture, nil
}

var quadIndices = [6]uint32{0, 1, 2, 0, 2, 3}

// TextureBlit builds a quad that samples source (in texels of some
// texture) into dest (in device pixels), tinted by color. Attach the
// texture by setting Drawable.Texture or use SlotBlit for atlas
// regions. A zero-area dest yields an empty drawable.
func TextureBlit(source Rect[UPx], dest Rect[Px], color Color) *Drawable {
	if dest.IsEmpty() || source.IsEmpty() {
		return &Drawable{}
	}
	return &Drawable{
		Vertices: []Vertex{
			{Position: dest.Origin, Texture: source.Origin, Color: color},
			{Position: Pt(dest.Right(), dest.Origin.Y), Texture: Pt(source.Right(), source.Origin.Y), Color: color},
			{Position: Pt(dest.Right(), dest.Bottom()), Texture: Pt(source.Right(), source.Bottom()), Color: color},
			{Position: Pt(dest.Origin.X, dest.Bottom()), Texture: Pt(source.Origin.X, source.Bottom()), Color: color},
		},
		Indices: quadIndices[:],
	}
}

// SlotBlit builds a quad sampling an atlas slot into dest. The texture
// coordinates are baked against the slot's current rectangle; if the
// slot later goes stale the draw fails with ErrStaleSlot rather than
// sampling moved texels.
func SlotBlit(slot *Slot, dest Rect[Px], color Color) *Drawable {
	d := TextureBlit(slot.Region(), dest, color)
	if d.IsEmpty() {
		return d
	}
	d.Slot = slot
	d.Masked = slot.atlas.Masked()
	return d
}

// Mesh wraps an already-tessellated triangle list as an untextured
// drawable. Positions are in device pixels; this package does not
// tessellate.
func Mesh(vertices []Vertex, indices []uint32) *Drawable {
	if len(indices) == 0 || len(vertices) == 0 {
		return &Drawable{}
	}
	return &Drawable{Vertices: vertices, Indices: indices}
}

// TexturedMesh wraps a triangle list whose texture coordinates were
// baked against slot.
func TexturedMesh(vertices []Vertex, indices []uint32, slot *Slot) *Drawable {
	d := Mesh(vertices, indices)
	if d.IsEmpty() {
		return d
	}
	d.Slot = slot
	d.Masked = slot.atlas.Masked()
	return d
}
