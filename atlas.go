package blit

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
)

// Atlas packs many small images into shared GPU textures. Callers
// receive a [Slot] per image; every graphic built from the slot shares
// it by cloning, and the rectangle returns to the free-space structure
// when the last reference is released.
//
// Packing works best with similarly-sized images. The packer never
// defragments: repeated churn with odd sizes can exhaust a texture at
// low occupancy, in which case the atlas opens another texture rather
// than compacting. That is a documented limitation, not a failure mode
// the caller can observe as an error.
//
// An Atlas belongs to one rendering context and must be used only from
// the thread that owns the GPU context.
type Atlas struct {
	device Device
	queue  Queue
	format gputypes.TextureFormat
	label  string

	maxDimension UPx
	minTile      UPx
	initialSize  UPx

	textures []*atlasTexture
	active   int
}

// atlasTexture is one shared texture plus its packer state. Dedicated
// (oversize) textures have a nil packer.
type atlasTexture struct {
	texture    Texture
	packer     *packer
	generation uint32
	dedicated  bool
	live       int
}

func atlasUsage() gputypes.TextureUsage {
	return gputypes.TextureUsageTextureBinding |
		gputypes.TextureUsageCopyDst |
		gputypes.TextureUsageCopySrc
}

// NewAtlas creates an atlas that allocates textures of the given format
// from device. cfg controls allocation granularity; zero fields take
// defaults. The first texture is created lazily on first allocation.
func NewAtlas(device Device, queue Queue, format gputypes.TextureFormat, label string, cfg Config) (*Atlas, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxDim := cfg.MaxAtlasDimension
	if hard := device.MaxTextureDimension(); maxDim > hard {
		maxDim = hard
	}
	return &Atlas{
		device:       device,
		queue:        queue,
		format:       format,
		label:        label,
		maxDimension: maxDim,
		minTile:      cfg.MinimumAtlasTile,
		initialSize:  cfg.InitialAtlasSize,
	}, nil
}

// Format returns the pixel format of the atlas textures.
func (a *Atlas) Format() gputypes.TextureFormat { return a.format }

// Masked reports whether this atlas holds single-channel coverage masks
// (glyph bitmaps) rather than color images.
func (a *Atlas) Masked() bool { return a.format == gputypes.TextureFormatR8Unorm }

// TextureCount returns the number of backing textures currently open,
// dedicated textures included.
func (a *Atlas) TextureCount() int { return len(a.textures) }

// Allocate packs an image of the given size into the atlas and uploads
// data, which must hold size.Height rows of bytesPerRow bytes. The
// returned Slot starts with one reference.
//
// Images wider or taller than the configured maximum atlas dimension
// get a dedicated texture. Images exceeding the hard GPU limit fail
// with ErrTooLarge; the error is synchronous and no other allocation is
// affected.
func (a *Atlas) Allocate(size Size[UPx], data []byte, bytesPerRow uint32) (*Slot, error) {
	if size.IsEmpty() {
		return nil, fmt.Errorf("blit: atlas allocation of empty size %dx%d", size.Width, size.Height)
	}
	hard := a.device.MaxTextureDimension()
	if size.Width > hard || size.Height > hard {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrTooLarge, size.Width, size.Height, hard)
	}
	if size.Width > a.maxDimension || size.Height > a.maxDimension {
		return a.allocateDedicated(size, data, bytesPerRow)
	}

	// Active texture first, then the other open ones in order.
	for offset := range a.textures {
		index := (a.active + offset) % len(a.textures)
		owner := a.textures[index]
		if owner.dedicated {
			continue
		}
		if alloc, ok := owner.packer.allocate(size); ok {
			a.active = index
			return a.finishAllocation(owner, alloc, data, bytesPerRow)
		}
	}

	// Everything open is full (or fragmented): open a new texture sized
	// to amortize future allocations of this magnitude.
	owner, err := a.openTexture(a.textureSizeFor(size))
	if err != nil {
		return nil, err
	}
	alloc, ok := owner.packer.allocate(size)
	if !ok {
		// The new texture was sized to fit the request; this cannot
		// happen unless the packer is broken.
		return nil, fmt.Errorf("blit: fresh atlas texture rejected %dx%d", size.Width, size.Height)
	}
	a.active = len(a.textures) - 1
	return a.finishAllocation(owner, alloc, data, bytesPerRow)
}

// AllocateImage converts img to the atlas format and allocates it. Only
// RGBA atlases accept arbitrary images.
func (a *Atlas) AllocateImage(img image.Image) (*Slot, error) {
	if a.format != gputypes.TextureFormatRGBA8Unorm {
		return nil, fmt.Errorf("blit: AllocateImage requires an RGBA atlas, have format %d", a.format)
	}
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		converted := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		xdraw.Draw(converted, converted.Bounds(), img, bounds.Min, xdraw.Src)
		rgba = converted
	}
	size := Sz(UPx(bounds.Dx()), UPx(bounds.Dy()))
	return a.Allocate(size, rgba.Pix, uint32(rgba.Stride))
}

// Grow doubles the active atlas texture, capped at the maximum atlas
// dimension, and copies the existing texels into the new texture on the
// GPU. Live slots keep their rectangles and stay valid; only the
// backing texture changes underneath them. Growing an atlas already at
// the cap is a no-op.
func (a *Atlas) Grow() error {
	if len(a.textures) == 0 {
		return nil
	}
	owner := a.textures[a.active]
	if owner.dedicated {
		return nil
	}
	oldSize := owner.texture.Size()
	newEdge := minUnit(oldSize.Width*2, a.maxDimension)
	if newEdge <= oldSize.Width {
		return nil
	}
	texture, err := a.createTexture(Sz(newEdge, newEdge))
	if err != nil {
		return err
	}
	if err := a.queue.CopyTexture(owner.texture, texture, oldSize); err != nil {
		texture.Destroy()
		return fmt.Errorf("blit: atlas grow copy: %w", err)
	}
	owner.texture.Destroy()
	owner.texture = texture
	owner.packer.grow(Sz(newEdge, newEdge))
	Logger().Info("atlas texture grown",
		"atlas", a.label, "edge", newEdge, "live", owner.live)
	return nil
}

// Rebuild replaces the active atlas texture with an empty one of the
// same size and resets its packer. The texture's generation is bumped:
// every slot referencing it becomes stale, surfacing ErrStaleSlot on
// next acquisition, and owners must re-allocate and rebuild dependent
// graphics. Rebuild is the recovery path for a texture fragmented
// beyond use; prefer Grow, which keeps slots valid.
func (a *Atlas) Rebuild() error {
	if len(a.textures) == 0 {
		return nil
	}
	owner := a.textures[a.active]
	if owner.dedicated {
		return nil
	}
	size := owner.texture.Size()
	texture, err := a.createTexture(size)
	if err != nil {
		return err
	}
	owner.texture.Destroy()
	owner.texture = texture
	owner.packer = newPacker(size, a.minTile)
	owner.generation++
	owner.live = 0
	Logger().Info("atlas texture rebuilt",
		"atlas", a.label, "edge", size.Width, "generation", owner.generation)
	return nil
}

// Release destroys every texture the atlas owns. Outstanding slots
// become invalid; callers should release them first.
func (a *Atlas) Release() {
	for _, owner := range a.textures {
		owner.texture.Destroy()
		owner.generation++
		owner.live = 0
		owner.packer = nil
	}
	a.textures = a.textures[:0]
	a.active = 0
}

// Utilization returns the live-area fraction of the texture at index,
// for diagnostics.
func (a *Atlas) Utilization(index int) float64 {
	if index < 0 || index >= len(a.textures) {
		return 0
	}
	owner := a.textures[index]
	if owner.packer == nil {
		return 1
	}
	return owner.packer.utilization()
}

func (a *Atlas) allocateDedicated(size Size[UPx], data []byte, bytesPerRow uint32) (*Slot, error) {
	texture, err := a.createTexture(size)
	if err != nil {
		return nil, err
	}
	owner := &atlasTexture{texture: texture, dedicated: true}
	a.textures = append(a.textures, owner)
	alloc := packAllocation{rect: SizedRect(size)}
	return a.finishAllocation(owner, alloc, data, bytesPerRow)
}

func (a *Atlas) finishAllocation(owner *atlasTexture, alloc packAllocation, data []byte, bytesPerRow uint32) (*Slot, error) {
	if data != nil {
		if err := a.queue.WriteTexture(owner.texture, alloc.rect.Origin, alloc.rect.Size, data, bytesPerRow); err != nil {
			if owner.packer != nil {
				owner.packer.release(alloc)
			}
			return nil, fmt.Errorf("blit: atlas upload: %w", err)
		}
	}
	owner.live++
	return &Slot{
		atlas:      a,
		owner:      owner,
		generation: owner.generation,
		alloc:      alloc,
		shared:     &slotShared{refs: 1},
	}, nil
}

// removeTexture forgets a texture whose last slot was released, so
// dedicated churn does not accumulate dead entries.
func (a *Atlas) removeTexture(owner *atlasTexture) {
	for i, candidate := range a.textures {
		if candidate != owner {
			continue
		}
		a.textures = append(a.textures[:i], a.textures[i+1:]...)
		if a.active > i {
			a.active--
		}
		if a.active >= len(a.textures) {
			a.active = 0
		}
		return
	}
}

// textureSizeFor picks the edge length for a new atlas texture: the
// initial size, grown until the request fits, rounded up to the tile
// granularity, capped at the maximum dimension.
func (a *Atlas) textureSizeFor(size Size[UPx]) Size[UPx] {
	need := maxUnit(size.Width, size.Height)
	need = (need + a.minTile - 1) &^ (a.minTile - 1)
	edge := a.initialSize
	for edge < need {
		edge *= 2
	}
	if edge > a.maxDimension {
		edge = a.maxDimension
	}
	return Sz(edge, edge)
}

func (a *Atlas) openTexture(size Size[UPx]) (*atlasTexture, error) {
	texture, err := a.createTexture(size)
	if err != nil {
		return nil, err
	}
	owner := &atlasTexture{
		texture: texture,
		packer:  newPacker(size, a.minTile),
	}
	a.textures = append(a.textures, owner)
	Logger().Info("atlas texture opened",
		"atlas", a.label, "width", size.Width, "height", size.Height,
		"textures", len(a.textures))
	return owner, nil
}

func (a *Atlas) createTexture(size Size[UPx]) (Texture, error) {
	texture, err := a.device.CreateTexture(&TextureDescriptor{
		Label:  a.label,
		Size:   size,
		Format: a.format,
		Usage:  atlasUsage(),
	})
	if err != nil {
		return nil, fmt.Errorf("blit: atlas texture %dx%d: %w", size.Width, size.Height, err)
	}
	return texture, nil
}

// slotShared is the reference count shared by all clones of one slot.
type slotShared struct {
	refs     int
	released bool
}

// Slot is a reference-counted handle to a rectangle inside an atlas
// texture. Clone it into every graphic that bakes its coordinates;
// Release each handle when its owner is done. The rectangle becomes
// reusable exactly when the last handle is released.
//
// A slot whose backing texture has been rebuilt reports ErrStaleSlot
// from Valid and Texture instead of silently rendering wrong pixels.
type Slot struct {
	atlas      *Atlas
	owner      *atlasTexture
	generation uint32
	alloc      packAllocation
	shared     *slotShared
}

// Region returns the slot's rectangle in texel coordinates of its
// backing texture.
func (s *Slot) Region() Rect[UPx] { return s.alloc.rect }

// Dedicated reports whether the slot owns a whole texture outside the
// shared atlas packing.
func (s *Slot) Dedicated() bool { return s.owner.dedicated }

// Valid reports whether the slot can still be drawn: nil, or
// ErrSlotReleased / ErrStaleSlot.
func (s *Slot) Valid() error {
	if s.shared.released {
		return ErrSlotReleased
	}
	if s.generation != s.owner.generation {
		return ErrStaleSlot
	}
	return nil
}

// Texture returns the backing texture after validating the slot.
func (s *Slot) Texture() (Texture, error) {
	if err := s.Valid(); err != nil {
		return nil, err
	}
	return s.owner.texture, nil
}

// Clone returns a new handle sharing this slot's reference count.
func (s *Slot) Clone() *Slot {
	s.shared.refs++
	clone := *s
	return &clone
}

// Release drops one reference. When the last reference is released the
// rectangle returns to the packer (or the dedicated texture is
// destroyed) and all handles become invalid.
func (s *Slot) Release() {
	if s.shared.released {
		return
	}
	s.shared.refs--
	if s.shared.refs > 0 {
		return
	}
	s.shared.released = true
	s.owner.live--
	if s.owner.dedicated {
		s.owner.texture.Destroy()
		s.atlas.removeTexture(s.owner)
		return
	}
	if s.generation == s.owner.generation {
		s.owner.packer.release(s.alloc)
	}
}
