package blit

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Context ties together the GPU device, the shared texture atlases,
// and the logical coordinate scale for one render target. It is the
// usual entry point: create a Context, allocate textures through its
// atlases, and build frames with NewFrame.
//
// A Context is confined to a single goroutine.
type Context struct {
	device Device
	queue  Queue
	config Config

	size  Size[UPx]
	scale Fraction

	colors  *Atlas
	masks   *Atlas
	drawing *Drawing
}

// NewContext creates a context for device and queue with cfg. Zero
// config fields take their defaults; see DefaultConfig.
func NewContext(device Device, queue Queue, cfg Config) (*Context, error) {
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
	colors, err := NewAtlas(device, queue, gputypes.TextureFormatRGBA8Unorm, "blit.atlas.color", cfg)
	if err != nil {
		return nil, fmt.Errorf("blit: color atlas: %w", err)
	}
	masks, err := NewAtlas(device, queue, gputypes.TextureFormatR8Unorm, "blit.atlas.mask", cfg)
	if err != nil {
		return nil, fmt.Errorf("blit: mask atlas: %w", err)
	}
	drawing, err := NewDrawing(device)
	if err != nil {
		return nil, err
	}
	ctx := &Context{
		device:  device,
		queue:   queue,
		config:  cfg,
		colors:  colors,
		masks:   masks,
		drawing: drawing,
	}
	ctx.scale = effectiveScale(cfg.DPIScale, cfg.Zoom)
	return ctx, nil
}

// effectiveScale is the ratio converting logical units to device
// pixels: the DPI scale multiplied by the zoom level, as an exact
// integer ratio.
func effectiveScale(dpiScale, zoom float32) Fraction {
	return FractionOf(dpiScale).Mul(FractionOf(zoom))
}

// Device returns the GPU device the context was created with.
func (c *Context) Device() Device { return c.device }

// Queue returns the upload queue the context was created with.
func (c *Context) Queue() Queue { return c.queue }

// Colors returns the shared RGBA atlas for image textures.
func (c *Context) Colors() *Atlas { return c.colors }

// Masks returns the shared single-channel atlas for coverage masks.
func (c *Context) Masks() *Atlas { return c.masks }

// Drawing returns the context's frame builder.
func (c *Context) Drawing() *Drawing { return c.drawing }

// Scale returns the current logical-to-pixel ratio.
func (c *Context) Scale() Fraction { return c.scale }

// Size returns the current render target size in device pixels.
func (c *Context) Size() Size[UPx] { return c.size }

// Resize records a new render target size and scale factors. It takes
// effect on the next NewFrame.
func (c *Context) Resize(size Size[UPx], dpiScale, zoom float32) {
	c.size = size
	if dpiScale <= 0 {
		dpiScale = c.config.DPIScale
	}
	if zoom <= 0 {
		zoom = c.config.Zoom
	}
	c.scale = effectiveScale(dpiScale, zoom)
}

// Uniforms returns the frame uniform block for the current size and
// scale, ready to upload.
func (c *Context) Uniforms() Uniforms {
	return NewUniforms(c.size, c.scale)
}

// NewFrame begins a new frame covering the current render target.
func (c *Context) NewFrame() *Frame {
	return c.drawing.NewFrame(c.size, c.scale)
}

// Release destroys the context's GPU resources. Slots allocated from
// its atlases must be released first.
func (c *Context) Release() {
	c.drawing.Release()
	c.colors.Release()
	c.masks.Release()
}
