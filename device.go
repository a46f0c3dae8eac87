package blit

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// blit RECEIVES the device from the host, it does not create one. Host
// frameworks in the gpucontext ecosystem (gogpu.App and friends)
// implement DeviceProvider already; backend/native adapts a raw
// gogpu/wgpu HAL device for hosts that do not.
type DeviceHandle = gpucontext.DeviceProvider

// TextureDescriptor describes a 2D texture to create. Mip levels and
// multisampling are intentionally absent: atlas and sprite textures are
// always single-level, single-sample.
type TextureDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Size is the texture extent in whole pixels.
	Size Size[UPx]

	// Format is the texture pixel format. Atlases use RGBA8 for images
	// and R8 for glyph masks.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage gputypes.TextureUsage
}

// Texture is a GPU-resident image owned by the device.
type Texture interface {
	// Size returns the texture extent in whole pixels.
	Size() Size[UPx]

	// Format returns the pixel format the texture was created with.
	Format() gputypes.TextureFormat

	// Destroy releases the GPU resource. Using the texture afterwards is
	// a programmer error surfaced by the device implementation.
	Destroy()
}

// Buffer is a GPU-resident vertex or index buffer.
type Buffer interface {
	// Len returns the buffer size in bytes.
	Len() uint64

	// Destroy releases the GPU resource.
	Destroy()
}

// Device creates GPU resources. All methods must be called from the
// thread that owns the GPU context; Device implementations do not lock.
type Device interface {
	// CreateTexture allocates a GPU texture.
	CreateTexture(desc *TextureDescriptor) (Texture, error)

	// CreateBuffer allocates a GPU buffer initialized with contents.
	CreateBuffer(label string, contents []byte, usage gputypes.BufferUsage) (Buffer, error)

	// MaxTextureDimension returns the hard limit on texture width and
	// height. Allocations exceeding it fail with ErrTooLarge.
	MaxTextureDimension() UPx
}

// Queue uploads data to GPU resources. Same threading contract as
// Device.
type Queue interface {
	// WriteTexture copies data into a region of dst. data holds
	// size.Height rows of bytesPerRow bytes each.
	WriteTexture(dst Texture, origin Point[UPx], size Size[UPx], data []byte, bytesPerRow uint32) error

	// CopyTexture copies the size-sized region anchored at the origin
	// of src into the same region of dst on the GPU. Both textures must
	// share a format and be at least size large.
	CopyTexture(src, dst Texture, size Size[UPx]) error
}

// RenderPass receives the ordered draw calls of one frame. Calls arrive
// in exactly the order batch runs were emitted, which is the order
// painter's-algorithm semantics require.
//
// PassRecorder implements RenderPass for tests and headless use;
// backend/native provides the wgpu-backed implementation.
type RenderPass interface {
	// SetPipeline selects the pipeline variant for subsequent draws.
	SetPipeline(variant PipelineVariant)

	// SetVertexBuffer binds the frame's packed vertex buffer.
	SetVertexBuffer(buffer Buffer)

	// SetIndexBuffer binds the frame's packed u32 index buffer.
	SetIndexBuffer(buffer Buffer)

	// SetScissor restricts rendering to rect in device pixels.
	SetScissor(rect Rect[UPx])

	// BindTexture binds the texture sampled by textured draws. A nil
	// texture restores the default (untextured) bindings.
	BindTexture(texture Texture)

	// SetConstants pushes the per-draw parameter block.
	SetConstants(constants PushConstants)

	// DrawIndexed draws the index range [start, end) with the bound
	// state.
	DrawIndexed(start, end uint32)
}
