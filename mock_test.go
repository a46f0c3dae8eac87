package blit

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// mockTexture implements Texture for testing.
type mockTexture struct {
	label     string
	size      Size[UPx]
	format    gputypes.TextureFormat
	destroyed bool
}

func (t *mockTexture) Size() Size[UPx]                { return t.size }
func (t *mockTexture) Format() gputypes.TextureFormat { return t.format }
func (t *mockTexture) Destroy()                       { t.destroyed = true }

// mockBuffer implements Buffer for testing.
type mockBuffer struct {
	label     string
	contents  []byte
	usage     gputypes.BufferUsage
	destroyed bool
}

func (b *mockBuffer) Len() uint64 { return uint64(len(b.contents)) }
func (b *mockBuffer) Destroy()    { b.destroyed = true }

// mockDevice implements Device for testing.
type mockDevice struct {
	maxDimension UPx
	textures     []*mockTexture
	buffers      []*mockBuffer

	failTextures bool
	failBuffers  bool
	failBufferAt int // fail the nth CreateBuffer call, 1-based; 0 disables
	bufferCalls  int
}

func newMockDevice() *mockDevice {
	return &mockDevice{maxDimension: 8192}
}

func (d *mockDevice) MaxTextureDimension() UPx { return d.maxDimension }

func (d *mockDevice) CreateTexture(desc *TextureDescriptor) (Texture, error) {
	if d.failTextures {
		return nil, errors.New("mock texture creation failed")
	}
	texture := &mockTexture{label: desc.Label, size: desc.Size, format: desc.Format}
	d.textures = append(d.textures, texture)
	return texture, nil
}

func (d *mockDevice) CreateBuffer(label string, contents []byte, usage gputypes.BufferUsage) (Buffer, error) {
	d.bufferCalls++
	if d.failBuffers || (d.failBufferAt != 0 && d.bufferCalls == d.failBufferAt) {
		return nil, errors.New("mock buffer creation failed")
	}
	buffer := &mockBuffer{label: label, usage: usage}
	buffer.contents = append(buffer.contents, contents...)
	d.buffers = append(d.buffers, buffer)
	return buffer, nil
}

// liveTextures counts textures not yet destroyed.
func (d *mockDevice) liveTextures() int {
	n := 0
	for _, texture := range d.textures {
		if !texture.destroyed {
			n++
		}
	}
	return n
}

// textureWrite records one WriteTexture call.
type textureWrite struct {
	texture     Texture
	origin      Point[UPx]
	size        Size[UPx]
	data        []byte
	bytesPerRow uint32
}

// textureCopy records one CopyTexture call.
type textureCopy struct {
	src  Texture
	dst  Texture
	size Size[UPx]
}

// mockQueue implements Queue for testing.
type mockQueue struct {
	writes    []textureWrite
	copies    []textureCopy
	failWrite bool
	failCopy  bool
}

func (q *mockQueue) WriteTexture(texture Texture, origin Point[UPx], size Size[UPx], data []byte, bytesPerRow uint32) error {
	if q.failWrite {
		return errors.New("mock write failed")
	}
	q.writes = append(q.writes, textureWrite{
		texture:     texture,
		origin:      origin,
		size:        size,
		data:        append([]byte(nil), data...),
		bytesPerRow: bytesPerRow,
	})
	return nil
}

func (q *mockQueue) CopyTexture(src, dst Texture, size Size[UPx]) error {
	if q.failCopy {
		return errors.New("mock copy failed")
	}
	q.copies = append(q.copies, textureCopy{src: src, dst: dst, size: size})
	return nil
}

// newTestAtlas returns an atlas on fresh mocks with a small initial
// texture so growth paths are reachable.
func newTestAtlas() (*Atlas, *mockDevice, *mockQueue) {
	device := newMockDevice()
	queue := &mockQueue{}
	cfg := DefaultConfig()
	cfg.InitialAtlasSize = 64
	cfg.MinimumAtlasTile = 16
	atlas, err := NewAtlas(device, queue, gputypes.TextureFormatRGBA8Unorm, "test.atlas", cfg)
	if err != nil {
		panic(err)
	}
	return atlas, device, queue
}

// newTestMaskAtlas is newTestAtlas with the single-channel mask format.
func newTestMaskAtlas() (*Atlas, *mockDevice, *mockQueue) {
	device := newMockDevice()
	queue := &mockQueue{}
	cfg := DefaultConfig()
	cfg.InitialAtlasSize = 64
	cfg.MinimumAtlasTile = 16
	atlas, err := NewAtlas(device, queue, gputypes.TextureFormatR8Unorm, "test.masks", cfg)
	if err != nil {
		panic(err)
	}
	return atlas, device, queue
}
