// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"sync"

	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/blit"
)

var (
	// ErrPassEnded is returned when commands are issued on an ended
	// pass.
	ErrPassEnded = errors.New("native: render pass has already ended")

	// ErrNoPipeline is returned when drawing without a bound pipeline.
	ErrNoPipeline = errors.New("native: no pipeline bound")

	// ErrNoVertexBuffer is returned when drawing without vertex and
	// index buffers bound.
	ErrNoVertexBuffer = errors.New("native: vertex or index buffer not bound")
)

// Pass adapts a wgpu core render pass encoder to blit.RenderPass.
// Pipeline, buffer, and texture bindings are validated and tracked
// locally; scissor and draw calls forward to the core encoder. The
// blit interface reports no errors, so validation failures surface
// through Err after the pass.
//
// A Pass is not safe for concurrent use.
type Pass struct {
	mu sync.Mutex

	corePass  *core.CoreRenderPassEncoder
	pipelines *Pipelines

	pipeline     *RenderPipeline
	vertexBuffer *Buffer
	indexBuffer  *Buffer
	texture      *Texture
	constants    blit.PushConstants
	haveConsts   bool

	ended bool
	err   error
}

// NewPass wraps corePass, drawing with pipelines. A nil corePass
// records and validates without issuing GPU work.
func NewPass(corePass *core.CoreRenderPassEncoder, pipelines *Pipelines) *Pass {
	return &Pass{corePass: corePass, pipelines: pipelines}
}

// Err returns the first validation failure, or nil.
func (p *Pass) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// fail records the first error.
func (p *Pass) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// SetPipeline binds the pipeline for variant.
func (p *Pass) SetPipeline(variant blit.PipelineVariant) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		p.fail(ErrPassEnded)
		return
	}
	p.pipeline = p.pipelines.Get(variant)
	// Forwarding pending HAL render pipeline support in the core
	// encoder.
}

// SetVertexBuffer binds the frame's vertex buffer.
func (p *Pass) SetVertexBuffer(buffer blit.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		p.fail(ErrPassEnded)
		return
	}
	native, ok := buffer.(*Buffer)
	if !ok {
		p.fail(ErrNoVertexBuffer)
		return
	}
	p.vertexBuffer = native
}

// SetIndexBuffer binds the frame's index buffer.
func (p *Pass) SetIndexBuffer(buffer blit.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		p.fail(ErrPassEnded)
		return
	}
	native, ok := buffer.(*Buffer)
	if !ok {
		p.fail(ErrNoVertexBuffer)
		return
	}
	p.indexBuffer = native
}

// SetScissor restricts rendering to rect.
func (p *Pass) SetScissor(rect blit.Rect[blit.UPx]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		p.fail(ErrPassEnded)
		return
	}
	if p.corePass != nil {
		p.corePass.SetScissorRect(uint32(rect.Origin.X), uint32(rect.Origin.Y),
			uint32(rect.Size.Width), uint32(rect.Size.Height))
	}
}

// BindTexture binds texture for sampling, or the default white texture
// when nil.
func (p *Pass) BindTexture(texture blit.Texture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		p.fail(ErrPassEnded)
		return
	}
	if texture == nil {
		p.texture = nil
		return
	}
	native, ok := texture.(*Texture)
	if !ok {
		p.fail(ErrTextureDestroyed)
		return
	}
	p.texture = native
	// Bind group update pending HAL bind group support in the core
	// encoder.
}

// SetConstants stages the per-draw parameter block.
func (p *Pass) SetConstants(constants blit.PushConstants) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		p.fail(ErrPassEnded)
		return
	}
	p.constants = constants
	p.haveConsts = true
}

// DrawIndexed draws the index range [start, end).
func (p *Pass) DrawIndexed(start, end uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		p.fail(ErrPassEnded)
		return
	}
	if p.pipeline == nil {
		p.fail(ErrNoPipeline)
		return
	}
	if p.vertexBuffer == nil || p.indexBuffer == nil {
		p.fail(ErrNoVertexBuffer)
		return
	}
	if end <= start {
		return
	}
	if p.corePass != nil {
		p.corePass.DrawIndexed(end-start, 1, start, 0, 0)
	}
}

// End finishes the pass. Ending twice is a no-op.
func (p *Pass) End() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ended {
		return nil
	}
	p.ended = true
	if p.corePass != nil {
		if err := p.corePass.End(); err != nil {
			return err
		}
	}
	return p.err
}

var _ blit.RenderPass = (*Pass)(nil)
