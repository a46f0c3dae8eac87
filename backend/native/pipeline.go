// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync"
	"sync/atomic"

	types "github.com/gogpu/gputypes"

	"github.com/gogpu/blit"
)

var pipelineIDCounter atomic.Uint64

// RenderPipeline is one compiled pipeline variant. The handle captures
// the descriptor state used for creation; the HAL render pipeline
// object is attached when the HAL exposes render pipeline creation.
type RenderPipeline struct {
	id      uint64
	variant blit.PipelineVariant
	format  types.TextureFormat
}

// ID returns the unique pipeline identifier.
func (p *RenderPipeline) ID() uint64 { return p.id }

// Variant returns the pipeline variant this handle was built for.
func (p *RenderPipeline) Variant() blit.PipelineVariant { return p.variant }

// quadVertexLayout describes the vertex buffer consumed by the quad
// shader: signed quarter-pixel position, unsigned texel coordinates,
// packed color.
func quadVertexLayout() types.VertexBufferLayout {
	return types.VertexBufferLayout{
		ArrayStride: blit.VertexStride,
		StepMode:    types.VertexStepModeVertex,
		Attributes: []types.VertexAttribute{
			{ShaderLocation: 0, Format: types.VertexFormatSint32x2, Offset: 0},
			{ShaderLocation: 1, Format: types.VertexFormatUint32x2, Offset: 8},
			{ShaderLocation: 2, Format: types.VertexFormatUint32, Offset: 16},
		},
	}
}

// Pipelines creates and caches the render pipeline for each variant
// against one target format. All variants share the quad shader and
// layouts; only the flags word differs at draw time, so the cache
// stays small.
//
// Pipelines is safe for concurrent use.
type Pipelines struct {
	shaders *ShaderSet
	format  types.TextureFormat

	mu    sync.Mutex
	cache map[blit.PipelineVariant]*RenderPipeline
}

// NewPipelines creates the pipeline cache over shaders targeting
// format.
func NewPipelines(shaders *ShaderSet, format types.TextureFormat) (*Pipelines, error) {
	if shaders == nil {
		return nil, fmt.Errorf("native: nil shader set")
	}
	return &Pipelines{
		shaders: shaders,
		format:  format,
		cache:   make(map[blit.PipelineVariant]*RenderPipeline, 3),
	}, nil
}

// Get returns the pipeline for variant, creating it on first use.
func (p *Pipelines) Get(variant blit.PipelineVariant) *RenderPipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pipeline, ok := p.cache[variant]; ok {
		return pipeline
	}
	pipeline := &RenderPipeline{
		id:      pipelineIDCounter.Add(1),
		variant: variant,
		format:  p.format,
	}
	// HAL render pipeline creation is pending; the descriptor state
	// (quadVertexLayout, premultiplied alpha blend, triangle list) is
	// fixed here so creation attaches without API changes.
	p.cache[variant] = pipeline
	return pipeline
}

// Destroy drops all cached pipelines.
func (p *Pipelines) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.cache)
}
