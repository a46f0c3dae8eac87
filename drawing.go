package blit

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

type frameState uint8

const (
	frameAccumulating frameState = iota
	frameBatched
	frameSubmitted
)

// command is one accepted draw before batching: an index range into
// the shared buffers plus the state it must render under.
type command struct {
	clip      uint32
	variant   PipelineVariant
	texture   Texture
	constants PushConstants
	start     uint32
	end       uint32
}

// RunDraw is one indexed draw inside a batch run. Start and End bound
// the index range; Constants is the parameter block bound before the
// draw call.
type RunDraw struct {
	Constants PushConstants
	Start     uint32
	End       uint32
}

// BatchRun is a maximal sequence of accepted draws sharing a clip,
// pipeline variant, and texture binding. Rendering a run changes pass
// state at most once, then issues one draw call per entry in Draws.
type BatchRun struct {
	Clip    Rect[UPx]
	Variant PipelineVariant
	Texture Texture
	Draws   []RunDraw
}

// Drawing accumulates draws for one frame at a time and renders the
// batched result. The zero value is not usable; construct with
// NewDrawing. Buffers and scratch collections persist across frames so
// steady-state rendering does not allocate per frame.
//
// A Drawing is confined to a single goroutine.
type Drawing struct {
	device Device

	vertices   vertexCollection
	indices    []uint32
	clips      []Rect[UPx]
	clipLookup map[Rect[UPx]]uint32
	commands   []command
	runs       []BatchRun

	vertexBuffer Buffer
	indexBuffer  Buffer

	state frameState
	open  bool
}

// NewDrawing returns a Drawing that creates its GPU buffers on device.
func NewDrawing(device Device) (*Drawing, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	return &Drawing{
		device:     device,
		clipLookup: make(map[Rect[UPx]]uint32),
		state:      frameSubmitted,
	}, nil
}

// Frame is the builder for one frame's draws. It carries the clip and
// transform scopes; the accumulated geometry lives in the parent
// Drawing. Dropping a Frame without calling End abandons the frame:
// the next NewFrame discards everything it accumulated.
type Frame struct {
	drawing   *Drawing
	scale     Fraction
	opacity   float32
	clip      Rect[UPx]
	clipIndex uint32
	transform Transform
}

// NewFrame begins a new frame covering size at the given logical
// scale. Any prior frame's accumulated state is discarded, whether it
// was ended or abandoned.
func (d *Drawing) NewFrame(size Size[UPx], scale Fraction) *Frame {
	d.vertices.reset()
	d.indices = d.indices[:0]
	d.clips = d.clips[:0]
	clear(d.clipLookup)
	d.commands = d.commands[:0]
	d.runs = d.runs[:0]
	d.state = frameAccumulating
	d.open = true

	surface := Rect[UPx]{Size: size}
	f := &Frame{
		drawing:   d,
		scale:     scale,
		opacity:   1,
		clip:      surface,
		transform: identityTransform,
	}
	f.clipIndex = d.clipIndexFor(surface)
	return f
}

// clipIndexFor interns rect in the frame's clip table, returning a
// stable index. Equal rectangles share an index, which is what batching
// compares.
func (d *Drawing) clipIndexFor(rect Rect[UPx]) uint32 {
	if index, ok := d.clipLookup[rect]; ok {
		return index
	}
	index := uint32(len(d.clips))
	d.clips = append(d.clips, rect)
	d.clipLookup[rect] = index
	return index
}

// SetOpacity sets the opacity multiplied into every subsequent draw's
// parameters. Values outside (0, 1] are clamped; 0 is treated as
// opaque to match the parameter block's encoding.
func (f *Frame) SetOpacity(opacity float32) {
	switch {
	case opacity <= 0 || opacity > 1:
		f.opacity = 1
	default:
		f.opacity = opacity
	}
}

// Draw accepts a drawable with per-draw parameters. Draws against an
// empty clip are discarded. Draws referencing a released or stale slot
// are rejected with an error; the frame remains usable.
func (f *Frame) Draw(d *Drawable, params DrawParams) error {
	drawing := f.drawing
	if drawing.state != frameAccumulating {
		return ErrFrameEnded
	}
	if d.IsEmpty() {
		return nil
	}
	texture, err := d.texture()
	if err != nil {
		return fmt.Errorf("blit: draw: %w", err)
	}
	if f.clip.IsEmpty() {
		return nil
	}

	variant := d.Variant()
	constants := f.lowerParams(params, d.Logical)
	constants.Flags |= variant.flags()

	start := uint32(len(drawing.indices))
	remap := make([]uint32, len(d.Vertices))
	for i, v := range d.Vertices {
		remap[i] = drawing.vertices.getOrInsert(v)
	}
	for _, index := range d.Indices {
		drawing.indices = append(drawing.indices, remap[index])
	}
	end := uint32(len(drawing.indices))

	// Extend the previous command when nothing about the pass state
	// or parameters changed. The index ranges are adjacent by
	// construction.
	if n := len(drawing.commands); n > 0 {
		last := &drawing.commands[n-1]
		if last.clip == f.clipIndex && last.variant == variant &&
			last.texture == texture && last.constants == constants {
			last.end = end
			return nil
		}
	}
	drawing.commands = append(drawing.commands, command{
		clip:      f.clipIndex,
		variant:   variant,
		texture:   texture,
		constants: constants,
		start:     start,
		end:       end,
	})
	return nil
}

// lowerParams folds the frame's clip origin, transform scope, opacity,
// and the caller's parameters into one parameter block.
func (f *Frame) lowerParams(params DrawParams, logical bool) PushConstants {
	clipOrigin := Point[Px]{
		X: f.clip.Origin.X.ToPx(),
		Y: f.clip.Origin.Y.ToPx(),
	}
	effective := DrawParams{
		Translation: clipOrigin.Add(f.transform.Translation).Add(params.Translation),
		Rotation:    f.transform.Rotation + params.Rotation,
		Scale:       f.transform.Scale,
		Opacity:     f.opacity,
	}
	if params.Scale != 0 {
		effective.Scale *= params.Scale
	}
	if params.Opacity != 0 {
		effective.Opacity *= params.Opacity
	}
	return effective.constants(logical)
}

// End finishes accumulation, groups commands into batch runs, and
// uploads the frame's vertex and index buffers. After End the frame
// accepts no further draws.
func (f *Frame) End() error {
	drawing := f.drawing
	if drawing.state != frameAccumulating {
		return ErrFrameEnded
	}
	drawing.state = frameBatched

	for _, cmd := range drawing.commands {
		draw := RunDraw{Constants: cmd.constants, Start: cmd.start, End: cmd.end}
		if n := len(drawing.runs); n > 0 {
			run := &drawing.runs[n-1]
			if run.Clip == drawing.clips[cmd.clip] && run.Variant == cmd.variant &&
				run.Texture == cmd.texture {
				run.Draws = append(run.Draws, draw)
				continue
			}
		}
		drawing.runs = append(drawing.runs, BatchRun{
			Clip:    drawing.clips[cmd.clip],
			Variant: cmd.variant,
			Texture: cmd.texture,
			Draws:   []RunDraw{draw},
		})
	}

	Logger().Debug("frame batched",
		"commands", len(drawing.commands),
		"runs", len(drawing.runs),
		"triangles", len(drawing.indices)/3)

	if len(drawing.indices) == 0 {
		return nil
	}
	if drawing.vertexBuffer != nil {
		drawing.vertexBuffer.Destroy()
		drawing.vertexBuffer = nil
	}
	if drawing.indexBuffer != nil {
		drawing.indexBuffer.Destroy()
		drawing.indexBuffer = nil
	}
	vb, err := drawing.device.CreateBuffer("blit.frame.vertices",
		encodeVertices(drawing.vertices.vertices), gputypes.BufferUsageVertex)
	if err != nil {
		return fmt.Errorf("blit: frame vertex buffer: %w", err)
	}
	ib, err := drawing.device.CreateBuffer("blit.frame.indices",
		encodeIndices(drawing.indices), gputypes.BufferUsageIndex)
	if err != nil {
		vb.Destroy()
		return fmt.Errorf("blit: frame index buffer: %w", err)
	}
	drawing.vertexBuffer = vb
	drawing.indexBuffer = ib
	return nil
}

// Runs returns the batch runs of the last ended frame, in submission
// order. The slice is owned by the Drawing and is invalidated by the
// next NewFrame.
func (d *Drawing) Runs() []BatchRun {
	return d.runs
}

// Render replays the last ended frame onto pass, changing scissor,
// pipeline, and texture state only at run boundaries. It returns
// ErrFrameOpen if the current frame has not been ended.
func (d *Drawing) Render(pass RenderPass) error {
	if d.state == frameAccumulating {
		return ErrFrameOpen
	}
	d.state = frameSubmitted
	if len(d.runs) == 0 {
		return nil
	}

	pass.SetVertexBuffer(d.vertexBuffer)
	pass.SetIndexBuffer(d.indexBuffer)

	var (
		havePipeline bool
		haveScissor  bool
		haveTexture  bool
		pipeline     PipelineVariant
		scissor      Rect[UPx]
		texture      Texture
	)
	for _, run := range d.runs {
		if !havePipeline || pipeline != run.Variant {
			pass.SetPipeline(run.Variant)
			pipeline = run.Variant
			havePipeline = true
		}
		if !haveScissor || scissor != run.Clip {
			pass.SetScissor(run.Clip)
			scissor = run.Clip
			haveScissor = true
		}
		if !haveTexture || texture != run.Texture {
			pass.BindTexture(run.Texture)
			texture = run.Texture
			haveTexture = true
		}
		for _, draw := range run.Draws {
			pass.SetConstants(draw.Constants)
			pass.DrawIndexed(draw.Start, draw.End)
		}
	}
	return nil
}

// CommandCount reports the number of accepted draw commands after
// merging. VertexCount and TriangleCount report the size of the
// deduplicated geometry.
func (d *Drawing) CommandCount() int { return len(d.commands) }

// VertexCount reports the number of unique vertices in the frame.
func (d *Drawing) VertexCount() int { return len(d.vertices.vertices) }

// TriangleCount reports the number of triangles in the frame.
func (d *Drawing) TriangleCount() int { return len(d.indices) / 3 }

// Release destroys the Drawing's GPU buffers. The Drawing must not be
// used afterwards.
func (d *Drawing) Release() {
	if d.vertexBuffer != nil {
		d.vertexBuffer.Destroy()
		d.vertexBuffer = nil
	}
	if d.indexBuffer != nil {
		d.indexBuffer.Destroy()
		d.indexBuffer = nil
	}
}
