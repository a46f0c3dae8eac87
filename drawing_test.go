package blit

import (
	"errors"
	"testing"
)

func newTestDrawing(t *testing.T) (*Drawing, *mockDevice) {
	t.Helper()
	device := newMockDevice()
	drawing, err := NewDrawing(device)
	if err != nil {
		t.Fatalf("NewDrawing: %v", err)
	}
	return drawing, device
}

// quad returns a unit quad drawable bound to texture.
func quad(texture Texture) *Drawable {
	d := TextureBlit(NewRect[UPx](0, 0, 16, 16), NewRect[Px](0, 0, 64, 64), ColorWhite)
	d.Texture = texture
	return d
}

func endFrame(t *testing.T, f *Frame) {
	t.Helper()
	if err := f.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
}

func TestFrameBatchesAdjacentEqualDraws(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	texture := &mockTexture{size: Sz[UPx](16, 16)}

	f := drawing.NewFrame(Sz[UPx](640, 480), One)
	if err := f.Draw(quad(texture), DrawParams{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if err := f.Draw(quad(texture), DrawParams{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	endFrame(t, f)

	// Identical state and constants: one merged command, one run, one
	// draw call covering both quads.
	if got := drawing.CommandCount(); got != 1 {
		t.Fatalf("CommandCount = %d, want 1", got)
	}
	runs := drawing.Runs()
	if len(runs) != 1 || len(runs[0].Draws) != 1 {
		t.Fatalf("runs = %d with %d draws, want 1 run with 1 draw", len(runs), len(runs[0].Draws))
	}
	if runs[0].Draws[0].Start != 0 || runs[0].Draws[0].End != 12 {
		t.Fatalf("merged range = [%d, %d), want [0, 12)", runs[0].Draws[0].Start, runs[0].Draws[0].End)
	}
	// The two quads share geometry, so deduplication collapses them.
	if got := drawing.VertexCount(); got != 4 {
		t.Fatalf("VertexCount = %d, want 4", got)
	}
	if got := drawing.TriangleCount(); got != 4 {
		t.Fatalf("TriangleCount = %d, want 4", got)
	}
}

func TestFrameRunCountIsMinimal(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	texA := &mockTexture{label: "a", size: Sz[UPx](16, 16)}
	texB := &mockTexture{label: "b", size: Sz[UPx](16, 16)}

	f := drawing.NewFrame(Sz[UPx](640, 480), One)
	for i, texture := range []Texture{texA, texA, texB, texA} {
		d := quad(texture)
		params := DrawParams{Translation: Pt(Px(i*256), Px(0))}
		if err := f.Draw(d, params); err != nil {
			t.Fatalf("Draw %d: %v", i, err)
		}
	}
	endFrame(t, f)

	runs := drawing.Runs()
	if len(runs) != 3 {
		t.Fatalf("runs = %d, want 3", len(runs))
	}
	wantTextures := []Texture{texA, texB, texA}
	wantDraws := []int{2, 1, 1}
	for i, run := range runs {
		if run.Texture != wantTextures[i] {
			t.Fatalf("run %d texture = %v, want %v", i, run.Texture, wantTextures[i])
		}
		if len(run.Draws) != wantDraws[i] {
			t.Fatalf("run %d draws = %d, want %d", i, len(run.Draws), wantDraws[i])
		}
	}
}

func TestFramePreservesDrawOrder(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	texA := &mockTexture{label: "a", size: Sz[UPx](16, 16)}
	texB := &mockTexture{label: "b", size: Sz[UPx](16, 16)}

	f := drawing.NewFrame(Sz[UPx](640, 480), One)
	sequence := []Texture{texA, texB, texA, texB}
	for _, texture := range sequence {
		if err := f.Draw(quad(texture), DrawParams{}); err != nil {
			t.Fatalf("Draw: %v", err)
		}
	}
	endFrame(t, f)

	// Interleaved textures cannot merge; submission order is the draw
	// order.
	runs := drawing.Runs()
	if len(runs) != 4 {
		t.Fatalf("runs = %d, want 4", len(runs))
	}
	for i, run := range runs {
		if run.Texture != sequence[i] {
			t.Fatalf("run %d texture out of order", i)
		}
	}
}

func TestFrameStateChangeMinimization(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	texture := &mockTexture{size: Sz[UPx](16, 16)}

	f := drawing.NewFrame(Sz[UPx](640, 480), One)
	// Same texture, differing constants: one run, several draws.
	for i := 0; i < 3; i++ {
		d := quad(texture)
		if err := f.Draw(d, DrawParams{Translation: Pt(Px(i*100+4), Px(0))}); err != nil {
			t.Fatalf("Draw: %v", err)
		}
	}
	endFrame(t, f)

	recorder := NewPassRecorder()
	if err := drawing.Render(recorder); err != nil {
		t.Fatalf("Render: %v", err)
	}

	pipelines, scissors, textures, draws := 0, 0, 0, 0
	for _, cmd := range recorder.Commands() {
		switch cmd.Op {
		case OpSetPipeline:
			pipelines++
		case OpSetScissor:
			scissors++
		case OpBindTexture:
			textures++
		case OpDrawIndexed:
			draws++
		}
	}
	if pipelines != 1 || scissors != 1 || textures != 1 {
		t.Fatalf("state changes = %d/%d/%d, want 1/1/1", pipelines, scissors, textures)
	}
	if draws != 3 {
		t.Fatalf("draws = %d, want 3", draws)
	}
}

func TestFrameDrawAfterEnd(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](64, 64), One)
	endFrame(t, f)

	err := f.Draw(quad(&mockTexture{}), DrawParams{})
	if !errors.Is(err, ErrFrameEnded) {
		t.Fatalf("Draw after End = %v, want ErrFrameEnded", err)
	}
	if err := f.End(); !errors.Is(err, ErrFrameEnded) {
		t.Fatalf("second End = %v, want ErrFrameEnded", err)
	}
}

func TestDrawingRenderBeforeEnd(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](64, 64), One)
	_ = f

	err := drawing.Render(NewPassRecorder())
	if !errors.Is(err, ErrFrameOpen) {
		t.Fatalf("Render on open frame = %v, want ErrFrameOpen", err)
	}
}

func TestFrameAbandonedByNewFrame(t *testing.T) {
	drawing, _ := newTestDrawing(t)

	f := drawing.NewFrame(Sz[UPx](64, 64), One)
	if err := f.Draw(quad(&mockTexture{}), DrawParams{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	// Dropping the frame without End and starting over discards the
	// accumulated draws.
	f2 := drawing.NewFrame(Sz[UPx](64, 64), One)
	endFrame(t, f2)
	if got := drawing.CommandCount(); got != 0 {
		t.Fatalf("CommandCount after abandon = %d, want 0", got)
	}
}

func TestFrameSkipsEmptyDrawable(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](64, 64), One)
	if err := f.Draw(&Drawable{}, DrawParams{}); err != nil {
		t.Fatalf("Draw empty = %v, want nil", err)
	}
	endFrame(t, f)
	if got := drawing.CommandCount(); got != 0 {
		t.Fatalf("CommandCount = %d, want 0", got)
	}
}

func TestFrameRejectsStaleSlot(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	atlas, _, _ := newTestAtlas()
	slot := mustAllocate(t, atlas, 16, 16)
	d := SlotBlit(slot, NewRect[Px](0, 0, 64, 64), ColorWhite)

	if err := atlas.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	f := drawing.NewFrame(Sz[UPx](64, 64), One)
	if err := f.Draw(d, DrawParams{}); !errors.Is(err, ErrStaleSlot) {
		t.Fatalf("Draw with stale slot = %v, want ErrStaleSlot", err)
	}
	// The rejection leaves the frame usable.
	if err := f.Draw(quad(&mockTexture{}), DrawParams{}); err != nil {
		t.Fatalf("Draw after rejection: %v", err)
	}
	endFrame(t, f)
}

func TestFrameUploadsBuffersOnEnd(t *testing.T) {
	drawing, device := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](64, 64), One)
	if err := f.Draw(quad(&mockTexture{}), DrawParams{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	endFrame(t, f)

	if len(device.buffers) != 2 {
		t.Fatalf("buffers created = %d, want 2", len(device.buffers))
	}
	vb := device.buffers[0]
	if len(vb.contents) != 4*VertexStride {
		t.Fatalf("vertex buffer = %d bytes, want %d", len(vb.contents), 4*VertexStride)
	}
	ib := device.buffers[1]
	if len(ib.contents) != 6*4 {
		t.Fatalf("index buffer = %d bytes, want 24", len(ib.contents))
	}
}

func TestFrameOpacityMultipliesDraws(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](64, 64), One)
	f.SetOpacity(0.5)
	if err := f.Draw(quad(&mockTexture{}), DrawParams{Opacity: 0.5}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	endFrame(t, f)

	constants := drawing.Runs()[0].Draws[0].Constants
	if constants.Opacity != 0.25 {
		t.Fatalf("Opacity = %v, want 0.25", constants.Opacity)
	}
}

func TestFrameSetsSamplingFlags(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	atlas, _, _ := newTestAtlas()
	masks, _, _ := newTestMaskAtlas()
	colorSlot := mustAllocate(t, atlas, 16, 16)
	maskSlot, err := masks.Allocate(Sz[UPx](16, 16), make([]byte, 16*16), 16)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	f := drawing.NewFrame(Sz[UPx](64, 64), One)
	plain := TextureBlit(NewRect[UPx](0, 0, 16, 16), NewRect[Px](0, 0, 64, 64), ColorWhite)
	if err := f.Draw(plain, DrawParams{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if err := f.Draw(SlotBlit(colorSlot, NewRect[Px](0, 0, 64, 64), ColorWhite), DrawParams{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if err := f.Draw(SlotBlit(maskSlot, NewRect[Px](0, 0, 64, 64), ColorWhite), DrawParams{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	endFrame(t, f)

	runs := drawing.Runs()
	if len(runs) != 3 {
		t.Fatalf("runs = %d, want 3", len(runs))
	}
	// The fragment shader keys sampling off the flags word, so each
	// variant must carry its bit.
	if flags := runs[0].Draws[0].Constants.Flags; flags&(FlagTextured|FlagMasked) != 0 {
		t.Errorf("untextured flags = %#x, want no sampling bits", flags)
	}
	if flags := runs[1].Draws[0].Constants.Flags; flags&FlagTextured == 0 || flags&FlagMasked != 0 {
		t.Errorf("textured flags = %#x, want FlagTextured only", flags)
	}
	if flags := runs[2].Draws[0].Constants.Flags; flags&FlagMasked == 0 {
		t.Errorf("masked flags = %#x, want FlagMasked", flags)
	}
}
