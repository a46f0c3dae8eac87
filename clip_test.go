package blit

import (
	"errors"
	"testing"
)

func TestPushClipIntersectsRelative(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](640, 480), One)

	outer := f.PushClip(NewRect[UPx](100, 100, 200, 200))
	if got := f.Clip(); got != NewRect[UPx](100, 100, 200, 200) {
		t.Fatalf("outer clip = %v", got)
	}

	// Inner rect is relative to the outer clip's origin.
	inner := f.PushClip(NewRect[UPx](150, 150, 100, 100))
	if got := f.Clip(); got != NewRect[UPx](250, 250, 50, 50) {
		t.Fatalf("inner clip = %v, want {250 250 50 50}", got)
	}

	inner.Restore()
	if got := f.Clip(); got != NewRect[UPx](100, 100, 200, 200) {
		t.Fatalf("clip after inner restore = %v", got)
	}
	outer.Restore()
	if got := f.Clip(); got != NewRect[UPx](0, 0, 640, 480) {
		t.Fatalf("clip after outer restore = %v", got)
	}
}

func TestClipGuardRestoreIsIdempotent(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](640, 480), One)

	a := f.PushClip(NewRect[UPx](10, 10, 100, 100))
	b := f.PushClip(NewRect[UPx](20, 20, 40, 40))
	b.Restore()
	b.Restore()
	if got := f.Clip(); got != NewRect[UPx](10, 10, 100, 100) {
		t.Fatalf("clip after double restore = %v", got)
	}
	a.Restore()
}

func TestClippedRestoresOnError(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](640, 480), One)

	sentinel := errors.New("boom")
	err := f.Clipped(NewRect[UPx](10, 10, 50, 50), func(f *Frame) error {
		if got := f.Clip(); got != NewRect[UPx](10, 10, 50, 50) {
			t.Fatalf("clip inside scope = %v", got)
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Clipped error = %v", err)
	}
	if got := f.Clip(); got != NewRect[UPx](0, 0, 640, 480) {
		t.Fatalf("clip after error = %v", got)
	}
}

func TestEmptyClipDiscardsDraws(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](640, 480), One)

	err := f.Clipped(NewRect[UPx](700, 700, 10, 10), func(f *Frame) error {
		return f.Draw(quad(&mockTexture{}), DrawParams{})
	})
	if err != nil {
		t.Fatalf("Clipped: %v", err)
	}
	if got := drawing.CommandCount(); got != 0 {
		t.Fatalf("CommandCount = %d, want 0", got)
	}
}

func TestClipOriginOffsetsDraws(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](640, 480), One)

	err := f.Clipped(NewRect[UPx](100, 50, 200, 200), func(f *Frame) error {
		return f.Draw(quad(&mockTexture{}), DrawParams{})
	})
	if err != nil {
		t.Fatalf("Clipped: %v", err)
	}
	endFrame(t, f)

	run := drawing.Runs()[0]
	if run.Clip != NewRect[UPx](100, 50, 200, 200) {
		t.Fatalf("run clip = %v", run.Clip)
	}
	want := Pt(UPx(100).ToPx(), UPx(50).ToPx())
	if got := run.Draws[0].Constants.Translation; got != want {
		t.Fatalf("translation = %v, want %v", got, want)
	}
	if run.Draws[0].Constants.Flags&FlagTranslate == 0 {
		t.Fatal("translate flag not set")
	}
}

func TestClipIndexInterning(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](640, 480), One)
	texture := &mockTexture{size: Sz[UPx](16, 16)}

	rect := NewRect[UPx](10, 10, 100, 100)
	for i := 0; i < 2; i++ {
		err := f.Clipped(rect, func(f *Frame) error {
			return f.Draw(quad(texture), DrawParams{})
		})
		if err != nil {
			t.Fatalf("Clipped %d: %v", i, err)
		}
	}
	endFrame(t, f)

	// Re-entering an identical clip scope reuses its interned index, so
	// both draws merge into a single command and run.
	if got := drawing.CommandCount(); got != 1 {
		t.Fatalf("CommandCount = %d, want 1", got)
	}
	if got := len(drawing.Runs()); got != 1 {
		t.Fatalf("runs = %d, want 1", got)
	}
}

func TestTransformCompose(t *testing.T) {
	parent := Transform{Rotation: 0.5, Scale: 2, Translation: Pt(Px(40), Px(8))}
	child := Transform{Rotation: 0.25, Scale: 3, Translation: Pt(Px(-4), Px(12))}

	got := parent.compose(child)
	want := Transform{Rotation: 0.75, Scale: 6, Translation: Pt(Px(36), Px(20))}
	if got != want {
		t.Fatalf("compose = %+v, want %+v", got, want)
	}

	// A zero child scale means unscaled, not degenerate.
	got = parent.compose(Transform{Translation: Pt(Px(1), Px(1))})
	if got.Scale != 2 {
		t.Fatalf("compose with zero scale = %v, want 2", got.Scale)
	}
}

func TestTransformedAppliesToDraws(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](640, 480), One)

	transform := Transform{Rotation: 1.5, Scale: 2, Translation: Pt(Px(32), Px(16))}
	err := f.Transformed(transform, func(f *Frame) error {
		return f.Draw(quad(&mockTexture{}), DrawParams{Translation: Pt(Px(8), Px(0))})
	})
	if err != nil {
		t.Fatalf("Transformed: %v", err)
	}
	if f.transform != identityTransform {
		t.Fatalf("transform not restored: %+v", f.transform)
	}
	endFrame(t, f)

	constants := drawing.Runs()[0].Draws[0].Constants
	if got := constants.Translation; got != Pt(Px(40), Px(16)) {
		t.Fatalf("translation = %v", got)
	}
	if constants.Rotation != 1.5 {
		t.Fatalf("rotation = %v", constants.Rotation)
	}
	if constants.ScaleX != 2 || constants.ScaleY != 2 {
		t.Fatalf("scale = %v, %v", constants.ScaleX, constants.ScaleY)
	}
	for _, flag := range []uint32{FlagRotate, FlagScale, FlagTranslate} {
		if constants.Flags&flag == 0 {
			t.Fatalf("flag %#x not set", flag)
		}
	}
}

func TestNestedTransformScopes(t *testing.T) {
	drawing, _ := newTestDrawing(t)
	f := drawing.NewFrame(Sz[UPx](640, 480), One)

	outer := f.PushTransform(Transform{Scale: 2, Translation: Pt(Px(10), Px(0))})
	inner := f.PushTransform(Transform{Scale: 0.5, Translation: Pt(Px(0), Px(10))})
	if f.transform.Scale != 1 {
		t.Fatalf("nested scale = %v, want 1", f.transform.Scale)
	}
	if f.transform.Translation != Pt(Px(10), Px(10)) {
		t.Fatalf("nested translation = %v", f.transform.Translation)
	}
	inner.Restore()
	if f.transform.Scale != 2 || f.transform.Translation != Pt(Px(10), Px(0)) {
		t.Fatalf("transform after inner restore = %+v", f.transform)
	}
	outer.Restore()
	if f.transform != identityTransform {
		t.Fatalf("transform after outer restore = %+v", f.transform)
	}
}
