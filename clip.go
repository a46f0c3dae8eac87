package blit

// Transform is the per-scope affine transform applied to draws: a
// rotation, a uniform scale, and an integer translation. Rotation and
// scale ride in the per-draw parameter block; translation stays in
// exact quarter-pixel integers so nested scopes never accumulate
// floating-point drift.
type Transform struct {
	Rotation    float32
	Scale       float32
	Translation Point[Px]
}

// identityTransform is the state of a fresh frame.
var identityTransform = Transform{Scale: 1}

// compose returns the child transform applied inside the parent scope.
// Rotations add, scales multiply, translations add in integer units.
func (t Transform) compose(child Transform) Transform {
	scale := child.Scale
	if scale == 0 {
		scale = 1
	}
	return Transform{
		Rotation:    t.Rotation + child.Rotation,
		Scale:       t.Scale * scale,
		Translation: t.Translation.Add(child.Translation),
	}
}

// ClipGuard restores the clip rectangle that was current when it was
// created. Guards must be restored in reverse order of creation;
// Clipped does this automatically on every exit path.
type ClipGuard struct {
	frame    *Frame
	previous Rect[UPx]
	restored bool
}

// Restore reinstates the clip exactly as it was before the matching
// PushClip, regardless of what happened inside the scope. Restoring
// twice is a no-op.
func (g *ClipGuard) Restore() {
	if g.restored {
		return
	}
	g.restored = true
	g.frame.clip = g.previous
	g.frame.clipIndex = g.frame.drawing.clipIndexFor(g.previous)
}

// TransformGuard restores the transform that was current when it was
// created.
type TransformGuard struct {
	frame    *Frame
	previous Transform
	restored bool
}

// Restore reinstates the saved transform. Restoring twice is a no-op.
func (g *TransformGuard) Restore() {
	if g.restored {
		return
	}
	g.restored = true
	g.frame.transform = g.previous
}

// PushClip narrows the effective clip to rect, which is relative to the
// current clip's origin and cannot extend it. Subsequent draws are
// offset by the clip origin and scissored to the intersection. The
// returned guard restores the previous clip; prefer Clipped unless the
// scope spans non-lexical boundaries.
func (f *Frame) PushClip(rect Rect[UPx]) ClipGuard {
	guard := ClipGuard{frame: f, previous: f.clip}
	effective := f.clip.Intersect(rect.Translate(f.clip.Origin))
	f.clip = effective
	f.clipIndex = f.drawing.clipIndexFor(effective)
	return guard
}

// Clipped runs fn with the clip narrowed to rect, restoring the
// previous clip on every exit path, error returns included.
func (f *Frame) Clipped(rect Rect[UPx], fn func(*Frame) error) error {
	guard := f.PushClip(rect)
	defer guard.Restore()
	return fn(f)
}

// PushTransform composes t onto the current transform scope. The
// returned guard restores the enclosing scope's transform exactly.
func (f *Frame) PushTransform(t Transform) TransformGuard {
	guard := TransformGuard{frame: f, previous: f.transform}
	f.transform = f.transform.compose(t)
	return guard
}

// Transformed runs fn inside a transform scope, restoring the parent
// transform on every exit path.
func (f *Frame) Transformed(t Transform, fn func(*Frame) error) error {
	guard := f.PushTransform(t)
	defer guard.Restore()
	return fn(f)
}

// Clip returns the current effective clip rectangle in device pixels.
func (f *Frame) Clip() Rect[UPx] { return f.clip }
