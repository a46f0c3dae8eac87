package blit

// Unit constrains the integer length types geometry is generic over.
type Unit interface {
	~int32 | ~uint32
}

// Point is a 2D coordinate in a fixed-point unit.
type Point[U Unit] struct {
	X U
	Y U
}

// Pt is shorthand for constructing a Point.
func Pt[U Unit](x, y U) Point[U] { return Point[U]{X: x, Y: y} }

// Add returns the component-wise sum of two points.
func (p Point[U]) Add(other Point[U]) Point[U] {
	return Point[U]{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the component-wise difference of two points.
func (p Point[U]) Sub(other Point[U]) Point[U] {
	return Point[U]{X: p.X - other.X, Y: p.Y - other.Y}
}

// IsZero reports whether both components are zero.
func (p Point[U]) IsZero() bool { return p.X == 0 && p.Y == 0 }

// Size is a 2D extent in a fixed-point unit.
type Size[U Unit] struct {
	Width  U
	Height U
}

// Sz is shorthand for constructing a Size.
func Sz[U Unit](w, h U) Size[U] { return Size[U]{Width: w, Height: h} }

// IsEmpty reports whether the size has no area.
func (s Size[U]) IsEmpty() bool { return s.Width == 0 || s.Height == 0 }

// Area returns width times height, widened to avoid overflow.
func (s Size[U]) Area() uint64 { return uint64(s.Width) * uint64(s.Height) }

// Rect is an axis-aligned rectangle: an origin plus a size.
type Rect[U Unit] struct {
	Origin Point[U]
	Size   Size[U]
}

// NewRect constructs a rectangle from origin and size components.
func NewRect[U Unit](x, y, w, h U) Rect[U] {
	return Rect[U]{Origin: Point[U]{X: x, Y: y}, Size: Size[U]{Width: w, Height: h}}
}

// SizedRect constructs a rectangle at the zero origin.
func SizedRect[U Unit](size Size[U]) Rect[U] { return Rect[U]{Size: size} }

// Right returns the exclusive right edge coordinate.
func (r Rect[U]) Right() U { return r.Origin.X + r.Size.Width }

// Bottom returns the exclusive bottom edge coordinate.
func (r Rect[U]) Bottom() U { return r.Origin.Y + r.Size.Height }

// IsEmpty reports whether the rectangle has no area.
func (r Rect[U]) IsEmpty() bool { return r.Size.IsEmpty() }

// Contains reports whether p lies inside the rectangle.
func (r Rect[U]) Contains(p Point[U]) bool {
	return p.X >= r.Origin.X && p.X < r.Right() &&
		p.Y >= r.Origin.Y && p.Y < r.Bottom()
}

// Overlaps reports whether two rectangles share any area.
func (r Rect[U]) Overlaps(other Rect[U]) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.Origin.X < other.Right() && other.Origin.X < r.Right() &&
		r.Origin.Y < other.Bottom() && other.Origin.Y < r.Bottom()
}

// Intersect returns the overlapping region of two rectangles. The result
// is an empty rectangle when they do not overlap.
func (r Rect[U]) Intersect(other Rect[U]) Rect[U] {
	x := maxUnit(r.Origin.X, other.Origin.X)
	y := maxUnit(r.Origin.Y, other.Origin.Y)
	right := minUnit(r.Right(), other.Right())
	bottom := minUnit(r.Bottom(), other.Bottom())
	if right <= x || bottom <= y {
		return Rect[U]{}
	}
	return NewRect(x, y, right-x, bottom-y)
}

// Translate returns the rectangle moved by delta.
func (r Rect[U]) Translate(delta Point[U]) Rect[U] {
	return Rect[U]{Origin: r.Origin.Add(delta), Size: r.Size}
}

func maxUnit[U Unit](a, b U) U {
	if a > b {
		return a
	}
	return b
}

func minUnit[U Unit](a, b U) U {
	if a < b {
		return a
	}
	return b
}
