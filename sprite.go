package blit

import (
	"fmt"
	"image"
	"time"
)

// AnimationMode controls how an animation walks its frame list.
type AnimationMode uint8

const (
	// AnimationForward plays frames first to last, looping.
	AnimationForward AnimationMode = iota
	// AnimationReverse plays frames last to first, looping.
	AnimationReverse
	// AnimationPingPong bounces between the ends without repeating
	// the endpoints.
	AnimationPingPong
	// AnimationOnce plays first to last, then holds the final frame.
	AnimationOnce
)

// String returns the mode name.
func (m AnimationMode) String() string {
	switch m {
	case AnimationForward:
		return "Forward"
	case AnimationReverse:
		return "Reverse"
	case AnimationPingPong:
		return "PingPong"
	case AnimationOnce:
		return "Once"
	default:
		return "Unknown"
	}
}

// SpriteSource is one sprite cell: a rectangle inside a sprite sheet's
// atlas slot. The rectangle is relative to the slot's origin so it
// survives atlas repacks as long as the slot does.
type SpriteSource struct {
	sheet  *SpriteSheet
	region Rect[UPx]
}

// Blit returns a drawable that renders the sprite cell into dest.
func (s SpriteSource) Blit(dest Rect[Px], color Color) (*Drawable, error) {
	if err := s.sheet.slot.Valid(); err != nil {
		return nil, err
	}
	base := s.sheet.slot.Region()
	source := Rect[UPx]{
		Origin: base.Origin.Add(s.region.Origin),
		Size:   s.region.Size,
	}
	d := TextureBlit(source, dest, color)
	d.Slot = s.sheet.slot
	d.Masked = s.sheet.slot.atlas.Masked()
	return d, nil
}

// Size returns the cell size in texels.
func (s SpriteSource) Size() Size[UPx] { return s.region.Size }

// SpriteSheet is a uniform grid of sprite cells backed by a single
// atlas slot.
type SpriteSheet struct {
	slot     *Slot
	tileSize Size[UPx]
	columns  uint32
	rows     uint32
}

// NewSpriteSheet uploads img into atlas and slices it into tileSize
// cells. The image dimensions must be exact multiples of the tile
// size.
func NewSpriteSheet(atlas *Atlas, img image.Image, tileSize Size[UPx]) (*SpriteSheet, error) {
	if tileSize.IsEmpty() {
		return nil, fmt.Errorf("blit: sprite sheet: empty tile size")
	}
	bounds := img.Bounds()
	width := UPx(bounds.Dx())
	height := UPx(bounds.Dy())
	if width%tileSize.Width != 0 || height%tileSize.Height != 0 {
		return nil, fmt.Errorf("blit: sprite sheet: image %dx%d not a multiple of tile %dx%d",
			width, height, tileSize.Width, tileSize.Height)
	}
	slot, err := atlas.AllocateImage(img)
	if err != nil {
		return nil, err
	}
	return &SpriteSheet{
		slot:     slot,
		tileSize: tileSize,
		columns:  uint32(width / tileSize.Width),
		rows:     uint32(height / tileSize.Height),
	}, nil
}

// Count returns the number of cells in the sheet.
func (s *SpriteSheet) Count() int { return int(s.columns * s.rows) }

// TileSize returns the cell size in texels.
func (s *SpriteSheet) TileSize() Size[UPx] { return s.tileSize }

// Source returns the cell at index, counted row-major from the top
// left.
func (s *SpriteSheet) Source(index int) (SpriteSource, error) {
	if index < 0 || index >= s.Count() {
		return SpriteSource{}, fmt.Errorf("blit: sprite sheet: cell %d out of range [0, %d)", index, s.Count())
	}
	col := uint32(index) % s.columns
	row := uint32(index) / s.columns
	return s.SourceAt(int(col), int(row))
}

// SourceAt returns the cell at the given column and row.
func (s *SpriteSheet) SourceAt(col, row int) (SpriteSource, error) {
	if col < 0 || uint32(col) >= s.columns || row < 0 || uint32(row) >= s.rows {
		return SpriteSource{}, fmt.Errorf("blit: sprite sheet: cell (%d, %d) out of range %dx%d",
			col, row, s.columns, s.rows)
	}
	origin := Pt(UPx(col)*s.tileSize.Width, UPx(row)*s.tileSize.Height)
	return SpriteSource{
		sheet:  s,
		region: Rect[UPx]{Origin: origin, Size: s.tileSize},
	}, nil
}

// Sources returns the cells at the given indices, in order.
func (s *SpriteSheet) Sources(indices ...int) ([]SpriteSource, error) {
	sources := make([]SpriteSource, 0, len(indices))
	for _, index := range indices {
		source, err := s.Source(index)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// Release releases the sheet's atlas slot.
func (s *SpriteSheet) Release() {
	s.slot.Release()
}

// SpriteFrame is one animation frame: a cell and how long it shows.
type SpriteFrame struct {
	Source   SpriteSource
	Duration time.Duration
}

// Animation is an ordered frame list with a playback mode.
type Animation struct {
	Frames []SpriteFrame
	Mode   AnimationMode
}

// NewAnimation builds an animation showing each source for duration.
func NewAnimation(mode AnimationMode, duration time.Duration, sources ...SpriteSource) *Animation {
	frames := make([]SpriteFrame, len(sources))
	for i, source := range sources {
		frames[i] = SpriteFrame{Source: source, Duration: duration}
	}
	return &Animation{Frames: frames, Mode: mode}
}

// Sprite is an animation state machine over a set of tagged
// animations. Advance it with wall-clock deltas and draw whatever
// CurrentFrame returns. Advancement is deterministic: ticking 250ms
// equals ticking 100ms then 150ms.
//
// A Sprite is confined to a single goroutine.
type Sprite struct {
	animations map[string]*Animation

	tag       string
	current   *Animation
	frame     int
	direction int
	elapsed   time.Duration
	finished  bool
}

// NewSprite builds a sprite from tagged animations, starting on tag.
func NewSprite(animations map[string]*Animation, tag string) (*Sprite, error) {
	s := &Sprite{animations: animations}
	if err := s.SetTag(tag); err != nil {
		return nil, err
	}
	return s, nil
}

// Tag returns the active animation tag.
func (s *Sprite) Tag() string { return s.tag }

// SetTag switches to the named animation and rewinds it. Setting the
// already-active tag is a no-op.
func (s *Sprite) SetTag(tag string) error {
	if s.current != nil && s.tag == tag {
		return nil
	}
	animation, ok := s.animations[tag]
	if !ok || len(animation.Frames) == 0 {
		return fmt.Errorf("blit: sprite: no animation tagged %q", tag)
	}
	s.tag = tag
	s.current = animation
	s.elapsed = 0
	s.finished = false
	if animation.Mode == AnimationReverse {
		s.frame = len(animation.Frames) - 1
		s.direction = -1
	} else {
		s.frame = 0
		s.direction = 1
	}
	return nil
}

// Advance moves the animation forward by delta. Frames shorter than
// the delta are skipped; the remainder carries into the new frame.
func (s *Sprite) Advance(delta time.Duration) {
	if s.finished || delta <= 0 {
		return
	}
	s.elapsed += delta
	for {
		duration := s.current.Frames[s.frame].Duration
		if duration <= 0 || s.elapsed < duration {
			return
		}
		s.elapsed -= duration
		if !s.step() {
			s.finished = true
			s.elapsed = 0
			return
		}
	}
}

// step moves one frame in the current direction, handling loop and
// bounce. It returns false when a run-once animation has ended.
func (s *Sprite) step() bool {
	last := len(s.current.Frames) - 1
	switch s.current.Mode {
	case AnimationForward:
		if s.frame == last {
			s.frame = 0
		} else {
			s.frame++
		}
	case AnimationReverse:
		if s.frame == 0 {
			s.frame = last
		} else {
			s.frame--
		}
	case AnimationPingPong:
		if last == 0 {
			return true
		}
		next := s.frame + s.direction
		if next < 0 || next > last {
			s.direction = -s.direction
			next = s.frame + s.direction
		}
		s.frame = next
	case AnimationOnce:
		if s.frame == last {
			return false
		}
		s.frame++
	}
	return true
}

// CurrentFrame returns the frame to draw now.
func (s *Sprite) CurrentFrame() SpriteFrame {
	return s.current.Frames[s.frame]
}

// FrameIndex returns the index of the current frame within the active
// animation.
func (s *Sprite) FrameIndex() int { return s.frame }

// RemainingDuration returns how long the current frame remains on
// screen without further Advance calls. A finished run-once animation
// reports zero.
func (s *Sprite) RemainingDuration() time.Duration {
	if s.finished {
		return 0
	}
	duration := s.current.Frames[s.frame].Duration
	if duration <= 0 {
		return 0
	}
	return duration - s.elapsed
}

// Finished reports whether a run-once animation has played through.
func (s *Sprite) Finished() bool { return s.finished }
