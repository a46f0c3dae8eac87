package blit

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	tslang "github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/language"
)

// GlyphKey identifies one rasterized glyph: the font it came from, the
// glyph index, and the pixel size it was rendered at.
type GlyphKey struct {
	Font *font.Font
	GID  font.GID
	Size fixed.Int26_6
}

// GlyphEntry is a cached glyph: its coverage mask's atlas slot and the
// bearing from the pen position to the mask's top-left corner.
type GlyphEntry struct {
	Slot    *Slot
	Bearing Point[Px]
}

// GlyphCache maps glyph keys to coverage masks held in a
// single-channel atlas. Rasterization happens outside the cache;
// callers insert coverage bitmaps and the cache owns the slots.
//
// A GlyphCache is confined to a single goroutine.
type GlyphCache struct {
	atlas   *Atlas
	entries map[GlyphKey]GlyphEntry
}

// NewGlyphCache returns an empty cache backed by the given mask atlas.
func NewGlyphCache(atlas *Atlas) *GlyphCache {
	return &GlyphCache{
		atlas:   atlas,
		entries: make(map[GlyphKey]GlyphEntry),
	}
}

// Get returns the cached entry for key. Entries whose slot went stale
// after an atlas rebuild are evicted and reported as missing, so the
// caller re-rasterizes.
func (c *GlyphCache) Get(key GlyphKey) (GlyphEntry, bool) {
	entry, ok := c.entries[key]
	if !ok {
		return GlyphEntry{}, false
	}
	if err := entry.Slot.Valid(); err != nil {
		entry.Slot.Release()
		delete(c.entries, key)
		return GlyphEntry{}, false
	}
	return entry, true
}

// Insert uploads an 8-bit coverage mask for key and caches the
// resulting slot. Width is the mask's bytes-per-row. Inserting over an
// existing entry releases the old slot.
func (c *GlyphCache) Insert(key GlyphKey, bearing Point[Px], size Size[UPx], coverage []byte) (GlyphEntry, error) {
	if int(size.Area()) != len(coverage) {
		return GlyphEntry{}, fmt.Errorf("blit: glyph cache: %d coverage bytes for %dx%d mask",
			len(coverage), size.Width, size.Height)
	}
	slot, err := c.atlas.Allocate(size, coverage, uint32(size.Width))
	if err != nil {
		return GlyphEntry{}, fmt.Errorf("blit: glyph cache: %w", err)
	}
	if old, ok := c.entries[key]; ok {
		old.Slot.Release()
	}
	entry := GlyphEntry{Slot: slot, Bearing: bearing}
	c.entries[key] = entry
	return entry, nil
}

// Len reports the number of cached glyphs.
func (c *GlyphCache) Len() int { return len(c.entries) }

// Clear releases every cached slot.
func (c *GlyphCache) Clear() {
	for key, entry := range c.entries {
		entry.Slot.Release()
		delete(c.entries, key)
	}
}

// TextRun is one directionally-uniform piece of text to shape.
type TextRun struct {
	Text     string
	Size     fixed.Int26_6
	Language language.Tag
	RTL      bool
}

// ShapedGlyph is one positioned glyph from shaping: the glyph index
// and the pen-relative position and advance, all in 26.6 fixed point.
type ShapedGlyph struct {
	GID      font.GID
	XOffset  fixed.Int26_6
	YOffset  fixed.Int26_6
	XAdvance fixed.Int26_6
}

// ShapedRun is the output of shaping one run.
type ShapedRun struct {
	Glyphs  []ShapedGlyph
	Advance fixed.Int26_6
}

// Shaper turns text runs into positioned glyphs using HarfBuzz-level
// shaping. It caches parsed fonts; Face instances are created per call
// since they are not safe for concurrent use.
//
// A Shaper is safe for concurrent use.
type Shaper struct {
	pool sync.Pool

	mu    sync.RWMutex
	fonts map[string]*font.Font
}

// NewShaper returns an empty shaper.
func NewShaper() *Shaper {
	return &Shaper{
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
		fonts: make(map[string]*font.Font),
	}
}

// LoadFont parses TTF or OTF data and registers it under name.
func (s *Shaper) LoadFont(name string, data []byte) (*font.Font, error) {
	s.mu.RLock()
	if f, ok := s.fonts[name]; ok {
		s.mu.RUnlock()
		return f, nil
	}
	s.mu.RUnlock()

	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("blit: parse font %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.fonts[name]; ok {
		return f, nil
	}
	s.fonts[name] = face.Font
	return face.Font, nil
}

// Font returns the font registered under name.
func (s *Shaper) Font(name string) (*font.Font, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fonts[name]
	return f, ok
}

// Shape shapes run with f, returning positioned glyphs in visual
// order.
func (s *Shaper) Shape(f *font.Font, run TextRun) ShapedRun {
	if run.Text == "" || f == nil {
		return ShapedRun{}
	}
	runes := []rune(run.Text)
	dir := di.DirectionLTR
	if run.RTL {
		dir = di.DirectionRTL
	}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      font.NewFace(f),
		Size:      run.Size,
		Script:    runScript(runes),
		Language:  tslang.NewLanguage(run.Language.String()),
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.pool.Put(hb)

	shaped := ShapedRun{Glyphs: make([]ShapedGlyph, len(output.Glyphs))}
	for i, g := range output.Glyphs {
		shaped.Glyphs[i] = ShapedGlyph{
			GID:      g.GlyphID,
			XOffset:  g.XOffset,
			YOffset:  g.YOffset,
			XAdvance: g.Advance,
		}
		shaped.Advance += g.Advance
	}
	return shaped
}

// runScript returns the script of the first non-space rune.
func runScript(runes []rune) tslang.Script {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return tslang.LookupScript(r)
	}
	return tslang.Latin
}

// PxFromFixed converts a 26.6 fixed-point value to quarter pixels,
// rounding half away from zero.
func PxFromFixed(v fixed.Int26_6) Px {
	return Px(divRound(int64(v)*int64(PxScale), 64))
}

// DrawRun submits a shaped run to the frame at origin. Glyphs missing
// from the cache are skipped; callers rasterize and insert them, then
// redraw. The pen advances along the baseline; YOffset shifts
// individual glyphs off it.
func DrawRun(f *Frame, cache *GlyphCache, fnt *font.Font, size fixed.Int26_6,
	run ShapedRun, origin Point[Px], color Color, params DrawParams) error {
	pen := origin
	for _, g := range run.Glyphs {
		key := GlyphKey{Font: fnt, GID: g.GID, Size: size}
		entry, ok := cache.Get(key)
		if !ok {
			pen.X += PxFromFixed(g.XAdvance)
			continue
		}
		region := entry.Slot.Region()
		dest := NewRect(
			pen.X+PxFromFixed(g.XOffset)+entry.Bearing.X,
			pen.Y-PxFromFixed(g.YOffset)+entry.Bearing.Y,
			region.Size.Width.ToPx(),
			region.Size.Height.ToPx(),
		)
		d := SlotBlit(entry.Slot, dest, color)
		if err := f.Draw(d, params); err != nil {
			return err
		}
		pen.X += PxFromFixed(g.XAdvance)
	}
	return nil
}
