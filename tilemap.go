package blit

import "fmt"

// emptyTile marks a tile map cell with nothing to draw.
const emptyTile = -1

// TileLayer is a dense grid of sprite sheet cell indices. Cells set
// to no tile are skipped when drawing.
type TileLayer struct {
	sheet   *SpriteSheet
	columns int
	rows    int
	tiles   []int
	offset  Point[Px]
}

// NewTileLayer creates an empty layer of columns by rows cells drawn
// from sheet.
func NewTileLayer(sheet *SpriteSheet, columns, rows int) (*TileLayer, error) {
	if columns <= 0 || rows <= 0 {
		return nil, fmt.Errorf("blit: tile layer: invalid grid %dx%d", columns, rows)
	}
	tiles := make([]int, columns*rows)
	for i := range tiles {
		tiles[i] = emptyTile
	}
	return &TileLayer{sheet: sheet, columns: columns, rows: rows, tiles: tiles}, nil
}

// SetOffset moves the layer's origin, in pixels. Layers of one map can
// scroll independently.
func (l *TileLayer) SetOffset(offset Point[Px]) { l.offset = offset }

// SetTile assigns the sheet cell at index to the grid cell, or clears
// it when index is negative.
func (l *TileLayer) SetTile(col, row, index int) error {
	if col < 0 || col >= l.columns || row < 0 || row >= l.rows {
		return fmt.Errorf("blit: tile layer: cell (%d, %d) out of range %dx%d", col, row, l.columns, l.rows)
	}
	if index >= l.sheet.Count() {
		return fmt.Errorf("blit: tile layer: sheet cell %d out of range [0, %d)", index, l.sheet.Count())
	}
	if index < 0 {
		index = emptyTile
	}
	l.tiles[row*l.columns+col] = index
	return nil
}

// Tile returns the sheet cell index at the grid cell, or a negative
// value when the cell is empty or out of range.
func (l *TileLayer) Tile(col, row int) int {
	if col < 0 || col >= l.columns || row < 0 || row >= l.rows {
		return emptyTile
	}
	return l.tiles[row*l.columns+col]
}

// Fill assigns every grid cell the same sheet cell.
func (l *TileLayer) Fill(index int) error {
	if index >= l.sheet.Count() {
		return fmt.Errorf("blit: tile layer: sheet cell %d out of range [0, %d)", index, l.sheet.Count())
	}
	if index < 0 {
		index = emptyTile
	}
	for i := range l.tiles {
		l.tiles[i] = index
	}
	return nil
}

// TileMap stacks layers sharing a world origin. Layers draw back to
// front in the order they were added.
type TileMap struct {
	layers []*TileLayer
}

// NewTileMap returns a map over the given layers.
func NewTileMap(layers ...*TileLayer) *TileMap {
	return &TileMap{layers: layers}
}

// AddLayer appends a layer on top of the existing ones.
func (m *TileMap) AddLayer(layer *TileLayer) {
	m.layers = append(m.layers, layer)
}

// Draw submits every visible tile to the frame, positioned relative to
// origin. Tiles whose rectangle falls outside view are culled. All
// tiles of a layer share a texture, so the frame batches each layer
// into a handful of draw calls.
func (m *TileMap) Draw(f *Frame, origin Point[Px], view Rect[Px], params DrawParams) error {
	for _, layer := range m.layers {
		if err := layer.draw(f, origin, view, params); err != nil {
			return err
		}
	}
	return nil
}

func (l *TileLayer) draw(f *Frame, origin Point[Px], view Rect[Px], params DrawParams) error {
	tile := l.sheet.TileSize()
	tileW := tile.Width.ToPx()
	tileH := tile.Height.ToPx()
	base := origin.Add(l.offset)

	firstCol, lastCol := visibleRange(base.X, tileW, view.Origin.X, view.Right(), l.columns)
	firstRow, lastRow := visibleRange(base.Y, tileH, view.Origin.Y, view.Bottom(), l.rows)

	for row := firstRow; row < lastRow; row++ {
		y := base.Y + Px(row)*tileH
		for col := firstCol; col < lastCol; col++ {
			index := l.tiles[row*l.columns+col]
			if index < 0 {
				continue
			}
			source, err := l.sheet.Source(index)
			if err != nil {
				return err
			}
			x := base.X + Px(col)*tileW
			dest := NewRect(x, y, tileW, tileH)
			d, err := source.Blit(dest, ColorWhite)
			if err != nil {
				return err
			}
			if err := f.Draw(d, params); err != nil {
				return err
			}
		}
	}
	return nil
}

// visibleRange clips a row or column of count cells of the given
// extent, starting at base, against [lo, hi). Cell c covers
// [base+c*extent, base+(c+1)*extent).
func visibleRange(base, extent, lo, hi Px, count int) (int, int) {
	if extent <= 0 || hi <= lo {
		return 0, 0
	}
	first := floorDiv(int64(lo-base), int64(extent))
	last := ceilDiv(int64(hi-base), int64(extent))
	if first < 0 {
		first = 0
	}
	if first > int64(count) {
		first = int64(count)
	}
	if last > int64(count) {
		last = int64(count)
	}
	if last < first {
		last = first
	}
	return int(first), int(last)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}
