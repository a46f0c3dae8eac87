package blit

// Shelf/column rectangle packer.
//
// Space is carved into vertical columns; each column stacks horizontal
// shelves; each shelf holds a row of slots. A shelf's height is fixed by
// the first rectangle placed on it, so packing stays efficient when
// similarly-sized rectangles (glyphs, sprite frames) are allocated
// together. Freed slots go on a per-shelf free list and are reused by
// later allocations that fit; the packer never moves a live rectangle
// and never defragments. Churn with many odd sizes can exhaust space at
// low occupancy; callers open another texture instead.

// packAllocation identifies a live rectangle inside a packer.
type packAllocation struct {
	column uint16
	shelf  uint16
	slot   uint16
	rect   Rect[UPx]
}

type packSlot struct {
	x     UPx
	width UPx
	inUse bool
}

type packShelf struct {
	y      UPx
	height UPx
	nextX  UPx
	slots  []packSlot
	free   []uint16
}

type packColumn struct {
	x               UPx
	width           UPx
	allocatedHeight UPx
	shelves         []packShelf
}

type packer struct {
	size           Size[UPx]
	minColumnWidth UPx
	allocatedWidth UPx
	columns        []packColumn
	usedArea       uint64
}

func newPacker(size Size[UPx], minColumnWidth UPx) *packer {
	return &packer{size: size, minColumnWidth: minColumnWidth}
}

// allocate finds space for a rectangle of the given size. It reports
// false when no column, shelf, or free slot can hold it.
func (p *packer) allocate(size Size[UPx]) (packAllocation, bool) {
	if size.IsEmpty() || size.Width > p.size.Width || size.Height > p.size.Height {
		return packAllocation{}, false
	}

	// Existing shelves first: reuse a freed slot or extend the row.
	for ci := range p.columns {
		col := &p.columns[ci]
		if size.Width > col.width {
			continue
		}
		for si := range col.shelves {
			shelf := &col.shelves[si]
			if size.Height > shelf.height {
				continue
			}
			if alloc, ok := p.allocateInShelf(col, shelf, ci, si, size); ok {
				return alloc, true
			}
		}
	}

	// No shelf fits: open a new shelf in a column with spare height.
	for ci := range p.columns {
		col := &p.columns[ci]
		if size.Width > col.width {
			continue
		}
		if p.size.Height-col.allocatedHeight < size.Height {
			continue
		}
		return p.allocateInNewShelf(col, ci, size), true
	}

	// No column has room: open a new column.
	width := maxUnit(p.minColumnWidth, size.Width)
	if p.size.Width-p.allocatedWidth < width {
		return packAllocation{}, false
	}
	p.columns = append(p.columns, packColumn{x: p.allocatedWidth, width: width})
	p.allocatedWidth += width
	ci := len(p.columns) - 1
	return p.allocateInNewShelf(&p.columns[ci], ci, size), true
}

func (p *packer) allocateInShelf(col *packColumn, shelf *packShelf, ci, si int, size Size[UPx]) (packAllocation, bool) {
	// Freed slots are reused whole; the trailing remainder of a wider
	// slot is wasted rather than split, keeping frees O(1).
	for fi, slotIndex := range shelf.free {
		slot := &shelf.slots[slotIndex]
		if slot.width < size.Width {
			continue
		}
		slot.inUse = true
		shelf.free = append(shelf.free[:fi], shelf.free[fi+1:]...)
		p.usedArea += size.Area()
		return packAllocation{
			column: uint16(ci),
			shelf:  uint16(si),
			slot:   slotIndex,
			rect:   NewRect(col.x+slot.x, shelf.y, size.Width, size.Height),
		}, true
	}

	if col.width-shelf.nextX < size.Width {
		return packAllocation{}, false
	}
	slotIndex := uint16(len(shelf.slots))
	shelf.slots = append(shelf.slots, packSlot{x: shelf.nextX, width: size.Width, inUse: true})
	x := shelf.nextX
	shelf.nextX += size.Width
	p.usedArea += size.Area()
	return packAllocation{
		column: uint16(ci),
		shelf:  uint16(si),
		slot:   slotIndex,
		rect:   NewRect(col.x+x, shelf.y, size.Width, size.Height),
	}, true
}

func (p *packer) allocateInNewShelf(col *packColumn, ci int, size Size[UPx]) packAllocation {
	shelf := packShelf{
		y:      col.allocatedHeight,
		height: size.Height,
		nextX:  size.Width,
		slots:  []packSlot{{x: 0, width: size.Width, inUse: true}},
	}
	col.allocatedHeight += size.Height
	col.shelves = append(col.shelves, shelf)
	p.usedArea += size.Area()
	return packAllocation{
		column: uint16(ci),
		shelf:  uint16(len(col.shelves) - 1),
		slot:   0,
		rect:   NewRect(col.x, shelf.y, size.Width, size.Height),
	}
}

// grow extends the packable area to size. Existing columns, shelves,
// and live rectangles keep their positions; the added width opens room
// for new columns and the added height for new shelves in every column.
func (p *packer) grow(size Size[UPx]) {
	p.size.Width = maxUnit(p.size.Width, size.Width)
	p.size.Height = maxUnit(p.size.Height, size.Height)
}

// release returns an allocation's slot to its shelf's free list.
func (p *packer) release(id packAllocation) {
	col := &p.columns[id.column]
	shelf := &col.shelves[id.shelf]
	slot := &shelf.slots[id.slot]
	if !slot.inUse {
		return
	}
	slot.inUse = false
	shelf.free = append(shelf.free, id.slot)
	p.usedArea -= id.rect.Size.Area()
}

// utilization returns the fraction of total area occupied by live
// rectangles, 0 to 1.
func (p *packer) utilization() float64 {
	total := p.size.Area()
	if total == 0 {
		return 0
	}
	return float64(p.usedArea) / float64(total)
}
