package blit

import "encoding/binary"

// Vertex is one GPU vertex: a quarter-pixel fixed-point position, an
// integer texel coordinate, and a packed color. The wire layout is
// twenty bytes, little-endian:
//
//	offset 0  position.x  int32 (quarter pixels)
//	offset 4  position.y  int32
//	offset 8  texture.x   uint32 (whole texels)
//	offset 12 texture.y   uint32
//	offset 16 color       uint32 (0xRRGGBBAA)
//
// Untextured vertices carry a zero texture coordinate; the pipeline
// variant, not a sentinel, decides whether it is sampled.
type Vertex struct {
	Position Point[Px]
	Texture  Point[UPx]
	Color    Color
}

// VertexStride is the byte size of one encoded vertex.
const VertexStride = 20

// appendVertex encodes v onto buf in the wire layout.
func appendVertex(buf []byte, v Vertex) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(v.Position.X))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(v.Position.Y))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(v.Texture.X))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(v.Texture.Y))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(v.Color))
	return buf
}

// encodeVertices encodes a vertex slice into a contiguous buffer ready
// for upload.
func encodeVertices(vertices []Vertex) []byte {
	buf := make([]byte, 0, len(vertices)*VertexStride)
	for _, v := range vertices {
		buf = appendVertex(buf, v)
	}
	return buf
}

// encodeIndices encodes a u32 index slice little-endian.
func encodeIndices(indices []uint32) []byte {
	buf := make([]byte, 0, len(indices)*4)
	for _, i := range indices {
		buf = binary.LittleEndian.AppendUint32(buf, i)
	}
	return buf
}

// vertexCollection deduplicates identical vertices so that repeated
// geometry (tile grids, glyph quads sharing corners) indexes one copy.
type vertexCollection struct {
	vertices []Vertex
	byValue  map[Vertex]uint32
}

func (c *vertexCollection) getOrInsert(v Vertex) uint32 {
	if c.byValue == nil {
		c.byValue = make(map[Vertex]uint32)
	}
	if index, ok := c.byValue[v]; ok {
		return index
	}
	index := uint32(len(c.vertices))
	c.vertices = append(c.vertices, v)
	c.byValue[v] = index
	return index
}

func (c *vertexCollection) reset() {
	c.vertices = c.vertices[:0]
	clear(c.byValue)
}
