package quadatlas

import (
	"encoding/binary"
	"math"
)

// Geometry layout constants. These match the vertex buffer layout declared
// by the render pipeline: position (3x float32), color (4x uint8), texture
// coordinate (2x float32), packed little-endian.
const (
	// VerticesPerQuad is the number of vertices per quad slot.
	VerticesPerQuad = 4

	// IndicesPerQuad is the number of indices per quad slot (two triangles).
	IndicesPerQuad = 6

	// VertexStride is the byte size of one serialized vertex.
	VertexStride = 3*4 + 4 + 2*4

	// QuadStride is the byte size of one serialized quad.
	QuadStride = VerticesPerQuad * VertexStride
)

// Vec3 is a 3D position in drawing coordinates.
type Vec3 struct {
	X, Y, Z float32
}

// Color4B is an 8-bit RGBA color.
type Color4B struct {
	R, G, B, A uint8
}

// Tex2F is a texture coordinate pair in normalized [0, 1] space.
type Tex2F struct {
	U, V float32
}

// Vertex is one corner of a textured quad.
type Vertex struct {
	Position Vec3
	Color    Color4B
	TexCoord Tex2F
}

// Quad is the fixed-layout geometry for one textured rectangle. It is a
// plain value type: array operations copy it by value, and a quad has no
// identity beyond the slot it occupies.
type Quad struct {
	BottomLeft  Vertex
	BottomRight Vertex
	TopLeft     Vertex
	TopRight    Vertex
}

// encodeQuads serializes quads into raw vertex bytes for GPU upload.
// Each quad produces 4 vertices x 24 bytes = 96 bytes.
func encodeQuads(quads []Quad) []byte {
	if len(quads) == 0 {
		return nil
	}
	data := make([]byte, len(quads)*QuadStride)
	off := 0
	for i := range quads {
		off = writeQuadVertex(data, off, &quads[i].BottomLeft)
		off = writeQuadVertex(data, off, &quads[i].BottomRight)
		off = writeQuadVertex(data, off, &quads[i].TopLeft)
		off = writeQuadVertex(data, off, &quads[i].TopRight)
	}
	return data
}

// writeQuadVertex writes a single vertex at buf[off:] and returns the
// offset past it.
func writeQuadVertex(buf []byte, off int, v *Vertex) int {
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v.Position.X))
	binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v.Position.Y))
	binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(v.Position.Z))
	buf[off+12] = v.Color.R
	buf[off+13] = v.Color.G
	buf[off+14] = v.Color.B
	buf[off+15] = v.Color.A
	binary.LittleEndian.PutUint32(buf[off+16:], math.Float32bits(v.TexCoord.U))
	binary.LittleEndian.PutUint32(buf[off+20:], math.Float32bits(v.TexCoord.V))
	return off + VertexStride
}
