package quadatlas

import "encoding/binary"

// MaxCapacity is the largest quad capacity addressable with 16-bit vertex
// indices: each quad consumes 4 vertices and every vertex index must fit
// in a uint16.
const MaxCapacity = (1 << 16) / VerticesPerQuad

// generateIndices produces index data for quad slots [first, first+count).
// Slot i references its 4 vertices as two triangles:
//
//	4i+0, 4i+1, 4i+2   and   4i+3, 4i+2, 4i+1
//
// The content for a slot depends only on the slot number, never on live
// quad data, so growing the index buffer appends entries for the new slots
// without rewriting existing ones.
func generateIndices(first, count int) []uint16 {
	indices := make([]uint16, count*IndicesPerQuad)
	for i := range count {
		base := i * IndicesPerQuad
		vertex := uint16((first + i) * VerticesPerQuad) //nolint:gosec // slots are bounded by MaxCapacity
		indices[base+0] = vertex + 0
		indices[base+1] = vertex + 1
		indices[base+2] = vertex + 2
		indices[base+3] = vertex + 3
		indices[base+4] = vertex + 2
		indices[base+5] = vertex + 1
	}
	return indices
}

// encodeIndices serializes the index pattern for quad slots
// [first, first+count) into little-endian bytes for GPU upload.
func encodeIndices(first, count int) []byte {
	indices := generateIndices(first, count)
	data := make([]byte, len(indices)*2)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(data[i*2:], idx)
	}
	return data
}
