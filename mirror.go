package quadatlas

import (
	"fmt"

	"github.com/gogpu/quadatlas/gpucore"
)

// quadMirror owns the GPU-side storage mirroring a QuadArray: a vertex
// buffer of capacity x 4 vertices and an index buffer of capacity x 6
// 16-bit indices. Vertex content is uploaded lazily before draws; index
// content is capacity-derived and uploaded only for slots added by growth.
type quadMirror struct {
	device    gpucore.Device
	vertexBuf gpucore.BufferID
	indexBuf  gpucore.BufferID
	capacity  int
	label     string
}

func newQuadMirror(device gpucore.Device, capacity int, label string) (*quadMirror, error) {
	m := &quadMirror{device: device, label: label}
	if err := m.ensureCapacity(capacity); err != nil {
		m.release()
		return nil, err
	}
	return m, nil
}

// ensureCapacity resizes both buffers to hold newCapacity quads. Existing
// vertex bytes survive up to the smaller size; on growth the index pattern
// for the new slots is appended. Capacity 0 releases the buffers.
func (m *quadMirror) ensureCapacity(newCapacity int) error {
	if newCapacity == m.capacity {
		return nil
	}
	if newCapacity == 0 {
		m.release()
		return nil
	}

	vertexSize := uint64(newCapacity) * QuadStride
	indexSize := uint64(newCapacity) * IndicesPerQuad * 2

	if m.vertexBuf == gpucore.InvalidID {
		vb, err := m.device.CreateBuffer(m.label+"_vertices", vertexSize,
			gpucore.BufferUsageVertex|gpucore.BufferUsageCopyDst)
		if err != nil {
			return fmt.Errorf("create vertex buffer: %w", err)
		}
		ib, err := m.device.CreateBuffer(m.label+"_indices", indexSize,
			gpucore.BufferUsageIndex|gpucore.BufferUsageCopyDst)
		if err != nil {
			derr := m.device.DestroyBuffer(vb)
			if derr != nil {
				Logger().Warn("quadatlas: release vertex buffer after failed create", "error", derr)
			}
			return fmt.Errorf("create index buffer: %w", err)
		}
		m.vertexBuf = vb
		m.indexBuf = ib
		if err := m.device.WriteBuffer(m.indexBuf, 0, encodeIndices(0, newCapacity)); err != nil {
			return fmt.Errorf("upload index pattern: %w", err)
		}
		m.capacity = newCapacity
		Logger().Debug("quadatlas: mirror allocated",
			"label", m.label, "capacity", newCapacity, "vertexBytes", vertexSize)
		return nil
	}

	vb, err := m.device.ReallocBuffer(m.vertexBuf, vertexSize)
	if err != nil {
		return fmt.Errorf("realloc vertex buffer: %w", err)
	}
	m.vertexBuf = vb
	ib, err := m.device.ReallocBuffer(m.indexBuf, indexSize)
	if err != nil {
		return fmt.Errorf("realloc index buffer: %w", err)
	}
	m.indexBuf = ib

	if newCapacity > m.capacity {
		// Index content at slot i depends only on i, so the preserved
		// prefix is still valid and only the new slots need writing.
		first := m.capacity
		data := encodeIndices(first, newCapacity-first)
		if err := m.device.WriteBuffer(m.indexBuf, uint64(first)*IndicesPerQuad*2, data); err != nil {
			return fmt.Errorf("upload index pattern: %w", err)
		}
	}
	old := m.capacity
	m.capacity = newCapacity
	Logger().Debug("quadatlas: mirror resized",
		"label", m.label, "from", old, "to", newCapacity)
	return nil
}

// uploadQuads writes the serialized vertex data for quads into the vertex
// buffer starting at slot 0.
func (m *quadMirror) uploadQuads(quads []Quad) error {
	if len(quads) == 0 {
		return nil
	}
	if len(quads) > m.capacity {
		return fmt.Errorf("%w: upload %d quads, mirror capacity %d",
			ErrCapacityExceeded, len(quads), m.capacity)
	}
	return m.device.WriteBuffer(m.vertexBuf, 0, encodeQuads(quads))
}

// release destroys both buffers and resets capacity to 0. Safe to call
// repeatedly.
func (m *quadMirror) release() {
	if m.vertexBuf != gpucore.InvalidID {
		if err := m.device.DestroyBuffer(m.vertexBuf); err != nil {
			Logger().Warn("quadatlas: release vertex buffer", "label", m.label, "error", err)
		}
		m.vertexBuf = gpucore.InvalidID
	}
	if m.indexBuf != gpucore.InvalidID {
		if err := m.device.DestroyBuffer(m.indexBuf); err != nil {
			Logger().Warn("quadatlas: release index buffer", "label", m.label, "error", err)
		}
		m.indexBuf = gpucore.InvalidID
	}
	m.capacity = 0
}
