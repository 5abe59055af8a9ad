package quadatlas

import (
	"errors"
	"fmt"

	"github.com/gogpu/quadatlas/gpucore"
)

// errMockGPU simulates collaborator failures in tests.
var errMockGPU = errors.New("mock gpu failure")

// mockBuffer is the in-memory backing store for one mock GPU buffer.
type mockBuffer struct {
	label string
	usage gpucore.BufferUsage
	data  []byte
}

// writeRecord captures one WriteBuffer call for assertions.
type writeRecord struct {
	id     gpucore.BufferID
	offset uint64
	size   int
}

// mockDevice implements gpucore.Device with in-memory buffers, recording
// every write so tests can assert upload behavior.
type mockDevice struct {
	buffers  map[gpucore.BufferID]*mockBuffer
	textures map[gpucore.TextureID]bool
	nextID   uint64
	writes   []writeRecord

	failCreate  bool
	failRealloc bool
	failWrite   bool
}

func newMockDevice() *mockDevice {
	return &mockDevice{
		buffers:  make(map[gpucore.BufferID]*mockBuffer),
		textures: make(map[gpucore.TextureID]bool),
	}
}

var _ gpucore.Device = (*mockDevice)(nil)

func (d *mockDevice) newID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *mockDevice) CreateBuffer(label string, size uint64, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if d.failCreate {
		return gpucore.InvalidID, errMockGPU
	}
	id := gpucore.BufferID(d.newID())
	d.buffers[id] = &mockBuffer{label: label, usage: usage, data: make([]byte, size)}
	return id, nil
}

func (d *mockDevice) ReallocBuffer(id gpucore.BufferID, size uint64) (gpucore.BufferID, error) {
	if d.failRealloc {
		return gpucore.InvalidID, errMockGPU
	}
	buf, ok := d.buffers[id]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("buffer %d not found", id)
	}
	data := make([]byte, size)
	copy(data, buf.data)
	buf.data = data
	return id, nil
}

func (d *mockDevice) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	if d.failWrite {
		return errMockGPU
	}
	buf, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("buffer %d not found", id)
	}
	if offset+uint64(len(data)) > uint64(len(buf.data)) {
		return fmt.Errorf("write past end of buffer %d", id)
	}
	copy(buf.data[offset:], data)
	d.writes = append(d.writes, writeRecord{id: id, offset: offset, size: len(data)})
	return nil
}

func (d *mockDevice) DestroyBuffer(id gpucore.BufferID) error {
	if id == gpucore.InvalidID {
		return nil
	}
	if _, ok := d.buffers[id]; !ok {
		return fmt.Errorf("buffer %d not found", id)
	}
	delete(d.buffers, id)
	return nil
}

func (d *mockDevice) CreateTexture(_ string, _, _ uint32, _ []byte) (gpucore.TextureID, error) {
	if d.failCreate {
		return gpucore.InvalidID, errMockGPU
	}
	id := gpucore.TextureID(d.newID())
	d.textures[id] = true
	return id, nil
}

func (d *mockDevice) DestroyTexture(id gpucore.TextureID) error {
	if id == gpucore.InvalidID {
		return nil
	}
	delete(d.textures, id)
	return nil
}

// writesTo returns the write records targeting the given buffer.
func (d *mockDevice) writesTo(id gpucore.BufferID) []writeRecord {
	var out []writeRecord
	for _, w := range d.writes {
		if w.id == id {
			out = append(out, w)
		}
	}
	return out
}

// mockPipeline records submitted draw commands.
type mockPipeline struct {
	commands []gpucore.DrawCommand
	fail     bool
}

var _ gpucore.RenderPipeline = (*mockPipeline)(nil)

func (p *mockPipeline) SubmitIndexed(cmd gpucore.DrawCommand) error {
	if p.fail {
		return errMockGPU
	}
	p.commands = append(p.commands, cmd)
	return nil
}

// taggedQuad builds a quad whose color tags it for identity checks.
func taggedQuad(tag uint8) Quad {
	c := Color4B{R: tag, G: tag, B: tag, A: 255}
	return Quad{
		BottomLeft:  Vertex{Position: Vec3{0, 0, 0}, Color: c, TexCoord: Tex2F{0, 0}},
		BottomRight: Vertex{Position: Vec3{1, 0, 0}, Color: c, TexCoord: Tex2F{1, 0}},
		TopLeft:     Vertex{Position: Vec3{0, 1, 0}, Color: c, TexCoord: Tex2F{0, 1}},
		TopRight:    Vertex{Position: Vec3{1, 1, 0}, Color: c, TexCoord: Tex2F{1, 1}},
	}
}

// quadTag extracts the identity tag of a tagged quad.
func quadTag(q Quad) uint8 { return q.BottomLeft.Color.R }

// tagsOf lists the tags of the first n quads in an array.
func tagsOf(a *QuadArray, n int) []uint8 {
	tags := make([]uint8, n)
	for i := range n {
		tags[i] = quadTag(a.Quads()[i])
	}
	return tags
}
