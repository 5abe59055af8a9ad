// Package gpucore defines the minimal GPU abstraction the quad atlas is
// built against: opaque resource IDs, a Device for buffer and texture
// lifecycle, and a RenderPipeline for indexed draw submission.
//
// Each backend implementation maintains a mapping between IDs and actual
// GPU resources. IDs are uint64 to accommodate various backend handle
// sizes; the zero value InvalidID never names a live resource.
package gpucore

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 0

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 1

	// BufferUsageIndex indicates the buffer can be used as an index buffer.
	BufferUsageIndex BufferUsage = 1 << 2

	// BufferUsageVertex indicates the buffer can be used as a vertex buffer.
	BufferUsageVertex BufferUsage = 1 << 3

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 4
)

// Device manages GPU buffer and texture lifecycle on behalf of the atlas.
//
// All methods are synchronous: when they return, the operation has been
// handed to the GPU driver (writes may still be in flight, but ordering
// against subsequent draws is the backend's responsibility).
//
// Implementations must be safe for concurrent use; the atlas itself calls
// from a single thread but textures may be created from loaders elsewhere.
type Device interface {
	// CreateBuffer allocates a GPU buffer of the given byte size.
	// The label is used for debugging only.
	CreateBuffer(label string, size uint64, usage BufferUsage) (BufferID, error)

	// ReallocBuffer resizes an existing buffer, preserving its content up
	// to the smaller of the old and new sizes. The returned ID names the
	// resized buffer and may equal the input ID.
	ReallocBuffer(id BufferID, size uint64) (BufferID, error)

	// WriteBuffer uploads data into the buffer at the given byte offset.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// DestroyBuffer releases a buffer. Destroying InvalidID is a no-op.
	DestroyBuffer(id BufferID) error

	// CreateTexture creates a 2D RGBA8 texture and uploads the given
	// pixel data (width*height*4 bytes, row-major).
	CreateTexture(label string, width, height uint32, pixels []byte) (TextureID, error)

	// DestroyTexture releases a texture. Destroying InvalidID is a no-op.
	DestroyTexture(id TextureID) error
}

// DrawCommand describes one indexed draw over a quad range: the pipeline
// binds the vertex and index buffers and the texture, then draws
// IndexCount indices starting at FirstIndex.
type DrawCommand struct {
	// VertexBuffer holds the serialized quad vertices.
	VertexBuffer BufferID

	// IndexBuffer holds the 16-bit two-triangle index pattern.
	IndexBuffer BufferID

	// Texture is sampled by all quads in the draw.
	Texture TextureID

	// FirstIndex is the offset into the index buffer, in indices.
	FirstIndex uint32

	// IndexCount is the number of indices to draw (6 per quad).
	IndexCount uint32
}

// RenderPipeline submits indexed quad draws. The atlas calls SubmitIndexed
// once per draw request after synchronizing the GPU mirror.
type RenderPipeline interface {
	SubmitIndexed(cmd DrawCommand) error
}
