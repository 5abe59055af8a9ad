package quadatlas

import (
	"fmt"

	"github.com/gogpu/quadatlas/gpucore"
)

// Config holds construction parameters for a TextureAtlas.
type Config struct {
	// Device manages GPU buffers and textures. Required.
	Device gpucore.Device

	// Pipeline submits indexed draws. Optional: an atlas without a
	// pipeline can be mutated freely but draw calls fail with
	// ErrNoPipeline.
	Pipeline gpucore.RenderPipeline

	// Texture is the texture all quads sample from. Optional at
	// construction; draw calls fail with ErrNoTexture until one is set.
	Texture *Texture

	// Capacity is the initial number of quad slots. 0 is valid;
	// InsertQuad grows on demand.
	Capacity int

	// Label prefixes GPU buffer debug labels. Default: "quad_atlas".
	Label string
}

// TextureAtlas is the facade over the quad array and its GPU mirror. It
// owns both exclusively and holds a shared reference to one texture.
//
// Mutations go to CPU storage and mark the atlas dirty; the next draw
// uploads the live quad range before submitting. Capacity changes keep
// the mirror's vertex and index buffers synchronized.
//
// TextureAtlas is not safe for concurrent use.
type TextureAtlas struct {
	device   gpucore.Device
	pipeline gpucore.RenderPipeline
	texture  *Texture

	array  *QuadArray
	mirror *quadMirror

	label    string
	released bool
}

// New creates an atlas with the given configuration, allocating GPU
// buffers for cfg.Capacity quad slots.
func New(cfg Config) (*TextureAtlas, error) {
	if cfg.Device == nil {
		return nil, ErrNilDevice
	}
	if cfg.Label == "" {
		cfg.Label = "quad_atlas"
	}
	array, err := NewQuadArray(cfg.Capacity)
	if err != nil {
		return nil, err
	}
	mirror, err := newQuadMirror(cfg.Device, cfg.Capacity, cfg.Label)
	if err != nil {
		return nil, fmt.Errorf("allocate mirror: %w", err)
	}
	Logger().Debug("quadatlas: atlas created", "label", cfg.Label, "capacity", cfg.Capacity)
	return &TextureAtlas{
		device:   cfg.Device,
		pipeline: cfg.Pipeline,
		texture:  cfg.Texture,
		array:    array,
		mirror:   mirror,
		label:    cfg.Label,
	}, nil
}

// NewFromFile creates an atlas whose texture is resolved from a file
// identifier by the given provider. Any cfg.Texture is replaced.
func NewFromFile(cfg Config, provider TextureProvider, path string) (*TextureAtlas, error) {
	if cfg.Device == nil {
		return nil, ErrNilDevice
	}
	tex, err := provider.LoadTexture(cfg.Device, path)
	if err != nil {
		return nil, fmt.Errorf("load texture %q: %w", path, err)
	}
	cfg.Texture = tex
	return New(cfg)
}

// TotalQuads returns the number of active quads.
func (a *TextureAtlas) TotalQuads() int { return a.array.Count() }

// Capacity returns the number of allocated quad slots.
func (a *TextureAtlas) Capacity() int { return a.array.Capacity() }

// Dirty reports whether CPU-side quad data differs from GPU storage.
func (a *TextureAtlas) Dirty() bool { return a.array.Dirty() }

// SetDirty overrides the dirty flag. Collaborators that write through
// Quads must set it so the next draw re-uploads.
func (a *TextureAtlas) SetDirty(dirty bool) { a.array.SetDirty(dirty) }

// Texture returns the texture all quads sample from. May be nil.
func (a *TextureAtlas) Texture() *Texture { return a.texture }

// SetTexture replaces the texture reference. A plain pointer swap with no
// effect on geometry; the previous texture's lifetime is unaffected.
func (a *TextureAtlas) SetTexture(tex *Texture) { a.texture = tex }

// Quads returns the backing slot storage, capacity slots long. Writing
// through it requires SetDirty(true) afterwards.
func (a *TextureAtlas) Quads() []Quad { return a.array.Quads() }

// Array returns the owned quad array for direct use.
func (a *TextureAtlas) Array() *QuadArray { return a.array }

// Raw returns the low-level mutation surface for trusted batch writers.
// See RawQuads; count bookkeeping and slot initialization are the
// caller's responsibility there.
func (a *TextureAtlas) Raw() RawQuads { return a.array.Raw() }

// UpdateQuad overwrites the quad at index. Count is unchanged.
func (a *TextureAtlas) UpdateQuad(quad Quad, index int) error {
	if a.released {
		return ErrReleased
	}
	return a.array.UpdateQuad(quad, index)
}

// InsertQuad inserts a quad at index, growing capacity with slack when the
// array is full. On growth the GPU mirror is resized and the index pattern
// for the new slots uploaded; if that fails the atlas resets to the empty
// fail-safe state and the error is returned.
func (a *TextureAtlas) InsertQuad(quad Quad, index int) error {
	if a.released {
		return ErrReleased
	}
	if err := a.array.InsertQuad(quad, index); err != nil {
		return err
	}
	return a.syncMirrorCapacity()
}

// InsertQuads inserts the given quads starting at index. No automatic
// growth: exceeding capacity returns ErrCapacityExceeded and leaves the
// array unchanged.
func (a *TextureAtlas) InsertQuads(quads []Quad, index int) error {
	if a.released {
		return ErrReleased
	}
	return a.array.InsertQuads(quads, index)
}

// ReinsertQuad moves the quad at fromIndex to newIndex in one shift pass,
// preserving count.
func (a *TextureAtlas) ReinsertQuad(fromIndex, newIndex int) error {
	if a.released {
		return ErrReleased
	}
	return a.array.ReinsertQuad(fromIndex, newIndex)
}

// RemoveQuadAt removes the quad at index. Capacity is unchanged.
func (a *TextureAtlas) RemoveQuadAt(index int) error {
	if a.released {
		return ErrReleased
	}
	return a.array.RemoveQuadAt(index)
}

// RemoveQuadsAt removes amount quads starting at index.
func (a *TextureAtlas) RemoveQuadsAt(index, amount int) error {
	if a.released {
		return ErrReleased
	}
	return a.array.RemoveQuadsAt(index, amount)
}

// RemoveAllQuads sets count to 0 without deallocating or zeroing slots.
func (a *TextureAtlas) RemoveAllQuads() error {
	if a.released {
		return ErrReleased
	}
	a.array.RemoveAllQuads()
	return nil
}

// MoveQuads relocates the run [oldIndex, oldIndex+amount) to newIndex,
// preserving count and the order of quads outside the run.
func (a *TextureAtlas) MoveQuads(oldIndex, amount, newIndex int) error {
	if a.released {
		return ErrReleased
	}
	return a.array.MoveQuads(oldIndex, amount, newIndex)
}

// ResizeCapacity reallocates CPU and GPU storage to newCapacity slots,
// preserving quads [0, min(old, new)) and clamping count. On GPU
// allocation failure the atlas resets to the empty fail-safe state
// (capacity 0, count 0) rather than keeping a half-resized buffer, and
// the failure is reported.
func (a *TextureAtlas) ResizeCapacity(newCapacity int) error {
	if a.released {
		return ErrReleased
	}
	if err := a.array.Resize(newCapacity); err != nil {
		return err
	}
	return a.syncMirrorCapacity()
}

// syncMirrorCapacity brings the mirror's buffers to the array's capacity,
// applying the fail-safe reset when GPU allocation fails.
func (a *TextureAtlas) syncMirrorCapacity() error {
	capacity := a.array.Capacity()
	if capacity == a.mirror.capacity {
		return nil
	}
	if err := a.mirror.ensureCapacity(capacity); err != nil {
		// Better empty than inconsistent.
		a.mirror.release()
		a.array, _ = NewQuadArray(0)
		Logger().Warn("quadatlas: resize failed, atlas reset to empty",
			"label", a.label, "requested", capacity, "error", err)
		return fmt.Errorf("resize to %d quads: %w", capacity, err)
	}
	return nil
}

// DrawQuads submits all active quads from slot 0.
func (a *TextureAtlas) DrawQuads() error {
	return a.DrawQuadRange(a.array.Count(), 0)
}

// DrawNumberOfQuads submits n quads from slot 0. n may exceed the active
// count (up to capacity); see DrawQuadRange.
func (a *TextureAtlas) DrawNumberOfQuads(n int) error {
	return a.DrawQuadRange(n, 0)
}

// DrawQuadRange submits n quads beginning at slot start. Requires
// start+n <= capacity. Drawing past the active count is permitted and
// renders whatever the slots hold; callers relying on it must have zeroed
// or written those slots.
//
// If the atlas is dirty, the live quad range (extended to cover start+n)
// is uploaded first. On upload failure the dirty flag stays set so the
// next draw retries.
func (a *TextureAtlas) DrawQuadRange(n, start int) error {
	if a.released {
		return ErrReleased
	}
	if n < 0 || start < 0 || start+n > a.array.Capacity() {
		return fmt.Errorf("%w: draw %d quads at %d, capacity %d",
			ErrIndexOutOfRange, n, start, a.array.Capacity())
	}
	if n == 0 {
		return nil
	}
	if a.pipeline == nil {
		return ErrNoPipeline
	}
	if a.texture == nil {
		return ErrNoTexture
	}

	if a.array.Dirty() {
		live := a.array.Count()
		if start+n > live {
			live = start + n
		}
		if err := a.mirror.uploadQuads(a.array.Quads()[:live]); err != nil {
			return fmt.Errorf("upload quads: %w", err)
		}
		a.array.SetDirty(false)
		Logger().Debug("quadatlas: uploaded quads", "label", a.label, "quads", live)
	}

	return a.pipeline.SubmitIndexed(gpucore.DrawCommand{
		VertexBuffer: a.mirror.vertexBuf,
		IndexBuffer:  a.mirror.indexBuf,
		Texture:      a.texture.ID(),
		FirstIndex:   uint32(start * IndicesPerQuad), //nolint:gosec // bounded by MaxCapacity
		IndexCount:   uint32(n * IndicesPerQuad),     //nolint:gosec // bounded by MaxCapacity
	})
}

// String describes the atlas state for debugging.
func (a *TextureAtlas) String() string {
	return fmt.Sprintf("TextureAtlas(label=%s, quads=%d, capacity=%d, dirty=%v)",
		a.label, a.array.Count(), a.array.Capacity(), a.array.Dirty())
}

// Release destroys the owned GPU buffers and drops the texture reference.
// The texture's own lifetime is unaffected. Further operations on the
// atlas return ErrReleased; Release itself is idempotent.
func (a *TextureAtlas) Release() {
	if a.released {
		return
	}
	a.mirror.release()
	a.texture = nil
	a.released = true
	Logger().Debug("quadatlas: atlas released", "label", a.label)
}
