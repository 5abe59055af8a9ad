package quadatlas

import "github.com/gogpu/quadatlas/gpucore"

// Texture is a reference to a GPU texture shared between the atlas and its
// creator. The atlas never mutates the texture and does not manage its
// lifetime: swapping or releasing the atlas leaves the texture untouched.
type Texture struct {
	id     gpucore.TextureID
	width  uint32
	height uint32
}

// NewTexture wraps an existing GPU texture handle.
func NewTexture(id gpucore.TextureID, width, height uint32) *Texture {
	return &Texture{id: id, width: width, height: height}
}

// ID returns the underlying GPU texture handle.
func (t *Texture) ID() gpucore.TextureID { return t.id }

// Width returns the texture width in pixels.
func (t *Texture) Width() uint32 { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() uint32 { return t.height }

// TextureProvider resolves a file identifier into a texture. File decoding
// lives outside this package; the textureload package provides an
// image-decoding implementation.
type TextureProvider interface {
	LoadTexture(device gpucore.Device, path string) (*Texture, error)
}
