// Package quadatlas implements a dynamically resizable buffer of textured
// quads that share a single texture, together with the GPU-side vertex and
// index storage that mirrors it.
//
// The central type is [TextureAtlas]: it owns a [QuadArray] (the CPU-side
// quad storage), a GPU mirror (vertex buffer of capacity x 4 vertices and
// index buffer of capacity x 6 indices), and a reference to the texture all
// quads sample from. Mutations (insert, remove, move, update, resize) only
// touch CPU storage and set a dirty flag; the next draw call uploads the
// live quad range to the GPU before submitting the indexed draw.
//
// Quad slot order encodes draw order: slot 0 renders first (back), slot
// count-1 renders last (front).
//
// GPU access goes through the small interfaces in the gpucore package.
// The backend/wgpu package provides an implementation on top of the
// gogpu/wgpu hardware abstraction layer; tests and headless callers can
// substitute their own.
//
// TextureAtlas and QuadArray are not safe for concurrent use. All
// operations must be issued from the thread that owns the rendering
// context.
package quadatlas
