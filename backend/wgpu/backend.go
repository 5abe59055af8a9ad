// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements the gpucore interfaces on top of the gogpu/wgpu
// hardware abstraction layer: buffer and texture lifecycle for the quad
// mirror and an indexed render pipeline for quad draws.
//
// A Backend can run standalone (Init creates its own Vulkan device) or on
// a device shared with a host application via SetDeviceProvider, the
// gpucontext integration path.
package wgpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/quadatlas"
	"github.com/gogpu/quadatlas/gpucore"
)

// Backend errors.
var (
	// ErrNotInitialized is returned when the backend has no GPU device yet.
	ErrNotInitialized = errors.New("wgpu: backend not initialized")

	// ErrUnknownBuffer is returned when an ID names no live buffer.
	ErrUnknownBuffer = errors.New("wgpu: unknown buffer")

	// ErrUnknownTexture is returned when an ID names no live texture.
	ErrUnknownTexture = errors.New("wgpu: unknown texture")
)

// DeviceProvider is the integration point for host applications that own
// the GPU device. The host implements it (e.g. a gogpu context) and hands
// it to SetDeviceProvider so the backend shares the device instead of
// creating its own.
//
// DeviceProvider is an alias for gpucontext.DeviceProvider, keeping full
// compatibility with the gpucontext ecosystem.
type DeviceProvider = gpucontext.DeviceProvider

// fenceTimeout bounds waits for GPU copy completion during reallocation.
const fenceTimeout = 5 * time.Second

type bufferEntry struct {
	buffer hal.Buffer
	size   uint64
	usage  gputypes.BufferUsage
	label  string
}

type textureEntry struct {
	texture hal.Texture
	view    hal.TextureView
	width   uint32
	height  uint32
}

// Backend implements gpucore.Device over hal. It maintains the mapping
// from opaque resource IDs to hal handles.
//
// Backend is safe for concurrent use.
type Backend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	buffers  map[gpucore.BufferID]*bufferEntry
	textures map[gpucore.TextureID]*textureEntry
	nextID   atomic.Uint64

	externalDevice bool // true when using a shared device (don't destroy on Close)
}

// Interface compliance check.
var _ gpucore.Device = (*Backend)(nil)

// New creates an uninitialized backend. Call Init for a standalone device
// or SetDeviceProvider to adopt a shared one.
func New() *Backend {
	return &Backend{
		buffers:  make(map[gpucore.BufferID]*bufferEntry),
		textures: make(map[gpucore.TextureID]*textureEntry),
	}
}

func (b *Backend) newID() uint64 { return b.nextID.Add(1) }

// Init creates a standalone Vulkan device. This is the fallback path when
// no external device is provided via SetDeviceProvider.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device != nil {
		return nil
	}

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	b.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("wgpu: no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("wgpu: open device: %w", err)
	}
	b.device = openDev.Device
	b.queue = openDev.Queue
	b.externalDevice = false

	quadatlas.Logger().Info("wgpu: GPU initialized (standalone)", "adapter", selected.Info.Name)
	return nil
}

// SetDeviceProvider switches the backend to a shared GPU device from an
// external provider (e.g. gogpu). The provider must expose HalDevice() any
// and HalQueue() any returning hal.Device and hal.Queue.
func (b *Backend) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Destroy own resources if we created them.
	b.destroyResourcesLocked()
	if !b.externalDevice && b.device != nil {
		b.device.Destroy()
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}

	b.device = device
	b.queue = queue
	b.externalDevice = true

	quadatlas.Logger().Debug("wgpu: switched to shared GPU device")
	return nil
}

// Close releases all tracked resources and, for standalone devices, the
// device and instance themselves.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.destroyResourcesLocked()

	if !b.externalDevice {
		if b.device != nil {
			b.device.Destroy()
			b.device = nil
		}
		if b.instance != nil {
			b.instance.Destroy()
			b.instance = nil
		}
	} else {
		// Don't destroy shared resources -- we don't own them.
		b.device = nil
		b.instance = nil
	}
	b.queue = nil
	b.externalDevice = false
}

func (b *Backend) destroyResourcesLocked() {
	if b.device == nil {
		b.buffers = make(map[gpucore.BufferID]*bufferEntry)
		b.textures = make(map[gpucore.TextureID]*textureEntry)
		return
	}
	for id, entry := range b.buffers {
		b.device.DestroyBuffer(entry.buffer)
		delete(b.buffers, id)
	}
	for id, entry := range b.textures {
		b.device.DestroyTextureView(entry.view)
		b.device.DestroyTexture(entry.texture)
		delete(b.textures, id)
	}
}

// CreateBuffer allocates a GPU buffer.
func (b *Backend) CreateBuffer(label string, size uint64, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return gpucore.InvalidID, ErrNotInitialized
	}

	halUsage := convertBufferUsage(usage)
	buffer, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: halUsage,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create buffer %q: %w", label, err)
	}

	id := gpucore.BufferID(b.newID())
	b.buffers[id] = &bufferEntry{buffer: buffer, size: size, usage: halUsage, label: label}
	return id, nil
}

// ReallocBuffer resizes a buffer by allocating a replacement and copying
// the preserved prefix on the GPU. The ID stays stable; only the backing
// hal buffer changes.
func (b *Backend) ReallocBuffer(id gpucore.BufferID, size uint64) (gpucore.BufferID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return gpucore.InvalidID, ErrNotInitialized
	}
	entry, ok := b.buffers[id]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	if entry.size == size {
		return id, nil
	}

	// The old buffer becomes a copy source for the preserved bytes.
	usage := entry.usage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	replacement, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: entry.label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: realloc buffer %q: %w", entry.label, err)
	}

	preserve := min(entry.size, size)
	if preserve > 0 {
		if err := b.copyBufferLocked(entry.buffer, replacement, preserve); err != nil {
			b.device.DestroyBuffer(replacement)
			return gpucore.InvalidID, fmt.Errorf("wgpu: realloc copy %q: %w", entry.label, err)
		}
	}

	b.device.DestroyBuffer(entry.buffer)
	entry.buffer = replacement
	entry.size = size
	entry.usage = usage
	return id, nil
}

// copyBufferLocked copies size bytes from src to dst and waits for the
// GPU to finish, so the source can be destroyed immediately after.
func (b *Backend) copyBufferLocked(src, dst hal.Buffer, size uint64) error {
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "realloc_copy_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("realloc_copy"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(src, dst, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	if _, err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := b.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	return nil
}

// WriteBuffer uploads data at the given byte offset.
func (b *Backend) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.queue == nil {
		return ErrNotInitialized
	}
	entry, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	if offset+uint64(len(data)) > entry.size {
		return fmt.Errorf("wgpu: write past end of buffer %q (%d+%d > %d)",
			entry.label, offset, len(data), entry.size)
	}
	b.queue.WriteBuffer(entry.buffer, offset, data)
	return nil
}

// DestroyBuffer releases a buffer. Destroying InvalidID is a no-op.
func (b *Backend) DestroyBuffer(id gpucore.BufferID) error {
	if id == gpucore.InvalidID {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	delete(b.buffers, id)
	if b.device != nil {
		b.device.DestroyBuffer(entry.buffer)
	}
	return nil
}

// CreateTexture creates a 2D RGBA8 texture with a view and uploads the
// given pixel data.
func (b *Backend) CreateTexture(label string, width, height uint32, pixels []byte) (gpucore.TextureID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.device == nil {
		return gpucore.InvalidID, ErrNotInitialized
	}
	if want := uint64(width) * uint64(height) * 4; uint64(len(pixels)) != want {
		return gpucore.InvalidID, fmt.Errorf("wgpu: texture %q pixel data is %d bytes, want %d",
			label, len(pixels), want)
	}

	texture, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create texture %q: %w", label, err)
	}

	view, err := b.device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		b.device.DestroyTexture(texture)
		return gpucore.InvalidID, fmt.Errorf("wgpu: create texture view %q: %w", label, err)
	}

	b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: texture, MipLevel: 0},
		pixels,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: width * 4, RowsPerImage: height},
		&hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)

	id := gpucore.TextureID(b.newID())
	b.textures[id] = &textureEntry{texture: texture, view: view, width: width, height: height}

	quadatlas.Logger().Debug("wgpu: texture created", "label", label, "width", width, "height", height)
	return id, nil
}

// DestroyTexture releases a texture. Destroying InvalidID is a no-op.
func (b *Backend) DestroyTexture(id gpucore.TextureID) error {
	if id == gpucore.InvalidID {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	delete(b.textures, id)
	if b.device != nil {
		b.device.DestroyTextureView(entry.view)
		b.device.DestroyTexture(entry.texture)
	}
	return nil
}

// lookupBuffer resolves an ID to its hal buffer for the pipeline.
func (b *Backend) lookupBuffer(id gpucore.BufferID) (hal.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	return entry.buffer, nil
}

// lookupTexture resolves an ID to its texture entry for the pipeline.
func (b *Backend) lookupTexture(id gpucore.TextureID) (*textureEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.textures[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	return entry, nil
}

// convertBufferUsage maps gpucore usage flags to hal usage flags.
func convertBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var result gputypes.BufferUsage
	if usage&gpucore.BufferUsageCopySrc != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageIndex != 0 {
		result |= gputypes.BufferUsageIndex
	}
	if usage&gpucore.BufferUsageVertex != 0 {
		result |= gputypes.BufferUsageVertex
	}
	if usage&gpucore.BufferUsageUniform != 0 {
		result |= gputypes.BufferUsageUniform
	}
	return result
}
