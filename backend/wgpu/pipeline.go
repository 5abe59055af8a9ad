// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quadatlas"
	"github.com/gogpu/quadatlas/gpucore"
)

//go:embed shaders/quad.wgsl
var quadShaderWGSL string

// ErrNoActivePass is returned when SubmitIndexed is called outside a
// BeginFrame/EndFrame pair.
var ErrNoActivePass = errors.New("wgpu: no active render pass")

// QuadPipeline renders textured quads from the atlas buffers. It owns the
// shader module, bind group layout, sampler and render pipeline, and
// caches one bind group per texture.
//
// QuadPipeline records into a render pass owned by the host application:
// the host calls BeginFrame with its pass encoder, the atlas issues draws
// through SubmitIndexed, and the host calls EndFrame before ending the
// pass.
type QuadPipeline struct {
	backend *Backend

	shaderModule    hal.ShaderModule
	bindGroupLayout hal.BindGroupLayout
	pipelineLayout  hal.PipelineLayout
	sampler         hal.Sampler
	pipeline        hal.RenderPipeline

	bindGroups map[gpucore.TextureID]hal.BindGroup

	pass hal.RenderPassEncoder

	initialized bool
}

// Interface compliance check.
var _ gpucore.RenderPipeline = (*QuadPipeline)(nil)

// NewQuadPipeline creates a pipeline bound to the given backend. Call
// Init once the backend has a device.
func NewQuadPipeline(backend *Backend) *QuadPipeline {
	return &QuadPipeline{
		backend:    backend,
		bindGroups: make(map[gpucore.TextureID]hal.BindGroup),
	}
}

// Init compiles the quad shader and creates the GPU pipeline objects.
func (p *QuadPipeline) Init() error {
	if p.initialized {
		return nil
	}
	device := p.backend.device
	if device == nil {
		return ErrNotInitialized
	}

	spirvBytes, err := naga.Compile(quadShaderWGSL)
	if err != nil {
		return fmt.Errorf("wgpu: compile quad shader: %w", err)
	}
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	p.shaderModule, err = device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "quad_shader",
		Source: hal.ShaderSource{SPIRV: spirvCode},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create quad shader module: %w", err)
	}

	p.bindGroupLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "quad_bind_group_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler: &gputypes.SamplerBindingLayout{
					Type: gputypes.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		p.destroyPartial()
		return fmt.Errorf("wgpu: create quad bind group layout: %w", err)
	}

	p.pipelineLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "quad_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindGroupLayout},
	})
	if err != nil {
		p.destroyPartial()
		return fmt.Errorf("wgpu: create quad pipeline layout: %w", err)
	}

	p.sampler, err = device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "quad_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		p.destroyPartial()
		return fmt.Errorf("wgpu: create quad sampler: %w", err)
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	p.pipeline, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "quad_pipeline",
		Layout: p.pipelineLayout,
		Vertex: hal.VertexState{
			Module:     p.shaderModule,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{
				{
					ArrayStride: quadatlas.VertexStride,
					StepMode:    gputypes.VertexStepModeVertex,
					Attributes: []gputypes.VertexAttribute{
						{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: gputypes.VertexFormatUnorm8x4, Offset: 12, ShaderLocation: 1},
						{Format: gputypes.VertexFormatFloat32x2, Offset: 16, ShaderLocation: 2},
					},
				},
			},
		},
		Fragment: &hal.FragmentState{
			Module:     p.shaderModule,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatBGRA8Unorm,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.destroyPartial()
		return fmt.Errorf("wgpu: create quad render pipeline: %w", err)
	}

	p.initialized = true
	quadatlas.Logger().Debug("wgpu: quad pipeline initialized")
	return nil
}

// BeginFrame attaches the pipeline to the host's render pass for the
// current frame. Draws submitted before EndFrame record into this pass.
func (p *QuadPipeline) BeginFrame(pass hal.RenderPassEncoder) {
	p.pass = pass
}

// EndFrame detaches the current render pass.
func (p *QuadPipeline) EndFrame() {
	p.pass = nil
}

// SubmitIndexed records one indexed draw into the active render pass.
func (p *QuadPipeline) SubmitIndexed(cmd gpucore.DrawCommand) error {
	if !p.initialized {
		return ErrNotInitialized
	}
	if p.pass == nil {
		return ErrNoActivePass
	}

	vertexBuf, err := p.backend.lookupBuffer(cmd.VertexBuffer)
	if err != nil {
		return err
	}
	indexBuf, err := p.backend.lookupBuffer(cmd.IndexBuffer)
	if err != nil {
		return err
	}
	bindGroup, err := p.bindGroupFor(cmd.Texture)
	if err != nil {
		return err
	}

	p.pass.SetPipeline(p.pipeline)
	p.pass.SetBindGroup(0, bindGroup, nil)
	p.pass.SetVertexBuffer(0, vertexBuf, 0)
	p.pass.SetIndexBuffer(indexBuf, gputypes.IndexFormatUint16, 0)
	p.pass.DrawIndexed(cmd.IndexCount, 1, cmd.FirstIndex, 0, 0)
	return nil
}

// bindGroupFor returns the cached bind group for a texture, creating it
// on first use.
func (p *QuadPipeline) bindGroupFor(id gpucore.TextureID) (hal.BindGroup, error) {
	if bg, ok := p.bindGroups[id]; ok {
		return bg, nil
	}
	entry, err := p.backend.lookupTexture(id)
	if err != nil {
		return nil, err
	}
	bg, err := p.backend.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "quad_bind_group",
		Layout: p.bindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			{
				Binding:  0,
				Resource: gputypes.TextureViewBinding{TextureView: entry.view.NativeHandle()},
			},
			{
				Binding:  1,
				Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create quad bind group: %w", err)
	}
	p.bindGroups[id] = bg
	return bg, nil
}

// InvalidateTexture drops the cached bind group for a texture. Call it
// after destroying the texture through the backend.
func (p *QuadPipeline) InvalidateTexture(id gpucore.TextureID) {
	if bg, ok := p.bindGroups[id]; ok {
		if p.backend.device != nil {
			p.backend.device.DestroyBindGroup(bg)
		}
		delete(p.bindGroups, id)
	}
}

// Destroy releases all pipeline resources in reverse creation order.
func (p *QuadPipeline) Destroy() {
	device := p.backend.device
	if device == nil {
		return
	}
	for id, bg := range p.bindGroups {
		device.DestroyBindGroup(bg)
		delete(p.bindGroups, id)
	}
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	p.destroyPartial()
	p.initialized = false
}

func (p *QuadPipeline) destroyPartial() {
	device := p.backend.device
	if device == nil {
		return
	}
	if p.sampler != nil {
		device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipelineLayout != nil {
		device.DestroyPipelineLayout(p.pipelineLayout)
		p.pipelineLayout = nil
	}
	if p.bindGroupLayout != nil {
		device.DestroyBindGroupLayout(p.bindGroupLayout)
		p.bindGroupLayout = nil
	}
	if p.shaderModule != nil {
		device.DestroyShaderModule(p.shaderModule)
		p.shaderModule = nil
	}
}
