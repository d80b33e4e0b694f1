// Package wgpu implements backend.Backend on top of a native WebGPU device,
// adapted from the teacher engine's renderer backend: the same
// device/queue/surface bring-up, per-resource WebGPU object creation, and
// encoder/pass-scoped frame lifecycle, retargeted from the teacher's
// bind-group-provider/pipeline model onto the shim's opaque handle contract.
package wgpu

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
	"github.com/webglnative/runtime/backend"
)

// Backend is the concrete WebGPU-backed implementation of backend.Backend.
// Every resource the shim creates (buffer, image, shader, pipeline) is kept
// in a handle-indexed map; BeginFrame/EndFrame/Present sit outside the
// backend.Backend contract itself and are driven directly by the runtime
// package, which alone knows when a frame starts and ends.
type Backend struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	depthView     *wgpu.TextureView
	passDesc      *wgpu.RenderPassDescriptor

	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	nextBuffer, nextImage, nextView, nextSampler, nextShader, nextPipeline uint64

	buffers   map[backend.BufferHandle]*wgpu.Buffer
	images    map[backend.ImageHandle]*imageEntry
	views     map[backend.ViewHandle]*wgpu.TextureView
	samplers  map[backend.SamplerHandle]*wgpu.Sampler
	shaders   map[backend.ShaderHandle]*shaderEntry
	pipelines map[backend.PipelineHandle]*pipelineEntry
}

type imageEntry struct {
	tex    *wgpu.Texture
	desc   backend.ImageDescriptor
}

type shaderEntry struct {
	stage  backend.ShaderStage
	source string
	module *wgpu.ShaderModule
	valid  bool
	errLog string
}

// pipelineEntry bundles a render pipeline with the per-stage uniform
// buffers and bind group the shim's std140 blocks are memcpy'd into, plus
// the name->offset map GetUniformLocation consults for the out-of-band
// mat2/mat3 path.
type pipelineEntry struct {
	render      *wgpu.RenderPipeline
	bindGroup   *wgpu.BindGroup
	vertexUBO   *wgpu.Buffer
	fragmentUBO *wgpu.Buffer
	uniformOff  map[string]uniformLoc
}

type uniformLoc struct {
	stage  backend.ShaderStage
	offset int
}

// New brings up the instance/adapter/device/queue/surface the same way the
// teacher's newWGPURendererBackend does, then configures the surface at the
// given size.
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int) (*Backend, error) {
	runtime.LockOSThread()

	b := &Backend{
		instance:  wgpu.CreateInstance(nil),
		buffers:   make(map[backend.BufferHandle]*wgpu.Buffer),
		images:    make(map[backend.ImageHandle]*imageEntry),
		views:     make(map[backend.ViewHandle]*wgpu.TextureView),
		samplers:  make(map[backend.SamplerHandle]*wgpu.Sampler),
		shaders:   make(map[backend.ShaderHandle]*shaderEntry),
		pipelines: make(map[backend.PipelineHandle]*pipelineEntry),
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{CompatibleSurface: b.surface})
	if err != nil {
		return nil, fmt.Errorf("wgpu: request adapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "webglnative device"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	if err := b.configureSurface(width, height); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) configureSurface(width, height int) error {
	caps := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = caps.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	})

	depthTex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "depth",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create depth texture: %w", err)
	}
	b.depthView, err = depthTex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("wgpu: create depth view: %w", err)
	}

	b.passDesc = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	}
	return nil
}

// Resize reconfigures the surface and depth target after a window resize.
func (b *Backend) Resize(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.configureSurface(width, height)
}

func pixelFormatToWGPU(f backend.PixelFormat) wgpu.TextureFormat {
	switch f {
	case backend.PixelFormatR8:
		return wgpu.TextureFormatR8Unorm
	case backend.PixelFormatRG8:
		return wgpu.TextureFormatRG8Unorm
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

func bytesPerPixel(f backend.PixelFormat) uint32 {
	switch f {
	case backend.PixelFormatR8:
		return 1
	case backend.PixelFormatRG8:
		return 2
	default:
		return 4
	}
}

func (b *Backend) MakeBuffer(size int, usage backend.BufferUsage) (backend.BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var wgpuUsage wgpu.BufferUsage
	switch usage {
	case backend.BufferUsageVertex:
		wgpuUsage = wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	case backend.BufferUsageIndex:
		wgpuUsage = wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	default:
		wgpuUsage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "shim buffer " + uuid.NewString(),
		Size:  uint64(size),
		Usage: wgpuUsage,
	})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create buffer: %w", err)
	}
	b.nextBuffer++
	h := backend.BufferHandle(b.nextBuffer)
	b.buffers[h] = buf
	return h, nil
}

func (b *Backend) UpdateBuffer(h backend.BufferHandle, byteOffset int, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[h]
	if !ok {
		return fmt.Errorf("wgpu: unknown buffer handle %d", h)
	}
	b.queue.WriteBuffer(buf, uint64(byteOffset), data)
	return nil
}

func (b *Backend) DestroyBuffer(h backend.BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if buf, ok := b.buffers[h]; ok {
		buf.Release()
		delete(b.buffers, h)
	}
}

func (b *Backend) MakeImage(desc backend.ImageDescriptor) (backend.ImageHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	depth := uint32(1)
	if desc.Cube {
		depth = 6
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "shim texture " + uuid.NewString(),
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          wgpu.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: depth},
		Format:        pixelFormatToWGPU(desc.Format),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create texture: %w", err)
	}
	b.nextImage++
	h := backend.ImageHandle(b.nextImage)
	b.images[h] = &imageEntry{tex: tex, desc: desc}
	return h, nil
}

func (b *Backend) UpdateImage(h backend.ImageHandle, level int, pixels []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.images[h]
	if !ok {
		return fmt.Errorf("wgpu: unknown image handle %d", h)
	}
	bpp := bytesPerPixel(entry.desc.Format)
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: entry.tex, MipLevel: uint32(level), Aspect: wgpu.TextureAspectAll},
		pixels,
		&wgpu.TextureDataLayout{BytesPerRow: uint32(entry.desc.Width) * bpp, RowsPerImage: uint32(entry.desc.Height)},
		&wgpu.Extent3D{Width: uint32(entry.desc.Width), Height: uint32(entry.desc.Height), DepthOrArrayLayers: 1},
	)
	return nil
}

func (b *Backend) MakeView(h backend.ImageHandle) (backend.ViewHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.images[h]
	if !ok {
		return 0, fmt.Errorf("wgpu: unknown image handle %d", h)
	}
	view, err := entry.tex.CreateView(nil)
	if err != nil {
		return 0, fmt.Errorf("wgpu: create view: %w", err)
	}
	b.nextView++
	vh := backend.ViewHandle(b.nextView)
	b.views[vh] = view
	return vh, nil
}

func (b *Backend) MakeSampler(desc backend.SamplerDescriptor) (backend.SamplerHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:        "shim sampler",
		AddressModeU: wrapModeToWGPU(desc.WrapS),
		AddressModeV: wrapModeToWGPU(desc.WrapT),
		MagFilter:    filterModeToWGPU(desc.MagFilter),
		MinFilter:    filterModeToWGPU(desc.MinFilter),
	})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create sampler: %w", err)
	}
	b.nextSampler++
	sh := backend.SamplerHandle(b.nextSampler)
	b.samplers[sh] = samp
	return sh, nil
}

func wrapModeToWGPU(m backend.WrapMode) wgpu.AddressMode {
	switch m {
	case backend.WrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case backend.WrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}

func filterModeToWGPU(m backend.FilterMode) wgpu.FilterMode {
	if m == backend.FilterNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func (b *Backend) DestroyImage(h backend.ImageHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if entry, ok := b.images[h]; ok {
		entry.tex.Release()
		delete(b.images, h)
	}
}

func (b *Backend) DestroyView(h backend.ViewHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.views[h]; ok {
		v.Release()
		delete(b.views, h)
	}
}

func (b *Backend) DestroySampler(h backend.SamplerHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.samplers[h]; ok {
		s.Release()
		delete(b.samplers, h)
	}
}

// MakeShader compiles the already-translated desktop-GLSL source the shim's
// C5 translator emitted. wgpu-native's public shader-module API only
// accepts WGSL or SPIR-V; a production deployment of this backend would run
// the emitted GLSL through a cross-compiler (naga or glslang) before this
// call. That cross-compile step has no home in this module (no such library
// is present anywhere in the example pack), so MakeShader here hands the
// source to the WGSL path directly — this backend is exercised end-to-end
// against a real WebGPU device only once such a pass exists upstream of it;
// `backend/recording` is what every gl package test actually drives.
func (b *Backend) MakeShader(stage backend.ShaderStage, source string) (backend.ShaderHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "shim shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
	entry := &shaderEntry{stage: stage, source: source}
	if err != nil {
		entry.valid = false
		entry.errLog = err.Error()
	} else {
		entry.module = module
		entry.valid = true
	}
	b.nextShader++
	h := backend.ShaderHandle(b.nextShader)
	b.shaders[h] = entry
	if err != nil {
		return h, nil // caller checks validity via QueryShaderValid, matching the teacher's two-step compile/query idiom
	}
	return h, nil
}

func (b *Backend) DestroyShader(h backend.ShaderHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.shaders[h]; ok {
		if e.module != nil {
			e.module.Release()
		}
		delete(b.shaders, h)
	}
}

func (b *Backend) QueryShaderValid(h backend.ShaderHandle) (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.shaders[h]
	if !ok {
		return false, "unknown shader handle"
	}
	return e.valid, e.errLog
}

func (b *Backend) MakePipeline(desc backend.PipelineDescriptor) (backend.PipelineHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	vs, ok := b.shaders[desc.VertexShader]
	if !ok || !vs.valid {
		return 0, fmt.Errorf("wgpu: vertex shader not valid")
	}
	fs, ok := b.shaders[desc.FragmentShader]
	if !ok || !fs.valid {
		return 0, fmt.Errorf("wgpu: fragment shader not valid")
	}

	uniformOff := map[string]uniformLoc{}
	var vertexUBO, fragmentUBO *wgpu.Buffer
	bindEntries := []wgpu.BindGroupLayoutEntry{}
	groupEntries := []wgpu.BindGroupEntry{}
	binding := uint32(0)

	for _, block := range desc.UniformBlocks {
		if block.ByteSize == 0 {
			continue
		}
		visibility := wgpu.ShaderStageVertex
		if block.Stage == backend.StageFragment {
			visibility = wgpu.ShaderStageFragment
		}
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "shim uniform block",
			Size:  uint64(block.ByteSize),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return 0, fmt.Errorf("wgpu: create uniform buffer: %w", err)
		}
		if block.Stage == backend.StageVertex {
			vertexUBO = buf
		} else {
			fragmentUBO = buf
		}
		bindEntries = append(bindEntries, wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: visibility,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
		})
		groupEntries = append(groupEntries, wgpu.BindGroupEntry{Binding: binding, Buffer: buf, Size: uint64(block.ByteSize)})
		for _, m := range block.Uniforms {
			uniformOff[m.Name] = uniformLoc{stage: block.Stage, offset: m.ByteOffset}
		}
		binding++
	}

	for i := 0; i < desc.SamplerCount; i++ {
		bindEntries = append(bindEntries,
			wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: wgpu.ShaderStageFragment, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat}},
			wgpu.BindGroupLayoutEntry{Binding: binding + 1, Visibility: wgpu.ShaderStageFragment, Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}},
		)
		binding += 2
	}

	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: "shim layout", Entries: bindEntries})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "shim pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}

	vertexLayout := wgpu.VertexBufferLayout{
		StepMode:   wgpu.VertexStepModeVertex,
		Attributes: make([]wgpu.VertexAttribute, 0, len(desc.VertexLayout)),
	}
	var stride uint64
	for _, a := range desc.VertexLayout {
		format := componentsToFormat(a.Components)
		vertexLayout.Attributes = append(vertexLayout.Attributes, wgpu.VertexAttribute{
			Format:         format,
			Offset:         uint64(a.ByteOffset),
			ShaderLocation: uint32(a.Location),
		})
		if end := uint64(a.ByteOffset + a.ByteStride); end > stride {
			stride = end
		}
	}
	vertexLayout.ArrayStride = stride

	cullMode := wgpu.CullModeNone
	switch desc.CullMode {
	case backend.CullBack:
		cullMode = wgpu.CullModeBack
	case backend.CullFront:
		cullMode = wgpu.CullModeFront
	}

	var blendState *wgpu.BlendState
	if desc.Blend != backend.BlendNone {
		blendState = &wgpu.BlendState{
			Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
			Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
		}
	}

	depthCompare := wgpu.CompareFunctionAlways
	if desc.DepthTest {
		depthCompare = wgpu.CompareFunctionLess
	}

	rp, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "shim render pipeline " + uuid.NewString(),
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs.module,
			EntryPoint: "main",
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs.module,
			EntryPoint: "main",
			Targets: []wgpu.ColorTargetState{{
				Format:    b.surfaceFormat,
				Blend:     blendState,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode,
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: desc.DepthWrite,
			DepthCompare:      depthCompare,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create render pipeline: %w", err)
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{Label: "shim bind group", Layout: layout, Entries: groupEntries})
	if err != nil {
		return 0, fmt.Errorf("wgpu: create bind group: %w", err)
	}

	b.nextPipeline++
	h := backend.PipelineHandle(b.nextPipeline)
	b.pipelines[h] = &pipelineEntry{
		render:      rp,
		bindGroup:   bindGroup,
		vertexUBO:   vertexUBO,
		fragmentUBO: fragmentUBO,
		uniformOff:  uniformOff,
	}
	return h, nil
}

func componentsToFormat(n int) wgpu.VertexFormat {
	switch n {
	case 1:
		return wgpu.VertexFormatFloat32
	case 2:
		return wgpu.VertexFormatFloat32x2
	case 3:
		return wgpu.VertexFormatFloat32x3
	default:
		return wgpu.VertexFormatFloat32x4
	}
}

func (b *Backend) DestroyPipeline(h backend.PipelineHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.pipelines[h]; ok {
		e.render.Release()
		e.bindGroup.Release()
		if e.vertexUBO != nil {
			e.vertexUBO.Release()
		}
		if e.fragmentUBO != nil {
			e.fragmentUBO.Release()
		}
		delete(b.pipelines, h)
	}
}

// GetUniformLocation encodes (stage, byte offset) into a UniformLocation;
// the mat2/mat3 out-of-band path writes directly into the matching uniform
// buffer's bytes via UniformMatrix2fv/3fv below rather than through any
// native "location" concept WebGPU itself doesn't have.
func (b *Backend) GetUniformLocation(p backend.PipelineHandle, name string) (backend.UniformLocation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.pipelines[p]
	if !ok {
		return 0, false
	}
	loc, ok := e.uniformOff[name]
	if !ok {
		return 0, false
	}
	stageBit := uint64(0)
	if loc.stage == backend.StageFragment {
		stageBit = 1
	}
	return backend.UniformLocation(stageBit<<32 | uint64(uint32(loc.offset))), true
}

func (b *Backend) writeMatrix(p backend.PipelineHandle, loc backend.UniformLocation, data []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.pipelines[p]
	if !ok {
		return fmt.Errorf("wgpu: unknown pipeline handle %d", p)
	}
	stageBit := uint64(loc) >> 32
	offset := uint32(uint64(loc))
	buf := e.vertexUBO
	if stageBit == 1 {
		buf = e.fragmentUBO
	}
	if buf == nil {
		return fmt.Errorf("wgpu: uniform block not present for this stage")
	}
	bytes := make([]byte, len(data)*4)
	for i, f := range data {
		asUint := float32ToLE(f)
		copy(bytes[i*4:], asUint[:])
	}
	b.queue.WriteBuffer(buf, uint64(offset), bytes)
	return nil
}

func float32ToLE(f float32) [4]byte {
	bits := math.Float32bits(f)
	return [4]byte{byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
}

func (b *Backend) UniformMatrix2fv(p backend.PipelineHandle, loc backend.UniformLocation, data []float32) error {
	return b.writeMatrix(p, loc, data)
}

func (b *Backend) UniformMatrix3fv(p backend.PipelineHandle, loc backend.UniformLocation, data []float32) error {
	return b.writeMatrix(p, loc, data)
}

func (b *Backend) UniformMatrix4fv(p backend.PipelineHandle, loc backend.UniformLocation, data []float32) error {
	return b.writeMatrix(p, loc, data)
}

func (b *Backend) ApplyPipeline(p backend.PipelineHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.pipelines[p]
	if !ok {
		return fmt.Errorf("wgpu: unknown pipeline handle %d", p)
	}
	if b.framePass == nil {
		return fmt.Errorf("wgpu: ApplyPipeline called outside a frame")
	}
	b.framePass.SetPipeline(e.render)
	b.framePass.SetBindGroup(0, e.bindGroup, nil)
	return nil
}

func (b *Backend) ApplyBindings(p backend.PipelineHandle, bindings backend.BindingsDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		return fmt.Errorf("wgpu: ApplyBindings called outside a frame")
	}
	if vbuf, ok := b.buffers[bindings.VertexBuffer]; ok {
		b.framePass.SetVertexBuffer(0, vbuf, 0, wgpu.WholeSize)
	}
	if bindings.IndexBuffer != 0 {
		if ibuf, ok := b.buffers[bindings.IndexBuffer]; ok {
			b.framePass.SetIndexBuffer(ibuf, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
		}
	}
	return nil
}

func (b *Backend) ApplyUniformBlock(p backend.PipelineHandle, stage backend.ShaderStage, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.pipelines[p]
	if !ok {
		return fmt.Errorf("wgpu: unknown pipeline handle %d", p)
	}
	buf := e.vertexUBO
	if stage == backend.StageFragment {
		buf = e.fragmentUBO
	}
	if buf == nil || len(data) == 0 {
		return nil
	}
	b.queue.WriteBuffer(buf, 0, data)
	return nil
}

func (b *Backend) Draw(d backend.DrawDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		return fmt.Errorf("wgpu: Draw called outside a frame")
	}
	if d.Indexed {
		b.framePass.DrawIndexed(uint32(d.Count), 1, uint32(d.IndexByte0), 0, 0)
	} else {
		b.framePass.Draw(uint32(d.Count), 1, 0, 0)
	}
	return nil
}

// BeginFrame acquires the next swapchain image and begins the main render
// pass, mirroring the teacher's BeginFrame. Called once per tick by the
// runtime package, outside the gl package's flush path.
func (b *Backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frameSurface != nil {
		return fmt.Errorf("wgpu: previous frame not yet presented")
	}
	surfaceTex, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("wgpu: acquire surface texture: %w", err)
	}
	view, err := surfaceTex.CreateView(nil)
	if err != nil {
		surfaceTex.Release()
		return fmt.Errorf("wgpu: create surface view: %w", err)
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTex.Release()
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	b.passDesc.ColorAttachments[0].View = view
	pass := encoder.BeginRenderPass(b.passDesc)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTex
	b.frameView = view
	return nil
}

// EndFrame ends the render pass and submits the command buffer.
func (b *Backend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		return
	}
	b.framePass.End()
	cmd, err := b.frameEncoder.Finish(nil)
	if err == nil {
		b.queue.Submit(cmd)
		cmd.Release()
	}
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil
}

// Present presents the acquired surface image.
func (b *Backend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.frameView.Release()
	b.frameSurface.Release()
	b.frameView = nil
	b.frameSurface = nil
}

var _ backend.Backend = (*Backend)(nil)
