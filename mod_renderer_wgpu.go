package dusk

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/mathgl/mgl32"
)

type GpuState struct {
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration
}

func createGpuState(s *WindowState) *GpuState {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(s.windowGlfw))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		panic(err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		panic(err)
	}
	queue := device.GetQueue()

	caps := surface.GetCapabilities(adapter)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(s.WindowWidth),
		Height:      uint32(s.WindowHeight),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, &surfaceConfig)

	return &GpuState{
		surface:       surface,
		adapter:       adapter,
		device:        device,
		queue:         queue,
		surfaceConfig: &surfaceConfig,
	}
}

func blendState(mode BlendMode) *wgpu.BlendState {
	dst := wgpu.BlendFactorOneMinusSrcAlpha
	if mode == BlendAdditive {
		dst = wgpu.BlendFactorOne
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: dst,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

// meshInstance mirrors the storage-buffer layout in meshShaderWGSL.
type meshInstance struct {
	Model mgl32.Mat4
	Tint  mgl32.Vec4
}

// spriteInstance mirrors the storage-buffer layout in spriteShaderWGSL.
// Sprites cover billboards and terrain tiles; both are camera-facing quads
// with a sub-rectangle of their texture.
type spriteInstance struct {
	Center mgl32.Vec4 // render-space xyz, w unused
	Size   mgl32.Vec2
	UVMin  mgl32.Vec2
	UVMax  mgl32.Vec2
	_pad   mgl32.Vec2
	Color  mgl32.Vec4
}

type meshGpuBuffers struct {
	vertexBuf  *wgpu.Buffer
	indexBuf   *wgpu.Buffer
	indexCount uint32
}

type textureBinding struct {
	view *wgpu.TextureView
}

// WgpuBatchRenderer draws command batches through wgpu. One pipeline per
// (geometry kind, blend mode); per-batch instance data is uploaded as a
// storage buffer and drawn instanced. All methods must be called from the
// window thread.
type WgpuBatchRenderer struct {
	log    Logger
	window *WindowState
	gpu    *GpuState
	cache  *AssetCache

	meshPipelines   [2]*wgpu.RenderPipeline
	spritePipelines [2]*wgpu.RenderPipeline
	sampler         *wgpu.Sampler
	cameraBuf       *wgpu.Buffer

	meshBuffers map[string]*meshGpuBuffers
	textures    map[string]*textureBinding

	frameView *wgpu.TextureView
	encoder   *wgpu.CommandEncoder
	pass      *wgpu.RenderPassEncoder
}

func NewWgpuBatchRenderer(window *WindowState, cache *AssetCache, log Logger) *WgpuBatchRenderer {
	if log == nil {
		log = NewNopLogger()
	}
	gpu := createGpuState(window)

	r := &WgpuBatchRenderer{
		log:         log,
		window:      window,
		gpu:         gpu,
		cache:       cache,
		meshBuffers: make(map[string]*meshGpuBuffers),
		textures:    make(map[string]*textureBinding),
	}

	sampler, err := gpu.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   1,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: 1,
	})
	if err != nil {
		panic(err)
	}
	r.sampler = sampler

	cameraBuf, err := gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Camera Uniform",
		Size:  64,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	r.cameraBuf = cameraBuf

	for _, mode := range []BlendMode{BlendAlpha, BlendAdditive} {
		r.meshPipelines[mode] = r.createPipeline(fmt.Sprintf("mesh-%s", mode), meshShaderWGSL, mode, meshVertexLayout())
		r.spritePipelines[mode] = r.createPipeline(fmt.Sprintf("sprite-%s", mode), spriteShaderWGSL, mode)
	}
	return r
}

func meshVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 8 * 4, // position + normal + uv
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{ShaderLocation: 0, Offset: 0, Format: wgpu.VertexFormatFloat32x3},
			{ShaderLocation: 1, Offset: 12, Format: wgpu.VertexFormatFloat32x3},
			{ShaderLocation: 2, Offset: 24, Format: wgpu.VertexFormatFloat32x2},
		},
	}
}

func (r *WgpuBatchRenderer) createPipeline(name string, shaderCode string, mode BlendMode, buffers ...wgpu.VertexBufferLayout) *wgpu.RenderPipeline {
	shader, err := r.gpu.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaderCode},
	})
	if err != nil {
		panic(err)
	}
	defer shader.Release()

	pipeline, err := r.gpu.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    r.gpu.surfaceConfig.Format,
					Blend:     blendState(mode),
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		panic(err)
	}
	return pipeline
}

func (r *WgpuBatchRenderer) BeginFrame(cam CameraParams) {
	if uint32(r.window.WindowWidth) != r.gpu.surfaceConfig.Width ||
		uint32(r.window.WindowHeight) != r.gpu.surfaceConfig.Height {
		r.gpu.surfaceConfig.Width = uint32(r.window.WindowWidth)
		r.gpu.surfaceConfig.Height = uint32(r.window.WindowHeight)
		r.gpu.surface.Configure(r.gpu.adapter, r.gpu.device, r.gpu.surfaceConfig)
	}

	viewProj := ProjectionMatrix(cam).Mul4(ViewMatrix(cam))
	r.gpu.queue.WriteBuffer(r.cameraBuf, 0, wgpu.ToBytes(viewProj[:]))

	frame, err := r.gpu.surface.GetCurrentTexture()
	if err != nil {
		r.log.Errorf("renderer: acquiring surface texture: %v", err)
		return
	}

	view, err := frame.CreateView(nil)
	if err != nil {
		panic(err)
	}
	r.frameView = view

	encoder, err := r.gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(err)
	}
	r.encoder = encoder

	r.pass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0.05, G: 0.05, B: 0.08, A: 1},
			},
		},
	})
}

func (r *WgpuBatchRenderer) EndFrame() {
	if r.pass == nil {
		return
	}
	r.pass.End()
	r.pass.Release()
	r.pass = nil

	cmdBuf, err := r.encoder.Finish(nil)
	if err != nil {
		panic(err)
	}
	r.encoder.Release()
	r.encoder = nil

	r.gpu.queue.Submit(cmdBuf)
	cmdBuf.Release()

	r.gpu.surface.Present()
	r.frameView.Release()
	r.frameView = nil
}

func (r *WgpuBatchRenderer) DrawMeshes(batch []MeshCommand) {
	if r.pass == nil || len(batch) == 0 {
		return
	}
	mesh := r.meshFor(batch[0].Asset)
	if mesh == nil {
		return
	}

	instances := make([]meshInstance, len(batch))
	for i, cmd := range batch {
		instances[i] = meshInstance{Model: cmd.Transform, Tint: cmd.Tint}
	}
	instBuf := r.instanceBuffer(wgpu.ToBytes(instances))
	defer instBuf.Release()

	pipeline := r.meshPipelines[batch[0].Blend]
	group := r.bindGroup(pipeline, instBuf, nil)
	defer group.Release()

	r.pass.SetPipeline(pipeline)
	r.pass.SetBindGroup(0, group, nil)
	r.pass.SetVertexBuffer(0, mesh.vertexBuf, 0, wgpu.WholeSize)
	r.pass.SetIndexBuffer(mesh.indexBuf, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	r.pass.DrawIndexed(mesh.indexCount, uint32(len(batch)), 0, 0, 0)
}

func (r *WgpuBatchRenderer) DrawBillboards(batch []BillboardCommand) {
	if r.pass == nil || len(batch) == 0 {
		return
	}
	instances := make([]spriteInstance, len(batch))
	for i, cmd := range batch {
		instances[i] = spriteInstance{
			Center: cmd.Position.Vec4(1),
			Size:   cmd.Size,
			UVMin:  mgl32.Vec2{0, 0},
			UVMax:  mgl32.Vec2{1, 1},
			Color:  cmd.Color,
		}
	}
	r.drawSprites(batch[0].Asset, batch[0].Blend, instances)
}

func (r *WgpuBatchRenderer) DrawTerrain(batch []TerrainCommand) {
	if r.pass == nil || len(batch) == 0 {
		return
	}
	tex, ok := r.cache.Texture(batch[0].Asset)
	if !ok {
		return
	}
	tilesPerRow := int(tex.Width / uint32(batch[0].Size.X()))
	if tilesPerRow < 1 {
		tilesPerRow = 1
	}

	instances := make([]spriteInstance, len(batch))
	for i, cmd := range batch {
		u, v := tileUV(cmd.TileId, tilesPerRow, cmd.Size, tex)
		instances[i] = spriteInstance{
			Center: cmd.Position.Vec4(1),
			Size:   cmd.Size,
			UVMin:  u,
			UVMax:  v,
			Color:  tintWhite,
		}
	}
	r.drawSprites(batch[0].Asset, BlendAlpha, instances)
}

// tileUV locates a 1-based tile index inside its tileset.
func tileUV(id int, tilesPerRow int, size mgl32.Vec2, tex *TextureAsset) (mgl32.Vec2, mgl32.Vec2) {
	idx := id - 1
	col := idx % tilesPerRow
	row := idx / tilesPerRow
	du := size.X() / float32(tex.Width)
	dv := size.Y() / float32(tex.Height)
	minUV := mgl32.Vec2{float32(col) * du, float32(row) * dv}
	return minUV, minUV.Add(mgl32.Vec2{du, dv})
}

func (r *WgpuBatchRenderer) drawSprites(asset string, mode BlendMode, instances []spriteInstance) {
	tex := r.textureFor(asset)
	if tex == nil {
		return
	}
	instBuf := r.instanceBuffer(wgpu.ToBytes(instances))
	defer instBuf.Release()

	pipeline := r.spritePipelines[mode]
	group := r.bindGroup(pipeline, instBuf, tex)
	defer group.Release()

	r.pass.SetPipeline(pipeline)
	r.pass.SetBindGroup(0, group, nil)
	r.pass.Draw(6, uint32(len(instances)), 0, 0)
}

func (r *WgpuBatchRenderer) instanceBuffer(data []byte) *wgpu.Buffer {
	buf, err := r.gpu.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Instance Buffer",
		Contents: data,
		Usage:    wgpu.BufferUsageStorage,
	})
	if err != nil {
		panic(err)
	}
	return buf
}

func (r *WgpuBatchRenderer) bindGroup(pipeline *wgpu.RenderPipeline, instances *wgpu.Buffer, tex *textureBinding) *wgpu.BindGroup {
	layout := pipeline.GetBindGroupLayout(0)
	defer layout.Release()

	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: r.cameraBuf, Size: wgpu.WholeSize},
		{Binding: 1, Buffer: instances, Size: wgpu.WholeSize},
	}
	if tex != nil {
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: 2, TextureView: tex.view, Size: wgpu.WholeSize},
			wgpu.BindGroupEntry{Binding: 3, Sampler: r.sampler, Size: wgpu.WholeSize},
		)
	}

	group, err := r.gpu.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		panic(err)
	}
	return group
}

// meshFor lazily uploads the cached mesh geometry to the GPU.
func (r *WgpuBatchRenderer) meshFor(key string) *meshGpuBuffers {
	if buf, ok := r.meshBuffers[key]; ok {
		return buf
	}
	asset, ok := r.cache.Mesh(key)
	if !ok {
		return nil
	}

	vertexBuf, err := r.gpu.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Vertex Buffer",
		Contents: wgpu.ToBytes(asset.Vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		panic(err)
	}
	indexBuf, err := r.gpu.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Index Buffer",
		Contents: wgpu.ToBytes(asset.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		panic(err)
	}

	buf := &meshGpuBuffers{
		vertexBuf:  vertexBuf,
		indexBuf:   indexBuf,
		indexCount: uint32(len(asset.Indices)),
	}
	r.meshBuffers[key] = buf
	return buf
}

// textureFor lazily uploads the cached texture.
func (r *WgpuBatchRenderer) textureFor(key string) *textureBinding {
	if tex, ok := r.textures[key]; ok {
		return tex
	}
	asset, ok := r.cache.Texture(key)
	if !ok {
		return nil
	}

	extent := wgpu.Extent3D{Width: asset.Width, Height: asset.Height, DepthOrArrayLayers: 1}
	texture, err := r.gpu.device.CreateTexture(&wgpu.TextureDescriptor{
		Size:          extent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	defer texture.Release()

	view, err := texture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	err = r.gpu.queue.WriteTexture(
		texture.AsImageCopy(),
		asset.Texels,
		&wgpu.TextureDataLayout{
			BytesPerRow:  asset.Width * 4,
			RowsPerImage: asset.Height,
		},
		&extent,
	)
	if err != nil {
		panic(err)
	}

	tex := &textureBinding{view: view}
	r.textures[key] = tex
	return tex
}

const meshShaderWGSL = `
struct Camera {
    view_proj: mat4x4<f32>,
}
struct Instance {
    model: mat4x4<f32>,
    tint: vec4<f32>,
}

@group(0) @binding(0) var<uniform> camera: Camera;
@group(0) @binding(1) var<storage, read> instances: array<Instance>;

struct VsOut {
    @builtin(position) clip: vec4<f32>,
    @location(0) normal: vec3<f32>,
    @location(1) tint: vec4<f32>,
}

@vertex
fn vs_main(
    @builtin(instance_index) ii: u32,
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
    @location(2) uv: vec2<f32>,
) -> VsOut {
    let inst = instances[ii];
    var out: VsOut;
    out.clip = camera.view_proj * inst.model * vec4<f32>(position, 1.0);
    out.normal = (inst.model * vec4<f32>(normal, 0.0)).xyz;
    out.tint = inst.tint;
    return out;
}

@fragment
fn fs_main(in: VsOut) -> @location(0) vec4<f32> {
    let light = normalize(vec3<f32>(-0.4, 1.0, -0.6));
    let shade = 0.6 + 0.4 * max(dot(normalize(in.normal), light), 0.0);
    return vec4<f32>(in.tint.rgb * shade, in.tint.a);
}
`

const spriteShaderWGSL = `
struct Camera {
    view_proj: mat4x4<f32>,
}
struct Instance {
    center: vec4<f32>,
    size: vec2<f32>,
    uv_min: vec2<f32>,
    uv_max: vec2<f32>,
    pad: vec2<f32>,
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> camera: Camera;
@group(0) @binding(1) var<storage, read> instances: array<Instance>;
@group(0) @binding(2) var tex: texture_2d<f32>;
@group(0) @binding(3) var smp: sampler;

struct VsOut {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) color: vec4<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) vi: u32, @builtin(instance_index) ii: u32) -> VsOut {
    var corners = array<vec2<f32>, 6>(
        vec2<f32>(-0.5, -0.5), vec2<f32>(0.5, -0.5), vec2<f32>(0.5, 0.5),
        vec2<f32>(-0.5, -0.5), vec2<f32>(0.5, 0.5), vec2<f32>(-0.5, 0.5),
    );
    let inst = instances[ii];
    let corner = corners[vi];

    // Screen-aligned quad: expand in view space so sprites always face the
    // camera.
    var center = camera.view_proj * vec4<f32>(inst.center.xyz, 1.0);
    center.x += corner.x * inst.size.x * camera.view_proj[0][0];
    center.y += corner.y * inst.size.y * camera.view_proj[1][1];

    var out: VsOut;
    out.clip = center;
    out.uv = mix(inst.uv_min, inst.uv_max, vec2<f32>(corner.x + 0.5, 0.5 - corner.y));
    out.color = inst.color;
    return out;
}

@fragment
fn fs_main(in: VsOut) -> @location(0) vec4<f32> {
    let texel = textureSample(tex, smp, in.uv);
    let color = texel * in.color;
    if (color.a < 0.01) {
        discard;
    }
    return color;
}
`
