package dusk

import (
	"reflect"
)

// ActiveRenderer is the single BatchRenderer resource. Exactly one renderer
// module may install it; a second install panics early instead of drawing
// through the wrong backend.
type ActiveRenderer struct {
	Name     string
	Renderer BatchRenderer
}

func ensureSingleRenderer(app *App, name string) {
	t := reflect.TypeOf((*ActiveRenderer)(nil)).Elem()
	if existing, ok := app.resources[t]; ok {
		panic("renderer " + name + " installed, but " + existing.(*ActiveRenderer).Name + " is already active")
	}
}

// WgpuRendererModule installs the wgpu batch renderer against the shared
// window. Requires WindowModule and AssetsModule.
type WgpuRendererModule struct{}

func (WgpuRendererModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, "wgpu")
	window := mustResource[WindowState](app)
	cache := mustResource[AssetCache](app)
	cmd.AddResources(&ActiveRenderer{
		Name:     "wgpu",
		Renderer: NewWgpuBatchRenderer(window, cache, app.Logger()),
	})
}

// nopRenderer discards every batch. Used for headless runs and benchmarks
// where the full pipeline should execute without a GPU.
type nopRenderer struct{}

func (nopRenderer) BeginFrame(CameraParams)           {}
func (nopRenderer) DrawTerrain([]TerrainCommand)      {}
func (nopRenderer) DrawMeshes([]MeshCommand)          {}
func (nopRenderer) DrawBillboards([]BillboardCommand) {}
func (nopRenderer) EndFrame()                         {}

// HeadlessRendererModule installs a renderer that draws nothing.
type HeadlessRendererModule struct{}

func (HeadlessRendererModule) Install(app *App, cmd *Commands) {
	ensureSingleRenderer(app, "headless")
	cmd.AddResources(&ActiveRenderer{Name: "headless", Renderer: nopRenderer{}})
}

// RenderModule wires the frame pipeline: pose resolver, orchestrator, and the
// render system dispatching through whichever renderer module is active.
// Requires WorldModule, EffectsModule and a renderer module.
type RenderModule struct {
	// CullMargin in logic units, default 2.
	CullMargin float32
	Map        *TileMap
}

func (m RenderModule) Install(app *App, cmd *Commands) {
	world := mustResource[WorldState](app)
	sim := mustResource[EffectSim](app)
	active := mustResource[ActiveRenderer](app)
	cache := mustResource[AssetCache](app)

	margin := m.CullMargin
	if margin <= 0 {
		margin = 2
	}

	orch := NewRenderOrchestrator(world, sim, NewPoseResolver(app.Logger()), active.Renderer)
	orch.CullMargin = margin
	orch.Map = m.Map
	orch.ResolveAsset = cache.Resolver()
	cmd.AddResources(orch)

	app.UseSystem(System(renderSystem).InStage(Render))
}

func renderSystem(orch *RenderOrchestrator, cam *Camera) {
	orch.Frame(cam.Params)
}
