package dusk

import (
	"sort"
	"sync"
)

// BatchRenderer receives grouped command batches on a single thread. The
// wgpu implementation lives in the renderer module; tests substitute a
// recording fake.
type BatchRenderer interface {
	BeginFrame(cam CameraParams)
	DrawTerrain(batch []TerrainCommand)
	DrawMeshes(batch []MeshCommand)
	DrawBillboards(batch []BillboardCommand)
	EndFrame()
}

// RenderOrchestrator drives one frame of the command pipeline: snapshot,
// sequential pose resolve, parallel emission, join, depth sort, batch by
// (asset, blend) and dispatch in fixed layer order. Draw calls always happen
// on the caller's thread; only emission fans out.
type RenderOrchestrator struct {
	world    *WorldState
	sim      *EffectSim
	resolver *PoseResolver
	renderer BatchRenderer
	pool     *bufferPool

	// CullMargin grows the emitters' culling bounds, in logic units.
	CullMargin float32
	// Map is the active terrain, swapped by the scene layer.
	Map *TileMap
	// ResolveAsset answers asset availability for all emitters.
	ResolveAsset AssetResolver
	// OverlayHook, when set, draws debug overlays after every layer.
	OverlayHook func(r BatchRenderer, cam CameraParams)

	entities []RenderEntity
	resolved []ResolvedEntity
}

func NewRenderOrchestrator(world *WorldState, sim *EffectSim, resolver *PoseResolver, renderer BatchRenderer) *RenderOrchestrator {
	return &RenderOrchestrator{
		world:    world,
		sim:      sim,
		resolver: resolver,
		renderer: renderer,
		pool:     newBufferPool(),
	}
}

// Frame renders one frame with the given camera. The world must be between
// writer transactions (the loop schedules rendering after the writer stage),
// so every event applied this update is visible, fully.
func (o *RenderOrchestrator) Frame(cam CameraParams) {
	b := o.pool.Acquire()
	defer o.pool.Release(b)

	o.entities = o.world.MovementSnapshot(o.entities)
	o.resolved = o.resolver.Resolve(o.entities, o.resolved)

	bounds := ViewBounds(cam)
	effects := o.sim.Snapshot()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		b.Meshes = EmitEntities(EntityEmitterInput{
			Resolved: o.resolved,
			Bounds:   bounds,
			Margin:   o.CullMargin,
			Camera:   cam,
			Resolve:  o.ResolveAsset,
		}, b.Meshes)
	}()
	go func() {
		defer wg.Done()
		b.Billboards, b.ParticleMeshes = EmitParticles(ParticleEmitterInput{
			Effects: effects,
			Bounds:  bounds,
			Margin:  o.CullMargin,
			Camera:  cam,
			Resolve: o.ResolveAsset,
		}, b.Billboards, b.ParticleMeshes)
	}()
	go func() {
		defer wg.Done()
		b.Background, b.Overlay = EmitTerrain(TerrainEmitterInput{
			Map:     o.Map,
			Bounds:  bounds,
			Camera:  cam,
			Resolve: o.ResolveAsset,
		}, b.Background, b.Overlay)
	}()
	wg.Wait()

	sortTerrain(b.Background)
	sortMeshes(b.Meshes)
	sortMeshes(b.ParticleMeshes)
	sortBillboards(b.Billboards)
	sortTerrain(b.Overlay)

	o.renderer.BeginFrame(cam)
	o.dispatchTerrain(b.Background)
	o.dispatchMeshes(b.Meshes)
	o.dispatchMeshes(b.ParticleMeshes)
	o.dispatchBillboards(b.Billboards)
	o.dispatchTerrain(b.Overlay)
	if o.OverlayHook != nil {
		o.OverlayHook(o.renderer, cam)
	}
	o.renderer.EndFrame()
}

// Depth sorts are stable so equal keys keep insertion order and frames stay
// deterministic.

func sortMeshes(cmds []MeshCommand) {
	sort.SliceStable(cmds, func(i, j int) bool { return cmds[i].Depth < cmds[j].Depth })
}

func sortBillboards(cmds []BillboardCommand) {
	sort.SliceStable(cmds, func(i, j int) bool { return cmds[i].Depth < cmds[j].Depth })
}

func sortTerrain(cmds []TerrainCommand) {
	sort.SliceStable(cmds, func(i, j int) bool { return cmds[i].Depth < cmds[j].Depth })
}

// dispatchMeshes cuts the sorted slice into maximal consecutive runs that
// share asset and blend mode and issues one draw per run.
func (o *RenderOrchestrator) dispatchMeshes(cmds []MeshCommand) {
	for i := 0; i < len(cmds); {
		j := i + 1
		for j < len(cmds) && cmds[j].Asset == cmds[i].Asset && cmds[j].Blend == cmds[i].Blend {
			j++
		}
		o.renderer.DrawMeshes(cmds[i:j])
		i = j
	}
}

func (o *RenderOrchestrator) dispatchBillboards(cmds []BillboardCommand) {
	for i := 0; i < len(cmds); {
		j := i + 1
		for j < len(cmds) && cmds[j].Asset == cmds[i].Asset && cmds[j].Blend == cmds[i].Blend {
			j++
		}
		o.renderer.DrawBillboards(cmds[i:j])
		i = j
	}
}

func (o *RenderOrchestrator) dispatchTerrain(cmds []TerrainCommand) {
	for i := 0; i < len(cmds); {
		j := i + 1
		for j < len(cmds) && cmds[j].Asset == cmds[i].Asset {
			j++
		}
		o.renderer.DrawTerrain(cmds[i:j])
		i = j
	}
}
