package dusk

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRenderer captures batch dispatch for inspection.
type recordingRenderer struct {
	began, ended int
	calls        []string
	meshes       []MeshCommand
	billboards   []BillboardCommand
	terrain      []TerrainCommand
}

func (r *recordingRenderer) BeginFrame(CameraParams) { r.began++ }
func (r *recordingRenderer) EndFrame()               { r.ended++ }

func (r *recordingRenderer) DrawTerrain(batch []TerrainCommand) {
	r.calls = append(r.calls, "terrain")
	r.terrain = append(r.terrain, batch...)
}

func (r *recordingRenderer) DrawMeshes(batch []MeshCommand) {
	r.calls = append(r.calls, "meshes")
	r.meshes = append(r.meshes, batch...)
}

func (r *recordingRenderer) DrawBillboards(batch []BillboardCommand) {
	r.calls = append(r.calls, "billboards")
	r.billboards = append(r.billboards, batch...)
}

func testPipeline() (*WorldState, *EventQueue, *Writer, *EffectSim, *RenderOrchestrator, *recordingRenderer) {
	world := NewWorldState()
	queue := NewEventQueue()
	writer := NewWriter(world, queue, nil)

	lib := NewEffectLibrary()
	lib.Register(EffectDef{
		Name: "burning", Asset: "flame", Blend: BlendAdditive,
		Color: mgl32.Vec4{1, 0.4, 0, 1}, Size: 0.5, Rate: 10, Life: 1,
	})
	sim := NewEffectSim(lib, world.StatusEffects, nil)

	rec := &recordingRenderer{}
	orch := NewRenderOrchestrator(world, sim, NewPoseResolver(nil), rec)
	return world, queue, writer, sim, orch, rec
}

func spawnRigged(queue *EventQueue, at mgl32.Vec2) EntityId {
	id := NewEntityId()
	queue.Publish(Event{Kind: EventEntityCreated, Entity: id, Payload: SpawnPayload{
		Position: Position{Logic: at},
		Rig: &RigInstance{Rig: NewRig("unit", []RigNode{
			{Name: "root", Asset: "hero"},
		})},
	}})
	return id
}

func TestFrameMovementScenario(t *testing.T) {
	world, queue, writer, _, orch, rec := testPipeline()

	a := spawnRigged(queue, mgl32.Vec2{0, 0})
	spawnRigged(queue, mgl32.Vec2{10, 0})
	writer.ApplyFrame()

	queue.Publish(Event{Kind: EventVelocityChanged, Entity: a, Vec: mgl32.Vec2{5, 0}})
	writer.ApplyFrame()
	IntegrateMovement(world, 1)

	assert.Equal(t, mgl32.Vec2{5, 0}, world.Positions[a].Logic)

	cam := testCamera()
	orch.Frame(cam)

	require.Len(t, rec.meshes, 2)
	want := LogicToRender(mgl32.Vec2{5, 0}, 0, cam.PPU)
	var found bool
	for _, m := range rec.meshes {
		if m.Transform.At(0, 3) == want.X() && m.Transform.At(2, 3) == want.Z() {
			found = true
		}
	}
	assert.True(t, found, "no mesh command at the moved position")
	assert.Equal(t, 1, rec.began)
	assert.Equal(t, 1, rec.ended)
}

func TestFrameLayerOrder(t *testing.T) {
	world, queue, writer, sim, orch, rec := testPipeline()

	orch.Map = flatMap(2, 2, 1)

	id := spawnRigged(queue, mgl32.Vec2{1, 1})
	writer.ApplyFrame()

	queue.Publish(Event{Kind: EventStatusEffectApplied, Entity: id, Payload: StatusEffect{Effect: "burning", Remaining: 5}})
	writer.ApplyFrame()
	sim.Update(0.5, func(e EntityId) (Position, bool) {
		world.mu.RLock()
		defer world.mu.RUnlock()
		p, ok := world.Positions[e]
		return p, ok
	})
	require.Greater(t, sim.Len(), 0)

	orch.Frame(testCamera())

	// background terrain, entity meshes, particle billboards, overlay.
	require.GreaterOrEqual(t, len(rec.calls), 4)
	assert.Equal(t, "terrain", rec.calls[0])
	last := rec.calls[len(rec.calls)-1]
	assert.Equal(t, "terrain", last)

	var order []string
	for _, c := range rec.calls {
		if len(order) == 0 || order[len(order)-1] != c {
			order = append(order, c)
		}
	}
	assert.Equal(t, []string{"terrain", "meshes", "billboards", "terrain"}, order)
}

func TestFrameDepthSortStable(t *testing.T) {
	_, queue, writer, _, orch, rec := testPipeline()

	// Farther rows draw first within the entity layer.
	spawnRigged(queue, mgl32.Vec2{0, 5})
	spawnRigged(queue, mgl32.Vec2{0, -3})
	spawnRigged(queue, mgl32.Vec2{0, 1})
	writer.ApplyFrame()

	orch.Frame(testCamera())

	require.Len(t, rec.meshes, 3)
	for i := 1; i < len(rec.meshes); i++ {
		assert.LessOrEqual(t, rec.meshes[i-1].Depth, rec.meshes[i].Depth)
	}
}

func TestFrameBatchesByAssetRuns(t *testing.T) {
	_, queue, writer, _, orch, rec := testPipeline()

	// Three entities sharing one asset at distinct depths still dispatch as
	// a single batch.
	spawnRigged(queue, mgl32.Vec2{0, 0})
	spawnRigged(queue, mgl32.Vec2{0, 1})
	spawnRigged(queue, mgl32.Vec2{0, 2})
	writer.ApplyFrame()

	orch.Frame(testCamera())

	meshCalls := 0
	for _, c := range rec.calls {
		if c == "meshes" {
			meshCalls++
		}
	}
	assert.Equal(t, 1, meshCalls)
	assert.Len(t, rec.meshes, 3)
}

func TestFrameOverlayHookRunsLast(t *testing.T) {
	_, queue, writer, _, orch, rec := testPipeline()
	spawnRigged(queue, mgl32.Vec2{0, 0})
	writer.ApplyFrame()

	hooked := false
	orch.OverlayHook = func(r BatchRenderer, cam CameraParams) {
		hooked = true
		assert.Equal(t, 0, rec.ended)
	}
	orch.Frame(testCamera())
	assert.True(t, hooked)
}
