package dusk

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEffectLibrary() *EffectLibrary {
	lib := NewEffectLibrary()
	lib.Register(EffectDef{
		Name: "burning", Asset: "flame", Blend: BlendAdditive,
		Color: mgl32.Vec4{1, 0.4, 0, 1}, Size: 0.5,
		Rate: 4, Life: 2,
	})
	lib.Register(EffectDef{
		Name: "orbitals", Asset: "orb", Mode: EffectMeshParticle,
		Color: mgl32.Vec4{0.2, 0.2, 1, 1}, Size: 0.25,
		Rate: 2, Life: 1, Orbit: 3, Radius: 1.5,
	})
	return lib
}

func fixedPosition(p Position) func(EntityId) (Position, bool) {
	return func(EntityId) (Position, bool) { return p, true }
}

func TestEffectSimSpawnsFromStatusEffects(t *testing.T) {
	table := NewReactiveTable[[]StatusEffect]("status_effects")
	sim := NewEffectSim(testEffectLibrary(), table, nil)

	e := NewEntityId()
	table.Set(e, []StatusEffect{{Effect: "burning", Remaining: 5}})
	table.Force()

	sim.Update(1, fixedPosition(Position{Logic: mgl32.Vec2{2, 3}}))
	assert.Equal(t, 4, sim.Len())

	snap := sim.Snapshot()
	assert.Equal(t, "flame", snap.Asset[0])
	assert.Equal(t, BlendAdditive, snap.Blend[0])
}

func TestEffectSimFractionalSpawnCarries(t *testing.T) {
	table := NewReactiveTable[[]StatusEffect]("status_effects")
	sim := NewEffectSim(testEffectLibrary(), table, nil)

	table.Set(NewEntityId(), []StatusEffect{{Effect: "burning"}})
	table.Force()

	pos := fixedPosition(Position{})
	sim.Update(0.1, pos) // 0.4 particles: none yet
	assert.Equal(t, 0, sim.Len())
	sim.Update(0.2, pos) // accumulated 1.2: one spawns
	assert.Equal(t, 1, sim.Len())
}

func TestEffectSimStopsWhenEffectRemoved(t *testing.T) {
	table := NewReactiveTable[[]StatusEffect]("status_effects")
	sim := NewEffectSim(testEffectLibrary(), table, nil)

	e := NewEntityId()
	table.Set(e, []StatusEffect{{Effect: "burning"}})
	table.Force()

	pos := fixedPosition(Position{})
	sim.Update(0.5, pos)
	spawned := sim.Len()
	require.Greater(t, spawned, 0)

	table.Set(e, nil)
	table.Force()

	sim.Update(0.5, pos)
	// No new particles; existing ones live out their lifetime.
	assert.Equal(t, spawned, sim.Len())

	sim.Update(2, pos)
	assert.Equal(t, 0, sim.Len())
}

func TestEffectSimOverridePrecedence(t *testing.T) {
	table := NewReactiveTable[[]StatusEffect]("status_effects")
	sim := NewEffectSim(testEffectLibrary(), table, nil)

	red := mgl32.Vec4{1, 0, 0, 1}
	table.Set(NewEntityId(), []StatusEffect{{
		Effect:   "burning",
		Override: EffectOverride{Color: red, HasColor: true},
	}})
	table.Force()

	sim.Update(1, fixedPosition(Position{}))
	require.Greater(t, sim.Len(), 0)

	snap := sim.Snapshot()
	// Per-cast color wins; size falls back to the definition.
	assert.Equal(t, red, snap.Color[0])
	assert.Equal(t, float32(0.5), snap.Size[0])
}

func TestEffectSimRetiresEmittersForDeadEntities(t *testing.T) {
	table := NewReactiveTable[[]StatusEffect]("status_effects")
	sim := NewEffectSim(testEffectLibrary(), table, nil)

	table.Set(NewEntityId(), []StatusEffect{{Effect: "burning"}})
	table.Force()

	gone := func(EntityId) (Position, bool) { return Position{}, false }
	sim.Update(1, gone)
	assert.Equal(t, 0, sim.Len())

	// Emitter is gone for good, a live position later changes nothing.
	sim.Update(1, fixedPosition(Position{}))
	assert.Equal(t, 0, sim.Len())
}

func TestEffectSimUnknownEffectIgnored(t *testing.T) {
	table := NewReactiveTable[[]StatusEffect]("status_effects")
	sim := NewEffectSim(testEffectLibrary(), table, nil)

	table.Set(NewEntityId(), []StatusEffect{{Effect: "untuned"}})
	table.Force()

	sim.Update(1, fixedPosition(Position{}))
	assert.Equal(t, 0, sim.Len())
}

func TestEffectSimOrbitalOffset(t *testing.T) {
	table := NewReactiveTable[[]StatusEffect]("status_effects")
	sim := NewEffectSim(testEffectLibrary(), table, nil)

	table.Set(NewEntityId(), []StatusEffect{{Effect: "orbitals"}})
	table.Force()

	center := mgl32.Vec2{10, 10}
	sim.Update(0.5, fixedPosition(Position{Logic: center}))
	require.Greater(t, sim.Len(), 0)

	snap := sim.Snapshot()
	for i := range snap.Pos {
		assert.InDelta(t, 1.5, snap.Pos[i].Sub(center).Len(), 1e-3)
	}
}
