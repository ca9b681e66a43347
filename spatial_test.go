package dusk

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeEntity(w *WorldState, x, y float32) EntityId {
	id := NewEntityId()
	w.Positions[id] = Position{Logic: mgl32.Vec2{x, y}}
	return id
}

func TestSpatialGridRadiusQuery(t *testing.T) {
	world := NewWorldState()
	near := placeEntity(world, 1, 1)
	edge := placeEntity(world, 4, 0)
	far := placeEntity(world, 30, 30)

	grid := NewSpatialGrid(4)
	grid.Rebuild(world)

	hits := grid.QueryRadius(world, mgl32.Vec2{0, 0}, 5, nil)
	assert.Contains(t, hits, near)
	assert.Contains(t, hits, edge)
	assert.NotContains(t, hits, far)
}

func TestSpatialGridExactDistanceFilter(t *testing.T) {
	world := NewWorldState()
	// Same cell as the query center but outside the radius.
	out := placeEntity(world, 3.9, 3.9)

	grid := NewSpatialGrid(4)
	grid.Rebuild(world)

	hits := grid.QueryRadius(world, mgl32.Vec2{0.1, 0.1}, 2, nil)
	assert.NotContains(t, hits, out)
}

func TestSpatialGridNegativeCoordinates(t *testing.T) {
	world := NewWorldState()
	id := placeEntity(world, -7.5, -0.5)

	grid := NewSpatialGrid(4)
	grid.Rebuild(world)

	hits := grid.QueryRadius(world, mgl32.Vec2{-7, 0}, 1, nil)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0])
}

func TestSpatialGridRebuildDropsStale(t *testing.T) {
	world := NewWorldState()
	id := placeEntity(world, 0, 0)

	grid := NewSpatialGrid(4)
	grid.Rebuild(world)
	require.NotEmpty(t, grid.QueryRadius(world, mgl32.Vec2{0, 0}, 1, nil))

	delete(world.Positions, id)
	grid.Rebuild(world)
	assert.Empty(t, grid.QueryRadius(world, mgl32.Vec2{0, 0}, 1, nil))
}

func TestPickEntityNearestWins(t *testing.T) {
	world := NewWorldState()
	cam := testCamera()

	target := ScreenToLogic(mgl32.Vec2{400, 300}, 0, cam)
	close := placeEntity(world, target.X()+0.2, target.Y())
	_ = placeEntity(world, target.X()+1.5, target.Y())

	grid := NewSpatialGrid(4)
	grid.Rebuild(world)

	picked := PickEntity(world, grid, cam, mgl32.Vec2{400, 300}, 2)
	assert.Equal(t, close, picked)
}

func TestPickEntityMissReturnsNil(t *testing.T) {
	world := NewWorldState()
	placeEntity(world, 100, 100)

	grid := NewSpatialGrid(4)
	grid.Rebuild(world)

	picked := PickEntity(world, grid, testCamera(), mgl32.Vec2{400, 300}, 2)
	assert.True(t, picked.IsNil())
}
