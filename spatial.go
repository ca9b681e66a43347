package dusk

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SpatialGrid is a uniform hash grid over logic-space positions, rebuilt from
// the committed world every frame. Cheap range and picking queries without
// touching every entity.
type SpatialGrid struct {
	cellSize float32
	cells    map[int64][]EntityId
}

func NewSpatialGrid(cellSize float32) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 4
	}
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[int64][]EntityId),
	}
}

func (g *SpatialGrid) cellKey(cx, cy int32) int64 {
	// Large primes spread neighboring cells across buckets.
	return int64(cx)*73856093 ^ int64(cy)*19349663
}

func (g *SpatialGrid) cellOf(p mgl32.Vec2) (int32, int32) {
	return int32(floorDiv(p.X(), g.cellSize)), int32(floorDiv(p.Y(), g.cellSize))
}

func floorDiv(v, cell float32) float32 {
	q := v / cell
	f := float32(int32(q))
	if q < 0 && q != f {
		f--
	}
	return f
}

// Clear drops all entries but keeps cell slices for reuse.
func (g *SpatialGrid) Clear() {
	for k, c := range g.cells {
		g.cells[k] = c[:0]
	}
}

func (g *SpatialGrid) Insert(id EntityId, pos mgl32.Vec2) {
	cx, cy := g.cellOf(pos)
	key := g.cellKey(cx, cy)
	g.cells[key] = append(g.cells[key], id)
}

// Rebuild repopulates the grid from the committed positions.
func (g *SpatialGrid) Rebuild(world *WorldState) {
	g.Clear()
	world.mu.RLock()
	for id, pos := range world.Positions {
		g.Insert(id, pos.Logic)
	}
	world.mu.RUnlock()
}

// QueryBounds appends every entity whose cell overlaps the rectangle. Cell
// granularity means results are a superset; callers filter by exact position
// when it matters.
func (g *SpatialGrid) QueryBounds(bounds Rect, dst []EntityId) []EntityId {
	minX, minY := g.cellOf(bounds.Min)
	maxX, maxY := g.cellOf(bounds.Max)
	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			dst = append(dst, g.cells[g.cellKey(cx, cy)]...)
		}
	}
	return dst
}

// QueryRadius returns candidates within radius of center, filtered by exact
// distance against the committed positions.
func (g *SpatialGrid) QueryRadius(world *WorldState, center mgl32.Vec2, radius float32, dst []EntityId) []EntityId {
	bounds := Rect{
		Min: center.Sub(mgl32.Vec2{radius, radius}),
		Max: center.Add(mgl32.Vec2{radius, radius}),
	}
	candidates := g.QueryBounds(bounds, nil)

	world.mu.RLock()
	defer world.mu.RUnlock()
	r2 := radius * radius
	for _, id := range candidates {
		pos, ok := world.Positions[id]
		if !ok {
			continue
		}
		d := pos.Logic.Sub(center)
		if d.Dot(d) <= r2 {
			dst = append(dst, id)
		}
	}
	return dst
}

// PickEntity maps a screen position to the nearest entity within pickRadius
// logic units on the ground plane. Returns the nil id when nothing is close
// enough.
func PickEntity(world *WorldState, grid *SpatialGrid, cam CameraParams, screen mgl32.Vec2, pickRadius float32) EntityId {
	logic := ScreenToLogic(screen, 0, cam)
	hits := grid.QueryRadius(world, logic, pickRadius, nil)

	var best EntityId
	bestD := pickRadius * pickRadius
	world.mu.RLock()
	defer world.mu.RUnlock()
	for _, id := range hits {
		pos, ok := world.Positions[id]
		if !ok {
			continue
		}
		d := pos.Logic.Sub(logic)
		if d2 := d.Dot(d); d2 <= bestD {
			best = id
			bestD = d2
		}
	}
	return best
}

// SpatialModule keeps a grid resource in sync with the committed positions.
// The rebuild runs in PreRender so dynamic-rate consumers (picking, camera
// logic) see the same frame the renderer draws.
type SpatialModule struct {
	CellSize float32
}

func (m SpatialModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewSpatialGrid(m.CellSize))
	app.UseSystem(System(spatialRebuildSystem).InStage(PreRender))
}

func spatialRebuildSystem(grid *SpatialGrid, world *WorldState) {
	grid.Rebuild(world)
}
