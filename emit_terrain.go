package dusk

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TerrainEmitterInput bundles the map with the frame's camera and culling
// state.
type TerrainEmitterInput struct {
	Map     *TileMap
	Bounds  Rect
	Camera  CameraParams
	Resolve AssetResolver
}

// EmitTerrain walks every layer's cells intersecting the view bounds and
// emits one command per occupied tile, split into the below-entities and
// above-entities outputs. Cell culling tests the tile center against bounds
// grown by one tile extent, so edge tiles whose center is just outside
// still draw.
func EmitTerrain(in TerrainEmitterInput, background, overlay []TerrainCommand) ([]TerrainCommand, []TerrainCommand) {
	m := in.Map
	if m == nil || (in.Resolve != nil && !in.Resolve(m.Tileset)) {
		return background, overlay
	}

	margin := mgl32.Vec2{
		m.TileW / in.Camera.PPU.X(),
		m.TileH / in.Camera.PPU.Y(),
	}
	bounds := Rect{Min: in.Bounds.Min.Sub(margin), Max: in.Bounds.Max.Add(margin)}
	size := mgl32.Vec2{m.TileW, m.TileH}

	for li := range m.Layers {
		layer := &m.Layers[li]
		for y := 0; y < m.Height; y++ {
			for x := 0; x < m.Width; x++ {
				id := m.TileAt(layer, x, y)
				if id == 0 {
					continue
				}

				logic := TileGridToLogic(m.Orientation, m.StaggerAxis, m.StaggerIndex, m.Width, x, y, m.TileW, m.TileH, in.Camera.PPU)
				if !bounds.Contains(logic) {
					continue
				}

				cmd := TerrainCommand{
					Asset:    m.Tileset,
					TileId:   id,
					Position: LogicToRender(logic, 0, in.Camera.PPU),
					Size:     size,
					Depth:    DepthKey(logic, 0),
				}
				if layer.Overlay {
					overlay = append(overlay, cmd)
				} else {
					background = append(background, cmd)
				}
			}
		}
	}
	return background, overlay
}
