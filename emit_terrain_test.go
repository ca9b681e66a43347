package dusk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatMap(w, h int, overlayRow int) *TileMap {
	ground := TileLayer{Name: "ground", Tiles: make([]int, w*h)}
	for i := range ground.Tiles {
		ground.Tiles[i] = 1
	}
	over := TileLayer{Name: "treetops", Overlay: true, Tiles: make([]int, w*h)}
	for x := 0; x < w; x++ {
		over.Tiles[overlayRow*w+x] = 7
	}
	return &TileMap{
		Width: w, Height: h,
		TileW: 32, TileH: 32,
		Orientation: OrientationOrthogonal,
		Tileset:     "overworld",
		Layers:      []TileLayer{ground, over},
	}
}

func TestEmitTerrainSplitsLayers(t *testing.T) {
	cam := testCamera()
	m := flatMap(4, 4, 1)

	bg, over := EmitTerrain(TerrainEmitterInput{
		Map:    m,
		Bounds: ViewBounds(cam),
		Camera: cam,
	}, nil, nil)

	assert.Len(t, bg, 16)
	require.Len(t, over, 4)
	assert.Equal(t, 7, over[0].TileId)
	assert.Equal(t, "overworld", over[0].Asset)
}

func TestEmitTerrainCullsFarTiles(t *testing.T) {
	cam := testCamera()
	m := flatMap(200, 1, 0)

	// Only tiles within roughly a half-viewport of the camera survive; the
	// bound is 12.5 units plus one tile of margin on each side.
	bg, _ := EmitTerrain(TerrainEmitterInput{
		Map:    m,
		Bounds: ViewBounds(cam),
		Camera: cam,
	}, nil, nil)

	assert.NotEmpty(t, bg)
	assert.Less(t, len(bg), 20)
}

func TestEmitTerrainSkipsMissingTileset(t *testing.T) {
	cam := testCamera()
	m := flatMap(2, 2, 0)

	bg, over := EmitTerrain(TerrainEmitterInput{
		Map:     m,
		Bounds:  ViewBounds(cam),
		Camera:  cam,
		Resolve: func(string) bool { return false },
	}, nil, nil)

	assert.Empty(t, bg)
	assert.Empty(t, over)
}

func TestEmitTerrainEmptyCellsEmitNothing(t *testing.T) {
	cam := testCamera()
	m := &TileMap{
		Width: 2, Height: 2,
		TileW: 32, TileH: 32,
		Orientation: OrientationOrthogonal,
		Tileset:     "overworld",
		Layers:      []TileLayer{{Name: "sparse", Tiles: []int{1, 0, 0, 1}}},
	}

	bg, _ := EmitTerrain(TerrainEmitterInput{
		Map:    m,
		Bounds: ViewBounds(cam),
		Camera: cam,
	}, nil, nil)
	assert.Len(t, bg, 2)
}
