package dusk

// TileLayer is one drawing layer of a map. Tiles holds one tileset index
// per cell in row-major order; 0 marks an empty cell. Overlay layers draw
// above entities (treetops, arches), the rest below.
type TileLayer struct {
	Name    string
	Overlay bool
	Tiles   []int
}

// TileMap is the parsed, in-memory terrain definition. Loading and formats
// live upstream; the render pipeline only reads.
type TileMap struct {
	Width, Height int
	TileW, TileH  float32 // pixels
	Orientation   MapOrientation
	StaggerAxis   StaggerAxis
	StaggerIndex  StaggerIndex
	Tileset       string
	Layers        []TileLayer
}

// TileAt returns the tileset index at the cell, 0 when out of range.
func (m *TileMap) TileAt(l *TileLayer, x, y int) int {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	i := y*m.Width + x
	if i >= len(l.Tiles) {
		return 0
	}
	return l.Tiles[i]
}
