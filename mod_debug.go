package dusk

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	debugFontAsset = "debug/font"
	debugGlyphLo   = 32  // ' '
	debugGlyphHi   = 126 // '~'
)

// buildFontAtlas rasterizes the printable ASCII range of the builtin 7x13
// face into one horizontal strip, so glyphs address like tiles in a tileset.
func buildFontAtlas() (texels []uint8, width, height uint32) {
	face := basicfont.Face7x13
	glyphW := face.Advance
	glyphH := face.Height
	count := debugGlyphHi - debugGlyphLo + 1

	atlas := image.NewRGBA(image.Rect(0, 0, glyphW*count, glyphH))
	drawer := font.Drawer{
		Dst:  atlas,
		Src:  image.White,
		Face: face,
	}
	for i := 0; i < count; i++ {
		drawer.Dot = fixed.P(i*glyphW, face.Ascent)
		drawer.DrawString(string(rune(debugGlyphLo + i)))
	}
	return atlas.Pix, uint32(atlas.Rect.Dx()), uint32(atlas.Rect.Dy())
}

type debugOverlay struct {
	enabled   bool
	frameDt   float32
	entities  int
	particles int

	scratch []TerrainCommand
}

// DebugModule draws frame stats through the overlay hook, after every normal
// layer. Toggled at runtime with the debug action. Requires RenderModule.
type DebugModule struct {
	Enabled bool
}

func (m DebugModule) Install(app *App, cmd *Commands) {
	orch := mustResource[RenderOrchestrator](app)
	cache := mustResource[AssetCache](app)

	texels, w, h := buildFontAtlas()
	cache.RegisterTexture(debugFontAsset, texels, w, h)

	overlay := &debugOverlay{enabled: m.Enabled}
	cmd.AddResources(overlay)
	orch.OverlayHook = overlay.draw
	app.UseSystem(System(debugStatsSystem).InStage(PostRender))
}

func debugStatsSystem(overlay *debugOverlay, world *WorldState, sim *EffectSim, t *Time) {
	if world.Control.Actions.Pressed(ActionToggleDebug) {
		overlay.enabled = !overlay.enabled
	}
	if !overlay.enabled {
		return
	}
	overlay.frameDt = float32(t.FrameDt.Seconds())

	world.mu.RLock()
	overlay.entities = len(world.Positions)
	world.mu.RUnlock()
	overlay.particles = sim.Len()
}

func (d *debugOverlay) draw(r BatchRenderer, cam CameraParams) {
	if !d.enabled {
		return
	}
	lines := []string{
		fmt.Sprintf("frame %5.2fms", d.frameDt*1000),
		fmt.Sprintf("entities %d", d.entities),
		fmt.Sprintf("particles %d", d.particles),
		fmt.Sprintf("center %.1f,%.1f zoom %.2f", cam.Center.X(), cam.Center.Y(), cam.Zoom),
	}

	d.scratch = d.scratch[:0]
	face := basicfont.Face7x13
	for row, line := range lines {
		for col, ch := range line {
			if ch < debugGlyphLo || ch > debugGlyphHi {
				ch = '?'
			}
			screen := mgl32.Vec2{
				8 + float32(col*face.Advance) + float32(face.Advance)/2,
				8 + float32(row*face.Height) + float32(face.Height)/2,
			}
			logic := ScreenToLogic(screen, 0, cam)
			d.scratch = append(d.scratch, TerrainCommand{
				Asset:    debugFontAsset,
				TileId:   int(ch-debugGlyphLo) + 1,
				Position: LogicToRender(logic, 0, cam.PPU),
				Size:     mgl32.Vec2{float32(face.Advance), float32(face.Height)},
			})
		}
	}
	if len(d.scratch) > 0 {
		r.DrawTerrain(d.scratch)
	}
}
