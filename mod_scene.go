package dusk

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Procedural placeholder assets, enough to stand a scene up before real
// content exists.

// UnitQuadMesh is a 1x1 quad on the ground plane, centered on the origin.
func UnitQuadMesh() ([]MeshVertex, []uint16) {
	up := mgl32.Vec3{0, 1, 0}
	vertices := []MeshVertex{
		{Position: mgl32.Vec3{-0.5, 0, -0.5}, Normal: up, UV: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{0.5, 0, -0.5}, Normal: up, UV: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{0.5, 0, 0.5}, Normal: up, UV: mgl32.Vec2{1, 1}},
		{Position: mgl32.Vec3{-0.5, 0, 0.5}, Normal: up, UV: mgl32.Vec2{0, 1}},
	}
	return vertices, []uint16{0, 1, 2, 0, 2, 3}
}

// UnitBoxMesh is a 1x1x1 box standing on the ground plane.
func UnitBoxMesh() ([]MeshVertex, []uint16) {
	faces := []struct {
		normal     mgl32.Vec3
		a, b, c, d mgl32.Vec3
	}{
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{-0.5, 1, -0.5}, mgl32.Vec3{0.5, 1, -0.5}, mgl32.Vec3{0.5, 1, 0.5}, mgl32.Vec3{-0.5, 1, 0.5}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{-0.5, 0, 0.5}, mgl32.Vec3{0.5, 0, 0.5}, mgl32.Vec3{0.5, 0, -0.5}, mgl32.Vec3{-0.5, 0, -0.5}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-0.5, 0, -0.5}, mgl32.Vec3{0.5, 0, -0.5}, mgl32.Vec3{0.5, 1, -0.5}, mgl32.Vec3{-0.5, 1, -0.5}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0.5, 0, 0.5}, mgl32.Vec3{-0.5, 0, 0.5}, mgl32.Vec3{-0.5, 1, 0.5}, mgl32.Vec3{0.5, 1, 0.5}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{-0.5, 0, 0.5}, mgl32.Vec3{-0.5, 0, -0.5}, mgl32.Vec3{-0.5, 1, -0.5}, mgl32.Vec3{-0.5, 1, 0.5}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0.5, 0, -0.5}, mgl32.Vec3{0.5, 0, 0.5}, mgl32.Vec3{0.5, 1, 0.5}, mgl32.Vec3{0.5, 1, -0.5}},
	}

	var vertices []MeshVertex
	var indices []uint16
	for _, f := range faces {
		base := uint16(len(vertices))
		vertices = append(vertices,
			MeshVertex{Position: f.a, Normal: f.normal, UV: mgl32.Vec2{0, 0}},
			MeshVertex{Position: f.b, Normal: f.normal, UV: mgl32.Vec2{1, 0}},
			MeshVertex{Position: f.c, Normal: f.normal, UV: mgl32.Vec2{1, 1}},
			MeshVertex{Position: f.d, Normal: f.normal, UV: mgl32.Vec2{0, 1}},
		)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// CheckerTexture builds a two-color checker of the given tile size.
func CheckerTexture(size, cell int, a, b [4]uint8) ([]uint8, uint32, uint32) {
	texels := make([]uint8, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if ((x/cell)+(y/cell))%2 == 1 {
				c = b
			}
			copy(texels[(y*size+x)*4:], c[:])
		}
	}
	return texels, uint32(size), uint32(size)
}

// humanoidPlaceholderRig is a three-part box figure sharing one placeholder
// mesh. Real content swaps per-node assets without touching the resolver.
func humanoidPlaceholderRig() *Rig {
	return NewRig("placeholder_humanoid", []RigNode{
		{Name: "root", Parent: "", Asset: "placeholder/box",
			Local: NodeTransform{Scale: mgl32.Vec3{0.6, 0.4, 0.6}}},
		{Name: "torso", Parent: "root", Asset: "placeholder/box",
			Local: NodeTransform{Translation: mgl32.Vec3{0, 0.4, 0}, Scale: mgl32.Vec3{0.5, 0.7, 0.4}}},
		{Name: "head", Parent: "torso", Asset: "placeholder/box",
			Local: NodeTransform{Translation: mgl32.Vec3{0, 1, 0}, Scale: mgl32.Vec3{0.35, 0.35, 0.35}}},
	})
}

// SceneModule stands up a playable demo scene: placeholder assets, a flat
// checkered map, the player entity wired to input and camera follow, and a
// couple of effect carriers. Real games replace this module wholesale.
type SceneModule struct {
	MapWidth  int
	MapHeight int
}

func (m SceneModule) Install(app *App, cmd *Commands) {
	cache := mustResource[AssetCache](app)
	lib := mustResource[EffectLibrary](app)

	qv, qi := UnitQuadMesh()
	cache.RegisterMesh("placeholder/quad", qv, qi)
	bv, bi := UnitBoxMesh()
	cache.RegisterMesh("placeholder/box", bv, bi)
	cache.RegisterMesh("fx/spark", qv, qi)

	tex, tw, th := CheckerTexture(64, 32, [4]uint8{90, 110, 80, 255}, [4]uint8{70, 90, 65, 255})
	cache.RegisterTexture("terrain/ground", tex, tw, th)
	glow, gw, gh := CheckerTexture(8, 8, [4]uint8{255, 255, 255, 255}, [4]uint8{255, 255, 255, 255})
	cache.RegisterTexture("fx/glow", glow, gw, gh)

	lib.Register(EffectDef{
		Name:  "burning",
		Mode:  EffectBillboard,
		Asset: "fx/glow",
		Blend: BlendAdditive,
		Color: mgl32.Vec4{1, 0.5, 0.1, 0.8},
		Size:  0.3,
		Rate:  12,
		Life:  0.8,
		Speed: 0.4,
		Lift:  1.2,
	})
	lib.Register(EffectDef{
		Name:   "frost_orbit",
		Mode:   EffectMeshParticle,
		Asset:  "fx/spark",
		Blend:  BlendAdditive,
		Color:  mgl32.Vec4{0.4, 0.7, 1, 0.9},
		Size:   0.2,
		Rate:   6,
		Life:   1.5,
		Orbit:  2,
		Radius: 0.8,
	})

	player := mustResource[Player](app)
	rig := humanoidPlaceholderRig()
	player.Entity = cmd.Spawn(SpawnPayload{
		Position:  Position{Logic: mgl32.Vec2{float32(m.mapW()) / 2, float32(m.mapH()) / 2}},
		Rig:       &RigInstance{Rig: rig},
		Faction:   "player",
		Vitals:    Vitals{Health: 100, MaxHealth: 100, Mana: 50, MaxMana: 50},
		HasVitals: true,
	})

	cam := mustResource[Camera](app)
	cam.Follow = player.Entity
}

func (m SceneModule) mapW() int {
	if m.MapWidth > 0 {
		return m.MapWidth
	}
	return 32
}

func (m SceneModule) mapH() int {
	if m.MapHeight > 0 {
		return m.MapHeight
	}
	return 32
}

// DemoMap builds the flat checkered tile map matching SceneModule's assets.
func (m SceneModule) DemoMap() *TileMap {
	w, h := m.mapW(), m.mapH()
	ground := TileLayer{Name: "ground", Tiles: make([]int, w*h)}
	for i := range ground.Tiles {
		ground.Tiles[i] = 1 + (i % 4)
	}
	return &TileMap{
		Width:       w,
		Height:      h,
		TileW:       32,
		TileH:       16,
		Orientation: OrientationIsometric,
		Tileset:     "terrain/ground",
		Layers:      []TileLayer{ground},
	}
}

// DefaultModules is the standard module composition for a windowed game.
func DefaultModules(cfg Config) []Module {
	scene := SceneModule{}
	return []Module{
		LoggingModule{Prefix: cfg.Log.Prefix, Debug: cfg.Log.Debug},
		WindowModule{Width: cfg.Window.Width, Height: cfg.Window.Height, Title: cfg.Window.Title},
		AssetsModule{},
		WorldModule{},
		InputModule{},
		PlayerControlModule{},
		EffectsModule{},
		CameraModule{PPU: mgl32.Vec2{cfg.Camera.PPUX, cfg.Camera.PPUY}, Zoom: cfg.Camera.Zoom},
		WgpuRendererModule{},
		RenderModule{Map: scene.DemoMap()},
		SpatialModule{},
		DebugModule{},
		scene,
	}
}
