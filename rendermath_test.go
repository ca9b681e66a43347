package dusk

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func testCamera() CameraParams {
	return CameraParams{
		Center:    mgl32.Vec2{0, 0},
		Zoom:      1,
		ViewportW: 800,
		ViewportH: 600,
		PPU:       mgl32.Vec2{32, 32},
	}
}

func TestLogicToRender(t *testing.T) {
	r := LogicToRender(mgl32.Vec2{5, 0}, 0, mgl32.Vec2{32, 32})
	assert.Equal(t, mgl32.Vec3{160, 0, 160}, r)

	r = LogicToRender(mgl32.Vec2{2, 3}, 1.5, mgl32.Vec2{32, 16})
	assert.Equal(t, mgl32.Vec3{64, 24, 48}, r)
}

func TestSquishFactor(t *testing.T) {
	assert.Equal(t, float32(2), SquishFactor(mgl32.Vec2{32, 16}))
	assert.Equal(t, float32(1), SquishFactor(mgl32.Vec2{32, 32}))
}

func TestScreenToLogicRoundTrip(t *testing.T) {
	cams := []CameraParams{
		testCamera(),
		{Center: mgl32.Vec2{12.5, -3}, Zoom: 2, ViewportW: 1280, ViewportH: 720, PPU: mgl32.Vec2{32, 16}},
		{Center: mgl32.Vec2{-40, 99.25}, Zoom: 0.5, ViewportW: 640, ViewportH: 480, PPU: mgl32.Vec2{48, 24}},
	}
	points := []mgl32.Vec2{{0, 0}, {5, 0}, {-7.25, 13.5}, {100, -42}}
	altitudes := []float32{0, 0.5, 3}

	for _, cam := range cams {
		for _, p := range points {
			for _, alt := range altitudes {
				screen := Project(p, alt, cam)
				back := ScreenToLogic(screen, alt, cam)
				assert.InDelta(t, p.X(), back.X(), 1e-3)
				assert.InDelta(t, p.Y(), back.Y(), 1e-3)
			}
		}
	}
}

func TestProjectCenterIsViewportCenter(t *testing.T) {
	cam := testCamera()
	cam.Center = mgl32.Vec2{17, -4}
	s := Project(cam.Center, 0, cam)
	assert.InDelta(t, 400, s.X(), 1e-3)
	assert.InDelta(t, 300, s.Y(), 1e-3)
}

func TestProjectAltitudeShiftsUp(t *testing.T) {
	cam := testCamera()
	ground := Project(mgl32.Vec2{3, 3}, 0, cam)
	airborne := Project(mgl32.Vec2{3, 3}, 2, cam)
	assert.InDelta(t, ground.X(), airborne.X(), 1e-3)
	// 2 units of altitude at 32 ppu and zoom 1 is 64 pixels up the screen.
	assert.InDelta(t, ground.Y()-64, airborne.Y(), 1e-3)
}

func TestViewBoundsCulling(t *testing.T) {
	cam := testCamera()
	b := ViewBounds(cam)

	// Half extent is 800 / (2 * 1 * 32) = 12.5 logic units.
	assert.InDelta(t, 12.5, float64(b.Max.X()), 1e-4)

	inside := mgl32.Vec2{12, 0}
	outside := mgl32.Vec2{13.5, 0}
	assert.True(t, b.Contains(inside))
	assert.False(t, b.Contains(outside))

	// With a margin of half the bound width the near-miss must come back in.
	expanded := b.Expand(b.Width() / 2)
	assert.True(t, expanded.Contains(outside))
}

func TestViewBoundsAltitudeSlack(t *testing.T) {
	cam := testCamera()
	b := ViewBounds(cam)
	halfH := cam.ViewportH / (2 * cam.Zoom * cam.PPU.Y())

	// An airborne entity below the bottom edge can still be on screen, so
	// the south bound carries slack beyond the geometric half extent.
	assert.Greater(t, b.Max.Y(), cam.Center.Y()+halfH)
}

func TestMeshWorldMatrixTranslation(t *testing.T) {
	pos := mgl32.Vec3{160, 8, -96}
	m := MeshWorldMatrix(pos, 1.2, mgl32.Vec3{2, 1, 0.5}, 2, mgl32.Vec2{32, 16})

	assert.Equal(t, pos.X(), m.At(0, 3))
	assert.Equal(t, pos.Y(), m.At(1, 3))
	assert.Equal(t, pos.Z(), m.At(2, 3))
}

func TestMeshWorldMatrixDeterministic(t *testing.T) {
	pos := mgl32.Vec3{160, 8, -96}
	a := MeshWorldMatrix(pos, 1.2, mgl32.Vec3{2, 1, 0.5}, 2, mgl32.Vec2{32, 16})
	b := MeshWorldMatrix(pos, 1.2, mgl32.Vec3{2, 1, 0.5}, 2, mgl32.Vec2{32, 16})
	assert.Equal(t, a, b)
}

func TestMeshWorldMatrixCorrectionIsLocal(t *testing.T) {
	// With a quarter turn the local squish axis must rotate with the model:
	// a unit local X vector lands on world -Z regardless of squish.
	m := MeshWorldMatrix(mgl32.Vec3{}, mgl32.DegToRad(90), mgl32.Vec3{1, 1, 1}, 2, mgl32.Vec2{1, 1})
	v := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 0, v.X(), 1e-5)
	assert.InDelta(t, -1, v.Z(), 1e-5)
}

func TestDepthKeyOrdering(t *testing.T) {
	near := DepthKey(mgl32.Vec2{0, 10}, 0)
	far := DepthKey(mgl32.Vec2{0, 2}, 0)
	assert.Less(t, far, near)

	// Altitude only nudges within a row, it never jumps a full row.
	grounded := DepthKey(mgl32.Vec2{0, 5}, 0)
	airborne := DepthKey(mgl32.Vec2{0, 5}, 2)
	assert.Greater(t, airborne, grounded)
	assert.Less(t, airborne-grounded, float32(1))
}

func TestTileGridToLogicOrthogonal(t *testing.T) {
	ppu := mgl32.Vec2{32, 32}
	p := TileGridToLogic(OrientationOrthogonal, StaggerAxisY, StaggerOdd, 10, 0, 0, 32, 32, ppu)
	assert.Equal(t, mgl32.Vec2{0.5, 0.5}, p)

	p = TileGridToLogic(OrientationOrthogonal, StaggerAxisY, StaggerOdd, 10, 3, 2, 32, 32, ppu)
	assert.Equal(t, mgl32.Vec2{3.5, 2.5}, p)
}

func TestTileGridToLogicIsometric(t *testing.T) {
	ppu := mgl32.Vec2{32, 16}

	// The diamond is anchored so column 0 of the top row sits at the map's
	// horizontal midpoint.
	p := TileGridToLogic(OrientationIsometric, StaggerAxisY, StaggerOdd, 4, 0, 0, 32, 16, ppu)
	assert.InDelta(t, (4*32/2+16)/32.0, float64(p.X()), 1e-5)
	assert.InDelta(t, 8/16.0, float64(p.Y()), 1e-5)

	// Moving +x and +y the same amount keeps the horizontal position.
	a := TileGridToLogic(OrientationIsometric, StaggerAxisY, StaggerOdd, 4, 1, 0, 32, 16, ppu)
	c := TileGridToLogic(OrientationIsometric, StaggerAxisY, StaggerOdd, 4, 2, 1, 32, 16, ppu)
	assert.InDelta(t, float64(a.X()), float64(c.X()), 1e-5)
	assert.Greater(t, c.Y(), a.Y())
}

func TestTileGridToLogicStaggered(t *testing.T) {
	ppu := mgl32.Vec2{32, 16}

	even := TileGridToLogic(OrientationStaggered, StaggerAxisY, StaggerOdd, 4, 0, 0, 32, 16, ppu)
	odd := TileGridToLogic(OrientationStaggered, StaggerAxisY, StaggerOdd, 4, 0, 1, 32, 16, ppu)

	// Odd rows shift half a tile right and rows pack at half tile height.
	assert.InDelta(t, float64(even.X())+0.5, float64(odd.X()), 1e-5)
	assert.InDelta(t, float64(even.Y())+0.5, float64(odd.Y()), 1e-5)
}

func TestRectIntersects(t *testing.T) {
	a := Rect{Min: mgl32.Vec2{0, 0}, Max: mgl32.Vec2{10, 10}}
	b := Rect{Min: mgl32.Vec2{9, 9}, Max: mgl32.Vec2{20, 20}}
	c := Rect{Min: mgl32.Vec2{11, 0}, Max: mgl32.Vec2{20, 10}}

	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
}
