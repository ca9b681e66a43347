package dusk

import (
	"github.com/go-gl/mathgl/mgl32"
)

// This file is the single authority for isometric coordinate math. No other
// component computes a transform matrix, squish factor or projection; new
// visual features express placement in logic space and call in here.
//
// Conventions: logic space is the 2D gameplay plane (X east, Y south) plus a
// scalar altitude. Render space is measured in pixels: X = logic.X * ppu.X,
// Y = altitude * ppu.Y (up), Z = logic.Y * ppu.Y (depth rows). The camera is
// a fixed-basis orthographic view; on screen Y grows downward and altitude
// shifts things upward.

// CameraParams is supplied per frame by the camera module.
type CameraParams struct {
	Center    mgl32.Vec2 // logic-space focus
	Zoom      float32
	ViewportW float32
	ViewportH float32
	PPU       mgl32.Vec2 // pixels per logic unit, horizontal/vertical
}

// Rect is an axis-aligned logic-space rectangle, closed on both bounds.
type Rect struct {
	Min, Max mgl32.Vec2
}

func (r Rect) Width() float32  { return r.Max.X() - r.Min.X() }
func (r Rect) Height() float32 { return r.Max.Y() - r.Min.Y() }

func (r Rect) Contains(p mgl32.Vec2) bool {
	return p.X() >= r.Min.X() && p.X() <= r.Max.X() &&
		p.Y() >= r.Min.Y() && p.Y() <= r.Max.Y()
}

// Expand grows the rectangle by an absolute margin on every side.
func (r Rect) Expand(margin float32) Rect {
	m := mgl32.Vec2{margin, margin}
	return Rect{Min: r.Min.Sub(m), Max: r.Max.Add(m)}
}

func (r Rect) Intersects(o Rect) bool {
	return r.Min.X() <= o.Max.X() && r.Max.X() >= o.Min.X() &&
		r.Min.Y() <= o.Max.Y() && r.Max.Y() >= o.Min.Y()
}

// SquishFactor is the horizontal/vertical pixel density ratio, used to
// counter isometric foreshortening in mesh and billboard orientation. For a
// classic 2:1 tileset (32x16) it is 2.
func SquishFactor(ppu mgl32.Vec2) float32 {
	return ppu.X() / ppu.Y()
}

// LogicToRender converts a logic position plus altitude into a render-space
// (pixel) vector. Pure and deterministic; the exact inverse of ScreenToLogic
// composed with the active camera.
func LogicToRender(logic mgl32.Vec2, altitude float32, ppu mgl32.Vec2) mgl32.Vec3 {
	return mgl32.Vec3{
		logic.X() * ppu.X(),
		altitude * ppu.Y(),
		logic.Y() * ppu.Y(),
	}
}

// depth ordering: primary key is logic Y (farther rows first), altitude
// nudges airborne things behind their ground row slightly.
const altitudeDepthWeight = 1.0 / 1024.0

func DepthKey(logic mgl32.Vec2, altitude float32) float32 {
	return logic.Y() + altitude*altitudeDepthWeight
}

// ViewMatrix builds the fixed isometric view basis: screen-up combines
// negative depth and altitude (y' = y - z), depth is negated for a
// look-down-negative-Z orthographic camera, all relative to the camera
// focus.
func ViewMatrix(cam CameraParams) mgl32.Mat4 {
	eye := LogicToRender(cam.Center, 0, cam.PPU)
	camX, camZ := eye.X(), eye.Z()

	// Row-major: x' = x - camX; y' = y - z + camZ; z' = -z + camZ.
	return mgl32.Mat4FromRows(
		mgl32.Vec4{1, 0, 0, -camX},
		mgl32.Vec4{0, 1, -1, camZ},
		mgl32.Vec4{0, 0, -1, camZ},
		mgl32.Vec4{0, 0, 0, 1},
	)
}

const projectionDepthRange = 1 << 20 // pixels of depth headroom

// ProjectionMatrix is a zoom-scaled orthographic projection over the
// viewport, in pixels.
func ProjectionMatrix(cam CameraParams) mgl32.Mat4 {
	hw := cam.ViewportW / (2 * cam.Zoom)
	hh := cam.ViewportH / (2 * cam.Zoom)
	return mgl32.Ortho(-hw, hw, -hh, hh, -projectionDepthRange, projectionDepthRange)
}

// Project maps a logic position through the camera to screen pixels
// (origin top-left, Y down). Used for picking verification and overlay
// anchoring; the GPU path uses ViewMatrix/ProjectionMatrix directly.
func Project(logic mgl32.Vec2, altitude float32, cam CameraParams) mgl32.Vec2 {
	r := LogicToRender(logic, altitude, cam.PPU)
	clip := ProjectionMatrix(cam).Mul4(ViewMatrix(cam)).Mul4x1(r.Vec4(1))
	sx := (clip.X()*0.5 + 0.5) * cam.ViewportW
	sy := (1 - (clip.Y()*0.5 + 0.5)) * cam.ViewportH
	return mgl32.Vec2{sx, sy}
}

// ScreenToLogic inverts Project for a known ground altitude (cursor picking
// happens on a plane). Exact inverse up to floating-point tolerance.
func ScreenToLogic(screen mgl32.Vec2, altitude float32, cam CameraParams) mgl32.Vec2 {
	eye := LogicToRender(cam.Center, 0, cam.PPU)
	renderY := altitude * cam.PPU.Y()

	x := eye.X() + (screen.X()-cam.ViewportW/2)/cam.Zoom
	z := eye.Z() + (screen.Y()-cam.ViewportH/2)/cam.Zoom + renderY

	return mgl32.Vec2{x / cam.PPU.X(), z / cam.PPU.Y()}
}

// Altitude can shift an entity below the bottom edge into view, so the
// bounds extend south by a fixed slack. A superset only costs wasted
// emission; a false negative is a culling defect.
const viewBoundsAltitudeSlack = 8.0

// ViewBounds returns the logic-space culling rectangle covering the
// viewport for the given camera.
func ViewBounds(cam CameraParams) Rect {
	halfW := cam.ViewportW / (2 * cam.Zoom * cam.PPU.X())
	halfH := cam.ViewportH / (2 * cam.Zoom * cam.PPU.Y())
	return Rect{
		Min: mgl32.Vec2{cam.Center.X() - halfW, cam.Center.Y() - halfH},
		Max: mgl32.Vec2{cam.Center.X() + halfW, cam.Center.Y() + halfH + viewBoundsAltitudeSlack},
	}
}

// isoCorrection counteracts the vertical pixel-density compression for
// geometry authored in logic units. Applied in local space, before rotation
// reaches world orientation; applying it after translation would make the
// squish appear rotated.
func isoCorrection(squish float32) mgl32.Mat4 {
	return mgl32.Scale3D(1, squish, 1)
}

// unitScale converts model-local logic units to render pixels.
func unitScale(ppu mgl32.Vec2) mgl32.Mat4 {
	return mgl32.Scale3D(ppu.X(), ppu.Y(), ppu.Y())
}

// MeshWorldMatrix composes translation, unit conversion, facing rotation,
// iso correction and model scale, in exactly that order. The translation
// component of the result is renderPos, bit for bit.
func MeshWorldMatrix(renderPos mgl32.Vec3, facing float32, scale mgl32.Vec3, squish float32, ppu mgl32.Vec2) mgl32.Mat4 {
	t := mgl32.Translate3D(renderPos.X(), renderPos.Y(), renderPos.Z())
	r := mgl32.HomogRotate3DY(facing)
	s := mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())
	return t.Mul4(unitScale(ppu)).Mul4(r).Mul4(isoCorrection(squish)).Mul4(s)
}

// ProjectileWorldMatrix adds a pitch tilt (arc direction) to the mesh
// composition, between facing and correction.
func ProjectileWorldMatrix(renderPos mgl32.Vec3, facing, tilt, scale, squish float32, ppu mgl32.Vec2) mgl32.Mat4 {
	t := mgl32.Translate3D(renderPos.X(), renderPos.Y(), renderPos.Z())
	yaw := mgl32.HomogRotate3DY(facing)
	pitch := mgl32.HomogRotate3DX(tilt)
	s := mgl32.Scale3D(scale, scale, scale)
	return t.Mul4(unitScale(ppu)).Mul4(yaw).Mul4(pitch).Mul4(isoCorrection(squish)).Mul4(s)
}

// MeshParticleWorldMatrix is the uniform-size variant used by 3D mesh
// particles.
func MeshParticleWorldMatrix(renderPos mgl32.Vec3, facing, size, squish float32, ppu mgl32.Vec2) mgl32.Mat4 {
	t := mgl32.Translate3D(renderPos.X(), renderPos.Y(), renderPos.Z())
	r := mgl32.HomogRotate3DY(facing)
	s := mgl32.Scale3D(size, size, size)
	return t.Mul4(unitScale(ppu)).Mul4(r).Mul4(isoCorrection(squish)).Mul4(s)
}

// Terrain grid layouts, matching the common map-editor schemes so different
// map styles share one implementation.
type MapOrientation uint8

const (
	OrientationOrthogonal MapOrientation = iota
	OrientationIsometric
	OrientationStaggered
)

type StaggerAxis uint8

const (
	StaggerAxisX StaggerAxis = iota
	StaggerAxisY
)

type StaggerIndex uint8

const (
	StaggerOdd StaggerIndex = iota
	StaggerEven
)

// TileGridToLogic converts a tile grid coordinate to the logic-space center
// of that tile. tileW/tileH are in pixels; mapWidth (in tiles) anchors the
// isometric diamond so coordinates stay positive.
func TileGridToLogic(o MapOrientation, sa StaggerAxis, si StaggerIndex, mapWidth int, x, y int, tileW, tileH float32, ppu mgl32.Vec2) mgl32.Vec2 {
	var px, py float32

	switch o {
	case OrientationOrthogonal:
		px = float32(x) * tileW
		py = float32(y) * tileH

	case OrientationIsometric:
		px = float32(x-y)*tileW/2 + float32(mapWidth)*tileW/2
		py = float32(x+y) * tileH / 2

	case OrientationStaggered:
		if sa == StaggerAxisY {
			px = float32(x) * tileW
			if staggeredLine(y, si) {
				px += tileW / 2
			}
			py = float32(y) * tileH / 2
		} else {
			px = float32(x) * tileW / 2
			py = float32(y) * tileH
			if staggeredLine(x, si) {
				py += tileH / 2
			}
		}
	}

	// Tile origin -> tile center, then pixels -> logic units.
	px += tileW / 2
	py += tileH / 2
	return mgl32.Vec2{px / ppu.X(), py / ppu.Y()}
}

func staggeredLine(i int, si StaggerIndex) bool {
	odd := i%2 != 0
	if si == StaggerOdd {
		return odd
	}
	return !odd
}
