package dusk

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is the per-frame camera resource. Params is consumed by the render
// pipeline; everything here is plain data supplied from outside the render
// core.
type Camera struct {
	Params  CameraParams
	Follow  EntityId
	MinZoom float32
	MaxZoom float32
}

// CameraModule installs an isometric follow camera steered by the committed
// action states.
type CameraModule struct {
	PPU  mgl32.Vec2
	Zoom float32
}

func (m CameraModule) Install(app *App, cmd *Commands) {
	ppu := m.PPU
	if ppu == (mgl32.Vec2{}) {
		ppu = mgl32.Vec2{32, 16}
	}
	zoom := m.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	cmd.AddResources(&Camera{
		Params:  CameraParams{Zoom: zoom, PPU: ppu},
		MinZoom: 0.25,
		MaxZoom: 4,
	})
	app.UseSystem(System(cameraSystem).InStage(PreRender))
}

const cameraFollowRate = 8.0 // exponential approach, per second

func cameraSystem(cam *Camera, world *WorldState, s *WindowState, t *Time) {
	cam.Params.ViewportW = float32(s.WindowWidth)
	cam.Params.ViewportH = float32(s.WindowHeight)

	actions := world.Control.Actions
	if actions.Pressed(ActionZoomIn) {
		cam.Params.Zoom *= 1.25
	}
	if actions.Pressed(ActionZoomOut) {
		cam.Params.Zoom /= 1.25
	}
	cam.Params.Zoom = mgl32.Clamp(cam.Params.Zoom, cam.MinZoom, cam.MaxZoom)

	if cam.Follow.IsNil() {
		return
	}
	world.mu.RLock()
	pos, ok := world.Positions[cam.Follow]
	world.mu.RUnlock()
	if !ok {
		return
	}

	dt := float32(t.FrameDt.Seconds())
	step := mgl32.Clamp(cameraFollowRate*dt, 0, 1)
	delta := pos.Logic.Sub(cam.Params.Center)
	cam.Params.Center = cam.Params.Center.Add(delta.Mul(step))
}
