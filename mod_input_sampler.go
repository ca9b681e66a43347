package dusk

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// InputModule samples the GLFW device state once per frame and publishes it
// as world events: a raw snapshot plus the derived action states. Nothing
// downstream reads devices directly; the writer lands both on
// WorldState.Control in the next transaction.
type InputModule struct{}

type inputSampler struct {
	prev  RawInput
	wheel float32
}

func (InputModule) Install(app *App, cmd *Commands) {
	sampler := &inputSampler{}
	cmd.AddResources(sampler)
	app.UseSystem(System(inputSampleSystem).InStage(Prelude))
}

func inputSampleSystem(cmd *Commands, s *WindowState, sampler *inputSampler, world *WorldState) {
	var raw RawInput
	for key, glfwKey := range keyToGlfw {
		raw.Pressed[key] = s.windowGlfw.GetKey(glfwKey) == glfw.Press
	}
	for btn, glfwBtn := range mouseToGlfw {
		raw.Pressed[btn] = s.windowGlfw.GetMouseButton(glfwBtn) == glfw.Press
	}

	mx, my := s.windowGlfw.GetCursorPos()
	raw.MouseX = float32(mx)
	raw.MouseY = float32(my)
	raw.Wheel = sampler.wheel
	sampler.wheel = 0

	m := world.Control.Map
	if m.Bindings == nil {
		m = DefaultInputMap()
		cmd.Publish(Event{Kind: EventInputMapChanged, Payload: m})
	}

	actions := DeriveActions(sampler.prev, raw, m)
	sampler.prev = raw

	cmd.Publish(Event{Kind: EventRawInputChanged, Payload: raw})
	cmd.Publish(Event{Kind: EventActionStatesChanged, Payload: actions})
}

// CursorLogic converts the committed cursor position to logic space on the
// given picking plane altitude.
func CursorLogic(world *WorldState, cam CameraParams, altitude float32) mgl32.Vec2 {
	c := world.Control.Actions.Cursor
	return ScreenToLogic(c, altitude, cam)
}

var keyToGlfw = map[int]glfw.Key{
	KeyW:      glfw.KeyW,
	KeyA:      glfw.KeyA,
	KeyS:      glfw.KeyS,
	KeyD:      glfw.KeyD,
	KeyQ:      glfw.KeyQ,
	KeyE:      glfw.KeyE,
	Key1:      glfw.Key1,
	Key2:      glfw.Key2,
	Key3:      glfw.Key3,
	Key4:      glfw.Key4,
	KeySpace:  glfw.KeySpace,
	KeyShift:  glfw.KeyLeftShift,
	KeyEscape: glfw.KeyEscape,
	KeyTab:    glfw.KeyTab,
	KeyF3:     glfw.KeyF3,
	KeyMinus:  glfw.KeyMinus,
	KeyEqual:  glfw.KeyEqual,
}

var mouseToGlfw = map[int]glfw.MouseButton{
	MouseButtonLeft:  glfw.MouseButtonLeft,
	MouseButtonRight: glfw.MouseButtonRight,
}
