package dusk

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Device-agnostic key codes. The window module translates GLFW state into
// these; everything downstream (input map, action derivation, tests) only
// sees this set.
const (
	KeyW int = iota
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	Key1
	Key2
	Key3
	Key4
	KeySpace
	KeyShift
	KeyEscape
	KeyTab
	KeyF3
	KeyMinus
	KeyEqual
	MouseButtonLeft
	MouseButtonRight
	keyCount
)

// ActionId is a discrete game action produced by mapping raw keys.
type ActionId uint8

const (
	ActionMoveUp ActionId = iota
	ActionMoveDown
	ActionMoveLeft
	ActionMoveRight
	ActionAttack
	ActionInteract
	ActionSkill1
	ActionSkill2
	ActionSkill3
	ActionSkill4
	ActionZoomIn
	ActionZoomOut
	ActionToggleDebug
	ActionQuit
	actionCount
)

// RawInput is one frame's device snapshot.
type RawInput struct {
	Pressed [keyCount]bool
	MouseX  float32
	MouseY  float32
	Wheel   float32
}

// InputMap binds keys to actions. Rebindable at runtime via an
// InputMapChanged event.
type InputMap struct {
	Bindings map[int]ActionId
}

func DefaultInputMap() InputMap {
	return InputMap{Bindings: map[int]ActionId{
		KeyW:             ActionMoveUp,
		KeyS:             ActionMoveDown,
		KeyA:             ActionMoveLeft,
		KeyD:             ActionMoveRight,
		MouseButtonLeft:  ActionAttack,
		MouseButtonRight: ActionInteract,
		Key1:             ActionSkill1,
		Key2:             ActionSkill2,
		Key3:             ActionSkill3,
		Key4:             ActionSkill4,
		KeyEqual:         ActionZoomIn,
		KeyMinus:         ActionZoomOut,
		KeyF3:            ActionToggleDebug,
		KeyEscape:        ActionQuit,
	}}
}

// ActionStates is the mapped, edge-annotated action snapshot. Edges are
// derived from the explicitly captured previous raw state; no history beyond
// one frame is kept anywhere.
type ActionStates struct {
	Active       [actionCount]bool
	JustPressed  [actionCount]bool
	JustReleased [actionCount]bool
	Cursor       mgl32.Vec2
}

func (a ActionStates) Is(id ActionId) bool      { return a.Active[id] }
func (a ActionStates) Pressed(id ActionId) bool { return a.JustPressed[id] }

// DeriveActions maps raw key state to actions. Unbound keys contribute
// nothing; several keys bound to the same action OR together.
func DeriveActions(prev, cur RawInput, m InputMap) ActionStates {
	var prevActive [actionCount]bool
	var out ActionStates

	for key, action := range m.Bindings {
		if key < 0 || key >= keyCount {
			continue
		}
		if prev.Pressed[key] {
			prevActive[action] = true
		}
		if cur.Pressed[key] {
			out.Active[action] = true
		}
	}

	for a := 0; a < int(actionCount); a++ {
		out.JustPressed[a] = out.Active[a] && !prevActive[a]
		out.JustReleased[a] = !out.Active[a] && prevActive[a]
	}
	out.Cursor = mgl32.Vec2{cur.MouseX, cur.MouseY}
	return out
}

// MoveVector collapses the four move actions into a logic-space direction.
func (a ActionStates) MoveVector() mgl32.Vec2 {
	var v mgl32.Vec2
	if a.Active[ActionMoveUp] {
		v[1] -= 1
	}
	if a.Active[ActionMoveDown] {
		v[1] += 1
	}
	if a.Active[ActionMoveLeft] {
		v[0] -= 1
	}
	if a.Active[ActionMoveRight] {
		v[0] += 1
	}
	if v.Len() > 0 {
		v = v.Normalize()
	}
	return v
}

// ControlState is the event-driven input block on WorldState, written only
// by the writer.
type ControlState struct {
	Raw     RawInput
	Map     InputMap
	Actions ActionStates
}
