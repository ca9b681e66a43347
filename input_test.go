package dusk

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDeriveActionsEdges(t *testing.T) {
	m := DefaultInputMap()

	var prev, cur RawInput
	cur.Pressed[KeyW] = true

	a := DeriveActions(prev, cur, m)
	assert.True(t, a.Is(ActionMoveUp))
	assert.True(t, a.Pressed(ActionMoveUp))
	assert.False(t, a.JustReleased[ActionMoveUp])

	// Held: active but no edge.
	a = DeriveActions(cur, cur, m)
	assert.True(t, a.Is(ActionMoveUp))
	assert.False(t, a.Pressed(ActionMoveUp))

	// Released.
	a = DeriveActions(cur, prev, m)
	assert.False(t, a.Is(ActionMoveUp))
	assert.True(t, a.JustReleased[ActionMoveUp])
}

func TestDeriveActionsUnboundKeysIgnored(t *testing.T) {
	m := InputMap{Bindings: map[int]ActionId{KeyW: ActionMoveUp}}

	var cur RawInput
	cur.Pressed[KeySpace] = true
	a := DeriveActions(RawInput{}, cur, m)

	for i := 0; i < int(actionCount); i++ {
		assert.False(t, a.Active[i])
	}
}

func TestDeriveActionsMultipleKeysOr(t *testing.T) {
	m := InputMap{Bindings: map[int]ActionId{
		KeyW:     ActionMoveUp,
		KeySpace: ActionMoveUp,
	}}

	var prev, cur RawInput
	prev.Pressed[KeyW] = true
	cur.Pressed[KeySpace] = true

	// The action stays active across the key swap, so no edge fires.
	a := DeriveActions(prev, cur, m)
	assert.True(t, a.Is(ActionMoveUp))
	assert.False(t, a.Pressed(ActionMoveUp))
	assert.False(t, a.JustReleased[ActionMoveUp])
}

func TestMoveVectorNormalized(t *testing.T) {
	var a ActionStates
	a.Active[ActionMoveUp] = true
	a.Active[ActionMoveRight] = true

	v := a.MoveVector()
	assert.InDelta(t, 1, v.Len(), 1e-5)
	assert.Greater(t, v.X(), float32(0))
	assert.Less(t, v.Y(), float32(0))

	assert.Equal(t, mgl32.Vec2{}, ActionStates{}.MoveVector())
}

func TestDeriveActionsCursor(t *testing.T) {
	cur := RawInput{MouseX: 120, MouseY: 44}
	a := DeriveActions(RawInput{}, cur, DefaultInputMap())
	assert.Equal(t, mgl32.Vec2{120, 44}, a.Cursor)
}
