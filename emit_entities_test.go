package dusk

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvedAt(logic mgl32.Vec2) ResolvedEntity {
	return ResolvedEntity{
		Entity: NewEntityId(),
		Logic:  logic,
		Scale:  mgl32.Vec3{1, 1, 1},
		Parts:  []ResolvedPart{{Asset: "hero", Local: mgl32.Ident4()}},
	}
}

func TestEmitEntitiesCullingSoundness(t *testing.T) {
	cam := testCamera()
	bounds := ViewBounds(cam)

	inside := resolvedAt(mgl32.Vec2{12, 0})
	outside := resolvedAt(mgl32.Vec2{13.5, 0}) // 1 unit past the right edge

	out := EmitEntities(EntityEmitterInput{
		Resolved: []ResolvedEntity{inside, outside},
		Bounds:   bounds,
		Camera:   cam,
	}, nil)

	require.Len(t, out, 1)

	// With a margin of half the bound width the near-miss emits too.
	out = EmitEntities(EntityEmitterInput{
		Resolved: []ResolvedEntity{inside, outside},
		Bounds:   bounds,
		Margin:   bounds.Width() / 2,
		Camera:   cam,
	}, nil)
	assert.Len(t, out, 2)
}

func TestEmitEntitiesTranslationMatchesAuthority(t *testing.T) {
	cam := testCamera()
	ent := resolvedAt(mgl32.Vec2{5, 0})

	out := EmitEntities(EntityEmitterInput{
		Resolved: []ResolvedEntity{ent},
		Bounds:   ViewBounds(cam),
		Camera:   cam,
	}, nil)

	require.Len(t, out, 1)
	want := LogicToRender(mgl32.Vec2{5, 0}, 0, cam.PPU)
	m := out[0].Transform
	assert.Equal(t, want.X(), m.At(0, 3))
	assert.Equal(t, want.Y(), m.At(1, 3))
	assert.Equal(t, want.Z(), m.At(2, 3))
}

func TestEmitEntitiesSkipsMissingAssets(t *testing.T) {
	cam := testCamera()
	ent := ResolvedEntity{
		Entity: NewEntityId(),
		Scale:  mgl32.Vec3{1, 1, 1},
		Parts: []ResolvedPart{
			{Asset: "loaded", Local: mgl32.Ident4()},
			{Asset: "streaming", Local: mgl32.Ident4()},
		},
	}

	out := EmitEntities(EntityEmitterInput{
		Resolved: []ResolvedEntity{ent},
		Bounds:   ViewBounds(cam),
		Camera:   cam,
		Resolve:  func(key string) bool { return key == "loaded" },
	}, nil)

	require.Len(t, out, 1)
	assert.Equal(t, "loaded", out[0].Asset)
}

func TestEmitEntitiesIsPure(t *testing.T) {
	cam := testCamera()
	ent := resolvedAt(mgl32.Vec2{1, 1})
	in := EntityEmitterInput{
		Resolved: []ResolvedEntity{ent},
		Bounds:   ViewBounds(cam),
		Camera:   cam,
	}

	a := EmitEntities(in, nil)
	b := EmitEntities(in, nil)
	require.Len(t, a, 1)
	// Bit-identical output for identical input.
	assert.Equal(t, a, b)
}
