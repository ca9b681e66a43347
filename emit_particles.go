package dusk

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ParticleEmitterInput bundles the effect simulation snapshot with the
// frame's camera and culling state.
type ParticleEmitterInput struct {
	Effects EffectSnapshot
	Bounds  Rect
	Margin  float32
	Camera  CameraParams
	Resolve AssetResolver
}

// EmitParticles walks the particle pool and emits one command per live
// particle: billboards for sprite effects, mesh commands for 3D mesh
// particles. Mesh output goes to its own slice so the entity emitter and
// this one never share a buffer while running concurrently.
func EmitParticles(in ParticleEmitterInput, billboards []BillboardCommand, meshes []MeshCommand) ([]BillboardCommand, []MeshCommand) {
	bounds := in.Bounds.Expand(in.Margin)
	squish := SquishFactor(in.Camera.PPU)
	eff := in.Effects

	for i := range eff.Pos {
		if !bounds.Contains(eff.Pos[i]) {
			continue
		}
		if in.Resolve != nil && !in.Resolve(eff.Asset[i]) {
			continue
		}

		renderPos := LogicToRender(eff.Pos[i], eff.Alt[i], in.Camera.PPU)
		depth := DepthKey(eff.Pos[i], eff.Alt[i])

		switch eff.Mode[i] {
		case EffectMeshParticle:
			meshes = append(meshes, MeshCommand{
				Asset:     eff.Asset[i],
				Transform: MeshParticleWorldMatrix(renderPos, 0, eff.Size[i], squish, in.Camera.PPU),
				Tint:      eff.Color[i],
				Blend:     eff.Blend[i],
				Depth:     depth,
			})
		default:
			billboards = append(billboards, BillboardCommand{
				Asset:    eff.Asset[i],
				Position: renderPos,
				Size: mgl32.Vec2{
					eff.Size[i] * in.Camera.PPU.X(),
					eff.Size[i] * in.Camera.PPU.Y(),
				},
				Color: eff.Color[i],
				Blend: eff.Blend[i],
				Depth: depth,
			})
		}
	}
	return billboards, meshes
}
