package dusk

import (
	"github.com/go-gl/mathgl/mgl32"
)

// AssetResolver answers whether an asset key is loaded and usable right
// now. Emitters skip commands for absent assets; a model still streaming in
// simply does not appear this frame.
type AssetResolver func(key string) bool

var tintWhite = mgl32.Vec4{1, 1, 1, 1}

// EntityEmitterInput is the narrow bundle the entity emitter reads. It
// shares nothing mutable with the other emitters.
type EntityEmitterInput struct {
	Resolved []ResolvedEntity
	Bounds   Rect
	Margin   float32
	Camera   CameraParams
	Resolve  AssetResolver
}

// EmitEntities converts resolved poses into mesh commands. Pure: reads the
// input, appends to dst, touches nothing else. Entities outside the culling
// bounds (grown by the margin) emit nothing.
func EmitEntities(in EntityEmitterInput, dst []MeshCommand) []MeshCommand {
	bounds := in.Bounds.Expand(in.Margin)
	squish := SquishFactor(in.Camera.PPU)

	for i := range in.Resolved {
		ent := &in.Resolved[i]
		if !bounds.Contains(ent.Logic) {
			continue
		}

		renderPos := LogicToRender(ent.Logic, ent.Altitude, in.Camera.PPU)
		base := MeshWorldMatrix(renderPos, ent.Facing, ent.Scale, squish, in.Camera.PPU)
		depth := DepthKey(ent.Logic, ent.Altitude)

		for _, part := range ent.Parts {
			if in.Resolve != nil && !in.Resolve(part.Asset) {
				continue
			}
			dst = append(dst, MeshCommand{
				Asset:     part.Asset,
				Transform: base.Mul4(part.Local),
				Tint:      tintWhite,
				Blend:     BlendAlpha,
				Depth:     depth,
			})
		}
	}
	return dst
}
