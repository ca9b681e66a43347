package dusk

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// IntegrateMovement advances positions by velocity once per fixed step and
// turns entities to face their motion. It is the owning system of Positions
// and Rotations for the frame; nothing else writes them between the writer
// transaction and the render pass.
func IntegrateMovement(w *WorldState, dt float32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for e, v := range w.Velocities {
		if v == (mgl32.Vec2{}) {
			continue
		}
		p := w.Positions[e]
		p.Logic = p.Logic.Add(v.Mul(dt))
		w.Positions[e] = p
		w.Rotations[e] = float32(math.Atan2(float64(-v.Y()), float64(v.X())))
	}
}
