package dusk

import (
	"github.com/go-gl/mathgl/mgl32"
)

// BlendMode selects the pipeline state a command batch is drawn with.
// Commands with the same asset and blend mode batch into one draw call.
type BlendMode uint8

const (
	BlendAlpha BlendMode = iota
	BlendAdditive
)

func (b BlendMode) String() string {
	if b == BlendAdditive {
		return "additive"
	}
	return "alpha"
}

// Draw commands are small value types. They carry a non-owning asset key and
// everything a batch renderer needs, nothing else; emitters construct them
// and never touch them again.

type MeshCommand struct {
	Asset     string
	Transform mgl32.Mat4
	Tint      mgl32.Vec4
	Blend     BlendMode
	Depth     float32
}

type BillboardCommand struct {
	Asset    string
	Position mgl32.Vec3 // render space
	Size     mgl32.Vec2 // pixels
	Color    mgl32.Vec4
	Blend    BlendMode
	Depth    float32
}

type TerrainCommand struct {
	Asset    string
	TileId   int
	Position mgl32.Vec3 // render space, tile center
	Size     mgl32.Vec2 // pixels
	Depth    float32
}

// frameBuffers holds one frame's command output, split per emitter so the
// emitters can run concurrently without sharing a slice.
type frameBuffers struct {
	Meshes         []MeshCommand
	ParticleMeshes []MeshCommand
	Billboards     []BillboardCommand
	Background     []TerrainCommand
	Overlay        []TerrainCommand
}

func (b *frameBuffers) reset() {
	b.Meshes = b.Meshes[:0]
	b.ParticleMeshes = b.ParticleMeshes[:0]
	b.Billboards = b.Billboards[:0]
	b.Background = b.Background[:0]
	b.Overlay = b.Overlay[:0]
}

// shrinkWindow is how many frames of sustained low usage it takes before the
// pool gives capacity back. Growth is immediate, shrinking is deliberate.
const shrinkWindow = 120

// bufferPool recycles frame buffers. It tracks the peak command counts over
// a rolling window; when a buffer's capacity stays above twice the window
// peak for a full window, the buffer is reallocated down to the peak.
type bufferPool struct {
	free []*frameBuffers

	frames         int
	peakMeshes     int
	peakParticles  int
	peakBillboards int
	peakBackground int
	peakOverlay    int
}

func newBufferPool() *bufferPool {
	return &bufferPool{}
}

func (p *bufferPool) Acquire() *frameBuffers {
	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free = p.free[:n-1]
		b.reset()
		return b
	}
	return &frameBuffers{}
}

// Release records the frame's usage and returns the buffer to the pool,
// shrinking it first when the window says its capacity is stale.
func (p *bufferPool) Release(b *frameBuffers) {
	p.peakMeshes = max(p.peakMeshes, len(b.Meshes))
	p.peakParticles = max(p.peakParticles, len(b.ParticleMeshes))
	p.peakBillboards = max(p.peakBillboards, len(b.Billboards))
	p.peakBackground = max(p.peakBackground, len(b.Background))
	p.peakOverlay = max(p.peakOverlay, len(b.Overlay))

	p.frames++
	if p.frames >= shrinkWindow {
		b.Meshes = shrinkSlice(b.Meshes, p.peakMeshes)
		b.ParticleMeshes = shrinkSlice(b.ParticleMeshes, p.peakParticles)
		b.Billboards = shrinkSlice(b.Billboards, p.peakBillboards)
		b.Background = shrinkSlice(b.Background, p.peakBackground)
		b.Overlay = shrinkSlice(b.Overlay, p.peakOverlay)

		p.frames = 0
		p.peakMeshes = 0
		p.peakParticles = 0
		p.peakBillboards = 0
		p.peakBackground = 0
		p.peakOverlay = 0
	}

	p.free = append(p.free, b)
}

// shrinkSlice reallocates to the window peak when capacity has drifted to
// more than double it.
func shrinkSlice[T any](s []T, peak int) []T {
	if cap(s) > 2*peak {
		return make([]T, 0, peak)
	}
	return s[:0]
}
