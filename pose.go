package dusk

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NodeTransform is one rig node's local transform. A zero Scale means unit
// scale so that zero-value transforms behave as identity translation and
// rotation.
type NodeTransform struct {
	Translation mgl32.Vec3
	Rotation    float32 // yaw, radians
	Scale       mgl32.Vec3
}

func (t NodeTransform) Matrix() mgl32.Mat4 {
	s := t.Scale
	if s == (mgl32.Vec3{}) {
		s = mgl32.Vec3{1, 1, 1}
	}
	tr := mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z())
	return tr.Mul4(mgl32.HomogRotate3DY(t.Rotation)).Mul4(mgl32.Scale3D(s.X(), s.Y(), s.Z()))
}

// RigNode is one joint of a model rig. Nodes with an empty Asset are pure
// joints; the rest attach a mesh. Parent is a node name, empty for roots.
type RigNode struct {
	Name   string
	Parent string
	Asset  string
	Local  NodeTransform
}

// Rig is the shared, immutable node hierarchy of a model. Entities reference
// it through a RigInstance.
type Rig struct {
	Name  string
	Nodes []RigNode

	index map[string]int
}

func NewRig(name string, nodes []RigNode) *Rig {
	r := &Rig{Name: name, Nodes: nodes, index: make(map[string]int, len(nodes))}
	for i, n := range nodes {
		r.index[n.Name] = i
	}
	return r
}

// RigInstance is one entity's animation state over a shared rig. Overrides
// carry the animation-driven local transforms keyed by node name; nodes
// without an override keep their static local transform. Override entries
// naming nodes the rig does not have are ignored.
type RigInstance struct {
	Rig       *Rig
	Overrides map[string]NodeTransform
	Scale     mgl32.Vec3
}

// ResolvedPart pairs a mesh asset with its accumulated rig-local transform.
// The entity emitter composes it with the entity's world matrix.
type ResolvedPart struct {
	Asset string
	Local mgl32.Mat4
}

// ResolvedEntity is frame-transient render-ready output of the pose stage.
// Parts alias the resolver's pooled backing array and are valid until the
// next Resolve call.
type ResolvedEntity struct {
	Entity   EntityId
	Logic    mgl32.Vec2
	Altitude float32
	Facing   float32
	Scale    mgl32.Vec3
	Parts    []ResolvedPart
}

// PoseResolver walks each visible entity's rig once per frame, sequentially.
// It owns a scratch map keyed by node name that is cleared between entities,
// so resolution must fully complete before parallel emission starts.
type PoseResolver struct {
	log     Logger
	scratch map[string]mgl32.Mat4
	stack   []int
	parts   []ResolvedPart
}

func NewPoseResolver(log Logger) *PoseResolver {
	if log == nil {
		log = NewNopLogger()
	}
	return &PoseResolver{
		log:     log,
		scratch: make(map[string]mgl32.Mat4),
	}
}

// Resolve produces the frame's ResolvedEntity array from the movement
// snapshot. Entities without a rig are skipped. dst is reused across frames.
func (r *PoseResolver) Resolve(entities []RenderEntity, dst []ResolvedEntity) []ResolvedEntity {
	out := dst[:0]
	r.parts = r.parts[:0]

	for i := range entities {
		ent := &entities[i]
		inst := ent.Rig
		if inst == nil || inst.Rig == nil {
			continue
		}

		clear(r.scratch)
		start := len(r.parts)

		for ni := range inst.Rig.Nodes {
			node := &inst.Rig.Nodes[ni]
			world, ok := r.nodeWorld(inst, ni)
			if !ok {
				continue
			}
			if node.Asset == "" {
				continue
			}
			r.parts = append(r.parts, ResolvedPart{Asset: node.Asset, Local: world})
		}

		if len(r.parts) == start {
			continue
		}

		scale := inst.Scale
		if scale == (mgl32.Vec3{}) {
			scale = mgl32.Vec3{1, 1, 1}
		}
		out = append(out, ResolvedEntity{
			Entity:   ent.Entity,
			Logic:    ent.Logic,
			Altitude: ent.Altitude,
			Facing:   ent.Facing,
			Scale:    scale,
			Parts:    r.parts[start:len(r.parts):len(r.parts)],
		})
	}
	return out
}

// nodeWorld accumulates the node's transform down from its root, memoized in
// the scratch map. Traversal uses an explicit stack; parent chains longer
// than the node count indicate a cycle and the node is skipped with a log,
// as is a node naming an unknown parent.
func (r *PoseResolver) nodeWorld(inst *RigInstance, i int) (mgl32.Mat4, bool) {
	rig := inst.Rig
	r.stack = r.stack[:0]

	cur := i
	for {
		node := &rig.Nodes[cur]
		if _, ok := r.scratch[node.Name]; ok {
			break
		}
		r.stack = append(r.stack, cur)
		if len(r.stack) > len(rig.Nodes) {
			r.log.Warnf("pose: rig %s has a parent cycle at node %s, skipping", rig.Name, rig.Nodes[i].Name)
			return mgl32.Mat4{}, false
		}
		if node.Parent == "" {
			break
		}
		parent, ok := rig.index[node.Parent]
		if !ok {
			r.log.Warnf("pose: rig %s node %s references unknown parent %s, skipping", rig.Name, node.Name, node.Parent)
			return mgl32.Mat4{}, false
		}
		cur = parent
	}

	for n := len(r.stack) - 1; n >= 0; n-- {
		node := &rig.Nodes[r.stack[n]]
		local := node.Local
		if ov, ok := inst.Overrides[node.Name]; ok {
			local = ov
		}

		world := local.Matrix()
		if node.Parent != "" {
			if pw, ok := r.scratch[node.Parent]; ok {
				world = pw.Mul4(world)
			}
		}
		r.scratch[node.Name] = world
	}

	return r.scratch[rig.Nodes[i].Name], true
}
