package dusk

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// EffectRenderMode selects how a visual effect's particles reach the screen.
type EffectRenderMode uint8

const (
	EffectBillboard EffectRenderMode = iota
	EffectMeshParticle
)

// EffectOverride carries per-cast visual parameters attached to a status
// effect. A set flag means the override wins over the static definition;
// unset fields fall back to the definition.
type EffectOverride struct {
	Color    mgl32.Vec4
	Size     float32
	HasColor bool
	HasSize  bool
}

// EffectDef is the static visual definition of a named effect.
type EffectDef struct {
	Name    string
	Mode    EffectRenderMode
	Asset   string
	Blend   BlendMode
	Color   mgl32.Vec4
	Size    float32 // logic units
	Rate    float32 // particles per second
	Life    float32 // seconds
	Speed   float32 // initial speed, logic units per second
	Spread  float32 // horizontal velocity jitter
	Lift    float32 // initial altitude velocity
	Gravity float32 // altitude deceleration per second
	Orbit   float32 // angular speed around the entity, radians per second
	Radius  float32 // orbit radius, logic units
}

// EffectLibrary maps effect names to definitions. Content loading fills it;
// the simulation only reads.
type EffectLibrary struct {
	defs map[string]EffectDef
}

func NewEffectLibrary() *EffectLibrary {
	return &EffectLibrary{defs: make(map[string]EffectDef)}
}

func (l *EffectLibrary) Register(def EffectDef) { l.defs[def.Name] = def }

func (l *EffectLibrary) Lookup(name string) (EffectDef, bool) {
	d, ok := l.defs[name]
	return d, ok
}

// effectEmitter is one active (entity, effect) pair spawning particles.
type effectEmitter struct {
	entity   EntityId
	def      EffectDef
	override EffectOverride
	accum    float32 // fractional spawn carry
	phase    float32 // current orbit angle
}

// EffectSim runs the visual side of status effects: it subscribes to the
// status-effect delta stream to keep one emitter alive per (entity, effect)
// and steps a pooled particle simulation each frame. Structure-of-arrays
// storage with swap-remove keeps the per-particle step branch-free and
// allocation-free.
//
// Reconciliation happens on the subscriber callback, which fires inside the
// writer's commit; Update and Snapshot run on the simulation thread after
// the commit, so no locking is needed.
type EffectSim struct {
	lib *EffectLibrary
	log Logger
	rng *rand.Rand

	emitters []effectEmitter

	// particle pool, index-parallel
	pos    []mgl32.Vec2
	alt    []float32
	vel    []mgl32.Vec2
	velAlt []float32
	grav   []float32
	life   []float32
	size   []float32
	color  []mgl32.Vec4
	asset  []string
	blend  []BlendMode
	mode   []EffectRenderMode
}

func NewEffectSim(lib *EffectLibrary, effects *ReactiveTable[[]StatusEffect], log Logger) *EffectSim {
	if log == nil {
		log = NewNopLogger()
	}
	s := &EffectSim{
		lib: lib,
		log: log,
		rng: rand.New(rand.NewSource(1)),
	}
	effects.Subscribe(func(_ uint64, deltas []TableDelta[[]StatusEffect]) {
		for _, d := range deltas {
			switch d.Op {
			case DeltaSet:
				s.reconcile(d.Entity, d.Value)
			case DeltaRemove:
				s.reconcile(d.Entity, nil)
			}
		}
	})
	return s
}

// reconcile aligns the entity's emitters with its current effect list:
// emitters for vanished effects die, new effects gain one, survivors pick up
// the latest override.
func (s *EffectSim) reconcile(e EntityId, effects []StatusEffect) {
	for i := len(s.emitters) - 1; i >= 0; i-- {
		em := &s.emitters[i]
		if em.entity != e {
			continue
		}
		found := false
		for _, eff := range effects {
			if eff.Effect == em.def.Name {
				em.override = eff.Override
				found = true
				break
			}
		}
		if !found {
			s.removeEmitter(i)
		}
	}

	for _, eff := range effects {
		if s.hasEmitter(e, eff.Effect) {
			continue
		}
		def, ok := s.lib.Lookup(eff.Effect)
		if !ok {
			s.log.Warnf("effects: no definition for %s, skipping", eff.Effect)
			continue
		}
		s.emitters = append(s.emitters, effectEmitter{
			entity:   e,
			def:      def,
			override: eff.Override,
			phase:    s.rng.Float32() * 2 * math.Pi,
		})
	}
}

func (s *EffectSim) hasEmitter(e EntityId, effect string) bool {
	for i := range s.emitters {
		if s.emitters[i].entity == e && s.emitters[i].def.Name == effect {
			return true
		}
	}
	return false
}

func (s *EffectSim) removeEmitter(i int) {
	last := len(s.emitters) - 1
	s.emitters[i] = s.emitters[last]
	s.emitters = s.emitters[:last]
}

// Update advances orbits, spawns new particles and steps the pool by dt.
// position resolves an entity's current logic position; emitters whose
// entity is gone are retired.
func (s *EffectSim) Update(dt float32, position func(EntityId) (Position, bool)) {
	for i := len(s.emitters) - 1; i >= 0; i-- {
		em := &s.emitters[i]
		pos, ok := position(em.entity)
		if !ok {
			s.removeEmitter(i)
			continue
		}

		em.phase += em.def.Orbit * dt
		em.accum += em.def.Rate * dt
		for em.accum >= 1 {
			em.accum--
			s.spawn(em, pos)
		}
	}

	for i := len(s.life) - 1; i >= 0; i-- {
		s.life[i] -= dt
		if s.life[i] <= 0 {
			s.removeParticle(i)
			continue
		}
		s.pos[i] = s.pos[i].Add(s.vel[i].Mul(dt))
		s.alt[i] += s.velAlt[i] * dt
		s.velAlt[i] -= s.grav[i] * dt
		if s.alt[i] < 0 {
			s.alt[i] = 0
			s.velAlt[i] = 0
		}
	}
}

func (s *EffectSim) spawn(em *effectEmitter, at Position) {
	def := &em.def

	origin := at.Logic
	if def.Radius > 0 {
		origin = origin.Add(mgl32.Vec2{
			def.Radius * float32(math.Cos(float64(em.phase))),
			def.Radius * float32(math.Sin(float64(em.phase))),
		})
	}

	jitter := func() float32 { return (s.rng.Float32()*2 - 1) * def.Spread }
	dir := mgl32.Vec2{jitter(), jitter()}
	if def.Speed > 0 {
		angle := s.rng.Float32() * 2 * math.Pi
		dir = dir.Add(mgl32.Vec2{
			def.Speed * float32(math.Cos(float64(angle))),
			def.Speed * float32(math.Sin(float64(angle))),
		})
	}

	size := def.Size
	if em.override.HasSize {
		size = em.override.Size
	}
	color := def.Color
	if em.override.HasColor {
		color = em.override.Color
	}

	s.pos = append(s.pos, origin)
	s.alt = append(s.alt, at.Altitude)
	s.vel = append(s.vel, dir)
	s.velAlt = append(s.velAlt, def.Lift)
	s.grav = append(s.grav, def.Gravity)
	s.life = append(s.life, def.Life)
	s.size = append(s.size, size)
	s.color = append(s.color, color)
	s.asset = append(s.asset, def.Asset)
	s.blend = append(s.blend, def.Blend)
	s.mode = append(s.mode, def.Mode)
}

func (s *EffectSim) removeParticle(i int) {
	last := len(s.life) - 1
	s.pos[i] = s.pos[last]
	s.alt[i] = s.alt[last]
	s.vel[i] = s.vel[last]
	s.velAlt[i] = s.velAlt[last]
	s.grav[i] = s.grav[last]
	s.life[i] = s.life[last]
	s.size[i] = s.size[last]
	s.color[i] = s.color[last]
	s.asset[i] = s.asset[last]
	s.blend[i] = s.blend[last]
	s.mode[i] = s.mode[last]

	s.pos = s.pos[:last]
	s.alt = s.alt[:last]
	s.vel = s.vel[:last]
	s.velAlt = s.velAlt[:last]
	s.grav = s.grav[:last]
	s.life = s.life[:last]
	s.size = s.size[:last]
	s.color = s.color[:last]
	s.asset = s.asset[:last]
	s.blend = s.blend[:last]
	s.mode = s.mode[:last]
}

func (s *EffectSim) Len() int { return len(s.life) }

// EffectSnapshot is the read-only view the particle emitter consumes. The
// slices alias the pool and are valid until the next Update.
type EffectSnapshot struct {
	Pos   []mgl32.Vec2
	Alt   []float32
	Size  []float32
	Color []mgl32.Vec4
	Asset []string
	Blend []BlendMode
	Mode  []EffectRenderMode
}

func (s *EffectSim) Snapshot() EffectSnapshot {
	return EffectSnapshot{
		Pos:   s.pos,
		Alt:   s.alt,
		Size:  s.size,
		Color: s.color,
		Asset: s.asset,
		Blend: s.blend,
		Mode:  s.mode,
	}
}
