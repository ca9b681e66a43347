package dusk

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Position is a hot-path field: logic-space ground position plus altitude
// (altitude is only nonzero for projectiles and airborne effects).
type Position struct {
	Logic    mgl32.Vec2
	Altitude float32
}

// ItemStack is one inventory slot.
type ItemStack struct {
	Item  string
	Count int
}

type Inventory struct {
	Slots []ItemStack
	Gold  int
}

type Equipment struct {
	Weapon  string
	Armor   string
	Trinket string
}

// StatusEffect is a gameplay effect active on an entity. Visual parameters
// may be overridden per cast; absent overrides fall back to the static
// effect definition.
type StatusEffect struct {
	Effect    string
	Remaining float32
	Stacks    int
	Override  EffectOverride
}

type AIState struct {
	Archetype string
	Mode      string
	Target    EntityId
}

type Vitals struct {
	Health, MaxHealth float32
	Mana, MaxMana     float32
}

// WorldState is the entity-component store, split by mutation rate.
//
// Hot-path fields (Positions, Velocities, Rotations) are plain mutable maps.
// They churn every frame for every entity, so delta bookkeeping would cost
// more than it saves; each is written either by the writer (applying events)
// or by its single owning system, never both in the same frame.
//
// Warm/cold fields live in reactive tables and are mutated only inside the
// writer's per-frame transaction, taken under mu. Readers batch their forces
// under RView so they observe either the full pre-transaction or the full
// post-transaction state.
type WorldState struct {
	mu sync.RWMutex

	Positions  map[EntityId]Position
	Velocities map[EntityId]mgl32.Vec2
	Rotations  map[EntityId]float32
	Rigs       map[EntityId]*RigInstance

	Inventories   *ReactiveTable[Inventory]
	Equipments    *ReactiveTable[Equipment]
	StatusEffects *ReactiveTable[[]StatusEffect]
	AIStates      *ReactiveTable[AIState]
	Factions      *ReactiveTable[string]
	Pools         *ReactiveTable[Vitals]

	// Control holds the event-driven input state (raw device snapshot,
	// binding map, derived action states), applied by the writer like any
	// other field.
	Control ControlState

	fields []reactiveField
}

func NewWorldState() *WorldState {
	w := &WorldState{
		Positions:  make(map[EntityId]Position),
		Velocities: make(map[EntityId]mgl32.Vec2),
		Rotations:  make(map[EntityId]float32),
		Rigs:       make(map[EntityId]*RigInstance),

		Inventories:   NewReactiveTable[Inventory]("inventory"),
		Equipments:    NewReactiveTable[Equipment]("equipment"),
		StatusEffects: NewReactiveTable[[]StatusEffect]("status_effects"),
		AIStates:      NewReactiveTable[AIState]("ai_state"),
		Factions:      NewReactiveTable[string]("faction"),
		Pools:         NewReactiveTable[Vitals]("vitals"),
	}
	w.fields = []reactiveField{
		w.Inventories, w.Equipments, w.StatusEffects,
		w.AIStates, w.Factions, w.Pools,
	}
	return w
}

// Alive reports whether the entity is initialized: presence in Positions is
// the liveness criterion for every other field.
func (w *WorldState) Alive(e EntityId) bool {
	_, ok := w.Positions[e]
	return ok
}

// addEntity inserts the entity into every hot-path map. Caller holds mu.
func (w *WorldState) addEntity(e EntityId, pos Position) {
	w.Positions[e] = pos
	w.Velocities[e] = mgl32.Vec2{}
	w.Rotations[e] = 0
}

// dropEntity removes the entity from every keyed container, hot and
// reactive, so no dangling keys survive removal. Caller holds mu; the
// reactive removals land with the transaction's commit.
func (w *WorldState) dropEntity(e EntityId) {
	delete(w.Positions, e)
	delete(w.Velocities, e)
	delete(w.Rotations, e)
	delete(w.Rigs, e)
	for _, f := range w.fields {
		f.removeEntity(e)
	}
}

// commitLocked forces every reactive table exactly once. Caller holds mu.
func (w *WorldState) commitLocked() {
	for _, f := range w.fields {
		f.commit()
	}
}

// RView runs fn under the read half of the commit lock. Forcing reactive
// tables inside fn is guaranteed to observe a transaction boundary, never a
// half-applied frame.
func (w *WorldState) RView(fn func()) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	fn()
}

// RenderEntity is one row of the per-frame movement snapshot: everything the
// pose resolver needs, copied out of the hot maps in one bulk pass.
type RenderEntity struct {
	Entity   EntityId
	Logic    mgl32.Vec2
	Altitude float32
	Facing   float32
	Rig      *RigInstance
}

// MovementSnapshot projects the hot-path maps into a flat read-only slice.
// One bulk conversion per frame; dst is reused to avoid churn.
func (w *WorldState) MovementSnapshot(dst []RenderEntity) []RenderEntity {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := dst[:0]
	for e, pos := range w.Positions {
		out = append(out, RenderEntity{
			Entity:   e,
			Logic:    pos.Logic,
			Altitude: pos.Altitude,
			Facing:   w.Rotations[e],
			Rig:      w.Rigs[e],
		})
	}
	return out
}
