package dusk

// SpawnPayload travels with EventEntityCreated.
type SpawnPayload struct {
	Position  Position
	Rig       *RigInstance
	Faction   string
	Vitals    Vitals
	HasVitals bool
}

// Writer is the single mutator of reactive fields. Once per fixed step it
// drains the whole event queue and applies every event inside one
// transaction under the world commit lock, then forces each reactive table
// exactly once. Readers batching their forces under WorldState.RView observe
// either the full pre- or full post-transaction state.
type Writer struct {
	world *WorldState
	queue *EventQueue
	log   Logger

	scratch       []Event
	statusScratch map[EntityId][]StatusEffect
}

func NewWriter(world *WorldState, queue *EventQueue, log Logger) *Writer {
	if log == nil {
		log = NewNopLogger()
	}
	return &Writer{
		world:         world,
		queue:         queue,
		log:           log,
		statusScratch: make(map[EntityId][]StatusEffect),
	}
}

// ApplyFrame runs one writer transaction. Events apply in FIFO publish
// order; when two events target the same field of the same entity the later
// one wins. Events naming an entity absent from Positions are logged and
// dropped (availability over strictness). Returns applied and dropped
// counts.
func (w *Writer) ApplyFrame() (applied, dropped int) {
	events := w.queue.Consume(w.scratch)
	w.scratch = events // keep capacity for the next frame
	clear(w.statusScratch)

	w.world.mu.Lock()
	defer w.world.mu.Unlock()

	for i := range events {
		if w.apply(&events[i]) {
			applied++
		} else {
			dropped++
		}
	}

	w.world.commitLocked()
	return applied, dropped
}

func (w *Writer) apply(ev *Event) bool {
	world := w.world

	switch ev.Kind {
	case EventEntityCreated:
		pos := Position{Logic: ev.Vec, Altitude: ev.Scalar}
		world.addEntity(ev.Entity, pos)
		if sp, ok := ev.Payload.(SpawnPayload); ok {
			world.Positions[ev.Entity] = sp.Position
			world.Rigs[ev.Entity] = sp.Rig
			if sp.Faction != "" {
				world.Factions.Set(ev.Entity, sp.Faction)
			}
			if sp.HasVitals {
				world.Pools.Set(ev.Entity, sp.Vitals)
			}
		}
		return true

	case EventRawInputChanged:
		if raw, ok := ev.Payload.(RawInput); ok {
			world.Control.Raw = raw
			return true
		}
		return w.drop(ev, "missing RawInput payload")

	case EventInputMapChanged:
		if m, ok := ev.Payload.(InputMap); ok {
			world.Control.Map = m
			return true
		}
		return w.drop(ev, "missing InputMap payload")

	case EventActionStatesChanged:
		if as, ok := ev.Payload.(ActionStates); ok {
			world.Control.Actions = as
			return true
		}
		return w.drop(ev, "missing ActionStates payload")
	}

	// Everything below targets an existing entity.
	if !world.Alive(ev.Entity) {
		return w.drop(ev, "entity not in Position")
	}

	switch ev.Kind {
	case EventEntityRemoved:
		world.dropEntity(ev.Entity)

	case EventPositionChanged:
		p := world.Positions[ev.Entity]
		p.Logic = ev.Vec
		world.Positions[ev.Entity] = p

	case EventAltitudeChanged:
		p := world.Positions[ev.Entity]
		p.Altitude = ev.Scalar
		world.Positions[ev.Entity] = p

	case EventVelocityChanged:
		world.Velocities[ev.Entity] = ev.Vec

	case EventRotationChanged:
		world.Rotations[ev.Entity] = ev.Scalar

	case EventInventoryChanged:
		inv, ok := ev.Payload.(Inventory)
		if !ok {
			return w.drop(ev, "missing Inventory payload")
		}
		world.Inventories.Set(ev.Entity, inv)

	case EventEquipmentChanged:
		eq, ok := ev.Payload.(Equipment)
		if !ok {
			return w.drop(ev, "missing Equipment payload")
		}
		world.Equipments.Set(ev.Entity, eq)

	case EventStatusEffectApplied:
		eff, ok := ev.Payload.(StatusEffect)
		if !ok {
			return w.drop(ev, "missing StatusEffect payload")
		}
		list := w.workingEffects(ev.Entity)
		list = append(list, eff)
		w.statusScratch[ev.Entity] = list
		world.StatusEffects.Set(ev.Entity, list)

	case EventStatusEffectRemoved:
		name, ok := ev.Payload.(string)
		if !ok {
			return w.drop(ev, "missing effect name payload")
		}
		list := w.workingEffects(ev.Entity)
		kept := list[:0]
		for _, eff := range list {
			if eff.Effect != name {
				kept = append(kept, eff)
			}
		}
		w.statusScratch[ev.Entity] = kept
		world.StatusEffects.Set(ev.Entity, kept)

	case EventAIStateChanged:
		st, ok := ev.Payload.(AIState)
		if !ok {
			return w.drop(ev, "missing AIState payload")
		}
		world.AIStates.Set(ev.Entity, st)

	case EventFactionChanged:
		f, ok := ev.Payload.(string)
		if !ok {
			return w.drop(ev, "missing faction payload")
		}
		world.Factions.Set(ev.Entity, f)

	case EventVitalsChanged:
		v, ok := ev.Payload.(Vitals)
		if !ok {
			return w.drop(ev, "missing Vitals payload")
		}
		world.Pools.Set(ev.Entity, v)

	default:
		return w.drop(ev, "unknown event kind")
	}
	return true
}

// workingEffects returns this frame's mutable status-effect list for the
// entity, seeded from the pre-transaction value on first touch. Seeding uses
// peek so no mid-transaction force (and notification) happens.
func (w *Writer) workingEffects(e EntityId) []StatusEffect {
	if list, ok := w.statusScratch[e]; ok {
		return list
	}
	cur, _ := w.world.StatusEffects.peek(e)
	list := make([]StatusEffect, len(cur))
	copy(list, cur)
	return list
}

func (w *Writer) drop(ev *Event, reason string) bool {
	w.log.Warnf("writer: dropping %s for %s: %s", ev.Kind, ev.Entity, reason)
	return false
}
