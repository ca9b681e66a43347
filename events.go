package dusk

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// EventKind discriminates the world-event union.
type EventKind uint8

const (
	EventEntityCreated EventKind = iota
	EventEntityRemoved
	EventPositionChanged
	EventVelocityChanged
	EventRotationChanged
	EventAltitudeChanged
	EventRawInputChanged
	EventInputMapChanged
	EventActionStatesChanged
	EventInventoryChanged
	EventEquipmentChanged
	EventStatusEffectApplied
	EventStatusEffectRemoved
	EventAIStateChanged
	EventFactionChanged
	EventVitalsChanged
)

var eventKindNames = [...]string{
	"EntityCreated", "EntityRemoved",
	"PositionChanged", "VelocityChanged", "RotationChanged", "AltitudeChanged",
	"RawInputChanged", "InputMapChanged", "ActionStatesChanged",
	"InventoryChanged", "EquipmentChanged",
	"StatusEffectApplied", "StatusEffectRemoved",
	"AIStateChanged", "FactionChanged", "VitalsChanged",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "Unknown"
}

// Event is one queued state change. It names the target entity and carries
// the new value; it never holds a live reference into world state. Events are
// created by gameplay systems, consumed exactly once by the writer, then
// discarded.
//
// Vec and Scalar cover the hot payloads (position, velocity, rotation,
// altitude) without allocation; cold payloads (inventory, equipment, effects,
// input state) travel in Payload.
type Event struct {
	Kind    EventKind
	Entity  EntityId
	Vec     mgl32.Vec2
	Scalar  float32
	Payload any
}

const eventQueueSize = 4096 // must stay a power of two
const eventQueueMask = eventQueueSize - 1

// EventQueue is a lock-free MPSC ring buffer. Any system may publish; only
// the writer consumes. Published flags guard against reading half-written
// slots. When the ring overflows the oldest events are overwritten.
type EventQueue struct {
	events    [eventQueueSize]Event
	published [eventQueueSize]atomic.Bool
	head      atomic.Uint64
	tail      atomic.Uint64
}

func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Publish appends an event. Safe for concurrent producers; O(1) amortized.
func (q *EventQueue) Publish(ev Event) {
	for {
		tail := q.tail.Load()
		next := tail + 1
		if !q.tail.CompareAndSwap(tail, next) {
			continue
		}
		idx := tail & eventQueueMask
		q.events[idx] = ev
		q.published[idx].Store(true) // must follow the slot write

		// Advance head past overwritten, unread slots.
		head := q.head.Load()
		if next-head > eventQueueSize {
			q.head.CompareAndSwap(head, next-eventQueueSize)
		}
		return
	}
}

// Consume drains all pending events in FIFO publish order. Single consumer
// only (the writer).
func (q *EventQueue) Consume(dst []Event) []Event {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		if tail == head {
			return dst[:0]
		}

		avail := tail - head
		if avail > eventQueueSize {
			avail = eventQueueSize
			head = tail - eventQueueSize
		}

		out := dst[:0]
		for i := uint64(0); i < avail; i++ {
			idx := (head + i) & eventQueueMask
			if !q.published[idx].Load() {
				break // producer not finished with this slot yet
			}
			out = append(out, q.events[idx])
			q.published[idx].Store(false)
		}

		if q.head.CompareAndSwap(head, head+uint64(len(out))) {
			return out
		}
	}
}

// Len returns the approximate pending count.
func (q *EventQueue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	n := int(tail - head)
	if n > eventQueueSize {
		return eventQueueSize
	}
	return n
}
