package dusk

import (
	"sync"
)

// DeltaOp tags one pending mutation of a reactive table.
type DeltaOp uint8

const (
	DeltaSet DeltaOp = iota
	DeltaRemove
)

// TableDelta is one queued mutation. Deltas are applied in publish order
// when the table is forced.
type TableDelta[V any] struct {
	Op     DeltaOp
	Entity EntityId
	Value  V
}

// ReactiveTable holds an event-driven per-entity field. Mutations queue
// deltas; nothing propagates until Force drains the chain, applies it to the
// cached materialized map and bumps the version once. An unchanged Force is
// O(1) and returns the cached map.
//
// Lifecycle per frame: Unmodified -> (delta queued) -> Outdated -> (forced)
// -> Unmodified. All queuing is expected to happen inside the writer
// transaction; readers only Force or Subscribe.
type ReactiveTable[V any] struct {
	mu      sync.Mutex
	name    string
	current map[EntityId]V
	version uint64
	pending []TableDelta[V]
	subs    []func(version uint64, deltas []TableDelta[V])
}

func NewReactiveTable[V any](name string) *ReactiveTable[V] {
	return &ReactiveTable[V]{
		name:    name,
		current: make(map[EntityId]V),
	}
}

func (t *ReactiveTable[V]) Name() string { return t.name }

// Set queues a delta assigning the entity's value.
func (t *ReactiveTable[V]) Set(e EntityId, v V) {
	t.mu.Lock()
	t.pending = append(t.pending, TableDelta[V]{Op: DeltaSet, Entity: e, Value: v})
	t.mu.Unlock()
}

// Remove queues a delta deleting the entity's entry. Removing an absent
// entity is a no-op at apply time.
func (t *ReactiveTable[V]) Remove(e EntityId) {
	t.mu.Lock()
	t.pending = append(t.pending, TableDelta[V]{Op: DeltaRemove, Entity: e})
	t.mu.Unlock()
}

// Outdated reports whether deltas have been queued since the last force.
func (t *ReactiveTable[V]) Outdated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending) > 0
}

// Version returns the materialization counter. It increases by exactly one
// per force that applied at least one delta.
func (t *ReactiveTable[V]) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

// Force drains the pending delta chain in publish order, applies it to the
// cached map, notifies subscribers once and returns the materialized value.
// When nothing is pending the cached map is returned as-is. Callers must
// treat the result as read-only.
func (t *ReactiveTable[V]) Force() map[EntityId]V {
	t.mu.Lock()
	if len(t.pending) == 0 {
		m := t.current
		t.mu.Unlock()
		return m
	}

	applied := t.pending
	t.pending = nil
	for _, d := range applied {
		switch d.Op {
		case DeltaSet:
			t.current[d.Entity] = d.Value
		case DeltaRemove:
			delete(t.current, d.Entity)
		}
	}
	t.version++
	version := t.version
	subs := t.subs
	m := t.current
	t.mu.Unlock()

	for _, fn := range subs {
		fn(version, applied)
	}
	return m
}

// Get forces the table and looks up a single entity.
func (t *ReactiveTable[V]) Get(e EntityId) (V, bool) {
	m := t.Force()
	v, ok := m[e]
	return v, ok
}

// Len forces the table and returns the entry count.
func (t *ReactiveTable[V]) Len() int {
	return len(t.Force())
}

// Subscribe registers a delta-stream consumer. The callback fires at most
// once per force, with the drained deltas in publish order. Subscribers must
// not queue further deltas on the same table from within the callback.
func (t *ReactiveTable[V]) Subscribe(fn func(version uint64, deltas []TableDelta[V])) {
	t.mu.Lock()
	t.subs = append(t.subs, fn)
	t.mu.Unlock()
}

// reactiveField is the type-erased view the world state keeps so that entity
// lifecycle handling and the per-frame commit can iterate every table without
// knowing the value types.
type reactiveField interface {
	Name() string
	removeEntity(EntityId)
	commit()
	contains(EntityId) bool
}

func (t *ReactiveTable[V]) removeEntity(e EntityId) { t.Remove(e) }
func (t *ReactiveTable[V]) commit()                 { t.Force() }

func (t *ReactiveTable[V]) contains(e EntityId) bool {
	_, ok := t.Get(e)
	return ok
}

// peek reads the materialized value without forcing pending deltas. Used by
// the writer to seed read-modify-write updates from the pre-transaction
// state without triggering a mid-transaction notification.
func (t *ReactiveTable[V]) peek(e EntityId) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.current[e]
	return v, ok
}
