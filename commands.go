package dusk

import (
	"reflect"
)

// Commands is the facade systems use to talk back to the app: resource
// registration, scheduling and world-event publication. Mutating world state
// always goes through Publish; only the writer applies.
type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemScheduleBuilder) *Commands {
	cmd.app.UseSystem(system)
	return cmd
}

// Publish queues a world event for the next writer transaction.
func (cmd *Commands) Publish(ev Event) {
	cmd.queue().Publish(ev)
}

// Spawn publishes an entity-creation event and returns the new id. The
// entity exists after the next writer transaction, not immediately.
func (cmd *Commands) Spawn(payload SpawnPayload) EntityId {
	id := NewEntityId()
	cmd.queue().Publish(Event{Kind: EventEntityCreated, Entity: id, Payload: payload})
	return id
}

// Remove publishes an entity-removal event.
func (cmd *Commands) Remove(id EntityId) {
	cmd.queue().Publish(Event{Kind: EventEntityRemoved, Entity: id})
}

func (cmd *Commands) Quit() {
	cmd.app.Quit()
}

func (cmd *Commands) queue() *EventQueue {
	q, ok := cmd.app.resources[reflect.TypeOf(EventQueue{})].(*EventQueue)
	if !ok {
		panic("Commands.Publish requires the WorldModule to be installed")
	}
	return q
}
