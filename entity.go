package dusk

import (
	"github.com/google/uuid"
)

// EntityId identifies an entity in the world. Entities carry no behavior;
// an id is purely a key into the per-field state containers.
type EntityId uuid.UUID

var NilEntity = EntityId(uuid.Nil)

func NewEntityId() EntityId {
	return EntityId(uuid.New())
}

func (e EntityId) String() string {
	return uuid.UUID(e).String()
}

func (e EntityId) IsNil() bool {
	return e == NilEntity
}
