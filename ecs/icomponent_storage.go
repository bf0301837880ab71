package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// iComponentTable is the type-erased view of a ComponentTable used by World
// for bulk operations (destroy, clone, remap) and by View for joins.
type iComponentTable interface {
	Type() reflect.Type
	Has(Entity) bool
	Destroy(Entity) bool
	Generation() uint64
	Len() int
	Entities() []Entity

	keys() iter.Seq[Entity]
	pointer(Entity) unsafe.Pointer
	writePointer(Entity) unsafe.Pointer
	clone(src, dst Entity) bool
	remap(e Entity, mapping map[Entity]Entity) bool
}

// Container is satisfied by every ComponentTable. It lets callers ask "does
// this entity carry the component" without knowing the component type.
type Container interface {
	Has(Entity) bool
}
