package ecs

import (
	"reflect"
)

// World is the top-level ECS container. It owns the entity store and one
// component table per registered component type.
type World struct {
	entities *EntityStore
	registry *ComponentRegistry
	tables   map[reflect.Type]iComponentTable
	ordered  []iComponentTable
}

// NewWorld creates a world with a table for every type in the registry
func NewWorld(registry *ComponentRegistry) *World {
	w := &World{
		entities: NewEntityStore(),
		registry: registry,
		tables:   make(map[reflect.Type]iComponentTable, len(registry.order)),
	}
	for _, typ := range registry.order {
		table := registry.getFactory(typ)()
		w.tables[typ] = table
		w.ordered = append(w.ordered, table)
	}
	return w
}

// Table returns the world's table for component type T. It panics when T was
// not registered, which is a wiring error rather than a runtime condition.
func Table[T any](w *World) *ComponentTable[T] {
	typ := reflect.TypeFor[T]()
	table, ok := w.tables[typ]
	if !ok {
		panic("component type " + typ.String() + " not registered")
	}
	return table.(*ComponentTable[T])
}

func (w *World) tableFor(typ reflect.Type) iComponentTable {
	table, ok := w.tables[typ]
	if !ok {
		panic("component type " + typ.String() + " not registered")
	}
	return table
}

// Entities returns the world's entity store
func (w *World) Entities() *EntityStore { return w.entities }

// CreateEntity allocates a new entity with no components
func (w *World) CreateEntity() Entity {
	return w.entities.Create()
}

// Alive reports whether e is a live entity
func (w *World) Alive(e Entity) bool {
	return w.entities.Alive(e)
}

// DestroyEntity removes every component attached to e and frees it.
// Root cannot be destroyed.
func (w *World) DestroyEntity(e Entity) bool {
	if e == Root || !w.entities.Alive(e) {
		return false
	}
	for _, table := range w.ordered {
		table.Destroy(e)
	}
	return w.entities.Destroy(e)
}

// CloneEntity creates a new entity carrying a deep copy of every component
// of src. Entity-typed values inside the copies still point at the original
// targets; use RemapEntityReferences to redirect them.
func (w *World) CloneEntity(src Entity) (Entity, bool) {
	if src == Root || !w.entities.Alive(src) {
		return 0, false
	}
	dst := w.entities.Create()
	for _, table := range w.ordered {
		table.clone(src, dst)
	}
	return dst, true
}

// RemapEntityReferences rewrites every Entity value stored in e's components
// that appears as a key of mapping. Entities not in mapping are untouched.
// It returns the number of components that changed.
func (w *World) RemapEntityReferences(e Entity, mapping map[Entity]Entity) int {
	changed := 0
	for _, table := range w.ordered {
		if table.remap(e, mapping) {
			changed++
		}
	}
	return changed
}

// ComponentTypes returns the types of every component attached to e, in
// registration order.
func (w *World) ComponentTypes(e Entity) []reflect.Type {
	var types []reflect.Type
	for _, table := range w.ordered {
		if table.Has(e) {
			types = append(types, table.Type())
		}
	}
	return types
}

// Component returns a pointer to e's component of type typ without recording
// a change, or nil when e has none. It is meant for tools that do not know
// the component type statically.
func (w *World) Component(e Entity, typ reflect.Type) any {
	ptr := w.tableFor(typ).pointer(e)
	if ptr == nil {
		return nil
	}
	return reflect.NewAt(typ, ptr).Interface()
}

// WriteComponent is Component for callers that will mutate the value. The
// change is recorded like ComponentTable.Write.
func (w *World) WriteComponent(e Entity, typ reflect.Type) any {
	ptr := w.tableFor(typ).writePointer(e)
	if ptr == nil {
		return nil
	}
	return reflect.NewAt(typ, ptr).Interface()
}
