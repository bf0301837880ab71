package ecs

import (
	"iter"
	"reflect"
	"unsafe"

	"github.com/kamstrup/intmap"
)

// ComponentTable stores at most one T per entity. Every structural change and
// every write handle advances the table Generation, so consumers can skip work
// with a single integer compare. Each instance additionally carries its own
// generation, stamped from the table counter on Create, Write and Set.
type ComponentTable[T any] struct {
	storage    genericComponentStorage[T]
	slots      *intmap.Map[Entity, int]
	owners     []Entity
	instances  []uint64
	generation uint64
	typ        reflect.Type
}

func newComponentTable[T any]() *ComponentTable[T] {
	return &ComponentTable[T]{
		slots: intmap.New[Entity, int](256),
		typ:   reflect.TypeFor[T](),
	}
}

// Type returns the component type stored in this table
func (t *ComponentTable[T]) Type() reflect.Type { return t.typ }

// Generation returns the table-wide change counter
func (t *ComponentTable[T]) Generation() uint64 { return t.generation }

// Len returns the number of entities carrying the component
func (t *ComponentTable[T]) Len() int { return t.storage.Len() }

// Has reports whether e carries the component
func (t *ComponentTable[T]) Has(e Entity) bool {
	_, ok := t.slots.Get(e)
	return ok
}

// Create attaches value to e, overwriting any existing instance, and returns
// a handle to the stored copy.
func (t *ComponentTable[T]) Create(e Entity, value T) *T {
	t.generation++
	if slot, ok := t.slots.Get(e); ok {
		ptr := t.storage.Get(slot)
		*ptr = value
		t.instances[slot] = t.generation
		return ptr
	}

	slot := t.storage.Append(value)
	for len(t.owners) <= slot {
		t.owners = append(t.owners, 0)
		t.instances = append(t.instances, 0)
	}
	t.owners[slot] = e
	t.instances[slot] = t.generation
	t.slots.Put(e, slot)
	return t.storage.Get(slot)
}

// Destroy detaches the component from e. Returns false if e had none.
func (t *ComponentTable[T]) Destroy(e Entity) bool {
	slot, ok := t.slots.Get(e)
	if !ok {
		return false
	}
	t.storage.Delete(slot)
	t.slots.Del(e)
	t.owners[slot] = 0
	t.instances[slot] = 0
	t.generation++
	return true
}

// Read returns a handle to e's component without advancing any generation,
// or nil when e has none. Mutating through a read handle is invisible to
// generation-based change detection.
func (t *ComponentTable[T]) Read(e Entity) *T {
	slot, ok := t.slots.Get(e)
	if !ok {
		return nil
	}
	return t.storage.Get(slot)
}

// Write returns a handle to e's component and records a change, or nil when
// e has none.
func (t *ComponentTable[T]) Write(e Entity) *T {
	slot, ok := t.slots.Get(e)
	if !ok {
		return nil
	}
	t.generation++
	t.instances[slot] = t.generation
	return t.storage.Get(slot)
}

// Set replaces e's component. Returns false when e has none.
func (t *ComponentTable[T]) Set(e Entity, value T) bool {
	ptr := t.Write(e)
	if ptr == nil {
		return false
	}
	*ptr = value
	return true
}

// Touch advances the table generation without naming an instance. Bulk
// writers that mutate through read handles use it once per batch.
func (t *ComponentTable[T]) Touch() {
	t.generation++
}

// InstanceGeneration returns the generation stamped on e's component by its
// last Create, Write or Set, or 0 when e has none.
func (t *ComponentTable[T]) InstanceGeneration(e Entity) uint64 {
	slot, ok := t.slots.Get(e)
	if !ok {
		return 0
	}
	return t.instances[slot]
}

// Iter yields every (entity, component) pair in storage order
func (t *ComponentTable[T]) Iter() iter.Seq2[Entity, *T] {
	return func(yield func(Entity, *T) bool) {
		for slot := range t.storage.Iter() {
			if !yield(t.owners[slot], t.storage.Get(slot)) {
				return
			}
		}
	}
}

// Entities returns a snapshot of every entity carrying the component
func (t *ComponentTable[T]) Entities() []Entity {
	out := make([]Entity, 0, t.storage.Len())
	for slot := range t.storage.Iter() {
		out = append(out, t.owners[slot])
	}
	return out
}

func (t *ComponentTable[T]) keys() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for slot := range t.storage.Iter() {
			if !yield(t.owners[slot]) {
				return
			}
		}
	}
}

func (t *ComponentTable[T]) pointer(e Entity) unsafe.Pointer {
	return unsafe.Pointer(t.Read(e))
}

func (t *ComponentTable[T]) writePointer(e Entity) unsafe.Pointer {
	return unsafe.Pointer(t.Write(e))
}

func (t *ComponentTable[T]) clone(src, dst Entity) bool {
	ptr := t.Read(src)
	if ptr == nil {
		return false
	}
	value := *ptr
	deepCopy(reflect.ValueOf(&value).Elem())
	t.Create(dst, value)
	return true
}

func (t *ComponentTable[T]) remap(e Entity, mapping map[Entity]Entity) bool {
	if !containsEntity(t.typ) {
		return false
	}
	ptr := t.Read(e)
	if ptr == nil {
		return false
	}
	if !remapValue(reflect.ValueOf(ptr).Elem(), mapping) {
		return false
	}
	t.Write(e)
	return true
}
