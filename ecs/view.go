package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// View represents a join over component tables.
// The type T should be a struct whose fields are pointers to component types,
// plus optionally one or more Entity fields that receive the row's entity.
// Embedded pointer fields are always required.
// Named fields can be marked as optional using the `ecs:"optional"` struct tag.
type View[T any] struct {
	world        *World
	types        []reflect.Type
	tables       []iComponentTable
	optional     []bool
	fieldOffset  []uintptr
	entityOffset []uintptr
}

// NewView creates a new view for the given struct type
func NewView[T any](world *World) *View[T] {
	structType := reflect.TypeFor[T]()

	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	v := &View[T]{world: world}
	required := 0

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldType := field.Type

		if fieldType == entityType {
			v.entityOffset = append(v.entityOffset, field.Offset)
			continue
		}

		if fieldType.Kind() != reflect.Ptr {
			panic("View struct fields must be pointer types or ecs.Entity")
		}

		componentType := fieldType.Elem()
		v.types = append(v.types, componentType)
		v.tables = append(v.tables, world.tableFor(componentType))
		v.fieldOffset = append(v.fieldOffset, field.Offset)

		// Embedded fields (field.Anonymous) are always required
		isOptional := false
		if !field.Anonymous {
			tag := field.Tag.Get("ecs")
			if tag != "" {
				if tag == "optional" {
					isOptional = true
				} else {
					panic("invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
				}
			}
		}
		if !isOptional {
			required++
		}
		v.optional = append(v.optional, isOptional)
	}

	if required == 0 {
		panic("View struct must have at least one required component")
	}

	return v
}

// Fill populates the provided struct pointer with component data for the given entity
// Returns false if the entity is missing any required components
// Optional components are set to nil if not present
func (v *View[T]) Fill(e Entity, ptr *T) bool {
	structPtr := unsafe.Pointer(ptr)

	for i, table := range v.tables {
		fieldPtr := unsafe.Pointer(uintptr(structPtr) + v.fieldOffset[i])
		component := table.pointer(e)

		if component == nil && !v.optional[i] {
			return false
		}
		*(*unsafe.Pointer)(fieldPtr) = component
	}

	for _, offset := range v.entityOffset {
		*(*Entity)(unsafe.Pointer(uintptr(structPtr) + offset)) = e
	}

	return true
}

// Get returns a populated view struct for the given entity, or nil if the entity
// doesn't have all the required components
func (v *View[T]) Get(e Entity) *T {
	var result T
	if !v.Fill(e, &result) {
		return nil
	}
	return &result
}

// driver picks the smallest required table to iterate
func (v *View[T]) driver() iComponentTable {
	var best iComponentTable
	for i, table := range v.tables {
		if v.optional[i] {
			continue
		}
		if best == nil || table.Len() < best.Len() {
			best = table
		}
	}
	return best
}

// Iter returns an iterator over all entities that have all the required components for this view
// The iterator yields (Entity, T) pairs where T is the populated view struct
// Optional components are set to nil if not present
func (v *View[T]) Iter() iter.Seq2[Entity, T] {
	return func(yield func(Entity, T) bool) {
		var result T
		for e := range v.driver().keys() {
			if !v.Fill(e, &result) {
				continue
			}
			if !yield(e, result) {
				return
			}
		}
	}
}

// Values returns an iterator over just the view structs (without entities)
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range v.Iter() {
			if !yield(value) {
				return
			}
		}
	}
}
