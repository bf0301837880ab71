package ecs

import (
	"iter"

	"github.com/kamstrup/intmap"
)

// Query wraps a View with a per-frame row cache.
// Execute snapshots the join once; Iter, Values and Get then serve from the
// snapshot until the next Execute.
type Query[T any] struct {
	view  *View[T]
	world *World

	cachedEntities []Entity
	cachedRows     []T
	rowIndex       *intmap.Map[Entity, int]
	cacheValid     bool
}

// NewQuery creates a new Query over the given world.
func NewQuery[T any](world *World) *Query[T] {
	q := &Query[T]{}
	q.Init(world)
	return q
}

// Init initializes or re-initializes the Query with a world.
// Called by the Scheduler during system registration.
func (q *Query[T]) Init(world *World) {
	q.view = NewView[T](world)
	q.world = world
	q.rowIndex = intmap.New[Entity, int](256)
	q.cacheValid = false
}

// Execute rebuilds the entity and row caches for this frame.
// Called automatically by the Scheduler before the owning system runs.
func (q *Query[T]) Execute() {
	q.cachedEntities = q.cachedEntities[:0]
	q.cachedRows = q.cachedRows[:0]
	q.rowIndex.Clear()

	for e, row := range q.view.Iter() {
		q.rowIndex.Put(e, len(q.cachedRows))
		q.cachedEntities = append(q.cachedEntities, e)
		q.cachedRows = append(q.cachedRows, row)
	}

	q.cacheValid = true
}

// Len returns the number of rows captured by the last Execute.
func (q *Query[T]) Len() int {
	return len(q.cachedRows)
}

// Get returns the cached row for e.
// Panics if Execute() has not been called.
func (q *Query[T]) Get(e Entity) (T, bool) {
	if !q.cacheValid {
		panic("Query.Get() called before Query.Execute()")
	}
	idx, ok := q.rowIndex.Get(e)
	if !ok {
		var zero T
		return zero, false
	}
	return q.cachedRows[idx], true
}

// Iter returns an iterator over entities and rows.
// Panics if Execute() has not been called.
func (q *Query[T]) Iter() iter.Seq2[Entity, T] {
	if !q.cacheValid {
		panic("Query.Iter() called before Query.Execute()")
	}

	return func(yield func(Entity, T) bool) {
		for i := range q.cachedEntities {
			if !yield(q.cachedEntities[i], q.cachedRows[i]) {
				return
			}
		}
	}
}

// Values returns an iterator over rows only.
// Panics if Execute() has not been called.
func (q *Query[T]) Values() iter.Seq[T] {
	if !q.cacheValid {
		panic("Query.Values() called before Query.Execute()")
	}

	return func(yield func(T) bool) {
		for i := range q.cachedRows {
			if !yield(q.cachedRows[i]) {
				return
			}
		}
	}
}
