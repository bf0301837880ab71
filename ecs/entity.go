package ecs

import "fmt"

// Entity encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. The generation increments on destroy so stale handles
// never alias a recycled index.
type Entity uint64

// Root is the permanent scene root. It is always alive and is never handed
// out by an EntityStore.
const Root Entity = 0

// NewEntity creates an Entity from an index and a generation
func NewEntity(index uint32, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

// Index extracts the slot index from the entity
func (e Entity) Index() uint32 { return uint32(e) }

// Generation extracts the liveness epoch from the entity
func (e Entity) Generation() uint32 { return uint32(e >> 32) }

// IsRoot reports whether e is the permanent root entity
func (e Entity) IsRoot() bool { return e == Root }

func (e Entity) String() string {
	return fmt.Sprintf("%d:%d", e.Index(), e.Generation())
}

// EntityStore manages entity allocation with generational indices and a free
// list. Every Create and Destroy advances Generation, which consumers use as a
// cheap "did the entity set change" signal.
type EntityStore struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
	alive       int
	generation  uint64
}

// NewEntityStore creates an empty store. Index 0 is reserved for Root.
func NewEntityStore() *EntityStore {
	return &EntityStore{
		generations: make([]uint32, 1, 1024),
		freeList:    make([]uint32, 0, 256),
		nextIndex:   1,
	}
}

// Create allocates a new entity, reusing a freed index when available
func (s *EntityStore) Create() Entity {
	s.generation++
	s.alive++
	if len(s.freeList) > 0 {
		idx := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		return NewEntity(idx, s.generations[idx])
	}
	idx := s.nextIndex
	s.nextIndex++
	if int(idx) >= len(s.generations) {
		s.generations = append(s.generations, 0)
	}
	return NewEntity(idx, s.generations[idx])
}

// Alive reports whether e refers to a live entity. Root is always alive.
func (s *EntityStore) Alive(e Entity) bool {
	if e == Root {
		return true
	}
	idx := e.Index()
	if idx == 0 || idx >= s.nextIndex {
		return false
	}
	return s.generations[idx] == e.Generation()
}

// Destroy frees e. Returns false for Root and for stale or unknown entities.
func (s *EntityStore) Destroy(e Entity) bool {
	if e == Root || !s.Alive(e) {
		return false
	}
	idx := e.Index()
	s.generations[idx]++
	s.freeList = append(s.freeList, idx)
	s.alive--
	s.generation++
	return true
}

// Generation returns a counter that advances on every Create and Destroy
func (s *EntityStore) Generation() uint64 { return s.generation }

// Count returns the number of live entities, not counting Root
func (s *EntityStore) Count() int { return s.alive }
