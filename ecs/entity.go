package ecs

import (
	"math"

	"github.com/rotisserie/eris"
)

// EntityId is an opaque handle for one logical object. It carries no data and is
// not a storage location: components are found by looking the id up in sparse arrays.
type EntityId uint64

// InvalidEntity marks the absence of an entity. Zero is a valid id.
const InvalidEntity EntityId = math.MaxUint64

// Valid reports whether the id is not the InvalidEntity sentinel.
func (e EntityId) Valid() bool {
	return e != InvalidEntity
}

// entityAllocator issues and recycles entity ids. Recycled ids are handed out
// last-in first-out before the counter advances.
type entityAllocator struct {
	next     uint64
	max      uint64
	freeList []EntityId
}

func newEntityAllocator(max int) *entityAllocator {
	return &entityAllocator{max: uint64(max)}
}

func (a *entityAllocator) create() (EntityId, error) {
	if n := len(a.freeList); n > 0 {
		id := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		return id, nil
	}

	if a.next >= a.max {
		return InvalidEntity, eris.Wrapf(ErrCapacityExceeded, "entity limit %d reached", a.max)
	}

	id := EntityId(a.next)
	a.next++
	return id, nil
}

// destroy returns id to the free list. Double frees are not detected here; the
// Store guards against them through its signature table.
func (a *entityAllocator) destroy(id EntityId) {
	a.freeList = append(a.freeList, id)
}

// live returns the number of ids currently handed out.
func (a *entityAllocator) live() int {
	return int(a.next) - len(a.freeList)
}

// highWater returns one past the largest id ever issued.
func (a *entityAllocator) highWater() uint64 {
	return a.next
}
