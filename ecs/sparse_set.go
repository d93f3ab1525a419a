package ecs

import (
	"math"

	"github.com/rotisserie/eris"
)

const invalidIndex = math.MaxUint32

// sparseIndex maps entity ids to positions in packed dense arrays. For every id
// with sparse[id] = i != invalidIndex, entities[i] == id and i < len(entities).
type sparseIndex struct {
	sparse   []uint32
	entities []EntityId
}

func (x *sparseIndex) lookup(id EntityId) (int, bool) {
	if uint64(id) >= uint64(len(x.sparse)) {
		return 0, false
	}
	i := x.sparse[id]
	if i == invalidIndex {
		return 0, false
	}
	return int(i), true
}

func (x *sparseIndex) contains(id EntityId) bool {
	_, ok := x.lookup(id)
	return ok
}

func (x *sparseIndex) grow(id EntityId) {
	need := int(id) + 1
	if need <= len(x.sparse) {
		return
	}
	size := max(need, 2*len(x.sparse), 64)
	old := len(x.sparse)
	if size <= cap(x.sparse) {
		x.sparse = x.sparse[:size]
	} else {
		next := make([]uint32, size)
		copy(next, x.sparse)
		x.sparse = next
	}
	for i := old; i < size; i++ {
		x.sparse[i] = invalidIndex
	}
}

// push appends id as a new dense row and returns its index. The caller has
// already checked that id is absent.
func (x *sparseIndex) push(id EntityId) int {
	x.grow(id)
	i := len(x.entities)
	x.entities = append(x.entities, id)
	x.sparse[id] = uint32(i)
	return i
}

// swapRemove drops id's row by moving the last row into its place. It returns
// the vacated index and the index of the row that moved there (equal when the
// removed row was last). Dense arrays must apply the same move and shrink by one.
func (x *sparseIndex) swapRemove(id EntityId) (hole, last int, ok bool) {
	hole, ok = x.lookup(id)
	if !ok {
		return 0, 0, false
	}
	last = len(x.entities) - 1
	moved := x.entities[last]
	x.entities[hole] = moved
	x.sparse[moved] = uint32(hole)
	x.entities = x.entities[:last]
	x.sparse[id] = invalidIndex
	return hole, last, true
}

// SparseSet owns every instance of one component type, packed densely and keyed
// by entity id.
//
// Pointers returned by Get and slices returned by Entities or Values are valid only
// until the next Add or Remove on the set, since removal relocates the last row.
type SparseSet[T any] struct {
	typeId ComponentTypeId
	index  sparseIndex
	dense  []T
}

// NewSparseSet creates an empty set for components of type id.
func NewSparseSet[T any](id ComponentTypeId) *SparseSet[T] {
	return &SparseSet[T]{typeId: id}
}

func (s *SparseSet[T]) TypeId() ComponentTypeId {
	return s.typeId
}

// Contains reports whether id has a component in the set.
func (s *SparseSet[T]) Contains(id EntityId) bool {
	return s.index.contains(id)
}

// Len returns the number of stored components.
func (s *SparseSet[T]) Len() int {
	return len(s.dense)
}

// Add stores value for id.
func (s *SparseSet[T]) Add(id EntityId, value T) error {
	if !id.Valid() {
		return eris.Wrap(ErrUnknownEntity, "cannot add component to invalid entity")
	}
	if s.index.contains(id) {
		return eris.Wrapf(ErrDuplicateComponent, "entity %d", id)
	}
	s.index.push(id)
	s.dense = append(s.dense, value)
	return nil
}

// Remove deletes id's component, reporting whether one was present. Element order
// is not preserved.
func (s *SparseSet[T]) Remove(id EntityId) bool {
	hole, last, ok := s.index.swapRemove(id)
	if !ok {
		return false
	}
	s.dense[hole] = s.dense[last]
	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	return true
}

// RemoveEntity is Remove under the type-erased pool interface.
func (s *SparseSet[T]) RemoveEntity(id EntityId) bool {
	return s.Remove(id)
}

// Get returns a pointer to id's component.
func (s *SparseSet[T]) Get(id EntityId) (*T, error) {
	i, ok := s.index.lookup(id)
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "entity %d", id)
	}
	return &s.dense[i], nil
}

// ptr returns a pointer to id's component, or nil.
func (s *SparseSet[T]) ptr(id EntityId) *T {
	i, ok := s.index.lookup(id)
	if !ok {
		return nil
	}
	return &s.dense[i]
}

// Set overwrites id's component in place.
func (s *SparseSet[T]) Set(id EntityId, value T) error {
	i, ok := s.index.lookup(id)
	if !ok {
		return eris.Wrapf(ErrNotFound, "entity %d", id)
	}
	s.dense[i] = value
	return nil
}

// Entities returns the ids in dense order. The slice aliases the set's storage.
func (s *SparseSet[T]) Entities() []EntityId {
	return s.index.entities
}

// Values returns the components in dense order, aligned with Entities.
func (s *SparseSet[T]) Values() []T {
	return s.dense
}

// take removes id's component and returns its value.
func (s *SparseSet[T]) take(id EntityId) (T, bool) {
	var value T
	i, ok := s.index.lookup(id)
	if !ok {
		return value, false
	}
	value = s.dense[i]
	s.Remove(id)
	return value, true
}

func (s *SparseSet[T]) newColumn() iColumn {
	return &column[T]{typeId: s.typeId}
}
