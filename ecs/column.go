package ecs

// iColumn is one dense array of a MultiSparseSet. Columns only move rows as
// directed by their owning set, which keeps every column in lockstep.
type iColumn interface {
	TypeId() ComponentTypeId
	len() int
	swapRemove(hole, last int)

	// accepts reports whether takeFrom would succeed for id.
	accepts(src iComponentStorage, id EntityId) bool
	// takeFrom appends id's value from src and removes it there.
	takeFrom(src iComponentStorage, id EntityId) bool
	// giveTo adds row i to dst under id. The row itself is left in place.
	giveTo(i int, dst iComponentStorage, id EntityId) error
}

type column[T any] struct {
	typeId ComponentTypeId
	data   []T
}

func (c *column[T]) TypeId() ComponentTypeId {
	return c.typeId
}

func (c *column[T]) len() int {
	return len(c.data)
}

func (c *column[T]) swapRemove(hole, last int) {
	c.data[hole] = c.data[last]
	var zero T
	c.data[last] = zero
	c.data = c.data[:last]
}

func (c *column[T]) accepts(src iComponentStorage, id EntityId) bool {
	set, ok := src.(*SparseSet[T])
	return ok && set.Contains(id)
}

func (c *column[T]) takeFrom(src iComponentStorage, id EntityId) bool {
	set, ok := src.(*SparseSet[T])
	if !ok {
		return false
	}
	value, ok := set.take(id)
	if !ok {
		return false
	}
	c.data = append(c.data, value)
	return true
}

func (c *column[T]) giveTo(i int, dst iComponentStorage, id EntityId) error {
	set, ok := dst.(*SparseSet[T])
	if !ok {
		return ErrCorruptState
	}
	return set.Add(id, c.data[i])
}

// columnOf returns the column of ms that stores T.
func columnOf[T any](ms *MultiSparseSet, id ComponentTypeId) (*column[T], bool) {
	i := ms.columnIndex(id)
	if i < 0 {
		return nil, false
	}
	col, ok := ms.columns[i].(*column[T])
	return col, ok
}
