package ecs

import (
	"slices"

	"github.com/rotisserie/eris"
)

// MultiSparseSet stores a group of component types that an entity carries
// together. It shares one sparse index across parallel columns, so row i of every
// column belongs to the same entity. Rows are only ever added or removed across
// all columns at once.
type MultiSparseSet struct {
	group   GroupId
	types   []ComponentTypeId
	mask    Signature
	index   sparseIndex
	columns []iColumn
}

// newMultiSparseSet builds a set whose columns come from the individual pools of
// the group's canonical types.
func newMultiSparseSet(group GroupId, types []ComponentTypeId, pools []iComponentStorage) *MultiSparseSet {
	ms := &MultiSparseSet{
		group:   group,
		types:   slices.Clone(types),
		mask:    SignatureOf(types...),
		columns: make([]iColumn, len(types)),
	}
	for i, pool := range pools {
		ms.columns[i] = pool.newColumn()
	}
	return ms
}

func (ms *MultiSparseSet) Group() GroupId {
	return ms.group
}

// Types returns the canonical component ids of the group.
func (ms *MultiSparseSet) Types() []ComponentTypeId {
	return slices.Clone(ms.types)
}

// Mask returns the signature an entity must have exactly to live in this set.
func (ms *MultiSparseSet) Mask() Signature {
	return ms.mask
}

func (ms *MultiSparseSet) Contains(id EntityId) bool {
	return ms.index.contains(id)
}

func (ms *MultiSparseSet) Len() int {
	return len(ms.index.entities)
}

// Entities returns the ids in dense order. The slice aliases the set's storage.
func (ms *MultiSparseSet) Entities() []EntityId {
	return ms.index.entities
}

// Remove drops id's row from every column.
func (ms *MultiSparseSet) Remove(id EntityId) bool {
	hole, last, ok := ms.index.swapRemove(id)
	if !ok {
		return false
	}
	for _, col := range ms.columns {
		col.swapRemove(hole, last)
	}
	return true
}

func (ms *MultiSparseSet) columnIndex(id ComponentTypeId) int {
	i, ok := slices.BinarySearch(ms.types, id)
	if !ok {
		return -1
	}
	return i
}

// row returns id's dense index.
func (ms *MultiSparseSet) row(id EntityId) (int, error) {
	i, ok := ms.index.lookup(id)
	if !ok {
		return 0, eris.Wrapf(ErrNotFound, "entity %d not in group %d", id, ms.group)
	}
	return i, nil
}

// absorb moves id's components out of the individual pools into a new row.
// pools is aligned with the group's canonical types. Nothing is moved unless every
// pool holds a value for id.
func (ms *MultiSparseSet) absorb(id EntityId, pools []iComponentStorage) error {
	if ms.index.contains(id) {
		return eris.Wrapf(ErrDuplicateComponent, "entity %d already in group %d", id, ms.group)
	}
	for i, col := range ms.columns {
		if !col.accepts(pools[i], id) {
			return eris.Wrapf(ErrCorruptState, "entity %d missing component %d for group %d", id, ms.types[i], ms.group)
		}
	}
	for i, col := range ms.columns {
		col.takeFrom(pools[i], id)
	}
	ms.index.push(id)
	return nil
}

// release moves id's row back into the individual pools and drops the row.
func (ms *MultiSparseSet) release(id EntityId, pools []iComponentStorage) error {
	i, err := ms.row(id)
	if err != nil {
		return err
	}
	for c := range ms.columns {
		if pools[c].Contains(id) {
			return eris.Wrapf(ErrCorruptState, "entity %d has component %d in both group %d and its pool", id, ms.types[c], ms.group)
		}
	}
	for c, col := range ms.columns {
		if err := col.giveTo(i, pools[c], id); err != nil {
			return eris.Wrapf(ErrCorruptState, "moving component %d of entity %d: %v", ms.types[c], id, err)
		}
	}
	ms.Remove(id)
	return nil
}

// insertRow appends a row for id and runs fill to append one value to each column.
// fill must append to every column exactly once.
func (ms *MultiSparseSet) insertRow(id EntityId, fill func()) error {
	if !id.Valid() {
		return eris.Wrap(ErrUnknownEntity, "cannot add group to invalid entity")
	}
	if ms.index.contains(id) {
		return eris.Wrapf(ErrDuplicateComponent, "entity %d already in group %d", id, ms.group)
	}
	fill()
	ms.index.push(id)
	return nil
}
