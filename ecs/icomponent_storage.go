package ecs

// iComponentStorage is the type-erased view of a single-component pool that the
// Store uses to reach every SparseSet[T] by ComponentTypeId.
type iComponentStorage interface {
	Contains(id EntityId) bool
	Len() int
	RemoveEntity(id EntityId) bool
	Entities() []EntityId
	TypeId() ComponentTypeId
	newColumn() iColumn
}
