package ecs_test

import (
	"testing"

	"github.com/plus3/sparsecs/ecs"
	"github.com/stretchr/testify/require"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type AI struct {
	State int
}

// Custom primitive types for testing non-struct components
type Score int32
type Tag string
type Temperature float64

func newTestStore(t testing.TB, opts ...ecs.StoreOption) *ecs.Store {
	t.Helper()
	store := ecs.NewStore(ecs.NewTypeRegistry(), opts...)
	require.NoError(t, ecs.RegisterComponent[Position](store))
	require.NoError(t, ecs.RegisterComponent[Velocity](store))
	require.NoError(t, ecs.RegisterComponent[Name](store))
	require.NoError(t, ecs.RegisterComponent[Health](store))
	require.NoError(t, ecs.RegisterComponent[Score](store))
	require.NoError(t, ecs.RegisterComponent[Tag](store))
	return store
}

// spawn creates an entity and attaches the given components through add.
func spawn(t testing.TB, store *ecs.Store, add ...func(ecs.EntityId) error) ecs.EntityId {
	t.Helper()
	id, err := store.CreateEntity()
	require.NoError(t, err)
	for _, fn := range add {
		require.NoError(t, fn(id))
	}
	return id
}

func with[T any](store *ecs.Store, value T) func(ecs.EntityId) error {
	return func(id ecs.EntityId) error {
		return ecs.AddComponent(store, id, value)
	}
}
