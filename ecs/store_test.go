package ecs_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/plus3/sparsecs/ecs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntityStartsEmpty(t *testing.T) {
	store := newTestStore(t)

	id, err := store.CreateEntity()
	require.NoError(t, err)

	sig, ok := store.Signature(id)
	assert.True(t, ok)
	assert.True(t, sig.IsZero())
	assert.True(t, store.Alive(id))
	assert.Equal(t, 1, store.EntityCount())
}

func TestAddGetComponent(t *testing.T) {
	store := newTestStore(t)
	id := spawn(t, store, with(store, Position{X: 3, Y: 4}), with(store, Name{Value: "Test Entity"}))

	pos, err := ecs.GetComponent[Position](store, id)
	require.NoError(t, err)
	assert.Equal(t, Position{X: 3, Y: 4}, *pos)

	name, err := ecs.ReadComponent[Name](store, id)
	require.NoError(t, err)
	assert.Equal(t, "Test Entity", name.Value)

	_, err = ecs.GetComponent[Velocity](store, id)
	assert.ErrorIs(t, err, ecs.ErrNotFound)

	assert.True(t, ecs.HasComponent[Position](store, id))
	assert.False(t, ecs.HasComponent[Velocity](store, id))
}

func TestPointerWritesAreVisible(t *testing.T) {
	store := newTestStore(t)
	id := spawn(t, store, with(store, Position{X: 1, Y: 1}))

	pos, err := ecs.GetComponent[Position](store, id)
	require.NoError(t, err)
	pos.X = 15

	got, err := ecs.ReadComponent[Position](store, id)
	require.NoError(t, err)
	assert.Equal(t, float32(15), got.X)
}

func TestSetComponent(t *testing.T) {
	store := newTestStore(t)
	id := spawn(t, store, with(store, Health{Current: 10, Max: 100}))

	require.NoError(t, ecs.SetComponent(store, id, Health{Current: 90, Max: 100}))
	got, err := ecs.ReadComponent[Health](store, id)
	require.NoError(t, err)
	assert.Equal(t, 90, got.Current)

	err = ecs.SetComponent(store, id, Position{})
	assert.ErrorIs(t, err, ecs.ErrNotFound)
}

func TestAddComponentErrors(t *testing.T) {
	store := newTestStore(t)
	id := spawn(t, store, with(store, Position{}))

	err := ecs.AddComponent(store, ecs.EntityId(999), Position{})
	assert.ErrorIs(t, err, ecs.ErrUnknownEntity)

	err = ecs.AddComponent(store, id, Temperature(20))
	assert.ErrorIs(t, err, ecs.ErrUnregisteredType)

	err = ecs.AddComponent(store, id, Position{X: 1})
	assert.ErrorIs(t, err, ecs.ErrDuplicateComponent)

	// The failed duplicate add left the original value alone.
	got, err := ecs.ReadComponent[Position](store, id)
	require.NoError(t, err)
	assert.Equal(t, Position{}, got)
}

func TestGetComponentErrors(t *testing.T) {
	store := newTestStore(t)

	_, err := ecs.GetComponent[Position](store, ecs.EntityId(5))
	assert.ErrorIs(t, err, ecs.ErrUnknownEntity)

	id := spawn(t, store)
	_, err = ecs.GetComponent[Temperature](store, id)
	assert.ErrorIs(t, err, ecs.ErrUnregisteredType)
}

func TestRemoveComponent(t *testing.T) {
	store := newTestStore(t)
	id := spawn(t, store, with(store, Position{X: 1}), with(store, Velocity{DX: 2}))

	require.NoError(t, ecs.RemoveComponent[Velocity](store, id))
	assert.False(t, ecs.HasComponent[Velocity](store, id))
	_, err := ecs.GetComponent[Velocity](store, id)
	assert.ErrorIs(t, err, ecs.ErrNotFound)

	pos, err := ecs.ReadComponent[Position](store, id)
	require.NoError(t, err)
	assert.Equal(t, float32(1), pos.X)
}

func TestRemoveComponentIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	id := spawn(t, store, with(store, Position{}))

	assert.NoError(t, ecs.RemoveComponent[Velocity](store, id))
	assert.NoError(t, ecs.RemoveComponent[Temperature](store, id))
	assert.NoError(t, ecs.RemoveComponent[Position](store, ecs.EntityId(1234)))

	require.NoError(t, ecs.RemoveComponent[Position](store, id))
	assert.NoError(t, ecs.RemoveComponent[Position](store, id))
}

func TestRegisterComponentTwice(t *testing.T) {
	store := newTestStore(t)
	err := ecs.RegisterComponent[Position](store)
	assert.ErrorIs(t, err, ecs.ErrAlreadyRegistered)
}

func TestRegisterComponentTypeLimit(t *testing.T) {
	store := ecs.NewStore(nil, ecs.WithMaxComponentTypes(2))
	require.NoError(t, ecs.RegisterComponent[Position](store))
	require.NoError(t, ecs.RegisterComponent[Velocity](store))

	err := ecs.RegisterComponent[Health](store)
	assert.ErrorIs(t, err, ecs.ErrCapacityExceeded)
}

type overflowComponent struct{ N int }

func TestTypesPastSignatureWidthAreAbsent(t *testing.T) {
	registry := ecs.NewTypeRegistry()
	for i := 0; i < ecs.SignatureWidth; i++ {
		registry.TypeOf(reflect.ArrayOf(i+1, reflect.TypeFor[byte]()))
	}
	store := ecs.NewStore(registry)

	err := ecs.RegisterComponent[overflowComponent](store)
	assert.ErrorIs(t, err, ecs.ErrCapacityExceeded)

	id, err := store.CreateEntity()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		assert.NoError(t, ecs.RemoveComponent[overflowComponent](store, id))
	})
	assert.NotPanics(t, func() {
		assert.False(t, ecs.HasComponent[overflowComponent](store, id))
	})
	assert.NoError(t, store.Corrupt())
}

func TestDestroyEntity(t *testing.T) {
	store := newTestStore(t)
	id := spawn(t, store, with(store, Position{X: 1}), with(store, Health{Current: 100, Max: 100}))
	other := spawn(t, store, with(store, Position{X: 2}))

	require.NoError(t, store.DestroyEntity(id))

	assert.False(t, store.Alive(id))
	_, err := ecs.GetComponent[Position](store, id)
	assert.ErrorIs(t, err, ecs.ErrUnknownEntity)

	pos, err := ecs.ReadComponent[Position](store, other)
	require.NoError(t, err)
	assert.Equal(t, float32(2), pos.X)
	assert.Equal(t, 1, store.EntityCount())
}

func TestDestroyUnknownEntityLogsAndIgnores(t *testing.T) {
	var buf bytes.Buffer
	store := newTestStore(t, ecs.WithLogger(zerolog.New(&buf)))

	assert.NoError(t, store.DestroyEntity(ecs.EntityId(42)))
	assert.Contains(t, buf.String(), "destroy of unknown entity ignored")
	assert.Contains(t, buf.String(), `"entity":42`)

	id := spawn(t, store)
	require.NoError(t, store.DestroyEntity(id))
	buf.Reset()
	assert.NoError(t, store.DestroyEntity(id))
	assert.Contains(t, buf.String(), "destroy of unknown entity ignored")
}

func TestRecycledIdStartsClean(t *testing.T) {
	store := newTestStore(t)
	id := spawn(t, store, with(store, Position{X: 1}), with(store, Velocity{DX: 1}))
	require.NoError(t, store.DestroyEntity(id))

	reused, err := store.CreateEntity()
	require.NoError(t, err)
	assert.Equal(t, id, reused)

	sig, ok := store.Signature(reused)
	require.True(t, ok)
	assert.True(t, sig.IsZero())
	assert.False(t, ecs.HasComponent[Position](store, reused))

	require.NoError(t, ecs.AddComponent(store, reused, Position{X: 9}))
	pos, err := ecs.ReadComponent[Position](store, reused)
	require.NoError(t, err)
	assert.Equal(t, float32(9), pos.X)
}

func TestLiveIdsAreUnique(t *testing.T) {
	store := newTestStore(t)
	live := make(map[ecs.EntityId]bool)
	var order []ecs.EntityId

	for round := 0; round < 50; round++ {
		for i := 0; i < 7; i++ {
			id, err := store.CreateEntity()
			require.NoError(t, err)
			require.False(t, live[id], "id %d handed out twice", id)
			live[id] = true
			order = append(order, id)
		}
		for i := 0; i < 5; i++ {
			id := order[0]
			order = order[1:]
			require.NoError(t, store.DestroyEntity(id))
			delete(live, id)
		}
	}
	assert.Equal(t, len(live), store.EntityCount())
}

func TestEntityCapacity(t *testing.T) {
	const maxEntities = 16
	store := ecs.NewStore(nil, ecs.WithMaxEntities(maxEntities))

	for i := 0; i < maxEntities; i++ {
		_, err := store.CreateEntity()
		require.NoError(t, err)
	}
	id, err := store.CreateEntity()
	assert.ErrorIs(t, err, ecs.ErrCapacityExceeded)
	assert.Equal(t, ecs.InvalidEntity, id)
}

func TestStoresDoNotShareNumbering(t *testing.T) {
	a := ecs.NewStore(nil)
	b := ecs.NewStore(nil)
	require.NoError(t, ecs.RegisterComponent[Position](a))
	require.NoError(t, ecs.RegisterComponent[Velocity](b))
	require.NoError(t, ecs.RegisterComponent[Position](b))

	assert.Equal(t, ecs.ComponentTypeId(0), ecs.ComponentTypeOf[Position](a.Registry()))
	assert.Equal(t, ecs.ComponentTypeId(1), ecs.ComponentTypeOf[Position](b.Registry()))
}

func TestMutationDuringIterationIsRejected(t *testing.T) {
	store := newTestStore(t)
	spawn(t, store, with(store, Position{}))
	spawn(t, store, with(store, Position{}))

	view, err := ecs.NewView1[Position](store)
	require.NoError(t, err)

	var errs []error
	view.Each(func(id ecs.EntityId, _ *Position) {
		errs = append(errs, ecs.AddComponent(store, id, Velocity{}))
		errs = append(errs, store.DestroyEntity(id))
	})

	require.Len(t, errs, 4)
	for _, err := range errs {
		assert.ErrorIs(t, err, ecs.ErrIterationInProgress)
	}

	// The guard is released once iteration ends.
	ids := view.Entities()
	assert.NoError(t, store.DestroyEntity(ids[0]))
}
