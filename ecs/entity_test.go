package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityAllocatorSequential(t *testing.T) {
	a := newEntityAllocator(10)

	for want := EntityId(0); want < 3; want++ {
		id, err := a.create()
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
	assert.Equal(t, 3, a.live())
}

func TestEntityAllocatorRecyclesLastFreedFirst(t *testing.T) {
	a := newEntityAllocator(10)
	for i := 0; i < 4; i++ {
		_, err := a.create()
		require.NoError(t, err)
	}

	a.destroy(1)
	a.destroy(3)

	id, err := a.create()
	require.NoError(t, err)
	assert.Equal(t, EntityId(3), id)

	id, err = a.create()
	require.NoError(t, err)
	assert.Equal(t, EntityId(1), id)

	id, err = a.create()
	require.NoError(t, err)
	assert.Equal(t, EntityId(4), id)
}

func TestEntityAllocatorCapacity(t *testing.T) {
	a := newEntityAllocator(2)

	_, err := a.create()
	require.NoError(t, err)
	_, err = a.create()
	require.NoError(t, err)

	id, err := a.create()
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, InvalidEntity, id)

	// Freed ids remain available at capacity.
	a.destroy(0)
	id, err = a.create()
	require.NoError(t, err)
	assert.Equal(t, EntityId(0), id)
}

func TestInvalidEntity(t *testing.T) {
	assert.False(t, InvalidEntity.Valid())
	assert.True(t, EntityId(0).Valid())
}
