package ecs

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreStats(t *testing.T) {
	store := NewStore(nil)
	require.NoError(t, RegisterComponent[int](store))
	require.NoError(t, RegisterComponent[string](store))
	require.NoError(t, RegisterComponent[float64](store))

	stats := store.CollectStats()
	assert.Equal(t, 0, stats.EntityCount)
	assert.Equal(t, 3, stats.ComponentTypes)
	assert.Equal(t, 0, stats.GroupCount)

	require.NoError(t, RegisterGroup2[int, string](store))

	for i := 0; i < 3; i++ {
		id, err := store.CreateEntity()
		require.NoError(t, err)
		require.NoError(t, AddComponent(store, id, i))
		if i > 0 {
			require.NoError(t, AddComponent(store, id, "name"))
		}
	}
	id, err := store.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, AddComponent(store, id, 2.5))
	require.NoError(t, store.DestroyEntity(id))

	stats = store.CollectStats()
	assert.Equal(t, 3, stats.EntityCount)
	assert.Equal(t, uint64(4), stats.HighWater)
	assert.Equal(t, 1, stats.FreeIds)
	assert.Equal(t, []PoolStats{
		{Id: 0, Name: "int", Count: 1},
		{Id: 1, Name: "string", Count: 0},
		{Id: 2, Name: "float64", Count: 0},
	}, stats.Pools)
	require.Len(t, stats.Groups, 1)
	assert.Equal(t, GroupStats{Id: 0, Components: []string{"int", "string"}, Count: 2}, stats.Groups[0])
}

func TestLogStats(t *testing.T) {
	var buf bytes.Buffer
	store := NewStore(nil, WithLogger(zerolog.New(&buf)))
	require.NoError(t, RegisterComponent[int](store))
	buf.Reset()

	store.LogStats(zerolog.InfoLevel)

	out := buf.String()
	assert.Contains(t, out, `"total_entities":0`)
	assert.Contains(t, out, `"component_name":"int"`)
	assert.Contains(t, out, `"message":"store stats"`)
}
