package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pos struct{ X, Y int }
type vel struct{ DX, DY int }

func newTestGroup(t *testing.T) (*MultiSparseSet, *SparseSet[pos], *SparseSet[vel]) {
	t.Helper()
	p := NewSparseSet[pos](0)
	v := NewSparseSet[vel](1)
	ms := newMultiSparseSet(0, []ComponentTypeId{0, 1}, []iComponentStorage{p, v})
	return ms, p, v
}

func checkLockstep(t *testing.T, ms *MultiSparseSet) {
	t.Helper()
	checkIndex(t, &ms.index)
	for _, col := range ms.columns {
		assert.Equal(t, ms.Len(), col.len())
	}
}

func TestMultiSparseSetInsertAndRemove(t *testing.T) {
	ms, _, _ := newTestGroup(t)
	cp, ok := columnOf[pos](ms, 0)
	require.True(t, ok)
	cv, ok := columnOf[vel](ms, 1)
	require.True(t, ok)

	for i := 0; i < 4; i++ {
		id := EntityId(i)
		require.NoError(t, ms.insertRow(id, func() {
			cp.data = append(cp.data, pos{X: i})
			cv.data = append(cv.data, vel{DX: i})
		}))
	}
	checkLockstep(t, ms)

	err := ms.insertRow(2, func() { t.Fatal("fill must not run for a duplicate") })
	assert.ErrorIs(t, err, ErrDuplicateComponent)

	assert.True(t, ms.Remove(0))
	assert.False(t, ms.Remove(0))
	assert.False(t, ms.Contains(0))
	checkLockstep(t, ms)

	for _, id := range ms.Entities() {
		row, err := ms.row(id)
		require.NoError(t, err)
		assert.Equal(t, int(id), cp.data[row].X)
		assert.Equal(t, int(id), cv.data[row].DX)
	}
}

func TestMultiSparseSetAbsorbRelease(t *testing.T) {
	ms, p, v := newTestGroup(t)
	pools := []iComponentStorage{p, v}

	require.NoError(t, p.Add(5, pos{X: 1, Y: 2}))
	require.NoError(t, v.Add(5, vel{DX: 3, DY: 4}))

	require.NoError(t, ms.absorb(5, pools))
	assert.True(t, ms.Contains(5))
	assert.False(t, p.Contains(5))
	assert.False(t, v.Contains(5))
	checkLockstep(t, ms)

	require.NoError(t, ms.release(5, pools))
	assert.False(t, ms.Contains(5))
	got, err := p.Get(5)
	require.NoError(t, err)
	assert.Equal(t, pos{X: 1, Y: 2}, *got)
	gotV, err := v.Get(5)
	require.NoError(t, err)
	assert.Equal(t, vel{DX: 3, DY: 4}, *gotV)
}

func TestMultiSparseSetAbsorbIsAllOrNothing(t *testing.T) {
	ms, p, v := newTestGroup(t)
	pools := []iComponentStorage{p, v}

	require.NoError(t, p.Add(9, pos{X: 1}))

	err := ms.absorb(9, pools)
	assert.ErrorIs(t, err, ErrCorruptState)
	assert.False(t, ms.Contains(9))
	assert.True(t, p.Contains(9), "nothing may move when a pool lacks the entity")
	checkLockstep(t, ms)
}
