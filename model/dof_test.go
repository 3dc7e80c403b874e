package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDOFKeyRoundTrip(t *testing.T) {
	nodes := []int{1, 2, 7, 100, 12345, 1 << 30}
	for _, n := range nodes {
		for c := CompUx; c <= CompRz; c++ {
			d := DOF{Node: n, Component: c}
			got := DOFFromKey(d.Key())
			require.Equal(t, d, got, "round trip of %s", d)
		}
	}
}

func TestDOFKeyTotalOrder(t *testing.T) {
	// Key ordering must match lexicographic (node, component) ordering.
	var prev int64 = -1
	for _, n := range []int{1, 2, 3, 50} {
		for c := CompUx; c <= CompRz; c++ {
			k := DOF{Node: n, Component: c}.Key()
			require.Greater(t, k, prev, "keys must strictly increase")
			prev = k
		}
	}
}

func TestComponentValid(t *testing.T) {
	assert.False(t, Component(0).Valid())
	assert.False(t, Component(7).Valid())
	for c := CompUx; c <= CompRz; c++ {
		assert.True(t, c.Valid())
	}
}

func TestNewDOFSet(t *testing.T) {
	dofs := []DOF{
		{Node: 1, Component: CompUx},
		{Node: 1, Component: CompUy},
		{Node: 1, Component: CompRz},
		{Node: 2, Component: CompUx},
	}
	s, err := NewDOFSet(dofs)
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())

	for i, d := range dofs {
		assert.Equal(t, d, s.At(i))
		pos, ok := s.Index(d)
		require.True(t, ok)
		assert.Equal(t, i, pos)
	}

	_, ok := s.Index(DOF{Node: 2, Component: CompUy})
	assert.False(t, ok)
}

func TestNewDOFSetRejectsDuplicates(t *testing.T) {
	_, err := NewDOFSet([]DOF{
		{Node: 1, Component: CompUx},
		{Node: 1, Component: CompUx},
	})
	require.Error(t, err)
}

func TestNewDOFSetRejectsInvalidComponent(t *testing.T) {
	_, err := NewDOFSet([]DOF{{Node: 1, Component: Component(9)}})
	require.Error(t, err)
}

func TestDOFSetSubset(t *testing.T) {
	s, err := NewDOFSet([]DOF{
		{Node: 1, Component: CompUx},
		{Node: 2, Component: CompUy},
		{Node: 3, Component: CompRz},
	})
	require.NoError(t, err)

	pos, missing := s.Subset([]DOF{
		{Node: 3, Component: CompRz},
		{Node: 5, Component: CompUx},
		{Node: 1, Component: CompUx},
	})
	assert.Equal(t, []int{2, 0}, pos)
	require.Len(t, missing, 1)
	assert.Equal(t, DOF{Node: 5, Component: CompUx}, missing[0])
}

func TestDOFSetCopies(t *testing.T) {
	in := []DOF{{Node: 1, Component: CompUx}}
	s, err := NewDOFSet(in)
	require.NoError(t, err)

	in[0].Node = 99
	assert.Equal(t, 1, s.At(0).Node, "set must not alias caller slice")

	out := s.DOFs()
	out[0].Node = 42
	assert.Equal(t, 1, s.At(0).Node, "returned slice must be a copy")
}
