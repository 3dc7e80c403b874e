package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexkit/beamreduce/model"
)

func TestEliminateNoConstraints(t *testing.T) {
	nodes, elems, secs, mtls := chainParts()
	sys, err := Assemble(nodes, elems, secs, mtls)
	require.NoError(t, err)

	out, err := Eliminate(sys, nil)
	require.NoError(t, err)
	assert.Same(t, sys, out)
}

func TestEliminateFoldsSlaveOntoMaster(t *testing.T) {
	nodes, elems, secs, mtls := chainParts()
	sys, err := Assemble(nodes, elems, secs, mtls)
	require.NoError(t, err)

	master := model.DOF{Node: 1, Component: model.CompUx}
	slave := model.DOF{Node: 3, Component: model.CompUx}
	out, err := Eliminate(sys, []model.Constraint{
		model.NewEqualityConstraint(master, slave),
	})
	require.NoError(t, err)

	require.Equal(t, 8, out.Size())
	_, ok := out.DOFs.Index(slave)
	assert.False(t, ok, "slave DOF must be removed")
	mi, ok := out.DOFs.Index(master)
	require.True(t, ok)

	// Folded diagonal: K'[m,m] = K[m,m] + K[s,s] + 2K[m,s].
	im, _ := sys.DOFs.Index(master)
	is, _ := sys.DOFs.Index(slave)
	want := sys.K.At(im, im) + sys.K.At(is, is) + 2*sys.K.At(im, is)
	assert.InEpsilon(t, want, out.K.At(mi, mi), 1e-12)

	assert.LessOrEqual(t, SymmetryDeviation(out.K), SymTol)
	assert.LessOrEqual(t, SymmetryDeviation(out.M), SymTol)

	// Retained DOFs keep their original relative order.
	var prev int
	for i := 0; i < out.DOFs.Len(); i++ {
		pos, ok := sys.DOFs.Index(out.DOFs.At(i))
		require.True(t, ok)
		if i > 0 {
			assert.Greater(t, pos, prev)
		}
		prev = pos
	}
}

func TestEliminateErrors(t *testing.T) {
	nodes, elems, secs, mtls := chainParts()
	sys, err := Assemble(nodes, elems, secs, mtls)
	require.NoError(t, err)

	d := func(n int, c model.Component) model.DOF { return model.DOF{Node: n, Component: c} }

	t.Run("unknown master", func(t *testing.T) {
		_, err := Eliminate(sys, []model.Constraint{
			model.NewEqualityConstraint(d(42, model.CompUx), d(3, model.CompUx)),
		})
		assert.ErrorIs(t, err, ErrUnknownDOF)
	})
	t.Run("unknown slave", func(t *testing.T) {
		_, err := Eliminate(sys, []model.Constraint{
			model.NewEqualityConstraint(d(1, model.CompUx), d(42, model.CompUx)),
		})
		assert.ErrorIs(t, err, ErrUnknownDOF)
	})
	t.Run("duplicate slave", func(t *testing.T) {
		_, err := Eliminate(sys, []model.Constraint{
			model.NewEqualityConstraint(d(1, model.CompUx), d(3, model.CompUx)),
			model.NewEqualityConstraint(d(2, model.CompUx), d(3, model.CompUx)),
		})
		assert.ErrorIs(t, err, ErrDuplicateSlave)
	})
	t.Run("chained", func(t *testing.T) {
		_, err := Eliminate(sys, []model.Constraint{
			model.NewEqualityConstraint(d(2, model.CompUx), d(3, model.CompUx)),
			model.NewEqualityConstraint(d(3, model.CompUx), d(1, model.CompUx)),
		})
		assert.ErrorIs(t, err, ErrChainedConstraint)
	})
}
