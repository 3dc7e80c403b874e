package reduce

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/flexkit/beamreduce/assembly"
)

func reducedChain(t *testing.T, modes int) *Result {
	t.Helper()
	sys, nodes := chainSystem(t)
	p, err := PartitionDOFs(sys.DOFs, []int{1, 3}, nodes)
	require.NoError(t, err)
	res, err := CraigBampton(sys.K, sys.M, p, modes)
	require.NoError(t, err)
	return res
}

func TestCraigBamptonZeroModesEqualsGuyan(t *testing.T) {
	res := reducedChain(t, 0)

	assert.Equal(t, FidelityGuyanOnly, res.Fidelity)
	assert.Equal(t, 0, res.ModesUsed)
	assert.True(t, mat.Equal(res.K, res.Guyan.K), "K_CB must equal K_G exactly")
	assert.True(t, mat.Equal(res.M, res.Guyan.M), "M_CB must equal M_G exactly")
	assert.True(t, mat.Equal(res.T, res.Guyan.T))

	// 3 DOFs × 2 interface nodes.
	r, c := res.K.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 6, c)
	tr, tc := res.T.Dims()
	assert.Equal(t, 9, tr)
	assert.Equal(t, 6, tc)
	assert.Equal(t, 9, res.FullSize)
	assert.Equal(t, 6, res.ReducedSize)
	assert.InEpsilon(t, 6.0/9.0, res.ReductionRatio, 1e-12)
}

func TestCraigBamptonWithModes(t *testing.T) {
	res := reducedChain(t, 2)

	require.Equal(t, FidelityFull, res.Fidelity)
	require.Equal(t, 2, res.ModesUsed)
	require.NotNil(t, res.Modal)

	tr, tc := res.T.Dims()
	assert.Equal(t, 9, tr)
	assert.Equal(t, 8, tc)
	kr, kc := res.K.Dims()
	assert.Equal(t, 8, kr)
	assert.Equal(t, 8, kc)

	assert.LessOrEqual(t, assembly.SymmetryDeviation(res.K), 1e-8)
	assert.LessOrEqual(t, assembly.SymmetryDeviation(res.M), 1e-8)

	// Frequencies non-negative and ascending.
	require.Len(t, res.Frequencies, 2)
	assert.True(t, sort.Float64sAreSorted(res.Frequencies))
	for _, f := range res.Frequencies {
		assert.GreaterOrEqual(t, f, 0.0)
	}

	// The static block of the reduced pair equals the Guyan pair, the modal
	// diagonal carries λ in K and 1 in M, and the static/modal coupling in
	// K vanishes (modes are Kss-orthogonal to the static shapes).
	nm := len(res.Partition.Master)
	ref := mat.Norm(res.Guyan.K, 2)
	for i := 0; i < nm; i++ {
		for j := 0; j < nm; j++ {
			assert.InDelta(t, res.Guyan.K.At(i, j), res.K.At(i, j), 1e-9*ref)
		}
	}
	for i := 0; i < res.ModesUsed; i++ {
		assert.InDelta(t, res.Modal.Values[i], res.K.At(nm+i, nm+i), 1e-8*ref)
		assert.InDelta(t, 1.0, res.M.At(nm+i, nm+i), 1e-8)
		for j := 0; j < nm; j++ {
			assert.InDelta(t, 0, res.K.At(nm+i, j), 1e-8*ref)
		}
	}

	assert.Equal(t, 8, res.ReducedSize)
	assert.InEpsilon(t, 8.0/9.0, res.ReductionRatio, 1e-12)
}

func TestCraigBamptonModesClamped(t *testing.T) {
	// Requesting more modes than slave DOFs clamps without error.
	res := reducedChain(t, 50)
	assert.Equal(t, 3, res.ModesUsed)
	assert.Equal(t, 9, res.ReducedSize)
	assert.InEpsilon(t, 1.0, res.ReductionRatio, 1e-12)
}

func TestCraigBamptonReductionRatioRange(t *testing.T) {
	for _, modes := range []int{0, 1, 2, 3, AutoModes} {
		res := reducedChain(t, modes)
		assert.Greater(t, res.ReductionRatio, 0.0)
		assert.LessOrEqual(t, res.ReductionRatio, 1.0)
	}
}

func TestCraigBamptonRejectsAsymmetricInput(t *testing.T) {
	sys, nodes := chainSystem(t)
	p, err := PartitionDOFs(sys.DOFs, []int{1, 3}, nodes)
	require.NoError(t, err)

	var bad mat.Dense
	bad.CloneFrom(sys.K)
	bad.Set(0, 1, bad.At(0, 1)+mat.Norm(sys.K, 2))

	_, err = CraigBampton(&bad, sys.M, p, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, assembly.ErrAsymmetric)
}

func TestCraigBamptonCollectsWarnings(t *testing.T) {
	// A singular Kss propagates the Guyan pseudo-inverse warning up to the
	// result. Build a free chain of two disconnected axial springs where the
	// slave block is truly singular: use a doctored stiffness instead.
	sys, nodes := chainSystem(t)
	p, err := PartitionDOFs(sys.DOFs, []int{1, 3}, nodes)
	require.NoError(t, err)

	var k mat.Dense
	k.CloneFrom(sys.K)
	// Zero the slave block rows/columns: every slave DOF loses its
	// stiffness coupling, leaving Kss singular but K still symmetric.
	for _, i := range p.Slave {
		for j := 0; j < 9; j++ {
			k.Set(i, j, 0)
			k.Set(j, i, 0)
		}
	}

	res, err := CraigBampton(&k, sys.M, p, 0)
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	found := false
	for _, w := range res.Warnings {
		if w.Stage == "guyan" {
			found = true
		}
	}
	assert.True(t, found, "guyan warning must surface on the result")
}
