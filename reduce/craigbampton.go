package reduce

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/flexkit/beamreduce/assembly"
)

// Fidelity states how the reduction was obtained, so callers can tell a
// full Craig-Bampton result from a degraded Guyan-only one without parsing
// warning text.
type Fidelity uint8

const (
	// FidelityFull means the requested fixed-interface modes were obtained.
	FidelityFull Fidelity = iota
	// FidelityGuyanOnly means the modal stage returned no modes, either by
	// request (zero modes) or as an eigensolver-failure fallback.
	FidelityGuyanOnly
)

func (f Fidelity) String() string {
	switch f {
	case FidelityFull:
		return "craig-bampton"
	case FidelityGuyanOnly:
		return "guyan-only"
	}
	return fmt.Sprintf("Fidelity(%d)", uint8(f))
}

// Result is the reduced model bundle: the Craig-Bampton transformation and
// reduced pair, the Guyan-only artifacts retained for diagnostic comparison,
// the partition, and reduction statistics. It is created once per reduction
// call and not mutated afterwards.
type Result struct {
	T *mat.Dense // full × (master + modes), original DOF row ordering
	K *mat.Dense // reduced stiffness TᵀKT
	M *mat.Dense // reduced mass TᵀMT

	Guyan     *Guyan
	Modal     *Modal // nil when the modal stage failed outright
	Partition *Partition

	ModesUsed      int
	Frequencies    []float64 // Hz, ascending
	Fidelity       Fidelity
	FullSize       int
	ReducedSize    int
	ReductionRatio float64 // ReducedSize / FullSize

	Warnings []Warning
}

// CraigBampton reduces the assembled pair (K, M) over the given partition.
// modes may be a positive count, 0 for pure Guyan, or AutoModes for the
// default policy. Symmetry of K and M is validated up front; eigensolver
// failure degrades the result to Guyan-only rather than aborting.
func CraigBampton(K, M *mat.Dense, p *Partition, modes int) (*Result, error) {
	if dev := assembly.SymmetryDeviation(K); dev > assembly.SymTol {
		return nil, fmt.Errorf("stiffness deviation %.3e: %w", dev, assembly.ErrAsymmetric)
	}
	if dev := assembly.SymmetryDeviation(M); dev > assembly.SymTol {
		return nil, fmt.Errorf("mass deviation %.3e: %w", dev, assembly.ErrAsymmetric)
	}

	full, _ := K.Dims()
	res := &Result{
		Partition: p,
		FullSize:  full,
	}
	res.Warnings = append(res.Warnings, p.Warnings...)

	b := PartitionMatrices(K, M, p)
	res.Warnings = append(res.Warnings, b.Warnings...)

	g, err := Condense(K, M, b, p)
	if err != nil {
		return nil, err
	}
	res.Guyan = g
	res.Warnings = append(res.Warnings, g.Warnings...)

	mo, err := FixedInterfaceModes(b, modes)
	if err != nil {
		// Recoverable: proceed with the static condensation alone.
		res.Warnings = append(res.Warnings,
			warnf("modal", "eigensolve failed (%v); falling back to Guyan-only reduction", err))
		mo = nil
	} else {
		res.Modal = mo
		res.Warnings = append(res.Warnings, mo.Warnings...)
	}

	nm := len(p.Master)
	if mo == nil || mo.Used == 0 {
		// T degenerates to the pure Guyan transformation.
		res.Fidelity = FidelityGuyanOnly
		res.T = g.T
		res.K = g.K
		res.M = g.M
		res.ModesUsed = 0
	} else {
		res.Fidelity = FidelityFull
		res.ModesUsed = mo.Used
		res.Frequencies = append([]float64(nil), mo.Frequencies...)

		// T_CB = [[I, 0], [X, Φ]] in original DOF row ordering: master rows
		// carry only the identity block, slave rows carry the static
		// recovery block and the modal basis.
		t := mat.NewDense(full, nm+mo.Used, nil)
		for j, pos := range p.Master {
			t.Set(pos, j, 1)
		}
		for i, pos := range p.Slave {
			for j := 0; j < nm; j++ {
				t.Set(pos, j, g.X.At(i, j))
			}
			for j := 0; j < mo.Used; j++ {
				t.Set(pos, nm+j, mo.Shapes.At(i, j))
			}
		}
		res.T = t
		res.K = congruence(K, t)
		res.M = congruence(M, t)
	}

	res.ReducedSize = nm + res.ModesUsed
	res.ReductionRatio = float64(res.ReducedSize) / float64(full)
	return res, nil
}
