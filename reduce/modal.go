package reduce

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// AutoModes requests the default mode count: 10% of the slave DOF count,
// floor 1, cap 20. A count of exactly 0 requests a pure Guyan reduction.
const AutoModes = -1

// massRegularization is the identity multiple added to an ill-conditioned
// Mss before factorization.
const massRegularization = 1e-10

// Modal holds the fixed-interface vibration modes of the slave block:
// eigenpairs of Kss·φ = λ·Mss·φ with the interface rigidly fixed, sorted by
// ascending eigenvalue and mass-normalized (ΦᵀMssΦ = I).
type Modal struct {
	Shapes      *mat.Dense // slave × Used
	Values      []float64  // eigenvalues, ascending
	Frequencies []float64  // Hz, sqrt(|λ|)/2π

	Requested int // count asked for (after defaulting)
	Used      int // count actually returned

	Warnings []Warning
}

// DefaultModeCount returns the mode count policy for an unspecified request.
func DefaultModeCount(slaveDOFs int) int {
	n := slaveDOFs / 10
	if n < 1 {
		n = 1
	}
	if n > 20 {
		n = 20
	}
	return n
}

// FixedInterfaceModes solves the slave-block generalized eigenproblem for
// the requested number of smallest eigenpairs. The request is clamped to the
// slave DOF count. An error return means the eigensolve failed outright;
// callers treat that as recoverable and degrade to a Guyan-only reduction.
func FixedInterfaceModes(b *Blocks, requested int) (*Modal, error) {
	ns, _ := b.Kss.Dims()
	m := &Modal{}

	if requested == AutoModes {
		requested = DefaultModeCount(ns)
	}
	if requested < 0 {
		return nil, fmt.Errorf("negative mode count %d", requested)
	}
	if requested > ns {
		requested = ns
	}
	m.Requested = requested
	if requested == 0 {
		return m, nil
	}

	// Regularize an ill-conditioned mass block before factorizing.
	mss := b.Mss
	if rc := rcond(mss); rc < CondTol {
		m.Warnings = append(m.Warnings,
			warnf("modal", "Mss reciprocal condition %.3e below %.0e; regularizing with %.0e·I", rc, CondTol, massRegularization))
		var reg mat.Dense
		reg.CloneFrom(mss)
		for i := 0; i < ns; i++ {
			reg.Set(i, i, reg.At(i, i)+massRegularization)
		}
		mss = &reg
	}

	// Reduce Kss·φ = λ·Mss·φ to standard symmetric form via Mss = LLᵀ:
	// A = L⁻¹ Kss L⁻ᵀ has the same eigenvalues, and φ = L⁻ᵀ y.
	var chol mat.Cholesky
	if ok := chol.Factorize(denseToSym(mss)); !ok {
		return nil, fmt.Errorf("Mss Cholesky factorization failed")
	}
	var l mat.TriDense
	chol.LTo(&l)

	var lk mat.Dense // L⁻¹ Kss
	if err := lk.Solve(&l, b.Kss); err != nil {
		return nil, fmt.Errorf("triangular solve L·B = Kss: %w", err)
	}
	var at mat.Dense // L⁻¹ (L⁻¹ Kss)ᵀ = Aᵀ
	if err := at.Solve(&l, lk.T()); err != nil {
		return nil, fmt.Errorf("triangular solve L·C = Bᵀ: %w", err)
	}

	// Symmetrize roundoff before the symmetric eigensolver.
	sym := mat.NewSymDense(ns, nil)
	for i := 0; i < ns; i++ {
		for j := i; j < ns; j++ {
			sym.SetSym(i, j, 0.5*(at.At(i, j)+at.At(j, i)))
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(sym, true); !ok {
		return nil, fmt.Errorf("symmetric eigensolve did not converge")
	}
	vals := es.Values(nil) // ascending
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// Recover physical shapes: solve Lᵀ·φ = y. The y columns are
	// orthonormal, so the shapes come out mass-normalized.
	y := vecs.Slice(0, ns, 0, requested)
	var shapes mat.Dense
	if err := shapes.Solve(l.T(), y); err != nil {
		return nil, fmt.Errorf("mode shape recovery: %w", err)
	}

	m.Used = requested
	m.Shapes = &shapes
	m.Values = vals[:requested]
	m.Frequencies = make([]float64, requested)
	for i, v := range m.Values {
		// |λ| guards numerical noise near rigid-body modes.
		m.Frequencies[i] = math.Sqrt(math.Abs(v)) / (2 * math.Pi)
	}
	return m, nil
}

func denseToSym(a *mat.Dense) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return s
}
