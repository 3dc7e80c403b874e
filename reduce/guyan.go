package reduce

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CondTol is the reciprocal-condition threshold below which a block is
// treated as effectively singular.
const CondTol = 1e-12

// Guyan holds the static condensation artifacts: the transformation
// T = [I; −Kss⁻¹Ksm] expressed in original DOF ordering (full × master),
// the condensed pair K = TᵀKT, M = TᵀMT, and the slave-recovery block X.
type Guyan struct {
	T *mat.Dense // full × master, original row ordering
	K *mat.Dense // master × master
	M *mat.Dense // master × master
	X *mat.Dense // slave × master, X = −Kss⁻¹Ksm

	Warnings []Warning
}

// Condense eliminates the slave DOFs assuming zero slave inertial force.
// Kss is solved directly unless its reciprocal condition estimate falls
// below CondTol, in which case a pseudo-inverse is used and a warning is
// recorded; singular Kss can legitimately occur near mechanisms and must
// not abort the reduction.
func Condense(K, M *mat.Dense, b *Blocks, p *Partition) (*Guyan, error) {
	g := &Guyan{}

	rc := rcond(b.Kss)
	var x mat.Dense
	if rc < CondTol {
		g.Warnings = append(g.Warnings,
			warnf("guyan", "Kss reciprocal condition %.3e below %.0e; using pseudo-inverse", rc, CondTol))
		if err := pinvSolve(&x, b.Kss, b.Ksm); err != nil {
			return nil, fmt.Errorf("guyan: pseudo-inverse of Kss: %w", err)
		}
	} else {
		if err := x.Solve(b.Kss, b.Ksm); err != nil {
			g.Warnings = append(g.Warnings,
				warnf("guyan", "direct solve of Kss failed (%v); using pseudo-inverse", err))
			if err := pinvSolve(&x, b.Kss, b.Ksm); err != nil {
				return nil, fmt.Errorf("guyan: pseudo-inverse of Kss: %w", err)
			}
		}
	}
	x.Scale(-1, &x)
	g.X = &x

	full, _ := K.Dims()
	nm := len(p.Master)
	g.T = mat.NewDense(full, nm, nil)
	for j, pos := range p.Master {
		g.T.Set(pos, j, 1)
	}
	for i, pos := range p.Slave {
		for j := 0; j < nm; j++ {
			g.T.Set(pos, j, x.At(i, j))
		}
	}

	g.K = congruence(K, g.T)
	g.M = congruence(M, g.T)
	return g, nil
}

// congruence computes Tᵀ A T.
func congruence(a, t *mat.Dense) *mat.Dense {
	var tmp, out mat.Dense
	tmp.Mul(a, t)
	out.Mul(t.T(), &tmp)
	return &out
}

// rcond estimates the reciprocal condition number of a square matrix in the
// 1-norm. A singular matrix yields 0.
func rcond(a *mat.Dense) float64 {
	c := mat.Cond(a, 1)
	if c == 0 {
		return 0
	}
	return 1 / c
}

// pinvSolve computes dst = pinv(a) · b through a thin SVD, truncating
// singular values below 1e-12 of the largest.
func pinvSolve(dst *mat.Dense, a, b *mat.Dense) error {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return fmt.Errorf("SVD factorization did not converge")
	}
	vals := svd.Values(nil)
	rank := 0
	for _, s := range vals {
		if s > vals[0]*1e-12 {
			rank++
		}
	}
	ar, _ := a.Dims()
	_, bc := b.Dims()
	if rank == 0 {
		dst.ReuseAs(ar, bc)
		dst.Zero()
		return nil
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// dst = V Σ⁻¹ Uᵀ b over the retained rank.
	var utb mat.Dense
	utb.Mul(u.T(), b)
	for i := 0; i < rank; i++ {
		for j := 0; j < bc; j++ {
			utb.Set(i, j, utb.At(i, j)/vals[i])
		}
	}
	vk := v.Slice(0, ar, 0, rank)
	dst.Mul(vk, utb.Slice(0, rank, 0, bc))
	return nil
}
