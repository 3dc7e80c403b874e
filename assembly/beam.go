package assembly

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/flexkit/beamreduce/model"
)

// beamDOFs is the number of DOFs of a 2-node 2D beam element:
// (Ux, Uy, Rz) at each end.
const beamDOFs = 6

// BeamMatrices holds one element's stiffness and mass in the global frame,
// ordered (Ux1, Uy1, Rz1, Ux2, Uy2, Rz2).
type BeamMatrices struct {
	K *mat.Dense
	M *mat.Dense
	L float64 // element length
}

// BeamKM computes the Euler-Bernoulli stiffness and consistent-mass matrices
// of a linear-elastic beam between n1 and n2, rotated into the global frame.
func BeamKM(n1, n2 model.Node, sec model.Section, mtl model.Material) (*BeamMatrices, error) {
	dx := n2.X - n1.X
	dy := n2.Y - n1.Y
	l := math.Sqrt(dx*dx + dy*dy)
	if l <= 0 || math.IsNaN(l) {
		return nil, fmt.Errorf("beam between nodes %d and %d has zero length: %w",
			n1.ID, n2.ID, model.ErrBadProperty)
	}
	c := dx / l
	s := dy / l

	// Local-to-global rotation. Rz is invariant under in-plane rotation.
	t := mat.NewDense(beamDOFs, beamDOFs, nil)
	t.Set(0, 0, c)
	t.Set(0, 1, s)
	t.Set(1, 0, -s)
	t.Set(1, 1, c)
	t.Set(2, 2, 1)
	t.Set(3, 3, c)
	t.Set(3, 4, s)
	t.Set(4, 3, -s)
	t.Set(4, 4, c)
	t.Set(5, 5, 1)

	// axial EA/l and bending EI/l³ stiffness scales
	ll := l * l
	a := mtl.E * sec.Area / l
	b := mtl.E * sec.Izz / (ll * l)

	kl := mat.NewDense(beamDOFs, beamDOFs, []float64{
		a, 0, 0, -a, 0, 0,
		0, 12 * b, 6 * l * b, 0, -12 * b, 6 * l * b,
		0, 6 * l * b, 4 * ll * b, 0, -6 * l * b, 2 * ll * b,
		-a, 0, 0, a, 0, 0,
		0, -12 * b, -6 * l * b, 0, 12 * b, -6 * l * b,
		0, 6 * l * b, 2 * ll * b, 0, -6 * l * b, 4 * ll * b,
	})

	w := mtl.Rho * sec.Area * l / 420.0
	ml := mat.NewDense(beamDOFs, beamDOFs, []float64{
		140 * w, 0, 0, 70 * w, 0, 0,
		0, 156 * w, 22 * l * w, 0, 54 * w, -13 * l * w,
		0, 22 * l * w, 4 * ll * w, 0, 13 * l * w, -3 * ll * w,
		70 * w, 0, 0, 140 * w, 0, 0,
		0, 54 * w, 13 * l * w, 0, 156 * w, -22 * l * w,
		0, -13 * l * w, -3 * ll * w, 0, -22 * l * w, 4 * ll * w,
	})

	// K = Tᵀ Kl T, M = Tᵀ Ml T
	var tmp, kg, mg mat.Dense
	tmp.Mul(kl, t)
	kg.Mul(t.T(), &tmp)
	tmp.Reset()
	tmp.Mul(ml, t)
	mg.Mul(t.T(), &tmp)

	return &BeamMatrices{K: &kg, M: &mg, L: l}, nil
}
