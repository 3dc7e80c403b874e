package assembly

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/flexkit/beamreduce/model"
)

// Constraint-elimination errors.
var (
	ErrUnknownDOF        = errors.New("constraint references DOF not in set")
	ErrChainedConstraint = errors.New("constraint chains through an eliminated DOF")
	ErrDuplicateSlave    = errors.New("DOF eliminated by more than one constraint")
)

// Eliminate enforces slave = master equality constraints on the assembled
// system. Each slave DOF is removed from the DOF set and its rows/columns
// are folded onto its master via the congruence K' = Gᵀ K G, where G maps
// the retained DOFs back to the full set. The input system is not mutated.
//
// Only the simple equality form emitted by revolute preprocessing is
// supported: unit coefficients, zero right-hand side, no chains (a master
// may not itself be a slave of another constraint).
func Eliminate(sys *System, cons []model.Constraint) (*System, error) {
	if len(cons) == 0 {
		return sys, nil
	}

	masterOf := make(map[model.DOF]model.DOF, len(cons))
	for _, c := range cons {
		ms, sl := c.Master(), c.Slave()
		if _, ok := sys.DOFs.Index(ms); !ok {
			return nil, fmt.Errorf("master %s: %w", ms, ErrUnknownDOF)
		}
		if _, ok := sys.DOFs.Index(sl); !ok {
			return nil, fmt.Errorf("slave %s: %w", sl, ErrUnknownDOF)
		}
		if _, ok := masterOf[sl]; ok {
			return nil, fmt.Errorf("%s: %w", sl, ErrDuplicateSlave)
		}
		masterOf[sl] = ms
	}
	for sl, ms := range masterOf {
		if _, ok := masterOf[ms]; ok {
			return nil, fmt.Errorf("%s -> %s: %w", sl, ms, ErrChainedConstraint)
		}
	}

	// Retained DOFs keep their original relative order.
	var kept []model.DOF
	for i := 0; i < sys.DOFs.Len(); i++ {
		d := sys.DOFs.At(i)
		if _, eliminated := masterOf[d]; !eliminated {
			kept = append(kept, d)
		}
	}
	reduced, err := model.NewDOFSet(kept)
	if err != nil {
		return nil, err
	}

	// G is full × kept: every full DOF maps to the kept column it folds into.
	full := sys.DOFs.Len()
	g := mat.NewDense(full, reduced.Len(), nil)
	for i := 0; i < full; i++ {
		d := sys.DOFs.At(i)
		if ms, eliminated := masterOf[d]; eliminated {
			d = ms
		}
		col, _ := reduced.Index(d)
		g.Set(i, col, 1)
	}

	var tmp, k, m mat.Dense
	tmp.Mul(sys.K, g)
	k.Mul(g.T(), &tmp)
	tmp.Reset()
	tmp.Mul(sys.M, g)
	m.Mul(g.T(), &tmp)

	return &System{K: &k, M: &m, DOFs: reduced}, nil
}
