// Package assembly builds the full-model stiffness and mass matrices from
// elementwise beam definitions and eliminates the equality constraints
// generated by revolute preprocessing. Its output triple (K, M, DOF set) is
// consumed as-is by the reduction core; the DOF ordering established here is
// never reordered downstream.
package assembly

import (
	"errors"
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/flexkit/beamreduce/model"
)

// SymTol is the relative Frobenius tolerance beyond which an assembled
// matrix is rejected as asymmetric.
const SymTol = 1e-10

// ErrAsymmetric flags a matrix whose symmetry deviation exceeds SymTol.
var ErrAsymmetric = errors.New("matrix is not symmetric within tolerance")

// System is the assembled full-model pair with its DOF ordering.
type System struct {
	K    *mat.Dense
	M    *mat.Dense
	DOFs *model.DOFSet
}

// Size returns the DOF count of the system.
func (s *System) Size() int { return s.DOFs.Len() }

// Assemble builds the global K and M for the 2D beam DOF subset {Ux, Uy, Rz}.
// DOF ordering is node-table order, three DOFs per node in the fixed order
// Ux, Uy, Rz. Elementwise contributions are accumulated sparsely and the
// result is validated for symmetry before it is returned.
func Assemble(nodes []model.Node, elems []model.BeamElement,
	sections []model.Section, materials []model.Material) (*System, error) {

	nodeByID := make(map[int]model.Node, len(nodes))
	dofs := make([]model.DOF, 0, 3*len(nodes))
	for _, n := range nodes {
		nodeByID[n.ID] = n
		for _, c := range model.BeamComponents {
			dofs = append(dofs, model.DOF{Node: n.ID, Component: c})
		}
	}
	set, err := model.NewDOFSet(dofs)
	if err != nil {
		return nil, err
	}

	secByID := make(map[int]model.Section, len(sections))
	for _, s := range sections {
		secByID[s.ID] = s
	}
	mtlByID := make(map[int]model.Material, len(materials))
	for _, m := range materials {
		mtlByID[m.ID] = m
	}

	n := set.Len()
	kd := sparse.NewDOK(n, n)
	md := sparse.NewDOK(n, n)

	for _, e := range elems {
		if len(e.Nodes) != 2 {
			return nil, fmt.Errorf("element %d references %d nodes, beam assembly needs 2: %w",
				e.ID, len(e.Nodes), model.ErrBadNodeCount)
		}
		n1, ok := nodeByID[e.Nodes[0]]
		if !ok {
			return nil, fmt.Errorf("element %d references node %d: %w", e.ID, e.Nodes[0], model.ErrDanglingRef)
		}
		n2, ok := nodeByID[e.Nodes[1]]
		if !ok {
			return nil, fmt.Errorf("element %d references node %d: %w", e.ID, e.Nodes[1], model.ErrDanglingRef)
		}
		sec, ok := secByID[e.Section]
		if !ok {
			return nil, fmt.Errorf("element %d references section %d: %w", e.ID, e.Section, model.ErrDanglingRef)
		}
		mtl, ok := mtlByID[e.Material]
		if !ok {
			return nil, fmt.Errorf("element %d references material %d: %w", e.ID, e.Material, model.ErrDanglingRef)
		}

		bm, err := BeamKM(n1, n2, sec, mtl)
		if err != nil {
			return nil, err
		}

		// Assembly map: element-local row r -> global matrix position.
		umap := make([]int, beamDOFs)
		for m, nid := range e.Nodes {
			for i, c := range model.BeamComponents {
				pos, ok := set.Index(model.DOF{Node: nid, Component: c})
				if !ok {
					return nil, fmt.Errorf("element %d: no DOF for node %d %s", e.ID, nid, c)
				}
				umap[3*m+i] = pos
			}
		}
		for i, gi := range umap {
			for j, gj := range umap {
				if v := bm.K.At(i, j); v != 0 {
					kd.Set(gi, gj, kd.At(gi, gj)+v)
				}
				if v := bm.M.At(i, j); v != 0 {
					md.Set(gi, gj, md.At(gi, gj)+v)
				}
			}
		}
	}

	k := kd.ToCSR().ToDense()
	m := md.ToCSR().ToDense()

	if dev := SymmetryDeviation(k); dev > SymTol {
		return nil, fmt.Errorf("assembled K deviation %.3e: %w", dev, ErrAsymmetric)
	}
	if dev := SymmetryDeviation(m); dev > SymTol {
		return nil, fmt.Errorf("assembled M deviation %.3e: %w", dev, ErrAsymmetric)
	}
	return &System{K: k, M: m, DOFs: set}, nil
}

// SymmetryDeviation returns ‖A − Aᵀ‖_F / ‖A‖_F, or 0 for a zero matrix.
func SymmetryDeviation(a *mat.Dense) float64 {
	norm := mat.Norm(a, 2)
	if norm == 0 {
		return 0
	}
	var diff mat.Dense
	diff.Sub(a, a.T())
	return mat.Norm(&diff, 2) / norm
}
