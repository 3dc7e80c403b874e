package reduce

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/flexkit/beamreduce/model"
)

// Warning is a non-fatal condition reported by a pipeline stage. Warnings
// are data carried on results, not log lines, so callers can inspect them
// programmatically.
type Warning struct {
	Stage   string
	Message string
}

func (w Warning) String() string {
	return w.Stage + ": " + w.Message
}

func warnf(stage, format string, args ...interface{}) Warning {
	return Warning{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// Structural partition errors. These abort the reduction call.
var (
	ErrEmptyMaster          = errors.New("master partition is empty")
	ErrEmptySlave           = errors.New("slave partition is empty")
	ErrUnknownInterfaceNode = errors.New("interface node not in node table")
)

// BlockSymTol is the relative tolerance on the cross-block symmetry check
// ‖Ksm − Kmsᵀ‖ / ‖Kss‖. Violation is a consistency warning, not a failure.
const BlockSymTol = 1e-10

// Partition is the disjoint, exhaustive master/slave split of the DOF index
// set. Master holds the positions of each interface node's Ux, Uy, Rz DOFs
// in caller-declared node order; Slave holds every remaining position in
// DOF-set order.
type Partition struct {
	Master []int
	Slave  []int

	InterfaceNodes  []int        // interface node IDs, caller order
	InterfaceCoords [][3]float64 // coordinate per interface node

	Warnings []Warning
}

// PartitionDOFs splits the DOF set by interface node IDs. An interface node
// absent from the node table is a structural failure; a node present in the
// table but with no DOF in the set (fully eliminated by constraints) is
// skipped with a warning. An empty master or slave set is a failure:
// reduction is undefined in that case.
func PartitionDOFs(dofs *model.DOFSet, interfaceNodes []int, nodes []model.Node) (*Partition, error) {
	nodeByID := make(map[int]model.Node, len(nodes))
	for _, n := range nodes {
		nodeByID[n.ID] = n
	}

	p := &Partition{}
	inMaster := make(map[int]struct{})
	for _, nid := range interfaceNodes {
		n, ok := nodeByID[nid]
		if !ok {
			return nil, fmt.Errorf("node %d: %w", nid, ErrUnknownInterfaceNode)
		}
		var found int
		for _, c := range model.BeamComponents {
			if pos, ok := dofs.Index(model.DOF{Node: nid, Component: c}); ok {
				p.Master = append(p.Master, pos)
				inMaster[pos] = struct{}{}
				found++
			}
		}
		if found == 0 {
			p.Warnings = append(p.Warnings,
				warnf("partition", "interface node %d has no DOF in the assembled set; skipped", nid))
			continue
		}
		p.InterfaceNodes = append(p.InterfaceNodes, nid)
		p.InterfaceCoords = append(p.InterfaceCoords, n.Coord())
	}

	for i := 0; i < dofs.Len(); i++ {
		if _, ok := inMaster[i]; !ok {
			p.Slave = append(p.Slave, i)
		}
	}

	if len(p.Master) == 0 {
		return nil, ErrEmptyMaster
	}
	if len(p.Slave) == 0 {
		return nil, ErrEmptySlave
	}
	return p, nil
}

// Blocks are the four stiffness and four mass blocks implied by the
// master/slave split, produced by index-set row/column selection.
type Blocks struct {
	Kmm, Kms, Ksm, Kss *mat.Dense
	Mmm, Mms, Msm, Mss *mat.Dense

	Warnings []Warning
}

// PartitionMatrices slices K and M into their partition blocks. Cross-block
// symmetry (Ksm against Kmsᵀ) is checked against BlockSymTol; violation is
// reported as a model-consistency warning since the assembled matrices were
// already validated for symmetry.
func PartitionMatrices(K, M *mat.Dense, p *Partition) *Blocks {
	b := &Blocks{
		Kmm: slice(K, p.Master, p.Master),
		Kms: slice(K, p.Master, p.Slave),
		Ksm: slice(K, p.Slave, p.Master),
		Kss: slice(K, p.Slave, p.Slave),
		Mmm: slice(M, p.Master, p.Master),
		Mms: slice(M, p.Master, p.Slave),
		Msm: slice(M, p.Slave, p.Master),
		Mss: slice(M, p.Slave, p.Slave),
	}

	ref := mat.Norm(b.Kss, 2)
	if ref > 0 {
		var diff mat.Dense
		diff.Sub(b.Ksm, b.Kms.T())
		if dev := mat.Norm(&diff, 2) / ref; dev > BlockSymTol {
			b.Warnings = append(b.Warnings,
				warnf("partition", "cross-block symmetry deviation %.3e exceeds %.0e", dev, BlockSymTol))
		}
	}
	return b
}

func slice(a *mat.Dense, rows, cols []int) *mat.Dense {
	out := mat.NewDense(len(rows), len(cols), nil)
	for i, r := range rows {
		for j, c := range cols {
			out.Set(i, j, a.At(r, c))
		}
	}
	return out
}
