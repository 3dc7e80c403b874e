package model

import (
	"fmt"
)

// Component identifies one of the six nodal motion components.
type Component uint8

const (
	CompUx Component = 1 // translation along x
	CompUy Component = 2 // translation along y
	CompUz Component = 3 // translation along z
	CompRx Component = 4 // rotation about x
	CompRy Component = 5 // rotation about y
	CompRz Component = 6 // rotation about z
)

var componentNames = map[Component]string{
	CompUx: "Ux",
	CompUy: "Uy",
	CompUz: "Uz",
	CompRx: "Rx",
	CompRy: "Ry",
	CompRz: "Rz",
}

func (c Component) String() string {
	if n, ok := componentNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Component(%d)", uint8(c))
}

// Valid reports whether c is one of the six defined component codes.
func (c Component) Valid() bool {
	return c >= CompUx && c <= CompRz
}

// BeamComponents are the components that survive 2D beam assembly, in the
// fixed per-node order used throughout the pipeline.
var BeamComponents = [3]Component{CompUx, CompUy, CompRz}

// DOF identifies one scalar motion component at a node. It is a comparable
// value type: two DOFs are the same degree of freedom exactly when their
// struct values are equal. No floating-point encoding is involved.
type DOF struct {
	Node      int
	Component Component
}

// Key packs the DOF into a single integer that total-orders the same way as
// (Node, Component) and round-trips exactly through DOFFromKey.
func (d DOF) Key() int64 {
	return int64(d.Node)<<3 | int64(d.Component)
}

// DOFFromKey recovers the (node, component) pair packed by Key.
func DOFFromKey(k int64) DOF {
	return DOF{Node: int(k >> 3), Component: Component(k & 7)}
}

func (d DOF) String() string {
	return fmt.Sprintf("node %d %s", d.Node, d.Component)
}

// DOFSet is an ordered sequence of distinct DOFs paired with a reverse lookup
// from DOF to position. Matrix rows and columns are positionally keyed to the
// sequence, so the order established at assembly time is preserved verbatim
// and carried alongside every matrix instead of being reconstructed.
type DOFSet struct {
	dofs  []DOF
	index map[DOF]int
}

// NewDOFSet builds a DOFSet from an ordered DOF sequence. The sequence must
// not contain duplicate (node, component) pairs.
func NewDOFSet(dofs []DOF) (*DOFSet, error) {
	s := &DOFSet{
		dofs:  make([]DOF, len(dofs)),
		index: make(map[DOF]int, len(dofs)),
	}
	copy(s.dofs, dofs)
	for i, d := range s.dofs {
		if !d.Component.Valid() {
			return nil, fmt.Errorf("DOF %d: invalid component code %d", i, d.Component)
		}
		if prev, ok := s.index[d]; ok {
			return nil, fmt.Errorf("duplicate DOF %s at positions %d and %d", d, prev, i)
		}
		s.index[d] = i
	}
	return s, nil
}

// Len returns the number of DOFs in the set.
func (s *DOFSet) Len() int { return len(s.dofs) }

// At returns the DOF at position i.
func (s *DOFSet) At(i int) DOF { return s.dofs[i] }

// Index returns the matrix position of d, or false if d is not in the set.
func (s *DOFSet) Index(d DOF) (int, bool) {
	i, ok := s.index[d]
	return i, ok
}

// DOFs returns a copy of the ordered sequence.
func (s *DOFSet) DOFs() []DOF {
	out := make([]DOF, len(s.dofs))
	copy(out, s.dofs)
	return out
}

// Subset returns the ordered positions of the given DOFs that are present in
// the set, plus the DOFs that had no match.
func (s *DOFSet) Subset(dofs []DOF) (positions []int, missing []DOF) {
	for _, d := range dofs {
		if i, ok := s.index[d]; ok {
			positions = append(positions, i)
		} else {
			missing = append(missing, d)
		}
	}
	return positions, missing
}
