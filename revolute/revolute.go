// Package revolute expands pin-joint specifications into the node
// duplications and equality constraints that emulate a revolute connection
// in a model built from rigid-jointed beam elements.
//
// A pin at node n touched by k elements becomes k copies of n: the first
// incident element keeps the original node, every other incident element is
// rewritten to reference a fresh duplicate, and each duplicate's Ux and Uy
// DOFs are tied back to the original's. Rz stays free on every copy, which
// is what makes the connection a hinge instead of a rigid joint.
package revolute

import (
	"fmt"

	"github.com/flexkit/beamreduce/model"
)

// Duplicate records one node copy made for a joint: element Element had its
// reference to Original rewritten to Clone.
type Duplicate struct {
	Original int
	Clone    int
	Element  int
}

// Result is the immutable output of Expand. Nodes and Elements are full
// copies of the input tables with duplications applied; the inputs are never
// touched.
type Result struct {
	Nodes       []model.Node
	Elements    []model.BeamElement
	Constraints []model.Constraint
	Duplicates  []Duplicate
	Warnings    []string
}

// idAllocator hands out node IDs that cannot collide with any existing node.
// Seeding at max(existing)+1 keeps the allocation a pure function of the
// input, so identical input always yields identical duplicate IDs.
type idAllocator struct {
	next int
}

func newIDAllocator(nodes []model.Node) *idAllocator {
	next := 1
	for _, n := range nodes {
		if n.ID >= next {
			next = n.ID + 1
		}
	}
	return &idAllocator{next: next}
}

func (a *idAllocator) alloc() int {
	id := a.next
	a.next++
	return id
}

// Expand applies every joint specification in order and returns the
// augmented node table, the rewritten element table and the concatenated
// constraint list. A joint whose node is referenced by fewer than two
// elements is vacuous: it is skipped with a warning, no constraint is
// fabricated. A joint of any type other than revolute is an error.
func Expand(nodes []model.Node, elems []model.BeamElement, joints []model.Joint) (*Result, error) {
	res := &Result{
		Nodes:    make([]model.Node, len(nodes)),
		Elements: make([]model.BeamElement, len(elems)),
	}
	copy(res.Nodes, nodes)
	for i, e := range elems {
		res.Elements[i] = e
		res.Elements[i].Nodes = append([]int(nil), e.Nodes...)
	}

	alloc := newIDAllocator(nodes)
	for _, j := range joints {
		if j.Type != model.JointRevolute {
			return nil, fmt.Errorf("joint on node %d has type %q: %w", j.Node, j.Type, model.ErrUnsupportedType)
		}
		if err := expandJoint(res, alloc, j.Node); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func expandJoint(res *Result, alloc *idAllocator, nodeID int) error {
	orig, ok := findNode(res.Nodes, nodeID)
	if !ok {
		return fmt.Errorf("joint references node %d: %w", nodeID, model.ErrDanglingRef)
	}

	// Incident elements, in element-table order.
	var incident []int
	for i, e := range res.Elements {
		for _, nid := range e.Nodes {
			if nid == nodeID {
				incident = append(incident, i)
				break
			}
		}
	}
	if len(incident) < 2 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("revolute joint on node %d touches %d element(s); skipped", nodeID, len(incident)))
		return nil
	}

	// The first incident element keeps the original node; each of the rest
	// gets its own copy, tied back by Ux and Uy equality constraints.
	for _, ei := range incident[1:] {
		cloneID := alloc.alloc()
		res.Nodes = append(res.Nodes, model.Node{ID: cloneID, X: orig.X, Y: orig.Y, Z: orig.Z})

		e := &res.Elements[ei]
		for s, nid := range e.Nodes {
			if nid == nodeID {
				e.Nodes[s] = cloneID
			}
		}

		res.Duplicates = append(res.Duplicates, Duplicate{
			Original: nodeID,
			Clone:    cloneID,
			Element:  e.ID,
		})
		res.Constraints = append(res.Constraints,
			model.NewEqualityConstraint(
				model.DOF{Node: nodeID, Component: model.CompUx},
				model.DOF{Node: cloneID, Component: model.CompUx}),
			model.NewEqualityConstraint(
				model.DOF{Node: nodeID, Component: model.CompUy},
				model.DOF{Node: cloneID, Component: model.CompUy}),
		)
	}
	return nil
}

func findNode(nodes []model.Node, id int) (model.Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return model.Node{}, false
}
