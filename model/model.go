package model

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Sentinel validation errors. Validate wraps these with the offending record
// so callers can both test the category and report the detail.
var (
	ErrDuplicateID     = errors.New("duplicate ID")
	ErrDanglingRef     = errors.New("dangling reference")
	ErrBadProperty     = errors.New("non-positive or non-finite property")
	ErrBadNodeCount    = errors.New("invalid element node count")
	ErrUnsupportedType = errors.New("unsupported joint type")
)

// Node is a point in the structural model. Revolute preprocessing appends
// duplicate nodes sharing the coordinate of an existing node; nodes are never
// mutated or deleted after creation.
type Node struct {
	ID int     `yaml:"id"`
	X  float64 `yaml:"x"`
	Y  float64 `yaml:"y"`
	Z  float64 `yaml:"z"`
}

// Coord returns the node coordinate as a fixed-size array.
func (n Node) Coord() [3]float64 { return [3]float64{n.X, n.Y, n.Z} }

// BeamElement references up to three nodes plus type, section and material
// tables by ID. The 2D beam subset uses exactly two node references.
type BeamElement struct {
	ID       int   `yaml:"id"`
	Type     int   `yaml:"type"`
	Section  int   `yaml:"section"`
	Material int   `yaml:"material"`
	Nodes    []int `yaml:"nodes"`
}

// Section holds cross-section properties.
type Section struct {
	ID     int     `yaml:"id"`
	Area   float64 `yaml:"area"`
	ShearY float64 `yaml:"shear_y,omitempty"` // shear correction factor, y
	ShearZ float64 `yaml:"shear_z,omitempty"` // shear correction factor, z
	Ixx    float64 `yaml:"ixx,omitempty"`     // torsion constant
	Iyy    float64 `yaml:"iyy,omitempty"`     // bending inertia about y
	Izz    float64 `yaml:"izz"`               // bending inertia about z
	CY     float64 `yaml:"cy,omitempty"`      // extreme fiber distance, y
	CZ     float64 `yaml:"cz,omitempty"`      // extreme fiber distance, z
}

// Material holds linear-elastic material properties.
type Material struct {
	ID  int     `yaml:"id"`
	E   float64 `yaml:"e"`   // Young's modulus
	Nu  float64 `yaml:"nu"`  // Poisson ratio
	Rho float64 `yaml:"rho"` // density
}

// JointType names a joint connection kind. Only revolute is supported.
type JointType string

const JointRevolute JointType = "revolute"

// Joint flags one physical node as a joint of the given type.
type Joint struct {
	Node int       `yaml:"node"`
	Type JointType `yaml:"type"`
}

// Constraint is a linear equality relating two DOFs:
//
//	RHS = Coeffs[0]*DOFs[0] + Coeffs[1]*DOFs[1]
//
// Revolute preprocessing emits the form 0 = 1*master - 1*slave. Constraints
// are generated once and consumed exactly once by elimination.
type Constraint struct {
	RHS    float64
	Coeffs [2]float64
	DOFs   [2]DOF
}

// NewEqualityConstraint ties slave to master: slave = master.
func NewEqualityConstraint(master, slave DOF) Constraint {
	return Constraint{
		RHS:    0,
		Coeffs: [2]float64{1, -1},
		DOFs:   [2]DOF{master, slave},
	}
}

// Master returns the retained DOF of an equality constraint.
func (c Constraint) Master() DOF { return c.DOFs[0] }

// Slave returns the eliminated DOF of an equality constraint.
func (c Constraint) Slave() DOF { return c.DOFs[1] }

// Model aggregates the input tables of one structural model.
type Model struct {
	Nodes          []Node        `yaml:"nodes"`
	Elements       []BeamElement `yaml:"elements"`
	Sections       []Section     `yaml:"sections"`
	Materials      []Material    `yaml:"materials"`
	Joints         []Joint       `yaml:"joints,omitempty"`
	InterfaceNodes []int         `yaml:"interface_nodes,omitempty"`
}

// Load reads a YAML model definition.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	return &m, nil
}

// Save writes the model as YAML.
func (m *Model) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NodeByID returns the node with the given ID.
func (m *Model) NodeByID(id int) (Node, bool) {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// SectionByID returns the section with the given ID.
func (m *Model) SectionByID(id int) (Section, bool) {
	for _, s := range m.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// MaterialByID returns the material with the given ID.
func (m *Model) MaterialByID(id int) (Material, bool) {
	for _, mt := range m.Materials {
		if mt.ID == id {
			return mt, true
		}
	}
	return Material{}, false
}

func posFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Validate checks the model tables before any matrix work: duplicate IDs,
// dangling references, non-positive or non-finite physical properties, and
// unsupported joint types. The first violation found is returned.
func (m *Model) Validate() error {
	nodeIDs := make(map[int]struct{}, len(m.Nodes))
	for _, n := range m.Nodes {
		if n.ID <= 0 {
			return fmt.Errorf("node ID %d: %w", n.ID, ErrBadProperty)
		}
		if _, ok := nodeIDs[n.ID]; ok {
			return fmt.Errorf("node %d: %w", n.ID, ErrDuplicateID)
		}
		if !finite(n.X) || !finite(n.Y) || !finite(n.Z) {
			return fmt.Errorf("node %d coordinate: %w", n.ID, ErrBadProperty)
		}
		nodeIDs[n.ID] = struct{}{}
	}

	secIDs := make(map[int]struct{}, len(m.Sections))
	for _, s := range m.Sections {
		if _, ok := secIDs[s.ID]; ok {
			return fmt.Errorf("section %d: %w", s.ID, ErrDuplicateID)
		}
		if !posFinite(s.Area) || !posFinite(s.Izz) {
			return fmt.Errorf("section %d: area=%g izz=%g: %w", s.ID, s.Area, s.Izz, ErrBadProperty)
		}
		secIDs[s.ID] = struct{}{}
	}

	mtlIDs := make(map[int]struct{}, len(m.Materials))
	for _, mt := range m.Materials {
		if _, ok := mtlIDs[mt.ID]; ok {
			return fmt.Errorf("material %d: %w", mt.ID, ErrDuplicateID)
		}
		if !posFinite(mt.E) || !posFinite(mt.Rho) || !finite(mt.Nu) {
			return fmt.Errorf("material %d: E=%g rho=%g nu=%g: %w", mt.ID, mt.E, mt.Rho, mt.Nu, ErrBadProperty)
		}
		mtlIDs[mt.ID] = struct{}{}
	}

	elemIDs := make(map[int]struct{}, len(m.Elements))
	for _, e := range m.Elements {
		if _, ok := elemIDs[e.ID]; ok {
			return fmt.Errorf("element %d: %w", e.ID, ErrDuplicateID)
		}
		elemIDs[e.ID] = struct{}{}
		if len(e.Nodes) < 2 || len(e.Nodes) > 3 {
			return fmt.Errorf("element %d references %d nodes: %w", e.ID, len(e.Nodes), ErrBadNodeCount)
		}
		for _, nid := range e.Nodes {
			if _, ok := nodeIDs[nid]; !ok {
				return fmt.Errorf("element %d references node %d: %w", e.ID, nid, ErrDanglingRef)
			}
		}
		if _, ok := secIDs[e.Section]; !ok {
			return fmt.Errorf("element %d references section %d: %w", e.ID, e.Section, ErrDanglingRef)
		}
		if _, ok := mtlIDs[e.Material]; !ok {
			return fmt.Errorf("element %d references material %d: %w", e.ID, e.Material, ErrDanglingRef)
		}
	}

	for _, j := range m.Joints {
		if j.Type != JointRevolute {
			return fmt.Errorf("joint on node %d has type %q: %w", j.Node, j.Type, ErrUnsupportedType)
		}
		if _, ok := nodeIDs[j.Node]; !ok {
			return fmt.Errorf("joint references node %d: %w", j.Node, ErrDanglingRef)
		}
	}

	for _, nid := range m.InterfaceNodes {
		if _, ok := nodeIDs[nid]; !ok {
			return fmt.Errorf("interface node %d: %w", nid, ErrDanglingRef)
		}
	}
	return nil
}
