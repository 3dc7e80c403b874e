package reduce

import (
	"errors"
	"fmt"

	"github.com/flexkit/beamreduce/assembly"
	"github.com/flexkit/beamreduce/model"
	"github.com/flexkit/beamreduce/revolute"
)

// ErrNoInterfaceNodes means neither the options nor the model named any
// interface node.
var ErrNoInterfaceNodes = errors.New("no interface nodes specified")

// PipelineOptions configure one reduction run.
type PipelineOptions struct {
	// InterfaceNodes overrides the model's interface_nodes list when set.
	InterfaceNodes []int
	// Modes is the fixed-interface mode count: a positive count, 0 for pure
	// Guyan, or AutoModes for the default policy.
	Modes int
}

// PipelineResult bundles the artifacts of a whole run: the expanded model,
// the revolute constraints, the assembled full system, the constraint-reduced
// system and the reduced model, plus every warning any stage raised.
type PipelineResult struct {
	Expanded    *revolute.Result
	Constraints []model.Constraint
	Full        *assembly.System // assembled, pre-elimination
	System      *assembly.System // after constraint elimination
	Reduced     *Result

	Warnings []Warning
}

// Run executes the whole reduction pipeline as a single transaction:
// validation, revolute expansion, assembly, constraint elimination,
// partitioning and Craig-Bampton reduction. Any fatal error aborts the call
// with a nil result; no partially built model is ever returned.
func Run(m *model.Model, opts PipelineOptions) (*PipelineResult, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validate model: %w", err)
	}

	interfaceNodes := opts.InterfaceNodes
	if len(interfaceNodes) == 0 {
		interfaceNodes = m.InterfaceNodes
	}
	if len(interfaceNodes) == 0 {
		return nil, ErrNoInterfaceNodes
	}

	pr := &PipelineResult{}

	exp, err := revolute.Expand(m.Nodes, m.Elements, m.Joints)
	if err != nil {
		return nil, fmt.Errorf("expand revolute joints: %w", err)
	}
	pr.Expanded = exp
	pr.Constraints = exp.Constraints
	for _, w := range exp.Warnings {
		pr.Warnings = append(pr.Warnings, Warning{Stage: "revolute", Message: w})
	}

	full, err := assembly.Assemble(exp.Nodes, exp.Elements, m.Sections, m.Materials)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	pr.Full = full

	sys, err := assembly.Eliminate(full, exp.Constraints)
	if err != nil {
		return nil, fmt.Errorf("eliminate constraints: %w", err)
	}
	pr.System = sys

	part, err := PartitionDOFs(sys.DOFs, interfaceNodes, exp.Nodes)
	if err != nil {
		return nil, fmt.Errorf("partition DOFs: %w", err)
	}

	red, err := CraigBampton(sys.K, sys.M, part, opts.Modes)
	if err != nil {
		return nil, fmt.Errorf("reduce: %w", err)
	}
	pr.Reduced = red
	pr.Warnings = append(pr.Warnings, red.Warnings...)
	return pr, nil
}
