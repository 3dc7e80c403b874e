// Package bundle serializes the outcome of one reduction run as a single
// JSON document: a model echo, the full-system dimensions, the reduced
// stiffness/mass/transformation matrices and the interface coordinate list
// keyed the way the downstream flexible-body consumer expects (master DOFs
// first, interface-node order, three DOFs per node in the order Ux, Uy, Rz).
package bundle

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/flexkit/beamreduce/reduce"
)

// InterfaceNode pairs an interface node ID with its coordinate.
type InterfaceNode struct {
	ID    int        `json:"id"`
	Coord [3]float64 `json:"coord"`
}

// Bundle is the persisted run artifact, written once at the end of a run.
type Bundle struct {
	NodeCount      int `json:"node_count"`
	ElementCount   int `json:"element_count"`
	DuplicateCount int `json:"duplicate_count"` // joint-generated node copies

	FullSize       int     `json:"full_size"`
	ReducedSize    int     `json:"reduced_size"`
	ReductionRatio float64 `json:"reduction_ratio"`
	Fidelity       string  `json:"fidelity"`
	ModesUsed      int     `json:"modes_used"`

	InterfaceNodes []InterfaceNode `json:"interface_nodes"`
	MasterIndex    []int           `json:"master_index"`
	SlaveIndex     []int           `json:"slave_index"`
	FrequenciesHz  []float64       `json:"frequencies_hz,omitempty"`

	K [][]float64 `json:"k_reduced"`
	M [][]float64 `json:"m_reduced"`
	T [][]float64 `json:"transformation"`

	GuyanK [][]float64 `json:"k_guyan"`
	GuyanM [][]float64 `json:"m_guyan"`

	Warnings []string `json:"warnings,omitempty"`
}

// FromPipeline builds the bundle from a completed run.
func FromPipeline(pr *reduce.PipelineResult) *Bundle {
	red := pr.Reduced
	b := &Bundle{
		NodeCount:      len(pr.Expanded.Nodes),
		ElementCount:   len(pr.Expanded.Elements),
		DuplicateCount: len(pr.Expanded.Duplicates),
		FullSize:       red.FullSize,
		ReducedSize:    red.ReducedSize,
		ReductionRatio: red.ReductionRatio,
		Fidelity:       red.Fidelity.String(),
		ModesUsed:      red.ModesUsed,
		MasterIndex:    red.Partition.Master,
		SlaveIndex:     red.Partition.Slave,
		FrequenciesHz:  red.Frequencies,
		K:              matrixRows(red.K),
		M:              matrixRows(red.M),
		T:              matrixRows(red.T),
		GuyanK:         matrixRows(red.Guyan.K),
		GuyanM:         matrixRows(red.Guyan.M),
	}
	for i, id := range red.Partition.InterfaceNodes {
		b.InterfaceNodes = append(b.InterfaceNodes, InterfaceNode{
			ID:    id,
			Coord: red.Partition.InterfaceCoords[i],
		})
	}
	for _, w := range pr.Warnings {
		b.Warnings = append(b.Warnings, w.String())
	}
	return b
}

// Save writes the bundle as indented JSON.
func (b *Bundle) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a bundle written by Save.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle %s: %w", path, err)
	}
	return &b, nil
}

func matrixRows(a *mat.Dense) [][]float64 {
	r, c := a.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		out[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			out[i][j] = a.At(i, j)
		}
	}
	return out
}
