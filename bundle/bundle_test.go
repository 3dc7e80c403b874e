package bundle

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexkit/beamreduce/model"
	"github.com/flexkit/beamreduce/reduce"
)

func runChain(t *testing.T, modes int) *reduce.PipelineResult {
	t.Helper()
	m := &model.Model{
		Nodes: []model.Node{
			{ID: 1, X: 0, Y: 0},
			{ID: 2, X: 1, Y: 0},
			{ID: 3, X: 2, Y: 0},
		},
		Elements: []model.BeamElement{
			{ID: 1, Type: 1, Section: 1, Material: 1, Nodes: []int{1, 2}},
			{ID: 2, Type: 1, Section: 1, Material: 1, Nodes: []int{2, 3}},
		},
		Sections:  []model.Section{{ID: 1, Area: 0.01, Izz: 1e-5}},
		Materials: []model.Material{{ID: 1, E: 210e9, Nu: 0.3, Rho: 7850}},
	}
	pr, err := reduce.Run(m, reduce.PipelineOptions{
		InterfaceNodes: []int{1, 3},
		Modes:          modes,
	})
	require.NoError(t, err)
	return pr
}

func TestFromPipeline(t *testing.T) {
	pr := runChain(t, 1)
	b := FromPipeline(pr)

	assert.Equal(t, 3, b.NodeCount)
	assert.Equal(t, 2, b.ElementCount)
	assert.Equal(t, 0, b.DuplicateCount)
	assert.Equal(t, 9, b.FullSize)
	assert.Equal(t, 7, b.ReducedSize)
	assert.Equal(t, "craig-bampton", b.Fidelity)
	assert.Equal(t, 1, b.ModesUsed)
	assert.Len(t, b.FrequenciesHz, 1)

	require.Len(t, b.InterfaceNodes, 2)
	assert.Equal(t, 1, b.InterfaceNodes[0].ID)
	assert.Equal(t, [3]float64{2, 0, 0}, b.InterfaceNodes[1].Coord)

	require.Len(t, b.K, 7)
	require.Len(t, b.K[0], 7)
	require.Len(t, b.T, 9)
	require.Len(t, b.T[0], 7)
	require.Len(t, b.GuyanK, 6)

	// Matrix echo matches the reduced pair entry for entry.
	for i := 0; i < 7; i++ {
		for j := 0; j < 7; j++ {
			assert.Equal(t, pr.Reduced.K.At(i, j), b.K[i][j])
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	pr := runChain(t, 0)
	b := FromPipeline(pr)
	assert.Equal(t, "guyan-only", b.Fidelity)

	path := filepath.Join(t.TempDir(), "reduced.json")
	require.NoError(t, b.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
