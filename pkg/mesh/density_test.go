package mesh

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geovis/internal/models"
)

func section(traces, samples int, f func(t, s int) float32) [][]float32 {
	out := make([][]float32, traces)
	for i := range out {
		out[i] = make([]float32, samples)
		for j := range out[i] {
			out[i][j] = f(i, j)
		}
	}
	return out
}

func TestBuildDensityCounts(t *testing.T) {
	amps := section(3, 4, func(t, s int) float32 { return float32(t - s) })
	m, err := BuildDensity(amps, DensityOptions{})
	require.NoError(t, err)

	assert.Equal(t, models.KindDensity, m.Kind())
	assert.Equal(t, 12, m.VertexCount())
	assert.Equal(t, 2*2*3, m.TriangleCount())
	assert.Equal(t, [2]float32{0, 1}, m.ScalarRange)
}

func TestBuildDensityPlacementAndNormalization(t *testing.T) {
	amps := section(3, 3, func(t, s int) float32 { return 0 })
	amps[2][2] = 4
	amps[0][1] = -4

	m, err := BuildDensity(amps, DensityOptions{})
	require.NoError(t, err)

	// vertex (i=0, j=0): x=0, y=1 (first sample on top)
	assert.Equal(t, []float32{0, 1, 0}, m.Positions[:3])
	// vertex (i=2, j=2) is last: x=1, y=0
	assert.Equal(t, []float32{1, 0, 0}, m.Positions[len(m.Positions)-3:])

	assert.InDelta(t, 0.5, m.Scalars[0], 1e-6)
	assert.InDelta(t, 1, m.Scalars[8], 1e-6)
	// j=1, i=0 -> index 3
	assert.InDelta(t, 0, m.Scalars[3], 1e-6)
	for _, s := range m.Scalars {
		assert.GreaterOrEqual(t, s, float32(0))
		assert.LessOrEqual(t, s, float32(1))
	}
}

func TestBuildDensityPercentileClip(t *testing.T) {
	amps := section(10, 10, func(t, s int) float32 { return 1 })
	amps[5][5] = 1000

	m, err := BuildDensity(amps, DensityOptions{ClipPercentile: 98})
	require.NoError(t, err)
	// the outlier saturates instead of crushing everything else to mid-gray
	assert.InDelta(t, 1, m.Scalars[5*10+5], 1e-6)
	assert.Greater(t, m.Scalars[0], float32(0.99))
}

func TestBuildDensitySanitizes(t *testing.T) {
	amps := section(2, 2, func(t, s int) float32 { return float32(math.NaN()) })
	m, err := BuildDensity(amps, DensityOptions{})
	require.NoError(t, err)
	for _, s := range m.Scalars {
		assert.InDelta(t, 0.5, s, 1e-6)
	}
}

func TestBuildDensityRejectsRagged(t *testing.T) {
	_, err := BuildDensity([][]float32{{1, 2}, {1}}, DensityOptions{})
	assert.Error(t, err)

	_, err = BuildDensity(nil, DensityOptions{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}
