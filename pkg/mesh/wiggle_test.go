package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geovis/internal/models"
)

func TestBuildWiggleNoFillForNonPositiveTrace(t *testing.T) {
	amps := [][]float32{{0, -1, -3, 0, -2}}
	w, err := BuildWiggle(amps, 3, WiggleOptions{Scale: 0.7})
	require.NoError(t, err)

	assert.Equal(t, models.KindWiggle, w.Kind())
	assert.Len(t, w.Traces, 1)
	assert.Zero(t, w.Fill.TriangleCount())
	assert.Zero(t, w.Fill.VertexCount())
}

func TestBuildWiggleFillsPositiveLobe(t *testing.T) {
	amps := [][]float32{{-1, 2, -1, -1}}
	w, err := BuildWiggle(amps, 2, WiggleOptions{Scale: 0.7})
	require.NoError(t, err)

	// pairs (0,1) and (1,2) touch the positive sample
	assert.Equal(t, 4, w.Fill.TriangleCount())

	base := float32(0.5)
	for i := 0; i < len(w.Fill.Positions); i += 3 {
		assert.GreaterOrEqual(t, w.Fill.Positions[i], base)
	}
}

func TestBuildWigglePlacement(t *testing.T) {
	amps := [][]float32{{0, 0}, {1, 0}}
	w, err := BuildWiggle(amps, 1, WiggleOptions{Scale: 0.5})
	require.NoError(t, err)

	require.Len(t, w.Traces, 2)
	// trace 0 sample 0: baseline x = 0.25, y = 1
	assert.InDelta(t, 0.25, w.Traces[0][0], 1e-6)
	assert.InDelta(t, 1, w.Traces[0][1], 1e-6)
	// trace 1 sample 0 swings by scale/n = 0.25
	assert.InDelta(t, 0.75+0.25, w.Traces[1][0], 1e-6)
	// sample 1 is at y = 1 - 1/2
	assert.InDelta(t, 0.5, w.Traces[1][4], 1e-6)
}

func TestBuildWiggleDecimates(t *testing.T) {
	amps := section(3, 1000, func(t, s int) float32 { return float32(s % 7) })
	w, err := BuildWiggle(amps, 6, WiggleOptions{Scale: 0.7, MaxPoints: 300})
	require.NoError(t, err)

	assert.Equal(t, 4, w.Step)
	for _, line := range w.Traces {
		assert.Len(t, line, 250*3)
	}
}

func TestBuildWiggleDecoration(t *testing.T) {
	ann := models.Annotation{StartTrace: 10, TraceCount: 2, SampleCount: 3, DtMs: 4, MaxTimeMs: 12}
	w, err := BuildWiggle([][]float32{{0, 0, 0}, {0, 0, 0}}, 0, WiggleOptions{Scale: 0.7, Annotation: ann})
	require.NoError(t, err)

	assert.Equal(t, 2, w.Background.TriangleCount())
	assert.Len(t, w.Border, 5*3)
	assert.Len(t, w.Ticks, 2*tickCount)
	assert.Equal(t, ann, w.Annotation)
	for _, line := range w.Traces {
		for i := 0; i < len(line); i += 3 {
			assert.False(t, line[i] != line[i], "NaN x with zero maxAbs")
		}
	}
}

func TestBuildWiggleEmpty(t *testing.T) {
	_, err := BuildWiggle(nil, 1, WiggleOptions{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}
