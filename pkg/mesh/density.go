package mesh

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"geovis/internal/logx"
	"geovis/internal/models"
)

// clipEpsilon keeps the normalization denominator non-zero for silent windows.
const clipEpsilon = 1e-6

// DensityOptions controls variable-density heightfield construction.
type DensityOptions struct {
	TargetResolution int

	// ClipPercentile, when in (0,100), clips at that percentile of |amplitude|
	// instead of the absolute maximum.
	ClipPercentile float64
}

// BuildDensity lays a trace window out as a flat heightfield: trace index
// along X, time down Y (y = 1 at the first sample), amplitude normalized into
// [0,1] as the vertex scalar. amps is [trace][sample].
func BuildDensity(amps [][]float32, opts DensityOptions) (*models.MeshDescriptor, error) {
	nT := len(amps)
	if nT == 0 || len(amps[0]) == 0 {
		return nil, fmt.Errorf("density: %w", ErrEmptyInput)
	}
	nS := len(amps[0])
	for i, row := range amps {
		if len(row) != nS {
			return nil, fmt.Errorf("density: trace %d has %d samples, want %d", i, len(row), nS)
		}
	}

	clip := densityClip(amps, opts.ClipPercentile)
	decim, w2, h2 := decimation(nT, nS, opts.TargetResolution)

	m := &models.MeshDescriptor{
		Of:          models.KindDensity,
		Positions:   make([]float32, 0, w2*h2*3),
		Scalars:     make([]float32, 0, w2*h2),
		ScalarRange: [2]float32{0, 1},
	}
	for j := 0; j < h2; j++ {
		for i := 0; i < w2; i++ {
			v := finite(float64(amps[i*decim][j*decim]))
			norm := math.Max(0, math.Min(1, (v+clip)/(2*clip)))
			m.AddVertex(unit(i, w2), 1-unit(j, h2), 0)
			m.Scalars = append(m.Scalars, float32(norm))
		}
	}
	appendGridTriangles(m, w2, h2)

	logx.Logger().Debug("density: built",
		"traces", nT, "samples", nS, "decim", decim, "clip", clip,
		"vertices", m.VertexCount(), "triangles", m.TriangleCount())
	return m, nil
}

// densityClip returns the symmetric clip level for normalization.
func densityClip(amps [][]float32, percentile float64) float64 {
	if percentile > 0 && percentile < 100 {
		var abs []float64
		for _, row := range amps {
			for _, v := range row {
				abs = append(abs, math.Abs(finite(float64(v))))
			}
		}
		sort.Float64s(abs)
		return stat.Quantile(percentile/100, stat.Empirical, abs, nil) + clipEpsilon
	}

	var lo, hi float64
	for _, row := range amps {
		for _, v := range row {
			f := finite(float64(v))
			lo, hi = math.Min(lo, f), math.Max(hi, f)
		}
	}
	return math.Max(math.Abs(lo), math.Abs(hi)) + clipEpsilon
}

// unit maps index i of n onto [0,1].
func unit(i, n int) float32 {
	if n <= 1 {
		return 0
	}
	return float32(i) / float32(n-1)
}
