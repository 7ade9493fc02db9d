// Package mesh builds triangulated display geometry from elevation grids and
// seismic trace windows. Every builder is a pure function of its inputs.
package mesh

import (
	"errors"
	"math"

	"geovis/internal/models"
)

// ErrEmptyInput is returned when a builder receives no data.
var ErrEmptyInput = errors.New("mesh: empty input")

// decimation returns the stride that brings the larger of w and h down to
// about target, and the resulting sampled dimensions.
func decimation(w, h, target int) (decim, w2, h2 int) {
	decim = 1
	if target > 0 {
		decim = max(1, max(w, h)/target)
	}
	return decim, max(1, w/decim), max(1, h/decim)
}

// appendGridTriangles triangulates a w x h vertex grid laid out row-major:
// each cell with corners a b / d e gets (a,b,e) and (a,e,d).
func appendGridTriangles(m *models.MeshDescriptor, w, h int) {
	if w < 2 || h < 2 {
		return
	}
	m.Triangles = make([]uint32, 0, (w-1)*(h-1)*2*4)
	for r := 0; r < h-1; r++ {
		for c := 0; c < w-1; c++ {
			a := uint32(r*w + c)
			b := a + 1
			d := a + uint32(w)
			e := d + 1
			m.AddTriangle(a, b, e)
			m.AddTriangle(a, e, d)
		}
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
