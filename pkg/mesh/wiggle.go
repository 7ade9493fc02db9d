package mesh

import (
	"fmt"
	"math"

	"geovis/internal/logx"
	"geovis/internal/models"
)

// Layer depths keep the background behind the fill and the traces on top.
const (
	backgroundZ = -0.001
	traceZ      = 0.001
	tickCount   = 5
	tickLength  = 0.02
)

// WiggleOptions controls the variable-area wiggle display.
type WiggleOptions struct {
	// Scale is the horizontal swing of a full-scale sample, in trace widths
	Scale float64

	// MaxPoints bounds the vertices per trace polyline; 0 keeps every sample
	MaxPoints int

	// Annotation is copied into the descriptor for axis labelling
	Annotation models.Annotation
}

// BuildWiggle draws one polyline per trace with its positive lobes filled.
//
// Trace t has its baseline at x = (t+0.5)/n. Sample j of amplitude a sits at
// x = baseline + (a/maxAbs)*Scale/n, y = 1 - j/nS. Samples are decimated by
// ceil(nS/MaxPoints). maxAbs <= 0 is treated as 1.
func BuildWiggle(amps [][]float32, maxAbs float32, opts WiggleOptions) (*models.WiggleDescriptor, error) {
	n := len(amps)
	if n == 0 || len(amps[0]) == 0 {
		return nil, fmt.Errorf("wiggle: %w", ErrEmptyInput)
	}
	nS := len(amps[0])

	step := 1
	if opts.MaxPoints > 0 {
		step = max(1, int(math.Ceil(float64(nS)/float64(opts.MaxPoints))))
	}
	denom := float64(maxAbs)
	if !(denom > 0) {
		denom = 1
	}
	swing := opts.Scale / float64(n)

	w := &models.WiggleDescriptor{
		Traces:     make([]models.Polyline, 0, n),
		Fill:       models.MeshDescriptor{Of: models.KindWiggle},
		Background: background(),
		Step:       step,
		Annotation: opts.Annotation,
	}

	for t, tr := range amps {
		baseX := (float64(t) + 0.5) / float64(n)
		line := make(models.Polyline, 0, (len(tr)/step+1)*3)

		prevX, prevY, prevA := 0.0, 0.0, 0.0
		for j := 0; j < len(tr); j += step {
			a := finite(float64(tr[j]))
			x := baseX + a/denom*swing
			y := 1 - float64(j)/float64(nS)
			line = append(line, float32(x), float32(y), traceZ)

			if j > 0 && (prevA > 0 || a > 0) {
				addLobe(&w.Fill, baseX, prevX, prevY, x, y)
			}
			prevX, prevY, prevA = x, y, a
		}
		w.Traces = append(w.Traces, line)
	}

	w.Border = models.Polyline{
		0, 0, traceZ,
		1, 0, traceZ,
		1, 1, traceZ,
		0, 1, traceZ,
		0, 0, traceZ,
	}
	w.Ticks = ticks()

	logx.Logger().Debug("wiggle: built",
		"traces", n, "samples", nS, "step", step,
		"fill_triangles", w.Fill.TriangleCount())
	return w, nil
}

// addLobe fills the quad between the baseline and the trace segment, with the
// trace side clamped so it never crosses to the negative side.
func addLobe(m *models.MeshDescriptor, baseX, x0, y0, x1, y1 float64) {
	a := m.AddVertex(float32(baseX), float32(y0), 0)
	b := m.AddVertex(float32(math.Max(x0, baseX)), float32(y0), 0)
	c := m.AddVertex(float32(math.Max(x1, baseX)), float32(y1), 0)
	d := m.AddVertex(float32(baseX), float32(y1), 0)
	m.AddTriangle(a, b, c)
	m.AddTriangle(a, c, d)
}

func background() models.MeshDescriptor {
	m := models.MeshDescriptor{Of: models.KindWiggle}
	m.AddVertex(0, 0, backgroundZ)
	m.AddVertex(1, 0, backgroundZ)
	m.AddVertex(1, 1, backgroundZ)
	m.AddVertex(0, 1, backgroundZ)
	m.AddTriangle(0, 1, 2)
	m.AddTriangle(0, 2, 3)
	return m
}

// ticks returns evenly spaced marks along the bottom (trace) and left (time) edges.
func ticks() []models.Polyline {
	out := make([]models.Polyline, 0, 2*tickCount)
	for i := 0; i < tickCount; i++ {
		f := float32(i) / (tickCount - 1)
		out = append(out,
			models.Polyline{f, 0, traceZ, f, -tickLength, traceZ},
			models.Polyline{0, f, traceZ, -tickLength, f, traceZ},
		)
	}
	return out
}
