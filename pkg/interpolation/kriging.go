// Package interpolation fills gaps in gridded data by ordinary kriging over
// the nearest known cells.
package interpolation

import (
	"errors"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"

	"geovis/internal/logx"
	"geovis/internal/models"
)

// ErrNoSamples is returned when there is nothing to interpolate from.
var ErrNoSamples = errors.New("interpolation: no known samples")

// Variogram models supported by the implementation
type VariogramModel int

const (
	Spherical VariogramModel = iota
	Exponential
	Gaussian
)

// DefaultNeighbors is the neighbourhood size used when Params.Neighbors is 0.
const DefaultNeighbors = 16

// KrigingParams holds the variogram and neighbourhood parameters
type KrigingParams struct {
	Range     float64        // distance at which the variogram levels off
	Sill      float64        // structured variance
	Nugget    float64        // variance at zero lag
	Model     VariogramModel // variogram model
	Neighbors int            // known samples used per estimate
}

// Sample is a known value at a planar location. Index ties it back to the
// value slice.
type Sample struct {
	X, Y  float64
	Index int
}

// Compare implements the kdtree.Comparable interface
func (p Sample) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Sample)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p Sample) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two samples
func (p Sample) Distance(c kdtree.Comparable) float64 {
	q := c.(Sample)
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// Samples is a collection of Sample that satisfies kdtree.Interface
type Samples []Sample

func (p Samples) Index(i int) kdtree.Comparable         { return p[i] }
func (p Samples) Len() int                              { return len(p) }
func (p Samples) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p Samples) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(samplePlane{Samples: p, Dim: d}, kdtree.MedianOfRandoms(samplePlane{Samples: p, Dim: d}, 100))
}

// samplePlane implements sort.Interface and kdtree.SortSlicer for Samples
type samplePlane struct {
	Samples
	kdtree.Dim
}

func (p samplePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Samples[i].X < p.Samples[j].X
	case 1:
		return p.Samples[i].Y < p.Samples[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p samplePlane) Slice(start, end int) kdtree.SortSlicer {
	return samplePlane{Samples: p.Samples[start:end], Dim: p.Dim}
}

func (p samplePlane) Swap(i, j int) {
	p.Samples[i], p.Samples[j] = p.Samples[j], p.Samples[i]
}

// Kriging estimates values at arbitrary locations from a fixed sample set.
// It is safe for concurrent Estimate calls once built.
type Kriging struct {
	values []float64
	tree   *kdtree.Tree
	params KrigingParams
}

// NewKriging indexes samples whose values are values[s.Index].
func NewKriging(samples []Sample, values []float64, params KrigingParams) (*Kriging, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	for _, s := range samples {
		if s.Index < 0 || s.Index >= len(values) {
			return nil, errors.New("interpolation: sample index out of range")
		}
	}
	if params.Neighbors <= 0 {
		params.Neighbors = DefaultNeighbors
	}
	pts := append(Samples(nil), samples...)
	return &Kriging{
		values: values,
		tree:   kdtree.New(pts, true),
		params: params,
	}, nil
}

// FitParams derives a spherical variogram from the data: the sill is the
// sample variance and the range a quarter of the bounding-box diagonal.
func FitParams(samples []Sample, values []float64) KrigingParams {
	p := KrigingParams{Model: Spherical, Sill: 1, Range: 1, Neighbors: DefaultNeighbors}
	if len(samples) == 0 {
		return p
	}

	vs := make([]float64, len(samples))
	minX, maxX, minY, maxY := samples[0].X, samples[0].X, samples[0].Y, samples[0].Y
	for i, s := range samples {
		vs[i] = values[s.Index]
		minX, maxX = math.Min(minX, s.X), math.Max(maxX, s.X)
		minY, maxY = math.Min(minY, s.Y), math.Max(maxY, s.Y)
	}
	if len(vs) > 1 {
		if v := stat.Variance(vs, nil); v > 0 {
			p.Sill = v
		}
	}
	if d := math.Hypot(maxX-minX, maxY-minY) / 4; d > 0 {
		p.Range = d
	}
	return p
}

// Params returns the parameters in use.
func (k *Kriging) Params() KrigingParams { return k.params }

// variogram returns the semivariance at lag h.
func (k *Kriging) variogram(h float64) float64 {
	if h == 0 {
		return 0
	}
	p := k.params
	gamma := p.Nugget
	switch p.Model {
	case Spherical:
		if h < p.Range {
			r := h / p.Range
			gamma += p.Sill * (1.5*r - 0.5*r*r*r)
		} else {
			gamma += p.Sill
		}
	case Exponential:
		gamma += p.Sill * (1 - math.Exp(-3*h/p.Range))
	case Gaussian:
		gamma += p.Sill * (1 - math.Exp(-3*h*h/(p.Range*p.Range)))
	}
	return gamma
}

// neighbors returns up to params.Neighbors samples nearest to (x, y).
func (k *Kriging) neighbors(x, y float64) []Sample {
	keeper := kdtree.NewNKeeper(k.params.Neighbors)
	k.tree.NearestSet(keeper, Sample{X: x, Y: y})

	out := make([]Sample, 0, keeper.Len())
	for _, item := range keeper.Heap {
		// skip the sentinel
		if item.Comparable == nil {
			continue
		}
		out = append(out, item.Comparable.(Sample))
	}
	return out
}

// Estimate returns the ordinary kriging estimate at (x, y). A sample at the
// exact location returns its own value. If the kriging system cannot be
// solved the estimate falls back to inverse distance weighting.
func (k *Kriging) Estimate(x, y float64) float64 {
	nb := k.neighbors(x, y)
	target := Sample{X: x, Y: y}
	for _, s := range nb {
		if s.Distance(target) == 0 {
			return k.values[s.Index]
		}
	}
	if len(nb) == 1 {
		return k.values[nb[0].Index]
	}

	w, err := k.weights(nb, target)
	if err != nil {
		logx.Logger().Debug("interpolation: kriging system unsolved, using inverse distance", "x", x, "y", y, "err", err)
		return k.inverseDistance(nb, target)
	}
	var est float64
	for i, s := range nb {
		est += w[i] * k.values[s.Index]
	}
	return est
}

// weights solves the ordinary kriging system
//
//	| Γ  1 | |w|   |γ0|
//	| 1ᵀ 0 | |μ| = | 1|
//
// and returns w.
func (k *Kriging) weights(nb []Sample, target Sample) ([]float64, error) {
	n := len(nb)
	a := mat.NewDense(n+1, n+1, nil)
	b := mat.NewVecDense(n+1, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g := k.variogram(math.Sqrt(nb[i].Distance(nb[j])))
			a.Set(i, j, g)
			a.Set(j, i, g)
		}
		a.Set(i, n, 1)
		a.Set(n, i, 1)
		b.SetVec(i, k.variogram(math.Sqrt(nb[i].Distance(target))))
	}
	b.SetVec(n, 1)

	var lu mat.LU
	lu.Factorize(a)
	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, b); err != nil {
		return nil, err
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = x.AtVec(i)
		if math.IsNaN(w[i]) || math.IsInf(w[i], 0) {
			return nil, errors.New("interpolation: non-finite kriging weight")
		}
	}
	return w, nil
}

func (k *Kriging) inverseDistance(nb []Sample, target Sample) float64 {
	var sum, total float64
	for _, s := range nb {
		w := 1 / s.Distance(target)
		sum += w * k.values[s.Index]
		total += w
	}
	return sum / total
}

// FillGrid replaces every grid cell flagged in missing with a kriging
// estimate from the known cells. Cells are spread over numCores workers.
// It returns the number of cells filled.
func FillGrid(grid *models.ElevationGrid, missing []bool, numCores int) (int, error) {
	if len(missing) != len(grid.Data) {
		return 0, errors.New("interpolation: mask does not match grid")
	}

	var known []Sample
	var holes []int
	for i, m := range missing {
		if m {
			holes = append(holes, i)
			continue
		}
		known = append(known, Sample{X: float64(i % grid.Width), Y: float64(i / grid.Width), Index: i})
	}
	if len(holes) == 0 {
		return 0, nil
	}

	// estimates read from a copy so workers never see each other's output
	values := append([]float64(nil), grid.Data...)
	k, err := NewKriging(known, values, FitParams(known, values))
	if err != nil {
		return 0, err
	}

	if numCores < 1 {
		numCores = 1
	}
	perCore := (len(holes) + numCores - 1) / numCores

	var wg sync.WaitGroup
	for c := 0; c < numCores; c++ {
		lo := c * perCore
		hi := min(lo+perCore, len(holes))
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(cells []int) {
			defer wg.Done()
			for _, i := range cells {
				grid.Data[i] = k.Estimate(float64(i%grid.Width), float64(i/grid.Width))
			}
		}(holes[lo:hi])
	}
	wg.Wait()

	logx.Logger().Debug("interpolation: filled grid gaps",
		"cells", len(holes), "known", len(known), "range", k.params.Range, "sill", k.params.Sill)
	return len(holes), nil
}
