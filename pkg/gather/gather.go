// Package gather selects windows of adjacent traces from a decoded SEGY
// dataset and reshapes them for the mesh and volume builders.
package gather

import (
	"errors"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/stat"

	"geovis/internal/models"
)

// NoDataError reports an operation that needs a dataset before one is loaded.
type NoDataError struct {
	Op string
}

func (e *NoDataError) Error() string {
	if e.Op == "" {
		return "no dataset loaded"
	}
	return fmt.Sprintf("%s: no dataset loaded", e.Op)
}

// Is lets errors.Is match any NoDataError against ErrNoData.
func (e *NoDataError) Is(target error) bool {
	return target == ErrNoData
}

// ErrNoData is the sentinel matched by every NoDataError.
var ErrNoData = errors.New("no dataset loaded")

// Window is a clamped run of adjacent traces.
type Window struct {
	Traces []models.Trace
	Start  int
	Count  int

	// SampleCount is the samples per trace of the source dataset
	SampleCount int
}

// Extract selects count traces starting at start. Out-of-range requests are
// clamped rather than rejected: start into [0, traceCount-1] and count into
// [0, traceCount-start]. The returned traces alias the dataset.
func Extract(ds *models.SEGYDataset, start, count int) (Window, error) {
	if ds == nil {
		return Window{}, &NoDataError{Op: "extract"}
	}
	n := len(ds.Traces)
	if n == 0 {
		return Window{SampleCount: ds.SampleCount}, nil
	}

	start = clamp(start, 0, n-1)
	count = clamp(count, 0, n-start)
	return Window{
		Traces:      ds.Traces[start : start+count],
		Start:       start,
		Count:       count,
		SampleCount: ds.SampleCount,
	}, nil
}

// Amplitudes copies the window into a trace-major [trace][sample] array,
// keeping every sampleDecim-th sample and replacing NaN and ±Inf with 0.
func (w Window) Amplitudes(sampleDecim int) [][]float32 {
	if sampleDecim < 1 {
		sampleDecim = 1
	}
	out := make([][]float32, len(w.Traces))
	for i, tr := range w.Traces {
		row := make([]float32, 0, (len(tr)+sampleDecim-1)/sampleDecim)
		for j := 0; j < len(tr); j += sampleDecim {
			row = append(row, finite(tr[j]))
		}
		out[i] = row
	}
	return out
}

// MaxAbs returns the largest absolute amplitude in amps.
func MaxAbs(amps [][]float32) float32 {
	var m float32
	for _, row := range amps {
		for _, v := range row {
			m = math32.Max(m, math32.Abs(v))
		}
	}
	return m
}

// Range returns the min and max amplitude in amps, or (0,0) when empty.
func Range(amps [][]float32) (lo, hi float32) {
	first := true
	for _, row := range amps {
		for _, v := range row {
			if first {
				lo, hi = v, v
				first = false
				continue
			}
			lo = math32.Min(lo, v)
			hi = math32.Max(hi, v)
		}
	}
	return lo, hi
}

// Stats summarizes the amplitude distribution of a window.
type Stats struct {
	Mean   float64
	StdDev float64
	RMS    float64
	MaxAbs float64
}

// ComputeStats returns amplitude statistics over every sample in amps.
func ComputeStats(amps [][]float32) Stats {
	var flat []float64
	for _, row := range amps {
		for _, v := range row {
			flat = append(flat, float64(v))
		}
	}
	if len(flat) == 0 {
		return Stats{}
	}

	var s Stats
	s.Mean, s.StdDev = stat.MeanStdDev(flat, nil)
	if len(flat) == 1 {
		s.StdDev = 0
	}
	var sumSq float64
	for _, v := range flat {
		sumSq += v * v
		if a := math.Abs(v); a > s.MaxAbs {
			s.MaxAbs = a
		}
	}
	s.RMS = math.Sqrt(sumSq / float64(len(flat)))
	return s
}

// Stack extracts slices gathers, the k-th starting at start+k*stride, each
// clamped independently, and decimates their samples. All slices share the
// trace count of the first one so they can be stacked into a volume. A first
// window that clamps to no traces yields no slices.
func Stack(ds *models.SEGYDataset, start, count, slices, stride, sampleDecim int) ([][][]float32, error) {
	if ds == nil {
		return nil, &NoDataError{Op: "stack"}
	}
	slices = max(1, slices)
	stride = max(1, stride)
	sampleDecim = max(1, sampleDecim)

	first, err := Extract(ds, start, count)
	if err != nil {
		return nil, err
	}
	nx := first.Count
	if nx == 0 {
		return [][][]float32{}, nil
	}

	out := make([][][]float32, 0, slices)
	for k := 0; k < slices; k++ {
		w, err := Extract(ds, start+k*stride, nx)
		if err != nil {
			return nil, err
		}
		amps := w.Amplitudes(sampleDecim)
		// Windows near the end of the file come back short; pad with the
		// last available trace so every slice has nx traces.
		for len(amps) < nx && len(amps) > 0 {
			amps = append(amps, amps[len(amps)-1])
		}
		out = append(out, amps)
	}
	return out, nil
}

func finite(v float32) float32 {
	if math32.IsNaN(v) || math32.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
