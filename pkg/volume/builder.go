// Package volume stacks 2D trace gathers into a regular voxel grid for direct
// volume rendering and extracts axis-aligned slices from the result.
package volume

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/chewxy/math32"

	"geovis/internal/logx"
	"geovis/internal/models"
)

// ErrEmptyInput is returned when there is nothing to stack.
var ErrEmptyInput = errors.New("volume: empty input")

// Options controls volume assembly.
type Options struct {
	// ClipFactor scales the symmetric clip level relative to the largest
	// absolute amplitude. 0 disables clipping.
	ClipFactor float64

	// Spacing is the voxel size along x (trace), y (sample) and z (slice)
	Spacing [3]float32

	// NumCores bounds the slice fan-out; 0 uses GOMAXPROCS
	NumCores int

	// SliceUpsample inserts SliceUpsample-1 linearly interpolated slices
	// between each pair of source slices. Values below 2 disable it.
	SliceUpsample int

	Annotation models.Annotation
}

// FlattenIndex returns the offset of voxel (x, y, z) in a grid of nx by ny
// columns per slice.
func FlattenIndex(x, y, z, nx, ny int) int {
	return z*nx*ny + y*nx + x
}

// Spacing returns the voxel spacing for gathers decimated by sampleDecim at a
// sample interval of dtMs.
func Spacing(dtMs float64, sampleDecim int) [3]float32 {
	if dtMs <= 0 {
		dtMs = 1
	}
	return [3]float32{1, float32(dtMs * float64(max(1, sampleDecim))), 1}
}

// Build stacks slices into a volume. slices is indexed [z][x][y]: one gather
// per slice, one trace per x, one sample per y. Every gather must have the
// same shape.
//
// Voxels are written with FlattenIndex. After assembly the values are clipped
// to ±ClipFactor*max|a| and ValueRange is set to that symmetric interval.
func Build(slices [][][]float32, opts Options) (*models.VolumeDescriptor, error) {
	nz := len(slices)
	if nz == 0 || len(slices[0]) == 0 || len(slices[0][0]) == 0 {
		return nil, fmt.Errorf("build: %w", ErrEmptyInput)
	}
	nx, ny := len(slices[0]), len(slices[0][0])
	for z, gather := range slices {
		if len(gather) != nx {
			return nil, fmt.Errorf("build: slice %d has %d traces, want %d", z, len(gather), nx)
		}
		for x, tr := range gather {
			if len(tr) != ny {
				return nil, fmt.Errorf("build: slice %d trace %d has %d samples, want %d", z, x, len(tr), ny)
			}
		}
	}

	up := max(1, opts.SliceUpsample)
	depth := (nz-1)*up + 1
	perSlice := nx * ny
	scalars := make([]float32, perSlice*depth)

	numCores := opts.NumCores
	if numCores <= 0 {
		numCores = runtime.GOMAXPROCS(0)
	}
	numCores = min(numCores, nz)
	slicesPerCore := (nz + numCores - 1) / numCores

	// per-core extents, reduced after the fan-out
	lows := make([]float32, numCores)
	highs := make([]float32, numCores)

	var wg sync.WaitGroup
	for c := 0; c < numCores; c++ {
		wg.Add(1)
		go func(coreID int) {
			defer wg.Done()

			startSlice := coreID * slicesPerCore
			endSlice := min(nz, (coreID+1)*slicesPerCore)
			lo, hi := float32(math.MaxFloat32), float32(-math.MaxFloat32)

			for i := startSlice; i < endSlice; i++ {
				zPos := i * up
				for x, tr := range slices[i] {
					for y, v := range tr {
						scalars[FlattenIndex(x, y, zPos, nx, ny)] = v
						lo = math32.Min(lo, v)
						hi = math32.Max(hi, v)
					}
				}

				if i == nz-1 {
					continue
				}
				next := slices[i+1]
				for z := 1; z < up; z++ {
					t := float32(z) / float32(up)
					for x, tr := range slices[i] {
						for y, v := range tr {
							scalars[FlattenIndex(x, y, zPos+z, nx, ny)] = (1-t)*v + t*next[x][y]
						}
					}
				}
			}
			lows[coreID], highs[coreID] = lo, hi
		}(c)
	}
	wg.Wait()

	lo, hi := lows[0], highs[0]
	for c := 1; c < numCores; c++ {
		if slicesPerCore*c >= nz {
			break
		}
		lo, hi = math32.Min(lo, lows[c]), math32.Max(hi, highs[c])
	}

	clip := math32.Max(math32.Abs(lo), math32.Abs(hi))
	if opts.ClipFactor > 0 {
		clip *= float32(opts.ClipFactor)
		for i, v := range scalars {
			scalars[i] = math32.Max(-clip, math32.Min(v, clip))
		}
	}

	spacing := opts.Spacing
	if spacing == ([3]float32{}) {
		spacing = [3]float32{1, 1, 1}
	}
	spacing[2] /= float32(up)

	vol := &models.VolumeDescriptor{
		Dims:       [3]int{nx, ny, depth},
		Spacing:    spacing,
		Scalars:    scalars,
		ValueRange: [2]float32{-clip, clip},
		Annotation: opts.Annotation,
	}
	logx.Logger().Debug("volume: built",
		"dims", fmt.Sprintf("%dx%dx%d", nx, ny, depth),
		"range", fmt.Sprintf("[%g, %g]", lo, hi), "clip", clip, "cores", numCores)
	return vol, nil
}
