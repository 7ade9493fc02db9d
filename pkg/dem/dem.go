// Package dem loads digital elevation models from raster images into
// elevation grids.
//
// Pixel values are read as 16-bit gray levels. An optional YAML sidecar next
// to the image (same base name, .yaml extension) converts them to elevations
// and places the grid in world coordinates:
//
//	scale: 0.5        # metres per gray level
//	offset: -120      # elevation of gray level 0
//	nodata: 0         # gray level that marks missing cells
//	extent: {minX: 500000, maxX: 512000, minY: 4100000, maxY: 4108000}
//
// Missing cells stay 0 unless Options.FillNoData is set, in which case they
// are kriged from the surrounding elevations.
package dem

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/tiff"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"geovis/internal/logx"
	"geovis/internal/models"
	"geovis/pkg/interpolation"
)

// Options controls grid post-processing.
type Options struct {
	// ClipLowPercentile and ClipHighPercentile clamp elevations to the given
	// percentiles of the grid. Both zero disables clipping.
	ClipLowPercentile  float64
	ClipHighPercentile float64

	// FillNoData replaces nodata cells with kriging estimates
	FillNoData bool

	// NumCores bounds the gap-filling workers
	NumCores int
}

// Sidecar holds optional georeferencing and value scaling for a raster.
type Sidecar struct {
	Scale  float64        `yaml:"scale"`
	Offset float64        `yaml:"offset"`
	NoData *float64       `yaml:"nodata"`
	Extent *models.Extent `yaml:"extent"`
}

// ReadFile loads path and its sidecar, if any.
func ReadFile(path string, opts Options) (*models.ElevationGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dem: %w", err)
	}
	defer f.Close()

	sc, err := ReadSidecar(sidecarPath(path))
	if err != nil {
		return nil, err
	}

	grid, err := Decode(f, sc, opts)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	logx.Logger().Info("dem: loaded",
		"path", path, "width", grid.Width, "height", grid.Height,
		"zmin", grid.ZMin, "zmax", grid.ZMax, "georeferenced", grid.World != nil)
	return grid, nil
}

// ReadSidecar parses a sidecar file. A missing file yields nil and no error.
func ReadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sidecar: %w", err)
	}
	var sc Sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse sidecar %s: %w", filepath.Base(path), err)
	}
	return &sc, nil
}

func sidecarPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".yaml"
}

// Decode reads a TIFF, PNG or JPEG raster from r.
func Decode(r io.Reader, sc *Sidecar, opts Options) (*models.ElevationGrid, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromImage(img, sc, opts)
}

// FromImage converts a decoded raster into an elevation grid.
func FromImage(img image.Image, sc *Sidecar, opts Options) (*models.ElevationGrid, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errors.New("empty raster")
	}

	scale, offset := 1.0, 0.0
	if sc != nil && sc.Scale != 0 {
		scale = sc.Scale
	}
	if sc != nil {
		offset = sc.Offset
	}

	data := make([]float64, w*h)
	var missing []bool
	holes := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16).Y
			if sc != nil && sc.NoData != nil && float64(g) == *sc.NoData {
				if missing == nil {
					missing = make([]bool, w*h)
				}
				missing[y*w+x] = true
				holes++
				continue
			}
			data[y*w+x] = offset + scale*float64(g)
		}
	}

	grid := &models.ElevationGrid{Width: w, Height: h, Data: data}
	if sc != nil && sc.Extent != nil {
		ext := *sc.Extent
		grid.World = &ext
	}
	if opts.FillNoData && holes > 0 {
		if holes == w*h {
			return nil, errors.New("raster holds only nodata cells")
		}
		if _, err := interpolation.FillGrid(grid, missing, opts.NumCores); err != nil {
			return nil, fmt.Errorf("fill nodata: %w", err)
		}
		logx.Logger().Info("dem: filled nodata cells", "cells", holes)
	}
	if err := Finalize(grid, opts); err != nil {
		return nil, err
	}
	return grid, nil
}

// Finalize replaces non-finite cells with 0, applies the percentile clip and
// recomputes ZMin and ZMax. Grids built by hand go through it too.
func Finalize(grid *models.ElevationGrid, opts Options) error {
	if grid == nil || len(grid.Data) == 0 {
		return errors.New("empty elevation grid")
	}
	if len(grid.Data) != grid.Width*grid.Height {
		return fmt.Errorf("elevation grid has %d cells, want %dx%d", len(grid.Data), grid.Width, grid.Height)
	}

	for i, v := range grid.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			grid.Data[i] = 0
		}
	}

	if opts.ClipLowPercentile > 0 || opts.ClipHighPercentile > 0 {
		lo, hi := percentileRange(grid.Data, opts.ClipLowPercentile, opts.ClipHighPercentile)
		for i, v := range grid.Data {
			grid.Data[i] = math.Max(lo, math.Min(v, hi))
		}
	}

	grid.ZMin = floats.Min(grid.Data)
	grid.ZMax = floats.Max(grid.Data)
	return nil
}

// percentileRange returns the low and high percentiles of data. A high
// percentile of 0 means 100.
func percentileRange(data []float64, low, high float64) (float64, float64) {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	if high <= 0 || high > 100 {
		high = 100
	}
	low = math.Max(0, math.Min(low, high))
	return stat.Quantile(low/100, stat.LinInterp, sorted, nil),
		stat.Quantile(high/100, stat.LinInterp, sorted, nil)
}
