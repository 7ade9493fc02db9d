package mesh

import (
	"fmt"

	"geovis/internal/logx"
	"geovis/internal/models"
)

// SurfaceOptions controls DEM surface construction.
type SurfaceOptions struct {
	// TargetResolution bounds the larger sampled grid dimension; 0 keeps every cell
	TargetResolution int

	// VerticalExaggeration is the height of the normalized relief
	VerticalExaggeration float64
}

// BuildSurface triangulates an elevation grid into a unit-footprint surface.
//
// The grid is decimated to about TargetResolution cells on its long side. XY
// is centered and scaled by 1/max(w2,h2) (or by the world extent when the grid
// has one); Z is (elevation - zmin) * VerticalExaggeration / (zmax - zmin).
// The raw elevation is kept as the per-vertex scalar.
func BuildSurface(grid *models.ElevationGrid, opts SurfaceOptions) (*models.MeshDescriptor, error) {
	if grid == nil || grid.Width <= 0 || grid.Height <= 0 {
		return nil, fmt.Errorf("surface: %w", ErrEmptyInput)
	}
	if len(grid.Data) < grid.Width*grid.Height {
		return nil, fmt.Errorf("surface: grid has %d cells, want %d", len(grid.Data), grid.Width*grid.Height)
	}

	decim, w2, h2 := decimation(grid.Width, grid.Height, opts.TargetResolution)

	zmin, zmax := grid.ZMin, grid.ZMax
	if zmin > zmax {
		zmin, zmax = sampledRange(grid, decim, w2, h2)
	}
	dz := zmax - zmin
	if dz == 0 {
		dz = 1
	}
	scaleZ := opts.VerticalExaggeration / dz

	place := gridPlacement(grid, decim, w2, h2)

	m := &models.MeshDescriptor{
		Of:          models.KindDEM,
		Positions:   make([]float32, 0, w2*h2*3),
		Scalars:     make([]float32, 0, w2*h2),
		ScalarRange: [2]float32{float32(zmin), float32(zmax)},
	}
	for r := 0; r < h2; r++ {
		for c := 0; c < w2; c++ {
			z := finite(grid.At(c*decim, r*decim))
			x, y := place(c, r)
			m.AddVertex(float32(x), float32(y), float32((z-zmin)*scaleZ))
			m.Scalars = append(m.Scalars, float32(z))
		}
	}
	appendGridTriangles(m, w2, h2)

	logx.Logger().Debug("surface: built",
		"grid", fmt.Sprintf("%dx%d", grid.Width, grid.Height),
		"decim", decim, "vertices", m.VertexCount(), "triangles", m.TriangleCount())
	return m, nil
}

// gridPlacement returns the XY of sampled vertex (c, r), centered on the
// origin and scaled so the longer side spans about one unit. Row 0 is the
// northern edge (+Y) with or without a world extent.
func gridPlacement(grid *models.ElevationGrid, decim, w2, h2 int) func(c, r int) (float64, float64) {
	if ext := grid.World; ext != nil && grid.Width > 1 && grid.Height > 1 {
		dx, dy := ext.MaxX-ext.MinX, ext.MaxY-ext.MinY
		if dx == 0 {
			dx = 1
		}
		if dy == 0 {
			dy = 1
		}
		scale := 1 / max(dx, dy)
		cx, cy := (ext.MinX+ext.MaxX)/2, (ext.MinY+ext.MaxY)/2
		return func(c, r int) (float64, float64) {
			wx := ext.MinX + float64(c*decim)/float64(grid.Width-1)*(ext.MaxX-ext.MinX)
			wy := ext.MaxY - float64(r*decim)/float64(grid.Height-1)*(ext.MaxY-ext.MinY)
			return (wx - cx) * scale, (wy - cy) * scale
		}
	}

	scale := 1 / float64(max(w2, h2))
	cx, cy := float64(w2-1)/2, float64(h2-1)/2
	return func(c, r int) (float64, float64) {
		return (float64(c) - cx) * scale, (cy - float64(r)) * scale
	}
}

func sampledRange(grid *models.ElevationGrid, decim, w2, h2 int) (lo, hi float64) {
	first := true
	for r := 0; r < h2; r++ {
		for c := 0; c < w2; c++ {
			z := finite(grid.At(c*decim, r*decim))
			if first {
				lo, hi, first = z, z, false
				continue
			}
			lo, hi = min(lo, z), max(hi, z)
		}
	}
	return lo, hi
}
