package volume

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"geovis/internal/models"
	"geovis/pkg/transfer"
)

// Viewer extracts axis-aligned slices from a volume and colors them through a
// transfer-function mapping.
type Viewer struct {
	vol     *models.VolumeDescriptor
	mapping transfer.Mapping
}

// NewViewer creates a viewer over vol. The mapping should cover vol.ValueRange.
func NewViewer(vol *models.VolumeDescriptor, mapping transfer.Mapping) *Viewer {
	return &Viewer{vol: vol, mapping: mapping}
}

// ExtractSlice extracts a 2D slice perpendicular to axis at position.
//
//	x: trace plane, slice index across, sample down
//	y: time slice, trace across, slice index down
//	z: one gather, trace across, sample down
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	nx, ny, nz := v.vol.Dims[0], v.vol.Dims[1], v.vol.Dims[2]

	var (
		w, h int
		at   func(col, row int) int
	)
	switch axis {
	case "x", "X":
		if position >= nx {
			return nil, fmt.Errorf("position %d exceeds width %d", position, nx)
		}
		w, h = nz, ny
		at = func(col, row int) int { return FlattenIndex(position, row, col, nx, ny) }

	case "y", "Y":
		if position >= ny {
			return nil, fmt.Errorf("position %d exceeds height %d", position, ny)
		}
		w, h = nx, nz
		at = func(col, row int) int { return FlattenIndex(col, position, row, nx, ny) }

	case "z", "Z":
		if position >= nz {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, nz)
		}
		w, h = nx, ny
		at = func(col, row int) int { return FlattenIndex(col, row, position, nx, ny) }

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			idx := at(col, row)
			if idx >= len(v.vol.Scalars) {
				continue
			}
			r, g, b := v.mapping.ColorOf(float64(v.vol.Scalars[idx])).Clamped().RGB255()
			img.SetRGBA(col, row, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along axis into outputDir
// and returns the number written.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) (int, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.vol.Dims[0]
	case "y", "Y":
		maxPos = v.vol.Dims[1]
	case "z", "Z":
		maxPos = v.vol.Dims[2]
	default:
		return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return pos, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return pos, err
		}
	}

	return maxPos, nil
}
