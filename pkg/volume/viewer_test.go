package volume

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"

	"geovis/internal/models"
	"geovis/pkg/transfer"
)

func grayMapping(lo, hi float64) transfer.Mapping {
	f, err := transfer.New([]transfer.ControlPoint{
		{Position: 0, Color: colorful.Color{}, Opacity: 1},
		{Position: 1, Color: colorful.Color{R: 1, G: 1, B: 1}, Opacity: 1},
	})
	if err != nil {
		panic(err)
	}
	return f.MapToScalarRange(lo, hi)
}

func testVolume(width, height, depth int) *models.VolumeDescriptor {
	vol := &models.VolumeDescriptor{
		Dims:       [3]int{width, height, depth},
		Scalars:    make([]float32, width*height*depth),
		ValueRange: [2]float32{0, 1},
	}
	// Fill with test pattern: each slice along Z has a unique value
	for z := 0; z < depth; z++ {
		value := float32(z) / float32(depth-1)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				vol.Scalars[FlattenIndex(x, y, z, width, height)] = value
			}
		}
	}
	return vol
}

// TestExtractSlice verifies that slices are correctly extracted from the volume
func TestExtractSlice(t *testing.T) {
	width, height, depth := 10, 8, 5
	viewer := NewViewer(testVolume(width, height, depth), grayMapping(0, 1))

	// Test extracting Z slices
	for z := 0; z < depth; z++ {
		img, err := viewer.ExtractSlice("z", z)
		if err != nil {
			t.Fatalf("Failed to extract Z slice at position %d: %v", z, err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != width || bounds.Dy() != height {
			t.Errorf("Expected Z slice dimensions %dx%d, got %dx%d",
				width, height, bounds.Dx(), bounds.Dy())
		}

		rgba, ok := img.(*image.RGBA)
		if !ok {
			t.Fatalf("Expected *image.RGBA, got %T", img)
		}

		// gray ramp: slice value z/(depth-1) maps to the same gray level
		expected := int(float64(z)/float64(depth-1)*255 + 0.5)
		got := int(rgba.RGBAAt(width/2, height/2).R)
		if got < expected-1 || got > expected+1 {
			t.Errorf("Expected Z slice value ~%d at center, got %d", expected, got)
		}
	}

	imgX, err := viewer.ExtractSlice("x", width/2)
	if err != nil {
		t.Fatalf("Failed to extract X slice: %v", err)
	}
	if b := imgX.Bounds(); b.Dx() != depth || b.Dy() != height {
		t.Errorf("Expected X slice dimensions %dx%d, got %dx%d", depth, height, b.Dx(), b.Dy())
	}

	imgY, err := viewer.ExtractSlice("y", height/2)
	if err != nil {
		t.Fatalf("Failed to extract Y slice: %v", err)
	}
	if b := imgY.Bounds(); b.Dx() != width || b.Dy() != depth {
		t.Errorf("Expected Y slice dimensions %dx%d, got %dx%d", width, depth, b.Dx(), b.Dy())
	}

	if _, err := viewer.ExtractSlice("invalid", 0); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
	if _, err := viewer.ExtractSlice("z", depth+1); err == nil {
		t.Error("Expected error for out of bounds position, got nil")
	}
	if _, err := viewer.ExtractSlice("x", -1); err == nil {
		t.Error("Expected error for negative position, got nil")
	}
}

// TestSaveSliceSequence verifies that a full slice sequence is written to disk
func TestSaveSliceSequence(t *testing.T) {
	width, height, depth := 6, 4, 3
	viewer := NewViewer(testVolume(width, height, depth), grayMapping(0, 1))
	outputDir := filepath.Join(t.TempDir(), "slices")

	n, err := viewer.SaveSliceSequence("z", outputDir)
	if err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}
	if n != depth {
		t.Errorf("Expected %d slices written, got %d", depth, n)
	}

	for z := 0; z < depth; z++ {
		filename := filepath.Join(outputDir, "slice_z_00"+string(rune('0'+z))+".jpg")
		info, err := os.Stat(filename)
		if err != nil {
			t.Errorf("Expected slice file %s: %v", filename, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("Slice file %s is empty", filename)
		}
	}

	if _, err := viewer.SaveSliceSequence("w", outputDir); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}
