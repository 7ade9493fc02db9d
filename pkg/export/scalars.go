package export

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ScalarHeader is the YAML sidecar of the per-vertex scalars of a mesh. The
// raw file holds Count little-endian float32 values in vertex order, so the
// i-th value belongs to the i-th vertex of the STL's source mesh.
type ScalarHeader struct {
	Data        string     `yaml:"data"`
	DType       string     `yaml:"dtype"`
	ByteOrder   string     `yaml:"byteOrder"`
	Compression string     `yaml:"compression"`
	Count       int        `yaml:"count"`
	ScalarRange [2]float32 `yaml:"scalarRange,flow"`
}

// WriteScalars writes scalars as <base>_scalars.raw (or .raw.zz) plus
// <base>_scalars.yaml in dir and returns the paths written.
func WriteScalars(dir, base string, scalars []float32, scalarRange [2]float32, compress bool) ([]string, error) {
	hdr := ScalarHeader{
		Data:        base + "_scalars.raw",
		DType:       "float32",
		ByteOrder:   "little",
		Compression: CompressionNone,
		Count:       len(scalars),
		ScalarRange: scalarRange,
	}
	if compress {
		hdr.Data += ".zz"
		hdr.Compression = CompressionZlib
	}

	rawPath := filepath.Join(dir, hdr.Data)
	if err := writeRaw(rawPath, scalars, compress); err != nil {
		return nil, err
	}
	hdrPath := filepath.Join(dir, base+"_scalars.yaml")
	if err := writeYAML(hdrPath, &hdr); err != nil {
		return []string{rawPath}, err
	}
	return []string{rawPath, hdrPath}, nil
}

// ReadScalars loads scalars written by WriteScalars from their sidecar path.
// Truncated or undecodable data reports ErrVolumeCorrupted.
func ReadScalars(sidecarPath string) ([]float32, [2]float32, error) {
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		return nil, [2]float32{}, err
	}
	var hdr ScalarHeader
	if err := yaml.Unmarshal(data, &hdr); err != nil {
		return nil, [2]float32{}, fmt.Errorf("%w: %v", ErrVolumeSidecar, err)
	}
	if hdr.DType != "float32" || hdr.Count < 0 {
		return nil, [2]float32{}, fmt.Errorf("%w: dtype %q count %d", ErrVolumeSidecar, hdr.DType, hdr.Count)
	}

	scalars, err := readRaw(filepath.Join(filepath.Dir(sidecarPath), hdr.Data), hdr.Compression, hdr.Count)
	if err != nil {
		return nil, [2]float32{}, err
	}
	return scalars, hdr.ScalarRange, nil
}
