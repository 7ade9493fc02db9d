package export

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/klauspost/compress/zlib"
	"gopkg.in/yaml.v3"

	"geovis/internal/models"
)

// Volume sidecar errors
var (
	ErrVolumeCorrupted = errors.New("export: corrupted volume data")
	ErrVolumeSidecar   = errors.New("export: invalid volume sidecar")
)

// Compression names recorded in a volume sidecar
const (
	CompressionNone = "none"
	CompressionZlib = "zlib"
)

// VolumeHeader is the YAML sidecar written next to a raw volume. The raw file
// holds Dims[0]*Dims[1]*Dims[2] little-endian float32 values indexed
// z*nx*ny + y*nx + x.
type VolumeHeader struct {
	Data        string            `yaml:"data"`
	DType       string            `yaml:"dtype"`
	ByteOrder   string            `yaml:"byteOrder"`
	Compression string            `yaml:"compression"`
	Dims        [3]int            `yaml:"dims,flow"`
	Spacing     [3]float32        `yaml:"spacing,flow"`
	ValueRange  [2]float32        `yaml:"valueRange,flow"`
	Annotation  models.Annotation `yaml:"annotation"`
}

// WriteVolume writes vol as <base>.raw (or <base>.raw.zz when compressed)
// plus <base>.yaml in dir and returns the paths written.
func WriteVolume(dir, base string, vol *models.VolumeDescriptor, compress bool) ([]string, error) {
	if want := vol.Dims[0] * vol.Dims[1] * vol.Dims[2]; len(vol.Scalars) != want {
		return nil, fmt.Errorf("export: volume has %d scalars, dims want %d", len(vol.Scalars), want)
	}

	hdr := VolumeHeader{
		Data:        base + ".raw",
		DType:       "float32",
		ByteOrder:   "little",
		Compression: CompressionNone,
		Dims:        vol.Dims,
		Spacing:     vol.Spacing,
		ValueRange:  vol.ValueRange,
		Annotation:  vol.Annotation,
	}
	if compress {
		hdr.Data += ".zz"
		hdr.Compression = CompressionZlib
	}

	rawPath := filepath.Join(dir, hdr.Data)
	if err := writeRaw(rawPath, vol.Scalars, compress); err != nil {
		return nil, err
	}

	hdrPath := filepath.Join(dir, base+".yaml")
	if err := writeYAML(hdrPath, &hdr); err != nil {
		return []string{rawPath}, err
	}
	return []string{rawPath, hdrPath}, nil
}

func writeRaw(path string, scalars []float32, compress bool) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(file)
	var w io.Writer = bw
	var zw *zlib.Writer
	if compress {
		zw, err = zlib.NewWriterLevel(bw, zlib.DefaultCompression)
		if err != nil {
			return err
		}
		w = zw
	}

	var word [4]byte
	for _, v := range scalars {
		binary.LittleEndian.PutUint32(word[:], math32.Float32bits(v))
		if _, err := w.Write(word[:]); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadVolume loads a volume written by WriteVolume from its sidecar path.
func ReadVolume(sidecarPath string) (*models.VolumeDescriptor, error) {
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		return nil, err
	}
	var hdr VolumeHeader
	if err := yaml.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVolumeSidecar, err)
	}
	if hdr.DType != "float32" || hdr.Dims[0] <= 0 || hdr.Dims[1] <= 0 || hdr.Dims[2] <= 0 {
		return nil, fmt.Errorf("%w: dtype %q dims %v", ErrVolumeSidecar, hdr.DType, hdr.Dims)
	}

	n := hdr.Dims[0] * hdr.Dims[1] * hdr.Dims[2]
	scalars, err := readRaw(filepath.Join(filepath.Dir(sidecarPath), hdr.Data), hdr.Compression, n)
	if err != nil {
		return nil, err
	}

	return &models.VolumeDescriptor{
		Dims:       hdr.Dims,
		Spacing:    hdr.Spacing,
		Scalars:    scalars,
		ValueRange: hdr.ValueRange,
		Annotation: hdr.Annotation,
	}, nil
}

// readRaw reads n little-endian float32 values written by writeRaw.
func readRaw(path, compression string, n int) ([]float32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = bufio.NewReader(file)
	switch compression {
	case CompressionZlib:
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVolumeCorrupted, err)
		}
		defer zr.Close()
		r = zr
	case CompressionNone, "":
	default:
		return nil, fmt.Errorf("%w: compression %q", ErrVolumeSidecar, compression)
	}

	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVolumeCorrupted, err)
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math32.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return out, nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
