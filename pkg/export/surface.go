// Package export implements a render surface that writes each accepted
// descriptor to disk: meshes as binary STL with their per-vertex scalars as
// raw float32 beside them, volumes as raw float32 with a YAML sidecar, and the
// active transfer function as YAML. It keeps at most one set
// of files per visualization kind.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"geovis/internal/logx"
	"geovis/internal/models"
	"geovis/pkg/stl"
	"geovis/pkg/transfer"
)

// WiggleLines is the YAML form of the line geometry of a wiggle display.
type WiggleLines struct {
	Step       int               `yaml:"step"`
	Annotation models.Annotation `yaml:"annotation"`
	Traces     [][]float32       `yaml:"traces"`
	Border     []float32         `yaml:"border,flow"`
	Ticks      [][]float32       `yaml:"ticks"`
}

// Surface writes descriptors under a directory.
type Surface struct {
	dir      string
	compress bool

	mu    sync.Mutex
	files map[models.Kind][]string
}

// NewSurface creates dir if needed. compress selects zlib for volume and
// scalar data.
func NewSurface(dir string, compress bool) (*Surface, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Surface{dir: dir, compress: compress, files: make(map[models.Kind][]string)}, nil
}

// Dir returns the output directory.
func (s *Surface) Dir() string { return s.dir }

// Accept writes d and its mapping. Files left by an earlier descriptor of the
// same kind must have been disposed first.
func (s *Surface) Accept(d models.Descriptor, m transfer.Mapping) error {
	kind := d.Kind()
	base := kind.String()

	var (
		paths []string
		err   error
	)
	switch v := d.(type) {
	case *models.MeshDescriptor:
		paths, err = s.writeMesh(base, v)
	case *models.WiggleDescriptor:
		paths, err = s.writeWiggle(base, v)
	case *models.VolumeDescriptor:
		paths, err = WriteVolume(s.dir, base, v, s.compress)
	default:
		err = fmt.Errorf("export: unsupported descriptor %T", d)
	}
	if err == nil {
		var tfPath string
		tfPath, err = s.writeMapping(kind, m)
		if tfPath != "" {
			paths = append(paths, tfPath)
		}
	}

	s.mu.Lock()
	s.files[kind] = paths
	s.mu.Unlock()

	if err != nil {
		return err
	}
	logx.Logger().Info("export: wrote", "kind", base, "files", len(paths))
	return nil
}

// Recolor rewrites the transfer function of an active kind.
func (s *Surface) Recolor(kind models.Kind, m transfer.Mapping) error {
	s.mu.Lock()
	_, ok := s.files[kind]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	_, err := s.writeMapping(kind, m)
	return err
}

// Dispose removes every file written for kind.
func (s *Surface) Dispose(kind models.Kind) error {
	s.mu.Lock()
	paths := s.files[kind]
	delete(s.files, kind)
	s.mu.Unlock()

	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Files returns the paths currently written for kind, sorted.
func (s *Surface) Files(kind models.Kind) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.files[kind]...)
	sort.Strings(out)
	return out
}

func (s *Surface) writeMesh(base string, m *models.MeshDescriptor) ([]string, error) {
	path := filepath.Join(s.dir, base+".stl")
	if err := stl.SaveToSTL(path, stl.NewMesher(m).GenerateTriangles()); err != nil {
		return nil, err
	}
	paths := []string{path}
	if len(m.Scalars) == 0 {
		return paths, nil
	}
	written, err := WriteScalars(s.dir, base, m.Scalars, m.ScalarRange, s.compress)
	return append(paths, written...), err
}

func (s *Surface) writeWiggle(base string, w *models.WiggleDescriptor) ([]string, error) {
	fillPath := filepath.Join(s.dir, base+"_fill.stl")
	if err := stl.SaveToSTL(fillPath, stl.NewMesher(&w.Fill, &w.Background).GenerateTriangles()); err != nil {
		return nil, err
	}

	lines := WiggleLines{
		Step:       w.Step,
		Annotation: w.Annotation,
		Border:     w.Border,
	}
	for _, tr := range w.Traces {
		lines.Traces = append(lines.Traces, tr)
	}
	for _, tk := range w.Ticks {
		lines.Ticks = append(lines.Ticks, tk)
	}
	linesPath := filepath.Join(s.dir, base+"_lines.yaml")
	if err := writeYAML(linesPath, &lines); err != nil {
		return []string{fillPath}, err
	}
	return []string{fillPath, linesPath}, nil
}

func (s *Surface) writeMapping(kind models.Kind, m transfer.Mapping) (string, error) {
	path := filepath.Join(s.dir, kind.String()+"_transfer.yaml")
	if err := writeYAML(path, &m); err != nil {
		return "", err
	}
	return path, nil
}
