package models

import (
	"fmt"
	"strings"
)

// Kind identifies a visualization family. At most one descriptor per kind
// is active on a render surface at a time.
type Kind int

const (
	KindDEM Kind = iota
	KindDensity
	KindWiggle
	KindVolume
)

// Kinds lists every visualization kind in display order.
var Kinds = []Kind{KindDEM, KindDensity, KindWiggle, KindVolume}

func (k Kind) String() string {
	switch k {
	case KindDEM:
		return "dem"
	case KindDensity:
		return "density"
	case KindWiggle:
		return "wiggle"
	case KindVolume:
		return "volume"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a kind name (case-insensitive) back to its Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(name, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown visualization kind %q", name)
}

// Descriptor is anything a render surface can accept.
type Descriptor interface {
	Kind() Kind
}

// MeshDescriptor is a triangulated surface in flat buffer form.
type MeshDescriptor struct {
	// Of is the visualization kind that produced the mesh
	Of Kind

	// Positions holds 3 floats per vertex
	Positions []float32

	// Triangles holds one face per 4 entries: the vertex count (always 3)
	// followed by three vertex indices
	Triangles []uint32

	// Scalars holds one value per vertex for color mapping
	Scalars []float32

	// ScalarRange is the (min, max) the scalars should be mapped over
	ScalarRange [2]float32
}

func (m *MeshDescriptor) Kind() Kind { return m.Of }

// VertexCount returns the number of vertices in the mesh.
func (m *MeshDescriptor) VertexCount() int { return len(m.Positions) / 3 }

// TriangleCount returns the number of faces in the mesh.
func (m *MeshDescriptor) TriangleCount() int { return len(m.Triangles) / 4 }

// AddTriangle appends a face with the given vertex indices.
func (m *MeshDescriptor) AddTriangle(a, b, c uint32) {
	m.Triangles = append(m.Triangles, 3, a, b, c)
}

// AddVertex appends a vertex and returns its index.
func (m *MeshDescriptor) AddVertex(x, y, z float32) uint32 {
	idx := uint32(len(m.Positions) / 3)
	m.Positions = append(m.Positions, x, y, z)
	return idx
}

// Polyline is an open line strip, 3 floats per vertex.
type Polyline []float32

// Annotation carries axis labelling for 2D seismic sections.
type Annotation struct {
	StartTrace  int     `yaml:"startTrace"`
	TraceCount  int     `yaml:"traceCount"`
	SampleCount int     `yaml:"sampleCount"`
	DtMs        float64 `yaml:"dtMs"`

	// MaxTimeMs is SampleCount*DtMs, rounded
	MaxTimeMs int `yaml:"maxTimeMs"`
}

// WiggleDescriptor is the variable-area display of a trace window.
type WiggleDescriptor struct {
	// Traces holds one polyline per trace
	Traces []Polyline

	// Fill covers the positive lobes only
	Fill MeshDescriptor

	// Background is a single quad behind all traces
	Background MeshDescriptor

	// Border and Ticks are frame decoration line strips
	Border Polyline
	Ticks  []Polyline

	// Step is the vertical decimation stride applied to samples
	Step int

	Annotation Annotation
}

func (w *WiggleDescriptor) Kind() Kind { return KindWiggle }

// VolumeDescriptor is a regular voxel grid for direct volume rendering.
// Scalars are indexed z*nx*ny + y*nx + x.
type VolumeDescriptor struct {
	Dims       [3]int
	Spacing    [3]float32
	Scalars    []float32
	ValueRange [2]float32

	Annotation Annotation
}

func (v *VolumeDescriptor) Kind() Kind { return KindVolume }
