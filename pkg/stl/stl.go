// Package stl converts triangulated descriptors into STL triangles and writes
// them as binary STL files.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/chewxy/math32"

	"geovis/internal/models"
)

// Triangle is one STL facet.
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

// Mesher converts one or more mesh descriptors into facets.
type Mesher struct {
	meshes []*models.MeshDescriptor
	scale  [3]float32
}

// NewMesher creates a mesher over the given meshes with unit scale.
func NewMesher(meshes ...*models.MeshDescriptor) *Mesher {
	return &Mesher{meshes: meshes, scale: [3]float32{1, 1, 1}}
}

// SetScale sets per-axis factors applied to every vertex, e.g. to undo the
// vertical exaggeration of a DEM surface.
func (m *Mesher) SetScale(x, y, z float32) {
	m.scale = [3]float32{x, y, z}
}

// GenerateTriangles returns one facet per face. Faces whose vertex count is
// not 3 or that reference missing vertices are skipped.
func (m *Mesher) GenerateTriangles() []Triangle {
	var out []Triangle
	for _, mesh := range m.meshes {
		if mesh == nil {
			continue
		}
		nv := uint32(mesh.VertexCount())
		for f := 0; f+3 < len(mesh.Triangles); f += 4 {
			if mesh.Triangles[f] != 3 {
				continue
			}
			a, b, c := mesh.Triangles[f+1], mesh.Triangles[f+2], mesh.Triangles[f+3]
			if a >= nv || b >= nv || c >= nv {
				continue
			}
			tri := Triangle{
				Vertex1: m.vertex(mesh, a),
				Vertex2: m.vertex(mesh, b),
				Vertex3: m.vertex(mesh, c),
			}
			tri.Normal = normal(tri.Vertex1, tri.Vertex2, tri.Vertex3)
			out = append(out, tri)
		}
	}
	return out
}

func (m *Mesher) vertex(mesh *models.MeshDescriptor, i uint32) [3]float32 {
	p := mesh.Positions[3*i : 3*i+3]
	return [3]float32{p[0] * m.scale[0], p[1] * m.scale[1], p[2] * m.scale[2]}
}

// normal returns the unit normal of the counter-clockwise triangle (a, b, c),
// or zero for a degenerate one.
func normal(a, b, c [3]float32) [3]float32 {
	u := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := [3]float32{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
	mag := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if mag == 0 {
		return [3]float32{}
	}
	return [3]float32{n[0] / mag, n[1] / mag, n[2] / mag}
}

// WriteSTL writes triangles in binary STL form: an 80-byte header, a
// little-endian facet count and 50 bytes per facet.
func WriteSTL(w io.Writer, triangles []Triangle) error {
	var header [80]byte
	copy(header[:], "geovis binary STL")
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return err
	}

	var rec [50]byte
	for _, t := range triangles {
		off := 0
		for _, v := range [4][3]float32{t.Normal, t.Vertex1, t.Vertex2, t.Vertex3} {
			for _, c := range v {
				binary.LittleEndian.PutUint32(rec[off:], math32.Float32bits(c))
				off += 4
			}
		}
		// attribute byte count stays zero
		if _, err := w.Write(rec[:]); err != nil {
			return err
		}
	}
	return nil
}

// SaveToSTL writes triangles to filename as binary STL.
func SaveToSTL(filename string, triangles []Triangle) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	if err := WriteSTL(bw, triangles); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return bw.Flush()
}
