package mesh

import (
	"context"
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// FromTriangles builds a mesh from an indexed triangle list. Vertex i of pos
// becomes VertID(i). Triangles that would be degenerate, duplicated,
// non-manifold or inconsistently wound are skipped and counted; vertices left
// without any face are removed.
func FromTriangles(pos []math.Vec3, tris [][3]int) (*Mesh, int, error) {
	for i, t := range tris {
		for _, idx := range t {
			if idx < 0 || idx >= len(pos) {
				return nil, 0, fmt.Errorf("triangle %d: vertex index %d out of range [0,%d)", i, idx, len(pos))
			}
		}
	}

	m := New()
	for _, p := range pos {
		m.CreateVert(p)
	}

	skipped := 0
	for _, t := range tris {
		vs := [3]VertID{VertID(t[0]), VertID(t[1]), VertID(t[2])}
		if _, err := m.CreateFace(vs); err != nil {
			if !isRejection(err) {
				return nil, 0, err
			}
			skipped++
		}
	}

	for i := range pos {
		v := VertID(i)
		if m.verts[v].e == NilEdge {
			_ = m.KillVert(v)
		}
	}

	if err := m.RecalcNormals(context.Background()); err != nil {
		return nil, 0, err
	}
	m.ClearNewFlags()
	return m, skipped, nil
}

func isRejection(err error) bool {
	return errors.Is(err, ErrDegenerate) ||
		errors.Is(err, ErrDuplicateFace) ||
		errors.Is(err, ErrNonManifold) ||
		errors.Is(err, ErrOrientation)
}

// Triangles exports the live mesh as a compact indexed triangle list.
func (m *Mesh) Triangles() ([]math.Vec3, [][3]int) {
	index := make([]int, len(m.verts))
	pos := make([]math.Vec3, 0, m.nVerts)
	for v := range m.Verts() {
		index[v] = len(pos)
		pos = append(pos, m.verts[v].co)
	}
	tris := make([][3]int, 0, m.nFaces)
	for f := range m.Faces() {
		vs := m.FaceVerts(f)
		tris = append(tris, [3]int{index[vs[0]], index[vs[1]], index[vs[2]]})
	}
	return pos, tris
}
