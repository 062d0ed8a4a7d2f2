package remesh

import (
	gomath "math"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
)

// MarkFeatures flags every manifold edge whose dihedral angle exceeds
// angleDeg as a feature and locks its endpoints. A non-positive angle
// disables detection. It returns the number of flagged edges.
func MarkFeatures(m *mesh.Mesh, angleDeg float64) int {
	if angleDeg <= 0 {
		return 0
	}
	cosMax := gomath.Cos(angleDeg * gomath.Pi / 180)
	n := 0
	for e := range m.Edges() {
		f0, f1, nf := m.EdgeFaces(e)
		if nf != 2 {
			continue
		}
		if m.FaceNormal(f0).Dot(m.FaceNormal(f1)) >= cosMax {
			continue
		}
		m.SetEdgeFlag(e, mesh.EdgeFeature, true)
		a, b := m.EdgeVerts(e)
		m.SetVertFlag(a, mesh.VertLocked, true)
		m.SetVertFlag(b, mesh.VertLocked, true)
		n++
	}
	return n
}
