package mesh

import (
	"context"
	"slices"

	"github.com/samber/lo"

	"github.com/Faultbox/midgard-sculpt/internal/parallel"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// Co returns the position of v.
func (m *Mesh) Co(v VertID) math.Vec3 { return m.verts[v].co }

// SetCo moves v. Face normals are not refreshed; see UpdateNormals.
func (m *Mesh) SetCo(v VertID, co math.Vec3) { m.verts[v].co = co }

// Normal returns the stored vertex normal of v.
func (m *Mesh) Normal(v VertID) math.Vec3 { return m.verts[v].no }

// SetNormal stores n as the vertex normal of v.
func (m *Mesh) SetNormal(v VertID, n math.Vec3) { m.verts[v].no = n }

// FaceNormal returns the stored unit normal of f.
func (m *Mesh) FaceNormal(f FaceID) math.Vec3 { return m.faces[f].no }

// FaceArea returns the stored area of f.
func (m *Mesh) FaceArea(f FaceID) float64 { return m.faces[f].area }

// FaceCoords returns the corner positions of f in winding order.
func (m *Mesh) FaceCoords(f FaceID) (a, b, c math.Vec3) {
	vs := m.FaceVerts(f)
	return m.verts[vs[0]].co, m.verts[vs[1]].co, m.verts[vs[2]].co
}

// ComputeFaceNormal recomputes the unit normal of f from positions.
func (m *Mesh) ComputeFaceNormal(f FaceID) math.Vec3 {
	a, b, c := m.FaceCoords(f)
	return math.TriangleNormal(a, b, c)
}

func (m *Mesh) updateFaceNormal(f FaceID) {
	a, b, c := m.FaceCoords(f)
	cr := b.Sub(a).Cross(c.Sub(a))
	m.faces[f].area = cr.Length() * 0.5
	m.faces[f].no = cr.Normalize()
}

// FaceCentroid returns the average of the corners of f.
func (m *Mesh) FaceCentroid(f FaceID) math.Vec3 {
	a, b, c := m.FaceCoords(f)
	return a.Add(b).Add(c).Scale(1.0 / 3.0)
}

// FaceBounds returns the bounding box of f.
func (m *Mesh) FaceBounds(f FaceID) math.AABB {
	a, b, c := m.FaceCoords(f)
	return math.NewAABB(a, b).Extend(c)
}

// RayFace intersects r with f.
func (m *Mesh) RayFace(f FaceID, r math.Ray) (float64, bool) {
	a, b, c := m.FaceCoords(f)
	return r.IntersectTriangle(a, b, c)
}

// EdgeLengthSq returns the squared length of e.
func (m *Mesh) EdgeLengthSq(e EdgeID) float64 {
	a, b := m.edges[e].v[0], m.edges[e].v[1]
	return m.verts[a].co.DistanceSq(m.verts[b].co)
}

// EdgeLength returns the length of e.
func (m *Mesh) EdgeLength(e EdgeID) float64 {
	a, b := m.edges[e].v[0], m.edges[e].v[1]
	return m.verts[a].co.Distance(m.verts[b].co)
}

// Bounds returns the bounding box of all live vertices.
func (m *Mesh) Bounds() math.AABB {
	box := math.EmptyAABB()
	for v := range m.Verts() {
		box = box.Extend(m.verts[v].co)
	}
	return box
}

// AverageEdgeLength returns the mean length over all live edges, or 0.
func (m *Mesh) AverageEdgeLength() float64 {
	if m.nEdges == 0 {
		return 0
	}
	sum, _ := parallel.Reduce(context.Background(), m.Parallel, len(m.edges), 0.0,
		func(start, end int) float64 {
			s := 0.0
			for i := start; i < end; i++ {
				if e := EdgeID(i); m.EdgeAlive(e) {
					s += m.EdgeLength(e)
				}
			}
			return s
		},
		func(a, b float64) float64 { return a + b })
	return sum / float64(m.nEdges)
}

// computeVertNormal returns the area-weighted average of the face normals
// around v, falling back to the previous normal for isolated vertices.
func (m *Mesh) computeVertNormal(v VertID) math.Vec3 {
	var sum math.Vec3
	for f := range m.VertFaces(v) {
		sum = sum.Add(m.faces[f].no.Scale(m.faces[f].area))
	}
	if n := sum.Normalize(); n != (math.Vec3{}) {
		return n
	}
	return m.verts[v].no
}

// RecalcNormals recomputes every face and vertex normal in two parallel
// passes: faces first, then vertices reading the finished face normals.
func (m *Mesh) RecalcNormals(ctx context.Context) error {
	faces := slices.Collect(m.Faces())
	verts := slices.Collect(m.Verts())
	return m.normalPasses(ctx, faces, verts)
}

// UpdateNormals refreshes the normals touched by moving verts: the faces
// around them, then every corner of those faces.
func (m *Mesh) UpdateNormals(ctx context.Context, verts []VertID) error {
	var faces []FaceID
	for _, v := range verts {
		if !m.VertAlive(v) {
			continue
		}
		for f := range m.VertFaces(v) {
			faces = append(faces, f)
		}
	}
	faces = lo.Uniq(faces)

	var touched []VertID
	for _, f := range faces {
		vs := m.FaceVerts(f)
		touched = append(touched, vs[:]...)
	}
	touched = lo.Uniq(touched)

	return m.normalPasses(ctx, faces, touched)
}

func (m *Mesh) normalPasses(ctx context.Context, faces []FaceID, verts []VertID) error {
	err := parallel.For(ctx, m.Parallel, len(faces), func(start, end int) {
		for _, f := range faces[start:end] {
			m.updateFaceNormal(f)
			m.faces[f].flags &^= FaceDirty
		}
	})
	if err != nil {
		return err
	}
	return parallel.For(ctx, m.Parallel, len(verts), func(start, end int) {
		for _, v := range verts[start:end] {
			m.verts[v].no = m.computeVertNormal(v)
		}
	})
}
