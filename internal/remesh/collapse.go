package remesh

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-sculpt/internal/bvh"
	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

type collapseCandidate struct {
	a, b  mesh.VertRef
	lenSq float64
}

// CollapsePass collapses the edges shorter than their local minimum, longest
// first. It returns the number of collapses.
func (r *Remesher) CollapsePass(edges []mesh.EdgeID) int {
	var cands []collapseCandidate
	for _, e := range edges {
		if !r.m.EdgeAlive(e) {
			continue
		}
		a, b := r.m.EdgeVerts(e)
		minLen, _ := r.Limits(a, b)
		if l2 := r.m.EdgeLengthSq(e); l2 < minLen*minLen {
			cands = append(cands, collapseCandidate{a: r.m.RefVert(a), b: r.m.RefVert(b), lenSq: l2})
		}
	}
	slices.SortStableFunc(cands, func(x, y collapseCandidate) int {
		switch {
		case x.lenSq > y.lenSq:
			return -1
		case x.lenSq < y.lenSq:
			return 1
		}
		return 0
	})

	n := 0
	for _, c := range cands {
		if !r.m.ValidVert(c.a) || !r.m.ValidVert(c.b) {
			continue
		}
		e := r.m.EdgeBetween(c.a.ID, c.b.ID)
		if e == mesh.NilEdge {
			continue
		}
		minLen, _ := r.Limits(c.a.ID, c.b.ID)
		if r.m.EdgeLengthSq(e) >= minLen*minLen {
			continue
		}
		if _, ok := r.CollapseEdge(e); ok {
			n++
		} else {
			r.stats.Rejected++
		}
	}
	return n
}

// CollapseEdge merges the endpoints of e into one vertex and removes the two
// faces on e. It returns the surviving vertex. Every check runs before the
// mesh is touched; on rejection nothing changes.
func (r *Remesher) CollapseEdge(e mesh.EdgeID) (mesh.VertID, bool) {
	m := r.m
	if !m.EdgeAlive(e) || m.HasEdgeFlag(e, mesh.EdgeFeature) {
		return mesh.NilVert, false
	}
	a, b := m.EdgeVerts(e)
	if m.IsBoundaryVert(a) || m.IsBoundaryVert(b) {
		return mesh.NilVert, false
	}
	f0, f1, nf := m.EdgeFaces(e)
	if nf != 2 {
		return mesh.NilVert, false
	}
	lockA, lockB := m.HasVertFlag(a, mesh.VertLocked), m.HasVertFlag(b, mesh.VertLocked)
	if lockA && lockB {
		return mesh.NilVert, false
	}

	vs, vk := r.survivor(a, b)
	switch {
	case lockA:
		vs, vk = a, b
	case lockB:
		vs, vk = b, a
	}

	c := apex(m, f0, a, b)
	d := apex(m, f1, a, b)
	if c == d || c == mesh.NilVert || d == mesh.NilVert {
		return mesh.NilVert, false
	}

	// Link condition: the endpoints may share no neighbours besides the two
	// apexes, otherwise the merge duplicates an edge or a triangle.
	shared := 0
	for u := range m.VertNeighbors(vk) {
		if u != vs && m.EdgeBetween(u, vs) != mesh.NilEdge {
			shared++
		}
	}
	if shared != 2 {
		return mesh.NilVert, false
	}
	if m.Valence(c) <= 3 || m.Valence(d) <= 3 {
		return mesh.NilVert, false
	}

	target := r.collapseTarget(vs, vk, lockA || lockB)

	// Geometry checks on every face that survives and moves.
	var rebuilt [][3]mesh.VertID
	var moving []mesh.FaceID
	for f := range m.VertFaces(vk) {
		if f == f0 || f == f1 {
			continue
		}
		vsOld := m.FaceVerts(f)
		vsNew := vsOld
		for i := range vsNew {
			if vsNew[i] == vk {
				vsNew[i] = vs
			}
		}
		rebuilt = append(rebuilt, vsNew)
		moving = append(moving, f)
	}
	for f := range m.VertFaces(vs) {
		if f != f0 && f != f1 {
			moving = append(moving, f)
		}
	}
	for _, f := range moving {
		n := m.ComputeFaceNormal(f)
		p := [3]math.Vec3{}
		for i, v := range m.FaceVerts(f) {
			if v == vk || v == vs {
				p[i] = target
			} else {
				p[i] = m.Co(v)
			}
		}
		if !keepsOrientation(p[0], p[1], p[2], n) {
			return mesh.NilVert, false
		}
	}

	// No edge of the merged vertex may exceed the local maximum.
	for _, side := range [2]mesh.VertID{vs, vk} {
		for u := range m.VertNeighbors(side) {
			if u == vs || u == vk {
				continue
			}
			_, maxLen := r.Limits(vs, u)
			if target.DistanceSq(m.Co(u)) > maxLen*maxLen {
				return mesh.NilVert, false
			}
		}
	}

	// Commit.
	var features []mesh.VertID
	for ke := range m.VertEdges(vk) {
		if m.HasEdgeFlag(ke, mesh.EdgeFeature) {
			features = append(features, m.EdgeOther(ke, vk))
		}
	}

	var dead []mesh.FaceID
	for f := range m.VertFaces(vk) {
		dead = append(dead, f)
	}
	for _, f := range dead {
		r.unindexFace(f)
		m.KillFace(f)
	}
	m.KillLooseEdges(vk)
	r.unindexVert(vk)
	if err := m.KillVert(vk); err != nil {
		r.warn("collapse left vertex in use", err, zap.Int32("vert", int32(vk)))
	}

	r.touch(r.leafOf(vs))
	m.SetCo(vs, target)
	r.moved(vs)

	for _, vsNew := range rebuilt {
		f, err := m.CreateFace(vsNew)
		if err != nil {
			// The link condition rules this out; a failure means the mesh
			// was already inconsistent around the edge.
			r.warn("collapse could not rebuild face", err, zap.Int32("survivor", int32(vs)))
			continue
		}
		r.indexFace(f)
	}
	for _, u := range features {
		if fe := m.EdgeBetween(vs, u); fe != mesh.NilEdge {
			m.SetEdgeFlag(fe, mesh.EdgeFeature, true)
		}
	}

	around := []mesh.VertID{vs}
	for u := range m.VertNeighbors(vs) {
		around = append(around, u)
	}
	r.refreshNormals(around...)
	return vs, true
}

// survivor orders the endpoints into (kept, removed).
func (r *Remesher) survivor(a, b mesh.VertID) (mesh.VertID, mesh.VertID) {
	va, vb := r.m.Valence(a), r.m.Valence(b)
	switch {
	case va > vb:
		return a, b
	case vb > va:
		return b, a
	}
	if r.p.Policy == PolicyError {
		q := VertQuadric(r.m, a).Add(VertQuadric(r.m, b))
		if q.Eval(r.m.Co(b)) < q.Eval(r.m.Co(a)) {
			return b, a
		}
	}
	return a, b
}

// collapseTarget is the merged position: the quadric optimum clamped to the
// edge, or the midpoint when the quadric is singular or disabled. A locked
// survivor stays where it is.
func (r *Remesher) collapseTarget(vs, vk mesh.VertID, locked bool) math.Vec3 {
	ps, pk := r.m.Co(vs), r.m.Co(vk)
	if locked {
		return ps
	}
	mid := ps.Lerp(pk, 0.5)
	if !r.p.UseQuadrics {
		return mid
	}
	q := VertQuadric(r.m, vs).Add(VertQuadric(r.m, vk))
	opt, ok := q.Optimum()
	if !ok {
		return mid
	}
	return math.ClosestOnSegment(opt, ps, pk)
}

// apex returns the corner of f that is neither a nor b.
func apex(m *mesh.Mesh, f mesh.FaceID, a, b mesh.VertID) mesh.VertID {
	for _, v := range m.FaceVerts(f) {
		if v != a && v != b {
			return v
		}
	}
	return mesh.NilVert
}

func (r *Remesher) leafOf(v mesh.VertID) bvh.NodeID {
	if r.tree == nil {
		return bvh.NilNode
	}
	return r.tree.VertLeaf(v)
}
