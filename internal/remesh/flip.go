package remesh

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
)

func targetValence(m *mesh.Mesh, v mesh.VertID) int {
	if m.IsBoundaryVert(v) {
		return 4
	}
	return 6
}

func sq(x int) int { return x * x }

// FlipPass flips edges that lower the squared valence deviation of their
// four vertices, repeating until nothing improves or FlipPasses is reached.
// It returns the number of flips.
func (r *Remesher) FlipPass(edges []mesh.EdgeID) int {
	refs := make([][2]mesh.VertRef, 0, len(edges))
	for _, e := range edges {
		if r.m.EdgeAlive(e) {
			a, b := r.m.EdgeVerts(e)
			refs = append(refs, [2]mesh.VertRef{r.m.RefVert(a), r.m.RefVert(b)})
		}
	}

	total := 0
	for pass := 0; pass < r.p.FlipPasses; pass++ {
		n := 0
		for i, ref := range refs {
			if !r.m.ValidVert(ref[0]) || !r.m.ValidVert(ref[1]) {
				continue
			}
			e := r.m.EdgeBetween(ref[0].ID, ref[1].ID)
			if e == mesh.NilEdge || !r.improvesValence(e) {
				continue
			}
			c, d, ok := r.FlipEdge(e)
			if !ok {
				continue
			}
			refs[i] = [2]mesh.VertRef{r.m.RefVert(c), r.m.RefVert(d)}
			n++
		}
		total += n
		if n == 0 {
			break
		}
	}
	return total
}

func (r *Remesher) improvesValence(e mesh.EdgeID) bool {
	m := r.m
	f0, f1, nf := m.EdgeFaces(e)
	if nf != 2 {
		return false
	}
	a, b := m.EdgeVerts(e)
	c, d := apex(m, f0, a, b), apex(m, f1, a, b)
	va, vb, vc, vd := m.Valence(a), m.Valence(b), m.Valence(c), m.Valence(d)
	ta, tb, tc, td := targetValence(m, a), targetValence(m, b), targetValence(m, c), targetValence(m, d)
	before := sq(va-ta) + sq(vb-tb) + sq(vc-tc) + sq(vd-td)
	after := sq(va-1-ta) + sq(vb-1-tb) + sq(vc+1-tc) + sq(vd+1-td)
	return after < before
}

// FlipEdge replaces the two faces (a,b,c) and (b,a,d) on e with (a,d,c) and
// (b,c,d). It refuses feature and boundary edges, flips that would create
// an existing edge, leave a vertex with fewer than three edges, fold a face
// over or create an edge over the local maximum. It returns the new edge's
// endpoints.
func (r *Remesher) FlipEdge(e mesh.EdgeID) (mesh.VertID, mesh.VertID, bool) {
	m := r.m
	if !m.EdgeAlive(e) || m.HasEdgeFlag(e, mesh.EdgeFeature) {
		return mesh.NilVert, mesh.NilVert, false
	}
	if _, _, nf := m.EdgeFaces(e); nf != 2 {
		return mesh.NilVert, mesh.NilVert, false
	}

	l0 := m.EdgeLoop(e)
	l1 := m.LoopRadialNext(l0)
	f0, f1 := m.LoopFace(l0), m.LoopFace(l1)
	a := m.LoopVert(l0)
	b := m.LoopVert(m.LoopNext(l0))
	c := m.LoopVert(m.LoopPrev(l0))
	d := m.LoopVert(m.LoopPrev(l1))

	if c == d || m.EdgeBetween(c, d) != mesh.NilEdge {
		return mesh.NilVert, mesh.NilVert, false
	}
	if m.Valence(a) <= 3 || m.Valence(b) <= 3 {
		return mesh.NilVert, mesh.NilVert, false
	}
	if m.HasVertFlag(a, mesh.VertLocked) && m.HasVertFlag(b, mesh.VertLocked) {
		return mesh.NilVert, mesh.NilVert, false
	}

	pa, pb, pc, pd := m.Co(a), m.Co(b), m.Co(c), m.Co(d)
	_, maxLen := r.Limits(c, d)
	if pc.DistanceSq(pd) > maxLen*maxLen {
		return mesh.NilVert, mesh.NilVert, false
	}
	n := m.ComputeFaceNormal(f0).Add(m.ComputeFaceNormal(f1)).Normalize()
	if !keepsOrientation(pa, pd, pc, n) || !keepsOrientation(pb, pc, pd, n) {
		return mesh.NilVert, mesh.NilVert, false
	}

	r.unindexFace(f0)
	r.unindexFace(f1)
	m.KillFace(f0)
	m.KillFace(f1)
	if err := m.KillEdge(e); err != nil {
		r.warn("flip: edge still used", err, zap.Int32("edge", int32(e)))
	}
	for _, tri := range [2][3]mesh.VertID{{a, d, c}, {b, c, d}} {
		f, err := m.CreateFace(tri)
		if err != nil {
			r.warn("flip: rebuild face", err, zap.Int32("edge", int32(e)))
			continue
		}
		r.indexFace(f)
	}
	r.refreshNormals(a, b, c, d)
	return c, d, true
}
