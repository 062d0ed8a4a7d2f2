package remesh

import (
	"container/heap"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
)

// edgeEntry is a queued split candidate. Entries are validated lazily on
// pop: the edge may have been split, collapsed or shortened meanwhile.
type edgeEntry struct {
	a, b  mesh.VertRef
	prio  float64 // −len², so the heap pops the longest edge first
	depth int
}

type edgeQueue []edgeEntry

func (q edgeQueue) Len() int           { return len(q) }
func (q edgeQueue) Less(i, j int) bool { return q[i].prio < q[j].prio }
func (q edgeQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *edgeQueue) Push(x any)        { *q = append(*q, x.(edgeEntry)) }
func (q *edgeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// splitThreshold is the maximum length at recursion depth d.
func (r *Remesher) splitThreshold(a, b mesh.VertID, depth int) float64 {
	_, maxLen := r.Limits(a, b)
	return maxLen * gomath.Pow(r.p.SplitScale, float64(depth))
}

func (r *Remesher) push(q *edgeQueue, e mesh.EdgeID, depth int) {
	if r.m.HasEdgeFlag(e, mesh.EdgeQueued) {
		return
	}
	a, b := r.m.EdgeVerts(e)
	l2 := r.m.EdgeLengthSq(e)
	t := r.splitThreshold(a, b, depth)
	if l2 <= t*t {
		return
	}
	if depth > r.p.MaxSplitDepth {
		r.stats.DepthCapped++
		return
	}
	r.m.SetEdgeFlag(e, mesh.EdgeQueued, true)
	heap.Push(q, edgeEntry{a: r.m.RefVert(a), b: r.m.RefVert(b), prio: -l2, depth: depth})
}

// SplitPass splits the edges longer than their local maximum, longest
// first. Edges created by a split are examined again one level deeper
// against a threshold that grows by SplitScale per level. It returns the
// number of splits.
func (r *Remesher) SplitPass(edges []mesh.EdgeID) int {
	q := &edgeQueue{}
	for _, e := range edges {
		if r.m.EdgeAlive(e) {
			r.push(q, e, 0)
		}
	}

	n := 0
	for q.Len() > 0 {
		it := heap.Pop(q).(edgeEntry)
		if !r.m.ValidVert(it.a) || !r.m.ValidVert(it.b) {
			continue
		}
		e := r.m.EdgeBetween(it.a.ID, it.b.ID)
		if e == mesh.NilEdge {
			continue
		}
		r.m.SetEdgeFlag(e, mesh.EdgeQueued, false)
		t := r.splitThreshold(it.a.ID, it.b.ID, it.depth)
		if r.m.EdgeLengthSq(e) <= t*t {
			continue
		}
		_, created, ok := r.SplitEdge(e)
		if !ok {
			continue
		}
		n++
		for _, ne := range created {
			r.push(q, ne, it.depth+1)
		}
	}

	// Entries dropped as stale may leave the flag behind on live edges.
	for _, it := range *q {
		if e := r.m.EdgeBetween(it.a.ID, it.b.ID); e != mesh.NilEdge {
			r.m.SetEdgeFlag(e, mesh.EdgeQueued, false)
		}
	}
	return n
}

// SplitEdge inserts a vertex at the midpoint of e and replaces each face on
// e with two. It returns the new vertex and the edges incident to it.
func (r *Remesher) SplitEdge(e mesh.EdgeID) (mesh.VertID, []mesh.EdgeID, bool) {
	m := r.m
	if !m.EdgeAlive(e) || m.EdgeLengthSq(e) == 0 {
		return mesh.NilVert, nil, false
	}
	a, b := m.EdgeVerts(e)

	type corner struct {
		f       mesh.FaceID
		x, y, c mesh.VertID // f = (x, y, c) with e running x→y
	}
	var corners []corner
	for l := range m.EdgeLoops(e) {
		f := m.LoopFace(l)
		x := m.LoopVert(l)
		y := m.LoopVert(m.LoopNext(l))
		c := m.LoopVert(m.LoopPrev(l))
		corners = append(corners, corner{f: f, x: x, y: y, c: c})
	}
	if len(corners) == 0 || len(corners) > 2 {
		return mesh.NilVert, nil, false
	}
	feature := m.HasEdgeFlag(e, mesh.EdgeFeature)

	pa, pb := m.Co(a), m.Co(b)
	mv := m.CreateVert(pa.Lerp(pb, 0.5))
	m.SetNormal(mv, m.Normal(a).Add(m.Normal(b)).Normalize())
	for _, name := range m.LayerNames() {
		k, _ := m.VertLayer(name)
		m.SetVertFloat(k, mv, 0.5*(m.VertFloat(k, a)+m.VertFloat(k, b)))
	}

	for _, c := range corners {
		r.unindexFace(c.f)
		m.KillFace(c.f)
	}
	if err := m.KillEdge(e); err != nil {
		r.warn("split: edge still used", err, zap.Int32("edge", int32(e)))
	}

	for _, c := range corners {
		for _, tri := range [2][3]mesh.VertID{{c.x, mv, c.c}, {mv, c.y, c.c}} {
			f, err := m.CreateFace(tri)
			if err != nil {
				r.warn("split: rebuild face", err, zap.Int32("edge", int32(e)))
				continue
			}
			r.indexFace(f)
		}
	}
	r.indexVert(mv)

	var created []mesh.EdgeID
	for u := range m.VertNeighbors(mv) {
		ne := m.EdgeBetween(mv, u)
		created = append(created, ne)
		if feature && (u == a || u == b) {
			m.SetEdgeFlag(ne, mesh.EdgeFeature, true)
		}
	}
	// The new faces are coplanar with the ones they replace, so only the
	// new vertex needs a normal and it keeps the interpolated one.
	return mv, created, true
}
