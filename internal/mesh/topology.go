package mesh

import (
	"fmt"

	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

func (m *Mesh) diskAppend(e EdgeID, v VertID) {
	vr := &m.verts[v]
	dl := m.diskLinkOf(e, v)
	if vr.e == NilEdge {
		vr.e = e
		dl.next, dl.prev = e, e
		return
	}
	first := vr.e
	firstLink := m.diskLinkOf(first, v)
	last := firstLink.prev
	dl.next, dl.prev = first, last
	firstLink.prev = e
	m.diskLinkOf(last, v).next = e
}

func (m *Mesh) diskRemove(e EdgeID, v VertID) {
	vr := &m.verts[v]
	dl := m.diskLinkOf(e, v)
	if dl.next == e {
		vr.e = NilEdge
	} else {
		m.diskLinkOf(dl.prev, v).next = dl.next
		m.diskLinkOf(dl.next, v).prev = dl.prev
		if vr.e == e {
			vr.e = dl.next
		}
	}
	dl.next, dl.prev = NilEdge, NilEdge
}

func (m *Mesh) radialAppend(l LoopID, e EdgeID) {
	er := &m.edges[e]
	lr := &m.loops[l]
	if er.l == NilLoop {
		er.l = l
		lr.radialNext, lr.radialPrev = l, l
		return
	}
	first := er.l
	next := m.loops[first].radialNext
	lr.radialPrev = first
	lr.radialNext = next
	m.loops[next].radialPrev = l
	m.loops[first].radialNext = l
}

func (m *Mesh) radialRemove(l LoopID, e EdgeID) {
	er := &m.edges[e]
	lr := &m.loops[l]
	if lr.radialNext == l {
		er.l = NilLoop
	} else {
		m.loops[lr.radialPrev].radialNext = lr.radialNext
		m.loops[lr.radialNext].radialPrev = lr.radialPrev
		if er.l == l {
			er.l = lr.radialNext
		}
	}
	lr.radialNext, lr.radialPrev = NilLoop, NilLoop
}

// CreateVert adds an isolated vertex at co.
func (m *Mesh) CreateVert(co math.Vec3) VertID {
	v := m.allocVert()
	m.verts[v].co = co
	m.verts[v].flags = VertNew
	return v
}

// CreateEdge joins a and b with a new edge.
func (m *Mesh) CreateEdge(a, b VertID) (EdgeID, error) {
	if a == b {
		return NilEdge, ErrDegenerate
	}
	if !m.VertAlive(a) || !m.VertAlive(b) {
		return NilEdge, ErrDeadElement
	}
	if m.EdgeBetween(a, b) != NilEdge {
		return NilEdge, ErrDuplicateEdge
	}
	e := m.allocEdge()
	m.edges[e].v = [2]VertID{a, b}
	m.edges[e].flags = EdgeNew
	m.diskAppend(e, a)
	m.diskAppend(e, b)
	return e, nil
}

// EnsureEdge returns the edge joining a and b, creating it if needed.
func (m *Mesh) EnsureEdge(a, b VertID) (EdgeID, error) {
	if e := m.EdgeBetween(a, b); e != NilEdge {
		return e, nil
	}
	return m.CreateEdge(a, b)
}

// CanCreateFace checks every precondition of CreateFace without mutating.
func (m *Mesh) CanCreateFace(vs [3]VertID) error {
	for i, v := range vs {
		if !m.VertAlive(v) {
			return fmt.Errorf("corner %d (vertex %d): %w", i, v, ErrDeadElement)
		}
	}
	if vs[0] == vs[1] || vs[1] == vs[2] || vs[0] == vs[2] {
		return ErrDegenerate
	}
	if m.FindFace(vs) != NilFace {
		return ErrDuplicateFace
	}
	for i := 0; i < 3; i++ {
		a, b := vs[i], vs[(i+1)%3]
		e := m.EdgeBetween(a, b)
		if e == NilEdge {
			continue
		}
		n := 0
		for l := range m.EdgeLoops(e) {
			n++
			if m.loops[l].v == a {
				return fmt.Errorf("edge %d-%d: %w", a, b, ErrOrientation)
			}
		}
		if n >= 2 {
			return fmt.Errorf("edge %d-%d: %w", a, b, ErrNonManifold)
		}
	}
	return nil
}

// CreateFace adds the triangle vs in winding order, creating missing edges.
// Nothing is mutated when an error is returned.
func (m *Mesh) CreateFace(vs [3]VertID) (FaceID, error) {
	if err := m.CanCreateFace(vs); err != nil {
		return NilFace, err
	}

	var es [3]EdgeID
	for i := 0; i < 3; i++ {
		e, err := m.EnsureEdge(vs[i], vs[(i+1)%3])
		if err != nil {
			// Unreachable after CanCreateFace.
			assertf(false, "edge creation failed after precheck: %v", err)
			return NilFace, err
		}
		es[i] = e
	}

	f := m.allocFace()
	var ls [3]LoopID
	for i := 0; i < 3; i++ {
		l := m.allocLoop()
		m.loops[l].v = vs[i]
		m.loops[l].e = es[i]
		m.loops[l].f = f
		ls[i] = l
	}
	for i := 0; i < 3; i++ {
		m.loops[ls[i]].next = ls[(i+1)%3]
		m.loops[ls[i]].prev = ls[(i+2)%3]
		m.radialAppend(ls[i], es[i])
	}
	m.faces[f].l = ls[0]
	m.faces[f].len = 3
	m.faces[f].flags = FaceNew | FaceDirty
	m.updateFaceNormal(f)
	return f, nil
}

// KillFace unlinks f from the radial cycles of its edges and frees it and its
// loops. Edges and vertices are kept.
func (m *Mesh) KillFace(f FaceID) {
	if !m.FaceAlive(f) {
		return
	}
	var ls [3]LoopID
	n := 0
	for l := range m.FaceLoops(f) {
		if n < len(ls) {
			ls[n] = l
		}
		n++
	}
	assertf(n == 3, "face %d has %d loops", f, n)
	for i := 0; i < n && i < len(ls); i++ {
		m.radialRemove(ls[i], m.loops[ls[i]].e)
		m.freeLoop(ls[i])
	}
	m.freeFace(f)
}

// KillEdge frees an edge that no face uses anymore.
func (m *Mesh) KillEdge(e EdgeID) error {
	if !m.EdgeAlive(e) {
		return ErrDeadElement
	}
	if !assertf(m.edges[e].l == NilLoop, "kill of edge %d still used by a face", e) {
		return ErrEdgeInUse
	}
	a, b := m.edges[e].v[0], m.edges[e].v[1]
	m.diskRemove(e, a)
	m.diskRemove(e, b)
	m.freeEdge(e)
	return nil
}

// KillVert frees a vertex whose disk cycle is empty.
func (m *Mesh) KillVert(v VertID) error {
	if !m.VertAlive(v) {
		return ErrDeadElement
	}
	if !assertf(m.verts[v].e == NilEdge, "kill of vertex %d with non-empty disk cycle", v) {
		return ErrVertInUse
	}
	m.freeVert(v)
	return nil
}

// KillLooseEdges frees every edge around v that no longer has a face.
func (m *Mesh) KillLooseEdges(v VertID) {
	var loose []EdgeID
	for e := range m.VertEdges(v) {
		if m.edges[e].l == NilLoop {
			loose = append(loose, e)
		}
	}
	for _, e := range loose {
		_ = m.KillEdge(e)
	}
}
