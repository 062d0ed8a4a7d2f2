package mesh

import "iter"

// diskSide returns which disk link of e belongs to v, or -1 if v is not an
// endpoint of e.
func (m *Mesh) diskSide(e EdgeID, v VertID) int {
	switch v {
	case m.edges[e].v[0]:
		return 0
	case m.edges[e].v[1]:
		return 1
	}
	return -1
}

func (m *Mesh) diskLinkOf(e EdgeID, v VertID) *diskLink {
	return &m.edges[e].disk[m.diskSide(e, v)]
}

// VertEdges iterates the disk cycle of v. The traversal stops when it is back
// at the entry edge and is capped at the edge arena size, so a corrupt cycle
// never loops forever.
func (m *Mesh) VertEdges(v VertID) iter.Seq[EdgeID] {
	return func(yield func(EdgeID) bool) {
		first := m.verts[v].e
		if first == NilEdge {
			return
		}
		e := first
		for n := 0; ; n++ {
			if !assertf(n <= len(m.edges), "disk cycle of vertex %d does not close", v) {
				return
			}
			side := m.diskSide(e, v)
			if !assertf(side >= 0, "edge %d in disk cycle of vertex %d does not use it", e, v) {
				return
			}
			next := m.edges[e].disk[side].next
			if !yield(e) {
				return
			}
			e = next
			if e == first {
				return
			}
		}
	}
}

// EdgeLoops iterates the radial cycle of e.
func (m *Mesh) EdgeLoops(e EdgeID) iter.Seq[LoopID] {
	return func(yield func(LoopID) bool) {
		first := m.edges[e].l
		if first == NilLoop {
			return
		}
		l := first
		for n := 0; ; n++ {
			if !assertf(n <= len(m.loops), "radial cycle of edge %d does not close", e) {
				return
			}
			next := m.loops[l].radialNext
			if !yield(l) {
				return
			}
			l = next
			if l == first {
				return
			}
		}
	}
}

// FaceLoops iterates the loops of f starting at its first loop.
func (m *Mesh) FaceLoops(f FaceID) iter.Seq[LoopID] {
	return func(yield func(LoopID) bool) {
		first := m.faces[f].l
		if first == NilLoop {
			return
		}
		l := first
		for n := 0; ; n++ {
			if !assertf(n < m.faces[f].len, "face cycle of face %d does not close", f) {
				return
			}
			next := m.loops[l].next
			if !yield(l) {
				return
			}
			l = next
			if l == first {
				return
			}
		}
	}
}

// VertLoops iterates the face corners at v: one loop per incident face.
func (m *Mesh) VertLoops(v VertID) iter.Seq[LoopID] {
	return func(yield func(LoopID) bool) {
		for e := range m.VertEdges(v) {
			for l := range m.EdgeLoops(e) {
				if m.loops[l].v != v {
					continue
				}
				if !yield(l) {
					return
				}
			}
		}
	}
}

// VertFaces iterates the faces around v, each once.
func (m *Mesh) VertFaces(v VertID) iter.Seq[FaceID] {
	return func(yield func(FaceID) bool) {
		for l := range m.VertLoops(v) {
			if !yield(m.loops[l].f) {
				return
			}
		}
	}
}

// VertNeighbors iterates the vertices sharing an edge with v.
func (m *Mesh) VertNeighbors(v VertID) iter.Seq[VertID] {
	return func(yield func(VertID) bool) {
		for e := range m.VertEdges(v) {
			if !yield(m.EdgeOther(e, v)) {
				return
			}
		}
	}
}

// Verts iterates all live vertices in arena order.
func (m *Mesh) Verts() iter.Seq[VertID] {
	return func(yield func(VertID) bool) {
		for i := range m.verts {
			if m.verts[i].alive && !yield(VertID(i)) {
				return
			}
		}
	}
}

// Edges iterates all live edges in arena order.
func (m *Mesh) Edges() iter.Seq[EdgeID] {
	return func(yield func(EdgeID) bool) {
		for i := range m.edges {
			if m.edges[i].alive && !yield(EdgeID(i)) {
				return
			}
		}
	}
}

// Faces iterates all live faces in arena order.
func (m *Mesh) Faces() iter.Seq[FaceID] {
	return func(yield func(FaceID) bool) {
		for i := range m.faces {
			if m.faces[i].alive && !yield(FaceID(i)) {
				return
			}
		}
	}
}

// Valence returns the number of edges around v.
func (m *Mesh) Valence(v VertID) int {
	n := 0
	for range m.VertEdges(v) {
		n++
	}
	return n
}

// EdgeVerts returns the two endpoints of e.
func (m *Mesh) EdgeVerts(e EdgeID) (VertID, VertID) {
	return m.edges[e].v[0], m.edges[e].v[1]
}

// EdgeOther returns the endpoint of e that is not v.
func (m *Mesh) EdgeOther(e EdgeID, v VertID) VertID {
	if m.edges[e].v[0] == v {
		return m.edges[e].v[1]
	}
	return m.edges[e].v[0]
}

// EdgeBetween returns the edge joining a and b, or NilEdge.
func (m *Mesh) EdgeBetween(a, b VertID) EdgeID {
	if a == b || !m.VertAlive(a) || !m.VertAlive(b) {
		return NilEdge
	}
	if m.verts[a].e == NilEdge || m.verts[b].e == NilEdge {
		return NilEdge
	}
	for e := range m.VertEdges(a) {
		if m.EdgeOther(e, a) == b {
			return e
		}
	}
	return NilEdge
}

// EdgeLoop returns the radial cycle entry of e.
func (m *Mesh) EdgeLoop(e EdgeID) LoopID { return m.edges[e].l }

// EdgeFaceCount returns the number of faces using e.
func (m *Mesh) EdgeFaceCount(e EdgeID) int {
	n := 0
	for range m.EdgeLoops(e) {
		n++
	}
	return n
}

// EdgeFaces returns up to two faces of e and the total face count.
func (m *Mesh) EdgeFaces(e EdgeID) (f0, f1 FaceID, n int) {
	f0, f1 = NilFace, NilFace
	for l := range m.EdgeLoops(e) {
		switch n {
		case 0:
			f0 = m.loops[l].f
		case 1:
			f1 = m.loops[l].f
		}
		n++
	}
	return f0, f1, n
}

// IsBoundaryEdge reports whether e has exactly one face.
func (m *Mesh) IsBoundaryEdge(e EdgeID) bool {
	l := m.edges[e].l
	return l != NilLoop && m.loops[l].radialNext == l
}

// IsManifoldEdge reports whether e has exactly two faces.
func (m *Mesh) IsManifoldEdge(e EdgeID) bool {
	return m.EdgeFaceCount(e) == 2
}

// IsBoundaryVert reports whether any edge around v is a boundary edge.
func (m *Mesh) IsBoundaryVert(v VertID) bool {
	for e := range m.VertEdges(v) {
		if m.IsBoundaryEdge(e) {
			return true
		}
	}
	return false
}

// Loop accessors.

// LoopVert returns the corner vertex of l.
func (m *Mesh) LoopVert(l LoopID) VertID { return m.loops[l].v }

// LoopEdge returns the edge leaving the corner of l within its face.
func (m *Mesh) LoopEdge(l LoopID) EdgeID { return m.loops[l].e }

// LoopFace returns the face of l.
func (m *Mesh) LoopFace(l LoopID) FaceID { return m.loops[l].f }

// LoopNext returns the next loop in the face cycle.
func (m *Mesh) LoopNext(l LoopID) LoopID { return m.loops[l].next }

// LoopPrev returns the previous loop in the face cycle.
func (m *Mesh) LoopPrev(l LoopID) LoopID { return m.loops[l].prev }

// LoopRadialNext returns the next loop around the edge of l.
func (m *Mesh) LoopRadialNext(l LoopID) LoopID { return m.loops[l].radialNext }

// FaceLoop returns the first loop of f.
func (m *Mesh) FaceLoop(f FaceID) LoopID { return m.faces[f].l }

// FaceLen returns the number of corners of f.
func (m *Mesh) FaceLen(f FaceID) int { return m.faces[f].len }

// FaceVerts returns the corners of triangle f in winding order.
func (m *Mesh) FaceVerts(f FaceID) [3]VertID {
	l0 := m.faces[f].l
	l1 := m.loops[l0].next
	l2 := m.loops[l1].next
	return [3]VertID{m.loops[l0].v, m.loops[l1].v, m.loops[l2].v}
}

// FaceEdges returns the edges of triangle f; FaceEdges(f)[i] runs from
// FaceVerts(f)[i] to FaceVerts(f)[(i+1)%3].
func (m *Mesh) FaceEdges(f FaceID) [3]EdgeID {
	l0 := m.faces[f].l
	l1 := m.loops[l0].next
	l2 := m.loops[l1].next
	return [3]EdgeID{m.loops[l0].e, m.loops[l1].e, m.loops[l2].e}
}

// FindFace returns the face using exactly the vertices vs (any order), or NilFace.
func (m *Mesh) FindFace(vs [3]VertID) FaceID {
	if !m.VertAlive(vs[0]) {
		return NilFace
	}
	for f := range m.VertFaces(vs[0]) {
		fv := m.FaceVerts(f)
		if sameTriangle(fv, vs) {
			return f
		}
	}
	return NilFace
}

func sameTriangle(a, b [3]VertID) bool {
	for _, x := range a {
		if x != b[0] && x != b[1] && x != b[2] {
			return false
		}
	}
	return true
}
