package mesh

import (
	"fmt"

	"go.uber.org/multierr"
)

// Validate walks every element and reports all structural violations:
// disk cycles that do not close in exactly valence steps (both directions),
// broken radial cycles, edges with other than one or two faces, faces whose
// loop cycle does not close after Len steps, and links to dead elements.
// Vertices without edges are valid.
// It never mutates the mesh and never asserts.
func (m *Mesh) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	counts := [4]int{}

	for i := range m.verts {
		vr := &m.verts[i]
		if !vr.alive {
			continue
		}
		counts[0]++
		v := VertID(i)
		if vr.e == NilEdge {
			// Loose vertex: an empty disk cycle closes trivially.
			continue
		}
		if !m.EdgeAlive(vr.e) {
			add("vertex %d disk entry %d is dead", v, vr.e)
			continue
		}
		fwd, ok := m.walkDisk(v, true)
		if !ok {
			add("vertex %d disk cycle does not close", v)
			continue
		}
		back, ok := m.walkDisk(v, false)
		if !ok || back != fwd {
			add("vertex %d disk cycle forward %d steps, backward %d", v, fwd, back)
		}
	}

	for i := range m.edges {
		er := &m.edges[i]
		if !er.alive {
			continue
		}
		counts[1]++
		e := EdgeID(i)
		a, b := er.v[0], er.v[1]
		if !m.VertAlive(a) || !m.VertAlive(b) || a == b {
			add("edge %d has invalid endpoints %d,%d", e, a, b)
			continue
		}
		faces, ok := m.walkRadial(e)
		if !ok {
			add("edge %d radial cycle is broken", e)
			continue
		}
		if faces != 1 && faces != 2 {
			add("edge %d has %d faces, want 1 or 2", e, faces)
		}
		if faces == 2 {
			l0 := er.l
			l1 := m.loops[l0].radialNext
			if m.loops[l0].v == m.loops[l1].v {
				add("edge %d faces are wound the same way", e)
			}
		}
	}

	for i := range m.loops {
		if m.loops[i].alive {
			counts[2]++
		}
	}

	for i := range m.faces {
		fr := &m.faces[i]
		if !fr.alive {
			continue
		}
		counts[3]++
		f := FaceID(i)
		if fr.len != 3 {
			add("face %d has len %d, want 3", f, fr.len)
			continue
		}
		l := fr.l
		for n := 0; n < fr.len; n++ {
			if !m.LoopAlive(l) {
				add("face %d references dead loop %d", f, l)
				break
			}
			lr := &m.loops[l]
			if lr.f != f {
				add("face %d loop %d points at face %d", f, l, lr.f)
			}
			if !m.LoopAlive(lr.next) || m.loops[lr.next].prev != l {
				add("face %d loop %d next/prev mismatch", f, l)
				break
			}
			if !m.EdgeAlive(lr.e) {
				add("face %d loop %d references dead edge %d", f, l, lr.e)
				break
			}
			nv := m.loops[lr.next].v
			ea, eb := m.edges[lr.e].v[0], m.edges[lr.e].v[1]
			if !(ea == lr.v && eb == nv) && !(ea == nv && eb == lr.v) {
				add("face %d loop %d edge %d does not join %d-%d", f, l, lr.e, lr.v, nv)
			}
			l = lr.next
		}
		if l != fr.l {
			add("face %d loop cycle does not close after %d steps", f, fr.len)
		}
	}

	if counts[0] != m.nVerts || counts[1] != m.nEdges || counts[2] != m.nLoops || counts[3] != m.nFaces {
		add("live counts %v disagree with totals [%d %d %d %d]", counts, m.nVerts, m.nEdges, m.nLoops, m.nFaces)
	}
	return errs
}

// walkDisk counts the steps to return to the disk entry of v, following
// next (forward) or prev links. ok is false on a dead or foreign edge or when
// the edge arena size is exceeded.
func (m *Mesh) walkDisk(v VertID, forward bool) (int, bool) {
	first := m.verts[v].e
	e := first
	for n := 1; n <= len(m.edges); n++ {
		side := m.diskSide(e, v)
		if side < 0 {
			return n, false
		}
		dl := m.edges[e].disk[side]
		if forward {
			e = dl.next
		} else {
			e = dl.prev
		}
		if !m.EdgeAlive(e) {
			return n, false
		}
		if e == first {
			return n, true
		}
	}
	return len(m.edges), false
}

// walkRadial counts the loops around e, checking that each one uses e and
// that prev links mirror next links.
func (m *Mesh) walkRadial(e EdgeID) (int, bool) {
	first := m.edges[e].l
	if first == NilLoop {
		return 0, true
	}
	l := first
	for n := 1; n <= len(m.loops); n++ {
		if !m.LoopAlive(l) || m.loops[l].e != e {
			return n, false
		}
		next := m.loops[l].radialNext
		if !m.LoopAlive(next) || m.loops[next].radialPrev != l {
			return n, false
		}
		l = next
		if l == first {
			return n, true
		}
	}
	return len(m.loops), false
}
