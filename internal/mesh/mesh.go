// Package mesh implements the editable triangle mesh store.
//
// Topology is a half-edge style structure held in four arenas (vertices,
// edges, loops, faces). Links between elements are arena indices instead of
// pointers, and every slot carries a generation counter that is bumped when
// the slot is freed, so stale handles can be detected with VertRef/FaceRef.
//
// Adjacency is expressed as three circular lists:
//   - disk cycle: the edges around a vertex (per-endpoint next/prev on each edge)
//   - radial cycle: the loops (face corners) around an edge
//   - face cycle: the loops of one face, always three for triangles
package mesh

import (
	"errors"

	"github.com/Faultbox/midgard-sculpt/internal/parallel"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// Element handles. Negative values are nil.
type (
	VertID int32
	EdgeID int32
	LoopID int32
	FaceID int32
)

// Nil handles.
const (
	NilVert VertID = -1
	NilEdge EdgeID = -1
	NilLoop LoopID = -1
	NilFace FaceID = -1
)

// Errors returned by topology operations.
var (
	ErrDegenerate    = errors.New("mesh: degenerate element")
	ErrDeadElement   = errors.New("mesh: element is not alive")
	ErrDuplicateEdge = errors.New("mesh: edge already exists")
	ErrDuplicateFace = errors.New("mesh: face already exists")
	ErrNonManifold   = errors.New("mesh: edge already has two faces")
	ErrOrientation   = errors.New("mesh: face orientation disagrees with neighbour")
	ErrEdgeInUse     = errors.New("mesh: edge still referenced by a face")
	ErrVertInUse     = errors.New("mesh: vertex still has edges")
)

// VertFlag holds per-vertex application flags.
type VertFlag uint8

const (
	VertLocked VertFlag = 1 << iota // feature or corner vertex, never moved by remeshing
	VertNew                         // created during the current editing session
	VertTag                         // scratch bit for passes, cleared by the user
)

// EdgeFlag holds per-edge flags.
type EdgeFlag uint8

const (
	EdgeFeature EdgeFlag = 1 << iota // sharp edge, never collapsed or flipped
	EdgeQueued                       // currently in a remesh queue
	EdgeNew
)

// FaceFlag holds per-face flags.
type FaceFlag uint8

const (
	FaceDirty FaceFlag = 1 << iota // normal or bounds need refresh
	FaceNew
)

type vertRec struct {
	co    math.Vec3
	no    math.Vec3
	e     EdgeID // disk cycle entry
	flags VertFlag
	gen   uint32
	alive bool
}

type diskLink struct {
	next, prev EdgeID
}

type edgeRec struct {
	v     [2]VertID
	disk  [2]diskLink // disk[i] links this edge into the disk cycle of v[i]
	l     LoopID      // radial cycle entry
	flags EdgeFlag
	gen   uint32
	alive bool
}

type loopRec struct {
	v                      VertID // corner vertex, start of e within the face
	e                      EdgeID
	f                      FaceID
	next, prev             LoopID
	radialNext, radialPrev LoopID
	gen                    uint32
	alive                  bool
}

type faceRec struct {
	l     LoopID
	len   int
	no    math.Vec3
	area  float64
	flags FaceFlag
	gen   uint32
	alive bool
}

// VertRef is a generation-checked vertex handle.
type VertRef struct {
	ID  VertID
	Gen uint32
}

// EdgeRef is a generation-checked edge handle.
type EdgeRef struct {
	ID  EdgeID
	Gen uint32
}

// FaceRef is a generation-checked face handle.
type FaceRef struct {
	ID  FaceID
	Gen uint32
}

// Mesh is the sole owner of all vertex, edge, loop and face data.
// It is not safe for concurrent mutation.
type Mesh struct {
	verts []vertRec
	edges []edgeRec
	loops []loopRec
	faces []faceRec

	freeVerts []VertID
	freeEdges []EdgeID
	freeLoops []LoopID
	freeFaces []FaceID

	nVerts, nEdges, nLoops, nFaces int

	layers []layer

	// Parallel controls the fork-join split of normal recomputation.
	Parallel parallel.Settings
}

// New creates an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// VertCount returns the number of live vertices.
func (m *Mesh) VertCount() int { return m.nVerts }

// EdgeCount returns the number of live edges.
func (m *Mesh) EdgeCount() int { return m.nEdges }

// LoopCount returns the number of live loops.
func (m *Mesh) LoopCount() int { return m.nLoops }

// FaceCount returns the number of live faces.
func (m *Mesh) FaceCount() int { return m.nFaces }

// VertCap returns the size of the vertex arena. Slices indexed by VertID
// must be at least this long.
func (m *Mesh) VertCap() int { return len(m.verts) }

// EdgeCap returns the size of the edge arena.
func (m *Mesh) EdgeCap() int { return len(m.edges) }

// FaceCap returns the size of the face arena.
func (m *Mesh) FaceCap() int { return len(m.faces) }

// VertAlive reports whether v is a live vertex.
func (m *Mesh) VertAlive(v VertID) bool {
	return v >= 0 && int(v) < len(m.verts) && m.verts[v].alive
}

// EdgeAlive reports whether e is a live edge.
func (m *Mesh) EdgeAlive(e EdgeID) bool {
	return e >= 0 && int(e) < len(m.edges) && m.edges[e].alive
}

// LoopAlive reports whether l is a live loop.
func (m *Mesh) LoopAlive(l LoopID) bool {
	return l >= 0 && int(l) < len(m.loops) && m.loops[l].alive
}

// FaceAlive reports whether f is a live face.
func (m *Mesh) FaceAlive(f FaceID) bool {
	return f >= 0 && int(f) < len(m.faces) && m.faces[f].alive
}

// RefVert returns a generation-checked handle for v.
func (m *Mesh) RefVert(v VertID) VertRef {
	return VertRef{ID: v, Gen: m.verts[v].gen}
}

// ValidVert reports whether r still names the same live vertex.
func (m *Mesh) ValidVert(r VertRef) bool {
	return m.VertAlive(r.ID) && m.verts[r.ID].gen == r.Gen
}

// RefEdge returns a generation-checked handle for e.
func (m *Mesh) RefEdge(e EdgeID) EdgeRef {
	return EdgeRef{ID: e, Gen: m.edges[e].gen}
}

// ValidEdge reports whether r still names the same live edge.
func (m *Mesh) ValidEdge(r EdgeRef) bool {
	return m.EdgeAlive(r.ID) && m.edges[r.ID].gen == r.Gen
}

// RefFace returns a generation-checked handle for f.
func (m *Mesh) RefFace(f FaceID) FaceRef {
	return FaceRef{ID: f, Gen: m.faces[f].gen}
}

// ValidFace reports whether r still names the same live face.
func (m *Mesh) ValidFace(r FaceRef) bool {
	return m.FaceAlive(r.ID) && m.faces[r.ID].gen == r.Gen
}

func (m *Mesh) allocVert() VertID {
	var v VertID
	if n := len(m.freeVerts); n > 0 {
		v = m.freeVerts[n-1]
		m.freeVerts = m.freeVerts[:n-1]
		m.verts[v] = vertRec{gen: m.verts[v].gen, e: NilEdge, alive: true}
		for i := range m.layers {
			m.layers[i].data[v] = 0
		}
	} else {
		v = VertID(len(m.verts))
		m.verts = append(m.verts, vertRec{e: NilEdge, alive: true})
		for i := range m.layers {
			m.layers[i].data = append(m.layers[i].data, 0)
		}
	}
	m.nVerts++
	return v
}

func (m *Mesh) freeVert(v VertID) {
	m.verts[v].alive = false
	m.verts[v].gen++
	m.freeVerts = append(m.freeVerts, v)
	m.nVerts--
}

func (m *Mesh) allocEdge() EdgeID {
	var e EdgeID
	rec := edgeRec{
		v:     [2]VertID{NilVert, NilVert},
		disk:  [2]diskLink{{NilEdge, NilEdge}, {NilEdge, NilEdge}},
		l:     NilLoop,
		alive: true,
	}
	if n := len(m.freeEdges); n > 0 {
		e = m.freeEdges[n-1]
		m.freeEdges = m.freeEdges[:n-1]
		rec.gen = m.edges[e].gen
		m.edges[e] = rec
	} else {
		e = EdgeID(len(m.edges))
		m.edges = append(m.edges, rec)
	}
	m.nEdges++
	return e
}

func (m *Mesh) freeEdge(e EdgeID) {
	m.edges[e].alive = false
	m.edges[e].gen++
	m.freeEdges = append(m.freeEdges, e)
	m.nEdges--
}

func (m *Mesh) allocLoop() LoopID {
	var l LoopID
	rec := loopRec{
		v: NilVert, e: NilEdge, f: NilFace,
		next: NilLoop, prev: NilLoop,
		radialNext: NilLoop, radialPrev: NilLoop,
		alive: true,
	}
	if n := len(m.freeLoops); n > 0 {
		l = m.freeLoops[n-1]
		m.freeLoops = m.freeLoops[:n-1]
		rec.gen = m.loops[l].gen
		m.loops[l] = rec
	} else {
		l = LoopID(len(m.loops))
		m.loops = append(m.loops, rec)
	}
	m.nLoops++
	return l
}

func (m *Mesh) freeLoop(l LoopID) {
	m.loops[l].alive = false
	m.loops[l].gen++
	m.freeLoops = append(m.freeLoops, l)
	m.nLoops--
}

func (m *Mesh) allocFace() FaceID {
	var f FaceID
	rec := faceRec{l: NilLoop, alive: true}
	if n := len(m.freeFaces); n > 0 {
		f = m.freeFaces[n-1]
		m.freeFaces = m.freeFaces[:n-1]
		rec.gen = m.faces[f].gen
		m.faces[f] = rec
	} else {
		f = FaceID(len(m.faces))
		m.faces = append(m.faces, rec)
	}
	m.nFaces++
	return f
}

func (m *Mesh) freeFace(f FaceID) {
	m.faces[f].alive = false
	m.faces[f].gen++
	m.freeFaces = append(m.freeFaces, f)
	m.nFaces--
}

// Vert flags.

// VertFlags returns the flags of v.
func (m *Mesh) VertFlags(v VertID) VertFlag { return m.verts[v].flags }

// HasVertFlag reports whether v has all bits of f set.
func (m *Mesh) HasVertFlag(v VertID, f VertFlag) bool { return m.verts[v].flags&f == f }

// SetVertFlag sets or clears f on v.
func (m *Mesh) SetVertFlag(v VertID, f VertFlag, on bool) {
	if on {
		m.verts[v].flags |= f
	} else {
		m.verts[v].flags &^= f
	}
}

// EdgeFlags returns the flags of e.
func (m *Mesh) EdgeFlags(e EdgeID) EdgeFlag { return m.edges[e].flags }

// HasEdgeFlag reports whether e has all bits of f set.
func (m *Mesh) HasEdgeFlag(e EdgeID, f EdgeFlag) bool { return m.edges[e].flags&f == f }

// SetEdgeFlag sets or clears f on e.
func (m *Mesh) SetEdgeFlag(e EdgeID, f EdgeFlag, on bool) {
	if on {
		m.edges[e].flags |= f
	} else {
		m.edges[e].flags &^= f
	}
}

// FaceFlags returns the flags of f.
func (m *Mesh) FaceFlags(f FaceID) FaceFlag { return m.faces[f].flags }

// HasFaceFlag reports whether f has all bits of fl set.
func (m *Mesh) HasFaceFlag(f FaceID, fl FaceFlag) bool { return m.faces[f].flags&fl == fl }

// SetFaceFlag sets or clears fl on f.
func (m *Mesh) SetFaceFlag(f FaceID, fl FaceFlag, on bool) {
	if on {
		m.faces[f].flags |= fl
	} else {
		m.faces[f].flags &^= fl
	}
}

// ClearNewFlags drops the session "new" marks from every element, e.g.
// after import or when an editing session is committed.
func (m *Mesh) ClearNewFlags() {
	for i := range m.verts {
		m.verts[i].flags &^= VertNew
	}
	for i := range m.edges {
		m.edges[i].flags &^= EdgeNew
	}
	for i := range m.faces {
		m.faces[i].flags &^= FaceNew
	}
}
