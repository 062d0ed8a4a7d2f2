// Package bvh implements the leaf-partitioned spatial index used while
// sculpting. Every face and every vertex is owned by exactly one leaf; leaves
// split into eight octree children when they grow past the configured size.
// Bounds are tight around the owned elements and refreshed lazily.
package bvh

import (
	"iter"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-sculpt/internal/logger"
	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// NodeID identifies a tree node. Leaf IDs stay valid for the lifetime of the
// tree; a leaf that splits keeps its ID and becomes an inner node.
type NodeID int32

// NilNode is the nil node handle.
const NilNode NodeID = -1

// Flag marks what a leaf needs refreshed.
type Flag uint8

const (
	UpdateBounds  Flag = 1 << iota // tight bounds are stale
	UpdateDraw                     // draw buffers are stale (consumed by a renderer)
	UpdateNormals                  // vertex normals inside the leaf are stale
)

// UpdateAll is every dirty flag.
const UpdateAll = UpdateBounds | UpdateDraw | UpdateNormals

// Defaults.
const (
	DefaultMaxLeafSize = 150
	DefaultMaxDepth    = 16
)

// Source is the geometry a tree indexes. *mesh.Mesh implements it.
type Source interface {
	FaceBounds(f mesh.FaceID) math.AABB
	FaceCentroid(f mesh.FaceID) math.Vec3
	Co(v mesh.VertID) math.Vec3
	VertFaces(v mesh.VertID) iter.Seq[mesh.FaceID]
	RayFace(f mesh.FaceID, r math.Ray) (float64, bool)
}

// Config holds tree settings. Zero values select the defaults.
type Config struct {
	MaxLeafSize int
	MaxDepth    int
}

func (c Config) withDefaults() Config {
	if c.MaxLeafSize <= 0 {
		c.MaxLeafSize = DefaultMaxLeafSize
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	return c
}

type node struct {
	cell     math.AABB // octree cell, fixed at creation
	bounds   math.AABB // tight bounds of everything below
	parent   NodeID
	children [8]NodeID
	leaf     bool
	depth    int

	faces []mesh.FaceID
	verts []mesh.VertID

	flags Flag
	// retrySplit is the face count at which an abandoned split is tried again.
	retrySplit int
	origin     *Snapshot
}

// Tree is the spatial index. It is not safe for concurrent mutation;
// read-only queries may run concurrently once Refresh has been called.
type Tree struct {
	src   Source
	cfg   Config
	log   *zap.Logger
	nodes []node
	root  NodeID

	faceOwner []NodeID
	facePos   []int32
	vertOwner []NodeID
	vertPos   []int32
}

// New creates an empty tree over src.
func New(src Source, cfg Config) *Tree {
	return &Tree{
		src:  src,
		cfg:  cfg.withDefaults(),
		log:  logger.Named(nil, "bvh"),
		root: NilNode,
	}
}

// Config returns the effective settings.
func (t *Tree) Config() Config { return t.cfg }

// Root returns the root node, or NilNode before anything was inserted.
func (t *Tree) Root() NodeID { return t.root }

func (t *Tree) newNode(cell math.AABB, parent NodeID, depth int) NodeID {
	id := NodeID(len(t.nodes))
	n := node{
		cell:   cell,
		bounds: math.EmptyAABB(),
		parent: parent,
		leaf:   true,
		depth:  depth,
		flags:  UpdateAll,
	}
	for i := range n.children {
		n.children[i] = NilNode
	}
	t.nodes = append(t.nodes, n)
	return id
}

// rootCell pads box into a cube so octants stay well shaped.
func rootCell(box math.AABB) math.AABB {
	if box.IsEmpty() {
		return math.NewAABB(math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1})
	}
	size := box.Size()
	half := max(size.X, size.Y, size.Z)*0.5*1.01 + 1e-6
	c := box.Center()
	h := math.Vec3{X: half, Y: half, Z: half}
	return math.NewAABB(c.Sub(h), c.Add(h))
}

// Build discards the current tree and indexes faces and verts inside a root
// cell derived from bounds.
func (t *Tree) Build(faces []mesh.FaceID, verts []mesh.VertID, bounds math.AABB) {
	t.nodes = t.nodes[:0]
	for i := range t.faceOwner {
		t.faceOwner[i] = NilNode
	}
	for i := range t.vertOwner {
		t.vertOwner[i] = NilNode
	}

	t.root = t.newNode(rootCell(bounds), NilNode, 0)
	for _, f := range faces {
		t.attachFace(t.root, f)
	}
	for _, v := range verts {
		t.attachVert(t.root, v)
	}
	t.maybeSplit(t.root)
	t.Refresh()
	t.log.Debug("tree built",
		zap.Int("faces", len(faces)),
		zap.Int("verts", len(verts)),
		zap.Int("nodes", len(t.nodes)))
}

// BuildFromMesh indexes every live face and vertex of m.
func BuildFromMesh(m *mesh.Mesh, cfg Config) *Tree {
	t := New(m, cfg)
	var faces []mesh.FaceID
	for f := range m.Faces() {
		faces = append(faces, f)
	}
	var verts []mesh.VertID
	for v := range m.Verts() {
		verts = append(verts, v)
	}
	t.Build(faces, verts, m.Bounds())
	return t
}

func (t *Tree) ensureRoot(p math.Vec3) {
	if t.root != NilNode {
		return
	}
	t.root = t.newNode(rootCell(math.NewAABB(p, p)), NilNode, 0)
}

// leafFor descends from the root to the leaf whose cell holds p. Points
// outside the root cell land in the nearest octant at every level.
func (t *Tree) leafFor(p math.Vec3) NodeID {
	id := t.root
	for !t.nodes[id].leaf {
		n := &t.nodes[id]
		id = n.children[math.Octant(p, n.cell.Center())]
	}
	return id
}

func grow[T any](s []T, idx int, fill T) []T {
	for len(s) <= idx {
		s = append(s, fill)
	}
	return s
}

func (t *Tree) attachFace(id NodeID, f mesh.FaceID) {
	t.faceOwner = grow(t.faceOwner, int(f), NilNode)
	t.facePos = grow(t.facePos, int(f), -1)
	n := &t.nodes[id]
	t.faceOwner[f] = id
	t.facePos[f] = int32(len(n.faces))
	n.faces = append(n.faces, f)
}

func (t *Tree) attachVert(id NodeID, v mesh.VertID) {
	t.vertOwner = grow(t.vertOwner, int(v), NilNode)
	t.vertPos = grow(t.vertPos, int(v), -1)
	n := &t.nodes[id]
	t.vertOwner[v] = id
	t.vertPos[v] = int32(len(n.verts))
	n.verts = append(n.verts, v)
}

// LeafAt returns the leaf whose cell holds p, or NilNode for an empty tree.
func (t *Tree) LeafAt(p math.Vec3) NodeID {
	if t.root == NilNode {
		return NilNode
	}
	return t.leafFor(p)
}

// InsertFace adds f to the leaf holding its centroid, splitting the leaf if
// it becomes too large. A face that is already indexed is left alone.
func (t *Tree) InsertFace(f mesh.FaceID) NodeID {
	if id := t.FaceLeaf(f); id != NilNode {
		return id
	}
	c := t.src.FaceCentroid(f)
	t.ensureRoot(c)
	id := t.leafFor(c)
	t.attachFace(id, f)
	t.markUp(id, UpdateAll)
	if t.maybeSplit(id) {
		return t.FaceLeaf(f)
	}
	return id
}

// InsertVert adds v to the leaf holding its position.
func (t *Tree) InsertVert(v mesh.VertID) NodeID {
	if id := t.VertLeaf(v); id != NilNode {
		return id
	}
	p := t.src.Co(v)
	t.ensureRoot(p)
	id := t.leafFor(p)
	t.attachVert(id, v)
	t.markUp(id, UpdateAll)
	return id
}

// RemoveFace drops f from its leaf in O(1) and returns the former owner.
func (t *Tree) RemoveFace(f mesh.FaceID) NodeID {
	id := t.FaceLeaf(f)
	if id == NilNode {
		return NilNode
	}
	n := &t.nodes[id]
	pos := t.facePos[f]
	last := n.faces[len(n.faces)-1]
	n.faces[pos] = last
	t.facePos[last] = pos
	n.faces = n.faces[:len(n.faces)-1]
	t.faceOwner[f] = NilNode
	t.facePos[f] = -1
	t.markUp(id, UpdateAll)
	return id
}

// RemoveVert drops v from its leaf in O(1) and returns the former owner.
func (t *Tree) RemoveVert(v mesh.VertID) NodeID {
	id := t.VertLeaf(v)
	if id == NilNode {
		return NilNode
	}
	n := &t.nodes[id]
	pos := t.vertPos[v]
	last := n.verts[len(n.verts)-1]
	n.verts[pos] = last
	t.vertPos[last] = pos
	n.verts = n.verts[:len(n.verts)-1]
	t.vertOwner[v] = NilNode
	t.vertPos[v] = -1
	t.markUp(id, UpdateAll)
	return id
}

// FaceLeaf returns the leaf owning f, or NilNode.
func (t *Tree) FaceLeaf(f mesh.FaceID) NodeID {
	if f < 0 || int(f) >= len(t.faceOwner) {
		return NilNode
	}
	return t.faceOwner[f]
}

// VertLeaf returns the leaf owning v, or NilNode.
func (t *Tree) VertLeaf(v mesh.VertID) NodeID {
	if v < 0 || int(v) >= len(t.vertOwner) {
		return NilNode
	}
	return t.vertOwner[v]
}

func (t *Tree) maybeSplit(id NodeID) bool {
	n := &t.nodes[id]
	if len(n.faces) <= t.cfg.MaxLeafSize || n.depth >= t.cfg.MaxDepth {
		return false
	}
	if n.retrySplit > 0 && len(n.faces) < n.retrySplit {
		return false
	}
	if !t.split(id) {
		return false
	}
	for _, c := range t.nodes[id].children {
		t.maybeSplit(c)
	}
	return true
}

// split moves the contents of leaf id into eight children. It is abandoned
// when every face centroid falls into the same octant.
func (t *Tree) split(id NodeID) bool {
	mid := t.nodes[id].cell.Center()
	faces := t.nodes[id].faces

	var counts [8]int
	octs := make([]uint8, len(faces))
	for i, f := range faces {
		o := math.Octant(t.src.FaceCentroid(f), mid)
		octs[i] = uint8(o)
		counts[o]++
	}
	for _, c := range counts {
		if c == len(faces) {
			n := &t.nodes[id]
			n.retrySplit = 2 * len(faces)
			t.log.Debug("split abandoned",
				zap.Int32("node", int32(id)),
				zap.Int("faces", len(faces)),
				zap.Int("depth", n.depth))
			return false
		}
	}

	depth := t.nodes[id].depth
	cell := t.nodes[id].cell
	var children [8]NodeID
	for i := range children {
		children[i] = t.newNode(cell.OctantBox(i), id, depth+1)
	}

	// t.nodes may have been reallocated by newNode.
	n := &t.nodes[id]
	verts := n.verts
	n.children = children
	n.leaf = false
	n.faces = nil
	n.verts = nil
	n.flags |= UpdateAll

	for i, f := range faces {
		t.attachFace(children[octs[i]], f)
	}
	for _, v := range verts {
		t.attachVert(children[math.Octant(t.src.Co(v), mid)], v)
	}
	return true
}

// markUp sets flags on id and UpdateBounds on all its ancestors.
func (t *Tree) markUp(id NodeID, flags Flag) {
	t.nodes[id].flags |= flags
	for p := t.nodes[id].parent; p != NilNode; p = t.nodes[p].parent {
		if t.nodes[p].flags&UpdateBounds != 0 {
			break
		}
		t.nodes[p].flags |= UpdateBounds
	}
}

// MarkFace flags the leaf owning f.
func (t *Tree) MarkFace(f mesh.FaceID, flags Flag) {
	if id := t.FaceLeaf(f); id != NilNode {
		t.markUp(id, flags)
	}
}

// MarkVert flags the leaf owning v and the leaves owning its faces.
func (t *Tree) MarkVert(v mesh.VertID, flags Flag) {
	if id := t.VertLeaf(v); id != NilNode {
		t.markUp(id, flags)
	}
	for f := range t.src.VertFaces(v) {
		t.MarkFace(f, flags)
	}
}

// Dirty returns the pending flags of id.
func (t *Tree) Dirty(id NodeID) Flag { return t.nodes[id].flags }

// ClearDirty clears flags on id. Renderers call it after consuming a leaf.
func (t *Tree) ClearDirty(id NodeID, flags Flag) { t.nodes[id].flags &^= flags }

// Refresh recomputes every stale bounding box, bottom-up.
func (t *Tree) Refresh() {
	if t.root == NilNode {
		return
	}
	t.refresh(t.root)
}

func (t *Tree) refresh(id NodeID) math.AABB {
	n := &t.nodes[id]
	if n.flags&UpdateBounds == 0 {
		return n.bounds
	}
	box := math.EmptyAABB()
	if n.leaf {
		for _, f := range n.faces {
			box = box.Union(t.src.FaceBounds(f))
		}
		for _, v := range n.verts {
			box = box.Extend(t.src.Co(v))
		}
	} else {
		children := n.children
		for _, c := range children {
			box = box.Union(t.refresh(c))
		}
	}
	n = &t.nodes[id]
	n.bounds = box
	n.flags &^= UpdateBounds
	return box
}

// Bounds returns the last refreshed bounds of id.
func (t *Tree) Bounds(id NodeID) math.AABB { return t.nodes[id].bounds }

// Cell returns the fixed octree cell of id.
func (t *Tree) Cell(id NodeID) math.AABB { return t.nodes[id].cell }

// IsLeaf reports whether id is a leaf.
func (t *Tree) IsLeaf(id NodeID) bool { return t.nodes[id].leaf }

// Depth returns the depth of id; the root has depth 0.
func (t *Tree) Depth(id NodeID) int { return t.nodes[id].depth }

// LeafFaces returns the faces owned by leaf id. The slice is owned by the
// tree and is only valid until the next mutation.
func (t *Tree) LeafFaces(id NodeID) []mesh.FaceID { return t.nodes[id].faces }

// LeafVerts returns the vertices owned by leaf id, under the same terms as
// LeafFaces.
func (t *Tree) LeafVerts(id NodeID) []mesh.VertID { return t.nodes[id].verts }

// Leaves iterates all leaves in node order.
func (t *Tree) Leaves() iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for i := range t.nodes {
			if t.nodes[i].leaf && !yield(NodeID(i)) {
				return
			}
		}
	}
}

// SetOrigin attaches the pre-step snapshot of id.
func (t *Tree) SetOrigin(id NodeID, s *Snapshot) { t.nodes[id].origin = s }

// Origin returns the snapshot attached to id, or nil.
func (t *Tree) Origin(id NodeID) *Snapshot { return t.nodes[id].origin }

// ClearOrigins detaches every snapshot.
func (t *Tree) ClearOrigins() {
	for i := range t.nodes {
		t.nodes[i].origin = nil
	}
}
