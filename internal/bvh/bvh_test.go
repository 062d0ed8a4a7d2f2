package bvh

import (
	"testing"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// grid builds an n×n quad grid over [x0,x0+size]² at height z.
func grid(t *testing.T, n int, x0, size, z float64) *mesh.Mesh {
	t.Helper()
	var pos []math.Vec3
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			pos = append(pos, math.Vec3{
				X: x0 + size*float64(i)/float64(n),
				Y: x0 + size*float64(j)/float64(n),
				Z: z,
			})
		}
	}
	var tris [][3]int
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a := j*(n+1) + i
			b, c, d := a+1, a+n+2, a+n+1
			tris = append(tris, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	m, _, err := mesh.FromTriangles(pos, tris)
	if err != nil {
		t.Fatalf("FromTriangles() error = %v", err)
	}
	return m
}

// checkExclusive verifies every live face and vertex is owned by exactly one
// leaf and that the owner tables agree with the leaf lists.
func checkExclusive(t *testing.T, tree *Tree, m *mesh.Mesh) {
	t.Helper()
	faceSeen := map[mesh.FaceID]int{}
	vertSeen := map[mesh.VertID]int{}
	for id := range tree.Leaves() {
		for _, f := range tree.LeafFaces(id) {
			faceSeen[f]++
			if got := tree.FaceLeaf(f); got != id {
				t.Errorf("FaceLeaf(%d) = %d, listed in %d", f, got, id)
			}
		}
		for _, v := range tree.LeafVerts(id) {
			vertSeen[v]++
			if got := tree.VertLeaf(v); got != id {
				t.Errorf("VertLeaf(%d) = %d, listed in %d", v, got, id)
			}
		}
	}
	for f := range m.Faces() {
		if faceSeen[f] != 1 {
			t.Errorf("face %d owned by %d leaves, want 1", f, faceSeen[f])
		}
	}
	for v := range m.Verts() {
		if vertSeen[v] != 1 {
			t.Errorf("vertex %d owned by %d leaves, want 1", v, vertSeen[v])
		}
	}
	if len(faceSeen) != m.FaceCount() || len(vertSeen) != m.VertCount() {
		t.Errorf("tree holds %d faces %d verts, mesh has %d and %d",
			len(faceSeen), len(vertSeen), m.FaceCount(), m.VertCount())
	}
}

func TestBuildSplitsLargeLeaves(t *testing.T) {
	m := grid(t, 40, 0, 1, 0)
	tree := BuildFromMesh(m, Config{})
	s := tree.Stats()
	if s.Leaves < 8 {
		t.Errorf("Stats().Leaves = %d, want at least 8", s.Leaves)
	}
	if s.MaxLeafFaces > DefaultMaxLeafSize {
		t.Errorf("Stats().MaxLeafFaces = %d, want <= %d", s.MaxLeafFaces, DefaultMaxLeafSize)
	}
	if s.Faces != m.FaceCount() {
		t.Errorf("Stats().Faces = %d, want %d", s.Faces, m.FaceCount())
	}
	checkExclusive(t, tree, m)
}

func TestRemoveInsertKeepsExclusivity(t *testing.T) {
	m := grid(t, 20, 0, 1, 0)
	tree := BuildFromMesh(m, Config{MaxLeafSize: 32})

	var removed []mesh.FaceID
	for f := range m.Faces() {
		if f%3 == 0 {
			removed = append(removed, f)
		}
	}
	for _, f := range removed {
		if tree.RemoveFace(f) == NilNode {
			t.Fatalf("RemoveFace(%d) = NilNode", f)
		}
		if tree.FaceLeaf(f) != NilNode {
			t.Errorf("FaceLeaf(%d) still set after removal", f)
		}
	}
	if tree.RemoveFace(removed[0]) != NilNode {
		t.Error("second RemoveFace() returned an owner")
	}
	for _, f := range removed {
		tree.InsertFace(f)
	}
	checkExclusive(t, tree, m)
	if s := tree.Stats(); s.MaxLeafFaces > 32 {
		t.Errorf("Stats().MaxLeafFaces = %d, want <= 32", s.MaxLeafFaces)
	}

	v := mesh.VertID(0)
	tree.RemoveVert(v)
	if tree.VertLeaf(v) != NilNode {
		t.Error("VertLeaf() set after RemoveVert")
	}
	tree.InsertVert(v)
	checkExclusive(t, tree, m)
}

func TestQuerySphereCoversFaces(t *testing.T) {
	m := grid(t, 30, 0, 1, 0)
	tree := BuildFromMesh(m, Config{MaxLeafSize: 20})

	center := math.Vec3{X: 0.3, Y: 0.6, Z: 0}
	radius := 0.15
	leaves := map[NodeID]bool{}
	for _, id := range tree.QuerySphere(center, radius) {
		if !tree.IsLeaf(id) {
			t.Errorf("QuerySphere() returned inner node %d", id)
		}
		leaves[id] = true
	}
	for f := range m.Faces() {
		if m.FaceBounds(f).IntersectsSphere(center, radius) && !leaves[tree.FaceLeaf(f)] {
			t.Errorf("face %d overlaps the sphere but its leaf was not returned", f)
		}
	}
	if got := tree.QuerySphere(math.Vec3{X: 10, Y: 10, Z: 10}, 0.5); len(got) != 0 {
		t.Errorf("QuerySphere(far away) = %v, want none", got)
	}
}

func TestQueryRay(t *testing.T) {
	m := grid(t, 16, 0, 1, 0)
	tree := BuildFromMesh(m, Config{MaxLeafSize: 16})

	r := math.NewRay(math.Vec3{X: 0.41, Y: 0.77, Z: 2}, math.Vec3{Z: -1})
	hit, ok := tree.QueryRay(r)
	if !ok {
		t.Fatal("QueryRay() missed the grid")
	}
	if d := hit.Point.Distance(math.Vec3{X: 0.41, Y: 0.77}); d > 1e-9 {
		t.Errorf("QueryRay().Point = %v, off by %v", hit.Point, d)
	}
	if !almostEqual(hit.T, 2) {
		t.Errorf("QueryRay().T = %v, want 2", hit.T)
	}
	if tree.FaceLeaf(hit.Face) != hit.Leaf {
		t.Errorf("QueryRay().Leaf = %d, want owner %d", hit.Leaf, tree.FaceLeaf(hit.Face))
	}

	miss := math.NewRay(math.Vec3{X: 3, Y: 3, Z: 2}, math.Vec3{Z: -1})
	if _, ok := tree.QueryRay(miss); ok {
		t.Error("QueryRay() hit outside the grid")
	}
}

func TestBoundsRefreshAfterMove(t *testing.T) {
	m := grid(t, 4, 0, 1, 0)
	tree := BuildFromMesh(m, Config{})
	v := mesh.VertID(12)
	m.SetCo(v, math.Vec3{X: 0.5, Y: 0.5, Z: 3})
	tree.MarkVert(v, UpdateBounds|UpdateDraw)

	leaf := tree.VertLeaf(v)
	if tree.Dirty(leaf)&UpdateDraw == 0 {
		t.Error("MarkVert() did not flag the owning leaf")
	}
	hit := tree.QuerySphere(math.Vec3{X: 0.5, Y: 0.5, Z: 3}, 0.1)
	if len(hit) == 0 {
		t.Error("QuerySphere() did not see the moved vertex")
	}
	if tree.Dirty(leaf)&UpdateBounds != 0 {
		t.Error("UpdateBounds still set after query")
	}
	tree.ClearDirty(leaf, UpdateDraw)
	if tree.Dirty(leaf)&UpdateDraw != 0 {
		t.Error("ClearDirty() left UpdateDraw set")
	}
}

func TestSplitAbandonedWhenOneOctant(t *testing.T) {
	m := grid(t, 4, 1, 1, 1)
	tree := New(m, Config{MaxLeafSize: 4})
	var faces []mesh.FaceID
	for f := range m.Faces() {
		faces = append(faces, f)
	}
	box := math.NewAABB(math.Vec3{X: -10, Y: -10, Z: -10}, math.Vec3{X: 10, Y: 10, Z: 10})
	tree.Build(faces, nil, box)
	if s := tree.Stats(); s.Leaves != 1 || s.Faces != len(faces) {
		t.Errorf("Stats() = %+v, want a single leaf holding %d faces", s, len(faces))
	}
}

func TestSnapshotCapture(t *testing.T) {
	m := grid(t, 2, 0, 1, 0)
	tree := BuildFromMesh(m, Config{})
	leaf := tree.Root()
	snap := tree.Capture(leaf, m)
	if len(snap.Faces) != m.FaceCount() || len(snap.Verts) != m.VertCount() {
		t.Fatalf("Capture() = %d faces %d verts", len(snap.Faces), len(snap.Verts))
	}
	tree.SetOrigin(leaf, snap)
	if tree.Origin(leaf) != snap {
		t.Error("Origin() did not return the attached snapshot")
	}
	tree.ClearOrigins()
	if tree.Origin(leaf) != nil {
		t.Error("Origin() not cleared")
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
