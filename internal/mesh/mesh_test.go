package mesh

import (
	"context"
	"errors"
	"testing"

	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

func tetra(t *testing.T) *Mesh {
	t.Helper()
	pos := []math.Vec3{{X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: -1, Y: -1, Z: 1}}
	tris := [][3]int{{0, 1, 2}, {1, 0, 3}, {2, 1, 3}, {0, 2, 3}}
	m, skipped, err := FromTriangles(pos, tris)
	if err != nil {
		t.Fatalf("FromTriangles() error = %v", err)
	}
	if skipped != 0 {
		t.Fatalf("FromTriangles() skipped = %d, want 0", skipped)
	}
	return m
}

// quad is the unit square split along its diagonal.
func quad(t *testing.T) *Mesh {
	t.Helper()
	pos := []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0}}
	m, _, err := FromTriangles(pos, [][3]int{{0, 1, 2}, {0, 2, 3}})
	if err != nil {
		t.Fatalf("FromTriangles() error = %v", err)
	}
	return m
}

func TestFromTrianglesTetra(t *testing.T) {
	m := tetra(t)
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if m.VertCount() != 4 || m.EdgeCount() != 6 || m.FaceCount() != 4 || m.LoopCount() != 12 {
		t.Errorf("counts = %d/%d/%d/%d, want 4/6/4/12", m.VertCount(), m.EdgeCount(), m.FaceCount(), m.LoopCount())
	}
	for v := range m.Verts() {
		if got := m.Valence(v); got != 3 {
			t.Errorf("Valence(%d) = %d, want 3", v, got)
		}
		if m.IsBoundaryVert(v) {
			t.Errorf("IsBoundaryVert(%d) = true on closed mesh", v)
		}
		if m.HasVertFlag(v, VertNew) {
			t.Errorf("vertex %d still flagged new after import", v)
		}
	}
	for e := range m.Edges() {
		if !m.IsManifoldEdge(e) {
			t.Errorf("IsManifoldEdge(%d) = false", e)
		}
	}
}

func TestFaceNormalsPointOutward(t *testing.T) {
	m := tetra(t)
	for f := range m.Faces() {
		if d := m.FaceNormal(f).Dot(m.FaceCentroid(f)); d <= 0 {
			t.Errorf("face %d normal faces inward (dot %v)", f, d)
		}
	}
	for v := range m.Verts() {
		if d := m.Normal(v).Dot(m.Co(v)); d <= 0 {
			t.Errorf("vertex %d normal faces inward (dot %v)", v, d)
		}
	}
}

func TestCreateFaceRejects(t *testing.T) {
	tests := []struct {
		name string
		vs   [3]VertID
		want error
	}{
		{"repeated vertex", [3]VertID{0, 0, 1}, ErrDegenerate},
		{"duplicate", [3]VertID{0, 2, 3}, ErrDuplicateFace},
		{"same direction as neighbour", [3]VertID{0, 1, 4}, ErrOrientation},
		{"dead vertex", [3]VertID{0, 1, 99}, ErrDeadElement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := quad(t)
			m.CreateVert(math.Vec3{X: 0.5, Y: -1, Z: 0})
			before := m.FaceCount()
			_, err := m.CreateFace(tt.vs)
			if !errors.Is(err, tt.want) {
				t.Errorf("CreateFace(%v) error = %v, want %v", tt.vs, err, tt.want)
			}
			if m.FaceCount() != before {
				t.Errorf("FaceCount() = %d after rejected face, want %d", m.FaceCount(), before)
			}
		})
	}
}

func TestCreateFaceNonManifold(t *testing.T) {
	m := quad(t)
	// Edge 0-2 already carries both quad triangles.
	w := m.CreateVert(math.Vec3{X: 0.5, Y: 0.5, Z: 1})
	_, err := m.CreateFace([3]VertID{2, 0, w})
	if !errors.Is(err, ErrOrientation) && !errors.Is(err, ErrNonManifold) {
		t.Errorf("CreateFace() error = %v, want orientation or non-manifold", err)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestBoundaryQueries(t *testing.T) {
	m := quad(t)
	diag := m.EdgeBetween(0, 2)
	if diag == NilEdge {
		t.Fatal("EdgeBetween(0, 2) = nil")
	}
	if m.IsBoundaryEdge(diag) {
		t.Error("diagonal reported as boundary")
	}
	if _, _, n := m.EdgeFaces(diag); n != 2 {
		t.Errorf("EdgeFaces(diag) n = %d, want 2", n)
	}
	side := m.EdgeBetween(0, 1)
	if !m.IsBoundaryEdge(side) {
		t.Error("side edge not reported as boundary")
	}
	if m.EdgeBetween(1, 3) != NilEdge {
		t.Error("EdgeBetween(1, 3) found an edge that does not exist")
	}
	if got := m.EdgeOther(side, 0); got != 1 {
		t.Errorf("EdgeOther() = %d, want 1", got)
	}
}

func TestKillAndRecycle(t *testing.T) {
	m := quad(t)
	f := m.FindFace([3]VertID{0, 2, 3})
	if f == NilFace {
		t.Fatal("FindFace() = nil")
	}
	ref := m.RefFace(f)
	m.KillFace(f)
	if m.ValidFace(ref) {
		t.Error("ValidFace() = true after KillFace")
	}

	e := m.EdgeBetween(2, 3)
	if err := m.KillEdge(e); err != nil {
		t.Fatalf("KillEdge() = %v", err)
	}
	if err := m.KillEdge(m.EdgeBetween(0, 2)); !errors.Is(err, ErrEdgeInUse) {
		t.Errorf("KillEdge(used) = %v, want ErrEdgeInUse", err)
	}
	m.KillLooseEdges(3)
	if err := m.KillVert(3); err != nil {
		t.Fatalf("KillVert() = %v", err)
	}
	if err := m.KillVert(0); !errors.Is(err, ErrVertInUse) {
		t.Errorf("KillVert(used) = %v, want ErrVertInUse", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	// Freed slots are reused with a new generation.
	v := m.CreateVert(math.Vec3{X: 0, Y: 1, Z: 0})
	if v != 3 {
		t.Errorf("CreateVert() = %d, want recycled slot 3", v)
	}
	f2, err := m.CreateFace([3]VertID{0, 2, v})
	if err != nil {
		t.Fatalf("CreateFace() = %v", err)
	}
	if f2 != f {
		t.Errorf("CreateFace() = %d, want recycled slot %d", f2, f)
	}
	if m.ValidFace(ref) {
		t.Error("stale FaceRef validates against recycled slot")
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestDiskClosure(t *testing.T) {
	m := tetra(t)
	for v := range m.Verts() {
		fwd, ok := m.walkDisk(v, true)
		if !ok || fwd != m.Valence(v) {
			t.Errorf("walkDisk(%d) = %d,%v, want %d,true", v, fwd, ok, m.Valence(v))
		}
		n := 0
		for range m.VertFaces(v) {
			n++
		}
		if n != 3 {
			t.Errorf("VertFaces(%d) yielded %d faces, want 3", v, n)
		}
	}
}

func TestValidateReportsCorruption(t *testing.T) {
	m := tetra(t)
	l := m.faces[0].l
	m.loops[l].next = l
	if err := m.Validate(); err == nil {
		t.Error("Validate() = nil on corrupted face cycle")
	}
}

func TestValidateAllowsLooseVerts(t *testing.T) {
	m := New()
	m.CreateVert(math.Vec3{X: 1})
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() on a single loose vertex = %v", err)
	}

	m = quad(t)
	v := m.CreateVert(math.Vec3{X: 2, Y: 2})
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() with loose vertex %d = %v", v, err)
	}
	if m.Valence(v) != 0 {
		t.Errorf("Valence(%d) = %d, want 0", v, m.Valence(v))
	}
}

func TestLayers(t *testing.T) {
	m := quad(t)
	k := m.AddVertLayer("curvature")
	if again := m.AddVertLayer("curvature"); again != k {
		t.Errorf("AddVertLayer() twice = %d, want %d", again, k)
	}
	m.SetVertFloat(k, 2, 1.5)
	if got := m.VertFloat(k, 2); got != 1.5 {
		t.Errorf("VertFloat() = %v, want 1.5", got)
	}
	v := m.CreateVert(math.Vec3{})
	if got := m.VertFloat(k, v); got != 0 {
		t.Errorf("VertFloat(new) = %v, want 0", got)
	}
	if _, ok := m.VertLayer("missing"); ok {
		t.Error("VertLayer(missing) ok = true")
	}
	if names := m.LayerNames(); len(names) != 1 || names[0] != "curvature" {
		t.Errorf("LayerNames() = %v", names)
	}
}

func TestTrianglesExportCompacts(t *testing.T) {
	m := quad(t)
	m.KillFace(m.FindFace([3]VertID{0, 2, 3}))
	m.KillLooseEdges(3)
	_ = m.KillVert(3)

	pos, tris := m.Triangles()
	if len(pos) != 3 || len(tris) != 1 {
		t.Fatalf("Triangles() = %d verts %d tris, want 3 and 1", len(pos), len(tris))
	}
	for _, idx := range tris[0] {
		if idx < 0 || idx >= len(pos) {
			t.Errorf("index %d out of range", idx)
		}
	}
}

func TestFromTrianglesSkipsBadFaces(t *testing.T) {
	pos := []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 9, Y: 9, Z: 9}}
	m, skipped, err := FromTriangles(pos, [][3]int{{0, 1, 2}, {0, 1, 2}, {1, 1, 2}})
	if err != nil {
		t.Fatalf("FromTriangles() error = %v", err)
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if m.VertCount() != 3 {
		t.Errorf("VertCount() = %d, want 3 (isolated vertex removed)", m.VertCount())
	}
	if _, _, err := FromTriangles(pos, [][3]int{{0, 1, 7}}); err == nil {
		t.Error("FromTriangles() accepted out-of-range index")
	}
}

func TestUpdateNormals(t *testing.T) {
	m := quad(t)
	m.SetCo(2, math.Vec3{X: 1, Y: 1, Z: 1})
	if err := m.UpdateNormals(context.Background(), []VertID{2}); err != nil {
		t.Fatalf("UpdateNormals() = %v", err)
	}
	f := m.FindFace([3]VertID{0, 1, 2})
	want := m.ComputeFaceNormal(f)
	if got := m.FaceNormal(f); got.Distance(want) > 1e-12 {
		t.Errorf("FaceNormal() = %v, want %v", got, want)
	}
}
