package primitive

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
)

func checkClosed(t *testing.T, name string, m *mesh.Mesh) {
	t.Helper()
	if err := m.Validate(); err != nil {
		t.Fatalf("%s: Validate() = %v", name, err)
	}
	if chi := m.VertCount() - m.EdgeCount() + m.FaceCount(); chi != 2 {
		t.Errorf("%s: Euler characteristic = %d, want 2", name, chi)
	}
	for e := range m.Edges() {
		if m.IsBoundaryEdge(e) {
			t.Errorf("%s: boundary edge %d on closed mesh", name, e)
			break
		}
	}
	for f := range m.Faces() {
		if m.FaceNormal(f).Dot(m.FaceCentroid(f)) <= 0 {
			t.Errorf("%s: face %d points inward", name, f)
			break
		}
	}
}

func TestQuad(t *testing.T) {
	m, err := Quad()
	if err != nil {
		t.Fatalf("Quad() error = %v", err)
	}
	if m.VertCount() != 4 || m.EdgeCount() != 5 || m.FaceCount() != 2 {
		t.Errorf("Quad() counts = %d/%d/%d, want 4/5/2", m.VertCount(), m.EdgeCount(), m.FaceCount())
	}
	for f := range m.Faces() {
		if n := m.FaceNormal(f); n.Z < 0.999 {
			t.Errorf("face %d normal = %v, want +Z", f, n)
		}
	}
}

func TestPlane(t *testing.T) {
	tests := []struct {
		n                   int
		verts, edges, faces int
	}{
		{1, 4, 5, 2},
		{4, 25, 56, 32},
		{10, 121, 320, 200},
	}
	for _, tt := range tests {
		m, err := Plane(tt.n, 2)
		if err != nil {
			t.Fatalf("Plane(%d) error = %v", tt.n, err)
		}
		if m.VertCount() != tt.verts || m.EdgeCount() != tt.edges || m.FaceCount() != tt.faces {
			t.Errorf("Plane(%d) counts = %d/%d/%d, want %d/%d/%d", tt.n,
				m.VertCount(), m.EdgeCount(), m.FaceCount(), tt.verts, tt.edges, tt.faces)
		}
		if err := m.Validate(); err != nil {
			t.Errorf("Plane(%d) Validate() = %v", tt.n, err)
		}
	}
	if _, err := Plane(0, 1); err == nil {
		t.Error("Plane(0) error = nil")
	}
}

func TestIcosahedron(t *testing.T) {
	m, err := Icosahedron(1)
	if err != nil {
		t.Fatalf("Icosahedron() error = %v", err)
	}
	if m.VertCount() != 12 || m.EdgeCount() != 30 || m.FaceCount() != 20 {
		t.Errorf("Icosahedron() counts = %d/%d/%d, want 12/30/20", m.VertCount(), m.EdgeCount(), m.FaceCount())
	}
	checkClosed(t, "icosahedron", m)

	want := m.AverageEdgeLength()
	for e := range m.Edges() {
		if got := m.EdgeLength(e); gomath.Abs(got-want) > 1e-9 {
			t.Errorf("EdgeLength(%d) = %v, want %v", e, got, want)
		}
	}
	for v := range m.Verts() {
		if m.Valence(v) != 5 {
			t.Errorf("Valence(%d) = %d, want 5", v, m.Valence(v))
		}
	}
}

func TestIcosphere(t *testing.T) {
	for level := 0; level <= 3; level++ {
		m, err := Icosphere(2, level)
		if err != nil {
			t.Fatalf("Icosphere(%d) error = %v", level, err)
		}
		p := 1 << (2 * level)
		if want := 10*p + 2; m.VertCount() != want {
			t.Errorf("Icosphere(%d) VertCount() = %d, want %d", level, m.VertCount(), want)
		}
		if want := 20 * p; m.FaceCount() != want {
			t.Errorf("Icosphere(%d) FaceCount() = %d, want %d", level, m.FaceCount(), want)
		}
		checkClosed(t, "icosphere", m)
		for v := range m.Verts() {
			if r := m.Co(v).Length(); gomath.Abs(r-2) > 1e-9 {
				t.Errorf("Icosphere(%d) vertex %d radius = %v, want 2", level, v, r)
				break
			}
		}
	}
}

func TestHullSphere(t *testing.T) {
	m, err := HullSphere(200, 1)
	if err != nil {
		t.Fatalf("HullSphere() error = %v", err)
	}
	if m.VertCount() != 200 {
		t.Errorf("HullSphere() VertCount() = %d, want 200", m.VertCount())
	}
	if want := 2*200 - 4; m.FaceCount() != want {
		t.Errorf("HullSphere() FaceCount() = %d, want %d", m.FaceCount(), want)
	}
	checkClosed(t, "hull sphere", m)

	if _, err := Hull(FibonacciSphere(3, 1)); err == nil {
		t.Error("Hull() of 3 points error = nil")
	}
}

func TestSDFSphere(t *testing.T) {
	const radius, cells = 1.0, 24
	m, err := SDFSphere(radius, cells)
	if err != nil {
		t.Fatalf("SDFSphere() error = %v", err)
	}
	if m.FaceCount() < 100 {
		t.Fatalf("SDFSphere() FaceCount() = %d, want a real surface", m.FaceCount())
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	tol := 4 * radius / cells
	for v := range m.Verts() {
		if r := m.Co(v).Length(); gomath.Abs(r-radius) > tol {
			t.Errorf("vertex %d radius = %v, want %v ± %v", v, r, radius, tol)
			break
		}
	}
	outward := 0
	for f := range m.Faces() {
		if m.FaceNormal(f).Dot(m.FaceCentroid(f)) > 0 {
			outward++
		}
	}
	if outward != m.FaceCount() {
		t.Errorf("%d of %d faces point outward", outward, m.FaceCount())
	}
}
