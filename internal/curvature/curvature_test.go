package curvature

import (
	"context"
	gomath "math"
	"testing"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/internal/primitive"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

func TestCornerAngle(t *testing.T) {
	tests := []struct {
		name        string
		s1, s2, opp float64
		want        float64
	}{
		{"right", 1, 1, 2, gomath.Pi / 2},
		{"equilateral", 1, 1, 1, gomath.Pi / 3},
		{"overshoot clamps", 1, 1, 4.0000001, gomath.Pi},
		{"zero side", 0, 1, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cornerAngle(tt.s1, tt.s2, tt.opp)
			if gomath.IsNaN(got) || gomath.Abs(got-tt.want) > 1e-6 {
				t.Errorf("cornerAngle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSphereCurvature(t *testing.T) {
	const radius = 2.0
	m, err := primitive.Icosphere(radius, 3)
	if err != nil {
		t.Fatalf("Icosphere() error = %v", err)
	}
	key := Layer(m)
	res, err := Compute(context.Background(), m, key)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(res.Degenerate) != 0 {
		t.Errorf("Degenerate = %v, want none", res.Degenerate)
	}

	wantH := 1 / radius
	wantK := 1 / (radius * radius)
	totalK := 0.0
	for v := range m.Verts() {
		if h := res.Mean[v]; gomath.Abs(h-wantH) > 0.1*wantH {
			t.Errorf("Mean[%d] = %v, want %v ±10%%", v, h, wantH)
		}
		if k := res.Gauss[v]; gomath.Abs(k-wantK) > 0.15*wantK {
			t.Errorf("Gauss[%d] = %v, want %v ±15%%", v, k, wantK)
		}
		if c := m.VertFloat(key, v); c != res.Combined[v] {
			t.Errorf("layer value %v != Combined %v", c, res.Combined[v])
		}
		totalK += res.Gauss[v] * res.Area[v]
	}
	// Angle defects of a closed genus-0 surface sum to 4π.
	if gomath.Abs(totalK-4*gomath.Pi) > 1e-6 {
		t.Errorf("Σ K·A = %v, want 4π", totalK)
	}
}

func TestFlatPlaneIsZero(t *testing.T) {
	m, err := primitive.Plane(6, 1)
	if err != nil {
		t.Fatalf("Plane() error = %v", err)
	}
	key := Layer(m)
	res, err := Compute(context.Background(), m, key)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	for v := range m.Verts() {
		if gomath.Abs(res.Combined[v]) > 1e-9 {
			t.Errorf("Combined[%d] = %v, want 0 on a plane", v, res.Combined[v])
		}
	}
}

func TestBoundaryAveragesInterior(t *testing.T) {
	m, err := primitive.Icosphere(1, 2)
	if err != nil {
		t.Fatalf("Icosphere() error = %v", err)
	}
	// Open a hole at the top so the rim is a boundary.
	var top mesh.VertID
	best := -gomath.MaxFloat64
	for v := range m.Verts() {
		if y := m.Co(v).Y; y > best {
			best, top = y, v
		}
	}
	var faces []mesh.FaceID
	for f := range m.VertFaces(top) {
		faces = append(faces, f)
	}
	for _, f := range faces {
		m.KillFace(f)
	}
	m.KillLooseEdges(top)
	if err := m.KillVert(top); err != nil {
		t.Fatalf("KillVert() = %v", err)
	}

	res, err := Compute(context.Background(), m, Layer(m))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	for v := range m.Verts() {
		if !m.IsBoundaryVert(v) {
			continue
		}
		var sum float64
		n := 0
		for u := range m.VertNeighbors(v) {
			if !m.IsBoundaryVert(u) {
				sum += res.Mean[u]
				n++
			}
		}
		if n == 0 {
			continue
		}
		if want := sum / float64(n); gomath.Abs(res.Mean[v]-want) > 1e-12 {
			t.Errorf("boundary Mean[%d] = %v, want neighbour mean %v", v, res.Mean[v], want)
		}
	}
}

func TestZeroAreaIsDegenerate(t *testing.T) {
	pos := []math.Vec3{{X: 0}, {X: 1}, {X: 2}, {Y: 1}}
	m, _, err := mesh.FromTriangles(pos, [][3]int{{0, 1, 2}})
	if err != nil {
		t.Fatalf("FromTriangles() error = %v", err)
	}
	res, err := Compute(context.Background(), m, Layer(m))
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(res.Degenerate) != 3 {
		t.Errorf("Degenerate = %v, want the 3 collinear vertices", res.Degenerate)
	}
	for _, v := range res.Degenerate {
		if c := res.Combined[v]; c != 0 || gomath.IsNaN(c) {
			t.Errorf("Combined[%d] = %v, want 0", v, c)
		}
	}
}
