package stroke

import (
	"context"
	"errors"
	gomath "math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/midgard-sculpt/internal/brush"
	"github.com/Faultbox/midgard-sculpt/internal/bvh"
	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/internal/primitive"
	"github.com/Faultbox/midgard-sculpt/internal/remesh"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

func TestParseSymmetry(t *testing.T) {
	tests := []struct {
		in      string
		want    Symmetry
		wantErr bool
	}{
		{"", 0, false},
		{"x", SymX, false},
		{"XZ", SymX | SymZ, false},
		{"x, y, z", SymX | SymY | SymZ, false},
		{"w", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSymmetry(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSymmetry(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
	if got := (SymX | SymZ).String(); got != "xz" {
		t.Errorf("String() = %q, want xz", got)
	}
}

func TestMirrors(t *testing.T) {
	s := Sample{
		Center:    math.Vec3{X: 1, Y: 2, Z: 3},
		GrabDelta: math.Vec3{X: 1},
		Angle:     0.5,
		Symmetry:  SymX | SymZ,
	}
	got := s.Mirrors()
	type dab struct {
		Center math.Vec3
		Delta  math.Vec3
		Angle  float64
	}
	var dabs []dab
	for _, b := range got {
		dabs = append(dabs, dab{b.Center, b.GrabDelta, b.Angle})
	}
	want := []dab{
		{math.Vec3{X: 1, Y: 2, Z: 3}, math.Vec3{X: 1}, 0.5},
		{math.Vec3{X: -1, Y: 2, Z: 3}, math.Vec3{X: -1}, -0.5},
		{math.Vec3{X: 1, Y: 2, Z: -3}, math.Vec3{X: 1}, -0.5},
		{math.Vec3{X: -1, Y: 2, Z: -3}, math.Vec3{X: -1}, 0.5},
	}
	if diff := cmp.Diff(want, dabs); diff != "" {
		t.Errorf("Mirrors() mismatch (-want +got):\n%s", diff)
	}
	if n := len((Sample{}).Mirrors()); n != 1 {
		t.Errorf("Mirrors() without symmetry = %d dabs, want 1", n)
	}
}

type fixture struct {
	m    *mesh.Mesh
	tree *bvh.Tree
	r    *remesh.Remesher
	undo *MemoryUndoLog
	s    *Session
}

func newFixture(t *testing.T, m *mesh.Mesh, dyntopo bool) *fixture {
	t.Helper()
	tree := bvh.BuildFromMesh(m, bvh.Config{MaxLeafSize: 32})
	p := remesh.DefaultParams()
	p.Adaptive = false
	p.MinEdge, p.MaxEdge = 0.05, 0.15
	r := remesh.New(m, tree, p, nil)
	undo := &MemoryUndoLog{}
	return &fixture{
		m:    m,
		tree: tree,
		r:    r,
		undo: undo,
		s:    NewSession(m, tree, r, Options{Dyntopo: dyntopo}, undo, nil),
	}
}

func sphere(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := primitive.Icosphere(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func plane(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := primitive.Plane(10, 2)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestStrokeLifecycle(t *testing.T) {
	f := newFixture(t, sphere(t), false)
	ctx := context.Background()

	if _, err := f.s.Step(ctx, Sample{}); !errors.Is(err, ErrNoStroke) {
		t.Errorf("Step() before Begin error = %v, want ErrNoStroke", err)
	}
	if err := f.s.End(); !errors.Is(err, ErrNoStroke) {
		t.Errorf("End() before Begin error = %v, want ErrNoStroke", err)
	}
	if err := f.s.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := f.s.Begin(); !errors.Is(err, ErrStrokeActive) {
		t.Errorf("second Begin() error = %v, want ErrStrokeActive", err)
	}
	if err := f.s.End(); err != nil {
		t.Fatal(err)
	}
	if f.undo.Len() != 0 {
		t.Errorf("empty stroke pushed %d units", f.undo.Len())
	}
	if f.s.State() != Idle || f.s.Active() {
		t.Errorf("session left in %v, active %v", f.s.State(), f.s.Active())
	}
}

func TestStrokeDrawWithDyntopo(t *testing.T) {
	f := newFixture(t, sphere(t), true)
	ctx := context.Background()
	faces := f.m.FaceCount()

	if err := f.s.Begin(); err != nil {
		t.Fatal(err)
	}
	sample := Sample{
		Kind:     brush.Draw,
		Center:   math.Vec3{Z: 1},
		Radius:   0.4,
		Strength: 0.5,
	}
	var total StepStats
	for i := 0; i < 3; i++ {
		st, err := f.s.Step(ctx, sample)
		if err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		total.Moved += st.Moved
		total.Remesh.Split += st.Remesh.Split
		if st.Snapshots == 0 {
			t.Errorf("step %d captured no leaves", i)
		}
	}
	if err := f.s.End(); err != nil {
		t.Fatal(err)
	}

	if total.Remesh.Split == 0 || f.m.FaceCount() <= faces {
		t.Errorf("no refinement: %d splits, %d -> %d faces", total.Remesh.Split, faces, f.m.FaceCount())
	}
	if total.Moved == 0 {
		t.Error("brush moved nothing")
	}
	if err := f.m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	if f.undo.Len() != 1 {
		t.Fatalf("undo holds %d units, want 1", f.undo.Len())
	}
	unit := f.undo.Units[0]
	if unit.Kind != brush.Draw || len(unit.Steps) != 3 {
		t.Errorf("unit = %v with %d steps, want draw with 3", unit.Kind, len(unit.Steps))
	}
	for i, step := range unit.Steps {
		seen := map[bvh.NodeID]bool{}
		for _, snap := range step.Snapshots {
			if seen[snap.Node] {
				t.Errorf("step %d captured leaf %d twice", i, snap.Node)
			}
			seen[snap.Node] = true
		}
	}
	for id := range f.tree.Leaves() {
		if f.tree.Origin(id) != nil {
			t.Errorf("leaf %d keeps its origin after End", id)
		}
	}
}

func TestStrokeGrabSkipsRemesh(t *testing.T) {
	f := newFixture(t, sphere(t), true)
	faces := f.m.FaceCount()
	if err := f.s.Begin(); err != nil {
		t.Fatal(err)
	}
	st, err := f.s.Step(context.Background(), Sample{
		Kind:      brush.Grab,
		Falloff:   brush.FalloffSmooth,
		Center:    math.Vec3{Z: 1},
		Radius:    0.4,
		GrabDelta: math.Vec3{Z: 0.2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if st.Remesh != (remesh.Stats{}) || f.m.FaceCount() != faces {
		t.Errorf("Grab remeshed: %+v, %d -> %d faces", st.Remesh, faces, f.m.FaceCount())
	}
	if st.Moved == 0 {
		t.Error("Grab moved nothing")
	}
	if err := f.s.End(); err != nil {
		t.Fatal(err)
	}
}

func TestStrokeSnapshotsHoldPreState(t *testing.T) {
	f := newFixture(t, plane(t), false)
	const centre mesh.VertID = 60
	if err := f.s.Begin(); err != nil {
		t.Fatal(err)
	}
	if _, err := f.s.Step(context.Background(), Sample{Kind: brush.Draw, Radius: 0.5, Strength: 1}); err != nil {
		t.Fatal(err)
	}
	if f.m.Co(centre).Z <= 0 {
		t.Fatalf("centre not raised: %v", f.m.Co(centre))
	}
	if err := f.s.End(); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, snap := range f.undo.Units[0].Steps[0].Snapshots {
		for _, vs := range snap.Verts {
			if vs.ID == centre {
				found = true
				if vs.Co != (math.Vec3{}) {
					t.Errorf("snapshot holds %v, want the original origin", vs.Co)
				}
			}
		}
	}
	if !found {
		t.Error("centre vertex missing from the snapshots")
	}
}

func TestStrokeSymmetry(t *testing.T) {
	f := newFixture(t, plane(t), false)
	const left, right mesh.VertID = 58, 62 // (-0.4, 0) and (0.4, 0)
	if err := f.s.Begin(); err != nil {
		t.Fatal(err)
	}
	st, err := f.s.Step(context.Background(), Sample{
		Kind:     brush.Draw,
		Center:   math.Vec3{X: 0.4},
		Radius:   0.15,
		Strength: 1,
		Symmetry: SymX,
	})
	if err != nil {
		t.Fatal(err)
	}
	if st.Dabs != 2 {
		t.Errorf("Dabs = %d, want 2", st.Dabs)
	}
	zl, zr := f.m.Co(left).Z, f.m.Co(right).Z
	if zr <= 0 || gomath.Abs(zl-zr) > 1e-9 {
		t.Errorf("mirrored heights = %v, %v, want equal and raised", zl, zr)
	}
	if f.m.Co(60).Z != 0 {
		t.Error("vertex between the dabs moved")
	}
}

func TestRaycast(t *testing.T) {
	f := newFixture(t, sphere(t), false)
	hit, ok := f.s.Raycast(math.Vec3{Z: 5}, math.Vec3{Z: -1})
	if !ok {
		t.Fatal("Raycast() missed the sphere")
	}
	if hit.Point.Z < 0.9 || hit.Point.Z > 1 {
		t.Errorf("hit at %v, want near the north pole", hit.Point)
	}
	if _, ok := f.s.Raycast(math.Vec3{X: 5, Z: 5}, math.Vec3{Z: -1}); ok {
		t.Error("Raycast() hit beside the sphere")
	}
}
