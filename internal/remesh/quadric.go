package remesh

import (
	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// Quadric is the error form xᵀAx + 2Bᵀx + C, the weighted sum of squared
// distances to a set of planes.
type Quadric struct {
	A math.Mat3
	B math.Vec3
	C float64
}

// PlaneQuadric returns the quadric of the plane through p with unit normal n,
// scaled by w.
func PlaneQuadric(n, p math.Vec3, w float64) Quadric {
	d := -n.Dot(p)
	return Quadric{
		A: math.Outer(n, n).ScaleBy(w),
		B: n.Scale(d * w),
		C: d * d * w,
	}
}

// Add returns q + o.
func (q Quadric) Add(o Quadric) Quadric {
	return Quadric{A: q.A.Add(o.A), B: q.B.Add(o.B), C: q.C + o.C}
}

// Eval returns the error at x.
func (q Quadric) Eval(x math.Vec3) float64 {
	return x.Dot(q.A.MulVec(x)) + 2*q.B.Dot(x) + q.C
}

// Optimum returns the point minimising q. ok is false when A is close to
// singular relative to its own scale, e.g. for planes that are all parallel.
func (q Quadric) Optimum() (math.Vec3, bool) {
	tr := (q.A[0] + q.A[4] + q.A[8]) / 3
	if tr <= 0 {
		return math.Vec3{}, false
	}
	inv, ok := q.A.Inverse(1e-6 * tr * tr * tr)
	if !ok {
		return math.Vec3{}, false
	}
	return inv.MulVec(q.B).Neg(), true
}

// VertQuadric sums the area-weighted face planes around v.
func VertQuadric(m *mesh.Mesh, v mesh.VertID) Quadric {
	var q Quadric
	p := m.Co(v)
	for f := range m.VertFaces(v) {
		a, b, c := m.FaceCoords(f)
		cr := b.Sub(a).Cross(c.Sub(a))
		area := cr.Length() * 0.5
		if area == 0 {
			continue
		}
		q = q.Add(PlaneQuadric(cr.Normalize(), p, area))
	}
	return q
}
