package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := math.Sqrt(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)
	if math.Abs(length-1.0) > 1e-9 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatRotateMatchesMatrix(t *testing.T) {
	axis := Vec3{1, 1, 0}.Normalize()
	q := QuatFromAxisAngle(axis, 0.7)
	v := Vec3{0.3, -2, 5}

	a := q.Rotate(v)
	b := q.ToMat3().MulVec(v)
	if a.Distance(b) > 1e-9 {
		t.Errorf("Rotate() = %v, ToMat3().MulVec() = %v", a, b)
	}
	if !almost(a.Length(), v.Length()) {
		t.Errorf("rotation changed length: %v -> %v", v.Length(), a.Length())
	}
}

func TestQuatMul(t *testing.T) {
	z := Vec3{0, 0, 1}
	half := QuatFromAxisAngle(z, math.Pi/4)
	full := half.Mul(half)
	got := full.Rotate(Vec3{1, 0, 0})
	if math.Abs(got.X) > 1e-9 || math.Abs(got.Y-1) > 1e-9 {
		t.Errorf("two 45 degree turns: got %v, want (0,1,0)", got)
	}
}
