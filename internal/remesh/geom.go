package remesh

import (
	"github.com/golang/geo/r3"

	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

func precise(v math.Vec3) r3.PreciseVector {
	return r3.PreciseVectorFromVector(r3.Vector{X: v.X, Y: v.Y, Z: v.Z})
}

// orientSign returns the exact sign of ((b−a)×(c−a))·n: positive when the
// triangle a,b,c faces along n.
func orientSign(a, b, c, n math.Vec3) int {
	pa := precise(a)
	ab := precise(b).Sub(pa)
	ac := precise(c).Sub(pa)
	return ab.Cross(ac).Dot(precise(n)).Sign()
}

// minNormalDot bounds how far a face normal may turn in one operation.
const minNormalDot = 0.1

// keepsOrientation reports whether triangle a,b,c still faces along the old
// unit normal n and has not folded over.
func keepsOrientation(a, b, c, n math.Vec3) bool {
	if orientSign(a, b, c, n) <= 0 {
		return false
	}
	return math.TriangleNormal(a, b, c).Dot(n) >= minNormalDot
}
