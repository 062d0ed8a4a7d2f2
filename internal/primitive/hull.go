package primitive

import (
	"fmt"
	gomath "math"

	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// FibonacciSphere returns n nearly evenly spaced points on a sphere.
func FibonacciSphere(n int, radius float64) []math.Vec3 {
	pts := make([]math.Vec3, n)
	golden := gomath.Pi * (3 - gomath.Sqrt(5))
	for i := range n {
		y := 1 - 2*(float64(i)+0.5)/float64(n)
		r := gomath.Sqrt(1 - y*y)
		th := golden * float64(i)
		pts[i] = math.Vec3{X: r * gomath.Cos(th), Y: y, Z: r * gomath.Sin(th)}.Scale(radius)
	}
	return pts
}

// Hull triangulates the convex hull of pts. Triangles are wound so their
// normals point away from the centroid of the point set.
func Hull(pts []math.Vec3) (*mesh.Mesh, error) {
	if len(pts) < 4 {
		return nil, fmt.Errorf("hull: %d points, need at least 4", len(pts))
	}
	vs := make([]r3.Vector, len(pts))
	var c math.Vec3
	for i, p := range pts {
		vs[i] = r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
		c = c.Add(p)
	}
	c = c.Scale(1 / float64(len(pts)))

	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(vs, true, true, 0)
	if len(ch.Indices)%3 != 0 || len(ch.Indices) == 0 {
		return nil, fmt.Errorf("hull: quickhull returned %d indices", len(ch.Indices))
	}

	tris := make([][3]int, 0, len(ch.Indices)/3)
	for i := 0; i < len(ch.Indices); i += 3 {
		t := [3]int{ch.Indices[i], ch.Indices[i+1], ch.Indices[i+2]}
		n := math.TriangleNormal(pts[t[0]], pts[t[1]], pts[t[2]])
		if n.Dot(pts[t[0]].Sub(c)) < 0 {
			t[1], t[2] = t[2], t[1]
		}
		tris = append(tris, t)
	}
	return build("hull", pts, tris)
}

// HullSphere returns the convex hull of n Fibonacci points on a sphere.
func HullSphere(n int, radius float64) (*mesh.Mesh, error) {
	return Hull(FibonacciSphere(n, radius))
}
