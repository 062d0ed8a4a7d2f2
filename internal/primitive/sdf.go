package primitive

import (
	"fmt"
	gomath "math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// FromSDF polygonises s with uniform marching cubes over cells divisions of
// its longest side. Coincident corners are welded on a grid of size weld,
// zero-area triangles are dropped and every triangle is wound along the
// field gradient.
func FromSDF(s sdf.SDF3, cells int, weld float64) (*mesh.Mesh, error) {
	if cells < 2 {
		return nil, fmt.Errorf("sdf: %d cells", cells)
	}
	if weld <= 0 {
		size := s.BoundingBox().Size()
		weld = max(size.X, size.Y, size.Z) / float64(cells) * 1e-3
	}

	tris := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	index := make(map[[3]int64]int)
	var pos []math.Vec3
	vertex := func(p v3.Vec) int {
		key := [3]int64{
			int64(gomath.Round(p.X / weld)),
			int64(gomath.Round(p.Y / weld)),
			int64(gomath.Round(p.Z / weld)),
		}
		if i, ok := index[key]; ok {
			return i
		}
		pos = append(pos, math.Vec3{X: p.X, Y: p.Y, Z: p.Z})
		index[key] = len(pos) - 1
		return len(pos) - 1
	}

	out := make([][3]int, 0, len(tris))
	for _, tri := range tris {
		t := [3]int{vertex(tri[0]), vertex(tri[1]), vertex(tri[2])}
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		a, b, c := pos[t[0]], pos[t[1]], pos[t[2]]
		if math.TriangleArea(a, b, c) == 0 {
			continue
		}
		centroid := a.Add(b).Add(c).Scale(1.0 / 3.0)
		if math.TriangleNormal(a, b, c).Dot(gradient(s, centroid, weld)) < 0 {
			t[1], t[2] = t[2], t[1]
		}
		out = append(out, t)
	}

	m, _, err := mesh.FromTriangles(pos, out)
	if err != nil {
		return nil, fmt.Errorf("sdf: %w", err)
	}
	return m, nil
}

func gradient(s sdf.SDF3, p math.Vec3, h float64) math.Vec3 {
	at := func(x, y, z float64) float64 { return s.Evaluate(v3.Vec{X: x, Y: y, Z: z}) }
	return math.Vec3{
		X: at(p.X+h, p.Y, p.Z) - at(p.X-h, p.Y, p.Z),
		Y: at(p.X, p.Y+h, p.Z) - at(p.X, p.Y-h, p.Z),
		Z: at(p.X, p.Y, p.Z+h) - at(p.X, p.Y, p.Z-h),
	}
}

// SDFSphere polygonises a sphere of the given radius.
func SDFSphere(radius float64, cells int) (*mesh.Mesh, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdf sphere: %w", err)
	}
	return FromSDF(s, cells, 0)
}
