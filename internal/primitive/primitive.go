// Package primitive generates base meshes to sculpt on.
package primitive

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// Quad returns the unit square in the XY plane as two triangles.
func Quad() (*mesh.Mesh, error) {
	pos := []math.Vec3{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	return build("quad", pos, [][3]int{{0, 1, 2}, {0, 2, 3}})
}

// Plane returns an n×n quad grid of the given size centred on the origin in
// the XY plane, facing +Z.
func Plane(n int, size float64) (*mesh.Mesh, error) {
	if n < 1 {
		return nil, fmt.Errorf("plane: %d divisions", n)
	}
	pos := make([]math.Vec3, 0, (n+1)*(n+1))
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			pos = append(pos, math.Vec3{
				X: size * (float64(i)/float64(n) - 0.5),
				Y: size * (float64(j)/float64(n) - 0.5),
			})
		}
	}
	tris := make([][3]int, 0, 2*n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			a := j*(n+1) + i
			b, c, d := a+1, a+n+2, a+n+1
			tris = append(tris, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return build("plane", pos, tris)
}

var icoFaces = [][3]int{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
	{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
	{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
	{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}

func icoPositions(radius float64) []math.Vec3 {
	t := (1 + gomath.Sqrt(5)) / 2
	raw := []math.Vec3{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	for i := range raw {
		raw[i] = raw[i].Normalize().Scale(radius)
	}
	return raw
}

// Icosahedron returns a regular icosahedron inscribed in a sphere of the
// given radius. All 30 edges have the same length.
func Icosahedron(radius float64) (*mesh.Mesh, error) {
	return build("icosahedron", icoPositions(radius), icoFaces)
}

// Icosphere subdivides an icosahedron level times, projecting new vertices
// onto the sphere.
func Icosphere(radius float64, level int) (*mesh.Mesh, error) {
	pos := icoPositions(radius)
	tris := append([][3]int(nil), icoFaces...)

	for range level {
		mid := make(map[[2]int]int)
		midpoint := func(a, b int) int {
			key := [2]int{min(a, b), max(a, b)}
			if i, ok := mid[key]; ok {
				return i
			}
			p := pos[a].Add(pos[b]).Normalize().Scale(radius)
			pos = append(pos, p)
			mid[key] = len(pos) - 1
			return len(pos) - 1
		}
		next := make([][3]int, 0, len(tris)*4)
		for _, t := range tris {
			ab := midpoint(t[0], t[1])
			bc := midpoint(t[1], t[2])
			ca := midpoint(t[2], t[0])
			next = append(next,
				[3]int{t[0], ab, ca},
				[3]int{t[1], bc, ab},
				[3]int{t[2], ca, bc},
				[3]int{ab, bc, ca},
			)
		}
		tris = next
	}
	return build("icosphere", pos, tris)
}

func build(name string, pos []math.Vec3, tris [][3]int) (*mesh.Mesh, error) {
	m, skipped, err := mesh.FromTriangles(pos, tris)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if skipped > 0 {
		return nil, fmt.Errorf("%s: %d triangles rejected", name, skipped)
	}
	return m, nil
}
