// Package curvature estimates discrete mean and Gauss curvature on a
// triangle mesh using cotangent weights over mixed Voronoi areas.
package curvature

import (
	"context"
	gomath "math"
	"slices"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/internal/parallel"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// LayerName is the per-vertex layer that holds the combined curvature.
const LayerName = "curvature"

// areaEpsilon guards the per-vertex area against division by zero.
const areaEpsilon = 1e-14

// Result holds the per-vertex values of one Compute call, indexed by VertID.
// Entries of dead vertices are zero.
type Result struct {
	Mean     []float64
	Gauss    []float64
	Combined []float64
	Area     []float64
	// Degenerate lists vertices with zero mixed area. They are written as 0
	// and sizing treats them as non-adaptive.
	Degenerate []mesh.VertID
}

// Layer returns the curvature layer of m, creating it when missing.
func Layer(m *mesh.Mesh) mesh.LayerKey {
	return m.AddVertLayer(LayerName)
}

// faceAngles returns the interior angles of f in FaceVerts order.
func faceAngles(m *mesh.Mesh, f mesh.FaceID) [3]float64 {
	a, b, c := m.FaceCoords(f)
	// Squared lengths opposite each corner.
	la := b.DistanceSq(c)
	lb := a.DistanceSq(c)
	lc := a.DistanceSq(b)
	return [3]float64{
		cornerAngle(lb, lc, la),
		cornerAngle(la, lc, lb),
		cornerAngle(la, lb, lc),
	}
}

// cornerAngle returns the angle between sides with squared lengths s1 and s2
// opposite the side with squared length opp.
func cornerAngle(s1, s2, opp float64) float64 {
	den := 2 * gomath.Sqrt(s1*s2)
	if den == 0 {
		return 0
	}
	cos := (s1 + s2 - opp) / den
	return gomath.Acos(max(-1, min(1, cos)))
}

func cot(x float64) float64 {
	t := gomath.Tan(x)
	if t == 0 {
		return 0
	}
	return 1 / t
}

func cornerIndex(vs [3]mesh.VertID, v mesh.VertID) int {
	for i, x := range vs {
		if x == v {
			return i
		}
	}
	return -1
}

// Compute estimates curvature for every live vertex of m and writes the
// combined value H + sqrt(max(0, H²−K)) into layer key.
//
// Interior vertices use the cotangent Laplacian and the angle defect over
// the mixed Voronoi area. Boundary vertices take the mean of their interior
// neighbours in a second pass.
func Compute(ctx context.Context, m *mesh.Mesh, key mesh.LayerKey) (*Result, error) {
	ps := m.Parallel

	faces := slices.Collect(m.Faces())
	angles := make([][3]float64, m.FaceCap())
	err := parallel.For(ctx, ps, len(faces), func(start, end int) {
		for _, f := range faces[start:end] {
			angles[f] = faceAngles(m, f)
		}
	})
	if err != nil {
		return nil, err
	}

	n := m.VertCap()
	res := &Result{
		Mean:     make([]float64, n),
		Gauss:    make([]float64, n),
		Combined: make([]float64, n),
		Area:     make([]float64, n),
	}
	boundary := make([]bool, n)
	degenerate := make([]bool, n)

	verts := slices.Collect(m.Verts())
	err = parallel.For(ctx, ps, len(verts), func(start, end int) {
		for _, v := range verts[start:end] {
			area, angleSum := mixedArea(m, angles, v)
			res.Area[v] = area
			if area <= areaEpsilon {
				degenerate[v] = true
				continue
			}
			if m.IsBoundaryVert(v) {
				boundary[v] = true
				continue
			}
			lap := laplacian(m, angles, v)
			res.Mean[v] = lap.Length() / (2 * area)
			res.Gauss[v] = (2*gomath.Pi - angleSum) / area
		}
	})
	if err != nil {
		return nil, err
	}

	// Boundary vertices read only interior results from the first pass.
	err = parallel.For(ctx, ps, len(verts), func(start, end int) {
		for _, v := range verts[start:end] {
			if !boundary[v] {
				continue
			}
			var h, k float64
			cnt := 0
			for u := range m.VertNeighbors(v) {
				if boundary[u] || degenerate[u] {
					continue
				}
				h += res.Mean[u]
				k += res.Gauss[u]
				cnt++
			}
			if cnt > 0 {
				res.Mean[v] = h / float64(cnt)
				res.Gauss[v] = k / float64(cnt)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	for _, v := range verts {
		if degenerate[v] {
			res.Degenerate = append(res.Degenerate, v)
			m.SetVertFloat(key, v, 0)
			continue
		}
		h, k := res.Mean[v], res.Gauss[v]
		res.Combined[v] = h + gomath.Sqrt(max(0, h*h-k))
		m.SetVertFloat(key, v, res.Combined[v])
	}
	return res, nil
}

// mixedArea returns the mixed Voronoi area of v and the sum of the corner
// angles at v.
func mixedArea(m *mesh.Mesh, angles [][3]float64, v mesh.VertID) (area, angleSum float64) {
	p := m.Co(v)
	for f := range m.VertFaces(v) {
		vs := m.FaceVerts(f)
		i := cornerIndex(vs, v)
		if i < 0 {
			continue
		}
		ang := angles[f]
		j, k := (i+1)%3, (i+2)%3
		angleSum += ang[i]

		if ang[0] >= gomath.Pi/2 || ang[1] >= gomath.Pi/2 || ang[2] >= gomath.Pi/2 {
			fa := math.TriangleArea(p, m.Co(vs[j]), m.Co(vs[k]))
			if ang[i] >= gomath.Pi/2 {
				area += fa / 2
			} else {
				area += fa / 4
			}
			continue
		}
		// Edge v-j is opposite corner k, edge v-k is opposite corner j.
		lj := p.DistanceSq(m.Co(vs[j]))
		lk := p.DistanceSq(m.Co(vs[k]))
		area += (lj*cot(ang[k]) + lk*cot(ang[j])) / 8
	}
	return area, angleSum
}

// laplacian returns Σ w(e)·(v − other(e)) over the manifold edges of v,
// with w(e) = ½(cot α + cot β) from the angles opposite e.
func laplacian(m *mesh.Mesh, angles [][3]float64, v mesh.VertID) (sum math.Vec3) {
	p := m.Co(v)
	for e := range m.VertEdges(v) {
		f0, f1, nf := m.EdgeFaces(e)
		if nf != 2 {
			continue
		}
		u := m.EdgeOther(e, v)
		w := 0.5 * (oppositeCot(m, angles, f0, v, u) + oppositeCot(m, angles, f1, v, u))
		sum = sum.Add(p.Sub(m.Co(u)).Scale(w))
	}
	return sum
}

// oppositeCot returns the cotangent of the corner of f that is neither a nor b.
func oppositeCot(m *mesh.Mesh, angles [][3]float64, f mesh.FaceID, a, b mesh.VertID) float64 {
	vs := m.FaceVerts(f)
	for i, x := range vs {
		if x != a && x != b {
			return cot(angles[f][i])
		}
	}
	return 0
}
