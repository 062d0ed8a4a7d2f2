package remesh

import (
	"context"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/internal/parallel"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// SmoothPass relaxes verts towards the centroid of their neighbours, moving
// only within the tangent plane. New positions are computed for all verts
// before any is written. Boundary and locked vertices stay put. It returns
// the number of vertex moves.
func (r *Remesher) SmoothPass(ctx context.Context, verts []mesh.VertID) (int, error) {
	m := r.m
	var free []mesh.VertID
	for _, v := range verts {
		if m.VertAlive(v) && !m.HasVertFlag(v, mesh.VertLocked) && !m.IsBoundaryVert(v) {
			free = append(free, v)
		}
	}
	if len(free) == 0 || r.p.SmoothFactor == 0 {
		return 0, nil
	}

	next := make([]math.Vec3, len(free))
	moved := 0
	for it := 0; it < r.p.SmoothIterations; it++ {
		err := parallel.For(ctx, m.Parallel, len(free), func(start, end int) {
			for i := start; i < end; i++ {
				next[i] = r.relaxed(free[i])
			}
		})
		if err != nil {
			return moved, err
		}
		for i, v := range free {
			r.touch(r.leafOf(v))
			m.SetCo(v, next[i])
			r.moved(v)
		}
		moved += len(free)
		if err := m.UpdateNormals(ctx, free); err != nil {
			return moved, err
		}
	}
	return moved, nil
}

func (r *Remesher) relaxed(v mesh.VertID) math.Vec3 {
	m := r.m
	p := m.Co(v)
	var sum math.Vec3
	n := 0
	for u := range m.VertNeighbors(v) {
		sum = sum.Add(m.Co(u))
		n++
	}
	if n == 0 {
		return p
	}
	delta := sum.Scale(1 / float64(n)).Sub(p)
	return p.Add(delta.ProjectPlane(m.Normal(v)).Scale(r.p.SmoothFactor))
}
