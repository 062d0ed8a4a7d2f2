package brush

import (
	"context"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/internal/parallel"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// Displacement is the distance, as a fraction of the radius, that Draw,
// Inflate, Crease and Clay move a vertex at full strength and weight.
const Displacement = 0.1

// Sample is one brush dab.
type Sample struct {
	Kind     Kind
	Falloff  Falloff
	Center   math.Vec3
	Radius   float64
	Strength float64 // 0..1
	Invert   bool

	// GrabDelta is the cursor motion since the previous dab, used by Grab,
	// Thumb, SnakeHook and Nudge.
	GrabDelta math.Vec3
	// Angle is the rotation in radians applied by Rotate at full weight.
	Angle float64
}

func (s Sample) sign() float64 {
	if s.Invert {
		return -1
	}
	return 1
}

// Frame is the falloff-weighted average normal and position of the
// vertices under a brush.
type Frame struct {
	Normal math.Vec3
	Center math.Vec3
}

// AreaFrame averages the normals and positions of verts inside the sphere,
// weighted by linear distance to the rim. When the normals cancel out the
// frame normal falls back to +Z.
func AreaFrame(m *mesh.Mesh, verts []mesh.VertID, center math.Vec3, radius float64) Frame {
	var n, c math.Vec3
	total := 0.0
	for _, v := range verts {
		p := m.Co(v)
		w := FalloffLinear.Eval(p.Distance(center) / radius)
		if w <= 0 {
			continue
		}
		n = n.Add(m.Normal(v).Scale(w))
		c = c.Add(p.Scale(w))
		total += w
	}
	if total == 0 {
		return Frame{Normal: math.Vec3{Z: 1}, Center: center}
	}
	f := Frame{Normal: n.Normalize(), Center: c.Scale(1 / total)}
	if f.Normal.LengthSq() == 0 {
		f.Normal = math.Vec3{Z: 1}
	}
	return f
}

// Apply displaces the verts of m that lie inside the brush sphere and
// recomputes their normals. Positions are computed for every vertex before
// any is written, so operators that read neighbours see the state from
// before the dab. It returns the vertices that moved.
func Apply(ctx context.Context, m *mesh.Mesh, s Sample, verts []mesh.VertID) ([]mesh.VertID, error) {
	if s.Radius <= 0 {
		return nil, nil
	}

	var inside []mesh.VertID
	var weights []float64
	for _, v := range verts {
		if !m.VertAlive(v) {
			continue
		}
		w := s.Falloff.Eval(m.Co(v).Distance(s.Center) / s.Radius)
		if w > 0 {
			inside = append(inside, v)
			weights = append(weights, w)
		}
	}
	if len(inside) == 0 {
		return nil, nil
	}

	var frame Frame
	if s.Kind.usesAreaFrame() {
		frame = AreaFrame(m, inside, s.Center, s.Radius)
	}
	op := operator(m, s, frame)

	next := make([]math.Vec3, len(inside))
	err := parallel.For(ctx, m.Parallel, len(inside), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			next[i] = op(inside[i], weights[i])
		}
	})
	if err != nil {
		return nil, err
	}
	for i, v := range inside {
		m.SetCo(v, next[i])
	}
	if err := m.UpdateNormals(ctx, inside); err != nil {
		return inside, err
	}
	return inside, nil
}

// operator returns the new position of v for falloff weight w.
func operator(m *mesh.Mesh, s Sample, frame Frame) func(v mesh.VertID, w float64) math.Vec3 {
	sign := s.sign()
	amount := s.Strength * s.Radius * Displacement
	tangential := func(d math.Vec3) math.Vec3 { return d.ProjectPlane(frame.Normal) }

	switch s.Kind {
	case Draw:
		return func(v mesh.VertID, w float64) math.Vec3 {
			return m.Co(v).Add(frame.Normal.Scale(sign * amount * w))
		}

	case Inflate:
		return func(v mesh.VertID, w float64) math.Vec3 {
			return m.Co(v).Add(m.Normal(v).Scale(sign * amount * w))
		}

	case Pinch:
		return func(v mesh.VertID, w float64) math.Vec3 {
			p := m.Co(v)
			return p.Add(tangential(s.Center.Sub(p)).Scale(sign * min(1, s.Strength*w)))
		}

	case Crease:
		// Carves along the area normal while pinching sideways towards the
		// stroke line; inverted it raises a ridge.
		return func(v mesh.VertID, w float64) math.Vec3 {
			p := m.Co(v)
			pull := tangential(s.Center.Sub(p)).Scale(0.5 * min(1, s.Strength*w))
			return p.Add(pull).Add(frame.Normal.Scale(-sign * amount * w))
		}

	case Flatten:
		return func(v mesh.VertID, w float64) math.Vec3 {
			p := m.Co(v)
			d := p.Sub(frame.Center).Dot(frame.Normal)
			return p.Sub(frame.Normal.Scale(sign * d * min(1, s.Strength*w)))
		}

	case Clay:
		// Flatten against a plane lifted above the area centre, only pulling
		// up the vertices below it.
		plane := frame.Center.Add(frame.Normal.Scale(sign * amount))
		return func(v mesh.VertID, w float64) math.Vec3 {
			p := m.Co(v)
			d := p.Sub(plane).Dot(frame.Normal)
			if d*sign >= 0 {
				return p
			}
			return p.Sub(frame.Normal.Scale(d * min(1, s.Strength*w)))
		}

	case Rotate:
		return func(v mesh.VertID, w float64) math.Vec3 {
			q := math.QuatFromAxisAngle(frame.Normal, sign*s.Angle*w)
			return s.Center.Add(q.Rotate(m.Co(v).Sub(s.Center)))
		}

	case Grab:
		return func(v mesh.VertID, w float64) math.Vec3 {
			return m.Co(v).Add(s.GrabDelta.Scale(w))
		}

	case Thumb:
		delta := tangential(s.GrabDelta)
		return func(v mesh.VertID, w float64) math.Vec3 {
			return m.Co(v).Add(delta.Scale(w))
		}

	case SnakeHook:
		// Drag with the cursor and pinch towards the dragged centre so the
		// pulled strand keeps its width.
		target := s.Center.Add(s.GrabDelta)
		return func(v mesh.VertID, w float64) math.Vec3 {
			p := m.Co(v).Add(s.GrabDelta.Scale(w))
			return p.Add(tangential(target.Sub(p)).Scale(0.5 * s.Strength * w * w))
		}

	case Nudge:
		delta := tangential(s.GrabDelta)
		return func(v mesh.VertID, w float64) math.Vec3 {
			return m.Co(v).Add(delta.Scale(s.Strength * w))
		}

	case Smooth:
		return func(v mesh.VertID, w float64) math.Vec3 {
			p := m.Co(v)
			avg, ok := neighbourAverage(m, v)
			if !ok {
				return p
			}
			return p.Lerp(avg, min(1, s.Strength*w))
		}
	}
	return func(v mesh.VertID, _ float64) math.Vec3 { return m.Co(v) }
}

// neighbourAverage reads only positions, so concurrent calls are safe while
// nothing is written.
func neighbourAverage(m *mesh.Mesh, v mesh.VertID) (math.Vec3, bool) {
	var sum math.Vec3
	n := 0
	for u := range m.VertNeighbors(v) {
		sum = sum.Add(m.Co(u))
		n++
	}
	if n == 0 {
		return math.Vec3{}, false
	}
	return sum.Scale(1 / float64(n)), true
}
