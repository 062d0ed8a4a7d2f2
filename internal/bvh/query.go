package bvh

import (
	gomath "math"

	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// QuerySphere returns the leaves whose bounds overlap the sphere. Stale
// bounds are refreshed first.
func (t *Tree) QuerySphere(center math.Vec3, radius float64) []NodeID {
	if t.root == NilNode {
		return nil
	}
	t.Refresh()

	var out []NodeID
	stack := []NodeID{t.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[id]
		if n.bounds.IsEmpty() || !n.bounds.IntersectsSphere(center, radius) {
			continue
		}
		if n.leaf {
			out = append(out, id)
			continue
		}
		stack = append(stack, n.children[:]...)
	}
	return out
}

// Hit is the nearest face along a ray.
type Hit struct {
	Face  mesh.FaceID
	Leaf  NodeID
	T     float64
	Point math.Vec3
}

// QueryRay returns the nearest face hit by r.
func (t *Tree) QueryRay(r math.Ray) (Hit, bool) {
	best := Hit{Face: mesh.NilFace, Leaf: NilNode, T: gomath.Inf(1)}
	if t.root == NilNode {
		return best, false
	}
	t.Refresh()

	stack := []NodeID{t.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[id]
		if _, ok := r.IntersectAABB(n.bounds); !ok {
			continue
		}
		if !n.leaf {
			stack = append(stack, n.children[:]...)
			continue
		}
		for _, f := range n.faces {
			if d, ok := t.src.RayFace(f, r); ok && d < best.T {
				best = Hit{Face: f, Leaf: id, T: d}
			}
		}
	}
	if best.Face == mesh.NilFace {
		return best, false
	}
	best.Point = r.At(best.T)
	return best, true
}

// Stats summarizes the shape of the tree.
type Stats struct {
	Nodes        int
	Leaves       int
	MaxDepth     int
	Faces        int
	Verts        int
	MaxLeafFaces int
}

// Stats walks every node.
func (t *Tree) Stats() Stats {
	var s Stats
	s.Nodes = len(t.nodes)
	for i := range t.nodes {
		n := &t.nodes[i]
		s.MaxDepth = max(s.MaxDepth, n.depth)
		if !n.leaf {
			continue
		}
		s.Leaves++
		s.Faces += len(n.faces)
		s.Verts += len(n.verts)
		s.MaxLeafFaces = max(s.MaxLeafFaces, len(n.faces))
	}
	return s
}
