package bvh

import (
	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// VertState is the saved state of one vertex.
type VertState struct {
	ID     mesh.VertID
	Co, No math.Vec3
}

// FaceState is the saved corner list of one face.
type FaceState struct {
	ID    mesh.FaceID
	Verts [3]mesh.VertID
}

// Snapshot is the state of one leaf before the first mutation of a stroke
// step touched it. It is produced once per leaf per step.
type Snapshot struct {
	Node  NodeID
	Verts []VertState
	Faces []FaceState
}

// Capture records the current contents of leaf id from m.
func (t *Tree) Capture(id NodeID, m *mesh.Mesh) *Snapshot {
	n := &t.nodes[id]
	s := &Snapshot{
		Node:  id,
		Verts: make([]VertState, 0, len(n.verts)),
		Faces: make([]FaceState, 0, len(n.faces)),
	}
	for _, v := range n.verts {
		s.Verts = append(s.Verts, VertState{ID: v, Co: m.Co(v), No: m.Normal(v)})
	}
	for _, f := range n.faces {
		s.Faces = append(s.Faces, FaceState{ID: f, Verts: m.FaceVerts(f)})
	}
	return s
}
