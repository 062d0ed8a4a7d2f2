// Package remesh adapts mesh resolution around a brush: it collapses short
// edges, splits long ones, flips edges to even out valence and relaxes
// vertices along the surface. All mutation runs on the calling goroutine.
package remesh

import (
	"context"
	"fmt"
	gomath "math"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-sculpt/internal/bvh"
	"github.com/Faultbox/midgard-sculpt/internal/curvature"
	"github.com/Faultbox/midgard-sculpt/internal/logger"
	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// CollapsePolicy picks the surviving vertex when both endpoints have the
// same valence.
type CollapsePolicy int

const (
	// PolicyValence keeps the higher-valence endpoint, and the first endpoint
	// of the edge on a tie.
	PolicyValence CollapsePolicy = iota
	// PolicyError keeps the higher-valence endpoint, and on a tie the one
	// whose position has the lower combined quadric error.
	PolicyError
)

// ParsePolicy converts a config string to a CollapsePolicy.
func ParsePolicy(s string) (CollapsePolicy, error) {
	switch strings.ToLower(s) {
	case "", "valence":
		return PolicyValence, nil
	case "error":
		return PolicyError, nil
	}
	return PolicyValence, fmt.Errorf("unknown collapse policy %q", s)
}

func (p CollapsePolicy) String() string {
	if p == PolicyError {
		return "error"
	}
	return "valence"
}

// Params controls edge length targets and pass limits.
type Params struct {
	// Detail is the allowed approximation error ε used to size edges from
	// curvature.
	Detail float64
	// MinEdge and MaxEdge clamp every target length. Without Adaptive they
	// are the targets.
	MinEdge, MaxEdge float64
	Adaptive         bool
	UseQuadrics      bool
	// SplitScale is the growth of the split threshold per recursion level.
	SplitScale       float64
	MaxSplitDepth    int
	FlipPasses       int
	SmoothIterations int
	SmoothFactor     float64
	Policy           CollapsePolicy
}

// DefaultParams returns the default settings.
func DefaultParams() Params {
	return Params{
		Detail:           0.01,
		MinEdge:          0.02,
		MaxEdge:          0.2,
		Adaptive:         true,
		UseQuadrics:      true,
		SplitScale:       1.6,
		MaxSplitDepth:    10,
		FlipPasses:       5,
		SmoothIterations: 1,
		SmoothFactor:     0.5,
		Policy:           PolicyValence,
	}
}

// Stats counts the work done by one Run.
type Stats struct {
	Collapsed   int
	Split       int
	Flipped     int
	Smoothed    int
	Rejected    int // collapses refused by a topology or geometry check
	DepthCapped int // split candidates dropped at the recursion limit
}

// Remesher applies local topology changes to one mesh and keeps its spatial
// index in sync. It holds per-session scratch state and is not reentrant.
type Remesher struct {
	m    *mesh.Mesh
	tree *bvh.Tree
	p    Params
	log  *zap.Logger

	// OnTouch is called with a leaf before the remesher changes anything the
	// leaf owns or inserts into it.
	OnTouch func(bvh.NodeID)

	curv    mesh.LayerKey
	hasCurv bool
	avgLen  float64

	stats Stats
}

// New creates a remesher for m. tree may be nil when no index is kept.
func New(m *mesh.Mesh, tree *bvh.Tree, p Params, log *zap.Logger) *Remesher {
	return &Remesher{
		m:    m,
		tree: tree,
		p:    p,
		log:  logger.Named(log, "remesh"),
		curv: -1,
	}
}

// Params returns the current settings.
func (r *Remesher) Params() Params { return r.p }

// SetParams replaces the settings.
func (r *Remesher) SetParams(p Params) { r.p = p }

// UpdateCurvature recomputes the curvature layer used for adaptive sizing.
func (r *Remesher) UpdateCurvature(ctx context.Context) error {
	key := curvature.Layer(r.m)
	res, err := curvature.Compute(ctx, r.m, key)
	if err != nil {
		return err
	}
	r.curv = key
	r.hasCurv = true
	if len(res.Degenerate) > 0 {
		r.log.Debug("zero-area vertices sized from average edge length",
			zap.Int("count", len(res.Degenerate)))
	}
	return nil
}

// Run executes collapse, split, valence flips and tangential smoothing on
// the edges near the sphere, in that order.
func (r *Remesher) Run(ctx context.Context, center math.Vec3, radius float64) (Stats, error) {
	r.stats = Stats{}
	if r.p.Adaptive {
		if err := r.UpdateCurvature(ctx); err != nil {
			return r.stats, err
		}
	}
	r.avgLen = r.m.AverageEdgeLength()

	r.stats.Collapsed = r.CollapsePass(r.RegionEdges(center, radius))
	if err := ctx.Err(); err != nil {
		return r.stats, err
	}
	r.stats.Split = r.SplitPass(r.RegionEdges(center, radius))
	if err := ctx.Err(); err != nil {
		return r.stats, err
	}
	r.stats.Flipped = r.FlipPass(r.RegionEdges(center, radius))
	if err := ctx.Err(); err != nil {
		return r.stats, err
	}
	n, err := r.SmoothPass(ctx, r.RegionVerts(center, radius))
	r.stats.Smoothed = n
	if err != nil {
		return r.stats, err
	}

	r.log.Debug("remesh step",
		zap.Int("collapsed", r.stats.Collapsed),
		zap.Int("split", r.stats.Split),
		zap.Int("flipped", r.stats.Flipped),
		zap.Int("smoothed", r.stats.Smoothed),
		zap.Int("rejected", r.stats.Rejected),
		zap.Int("depth_capped", r.stats.DepthCapped))
	return r.stats, nil
}

// EdgeLenFromCurvature returns the edge length whose chord deviates from a
// circle of curvature kappa by detail: sqrt(6ε/κ − 3ε²). It returns 0 when
// the error already exceeds the radius.
func EdgeLenFromCurvature(kappa, detail float64) float64 {
	if kappa <= 0 {
		return gomath.Inf(1)
	}
	return gomath.Sqrt(max(0, 6*detail/kappa-3*detail*detail))
}

func (r *Remesher) clamp(x float64) float64 {
	return max(r.p.MinEdge, min(r.p.MaxEdge, x))
}

// Limits returns the collapse and split thresholds for an edge between a
// and b.
func (r *Remesher) Limits(a, b mesh.VertID) (minLen, maxLen float64) {
	if !r.p.Adaptive {
		return r.p.MinEdge, r.p.MaxEdge
	}
	target := 0.0
	if r.hasCurv {
		kappa := max(r.m.VertFloat(r.curv, a), r.m.VertFloat(r.curv, b))
		if kappa > 0 {
			target = EdgeLenFromCurvature(kappa, r.p.Detail)
		}
	}
	if target == 0 {
		target = r.avgLen
		if target == 0 {
			target = r.p.MaxEdge
		}
	}
	return r.clamp(0.8 * target), r.clamp(target * 4 / 3)
}

// RegionEdges returns the live edges within radius of center. Without a
// tree every edge of the mesh is scanned.
func (r *Remesher) RegionEdges(center math.Vec3, radius float64) []mesh.EdgeID {
	var out []mesh.EdgeID
	consider := func(e mesh.EdgeID) {
		a, b := r.m.EdgeVerts(e)
		p := math.ClosestOnSegment(center, r.m.Co(a), r.m.Co(b))
		if p.DistanceSq(center) <= radius*radius {
			out = append(out, e)
		}
	}
	if r.tree == nil {
		for e := range r.m.Edges() {
			consider(e)
		}
		return out
	}
	for _, leaf := range r.tree.QuerySphere(center, radius) {
		for _, f := range r.tree.LeafFaces(leaf) {
			for _, e := range r.m.FaceEdges(f) {
				consider(e)
			}
		}
	}
	return lo.Uniq(out)
}

// RegionVerts returns the live vertices within radius of center.
func (r *Remesher) RegionVerts(center math.Vec3, radius float64) []mesh.VertID {
	var out []mesh.VertID
	r2 := radius * radius
	if r.tree == nil {
		for v := range r.m.Verts() {
			if r.m.Co(v).DistanceSq(center) <= r2 {
				out = append(out, v)
			}
		}
		return out
	}
	for _, leaf := range r.tree.QuerySphere(center, radius) {
		for _, v := range r.tree.LeafVerts(leaf) {
			if r.m.Co(v).DistanceSq(center) <= r2 {
				out = append(out, v)
			}
		}
	}
	return out
}

// Index maintenance.

func (r *Remesher) touch(id bvh.NodeID) {
	if id != bvh.NilNode && r.OnTouch != nil {
		r.OnTouch(id)
	}
}

func (r *Remesher) unindexFace(f mesh.FaceID) {
	if r.tree == nil {
		return
	}
	r.touch(r.tree.FaceLeaf(f))
	r.tree.RemoveFace(f)
}

func (r *Remesher) indexFace(f mesh.FaceID) {
	if r.tree == nil {
		return
	}
	r.touch(r.tree.LeafAt(r.m.FaceCentroid(f)))
	r.tree.InsertFace(f)
}

func (r *Remesher) unindexVert(v mesh.VertID) {
	if r.tree == nil {
		return
	}
	r.touch(r.tree.VertLeaf(v))
	r.tree.RemoveVert(v)
}

func (r *Remesher) indexVert(v mesh.VertID) {
	if r.tree == nil {
		return
	}
	r.touch(r.tree.LeafAt(r.m.Co(v)))
	r.tree.InsertVert(v)
}

// moved flags the leaves around v after its position changed.
func (r *Remesher) moved(v mesh.VertID) {
	if r.tree == nil {
		return
	}
	r.tree.MarkVert(v, bvh.UpdateAll)
}

// warn reports an operation that found the mesh inconsistent after its
// checks passed.
func (r *Remesher) warn(msg string, err error, fields ...zap.Field) {
	r.log.Warn(msg, append(fields, zap.Error(err))...)
}

// refreshNormals recomputes normals around verts. Errors only come from a
// cancelled context, which the single-threaded passes do not use.
func (r *Remesher) refreshNormals(verts ...mesh.VertID) {
	_ = r.m.UpdateNormals(context.Background(), verts)
}
