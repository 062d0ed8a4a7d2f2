package stroke

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-sculpt/internal/brush"
	"github.com/Faultbox/midgard-sculpt/internal/bvh"
	"github.com/Faultbox/midgard-sculpt/internal/logger"
	"github.com/Faultbox/midgard-sculpt/internal/mesh"
	"github.com/Faultbox/midgard-sculpt/internal/remesh"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// Errors returned by Session.
var (
	ErrNoStroke     = errors.New("no stroke in progress")
	ErrStrokeActive = errors.New("stroke already in progress")
)

// State is the phase of the current step.
type State int

// Step phases.
const (
	Idle State = iota
	Gather
	MutateTopology
	ApplyBrush
	Commit
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Gather:
		return "gather"
	case MutateTopology:
		return "mutate_topology"
	case ApplyBrush:
		return "apply_brush"
	case Commit:
		return "commit"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options configures a session.
type Options struct {
	// Dyntopo enables remeshing under brushes that allow it.
	Dyntopo bool
}

// StepStats reports the work of one Step.
type StepStats struct {
	Dabs      int // brush applications, one per symmetry mirror
	Snapshots int // leaves captured for undo
	Moved     int // vertex moves
	Remesh    remesh.Stats
}

func (s *StepStats) addRemesh(r remesh.Stats) {
	s.Remesh.Collapsed += r.Collapsed
	s.Remesh.Split += r.Split
	s.Remesh.Flipped += r.Flipped
	s.Remesh.Smoothed += r.Smoothed
	s.Remesh.Rejected += r.Rejected
	s.Remesh.DepthCapped += r.DepthCapped
}

// Session owns the mesh and its tree for the duration of an editing
// session. It is not safe for concurrent use.
type Session struct {
	m        *mesh.Mesh
	tree     *bvh.Tree
	remesher *remesh.Remesher
	opts     Options
	undo     UndoLog
	log      *zap.Logger

	state  State
	active bool
	kind   brush.Kind
	steps  []StepLog
	cur    *StepLog
	seen   map[bvh.NodeID]bool
}

// NewSession creates a session. remesher and undo may be nil; without a
// remesher Dyntopo has no effect.
func NewSession(m *mesh.Mesh, tree *bvh.Tree, remesher *remesh.Remesher, opts Options, undo UndoLog, log *zap.Logger) *Session {
	return &Session{
		m:        m,
		tree:     tree,
		remesher: remesher,
		opts:     opts,
		undo:     undo,
		log:      logger.Named(log, "stroke"),
	}
}

// State returns the current phase.
func (s *Session) State() State { return s.state }

// Active reports whether a stroke is in progress.
func (s *Session) Active() bool { return s.active }

// SetDyntopo toggles remeshing for the following steps.
func (s *Session) SetDyntopo(on bool) { s.opts.Dyntopo = on }

// Begin starts a stroke.
func (s *Session) Begin() error {
	if s.active {
		return ErrStrokeActive
	}
	s.active = true
	s.steps = nil
	if s.remesher != nil {
		s.remesher.OnTouch = s.capture
	}
	return nil
}

// Step applies one sample: every symmetry mirror in turn goes through
// gather, optional topology mutation and brush application, then the step
// log is committed.
func (s *Session) Step(ctx context.Context, sample Sample) (StepStats, error) {
	var st StepStats
	if !s.active {
		return st, ErrNoStroke
	}
	s.kind = sample.Kind
	s.cur = &StepLog{}
	s.seen = make(map[bvh.NodeID]bool)

	var err error
	for _, dab := range sample.Mirrors() {
		if err = s.dab(ctx, dab, &st); err != nil {
			break
		}
		st.Dabs++
	}

	s.state = Commit
	s.steps = append(s.steps, *s.cur)
	st.Snapshots = len(s.cur.Snapshots)
	s.cur = nil
	s.state = Idle
	if err != nil {
		return st, err
	}
	s.log.Debug("step",
		zap.Stringer("kind", sample.Kind),
		zap.Int("dabs", st.Dabs),
		zap.Int("moved", st.Moved),
		zap.Int("split", st.Remesh.Split),
		zap.Int("collapsed", st.Remesh.Collapsed))
	return st, nil
}

func (s *Session) dab(ctx context.Context, b brush.Sample, st *StepStats) error {
	s.state = Gather
	for _, id := range s.tree.QuerySphere(b.Center, b.Radius) {
		s.capture(id)
	}

	if s.opts.Dyntopo && s.remesher != nil && b.Kind.AllowsDyntopo() {
		s.state = MutateTopology
		rs, err := s.remesher.Run(ctx, b.Center, b.Radius)
		st.addRemesh(rs)
		if err != nil {
			return fmt.Errorf("remesh: %w", err)
		}
	}

	s.state = ApplyBrush
	leaves := s.tree.QuerySphere(b.Center, b.Radius)
	for _, id := range leaves {
		s.capture(id)
	}
	verts := lo.FlatMap(leaves, func(id bvh.NodeID, _ int) []mesh.VertID {
		return s.tree.LeafVerts(id)
	})
	moved, err := brush.Apply(ctx, s.m, b, verts)
	for _, v := range moved {
		s.tree.MarkVert(v, bvh.UpdateAll)
	}
	st.Moved += len(moved)
	if err != nil {
		return fmt.Errorf("apply %v: %w", b.Kind, err)
	}
	return nil
}

// capture records the pre-state of leaf id the first time the current step
// touches it. The first capture of a stroke also becomes the leaf origin.
func (s *Session) capture(id bvh.NodeID) {
	if s.cur == nil || id == bvh.NilNode || s.seen[id] {
		return
	}
	s.seen[id] = true
	snap := s.tree.Capture(id, s.m)
	s.cur.Snapshots = append(s.cur.Snapshots, snap)
	if s.tree.Origin(id) == nil {
		s.tree.SetOrigin(id, snap)
	}
}

// End finishes the stroke and pushes its steps to the undo log as one
// unit. A stroke without steps pushes nothing.
func (s *Session) End() error {
	if !s.active {
		return ErrNoStroke
	}
	s.active = false
	if s.remesher != nil {
		s.remesher.OnTouch = nil
	}
	s.tree.ClearOrigins()

	if len(s.steps) == 0 || s.undo == nil {
		s.steps = nil
		return nil
	}
	unit := UndoUnit{Kind: s.kind, Steps: s.steps}
	s.steps = nil
	s.undo.Push(unit)
	s.log.Debug("stroke finished",
		zap.Stringer("kind", unit.Kind),
		zap.Int("steps", len(unit.Steps)),
		zap.Int("leaves", unit.Leaves()))
	return nil
}

// Raycast returns the first face hit by the ray, for placing the cursor.
func (s *Session) Raycast(origin, dir math.Vec3) (bvh.Hit, bool) {
	return s.tree.QueryRay(math.NewRay(origin, dir))
}
