package stroke

import (
	"github.com/Faultbox/midgard-sculpt/internal/brush"
	"github.com/Faultbox/midgard-sculpt/internal/bvh"
)

// StepLog holds the pre-state of every leaf one step touched, each leaf
// at most once.
type StepLog struct {
	Snapshots []*bvh.Snapshot
}

// UndoUnit is one finished stroke.
type UndoUnit struct {
	Kind  brush.Kind
	Steps []StepLog
}

// Leaves returns the number of leaf snapshots in the unit.
func (u UndoUnit) Leaves() int {
	n := 0
	for _, s := range u.Steps {
		n += len(s.Snapshots)
	}
	return n
}

// UndoLog receives finished strokes. Playback is up to the implementation.
type UndoLog interface {
	Push(UndoUnit)
}

// MemoryUndoLog keeps every pushed unit in memory.
type MemoryUndoLog struct {
	Units []UndoUnit
}

// Push appends u.
func (l *MemoryUndoLog) Push(u UndoUnit) { l.Units = append(l.Units, u) }

// Len returns the number of stored strokes.
func (l *MemoryUndoLog) Len() int { return len(l.Units) }
