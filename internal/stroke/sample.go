// Package stroke drives one sculpt stroke: for every dab it gathers the
// leaves under the brush, records their state for undo, optionally
// remeshes the region and applies the brush.
package stroke

import (
	"fmt"
	"strings"

	"github.com/Faultbox/midgard-sculpt/internal/brush"
	"github.com/Faultbox/midgard-sculpt/pkg/math"
)

// Symmetry is a set of mirror planes through the origin.
type Symmetry uint8

// Mirror axes.
const (
	SymX Symmetry = 1 << iota
	SymY
	SymZ
)

// ParseSymmetry reads a string of axis letters such as "xz".
func ParseSymmetry(s string) (Symmetry, error) {
	var sym Symmetry
	for _, r := range strings.ToLower(s) {
		switch r {
		case 'x':
			sym |= SymX
		case 'y':
			sym |= SymY
		case 'z':
			sym |= SymZ
		case ' ', ',':
		default:
			return 0, fmt.Errorf("unknown symmetry axis %q", r)
		}
	}
	return sym, nil
}

func (s Symmetry) String() string {
	var b strings.Builder
	for i, name := range "xyz" {
		if s&(1<<i) != 0 {
			b.WriteRune(name)
		}
	}
	return b.String()
}

// Sample is one dab of the stroke as delivered by input handling, in
// world units.
type Sample struct {
	Center    math.Vec3
	Radius    float64
	Strength  float64
	Falloff   brush.Falloff
	Kind      brush.Kind
	Symmetry  Symmetry
	GrabDelta math.Vec3
	Angle     float64
	Invert    bool
}

// Brush converts the sample to a brush dab without mirroring.
func (s Sample) Brush() brush.Sample {
	return brush.Sample{
		Kind:      s.Kind,
		Falloff:   s.Falloff,
		Center:    s.Center,
		Radius:    s.Radius,
		Strength:  s.Strength,
		Invert:    s.Invert,
		GrabDelta: s.GrabDelta,
		Angle:     s.Angle,
	}
}

func mirror(v math.Vec3, flip Symmetry) math.Vec3 {
	if flip&SymX != 0 {
		v.X = -v.X
	}
	if flip&SymY != 0 {
		v.Y = -v.Y
	}
	if flip&SymZ != 0 {
		v.Z = -v.Z
	}
	return v
}

// Mirrors returns one brush dab per combination of the active symmetry
// planes, the unmirrored dab first. A reflection through an odd number of
// planes reverses the rotation sense.
func (s Sample) Mirrors() []brush.Sample {
	base := s.Brush()
	out := []brush.Sample{base}
	for flip := Symmetry(1); flip <= SymX|SymY|SymZ; flip++ {
		if flip&^s.Symmetry != 0 {
			continue
		}
		b := base
		b.Center = mirror(s.Center, flip)
		b.GrabDelta = mirror(s.GrabDelta, flip)
		if odd(flip) {
			b.Angle = -b.Angle
		}
		out = append(out, b)
	}
	return out
}

func odd(s Symmetry) bool {
	n := 0
	for ; s != 0; s &= s - 1 {
		n++
	}
	return n%2 == 1
}
