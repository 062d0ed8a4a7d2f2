// Package brush implements the sculpt displacement operators and their
// radial falloff curves.
package brush

import (
	"fmt"
	gomath "math"
	"strings"
)

// Kind selects the displacement formula.
type Kind int

// Brush kinds.
const (
	Draw Kind = iota
	Smooth
	Inflate
	Pinch
	Grab
	Crease
	Flatten
	Rotate
	Clay
	SnakeHook
	Thumb
	Nudge
)

var kindNames = [...]string{
	Draw:      "draw",
	Smooth:    "smooth",
	Inflate:   "inflate",
	Pinch:     "pinch",
	Grab:      "grab",
	Crease:    "crease",
	Flatten:   "flatten",
	Rotate:    "rotate",
	Clay:      "clay",
	SnakeHook: "snake_hook",
	Thumb:     "thumb",
	Nudge:     "nudge",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the kind with the given name. Case, dashes and
// underscores are ignored.
func ParseKind(s string) (Kind, error) {
	key := normalizeName(s)
	for k, name := range kindNames {
		if normalizeName(name) == key {
			return Kind(k), nil
		}
	}
	return Draw, fmt.Errorf("unknown brush kind %q", s)
}

// AllowsDyntopo reports whether the topology may be remeshed under the
// brush. Brushes that drag geometry along or average it would fight the
// remesher and run on a fixed topology.
func (k Kind) AllowsDyntopo() bool {
	switch k {
	case Grab, Thumb, Smooth, SnakeHook, Nudge, Rotate:
		return false
	}
	return true
}

// usesAreaFrame reports whether the kind needs the area normal and centre.
func (k Kind) usesAreaFrame() bool {
	switch k {
	case Draw, Pinch, Crease, Flatten, Rotate, Clay, SnakeHook, Thumb, Nudge:
		return true
	}
	return false
}

// Falloff is a radial weight curve over the normalised distance from the
// brush centre.
type Falloff int

// Falloff curves.
const (
	FalloffSmooth Falloff = iota
	FalloffSphere
	FalloffRoot
	FalloffSharp
	FalloffLinear
	FalloffConstant
)

var falloffNames = [...]string{
	FalloffSmooth:   "smooth",
	FalloffSphere:   "sphere",
	FalloffRoot:     "root",
	FalloffSharp:    "sharp",
	FalloffLinear:   "linear",
	FalloffConstant: "constant",
}

func (f Falloff) String() string {
	if f < 0 || int(f) >= len(falloffNames) {
		return fmt.Sprintf("Falloff(%d)", int(f))
	}
	return falloffNames[f]
}

// ParseFalloff returns the falloff curve with the given name.
func ParseFalloff(s string) (Falloff, error) {
	key := normalizeName(s)
	for f, name := range falloffNames {
		if name == key {
			return Falloff(f), nil
		}
	}
	return FalloffSmooth, fmt.Errorf("unknown falloff %q", s)
}

// Eval returns the weight at normalised distance x: 1 at the centre, 0 at
// and beyond the rim. Constant stays 1 up to the rim.
func (f Falloff) Eval(x float64) float64 {
	if x >= 1 {
		return 0
	}
	x = max(x, 0)
	switch f {
	case FalloffSphere:
		return gomath.Sqrt(1 - x*x)
	case FalloffRoot:
		return 1 - gomath.Sqrt(x)
	case FalloffSharp:
		return (1 - x) * (1 - x)
	case FalloffLinear:
		return 1 - x
	case FalloffConstant:
		return 1
	default:
		// 3x² - 2x³ over 1-x
		y := 1 - x
		return y * y * (3 - 2*y)
	}
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}
