package ops

import (
	"fmt"
	"strings"
)

// Interpolation selects how a LUT is sampled between grid points.
type Interpolation int

const (
	InterpDefault Interpolation = iota
	InterpNearest
	InterpLinear
	InterpTetrahedral
	InterpCubic
	InterpBest
	InterpUnknown
)

var interpNames = []struct {
	interp Interpolation
	name   string
}{
	{InterpDefault, "default"},
	{InterpNearest, "nearest"},
	{InterpLinear, "linear"},
	{InterpTetrahedral, "tetrahedral"},
	{InterpCubic, "cubic"},
	{InterpBest, "best"},
}

// String returns the lower-case attribute token for the interpolation.
func (i Interpolation) String() string {
	for _, n := range interpNames {
		if n.interp == i {
			return n.name
		}
	}
	return "unknown"
}

// ParseInterpolation converts an interpolation token, case-insensitively.
func ParseInterpolation(s string) (Interpolation, error) {
	s = strings.TrimSpace(s)
	for _, n := range interpNames {
		if strings.EqualFold(n.name, s) {
			return n.interp, nil
		}
	}
	return InterpUnknown, fmt.Errorf("unknown interpolation %q", s)
}

// Direction is the direction an operator is applied in.
type Direction int

const (
	Forward Direction = iota
	Inverse
)

// String returns "forward" or "inverse".
func (d Direction) String() string {
	if d == Inverse {
		return "inverse"
	}
	return "forward"
}

// Invert returns the opposite direction.
func (d Direction) Invert() Direction {
	if d == Inverse {
		return Forward
	}
	return Inverse
}

// Compose combines two directions: composing with Forward keeps the other
// direction and two inversions cancel.
func Compose(a, b Direction) Direction {
	if a == b {
		return Forward
	}
	return Inverse
}
