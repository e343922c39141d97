package proto

import (
	"fmt"
	"math"
)

// Vector lengths used on the wire.
const (
	Vec3Len  = 3 // pos, rot, scale
	ColorLen = 4 // r, g, b, a
)

// ValidateVector checks that v has exactly n finite components. A nil vector
// is valid and means the field is left unset.
func ValidateVector(name string, v []float64, n int) error {
	if v == nil {
		return nil
	}
	if len(v) != n {
		return fmt.Errorf("%s must have exactly %d values, got %d", name, n, len(v))
	}
	for i, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%s[%d] is not a finite number", name, i)
		}
	}
	return nil
}

// ValidateRange checks an optional scalar against an inclusive range.
func ValidateRange(name string, v *float64, min, max float64) error {
	if v == nil {
		return nil
	}
	if *v < min || *v > max {
		return fmt.Errorf("%s must be between %g and %g, got %g", name, min, max, *v)
	}
	return nil
}
