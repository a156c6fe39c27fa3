// internal/viewport/clamp.go
package viewport

import "math"

// Clamp bounds v to the closed interval [lo, hi].
//
// The lower bound is applied first, so an inverted interval (lo > hi) yields hi.
// This happens when the viewport is larger than the box it is clamped against.
func Clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
