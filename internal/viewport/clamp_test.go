// internal/viewport/clamp_test.go
package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi float64
		expected  float64
	}{
		{"inside", 5, 0, 10, 5},
		{"below", -3, 0, 10, 0},
		{"above", 42, 0, 10, 10},
		{"on lower bound", 0, 0, 10, 0},
		{"on upper bound", 10, 0, 10, 10},
		{"degenerate interval", 7, 3, 3, 3},
		{"fractional", 0.5, 0.25, 0.75, 0.5},
		// Viewport larger than the document: the upper bound wins.
		{"inverted interval", 5, 0, -100, -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clamp(tt.v, tt.lo, tt.hi))
		})
	}
}

func FuzzClamp(f *testing.F) {
	f.Add(5.0, 0.0, 10.0)
	f.Add(-1.0, 0.0, 0.0)
	f.Add(1e9, -1e9, 1e9)

	f.Fuzz(func(t *testing.T, v, lo, hi float64) {
		if lo != lo || hi != hi || v != v || lo > hi {
			return // NaN or inverted bounds are outside the contract.
		}
		got := Clamp(v, lo, hi)
		if got < lo || got > hi {
			t.Fatalf("Clamp(%v, %v, %v) = %v, outside bounds", v, lo, hi, got)
		}
		if v >= lo && v <= hi && got != v {
			t.Fatalf("Clamp(%v, %v, %v) = %v, want the value unchanged", v, lo, hi, got)
		}
	})
}
