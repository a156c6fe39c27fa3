// internal/viewport/snapshot_test.go
package viewport

import (
	"math"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

var (
	doc         = Box{Width: 1000, Height: 2000}
	bothFlags   = Flags{ClampOffsets: true, ResizeDimensions: true}
	mobileScale = Platform{MobileEngine: true, Window: Box{Width: 400, Height: 800}}
	desktop     = Platform{MobileEngine: false, Window: Box{Width: 400, Height: 800}}
)

func TestCompute_NoFlags(t *testing.T) {
	raw := Reading{Width: 400, Height: 800, Scale: 1, PageLeft: -50, PageTop: 5000, OffsetTop: -20}

	snap := Compute(raw, doc, Flags{}, mobileScale)

	assert.Equal(t, raw, snap.Corrected, "no flag may alter the reading")
	assert.False(t, snap.Changed())

	t.Run("NaN fields are left untouched", func(t *testing.T) {
		raw := Reading{Width: 400, Height: 800, Scale: 1, PageTop: math.NaN(), OffsetLeft: math.NaN()}

		snap := Compute(raw, doc, Flags{}, desktop)

		assert.True(t, math.IsNaN(snap.Corrected.PageTop))
		assert.Nil(t, snap.Original.PageTop)
		assert.Nil(t, snap.Original.OffsetLeft)
		assert.False(t, snap.Changed())
		assert.Len(t, snap.Fields(), 7, "no Orig twins")
	})
}

func TestCompute_InRangeIsIdempotent(t *testing.T) {
	raw := Reading{Width: 400, Height: 800, Scale: 1, PageLeft: 300, PageTop: 1000, OffsetLeft: 0, OffsetTop: 0}

	for _, p := range []Platform{mobileScale, desktop} {
		snap := Compute(raw, doc, bothFlags, p)
		if diff := cmp.Diff(Snapshot{Corrected: raw}, snap); diff != "" {
			t.Errorf("in-range reading changed (-want +got):\n%s", diff)
		}
	}
}

func TestCompute_ClampOffsets(t *testing.T) {
	t.Run("page offset past the trailing edge", func(t *testing.T) {
		raw := Reading{Width: 400, Height: 800, Scale: 1, PageLeft: 900}

		snap := Compute(raw, Box{Width: 1000, Height: 2000}, Flags{ClampOffsets: true}, desktop)

		assert.Equal(t, 600.0, snap.Corrected.PageLeft)
		require.NotNil(t, snap.Original.PageLeft)
		assert.Equal(t, 900.0, *snap.Original.PageLeft)
		assert.Nil(t, snap.Original.PageTop, "untouched axis carries no twin")
	})

	t.Run("negative page offsets go to zero", func(t *testing.T) {
		raw := Reading{Width: 400, Height: 800, Scale: 1, PageLeft: -30, PageTop: -70}

		snap := Compute(raw, doc, Flags{ClampOffsets: true}, desktop)

		assert.Equal(t, 0.0, snap.Corrected.PageLeft)
		assert.Equal(t, 0.0, snap.Corrected.PageTop)
		assert.Equal(t, f64(-30), snap.Original.PageLeft)
		assert.Equal(t, f64(-70), snap.Original.PageTop)
	})

	t.Run("fixed offsets bounded by the scaled layout viewport", func(t *testing.T) {
		// Zoomed in 2x: the visual viewport is half the layout viewport.
		raw := Reading{Width: 200, Height: 400, Scale: 2, OffsetLeft: 900, OffsetTop: -15}
		p := Platform{Window: Box{Width: 400, Height: 800}}

		snap := Compute(raw, doc, Flags{ClampOffsets: true}, p)

		assert.Equal(t, 600.0, snap.Corrected.OffsetLeft, "400*2 - 200")
		assert.Equal(t, 0.0, snap.Corrected.OffsetTop)
		assert.Equal(t, f64(900), snap.Original.OffsetLeft)
		assert.Equal(t, f64(-15), snap.Original.OffsetTop)
	})

	t.Run("dimensions never change", func(t *testing.T) {
		raw := Reading{Width: 400, Height: 800, Scale: 1, PageLeft: 700, PageTop: -100}

		snap := Compute(raw, doc, Flags{ClampOffsets: true}, mobileScale)

		assert.Equal(t, 400.0, snap.Corrected.Width)
		assert.Equal(t, 800.0, snap.Corrected.Height)
		assert.Nil(t, snap.Original.Width)
		assert.Nil(t, snap.Original.Height)
	})
}

func TestCompute_ResizeTrailingEdge(t *testing.T) {
	raw := Reading{Width: 400, Height: 800, Scale: 1, PageLeft: 700}

	t.Run("mobile engine at scale 1 reflects the offset", func(t *testing.T) {
		snap := Compute(raw, doc, Flags{ResizeDimensions: true}, mobileScale)

		assert.Equal(t, 300.0, snap.Corrected.Width)
		assert.Equal(t, f64(400), snap.Original.Width)
		// 0 - (400 - 300) = -100, reflected.
		assert.Equal(t, 100.0, snap.Corrected.OffsetLeft)
		assert.Equal(t, f64(0), snap.Original.OffsetLeft)
		assert.Equal(t, 700.0, snap.Corrected.PageLeft)
		assert.Nil(t, snap.Original.PageLeft)
	})

	t.Run("mobile engine zoomed keeps the offset", func(t *testing.T) {
		zoomed := raw
		zoomed.Scale = 2
		zoomed.OffsetLeft = 35

		snap := Compute(zoomed, doc, Flags{ResizeDimensions: true}, mobileScale)

		assert.Equal(t, 300.0, snap.Corrected.Width)
		assert.Equal(t, 35.0, snap.Corrected.OffsetLeft)
		assert.Nil(t, snap.Original.OffsetLeft)
	})

	t.Run("mobile engine zoomed reflects a negative offset", func(t *testing.T) {
		zoomed := raw
		zoomed.Scale = 1.5
		zoomed.OffsetLeft = -12

		snap := Compute(zoomed, doc, Flags{ResizeDimensions: true}, mobileScale)

		assert.Equal(t, 12.0, snap.Corrected.OffsetLeft)
	})

	t.Run("desktop engine adds the overscroll", func(t *testing.T) {
		withOffset := raw
		withOffset.OffsetLeft = 10

		snap := Compute(withOffset, doc, Flags{ResizeDimensions: true}, desktop)

		assert.Equal(t, 300.0, snap.Corrected.Width)
		assert.Equal(t, 110.0, snap.Corrected.OffsetLeft)
	})

	t.Run("bottom edge", func(t *testing.T) {
		bottom := Reading{Width: 400, Height: 800, Scale: 1, PageTop: 1500, OffsetTop: 0}

		snap := Compute(bottom, doc, Flags{ResizeDimensions: true}, desktop)

		assert.Equal(t, 500.0, snap.Corrected.Height)
		assert.Equal(t, 300.0, snap.Corrected.OffsetTop)
		assert.Equal(t, f64(800), snap.Original.Height)
		assert.Nil(t, snap.Original.Width)
	})
}

func TestCompute_ResizeLeadingEdge(t *testing.T) {
	t.Run("left edge", func(t *testing.T) {
		raw := Reading{Width: 400, Height: 800, Scale: 1, PageLeft: -50, OffsetLeft: -50}

		snap := Compute(raw, doc, Flags{ResizeDimensions: true}, mobileScale)

		assert.Equal(t, 350.0, snap.Corrected.Width)
		assert.Equal(t, 0.0, snap.Corrected.PageLeft)
		assert.Equal(t, 50.0, snap.Corrected.OffsetLeft)
		assert.Equal(t, f64(400), snap.Original.Width)
		assert.Equal(t, f64(-50), snap.Original.PageLeft)
		assert.Equal(t, f64(-50), snap.Original.OffsetLeft)
	})

	t.Run("top edge with a positive offset keeps it", func(t *testing.T) {
		raw := Reading{Width: 400, Height: 800, Scale: 1, PageTop: -80, OffsetTop: 80}

		snap := Compute(raw, doc, Flags{ResizeDimensions: true}, desktop)

		assert.Equal(t, 720.0, snap.Corrected.Height)
		assert.Equal(t, 0.0, snap.Corrected.PageTop)
		assert.Equal(t, 80.0, snap.Corrected.OffsetTop)
		assert.Nil(t, snap.Original.OffsetTop)
	})
}

func TestCompute_BothEdgesOnOneAxis(t *testing.T) {
	// Viewport wider than the document and pulled past its left edge.
	raw := Reading{Width: 1200, Height: 800, Scale: 1, PageLeft: -100, OffsetLeft: 0}

	snap := Compute(raw, doc, Flags{ResizeDimensions: true}, desktop)

	// Trailing: width = 1000 - (-100) = 1100, offset += 100.
	// Leading: width = 1100 - 100 = 1000, page = 0, offset = |100|.
	assert.Equal(t, 1000.0, snap.Corrected.Width)
	assert.Equal(t, 0.0, snap.Corrected.PageLeft)
	assert.Equal(t, 100.0, snap.Corrected.OffsetLeft)
}

func TestCompute_ResizeSkipsPlainClamp(t *testing.T) {
	// In range for resizing but outside the layout viewport: only ClampOffsets fixes this.
	raw := Reading{Width: 400, Height: 800, Scale: 1, PageLeft: 100, OffsetLeft: 5000}

	snap := Compute(raw, doc, Flags{ResizeDimensions: true}, desktop)
	assert.Equal(t, 5000.0, snap.Corrected.OffsetLeft)
	assert.False(t, snap.Changed())

	snap = Compute(raw, doc, Flags{ClampOffsets: true}, desktop)
	assert.Equal(t, 0.0, snap.Corrected.OffsetLeft, "400*1 - 400")
}

func TestCompute_ClampFeedsResize(t *testing.T) {
	// Clamping first leaves nothing for the resize step to correct.
	raw := Reading{Width: 400, Height: 800, Scale: 1, PageLeft: 700}

	snap := Compute(raw, doc, bothFlags, mobileScale)

	assert.Equal(t, 600.0, snap.Corrected.PageLeft)
	assert.Equal(t, 400.0, snap.Corrected.Width)
	assert.Nil(t, snap.Original.Width)
	assert.Equal(t, f64(700), snap.Original.PageLeft, "twin holds the raw value, not an intermediate one")
}

func TestCompute_ScaleUntouched(t *testing.T) {
	raw := Reading{Width: 400, Height: 800, Scale: 1.75, PageLeft: -10, PageTop: 9000}

	snap := Compute(raw, doc, bothFlags, mobileScale)

	assert.Equal(t, 1.75, snap.Corrected.Scale)
	for _, f := range snap.Fields() {
		assert.NotEqual(t, "scaleOrig", f.Name)
	}
}

func TestSnapshot_Fields(t *testing.T) {
	raw := Reading{Width: 400, Height: 800, Scale: 1, PageLeft: 700}
	snap := Compute(raw, doc, Flags{ResizeDimensions: true}, mobileScale)

	want := []Field{
		{"width", 300},
		{"widthOrig", 400},
		{"height", 800},
		{"scale", 1},
		{"offsetTop", 0},
		{"offsetLeft", 100},
		{"offsetLeftOrig", 0},
		{"pageLeft", 700},
		{"pageTop", 0},
	}
	if diff := cmp.Diff(want, snap.Fields()); diff != "" {
		t.Errorf("Fields() mismatch (-want +got):\n%s", diff)
	}
}

// twinsMatchChanges checks that Orig twins exist exactly for changed fields.
func twinsMatchChanges(t *testing.T, raw Reading, snap Snapshot) {
	t.Helper()
	pairs := []struct {
		name     string
		raw, got float64
		orig     *float64
	}{
		{"width", raw.Width, snap.Corrected.Width, snap.Original.Width},
		{"height", raw.Height, snap.Corrected.Height, snap.Original.Height},
		{"offsetTop", raw.OffsetTop, snap.Corrected.OffsetTop, snap.Original.OffsetTop},
		{"offsetLeft", raw.OffsetLeft, snap.Corrected.OffsetLeft, snap.Original.OffsetLeft},
		{"pageTop", raw.PageTop, snap.Corrected.PageTop, snap.Original.PageTop},
		{"pageLeft", raw.PageLeft, snap.Corrected.PageLeft, snap.Original.PageLeft},
	}
	for _, p := range pairs {
		if p.raw == p.got {
			if p.orig != nil {
				t.Errorf("%s: unchanged but has twin %v", p.name, *p.orig)
			}
			continue
		}
		if p.orig == nil {
			t.Errorf("%s: changed %v -> %v without twin", p.name, p.raw, p.got)
			continue
		}
		if *p.orig != p.raw {
			t.Errorf("%s: twin %v, want raw %v", p.name, *p.orig, p.raw)
		}
	}
}

func FuzzCompute(f *testing.F) {
	f.Fuzz(func(t *testing.T, data []byte) {
		c := fuzz.NewConsumer(data)
		var raw Reading
		var content Box
		var flags Flags
		var platform Platform
		if err := c.GenerateStruct(&raw); err != nil {
			return
		}
		if err := c.GenerateStruct(&content); err != nil {
			return
		}
		if err := c.GenerateStruct(&flags); err != nil {
			return
		}
		if err := c.GenerateStruct(&platform); err != nil {
			return
		}
		for _, v := range []float64{raw.Width, raw.Height, raw.Scale, raw.OffsetTop, raw.OffsetLeft,
			raw.PageTop, raw.PageLeft, content.Width, content.Height, platform.Window.Width, platform.Window.Height} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return
			}
		}
		if raw.Scale <= 0 {
			return
		}

		snap := Compute(raw, content, flags, platform)

		assert.Equal(t, raw.Scale, snap.Corrected.Scale)
		if !flags.ResizeDimensions {
			assert.Equal(t, raw.Width, snap.Corrected.Width)
			assert.Equal(t, raw.Height, snap.Corrected.Height)
		}
		if !flags.ClampOffsets && !flags.ResizeDimensions {
			assert.False(t, snap.Changed())
		}
		twinsMatchChanges(t, raw, snap)
	})
}

func TestCompute_OrigTwinsTable(t *testing.T) {
	readings := []Reading{
		{Width: 400, Height: 800, Scale: 1},
		{Width: 400, Height: 800, Scale: 1, PageLeft: 700, PageTop: 1500},
		{Width: 400, Height: 800, Scale: 1, PageLeft: -50, PageTop: -60, OffsetLeft: -50, OffsetTop: -60},
		{Width: 1200, Height: 2400, Scale: 1, PageLeft: -10, PageTop: 10},
		{Width: 200, Height: 400, Scale: 2, PageLeft: 900, OffsetLeft: 300, OffsetTop: -3},
	}
	flagSets := []Flags{{}, {ClampOffsets: true}, {ResizeDimensions: true}, bothFlags}

	for _, raw := range readings {
		for _, flags := range flagSets {
			for _, p := range []Platform{mobileScale, desktop} {
				twinsMatchChanges(t, raw, Compute(raw, doc, flags, p))
			}
		}
	}
}
