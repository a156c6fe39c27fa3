// internal/viewport/snapshot.go
package viewport

import "math"

// Compute corrects a raw visual viewport reading against the document's
// content box.
//
// Page coordinates in the result are anchors for absolutely positioned
// elements (relative to the document); offset coordinates are anchors for
// fixed positioned elements (relative to the layout viewport). The two are
// corrected by different rules and must not be mixed.
//
// Compute has no side effects and accepts any numeric input. The caller
// guarantees raw.Scale > 0.
func Compute(raw Reading, content Box, flags Flags, platform Platform) Snapshot {
	r := raw

	if flags.ClampOffsets {
		r = clampOffsets(r, content, platform.Window)
	}
	if flags.ResizeDimensions {
		r = resizeDimensions(r, raw, content, platform.MobileEngine)
	}

	return Snapshot{
		Corrected: r,
		Original:  diff(raw, r),
	}
}

// clampOffsets keeps page coordinates inside the document's scroll range and
// offset coordinates inside the layout viewport.
func clampOffsets(r Reading, content, window Box) Reading {
	r.PageTop = Clamp(r.PageTop, 0, content.Height-r.Height)
	r.PageLeft = Clamp(r.PageLeft, 0, content.Width-r.Width)

	// window × scale lags behind the real layout viewport while pinch-zooming
	// and while browser chrome shows or hides.
	layoutHeight := window.Height * r.Scale
	layoutWidth := window.Width * r.Scale
	r.OffsetTop = Clamp(r.OffsetTop, 0, layoutHeight-r.Height)
	r.OffsetLeft = Clamp(r.OffsetLeft, 0, layoutWidth-r.Width)
	return r
}

// axis is one dimension of a reading: its size, page coordinate and offset.
type axis struct {
	size, page, offset *float64
}

func (r *Reading) horizontal() axis { return axis{&r.Width, &r.PageLeft, &r.OffsetLeft} }
func (r *Reading) vertical() axis   { return axis{&r.Height, &r.PageTop, &r.OffsetTop} }

// resizeDimensions trims the viewport to the part that overlaps the document
// and moves the fixed offsets by the trimmed amount.
func resizeDimensions(r, raw Reading, content Box, mobile bool) Reading {
	trailing(r.horizontal(), raw.Width, content.Width, r.Scale, mobile)
	trailing(r.vertical(), raw.Height, content.Height, r.Scale, mobile)
	leading(r.horizontal())
	leading(r.vertical())
	return r
}

// trailing handles overscroll past the right or bottom edge.
func trailing(a axis, rawSize, extent, scale float64, mobile bool) {
	if *a.size+*a.page <= extent {
		return
	}
	*a.size = extent - *a.page
	shrink := rawSize - *a.size

	if !mobile {
		// Desktop engines do not overscroll the fixed viewport; the amount adds up.
		*a.offset += shrink
		return
	}
	// Mobile engines report a negative fixed delta at scale 1.
	if scale == 1 {
		*a.offset -= shrink
	}
	if *a.offset < 0 {
		*a.offset = -*a.offset
	}
}

// leading handles overscroll past the left or top edge.
func leading(a axis) {
	if *a.page >= 0 {
		return
	}
	*a.size += *a.page
	*a.page = 0
	*a.offset = math.Abs(*a.offset)
}

// diff records the raw value of every field that differs after correction.
func diff(raw, corrected Reading) Original {
	var o Original
	o.Width = changed(raw.Width, corrected.Width)
	o.Height = changed(raw.Height, corrected.Height)
	o.OffsetTop = changed(raw.OffsetTop, corrected.OffsetTop)
	o.OffsetLeft = changed(raw.OffsetLeft, corrected.OffsetLeft)
	o.PageTop = changed(raw.PageTop, corrected.PageTop)
	o.PageLeft = changed(raw.PageLeft, corrected.PageLeft)
	return o
}

// changed treats NaN as equal to itself so an untouched NaN gets no twin.
func changed(before, after float64) *float64 {
	if before == after || (math.IsNaN(before) && math.IsNaN(after)) {
		return nil
	}
	v := before
	return &v
}

// Changed reports whether any correction altered the reading.
func (s Snapshot) Changed() bool {
	o := s.Original
	return o.Width != nil || o.Height != nil ||
		o.OffsetTop != nil || o.OffsetLeft != nil ||
		o.PageTop != nil || o.PageLeft != nil
}

// Fields flattens the snapshot into name/value pairs. A field's "Orig" twin
// follows it only when the field was corrected.
func (s Snapshot) Fields() []Field {
	c := s.Corrected
	o := s.Original
	fields := make([]Field, 0, 13)
	add := func(name string, v float64, orig *float64) {
		fields = append(fields, Field{Name: name, Value: v})
		if orig != nil {
			fields = append(fields, Field{Name: name + "Orig", Value: *orig})
		}
	}
	add("width", c.Width, o.Width)
	add("height", c.Height, o.Height)
	add("scale", c.Scale, nil)
	add("offsetTop", c.OffsetTop, o.OffsetTop)
	add("offsetLeft", c.OffsetLeft, o.OffsetLeft)
	add("pageLeft", c.PageLeft, o.PageLeft)
	add("pageTop", c.PageTop, o.PageTop)
	return fields
}
