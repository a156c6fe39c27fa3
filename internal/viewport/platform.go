// internal/viewport/platform.go
package viewport

import "math"

// WindowValues holds the window's inner and outer sizes.
type WindowValues struct {
	InnerWidth  float64 `json:"innerWidth" yaml:"innerWidth"`
	InnerHeight float64 `json:"innerHeight" yaml:"innerHeight"`
	OuterWidth  float64 `json:"outerWidth" yaml:"outerWidth"`
	OuterHeight float64 `json:"outerHeight" yaml:"outerHeight"`
}

// ScrollValues is the window scroll position and how far it overshoots the document.
type ScrollValues struct {
	ScrollX     float64 `json:"scrollX" yaml:"scrollX"`
	ScrollY     float64 `json:"scrollY" yaml:"scrollY"`
	OverScrollX float64 `json:"overScrollX" yaml:"overScrollX"`
	OverScrollY float64 `json:"overScrollY" yaml:"overScrollY"`
}

// PlatformSnapshot is everything read from the page in one pass. It is the only
// way window and document state reaches this package.
type PlatformSnapshot struct {
	// Visual is nil when the platform has no visual viewport reporting.
	Visual  *Reading     `json:"visual,omitempty" yaml:"visual,omitempty"`
	ScrollX float64      `json:"scrollX" yaml:"scrollX"`
	ScrollY float64      `json:"scrollY" yaml:"scrollY"`
	Window  WindowValues `json:"window" yaml:"window"`
	// Body is document.body's offset size, used as the content box.
	Body Box `json:"body" yaml:"body"`
	// ICB is the initial containing block, from documentElement's client size.
	ICB Box `json:"icb" yaml:"icb"`
	// LayoutViewport is measured from a fixed, full-size probe element. nil when
	// the page has none; window.innerHeight is not a substitute since it shrinks
	// during pull-to-refresh while the layout viewport does not.
	LayoutViewport *Box   `json:"layoutViewport,omitempty" yaml:"layoutViewport,omitempty"`
	Screen         Box    `json:"screen" yaml:"screen"`
	UserAgent      string `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	// OverscrollUpdatesScroll is true on engines whose scroll positions follow
	// rubber-band overscroll. nil when the capability was not recorded.
	OverscrollUpdatesScroll *bool `json:"overscrollUpdatesScroll,omitempty" yaml:"overscrollUpdatesScroll,omitempty"`
}

// Scroll returns the scroll position with the overscroll amount per axis.
// A negative scroll is itself the overscroll; otherwise it is whatever the
// window extends past the body.
func (p PlatformSnapshot) Scroll() ScrollValues {
	return ScrollValues{
		ScrollX:     p.ScrollX,
		ScrollY:     p.ScrollY,
		OverScrollX: overscroll(p.ScrollX, p.Window.InnerWidth, p.Body.Width),
		OverScrollY: overscroll(p.ScrollY, p.Window.InnerHeight, p.Body.Height),
	}
}

func overscroll(pos, inner, extent float64) float64 {
	if pos < 0 {
		return pos
	}
	return math.Max(0, pos+inner-extent)
}

func (p PlatformSnapshot) BodyValues() Box { return p.Body }

// Capability returns whether scroll positions follow overscroll and whether
// that was recorded at all.
func (p PlatformSnapshot) Capability() (updatesScroll, known bool) {
	if p.OverscrollUpdatesScroll == nil {
		return false, false
	}
	return *p.OverscrollUpdatesScroll, true
}

// LayoutViewportValues returns the measured layout viewport, if any.
func (p PlatformSnapshot) LayoutViewportValues() (Box, bool) {
	if p.LayoutViewport == nil {
		return Box{}, false
	}
	return *p.LayoutViewport, true
}

func (p PlatformSnapshot) ICBValues() Box { return p.ICB }

func (p PlatformSnapshot) WindowValues() WindowValues { return p.Window }

func (p PlatformSnapshot) ScreenValues() Box { return p.Screen }

// Platform builds the input Compute needs from this snapshot.
func (p PlatformSnapshot) Platform(mobile bool) Platform {
	return Platform{
		MobileEngine: mobile,
		Window:       Box{Width: p.Window.InnerWidth, Height: p.Window.InnerHeight},
	}
}
