// internal/viewport/types.go
package viewport

// Reading is a raw visual viewport measurement as reported by the platform.
// Offsets and page coordinates are not trusted: during overscroll they may be
// negative or extend past the document.
type Reading struct {
	Width      float64 `json:"width" yaml:"width"`
	Height     float64 `json:"height" yaml:"height"`
	Scale      float64 `json:"scale" yaml:"scale"`
	OffsetTop  float64 `json:"offsetTop" yaml:"offsetTop"`
	OffsetLeft float64 `json:"offsetLeft" yaml:"offsetLeft"`
	PageTop    float64 `json:"pageTop" yaml:"pageTop"`
	PageLeft   float64 `json:"pageLeft" yaml:"pageLeft"`
}

// Box is a width/height pair.
type Box struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Flags selects which corrections Compute applies. They are independent.
type Flags struct {
	// ClampOffsets bounds page and offset coordinates to their valid scroll ranges.
	ClampOffsets bool `json:"clampOffsets" yaml:"clampOffsets"`
	// ResizeDimensions shrinks the viewport to the part that overlaps the document.
	// Only meaningful on engines that let dimensions overscroll past the document edges.
	ResizeDimensions bool `json:"resizeDimensions" yaml:"resizeDimensions"`
}

// Platform carries the environment facts the corrections depend on.
type Platform struct {
	// MobileEngine selects the mobile branch of the fixed-offset correction.
	// It is a caller-resolved heuristic.
	MobileEngine bool `json:"mobileEngine" yaml:"mobileEngine"`
	// Window is the window's inner size. Multiplied by the scale it approximates
	// the layout viewport.
	Window Box `json:"window" yaml:"window"`
}

// Original records the pre-correction value of every field a correction changed.
// A nil field was left untouched.
type Original struct {
	Width      *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height     *float64 `json:"height,omitempty" yaml:"height,omitempty"`
	OffsetTop  *float64 `json:"offsetTop,omitempty" yaml:"offsetTop,omitempty"`
	OffsetLeft *float64 `json:"offsetLeft,omitempty" yaml:"offsetLeft,omitempty"`
	PageTop    *float64 `json:"pageTop,omitempty" yaml:"pageTop,omitempty"`
	PageLeft   *float64 `json:"pageLeft,omitempty" yaml:"pageLeft,omitempty"`
}

// Snapshot is the corrected view of a Reading.
type Snapshot struct {
	Corrected Reading  `json:"corrected" yaml:"corrected"`
	Original  Original `json:"original" yaml:"original"`
}

// Field is one entry of the flattened snapshot.
type Field struct {
	Name  string
	Value float64
}
