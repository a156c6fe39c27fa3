// internal/viewport/report.go
package viewport

import "time"

// Report is the full geometry picture of a page at one instant.
type Report struct {
	CapturedAt time.Time `json:"capturedAt" yaml:"capturedAt"`
	// Visual is nil when no visual viewport reading was available.
	Visual         *Snapshot    `json:"visual" yaml:"visual"`
	Scroll         ScrollValues `json:"scroll" yaml:"scroll"`
	Body           Box          `json:"body" yaml:"body"`
	LayoutViewport *Box         `json:"layoutViewport" yaml:"layoutViewport"`
	ICB            Box          `json:"icb" yaml:"icb"`
	Window         WindowValues `json:"window" yaml:"window"`
	Screen         Box          `json:"screen" yaml:"screen"`
	Flags          Flags        `json:"flags" yaml:"flags"`
	MobileEngine   bool         `json:"mobileEngine" yaml:"mobileEngine"`
}

// BuildReport corrects the snapshot's visual viewport reading against its body
// box and gathers the remaining accessors alongside it.
func BuildReport(p PlatformSnapshot, flags Flags, mobile bool, at time.Time) Report {
	rep := Report{
		CapturedAt:   at,
		Scroll:       p.Scroll(),
		Body:         p.BodyValues(),
		ICB:          p.ICBValues(),
		Window:       p.WindowValues(),
		Screen:       p.ScreenValues(),
		Flags:        flags,
		MobileEngine: mobile,
	}
	if lv, ok := p.LayoutViewportValues(); ok {
		rep.LayoutViewport = &lv
	}
	if p.Visual != nil {
		snap := Compute(*p.Visual, p.Body, flags, p.Platform(mobile))
		rep.Visual = &snap
	}
	return rep
}
