// internal/browser/platform.go
package browser

import (
	"strings"

	"github.com/xkilldash9x/vvprobe/internal/config"
	"github.com/xkilldash9x/vvprobe/internal/viewport"
)

// IsMobileEngine guesses from the user agent whether the page runs in a mobile
// WebKit, where the fixed viewport itself overscrolls. User agent sniffing is
// unreliable; callers resolve it once and pass the answer down.
func IsMobileEngine(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	return strings.Contains(ua, "ipad") || strings.Contains(ua, "iphone")
}

// ResolveMobile applies the configured override, falling back to the user agent.
func ResolveMobile(cfg config.CorrectionConfig, userAgent string) bool {
	if mobile, forced := cfg.MobileOverride(); forced {
		return mobile
	}
	return IsMobileEngine(userAgent)
}

// RequestedFlags maps the configuration onto correction flags.
func RequestedFlags(cfg config.CorrectionConfig) viewport.Flags {
	return viewport.Flags{
		ClampOffsets:     cfg.ClampOffsets,
		ResizeDimensions: cfg.ResizeDimensions,
	}
}

// GateFlags turns every correction off on engines that do not move their
// scroll positions during overscroll; their readings never need it. The second
// result reports whether anything was turned off.
func GateFlags(flags viewport.Flags, capable bool) (viewport.Flags, bool) {
	if capable || (!flags.ClampOffsets && !flags.ResizeDimensions) {
		return flags, false
	}
	return viewport.Flags{}, true
}
