// internal/browser/allocator.go
package browser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/vvprobe/internal/config"
)

// allocatorFlags computes the Chrome command line switches for cfg. Values are
// either bool (a bare switch) or string.
func allocatorFlags(cfg config.BrowserConfig) map[string]interface{} {
	flags := map[string]interface{}{
		"no-sandbox":               true,
		"disable-gpu":              true,
		"no-first-run":             true,
		"no-default-browser-check": true,
		"enable-automation":        true,
		"disable-dev-shm-usage":    true,
	}

	if cfg.Headless {
		flags["headless"] = true
		flags["hide-scrollbars"] = true
		flags["mute-audio"] = true
	}

	if cfg.DisableCache {
		flags["disk-cache-size"] = "0"
		flags["media-cache-size"] = "0"
		flags["disable-cache"] = true
	}

	if cfg.IgnoreTLSErrors {
		flags["ignore-certificate-errors"] = true
		flags["allow-insecure-localhost"] = true
	}

	width, height := cfg.Viewport["width"], cfg.Viewport["height"]
	if width > 0 && height > 0 {
		flags["window-size"] = fmt.Sprintf("%d,%d", width, height)
	}

	// Extra args accept both bare switches and key=value pairs, with or without dashes.
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if key == "" {
			continue
		}
		if found {
			flags[key] = value
		} else {
			flags[key] = true
		}
	}
	return flags
}

// DefaultAllocatorOptions builds the exec allocator options for a browser
// configured by cfg.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	flags := allocatorFlags(cfg)

	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make([]chromedp.ExecAllocatorOption, 0, len(keys)+1)
	for _, k := range keys {
		opts = append(opts, chromedp.Flag(k, flags[k]))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}
