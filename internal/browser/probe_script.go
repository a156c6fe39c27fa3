// internal/browser/probe_script.go
package browser

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/vvprobe/internal/viewport"
)

// notifyBinding is the CDP binding the listener script calls on every
// scroll or resize of the window or the visual viewport.
const notifyBinding = "__vvprobe_notify"

// layoutProbeID identifies the fixed element used to measure the layout viewport.
const layoutProbeID = "layoutviewport"

// sampleScript reads every value the correction needs in one evaluation. The
// result shape matches viewport.PlatformSnapshot's JSON encoding.
const sampleScript = `(() => {
	const vv = window.visualViewport;
	const probe = document.getElementById('` + layoutProbeID + `');
	let layoutViewport = null;
	if (probe) {
		const rect = probe.getBoundingClientRect();
		layoutViewport = { width: rect.width, height: rect.height };
	}
	const body = document.body || document.documentElement;
	return {
		visual: vv ? {
			width: vv.width,
			height: vv.height,
			scale: vv.scale,
			offsetTop: vv.offsetTop,
			offsetLeft: vv.offsetLeft,
			pageTop: vv.pageTop,
			pageLeft: vv.pageLeft,
		} : null,
		scrollX: window.scrollX,
		scrollY: window.scrollY,
		window: {
			innerWidth: window.innerWidth,
			innerHeight: window.innerHeight,
			outerWidth: window.outerWidth,
			outerHeight: window.outerHeight,
		},
		body: { width: body.offsetWidth, height: body.offsetHeight },
		icb: {
			width: document.documentElement.clientWidth,
			height: document.documentElement.clientHeight,
		},
		layoutViewport: layoutViewport,
		screen: { width: screen.width, height: screen.height },
		userAgent: navigator.userAgent,
		overscrollUpdatesScroll: CSS.supports('selector(:nth-child(1 of x))'),
	};
})()`

// layoutProbeScript adds the fixed 100% x 100% element sampleScript measures.
// It is idempotent and waits for the body when run before it exists.
const layoutProbeScript = `(() => {
	const install = () => {
		if (document.getElementById('` + layoutProbeID + `')) return;
		const el = document.createElement('div');
		el.id = '` + layoutProbeID + `';
		el.setAttribute('aria-hidden', 'true');
		el.style.cssText = 'position:fixed;top:0;left:0;width:100%;height:100%;pointer-events:none;visibility:hidden;z-index:-1;';
		document.body.appendChild(el);
	};
	if (document.body) install();
	else document.addEventListener('DOMContentLoaded', install, { once: true });
})();`

// listenerScript forwards scroll and resize events to the notify binding.
const listenerScript = `(() => {
	if (window.__vvprobeListening) return;
	window.__vvprobeListening = true;
	const notify = (e) => {
		if (typeof window.` + notifyBinding + ` === 'function') window.` + notifyBinding + `(e.type);
	};
	window.addEventListener('scroll', notify, { passive: true });
	if (window.visualViewport) {
		window.visualViewport.addEventListener('scroll', notify, { passive: true });
		window.visualViewport.addEventListener('resize', notify, { passive: true });
	}
})();`

// applyPropertiesScript builds a script that sets custom properties on the root element.
func applyPropertiesScript(props []viewport.Property) (string, error) {
	payload, err := jsoniter.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to encode custom properties: %w", err)
	}
	var b strings.Builder
	b.WriteString("(() => {\n\tconst root = document.documentElement;\n\tfor (const p of ")
	b.Write(payload)
	b.WriteString(") root.style.setProperty(p.name, p.value);\n})();")
	return b.String(), nil
}

// DecodeSnapshot parses the JSON produced by the sample script.
func DecodeSnapshot(raw []byte) (viewport.PlatformSnapshot, error) {
	var snap viewport.PlatformSnapshot
	if len(raw) == 0 {
		return snap, fmt.Errorf("empty sample payload")
	}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("failed to decode sample payload: %w", err)
	}
	return snap, nil
}
