// cmd/flags.go
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vvprobe/internal/browser"
	"github.com/xkilldash9x/vvprobe/internal/config"
	"github.com/xkilldash9x/vvprobe/internal/output"
	"github.com/xkilldash9x/vvprobe/internal/viewport"
)

var correctionFlagKeys = map[string]string{
	"clamp-offsets":      "correction.clamp_offsets",
	"resize-dimensions":  "correction.resize_dimensions",
	"mobile":             "correction.mobile_engine",
	"respect-capability": "correction.respect_capability",
}

var outputFlagKeys = map[string]string{
	"format": "output.format",
	"output": "output.path",
}

func addCorrectionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("clamp-offsets", false, "clamp page and offset coordinates to their scroll ranges")
	f.Bool("resize-dimensions", false, "shrink the viewport to the part overlapping the document")
	f.String("mobile", config.MobileEngineAuto, "mobile engine branch: auto, true or false")
	f.Lookup("mobile").NoOptDefVal = config.MobileEngineTrue
	f.Bool("respect-capability", true, "skip corrections on engines whose scroll positions ignore overscroll")
}

func addOutputFlags(cmd *cobra.Command) {
	names := make([]string, 0, len(output.Formats()))
	for _, f := range output.Formats() {
		names = append(names, string(f))
	}
	cmd.Flags().StringP("format", "f", string(output.FormatJSON), "report format: "+strings.Join(names, ", "))
	cmd.Flags().StringP("output", "o", "-", "report destination, - for stdout")
}

// mergeKeys joins flag/key maps.
func mergeKeys(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// openReporter opens the configured destination in the configured format.
func openReporter(cfg config.OutputConfig) (output.Reporter, error) {
	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	w, err := output.OpenDestination(cfg.Path)
	if err != nil {
		return nil, err
	}
	reporter, err := output.New(format, w)
	if err != nil {
		w.Close()
		return nil, err
	}
	return reporter, nil
}

// corrector turns platform snapshots into reports under one configuration.
type corrector struct {
	cfg    config.CorrectionConfig
	logger *zap.Logger
	now    func() time.Time

	gatedLogged   bool
	unknownWarned bool
}

func newCorrector(cfg config.CorrectionConfig, logger *zap.Logger) *corrector {
	return &corrector{cfg: cfg, logger: logger, now: time.Now}
}

// report resolves the mobile branch and effective flags for snap and builds its report.
func (c *corrector) report(snap viewport.PlatformSnapshot) viewport.Report {
	mobile := browser.ResolveMobile(c.cfg, snap.UserAgent)
	flags := browser.RequestedFlags(c.cfg)
	if c.cfg.RespectCapability {
		flags = c.gate(snap, flags)
	}
	return viewport.BuildReport(snap, flags, mobile, c.now())
}

// gate disables flags on engines recorded as not moving scroll positions on
// overscroll. An unrecorded capability leaves flags as requested.
func (c *corrector) gate(snap viewport.PlatformSnapshot, flags viewport.Flags) viewport.Flags {
	capable, known := snap.Capability()
	if !known {
		if !c.unknownWarned && (flags.ClampOffsets || flags.ResizeDimensions) {
			c.unknownWarned = true
			c.logger.Warn("Snapshot does not record overscrollUpdatesScroll; applying corrections ungated.")
		}
		return flags
	}
	flags, gated := browser.GateFlags(flags, capable)
	if gated && !c.gatedLogged {
		c.gatedLogged = true
		c.logger.Info("Engine does not move scroll positions on overscroll; corrections disabled.",
			zap.String("user_agent", snap.UserAgent))
	}
	return flags
}

func describeFlags(f viewport.Flags) string {
	return fmt.Sprintf("clamp_offsets=%t resize_dimensions=%t", f.ClampOffsets, f.ResizeDimensions)
}
