// cmd/probe.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/vvprobe/internal/browser"
	"github.com/xkilldash9x/vvprobe/internal/config"
	"github.com/xkilldash9x/vvprobe/internal/observability"
	"github.com/xkilldash9x/vvprobe/internal/output"
	"github.com/xkilldash9x/vvprobe/internal/viewport"
)

// Prober is the browser surface the probe command drives.
type Prober interface {
	// Open prepares a tab on url: device emulation, navigation and the layout probe.
	Open(ctx context.Context, url string) error
	Sample(ctx context.Context) (viewport.PlatformSnapshot, error)
	Overscroll(ctx context.Context, dx, dy float64) error
	ApplyCustomProperties(ctx context.Context, props []viewport.Property) error
	Watch(ctx context.Context, opts browser.WatchOptions, fn func(viewport.PlatformSnapshot)) error
	Close(ctx context.Context) error
}

// ProberFactory creates a Prober for one probe run.
type ProberFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Prober, error)

// probeOptions are the run settings that have no config key.
type probeOptions struct {
	Watch       bool
	Duration    time.Duration
	OverscrollX float64
	OverscrollY float64
}

var probeFlagKeys = map[string]string{
	"samples":       "probe.samples",
	"interval":      "probe.interval",
	"initial-delay": "probe.initial_delay",
	"auto-tick":     "probe.auto_tick",
	"notify-rate":   "probe.notify_rate",
	"layout-probe":  "probe.layout_probe",
	"apply-css":     "probe.apply_css",
	"device-width":  "device.width",
	"device-height": "device.height",
	"device-scale":  "device.device_scale_factor",
	"device-mobile": "device.mobile",
	"touch":         "device.touch",
	"user-agent":    "device.user_agent",
	"headless":      "browser.headless",
	"exec-path":     "browser.exec_path",
}

// newProbeCmd creates the `probe` command.
func newProbeCmd(v *viper.Viper, factory ProberFactory) *cobra.Command {
	var opts probeOptions
	probeCmd := &cobra.Command{
		Use:   "probe <url>",
		Short: "Load a page in headless Chrome and report its corrected viewport",
		Example: `  vvprobe probe https://example.com --resize-dimensions --format text
  vvprobe probe https://example.com --overscroll-y 300 --clamp-offsets --resize-dimensions
  vvprobe probe https://example.com --watch --duration 30s --apply-css`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd.Flags(), mergeKeys(probeFlagKeys, correctionFlagKeys, outputFlagKeys))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return err
			}
			logger := observability.GetLogger().Named("probe")

			reporter, err := openReporter(cfg.Output)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			prober, err := factory(ctx, cfg, logger)
			if err != nil {
				reporter.Close()
				return fmt.Errorf("failed to start browser: %w", err)
			}

			runErr := runProbe(ctx, args[0], cfg, opts, prober, reporter, logger)

			cleanupCtx, cancel := context.WithTimeout(browser.Detach(ctx), 20*time.Second)
			defer cancel()
			if err := prober.Close(cleanupCtx); err != nil {
				logger.Warn("Failed to close browser cleanly.", zap.Error(err))
			}
			if err := reporter.Close(); err != nil && runErr == nil {
				runErr = fmt.Errorf("failed to finalize report: %w", err)
			}
			return runErr
		},
	}

	f := probeCmd.Flags()
	f.Int("samples", 1, "number of samples in one-shot mode")
	f.Duration("interval", 500*time.Millisecond, "delay between samples in one-shot mode")
	f.Duration("initial-delay", 100*time.Millisecond, "delay before the first sample in watch mode")
	f.Duration("auto-tick", 0, "periodic sampling in watch mode, 0 to sample on events only")
	f.Float64("notify-rate", 30, "maximum event-driven samples per second in watch mode, 0 for no limit")
	f.Bool("layout-probe", true, "inject a fixed element to measure the layout viewport")
	f.Bool("apply-css", false, "write the --vv* custom properties into the page")
	f.Int64("device-width", 390, "emulated viewport width, 0 to disable emulation")
	f.Int64("device-height", 844, "emulated viewport height, 0 to disable emulation")
	f.Float64("device-scale", 3, "emulated device scale factor")
	f.Bool("device-mobile", true, "emulate a mobile device")
	f.Bool("touch", true, "enable touch emulation")
	f.String("user-agent", "", "user agent override")
	f.Bool("headless", true, "run the browser headless")
	f.String("exec-path", "", "browser executable")
	f.BoolVar(&opts.Watch, "watch", false, "sample on every scroll or resize until interrupted")
	f.DurationVar(&opts.Duration, "duration", 0, "stop watching after this long, 0 for no limit")
	f.Float64Var(&opts.OverscrollX, "overscroll-x", 0, "horizontal scroll gesture in px before sampling")
	f.Float64Var(&opts.OverscrollY, "overscroll-y", 0, "vertical scroll gesture in px before sampling")
	addCorrectionFlags(probeCmd)
	addOutputFlags(probeCmd)
	return probeCmd
}

// runProbe samples the page and writes reports. The sampler and the writer run
// in one errgroup connected by a channel; either failing stops both.
func runProbe(
	ctx context.Context,
	url string,
	cfg *config.Config,
	opts probeOptions,
	prober Prober,
	reporter output.Reporter,
	logger *zap.Logger,
) error {
	if err := prober.Open(ctx, url); err != nil {
		return err
	}
	logger.Info("Page loaded.", zap.String("url", url))

	if opts.Watch && opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	snaps := make(chan viewport.PlatformSnapshot, 16)

	g.Go(func() error {
		defer close(snaps)
		if opts.OverscrollX != 0 || opts.OverscrollY != 0 {
			if err := prober.Overscroll(gctx, opts.OverscrollX, opts.OverscrollY); err != nil {
				return err
			}
		}
		if opts.Watch {
			return prober.Watch(gctx, browser.WatchOptions{
				InitialDelay: cfg.Probe.InitialDelay,
				AutoTick:     cfg.Probe.AutoTick,
				NotifyRate:   cfg.Probe.NotifyRate,
			}, func(s viewport.PlatformSnapshot) {
				select {
				case snaps <- s:
				case <-gctx.Done():
				}
			})
		}
		return sampleN(gctx, prober, cfg.Probe.Samples, cfg.Probe.Interval, snaps)
	})

	g.Go(func() error {
		c := newCorrector(cfg.Correction, logger)
		written := 0
		for snap := range snaps {
			report := c.report(snap)
			if cfg.Probe.ApplyCSS && report.Visual != nil {
				if err := prober.ApplyCustomProperties(gctx, viewport.CustomProperties(report.Visual.Corrected)); err != nil {
					logger.Warn("Failed to apply custom properties.", zap.Error(err))
				}
			}
			if err := reporter.Write(report); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			written++
		}
		logger.Info("Probe finished.", zap.Int("reports", written))
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	// A watch that ended by its own deadline is a success; an interrupt is not.
	if ctx.Err() != nil && !opts.Watch {
		return ctx.Err()
	}
	return nil
}

// sampleN takes n samples spaced by interval.
func sampleN(ctx context.Context, prober Prober, n int, interval time.Duration, out chan<- viewport.PlatformSnapshot) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		snap, err := prober.Sample(ctx)
		if err != nil {
			return err
		}
		select {
		case out <- snap:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// browserProber is the chromedp-backed Prober.
type browserProber struct {
	*browser.Session
	manager *browser.Manager
	cfg     *config.Config
	logger  *zap.Logger
}

func newBrowserProber(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Prober, error) {
	manager, err := browser.NewManager(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &browserProber{manager: manager, cfg: cfg, logger: logger}, nil
}

func (p *browserProber) Open(ctx context.Context, url string) error {
	session, err := p.manager.NewSession(ctx)
	if err != nil {
		return err
	}
	p.Session = session

	if err := session.Emulate(ctx, p.cfg.Device); err != nil {
		return err
	}
	if err := session.Navigate(ctx, url); err != nil {
		return err
	}
	if p.cfg.Probe.LayoutProbe {
		if err := session.InjectLayoutProbe(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *browserProber) Close(ctx context.Context) error {
	if p.Session != nil {
		if err := p.Session.Close(ctx); err != nil {
			p.logger.Warn("Failed to close session.", zap.Error(err))
		}
	}
	return p.manager.Shutdown(ctx)
}
