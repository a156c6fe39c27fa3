// internal/browser/watch.go
package browser

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/vvprobe/internal/viewport"
)

// WatchOptions controls when a watching session samples the page.
type WatchOptions struct {
	// InitialDelay is the wait before the first sample, so values exist on load.
	InitialDelay time.Duration
	// AutoTick samples periodically in addition to events. Zero disables it.
	AutoTick time.Duration
	// NotifyRate caps event-driven samples per second. Zero means unlimited.
	NotifyRate float64
}

// Watch samples the page once after the initial delay, whenever the window or
// the visual viewport scrolls or resizes, and on every auto tick. It blocks
// until ctx is done, which is a normal stop and returns nil.
func (s *Session) Watch(ctx context.Context, opts WatchOptions, fn func(viewport.PlatformSnapshot)) error {
	notify := make(chan struct{}, 1)
	err := s.ExposeFunction(ctx, notifyBinding, func(string) {
		// Coalesce bursts; one pending notification is enough.
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	if err := s.InjectScriptPersistently(ctx, listenerScript); err != nil {
		return err
	}
	if err := s.ExecuteScript(ctx, listenerScript, nil); err != nil {
		return err
	}

	s.logger.Info("Watching viewport.",
		zap.Duration("initial_delay", opts.InitialDelay),
		zap.Duration("auto_tick", opts.AutoTick),
		zap.Float64("notify_rate", opts.NotifyRate))
	return watchLoop(ctx, opts, notify, s.Sample, fn, s.logger)
}

// watchLoop is the scheduling half of Watch.
func watchLoop(
	ctx context.Context,
	opts WatchOptions,
	notify <-chan struct{},
	sample func(context.Context) (viewport.PlatformSnapshot, error),
	fn func(viewport.PlatformSnapshot),
	logger *zap.Logger,
) error {
	limit := rate.Inf
	if opts.NotifyRate > 0 {
		limit = rate.Limit(opts.NotifyRate)
	}
	limiter := rate.NewLimiter(limit, 1)

	initial := time.NewTimer(opts.InitialDelay)
	defer initial.Stop()

	var tick <-chan time.Time
	if opts.AutoTick > 0 {
		ticker := time.NewTicker(opts.AutoTick)
		defer ticker.Stop()
		tick = ticker.C
	}

	update := func() error {
		snap, err := sample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrSessionClosed) {
				return err
			}
			logger.Warn("Sample failed, waiting for the next trigger.", zap.Error(err))
			return nil
		}
		fn(snap)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-initial.C:
			if err := update(); err != nil {
				return err
			}
		case <-tick:
			if err := update(); err != nil {
				return err
			}
		case <-notify:
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			if err := update(); err != nil {
				return err
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
