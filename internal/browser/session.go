// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vvprobe/internal/config"
	"github.com/xkilldash9x/vvprobe/internal/viewport"
)

// ErrSessionClosed is returned by operations on a session that has been closed.
var ErrSessionClosed = errors.New("browser session is closed")

const defaultNavigationTimeout = 60 * time.Second

// Session represents an open tab.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config

	onClose func()

	mu       sync.Mutex
	isClosed bool
}

// NewSession wraps a chromedp tab context. cancel must close the tab.
func NewSession(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *zap.Logger) *Session {
	sessionID := uuid.New().String()
	return &Session{
		id:     sessionID,
		ctx:    ctx,
		cancel: cancel,
		logger: logger.Named("session").With(zap.String("session_id", sessionID)),
		cfg:    cfg,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Emulate applies the device metrics, touch support and user agent.
func (s *Session) Emulate(ctx context.Context, dev config.DeviceConfig) error {
	if !dev.Enabled() {
		s.logger.Debug("No device override configured.")
		return nil
	}

	orientation := &emulation.ScreenOrientation{Type: emulation.OrientationTypePortraitPrimary, Angle: 0}
	if dev.Width > dev.Height {
		orientation = &emulation.ScreenOrientation{Type: emulation.OrientationTypeLandscapePrimary, Angle: 90}
	}
	scale := dev.DeviceScaleFactor
	if scale <= 0 {
		scale = 1
	}

	actions := chromedp.Tasks{
		emulation.SetDeviceMetricsOverride(dev.Width, dev.Height, scale, dev.Mobile).
			WithScreenWidth(dev.Width).
			WithScreenHeight(dev.Height).
			WithScreenOrientation(orientation),
	}
	if dev.Touch {
		actions = append(actions, emulation.SetTouchEmulationEnabled(true).WithMaxTouchPoints(5))
	}
	if dev.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(dev.UserAgent))
	}

	if err := s.runActions(ctx, actions); err != nil {
		return fmt.Errorf("failed to emulate device: %w", err)
	}
	s.logger.Debug("Device emulation applied.",
		zap.Int64("width", dev.Width),
		zap.Int64("height", dev.Height),
		zap.Float64("scale", scale),
		zap.Bool("mobile", dev.Mobile),
		zap.Bool("touch", dev.Touch))
	return nil
}

// Navigate loads url and waits for the body to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	timeout := defaultNavigationTimeout
	if s.cfg != nil && s.cfg.Browser.NavigationTimeout > 0 {
		timeout = s.cfg.Browser.NavigationTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Debug("Navigating.", zap.String("url", url), zap.Duration("timeout", timeout))
	if err := s.runActions(navCtx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// InjectLayoutProbe installs the layout viewport probe element in the current
// document and in every document loaded afterwards.
func (s *Session) InjectLayoutProbe(ctx context.Context) error {
	if err := s.InjectScriptPersistently(ctx, layoutProbeScript); err != nil {
		return err
	}
	if err := s.ExecuteScript(ctx, layoutProbeScript, nil); err != nil {
		return fmt.Errorf("failed to install layout probe: %w", err)
	}
	return nil
}

// Sample reads the page's geometry.
func (s *Session) Sample(ctx context.Context) (viewport.PlatformSnapshot, error) {
	var raw []byte
	if err := s.ExecuteScript(ctx, sampleScript, &raw); err != nil {
		return viewport.PlatformSnapshot{}, fmt.Errorf("failed to sample viewport: %w", err)
	}
	return DecodeSnapshot(raw)
}

// ApplyCustomProperties sets the --vv* properties on the document's root element.
func (s *Session) ApplyCustomProperties(ctx context.Context, props []viewport.Property) error {
	script, err := applyPropertiesScript(props)
	if err != nil {
		return err
	}
	if err := s.ExecuteScript(ctx, script, nil); err != nil {
		return fmt.Errorf("failed to apply custom properties: %w", err)
	}
	return nil
}

// Overscroll performs a touch scroll gesture from the center of the window.
// Positive dx and dy move the content toward the right and bottom edges, so a
// large dy on a short page rubber-bands past the bottom.
func (s *Session) Overscroll(ctx context.Context, dx, dy float64) error {
	var center struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := s.ExecuteScript(ctx, `({x: window.innerWidth / 2, y: window.innerHeight / 2})`, &center); err != nil {
		return fmt.Errorf("failed to locate gesture origin: %w", err)
	}

	gesture := input.SynthesizeScrollGesture(center.X, center.Y).
		WithXDistance(-dx).
		WithYDistance(-dy).
		WithGestureSourceType(input.GestureTouch).
		WithPreventFling(true).
		WithSpeed(800)
	if err := s.runActions(ctx, gesture); err != nil {
		return fmt.Errorf("failed to synthesize scroll gesture: %w", err)
	}
	s.logger.Debug("Overscroll gesture dispatched.", zap.Float64("dx", dx), zap.Float64("dy", dy))
	return nil
}

// Close closes the tab. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")
	if s.cancel != nil {
		s.cancel()
	}
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

func (s *Session) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isClosed
}

// runActions executes chromedp.Actions, ensuring they respect both the session lifetime (s.ctx)
// and the incoming request context (ctx).
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	if s.closed() {
		return ErrSessionClosed
	}
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}
