// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vvprobe/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager handles the browser process lifecycle and session creation.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	allocCtx    context.Context
	allocCancel context.CancelFunc

	// browserCtx owns the first tab; chromedp starts the process on first use.
	browserCtx    context.Context
	browserCancel context.CancelFunc

	sessions map[string]*Session
	mu       sync.RWMutex
	wg       sync.WaitGroup // Tracks open sessions so Shutdown can wait for them.

	initOnce sync.Once
	initErr  error
}

// NewManager creates a new browser manager. The browser process is launched
// lazily when the first session is requested.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("browser manager requires a configuration")
	}

	// The allocator outlives request contexts; only Shutdown ends it.
	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), DefaultAllocatorOptions(cfg.Browser)...)

	m := &Manager{
		logger:      logger.Named("browser_manager"),
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		sessions:    make(map[string]*Session),
	}
	m.logger.Info("Browser manager created (launch deferred).",
		zap.Bool("headless", cfg.Browser.Headless),
		zap.String("exec_path", cfg.Browser.ExecPath))
	return m, nil
}

// initialize launches the browser process.
func (m *Manager) initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.logger.Info("Launching browser...")
		browserCtx, browserCancel := chromedp.NewContext(m.allocCtx,
			chromedp.WithLogf(m.logger.Sugar().Debugf),
			chromedp.WithErrorf(m.logger.Sugar().Errorf),
		)

		if err := startTarget(ctx, browserCtx, browserCancel); err != nil {
			m.initErr = fmt.Errorf("failed to launch browser instance: %w", err)
			return
		}

		m.browserCtx = browserCtx
		m.browserCancel = browserCancel
		m.logger.Info("Browser launched.")
	})
	return m.initErr
}

// NewSession opens a new tab and wraps it in a Session.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(m.browserCtx)
	session := NewSession(tabCtx, tabCancel, m.cfg, m.logger)

	m.wg.Add(1)
	session.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, session.ID())
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", session.ID()))
	}

	// Attach to the target now so failures surface here rather than on first use.
	if err := startTarget(ctx, tabCtx, tabCancel); err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = session.Close(cleanupCtx)
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Info("New session created.", zap.String("session_id", session.ID()))
	return session, nil
}

// startTarget performs the first Run on a chromedp context. chromedp binds the
// browser or tab lifetime to the context of that first Run, so it must be the
// context returned by NewContext itself. Cancellation of ctx during the start
// is honored by tearing the target down.
func startTarget(ctx, target context.Context, cancel context.CancelFunc) error {
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(target); err != nil {
		cancel()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if ctx.Err() != nil {
		cancel()
		return ctx.Err()
	}
	return nil
}

// Shutdown gracefully closes all sessions and the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager.")
	defer m.allocCancel()

	if m.browserCtx == nil {
		m.logger.Info("Browser never launched, skipping session cleanup.")
		return nil
	}

	m.mu.RLock()
	sessionsToClose := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessionsToClose = append(sessionsToClose, s)
	}
	m.mu.RUnlock()

	for _, s := range sessionsToClose {
		go func(s *Session) {
			if err := s.Close(ctx); err != nil {
				m.logger.Warn("Error during session close in shutdown.", zap.String("session_id", s.ID()), zap.Error(err))
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		m.logger.Debug("All sessions closed.")
	case <-ctx.Done():
		err = fmt.Errorf("shutdown interrupted while waiting for sessions: %w", ctx.Err())
	case <-time.After(shutdownGracePeriod):
		m.logger.Warn("Timed out waiting for sessions to close.", zap.Duration("grace_period", shutdownGracePeriod))
	}

	// Closing the first tab asks chromedp to terminate the browser process.
	m.browserCancel()
	m.logger.Info("Browser manager shut down.")
	return err
}
