// internal/browser/bindings.go
package browser

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ExposeFunction makes fn callable from page JavaScript as window[name](payload).
// The binding survives navigations. fn runs on chromedp's event goroutine and
// must not block.
func (s *Session) ExposeFunction(ctx context.Context, name string, fn func(payload string)) error {
	if fn == nil {
		return fmt.Errorf("nil implementation for binding '%s'", name)
	}
	if err := s.runActions(ctx, runtime.AddBinding(name)); err != nil {
		return fmt.Errorf("failed to add binding '%s': %w", name, err)
	}

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		called, ok := ev.(*runtime.EventBindingCalled)
		if !ok || called.Name != name {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Panic during exposed function call.",
					zap.String("name", name),
					zap.Any("panic_reason", r),
					zap.String("stack", string(debug.Stack())))
			}
		}()
		fn(called.Payload)
	})
	return nil
}

// InjectScriptPersistently adds a script that will be executed on all new documents in the session.
func (s *Session) InjectScriptPersistently(ctx context.Context, script string) error {
	var scriptID page.ScriptIdentifier
	err := s.runActions(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		scriptID, err = page.AddScriptToEvaluateOnNewDocument(script).Do(c)
		return err
	}))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("could not inject persistent script: %w", err)
	}
	s.logger.Debug("Injected persistent script.", zap.String("scriptID", string(scriptID)))
	return nil
}

// ExecuteScript evaluates a JavaScript expression in the current document and
// optionally unmarshals the result into res. A *[]byte res receives the raw JSON.
func (s *Session) ExecuteScript(ctx context.Context, script string, res interface{}) error {
	return s.runActions(ctx, chromedp.Evaluate(script, res))
}
