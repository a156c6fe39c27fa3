// internal/browser/context.go
package browser

import (
	"context"
	"time"
)

// CombineContext derives a context from primary that is also canceled when
// secondary is done. Values (including the chromedp target) come from primary
// only, so primary must be the session context and secondary the caller's
// operational context.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	stop := context.AfterFunc(secondary, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}

// valueOnlyContext keeps the parent's values but drops its deadline and cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// Detach returns a context carrying ctx's values that is never canceled. Cleanup
// work that must outlive a canceled request uses it.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
