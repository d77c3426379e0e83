// internal/browser/context.go
package browser

import (
	"context"
	"time"
)

// CombineContext derives a context from ctx1 that is canceled when either ctx1
// or ctx2 is canceled. chromedp stores the CDP connection in context values,
// so the session context must be the parent while the caller's context only
// contributes its deadline.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(ctx1)
	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}

// valueOnlyContext inherits values but ignores the parent's deadline and
// cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (valueOnlyContext) Done() <-chan struct{}       { return nil }
func (valueOnlyContext) Err() error                  { return nil }

// Detach returns a context carrying ctx's values (the CDP target) that
// survives ctx's cancellation, for cleanup work that must outlive a request.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
