package platform

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotAvailable     = errors.New("platform not available")
	ErrBootstrapTimeout = errors.New("platform failed to load")
	ErrMissingBackend   = errors.New("backend not configured")
)

type callErrorsKey struct{}

// CallErrors collects the errors of the facade calls made with one context.
// Err on the client is shared by every caller; CallErrors is not.
type CallErrors struct {
	mu   sync.Mutex
	errs []error
}

// WithCallErrors returns a context whose facade failures are also recorded
// in the returned collector.
func WithCallErrors(ctx context.Context) (context.Context, *CallErrors) {
	calls := &CallErrors{}
	return context.WithValue(ctx, callErrorsKey{}, calls), calls
}

// CallErrorsFrom returns the collector attached to ctx, if any.
func CallErrorsFrom(ctx context.Context) *CallErrors {
	calls, _ := ctx.Value(callErrorsKey{}).(*CallErrors)
	return calls
}

func (e *CallErrors) add(err error) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

// Last returns the most recent error, or nil.
func (e *CallErrors) Last() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.errs) == 0 {
		return nil
	}
	return e.errs[len(e.errs)-1]
}
