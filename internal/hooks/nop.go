package hooks

import (
	"context"

	"github.com/arloliu/morsel/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, types.Scheme, int, uint64) error = (*NopHooks)(nil).OnSessionStart
	_ func(context.Context, types.SessionStats) error        = (*NopHooks)(nil).OnSessionDone
	_ func(context.Context, types.State, types.State) error  = (*NopHooks)(nil).OnStateChanged
	_ func(context.Context, error) error                     = (*NopHooks)(nil).OnError
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnSessionStart: h.OnSessionStart,
		OnSessionDone:  h.OnSessionDone,
		OnStateChanged: h.OnStateChanged,
		OnError:        h.OnError,
	}
}

// OnSessionStart is a no-op implementation.
func (h *NopHooks) OnSessionStart(ctx context.Context, scheme types.Scheme, workers int, rows uint64) error {
	return nil
}

// OnSessionDone is a no-op implementation.
func (h *NopHooks) OnSessionDone(ctx context.Context, stats types.SessionStats) error {
	return nil
}

// OnStateChanged is a no-op implementation.
func (h *NopHooks) OnStateChanged(ctx context.Context, from, to types.State) error {
	return nil
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(ctx context.Context, err error) error {
	return nil
}
