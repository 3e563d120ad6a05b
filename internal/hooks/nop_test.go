package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/morsel/types"
)

func TestNewNop(t *testing.T) {
	hooks := NewNop()

	require.NotNil(t, hooks.OnSessionStart)
	require.NotNil(t, hooks.OnSessionDone)
	require.NotNil(t, hooks.OnStateChanged)
	require.NotNil(t, hooks.OnError)
}

func TestNopHooks_OnSessionStart(t *testing.T) {
	hooks := NewNop()
	ctx := context.Background()

	err := hooks.OnSessionStart(ctx, types.SchemeGuided, 8, 1_000_000)
	require.NoError(t, err)
}

func TestNopHooks_OnSessionDone(t *testing.T) {
	hooks := NewNop()
	ctx := context.Background()

	stats := types.SessionStats{
		Scheme:  types.SchemeStatic,
		Workers: 4,
		Rows:    100,
		Chunks:  4,
		Claims:  4,
	}

	err := hooks.OnSessionDone(ctx, stats)
	require.NoError(t, err)
}

func TestNopHooks_OnStateChanged(t *testing.T) {
	hooks := NewNop()
	ctx := context.Background()

	err := hooks.OnStateChanged(ctx, types.StateIdle, types.StateRunning)
	require.NoError(t, err)
}

func TestNopHooks_OnError(t *testing.T) {
	hooks := NewNop()
	ctx := context.Background()

	testErr := context.Canceled
	err := hooks.OnError(ctx, testErr)
	require.NoError(t, err)
}
