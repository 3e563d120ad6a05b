package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil error", nil, StatusSuccess},
		{"invalid config", ErrInvalidConfig, StatusParserError},
		{"wrapped config error", fmt.Errorf("load: %w", ErrUnknownScheme), StatusParserError},
		{"participants", ErrParticipants, StatusParserError},
		{"compilation pass", fmt.Errorf("vectorize: %w", ErrCompilationPass), StatusPassError},
		{"scheduling invariant", ErrSchedulingInvariant, StatusExecutionError},
		{"remote execution", fmt.Errorf("dispatch: %w", ErrRemoteExecution), StatusExecutionError},
		{"local processing", ErrLocalProcessing, StatusExecutionError},
		{"plain error", errors.New("boom"), StatusExecutionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, StatusFromError(tt.err))
			require.Equal(t, int(tt.want), StatusFromError(tt.err).ExitCode())
		})
	}
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Success", StatusSuccess.String())
	require.Equal(t, "ParserError", StatusParserError.String())
	require.Equal(t, "PassError", StatusPassError.String())
	require.Equal(t, "ExecutionError", StatusExecutionError.String())
	require.Equal(t, "Unknown", Status(42).String())
}

func TestConfigurationErrorsWrapInvalidConfig(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		ErrUnknownScheme,
		ErrUnknownQueueLayout,
		ErrUnknownVictimSelection,
		ErrUnknownBackend,
		ErrParticipants,
		ErrNoWorkerAddresses,
	} {
		require.ErrorIs(t, err, ErrInvalidConfig)
	}
}
