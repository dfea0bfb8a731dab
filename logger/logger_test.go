package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "console output mode", jsonOutput: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			err := Initialize(tt.jsonOutput, 0)
			require.NoError(t, err)
			require.NotNil(t, Logger)
			require.Equal(t, tt.jsonOutput, JSONOutput)

			_ = Logger.Sync()
		})
	}
}

func TestInitialize_VerbosityRaisesLevel(t *testing.T) {
	Logger = nil
	require.NoError(t, Initialize(false, VerbosityDebug))
	require.True(t, Logger.Desugar().Core().Enabled(zapcore.DebugLevel))

	Logger = nil
	require.NoError(t, Initialize(false, VerbosityUser))
	require.False(t, Logger.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestPackageLevelWrappersNilSafe(t *testing.T) {
	Logger = nil
	require.NotPanics(t, func() {
		Info("no logger configured")
		Infof("count=%d", 3)
		Infow("message", FieldConnectionID, "abcd")
		Warn("warn")
		Error("err")
		Debug("debug")
	})
}

func TestFieldsFromContext(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithConnectionID(ctx, "conn-1")

	fields := FieldsFromContext(ctx)
	require.Contains(t, fields, FieldRequestID)
	require.Contains(t, fields, "req-1")
	require.Contains(t, fields, FieldConnectionID)
	require.Contains(t, fields, "conn-1")
}

func TestComponentLogger(t *testing.T) {
	require.NoError(t, Initialize(false, 0))
	child := ComponentLogger("gateway")
	require.NotNil(t, child)
}
