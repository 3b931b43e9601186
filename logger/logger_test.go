package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		want      zapcore.Level
	}{
		{"default is warn", 0, zapcore.WarnLevel},
		{"negative clamps to warn", -1, zapcore.WarnLevel},
		{"single v is info", 1, zapcore.InfoLevel},
		{"double v is debug", 2, zapcore.DebugLevel},
		{"beyond double stays debug", 5, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerbosityToLevel(tt.verbosity))
		})
	}
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "quiet", LevelName(0))
	assert.Equal(t, "info", LevelName(1))
	assert.Equal(t, "debug", LevelName(2))
	assert.Equal(t, "debug", LevelName(9))
}

func TestInitialize(t *testing.T) {
	defer func() {
		Logger = zap.NewNop().Sugar()
		JSONOutput = false
	}()

	require.NoError(t, Initialize(true))
	require.NotNil(t, Logger)
	assert.True(t, JSONOutput)

	require.NoError(t, Initialize(false))
	require.NotNil(t, Logger)
	assert.False(t, JSONOutput)
}

func TestInitializeWithVerbositySetsLevel(t *testing.T) {
	defer func() {
		Logger = zap.NewNop().Sugar()
		level.SetLevel(zap.InfoLevel)
	}()

	require.NoError(t, InitializeWithVerbosity(true, 0))
	assert.False(t, level.Enabled(zapcore.InfoLevel))
	assert.True(t, level.Enabled(zapcore.WarnLevel))

	require.NoError(t, InitializeWithVerbosity(true, 2))
	assert.True(t, level.Enabled(zapcore.DebugLevel))
}

func TestSetLevel(t *testing.T) {
	defer level.SetLevel(zap.InfoLevel)

	SetLevel(zapcore.ErrorLevel)
	assert.False(t, level.Enabled(zapcore.WarnLevel))
	assert.True(t, level.Enabled(zapcore.ErrorLevel))
}

func TestWrappersAreNilSafe(t *testing.T) {
	saved := Logger
	Logger = nil
	defer func() { Logger = saved }()

	assert.NotPanics(t, func() {
		Info("info")
		Infof("info %d", 1)
		Infow("info", "k", "v")
		Warn("warn")
		Warnf("warn %d", 1)
		Warnw("warn", "k", "v")
		Error("error")
		Errorf("error %d", 1)
		Errorw("error", "k", "v")
		Debug("debug")
		Debugf("debug %d", 1)
		Debugw("debug", "k", "v")
		Cleanup()
	})
}

func TestSetTheme(t *testing.T) {
	defer SetTheme("gruvbox")

	SetTheme("everforest")
	assert.Equal(t, everforest, activePalette)

	SetTheme("unknown")
	assert.Equal(t, gruvbox, activePalette)
}
