package logger

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// palette holds the ANSI colors for console output. Themes are selected via
// SetTheme before Initialize; the default is gruvbox.
type palette struct {
	dim   string // timestamps, structured keys
	debug string
	info  string
	warn  string
	err   string
}

const ansiReset = "\x1b[0m"

func rgb(r, g, b int) string {
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
}

var (
	gruvbox = palette{
		dim:   rgb(146, 131, 116),
		debug: rgb(131, 165, 152),
		info:  rgb(142, 192, 124),
		warn:  rgb(250, 189, 47),
		err:   rgb(251, 73, 52),
	}
	everforest = palette{
		dim:   rgb(133, 146, 137),
		debug: rgb(127, 187, 179),
		info:  rgb(167, 192, 128),
		warn:  rgb(219, 188, 127),
		err:   rgb(230, 126, 128),
	}

	activePalette = gruvbox
)

// SetTheme selects the console color palette. Call before Initialize.
func SetTheme(name string) {
	switch strings.ToLower(name) {
	case "everforest":
		activePalette = everforest
	default:
		activePalette = gruvbox
	}
}

func levelGlyph(l zapcore.Level) (glyph, color string) {
	switch l {
	case zapcore.DebugLevel:
		return "›", activePalette.debug
	case zapcore.WarnLevel:
		return "!", activePalette.warn
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return "✗", activePalette.err
	default:
		return "·", activePalette.info
	}
}

// newMinimalEncoder builds the console encoder: a dim clock, a colored level
// glyph, then the message and any structured fields.
func newMinimalEncoder() zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "T",
		LevelKey:         "L",
		MessageKey:       "M",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(activePalette.dim + t.Format("15:04:05") + ansiReset)
		},
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			glyph, color := levelGlyph(l)
			enc.AppendString(color + glyph + ansiReset)
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	return zapcore.NewConsoleEncoder(cfg)
}
