// Package logging builds the zap loggers used by the commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a production logger writing JSON to stderr, so that stdout
// stays free for command output. The error field is keyed "err".
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	config.Sampling = nil
	return config.Build(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return errKey{c}
	}))
}

// NewNop returns a no-op logger.
func NewNop() *zap.Logger { return zap.NewNop() }

// errKey renames the "error" field written by zap.Error to "err".
type errKey struct{ zapcore.Core }

func (c errKey) With(fields []zapcore.Field) zapcore.Core {
	return errKey{c.Core.With(renameErr(fields))}
}

func (c errKey) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c errKey) Write(e zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(e, renameErr(fields))
}

func renameErr(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		if f.Key == "error" {
			f.Key = "err"
		}
		out[i] = f
	}
	return out
}
