package auth

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ZapLogger adapts a zap logger to Logger. Arguments after the message
// are key/value pairs.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ Logger = ZapLogger{}

// NewZapLogger wraps l, a nil logger discards everything
func NewZapLogger(l *zap.Logger) ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return ZapLogger{sugar: l.Sugar()}
}

// Named returns a child logger
func (z ZapLogger) Named(name string) ZapLogger {
	return ZapLogger{sugar: z.sugar.Named(name)}
}

func (z ZapLogger) Debug(msg string, args ...any) {
	z.sugar.Debugw(msg, args...)
}

func (z ZapLogger) Info(msg string, args ...any) {
	z.sugar.Infow(msg, args...)
}

func (z ZapLogger) Warn(msg string, args ...any) {
	z.sugar.Warnw(msg, args...)
}

func (z ZapLogger) Error(msg string, args ...any) {
	z.sugar.Errorw(msg, args...)
}

// Sync flushes buffered entries
func (z ZapLogger) Sync() error {
	return z.sugar.Sync()
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return NewZapLogger(nil)
	}
	return l
}

// LoggerOptions configures BuildZapLogger
type LoggerOptions struct {
	// Level is one of debug, info, warn, error
	Level string
	// Format is json or console
	Format string
	// File, when set, also writes JSON lines to a rotated file
	File string
	// Output defaults to stdout
	Output io.Writer
}

// BuildZapLogger creates the process logger
func BuildZapLogger(opts LoggerOptions) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, err
		}
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var encoder zapcore.Encoder
	if opts.Format == "console" {
		consoleConfig := zap.NewDevelopmentEncoderConfig()
		consoleConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(consoleConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(out), level),
	}

	if opts.File != "" {
		fileSyncer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     7, // days
			Compress:   true,
		})
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, fileSyncer, level))
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zap.ErrorLevel),
	), nil
}
