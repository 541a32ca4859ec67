package metrics

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents a logging level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent // Disables all logging
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelSilent:
		return "SILENT"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel + 1 // above Fatal: suppresses everything
	}
}

// ParseLevel parses a level string.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "SILENT", "OFF", "NONE":
		return LevelSilent
	default:
		return LevelInfo
	}
}

// Fields represents structured log fields.
type Fields map[string]interface{}

func (f Fields) zapFields() []zap.Field {
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// Format specifies the log output encoding.
type Format int

const (
	FormatText Format = iota // human-readable console encoding
	FormatJSON               // JSON encoding for log aggregation
)

// Logger wraps a *zap.Logger, adapting this package's level/field
// API onto zap's structured core.
type Logger struct {
	zap   *zap.Logger
	level zap.AtomicLevel
	name  string
}

// LoggerOption configures a logger.
type LoggerOption func(*loggerConfig)

type loggerConfig struct {
	out    io.Writer
	level  Level
	format Format
	fields Fields
	name   string
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) LoggerOption {
	return func(c *loggerConfig) { c.out = w }
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(c *loggerConfig) { c.level = level }
}

// WithFormat sets the output encoding.
func WithFormat(format Format) LoggerOption {
	return func(c *loggerConfig) { c.format = format }
}

// WithFields sets default fields for all log entries.
func WithFields(fields Fields) LoggerOption {
	return func(c *loggerConfig) { c.fields = fields }
}

// WithName sets the logger name.
func WithName(name string) LoggerOption {
	return func(c *loggerConfig) { c.name = name }
}

// NewLogger creates a new logger with the given options, backed by zap.
func NewLogger(opts ...LoggerOption) *Logger {
	cfg := loggerConfig{
		out:    os.Stdout,
		level:  LevelInfo,
		format: FormatText,
		fields: make(Fields),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	atomicLevel := zap.NewAtomicLevelAt(cfg.level.zapLevel())

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if cfg.format == FormatJSON {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(cfg.out), atomicLevel)
	zl := zap.New(core)
	if cfg.name != "" {
		zl = zl.Named(cfg.name)
	}
	if len(cfg.fields) > 0 {
		zl = zl.With(cfg.fields.zapFields()...)
	}

	return &Logger{zap: zl, level: atomicLevel, name: cfg.name}
}

// With returns a new logger with additional fields attached.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{zap: l.zap.With(fields.zapFields()...), level: l.level, name: l.name}
}

// Named returns a new logger scoped under the given name.
func (l *Logger) Named(name string) *Logger {
	newName := name
	if l.name != "" {
		newName = l.name + "." + name
	}
	return &Logger{zap: l.zap.Named(name), level: l.level, name: newName}
}

// SetLevel changes the logging level.
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.zap.Debug(msg, mergeFields(fields).zapFields()...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Fields) {
	l.zap.Info(msg, mergeFields(fields).zapFields()...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.zap.Warn(msg, mergeFields(fields).zapFields()...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Fields) {
	l.zap.Error(msg, mergeFields(fields).zapFields()...)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

func mergeFields(extra []Fields) Fields {
	if len(extra) == 0 {
		return nil
	}
	if len(extra) == 1 {
		return extra[0]
	}
	merged := make(Fields)
	for _, f := range extra {
		for k, v := range f {
			merged[k] = v
		}
	}
	return merged
}

// --- Global Logger ---

var (
	globalLogger   *Logger
	globalLoggerMu sync.RWMutex
)

func init() {
	globalLogger = NewLogger()
}

// SetLogger sets the global logger.
func SetLogger(l *Logger) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	globalLogger = l
}

// GetLogger returns the global logger.
func GetLogger() *Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// Debug logs at debug level using the global logger.
func Debug(msg string, fields ...Fields) { GetLogger().Debug(msg, fields...) }

// Info logs at info level using the global logger.
func Info(msg string, fields ...Fields) { GetLogger().Info(msg, fields...) }

// Warn logs at warn level using the global logger.
func Warn(msg string, fields ...Fields) { GetLogger().Warn(msg, fields...) }

// Error logs at error level using the global logger.
func Error(msg string, fields ...Fields) { GetLogger().Error(msg, fields...) }

// --- Convenience constructors ---

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return NewLogger(WithLevel(LevelSilent))
}

// TestLogger returns a logger suitable for tests: debug level, console
// encoding, writing to w.
func TestLogger(w io.Writer) *Logger {
	return NewLogger(WithOutput(w), WithLevel(LevelDebug), WithFormat(FormatText))
}

// ProductionLogger returns a logger suitable for production: info level,
// JSON encoding, writing to w.
func ProductionLogger(w io.Writer) *Logger {
	return NewLogger(WithOutput(w), WithLevel(LevelInfo), WithFormat(FormatJSON))
}
