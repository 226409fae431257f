package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"emr-metadata-dashboard/internal/shared/contextkeys"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap/zapcore"
)

const (
	logFormatJSON = "json"

	envProduction = "production"
	envProd       = "prod"

	timestampFormat = "2006-01-02T15:04:05.000Z07:00"
	textTimestamp   = "2006-01-02 15:04:05"
)

// Logger defines the interface for structured logging operations.
//
// Besides plain values, the non-formatted methods accept zap fields
// (zap.String, zap.Error, ...). Those are lifted into structured fields
// instead of being printed as part of the message.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Fatal(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	WithFields(fields map[string]interface{}) Logger
	WithContext(ctx context.Context) Logger
	WithComponent(component string) Logger
}

// LogrusLogger implements the Logger interface using logrus
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogger creates a logger configured from LOG_LEVEL, LOG_FORMAT and ENVIRONMENT.
func NewLogger() Logger {
	return newLogrusLogger(os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")), formatterFor(os.Getenv("LOG_FORMAT"), os.Getenv("ENVIRONMENT")))
}

// NewLoggerWithConfig creates a logger with an explicit level and format.
func NewLoggerWithConfig(level string, format string) Logger {
	return newLogrusLogger(os.Stdout, ParseLevel(level), formatterFor(format, ""))
}

// NewLoggerWithWriter is used by tests to capture output.
func NewLoggerWithWriter(w io.Writer, level string, format string) Logger {
	return newLogrusLogger(w, ParseLevel(level), formatterFor(format, ""))
}

func newLogrusLogger(w io.Writer, level logrus.Level, formatter logrus.Formatter) *LogrusLogger {
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(formatter)
	l.SetOutput(w)
	return &LogrusLogger{entry: logrus.NewEntry(l)}
}

func (l *LogrusLogger) Debug(args ...interface{}) { l.log(logrus.DebugLevel, args) }
func (l *LogrusLogger) Info(args ...interface{})  { l.log(logrus.InfoLevel, args) }
func (l *LogrusLogger) Warn(args ...interface{})  { l.log(logrus.WarnLevel, args) }
func (l *LogrusLogger) Error(args ...interface{}) { l.log(logrus.ErrorLevel, args) }

// Fatal logs and exits the process.
func (l *LogrusLogger) Fatal(args ...interface{}) {
	entry, rest := l.split(args)
	entry.Fatal(rest...)
}

func (l *LogrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *LogrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *LogrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *LogrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *LogrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *LogrusLogger) log(level logrus.Level, args []interface{}) {
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}
	entry, rest := l.split(args)
	entry.Log(level, rest...)
}

// split separates zap fields from message arguments.
func (l *LogrusLogger) split(args []interface{}) (*logrus.Entry, []interface{}) {
	var enc *zapcore.MapObjectEncoder
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		f, ok := arg.(zapcore.Field)
		if !ok {
			rest = append(rest, arg)
			continue
		}
		if enc == nil {
			enc = zapcore.NewMapObjectEncoder()
		}
		f.AddTo(enc)
	}
	if enc == nil {
		return l.entry, rest
	}
	return l.entry.WithFields(logrus.Fields(enc.Fields)), rest
}

// WithFields adds structured fields to the logger
func (l *LogrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithContext copies request scoped identifiers from ctx into the log fields.
func (l *LogrusLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	fields := logrus.Fields{}
	for key, name := range contextFields {
		if val, ok := ctx.Value(key).(string); ok && val != "" {
			fields[name] = val
		}
	}
	return &LogrusLogger{entry: l.entry.WithFields(fields)}
}

var contextFields = map[interface{}]string{
	contextkeys.UserIDKey:         "user_id",
	contextkeys.OrganizationIDKey: "organization_id",
	contextkeys.ProjectIDKey:      "project_id",
	contextkeys.RequestIDKey:      "request_id",
	contextkeys.ComponentKey:      "component",
	contextkeys.OperationKey:      "operation",
}

// WithComponent adds component name to the logger
func (l *LogrusLogger) WithComponent(component string) Logger {
	return &LogrusLogger{entry: l.entry.WithField("component", component)}
}

// ParseLevel maps LOG_LEVEL style strings to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

func formatterFor(format, env string) logrus.Formatter {
	if format == logFormatJSON || env == envProduction || env == envProd {
		return &logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		}
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: textTimestamp,
	}
}

var defaultLogger = NewLogger()

// Default returns the process wide logger.
func Default() Logger {
	return defaultLogger
}

// WithComponent creates a component logger from the default logger.
func WithComponent(component string) Logger {
	return defaultLogger.WithComponent(component)
}
