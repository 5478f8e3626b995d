package diag

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// MsgData - represents msgData structure
type MsgData map[string]interface{}

// Logger - logger interface
type Logger interface {
	Error(ctx context.Context, msg string, args ...interface{})
	Warn(ctx context.Context, msg string, args ...interface{})
	Info(ctx context.Context, msg string, args ...interface{})
	Debug(ctx context.Context, msg string, args ...interface{})

	WithError(err error) Logger
	WithData(data MsgData) Logger
}

type logrusLogger struct {
	root  *logrus.Logger
	entry *logrus.Entry
}

func newLogrusLogger(out io.Writer) *logrusLogger {
	root := &logrus.Logger{
		Out:       out,
		Formatter: new(logrus.JSONFormatter),
		Hooks:     make(logrus.LevelHooks),
		Level:     logrus.DebugLevel,
	}
	return &logrusLogger{root: root, entry: logrus.NewEntry(root).WithField("v", 1)}
}

func (l *logrusLogger) derive(entry *logrus.Entry) *logrusLogger {
	return &logrusLogger{root: l.root, entry: entry}
}

func (l *logrusLogger) log(ctx context.Context, level logrus.Level, msg string, args ...interface{}) {
	if !l.root.IsLevelEnabled(level) {
		return
	}
	entry := l.entry
	if fields := contextFields(ctx); fields != nil {
		entry = entry.WithField("context", fields)
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	entry.Log(level, msg)
}

func (l *logrusLogger) WithError(err error) Logger {
	return l.derive(l.entry.WithError(err))
}

func (l *logrusLogger) WithData(data MsgData) Logger {
	return l.derive(l.entry.WithField("msgData", data))
}

func (l *logrusLogger) withTime(t time.Time) *logrusLogger {
	return l.derive(l.entry.WithTime(t))
}

func (l *logrusLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, logrus.ErrorLevel, msg, args...)
}

func (l *logrusLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, logrus.WarnLevel, msg, args...)
}

func (l *logrusLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, logrus.InfoLevel, msg, args...)
}

func (l *logrusLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, logrus.DebugLevel, msg, args...)
}

// LoggingSystemSetup - logging system setup interface
type LoggingSystemSetup interface {
	SetLogMode(string)
	SetLogLevel(string)
}

type loggingSystem struct {
	logger      *logrusLogger
	projectRoot string
}

/*
SetLogMode switches output. Possible values:
- json: json lines to stdout (default)
- text: human readable lines to stdout
- test: json lines appended to test.log in the project root
*/
func (s *loggingSystem) SetLogMode(mode string) {
	switch mode {
	case "json":
		s.logger.root.Formatter = new(logrus.JSONFormatter)
	case "text":
		s.logger.root.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	case "test":
		path := filepath.Join(s.projectRoot, "test.log")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
		if err != nil {
			panic(err)
		}
		s.logger.root.Out = file
	}
}

/*
SetLogLevel sets min level to output. Possible values:
- error
- warn
- info
- debug
*/
func (s *loggingSystem) SetLogLevel(level string) {
	logrusLevel, err := logrus.ParseLevel(level)
	if err != nil {
		panic(err)
	}
	s.logger.root.SetLevel(logrusLevel)
}

var defaultLoggingSystem loggingSystem

func init() {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("Can not get project root")
	}
	defaultLoggingSystem.projectRoot = filepath.Join(file, "..", "..", "..", "..")
	defaultLoggingSystem.logger = newLogrusLogger(os.Stdout)

	if testing.Testing() {
		defaultLoggingSystem.SetLogMode("test")
	} else {
		defaultLoggingSystem.SetLogMode("json")
	}
}

// SetupLoggingSystem initializes a root logger that is a base for all other loggers
// This method should be called just once during APP bootstrap
func SetupLoggingSystem(setup ...func(LoggingSystemSetup)) {
	for _, setupFn := range setup {
		setupFn(&defaultLoggingSystem)
	}
}

// CreateLogger will return logger derived from a root logger
// tagged with the package of a caller. Suitable for module wide loggers
func CreateLogger() Logger {
	pkgName := "unknown"
	if _, file, _, ok := runtime.Caller(1); ok {
		dir := filepath.Dir(file)
		if rel, err := filepath.Rel(defaultLoggingSystem.projectRoot, dir); err == nil {
			pkgName = rel
		} else {
			pkgName = dir
		}
	}
	root := defaultLoggingSystem.logger
	return root.derive(root.entry.WithField("package", pkgName))
}
