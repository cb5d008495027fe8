package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is usable before InitLogger; it then writes JSON to stderr.
var Logger = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	return l
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string
	LogDir     string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// InitLogger switches Logger to rotating files under LogDir plus stdout.
// Errors additionally go to error.log.
func InitLogger(config LogConfig) error {
	l := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if err := os.MkdirAll(config.LogDir, 0o755); err != nil {
		return err
	}

	allLogs := &lumberjack.Logger{
		Filename:   filepath.Join(config.LogDir, "app.log"),
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}
	errorLogs := &lumberjack.Logger{
		Filename:   filepath.Join(config.LogDir, "error.log"),
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}

	l.SetOutput(io.MultiWriter(os.Stdout, allLogs))
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	l.AddHook(&ErrorFileHook{errorWriter: errorLogs})

	Logger = l
	return nil
}

// ErrorFileHook copies error-and-worse entries to a separate writer.
type ErrorFileHook struct {
	errorWriter io.Writer
}

func (hook *ErrorFileHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	_, err = hook.errorWriter.Write([]byte(line))
	return err
}

func (hook *ErrorFileHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }
func Info(args ...interface{})                  { Logger.Info(args...) }
func Infof(format string, args ...interface{})  { Logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { Logger.Fatalf(format, args...) }

// WithFields creates an entry with fields
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithError creates an entry carrying err under the "error" key.
func WithError(err error) *logrus.Entry {
	return Logger.WithError(err)
}
