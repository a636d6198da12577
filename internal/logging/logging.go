// Package logging builds the logrus logger shared by the server, the replay
// command and capture sessions. Output always goes to stderr, since stdout
// carries the MCP protocol, and can additionally be teed to a rotating file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SessionIDKey is the field carrying the capture session id.
const SessionIDKey = "session_id"

// Fields aliases logrus.Fields so callers need not import logrus for it.
type Fields = logrus.Fields

// Options configures New.
type Options struct {
	// Level is a logrus level name; empty means info.
	Level string

	// File, when set, receives a copy of every entry, rotated by size.
	File string

	// Output replaces stderr, mainly for tests.
	Output io.Writer

	// NoColors disables ANSI colors in the formatter.
	NoColors bool

	// ReportCaller adds file:line and function to every entry.
	ReportCaller bool
}

// New creates a logger from opts.
func New(opts Options) (*logrus.Logger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = lvl
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColors,
		TimestampFormat: "02 Jan 06 - 15:04:05.000",
		HideKeys:        false,
		CallerFirst:     true,
		FieldsOrder:     []string{SessionIDKey, "component"},
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})

	var out io.Writer = os.Stderr
	if opts.Output != nil {
		out = opts.Output
	}
	writers := []io.Writer{out}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}
	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetReportCaller(opts.ReportCaller)

	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// WithSession tags entries with a capture session id.
func WithSession(l logrus.FieldLogger, sessionID string) *logrus.Entry {
	return l.WithField(SessionIDKey, sessionID)
}

// WithComponent tags entries with the emitting component.
func WithComponent(l logrus.FieldLogger, component string) *logrus.Entry {
	return l.WithField("component", component)
}
