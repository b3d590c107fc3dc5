package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface used across weave. Implementations are safe for
// concurrent use; With* methods return derived loggers and leave the receiver untouched.
type Logger interface {
	// Clone returns a logger with its own output, level and formatter.
	Clone() Logger
	SetOptions(opts ...Option)
	WithOptions(opts ...Option) Logger

	Level() Level
	SetFormatter(formatter Formatter)

	WithField(key string, value any) Logger
	WithFields(fields Fields) Logger

	// WriterLevel returns a pipe whose lines are logged at level. The caller closes it.
	WriterLevel(level Level) *io.PipeWriter

	Logf(level Level, format string, args ...any)
	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	Trace(args ...any)
	Info(args ...any)
	Error(args ...any)
}

type logger struct {
	*logrus.Entry
}

// New returns a text logger configured by opts.
func New(opts ...Option) Logger {
	l := &logger{Entry: logrus.NewEntry(logrus.New())}
	l.SetFormatter(NewTextFormatter())
	l.SetOptions(opts...)

	return l
}

func (l *logger) Clone() Logger {
	return l.clone()
}

func (l *logger) SetOptions(opts ...Option) {
	for _, opt := range opts {
		opt(l)
	}
}

func (l *logger) WithOptions(opts ...Option) Logger {
	if len(opts) == 0 {
		return l
	}

	clone := l.clone()
	clone.SetOptions(opts...)

	return clone
}

func (l *logger) SetFormatter(formatter Formatter) {
	l.Logger.SetFormatter(&fromLogrusFormatter{Formatter: formatter})
}

func (l *logger) Level() Level {
	return FromLogrusLevel(l.Logger.GetLevel())
}

func (l *logger) WriterLevel(level Level) *io.PipeWriter {
	return l.Entry.WriterLevel(level.ToLogrusLevel())
}

func (l *logger) WithField(key string, value any) Logger {
	return l.WithFields(Fields{key: value})
}

func (l *logger) WithFields(fields Fields) Logger {
	return &logger{Entry: l.Entry.WithFields(logrus.Fields(fields))}
}

func (l *logger) Logf(level Level, format string, args ...any) {
	l.Entry.Logf(level.ToLogrusLevel(), format, args...)
}

func (l *logger) Tracef(format string, args ...any) { l.Logf(TraceLevel, format, args...) }
func (l *logger) Debugf(format string, args ...any) { l.Logf(DebugLevel, format, args...) }
func (l *logger) Infof(format string, args ...any)  { l.Logf(InfoLevel, format, args...) }
func (l *logger) Warnf(format string, args ...any)  { l.Logf(WarnLevel, format, args...) }
func (l *logger) Errorf(format string, args ...any) { l.Logf(ErrorLevel, format, args...) }

func (l *logger) Trace(args ...any) { l.Entry.Log(logrus.TraceLevel, args...) }
func (l *logger) Info(args ...any)  { l.Entry.Log(logrus.InfoLevel, args...) }
func (l *logger) Error(args ...any) { l.Entry.Log(logrus.ErrorLevel, args...) }

// clone copies the fields onto a fresh logrus.Logger so options set on the copy stay local.
func (l *logger) clone() *logger {
	parent := l.Logger

	base := logrus.New()
	base.SetOutput(parent.Out)
	base.SetLevel(parent.GetLevel())
	base.SetFormatter(parent.Formatter)
	base.ReplaceHooks(parent.Hooks)

	entry := l.Dup()
	entry.Logger = base

	return &logger{Entry: entry}
}
