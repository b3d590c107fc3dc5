package log

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mgutz/ansi"
	"github.com/sirupsen/logrus"

	"github.com/weavebuild/weave/internal/errors"
)

const (
	TextFormat = "text"
	JSONFormat = "json"

	timestampFormat = "15:04:05.000"
)

var levelColors = map[Level]string{
	ErrorLevel: "red",
	WarnLevel:  "yellow",
	InfoLevel:  "green",
	DebugLevel: "blue+h",
	TraceLevel: "white",
}

// Formatter is used to implement a custom Formatter.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Entry is the final logging entry.
type Entry struct {
	*logrus.Entry
	Level  Level
	Fields Fields
}

// fromLogrusFormatter converts call from logrus.Formatter interface to our log.Formatter interface.
type fromLogrusFormatter struct {
	Formatter
}

func (f *fromLogrusFormatter) Format(parent *logrus.Entry) ([]byte, error) {
	entry := &Entry{
		Entry:  parent,
		Level:  FromLogrusLevel(parent.Level),
		Fields: Fields(parent.Data),
	}

	return f.Formatter.Format(entry)
}

// ParseFormat returns the formatter for the given format name.
func ParseFormat(name string, disableColors bool) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", TextFormat:
		formatter := NewTextFormatter()
		formatter.DisableColors = disableColors

		return formatter, nil
	case JSONFormat:
		return NewJSONFormatter(), nil
	}

	return nil, errors.Errorf("invalid log format %q, supported formats: %s, %s", name, TextFormat, JSONFormat)
}

// TextFormatter prints `time level [field=value ...] msg` lines.
type TextFormatter struct {
	DisableColors    bool
	DisableTimestamp bool
}

func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format implements Formatter.
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	buf := entry.Buffer
	if buf == nil {
		buf = new(bytes.Buffer)
	}

	if !f.DisableTimestamp {
		buf.WriteString(f.colorize("black+h", entry.Time.Format(timestampFormat)))
		buf.WriteByte(' ')
	}

	level := strings.ToUpper(entry.Level.ShortName())
	buf.WriteString(f.colorize(levelColors[entry.Level], level))
	buf.WriteByte(' ')

	for _, key := range entry.Fields.Keys() {
		fmt.Fprintf(buf, "[%s=%v] ", key, entry.Fields[key])
	}

	buf.WriteString(entry.Message)
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func (f *TextFormatter) colorize(style, str string) string {
	if f.DisableColors || style == "" {
		return str
	}

	return ansi.Color(str, style)
}

// JSONFormatter prints each entry as a single JSON object.
type JSONFormatter struct {
	inner *logrus.JSONFormatter
}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{
		inner: &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano},
	}
}

// Format implements Formatter.
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(Fields, len(entry.Fields))
	for key, val := range entry.Fields {
		data[key] = val
	}

	data.fixKeyClashes()

	clone := *entry.Entry
	clone.Data = logrus.Fields(data)

	return f.inner.Format(&clone)
}
