package log

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/weavebuild/weave/internal/errors"
)

// Level orders log entries from most to least severe.
type Level uint32

const (
	ErrorLevel Level = iota
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

// AllLevels lists the levels from the most severe.
var AllLevels = Levels{ErrorLevel, WarnLevel, InfoLevel, DebugLevel, TraceLevel}

type levelInfo struct {
	name      string
	shortName string
	logrus    logrus.Level
}

var levels = map[Level]levelInfo{
	ErrorLevel: {"error", "err", logrus.ErrorLevel},
	WarnLevel:  {"warn", "wrn", logrus.WarnLevel},
	InfoLevel:  {"info", "inf", logrus.InfoLevel},
	DebugLevel: {"debug", "deb", logrus.DebugLevel},
	TraceLevel: {"trace", "trc", logrus.TraceLevel},
}

// ParseLevel is case-insensitive.
func ParseLevel(str string) (Level, error) {
	for _, level := range AllLevels {
		if strings.EqualFold(levels[level].name, str) {
			return level, nil
		}
	}

	return 0, errors.Errorf("invalid level %q, supported levels: %s", str, AllLevels)
}

func (level Level) String() string {
	return levels[level].name
}

// ShortName is the three letter form used by the text formatter.
func (level Level) ShortName() string {
	return levels[level].shortName
}

func (level Level) ToLogrusLevel() logrus.Level {
	if info, ok := levels[level]; ok {
		return info.logrus
	}

	return logrus.InfoLevel
}

// FromLogrusLevel maps panic and fatal to ErrorLevel.
func FromLogrusLevel(lvl logrus.Level) Level {
	for _, level := range AllLevels {
		if levels[level].logrus == lvl {
			return level
		}
	}

	if lvl < logrus.ErrorLevel {
		return ErrorLevel
	}

	return InfoLevel
}

type Levels []Level

func (lvls Levels) String() string {
	names := make([]string, len(lvls))
	for i, level := range lvls {
		names[i] = level.String()
	}

	return strings.Join(names, ", ")
}
