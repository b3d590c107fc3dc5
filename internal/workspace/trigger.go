package workspace

import (
	"strings"

	"github.com/weavebuild/weave/internal/errors"
)

// Trigger is the kind of build being requested.
type Trigger uint8

const (
	FullBuild Trigger = 1 << iota
	IncrementalBuild
	AutoBuild
	CleanBuild
)

var triggerNames = map[Trigger]string{
	FullBuild:        "full",
	IncrementalBuild: "incremental",
	AutoBuild:        "auto",
	CleanBuild:       "clean",
}

// AllTriggers lists the triggers in a stable order.
var AllTriggers = []Trigger{FullBuild, IncrementalBuild, AutoBuild, CleanBuild}

func (trigger Trigger) String() string {
	if name, ok := triggerNames[trigger]; ok {
		return name
	}

	return "unknown"
}

// IsIncremental reports whether the trigger works from a delta.
func (trigger Trigger) IsIncremental() bool {
	return trigger == IncrementalBuild || trigger == AutoBuild
}

// ParseTrigger parses a trigger name.
func ParseTrigger(str string) (Trigger, error) {
	for trigger, name := range triggerNames {
		if strings.EqualFold(name, str) {
			return trigger, nil
		}
	}

	return 0, errors.Errorf("invalid build trigger %q", str)
}

// TriggerMask is the set of triggers a builder command responds to.
type TriggerMask uint8

// AllTriggersMask enables a command for every trigger.
const AllTriggersMask = TriggerMask(FullBuild | IncrementalBuild | AutoBuild | CleanBuild)

// NewTriggerMask returns a mask with the given triggers enabled.
func NewTriggerMask(triggers ...Trigger) TriggerMask {
	var mask TriggerMask
	for _, trigger := range triggers {
		mask |= TriggerMask(trigger)
	}

	return mask
}

// ParseTriggerMask parses trigger names. An empty list enables every trigger.
func ParseTriggerMask(names []string) (TriggerMask, error) {
	if len(names) == 0 {
		return AllTriggersMask, nil
	}

	var mask TriggerMask

	for _, name := range names {
		trigger, err := ParseTrigger(name)
		if err != nil {
			return 0, err
		}

		mask |= TriggerMask(trigger)
	}

	return mask, nil
}

// Enabled reports whether the trigger is part of the mask.
func (mask TriggerMask) Enabled(trigger Trigger) bool {
	return mask&TriggerMask(trigger) != 0
}

func (mask TriggerMask) String() string {
	var names []string

	for _, trigger := range AllTriggers {
		if mask.Enabled(trigger) {
			names = append(names, trigger.String())
		}
	}

	return strings.Join(names, ",")
}
