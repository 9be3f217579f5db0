package controller

import (
	"time"

	"github.com/ccarrizosa/EspSensor/internal/sensor"
)

// ActionKind enumerates what the machine asks its driver to do next.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionClearConfig
	ActionLoadConfig
	ActionProvision
	ActionSaveConfig
	ActionConnect
	ActionMeasure
	ActionPublish
	ActionSleep
)

func (k ActionKind) String() string {
	names := map[ActionKind]string{
		ActionNone:        "none",
		ActionClearConfig: "clear_config",
		ActionLoadConfig:  "load_config",
		ActionProvision:   "provision",
		ActionSaveConfig:  "save_config",
		ActionConnect:     "connect",
		ActionMeasure:     "measure",
		ActionPublish:     "publish",
		ActionSleep:       "sleep",
	}
	if name, ok := names[k]; ok {
		return name
	}
	return "unknown"
}

// Action is the tagged instruction returned by Transition. ActionSleep is
// terminal; the machine accepts no further events after emitting it.
type Action struct {
	Kind ActionKind

	// ActionConnect: 1-based attempt number. The driver applies the fixed
	// backoff before every attempt after the first.
	Attempt uint8

	// ActionPublish
	Samples sensor.SampleSet

	// ActionSleep
	Sleep time.Duration
}
