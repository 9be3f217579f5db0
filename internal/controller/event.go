package controller

import (
	"github.com/ccarrizosa/EspSensor/internal/devconfig"
	"github.com/ccarrizosa/EspSensor/internal/sensor"
)

// EventKind enumerates everything that can happen to a wake cycle.
type EventKind uint8

const (
	EventStarted EventKind = iota
	EventConfigCleared
	EventConfigLoaded
	EventConfigLoadFailed
	EventProvisionSaved
	EventProvisionTimeout
	EventConfigSaved
	EventConfigSaveFailed
	EventConnected
	EventConnectFailed
	EventMeasured
	EventMeasureFailed
	EventPublished
	EventPublishFailed
	EventCancelled
)

func (k EventKind) String() string {
	names := map[EventKind]string{
		EventStarted:          "started",
		EventConfigCleared:    "config_cleared",
		EventConfigLoaded:     "config_loaded",
		EventConfigLoadFailed: "config_load_failed",
		EventProvisionSaved:   "provision_saved",
		EventProvisionTimeout: "provision_timeout",
		EventConfigSaved:      "config_saved",
		EventConfigSaveFailed: "config_save_failed",
		EventConnected:        "connected",
		EventConnectFailed:    "connect_failed",
		EventMeasured:         "measured",
		EventMeasureFailed:    "measure_failed",
		EventPublished:        "published",
		EventPublishFailed:    "publish_failed",
		EventCancelled:        "cancelled",
	}
	if name, ok := names[k]; ok {
		return name
	}
	return "unknown"
}

// Event carries an occurrence plus its payload. Only the fields relevant to
// the kind are set.
type Event struct {
	Kind EventKind

	// EventStarted
	ResetAsserted bool

	// EventConfigLoaded, EventProvisionSaved
	Config devconfig.Config
	Found  bool

	// EventMeasured
	Samples sensor.SampleSet
}
