// Package firmware carries the identity the node advertises to the
// messaging framework and the provisioning portal.
package firmware

import (
	"encoding/json"
	"os"
)

const Name = "EspSensor"

// Version is injected at build time via -ldflags.
var Version = "dev"

// ClientID returns the per-device messaging client identifier.
func ClientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return Name + "-" + host
}

// Identity returns the retained announcement payload.
func Identity() []byte {
	raw, _ := json.Marshal(struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}{Name: Name, Version: Version})
	return raw
}
