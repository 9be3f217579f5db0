// Package devconfig holds the provisioned broker configuration: the five
// fields the device persists across power cycles and edits through the
// provisioning portal.
package devconfig

import (
	"strconv"

	"github.com/ccarrizosa/EspSensor/internal/errors"
)

// Field capacities match the fixed buffers of the original board firmware:
// 20-byte buffers (19 usable characters) for text fields and a 6-byte
// buffer (5 usable) for the port. Values over capacity are rejected, never
// truncated.
const (
	FieldCapacity = 19
	PortCapacity  = 5

	DefaultPort = "1883"
)

type Config struct {
	Server   string `json:"mqtt_server"`
	User     string `json:"mqtt_user"`
	Password string `json:"mqtt_password"`
	Port     string `json:"mqtt_port"`
	Topic    string `json:"mqtt_topic"`
}

func Default() Config {
	return Config{Port: DefaultPort}
}

// Validate reports whether the configuration can be used to reach a broker.
func (c Config) Validate() error {
	errFactory := errors.New()

	fields := []struct {
		name     string
		value    string
		capacity int
	}{
		{"mqtt_server", c.Server, FieldCapacity},
		{"mqtt_user", c.User, FieldCapacity},
		{"mqtt_password", c.Password, FieldCapacity},
		{"mqtt_port", c.Port, PortCapacity},
		{"mqtt_topic", c.Topic, FieldCapacity},
	}
	for _, f := range fields {
		if len(f.value) > f.capacity {
			return errFactory.WithData(ErrFieldTooLong, f.name)
		}
	}

	if c.Server == "" {
		return errFactory.WithData(ErrFieldMissing, "mqtt_server")
	}
	if c.Topic == "" {
		return errFactory.WithData(ErrFieldMissing, "mqtt_topic")
	}

	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return errFactory.WithData(ErrInvalidPort, c.Port)
	}

	return nil
}

// BrokerURL returns the paho broker address for this configuration.
func (c Config) BrokerURL() string {
	return "tcp://" + c.Server + ":" + c.Port
}
