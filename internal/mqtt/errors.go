package mqtt

import "github.com/ccarrizosa/EspSensor/internal/errors"

const (
	ErrConnectFailed  = errors.ErrorCode("mqtt_connect_failed")
	ErrConnectTimeout = errors.ErrorCode("mqtt_connect_timeout")
	ErrNotConnected   = errors.ErrorCode("mqtt_not_connected")
	ErrPublishFailed  = errors.ErrorCode("mqtt_publish_failed")
	ErrPublishTimeout = errors.ErrorCode("mqtt_publish_timeout")
)
