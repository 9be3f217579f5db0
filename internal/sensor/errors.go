package sensor

import "github.com/ccarrizosa/EspSensor/internal/errors"

const (
	ErrInitFailed     = errors.ErrorCode("sensor_init_failed")
	ErrReadFailed     = errors.ErrorCode("sensor_read_failed")
	ErrInvalidChannel = errors.ErrorCode("sensor_invalid_channel")
)
