package devconfig

import "github.com/ccarrizosa/EspSensor/internal/errors"

const (
	ErrStorageUnavailable = errors.ErrorCode("devconfig_storage_unavailable")
	ErrParseFailed        = errors.ErrorCode("devconfig_parse_failed")
	ErrSaveFailed         = errors.ErrorCode("devconfig_save_failed")
	ErrClearFailed        = errors.ErrorCode("devconfig_clear_failed")
	ErrFieldTooLong       = errors.ErrorCode("devconfig_field_too_long")
	ErrFieldMissing       = errors.ErrorCode("devconfig_field_missing")
	ErrInvalidPort        = errors.ErrorCode("devconfig_invalid_port")
)
