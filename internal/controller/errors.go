package controller

import "github.com/ccarrizosa/EspSensor/internal/errors"

const (
	ErrCycleActive = errors.ErrCycleActive
	ErrStalled     = errors.ErrorCode("controller_stalled")
)
