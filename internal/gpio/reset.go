// Package gpio reads the configuration-reset line: a button to ground that,
// held at boot, clears the persisted configuration and forces
// re-provisioning.
package gpio

import (
	"time"

	gpiocdev "github.com/warthog618/go-gpiocdev"

	"github.com/ccarrizosa/EspSensor/internal/errors"
	"github.com/ccarrizosa/EspSensor/internal/logger"
)

const ErrLineUnavailable = errors.ErrorCode("gpio_line_unavailable")

// DefaultHold is how long the line must stay asserted to count. Filters
// contact bounce and accidental taps during power-up.
const DefaultHold = 50 * time.Millisecond

// ResetTrigger samples one chip line, active low (internal pull-up).
type ResetTrigger struct {
	chip string
	line int
	hold time.Duration
}

func NewResetTrigger(chip string, line int, hold time.Duration) *ResetTrigger {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &ResetTrigger{chip: chip, line: line, hold: hold}
}

// Asserted reports whether the line is held low at boot. The line is
// sampled, and sampled again after the hold window to confirm.
func (t *ResetTrigger) Asserted() (bool, error) {
	errFactory := errors.New()

	line, err := gpiocdev.RequestLine(t.chip, t.line,
		gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return false, errFactory.Wrap(ErrLineUnavailable, err)
	}
	defer line.Close()

	value, err := line.Value()
	if err != nil {
		return false, errFactory.Wrap(ErrLineUnavailable, err)
	}
	if value != 0 {
		return false, nil
	}

	time.Sleep(t.hold)

	value, err = line.Value()
	if err != nil {
		return false, errFactory.Wrap(ErrLineUnavailable, err)
	}
	if value != 0 {
		return false, nil
	}

	logger.Info().Str("chip", t.chip).Int("line", t.line).Msg("Reset trigger asserted")
	return true, nil
}
