// Package sleepdrv suspends the platform for the interval the controller
// chose. Resume goes through a full reboot, so every wake cycle starts
// from a clean boot.
package sleepdrv

import (
	"os/exec"
	"strconv"
	"time"

	"github.com/ccarrizosa/EspSensor/internal/errors"
	"github.com/ccarrizosa/EspSensor/internal/logger"
)

const (
	ErrResetFailed = errors.ErrorCode("sleepdrv_reset_failed")

	defaultGrace = 1 * time.Second
	suspendMode  = "mem"
)

// CommandRunner executes a platform command. Injectable for tests.
type CommandRunner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Driver performs the suspend-and-reboot sequence.
type Driver struct {
	run   CommandRunner
	grace time.Duration
}

func New() *Driver {
	return &Driver{run: execRunner, grace: defaultGrace}
}

// NewWithRunner is for tests.
func NewWithRunner(run CommandRunner, grace time.Duration) *Driver {
	return &Driver{run: run, grace: grace}
}

// Sleep suspends for the given duration and reboots on resume. When the
// suspend itself fails to take effect, the grace delay elapses and the
// reboot happens anyway; the device must never sit hung. The call only
// returns when even the reset could not be issued.
func (d *Driver) Sleep(duration time.Duration) error {
	errFactory := errors.New()

	seconds := int64(duration / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	logger.Info().Int64("seconds", seconds).Msg("Going to sleep")

	if err := d.run("rtcwake", "-m", suspendMode, "-s", strconv.FormatInt(seconds, 10)); err != nil {
		logger.Warn().Err(err).Msg("Suspend failed, falling back to reset")
	}

	time.Sleep(d.grace)

	if err := d.run("systemctl", "reboot"); err != nil {
		return errFactory.Wrap(ErrResetFailed, err)
	}

	return nil
}
