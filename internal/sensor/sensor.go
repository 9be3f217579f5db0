// Package sensor reads the 4-channel ADS1115 analog-to-digital converter.
package sensor

import "github.com/ccarrizosa/EspSensor/internal/errors"

// ChannelCount is fixed by the ADS1115: four single-ended inputs.
const ChannelCount = 4

// SampleSet holds one raw reading per channel, acquired within a single
// wake cycle and published as a unit.
type SampleSet [ChannelCount]int16

// Reader produces one sample per channel. Begin must be called before the
// first read and is idempotent within a wake cycle.
type Reader interface {
	Begin() error
	ReadChannel(channel int) (int16, error)
	Halt() error
}

// ReadAll acquires a full sample set from r. Begin is invoked first so
// callers need not track initialization.
func ReadAll(r Reader) (SampleSet, error) {
	var samples SampleSet

	if err := r.Begin(); err != nil {
		return samples, err
	}

	for channel := 0; channel < ChannelCount; channel++ {
		value, err := r.ReadChannel(channel)
		if err != nil {
			return samples, errors.New().Wrap(ErrReadFailed, err)
		}
		samples[channel] = value
	}

	return samples, nil
}
