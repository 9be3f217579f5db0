package sensor

import (
	"github.com/ccarrizosa/EspSensor/internal/errors"
	"github.com/ccarrizosa/EspSensor/internal/logger"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

// Full-scale range and data rate for the single-ended channels. 3.3V suits
// a board supplied from the regulator rail; one sample per second is plenty
// for a five minute duty cycle.
const (
	fullScale  = 3300 * physic.MilliVolt
	sampleRate = 1 * physic.Hertz
)

var channels = [ChannelCount]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// ADS1115 reads raw conversion values over I2C using the periph.io driver.
type ADS1115 struct {
	busName string
	bus     i2c.BusCloser
	pins    [ChannelCount]analog.PinADC
	begun   bool
}

// NewADS1115 prepares a reader on the named I2C bus. An empty name selects
// the first available bus. No hardware is touched until Begin.
func NewADS1115(busName string) *ADS1115 {
	return &ADS1115{busName: busName}
}

func (a *ADS1115) Begin() error {
	errFactory := errors.New()

	if a.begun {
		return nil
	}

	if _, err := host.Init(); err != nil {
		return errFactory.Wrap(ErrInitFailed, err)
	}

	bus, err := i2creg.Open(a.busName)
	if err != nil {
		return errFactory.Wrap(ErrInitFailed, err)
	}

	dev, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		bus.Close()
		return errFactory.Wrap(ErrInitFailed, err)
	}

	for i, channel := range channels {
		pin, err := dev.PinForChannel(channel, fullScale, sampleRate, ads1x15.SaveEnergy)
		if err != nil {
			bus.Close()
			return errFactory.Wrap(ErrInitFailed, err)
		}
		a.pins[i] = pin
	}

	a.bus = bus
	a.begun = true
	logger.Debug().Str("bus", a.busName).Msg("ADS1115 initialized")

	return nil
}

func (a *ADS1115) ReadChannel(channel int) (int16, error) {
	errFactory := errors.New()

	if channel < 0 || channel >= ChannelCount {
		return 0, errFactory.WithData(ErrInvalidChannel, channel)
	}
	if !a.begun {
		return 0, errFactory.WithMessage(ErrReadFailed, "Begin not called")
	}

	sample, err := a.pins[channel].Read()
	if err != nil {
		return 0, errFactory.Wrap(ErrReadFailed, err)
	}

	return int16(sample.Raw), nil
}

func (a *ADS1115) Halt() error {
	if !a.begun {
		return nil
	}

	for _, pin := range a.pins {
		if pin != nil {
			pin.Halt()
		}
	}

	err := a.bus.Close()
	a.begun = false
	if err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err)
	}

	return nil
}
