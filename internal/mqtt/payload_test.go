package mqtt_test

import (
	"testing"

	"github.com/ccarrizosa/EspSensor/internal/mqtt"
	"github.com/ccarrizosa/EspSensor/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	payload, err := mqtt.Format(sensor.SampleSet{100, -50, 0, 32767})
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"channel_0":"100","channel_1":"-50","channel_2":"0","channel_3":"32767"}`,
		string(payload))
}

func TestFormatExtremes(t *testing.T) {
	payload, err := mqtt.Format(sensor.SampleSet{-32768, 32767, -1, 1})
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"channel_0":"-32768","channel_1":"32767","channel_2":"-1","channel_3":"1"}`,
		string(payload))
}

func TestFormatDeterministic(t *testing.T) {
	first, err := mqtt.Format(sensor.SampleSet{1, 2, 3, 4})
	require.NoError(t, err)
	second, err := mqtt.Format(sensor.SampleSet{1, 2, 3, 4})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
