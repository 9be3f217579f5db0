package mqtt

import (
	"encoding/json"
	"strconv"

	"github.com/ccarrizosa/EspSensor/internal/sensor"
)

// Payload is the reading-set message. Values are decimal strings, matching
// what the board firmware has always published, so existing subscribers
// keep working.
type Payload struct {
	Channel0 string `json:"channel_0"`
	Channel1 string `json:"channel_1"`
	Channel2 string `json:"channel_2"`
	Channel3 string `json:"channel_3"`
}

// Format renders one sample set as the publication payload.
func Format(samples sensor.SampleSet) ([]byte, error) {
	return json.Marshal(Payload{
		Channel0: strconv.FormatInt(int64(samples[0]), 10),
		Channel1: strconv.FormatInt(int64(samples[1]), 10),
		Channel2: strconv.FormatInt(int64(samples[2]), 10),
		Channel3: strconv.FormatInt(int64(samples[3]), 10),
	})
}
