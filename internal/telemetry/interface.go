package telemetry

import (
	"context"
	"time"

	"github.com/ccarrizosa/EspSensor/internal/sensor"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, record *CycleRecord) error
	Close() error
}

// CycleRecord is one wake cycle's outcome: how the cycle ended, how much of
// the retry budget it used, the sleep it chose and what it measured.
type CycleRecord struct {
	Timestamp time.Time
	Outcome   string
	Attempts  int
	SleepFor  time.Duration
	Measured  bool
	Samples   sensor.SampleSet
	Version   string
}
