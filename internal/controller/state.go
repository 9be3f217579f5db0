// Package controller implements the connectivity-gated duty-cycle state
// machine: wake, connect, measure, publish, sleep. The machine itself is a
// pure transition function over value types; collaborators (storage,
// network, sensor, portal) are driven by the Runner, and the terminal sleep
// action is executed by the caller.
package controller

import (
	"time"

	"github.com/ccarrizosa/EspSensor/internal/devconfig"
	"github.com/ccarrizosa/EspSensor/internal/sensor"
)

// Phase identifies where in the wake cycle the machine is.
type Phase uint8

const (
	PhaseBoot Phase = iota
	PhaseLoading
	PhaseProvisioning
	PhaseSaving
	PhaseConnecting
	PhaseMeasuring
	PhasePublishing
	PhaseAsleep
)

func (p Phase) String() string {
	switch p {
	case PhaseBoot:
		return "boot"
	case PhaseLoading:
		return "loading"
	case PhaseProvisioning:
		return "provisioning"
	case PhaseSaving:
		return "saving"
	case PhaseConnecting:
		return "connecting"
	case PhaseMeasuring:
		return "measuring"
	case PhasePublishing:
		return "publishing"
	case PhaseAsleep:
		return "asleep"
	default:
		return "unknown"
	}
}

// Outcome records how a wake cycle ended. It decides nothing by itself;
// the sleep duration is fixed at the terminal transition.
type Outcome string

const (
	OutcomeNone             Outcome = ""
	OutcomeOK               Outcome = "ok"
	OutcomeConfigFailed     Outcome = "config_failed"
	OutcomeProvisionTimeout Outcome = "provision_timeout"
	OutcomeSaveFailed       Outcome = "save_failed"
	OutcomeConnectTimeout   Outcome = "connect_timeout"
	OutcomeMeasureFailed    Outcome = "measure_failed"
	OutcomePublishFailed    Outcome = "publish_failed"
	OutcomeCancelled        Outcome = "cancelled"
	OutcomeStalled          Outcome = "stalled"
)

// Policy fixes the retry and sleep bounds for a wake cycle. Exactly two
// sleep durations exist: NominalSleep after a fully successful cycle and
// RetrySleep after any failure.
type Policy struct {
	MaxAttempts    uint8
	Backoff        time.Duration
	ConnectTimeout time.Duration
	PortalTimeout  time.Duration
	NominalSleep   time.Duration
	RetrySleep     time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    5,
		Backoff:        5 * time.Second,
		ConnectTimeout: 10 * time.Second,
		PortalTimeout:  300 * time.Second,
		NominalSleep:   300 * time.Second,
		RetrySleep:     60 * time.Second,
	}
}

// CycleState is the whole mutable state of one wake cycle, owned by value.
// Nothing survives the cycle except what the config store persists.
type CycleState struct {
	Phase  Phase
	Policy Policy

	Config devconfig.Config

	// AttemptsRemaining is decremented when a connection attempt is issued.
	// It is set once, here; a reconnect within the cycle never refills it.
	AttemptsRemaining uint8

	// SaveFailed notes that provisioned data could not be persisted. The
	// cycle still runs, but ends on the retry interval so the stale store
	// is revisited soon.
	SaveFailed bool

	Samples  sensor.SampleSet
	Measured bool

	Outcome Outcome
}

// NewCycleState returns the fresh state for one wake cycle with the full
// retry budget.
func NewCycleState(policy Policy) CycleState {
	return CycleState{
		Phase:             PhaseBoot,
		Policy:            policy,
		AttemptsRemaining: policy.MaxAttempts,
	}
}

// AttemptsUsed reports how many connection attempts have been issued.
func (s CycleState) AttemptsUsed() uint8 {
	return s.Policy.MaxAttempts - s.AttemptsRemaining
}
