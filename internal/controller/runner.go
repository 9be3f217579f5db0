package controller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ccarrizosa/EspSensor/internal/devconfig"
	"github.com/ccarrizosa/EspSensor/internal/errors"
	"github.com/ccarrizosa/EspSensor/internal/logger"
	"github.com/ccarrizosa/EspSensor/internal/sensor"
)

// Store persists the provisioned configuration. Mirrors devconfig.Store.
type Store interface {
	Load() (cfg devconfig.Config, found bool, err error)
	Save(devconfig.Config) error
	Clear() error
}

// Session is one messaging session with the broker. Connect and Publish are
// single attempts; the controller owns all retry policy.
type Session interface {
	Connect(ctx context.Context, cfg devconfig.Config, timeout time.Duration) error
	Publish(ctx context.Context, topic string, payload []byte, retained bool) error
	Disconnect()
}

// Provisioner blocks until the user saves edited configuration or the
// timeout elapses.
type Provisioner interface {
	Run(ctx context.Context, seed devconfig.Config, timeout time.Duration) (devconfig.Config, error)
}

// ResetTrigger reports whether the hardware reset line is asserted at boot.
type ResetTrigger interface {
	Asserted() (bool, error)
}

// PayloadFormatter renders a sample set into the publication payload.
type PayloadFormatter func(sensor.SampleSet) ([]byte, error)

// CycleResult is what a finished wake cycle hands the harness: the sleep to
// perform and enough detail for the telemetry log.
type CycleResult struct {
	Outcome  Outcome
	Sleep    time.Duration
	Attempts uint8
	Measured bool
	Samples  sensor.SampleSet
}

// Runner executes wake cycles by feeding collaborator results through the
// transition function until it reaches the terminal sleep action.
type Runner struct {
	policy  Policy
	store   Store
	session Session
	reader  sensor.Reader
	portal  Provisioner
	reset   ResetTrigger
	format  PayloadFormatter

	active atomic.Bool
}

func NewRunner(
	policy Policy,
	store Store,
	session Session,
	reader sensor.Reader,
	portal Provisioner,
	reset ResetTrigger,
	format PayloadFormatter,
) *Runner {
	return &Runner{
		policy:  policy,
		store:   store,
		session: session,
		reader:  reader,
		portal:  portal,
		reset:   reset,
		format:  format,
	}
}

// RunCycle performs exactly one wake cycle. It always returns a sleep
// decision; no failure escapes without one. A concurrent call while a cycle
// is active is rejected.
func (r *Runner) RunCycle(ctx context.Context) (CycleResult, error) {
	errFactory := errors.New()

	if !r.active.CompareAndSwap(false, true) {
		return CycleResult{}, errFactory.New(ErrCycleActive)
	}
	defer r.active.Store(false)
	defer r.session.Disconnect()

	st := NewCycleState(r.policy)
	ev := Event{Kind: EventStarted, ResetAsserted: r.resetAsserted()}

	for {
		var act Action
		st, act = Transition(st, ev)

		logger.Debug().
			Str("phase", st.Phase.String()).
			Str("event", ev.Kind.String()).
			Str("action", act.Kind.String()).
			Msg("Cycle step")

		switch act.Kind {
		case ActionSleep:
			return CycleResult{
				Outcome:  st.Outcome,
				Sleep:    act.Sleep,
				Attempts: st.AttemptsUsed(),
				Measured: st.Measured,
				Samples:  st.Samples,
			}, nil
		case ActionNone:
			// The machine refused the event: nothing sensible remains but
			// to take the failure sleep path.
			st, act = sleepRetry(st, OutcomeStalled)
			return CycleResult{
				Outcome:  st.Outcome,
				Sleep:    act.Sleep,
				Attempts: st.AttemptsUsed(),
				Measured: st.Measured,
				Samples:  st.Samples,
			}, errFactory.New(ErrStalled)
		default:
			ev = r.perform(ctx, st, act)
		}
	}
}

func (r *Runner) resetAsserted() bool {
	if r.reset == nil {
		return false
	}

	asserted, err := r.reset.Asserted()
	if err != nil {
		// An unreadable line must not brick the cycle; treat as released.
		logger.Warn().Err(err).Msg("Reset trigger unreadable")
		return false
	}

	return asserted
}

func (r *Runner) perform(ctx context.Context, st CycleState, act Action) Event {
	switch act.Kind {
	case ActionClearConfig:
		if err := r.store.Clear(); err != nil {
			logger.Warn().Err(err).Msg("Failed to clear stored configuration")
		}
		return Event{Kind: EventConfigCleared}

	case ActionLoadConfig:
		cfg, found, err := r.store.Load()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load stored configuration")
			return Event{Kind: EventConfigLoadFailed}
		}
		return Event{Kind: EventConfigLoaded, Config: cfg, Found: found}

	case ActionProvision:
		cfg, err := r.portal.Run(ctx, st.Config, st.Policy.PortalTimeout)
		if err != nil {
			logger.Info().Err(err).Msg("Provisioning ended without saved configuration")
			return Event{Kind: EventProvisionTimeout}
		}
		return Event{Kind: EventProvisionSaved, Config: cfg}

	case ActionSaveConfig:
		if err := r.store.Save(st.Config); err != nil {
			logger.Error().Err(err).Msg("Failed to persist provisioned configuration")
			return Event{Kind: EventConfigSaveFailed}
		}
		return Event{Kind: EventConfigSaved}

	case ActionConnect:
		if act.Attempt > 1 {
			if !r.backoff(ctx) {
				return Event{Kind: EventCancelled}
			}
		}
		if err := r.session.Connect(ctx, st.Config, st.Policy.ConnectTimeout); err != nil {
			if ctx.Err() != nil {
				return Event{Kind: EventCancelled}
			}
			logger.Info().Err(err).Uint8("attempt", act.Attempt).Msg("Connection attempt failed")
			return Event{Kind: EventConnectFailed}
		}
		logger.Info().Uint8("attempt", act.Attempt).Msg("Connected")
		return Event{Kind: EventConnected}

	case ActionMeasure:
		samples, err := sensor.ReadAll(r.reader)
		if err != nil {
			logger.Error().Err(err).Msg("Measurement failed")
			return Event{Kind: EventMeasureFailed}
		}
		return Event{Kind: EventMeasured, Samples: samples}

	case ActionPublish:
		payload, err := r.format(act.Samples)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to build payload")
			return Event{Kind: EventPublishFailed}
		}
		if err := r.session.Publish(ctx, st.Config.Topic, payload, true); err != nil {
			if ctx.Err() != nil {
				return Event{Kind: EventCancelled}
			}
			logger.Error().Err(err).Msg("Publish failed")
			return Event{Kind: EventPublishFailed}
		}
		logger.Info().Str("topic", st.Config.Topic).Msg("Transmission done")
		return Event{Kind: EventPublished}
	}

	return Event{Kind: EventCancelled}
}

// backoff waits the fixed delay between connection attempts. Returns false
// when the context is cancelled first.
func (r *Runner) backoff(ctx context.Context) bool {
	if r.policy.Backoff <= 0 {
		return true
	}

	timer := time.NewTimer(r.policy.Backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
