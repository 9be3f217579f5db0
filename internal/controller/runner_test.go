package controller

import (
	"context"
	"testing"
	"time"

	"github.com/ccarrizosa/EspSensor/internal/devconfig"
	"github.com/ccarrizosa/EspSensor/internal/errors"
	"github.com/ccarrizosa/EspSensor/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	cfg       devconfig.Config
	found     bool
	loadErr   error
	saveErr   error
	saved     []devconfig.Config
	cleared   int
	loadCalls int
}

func (s *fakeStore) Load() (devconfig.Config, bool, error) {
	s.loadCalls++
	return s.cfg, s.found, s.loadErr
}

func (s *fakeStore) Save(cfg devconfig.Config) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, cfg)
	return nil
}

func (s *fakeStore) Clear() error {
	s.cleared++
	s.found = false
	return nil
}

type publication struct {
	topic    string
	payload  string
	retained bool
}

type fakeSession struct {
	connectErr   error
	failUntil    int // attempts that fail before one succeeds; 0 = all succeed
	publishErr   error
	attempts     int
	published    []publication
	disconnects  int
	onConnect    func()
	connectedCfg devconfig.Config
}

func (s *fakeSession) Connect(_ context.Context, cfg devconfig.Config, _ time.Duration) error {
	s.attempts++
	if s.onConnect != nil {
		s.onConnect()
	}
	if s.connectErr != nil {
		return s.connectErr
	}
	if s.attempts <= s.failUntil {
		return assert.AnError
	}
	s.connectedCfg = cfg
	return nil
}

func (s *fakeSession) Publish(_ context.Context, topic string, payload []byte, retained bool) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.published = append(s.published, publication{topic: topic, payload: string(payload), retained: retained})
	return nil
}

func (s *fakeSession) Disconnect() { s.disconnects++ }

type fakeSensor struct {
	values  sensor.SampleSet
	readErr error
}

func (f *fakeSensor) Begin() error { return nil }

func (f *fakeSensor) ReadChannel(channel int) (int16, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.values[channel], nil
}

func (f *fakeSensor) Halt() error { return nil }

type fakePortal struct {
	cfg  devconfig.Config
	err  error
	runs int
	seed devconfig.Config
}

func (p *fakePortal) Run(_ context.Context, seed devconfig.Config, _ time.Duration) (devconfig.Config, error) {
	p.runs++
	p.seed = seed
	if p.err != nil {
		return devconfig.Config{}, p.err
	}
	return p.cfg, nil
}

type fakeReset struct {
	asserted bool
	err      error
}

func (r *fakeReset) Asserted() (bool, error) { return r.asserted, r.err }

func rawPayload(samples sensor.SampleSet) ([]byte, error) {
	out := make([]byte, 0, 8)
	for i := range samples {
		out = append(out, byte('0'+i))
	}
	return out, nil
}

func newTestRunner(store *fakeStore, session *fakeSession, sens *fakeSensor, portal *fakePortal, reset *fakeReset) *Runner {
	policy := testPolicy()
	policy.Backoff = 0 // no real waiting in tests
	return NewRunner(policy, store, session, sens, portal, reset, rawPayload)
}

func TestRunCycleHappyPath(t *testing.T) {
	store := &fakeStore{cfg: storedConfig(), found: true}
	session := &fakeSession{}
	sens := &fakeSensor{values: sensor.SampleSet{100, -50, 0, 32767}}
	runner := newTestRunner(store, session, sens, &fakePortal{}, &fakeReset{})

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeOK, result.Outcome)
	assert.Equal(t, testPolicy().NominalSleep, result.Sleep)
	assert.Equal(t, uint8(1), result.Attempts)
	assert.True(t, result.Measured)
	assert.Equal(t, sensor.SampleSet{100, -50, 0, 32767}, result.Samples)

	require.Len(t, session.published, 1)
	assert.Equal(t, "sensors/adc", session.published[0].topic)
	assert.True(t, session.published[0].retained, "readings are published retained")
	assert.Equal(t, storedConfig(), session.connectedCfg)
	assert.Equal(t, 1, session.disconnects)
}

func TestRunCycleUnreachableBroker(t *testing.T) {
	store := &fakeStore{cfg: storedConfig(), found: true}
	session := &fakeSession{connectErr: assert.AnError}
	runner := newTestRunner(store, session, &fakeSensor{}, &fakePortal{}, &fakeReset{})

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, session.attempts, "budget of 5 means exactly 5 attempts")
	assert.Equal(t, OutcomeConnectTimeout, result.Outcome)
	assert.Equal(t, testPolicy().RetrySleep, result.Sleep)
	assert.False(t, result.Measured)
	assert.Empty(t, session.published, "publish never attempted while disconnected")
}

func TestRunCycleConnectsOnLaterAttempt(t *testing.T) {
	store := &fakeStore{cfg: storedConfig(), found: true}
	session := &fakeSession{failUntil: 3}
	runner := newTestRunner(store, session, &fakeSensor{values: sensor.SampleSet{1, 2, 3, 4}}, &fakePortal{}, &fakeReset{})

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, session.attempts)
	assert.Equal(t, uint8(4), result.Attempts)
	assert.Equal(t, OutcomeOK, result.Outcome)
}

func TestRunCycleResetTriggerClearsConfig(t *testing.T) {
	store := &fakeStore{cfg: storedConfig(), found: true}
	portal := &fakePortal{err: assert.AnError}
	runner := newTestRunner(store, &fakeSession{}, &fakeSensor{}, portal, &fakeReset{asserted: true})

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, store.cleared, "stored configuration cleared before load")
	assert.Equal(t, 1, portal.runs, "cleared configuration forces provisioning")
	assert.Equal(t, OutcomeProvisionTimeout, result.Outcome)
}

func TestRunCycleResetTriggerUnreadable(t *testing.T) {
	store := &fakeStore{cfg: storedConfig(), found: true}
	session := &fakeSession{}
	runner := newTestRunner(store, session, &fakeSensor{}, &fakePortal{}, &fakeReset{err: assert.AnError})

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Zero(t, store.cleared, "unreadable line treated as released")
	assert.Equal(t, OutcomeOK, result.Outcome)
}

func TestRunCycleProvisionThenPublish(t *testing.T) {
	store := &fakeStore{found: false}
	portal := &fakePortal{cfg: storedConfig()}
	session := &fakeSession{}
	runner := newTestRunner(store, session, &fakeSensor{}, portal, &fakeReset{})

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, devconfig.Default(), portal.seed)
	require.Len(t, store.saved, 1, "edited configuration persisted before connecting")
	assert.Equal(t, storedConfig(), store.saved[0])
	assert.Equal(t, OutcomeOK, result.Outcome)
	assert.Equal(t, testPolicy().NominalSleep, result.Sleep)
}

func TestRunCycleSaveFailureEndsOnRetrySleep(t *testing.T) {
	store := &fakeStore{found: false, saveErr: assert.AnError}
	portal := &fakePortal{cfg: storedConfig()}
	session := &fakeSession{}
	runner := newTestRunner(store, session, &fakeSensor{}, portal, &fakeReset{})

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Len(t, session.published, 1, "cycle continues past the failed save")
	assert.Equal(t, OutcomeSaveFailed, result.Outcome)
	assert.Equal(t, testPolicy().RetrySleep, result.Sleep)
}

func TestRunCycleStorageUnavailable(t *testing.T) {
	store := &fakeStore{loadErr: assert.AnError}
	session := &fakeSession{}
	runner := newTestRunner(store, session, &fakeSensor{}, &fakePortal{}, &fakeReset{})

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeConfigFailed, result.Outcome)
	assert.Equal(t, testPolicy().RetrySleep, result.Sleep)
	assert.Zero(t, session.attempts)
}

func TestRunCycleMeasureFailure(t *testing.T) {
	store := &fakeStore{cfg: storedConfig(), found: true}
	session := &fakeSession{}
	runner := newTestRunner(store, session, &fakeSensor{readErr: assert.AnError}, &fakePortal{}, &fakeReset{})

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeMeasureFailed, result.Outcome)
	assert.Empty(t, session.published, "partial sample sets are never published")
}

func TestRunCyclePublishFailure(t *testing.T) {
	store := &fakeStore{cfg: storedConfig(), found: true}
	session := &fakeSession{publishErr: assert.AnError}
	runner := newTestRunner(store, session, &fakeSensor{}, &fakePortal{}, &fakeReset{})

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomePublishFailed, result.Outcome)
	assert.Equal(t, testPolicy().RetrySleep, result.Sleep)
}

func TestRunCycleRejectsReentrantCall(t *testing.T) {
	store := &fakeStore{cfg: storedConfig(), found: true}
	session := &fakeSession{}
	var runner *Runner
	var reentrantErr error
	session.onConnect = func() {
		_, reentrantErr = runner.RunCycle(context.Background())
	}
	runner = newTestRunner(store, session, &fakeSensor{}, &fakePortal{}, &fakeReset{})

	_, err := runner.RunCycle(context.Background())
	require.NoError(t, err)

	require.Error(t, reentrantErr)
	assert.Equal(t, ErrCycleActive, errors.CodeOf(reentrantErr))
	assert.Equal(t, 1, session.attempts, "inner call must not drive the cycle")
}

func TestRunCycleCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	store := &fakeStore{cfg: storedConfig(), found: true}
	session := &fakeSession{connectErr: context.Canceled}
	session.onConnect = func() { cancel() }
	runner := newTestRunner(store, session, &fakeSensor{}, &fakePortal{}, &fakeReset{})

	result, err := runner.RunCycle(ctx)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCancelled, result.Outcome)
	assert.Equal(t, testPolicy().RetrySleep, result.Sleep, "cancellation still ends in a sleep decision")
}
