package controller

import "github.com/ccarrizosa/EspSensor/internal/devconfig"

// Transition advances one wake cycle by one step. It is pure: the next
// state and action depend only on the inputs. Events that do not apply to
// the current phase (stale callbacks, re-entrant calls) leave the state
// unchanged and request nothing.
func Transition(st CycleState, ev Event) (CycleState, Action) {
	if ev.Kind == EventCancelled && st.Phase != PhaseAsleep {
		return sleepRetry(st, OutcomeCancelled)
	}

	switch st.Phase {
	case PhaseBoot:
		if ev.Kind == EventStarted {
			st.Phase = PhaseLoading
			if ev.ResetAsserted {
				return st, Action{Kind: ActionClearConfig}
			}
			return st, Action{Kind: ActionLoadConfig}
		}

	case PhaseLoading:
		switch ev.Kind {
		case EventConfigCleared:
			return st, Action{Kind: ActionLoadConfig}
		case EventConfigLoaded:
			if !ev.Found {
				// Automatic connection is impossible without stored
				// credentials; provision from defaults.
				st.Config = devconfig.Default()
				st.Phase = PhaseProvisioning
				return st, Action{Kind: ActionProvision}
			}
			if ev.Config.Validate() != nil {
				// Stored but unusable; provision prefilled with it.
				st.Config = ev.Config
				st.Phase = PhaseProvisioning
				return st, Action{Kind: ActionProvision}
			}
			st.Config = ev.Config
			return startConnecting(st)
		case EventConfigLoadFailed:
			return sleepRetry(st, OutcomeConfigFailed)
		}

	case PhaseProvisioning:
		switch ev.Kind {
		case EventProvisionSaved:
			st.Config = ev.Config
			st.Phase = PhaseSaving
			return st, Action{Kind: ActionSaveConfig}
		case EventProvisionTimeout:
			return sleepRetry(st, OutcomeProvisionTimeout)
		}

	case PhaseSaving:
		switch ev.Kind {
		case EventConfigSaved:
			return startConnecting(st)
		case EventConfigSaveFailed:
			// Non-fatal for this cycle: keep going with the in-memory
			// configuration, but end on the retry interval so the stale
			// store is not silently accepted.
			st.SaveFailed = true
			return startConnecting(st)
		}

	case PhaseConnecting:
		switch ev.Kind {
		case EventConnected:
			st.Phase = PhaseMeasuring
			return st, Action{Kind: ActionMeasure}
		case EventConnectFailed:
			if st.AttemptsRemaining == 0 {
				return sleepRetry(st, OutcomeConnectTimeout)
			}
			return issueConnect(st)
		}

	case PhaseMeasuring:
		switch ev.Kind {
		case EventMeasured:
			st.Samples = ev.Samples
			st.Measured = true
			st.Phase = PhasePublishing
			return st, Action{Kind: ActionPublish, Samples: ev.Samples}
		case EventMeasureFailed:
			return sleepRetry(st, OutcomeMeasureFailed)
		}

	case PhasePublishing:
		switch ev.Kind {
		case EventPublished:
			if st.SaveFailed {
				return sleepRetry(st, OutcomeSaveFailed)
			}
			st.Phase = PhaseAsleep
			st.Outcome = OutcomeOK
			return st, Action{Kind: ActionSleep, Sleep: st.Policy.NominalSleep}
		case EventPublishFailed:
			return sleepRetry(st, OutcomePublishFailed)
		}

	case PhaseAsleep:
		// Terminal: the device resets on wake. Nothing to do.
	}

	return st, Action{Kind: ActionNone}
}

// startConnecting enters the connecting phase, honoring a zero budget.
func startConnecting(st CycleState) (CycleState, Action) {
	st.Phase = PhaseConnecting
	if st.AttemptsRemaining == 0 {
		return sleepRetry(st, OutcomeConnectTimeout)
	}
	return issueConnect(st)
}

// issueConnect consumes one unit of the retry budget and requests a
// connection attempt. Callers must check the budget beforehand.
func issueConnect(st CycleState) (CycleState, Action) {
	st.AttemptsRemaining--
	return st, Action{Kind: ActionConnect, Attempt: st.AttemptsUsed()}
}

func sleepRetry(st CycleState, outcome Outcome) (CycleState, Action) {
	st.Phase = PhaseAsleep
	st.Outcome = outcome
	return st, Action{Kind: ActionSleep, Sleep: st.Policy.RetrySleep}
}
