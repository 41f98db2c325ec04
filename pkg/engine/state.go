package engine

import "sync"

// FlowState is the engine's position in the purchase/switch flow. The
// engine runs one logical flow of control at a time per purchasing
// identity, so the state is a single value, not a set.
type FlowState string

const (
	FlowIdle        FlowState = "idle"
	FlowInitiating  FlowState = "initiating"
	FlowPolling     FlowState = "polling"
	FlowReconciling FlowState = "reconciling"
	FlowSwitching   FlowState = "switching"
)

// Outcome records how the most recent flow terminated.
type Outcome string

const (
	OutcomeNone             Outcome = ""
	OutcomeCompleted        Outcome = "completed"
	OutcomeFailed           Outcome = "failed"
	OutcomeTimedOut         Outcome = "timed_out"
	OutcomeReconcileTimeout Outcome = "reconcile_timeout"
	OutcomeSwitchIncomplete Outcome = "switch_incomplete"
	OutcomeAborted          Outcome = "aborted"
)

// flowTransitions lists the legal state changes while a flow is running.
// Every flow starts from FlowIdle via begin and ends back at FlowIdle via
// finish, which also records the outcome.
var flowTransitions = map[FlowState][]FlowState{
	FlowInitiating: {FlowPolling, FlowReconciling},
	FlowPolling:    {FlowReconciling},
}

// flow is the engine's explicit state machine. It both reports progress to
// observers and enforces single-flight: begin from any state other than
// FlowIdle is rejected.
type flow struct {
	state   FlowState
	outcome Outcome
	mu      sync.Mutex
}

func newFlow() *flow {
	return &flow{state: FlowIdle}
}

// begin starts a new flow from idle. Returns ErrOperationInProgress when
// another flow is running; concurrent operations on the same identity are
// rejected, never queued.
func (f *flow) begin(next FlowState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FlowIdle {
		return ErrOperationInProgress
	}
	f.state = next
	f.outcome = OutcomeNone
	return nil
}

// advance moves a running flow to its next state. An illegal transition is
// a programming error and is reported as ErrInvalidFlowTransition.
func (f *flow) advance(next FlowState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, allowed := range flowTransitions[f.state] {
		if allowed == next {
			f.state = next
			return nil
		}
	}
	return ErrInvalidFlowTransition
}

// finish returns the flow to idle and records the terminal outcome.
func (f *flow) finish(outcome Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = FlowIdle
	f.outcome = outcome
}

// snapshot returns the current state and the last terminal outcome.
func (f *flow) snapshot() (FlowState, Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.outcome
}
