package terminal

import "github.com/sahiltable85/RarePay/nexo"

// State is the orchestrator's position in the link, warm-up and charge cycle.
type State int

const (
	StateIdle State = iota
	StateLinking
	StateWarmingUp
	StateReady
	StateCharging
	StateSucceeded
	StateFailed
)

var stateNames = [...]string{
	StateIdle:      "Idle",
	StateLinking:   "Linking",
	StateWarmingUp: "WarmingUp",
	StateReady:     "Ready",
	StateCharging:  "Charging",
	StateSucceeded: "Succeeded",
	StateFailed:    "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(?)"
	}
	return stateNames[s]
}

// busy reports whether an operation is in flight in s.
func (s State) busy() bool {
	return s == StateLinking || s == StateWarmingUp || s == StateCharging
}

// chargeable reports whether a charge may start from s. Failed is
// chargeable because a charge error leaves the session warm.
func (s State) chargeable() bool {
	return s == StateReady || s == StateSucceeded || s == StateFailed
}

// Snapshot is one published view of the orchestrator. Snapshots are
// immutable; each transition publishes a new one.
type Snapshot struct {
	// State is Ready again once a charge result is decoded; Succeeded and
	// Failed are published on the way there. State stays Failed when a
	// charge produced no result.
	State   State
	Status  string
	Err     error
	Outcome *Outcome

	// Version increases by one with every publication.
	Version uint64
}

// Outcome is a decoded payment result. Non-success results are outcomes,
// not errors.
type Outcome struct {
	TransactionID string
	Result        nexo.Result
	RawResult     string
	Response      *nexo.PaymentResponse
}
