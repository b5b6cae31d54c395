// Package terminal drives a tap-to-pay capability through account linking,
// session warm-up and charging, and publishes its status for concurrent
// observers.
package terminal

import "context"

// Capability is the vendor card-reading SDK as seen by the orchestrator.
type Capability interface {
	// LinkAccount runs the account-linking step. It may show external UI.
	LinkAccount(ctx context.Context) error

	// WarmUp readies the reader. It calls r.Register with a fresh setup
	// token and must not return before that call completes.
	WarmUp(ctx context.Context, r Registrar) error

	// InstallationID returns the POI identifier. It fails until linked.
	InstallationID() (string, error)

	// PerformTransaction submits an encoded request envelope through the
	// tap-to-pay interface and returns the encoded response envelope.
	PerformTransaction(ctx context.Context, request []byte) ([]byte, error)
}

// Registrar turns a setup token into an SDK session payload.
type Registrar interface {
	Register(ctx context.Context, setupToken string) (string, error)
}

// SessionExchanger performs the setup token exchange with the backend.
// *session.Client implements it.
type SessionExchanger interface {
	ExchangeSetupToken(ctx context.Context, token string) (string, error)
}
