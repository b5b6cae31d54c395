package terminal

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy rejects an operation while another one is in flight.
	ErrBusy = errors.New("terminal: operation already in progress")

	// ErrInvalidAmount rejects charges below one minor unit.
	ErrInvalidAmount = errors.New("terminal: amount must be at least 1 minor unit")
)

// LinkError means account linking failed or was cancelled.
type LinkError struct {
	Err error
}

func (e *LinkError) Error() string { return "link account: " + e.Err.Error() }
func (e *LinkError) Unwrap() error { return e.Err }

// WarmUpError means the capability could not be made ready. It wraps the
// session exchange failure when there was one.
type WarmUpError struct {
	Err error
}

func (e *WarmUpError) Error() string { return "warm up: " + e.Err.Error() }
func (e *WarmUpError) Unwrap() error { return e.Err }

// NotLinkedError rejects a charge before a POI identifier is available.
type NotLinkedError struct {
	State State
	Err   error
}

func (e *NotLinkedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("not linked (state %s): %v", e.State, e.Err)
	}
	return fmt.Sprintf("not linked (state %s)", e.State)
}

func (e *NotLinkedError) Unwrap() error { return e.Err }

// ChargeError means a charge produced no decodable result.
type ChargeError struct {
	TransactionID string
	Err           error
}

func (e *ChargeError) Error() string {
	return fmt.Sprintf("charge %s: %v", e.TransactionID, e.Err)
}

func (e *ChargeError) Unwrap() error { return e.Err }

// statusFor renders err as the human-readable status line.
func statusFor(err error) string {
	var (
		linkErr   *LinkError
		warmErr   *WarmUpError
		notLinked *NotLinkedError
		chargeErr *ChargeError
	)
	switch {
	case errors.As(err, &linkErr):
		return "Link error: " + linkErr.Err.Error()
	case errors.As(err, &warmErr):
		return "Warm-up error: " + warmErr.Err.Error()
	case errors.As(err, &notLinked):
		return "Charge error: " + notLinked.Error()
	case errors.As(err, &chargeErr):
		return "Charge error: " + chargeErr.Err.Error()
	default:
		return "Error: " + err.Error()
	}
}
