package terminal_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/sahiltable85/RarePay/session"
	"github.com/sahiltable85/RarePay/terminal"
	"github.com/sahiltable85/RarePay/terminal/terminaltest"
)

func transportErr() error {
	return &session.TransportError{URL: "http://sessions.invalid", Err: errors.New("connection refused")}
}

func TestRetryBootstrapRecoversFromTransportErrors(t *testing.T) {
	ex := &fakeExchanger{errs: []error{transportErr(), transportErr()}}
	m := newManager(t, terminaltest.NewReader("POI-1"), ex)

	err := terminal.RetryBootstrap(context.Background(), m, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 5))

	require.NoError(t, err)
	require.Equal(t, 3, ex.Calls())
	require.Equal(t, terminal.StateReady, m.Status().State)
}

func TestRetryBootstrapStopsOnRejection(t *testing.T) {
	rejected := &session.ExchangeError{StatusCode: http.StatusUnauthorized, Body: "invalid setup token"}
	ex := &fakeExchanger{errs: []error{rejected}}
	m := newManager(t, terminaltest.NewReader("POI-1"), ex)

	err := terminal.RetryBootstrap(context.Background(), m, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 5))

	var exErr *session.ExchangeError
	require.ErrorAs(t, err, &exErr)
	require.Equal(t, 1, ex.Calls())
	require.Equal(t, terminal.StateIdle, m.Status().State)
}

func TestRetryBootstrapStopsOnLinkFailure(t *testing.T) {
	reader := terminaltest.NewReader("POI-1")
	reader.LinkErr = errors.New("user cancelled")
	m := newManager(t, reader, &fakeExchanger{})

	err := terminal.RetryBootstrap(context.Background(), m, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 5))

	var linkErr *terminal.LinkError
	require.ErrorAs(t, err, &linkErr)
}

func TestRetryBootstrapGivesUp(t *testing.T) {
	ex := &fakeExchanger{errs: []error{transportErr(), transportErr(), transportErr(), transportErr()}}
	m := newManager(t, terminaltest.NewReader("POI-1"), ex)

	err := terminal.RetryBootstrap(context.Background(), m, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2))

	var warmErr *terminal.WarmUpError
	require.ErrorAs(t, err, &warmErr)
	require.Equal(t, 3, ex.Calls())
	require.Equal(t, terminal.StateIdle, m.Status().State)
}

func TestRetryBootstrapHonoursContext(t *testing.T) {
	ex := &fakeExchanger{errs: []error{transportErr(), transportErr(), transportErr()}}
	m := newManager(t, terminaltest.NewReader("POI-1"), ex)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := terminal.RetryBootstrap(ctx, m, &backoff.ZeroBackOff{})

	require.Error(t, err)
	require.LessOrEqual(t, ex.Calls(), 1)
}
