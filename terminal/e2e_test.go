package terminal_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"

	"github.com/sahiltable85/RarePay/config"
	"github.com/sahiltable85/RarePay/handlers"
	"github.com/sahiltable85/RarePay/models"
	"github.com/sahiltable85/RarePay/nexo"
	"github.com/sahiltable85/RarePay/service"
	"github.com/sahiltable85/RarePay/session"
	"github.com/sahiltable85/RarePay/terminal"
	"github.com/sahiltable85/RarePay/terminal/terminaltest"
)

// newBackend serves the sessions route in front of processor.
func newBackend(t *testing.T, processor *httptest.Server) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.NewSessionService(noop.NewTracerProvider().Tracer("test"), config.ProcessorConfig{
		URL:             processor.URL,
		APIKey:          "test-key",
		MerchantAccount: "RarePayPOS",
	})
	r := gin.New()
	handlers.NewSessionHandler(svc).RegisterRoutes(r)

	backend := httptest.NewServer(r)
	t.Cleanup(backend.Close)
	return backend
}

func TestDeviceFlowThroughBackend(t *testing.T) {
	var exchanged atomic.Value
	processor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ProcessorSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		exchanged.Store(req.SetupToken)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"CS-1","sdkData":"sdk-for-` + req.SetupToken + `"}`))
	}))
	defer processor.Close()

	backend := newBackend(t, processor)
	reader := terminaltest.NewReader("V400m-324688179")
	m := terminal.NewManager(reader, sessionClient(t, backend.URL+handlers.SessionsRoute), terminal.Options{
		Logger: zaptest.NewLogger(t),
	})

	require.NoError(t, m.Bootstrap(context.Background()))
	require.Equal(t, "Ready to take payment", m.Status().Status)
	require.Equal(t, "setup-token-1", exchanged.Load())
	require.Equal(t, "sdk-for-setup-token-1", reader.SessionPayload())

	outcome, err := m.StartPayment(context.Background(), 1, "USD")
	require.NoError(t, err)
	require.Equal(t, nexo.ResultSuccess, outcome.Result)
	require.Equal(t, "Result: Success", m.Status().Status)
}

func TestDeviceFlowProcessorFailure(t *testing.T) {
	processor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":500,"message":"internal"}`))
	}))
	defer processor.Close()

	backend := newBackend(t, processor)
	reader := terminaltest.NewReader("POI-1")
	m := terminal.NewManager(reader, sessionClient(t, backend.URL+handlers.SessionsRoute), terminal.Options{
		Logger: zaptest.NewLogger(t),
	})

	err := m.Bootstrap(context.Background())

	var exErr *session.ExchangeError
	require.ErrorAs(t, err, &exErr)
	require.Equal(t, http.StatusInternalServerError, exErr.StatusCode)
	require.Equal(t, terminal.StateIdle, m.Status().State)

	_, err = m.StartPayment(context.Background(), 1, "USD")
	var notLinked *terminal.NotLinkedError
	require.ErrorAs(t, err, &notLinked)
	require.Zero(t, reader.Transactions())
}
