package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sahiltable85/RarePay/config"
	"github.com/sahiltable85/RarePay/logging"
	"github.com/sahiltable85/RarePay/models"
	"github.com/sahiltable85/RarePay/monitoring"
)

const sessionsPath = "/possdk/v68/sessions"

// ErrEmptySessionData is returned when the processor answers 2xx without sdkData.
var ErrEmptySessionData = errors.New("processor returned empty sdkData")

// ProcessorError carries a non-2xx processor answer back to the handler.
type ProcessorError struct {
	StatusCode int
	Body       string
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor returned status %d: %s", e.StatusCode, e.Body)
}

// SessionService exchanges device setup tokens for POS SDK sessions at the
// payments processor. It keeps no per-session state.
type SessionService struct {
	tracer trace.Tracer
	cfg    config.ProcessorConfig
	client *http.Client
}

// NewSessionService creates a session service sharing one instrumented
// HTTP client across calls.
func NewSessionService(tracer trace.Tracer, cfg config.ProcessorConfig) *SessionService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SessionService{
		tracer: tracer,
		cfg:    cfg,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

// CreateSession forwards setupToken to the processor and returns the sdkData.
func (s *SessionService) CreateSession(ctx context.Context, setupToken string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "create_possdk_session")
	defer span.End()

	span.SetAttributes(
		attribute.String("processor.merchant_account", s.cfg.MerchantAccount),
		attribute.String("processor.store", s.cfg.Store),
	)

	logger := logging.WithTraceContext(span)
	logger.Info("Creating POS SDK session",
		zap.String("merchant_account", s.cfg.MerchantAccount),
		zap.Int("setup_token_len", len(setupToken)),
	)

	sdkData, err := s.callProcessor(ctx, setupToken)
	if err != nil {
		status := "error"
		var perr *ProcessorError
		if errors.As(err, &perr) {
			status = "rejected"
		}
		logger.Error("POS SDK session failed", zap.Error(err), zap.String("status", status))
		monitoring.SessionExchangeCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String("status", status)),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return "", err
	}

	monitoring.SessionExchangeCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", "created")),
	)
	span.SetAttributes(attribute.String("session.status", "created"))

	return sdkData, nil
}

func (s *SessionService) callProcessor(ctx context.Context, setupToken string) (string, error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("external.service", "payments-processor"))

	jsonData, err := json.Marshal(models.ProcessorSessionRequest{
		MerchantAccount: s.cfg.MerchantAccount,
		SetupToken:      setupToken,
		Store:           s.cfg.Store,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(s.cfg.URL, "/")+sessionsPath, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating processor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", s.cfg.APIKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	duration := time.Since(start).Seconds()

	if err != nil {
		monitoring.ProcessorCallDuration.Record(ctx, duration,
			metric.WithAttributes(attribute.String("status", "error")),
		)
		span.SetAttributes(attribute.String("external.status", "error"))
		return "", fmt.Errorf("failed to call payments processor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		s.recordFailure(ctx, span, duration, resp.StatusCode)
		return "", &ProcessorError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var session models.ProcessorSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		s.recordFailure(ctx, span, duration, resp.StatusCode)
		return "", fmt.Errorf("decoding processor session: %w", err)
	}
	if session.SDKData == "" {
		s.recordFailure(ctx, span, duration, resp.StatusCode)
		return "", ErrEmptySessionData
	}

	monitoring.ProcessorCallDuration.Record(ctx, duration,
		metric.WithAttributes(attribute.String("status", "success")),
	)
	span.SetAttributes(
		attribute.String("external.session_id", session.ID),
		attribute.String("external.status", "success"),
	)

	return session.SDKData, nil
}

func (s *SessionService) recordFailure(ctx context.Context, span trace.Span, duration float64, statusCode int) {
	monitoring.ProcessorCallDuration.Record(ctx, duration,
		metric.WithAttributes(attribute.String("status", "failed")),
	)
	span.SetAttributes(
		attribute.Int("external.status_code", statusCode),
		attribute.String("external.status", "failed"),
	)
}
