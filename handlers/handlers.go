package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sahiltable85/RarePay/logging"
	"github.com/sahiltable85/RarePay/models"
	"github.com/sahiltable85/RarePay/service"
)

// SessionsRoute is where devices exchange setup tokens.
const SessionsRoute = "/api/adyen/possdk/sessions"

// SessionHandler handles HTTP requests for POS SDK sessions
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// RegisterRoutes mounts the handler's routes on r.
func (h *SessionHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.HealthCheck)
	r.POST(SessionsRoute, h.CreateSession)
}

// CreateSession exchanges a setup token for the processor's sdkData
func (h *SessionHandler) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()
	span := trace.SpanFromContext(ctx)

	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "setupToken is required", Detail: err.Error()})
		return
	}

	sdkData, err := h.sessionService.CreateSession(ctx, req.SetupToken)
	if err != nil {
		status := http.StatusBadGateway
		resp := models.ErrorResponse{Error: "Session creation failed"}

		var perr *service.ProcessorError
		if errors.As(err, &perr) {
			if perr.StatusCode >= 400 && perr.StatusCode <= 599 {
				status = perr.StatusCode
			}
			resp.Detail = perr.Body
		}

		logging.WithTraceContext(span).Error("Session creation failed",
			zap.Error(err),
			zap.Int("status", status),
		)
		c.JSON(status, resp)
		return
	}

	span.AddEvent("possdk_session_created")
	c.JSON(http.StatusCreated, models.SessionResponse{SDKData: sdkData})
}

// HealthCheck handles health check requests
func (h *SessionHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
