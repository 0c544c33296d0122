package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/internal/service"
	"mailtriage/pkg/trace"
)

// Triager is the part of service.TriageService the handler needs.
type Triager interface {
	TriageMessage(ctx context.Context, sender, subject, content string, timestamp time.Time) (*service.TriageResult, error)
}

type TriageHandler struct {
	triager Triager
	logger  *zap.Logger
}

func NewTriageHandler(triager Triager, logger *zap.Logger) *TriageHandler {
	return &TriageHandler{
		triager: triager,
		logger:  logger,
	}
}

// ProcessEmailRequest is the body of POST /v1/emails/process.
type ProcessEmailRequest struct {
	Sender    string     `json:"sender" binding:"required"`
	Subject   string     `json:"subject"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp"`
}

// ProcessEmail handles POST /v1/emails/process
func (h *TriageHandler) ProcessEmail(c *gin.Context) {
	var req ProcessEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	if traceID := c.GetHeader(trace.HeaderName()); traceID != "" {
		ctx = trace.WithContext(ctx, traceID)
	}

	var ts time.Time
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	res, err := h.triager.TriageMessage(ctx, req.Sender, req.Subject, req.Content, ts)
	if err != nil {
		if errors.Is(err, model.ErrInvalidEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to triage email",
			zap.String("sender", req.Sender),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to triage email"})
		return
	}

	c.Header(trace.HeaderName(), res.TraceID)
	c.JSON(http.StatusOK, res)
}

// Health handles GET /healthz
func (h *TriageHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
