package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	mqcontracts "mailtriage/contracts/mq"
	"mailtriage/internal/model"
	"mailtriage/internal/pipeline"
	"mailtriage/pkg/logger"
	"mailtriage/pkg/metrics"
	"mailtriage/pkg/mq"
	"mailtriage/pkg/trace"
)

// TriageResult is one processed email with the per-step outcomes.
type TriageResult struct {
	TraceID string         `json:"trace_id"`
	Email   *model.Email   `json:"email"`
	Trace   pipeline.Trace `json:"trace"`
}

// TriageService runs the pipeline for a single email and announces the
// result on the event bus.
type TriageService struct {
	processor *pipeline.Processor
	publisher mq.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewTriageService wires a processor and an event publisher. A nil publisher
// disables events.
func NewTriageService(processor *pipeline.Processor, publisher mq.Publisher, logger *zap.Logger) *TriageService {
	if publisher == nil {
		publisher = mq.NopPublisher{}
	}
	return &TriageService{
		processor: processor,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// TriageMessage builds an Email from raw fields and triages it. A zero
// timestamp means "received now". Only record construction can fail.
func (s *TriageService) TriageMessage(ctx context.Context, sender, subject, content string, timestamp time.Time) (*TriageResult, error) {
	if timestamp.IsZero() {
		timestamp = s.now()
	}
	email, err := model.NewEmail(sender, subject, content, timestamp)
	if err != nil {
		return nil, err
	}
	return s.Triage(ctx, email)
}

// Triage processes email in place. Generation failures never surface here:
// the pipeline substitutes defaults. Event publishing is best effort.
func (s *TriageService) Triage(ctx context.Context, email *model.Email) (*TriageResult, error) {
	if email == nil {
		return nil, fmt.Errorf("%w: nil email", model.ErrInvalidEmail)
	}

	ctx = trace.Ensure(ctx)
	traceID := trace.FromContext(ctx)
	log := logger.WithTrace(ctx, s.logger)

	email, tr := s.processor.ProcessWithTrace(ctx, email)
	metrics.IncrementEmailProcessed(string(email.QueryTypeValue()), string(email.UrgencyValue()))

	if s.publisher.Enabled() {
		s.publishTriaged(ctx, log, traceID, email, tr)
	}
	if email.NeedsFollowup {
		s.scheduleFollowup(ctx, log, traceID, email)
	}

	return &TriageResult{
		TraceID: traceID,
		Email:   email,
		Trace:   tr,
	}, nil
}

func (s *TriageService) publishTriaged(ctx context.Context, log *zap.Logger, traceID string, email *model.Email, tr pipeline.Trace) {
	var fallbacks []string
	for _, f := range tr.Fallbacks() {
		fallbacks = append(fallbacks, string(f.Step))
	}

	payload := mqcontracts.EmailTriagedPayload{
		TraceID:       traceID,
		Sender:        email.Sender,
		Subject:       email.Subject,
		ReceivedAt:    email.Timestamp,
		Urgency:       string(email.UrgencyValue()),
		QueryType:     string(email.QueryTypeValue()),
		Department:    email.DepartmentValue(),
		HasResponse:   email.ResponseValue() != "",
		NeedsFollowup: email.NeedsFollowup,
		Fallbacks:     fallbacks,
		TriagedAt:     s.now(),
	}
	if err := s.publisher.Publish(ctx, mqcontracts.RoutingKeyEmailTriaged, payload); err != nil {
		log.Error("Failed to publish triaged event",
			zap.String("routing_key", mqcontracts.RoutingKeyEmailTriaged),
			zap.Error(err),
		)
	}
}

func (s *TriageService) scheduleFollowup(ctx context.Context, log *zap.Logger, traceID string, email *model.Email) {
	if !s.publisher.Enabled() {
		metrics.IncrementFollowupScheduled("skipped")
		log.Debug("No event broker, follow-up not published")
		return
	}

	payload := mqcontracts.FollowupScheduledPayload{
		TraceID:     traceID,
		Sender:      email.Sender,
		Subject:     email.Subject,
		Urgency:     string(email.UrgencyValue()),
		QueryType:   string(email.QueryTypeValue()),
		Department:  email.DepartmentValue(),
		ScheduledAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, mqcontracts.RoutingKeyFollowupScheduled, payload); err != nil {
		metrics.IncrementFollowupScheduled("failed")
		log.Error("Failed to publish follow-up event",
			zap.String("routing_key", mqcontracts.RoutingKeyFollowupScheduled),
			zap.String("department", payload.Department),
			zap.Error(err),
		)
		return
	}

	metrics.IncrementFollowupScheduled("published")
	log.Info("Follow-up event published",
		zap.String("department", payload.Department),
		zap.String("urgency", payload.Urgency),
		zap.String("query_type", payload.QueryType),
	)
}
