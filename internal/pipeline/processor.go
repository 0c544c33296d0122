// Package pipeline triages a single email: it classifies urgency and topic,
// routes the email to a department, drafts a reply and decides whether a
// follow-up is needed.
//
// Steps that consult the generation service never fail. An invalid answer or
// a service error is replaced by the step's default value ("medium" urgency,
// "general" query type, a templated acknowledgment), and the reason is
// reported through logs, metrics and the returned Trace.
package pipeline

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"mailtriage/internal/llm"
	"mailtriage/internal/model"
	"mailtriage/pkg/logger"
	"mailtriage/pkg/metrics"
	"mailtriage/pkg/otel"
)

const (
	FallbackUrgency   = model.UrgencyMedium
	FallbackQueryType = model.QueryTypeGeneral
)

// Processor runs the triage steps against a Generator.
type Processor struct {
	generator llm.Generator
	logger    *zap.Logger
}

func NewProcessor(generator llm.Generator, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		generator: generator,
		logger:    logger,
	}
}

// Process runs every step in order, writes the results onto e and returns it.
func (p *Processor) Process(ctx context.Context, e *model.Email) *model.Email {
	e, _ = p.ProcessWithTrace(ctx, e)
	return e
}

// ProcessWithTrace is Process, also returning the per-step outcomes.
func (p *Processor) ProcessWithTrace(ctx context.Context, e *model.Email) (*model.Email, Trace) {
	log := logger.WithTrace(ctx, p.logger)
	log.Info("Processing email",
		zap.String("sender", e.Sender),
		zap.String("subject", e.Subject),
	)

	ctx, span := otel.StartSpan(ctx, "pipeline.process")
	defer span.End()

	var tr Trace

	urgency := p.classifyUrgency(ctx, e)
	tr.Outcomes = append(tr.Outcomes, urgency)
	u := model.Urgency(urgency.Value)
	e.Urgency = &u

	queryType := p.classifyQueryType(ctx, e)
	tr.Outcomes = append(tr.Outcomes, queryType)
	q := model.QueryType(queryType.Value)
	e.QueryType = &q

	department := p.routeDepartment(ctx, q)
	tr.Outcomes = append(tr.Outcomes, department)
	d := department.Value
	e.Department = &d

	response := p.generateResponse(ctx, e)
	tr.Outcomes = append(tr.Outcomes, response)
	r := response.Value
	e.Response = &r

	needsFollowup, followup := p.followup(ctx, e)
	tr.Outcomes = append(tr.Outcomes, followup)
	e.NeedsFollowup = needsFollowup

	span.SetAttributes(
		attribute.String("email.urgency", string(u)),
		attribute.String("email.query_type", string(q)),
		attribute.String("email.department", d),
		attribute.Bool("email.needs_followup", e.NeedsFollowup),
		attribute.Int("pipeline.fallbacks", len(tr.Fallbacks())),
	)

	log.Info("Email processing complete",
		zap.String("urgency", string(u)),
		zap.String("query_type", string(q)),
		zap.String("department", d),
		zap.Bool("needs_followup", e.NeedsFollowup),
		zap.Int("fallbacks", len(tr.Fallbacks())),
	)
	return e, tr
}

// ClassifyUrgency asks the generator for the urgency of e. Any answer other
// than low/medium/high, and any service error, yields "medium".
func (p *Processor) ClassifyUrgency(ctx context.Context, e *model.Email) model.Urgency {
	return model.Urgency(p.classifyUrgency(ctx, e).Value)
}

// ClassifyQueryType asks the generator for the topic of e. Unknown answers
// and service errors yield "general".
func (p *Processor) ClassifyQueryType(ctx context.Context, e *model.Email) model.QueryType {
	return model.QueryType(p.classifyQueryType(ctx, e).Value)
}

// GenerateResponse drafts a reply for e using its urgency, query type and
// department. Spam gets an empty reply without a generator call; a service
// error or an empty draft yields FallbackResponse.
func (p *Processor) GenerateResponse(ctx context.Context, e *model.Email) string {
	return p.generateResponse(ctx, e).Value
}

func (p *Processor) classifyUrgency(ctx context.Context, e *model.Email) StepOutcome {
	log := logger.WithTrace(ctx, p.logger).With(zap.String("step", string(StepClassifyUrgency)))
	log.Info("Classifying urgency for email", zap.String("sender", e.Sender))

	ctx, span := otel.StartSpan(ctx, "pipeline."+string(StepClassifyUrgency))
	defer span.End()

	start := time.Now()
	out := StepOutcome{Step: StepClassifyUrgency}

	raw, err := p.generator.Generate(ctx, urgencyPrompt(e))
	out.Duration = time.Since(start)
	if err != nil {
		out = p.fallback(out, string(FallbackUrgency), reasonFor(err), err)
		log.Error("Urgency classification failed, defaulting to 'medium'",
			zap.String("fallback_reason", string(out.Reason)),
			zap.Error(err),
		)
	} else if u, ok := model.ParseUrgency(raw); !ok {
		out = p.fallback(out, string(FallbackUrgency), ReasonInvalidClassification, nil)
		out.Raw = raw
		log.Warn("Invalid urgency, defaulting to 'medium'",
			zap.String("answer", raw),
			zap.String("fallback_reason", string(out.Reason)),
		)
	} else {
		out.Value = string(u)
		log.Info("Email urgency classified", zap.String("urgency", out.Value))
	}

	annotate(span, out)
	return out
}

func (p *Processor) classifyQueryType(ctx context.Context, e *model.Email) StepOutcome {
	log := logger.WithTrace(ctx, p.logger).With(zap.String("step", string(StepClassifyQueryType)))
	log.Info("Classifying query type for email", zap.String("sender", e.Sender))

	ctx, span := otel.StartSpan(ctx, "pipeline."+string(StepClassifyQueryType))
	defer span.End()

	start := time.Now()
	out := StepOutcome{Step: StepClassifyQueryType}

	raw, err := p.generator.Generate(ctx, queryTypePrompt(e))
	out.Duration = time.Since(start)
	if err != nil {
		out = p.fallback(out, string(FallbackQueryType), reasonFor(err), err)
		log.Error("Query type classification failed, defaulting to 'general'",
			zap.String("fallback_reason", string(out.Reason)),
			zap.Error(err),
		)
	} else if q, ok := model.ParseQueryType(raw); !ok {
		out = p.fallback(out, string(FallbackQueryType), ReasonInvalidClassification, nil)
		out.Raw = raw
		log.Warn("Invalid query type, defaulting to 'general'",
			zap.String("answer", raw),
			zap.String("fallback_reason", string(out.Reason)),
		)
	} else {
		out.Value = string(q)
		log.Info("Email query type classified", zap.String("query_type", out.Value))
	}

	annotate(span, out)
	return out
}

func (p *Processor) routeDepartment(ctx context.Context, q model.QueryType) StepOutcome {
	department := DetermineDepartment(q)
	logger.WithTrace(ctx, p.logger).Info("Email routed",
		zap.String("step", string(StepRouteDepartment)),
		zap.String("query_type", string(q)),
		zap.String("department", department),
	)
	return StepOutcome{Step: StepRouteDepartment, Value: department}
}

func (p *Processor) generateResponse(ctx context.Context, e *model.Email) StepOutcome {
	log := logger.WithTrace(ctx, p.logger).With(zap.String("step", string(StepGenerateResponse)))
	log.Info("Generating response",
		zap.String("urgency", string(e.UrgencyValue())),
		zap.String("query_type", string(e.QueryTypeValue())),
	)

	out := StepOutcome{Step: StepGenerateResponse}
	if e.QueryTypeValue() == model.QueryTypeSpam {
		out.Skipped = true
		log.Info("Spam email, no response drafted")
		return out
	}

	ctx, span := otel.StartSpan(ctx, "pipeline."+string(StepGenerateResponse))
	defer span.End()

	start := time.Now()
	draft, err := p.generator.Generate(ctx, responsePrompt(e))
	out.Duration = time.Since(start)

	_, queryType, department := draftingInputs(e)
	fallback := FallbackResponse(queryType, department)
	switch {
	case err != nil:
		out = p.fallback(out, fallback, reasonFor(err), err)
		log.Error("Response generation failed, using acknowledgment",
			zap.String("fallback_reason", string(out.Reason)),
			zap.Error(err),
		)
	case draft == "":
		out = p.fallback(out, fallback, ReasonEmptyResponse, nil)
		log.Warn("Generator returned an empty response, using acknowledgment",
			zap.String("fallback_reason", string(out.Reason)),
		)
	default:
		out.Value = draft
		log.Info("Response generated successfully", zap.Int("length", len(draft)))
	}

	annotate(span, out)
	return out
}

// followup decides whether e needs a follow-up. The outcome carries the
// decision as text for the trace only.
func (p *Processor) followup(ctx context.Context, e *model.Email) (bool, StepOutcome) {
	needs := ShouldScheduleFollowup(e.UrgencyValue(), e.QueryTypeValue())
	out := StepOutcome{Step: StepFollowup, Value: strconv.FormatBool(needs)}
	if needs {
		logger.WithTrace(ctx, p.logger).Info("Follow-up scheduled",
			zap.String("step", string(StepFollowup)),
			zap.String("urgency", string(e.UrgencyValue())),
			zap.String("query_type", string(e.QueryTypeValue())),
		)
	}
	return needs, out
}

func (p *Processor) fallback(out StepOutcome, value string, reason FallbackReason, err error) StepOutcome {
	out.Value = value
	out.Fallback = true
	out.Reason = reason
	out.Err = err
	if err != nil {
		out.Error = err.Error()
	}
	metrics.IncrementFallback(string(out.Step), string(reason))
	return out
}

type spanRecorder interface {
	SetAttributes(kv ...attribute.KeyValue)
	SetStatus(code codes.Code, description string)
}

func annotate(span spanRecorder, out StepOutcome) {
	span.SetAttributes(
		attribute.Bool("pipeline.fallback", out.Fallback),
		attribute.String("pipeline.fallback_reason", string(out.Reason)),
	)
	if out.Err != nil {
		span.SetStatus(codes.Error, out.Err.Error())
	}
}
