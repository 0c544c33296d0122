package pipeline

import (
	"time"

	"mailtriage/internal/llm"
)

// Step names one stage of the pipeline.
type Step string

const (
	StepClassifyUrgency   Step = "classify_urgency"
	StepClassifyQueryType Step = "classify_query_type"
	StepRouteDepartment   Step = "determine_department"
	StepGenerateResponse  Step = "generate_response"
	StepFollowup          Step = "should_schedule_followup"
)

// FallbackReason explains why a step substituted its default value.
type FallbackReason string

const (
	ReasonInvalidClassification FallbackReason = "invalid_classification"
	ReasonEmptyResponse         FallbackReason = "empty_response"
	ReasonTimeout               FallbackReason = "timeout"
	ReasonUnavailable           FallbackReason = "unavailable"
	ReasonFailure               FallbackReason = "failure"
)

func reasonFor(err error) FallbackReason {
	switch llm.Classify(err) {
	case llm.KindTimeout:
		return ReasonTimeout
	case llm.KindUnavailable:
		return ReasonUnavailable
	default:
		return ReasonFailure
	}
}

// StepOutcome records what one step produced and whether it fell back.
type StepOutcome struct {
	Step     Step           `json:"step"`
	Value    string         `json:"value"`
	Fallback bool           `json:"fallback"`
	Reason   FallbackReason `json:"reason,omitempty"`
	// Raw is the generator answer that was rejected, if any.
	Raw string `json:"raw,omitempty"`
	// Skipped is set when the step deliberately made no generator call.
	Skipped  bool          `json:"skipped,omitempty"`
	Error    string        `json:"error,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration_ns"`
}

// Trace is the per-step record of one pipeline run.
type Trace struct {
	Outcomes []StepOutcome `json:"steps"`
}

// Fallbacks returns the outcomes of steps that used their default value.
func (t Trace) Fallbacks() []StepOutcome {
	var out []StepOutcome
	for _, o := range t.Outcomes {
		if o.Fallback {
			out = append(out, o)
		}
	}
	return out
}

// Outcome returns the outcome recorded for step.
func (t Trace) Outcome(step Step) (StepOutcome, bool) {
	for _, o := range t.Outcomes {
		if o.Step == step {
			return o, true
		}
	}
	return StepOutcome{}, false
}
