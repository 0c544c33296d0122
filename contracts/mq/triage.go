package mq

import "time"

// Routing keys published by the triage service.
const (
	RoutingKeyEmailTriaged      = "email.triaged"
	RoutingKeyFollowupScheduled = "email.followup.scheduled"
)

// EmailTriagedPayload is published for every processed email.
type EmailTriagedPayload struct {
	TraceID       string    `json:"trace_id"`
	Sender        string    `json:"sender"`
	Subject       string    `json:"subject"`
	ReceivedAt    time.Time `json:"received_at"`
	Urgency       string    `json:"urgency"`
	QueryType     string    `json:"query_type"`
	Department    string    `json:"department"`
	HasResponse   bool      `json:"has_response"`
	NeedsFollowup bool      `json:"needs_followup"`
	Fallbacks     []string  `json:"fallbacks,omitempty"` // steps that used their default value
	TriagedAt     time.Time `json:"triaged_at"`
}

// FollowupScheduledPayload asks the owning department to follow up.
type FollowupScheduledPayload struct {
	TraceID     string    `json:"trace_id"`
	Sender      string    `json:"sender"`
	Subject     string    `json:"subject"`
	Urgency     string    `json:"urgency"`
	QueryType   string    `json:"query_type"`
	Department  string    `json:"department"`
	ScheduledAt time.Time `json:"scheduled_at"`
}
