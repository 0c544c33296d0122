package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrInvalidEmail is returned when an Email cannot be constructed.
var ErrInvalidEmail = errors.New("invalid email")

// Urgency is the urgency classification of an email.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Urgencies lists the valid urgency values in prompt order.
var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh}

func (u Urgency) String() string { return string(u) }

// Valid reports whether u is one of the known urgency levels.
func (u Urgency) Valid() bool {
	return slices.Contains(Urgencies, u)
}

// ParseUrgency case-folds and trims s and returns the matching urgency.
// ok is false when s is not one of the known values.
func ParseUrgency(s string) (u Urgency, ok bool) {
	u = Urgency(strings.ToLower(strings.TrimSpace(s)))
	return u, u.Valid()
}

// QueryType is the topic classification of an email.
type QueryType string

const (
	QueryTypeBilling  QueryType = "billing"
	QueryTypeShipping QueryType = "shipping"
	QueryTypeBug      QueryType = "bug"
	QueryTypeAccount  QueryType = "account"
	QueryTypeGeneral  QueryType = "general"
	QueryTypeSpam     QueryType = "spam"
)

// QueryTypes lists the valid query types in prompt order.
var QueryTypes = []QueryType{
	QueryTypeBilling,
	QueryTypeShipping,
	QueryTypeBug,
	QueryTypeAccount,
	QueryTypeGeneral,
	QueryTypeSpam,
}

func (q QueryType) String() string { return string(q) }

// Valid reports whether q is one of the known query types.
func (q QueryType) Valid() bool {
	return slices.Contains(QueryTypes, q)
}

// ParseQueryType case-folds and trims s and returns the matching query type.
func ParseQueryType(s string) (q QueryType, ok bool) {
	q = QueryType(strings.ToLower(strings.TrimSpace(s)))
	return q, q.Valid()
}

// Email is an inbound email plus the fields the triage pipeline fills in.
// Derived fields stay nil until the step that computes them has run.
type Email struct {
	Sender    string    `json:"sender"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	Urgency       *Urgency   `json:"urgency,omitempty"`
	QueryType     *QueryType `json:"query_type,omitempty"`
	Department    *string    `json:"department,omitempty"`
	Response      *string    `json:"response,omitempty"`
	NeedsFollowup bool       `json:"needs_followup"`
}

// NewEmail builds an Email with only its input fields set.
func NewEmail(sender, subject, content string, timestamp time.Time) (*Email, error) {
	if strings.TrimSpace(sender) == "" {
		return nil, fmt.Errorf("%w: sender is required", ErrInvalidEmail)
	}
	if timestamp.IsZero() {
		return nil, fmt.Errorf("%w: timestamp is required", ErrInvalidEmail)
	}
	return &Email{
		Sender:    sender,
		Subject:   subject,
		Content:   content,
		Timestamp: timestamp,
	}, nil
}

// UrgencyValue returns the urgency, or "" when unset.
func (e *Email) UrgencyValue() Urgency {
	if e.Urgency == nil {
		return ""
	}
	return *e.Urgency
}

// QueryTypeValue returns the query type, or "" when unset.
func (e *Email) QueryTypeValue() QueryType {
	if e.QueryType == nil {
		return ""
	}
	return *e.QueryType
}

// DepartmentValue returns the department, or "" when unset.
func (e *Email) DepartmentValue() string {
	if e.Department == nil {
		return ""
	}
	return *e.Department
}

// ResponseValue returns the drafted response, or "" when unset.
func (e *Email) ResponseValue() string {
	if e.Response == nil {
		return ""
	}
	return *e.Response
}
