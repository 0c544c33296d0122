package pipeline

import (
	"fmt"

	"mailtriage/internal/model"
)

const urgencyPromptTemplate = `Classify the urgency level of this email as: low, medium, or high.

Consider these factors:
- Time-sensitive language (urgent, ASAP, immediately, deadline)
- Impact on business or customer (service down, payment issues, account locked)
- Emotional tone (frustrated, angry, desperate)

Email Subject: %s
Email Content: %s

Respond with only one word: low, medium, or high`

const queryTypePromptTemplate = `Classify this email into one of these categories: billing, shipping, bug, account, general, or spam.

Categories explained:
- billing: Payment issues, invoices, charges, refunds, pricing questions
- shipping: Delivery problems, tracking, packaging, shipping costs
- bug: Technical issues, software problems, website errors, app crashes
- account: Login issues, password resets, profile changes, account settings
- general: Product questions, support requests, feedback that don't fit other categories
- spam: Promotional content, irrelevant messages, suspicious emails

Email Subject: %s
Email Content: %s

Respond with only one word: billing, shipping, bug, account, general, or spam`

const responsePromptTemplate = `Write a professional email response with the following context:

%s
%s

Original Email:
Subject: %s
Content: %s

Department: %s
Urgency Level: %s

The response should:
- Match the urgency level (high=immediate action, medium=prompt response, low=standard response)
- Address the specific type of inquiry appropriately
- Include relevant department-specific information
- Provide clear next steps
- Be professional and helpful`

const fallbackResponseTemplate = "Thank you for your email. Your %s inquiry has been received " +
	"and will be handled by our %s. We will respond shortly."

var urgencyContext = map[model.Urgency]string{
	model.UrgencyHigh:   "This is a high-priority email that requires immediate attention and swift action.",
	model.UrgencyMedium: "This is a standard priority email that should be addressed promptly.",
	model.UrgencyLow:    "This is a low-priority email that can be addressed in normal timeframes.",
}

var queryTypeContext = map[model.QueryType]string{
	model.QueryTypeBilling:  "This is a billing-related inquiry. Be specific about payment processes and next steps.",
	model.QueryTypeShipping: "This is a shipping-related inquiry. Provide tracking information and delivery expectations.",
	model.QueryTypeBug:      "This is a technical issue. Offer troubleshooting steps and escalation if needed.",
	model.QueryTypeAccount:  "This is an account-related inquiry. Focus on security and account management steps.",
	model.QueryTypeGeneral:  "This is a general inquiry. Be helpful and comprehensive in your response.",
}

func urgencyPrompt(e *model.Email) string {
	return fmt.Sprintf(urgencyPromptTemplate, e.Subject, e.Content)
}

func queryTypePrompt(e *model.Email) string {
	return fmt.Sprintf(queryTypePromptTemplate, e.Subject, e.Content)
}

func responsePrompt(e *model.Email) string {
	urgency, queryType, department := draftingInputs(e)
	return fmt.Sprintf(responsePromptTemplate,
		urgencyContext[urgency], queryTypeContext[queryType],
		e.Subject, e.Content,
		department, urgency,
	)
}

// draftingInputs returns the classification the response is drafted for.
// Fields a caller has not filled in yet read as medium, general and the
// default department.
func draftingInputs(e *model.Email) (model.Urgency, model.QueryType, string) {
	urgency := e.UrgencyValue()
	if !urgency.Valid() {
		urgency = model.UrgencyMedium
	}
	queryType := e.QueryTypeValue()
	if !queryType.Valid() {
		queryType = model.QueryTypeGeneral
	}
	department := e.DepartmentValue()
	if department == "" {
		department = DefaultDepartment
	}
	return urgency, queryType, department
}

// FallbackResponse is the acknowledgment sent when no reply could be drafted.
func FallbackResponse(queryType model.QueryType, department string) string {
	return fmt.Sprintf(fallbackResponseTemplate, queryType, department)
}
