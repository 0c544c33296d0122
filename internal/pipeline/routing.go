package pipeline

import "mailtriage/internal/model"

// DefaultDepartment receives anything the routing table does not name.
const DefaultDepartment = "Customer Service"

var departments = map[model.QueryType]string{
	model.QueryTypeBilling:  "Finance Department",
	model.QueryTypeShipping: "Logistics Department",
	model.QueryTypeBug:      "Technical Support",
	model.QueryTypeAccount:  "Customer Service",
	model.QueryTypeGeneral:  "Customer Service",
	model.QueryTypeSpam:     "Auto-Filter",
}

// DetermineDepartment routes a query type to the department that handles it.
func DetermineDepartment(queryType model.QueryType) string {
	if d, ok := departments[queryType]; ok {
		return d
	}
	return DefaultDepartment
}

// ShouldScheduleFollowup reports whether an email needs a follow-up: every
// high urgency email, and bug, billing and account queries of any urgency.
func ShouldScheduleFollowup(urgency model.Urgency, queryType model.QueryType) bool {
	if urgency == model.UrgencyHigh {
		return true
	}
	switch queryType {
	case model.QueryTypeBug, model.QueryTypeBilling, model.QueryTypeAccount:
		return true
	}
	return false
}
