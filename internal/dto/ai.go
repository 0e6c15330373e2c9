package dto

import "encoding/json"

// AnalyzeIEPRequest carries the raw IEP or support-plan text to mine for
// trackable behaviors.
type AnalyzeIEPRequest struct {
	Text string `json:"text"`
}

// IEPAnalysis is the model's suggested behavior lists, split by polarity.
type IEPAnalysis struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

// GenerateReportRequest carries everything the model needs to draft a parent
// email. Incidents is an opaque data summary assembled by the client and
// embedded verbatim in the prompt; Behaviors maps behavior IDs to labels so
// the model never leaks raw IDs into prose.
type GenerateReportRequest struct {
	StudentName       string            `json:"studentName"`
	DateRange         string            `json:"dateRange"`
	Incidents         json.RawMessage   `json:"incidents"`
	Behaviors         map[string]string `json:"behaviors"`
	CustomNotes       string            `json:"customNotes,omitempty"`
	FocusedBehaviorID string            `json:"focusedBehaviorId,omitempty"`
}

// ReportResponse wraps the drafted email body.
type ReportResponse struct {
	Report string `json:"report"`
}

// RosterStudent is one name extracted from a roster image.
type RosterStudent struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// RosterResponse wraps the extracted roster.
type RosterResponse struct {
	Students []RosterStudent `json:"students"`
}
