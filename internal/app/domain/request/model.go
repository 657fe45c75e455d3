package request

import "time"

// Status is the lifecycle state of an access request. Pending requests move
// to approved, then provisioning, then complete; rejected is the alternate
// terminal outcome of review. Complete and rejected are absorbing.
type Status string

const (
	StatusPending      Status = "pending"
	StatusApproved     Status = "approved"
	StatusProvisioning Status = "provisioning"
	StatusComplete     Status = "complete"
	StatusRejected     Status = "rejected"
)

// Terminal reports whether no further transition applies to the status.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusRejected
}

// Durations enumerates the requestable access durations.
var Durations = []string{"30-days", "90-days", "6-months", "1-year", "permanent"}

// Urgencies enumerates urgency levels. Urgency is informational only; it has
// no effect on the state machine.
var Urgencies = []string{"low", "medium", "high", "critical"}

// ValidDuration reports whether d is one of the enumerated durations.
func ValidDuration(d string) bool { return contains(Durations, d) }

// ValidUrgency reports whether u is one of the enumerated urgency levels.
func ValidUrgency(u string) bool { return contains(Urgencies, u) }

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Request is an employee's access request for a catalog application.
type Request struct {
	ID                  string    `json:"id"`
	AppID               string    `json:"app_id"`
	AppName             string    `json:"app_name"`
	Status              Status    `json:"status"`
	Justification       string    `json:"justification"`
	Duration            string    `json:"duration"`
	Urgency             string    `json:"urgency"`
	BusinessCase        string    `json:"business_case,omitempty"`
	Approver            string    `json:"approver,omitempty"`
	Notes               string    `json:"notes,omitempty"`
	EstimatedCompletion string    `json:"estimated_completion,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
