package notification

import "time"

// Kind categorizes a notification for presentation purposes.
type Kind string

const (
	KindWelcome   Kind = "welcome"
	KindSubmitted Kind = "submitted"
	KindCancelled Kind = "cancelled"
	KindApproved  Kind = "approved"
	KindAvailable Kind = "available"
	KindLaunch    Kind = "launch"
)

// Notification is a user-facing event emitted by the core services. The
// presentation layer decides how to render it.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	AppName   string    `json:"app_name,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
