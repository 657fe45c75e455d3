package session

import "time"

// Session represents the authenticated user for this process. At most one
// session is active at a time; login replaces it and logout destroys it.
type Session struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// OwnedApp marks an application the current user holds access to. LastUsed is
// touched on launch and never affects membership.
type OwnedApp struct {
	AppID     string    `json:"app_id"`
	AppName   string    `json:"app_name"`
	GrantedAt time.Time `json:"granted_at"`
	LastUsed  time.Time `json:"last_used"`
}
