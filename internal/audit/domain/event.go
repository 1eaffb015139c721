package domain

import "time"

// Auth actions recorded in the audit trail.
const (
	ActionRegister     = "register"
	ActionLoginSuccess = "login_success"
	ActionLoginFailure = "login_failure"
	ActionLogout       = "logout"
)

// Event is one recorded authentication event. IdentityID is empty when the
// event has no resolved identity (e.g. a failed login for an unknown email).
type Event struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identity_id,omitempty"`
	Action     string    `json:"action"`
	IP         string    `json:"ip"`
	Metadata   string    `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
