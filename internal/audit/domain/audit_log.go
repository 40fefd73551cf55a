package domain

import "time"

// AuditLog represents one recorded verification flow transition.
type AuditLog struct {
	ID        string
	FlowID    string
	Username  string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
