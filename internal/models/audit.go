package models

import "time"

// AuditEntry records one action attempt and its outcome. Entries are never updated.
type AuditEntry struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Actor     string    `gorm:"not null" json:"actor"`
	Employee  string    `json:"employee"`
	Action    string    `gorm:"not null" json:"action"`
	Status    string    `json:"status"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
}
