package models

import "time"

// LedgerRow is one committed work session
type LedgerRow struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Employee   string    `gorm:"not null;index" json:"employee"`
	Project    string    `json:"project"`
	ClockInAt  time.Time `gorm:"not null" json:"clock_in_at"`
	ClockOutAt time.Time `gorm:"not null" json:"clock_out_at"`
	Hours      float64   `json:"hours"`
	SessionID  int       `gorm:"not null;uniqueIndex" json:"session_id"`
}

// TaskEntry is a task description saved alongside a ledger row
type TaskEntry struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Employee    string `gorm:"not null" json:"employee"`
	SessionID   int    `gorm:"not null;index" json:"session_id"`
	Description string `gorm:"not null" json:"description"`
	Notes       string `json:"notes"`
}
