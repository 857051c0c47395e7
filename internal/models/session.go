package models

import (
	"time"
)

// SessionRecord is the in-progress work session of one employee.
// At most one exists per employee; it is removed once saved to the ledger.
type SessionRecord struct {
	Employee   string     `gorm:"primaryKey" json:"employee" yaml:"employee"`
	ClockInAt  *time.Time `json:"clock_in_at" yaml:"clock_in_at"`
	ClockOutAt *time.Time `json:"clock_out_at" yaml:"clock_out_at"`
	TotalHours *float64   `json:"total_hours" yaml:"total_hours"` // set together with ClockOutAt

	// Version is bumped on every write and used for compare-and-set
	Version   int64     `gorm:"not null;default:1" json:"-" yaml:"-"`
	UpdatedAt time.Time `json:"-" yaml:"-"`
}

// IsOpen reports whether the employee is clocked in and not yet clocked out
func (s *SessionRecord) IsOpen() bool {
	return s != nil && s.ClockInAt != nil && s.ClockOutAt == nil
}

// IsClosed reports whether the session is clocked out but not yet saved
func (s *SessionRecord) IsClosed() bool {
	return s != nil && s.ClockInAt != nil && s.ClockOutAt != nil
}

// Clone returns a deep copy so callers can mutate without touching the original
func (s *SessionRecord) Clone() *SessionRecord {
	if s == nil {
		return nil
	}
	c := *s
	if s.ClockInAt != nil {
		t := *s.ClockInAt
		c.ClockInAt = &t
	}
	if s.ClockOutAt != nil {
		t := *s.ClockOutAt
		c.ClockOutAt = &t
	}
	if s.TotalHours != nil {
		h := *s.TotalHours
		c.TotalHours = &h
	}
	return &c
}
