package db

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/hades-rgb/timesheets/internal/logging"
	"github.com/hades-rgb/timesheets/internal/models"
)

const notApplicable = "N/A"

// AuditLog is the append-only trail of action attempts.
// Append never fails its caller; write errors go to the diagnostics log.
type AuditLog struct {
	db       *gorm.DB
	log      *logrus.Entry
	now      func() time.Time
	failures atomic.Int64
}

// NewAuditLog creates an audit log on top of db
func NewAuditLog(db *gorm.DB) *AuditLog {
	return &AuditLog{
		db:  db,
		log: logging.NewLogger("audit"),
		now: time.Now,
	}
}

// Append records entry. Missing fields get their placeholder values.
func (a *AuditLog) Append(ctx context.Context, entry models.AuditEntry) {
	defer func() {
		if r := recover(); r != nil {
			a.report(entry, fmt.Errorf("panic: %v", r))
		}
	}()

	entry.ID = uuid.NewString()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = a.now()
	}
	// stored as text, so one offset keeps ordering by timestamp correct
	entry.Timestamp = entry.Timestamp.UTC()
	if entry.Actor == "" {
		entry.Actor = "Unknown"
	}
	if entry.Employee == "" {
		entry.Employee = notApplicable
	}
	if entry.SessionID == "" {
		entry.SessionID = notApplicable
	}
	if entry.Status == "" {
		entry.Status = notApplicable
	}

	if err := a.db.WithContext(ctx).Create(&entry).Error; err != nil {
		a.report(entry, err)
	}
}

// Failures returns how many entries could not be written
func (a *AuditLog) Failures() int64 {
	return a.failures.Load()
}

// Recent returns the newest entries, newest first
func (a *AuditLog) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := a.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return entries, nil
}

func (a *AuditLog) report(entry models.AuditEntry, err error) {
	a.failures.Add(1)
	a.log.WithFields(logrus.Fields{
		"action":   entry.Action,
		"status":   entry.Status,
		"employee": entry.Employee,
	}).WithError(err).Error("failed to write audit entry")
}
