package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hades-rgb/timesheets/internal/models"
)

// ErrConflict means the session record changed between read and commit
var ErrConflict = errors.New("session record changed concurrently")

// Ledger holds committed sessions and their tasks
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a ledger on top of db
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Commit appends row and tasks, removes record from the session store and
// deletes the drafts with the given IDs, all in one transaction. If the
// record's version no longer matches nothing is written and ErrConflict is
// returned.
func (l *Ledger) Commit(ctx context.Context, record *models.SessionRecord, row *models.LedgerRow, tasks []models.TaskEntry, drafts []uint) error {
	// times are stored as text; one offset keeps range queries ordered
	row.ClockInAt = row.ClockInAt.UTC()
	row.ClockOutAt = row.ClockOutAt.UTC()

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to append ledger row: %w", err)
		}

		if len(tasks) > 0 {
			if err := tx.Create(&tasks).Error; err != nil {
				return fmt.Errorf("failed to append tasks: %w", err)
			}
		}

		res := tx.Where("employee = ? AND version = ?", record.Employee, record.Version).
			Delete(&models.SessionRecord{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove session for %s: %w", record.Employee, res.Error)
		}
		if res.RowsAffected != 1 {
			return ErrConflict
		}

		if len(drafts) > 0 {
			if err := tx.Where("id IN ?", drafts).Delete(&models.DraftTask{}).Error; err != nil {
				return fmt.Errorf("failed to clear draft tasks: %w", err)
			}
		}
		return nil
	})
}

// SessionIDExists reports whether a ledger row already uses id
func (l *Ledger) SessionIDExists(ctx context.Context, id int) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.LedgerRow{}).Where("session_id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check session id %d: %w", id, err)
	}
	return count > 0, nil
}

// Rows returns the ledger rows of employee in commit order
func (l *Ledger) Rows(ctx context.Context, employee string) ([]models.LedgerRow, error) {
	var rows []models.LedgerRow
	err := l.db.WithContext(ctx).Where("employee = ?", employee).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return rows, nil
}

// Tasks returns the tasks saved with sessionID
func (l *Ledger) Tasks(ctx context.Context, sessionID int) ([]models.TaskEntry, error) {
	var tasks []models.TaskEntry
	err := l.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id ASC").Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	return tasks, nil
}

// RowsBetween returns ledger rows whose clock-in falls in [from, to).
// A nil bound is open and an empty employee matches everyone.
func (l *Ledger) RowsBetween(ctx context.Context, employee string, from, to *time.Time) ([]models.LedgerRow, error) {
	query := l.db.WithContext(ctx).Model(&models.LedgerRow{})
	if employee != "" {
		query = query.Where("employee = ?", employee)
	}
	if from != nil {
		query = query.Where("clock_in_at >= ?", from.UTC())
	}
	if to != nil {
		query = query.Where("clock_in_at < ?", to.UTC())
	}

	var rows []models.LedgerRow
	if err := query.Order("clock_in_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return rows, nil
}
