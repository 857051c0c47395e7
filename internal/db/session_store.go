package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hades-rgb/timesheets/internal/models"
)

// SessionStore persists in-progress sessions keyed by employee
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a session store on top of db
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Load returns every stored session keyed by employee
func (s *SessionStore) Load(ctx context.Context) (map[string]models.SessionRecord, error) {
	var records []models.SessionRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	sessions := make(map[string]models.SessionRecord, len(records))
	for _, r := range records {
		sessions[r.Employee] = r
	}
	return sessions, nil
}

// Save replaces the whole store with sessions. Versions of surviving
// employees are bumped so that stale compare-and-set calls fail.
func (s *SessionStore) Save(ctx context.Context, sessions map[string]models.SessionRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.SessionRecord
		if err := tx.Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to read sessions: %w", err)
		}
		versions := make(map[string]int64, len(existing))
		for _, r := range existing {
			versions[r.Employee] = r.Version
		}

		if err := tx.Where("1 = 1").Delete(&models.SessionRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}

		for employee, record := range sessions {
			if employee == "" {
				continue
			}
			rec := record.Clone()
			rec.Employee = employee
			rec.Version = versions[employee] + 1
			if err := tx.Create(rec).Error; err != nil {
				return fmt.Errorf("failed to write session for %s: %w", employee, err)
			}
		}
		return nil
	})
}

// Get returns the session for employee, or nil if there is none
func (s *SessionStore) Get(ctx context.Context, employee string) (*models.SessionRecord, error) {
	var record models.SessionRecord
	err := s.db.WithContext(ctx).Where("employee = ?", employee).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // No session is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session for %s: %w", employee, err)
	}
	return &record, nil
}

// CompareAndSet writes next for employee only if the stored record still
// matches expected:
//
//	expected == nil: insert next if no record exists
//	next == nil:     delete the record if its version matches
//	otherwise:       update the record if its version matches
//
// It reports false, without error, when the precondition no longer holds.
// On success next.Version holds the new version.
func (s *SessionStore) CompareAndSet(ctx context.Context, employee string, expected, next *models.SessionRecord) (bool, error) {
	db := s.db.WithContext(ctx)

	switch {
	case expected == nil && next == nil:
		return false, fmt.Errorf("compare-and-set for %s needs an expected or a next record", employee)

	case expected == nil:
		rec := next.Clone()
		rec.Employee = employee
		rec.Version = 1
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
		if res.Error != nil {
			return false, fmt.Errorf("failed to create session for %s: %w", employee, res.Error)
		}
		if res.RowsAffected != 1 {
			return false, nil
		}
		next.Employee = employee
		next.Version = rec.Version
		return true, nil

	case next == nil:
		res := db.Where("employee = ? AND version = ?", employee, expected.Version).
			Delete(&models.SessionRecord{})
		if res.Error != nil {
			return false, fmt.Errorf("failed to delete session for %s: %w", employee, res.Error)
		}
		return res.RowsAffected == 1, nil

	default:
		version := expected.Version + 1
		res := db.Model(&models.SessionRecord{}).
			Where("employee = ? AND version = ?", employee, expected.Version).
			Updates(map[string]interface{}{
				"clock_in_at":  next.ClockInAt,
				"clock_out_at": next.ClockOutAt,
				"total_hours":  next.TotalHours,
				"version":      version,
			})
		if res.Error != nil {
			return false, fmt.Errorf("failed to update session for %s: %w", employee, res.Error)
		}
		if res.RowsAffected != 1 {
			return false, nil
		}
		next.Employee = employee
		next.Version = version
		return true, nil
	}
}
