package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/hades-rgb/timesheets/internal/models"
)

const dashboardID = 1

// Dashboard is the executor-side employee context: the selected employee,
// the project label, and the task lines for the session in progress.
type Dashboard struct {
	db *gorm.DB
}

// NewDashboard creates a dashboard on top of db
func NewDashboard(db *gorm.DB) *Dashboard {
	return &Dashboard{db: db}
}

// Current returns a snapshot of the dashboard
func (d *Dashboard) Current(ctx context.Context) (models.Selection, error) {
	var sel models.Selection

	var state models.DashboardState
	err := d.db.WithContext(ctx).First(&state, dashboardID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return sel, fmt.Errorf("failed to read dashboard: %w", err)
	}
	sel.Employee = strings.TrimSpace(state.Employee)
	sel.Project = state.Project

	if err := d.db.WithContext(ctx).Order("id ASC").Find(&sel.Tasks).Error; err != nil {
		return sel, fmt.Errorf("failed to read draft tasks: %w", err)
	}
	return sel, nil
}

// Select sets the employee and project
func (d *Dashboard) Select(ctx context.Context, employee, project string) error {
	state := models.DashboardState{ID: dashboardID, Employee: employee, Project: project}
	if err := d.db.WithContext(ctx).Save(&state).Error; err != nil {
		return fmt.Errorf("failed to update dashboard: %w", err)
	}
	return nil
}

// AddTask appends a draft task line
func (d *Dashboard) AddTask(ctx context.Context, description, notes string) (*models.DraftTask, error) {
	task := models.DraftTask{Description: description, Notes: notes}
	if err := d.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, fmt.Errorf("failed to add task: %w", err)
	}
	return &task, nil
}

// ClearTasks removes every draft task
func (d *Dashboard) ClearTasks(ctx context.Context) error {
	if err := d.db.WithContext(ctx).Where("1 = 1").Delete(&models.DraftTask{}).Error; err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}
	return nil
}
