package models

import "time"

// DashboardState is the single-row employee context read by the executor.
type DashboardState struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	Employee  string    `json:"employee"`
	Project   string    `json:"project"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DraftTask is a task line typed in for the session in progress
type DraftTask struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description"`
	Notes       string    `json:"notes"`
}

// Selection is a snapshot of the dashboard: who is working, on what, and which tasks
type Selection struct {
	Employee string
	Project  string
	Tasks    []DraftTask
}
