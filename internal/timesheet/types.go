package timesheet

import (
	"fmt"
	"strings"
	"time"
)

// Action names a state transition. The values are the wire names used by
// the HTTP trigger surface and the relay.
type Action string

const (
	ActionClockIn     Action = "clockIn"
	ActionClockOut    Action = "clockOut"
	ActionSaveSession Action = "saveSession"
)

// ActionFromWire matches the exact names the HTTP surface accepts
func ActionFromWire(name string) (Action, bool) {
	switch action := Action(name); action {
	case ActionClockIn, ActionClockOut, ActionSaveSession:
		return action, true
	}
	return "", false
}

// ParseAction maps user input to an Action. Matching ignores case, dashes
// and underscores, so "clock-in" and "clock_in" both work.
func ParseAction(name string) (Action, bool) {
	normalized := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(name))
	switch normalized {
	case "clockin", "in":
		return ActionClockIn, true
	case "clockout", "out":
		return ActionClockOut, true
	case "savesession", "save":
		return ActionSaveSession, true
	}
	return "", false
}

// Status is the outcome class shown to users
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed" // precondition not met
	StatusError   Status = "Error"  // infrastructure or configuration failure
	StatusInfo    Status = "Info"   // nothing executed
)

// Result is the outcome of one transition. Only the fields relevant to the
// action are set.
type Result struct {
	Action   Action
	Status   Status
	Message  string
	Employee string

	ClockInAt  *time.Time
	ClockOutAt *time.Time
	TotalHours *float64
	SessionID  int

	// Err is the coded error behind a Failed or Error status
	Err error
}

// String renders the one-line "<Status>: <Message>" form
func (r Result) String() string {
	return fmt.Sprintf("%s: %s", r.Status, r.Message)
}

// IdleMessage is the response when no action was requested
const IdleMessage = "Timesheets service is active. No action executed."
