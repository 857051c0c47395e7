package timesheet

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hades-rgb/timesheets/internal/db"
	"github.com/hades-rgb/timesheets/internal/errors"
	"github.com/hades-rgb/timesheets/internal/logging"
	"github.com/hades-rgb/timesheets/internal/models"
)

const (
	minSessionID      = 1000
	maxSessionID      = 9999
	maxSessionIDDraws = 32

	// a lost compare-and-set re-reads and re-checks the guards this many times
	maxAttempts = 3
)

// errRetry signals that the store changed under us and the transition
// should be evaluated again
var errRetry = stderrors.New("retry")

// SessionStore is the part of the session store the state machine needs
type SessionStore interface {
	Get(ctx context.Context, employee string) (*models.SessionRecord, error)
	CompareAndSet(ctx context.Context, employee string, expected, next *models.SessionRecord) (bool, error)
}

// Ledger commits closed sessions. Commit also drops the given draft tasks so
// they leave the dashboard together with the session.
type Ledger interface {
	Commit(ctx context.Context, record *models.SessionRecord, row *models.LedgerRow, tasks []models.TaskEntry, drafts []uint) error
	SessionIDExists(ctx context.Context, id int) (bool, error)
}

// AuditLog records every attempt. Append must not fail the caller.
type AuditLog interface {
	Append(ctx context.Context, entry models.AuditEntry)
}

// EmployeeContext tells the executor who is working, on what, and which
// tasks go with the session
type EmployeeContext interface {
	Current(ctx context.Context) (models.Selection, error)
}

// Service is the session state machine: clock-in, clock-out and save.
// All methods return a Result and never panic.
type Service struct {
	sessions SessionStore
	ledger   Ledger
	audit    AuditLog
	context  EmployeeContext

	now        func() time.Time
	sessionIDs func() int
	loc        *time.Location
	locks      keyedMutex
	log        *logrus.Entry
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSessionIDs replaces the random session ID source
func WithSessionIDs(next func() int) Option {
	return func(s *Service) { s.sessionIDs = next }
}

// WithLocation sets the timezone used in messages
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// NewService wires the state machine to its collaborators
func NewService(sessions SessionStore, ledger Ledger, audit AuditLog, employees EmployeeContext, opts ...Option) *Service {
	s := &Service{
		sessions:   sessions,
		ledger:     ledger,
		audit:      audit,
		context:    employees,
		now:        time.Now,
		sessionIDs: randomSessionID,
		loc:        time.UTC,
		log:        logging.NewLogger("timesheet"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs action on behalf of actor. Unknown actions are a no-op.
func (s *Service) Execute(ctx context.Context, action Action, actor string) Result {
	switch action {
	case ActionClockIn:
		return s.ClockIn(ctx, actor)
	case ActionClockOut:
		return s.ClockOut(ctx, actor)
	case ActionSaveSession:
		return s.Save(ctx, actor)
	default:
		return Result{Action: action, Status: StatusInfo, Message: IdleMessage}
	}
}

// ClockIn opens a session for the selected employee
func (s *Service) ClockIn(ctx context.Context, actor string) Result {
	return s.run(ctx, ActionClockIn, actor, s.clockIn)
}

// ClockOut closes the selected employee's open session and computes its hours
func (s *Service) ClockOut(ctx context.Context, actor string) Result {
	return s.run(ctx, ActionClockOut, actor, s.clockOut)
}

// Save moves the selected employee's closed session into the ledger
func (s *Service) Save(ctx context.Context, actor string) Result {
	return s.run(ctx, ActionSaveSession, actor, s.save)
}

type transition func(ctx context.Context, sel models.Selection, res *Result) error

// run resolves the employee, serializes on it, retries lost
// compare-and-sets, and audits the outcome whatever it is
func (s *Service) run(ctx context.Context, action Action, actor string, fn transition) (res Result) {
	res = Result{Action: action}

	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("action", action).Errorf("panic during transition: %v", r)
			res = s.fail(res, errors.New(errors.ErrCodeInternal, fmt.Sprintf("unexpected failure: %v", r)))
		}
		s.record(ctx, actor, res)
	}()

	sel, err := s.context.Current(ctx)
	if err != nil {
		return s.fail(res, errors.StoreFailure("read employee context", err))
	}
	if sel.Employee == "" {
		return s.fail(res, errors.New(errors.ErrCodeNoEmployeeSelected, "No employee selected."))
	}
	res.Employee = sel.Employee

	unlock := s.locks.Lock(sel.Employee)
	defer unlock()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn(ctx, sel, &res)
		if err == errRetry {
			s.log.WithFields(logrus.Fields{"action": action, "employee": sel.Employee}).
				Debug("session changed concurrently, re-evaluating")
			continue
		}
		if err != nil {
			return s.fail(res, err)
		}
		res.Status = StatusSuccess
		return res
	}
	return s.fail(res, errors.New(errors.ErrCodeConflict, "The session was changed by another request. Please try again."))
}

func (s *Service) clockIn(ctx context.Context, sel models.Selection, res *Result) error {
	rec, err := s.sessions.Get(ctx, sel.Employee)
	if err != nil {
		return errors.StoreFailure("read session", err)
	}
	if rec.IsOpen() {
		return errors.New(errors.ErrCodeAlreadyClockedIn, fmt.Sprintf(
			"You are already clocked in (since %s). Please clock out first.", s.display(*rec.ClockInAt)))
	}
	if rec.IsClosed() {
		return errors.New(errors.ErrCodePendingSave, fmt.Sprintf(
			"Your session ending at %s has not been saved yet. Please save it first.", s.display(*rec.ClockOutAt)))
	}

	now := s.now()
	next := &models.SessionRecord{ClockInAt: &now}
	// rec is nil here unless a row without a clock-in was left behind; replace it
	ok, err := s.sessions.CompareAndSet(ctx, sel.Employee, rec, next)
	if err != nil {
		return errors.StoreFailure("save session", err)
	}
	if !ok {
		return errRetry
	}

	res.ClockInAt = &now
	res.Message = "Clocked in at " + s.display(now)
	return nil
}

func (s *Service) clockOut(ctx context.Context, sel models.Selection, res *Result) error {
	rec, err := s.sessions.Get(ctx, sel.Employee)
	if err != nil {
		return errors.StoreFailure("read session", err)
	}
	if rec == nil || rec.ClockInAt == nil {
		return errors.New(errors.ErrCodeNotClockedIn, "You must clock in before you can clock out.")
	}
	if rec.ClockOutAt != nil {
		return errors.New(errors.ErrCodeAlreadyClockedOut, fmt.Sprintf(
			"You have already clocked out at %s.", s.display(*rec.ClockOutAt)))
	}

	now := s.now()
	if now.Before(*rec.ClockInAt) {
		// wall clock went backwards; never record negative hours
		s.log.WithField("employee", sel.Employee).Warn("clock-out time precedes clock-in, clamping")
		now = *rec.ClockInAt
	}
	hours := now.Sub(*rec.ClockInAt).Hours()

	next := rec.Clone()
	next.ClockOutAt = &now
	next.TotalHours = &hours
	ok, err := s.sessions.CompareAndSet(ctx, sel.Employee, rec, next)
	if err != nil {
		return errors.StoreFailure("save session", err)
	}
	if !ok {
		return errRetry
	}

	res.ClockInAt = rec.ClockInAt
	res.ClockOutAt = &now
	res.TotalHours = &hours
	res.Message = fmt.Sprintf("Clocked out at %s. Total hours: %.2f", s.display(now), hours)
	return nil
}

func (s *Service) save(ctx context.Context, sel models.Selection, res *Result) error {
	rec, err := s.sessions.Get(ctx, sel.Employee)
	if err != nil {
		return errors.StoreFailure("read session", err)
	}
	if !rec.IsClosed() {
		return errors.New(errors.ErrCodeNotClockedOut, "You must clock out before saving the session.")
	}

	hours := rec.ClockOutAt.Sub(*rec.ClockInAt).Hours()
	if rec.TotalHours != nil {
		hours = *rec.TotalHours
	}

	id, err := s.newSessionID(ctx)
	if err != nil {
		return err
	}

	row := &models.LedgerRow{
		Employee:   sel.Employee,
		Project:    sel.Project,
		ClockInAt:  *rec.ClockInAt,
		ClockOutAt: *rec.ClockOutAt,
		Hours:      hours,
		SessionID:  id,
	}
	if err := s.ledger.Commit(ctx, rec, row, taskEntries(sel, id), draftIDs(sel)); err != nil {
		if stderrors.Is(err, db.ErrConflict) {
			return errRetry
		}
		return errors.StoreFailure("commit session to ledger", err)
	}

	res.ClockInAt = rec.ClockInAt
	res.ClockOutAt = rec.ClockOutAt
	res.TotalHours = &hours
	res.SessionID = id
	res.Message = fmt.Sprintf("Session saved (ID: %d) at %s. Hours: %.2f", id, s.display(s.now()), hours)
	return nil
}

// newSessionID draws short IDs until one is unused in the ledger
func (s *Service) newSessionID(ctx context.Context) (int, error) {
	for i := 0; i < maxSessionIDDraws; i++ {
		id := s.sessionIDs()
		exists, err := s.ledger.SessionIDExists(ctx, id)
		if err != nil {
			return 0, errors.StoreFailure("check session id", err)
		}
		if !exists {
			return id, nil
		}
	}
	return 0, errors.New(errors.ErrCodeSessionIDExhausted, "Could not allocate a free session ID. Please try again.")
}

func randomSessionID() int {
	return minSessionID + rand.IntN(maxSessionID-minSessionID+1)
}

// draftIDs lists the drafts the snapshot saw; drafts added later stay
func draftIDs(sel models.Selection) []uint {
	ids := make([]uint, 0, len(sel.Tasks))
	for _, t := range sel.Tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

// taskEntries keeps the draft tasks that have a description
func taskEntries(sel models.Selection, sessionID int) []models.TaskEntry {
	var tasks []models.TaskEntry
	for _, t := range sel.Tasks {
		desc := strings.TrimSpace(t.Description)
		if desc == "" {
			continue
		}
		tasks = append(tasks, models.TaskEntry{
			Employee:    sel.Employee,
			SessionID:   sessionID,
			Description: desc,
			Notes:       strings.TrimSpace(t.Notes),
		})
	}
	return tasks
}

// fail fills res from a coded error
func (s *Service) fail(res Result, err error) Result {
	res.Err = err
	res.Message = errors.Message(err)
	res.Status = StatusError

	var coded *errors.Error
	if stderrors.As(err, &coded) && coded.IsPrecondition() {
		res.Status = StatusFailed
	}
	if res.Status == StatusError {
		s.log.WithFields(logrus.Fields{"action": res.Action, "employee": res.Employee}).
			WithError(err).Error("transition failed")
	}
	return res
}

func (s *Service) record(ctx context.Context, actor string, res Result) {
	entry := models.AuditEntry{
		Actor:    actor,
		Employee: res.Employee,
		Action:   string(res.Action),
		Status:   string(res.Status),
		Message:  res.Message,
	}
	if res.SessionID != 0 {
		entry.SessionID = strconv.Itoa(res.SessionID)
		entry.Message = fmt.Sprintf("Saved session ID: %d", res.SessionID)
	}
	s.audit.Append(ctx, entry)
}

func (s *Service) display(t time.Time) string {
	return FormatDisplay(t, s.loc)
}
