// Package delegate routes a triggered action either to the local state
// machine, when the caller owns the shared store, or to the relay endpoint
// that runs as the owner.
package delegate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hades-rgb/timesheets/internal/errors"
	"github.com/hades-rgb/timesheets/internal/logging"
	"github.com/hades-rgb/timesheets/internal/timesheet"
)

// Mode is how an action was executed
type Mode string

const (
	ModeDirect  Mode = "direct"
	ModeRelayed Mode = "relayed"
)

// Executor runs transitions in-process
type Executor interface {
	Execute(ctx context.Context, action timesheet.Action, actor string) timesheet.Result
}

// Relay forwards an action name to the owner's endpoint
type Relay interface {
	Send(ctx context.Context, action string) (string, error)
}

// Outcome is what a trigger reports back to its caller
type Outcome struct {
	Status   timesheet.Status
	Message  string
	Mode     Mode
	FellBack bool // direct execution failed and the relay answered instead

	// Result is set when the action ran in-process
	Result *timesheet.Result

	configFailure bool
}

// String renders the one-line "<Status>: <Message>" form
func (o Outcome) String() string {
	return fmt.Sprintf("%s: %s", o.Status, o.Message)
}

// Dispatcher picks direct or relayed execution for each action
type Dispatcher struct {
	owner  string
	caller string
	local  Executor
	relay  Relay
	log    *logrus.Entry
}

// New creates a dispatcher for caller. relay may be nil when this process
// is the owner and has nowhere to forward to.
func New(owner, caller string, local Executor, relay Relay) *Dispatcher {
	return &Dispatcher{
		owner:  strings.TrimSpace(owner),
		caller: strings.TrimSpace(caller),
		local:  local,
		relay:  relay,
		log:    logging.NewLogger("delegate"),
	}
}

// Caller returns the identity actions are attributed to
func (d *Dispatcher) Caller() string {
	return d.caller
}

// IsOwner reports whether caller is the store owner. Identities compare
// exactly; an empty owner matches nobody.
func IsOwner(owner, caller string) bool {
	owner = strings.TrimSpace(owner)
	return owner != "" && owner == strings.TrimSpace(caller)
}

// Mode reports how Dispatch will run actions. It has no side effects.
func (d *Dispatcher) Mode() Mode {
	if d.local != nil && IsOwner(d.owner, d.caller) {
		return ModeDirect
	}
	return ModeRelayed
}

// Dispatch runs action and never returns a raw error
func (d *Dispatcher) Dispatch(ctx context.Context, action timesheet.Action) Outcome {
	if d.Mode() == ModeRelayed {
		return d.relayed(ctx, action)
	}

	res, err := d.runLocal(ctx, action)
	if err == nil && res.Status != timesheet.StatusError {
		return fromResult(res)
	}

	local := fromResult(res)
	if err != nil {
		local = Outcome{
			Status:  timesheet.StatusError,
			Message: "Error executing action: " + err.Error(),
			Mode:    ModeDirect,
		}
	}
	if d.relay == nil {
		return local
	}

	d.log.WithFields(logrus.Fields{"action": action, "cause": local.Message}).
		Warn("direct execution failed, falling back to relay")
	out := d.relayed(ctx, action)
	if out.Status == timesheet.StatusError && out.configFailure {
		// Nothing to fall back to; report what actually went wrong
		return local
	}
	out.FellBack = true
	return out
}

// runLocal executes in-process and turns a panic into an error
func (d *Dispatcher) runLocal(ctx context.Context, action timesheet.Action) (res timesheet.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return d.local.Execute(ctx, action, d.caller), nil
}

func (d *Dispatcher) relayed(ctx context.Context, action timesheet.Action) Outcome {
	if d.relay == nil {
		return Outcome{
			Status:        timesheet.StatusError,
			Message:       errors.RelayNotConfigured().Message,
			Mode:          ModeRelayed,
			configFailure: true,
		}
	}

	text, err := d.relay.Send(ctx, string(action))
	if err != nil {
		code := errors.GetCode(err)
		d.log.WithField("action", action).WithError(err).Error("relay failed")
		return Outcome{
			Status:        timesheet.StatusError,
			Message:       errors.Message(err),
			Mode:          ModeRelayed,
			configFailure: code == errors.ErrCodeRelayNotConfigured || code == errors.ErrCodeConfigInvalid,
		}
	}

	status, message := ParseResponse(text)
	return Outcome{Status: status, Message: message, Mode: ModeRelayed}
}

func fromResult(res timesheet.Result) Outcome {
	return Outcome{
		Status:  res.Status,
		Message: res.Message,
		Mode:    ModeDirect,
		Result:  &res,
	}
}

// ParseResponse splits "<Status>: <Message>". Text without a known status
// prefix is informational.
func ParseResponse(text string) (timesheet.Status, string) {
	text = strings.TrimSpace(text)
	prefix, rest, found := strings.Cut(text, ":")
	if found {
		switch status := timesheet.Status(strings.TrimSpace(prefix)); status {
		case timesheet.StatusSuccess, timesheet.StatusFailed, timesheet.StatusError, timesheet.StatusInfo:
			return status, strings.TrimSpace(rest)
		}
	}
	return timesheet.StatusInfo, text
}
