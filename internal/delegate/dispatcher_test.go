package delegate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hades-rgb/timesheets/internal/errors"
	"github.com/hades-rgb/timesheets/internal/relay"
	"github.com/hades-rgb/timesheets/internal/timesheet"
)

// stubExecutor returns a fixed result or panics
type stubExecutor struct {
	result  timesheet.Result
	panics  bool
	calls   int
	actions []timesheet.Action
	actors  []string
}

func (s *stubExecutor) Execute(ctx context.Context, action timesheet.Action, actor string) timesheet.Result {
	s.calls++
	s.actions = append(s.actions, action)
	s.actors = append(s.actors, actor)
	if s.panics {
		panic("sheet locked")
	}
	return s.result
}

// stubRelay answers with fixed text
type stubRelay struct {
	text    string
	err     error
	calls   int
	actions []string
}

func (s *stubRelay) Send(ctx context.Context, action string) (string, error) {
	s.calls++
	s.actions = append(s.actions, action)
	return s.text, s.err
}

func TestModeIsDecidedByIdentity(t *testing.T) {
	local := &stubExecutor{}
	testCases := []struct {
		name   string
		owner  string
		caller string
		want   Mode
	}{
		{"owner", "boss@example.com", "boss@example.com", ModeDirect},
		{"owner different case", "Boss@Example.com", "boss@example.com", ModeRelayed},
		{"other user", "boss@example.com", "alice@example.com", ModeRelayed},
		{"no owner configured", "", "", ModeRelayed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := New(tc.owner, tc.caller, local, nil)
			assert.Equal(t, tc.want, d.Mode())
			assert.Equal(t, tc.want, d.Mode())
		})
	}
	assert.Zero(t, local.calls, "Mode must not execute anything")
}

func TestIsOwner(t *testing.T) {
	assert.True(t, IsOwner("boss", "boss"))
	assert.True(t, IsOwner(" boss", "boss "))
	assert.False(t, IsOwner("Boss", "boss"))
	assert.False(t, IsOwner("", ""))
	assert.False(t, IsOwner("boss", "alice"))
}

func TestModeNeedsLocalExecutor(t *testing.T) {
	d := New("boss", "boss", nil, &stubRelay{})
	assert.Equal(t, ModeRelayed, d.Mode())
}

func TestDirectDispatch(t *testing.T) {
	local := &stubExecutor{result: timesheet.Result{Status: timesheet.StatusSuccess, Message: "Clocked in at 9:00 AM on 02 Jan 2024"}}
	remote := &stubRelay{}
	d := New("boss", "boss", local, remote)

	out := d.Dispatch(context.Background(), timesheet.ActionClockIn)
	assert.Equal(t, "Success: Clocked in at 9:00 AM on 02 Jan 2024", out.String())
	assert.Equal(t, ModeDirect, out.Mode)
	assert.False(t, out.FellBack)
	require.NotNil(t, out.Result)
	assert.Equal(t, []string{"boss"}, local.actors)
	assert.Zero(t, remote.calls)
}

func TestDirectPreconditionFailureDoesNotFallBack(t *testing.T) {
	local := &stubExecutor{result: timesheet.Result{Status: timesheet.StatusFailed, Message: "No employee selected."}}
	remote := &stubRelay{text: "Success: should not happen"}
	d := New("boss", "boss", local, remote)

	out := d.Dispatch(context.Background(), timesheet.ActionClockIn)
	assert.Equal(t, timesheet.StatusFailed, out.Status)
	assert.Zero(t, remote.calls)
}

func TestRelayedDispatchSendsOnlyTheAction(t *testing.T) {
	local := &stubExecutor{}
	remote := &stubRelay{text: "Success: Clocked out at 5:30 PM on 02 Jan 2024. Total hours: 8.50"}
	d := New("boss", "alice", local, remote)

	out := d.Dispatch(context.Background(), timesheet.ActionClockOut)
	assert.Equal(t, timesheet.StatusSuccess, out.Status)
	assert.Equal(t, "Clocked out at 5:30 PM on 02 Jan 2024. Total hours: 8.50", out.Message)
	assert.Equal(t, ModeRelayed, out.Mode)
	assert.Nil(t, out.Result)
	assert.Equal(t, []string{"clockOut"}, remote.actions)
	assert.Zero(t, local.calls)
}

func TestFallbackOnPanic(t *testing.T) {
	local := &stubExecutor{panics: true}
	remote := &stubRelay{text: "Success: Session saved (ID: 1234)"}
	d := New("boss", "boss", local, remote)

	var out Outcome
	assert.NotPanics(t, func() { out = d.Dispatch(context.Background(), timesheet.ActionSaveSession) })
	assert.Equal(t, timesheet.StatusSuccess, out.Status)
	assert.Equal(t, ModeRelayed, out.Mode)
	assert.True(t, out.FellBack)
	assert.Equal(t, 1, remote.calls)
}

func TestFallbackOnErrorResult(t *testing.T) {
	local := &stubExecutor{result: timesheet.Result{Status: timesheet.StatusError, Message: "failed to read session"}}
	remote := &stubRelay{text: "Failed: You must clock in before you can clock out."}
	d := New("boss", "boss", local, remote)

	out := d.Dispatch(context.Background(), timesheet.ActionClockOut)
	assert.Equal(t, timesheet.StatusFailed, out.Status)
	assert.True(t, out.FellBack)
}

func TestPanicWithoutRelayIsStructured(t *testing.T) {
	d := New("boss", "boss", &stubExecutor{panics: true}, nil)

	out := d.Dispatch(context.Background(), timesheet.ActionClockIn)
	assert.Equal(t, timesheet.StatusError, out.Status)
	assert.Equal(t, "Error executing action: sheet locked", out.Message)
	assert.Equal(t, ModeDirect, out.Mode)
}

func TestFallbackWithUnconfiguredRelayKeepsLocalError(t *testing.T) {
	local := &stubExecutor{result: timesheet.Result{Status: timesheet.StatusError, Message: "failed to read session"}}
	d := New("boss", "boss", local, relay.New("", "boss"))

	out := d.Dispatch(context.Background(), timesheet.ActionClockOut)
	assert.Equal(t, timesheet.StatusError, out.Status)
	assert.Equal(t, "failed to read session", out.Message)
	assert.False(t, out.FellBack)
}

func TestRelayedWithoutEndpointFailsFast(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	d := New("boss", "alice", &stubExecutor{}, relay.New(relay.Placeholder, "alice"))
	out := d.Dispatch(context.Background(), timesheet.ActionClockIn)
	assert.Equal(t, timesheet.StatusError, out.Status)
	assert.Equal(t, errors.RelayNotConfigured().Message, out.Message)
	assert.False(t, called)

	out = New("boss", "alice", &stubExecutor{}, nil).Dispatch(context.Background(), timesheet.ActionClockIn)
	assert.Equal(t, timesheet.StatusError, out.Status)
}

func TestRelayTransportError(t *testing.T) {
	remote := &stubRelay{err: errors.RelayFailed(assert.AnError)}
	d := New("boss", "alice", &stubExecutor{}, remote)

	out := d.Dispatch(context.Background(), timesheet.ActionClockIn)
	assert.Equal(t, timesheet.StatusError, out.Status)
	assert.Contains(t, out.Message, "relay request failed")
}

func TestRelayedOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice", r.Header.Get(relay.ActorHeader))
		w.Write([]byte("Success: Clocked in at 9:03 AM on 02 Jan 2024"))
	}))
	defer srv.Close()

	d := New("boss", "alice", nil, relay.New(srv.URL, "alice"))
	out := d.Dispatch(context.Background(), timesheet.ActionClockIn)
	assert.Equal(t, "Success: Clocked in at 9:03 AM on 02 Jan 2024", out.String())
}

func TestParseResponse(t *testing.T) {
	testCases := []struct {
		text    string
		status  timesheet.Status
		message string
	}{
		{"Success: Clocked in", timesheet.StatusSuccess, "Clocked in"},
		{"Failed: No employee selected.", timesheet.StatusFailed, "No employee selected."},
		{"Error: Error executing action: boom", timesheet.StatusError, "Error executing action: boom"},
		{"Info: nothing to do", timesheet.StatusInfo, "nothing to do"},
		{"Timesheets service is active and ready.", timesheet.StatusInfo, "Timesheets service is active and ready."},
		{"Note: 5:30 PM", timesheet.StatusInfo, "Note: 5:30 PM"},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			status, message := ParseResponse(tc.text)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.message, message)
		})
	}
}
