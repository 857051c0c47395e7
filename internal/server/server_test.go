package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hades-rgb/timesheets/internal/db"
	"github.com/hades-rgb/timesheets/internal/delegate"
	"github.com/hades-rgb/timesheets/internal/models"
	"github.com/hades-rgb/timesheets/internal/relay"
	"github.com/hades-rgb/timesheets/internal/timesheet"
)

type env struct {
	srv       *httptest.Server
	dashboard *db.Dashboard
	ledger    *db.Ledger
	audit     *db.AuditLog
	now       time.Time
	mu        sync.Mutex
}

func (e *env) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *env) set(t time.Time) {
	e.mu.Lock()
	e.now = t
	e.mu.Unlock()
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	e := &env{
		dashboard: db.NewDashboard(gdb),
		ledger:    db.NewLedger(gdb),
		audit:     db.NewAuditLog(gdb),
		now:       time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
	}
	svc := timesheet.NewService(db.NewSessionStore(gdb), e.ledger, e.audit, e.dashboard,
		timesheet.WithClock(e.clock))
	e.srv = httptest.NewServer(NewHandler(svc, e.audit))
	t.Cleanup(e.srv.Close)
	return e
}

func post(t *testing.T, target string, form url.Values, actor string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if actor != "" {
		req.Header.Set(relay.ActorHeader, actor)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

func TestGetIsReadiness(t *testing.T) {
	e := newEnv(t)
	res, err := http.Get(e.srv.URL + "/?action=clockIn")
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, ReadyMessage, string(body))
	assert.Equal(t, "text/plain; charset=utf-8", res.Header.Get("Content-Type"))

	entries, err := e.audit.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries, "GET must not mutate state")
}

func TestPostUnknownActionIsInfo(t *testing.T) {
	e := newEnv(t)
	for _, form := range []url.Values{{}, {"action": {"dance"}}} {
		status, body := post(t, e.srv.URL, form, "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Info: "+timesheet.IdleMessage, body)
	}
}

func TestPostOnlyExactActionNames(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.dashboard.Select(ctx, "Alice", "Website"))

	for _, name := range []string{"save", "in", "out", "CLOCK_IN", "clock-in", "clockin", "SaveSession"} {
		status, body := post(t, e.srv.URL, url.Values{"action": {name}}, "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Info: "+timesheet.IdleMessage, body, name)
	}

	entries, err := e.audit.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries, "aliases must not reach the state machine")

	_, body := post(t, e.srv.URL, url.Values{"action": {"clockIn"}}, "")
	assert.True(t, strings.HasPrefix(body, "Success: Clocked in"), body)
}

func TestPostWithoutEmployee(t *testing.T) {
	e := newEnv(t)
	status, body := post(t, e.srv.URL, url.Values{"action": {"clockIn"}}, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Failed: No employee selected.", body)

	entries, err := e.audit.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ExternalActor, entries[0].Actor)
}

func TestPostFullCycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.dashboard.Select(ctx, "Alice", "Website"))

	_, body := post(t, e.srv.URL, url.Values{"action": {"clockIn"}}, "alice@example.com")
	assert.Equal(t, "Success: Clocked in at 9:00 AM on 02 Jan 2024", body)

	e.set(time.Date(2024, 1, 2, 17, 30, 0, 0, time.UTC))
	_, body = post(t, e.srv.URL+"?action=clockOut", url.Values{}, "alice@example.com")
	assert.Equal(t, "Success: Clocked out at 5:30 PM on 02 Jan 2024. Total hours: 8.50", body)

	_, body = post(t, e.srv.URL, url.Values{"action": {"saveSession"}}, "alice@example.com")
	assert.True(t, strings.HasPrefix(body, "Success: Session saved (ID: "), body)

	rows, err := e.ledger.Rows(ctx, "Alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 8.5, rows[0].Hours, 1e-9)
}

func TestRelayedCallerEndToEnd(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	require.NoError(t, e.dashboard.Select(ctx, "Alice", "Website"))

	// alice is not the owner, so every action goes over HTTP
	d := delegate.New("boss@example.com", "alice@example.com", nil, relay.New(e.srv.URL, "alice@example.com"))
	require.Equal(t, delegate.ModeRelayed, d.Mode())

	out := d.Dispatch(ctx, timesheet.ActionClockIn)
	assert.Equal(t, timesheet.StatusSuccess, out.Status)
	assert.Equal(t, delegate.ModeRelayed, out.Mode)

	out = d.Dispatch(ctx, timesheet.ActionClockIn)
	assert.Equal(t, timesheet.StatusFailed, out.Status)
	assert.Contains(t, out.Message, "already clocked in")

	entries, err := e.audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, "alice@example.com", entry.Actor)
	}
}

// explodingExecutor panics on every call
type explodingExecutor struct{}

func (explodingExecutor) Execute(ctx context.Context, action timesheet.Action, actor string) timesheet.Result {
	panic("sheet missing")
}

// memoryAudit keeps entries in a slice
type memoryAudit struct {
	entries []models.AuditEntry
}

func (m *memoryAudit) Append(ctx context.Context, entry models.AuditEntry) {
	m.entries = append(m.entries, entry)
}

func TestPanicIsReportedAndAudited(t *testing.T) {
	audit := &memoryAudit{}
	srv := httptest.NewServer(NewHandler(explodingExecutor{}, audit))
	defer srv.Close()

	status, body := post(t, srv.URL, url.Values{"action": {"clockOut"}}, "bob")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Error: Error executing action: sheet missing", body)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "clockOut", audit.entries[0].Action)
	assert.Equal(t, "Error", audit.entries[0].Status)
	assert.Equal(t, "bob", audit.entries[0].Actor)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := httptest.NewServer(NewHandler(explodingExecutor{}, &memoryAudit{}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL, nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	handler := WithRequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), logger.WithField("component", "test"))

	req := httptest.NewRequest(http.MethodPost, "/exec", nil)
	req.Header.Set(relay.RequestIDHeader, "req-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"path":"/exec"`)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", NewHandler(explodingExecutor{}, &memoryAudit{}))
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
