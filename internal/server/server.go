// Package server exposes the state machine over HTTP. It runs as the store
// owner and is the endpoint relayed actions arrive at.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hades-rgb/timesheets/internal/delegate"
	"github.com/hades-rgb/timesheets/internal/logging"
	"github.com/hades-rgb/timesheets/internal/models"
	"github.com/hades-rgb/timesheets/internal/relay"
	"github.com/hades-rgb/timesheets/internal/timesheet"
)

const (
	// ReadyMessage answers plain GET requests
	ReadyMessage = "Timesheets service is active and ready."

	// ExternalActor is recorded when a request names no actor
	ExternalActor = "External User"

	shutdownTimeout = 5 * time.Second
)

// AuditLog records requests that blew up before the state machine could
type AuditLog interface {
	Append(ctx context.Context, entry models.AuditEntry)
}

// Handler serves GET (readiness) and POST action=... (transitions)
type Handler struct {
	exec  delegate.Executor
	audit AuditLog
	log   *logrus.Entry
}

// NewHandler creates the trigger handler
func NewHandler(exec delegate.Executor, audit AuditLog) *Handler {
	return &Handler{
		exec:  exec,
		audit: audit,
		log:   logging.NewLogger("server"),
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		writeText(w, http.StatusOK, ReadyMessage)
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		writeText(w, http.StatusMethodNotAllowed, "Error: method not allowed")
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Error: malformed request: "+err.Error())
		return
	}

	name := r.Form.Get("action")
	actor := r.Header.Get(relay.ActorHeader)
	if actor == "" {
		actor = ExternalActor
	}

	action, ok := timesheet.ActionFromWire(name)
	if !ok {
		writeText(w, http.StatusOK, fmt.Sprintf("%s: %s", timesheet.StatusInfo, timesheet.IdleMessage))
		return
	}

	res, err := h.execute(r.Context(), action, actor)
	if err != nil {
		msg := "Error executing action: " + err.Error()
		h.log.WithFields(logrus.Fields{"action": action, "actor": actor}).Error(msg)
		h.audit.Append(r.Context(), models.AuditEntry{
			Actor:   actor,
			Action:  string(action),
			Status:  string(timesheet.StatusError),
			Message: msg,
		})
		writeText(w, http.StatusInternalServerError, fmt.Sprintf("%s: %s", timesheet.StatusError, msg))
		return
	}

	writeText(w, http.StatusOK, res.String())
}

func (h *Handler) execute(ctx context.Context, action timesheet.Action, actor string) (res timesheet.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return h.exec.Execute(ctx, action, actor), nil
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprint(w, text)
}

// Run serves handler on addr until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, addr string, handler http.Handler) error {
	log := logging.NewLogger("server")
	srv := &http.Server{
		Addr:              addr,
		Handler:           WithRequestLogging(handler, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
