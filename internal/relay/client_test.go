package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hades-rgb/timesheets/internal/errors"
)

func TestValidateEndpoint(t *testing.T) {
	testCases := []struct {
		name     string
		endpoint string
		code     errors.ErrorCode
	}{
		{"valid https", "https://ts.example.com/exec", ""},
		{"valid http with port", "http://localhost:8080/", ""},
		{"empty", "  ", errors.ErrCodeRelayNotConfigured},
		{"placeholder", "https://host/" + Placeholder, errors.ErrCodeRelayNotConfigured},
		{"no scheme", "ts.example.com/exec", errors.ErrCodeConfigInvalid},
		{"ftp", "ftp://ts.example.com", errors.ErrCodeConfigInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEndpoint(tc.endpoint)
			if tc.code == "" {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tc.code, errors.GetCode(err))
			}
		})
	}
}

func TestSendPostsOnlyTheAction(t *testing.T) {
	var gotMethod, gotActor, gotRequestID string
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotActor = r.Header.Get(ActorHeader)
		gotRequestID = r.Header.Get(RequestIDHeader)
		if assert.NoError(t, r.ParseForm()) {
			gotForm = r.PostForm
		}
		w.Write([]byte("Success: Clocked in at 9:03 AM on 02 Jan 2024\n"))
	}))
	defer srv.Close()

	client := New(srv.URL, "alice@example.com")
	text, err := client.Send(context.Background(), "clockIn")
	require.NoError(t, err)

	assert.Equal(t, "Success: Clocked in at 9:03 AM on 02 Jan 2024", text)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "alice@example.com", gotActor)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, map[string][]string{"action": {"clockIn"}}, gotForm)
}

func TestSendReturnsBodyOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Error: Error executing action: boom"))
	}))
	defer srv.Close()

	text, err := New(srv.URL, "").Send(context.Background(), "clockOut")
	require.NoError(t, err)
	assert.Equal(t, "Error: Error executing action: boom", text)
}

func TestSendEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	text, err := New(srv.URL, "").Send(context.Background(), "clockOut")
	require.NoError(t, err)
	assert.Contains(t, text, "Error: relay answered 502")
}

func TestSendFailsFastWithoutEndpoint(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := New(Placeholder, "").Send(context.Background(), "clockIn")
	assert.True(t, errors.Is(err, errors.ErrCodeRelayNotConfigured))
	assert.False(t, called)
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := New(srv.URL, "", WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := client.Send(context.Background(), "clockIn")
	assert.True(t, errors.Is(err, errors.ErrCodeRelayFailed))
}
