package errors

import "fmt"

// StoreFailure wraps a persistence error
func StoreFailure(op string, err error) *Error {
	return Wrap(err, ErrCodeStoreFailure, fmt.Sprintf("failed to %s: %v", op, err))
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// RelayNotConfigured is returned when the relay endpoint is missing or still a placeholder
func RelayNotConfigured() *Error {
	return New(ErrCodeRelayNotConfigured, "Please set relay_url in the configuration to the deployed service URL.")
}

// RelayFailed wraps a transport failure talking to the relay endpoint
func RelayFailed(err error) *Error {
	return Wrap(err, ErrCodeRelayFailed, fmt.Sprintf("relay request failed: %v", err))
}
