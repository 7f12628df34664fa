package fsw

import (
	"errors"
	"fmt"

	"github.com/dominicbreuker/fsw/native"
)

var (
	// ErrNotInitialized is returned when a session is created before InitLibrary succeeded.
	ErrNotInitialized = errors.New("library not initialized")
	// ErrInit is returned when the native library fails to initialize.
	ErrInit = errors.New("library initialization failed")
	// ErrInvalidHandle is returned by every operation on a closed session.
	ErrInvalidHandle = errors.New("invalid session handle")
	// ErrPath is returned when a path is rejected.
	ErrPath = errors.New("invalid path")
	// ErrNotConfigured is returned when required configuration is missing or invalid.
	ErrNotConfigured = errors.New("session not configured")
	// ErrAlreadyMonitoring is returned when a session is reconfigured or restarted after StartMonitor.
	ErrAlreadyMonitoring = errors.New("monitor already started")
	// ErrMonitor is returned when the native monitor loop terminates abnormally.
	ErrMonitor = errors.New("monitor failed")
	// ErrEncoding is returned when a native event record cannot be decoded.
	ErrEncoding = errors.New("invalid event encoding")
)

// StatusError carries the status code reported by the native library.
type StatusError struct {
	Op     string
	Status native.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

// statusKind maps a native status to the error kind callers match against.
func statusKind(status native.Status) error {
	switch status {
	case native.ErrInvalidPath, native.ErrPathsNotSet:
		return ErrPath
	case native.ErrSessionUnknown:
		return ErrInvalidHandle
	case native.ErrMonitorAlreadyRunning, native.ErrMonitorAlreadyExists:
		return ErrAlreadyMonitoring
	case native.ErrCallbackNotSet, native.ErrInvalidCallback, native.ErrMissingContext,
		native.ErrInvalidLatency, native.ErrInvalidRegex, native.ErrInvalidProperty,
		native.ErrUnknownValue, native.ErrUnknownMonitorType:
		return ErrNotConfigured
	default:
		return ErrMonitor
	}
}

// checkStatus turns a non-OK native status into an error wrapping both the
// kind and the StatusError.
func checkStatus(op string, status native.Status) error {
	if status == native.OK {
		return nil
	}
	return fmt.Errorf("%w: %w", statusKind(status), &StatusError{Op: op, Status: status})
}

// Status extracts the native status from err, if any.
func Status(err error) (native.Status, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, true
	}
	return native.OK, false
}
