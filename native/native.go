// Package native describes the handle-based C ABI of libfswatch as a Go
// interface. Every method maps to exactly one libfswatch function; values
// (status codes, flags, monitor types) use the libfswatch bit layout so a cgo
// binding can pass them through unchanged.
package native

import (
	"fmt"
)

// Handle identifies one monitoring session inside the native library.
//
// libfswatch declares FSW_HANDLE unsigned but returns -1 on failure, so it is
// modelled as a signed int.
type Handle int32

// InvalidHandle is returned by InitSession on failure.
const InvalidHandle Handle = -1

// Status is a libfswatch FSW_STATUS value.
type Status int32

// Status codes as defined by libfswatch/c/error.h.
const (
	OK                       Status = 0
	ErrUnknownError          Status = 1 << 0
	ErrSessionUnknown        Status = 1 << 1
	ErrMonitorAlreadyExists  Status = 1 << 2
	ErrMemory                Status = 1 << 3
	ErrUnknownMonitorType    Status = 1 << 4
	ErrCallbackNotSet        Status = 1 << 5
	ErrPathsNotSet           Status = 1 << 6
	ErrMissingContext        Status = 1 << 7
	ErrInvalidPath           Status = 1 << 8
	ErrInvalidCallback       Status = 1 << 9
	ErrInvalidLatency        Status = 1 << 10
	ErrInvalidRegex          Status = 1 << 11
	ErrMonitorAlreadyRunning Status = 1 << 12
	ErrUnknownValue          Status = 1 << 13
	ErrInvalidProperty       Status = 1 << 14
)

var statusNames = map[Status]string{
	OK:                       "OK",
	ErrUnknownError:          "unknown error",
	ErrSessionUnknown:        "session unknown",
	ErrMonitorAlreadyExists:  "monitor already exists",
	ErrMemory:                "memory error",
	ErrUnknownMonitorType:    "unknown monitor type",
	ErrCallbackNotSet:        "callback not set",
	ErrPathsNotSet:           "paths not set",
	ErrMissingContext:        "missing context",
	ErrInvalidPath:           "invalid path",
	ErrInvalidCallback:       "invalid callback",
	ErrInvalidLatency:        "invalid latency",
	ErrInvalidRegex:          "invalid regex",
	ErrMonitorAlreadyRunning: "monitor already running",
	ErrUnknownValue:          "unknown value",
	ErrInvalidProperty:       "invalid property",
}

// Known reports whether s is one of the documented status codes.
func (s Status) Known() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	name, ok := statusNames[s]
	if !ok {
		return fmt.Sprintf("status(%d)", int32(s))
	}
	return name
}

// FilterType selects whether a path filter includes or excludes matches.
type FilterType int32

const (
	FilterInclude FilterType = iota
	FilterExclude
)

func (t FilterType) String() string {
	switch t {
	case FilterInclude:
		return "include"
	case FilterExclude:
		return "exclude"
	default:
		return fmt.Sprintf("filter(%d)", int32(t))
	}
}

// Filter mirrors fsw_cmonitor_filter.
type Filter struct {
	Text          string
	Type          FilterType
	CaseSensitive bool
	Extended      bool
}

// Record mirrors fsw_cevent: the path as raw bytes (no trailing NUL), the
// time_t of the event and the flags attached to it.
type Record struct {
	Path  []byte
	Time  int64
	Flags []EventFlag
}

// Callback mirrors FSW_CEVENT_CALLBACK. data is the opaque context value that
// was registered together with the callback.
type Callback func(records []Record, data uintptr)

// Library is the libfswatch C API.
//
// Implementations follow the libfswatch contract: a handle is used by one
// goroutine at a time, StartMonitor blocks until the monitor stops, and the
// callback may be invoked from a goroutine or OS thread owned by the
// implementation.
type Library interface {
	Init() Status
	InitSession(monitorType MonitorType) Handle
	AddPath(h Handle, path string) Status
	AddProperty(h Handle, name string, value string) Status
	SetAllowOverflow(h Handle, allow bool) Status
	SetCallback(h Handle, cb Callback, data uintptr) Status
	SetLatency(h Handle, seconds float64) Status
	SetRecursive(h Handle, recursive bool) Status
	SetDirectoryOnly(h Handle, directoryOnly bool) Status
	SetFollowSymlinks(h Handle, follow bool) Status
	AddEventTypeFilter(h Handle, flag EventFlag) Status
	AddFilter(h Handle, filter Filter) Status
	StartMonitor(h Handle) Status
	StopMonitor(h Handle) Status
	IsRunning(h Handle) bool
	DestroySession(h Handle) Status
	LastError() Status
	IsVerbose() bool
	SetVerbose(verbose bool)
}
