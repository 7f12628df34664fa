//go:build libfswatch && cgo

// Package libfswatch binds native.Library to the libfswatch C library.
//
// It targets the libfswatch releases whose FSW_HANDLE is an integer.
package libfswatch

/*
#cgo LDFLAGS: -lfswatch
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
#include <libfswatch/c/libfswatch.h>

extern void fswGoCallback(fsw_cevent *events, unsigned int event_num, void *data);

static FSW_STATUS fsw_set_go_callback(FSW_HANDLE handle, uintptr_t data) {
	return fsw_set_callback(handle, (FSW_CEVENT_CALLBACK)fswGoCallback, (void *)data);
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/dominicbreuker/fsw/native"
)

type registration struct {
	cb   native.Callback
	data uintptr
}

// callbacks routes C callbacks by handle. The handle is what libfswatch
// hands back as the context pointer.
var callbacks = struct {
	sync.RWMutex
	m map[native.Handle]registration
}{m: make(map[native.Handle]registration)}

// Library calls into libfswatch.
type Library struct{}

var _ native.Library = Library{}

func New() Library {
	return Library{}
}

func handle(h native.Handle) C.FSW_HANDLE {
	return C.FSW_HANDLE(h)
}

func status(s C.FSW_STATUS) native.Status {
	return native.Status(s)
}

func (Library) Init() native.Status {
	return status(C.fsw_init_library())
}

func (Library) InitSession(monitorType native.MonitorType) native.Handle {
	return native.Handle(int32(C.fsw_init_session(C.enum_fsw_monitor_type(monitorType))))
}

func (Library) AddPath(h native.Handle, path string) native.Status {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	return status(C.fsw_add_path(handle(h), cpath))
}

func (Library) AddProperty(h native.Handle, name string, value string) native.Status {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	cvalue := C.CString(value)
	defer C.free(unsafe.Pointer(cvalue))
	return status(C.fsw_add_property(handle(h), cname, cvalue))
}

func (Library) SetAllowOverflow(h native.Handle, allow bool) native.Status {
	return status(C.fsw_set_allow_overflow(handle(h), C.bool(allow)))
}

func (Library) SetCallback(h native.Handle, cb native.Callback, data uintptr) native.Status {
	if cb == nil {
		return native.ErrInvalidCallback
	}
	s := status(C.fsw_set_go_callback(handle(h), C.uintptr_t(h)))
	if s != native.OK {
		return s
	}
	callbacks.Lock()
	callbacks.m[h] = registration{cb: cb, data: data}
	callbacks.Unlock()
	return native.OK
}

func (Library) SetLatency(h native.Handle, seconds float64) native.Status {
	return status(C.fsw_set_latency(handle(h), C.double(seconds)))
}

func (Library) SetRecursive(h native.Handle, recursive bool) native.Status {
	return status(C.fsw_set_recursive(handle(h), C.bool(recursive)))
}

func (Library) SetDirectoryOnly(h native.Handle, directoryOnly bool) native.Status {
	return status(C.fsw_set_directory_only(handle(h), C.bool(directoryOnly)))
}

func (Library) SetFollowSymlinks(h native.Handle, follow bool) native.Status {
	return status(C.fsw_set_follow_symlinks(handle(h), C.bool(follow)))
}

func (Library) AddEventTypeFilter(h native.Handle, flag native.EventFlag) native.Status {
	filter := C.fsw_event_type_filter{flag: C.enum_fsw_event_flag(flag)}
	return status(C.fsw_add_event_type_filter(handle(h), filter))
}

func (Library) AddFilter(h native.Handle, f native.Filter) native.Status {
	text := C.CString(f.Text)
	defer C.free(unsafe.Pointer(text))
	filter := C.fsw_cmonitor_filter{
		text:           text,
		_type:          C.enum_fsw_filter_type(f.Type),
		case_sensitive: C.bool(f.CaseSensitive),
		extended:       C.bool(f.Extended),
	}
	return status(C.fsw_add_filter(handle(h), filter))
}

func (Library) StartMonitor(h native.Handle) native.Status {
	return status(C.fsw_start_monitor(handle(h)))
}

func (Library) StopMonitor(h native.Handle) native.Status {
	return status(C.fsw_stop_monitor(handle(h)))
}

func (Library) IsRunning(h native.Handle) bool {
	return bool(C.fsw_is_running(handle(h)))
}

func (Library) DestroySession(h native.Handle) native.Status {
	s := status(C.fsw_destroy_session(handle(h)))
	if s == native.OK {
		callbacks.Lock()
		delete(callbacks.m, h)
		callbacks.Unlock()
	}
	return s
}

func (Library) LastError() native.Status {
	return status(C.fsw_last_error())
}

func (Library) IsVerbose() bool {
	return bool(C.fsw_is_verbose())
}

func (Library) SetVerbose(verbose bool) {
	C.fsw_set_verbose(C.bool(verbose))
}

// records copies a C event array into Go memory.
func records(events *C.fsw_cevent, n C.uint) []native.Record {
	if events == nil || n == 0 {
		return nil
	}
	out := make([]native.Record, 0, int(n))
	for _, ev := range unsafe.Slice(events, int(n)) {
		rec := native.Record{Time: int64(ev.evt_time)}
		if ev.path != nil {
			rec.Path = C.GoBytes(unsafe.Pointer(ev.path), C.int(C.strlen(ev.path)))
		}
		if ev.flags != nil && ev.flags_num > 0 {
			for _, f := range unsafe.Slice(ev.flags, int(ev.flags_num)) {
				rec.Flags = append(rec.Flags, native.EventFlag(f))
			}
		}
		out = append(out, rec)
	}
	return out
}

func deliver(events *C.fsw_cevent, n C.uint, key uintptr) {
	callbacks.RLock()
	reg, ok := callbacks.m[native.Handle(key)]
	callbacks.RUnlock()
	if !ok {
		return
	}
	reg.cb(records(events, n), reg.data)
}
