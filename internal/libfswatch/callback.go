//go:build libfswatch && cgo

package libfswatch

/*
#include <libfswatch/c/libfswatch.h>
*/
import "C"

import (
	"unsafe"
)

//export fswGoCallback
func fswGoCallback(events *C.fsw_cevent, n C.uint, data unsafe.Pointer) {
	deliver(events, n, uintptr(data))
}
