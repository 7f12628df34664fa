//go:build windows

package engine

import (
	"github.com/dominicbreuker/fsw/native"
)

func init() {
	drivers[native.WindowsMonitor] = newFsnotify
	defaultMonitors = []native.MonitorType{native.WindowsMonitor}
}
