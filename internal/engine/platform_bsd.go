//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package engine

import (
	"github.com/dominicbreuker/fsw/native"
)

func init() {
	drivers[native.KQueueMonitor] = newFsnotify
	defaultMonitors = []native.MonitorType{native.KQueueMonitor}
}
