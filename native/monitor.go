package native

import (
	"fmt"
	"strings"
)

// MonitorType is a libfswatch fsw_monitor_type value.
type MonitorType int32

const (
	SystemDefaultMonitor MonitorType = iota
	FSEventsMonitor
	KQueueMonitor
	InotifyMonitor
	WindowsMonitor
	PollMonitor
	FenMonitor
)

// MonitorTypes lists every monitor type in enum order.
var MonitorTypes = []MonitorType{
	SystemDefaultMonitor,
	FSEventsMonitor,
	KQueueMonitor,
	InotifyMonitor,
	WindowsMonitor,
	PollMonitor,
	FenMonitor,
}

var monitorNames = map[MonitorType]string{
	SystemDefaultMonitor: "default",
	FSEventsMonitor:      "fsevents",
	KQueueMonitor:        "kqueue",
	InotifyMonitor:       "inotify",
	WindowsMonitor:       "windows",
	PollMonitor:          "poll",
	FenMonitor:           "fen",
}

func (t MonitorType) String() string {
	name, ok := monitorNames[t]
	if !ok {
		return fmt.Sprintf("monitor(%d)", int32(t))
	}
	return name
}

// ParseMonitorType accepts the names printed by String, case-insensitively.
func ParseMonitorType(name string) (MonitorType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return SystemDefaultMonitor, nil
	}
	for t, n := range monitorNames {
		if n == name {
			return t, nil
		}
	}
	return SystemDefaultMonitor, fmt.Errorf("unknown monitor type %q", name)
}
