package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonitorType(t *testing.T) {
	tests := []struct {
		name string
		want MonitorType
		err  bool
	}{
		{"", SystemDefaultMonitor, false},
		{"default", SystemDefaultMonitor, false},
		{"Inotify", InotifyMonitor, false},
		{" poll ", PollMonitor, false},
		{"fsevents", FSEventsMonitor, false},
		{"epoll", SystemDefaultMonitor, true},
	}
	for _, tt := range tests {
		got, err := ParseMonitorType(tt.name)
		if tt.err {
			assert.Error(t, err, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	for _, mt := range MonitorTypes {
		got, err := ParseMonitorType(mt.String())
		require.NoError(t, err)
		assert.Equal(t, mt, got)
	}
	assert.Equal(t, "monitor(42)", MonitorType(42).String())
}

func TestParseEventFlag(t *testing.T) {
	for _, f := range AllFlags {
		got, err := ParseEventFlag(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseEventFlag("Exploded")
	assert.Error(t, err)
	assert.Equal(t, "0x4000", EventFlag(1<<14).String())
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "OK", OK.String())
	assert.Equal(t, "invalid regex", ErrInvalidRegex.String())
	assert.True(t, ErrInvalidProperty.Known())
	assert.False(t, Status(1<<20).Known())
	assert.Contains(t, Status(1<<20).String(), "1048576")
}
