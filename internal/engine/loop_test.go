package engine

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominicbreuker/fsw/native"
)

// overflowDriver reports a single queue overflow and then stays idle.
type overflowDriver struct{}

func (overflowDriver) name() string { return "overflow" }
func (overflowDriver) start(cfg *monitorConfig) error { return nil }
func (overflowDriver) close() error { return nil }

func (overflowDriver) run(ctx context.Context, out chan<- change) error {
	emit(ctx, out, change{flags: []native.EventFlag{native.Overflow}})
	<-ctx.Done()
	return nil
}

func withOverflowDriver(t *testing.T) {
	t.Helper()
	prev := drivers[native.PollMonitor]
	drivers[native.PollMonitor] = func(logrus.FieldLogger) driver { return overflowDriver{} }
	t.Cleanup(func() { drivers[native.PollMonitor] = prev })
}

func TestOverflow(t *testing.T) {
	tests := []struct {
		name          string
		eventTypes    []native.EventFlag
		allowOverflow bool
		status        native.Status
		delivered     bool
	}{
		{name: "fails", status: native.ErrUnknownError},
		{name: "fails-with-event-filter", eventTypes: []native.EventFlag{native.Created}, status: native.ErrUnknownError},
		{name: "allowed", allowOverflow: true, status: native.OK, delivered: true},
		{name: "allowed-but-filtered", eventTypes: []native.EventFlag{native.Created}, allowOverflow: true, status: native.OK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withOverflowDriver(t)

			e := newEngine(t)
			r := newRecorder()
			h := e.InitSession(native.PollMonitor)
			require.NotEqual(t, native.InvalidHandle, h)
			require.Equal(t, native.OK, e.AddPath(h, t.TempDir()))
			require.Equal(t, native.OK, e.SetLatency(h, 0))
			require.Equal(t, native.OK, e.SetAllowOverflow(h, tt.allowOverflow))
			for _, f := range tt.eventTypes {
				require.Equal(t, native.OK, e.AddEventTypeFilter(h, f))
			}
			require.Equal(t, native.OK, e.SetCallback(h, r.callback, 0))

			done := make(chan native.Status, 1)
			go func() {
				done <- e.StartMonitor(h)
			}()

			if tt.status != native.OK {
				select {
				case status := <-done:
					assert.Equal(t, tt.status, status)
				case <-time.After(timeout):
					t.Fatalf("Timeout: monitor kept running after overflow")
				}
				assert.Equal(t, tt.status, e.LastError())
				assert.Equal(t, native.OK, e.DestroySession(h))
				return
			}

			if tt.delivered {
				require.Eventually(t, func() bool { return r.find("", native.Overflow) }, timeout, 5*time.Millisecond)
			} else {
				require.Eventually(t, func() bool { return e.IsRunning(h) }, timeout, 5*time.Millisecond)
				time.Sleep(50 * time.Millisecond)
				r.mu.Lock()
				assert.Empty(t, r.batches)
				r.mu.Unlock()
			}
			stopMonitor(t, e, h, done)
		})
	}
}
