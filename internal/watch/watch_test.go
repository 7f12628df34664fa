package watch

import (
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominicbreuker/fsw"
	"github.com/dominicbreuker/fsw/internal/config"
	"github.com/dominicbreuker/fsw/internal/logging"
	"github.com/dominicbreuker/fsw/internal/nativetest"
	"github.com/dominicbreuker/fsw/native"
)

func newLibrary(t *testing.T) (*fsw.Library, *nativetest.Library) {
	t.Helper()
	fake := nativetest.New()
	lib := fsw.NewLibrary(fake)
	require.NoError(t, lib.Init())
	return lib, fake
}

func TestStart(t *testing.T) {
	lib, fake := newLibrary(t)
	fake.Block = true
	fake.Batches = [][]native.Record{{
		{Path: []byte("./a.txt"), Flags: []native.EventFlag{native.Created, native.IsFile}},
		{Path: []byte("./b.txt"), Flags: []native.EventFlag{native.Removed}},
	}}

	cfg := config.Default()
	cfg.Color = false
	cfg.Exclude = []string{`\.swp$`}
	cfg.Properties = map[string]string{"k": "v"}
	mockLogger := newMockLogger()
	sigCh := make(chan os.Signal)

	exit, err := Start(&cfg, &Bindings{Logger: mockLogger, Library: lib}, sigCh)
	require.NoError(t, err)
	expectMsg(t, mockLogger.Info, fmt.Sprintf("Config: %s\n", cfg))
	expectMsg(t, mockLogger.Event, fmt.Sprintf("FS: %-12s %s\n", "Created|IsFile", "./a.txt"))
	expectMsg(t, mockLogger.Event, fmt.Sprintf("FS: %-12s %s\n", "Removed", "./b.txt"))

	state, ok := fake.Session(1)
	require.True(t, ok)
	assert.Equal(t, []string{"./"}, state.Paths)
	assert.True(t, state.Recursive)
	assert.Equal(t, map[string]string{"k": "v"}, state.Properties)
	assert.Len(t, state.Filters, 1)

	sigCh <- syscall.SIGINT
	expectMsg(t, mockLogger.Info, "Exiting program... (interrupt)\n")
	expectExit(t, exit, nil)
	assert.Equal(t, 0, fake.Live())
}

func TestStartMonitorFailure(t *testing.T) {
	lib, fake := newLibrary(t)
	fake.MonitorStatus = native.ErrUnknownError

	cfg := config.Default()
	mockLogger := newMockLogger()

	exit, err := Start(&cfg, &Bindings{Logger: mockLogger, Library: lib}, make(chan os.Signal))
	require.NoError(t, err)
	expectExit(t, exit, fsw.ErrMonitor)
	assert.Equal(t, 0, fake.Live())
}

func TestStartInvalidConfig(t *testing.T) {
	lib, fake := newLibrary(t)
	cfg := config.Default()
	cfg.Monitor = "epoll"

	_, err := Start(&cfg, &Bindings{Logger: newMockLogger(), Library: lib}, make(chan os.Signal))
	assert.ErrorContains(t, err, "invalid config")
	assert.Equal(t, 0, fake.Count("InitSession"))
}

func TestEventColor(t *testing.T) {
	tests := []struct {
		flags []native.EventFlag
		color int
	}{
		{[]native.EventFlag{native.Created, native.IsFile}, logging.ColorGreen},
		{[]native.EventFlag{native.Removed}, logging.ColorRed},
		{[]native.EventFlag{native.Overflow}, logging.ColorRed},
		{[]native.EventFlag{native.Renamed, native.MovedTo}, logging.ColorYellow},
		{[]native.EventFlag{native.Updated}, logging.ColorBlue},
		{[]native.EventFlag{native.PlatformSpecific}, logging.ColorNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.color, eventColor(fsw.NewFlagSet(tt.flags...)), "%v", tt.flags)
	}
}

func expectMsg(t *testing.T, ch chan string, msg string) {
	t.Helper()
	select {
	case received := <-ch:
		if received != msg {
			t.Fatalf("Wanted to receive %q but got %q", msg, received)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Did not receive message in time. Wanted: %s", msg)
	}
}

func expectExit(t *testing.T, ch chan error, want error) {
	t.Helper()
	select {
	case err := <-ch:
		if want == nil {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Did not receive exit signal in time")
	}
}

// ##### Mocks #####

type mockLogger struct {
	Info  chan string
	Error chan string
	Event chan string
}

func newMockLogger() *mockLogger {
	return &mockLogger{
		Info:  make(chan string, 10),
		Error: make(chan string, 10),
		Event: make(chan string, 10),
	}
}

func (l *mockLogger) Infof(format string, v ...interface{}) {
	l.Info <- fmt.Sprintf(format+"\n", v...)
}

func (l *mockLogger) Errorf(debug bool, format string, v ...interface{}) {
	l.Error <- fmt.Sprintf(format+"\n", v...)
}

func (l *mockLogger) Eventf(color int, format string, v ...interface{}) {
	l.Event <- fmt.Sprintf(format+"\n", v...)
}
