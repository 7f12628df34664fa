package fsw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominicbreuker/fsw/internal/nativetest"
	"github.com/dominicbreuker/fsw/native"
)

func newTestLibrary(t *testing.T) (*Library, *nativetest.Library) {
	t.Helper()
	fake := nativetest.New()
	lib := NewLibrary(fake)
	require.NoError(t, lib.Init())
	return lib, fake
}

func TestBuildWithoutPaths(t *testing.T) {
	lib, fake := newTestLibrary(t)

	_, err := lib.NewBuilder().Build()
	require.ErrorIs(t, err, ErrNotConfigured)
	_, err = lib.NewBuilder().BuildWithCallback(func([]Event) {})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, 0, fake.Count("InitSession"))
}

func TestBuildNotInitialized(t *testing.T) {
	lib := NewLibrary(nativetest.New())
	_, err := lib.NewBuilder("./").Build()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestBuildAppliesConfiguration(t *testing.T) {
	lib, fake := newTestLibrary(t)
	filter := Filter{Text: `\.swp$`, Type: FilterExclude}

	session, err := lib.NewBuilder("/a").
		Path("/b", "/a").
		Monitor(native.PollMonitor).
		Latency(250*time.Millisecond).
		Recursive(true).
		FollowSymlinks(true).
		AllowOverflow(true).
		DirectoryOnly(false).
		Property("poll.interval", "1").
		EventType(native.Created, native.Removed).
		Filter(filter).
		Callback(func([]Event) {}).
		Build()
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, native.PollMonitor, session.MonitorType())
	state, ok := fake.Session(session.Handle())
	require.True(t, ok)
	assert.Equal(t, native.PollMonitor, state.MonitorType)
	assert.Equal(t, []string{"/a", "/b"}, state.Paths)
	assert.InDelta(t, 0.25, state.Latency, 1e-9)
	assert.True(t, state.Recursive)
	assert.True(t, state.FollowSymlinks)
	assert.True(t, state.AllowOverflow)
	assert.False(t, state.DirectoryOnly)
	assert.Equal(t, map[string]string{"poll.interval": "1"}, state.Properties)
	assert.Equal(t, []native.EventFlag{native.Created, native.Removed}, state.EventTypes)
	assert.Equal(t, []native.Filter{filter}, state.Filters)
	assert.Equal(t, 1, fake.Count("SetCallback"))
}

func TestBuildWithoutCallback(t *testing.T) {
	lib, fake := newTestLibrary(t)

	session, err := lib.NewBuilder("/a").Build()
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, 0, fake.Count("SetCallback"))
	assert.ErrorIs(t, session.StartMonitor(), ErrNotConfigured)
}

func TestBuildFailureReleasesHandle(t *testing.T) {
	lib, fake := newTestLibrary(t)
	fake.Fail["AddFilter"] = native.ErrInvalidRegex

	_, err := lib.NewBuilder("/a").Filter(Filter{Text: "("}).BuildWithCallback(func([]Event) {})
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, 1, fake.Count("InitSession"))
	assert.Equal(t, 1, fake.Count("DestroySession"))
	assert.Equal(t, 0, fake.Live())
	assert.Equal(t, 0, fake.Count("SetCallback"))
}

func TestIndependentBuilds(t *testing.T) {
	lib, fake := newTestLibrary(t)
	b := lib.NewBuilder("/a").Recursive(true)

	first, err := b.Build()
	require.NoError(t, err)
	second, err := b.Build()
	require.NoError(t, err)
	defer second.Close()

	assert.NotEqual(t, first.Handle(), second.Handle())
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, 2, fake.Live())

	require.NoError(t, first.Close())
	assert.Equal(t, 1, fake.Live())
	assert.NoError(t, second.AddPath("/c"))
	assert.Equal(t, []string{"/a", "/c"}, second.Paths())
}
