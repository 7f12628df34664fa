//go:build libfswatch && cgo

package libfswatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominicbreuker/fsw/native"
)

func TestSessionLifecycle(t *testing.T) {
	lib := New()
	require.Equal(t, native.OK, lib.Init())

	h := lib.InitSession(native.PollMonitor)
	require.NotEqual(t, native.InvalidHandle, h)

	assert.Equal(t, native.OK, lib.AddPath(h, t.TempDir()))
	assert.Equal(t, native.OK, lib.SetLatency(h, 0.1))
	assert.Equal(t, native.OK, lib.SetRecursive(h, true))
	assert.Equal(t, native.OK, lib.AddEventTypeFilter(h, native.Created))
	assert.Equal(t, native.OK, lib.AddFilter(h, native.Filter{Text: `\.swp$`, Type: native.FilterExclude}))
	assert.Equal(t, native.OK, lib.SetCallback(h, func([]native.Record, uintptr) {}, 7))
	assert.Equal(t, native.ErrInvalidCallback, lib.SetCallback(h, nil, 0))
	assert.False(t, lib.IsRunning(h))

	require.Equal(t, native.OK, lib.DestroySession(h))
	callbacks.RLock()
	_, ok := callbacks.m[h]
	callbacks.RUnlock()
	assert.False(t, ok)
}
