package fsw

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominicbreuker/fsw/native"
)

func TestDecodeRecord(t *testing.T) {
	e, err := DecodeRecord(native.Record{
		Path:  []byte("/tmp/ä.txt"),
		Time:  1700000000,
		Flags: []native.EventFlag{native.Renamed, native.IsFile},
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ä.txt", e.Path)
	assert.Equal(t, time.Unix(1700000000, 0), e.Time())
	assert.Equal(t, NewFlagSet(native.Renamed, native.IsFile), e.Flags)

	_, err = DecodeRecord(native.Record{Path: []byte{'/', 0xc3}})
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestDecodeBatch(t *testing.T) {
	events, err := DecodeBatch(records("/a", "/b", "/c"))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "/a", events[0].Path)
	assert.Equal(t, "/c", events[2].Path)

	batch := records("/a", "/b")
	batch[1].Path = []byte{0xff}
	_, err = DecodeBatch(batch)
	require.ErrorIs(t, err, ErrEncoding)
	assert.Contains(t, err.Error(), "decoding record 1 of 2")

	events, err = DecodeBatch(nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFlagSet(t *testing.T) {
	tests := []struct {
		flags []native.EventFlag
		str   string
	}{
		{nil, "NoOp"},
		{[]native.EventFlag{native.Created}, "Created"},
		{[]native.EventFlag{native.IsFile, native.Created}, "Created|IsFile"},
		{[]native.EventFlag{native.Overflow, native.PlatformSpecific}, "PlatformSpecific|Overflow"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.str, NewFlagSet(tt.flags...).String())
	}

	s := NewFlagSet(native.Created, native.IsDir)
	assert.True(t, s.Has(native.Created))
	assert.True(t, s.Has(native.IsDir))
	assert.False(t, s.Has(native.IsFile))
	assert.False(t, s.Has(native.NoOp))
	assert.True(t, FlagSet(0).Has(native.NoOp))
	assert.Equal(t, []native.EventFlag{native.Created, native.IsDir}, s.Flags())
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		status native.Status
		kind   error
	}{
		{native.ErrInvalidPath, ErrPath},
		{native.ErrPathsNotSet, ErrPath},
		{native.ErrSessionUnknown, ErrInvalidHandle},
		{native.ErrMonitorAlreadyRunning, ErrAlreadyMonitoring},
		{native.ErrCallbackNotSet, ErrNotConfigured},
		{native.ErrInvalidLatency, ErrNotConfigured},
		{native.ErrMemory, ErrMonitor},
		{native.ErrUnknownError, ErrMonitor},
	}
	for _, tt := range tests {
		err := checkStatus("op", tt.status)
		require.Error(t, err)
		assert.ErrorIs(t, err, tt.kind, "status %s", tt.status)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, tt.status, se.Status)
	}

	assert.NoError(t, checkStatus("op", native.OK))
	_, ok := Status(errors.New("plain"))
	assert.False(t, ok)
}
