package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominicbreuker/fsw"
	"github.com/dominicbreuker/fsw/internal/nativetest"
	"github.com/dominicbreuker/fsw/native"
)

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fsw.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths: [/srv]\nlatency: 2s\nmonitor: poll\n"), 0644))

	configFile = path
	defer func() { configFile = "" }()

	cfg, err := loadConfig(&cobra.Command{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv"}, cfg.Paths)
	assert.Equal(t, 2*time.Second, cfg.Latency)
	assert.Equal(t, "poll", cfg.Monitor)

	cfg, err = loadConfig(&cobra.Command{}, []string{"/a", "/b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Paths)
}

func TestLoadConfigFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().StringArrayVar(&properties, "property", nil, "")
	cmd.Flags().StringVarP(&monitor, "monitor", "m", "", "")
	require.NoError(t, cmd.ParseFlags([]string{"--property", "a=1", "--property", "b=x=y", "-m", "inotify"}))

	cfg, err := loadConfig(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y"}, cfg.Properties)
	assert.Equal(t, "inotify", cfg.Monitor)

	require.NoError(t, cmd.ParseFlags([]string{"--property", "novalue"}))
	_, err = loadConfig(cmd, nil)
	assert.ErrorContains(t, err, "invalid property")
}

func TestRenderMonitors(t *testing.T) {
	fake := nativetest.New()
	lib := fsw.NewLibrary(fake)
	require.NoError(t, lib.Init())
	fake.Fail["InitSession"] = native.ErrUnknownMonitorType

	rows := monitorRows(lib)
	require.Len(t, rows, len(native.MonitorTypes))
	assert.Equal(t, []string{"default", "no", "unknown monitor type"}, rows[0])

	delete(fake.Fail, "InitSession")
	rows = monitorRows(lib)
	assert.Equal(t, []string{"poll", "yes", ""}, rows[5])
	assert.Equal(t, 0, fake.Live())

	var buf bytes.Buffer
	renderMonitors(&buf, lib)
	assert.Contains(t, buf.String(), "MONITOR")
	assert.Contains(t, buf.String(), "inotify")
}
