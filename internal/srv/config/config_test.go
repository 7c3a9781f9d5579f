package config

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jypelle/gifmatrix/internal/srv/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerParam_Defaults(t *testing.T) {
	param, err := ParseServerParam(nil)
	require.NoError(t, err)

	assert.Equal(t, "gifs", param.LibraryFolder)
	assert.Equal(t, image.Rect(0, 0, 128, 64), param.Display.Bounds())
	assert.Equal(t, engine.DefaultLoopPolicy, param.Playback.LoopPolicy())
	assert.Equal(t, engine.DefaultSchedulerParams, param.Playback.SchedulerParams())
	assert.Equal(t, engine.DefaultClockParams, param.Clock.ClockParams())
	assert.Equal(t, engine.DefaultPlayerParams, param.PlayerParams())
	assert.Equal(t, int64(5050), param.Api.Port)
	assert.Equal(t, int64(16*1024*1024), param.Api.MaxUploadSize)
	assert.Equal(t, []string{"localhost", "127.0.0.1"}, param.Api.Hostnames)
}

func TestParseServerParam_DigitalClockTick(t *testing.T) {
	param, err := ParseServerParam([]byte("clock:\n  style: digital\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Second, param.PlayerParams().ClockTick)

	param, err = ParseServerParam(nil)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, param.PlayerParams().ClockTick)
}

func TestParseServerParam_SslHostnames(t *testing.T) {
	param, err := ParseServerParam([]byte("api:\n  ssl: true\n  hostnames: [gifmatrix.local]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"gifmatrix.local"}, param.Api.Hostnames)
}

func TestParseServerParam_Overrides(t *testing.T) {
	raw := []byte(`
clock:
  style: digital
  tick: 20
  digital_tick: 500
playback:
  short_sequence_bump: 3
`)
	param, err := ParseServerParam(raw)
	require.NoError(t, err)

	assert.Equal(t, engine.ClockStyleDigital, param.Clock.ClockParams().Style)
	assert.Equal(t, 500*time.Millisecond, param.PlayerParams().ClockTick)
	assert.Equal(t, 10*time.Second, param.PlayerParams().ClockInterval)
	assert.Equal(t, 3, param.Playback.LoopPolicy().ShortSequenceBump)
	assert.Equal(t, 8, param.Playback.LoopPolicy().ShortSequenceThreshold)
}

func TestParseServerParam_Invalid(t *testing.T) {
	for name, raw := range map[string]string{
		"bad yaml":       "display: [",
		"zero bump":      "playback:\n  short_sequence_bump: 0\n",
		"unknown style":  "clock:\n  style: analog\n",
		"no width":       "display:\n  width: 0\n",
		"bad port":       "api:\n  port: 70000\n",
		"zero tick":      "clock:\n  tick: 0\n",
		"zero digital":   "clock:\n  digital_tick: 0\n",
		"ssl no hosts":   "api:\n  ssl: true\n  hostnames: []\n",
		"ssl blank host": "api:\n  ssl: true\n  hostnames: [\"\"]\n",
	} {
		_, err := ParseServerParam([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestServerConfig_CreatesDefaultParamFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gifmatrix")
	sc := NewServerConfig(dir, false, true)

	_, err := os.Stat(sc.GetCompleteParamFilename())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gifs"), sc.GetCompleteLibraryFolder())
	assert.True(t, sc.DisplayOn())

	reloaded := NewServerConfig(dir, false, true)
	assert.Equal(t, sc.ServerParam, reloaded.ServerParam)
}

func TestServerConfig_AbsoluteLibraryFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, paramFilename), []byte("library_folder: /opt/gifs\n"), 0660))

	sc := NewServerConfig(dir, false, true)
	assert.Equal(t, "/opt/gifs", sc.GetCompleteLibraryFolder())
}

func TestServerConfig_LibraryFolderOverride(t *testing.T) {
	dir := t.TempDir()
	sc := NewServerConfig(dir, false, true)

	sc.SetLibraryFolder("shared")
	assert.Equal(t, filepath.Join(dir, "shared"), sc.GetCompleteLibraryFolder())

	sc.SetLibraryFolder("/srv/gifs")
	assert.Equal(t, "/srv/gifs", sc.GetCompleteLibraryFolder())

	reloaded := NewServerConfig(dir, false, true)
	assert.Equal(t, filepath.Join(dir, "gifs"), reloaded.GetCompleteLibraryFolder())
}

func TestServerState_FlushSave(t *testing.T) {
	filename := filepath.Join(t.TempDir(), stateFilename)
	state := NewServerState(filename)
	state.SetDisplayOn(false)
	state.FlushSave()

	reloaded := NewServerState(filename)
	assert.False(t, reloaded.DisplayOn())
}
