package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `
[playlist]
id = "PLtest"

[provider]
api_key = "key123"

[download]
dir = "/media/playlist"
`

func TestLoad_Minimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "PLtest", cfg.Playlist.ID)
	assert.Equal(t, "key123", cfg.Provider.APIKey)
	assert.Equal(t, "/media/playlist", cfg.Download.Dir)

	// Defaults applied.
	assert.Equal(t, 50, cfg.Provider.PageSize)
	assert.Equal(t, 50, cfg.Provider.BatchSize)
	assert.Equal(t, 4, cfg.Provider.Concurrency)
	assert.Equal(t, "both", cfg.Download.Mode)
	assert.Equal(t, 3, cfg.Download.Concurrency)
	assert.Equal(t, 30, cfg.Download.TimeoutMinutes)
	assert.Equal(t, "m4a", cfg.Download.AudioFormat)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvSubstitution(t *testing.T) {
	t.Setenv("PLSYNC_TEST_KEY", "from-env")

	cfg, err := Load(writeConfig(t, `
[playlist]
id = "PLtest"

[provider]
api_key = "${PLSYNC_TEST_KEY}"

[download]
dir = "/media"
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Provider.APIKey)
}

func TestLoad_UnsetEnvVarLeftVerbatim(t *testing.T) {
	_, err := Load(writeConfig(t, `
[playlist]
id = "PLtest"

[provider]
api_key = "${PLSYNC_DEFINITELY_UNSET_VAR}"

[download]
dir = "/media"
`))
	// The literal ${...} survives, so validation passes; the provider will
	// reject it at request time.
	require.NoError(t, err)
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no playlist id", `
[provider]
api_key = "k"
[download]
dir = "/media"
`},
		{"no api key", `
[playlist]
id = "PL"
[download]
dir = "/media"
`},
		{"no download dir", `
[playlist]
id = "PL"
[provider]
api_key = "k"
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "playlist = [[["))
	assert.Error(t, err)
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[playlist]")
	assert.Contains(t, string(data), "worker_bin")
}
