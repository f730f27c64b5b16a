// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points ConfigDir at a fresh temp dir and clears MODIA_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MODIA_HOME", dir)
	for _, k := range []string{"MODIA_SERVER_URL", "MODIA_TIMEOUT", "MODIA_RPS", "MODIA_TOP_K", "MODIA_EXPLAIN", "MODIA_RAW", "MODIA_THEME"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Server.URL)
	assert.Equal(t, 5, cfg.Chat.TopK)
	assert.False(t, cfg.Chat.ExplainDefault)
	assert.False(t, cfg.Chat.RawDefault)
	assert.Equal(t, 120*time.Second, cfg.Timeout())
	assert.NoError(t, cfg.Validate())
}

func TestConfig_LoadDefaultsWhenNoFile(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "prefs.db"), cfg.Storage.PrefsPath)
	assert.Equal(t, filepath.Join(dir, "history"), cfg.Storage.HistoryPath)
}

func TestConfig_LoadTOML(t *testing.T) {
	dir := isolate(t)
	content := `
[server]
url = "http://10.1.2.3:9000"
timeout_secs = 30

[chat]
top_k = 8
raw_default = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://10.1.2.3:9000", cfg.Server.URL)
	assert.Equal(t, 30, cfg.Server.TimeoutSecs)
	assert.Equal(t, 8, cfg.Chat.TopK)
	assert.True(t, cfg.Chat.RawDefault)
	assert.True(t, cfg.Chat.RenderMarkdown, "unset keys keep defaults")
}

func TestConfig_LoadJSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"server":{"url":"http://json.test:1"}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://json.test:1", cfg.Server.URL)
}

func TestConfig_BrokenFileFallsBackToDefaults(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server\nurl="), 0600))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, Default().Server.URL, cfg.Server.URL)
}

func TestConfig_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("MODIA_SERVER_URL", "https://modia.example.com")
	t.Setenv("MODIA_TOP_K", "3")
	t.Setenv("MODIA_EXPLAIN", "yes")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://modia.example.com", cfg.Server.URL)
	assert.Equal(t, 3, cfg.Chat.TopK)
	assert.True(t, cfg.Chat.ExplainDefault)
}

func TestConfig_DotEnvFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.Unsetenv("MODIA_THEME"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MODIA_THEME=light\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("MODIA_THEME") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.Server.URL = "not a url" }, "server.url"},
		{"bad scheme", func(c *Config) { c.Server.URL = "ftp://host" }, "server.url"},
		{"zero timeout", func(c *Config) { c.Server.TimeoutSecs = 0 }, "server.timeout_secs"},
		{"negative rps", func(c *Config) { c.Server.RequestsPerSecond = -1 }, "server.requests_per_second"},
		{"top_k too big", func(c *Config) { c.Chat.TopK = 500 }, "chat.top_k"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("server.url", "http://other:8000"))
	require.NoError(t, cfg.Set("chat.top_k", "7"))
	require.NoError(t, cfg.Set("chat.raw_default", "true"))
	require.NoError(t, cfg.Set("server.requests_per_second", "2.5"))

	v, err := cfg.Get("server.url")
	require.NoError(t, err)
	assert.Equal(t, "http://other:8000", v)
	assert.Equal(t, 7, cfg.Chat.TopK)
	assert.True(t, cfg.Chat.RawDefault)
	assert.Equal(t, 2.5, cfg.Server.RequestsPerSecond)

	_, err = cfg.Get("server.nope")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("chat", "x"))
	assert.Error(t, cfg.Set("chat.top_k", "many"))
}

func TestConfig_Keys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "server.url")
	assert.Contains(t, keys, "chat.top_k")
	assert.Contains(t, keys, "storage.prefs_path")

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Server.URL = "http://saved:8000"
	cfg.Chat.ExplainDefault = true
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if filepath.Separator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "http://saved:8000", loaded.Server.URL)
	assert.True(t, loaded.Chat.ExplainDefault)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { changes <- c })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	updated := Default()
	updated.Server.URL = "http://reloaded:8000"
	require.NoError(t, SaveTOML(updated, path))

	select {
	case c := <-changes:
		assert.Equal(t, "http://reloaded:8000", c.Server.URL)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	require.NoError(t, <-done)
}
