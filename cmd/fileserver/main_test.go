package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"filexfer/config"
	"filexfer/terminal"
)

func buildFrom(t *testing.T, args ...string) (*config.ServerConfig, error) {
	t.Helper()
	cmd, flags := newRootCmd()
	require.NoError(t, cmd.ParseFlags(args))
	return buildConfig(cmd, flags, cmd.Flags().Args())
}

func TestBuildConfigDefaults(t *testing.T) {
	cfg, err := buildFrom(t)
	require.NoError(t, err)
	require.Equal(t, "localhost:8080", cfg.Address())
	require.Equal(t, 1024, cfg.BufferSize)
	require.Empty(t, cfg.BaseDir)
}

func TestBuildConfigPositionalPort(t *testing.T) {
	cfg, err := buildFrom(t, "9000")
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)

	_, err = buildFrom(t, "http")
	require.Error(t, err)
}

func TestBuildConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	ini := filepath.Join(dir, "filexfer.ini")
	require.NoError(t, os.WriteFile(ini, []byte("[server]\nport = 7000\nbuffer_size = 256\nlog_level = debug\n"), 0644))

	cfg, err := buildFrom(t, "--config", ini, "--port", "7500", "--base-dir", dir, "--no-color")
	require.NoError(t, err)
	require.Equal(t, 7500, cfg.Port)
	require.Equal(t, 256, cfg.BufferSize)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, dir, cfg.BaseDir)
}

func TestBuildConfigEnv(t *testing.T) {
	t.Setenv("FILEXFER_PORT", "6100")

	cfg, err := buildFrom(t)
	require.NoError(t, err)
	require.Equal(t, 6100, cfg.Port)
}

func TestBuildConfigInvalid(t *testing.T) {
	_, err := buildFrom(t, "70000")
	require.Error(t, err)

	_, err = buildFrom(t, "--base-dir", "/does/not/exist")
	require.Error(t, err)
}

func TestBuildConfigTheme(t *testing.T) {
	t.Cleanup(func() { terminal.SetTheme("dark") })

	_, err := buildFrom(t, "--theme", "light")
	require.NoError(t, err)
	require.Equal(t, "light", terminal.CurrentTheme().Name)

	_, err = buildFrom(t, "--theme", "neon")
	require.Error(t, err)
}
