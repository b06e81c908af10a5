package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
site:
  title: Test Blog
theme:
  path: ./theme
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Test Blog", cfg.Site.Title)
	require.Equal(t, "content", cfg.Content.Directory)
	require.Equal(t, "public", cfg.Output.Directory)
	require.Equal(t, "single", cfg.Site.DefaultLayout)
	require.Equal(t, 1313, cfg.Preview.Port)
	require.Equal(t, PublishDir, cfg.Publish.Type)
	require.True(t, cfg.Preview.LiveReloadEnabled())
}

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("BLOG_THEME_TOKEN", "sekrit")
	path := writeConfig(t, `
site:
  title: Env Blog
theme:
  url: https://example.com/theme.git
  revision: v2.1.0
  auth:
    type: token
    token: ${BLOG_THEME_TOKEN}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sekrit", cfg.Theme.Auth.Token)
	require.Equal(t, "v2.1.0", cfg.Theme.Revision)
}

func TestLoad_ThemeURLWithoutRevision_Fails(t *testing.T) {
	path := writeConfig(t, `
theme:
  url: https://example.com/theme.git
`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "revision")
}

func TestLoad_ThemePathAndURL_AreExclusive(t *testing.T) {
	path := writeConfig(t, `
theme:
  url: https://example.com/theme.git
  revision: v1
  path: ./theme
`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "mutually exclusive")
}

func TestLoad_GitPublishWithoutURL_Fails(t *testing.T) {
	path := writeConfig(t, `
theme:
  path: ./theme
publish:
  type: git
`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "publish.git.url")
}

func TestLoad_DaemonIntervalDefault(t *testing.T) {
	path := writeConfig(t, `
theme:
  path: ./theme
daemon:
  publish: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Daemon)
	require.Equal(t, 15*time.Minute, cfg.Daemon.Interval)
	require.True(t, cfg.Daemon.Publish)
}

func TestLoad_DaemonIntervalString(t *testing.T) {
	path := writeConfig(t, `
theme:
  path: ./theme
daemon:
  interval: 1h30m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 90*time.Minute, cfg.Daemon.Interval)
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "--force")

	require.NoError(t, Init(path, true))

	// The generated file must load cleanly.
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "My Blog", cfg.Site.Title)
	require.Equal(t, "v1.0.0", cfg.Theme.Revision)
}
