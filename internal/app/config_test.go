package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	c, err := ParseConfig([]byte("backend:\n  url: https://xyz.supabase.co\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://xyz.supabase.co", c.Backend.URL)
	assert.Equal(t, "pkce", c.Backend.FlowType)
	assert.Equal(t, 6, c.Notes.PageSize)
	assert.Equal(t, 80, c.Notes.TitleMax)
	assert.Equal(t, 120, c.Notes.SubtitleMax)
	assert.Equal(t, 6, c.Auth.PasswordMinLength)
	assert.Equal(t, "fast-note-web-workspace", c.Workspace.CookieName)
	assert.Equal(t, "*/10 * * * *", c.Workspace.SweepCron)
	assert.Equal(t, 900*time.Millisecond, c.GetMessageTTL())
	assert.Equal(t, 900*time.Millisecond, c.GetRedirectDelay())
	assert.Equal(t, 2*time.Hour, c.GetIdleTimeout())
	assert.Equal(t, 30*time.Second, c.GetBackendTimeout())
	assert.Equal(t, 60*time.Second, c.GetContextTimeout())
}

func TestParseConfigOverrides(t *testing.T) {
	c, err := ParseConfig([]byte(`
notes:
  page-size: 12
workspace:
  idle-timeout: 1d
security:
  rate-limit-interval: bogus
`))
	require.NoError(t, err)
	assert.Equal(t, 12, c.Notes.PageSize)
	assert.Equal(t, 24*time.Hour, c.GetIdleTimeout())
	assert.Equal(t, 6*time.Second, c.GetRateLimitInterval())
}

func TestParseConfigInvalidYAML(t *testing.T) {
	_, err := ParseConfig([]byte("notes: ["))
	assert.Error(t, err)
}

func TestLoadAndSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  public-url: https://notes.example.com\n"), 0644))

	c, realpath, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, realpath)
	assert.Equal(t, "https://notes.example.com", c.Auth.PublicURL)

	c.Notes.PageSize = 9
	require.NoError(t, c.Save())

	again, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9, again.Notes.PageSize)

	_, _, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
