package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcin-skalski/ghtray/internal/pr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.PollInterval)
	assert.Equal(t, 7, cfg.MergedWindowDays)
	assert.Equal(t, 5*time.Second, cfg.Avatars.Timeout)
	assert.Equal(t, 3*time.Second, cfg.TUI.RefreshInterval)
	assert.Equal(t, "json", cfg.State.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.NotificationsEnabled())
	assert.True(t, cfg.NotificationSound())
	assert.Equal(t, []string{"needs_your_review", "returned_to_you"}, cfg.BadgeBuckets)
	assert.Equal(t, filepath.Join(cfg.DataDir, "ghtray-state.json"), cfg.State.Path)
	assert.Equal(t, filepath.Join(cfg.DataDir, "avatars"), cfg.Avatars.Dir)
	assert.False(t, cfg.Demo)
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
poll_interval: 5m
merged_window_days: 14
data_dir: `+dir+`
blocked_repos: [acme/legacy]
hidden_buckets: [drafts]
badge_buckets: [needs_your_review]
bucket_order: [approved, drafts]
demo: true
log:
  level: debug
notifications:
  enabled: false
  sound: false
  slack:
    webhook_url: https://hooks.example.com/x
  telegram:
    token: abc
    chat_id: 42
state:
  driver: sqlite
avatars:
  timeout: 2s
  url_template: https://avatars.example.com/{login}
tui:
  refresh_interval: 1s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.Equal(t, 14, cfg.MergedWindowDays)
	assert.True(t, cfg.Demo)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.NotificationsEnabled())
	assert.False(t, cfg.NotificationSound())
	assert.Equal(t, "https://hooks.example.com/x", cfg.Notifications.Slack.WebhookURL)
	assert.Equal(t, int64(42), cfg.Notifications.Telegram.ChatID)
	assert.Equal(t, filepath.Join(dir, "ghtray-state.db"), cfg.State.Path)
	assert.Equal(t, filepath.Join(dir, "ghtray.log"), cfg.LogFile)
	assert.Equal(t, 2*time.Second, cfg.Avatars.Timeout)
	assert.Equal(t, time.Second, cfg.TUI.RefreshInterval)

	assert.False(t, cfg.IsRepoAllowed("acme/legacy"))
	assert.True(t, cfg.IsRepoAllowed("acme/billing"))
	assert.False(t, cfg.IsBucketVisible(pr.Drafts))
	assert.True(t, cfg.IsBucketVisible(pr.Approved))
	assert.True(t, cfg.CountsForBadge(pr.NeedsYourReview))
	assert.False(t, cfg.CountsForBadge(pr.ReturnedToYou))
	assert.Equal(t, map[string]bool{"acme/legacy": true}, cfg.BlockedSet())

	order := cfg.OrderedBuckets()
	require.Len(t, order, 7)
	assert.Equal(t, pr.Approved, order[0])
	assert.Equal(t, pr.Drafts, order[1])
	assert.Equal(t, pr.NeedsYourReview, order[2])
}

func TestLoadClampsLowValues(t *testing.T) {
	path := writeConfig(t, "poll_interval: 5s\nmerged_window_days: -3\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, MinPollInterval, cfg.PollInterval)
	assert.Equal(t, 1, cfg.MergedWindowDays)
}

func TestLoadExplicitZeroMergedWindowClampsToMinimum(t *testing.T) {
	cfg, err := Load(writeConfig(t, "merged_window_days: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, MinMergedWindow, cfg.MergedWindowDays)

	cfg, err = Load(writeConfig(t, "poll_interval: 1m\n"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MergedWindowDays)
}

func TestLoadEmptyBadgeListIsKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "badge_buckets: []\n"))
	require.NoError(t, err)

	assert.Empty(t, cfg.BadgeBuckets)
	assert.False(t, cfg.CountsForBadge(pr.NeedsYourReview))
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":           "poll_interval: [",
		"bad interval":       "poll_interval: soon\n",
		"bad driver":         "state:\n  driver: postgres\n",
		"bad level":          "log:\n  level: loud\n",
		"telegram no chat":   "notifications:\n  telegram:\n    token: abc\n",
		"unknown bucket":     "hidden_buckets: [someday]\n",
		"zero tui interval":  "tui:\n  refresh_interval: 0s\n",
		"bad avatar timeout": "avatars:\n  timeout: never\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestUnknownBucketOrderIDsAreIgnored(t *testing.T) {
	cfg, err := Load(writeConfig(t, "bucket_order: [nope, recently_merged]\n"))
	require.NoError(t, err)

	order := cfg.OrderedBuckets()
	require.Len(t, order, 7)
	assert.Equal(t, pr.RecentlyMerged, order[0])
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := Default()
	cfg.BlockedRepos = []string{"a/b"}

	cp := cfg.Clone()
	cp.BlockedRepos[0] = "c/d"
	*cp.Notifications.Enabled = false

	assert.Equal(t, "a/b", cfg.BlockedRepos[0])
	assert.True(t, cfg.NotificationsEnabled())
}
