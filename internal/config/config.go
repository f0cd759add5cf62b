package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/marcin-skalski/ghtray/internal/pr"
	"gopkg.in/yaml.v3"
)

const (
	MinPollInterval     = 30 * time.Second
	MinMergedWindow     = 1
	defaultMergedWindow = 7
	defaultPoll         = "2m"
	defaultTUIRate      = "3s"
	defaultAvatarTTL    = "5s"
)

type Config struct {
	PollInterval     time.Duration      `yaml:"-"`
	RawInterval      string             `yaml:"poll_interval"`
	MergedWindowDays int                `yaml:"-"`
	RawMergedWindow  *int               `yaml:"merged_window_days"`
	BlockedRepos     []string           `yaml:"blocked_repos"`
	HiddenBuckets    []string           `yaml:"hidden_buckets"`
	BadgeBuckets     []string           `yaml:"badge_buckets"`
	BucketOrder      []string           `yaml:"bucket_order"`
	DataDir          string             `yaml:"data_dir"`
	LogFile          string             `yaml:"log_file"`
	Demo             bool               `yaml:"demo"`
	Log              LogConfig          `yaml:"log"`
	Notifications    NotificationConfig `yaml:"notifications"`
	State            StateConfig        `yaml:"state"`
	Avatars          AvatarConfig       `yaml:"avatars"`
	TUI              TUIConfig          `yaml:"tui"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type NotificationConfig struct {
	Enabled  *bool          `yaml:"enabled,omitempty"`
	Sound    *bool          `yaml:"sound,omitempty"`
	Slack    SlackConfig    `yaml:"slack"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type StateConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type AvatarConfig struct {
	Dir         string        `yaml:"dir"`
	URLTemplate string        `yaml:"url_template"`
	Timeout     time.Duration `yaml:"-"`
	RawTimeout  string        `yaml:"timeout"`
}

type TUIConfig struct {
	RefreshInterval time.Duration `yaml:"-"`
	RawInterval     string        `yaml:"refresh_interval"`
}

// Load reads the YAML config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	if err := cfg.setDefaults(); err != nil {
		panic(err)
	}
	return &cfg
}

func (c *Config) setDefaults() error {
	if c.RawInterval == "" {
		c.RawInterval = defaultPoll
	}
	d, err := time.ParseDuration(c.RawInterval)
	if err != nil {
		return fmt.Errorf("parse poll_interval %q: %w", c.RawInterval, err)
	}
	c.PollInterval = max(d, MinPollInterval)

	c.MergedWindowDays = defaultMergedWindow
	if c.RawMergedWindow != nil {
		c.MergedWindowDays = max(*c.RawMergedWindow, MinMergedWindow)
	}

	if c.BadgeBuckets == nil {
		c.BadgeBuckets = []string{pr.NeedsYourReview.ID(), pr.ReturnedToYou.ID()}
	}

	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "ghtray.log")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Notifications.Enabled == nil {
		defaultTrue := true
		c.Notifications.Enabled = &defaultTrue
	}
	if c.Notifications.Sound == nil {
		defaultTrue := true
		c.Notifications.Sound = &defaultTrue
	}

	if c.State.Driver == "" {
		c.State.Driver = "json"
	}
	if c.State.Path == "" {
		name := "ghtray-state.json"
		if c.State.Driver == "sqlite" {
			name = "ghtray-state.db"
		}
		c.State.Path = filepath.Join(c.DataDir, name)
	}

	if c.Avatars.Dir == "" {
		c.Avatars.Dir = filepath.Join(c.DataDir, "avatars")
	}
	if c.Avatars.RawTimeout == "" {
		c.Avatars.RawTimeout = defaultAvatarTTL
	}
	avatarTimeout, err := time.ParseDuration(c.Avatars.RawTimeout)
	if err != nil {
		return fmt.Errorf("parse avatars.timeout %q: %w", c.Avatars.RawTimeout, err)
	}
	if avatarTimeout <= 0 {
		return fmt.Errorf("avatars.timeout must be positive, got %s", c.Avatars.RawTimeout)
	}
	c.Avatars.Timeout = avatarTimeout

	if c.TUI.RawInterval == "" {
		c.TUI.RawInterval = defaultTUIRate
	}
	tuiInterval, err := time.ParseDuration(c.TUI.RawInterval)
	if err != nil {
		return fmt.Errorf("parse tui.refresh_interval %q: %w", c.TUI.RawInterval, err)
	}
	if tuiInterval <= 0 {
		return fmt.Errorf("tui.refresh_interval must be positive, got %s", c.TUI.RawInterval)
	}
	c.TUI.RefreshInterval = tuiInterval

	return nil
}

func (c *Config) validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q (debug|info|warn|error)", c.Log.Level)
	}
	switch c.State.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("invalid state.driver %q (json|sqlite)", c.State.Driver)
	}
	if c.Notifications.Telegram.Token != "" && c.Notifications.Telegram.ChatID == 0 {
		return fmt.Errorf("notifications.telegram.chat_id required when token is set")
	}
	for _, id := range append(append([]string{}, c.HiddenBuckets...), c.BadgeBuckets...) {
		if _, ok := pr.ParseBucket(id); !ok {
			return fmt.Errorf("unknown bucket %q", id)
		}
	}
	return nil
}

// DefaultDataDir is the per-user application data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "ghtray")
	}
	return filepath.Join(home, ".local", "share", "ghtray")
}

func (c *Config) NotificationsEnabled() bool {
	return c.Notifications.Enabled == nil || *c.Notifications.Enabled
}

func (c *Config) NotificationSound() bool {
	return c.Notifications.Sound == nil || *c.Notifications.Sound
}

// BlockedSet returns the deny-list as a lookup set.
func (c *Config) BlockedSet() map[string]bool {
	set := make(map[string]bool, len(c.BlockedRepos))
	for _, r := range c.BlockedRepos {
		set[r] = true
	}
	return set
}

func (c *Config) IsRepoAllowed(repo string) bool {
	return !contains(c.BlockedRepos, repo)
}

func (c *Config) IsBucketVisible(b pr.Bucket) bool {
	return !contains(c.HiddenBuckets, b.ID())
}

func (c *Config) CountsForBadge(b pr.Bucket) bool {
	return contains(c.BadgeBuckets, b.ID())
}

// OrderedBuckets is the custom bucket order followed by any buckets it omits.
func (c *Config) OrderedBuckets() []pr.Bucket {
	return pr.OrderBuckets(c.BucketOrder)
}

// Clone returns a copy that shares no slices with c.
func (c *Config) Clone() *Config {
	cp := *c
	cp.BlockedRepos = append([]string(nil), c.BlockedRepos...)
	cp.HiddenBuckets = append([]string(nil), c.HiddenBuckets...)
	cp.BadgeBuckets = append([]string(nil), c.BadgeBuckets...)
	cp.BucketOrder = append([]string(nil), c.BucketOrder...)
	if c.RawMergedWindow != nil {
		v := *c.RawMergedWindow
		cp.RawMergedWindow = &v
	}
	if c.Notifications.Enabled != nil {
		v := *c.Notifications.Enabled
		cp.Notifications.Enabled = &v
	}
	if c.Notifications.Sound != nil {
		v := *c.Notifications.Sound
		cp.Notifications.Sound = &v
	}
	return &cp
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
