package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Theme   ThemeConfig   `yaml:"theme"`
	Output  OutputConfig  `yaml:"output"`
	Publish PublishConfig `yaml:"publish"`
	Preview PreviewConfig `yaml:"preview"`
	Daemon  *DaemonConfig `yaml:"daemon,omitempty"`
	History HistoryConfig `yaml:"history"`
}

// SiteConfig holds site-wide values rendered into every page.
type SiteConfig struct {
	Title         string         `yaml:"title"`
	Description   string         `yaml:"description,omitempty"`
	BaseURL       string         `yaml:"base_url,omitempty"`
	Author        string         `yaml:"author,omitempty"`
	DefaultLayout string         `yaml:"default_layout,omitempty"`
	Params        map[string]any `yaml:"params,omitempty"`
}

// ContentConfig locates the content store and static assets.
type ContentConfig struct {
	Directory       string `yaml:"directory"`
	StaticDirectory string `yaml:"static_directory,omitempty"`
}

// ThemeConfig references the external theme.
//
// Either URL+Revision (fetched into CacheDir at build time) or Path (a local
// theme checkout, no fetch) must be set. Revision may be a tag, branch or
// full commit hash; the resolved hash is recorded in the lock file.
type ThemeConfig struct {
	URL      string      `yaml:"url,omitempty"`
	Revision string      `yaml:"revision,omitempty"`
	Path     string      `yaml:"path,omitempty"`
	CacheDir string      `yaml:"cache_dir,omitempty"`
	LockFile string      `yaml:"lock_file,omitempty"`
	Auth     *AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig represents git authentication configuration.
type AuthConfig struct {
	Type     string `yaml:"type"` // "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// OutputConfig controls the generated output tree.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Minify    bool   `yaml:"minify"`
}

// PublishType selects the publish target kind.
type PublishType string

const (
	PublishDir PublishType = "dir"
	PublishGit PublishType = "git"
)

// PublishConfig describes where the output tree is published.
type PublishConfig struct {
	Type      PublishType      `yaml:"type,omitempty"`
	Directory string           `yaml:"directory,omitempty"`
	Git       *GitTargetConfig `yaml:"git,omitempty"`
}

// GitTargetConfig is a git branch publish target (the gh-pages pattern).
type GitTargetConfig struct {
	URL     string      `yaml:"url"`
	Branch  string      `yaml:"branch"`
	Message string      `yaml:"message,omitempty"`
	Auth    *AuthConfig `yaml:"auth,omitempty"`
}

// PreviewConfig controls the local serve mode.
type PreviewConfig struct {
	Port       int   `yaml:"port,omitempty"`
	LiveReload *bool `yaml:"live_reload,omitempty"`
	Metrics    bool  `yaml:"metrics,omitempty"`
}

// DaemonConfig controls scheduled build-and-publish runs.
type DaemonConfig struct {
	Interval time.Duration `yaml:"interval"`
	Publish  bool          `yaml:"publish"`
}

// UnmarshalYAML accepts the interval as a duration string ("15m", "1h").
func (d *DaemonConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval string `yaml:"interval"`
		Publish  bool   `yaml:"publish"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	d.Publish = raw.Publish
	if raw.Interval != "" {
		interval, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return fmt.Errorf("daemon.interval: %w", err)
		}
		d.Interval = interval
	}
	return nil
}

// HistoryConfig locates the build history database.
type HistoryConfig struct {
	Path     string `yaml:"path,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// LiveReloadEnabled reports whether preview live reload is on (default true).
func (p PreviewConfig) LiveReloadEnabled() bool {
	return p.LiveReload == nil || *p.LiveReload
}

// DefaultConfigFile is the conventional configuration file name.
const DefaultConfigFile = "blogsmith.yaml"

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env if present so ${VAR} expansion below can see it.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "A Blog"
	}
	if c.Site.DefaultLayout == "" {
		c.Site.DefaultLayout = "single"
	}
	if c.Content.Directory == "" {
		c.Content.Directory = "content"
	}
	if c.Content.StaticDirectory == "" {
		c.Content.StaticDirectory = "static"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "public"
	}
	if c.Theme.CacheDir == "" {
		c.Theme.CacheDir = ".blogsmith/themes"
	}
	if c.Theme.LockFile == "" {
		c.Theme.LockFile = "theme.lock"
	}
	if c.Preview.Port == 0 {
		c.Preview.Port = 1313
	}
	if c.History.Path == "" {
		c.History.Path = ".blogsmith/history.db"
	}
	if c.Publish.Type == "" {
		c.Publish.Type = PublishDir
	}
	if c.Publish.Git != nil && c.Publish.Git.Branch == "" {
		c.Publish.Git.Branch = "gh-pages"
	}
	if c.Daemon != nil && c.Daemon.Interval <= 0 {
		c.Daemon.Interval = 15 * time.Minute
	}
}
