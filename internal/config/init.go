package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Init creates a starter configuration file at configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Site: SiteConfig{
			Title:         "My Blog",
			Description:   "Notes and longer writing",
			BaseURL:       "https://example.com",
			DefaultLayout: "single",
		},
		Content: ContentConfig{
			Directory:       "content",
			StaticDirectory: "static",
		},
		Theme: ThemeConfig{
			URL:      "https://github.com/example/blog-theme.git",
			Revision: "v1.0.0",
		},
		Output: OutputConfig{
			Directory: "public",
			Minify:    true,
		},
		Publish: PublishConfig{
			Type:      PublishDir,
			Directory: "/var/www/blog",
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	header := "# blogsmith configuration\n# Pin theme.revision to a tag or commit hash for reproducible builds.\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
