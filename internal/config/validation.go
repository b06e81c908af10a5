package config

import (
	"fmt"
)

// Validate checks the configuration for inconsistencies that would make a
// build fail in a confusing place later.
func (c *Config) Validate() error {
	if c.Theme.Path == "" && c.Theme.URL == "" {
		return fmt.Errorf("theme: either theme.path or theme.url must be set")
	}
	if c.Theme.Path != "" && c.Theme.URL != "" {
		return fmt.Errorf("theme: theme.path and theme.url are mutually exclusive")
	}
	if c.Theme.URL != "" && c.Theme.Revision == "" {
		return fmt.Errorf("theme: theme.revision is required when theme.url is set (pin a tag or commit)")
	}

	switch c.Publish.Type {
	case PublishDir:
		// Directory may stay empty until `publish` is actually invoked.
	case PublishGit:
		if c.Publish.Git == nil || c.Publish.Git.URL == "" {
			return fmt.Errorf("publish: publish.git.url is required for type %q", PublishGit)
		}
	default:
		return fmt.Errorf("publish: unknown type %q (expected %q or %q)", c.Publish.Type, PublishDir, PublishGit)
	}

	if c.Preview.Port < 1 || c.Preview.Port > 65535 {
		return fmt.Errorf("preview: port %d out of range", c.Preview.Port)
	}

	if c.Theme.Auth != nil {
		if err := validateAuth(c.Theme.Auth); err != nil {
			return fmt.Errorf("theme: %w", err)
		}
	}
	if c.Publish.Git != nil && c.Publish.Git.Auth != nil {
		if err := validateAuth(c.Publish.Git.Auth); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
	}
	return nil
}

func validateAuth(a *AuthConfig) error {
	switch a.Type {
	case "", "none", "ssh":
		return nil
	case "token":
		if a.Token == "" {
			return fmt.Errorf("auth type token requires a token")
		}
	case "basic":
		if a.Username == "" {
			return fmt.Errorf("auth type basic requires a username")
		}
	default:
		return fmt.Errorf("unknown auth type %q", a.Type)
	}
	return nil
}
