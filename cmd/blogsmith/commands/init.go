package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mheir/blogsmith/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

const starterPost = `---
title: Hello, World
date: 2026-01-01
tags: [meta]
---
This is your first post. Edit or delete it, then run ` + "`blogsmith serve`" + `
to preview the site.
`

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", root.Config)

	// Scaffold the content tree next to the config file, but never touch an
	// existing one.
	contentDir := filepath.Join(filepath.Dir(root.Config), "content")
	if _, err := os.Stat(contentDir); err == nil {
		return nil
	}
	postPath := filepath.Join(contentDir, "posts", "hello-world.md")
	if err := os.MkdirAll(filepath.Dir(postPath), 0o755); err != nil {
		return fmt.Errorf("create content skeleton: %w", err)
	}
	if err := os.WriteFile(postPath, []byte(starterPost), 0o644); err != nil {
		return fmt.Errorf("write starter post: %w", err)
	}
	fmt.Printf("Wrote %s\n", postPath)
	return nil
}
