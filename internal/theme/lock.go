package theme

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lock records the resolved commit hash for the configured theme pin so
// repeated builds check out the same tree even when the pin is a moving
// reference (branch or re-tagged tag).
type Lock struct {
	URL      string `yaml:"url"`
	Revision string `yaml:"revision"`
	Hash     string `yaml:"hash"`
}

// ReadLock loads a lock file. A missing file returns (nil, nil).
func ReadLock(path string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read theme lock: %w", err)
	}

	var lock Lock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parse theme lock %s: %w", path, err)
	}
	if lock.Hash == "" {
		return nil, fmt.Errorf("theme lock %s has no hash", path)
	}
	return &lock, nil
}

// WriteLock writes the lock file.
func WriteLock(path string, lock *Lock) error {
	data, err := yaml.Marshal(lock)
	if err != nil {
		return fmt.Errorf("marshal theme lock: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write theme lock: %w", err)
	}
	return nil
}

// Matches reports whether the lock still belongs to the given pin.
func (l *Lock) Matches(url, revision string) bool {
	return l != nil && l.URL == url && l.Revision == revision
}
