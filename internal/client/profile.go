package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rosterdesk/roster/internal/console"
)

const (
	profileDir  = "roster"
	profileFile = "profile.yaml"
)

// Profile is the client state kept between runs.
type Profile struct {
	Server  string           `yaml:"server,omitempty"`
	Session *console.Session `yaml:"session,omitempty"`
}

// DefaultProfilePath returns <user config dir>/roster/profile.yaml.
func DefaultProfilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, profileDir, profileFile), nil
}

// LoadProfile reads the profile at path. A missing file is an empty profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	return &p, nil
}

// Save writes the profile to path, readable only by the current user since
// it holds a bearer token.
func (p *Profile) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshalling profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	return nil
}
