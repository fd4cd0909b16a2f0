// Package profile keeps named configuration overlays, one per production
// site or workshop, under the data directory.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robertguss/factorydesk/internal/config"
	"github.com/robertguss/factorydesk/internal/storage"
)

const activeMarker = ".active"

// Profile is a named set of overrides applied on top of the loaded config
type Profile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Store       string `yaml:"store,omitempty"`
	StorePath   string `yaml:"store_path,omitempty"`
	Language    string `yaml:"language,omitempty"`
	Theme       string `yaml:"theme,omitempty"`
	APIPort     int    `yaml:"api_port,omitempty"`
}

// Apply overlays the non-empty profile fields onto cfg
func (p *Profile) Apply(cfg *config.Config) {
	if p.Store != "" {
		cfg.StoreDriver = p.Store
	}
	if p.StorePath != "" {
		if cfg.StoreDriver == storage.DriverJSON {
			cfg.OrdersFile = p.StorePath
		} else {
			cfg.DatabasePath = p.StorePath
		}
	}
	if p.Language != "" {
		cfg.Language = p.Language
	}
	if p.Theme != "" {
		cfg.Theme = p.Theme
	}
	if p.APIPort != 0 {
		cfg.APIPort = p.APIPort
	}
}

// ProfileStore manages profile persistence
type ProfileStore struct {
	profileDir string
	profiles   map[string]*Profile
	active     string
}

// NewProfileStore creates a store rooted at dataDir/profiles
func NewProfileStore(dataDir string) *ProfileStore {
	return &ProfileStore{
		profileDir: filepath.Join(dataDir, "profiles"),
		profiles:   make(map[string]*Profile),
	}
}

// Dir returns the profile directory
func (ps *ProfileStore) Dir() string {
	return ps.profileDir
}

// Load reads all profiles from disk. A missing directory means no profiles.
func (ps *ProfileStore) Load() error {
	files, err := filepath.Glob(filepath.Join(ps.profileDir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	for _, file := range files {
		p, err := loadProfile(file)
		if err != nil {
			return fmt.Errorf("failed to load profile %s: %w", filepath.Base(file), err)
		}
		ps.profiles[p.Name] = p
	}

	if data, err := os.ReadFile(filepath.Join(ps.profileDir, activeMarker)); err == nil {
		ps.active = strings.TrimSpace(string(data))
	}

	return nil
}

func loadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), ".yaml")
	}
	return &p, nil
}

// validateName rejects names that would escape the profile directory
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("profile name contains invalid characters: must not contain /, \\, or ..")
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("profile name cannot start with a dot")
	}
	return nil
}

// Save writes a profile to disk
func (ps *ProfileStore) Save(p *Profile) error {
	if err := validateName(p.Name); err != nil {
		return err
	}
	if err := os.MkdirAll(ps.profileDir, 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(filepath.Join(ps.profileDir, p.Name+".yaml"), data, 0644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}

	ps.profiles[p.Name] = p
	return nil
}

// Delete removes a profile, clearing the active marker if it pointed at it
func (ps *ProfileStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	path := filepath.Join(ps.profileDir, name+".yaml")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	delete(ps.profiles, name)

	if ps.active == name {
		ps.active = ""
		if err := os.Remove(filepath.Join(ps.profileDir, activeMarker)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to clear active profile: %w", err)
		}
	}
	return nil
}

// Get returns a profile by name
func (ps *ProfileStore) Get(name string) (*Profile, bool) {
	p, ok := ps.profiles[name]
	return p, ok
}

// List returns all profile names, sorted
func (ps *ProfileStore) List() []string {
	names := make([]string, 0, len(ps.profiles))
	for name := range ps.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetActive records the profile used when none is named explicitly
func (ps *ProfileStore) SetActive(name string) error {
	if _, ok := ps.profiles[name]; !ok {
		return fmt.Errorf("profile not found: %s", name)
	}

	if err := os.WriteFile(filepath.Join(ps.profileDir, activeMarker), []byte(name), 0644); err != nil {
		return fmt.Errorf("failed to set active profile: %w", err)
	}

	ps.active = name
	return nil
}

// Active returns the active profile name
func (ps *ProfileStore) Active() string {
	return ps.active
}

// Resolve returns the named profile, or the active one when name is empty.
// It returns nil when neither is set.
func (ps *ProfileStore) Resolve(name string) (*Profile, error) {
	if name == "" {
		name = ps.active
	}
	if name == "" {
		return nil, nil
	}

	p, ok := ps.profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile not found: %s", name)
	}
	return p, nil
}
