// Package config resolves server settings from the environment and loads
// the optional vendor seed file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/ewaste/internal/model"
)

// Config holds the settings that flags fall back to.
type Config struct {
	DBPath     string
	Addr       string
	AdminEmail string
	LogPath    string
	SeedPath   string
}

// Load reads .env (or the given files) into the environment without
// overriding variables that are already set, then resolves the settings.
// A missing .env is not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv resolves the settings from the current environment.
func FromEnv() *Config {
	return &Config{
		DBPath:     getEnv("EWASTE_DB", "ewaste.sqlite3"),
		Addr:       getEnv("EWASTE_ADDR", ":8080"),
		AdminEmail: getEnv("EWASTE_ADMIN", "admin@example.com"),
		LogPath:    os.Getenv("EWASTE_LOG"),
		SeedPath:   os.Getenv("EWASTE_SEED"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type seedFile struct {
	Vendors []seedVendor `yaml:"vendors"`
}

type seedVendor struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Contact   string `yaml:"contact"`
	Certified bool   `yaml:"certified"`
}

// LoadVendors parses a YAML vendor seed file:
//
//	vendors:
//	  - id: v-eco1
//	    name: EcoCycle Pvt Ltd
//	    contact: eco@cycle.com
//	    certified: true
//
// Entries without an id get "v-seed<n>". Entries without a name are rejected.
func LoadVendors(path string) ([]model.Vendor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseVendors(data)
}

// ParseVendors decodes the seed file contents.
func ParseVendors(data []byte) ([]model.Vendor, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	seen := make(map[string]bool, len(f.Vendors))
	vendors := make([]model.Vendor, 0, len(f.Vendors))
	for i, sv := range f.Vendors {
		v := model.Vendor{
			ID:        strings.TrimSpace(sv.ID),
			Name:      strings.TrimSpace(sv.Name),
			Contact:   strings.TrimSpace(sv.Contact),
			Certified: sv.Certified,
		}
		if v.ID == "" {
			v.ID = fmt.Sprintf("v-seed%d", i+1)
		}
		if v.Name == "" {
			return nil, fmt.Errorf("vendor %d: name is required", i+1)
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("vendor %d: duplicate id %q", i+1, v.ID)
		}
		seen[v.ID] = true
		vendors = append(vendors, v)
	}
	return vendors, nil
}
