package config

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/hades-rgb/timesheets/internal/errors"
	"github.com/hades-rgb/timesheets/internal/logging"
)

const (
	DefaultListen   = ":8080"
	DefaultTimezone = "Europe/Berlin"
)

// Config holds everything a timesheets process needs to run
type Config struct {
	// Database is the path of the sqlite file shared by all executors
	Database string `yaml:"database" toml:"database"`

	// Owner is the identity that may write the shared store directly
	Owner string `yaml:"owner" toml:"owner"`

	// Actor is the identity of this process. Defaults to the OS user name.
	Actor string `yaml:"actor" toml:"actor"`

	// RelayURL is the endpoint of the service running as Owner
	RelayURL string `yaml:"relay_url" toml:"relay_url"`

	Listen   string         `yaml:"listen" toml:"listen"`
	Timezone string         `yaml:"timezone" toml:"timezone"`
	Log      logging.Config `yaml:"log" toml:"log"`
}

// Default returns a configuration with every optional field filled in
func Default() *Config {
	return &Config{
		Database: defaultDatabasePath(),
		Actor:    currentUser(),
		Listen:   DefaultListen,
		Timezone: DefaultTimezone,
		Log:      logging.Config{Level: "info", Format: "text"},
	}
}

// Validate checks the fields every command relies on. The relay endpoint is
// validated separately, right before it is used.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Owner) == "" {
		return errors.ConfigInvalid("owner must be set")
	}
	if strings.TrimSpace(c.Database) == "" {
		return errors.ConfigInvalid("database must be set")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.ConfigInvalid("unknown timezone " + c.Timezone)
	}
	return nil
}

// Location returns the display timezone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// applyEnv overrides fields from TIMESHEETS_* environment variables
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"TIMESHEETS_DATABASE":   &c.Database,
		"TIMESHEETS_OWNER":      &c.Owner,
		"TIMESHEETS_ACTOR":      &c.Actor,
		"TIMESHEETS_RELAY_URL":  &c.RelayURL,
		"TIMESHEETS_LISTEN":     &c.Listen,
		"TIMESHEETS_TIMEZONE":   &c.Timezone,
		"TIMESHEETS_LOG_FORMAT": &c.Log.Format,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok {
			*field = v
		}
	}
}

func defaultDatabasePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "timesheets.db"
	}
	return filepath.Join(homeDir, ".timesheets", "timesheets.db")
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
