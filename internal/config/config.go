package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/arcanaland/cardsync/internal/card"
)

// Backends a config may select.
const (
	BackendNotion = "notion"
	BackendSQLite = "sqlite"
)

// Environment variables that override the config file.
const (
	EnvToken  = "NOTION_TOKEN"
	EnvParent = "CARDSYNC_PARENT"
)

// Config represents the application configuration
type Config struct {
	Backend        string `toml:"backend"`
	NotionToken    string `toml:"notion_token"`
	ParentPage     string `toml:"parent_page"`
	CardsDatabase  string `toml:"cards_database"`
	DecksDatabase  string `toml:"decks_database"`
	TitleStyle     string `toml:"title_style"`
	UpdateExisting bool   `toml:"update_existing"`
	OverridesFile  string `toml:"overrides_file"`
	SQLitePath     string `toml:"sqlite_path"`
	ScryfallURL    string `toml:"scryfall_url"`
	NotionURL      string `toml:"notion_url"`
	LogLevel       string `toml:"log_level"`
	LogFile        string `toml:"log_file"`
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetCacheDir returns the cardsync directory under XDG_CACHE_HOME or its default
func GetCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "cardsync")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache", "cardsync")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "cardsync", "config.toml")
}

// DefaultSQLitePath is where the local backend keeps its database
func DefaultSQLitePath() string {
	return filepath.Join(GetXDGDataHome(), "cardsync", "workspace.db")
}

// Default returns the configuration written on first run
func Default() *Config {
	return &Config{
		Backend:        BackendNotion,
		CardsDatabase:  "MTG Cards",
		DecksDatabase:  "MTG Decks",
		TitleStyle:     string(card.StyleOracleAlt),
		UpdateExisting: true,
		OverridesFile:  "overrides.json",
		SQLitePath:     DefaultSQLitePath(),
		LogLevel:       "info",
	}
}

// LoadConfig loads the config file at path (GetConfigFilePath when empty),
// creating it with defaults when it does not exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = GetConfigFilePath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		config := Default()
		if err := Save(path, config); err != nil {
			return nil, err
		}
		return config, nil
	}

	// Unset keys keep their defaults
	config := Default()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}
	return config, nil
}

// Save writes config to path as TOML
func Save(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// The file may hold a token
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return nil
}

// ApplyEnv overrides file values with NOTION_TOKEN and CARDSYNC_PARENT when set
func (c *Config) ApplyEnv() {
	if tok := strings.TrimSpace(os.Getenv(EnvToken)); tok != "" {
		c.NotionToken = tok
	}
	if parent := strings.TrimSpace(os.Getenv(EnvParent)); parent != "" {
		c.ParentPage = parent
	}
}

// Validate checks the values that commands rely on
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNotion, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendNotion, BackendSQLite)
	}
	if _, err := card.ParseTitleStyle(c.TitleStyle); err != nil {
		return err
	}
	return nil
}

// settable maps config keys to field accessors for `cardsync config`
var settable = map[string]func(c *Config) *string{
	"backend":        func(c *Config) *string { return &c.Backend },
	"notion_token":   func(c *Config) *string { return &c.NotionToken },
	"parent_page":    func(c *Config) *string { return &c.ParentPage },
	"cards_database": func(c *Config) *string { return &c.CardsDatabase },
	"decks_database": func(c *Config) *string { return &c.DecksDatabase },
	"title_style":    func(c *Config) *string { return &c.TitleStyle },
	"overrides_file": func(c *Config) *string { return &c.OverridesFile },
	"sqlite_path":    func(c *Config) *string { return &c.SQLitePath },
	"scryfall_url":   func(c *Config) *string { return &c.ScryfallURL },
	"notion_url":     func(c *Config) *string { return &c.NotionURL },
	"log_level":      func(c *Config) *string { return &c.LogLevel },
	"log_file":       func(c *Config) *string { return &c.LogFile },
}

// Keys lists the keys accepted by Get and Set
func Keys() []string {
	keys := []string{"update_existing"}
	for k := range settable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of key as text. The token is masked.
func (c *Config) Get(key string) (string, error) {
	if key == "update_existing" {
		return strconv.FormatBool(c.UpdateExisting), nil
	}
	field, ok := settable[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	if key == "notion_token" {
		return MaskToken(*field(c)), nil
	}
	return *field(c), nil
}

// Set assigns key from its text form
func (c *Config) Set(key, value string) error {
	switch key {
	case "update_existing":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("update_existing: %w", err)
		}
		c.UpdateExisting = b
		return nil
	case "parent_page":
		if value != "" {
			id, err := NormalizeID(value)
			if err != nil {
				return err
			}
			value = id
		}
	case "title_style":
		style, err := card.ParseTitleStyle(value)
		if err != nil {
			return err
		}
		value = string(style)
	}
	field, ok := settable[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	*field(c) = value
	return nil
}

// MaskToken shortens a secret for display: the first 6 and last 4 characters
// of long tokens, a fixed placeholder for short ones.
func MaskToken(tok string) string {
	if tok == "" {
		return ""
	}
	if len(tok) <= 8 {
		return "token_***"
	}
	return tok[:6] + "…" + tok[len(tok)-4:]
}

// NormalizeID accepts a Notion page or database ID in dashed or undashed form,
// or a page URL ending in one, and returns the dashed form.
func NormalizeID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if id, err := uuid.Parse(s); err == nil {
		return id.String(), nil
	}
	if len(s) >= 32 {
		if id, err := uuid.Parse(s[len(s)-32:]); err == nil {
			return id.String(), nil
		}
	}
	return "", fmt.Errorf("invalid page ID %q", s)
}
