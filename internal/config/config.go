package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// Root is the directory scanned for HTML pages.
	Root string `json:"root,omitempty"`

	// Output is the manifest path written by build.
	Output string `json:"output,omitempty"`

	// OpenPath is the page the dev server opens in the browser,
	// relative to the served directory.
	OpenPath string `json:"open_path,omitempty"`

	// Bind is the dev server listen address. The default binds loopback
	// only; set "0.0.0.0" to expose the server on the network.
	Bind string `json:"bind,omitempty"`

	// Port is the dev server TCP port.
	Port int `json:"port,omitempty"`

	// DebounceMS is how long watch mode waits for changes to settle
	// before rebuilding, in milliseconds.
	DebounceMS int `json:"debounce_ms,omitempty"`

	// HistoryLimit caps how many build records the history command returns.
	HistoryLimit int `json:"history_limit,omitempty"`

	// DisableOpen skips the automatic browser open in serve.
	DisableOpen bool `json:"disable_open,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// All tools are enabled by default. Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// All tools belonging to disabled types are excluded from registration.
	// Known types: "catalog". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Root:         "pages",
		Output:       "tools-config.json",
		OpenPath:     "pages/calculate/calculator-hub.html",
		Bind:         "127.0.0.1",
		Port:         8001,
		DebounceMS:   300,
		HistoryLimit: 20,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.sitecat.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithSite loads configuration from both global (~/.sitecat) and site (.sitecat) directories.
// Site config is found by walking upward from startDir to find the nearest .sitecat/config.json.
// Site config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithSite(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	// Walk upward from startDir to find site config
	siteConfigPath := FindSiteConfig(startDir)
	site, err := loadFileRaw(siteConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then site
	return Merge(Merge(DefaultConfig(), global), site), nil
}

// FindSiteConfig walks upward from startDir to find the nearest .sitecat/config.json.
// Returns the path if found, or empty string if not found.
func FindSiteConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".sitecat", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, not found
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, return zero config
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Strings: overlay wins if non-empty, else base
	result.Root = overlay.Root
	if result.Root == "" {
		result.Root = base.Root
	}

	result.Output = overlay.Output
	if result.Output == "" {
		result.Output = base.Output
	}

	result.OpenPath = overlay.OpenPath
	if result.OpenPath == "" {
		result.OpenPath = base.OpenPath
	}

	result.Bind = overlay.Bind
	if result.Bind == "" {
		result.Bind = base.Bind
	}

	// Integers: overlay wins if non-zero, else base
	result.Port = overlay.Port
	if result.Port == 0 {
		result.Port = base.Port
	}

	result.DebounceMS = overlay.DebounceMS
	if result.DebounceMS == 0 {
		result.DebounceMS = base.DebounceMS
	}

	result.HistoryLimit = overlay.HistoryLimit
	if result.HistoryLimit == 0 {
		result.HistoryLimit = base.HistoryLimit
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Booleans: overlay wins if true, else base
	result.DisableOpen = base.DisableOpen || overlay.DisableOpen

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
