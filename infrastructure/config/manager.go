package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownKey is returned for keys that are not settable
var ErrUnknownKey = errors.New("unknown config key")

// Manager reads and writes individual settings by dotted key
// (for example "clips.backward_offset") and persists changes
type Manager struct {
	config     *Config
	configPath string
}

// NewManager creates a new config manager
func NewManager(cfg *Config, configPath string) *Manager {
	return &Manager{
		config:     cfg,
		configPath: configPath,
	}
}

type field struct {
	get func(*Config) string
	set func(*Config, string) error
}

func stringField(p func(*Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

func floatField(p func(*Config) *float64) field {
	return field{
		get: func(c *Config) string { return strconv.FormatFloat(*p(c), 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("not a number: %q", v)
			}
			*p(c) = f
			return nil
		},
	}
}

func intField(p func(*Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("not an integer: %q", v)
			}
			*p(c) = n
			return nil
		},
	}
}

var fields = map[string]field{
	"server.port": intField(func(c *Config) *int { return &c.Server.Port }),
	"server.cors_origins": {
		get: func(c *Config) string { return strings.Join(c.Server.CORSOrigins, ",") },
		set: func(c *Config, v string) error { c.Server.CORSOrigins = splitList(v); return nil },
	},
	"google.oauth_callback_port": intField(func(c *Config) *int { return &c.Google.OAuthCallbackPort }),
	"google.oauth_scopes": {
		get: func(c *Config) string { return strings.Join(c.Google.OAuthScopes, ",") },
		set: func(c *Config, v string) error { c.Google.OAuthScopes = splitList(v); return nil },
	},
	"paths.scratch_directory": stringField(func(c *Config) *string { return &c.Paths.ScratchDirectory }),
	"paths.job_database":      stringField(func(c *Config) *string { return &c.Paths.JobDatabase }),
	"google.credentials_file": stringField(func(c *Config) *string { return &c.Google.CredentialsFile }),
	"google.token_file":       stringField(func(c *Config) *string { return &c.Google.TokenFile }),
	"google.auth_mode":        stringField(func(c *Config) *string { return &c.Google.AuthMode }),
	"google.full_folder_id":   stringField(func(c *Config) *string { return &c.Google.FullFolderID }),
	"google.short_folder_id":  stringField(func(c *Config) *string { return &c.Google.ShortFolderID }),
	"clips.backward_offset":   floatField(func(c *Config) *float64 { return &c.Clips.BackwardOffset }),
	"clips.clip_duration":     floatField(func(c *Config) *float64 { return &c.Clips.ClipDuration }),
	"clips.mime_type":         stringField(func(c *Config) *string { return &c.Clips.MimeType }),
	"clips.extension":         stringField(func(c *Config) *string { return &c.Clips.Extension }),
	"batch.workers":           intField(func(c *Config) *int { return &c.Batch.Workers }),
	"batch.queue_size":        intField(func(c *Config) *int { return &c.Batch.QueueSize }),
	"log.level":               stringField(func(c *Config) *string { return &c.Log.Level }),
	"log.format":              stringField(func(c *Config) *string { return &c.Log.Format }),
}

// Keys returns every settable key in sorted order
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the current value of key
func (m *Manager) Get(key string) (string, error) {
	f, ok := fields[normalizeKey(key)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return f.get(m.config), nil
}

// Set updates key and saves the config file
func (m *Manager) Set(key, value string) error {
	f, ok := fields[normalizeKey(key)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if err := f.set(m.config, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return Save(m.config, m.configPath)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
