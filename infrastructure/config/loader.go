package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where commands look for the config file
const DefaultPath = "config/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Paths  PathsConfig  `yaml:"paths"`
	Google GoogleConfig `yaml:"google"`
	Clips  ClipsConfig  `yaml:"clips"`
	Batch  BatchConfig  `yaml:"batch"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// PathsConfig contains local directories and files
type PathsConfig struct {
	ScratchDirectory string `yaml:"scratch_directory"`
	JobDatabase      string `yaml:"job_database"`
}

// GoogleConfig contains Google API settings
type GoogleConfig struct {
	CredentialsFile   string   `yaml:"credentials_file"`
	TokenFile         string   `yaml:"token_file"`
	AuthMode          string   `yaml:"auth_mode"`
	OAuthCallbackPort int      `yaml:"oauth_callback_port"`
	OAuthScopes       []string `yaml:"oauth_scopes"`
	FullFolderID      string   `yaml:"full_folder_id"`
	ShortFolderID     string   `yaml:"short_folder_id"`
}

// DriveFileScope limits OAuth access to files the service created itself,
// which covers uploaded segments and the clips cut from them
const DriveFileScope = "https://www.googleapis.com/auth/drive.file"

// ClipsConfig contains clip cutting settings, in seconds
type ClipsConfig struct {
	BackwardOffset float64 `yaml:"backward_offset"`
	ClipDuration   float64 `yaml:"clip_duration"`
	MimeType       string  `yaml:"mime_type"`
	Extension      string  `yaml:"extension"`
}

// BatchConfig contains background processing settings
type BatchConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with every optional field filled in
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 3000, CORSOrigins: []string{"*"}},
		Paths: PathsConfig{
			ScratchDirectory: "tmp",
			JobDatabase:      "data/jobs.db",
		},
		Google: GoogleConfig{
			CredentialsFile:   "credentials.json",
			TokenFile:         "token.json",
			AuthMode:          "service_account",
			OAuthCallbackPort: 8085,
			OAuthScopes:       []string{DriveFileScope},
		},
		Clips: ClipsConfig{
			BackwardOffset: 8,
			ClipDuration:   8,
			MimeType:       "video/webm",
			Extension:      ".webm",
		},
		Batch: BatchConfig{Workers: 2, QueueSize: 64},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env style files into the process environment.
// Variables already set win; missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from MH_* variables. PORT is honored as well.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	integer("PORT", &c.Server.Port)
	integer("MH_PORT", &c.Server.Port)
	if v, ok := lookup("MH_CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	str("MH_SCRATCH_DIR", &c.Paths.ScratchDirectory)
	str("MH_JOB_DB", &c.Paths.JobDatabase)
	str("MH_GOOGLE_CREDENTIALS", &c.Google.CredentialsFile)
	str("MH_GOOGLE_TOKEN", &c.Google.TokenFile)
	str("MH_GOOGLE_AUTH", &c.Google.AuthMode)
	integer("MH_GOOGLE_OAUTH_PORT", &c.Google.OAuthCallbackPort)
	if v, ok := lookup("MH_GOOGLE_OAUTH_SCOPES"); ok && v != "" {
		c.Google.OAuthScopes = splitList(v)
	}
	str("MH_FULL_FOLDER_ID", &c.Google.FullFolderID)
	str("MH_SHORT_FOLDER_ID", &c.Google.ShortFolderID)
	num("MH_BACKWARD_OFFSET", &c.Clips.BackwardOffset)
	num("MH_CLIP_DURATION", &c.Clips.ClipDuration)
	str("MH_MIME_TYPE", &c.Clips.MimeType)
	str("MH_EXTENSION", &c.Clips.Extension)
	integer("MH_WORKERS", &c.Batch.Workers)
	integer("MH_QUEUE_SIZE", &c.Batch.QueueSize)
	str("MH_LOG_LEVEL", &c.Log.Level)
	str("MH_LOG_FORMAT", &c.Log.Format)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment override: %w", errors.Join(errs...))
	}
	return nil
}

// Validate checks that the configuration can run the service
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Google.CredentialsFile == "" {
		problems = append(problems, "google.credentials_file is required")
	}
	if c.Google.FullFolderID == "" {
		problems = append(problems, "google.full_folder_id is required")
	}
	if c.Google.ShortFolderID == "" {
		problems = append(problems, "google.short_folder_id is required")
	}
	switch c.Google.AuthMode {
	case "service_account", "oauth":
	default:
		problems = append(problems, fmt.Sprintf("google.auth_mode %q must be service_account or oauth", c.Google.AuthMode))
	}
	if c.Google.AuthMode == "oauth" {
		if c.Google.OAuthCallbackPort < 0 || c.Google.OAuthCallbackPort > 65535 {
			problems = append(problems, fmt.Sprintf("google.oauth_callback_port %d out of range", c.Google.OAuthCallbackPort))
		}
		if len(c.Google.OAuthScopes) == 0 {
			problems = append(problems, "google.oauth_scopes must not be empty")
		}
	}
	if c.Clips.BackwardOffset <= 0 {
		problems = append(problems, "clips.backward_offset must be positive")
	}
	if c.Clips.ClipDuration <= 0 {
		problems = append(problems, "clips.clip_duration must be positive")
	}
	if !strings.HasPrefix(c.Clips.Extension, ".") {
		problems = append(problems, fmt.Sprintf("clips.extension %q must start with a dot", c.Clips.Extension))
	}
	if c.Batch.Workers < 1 {
		problems = append(problems, "batch.workers must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
