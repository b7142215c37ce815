package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:7480"
	DefaultDBFileName = ".photomap.db"
	DefaultLogLevel   = "info"

	DefaultLocationSource  = LocationSourceNone
	DefaultLocationTimeout = 5 * time.Second
	// MaxLocationTimeout keeps a location lookup inside the API client's
	// default 10s request timeout (PHOTOMAP_HTTP_TIMEOUT), leaving room
	// for the insert and refresh that follow it.
	MaxLocationTimeout     = 8 * time.Second

	LocationSourceNone   = "none"
	LocationSourceStatic = "static"
	LocationSourceFile   = "file"

	configFileName           = ".photomap.toml"
	dotenvFileName           = ".env"
	configDirEnvKey          = "PHOTOMAP_CONFIG_DIR"
	trustProjectConfigEnvKey = "PHOTOMAP_TRUST_PROJECT_CONFIG"

	apiURLEnvKey         = "PHOTOMAP_API_URL"
	dbPathEnvKey         = "PHOTOMAP_DB"
	logLevelEnvKey       = "PHOTOMAP_LOG_LEVEL"
	locationSourceEnvKey = "PHOTOMAP_LOCATION_SOURCE"
	locationFileEnvKey   = "PHOTOMAP_LOCATION_FILE"
)

// LocationConfig selects where capture-time coordinates come from.
type LocationConfig struct {
	Source    string        `toml:"source"`
	File      string        `toml:"file"`
	Latitude  *float64      `toml:"latitude"`
	Longitude *float64      `toml:"longitude"`
	Timeout   time.Duration `toml:"timeout"`
}

// Config defines runtime configuration for photomap.
type Config struct {
	APIURL                   string         `toml:"api_url"`
	DBPath                   string         `toml:"db_path"`
	LogLevel                 string         `toml:"log_level"`
	Location                 LocationConfig `toml:"location"`
	TrustedProjectConfigPath string         `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		DBPath:   "",
		LogLevel: DefaultLogLevel,
		Location: LocationConfig{
			Source:  DefaultLocationSource,
			Timeout: DefaultLocationTimeout,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

// loadDotenv populates unset environment variables from a .env file in dir.
// Variables already present in the environment win.
func loadDotenv(dir string) error {
	path := filepath.Join(dir, dotenvFileName)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"api_url",
	"db_path",
	"log_level",
	"location.source",
	"location.file",
	"location.latitude",
	"location.longitude",
	"location.timeout",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "location.source":
		return c.Location.Source, nil
	case "location.file":
		return c.Location.File, nil
	case "location.latitude":
		return formatOptionalFloat(c.Location.Latitude), nil
	case "location.longitude":
		return formatOptionalFloat(c.Location.Longitude), nil
	case "location.timeout":
		return c.Location.Timeout.String(), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
// A .env file in the working directory feeds the env overrides.
func Load() (*Config, error) {
	cfg := Default()

	cwd, cwdErr := os.Getwd()
	if cwdErr == nil {
		if err := loadDotenv(cwd); err != nil {
			return nil, err
		}
	}

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() && cwdErr == nil {
			projectPath := filepath.Join(cwd, configFileName)
			loaded, err := loadFileIfExists(projectPath, &cfg)
			if err != nil {
				return nil, err
			}
			if loaded {
				cfg.TrustedProjectConfigPath = projectPath
			}
		}
	}

	if apiURL := strings.TrimSpace(os.Getenv(apiURLEnvKey)); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dbPath := strings.TrimSpace(os.Getenv(dbPathEnvKey)); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if level := strings.TrimSpace(os.Getenv(logLevelEnvKey)); level != "" {
		cfg.LogLevel = level
	}
	if source := strings.TrimSpace(os.Getenv(locationSourceEnvKey)); source != "" {
		cfg.Location.Source = source
	}
	if file := strings.TrimSpace(os.Getenv(locationFileEnvKey)); file != "" {
		cfg.Location.File = file
	}

	if cfg.DBPath == "" && cwdErr == nil {
		cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
	}
	if cfg.DBPath != "" {
		if abs, err := filepath.Abs(cfg.DBPath); err == nil {
			cfg.DBPath = abs
		}
	}

	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	cfg.normalizeLocation()
	if err := cfg.Location.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) normalizeLocation() {
	c.Location.Source = strings.ToLower(strings.TrimSpace(c.Location.Source))
	if c.Location.Source == "" {
		c.Location.Source = DefaultLocationSource
	}
	if c.Location.Timeout <= 0 {
		c.Location.Timeout = DefaultLocationTimeout
	}
}

// ValidateLocationTimeout rejects lookup bounds a client request could not wait out.
// Zero means "use the default".
func ValidateLocationTimeout(d time.Duration) error {
	if d < 0 || d > MaxLocationTimeout {
		return fmt.Errorf("location.timeout must be between 0 and %s, got %s", MaxLocationTimeout, d)
	}
	return nil
}

// Validate checks that the selected source has what it needs.
func (l LocationConfig) Validate() error {
	if err := ValidateLocationTimeout(l.Timeout); err != nil {
		return err
	}
	switch l.Source {
	case LocationSourceNone:
		return nil
	case LocationSourceStatic:
		if l.Latitude == nil || l.Longitude == nil {
			return fmt.Errorf("location.source=static requires location.latitude and location.longitude")
		}
		return nil
	case LocationSourceFile:
		if strings.TrimSpace(l.File) == "" {
			return fmt.Errorf("location.source=file requires location.file")
		}
		return nil
	default:
		return fmt.Errorf("unknown location.source %q (want none, static or file)", l.Source)
	}
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "location.latitude", "location.longitude":
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", key)
		}
		return parsed, nil
	case "location.timeout":
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration such as 5s", key)
		}
		if err := ValidateLocationTimeout(parsed); err != nil {
			return nil, err
		}
		return parsed.String(), nil
	case "location.source":
		source := strings.ToLower(value)
		switch source {
		case LocationSourceNone, LocationSourceStatic, LocationSourceFile:
			return source, nil
		default:
			return nil, fmt.Errorf("%s must be one of none, static, file", key)
		}
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func formatOptionalFloat(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}
