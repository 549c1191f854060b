package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL         = "http://127.0.0.1:7480"
	DefaultWebAddr        = "127.0.0.1:7481"
	DefaultLogLevel       = "debug"
	DefaultSessionTTL     = "24h"
	DefaultURLTTL         = "15m"
	DefaultDBFileName     = "notesdrive.db"
	DefaultBlobDirName    = "blobs"
	DefaultSessionFile    = "session.json"
	DefaultMaxUploadBytes = int64(10 << 20)

	configFileName = ".notesdrive.toml"
	dataDirName    = ".notesdrive"
	dotEnvFileName = ".env"

	configDirEnvKey          = "NOTESDRIVE_CONFIG_DIR"
	trustProjectConfigEnvKey = "NOTESDRIVE_TRUST_PROJECT_CONFIG"

	apiURLEnvKey        = "NOTESDRIVE_API_URL"
	webAddrEnvKey       = "NOTESDRIVE_WEB_ADDR"
	dbPathEnvKey        = "NOTESDRIVE_DB"
	blobRootEnvKey      = "NOTESDRIVE_BLOB_ROOT"
	signingSecretEnvKey = "NOTESDRIVE_SIGNING_SECRET"
)

// DefaultAllowedPatterns are the storage paths reachable through the platform.
var DefaultAllowedPatterns = []string{"media/*"}

// StorageConfig defines the local platform's blob storage settings.
type StorageConfig struct {
	Root            string   `toml:"root"`
	MaxUploadBytes  int64    `toml:"max_upload_bytes"`
	AllowedPatterns []string `toml:"allowed_patterns"`
	SigningSecret   string   `toml:"signing_secret"`
	URLTTL          string   `toml:"url_ttl"`
}

// Config defines runtime configuration for notesdrive.
type Config struct {
	APIURL                   string        `toml:"api_url"`
	WebAddr                  string        `toml:"web_addr"`
	DBPath                   string        `toml:"db_path"`
	LogLevel                 string        `toml:"log_level"`
	SessionTTL               string        `toml:"session_ttl"`
	Storage                  StorageConfig `toml:"storage"`
	TrustedProjectConfigPath string        `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:     DefaultAPIURL,
		WebAddr:    DefaultWebAddr,
		LogLevel:   DefaultLogLevel,
		SessionTTL: DefaultSessionTTL,
		Storage: StorageConfig{
			MaxUploadBytes:  DefaultMaxUploadBytes,
			AllowedPatterns: append([]string(nil), DefaultAllowedPatterns...),
			URLTTL:          DefaultURLTTL,
		},
	}
}

// SessionTTLDuration returns the platform session lifetime.
func (c *Config) SessionTTLDuration() (time.Duration, error) {
	return parsePositiveDuration("session_ttl", c.SessionTTL, DefaultSessionTTL)
}

// URLTTLDuration returns the lifetime of signed storage URLs.
func (c *Config) URLTTLDuration() (time.Duration, error) {
	return parsePositiveDuration("storage.url_ttl", c.Storage.URLTTL, DefaultURLTTL)
}

func parsePositiveDuration(key, raw, fallback string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
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

// loadDotEnv exports variables from path without overriding the environment.
func loadDotEnv(path string) error {
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
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func overrideConfigDir() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return dir, true
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
	"web_addr",
	"db_path",
	"log_level",
	"session_ttl",
	"storage.root",
	"storage.max_upload_bytes",
	"storage.allowed_patterns",
	"storage.signing_secret",
	"storage.url_ttl",
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
	case "web_addr":
		return c.WebAddr, nil
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "session_ttl":
		return c.SessionTTL, nil
	case "storage.root":
		return c.Storage.Root, nil
	case "storage.max_upload_bytes":
		return strconv.FormatInt(c.Storage.MaxUploadBytes, 10), nil
	case "storage.allowed_patterns":
		return strings.Join(c.Storage.AllowedPatterns, ","), nil
	case "storage.signing_secret":
		return c.Storage.SigningSecret, nil
	case "storage.url_ttl":
		return c.Storage.URLTTL, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// DataDir returns the directory holding the local database, blobs and the CLI session.
func DataDir() (string, error) {
	if dir, ok := overrideConfigDir(); ok {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dataDirName), nil
}

// SessionPath returns the path of the cached CLI session.
func SessionPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultSessionFile), nil
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if dir, ok := overrideConfigDir(); ok {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if dir, ok := overrideConfigDir(); ok {
		return filepath.Join(dir, configFileName), nil
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

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files, the working directory's .env, and env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if dir, ok := overrideConfigDir(); ok {
		if err := loadFile(filepath.Join(dir, configFileName), &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
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
	}

	if cwd, err := os.Getwd(); err == nil {
		if err := loadDotEnv(filepath.Join(cwd, dotEnvFileName)); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv(apiURLEnvKey); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv(webAddrEnvKey); v != "" {
		cfg.WebAddr = v
	}
	if v := os.Getenv(dbPathEnvKey); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(blobRootEnvKey); v != "" {
		cfg.Storage.Root = v
	}
	if v := os.Getenv(signingSecretEnvKey); v != "" {
		cfg.Storage.SigningSecret = v
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.APIURL) == "" {
		c.APIURL = DefaultAPIURL
	}
	if strings.TrimSpace(c.WebAddr) == "" {
		c.WebAddr = DefaultWebAddr
	}
	if c.Storage.MaxUploadBytes <= 0 {
		c.Storage.MaxUploadBytes = DefaultMaxUploadBytes
	}
	c.Storage.AllowedPatterns = normalizePatterns(c.Storage.AllowedPatterns)
	if len(c.Storage.AllowedPatterns) == 0 {
		c.Storage.AllowedPatterns = append([]string(nil), DefaultAllowedPatterns...)
	}

	if c.DBPath != "" && c.Storage.Root != "" {
		return nil
	}
	dir, err := DataDir()
	if err != nil {
		return err
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(dir, DefaultDBFileName)
	}
	if c.Storage.Root == "" {
		c.Storage.Root = filepath.Join(dir, DefaultBlobDirName)
	}
	return nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "storage.max_upload_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "session_ttl", "storage.url_ttl":
		if _, err := parsePositiveDuration(key, value, ""); err != nil {
			return nil, err
		}
		return value, nil
	case "storage.allowed_patterns":
		patterns := splitCSV(value)
		for _, p := range patterns {
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("%s: invalid pattern %q", key, p)
			}
		}
		return patterns, nil
	case "storage.signing_secret":
		if len(value) < 16 {
			return nil, fmt.Errorf("%s must be at least 16 characters", key)
		}
		return value, nil
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

func splitCSV(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func normalizePatterns(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := map[string]struct{}{}
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
