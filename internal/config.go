package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultConvertTimeout = 10 * time.Minute
	DefaultCacheTTL       = 24 * time.Hour

	envPrefix = "FILECONV_"
)

// Duration is a time.Duration that reads and writes as "30s" in YAML
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", node.Line, node.Value)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the client configuration, stored as YAML.
//
// Precedence, highest first: command-line flags, FILECONV_* environment
// variables (including a .env file), the config file, defaults.
type Config struct {
	BaseURL            string   `yaml:"base_url" validate:"required,url"`
	Origin             string   `yaml:"origin,omitempty" validate:"omitempty,url"`
	Language           string   `yaml:"language" validate:"required"`
	Model              string   `yaml:"model,omitempty"`
	Temperature        float64  `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens          int      `yaml:"max_tokens" validate:"gte=1,lte=32768"`
	ChatTimeout        Duration `yaml:"chat_timeout"`
	ConvertTimeout     Duration `yaml:"convert_timeout"`
	ChatConvertTimeout Duration `yaml:"chat_convert_timeout"`
	CacheDir           string   `yaml:"cache_dir,omitempty"`
	CacheTTL           Duration `yaml:"cache_ttl"`
	LogLevel           string   `yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFormat          string   `yaml:"log_format,omitempty" validate:"omitempty,oneof=text json"`
	Theme              string   `yaml:"theme,omitempty" validate:"omitempty,oneof=dark light"`
	User               Identity `yaml:"user,omitempty"`
}

// DefaultConfig returns a config with every default filled in.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            DefaultBaseURL,
		Language:           DefaultLanguage,
		Temperature:        DefaultChatTemperature,
		MaxTokens:          DefaultChatMaxTokens,
		ChatTimeout:        Duration(DefaultChatTimeout),
		ConvertTimeout:     Duration(DefaultConvertTimeout),
		ChatConvertTimeout: Duration(DefaultChatConvertTimeout),
		CacheTTL:           Duration(DefaultCacheTTL),
		LogLevel:           "info",
		LogFormat:          "text",
		Theme:              "dark",
	}
}

// DefaultConfigPath returns ~/.fileconv/config.yaml
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return "fileconv.config.yaml"
	}
	return filepath.Join(home, ".fileconv", "config.yaml")
}

// DefaultCacheDir is where the catalog cache lives unless cache_dir is set.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "fileconv")
	}
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "cache")
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored and variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
		LogDebug("Loaded environment from %s", f)
	}
	return nil
}

// LoadConfig reads path over the defaults, then applies FILECONV_*
// environment variables. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile reads path over the defaults without consulting the
// environment or validating. Used when editing the file itself.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			LogDebug("No config file at %s, using defaults", path)
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return cfg, nil
}

// SaveConfig validates cfg and writes it atomically with 0600 permissions.
func SaveConfig(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp, path)
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if _, ok := LookupLanguage(c.Language); !ok {
		return &ValidationError{Field: "language", Message: fmt.Sprintf("unsupported language %q", c.Language)}
	}
	for name, d := range map[string]Duration{
		"chat_timeout":         c.ChatTimeout,
		"convert_timeout":      c.ConvertTimeout,
		"chat_convert_timeout": c.ChatConvertTimeout,
		"cache_ttl":            c.CacheTTL,
	} {
		if d < 0 || (d == 0 && name != "cache_ttl") {
			return &ValidationError{Field: name, Message: name + " must be positive"}
		}
	}
	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: "base_url", Message: "base_url must be an http or https URL"}
	}
	return nil
}

// DownloadOrigin is the prefix for relative download links: origin if set,
// otherwise the scheme and host of the base URL.
func (c *Config) DownloadOrigin() string {
	if c.Origin != "" {
		return strings.TrimRight(c.Origin, "/")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return u.Scheme + "://" + u.Host
}

// ResolvedCacheDir returns CacheDir or the default.
func (c *Config) ResolvedCacheDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	return DefaultCacheDir()
}

// ChatSettings derives chat bridge settings.
func (c *Config) ChatSettings() ChatSettings {
	temp := c.Temperature
	return ChatSettings{
		Language:       c.Language,
		Model:          c.Model,
		Temperature:    &temp,
		MaxTokens:      c.MaxTokens,
		Timeout:        c.ChatTimeout.Std(),
		ConvertTimeout: c.ChatConvertTimeout.Std(),
		Identity:       c.User,
	}
}

type configField struct {
	env string
	set func(c *Config, v string) error
	get func(c *Config) string
}

func durationField(env string, ptr func(c *Config) *Duration) configField {
	return configField{
		env: env,
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			*ptr(c) = Duration(d)
			return nil
		},
		get: func(c *Config) string { return ptr(c).String() },
	}
}

func stringField(env string, ptr func(c *Config) *string) configField {
	return configField{
		env: env,
		set: func(c *Config, v string) error { *ptr(c) = v; return nil },
		get: func(c *Config) string { return *ptr(c) },
	}
}

// configFields is keyed by the YAML name; "user.*" keys address the identity.
var configFields = map[string]configField{
	"base_url": stringField("BASE_URL", func(c *Config) *string { return &c.BaseURL }),
	"origin":   stringField("ORIGIN", func(c *Config) *string { return &c.Origin }),
	"language": stringField("LANG", func(c *Config) *string { return &c.Language }),
	"model":    stringField("MODEL", func(c *Config) *string { return &c.Model }),
	"temperature": {
		env: "TEMPERATURE",
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			c.Temperature = f
			return nil
		},
		get: func(c *Config) string { return strconv.FormatFloat(c.Temperature, 'g', -1, 64) },
	},
	"max_tokens": {
		env: "MAX_TOKENS",
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			c.MaxTokens = n
			return nil
		},
		get: func(c *Config) string { return strconv.Itoa(c.MaxTokens) },
	},
	"chat_timeout":         durationField("CHAT_TIMEOUT", func(c *Config) *Duration { return &c.ChatTimeout }),
	"convert_timeout":      durationField("CONVERT_TIMEOUT", func(c *Config) *Duration { return &c.ConvertTimeout }),
	"chat_convert_timeout": durationField("CHAT_CONVERT_TIMEOUT", func(c *Config) *Duration { return &c.ChatConvertTimeout }),
	"cache_dir":            stringField("CACHE_DIR", func(c *Config) *string { return &c.CacheDir }),
	"cache_ttl":            durationField("CACHE_TTL", func(c *Config) *Duration { return &c.CacheTTL }),
	"log_level":            stringField("LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }),
	"log_format":           stringField("LOG_FORMAT", func(c *Config) *string { return &c.LogFormat }),
	"theme":                stringField("THEME", func(c *Config) *string { return &c.Theme }),
	"user.email":           stringField("EMAIL", func(c *Config) *string { return &c.User.Email }),
	"user.name":            stringField("NAME", func(c *Config) *string { return &c.User.Name }),
	"user.token":           stringField("TOKEN", func(c *Config) *string { return &c.User.Token }),
}

// ConfigKeys lists the keys accepted by Set, sorted.
func ConfigKeys() []string {
	keys := make([]string, 0, len(configFields))
	for k := range configFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one key from its string form. The result is not validated.
func (c *Config) Set(key, value string) error {
	field, ok := configFields[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return &ValidationError{Field: key, Message: fmt.Sprintf("unknown config key %q (valid: %s)", key, strings.Join(ConfigKeys(), ", "))}
	}
	if err := field.set(c, strings.TrimSpace(value)); err != nil {
		return &ValidationError{Field: key, Message: fmt.Sprintf("invalid value for %s: %v", key, err)}
	}
	return nil
}

// Get returns one key in string form.
func (c *Config) Get(key string) (string, error) {
	field, ok := configFields[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return "", &ValidationError{Field: key, Message: fmt.Sprintf("unknown config key %q", key)}
	}
	return field.get(c), nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, key := range ConfigKeys() {
		field := configFields[key]
		v, ok := lookup(envPrefix + field.env)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := c.Set(key, v); err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, field.env, err)
		}
	}
	return nil
}
