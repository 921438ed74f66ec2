package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Verbose enables debug output when true
var Verbose bool

// Config is the top-level configuration, read from ~/.soundleap/config.yaml.
type Config struct {
	BLE     BLEConfig     `yaml:"ble"`
	Catalog CatalogConfig `yaml:"catalog"`
	Chat    ChatConfig    `yaml:"chat"`
	Logger  LoggerConfig  `yaml:"logger"`
	Store   StoreConfig   `yaml:"store"`
}

// BLEConfig describes the mat hub's GATT profile and link behaviour.
type BLEConfig struct {
	ServiceUUID        string        `yaml:"service_uuid"`
	CharacteristicUUID string        `yaml:"characteristic_uuid"`
	NamePrefix         string        `yaml:"name_prefix"`
	MatchMode          string        `yaml:"match_mode"` // exact, prefix, suffix
	ScanTimeout        time.Duration `yaml:"scan_timeout"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"` // 0 = wait forever
	LineEnding         bool          `yaml:"line_ending"`
	ChunkSize          int           `yaml:"chunk_size"`
	ChunkDelay         time.Duration `yaml:"chunk_delay"`
	StartDelay         time.Duration `yaml:"start_delay"`    // after the start byte
	SettingsDelay      time.Duration `yaml:"settings_delay"` // after the settings line
}

// CatalogConfig points at the JSON game service.
type CatalogConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ChatConfig configures the FAQ assistant.
type ChatConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"api_key"`
	SystemPrompt   string        `yaml:"system_prompt"`
	RequestsPerMin int           `yaml:"requests_per_min"`
	Timeout        time.Duration `yaml:"timeout"`
}

// LoggerConfig controls structured logging.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stderr, stdout or a file path
}

// StoreConfig holds local state locations.
type StoreConfig struct {
	Dir string `yaml:"dir"`
}

const defaultSystemPrompt = `You are the assistant for SoundLeap. SoundLeap builds floor mats with
sensors and speakers that let blind and visually impaired people play sports.
The mats play simple high and low beeps for orientation; there are no melodies.
Players pick and configure games (Memory, reaction game, hopscotch, or their
own programs) in an accessible app and connect to the mats with a short code.
Answer briefly and only about SoundLeap.`

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		BLE: BLEConfig{
			ServiceUUID:        "0000ffe0-0000-1000-8000-00805f9b34fb",
			CharacteristicUUID: "0000ffe1-0000-1000-8000-00805f9b34fb",
			NamePrefix:         "SL-",
			MatchMode:          "exact",
			ScanTimeout:        30 * time.Second,
			LineEnding:         true,
			ChunkSize:          200,
			ChunkDelay:         500 * time.Millisecond,
			StartDelay:         100 * time.Millisecond,
			SettingsDelay:      time.Second,
		},
		Catalog: CatalogConfig{
			BaseURL: "https://www.cakelab.co.nl/ssa-server",
			Timeout: 30 * time.Second,
		},
		Chat: ChatConfig{
			BaseURL:        "https://openrouter.ai/api/v1",
			Model:          "deepseek/deepseek-r1:free",
			SystemPrompt:   defaultSystemPrompt,
			RequestsPerMin: 20,
			Timeout:        60 * time.Second,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// HomeDir returns ~/.soundleap.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".soundleap"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads a YAML config file over the defaults and applies env var
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	ApplyEnvOverrides(cfg)

	if cfg.Store.Dir == "" {
		dir, err := HomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home: %w", err)
		}
		cfg.Store.Dir = dir
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps SOUNDLEAP_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SOUNDLEAP_BLE_NAME_PREFIX"); v != "" {
		cfg.BLE.NamePrefix = v
	}
	if v := os.Getenv("SOUNDLEAP_BLE_MATCH_MODE"); v != "" {
		cfg.BLE.MatchMode = v
	}
	if v := os.Getenv("SOUNDLEAP_BLE_SCAN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.BLE.ScanTimeout = d
		}
	}
	if v := os.Getenv("SOUNDLEAP_CATALOG_URL"); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if v := os.Getenv("SOUNDLEAP_CHAT_URL"); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := os.Getenv("SOUNDLEAP_CHAT_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
	if v := os.Getenv("SOUNDLEAP_CHAT_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
	}
	if v := os.Getenv("SOUNDLEAP_CHAT_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chat.RequestsPerMin = n
		}
	}
	if v := os.Getenv("SOUNDLEAP_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("SOUNDLEAP_LOG_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("SOUNDLEAP_STORE_DIR"); v != "" {
		cfg.Store.Dir = v
	}
}

// Validate checks field values that the rest of the program relies on.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.BLE.ServiceUUID == "" {
		errs = append(errs, errors.New("ble.service_uuid is required"))
	}
	if cfg.BLE.CharacteristicUUID == "" {
		errs = append(errs, errors.New("ble.characteristic_uuid is required"))
	}
	switch strings.ToLower(cfg.BLE.MatchMode) {
	case "exact", "prefix", "suffix":
	default:
		errs = append(errs, fmt.Errorf("ble.match_mode %q must be exact, prefix or suffix", cfg.BLE.MatchMode))
	}
	if cfg.BLE.ChunkSize < 0 {
		errs = append(errs, errors.New("ble.chunk_size must not be negative"))
	}
	if cfg.BLE.ConnectTimeout < 0 {
		errs = append(errs, errors.New("ble.connect_timeout must not be negative"))
	}
	if cfg.Chat.RequestsPerMin < 0 {
		errs = append(errs, errors.New("chat.requests_per_min must not be negative"))
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logger.format %q must be text or json", cfg.Logger.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
