package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MJE43/roulette-spin-go/internal/ledger"
)

const (
	appDirName    = "roulette-spin-go"
	journalDBName = "journal.db"
	envPrefix     = "ROULETTE_"
)

type Config struct {
	Env     string        `yaml:"env" validate:"oneof=local dev prod"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Game    GameConfig    `yaml:"game"`
	Session SessionConfig `yaml:"session"`
	Storage StorageConfig `yaml:"storage"`
	NATS    NATSConfig    `yaml:"nats"`
}

type LogConfig struct {
	Level   string `yaml:"level" validate:"oneof=debug info warn error"`
	NoColor bool   `yaml:"no_color"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type GameConfig struct {
	ledger.Config `yaml:",inline"`

	FPS                int           `yaml:"fps" validate:"gte=1,lte=240"`
	HoldDelay          time.Duration `yaml:"hold_delay" validate:"gt=0"`
	RepeatInterval     time.Duration `yaml:"repeat_interval" validate:"gt=0"`
	ReshuffleEachRound bool          `yaml:"reshuffle_each_round"`
}

type SessionConfig struct {
	IdleTTL         time.Duration `yaml:"idle_ttl" validate:"gt=0"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" validate:"gt=0"`
	MaxSessions     int           `yaml:"max_sessions" validate:"gte=0"`
}

type StorageConfig struct {
	Type string `yaml:"type" validate:"oneof=sqlite badger none"`
	Path string `yaml:"path" validate:"required_unless=Type none"`
}

type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url" validate:"required_if=Enabled true"`
	Subject string `yaml:"subject" validate:"required_if=Enabled true"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Env: "local",
		Log: LogConfig{Level: "info"},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Game: GameConfig{
			Config:         ledger.DefaultConfig(),
			FPS:            60,
			HoldDelay:      200 * time.Millisecond,
			RepeatInterval: 100 * time.Millisecond,
		},
		Session: SessionConfig{
			IdleTTL:         30 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Storage: StorageConfig{
			Type: "sqlite",
			Path: filepath.Join(DataDir(), journalDBName),
		},
		NATS: NATSConfig{
			URL:     "nats://127.0.0.1:4222",
			Subject: "roulette.rounds",
		},
	}
}

// Load reads .env, then the YAML file at path on top of the defaults, then
// ROULETTE_* environment overrides, and validates the result. A missing
// file is not an error when path is empty.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if data, err := os.ReadFile("config.yaml"); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config.yaml: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config.yaml: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints and the cross-field table rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Game.Config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"ENV":          &c.Env,
		"LOG_LEVEL":    &c.Log.Level,
		"ADDR":         &c.Server.Addr,
		"STORAGE_TYPE": &c.Storage.Type,
		"STORAGE_PATH": &c.Storage.Path,
		"NATS_URL":     &c.NATS.URL,
		"NATS_SUBJECT": &c.NATS.Subject,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"FPS":           &c.Game.FPS,
		"START_BALANCE": &c.Game.StartBalance,
		"START_BET":     &c.Game.StartBet,
		"MIN_BET":       &c.Game.MinBet,
		"INCREMENT":     &c.Game.Increment,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"NATS_ENABLED": &c.NATS.Enabled,
		"RESHUFFLE":    &c.Game.ReshuffleEachRound,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = b
		}
	}
	return nil
}

// DataDir returns an OS-appropriate writable directory.
func DataDir() string {
	if d, err := os.UserConfigDir(); err == nil && d != "" {
		return filepath.Join(d, appDirName)
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, "."+appDirName)
	}
	return "."
}
