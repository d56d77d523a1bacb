package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/DoyleJ11/hiragana-drop/internal/engine"
)

var (
	ErrInvalidPoolSize  = errors.New("LETTER_TILE_COUNT must be at least 1")
	ErrInvalidSlotCount = errors.New("DROP_SLOT_COUNT must not be negative")
	ErrMissingRedisURL  = errors.New("REDIS_URL is required for the redis history backend")
	ErrMissingDSN       = errors.New("DATABASE_URL is required for the postgres history backend")
	ErrUnknownBackend   = errors.New("HISTORY_BACKEND must be memory, redis or postgres")
)

type Config struct {
	Addr      string `env:"ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	WordsFile string `env:"WORDS_FILE"`

	PoolSize       int           `env:"LETTER_TILE_COUNT" envDefault:"5"`
	SlotCount      int           `env:"DROP_SLOT_COUNT" envDefault:"2"`
	ChoiceCount    int           `env:"CHOICE_CARD_COUNT" envDefault:"5"`
	NextRoundDelay time.Duration `env:"NEXT_ROUND_DELAY" envDefault:"2s"`
	FrameInterval  time.Duration `env:"FRAME_INTERVAL" envDefault:"16ms"`

	HistoryBackend string        `env:"HISTORY_BACKEND" envDefault:"memory"`
	HistoryLimit   int           `env:"HISTORY_LIMIT" envDefault:"50"`
	HistoryTTL     time.Duration `env:"HISTORY_TTL" envDefault:"168h"`
	RedisURL       string        `env:"REDIS_URL"`
	DatabaseURL    string        `env:"DATABASE_URL"`

	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads .env files (when present) into the environment, then parses it.
// Variables already set in the environment win over .env values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return Parse()
}

// Parse builds a Config from the current environment.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.PoolSize < 1 {
		return ErrInvalidPoolSize
	}
	if c.SlotCount < 0 {
		return ErrInvalidSlotCount
	}
	switch c.HistoryBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return ErrMissingRedisURL
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return ErrMissingDSN
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.HistoryBackend)
	}
	return nil
}

// Board returns the per-lobby game settings.
func (c Config) Board() engine.Config {
	return engine.Config{
		PoolSize:       c.PoolSize,
		SlotCount:      c.SlotCount,
		ChoiceCount:    c.ChoiceCount,
		NextRoundDelay: c.NextRoundDelay,
	}
}
