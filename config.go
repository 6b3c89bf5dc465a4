package main

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Addr            string     `json:"-"`
	LogLevel        string     `json:"-"`
	BoardSize       int        `json:"board_size"`
	ForbiddenRules  bool       `json:"forbidden_rules"`
	BlackAI         bool       `json:"black_ai"`
	WhiteAI         bool       `json:"white_ai"`
	BlackDifficulty Difficulty `json:"black_difficulty"`
	WhiteDifficulty Difficulty `json:"white_difficulty"`
	ReplayDBPath    string     `json:"-"`
	TickIntervalMs  int        `json:"-"`
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		LogLevel:        "info",
		BoardSize:       15,
		ForbiddenRules:  true,
		BlackAI:         false,
		WhiteAI:         true,
		BlackDifficulty: DifficultyNormal,
		WhiteDifficulty: DifficultyNormal,
		ReplayDBPath:    "replays.db",
		TickIntervalMs:  50,
	}
}

// LoadConfig reads an optional .env file and environment overrides on
// top of the defaults. A missing .env is not an error.
func LoadConfig(log logrus.FieldLogger) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not load .env")
	}
	cfg := DefaultConfig()
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.BoardSize = getEnvAsInt("BOARD_SIZE", cfg.BoardSize, log)
	cfg.ForbiddenRules = getEnvAsBool("FORBIDDEN_RULES", cfg.ForbiddenRules, log)
	cfg.BlackAI = getEnvAsBool("BLACK_AI", cfg.BlackAI, log)
	cfg.WhiteAI = getEnvAsBool("WHITE_AI", cfg.WhiteAI, log)
	cfg.ReplayDBPath = getEnv("REPLAY_DB_PATH", cfg.ReplayDBPath)
	cfg.TickIntervalMs = getEnvAsInt("TICK_INTERVAL_MS", cfg.TickIntervalMs, log)
	if raw := os.Getenv("BLACK_DIFFICULTY"); raw != "" {
		if difficulty, ok := ParseDifficulty(raw); ok {
			cfg.BlackDifficulty = difficulty
		} else {
			log.WithField("value", raw).Warn("unknown BLACK_DIFFICULTY, using normal")
		}
	}
	if raw := os.Getenv("WHITE_DIFFICULTY"); raw != "" {
		if difficulty, ok := ParseDifficulty(raw); ok {
			cfg.WhiteDifficulty = difficulty
		} else {
			log.WithField("value", raw).Warn("unknown WHITE_DIFFICULTY, using normal")
		}
	}
	return cfg
}

func (c Config) GameSettings() GameSettings {
	settings := DefaultGameSettings()
	settings.BoardSize = c.BoardSize
	settings.ForbiddenRules = c.ForbiddenRules
	settings.BlackDifficulty = c.BlackDifficulty
	settings.WhiteDifficulty = c.WhiteDifficulty
	if c.BlackAI {
		settings.BlackType = PlayerAI
	} else {
		settings.BlackType = PlayerHuman
	}
	if c.WhiteAI {
		settings.WhiteType = PlayerAI
	} else {
		settings.WhiteType = PlayerHuman
	}
	return settings
}

// ConfigStore guards the mutable runtime config. The instance is owned
// by main and handed to whoever needs it; there is no package global.
type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

func NewConfigStore(config Config) *ConfigStore {
	return &ConfigStore{config: config}
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int, log logrus.FieldLogger) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.WithField("key", key).WithField("value", raw).Warn("invalid integer env value")
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool, log logrus.FieldLogger) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		log.WithField("key", key).WithField("value", raw).Warn("invalid boolean env value")
		return fallback
	}
	return value
}
