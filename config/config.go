// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/subosito/gotenv"

	"github.com/satriahrh/shg-assistant/adapters/llm"
	"github.com/satriahrh/shg-assistant/usecase"
)

const (
	DefaultPort          = 8080
	defaultSessionSecret = "shg-assistant-dev-secret-change-me"
)

type Config struct {
	Gemini        llm.GeminiConfig
	Mode          usecase.Mode
	Port          int
	SessionSecret []byte
	Debug         bool
}

// Load reads .env (if present) into the process environment and builds a
// Config from it.
func Load(files ...string) (Config, error) {
	// a missing .env is fine; the environment may already be populated
	_ = gotenv.Load(files...)
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Gemini: llm.GeminiConfig{
			APIKey:  getenv("GEMINI_API_KEY"),
			Model:   getenv("GEMINI_MODEL"),
			BaseURL: getenv("GEMINI_BASE_URL"),
		},
		Port:          DefaultPort,
		SessionSecret: []byte(defaultSessionSecret),
		Debug:         getenv("DEBUG") == "true",
	}

	switch raw := getenv("ASSISTANT_MODE"); {
	case raw != "":
		mode, err := usecase.ParseMode(raw)
		if err != nil {
			return Config{}, fmt.Errorf("ASSISTANT_MODE: %w", err)
		}
		cfg.Mode = mode
	case cfg.Gemini.APIKey != "":
		cfg.Mode = usecase.LiveMode
	default:
		cfg.Mode = usecase.FallbackMode
	}

	if raw := getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("PORT: invalid port %q", raw)
		}
		cfg.Port = port
	}

	if secret := getenv("SESSION_SECRET"); secret != "" {
		cfg.SessionSecret = []byte(secret)
	}

	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}
