// Package config reads FLASHCARDER_* settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lehigh-university-libraries/flashcarder/internal/api"
	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

const (
	DefaultAPIURL        = "http://localhost:2341"
	DefaultPort          = "2342"
	DefaultAllowedOrigin = "http://localhost:2342"
	DefaultTimeout       = 2 * time.Minute
)

// Config is the resolved runtime configuration
type Config struct {
	APIURL         string        `json:"api_url" validate:"required,url"`
	Deck           string        `json:"deck"`
	Mode           string        `json:"mode" validate:"oneof=auto manual"`
	Contract       string        `json:"contract" validate:"oneof=unified split"`
	Timeout        time.Duration `json:"timeout" validate:"gt=0"`
	Port           string        `json:"port" validate:"required,numeric"`
	AllowedOrigins []string      `json:"allowed_origins" validate:"dive,url"`
	LogLevel       string        `json:"log_level" validate:"oneof=debug info warn error"`
}

// FromEnv builds a Config from the environment with defaults applied
func FromEnv() (Config, error) {
	cfg := Config{
		APIURL:         getenv("FLASHCARDER_API_URL", DefaultAPIURL),
		Deck:           getenv("FLASHCARDER_DECK", os.Getenv("DEFAULT_DECK_NAME")),
		Mode:           strings.ToLower(getenv("FLASHCARDER_MODE", string(models.ModeManual))),
		Contract:       strings.ToLower(getenv("FLASHCARDER_CONTRACT", string(api.ContractUnified))),
		Timeout:        DefaultTimeout,
		Port:           getenv("FLASHCARDER_PORT", DefaultPort),
		AllowedOrigins: splitList(getenv("FLASHCARDER_ALLOWED_ORIGINS", DefaultAllowedOrigin)),
		LogLevel:       strings.ToLower(getenv("FLASHCARDER_LOG_LEVEL", "info")),
	}

	if v := os.Getenv("FLASHCARDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse FLASHCARDER_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		if tag == "" || tag == "-" {
			return fld.Name
		}
		return tag
	})
	return v
}

// Validate checks every field and reports all problems at once
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// ModeValue returns Mode as a models.Mode
func (c Config) ModeValue() models.Mode {
	m, err := models.ParseMode(c.Mode)
	if err != nil {
		return models.ModeManual
	}
	return m
}

// ContractValue returns Contract as an api.Contract
func (c Config) ContractValue() api.Contract {
	ct, err := api.ParseContract(c.Contract)
	if err != nil {
		return api.ContractUnified
	}
	return ct
}

// SlogLevel maps LogLevel onto slog
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Backend builds the API client for this configuration
func (c Config) Backend(logger *slog.Logger) *api.Backend {
	return api.NewBackend(api.NewClient(c.APIURL, c.Timeout, logger), c.ContractValue())
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
