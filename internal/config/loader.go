package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "TERP_"
	envFileVar = envPrefix + "CONFIG"
)

var (
	validate     *validator.Validate //nolint:gochecknoglobals // shared validator, built once
	validateOnce sync.Once           //nolint:gochecknoglobals // guards validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// listKeys are comma separated when they come from the environment.
var listKeys = map[string]bool{"cors_allowed_origins": true} //nolint:gochecknoglobals // constant lookup

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if TERP_CONFIG is set
//  3. env (prefix TERP_)
func Load(ctx context.Context) (*Config, error) {
	const op = "config.load"

	base := New(ctx)
	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrLoadConfig, err)
		}
	}

	// TERP_QUEUE_SIZE -> queue_size. Keys stay flat to match the koanf tags.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Validate checks field constraints and reports the first failing field.
func (c *Config) Validate() error {
	if err := configValidator().Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 { //nolint:errorlint // validator returns the concrete type
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidConfig, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
