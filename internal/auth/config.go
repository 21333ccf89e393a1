package auth

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	SupabaseURL string `mapstructure:"SupabaseURL"`
	AnonKey     string `mapstructure:"AnonKey"`
	ServiceKey  string `mapstructure:"ServiceKey"`
	JWKSURL     string `mapstructure:"JWKSURL"`
}

func NewConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("cannot read config from %s: %w", path, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SupabaseURL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("AnonKey is required")
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = cfg.SupabaseURL + "/auth/v1/.well-known/jwks.json"
	}

	return &cfg, nil
}
