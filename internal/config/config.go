package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Output formats accepted by --output.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	LogFile  string        `mapstructure:"log_file"`
	Output   string        `mapstructure:"output"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Workers  int           `mapstructure:"workers"`
}

// Load reads config.yaml from . or $HOME/.cosmosctl, then COSMOSCTL_* env
// vars, then any flags in fs whose names match a key (with - for _).
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.cosmosctl")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("output", OutputText)
	v.SetDefault("timeout", 15*time.Second)
	v.SetDefault("workers", 4)

	v.SetEnvPrefix("COSMOSCTL")
	v.AutomaticEnv()

	if fs != nil {
		for _, key := range []string{"log_level", "log_file", "output", "timeout", "workers"} {
			if f := fs.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", f.Name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	switch cfg.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return nil, fmt.Errorf("invalid output %q (want text, json or yaml)", cfg.Output)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}

	return &cfg, nil
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}
