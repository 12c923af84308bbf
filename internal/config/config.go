package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	PGDSN        string
	Listen       string
	TierCron     string
	BatchWorkers int
	LogLevel     string
	GenesisName  string
	MemoryBacked bool
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", ":8080")
	v.SetDefault("tier-cron", "@hourly")
	v.SetDefault("batch-workers", 8)
	v.SetDefault("log-level", "info")
	v.SetDefault("genesis-name", "Genesis Pool")
	v.SetDefault("memory-backed", false)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		PGDSN:        v.GetString("pg-dsn"),
		Listen:       v.GetString("listen"),
		TierCron:     v.GetString("tier-cron"),
		BatchWorkers: v.GetInt("batch-workers"),
		LogLevel:     v.GetString("log-level"),
		GenesisName:  v.GetString("genesis-name"),
		MemoryBacked: v.GetBool("memory-backed"),
	}

	return cfg, nil
}
