package config

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

// LoadConfig loads the configuration from file and environment variables.
// File changes trigger onReload with the freshly parsed configuration.
func LoadConfig(log logger.Logger, onReload func(*Config)) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/sentra/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine; env and defaults carry the configuration.
	}

	v.SetEnvPrefix("SENTRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	if onReload != nil {
		v.OnConfigChange(reloadHandler(v, log, onReload))
		v.WatchConfig()
	}

	return cfg, nil
}

// reloadHandler re-parses the watched configuration on a file change and
// hands the result to onReload. A change that fails validation keeps the
// previous configuration in effect.
func reloadHandler(v *viper.Viper, log logger.Logger, onReload func(*Config)) func(fsnotify.Event) {
	return func(e fsnotify.Event) {
		log.Info(context.Background(), "Config file changed, reloading",
			logger.String("file", e.Name))
		reloaded, err := unmarshal(v)
		if err != nil {
			log.Error(context.Background(), "Reloaded config is invalid, keeping previous", err)
			return
		}
		onReload(reloaded)
	}
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, constants.ErrCodeServerError, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, constants.ErrCodeServerError, "invalid configuration")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "sentra")
	v.SetDefault("database.database", "sentra")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_conn_lifetime", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", constants.ActivityStreamTopic)
	v.SetDefault("kafka.write_timeout", "10s")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "1s")
	v.SetDefault("kafka.required_acks", 1)

	v.SetDefault("explain.timeout", constants.ExplainDefaultTimeout)

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.secret_path", "secret/data/sentra/explain")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "sentra-identity")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "sentra-monitoring")
	v.SetDefault("tracing.sampling_rate", 0.1)

	v.SetDefault("monitoring.pprof_enabled", false)
}
