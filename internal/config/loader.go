package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/logger"
)

// LoadConfig loads the configuration from file and environment variables.
// Environment variables use the PORTAUTH_ prefix with dots replaced by
// underscores, e.g. PORTAUTH_ARCA_CPE_CERT_FILE overrides arca.cpe.cert_file.
func LoadConfig(log logger.Logger) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/portauth/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("PORTAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Log-level changes take effect on the next reload cycle; everything else
	// requires a restart.
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info(context.Background(), "configuration file changed",
			logger.Fields{"file": e.Name, "op": e.Op.String()})
	})
	v.WatchConfig()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.pprof_enabled", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "portauth")
	v.SetDefault("database.database", "portauth")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.mount_path", "secret")

	v.SetDefault("session.issuer", "portauth")

	v.SetDefault("arca.environment", string(constants.EnvironmentTest))
	v.SetDefault("arca.utc_offset", constants.DefaultUTCOffset)
	v.SetDefault("arca.signer_mode", "cms")
	v.SetDefault("arca.openssl_path", "openssl")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.default_rpm", 30)
	v.SetDefault("rate_limit.burst_size", 10)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.topic", "portauth.audit")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "portauth")
}
