package config

import (
	"fmt"

	"github.com/logigrain/portauth/pkg/constants"
)

// Config holds the application's configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Vault     VaultConfig     `mapstructure:"vault"`
	Session   SessionConfig   `mapstructure:"session"`
	ARCA      ARCAConfig      `mapstructure:"arca"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	PprofEnabled bool   `mapstructure:"pprof_enabled"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in minutes
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	MountPath string `mapstructure:"mount_path"`
}

type SessionConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// ARCAConfig describes the WSAA gateway integration: environment selection,
// the fixed timestamp offset, the signer strategy, and the certificate/key
// pair for each downstream service kind.
type ARCAConfig struct {
	Environment string `mapstructure:"environment"` // PROD or TEST
	UTCOffset   string `mapstructure:"utc_offset"`  // e.g. "-03:00"

	// SignerMode selects the signing strategy: "cms" (in-process) or
	// "openssl" (external tool).
	SignerMode  string `mapstructure:"signer_mode"`
	OpenSSLPath string `mapstructure:"openssl_path"`

	CPE         ARCAServiceConfig `mapstructure:"cpe"`
	Embarques   ARCAServiceConfig `mapstructure:"embarques"`
	Facturacion ARCAServiceConfig `mapstructure:"facturacion"`
}

// ARCAServiceConfig is the per-service-kind credential and endpoint tuple.
// URL and ServiceID default from the environment and the closed kind mapping;
// they exist as overrides for homologation quirks.
type ARCAServiceConfig struct {
	CertFile      string `mapstructure:"cert_file"`
	KeyFile       string `mapstructure:"key_file"`
	KeyPassphrase string `mapstructure:"key_passphrase"`
	URL           string `mapstructure:"url"`
	ServiceID     string `mapstructure:"service_id"`

	// VaultSecretPath holds cert/key PEM material in Vault KV when the file
	// pair is not used.
	VaultSecretPath string `mapstructure:"vault_secret_path"`
}

// Service returns the resolved configuration for a service kind. The mapping
// is total over the closed kind set.
func (c *ARCAConfig) Service(kind constants.ServiceKind) (ARCAServiceConfig, error) {
	var svc ARCAServiceConfig
	switch kind {
	case constants.ServiceKindCPE:
		svc = c.CPE
	case constants.ServiceKindEmbarques:
		svc = c.Embarques
	case constants.ServiceKindFacturacion:
		svc = c.Facturacion
	default:
		return ARCAServiceConfig{}, fmt.Errorf("unknown service kind %q", kind)
	}
	if svc.URL == "" {
		svc.URL = constants.Environment(c.Environment).GatewayURL()
	}
	if svc.ServiceID == "" {
		svc.ServiceID = kind.GatewayServiceID()
	}
	return svc, nil
}

type RateLimitConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DefaultRPM int  `mapstructure:"default_rpm"`
	BurstSize  int  `mapstructure:"burst_size"`
}

type AuditConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if !constants.Environment(c.ARCA.Environment).IsValid() {
		return fmt.Errorf("arca.environment must be PROD or TEST, got %q", c.ARCA.Environment)
	}
	if c.ARCA.SignerMode != "cms" && c.ARCA.SignerMode != "openssl" {
		return fmt.Errorf("arca.signer_mode must be cms or openssl, got %q", c.ARCA.SignerMode)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret must be set")
	}
	if c.Audit.Enabled && len(c.Audit.Brokers) == 0 {
		return fmt.Errorf("audit.brokers must be set when audit is enabled")
	}
	return nil
}
