// Package config assembles service configuration the way the
// teacher's cmd/authz-server/main.go does: flag.* defaults that a YAML
// file (gopkg.in/yaml.v3) can override, read before flag.Parse so
// command-line flags always win.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full set of knobs authzd needs to start.
type Config struct {
	HTTPPort int    `yaml:"httpPort"`
	LogLevel string `yaml:"logLevel"`

	StoreBackend string `yaml:"storeBackend"` // "memory" or "postgres"
	PostgresDSN  string `yaml:"postgresDsn"`

	RedisAddr       string        `yaml:"redisAddr"`
	LockTTL         time.Duration `yaml:"lockTtl"`
	PolicyDir       string        `yaml:"policyDir"`
	AuditLogPath    string        `yaml:"auditLogPath"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// Default returns the same baseline values the teacher's flag
// defaults encode.
func Default() Config {
	return Config{
		HTTPPort:        8080,
		LogLevel:        "info",
		StoreBackend:    "memory",
		LockTTL:         10 * time.Second,
		GracefulTimeout: 30 * time.Second,
	}
}

// Load applies, in order: defaults, an optional YAML file (configPath,
// may be empty), then command-line flags registered on fs. Flags take
// precedence so an operator can always override a file value.
func Load(fs *flag.FlagSet, args []string, configPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	}

	httpPort := fs.Int("http-port", cfg.HTTPPort, "HTTP server port")
	logLevel := fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	storeBackend := fs.String("store", cfg.StoreBackend, "Store backend (memory, postgres)")
	postgresDSN := fs.String("postgres-dsn", cfg.PostgresDSN, "Postgres connection string")
	redisAddr := fs.String("redis-addr", cfg.RedisAddr, "Redis address for distributed locking")
	lockTTL := fs.Duration("lock-ttl", cfg.LockTTL, "Resource lock TTL")
	policyDir := fs.String("policy-dir", cfg.PolicyDir, "Directory to hot-reload resource policy documents from")
	auditLogPath := fs.String("audit-log-path", cfg.AuditLogPath, "Decision audit log file path (empty = audit logging disabled)")
	gracefulTimeout := fs.Duration("shutdown-timeout", cfg.GracefulTimeout, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.HTTPPort = *httpPort
	cfg.LogLevel = *logLevel
	cfg.StoreBackend = *storeBackend
	cfg.PostgresDSN = *postgresDSN
	cfg.RedisAddr = *redisAddr
	cfg.LockTTL = *lockTTL
	cfg.PolicyDir = *policyDir
	cfg.AuditLogPath = *auditLogPath
	cfg.GracefulTimeout = *gracefulTimeout

	return cfg, cfg.Validate()
}

// Validate rejects configurations that would fail later in a more
// confusing way (e.g. a postgres backend with no DSN).
func (c Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535, got %d", c.HTTPPort)
	}
	if c.StoreBackend != "memory" && c.StoreBackend != "postgres" {
		return fmt.Errorf("store backend must be 'memory' or 'postgres', got %q", c.StoreBackend)
	}
	if c.StoreBackend == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn is required when store backend is 'postgres'")
	}
	return nil
}
