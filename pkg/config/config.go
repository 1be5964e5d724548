package config

import (
	"os"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	Hostname                  string        `koanf:"-"`
	PurgeInterval             time.Duration `koanf:"purge_interval"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`
	SoftDeleteRetentionDays   int           `koanf:"soft_delete_retention_days"`
	WorkerProcesses           int           `koanf:"worker_processes"`
}

const defaultConfigFile = "./config.yaml"

// New loads configuration in three layers: built-in defaults, then an
// optional YAML file pointed at by CONFIG_FILE, then environment variables.
// Later layers win.
func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	defaults := map[string]interface{}{
		"database_busy_timeout":        "5s",
		"database_connect_retry_count": 5,
		"database_max_retries":         5,
		"database_connect_retry_delay": "2s",
		"database_debug":               false,
		"server_host":                  "0.0.0.0",
		"server_port":                  3689,
		"purge_interval":               "24h",
		"soft_delete_retention_days":   30,
		"worker_processes":             2,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, statErr := os.Stat(configFile); statErr == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{Hostname: hostname}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := validateRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config suitable for unit tests: in-memory database,
// loopback server, and a single worker process.
func NewForTest() *Config {
	return &Config{
		DatabaseBusyTimeout:       time.Second,
		DatabaseConnectRetryCount: 1,
		DatabaseConnectRetryDelay: 10 * time.Millisecond,
		DatabaseFilePath:          ":memory:",
		DatabaseMaxRetries:        3,
		Hostname:                  "test",
		PurgeInterval:             time.Hour,
		ServerHost:                "127.0.0.1",
		SoftDeleteRetentionDays:   30,
		WorkerProcesses:           1,
	}
}

func validateRequired(cfg *Config) error {
	missing := []string{}
	if cfg.DatabaseFilePath == "" {
		missing = append(missing, "DatabaseFilePath")
	}

	if len(missing) == 0 {
		return nil
	}

	parts := make([]string, 0, len(missing))
	for _, field := range missing {
		snake := toSnakeCase(field)
		parts = append(parts, strings.ToUpper(snake)+" ("+snake+")")
	}
	return errors.Errorf("missing required config: %s", strings.Join(parts, ", "))
}

func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}
