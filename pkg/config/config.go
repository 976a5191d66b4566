package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "WAREHOUSE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	StorageDriverYAML   = "yaml"
	StorageDriverSQLite = "sqlite"

	EnvAppEnv                  = "WAREHOUSE_APP_ENV"
	EnvLogLevel                = "WAREHOUSE_LOG_LEVEL"
	EnvLogFormat               = "WAREHOUSE_LOG_FORMAT"
	EnvLogWarnStack            = "WAREHOUSE_LOG_WARN_STACK"
	EnvStorageDriver           = "WAREHOUSE_STORAGE_DRIVER"
	EnvStorageEntriesPath      = "WAREHOUSE_STORAGE_ENTRIES_PATH"
	EnvStorageReservationsPath = "WAREHOUSE_STORAGE_RESERVATIONS_PATH"
	EnvStorageSQLitePath       = "WAREHOUSE_STORAGE_SQLITE_PATH"
	EnvStorageAutoMigrate      = "WAREHOUSE_STORAGE_AUTO_MIGRATE"
	EnvGateStart               = "WAREHOUSE_GATE_START"
	EnvGateEnd                 = "WAREHOUSE_GATE_END"
	EnvSweepInterval           = "WAREHOUSE_SWEEP_INTERVAL"
)

const clockLayout = "15:04"

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Gate    GateConfig
	Sweep   SweepConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Gate.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WAREHOUSE_APP_ENV" default:"development"`
	LogLevel     string `envconfig:"WAREHOUSE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"WAREHOUSE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"WAREHOUSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the persistence adapter and where it keeps its data.
type StorageConfig struct {
	Driver           string `envconfig:"WAREHOUSE_STORAGE_DRIVER" default:"yaml"`
	EntriesPath      string `envconfig:"WAREHOUSE_STORAGE_ENTRIES_PATH" default:"warehouse_products.yaml"`
	ReservationsPath string `envconfig:"WAREHOUSE_STORAGE_RESERVATIONS_PATH" default:"reserved_products.yaml"`
	SQLitePath       string `envconfig:"WAREHOUSE_STORAGE_SQLITE_PATH" default:"warehouse.db"`
	AutoMigrate      bool   `envconfig:"WAREHOUSE_STORAGE_AUTO_MIGRATE" default:"true"`
}

// NormalizedDriver returns the lower-cased driver name.
func (s StorageConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(s.Driver))
}

func (s StorageConfig) validate() error {
	switch s.NormalizedDriver() {
	case StorageDriverYAML:
		if s.EntriesPath == "" || s.ReservationsPath == "" {
			return fmt.Errorf("%s and %s are required for the yaml driver", EnvStorageEntriesPath, EnvStorageReservationsPath)
		}
	case StorageDriverSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("%s is required for the sqlite driver", EnvStorageSQLitePath)
		}
	default:
		return fmt.Errorf("unsupported %s %q (expected %s or %s)", EnvStorageDriver, s.Driver, StorageDriverYAML, StorageDriverSQLite)
	}
	return nil
}

// GateConfig holds the manager-hours window as HH:MM clock values.
type GateConfig struct {
	Start string `envconfig:"WAREHOUSE_GATE_START" default:"23:00"`
	End   string `envconfig:"WAREHOUSE_GATE_END" default:"06:00"`
}

func (g GateConfig) validate() error {
	if _, err := time.Parse(clockLayout, g.Start); err != nil {
		return fmt.Errorf("invalid %s %q: %w", EnvGateStart, g.Start, err)
	}
	if _, err := time.Parse(clockLayout, g.End); err != nil {
		return fmt.Errorf("invalid %s %q: %w", EnvGateEnd, g.End, err)
	}
	return nil
}

type SweepConfig struct {
	Interval time.Duration `envconfig:"WAREHOUSE_SWEEP_INTERVAL" default:"1h"`
}
