package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the runtime configuration for the circulation service. The fee
// schedule is policy, not configuration, and lives in the library package.
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Circulation CirculationConfig `mapstructure:"circulation"`
	Log         LogConfig         `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type CirculationConfig struct {
	LoanPeriodDays   int `mapstructure:"loan_period_days"`
	MaxBorrowedBooks int `mapstructure:"max_borrowed_books"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug | info | warn | error
}

// Load reads library.yaml from the working directory if present, then
// applies LIBRARY_-prefixed environment overrides (e.g. LIBRARY_DATABASE_PATH).
// A missing config file is fine; defaults cover everything.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("database.path", "library.db")
	v.SetDefault("circulation.loan_period_days", 14)
	v.SetDefault("circulation.max_borrowed_books", 5)
	v.SetDefault("log.level", "warn")

	v.SetConfigName("library")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	v.SetEnvPrefix("LIBRARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Database.Path == "" {
		return errors.New("database.path must not be empty")
	}
	if cfg.Circulation.LoanPeriodDays <= 0 {
		return errors.Errorf("invalid loan period: %d days", cfg.Circulation.LoanPeriodDays)
	}
	if cfg.Circulation.MaxBorrowedBooks <= 0 {
		return errors.Errorf("invalid borrowing limit: %d books", cfg.Circulation.MaxBorrowedBooks)
	}
	return nil
}
