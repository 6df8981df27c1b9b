// Package db はデータベース接続の確立とマイグレーションを提供します。
package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	useradapters "user_backend/internal/feature/users/adapters"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// retryInterval is the wait between connection attempts in Open.
const retryInterval = 3 * time.Second

// Config はデータベース接続設定です。
// InstanceNameが設定されている場合、Cloud SQLのUnixソケット接続が優先されます。
type Config struct {
	Driver         string        `mapstructure:"driver"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name"`
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	SSLMode        string        `mapstructure:"sslmode"`
	InstanceName   string        `mapstructure:"instance_name"`
	Path           string        `mapstructure:"path"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

// Opener opens a gorm connection for the given DSN.
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN builds the connection string for cfg.Driver.
// For SQLite the DSN is the database file path.
func BuildDSN(cfg Config) string {
	if cfg.Driver == DriverSQLite {
		return cfg.Path
	}

	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	if cfg.InstanceName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.InstanceName, cfg.User, cfg.Password, cfg.Name, sslmode)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslmode)
}

// OpenerFor returns the gorm opener for driver. Unknown drivers fall back to PostgreSQL.
func OpenerFor(driver string) Opener {
	if driver == DriverSQLite {
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		}
	}
	return func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
}

// ConnectWithRetry は接続に成功するかtimeoutを超えるまでinterval間隔で再試行します。
func ConnectWithRetry(dsn string, timeout, interval time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		log.Warn().Err(err).Dur("retry_in", interval).Msg("db connect failed, retrying")
		time.Sleep(interval)
	}
}

// Open connects using cfg and runs migrations when cfg.AutoMigrate is set.
func Open(cfg Config) (*gorm.DB, error) {
	db, err := ConnectWithRetry(BuildDSN(cfg), cfg.ConnectTimeout, retryInterval, OpenerFor(cfg.Driver))
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	log.Info().Str("driver", cfg.Driver).Bool("migrated", cfg.AutoMigrate).Msg("database ready")
	return db, nil
}

// Migrate creates or updates the user_account table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&useradapters.UserModel{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
