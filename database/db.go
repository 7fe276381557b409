// database/db.go - Database Connection (PostgreSQL, SQLite for local runs)
package database

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gamify/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDB opens the configured database, tunes the pool and runs migrations.
func InitDB(log *logger.Logger) error {
	driver := strings.ToLower(getEnvOrDefault("DB_DRIVER", "postgres"))

	conn, err := Open(driver, DSNFromEnv(driver), gormlogger.Warn)
	if err != nil {
		return fmt.Errorf("connect %s database: %w", driver, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("get database instance: %w", err)
	}
	if driver == "sqlite" {
		// One writer at a time; sqlite serialises anyway.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	db = conn
	log.Info("database connected", "driver", driver)

	return RunMigrations(conn, log)
}

// Open returns a gorm handle for driver ("postgres" or "sqlite").
func Open(driver, dsn string, level gormlogger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// DSNFromEnv builds the connection string from DATABASE_URL or the DB_* parts.
func DSNFromEnv(driver string) string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	if driver == "sqlite" || driver == "sqlite3" {
		return getEnvOrDefault("DB_PATH", "./data/gamify.db") + "?_foreign_keys=on"
	}

	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "")
	dbname := getEnvOrDefault("DB_NAME", "gamify")
	sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetDB returns the database instance, or nil before InitDB.
func GetDB() *gorm.DB {
	return db
}

// CloseDB closes the database connection
func CloseDB() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db = nil
	return nil
}
