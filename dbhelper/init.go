package dbhelper

import (
	"fmt"
	"os"
	"time"

	"wardrobeapi/config"
	"wardrobeapi/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(
		fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Database,
		),
	), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Minute * 5)

	if err := Migrate(db, &models.KeyValueRecord{}); err != nil {
		return nil, err
	}
	return db, nil
}

// SetupTestDB connects to the database named by TEST_DB_* variables. It
// returns nil when TEST_DB_HOST is unset.
func SetupTestDB() (*gorm.DB, error) {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		return nil, nil
	}
	return SetupDB(config.DatabaseConfig{
		Host:     host,
		Port:     getEnv("TEST_DB_PORT", "5432"),
		User:     getEnv("TEST_DB_USERNAME", "wardrobe"),
		Password: getEnv("TEST_DB_PASSWORD", "wardrobe"),
		Database: getEnv("TEST_DB_NAME", "wardrobe_test"),
	})
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
