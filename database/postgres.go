package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storefront-service/models"
)

// PostgresConfig holds connection settings for the order database.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode, c.TimeZone,
	)
}

// ConnectPostgres opens the database, retrying while postgres comes up.
func ConnectPostgres(cfg PostgresConfig, attempts int, logger *zap.Logger) (*gorm.DB, error) {
	if attempts < 1 {
		attempts = 1
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			logger.Info("Connected to PostgreSQL", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
			return db, nil
		}
		logger.Warn("PostgreSQL connection failed", zap.Int("attempt", i), zap.Int("max", attempts), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w", attempts, err)
}

// Migrate creates or updates the tables this service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderItem{}); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}
	return nil
}

// ClosePostgres closes the underlying connection pool.
func ClosePostgres(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
