// internal/adapters/db/db.go
/*
 * Database Adapter
 *
 * This package is responsible for establishing and configuring the connection
 * to the PostgreSQL database using GORM. It includes connection pooling settings
 * for performance and resilience and handles schema auto-migration.
 */
package db

import (
	"fmt"
	"log"
	"time"

	"github.com/orbitforge/roomserver/internal/config"
	"github.com/orbitforge/roomserver/internal/core/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitializeDatabase configures and returns a GORM DB instance backing the
// match-history store. It is the only persisted state in this system
// (spec.md's Non-goals exclude persisting live room state across restarts).
func InitializeDatabase(cfg config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Use logger.Info for verbose query logging
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure Connection Pool for performance and stability
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)           // Max number of connections in the idle connection pool
	sqlDB.SetMaxOpenConns(100)          // Max number of open connections to the database
	sqlDB.SetConnMaxLifetime(time.Hour) // Max amount of time a connection may be reused

	// AutoMigrate the schema. In a real-world production environment, a more robust
	// migration tool like GORM's migrator or an external tool (e.g., migrate, goose) is recommended.
	if err := db.AutoMigrate(&domain.MatchRecord{}); err != nil {
		return nil, fmt.Errorf("database schema migration failed: %w", err)
	}
	log.Println("INFO: database schema migration completed successfully.")

	return db, nil
}
