package database

import (
	"fmt"

	"layout-builder/config"
	"layout-builder/internal/domain/layout"
	"layout-builder/internal/domain/site"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB connects to Postgres and migrates the layout and site tables.
func InitDB() error {
	if config.DB_URL == "" {
		return fmt.Errorf("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(config.DB_URL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	DB = db

	// gen_random_uuid() for layout IDs
	if err := DB.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return fmt.Errorf("enable pgcrypto: %w", err)
	}

	if err := DB.AutoMigrate(
		&layout.Layout{},
		&layout.Meta{},

		&site.Page{},
		&site.WidgetArea{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
