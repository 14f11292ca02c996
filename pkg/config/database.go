package config

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"curvedex/internal/models"
)

var DB *gorm.DB

// DSN builds the postgres DSN from the DB_* environment variables.
func DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
}

// InitDB initializes the database connection
func InitDB() {
	db, err := gorm.Open(postgres.Open(DSN()), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance: ", err)
	}
	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetMaxOpenConns(200)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db

	if err := AutoMigrate(DB); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}
}

// AutoMigrate creates or updates every table the engine writes.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.DexConfig{},
		&models.DexPool{},
		&models.DexSwap{},
		&models.DexLaunch{},
		&models.AmmPool{},
		&models.MintConfig{},
		&models.TokenAccount{},
	)
}
