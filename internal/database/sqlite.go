package database

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sparkarcanum/spark-arcanum/internal/models"
)

var DB *gorm.DB

func Initialize(dbPath string) error {
	var err error
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	log.Println("Database connected successfully")

	// Data cleanups that must land before schema constraints tighten
	if err := cleanupLegacyRarityValues(DB); err != nil {
		return err
	}

	// Auto-migrate the schema
	err = DB.AutoMigrate(
		&models.Card{},
		&models.CardSet{},
		&models.Rule{},
		&models.User{},
		&models.SavedDeck{},
		&models.Session{},
		&models.ImportMetadata{},
	)
	if err != nil {
		return err
	}

	if err := RunMigrations(DB); err != nil {
		return err
	}

	log.Println("Database migration completed")
	return nil
}

func GetDB() *gorm.DB {
	return DB
}
