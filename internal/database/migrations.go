package database

import (
	"log"

	"gorm.io/gorm"

	"github.com/sparkarcanum/spark-arcanum/internal/models"
)

// cleanupLegacyRarityValues lowercases rarity values written by early
// imports that stored display casing ("Common", "Mythic Rare").
// This runs BEFORE AutoMigrate so the rarity index is built over clean data.
func cleanupLegacyRarityValues(db *gorm.DB) error {
	if !db.Migrator().HasTable("cards") {
		return nil // Fresh database, nothing to clean
	}
	if !db.Migrator().HasColumn("cards", "rarity") {
		return nil
	}

	result := db.Exec(`UPDATE cards SET rarity = LOWER(rarity) WHERE rarity != LOWER(rarity)`)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("Normalized %d legacy rarity values", result.RowsAffected)
	}

	// "Mythic Rare" predates the single-word value MTGJSON uses
	result = db.Exec(`UPDATE cards SET rarity = 'mythic' WHERE rarity = 'mythic rare'`)
	if result.Error != nil {
		log.Printf("Warning: failed to normalize mythic rarity values: %v", result.Error)
	}

	return nil
}

// RunMigrations runs any custom data migrations after schema changes
func RunMigrations(db *gorm.DB) error {
	if err := migrateRuleParents(db); err != nil {
		return err
	}
	if err := dropLegacyCardIndexes(db); err != nil {
		return err
	}
	return nil
}

// migrateRuleParents backfills the parent column for rules rows imported
// before the column existed. Safe to run repeatedly; it only touches rows
// where parent is NULL or empty.
func migrateRuleParents(db *gorm.DB) error {
	if !db.Migrator().HasColumn("rules", "parent") {
		return nil
	}

	type ruleRow struct {
		ID     uint
		Number string
	}
	var rows []ruleRow
	if err := db.Table("rules").
		Where("parent IS NULL OR parent = ''").
		Select("id", "number").
		Find(&rows).Error; err != nil {
		return err
	}

	migrated := 0
	for _, row := range rows {
		parent := models.ParentRuleNumber(row.Number)
		if parent == "" {
			continue
		}
		if err := db.Table("rules").Where("id = ?", row.ID).
			Update("parent", parent).Error; err != nil {
			log.Printf("Warning: failed to backfill parent for rule %s: %v", row.Number, err)
			continue
		}
		migrated++
	}

	if migrated > 0 {
		log.Printf("Backfilled parent numbers for %d rules", migrated)
	}
	return nil
}

// dropLegacyCardIndexes removes indexes replaced by the composite
// set_code+number index. AutoMigrate will not reliably drop old indexes.
func dropLegacyCardIndexes(db *gorm.DB) error {
	if db.Migrator().HasIndex("cards", "idx_cards_set_code") {
		if err := db.Migrator().DropIndex("cards", "idx_cards_set_code"); err != nil {
			log.Printf("Warning: failed to drop legacy cards index idx_cards_set_code: %v", err)
		}
	}
	return nil
}
