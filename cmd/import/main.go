package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/sparkarcanum/spark-arcanum/internal/database"
	"github.com/sparkarcanum/spark-arcanum/internal/services"
)

type cmdFlags struct {
	cards    bool
	rules    bool
	backfill bool
	all      bool
	file     string
	download bool
}

func initFlags() *cmdFlags {
	var flags cmdFlags
	pflag.BoolVarP(&flags.cards, "cards", "c", false, "Import cards from the AllPrintings file")
	pflag.BoolVarP(&flags.rules, "rules", "r", false, "Import the comprehensive rules")
	pflag.BoolVarP(&flags.backfill, "backfill", "b", false, "Backfill missing card rarities")
	pflag.BoolVarP(&flags.all, "all", "a", false, "Run cards, rules and backfill in order")
	pflag.StringVarP(&flags.file, "file", "f", "", "AllPrintings path override (also used by the backfill index)")
	pflag.BoolVarP(&flags.download, "download", "", false, "Force a fresh download of source files before importing")
	pflag.Parse()
	return &flags
}

func main() {
	flags := initFlags()

	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	if !flags.cards && !flags.rules && !flags.backfill && !flags.all {
		fmt.Fprintln(os.Stderr, "Usage: import [flags]")
		pflag.PrintDefaults()
		os.Exit(1)
	}

	// The flag override outranks both the environment and .env
	if flags.file != "" {
		os.Setenv("ALLPRINTINGS_PATH", flags.file)
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./spark_arcanum.db"
	}
	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	cachePath := os.Getenv("RARITY_CACHE_PATH")
	if cachePath == "" {
		cachePath = "./data/rarity_cache.json"
	}

	db := database.GetDB()
	mtgjsonService := services.NewMTGJSONService()
	ctx := context.Background()

	if flags.all || flags.cards {
		if err := mtgjsonService.EnsureFile(ctx, flags.download); err != nil {
			log.Fatalf("Failed to fetch AllPrintings: %v", err)
		}

		importer := services.NewCardImporter(db)
		result, err := importer.ImportAllPrintings(ctx, mtgjsonService.FilePath())
		if err != nil {
			log.Fatalf("Card import failed: %v", err)
		}
		log.Printf("Card import: %d sets, %d cards, %d errors in %s",
			result.Sets, result.Cards, result.Errors, result.Duration.Round(time.Millisecond))
	}

	if flags.all || flags.rules {
		rulesService := services.NewRulesService(db)
		if err := rulesService.EnsureFile(ctx, flags.download && rulesService.CanDownload()); err != nil {
			log.Fatalf("Failed to fetch rules: %v", err)
		}

		result, err := rulesService.ImportRules(ctx)
		if err != nil {
			log.Fatalf("Rules import failed: %v", err)
		}
		log.Printf("Rules import: %d parsed, %d created, %d updated, %d skipped",
			result.Parsed, result.Created, result.Updated, result.Skipped)
	}

	if flags.all || flags.backfill {
		store := services.NewRarityStore(cachePath)
		scryfallService := services.NewScryfallService()
		rarityService := services.NewRarityService(db, store, mtgjsonService, scryfallService)

		result, err := rarityService.BackfillMissingRarities(ctx)
		if err != nil {
			log.Fatalf("Rarity backfill failed: %v", err)
		}
		log.Printf("Rarity backfill: %d processed, %d updated, %d unresolved in %s",
			result.Processed, result.Updated, result.Errors, result.Duration.Round(time.Millisecond))
	}
}
