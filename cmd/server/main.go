package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sparkarcanum/spark-arcanum/internal/api"
	"github.com/sparkarcanum/spark-arcanum/internal/database"
	"github.com/sparkarcanum/spark-arcanum/internal/services"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./spark_arcanum.db"
	}

	// Initialize database
	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	cachePath := os.Getenv("RARITY_CACHE_PATH")
	if cachePath == "" {
		cachePath = "./data/rarity_cache.json"
	}

	// Initialize services
	db := database.GetDB()
	mtgjsonService := services.NewMTGJSONService()
	importer := services.NewCardImporter(db)
	scryfallService := services.NewScryfallService()
	rarityStore := services.NewRarityStore(cachePath)
	rarityService := services.NewRarityService(db, rarityStore, mtgjsonService, scryfallService)
	rulesService := services.NewRulesService(db)
	searchService := services.NewCardSearchService(db)
	assistantService := services.NewAssistantService(db)

	// Start the nightly data refresh
	refreshService := services.NewRefreshService(mtgjsonService, importer, rulesService, rarityService)
	if err := refreshService.Start(); err != nil {
		log.Fatalf("Failed to start refresh scheduler: %v", err)
	}

	// Setup router
	router := api.SetupRouter(searchService, assistantService, mtgjsonService, importer, rulesService, rarityService)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop the scheduler first so no new refresh pass starts mid-shutdown
	refreshService.Stop()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
