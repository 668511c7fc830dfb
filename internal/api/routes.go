package api

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sparkarcanum/spark-arcanum/internal/api/handlers"
	"github.com/sparkarcanum/spark-arcanum/internal/services"
)

func SetupRouter(
	searchService *services.CardSearchService,
	assistantService *services.AssistantService,
	mtgjsonService *services.MTGJSONService,
	importer *services.CardImporter,
	rulesService *services.RulesService,
	rarityService *services.RarityService,
) *gin.Engine {
	router := gin.Default()

	// CORS configuration - allow origins from environment or use defaults
	config := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = false // Explicitly set
	router.Use(cors.New(config))

	router.Use(metricsMiddleware())

	// Initialize handlers
	cardHandler := handlers.NewCardHandler(searchService)
	ruleHandler := handlers.NewRuleHandler()
	userHandler := handlers.NewUserHandler()
	deckHandler := handlers.NewDeckHandler()
	assistantHandler := handlers.NewAssistantHandler(assistantService)
	adminHandler := handlers.NewAdminHandler(mtgjsonService, importer, rulesService, rarityService)

	// API routes
	api := router.Group("/api")
	{
		// Card routes
		cards := api.Group("/cards")
		{
			cards.GET("/search", cardHandler.SearchCards)
			cards.GET("/:uuid", cardHandler.GetCard)
		}

		// Set routes
		sets := api.Group("/sets")
		{
			sets.GET("", cardHandler.GetSets)
			sets.GET("/:code/cards", cardHandler.GetSetCards)
		}

		// Rule routes
		rules := api.Group("/rules")
		{
			rules.GET("/search", ruleHandler.SearchRules)
			rules.GET("/:number", ruleHandler.GetRule)
		}

		// User routes
		users := api.Group("/users")
		{
			users.POST("", userHandler.CreateUser)
			users.GET("/:id", userHandler.GetUser)
			users.DELETE("/:id", userHandler.DeleteUser)
			users.GET("/:id/decks", userHandler.GetUserDecks)
		}

		// Deck routes
		decks := api.Group("/decks")
		{
			decks.POST("", deckHandler.CreateDeck)
			decks.GET("/:id", deckHandler.GetDeck)
			decks.PUT("/:id", deckHandler.UpdateDeck)
			decks.DELETE("/:id", deckHandler.DeleteDeck)
		}

		// Assistant routes
		assistant := api.Group("/assistant")
		{
			assistant.POST("/ask", assistantHandler.Ask)
		}

		// Admin routes
		admin := api.Group("/admin")
		{
			admin.POST("/import/cards", adminHandler.ImportCards)
			admin.POST("/import/rules", adminHandler.ImportRules)
			admin.POST("/backfill/rarities", adminHandler.BackfillRarities)
			admin.GET("/status", adminHandler.GetStatus)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
