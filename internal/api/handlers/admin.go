package handlers

import (
	"context"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sparkarcanum/spark-arcanum/internal/database"
	"github.com/sparkarcanum/spark-arcanum/internal/models"
	"github.com/sparkarcanum/spark-arcanum/internal/services"
)

// AdminHandler starts long-running data jobs. Every trigger responds 202
// with a job id immediately; progress goes to the server log.
type AdminHandler struct {
	mtgjsonService *services.MTGJSONService
	importer       *services.CardImporter
	rulesService   *services.RulesService
	rarityService  *services.RarityService
}

func NewAdminHandler(mtgjson *services.MTGJSONService, importer *services.CardImporter, rules *services.RulesService, rarity *services.RarityService) *AdminHandler {
	return &AdminHandler{
		mtgjsonService: mtgjson,
		importer:       importer,
		rulesService:   rules,
		rarityService:  rarity,
	}
}

// runJob executes fn on its own goroutine with panic containment. The job
// id ties the 202 response to the log lines the run produces. The job gets
// a background context; the triggering request is long gone by the time
// the work finishes.
func runJob(name, jobID string, fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: %s job %s panicked: %v\n%s", name, jobID, r, debug.Stack())
			}
		}()

		log.Printf("%s job %s started", name, jobID)
		if err := fn(context.Background()); err != nil {
			log.Printf("Warning: %s job %s failed: %v", name, jobID, err)
			return
		}
		log.Printf("%s job %s finished", name, jobID)
	}()
}

func (h *AdminHandler) ImportCards(c *gin.Context) {
	if h.importer.IsRunning() {
		c.JSON(http.StatusConflict, gin.H{"error": "card import already running"})
		return
	}

	jobID := uuid.NewString()
	runJob("card import", jobID, func(ctx context.Context) error {
		if err := h.mtgjsonService.EnsureFile(ctx, false); err != nil {
			return err
		}
		_, err := h.importer.ImportAllPrintings(ctx, h.mtgjsonService.FilePath())
		return err
	})

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "status": "accepted"})
}

func (h *AdminHandler) ImportRules(c *gin.Context) {
	if h.rulesService.IsRunning() {
		c.JSON(http.StatusConflict, gin.H{"error": "rules import already running"})
		return
	}

	jobID := uuid.NewString()
	runJob("rules import", jobID, func(ctx context.Context) error {
		if err := h.rulesService.EnsureFile(ctx, false); err != nil {
			return err
		}
		_, err := h.rulesService.ImportRules(ctx)
		return err
	})

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "status": "accepted"})
}

func (h *AdminHandler) BackfillRarities(c *gin.Context) {
	if h.rarityService.IsRunning() {
		c.JSON(http.StatusConflict, gin.H{"error": "rarity backfill already running"})
		return
	}

	jobID := uuid.NewString()
	runJob("rarity backfill", jobID, func(ctx context.Context) error {
		_, err := h.rarityService.BackfillMissingRarities(ctx)
		return err
	})

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "status": "accepted"})
}

func (h *AdminHandler) GetStatus(c *gin.Context) {
	db := database.GetDB()

	var lastImport gin.H
	var meta models.ImportMetadata
	if err := db.First(&meta, 1).Error; err == nil {
		lastImport = gin.H{
			"record_count": meta.RecordCount,
			"description":  meta.Description,
			"completed_at": meta.CompletedAt,
		}
	}

	var cards, sets, rules, missingRarities int64
	db.Model(&models.Card{}).Count(&cards)
	db.Model(&models.CardSet{}).Count(&sets)
	db.Model(&models.Rule{}).Count(&rules)
	db.Model(&models.Card{}).Where("rarity IS NULL OR rarity = ''").Count(&missingRarities)

	c.JSON(http.StatusOK, gin.H{
		"cards":            cards,
		"sets":             sets,
		"rules":            rules,
		"missing_rarities": missingRarities,
		"bulk_available":   h.mtgjsonService.Available(),
		"import_running":   h.importer.IsRunning(),
		"rules_running":    h.rulesService.IsRunning(),
		"backfill_running": h.rarityService.IsRunning(),
		"last_import":      lastImport,
	})
}
