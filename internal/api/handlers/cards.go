package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sparkarcanum/spark-arcanum/internal/database"
	"github.com/sparkarcanum/spark-arcanum/internal/models"
	"github.com/sparkarcanum/spark-arcanum/internal/services"
)

type CardHandler struct {
	searchService *services.CardSearchService
}

func NewCardHandler(search *services.CardSearchService) *CardHandler {
	return &CardHandler{searchService: search}
}

// SearchCards ranks cards against the q parameter. An empty q lists cards
// alphabetically, which is what the deck builder shows when browsing a set.
func (h *CardHandler) SearchCards(c *gin.Context) {
	query := c.Query("q")
	setCode := c.Query("set")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	result, err := h.searchService.Search(c.Request.Context(), query, setCode, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *CardHandler) GetCard(c *gin.Context) {
	uuid := c.Param("uuid")

	db := database.GetDB()
	var card models.Card
	if err := db.First(&card, "uuid = ?", uuid).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}

	c.JSON(http.StatusOK, card)
}

func (h *CardHandler) GetSets(c *gin.Context) {
	db := database.GetDB()

	var sets []models.CardSet
	if err := db.Order("release_date DESC").Find(&sets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sets)
}

// GetSetCards lists every printing in a set in collector-number order. The
// cast puts "2" before "10"; the tiebreak keeps suffixed numbers like
// "100a" stable. Set code match is case-insensitive.
func (h *CardHandler) GetSetCards(c *gin.Context) {
	code := c.Param("code")

	db := database.GetDB()

	var set models.CardSet
	if err := db.First(&set, "UPPER(code) = UPPER(?)", code).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "set not found"})
		return
	}

	var cards []models.Card
	if err := db.Where("UPPER(set_code) = UPPER(?)", code).Order("CAST(number AS INTEGER), number").Find(&cards).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"set":         set,
		"cards":       cards,
		"total_count": len(cards),
	})
}
