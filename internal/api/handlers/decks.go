package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/sparkarcanum/spark-arcanum/internal/database"
	"github.com/sparkarcanum/spark-arcanum/internal/models"
)

type DeckHandler struct{}

func NewDeckHandler() *DeckHandler {
	return &DeckHandler{}
}

func (h *DeckHandler) CreateDeck(c *gin.Context) {
	var req models.CreateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()

	var user models.User
	if err := db.First(&user, req.UserID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user not found"})
		return
	}

	deck := models.SavedDeck{
		UserID:      req.UserID,
		Name:        req.Name,
		Format:      req.Format,
		Description: req.Description,
		Cards:       deckCardsJSON(req.Cards),
	}

	if err := db.Create(&deck).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, deck)
}

// deckCardsJSON serializes a card list, storing [] rather than null for an
// empty deck.
func deckCardsJSON(cards []models.DeckCard) datatypes.JSON {
	if cards == nil {
		return datatypes.JSON("[]")
	}
	b, _ := json.Marshal(cards)
	return datatypes.JSON(b)
}

func (h *DeckHandler) GetDeck(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	db := database.GetDB()
	var deck models.SavedDeck
	if err := db.First(&deck, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "deck not found"})
		return
	}

	c.JSON(http.StatusOK, deck)
}

func (h *DeckHandler) UpdateDeck(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req models.UpdateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()

	var deck models.SavedDeck
	if err := db.First(&deck, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "deck not found"})
		return
	}

	if req.Name != nil {
		deck.Name = *req.Name
	}
	if req.Format != nil {
		deck.Format = *req.Format
	}
	if req.Description != nil {
		deck.Description = *req.Description
	}
	if req.Cards != nil {
		deck.Cards = deckCardsJSON(*req.Cards)
	}

	if err := db.Save(&deck).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, deck)
}

func (h *DeckHandler) DeleteDeck(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	db := database.GetDB()
	result := db.Delete(&models.SavedDeck{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "deck not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
