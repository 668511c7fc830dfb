package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sparkarcanum/spark-arcanum/internal/database"
	"github.com/sparkarcanum/spark-arcanum/internal/models"
)

const ruleSearchLimit = 50

type RuleHandler struct{}

func NewRuleHandler() *RuleHandler {
	return &RuleHandler{}
}

// GetRule returns one rule plus its direct children, so a client can render
// "601.2" with 601.2a through 601.2i below it in a single request.
func (h *RuleHandler) GetRule(c *gin.Context) {
	number := strings.TrimSuffix(c.Param("number"), ".")

	db := database.GetDB()

	var rule models.Rule
	if err := db.First(&rule, "number = ?", number).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}

	var children []models.Rule
	if err := db.Where("parent = ?", rule.Number).Order("number").Find(&children).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rule":     rule,
		"children": children,
	})
}

// SearchRules matches q as a rule number prefix or a case-insensitive text
// substring.
func (h *RuleHandler) SearchRules(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	db := database.GetDB()

	var rules []models.Rule
	err := db.Where("number LIKE ? OR LOWER(text) LIKE ?", query+"%", "%"+strings.ToLower(query)+"%").
		Order("number").
		Limit(ruleSearchLimit).
		Find(&rules).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.RuleSearchResult{
		Rules:      rules,
		TotalCount: len(rules),
	})
}
