package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sparkarcanum/spark-arcanum/internal/services"
)

type AssistantHandler struct {
	assistantService *services.AssistantService
}

func NewAssistantHandler(assistant *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistant}
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
	CardName string `json:"card_name"`
}

func (h *AssistantHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.assistantService.AskQuestion(c.Request.Context(), req.Question, req.CardName)
	if err != nil {
		if errors.Is(err, services.ErrAssistantDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "assistant is not available",
				"message": "GEMINI_API_KEY not configured",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, answer)
}
