package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sparkarcanum/spark-arcanum/internal/services"
)

func assistantRouter(assistant *services.AssistantService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAssistantHandler(assistant)
	r.POST("/api/assistant/ask", h.Ask)
	return r
}

func TestAsk_DisabledIs503(t *testing.T) {
	setupHandlerDB(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY_FILE", "")

	r := assistantRouter(services.NewAssistantService(nil))

	w := doJSON(t, r, "POST", "/api/assistant/ask", gin.H{"question": "Does trample stack?"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "GEMINI_API_KEY") {
		t.Errorf("expected the response to name the missing configuration, got %s", w.Body.String())
	}
}

func TestAsk_QuestionRequired(t *testing.T) {
	setupHandlerDB(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY_FILE", "")

	r := assistantRouter(services.NewAssistantService(nil))

	w := doJSON(t, r, "POST", "/api/assistant/ask", gin.H{"card_name": "Lightning Bolt"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without a question, got %d", w.Code)
	}
}
