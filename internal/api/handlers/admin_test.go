package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sparkarcanum/spark-arcanum/internal/models"
	"github.com/sparkarcanum/spark-arcanum/internal/services"
)

func adminRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ALLPRINTINGS_PATH", filepath.Join(dir, "AllPrintings.json"))
	t.Setenv("MTGJSON_URL", "http://127.0.0.1:0/unreachable")
	t.Setenv("RULES_PATH", filepath.Join(dir, "MagicCompRules.txt"))
	t.Setenv("RULES_URL", "")
	t.Setenv("SCRYFALL_API_URL", "http://127.0.0.1:0/unreachable")

	mtgjson := services.NewMTGJSONService()
	importer := services.NewCardImporter(db)
	rules := services.NewRulesService(db)
	store := services.NewRarityStore(filepath.Join(dir, "rarity_cache.json"))
	rarity := services.NewRarityService(db, store, mtgjson, services.NewScryfallService())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAdminHandler(mtgjson, importer, rules, rarity)
	r.POST("/api/admin/import/cards", h.ImportCards)
	r.POST("/api/admin/import/rules", h.ImportRules)
	r.POST("/api/admin/backfill/rarities", h.BackfillRarities)
	r.GET("/api/admin/status", h.GetStatus)
	return r
}

func TestGetStatus(t *testing.T) {
	db := setupHandlerDB(t)
	r := adminRouter(t, db)

	cards := []models.Card{
		{UUID: "a-1", Name: "Known", Rarity: "rare"},
		{UUID: "a-2", Name: "Unknown"},
	}
	if err := db.Create(&cards).Error; err != nil {
		t.Fatalf("Failed to seed cards: %v", err)
	}
	if err := db.Create(&models.CardSet{Code: "LEA", Name: "Alpha"}).Error; err != nil {
		t.Fatalf("Failed to seed set: %v", err)
	}
	if err := db.Create(&models.Rule{Number: "100", Text: "General", Examples: []byte("[]"), Keywords: []byte("[]")}).Error; err != nil {
		t.Fatalf("Failed to seed rule: %v", err)
	}
	meta := models.ImportMetadata{ID: 1, RecordCount: 2, Description: "MTGJSON AllPrintings import", CompletedAt: time.Now()}
	if err := db.Create(&meta).Error; err != nil {
		t.Fatalf("Failed to seed metadata: %v", err)
	}

	w := doJSON(t, r, "GET", "/api/admin/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var status struct {
		Cards           int64 `json:"cards"`
		Sets            int64 `json:"sets"`
		Rules           int64 `json:"rules"`
		MissingRarities int64 `json:"missing_rarities"`
		BulkAvailable   bool  `json:"bulk_available"`
		ImportRunning   bool  `json:"import_running"`
		LastImport      *struct {
			RecordCount int `json:"record_count"`
		} `json:"last_import"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.Cards != 2 || status.Sets != 1 || status.Rules != 1 {
		t.Errorf("expected counts 2/1/1, got %d/%d/%d", status.Cards, status.Sets, status.Rules)
	}
	if status.MissingRarities != 1 {
		t.Errorf("expected 1 missing rarity, got %d", status.MissingRarities)
	}
	if status.BulkAvailable {
		t.Error("expected bulk data unavailable")
	}
	if status.ImportRunning {
		t.Error("expected no import running")
	}
	if status.LastImport == nil || status.LastImport.RecordCount != 2 {
		t.Errorf("expected last import with record count 2, got %+v", status.LastImport)
	}
}

func TestGetStatus_NoImportYet(t *testing.T) {
	db := setupHandlerDB(t)
	r := adminRouter(t, db)

	w := doJSON(t, r, "GET", "/api/admin/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var status map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if string(status["last_import"]) != "null" {
		t.Errorf("expected null last_import, got %s", status["last_import"])
	}
}

func TestImportTriggersRespondImmediately(t *testing.T) {
	db := setupHandlerDB(t)
	r := adminRouter(t, db)

	for _, path := range []string{
		"/api/admin/import/cards",
		"/api/admin/import/rules",
		"/api/admin/backfill/rarities",
	} {
		w := doJSON(t, r, "POST", path, nil)
		if w.Code != http.StatusAccepted {
			t.Errorf("%s: expected 202, got %d: %s", path, w.Code, w.Body.String())
			continue
		}
		var resp struct {
			JobID  string `json:"job_id"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Errorf("%s: failed to decode response: %v", path, err)
			continue
		}
		if resp.JobID == "" || resp.Status != "accepted" {
			t.Errorf("%s: expected a job id and accepted status, got %+v", path, resp)
		}
	}
}
