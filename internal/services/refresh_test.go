package services

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/sparkarcanum/spark-arcanum/internal/models"
)

func TestNewRefreshService_Defaults(t *testing.T) {
	t.Setenv("REFRESH_SCHEDULE", "")
	t.Setenv("REFRESH_MAX_AGE_HOURS", "")
	t.Setenv("REFRESH_ENABLED", "")

	svc := NewRefreshService(nil, nil, nil, nil)
	if svc.schedule != defaultRefreshSchedule {
		t.Errorf("expected default schedule, got %q", svc.schedule)
	}
	if svc.maxAge != defaultRefreshMaxAgeHours*time.Hour {
		t.Errorf("expected default max age, got %s", svc.maxAge)
	}
	if !svc.enabled {
		t.Error("expected refresh enabled by default")
	}

	t.Setenv("REFRESH_MAX_AGE_HOURS", "-3")
	svc = NewRefreshService(nil, nil, nil, nil)
	if svc.maxAge != defaultRefreshMaxAgeHours*time.Hour {
		t.Errorf("expected invalid max age to fall back to the default, got %s", svc.maxAge)
	}
}

func TestRefreshService_DisabledStartIsNoOp(t *testing.T) {
	t.Setenv("REFRESH_ENABLED", "false")

	svc := NewRefreshService(nil, nil, nil, nil)
	if err := svc.Start(); err != nil {
		t.Fatalf("disabled start should succeed: %v", err)
	}
	if svc.cron != nil {
		t.Error("expected no scheduler when disabled")
	}
	svc.Stop() // must be safe without a scheduler
}

func TestRefreshService_StartRejectsBadSchedule(t *testing.T) {
	t.Setenv("REFRESH_SCHEDULE", "not a cron spec")
	t.Setenv("REFRESH_ENABLED", "")

	svc := NewRefreshService(nil, nil, nil, nil)
	if err := svc.Start(); err == nil {
		t.Fatal("expected an error for a malformed schedule")
	}
}

func TestRefreshService_RunOnce(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()

	doc := map[string]any{
		"data": map[string]any{
			"LEA": map[string]any{
				"name": "Limited Edition Alpha",
				"cards": []any{
					map[string]any{"uuid": "r-1", "name": "Lightning Bolt", "number": "161", "rarity": "Common"},
					map[string]any{"uuid": "r-2", "name": "Unrated Card", "number": "162", "manaCost": "{R}"},
				},
			},
		},
	}
	apPath := writeAllPrintings(t, doc)

	rulesPath := filepath.Join(dir, "MagicCompRules.txt")
	if err := os.WriteFile(rulesPath, []byte(rulesFixture), 0644); err != nil {
		t.Fatalf("Failed to write rules fixture: %v", err)
	}

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer remote.Close()

	mtgjson := &MTGJSONService{filePath: apPath}
	importer := NewCardImporter(db)
	rules := &RulesService{db: db, filePath: rulesPath}
	store := NewRarityStore(filepath.Join(dir, "rarity_cache.json"))
	scryfall := &ScryfallService{baseURL: remote.URL, client: remote.Client(), limiter: rate.NewLimiter(rate.Inf, 0)}
	rarity := NewRarityService(db, store, mtgjson, scryfall)

	t.Setenv("REFRESH_SCHEDULE", "")
	t.Setenv("REFRESH_MAX_AGE_HOURS", "")
	t.Setenv("REFRESH_ENABLED", "")
	svc := NewRefreshService(mtgjson, importer, rules, rarity)

	svc.RunOnce()

	var cardCount, ruleCount int64
	db.Model(&models.Card{}).Count(&cardCount)
	db.Model(&models.Rule{}).Count(&ruleCount)
	if cardCount != 2 {
		t.Errorf("expected 2 cards imported, got %d", cardCount)
	}
	if ruleCount == 0 {
		t.Error("expected rules imported")
	}

	// The card that arrived without a rarity was backfilled in the same pass.
	var card models.Card
	if err := db.First(&card, "uuid = ?", "r-2").Error; err != nil {
		t.Fatalf("card r-2 not imported: %v", err)
	}
	if card.Rarity != "common" {
		t.Errorf("expected heuristic backfill to common, got %q", card.Rarity)
	}
}

func TestRefreshService_RedownloadsStaleBulk(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()

	stale := map[string]any{
		"data": map[string]any{
			"OLD": map[string]any{
				"name": "Old Set",
				"cards": []any{
					map[string]any{"uuid": "old-1", "name": "Old Card", "number": "1", "rarity": "common"},
				},
			},
		},
	}
	apPath := writeAllPrintings(t, stale)
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(apPath, past, past); err != nil {
		t.Fatalf("Failed to age bulk file: %v", err)
	}

	fresh := `{"data":{"NEW":{"name":"New Set","cards":[{"uuid":"new-1","name":"New Card","number":"1","rarity":"rare"}]}}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fresh))
	}))
	defer srv.Close()

	mtgjson := &MTGJSONService{filePath: apPath, url: srv.URL, httpClient: srv.Client()}
	importer := NewCardImporter(db)
	rules := &RulesService{db: db, filePath: filepath.Join(dir, "absent.txt")}
	store := NewRarityStore(filepath.Join(dir, "rarity_cache.json"))
	rarity := NewRarityService(db, store, mtgjson, nil)

	t.Setenv("REFRESH_SCHEDULE", "")
	t.Setenv("REFRESH_MAX_AGE_HOURS", "1")
	t.Setenv("REFRESH_ENABLED", "")
	svc := NewRefreshService(mtgjson, importer, rules, rarity)

	svc.RunOnce()

	// The two-hour-old file exceeded the one hour max age, so the pass
	// fetched the replacement before importing.
	if err := db.First(&models.Card{}, "uuid = ?", "new-1").Error; err != nil {
		t.Errorf("expected the fresh download to be imported: %v", err)
	}
	var count int64
	db.Model(&models.Card{}).Where("uuid = ?", "old-1").Count(&count)
	if count != 0 {
		t.Error("expected the stale document never to be imported")
	}
}
