package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	defaultRefreshSchedule = "0 0 3 * * *"

	// AllPrintings older than a week gets re-downloaded on the next pass.
	defaultRefreshMaxAgeHours = 168
)

// RefreshService re-imports reference data on a cron schedule so cards,
// rules and rarities track upstream without operator action.
type RefreshService struct {
	mtgjson  *MTGJSONService
	importer *CardImporter
	rules    *RulesService
	rarity   *RarityService

	schedule string
	maxAge   time.Duration
	enabled  bool
	cron     *cron.Cron
}

func NewRefreshService(mtgjson *MTGJSONService, importer *CardImporter, rules *RulesService, rarity *RarityService) *RefreshService {
	schedule := os.Getenv("REFRESH_SCHEDULE")
	if schedule == "" {
		schedule = defaultRefreshSchedule
	}

	maxAgeHours := defaultRefreshMaxAgeHours
	if v := os.Getenv("REFRESH_MAX_AGE_HOURS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			maxAgeHours = parsed
		} else {
			log.Printf("Warning: invalid REFRESH_MAX_AGE_HOURS %q, using %d", v, defaultRefreshMaxAgeHours)
		}
	}

	return &RefreshService{
		mtgjson:  mtgjson,
		importer: importer,
		rules:    rules,
		rarity:   rarity,
		schedule: schedule,
		maxAge:   time.Duration(maxAgeHours) * time.Hour,
		enabled:  os.Getenv("REFRESH_ENABLED") != "false",
	}
}

// Start registers the refresh job and starts the scheduler. A nil return
// with no scheduler means refresh is disabled via REFRESH_ENABLED=false.
func (s *RefreshService) Start() error {
	if !s.enabled {
		log.Printf("Refresh scheduler: disabled (REFRESH_ENABLED=false)")
		return nil
	}

	s.cron = cron.New(cron.WithSeconds())
	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.Printf("Refresh scheduler: started (schedule=%q, max_age=%s)", s.schedule, s.maxAge)
	return nil
}

// Stop halts the scheduler, waiting briefly for an in-flight pass.
func (s *RefreshService) Stop() {
	if s.cron == nil {
		return
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(10 * time.Second):
		log.Printf("Warning: refresh pass still running at shutdown")
	}
}

// RunOnce executes one full refresh pass: freshen the bulk file, re-import
// cards, re-import rules, then backfill rarities. Steps log their failures
// and the pass moves on, so one bad download does not starve the rest.
func (s *RefreshService) RunOnce() {
	ctx := context.Background()
	start := time.Now()
	log.Printf("Refresh: starting pass")

	stale := s.mtgjson.Available() && s.mtgjson.FileAge() > s.maxAge
	if err := s.mtgjson.EnsureFile(ctx, stale); err != nil {
		log.Printf("Warning: refresh could not ensure AllPrintings file: %v", err)
	}

	if s.mtgjson.Available() {
		if _, err := s.importer.ImportAllPrintings(ctx, s.mtgjson.FilePath()); err != nil {
			log.Printf("Warning: refresh card import failed: %v", err)
		}
	}

	if err := s.rules.EnsureFile(ctx, s.rules.CanDownload()); err != nil {
		log.Printf("Warning: refresh could not ensure rules file: %v", err)
	} else if _, err := s.rules.ImportRules(ctx); err != nil {
		log.Printf("Warning: refresh rules import failed: %v", err)
	}

	if _, err := s.rarity.BackfillMissingRarities(ctx); err != nil {
		log.Printf("Warning: refresh rarity backfill failed: %v", err)
	}

	log.Printf("Refresh: pass complete in %s", time.Since(start).Round(time.Second))
}
