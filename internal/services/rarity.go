package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/sparkarcanum/spark-arcanum/internal/metrics"
	"github.com/sparkarcanum/spark-arcanum/internal/models"
)

// raritySource is one step of the backfill chain: try to resolve the
// rarity for a card, or decline. The chain runs first-match-wins.
type raritySource struct {
	name    string
	resolve func(ctx context.Context, card *models.Card) (string, bool)
}

// BackfillResult summarizes one rarity backfill run. Errors counts cards
// no source could answer plus failed database writes.
type BackfillResult struct {
	Processed int           `json:"processed"`
	Updated   int           `json:"updated"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
}

// RarityService fills in missing rarity values through a prioritized chain
// of sources: cache, bulk reference data, shape heuristic, and (only when
// the bulk data is entirely unavailable) a remote exact-name lookup.
type RarityService struct {
	db       *gorm.DB
	store    *RarityStore
	mtgjson  *MTGJSONService
	scryfall *ScryfallService

	mu      sync.Mutex
	running bool
}

func NewRarityService(db *gorm.DB, store *RarityStore, mtgjson *MTGJSONService, scryfall *ScryfallService) *RarityService {
	return &RarityService{
		db:       db,
		store:    store,
		mtgjson:  mtgjson,
		scryfall: scryfall,
	}
}

// IsRunning returns whether a backfill is currently in progress
func (s *RarityService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// BackfillMissingRarities resolves and persists rarity for every card row
// where it is null or empty. Safe to re-run; resolved cards hit the cache
// on the next pass without touching the bulk file or the network.
func (s *RarityService) BackfillMissingRarities(ctx context.Context) (*BackfillResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, nil // Already running
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	result := &BackfillResult{}

	if err := s.store.Load(); err != nil {
		log.Printf("Warning: could not load rarity cache: %v", err)
	}

	sources := s.buildChain(ctx)

	var cards []models.Card
	err := s.db.WithContext(ctx).
		Where("rarity IS NULL OR rarity = ''").
		FindInBatches(&cards, 500, func(tx *gorm.DB, _ int) error {
			for i := range cards {
				s.backfillCard(ctx, &cards[i], sources, result)
			}
			return nil
		}).Error
	if err != nil {
		return nil, err
	}

	if err := s.store.Flush(); err != nil {
		log.Printf("Warning: could not flush rarity cache: %v", err)
	}

	result.Duration = time.Since(start)
	metrics.RarityBackfillDuration.Observe(result.Duration.Seconds())
	log.Printf("Rarity backfill complete: %d processed, %d updated, %d errors in %s",
		result.Processed, result.Updated, result.Errors, result.Duration.Round(time.Millisecond))

	return result, nil
}

// buildChain assembles the source list for this run. The remote lookup
// joins the chain only when the bulk file could not be loaded at all; a
// card merely missing from loaded bulk data stays off the network.
func (s *RarityService) buildChain(ctx context.Context) []raritySource {
	sources := []raritySource{cacheRaritySource(s.store)}

	var idx *RarityIndex
	if !s.mtgjson.Available() {
		if err := s.mtgjson.EnsureFile(ctx, false); err != nil {
			log.Printf("Warning: bulk data unavailable for rarity backfill: %v", err)
		}
	}
	if s.mtgjson.Available() {
		built, err := s.mtgjson.BuildRarityIndex()
		if err != nil {
			log.Printf("Warning: failed to index bulk data for rarity backfill: %v", err)
		} else {
			idx = built
			log.Printf("Rarity index ready: %d printings", idx.Size())
		}
	}

	if idx != nil {
		sources = append(sources, bulkRaritySource(idx), heuristicRaritySource())
	} else {
		sources = append(sources, heuristicRaritySource(), remoteRaritySource(s.scryfall))
	}
	return sources
}

func (s *RarityService) backfillCard(ctx context.Context, card *models.Card, sources []raritySource, result *BackfillResult) {
	result.Processed++

	rarity, source := resolveRarity(ctx, card, sources)
	if rarity == "" {
		log.Printf("Warning: could not resolve rarity for %s (%s)", card.Name, card.UUID)
		metrics.RarityResolutionsTotal.WithLabelValues("unresolved").Inc()
		result.Errors++
		return
	}
	metrics.RarityResolutionsTotal.WithLabelValues(source).Inc()

	// Cache before applying, so a rerun answers in O(1) even if the
	// database write below fails.
	if source != "cache" {
		if err := s.store.Put(card.UUID, rarity); err != nil {
			log.Printf("Warning: could not cache rarity for %s: %v", card.UUID, err)
		}
	}

	if rarity == card.Rarity {
		return // No-op write skipped
	}

	err := s.db.WithContext(ctx).Model(&models.Card{}).
		Where("uuid = ?", card.UUID).
		Update("rarity", rarity).Error
	if err != nil {
		log.Printf("Warning: failed to update rarity for %s (%s): %v", card.Name, card.UUID, err)
		result.Errors++
		return
	}
	result.Updated++
}

func resolveRarity(ctx context.Context, card *models.Card, sources []raritySource) (string, string) {
	for _, src := range sources {
		if rarity, ok := src.resolve(ctx, card); ok {
			return rarity, src.name
		}
	}
	return "", ""
}

func cacheRaritySource(store *RarityStore) raritySource {
	return raritySource{
		name: "cache",
		resolve: func(_ context.Context, card *models.Card) (string, bool) {
			return store.Get(card.UUID)
		},
	}
}

// bulkRaritySource answers from the AllPrintings index, most specific
// match first: exact set+collector number, then name within the card's own
// set, then name across any set.
func bulkRaritySource(idx *RarityIndex) raritySource {
	return raritySource{
		name: "bulk",
		resolve: func(_ context.Context, card *models.Card) (string, bool) {
			if card.SetCode != "" && card.Number != "" {
				if rarity, ok := idx.SetNumber(card.SetCode, card.Number); ok {
					return rarity, true
				}
			}
			if card.SetCode != "" && card.Name != "" {
				if candidates := idx.NameInSet(card.Name, card.SetCode); len(candidates) > 0 {
					return pickRarity(candidates), true
				}
			}
			if card.Name != "" {
				if candidates := idx.NameAnywhere(card.Name); len(candidates) > 0 {
					return pickRarity(candidates), true
				}
			}
			return "", false
		},
	}
}

// heuristicRaritySource guesses from card shape. It declines when the card
// has neither a type line nor a mana cost; there is nothing to judge on.
func heuristicRaritySource() raritySource {
	return raritySource{
		name: "heuristic",
		resolve: func(_ context.Context, card *models.Card) (string, bool) {
			return heuristicRarity(card)
		},
	}
}

func heuristicRarity(card *models.Card) (string, bool) {
	typeLine := strings.ToLower(card.Type)
	manaCost := strings.TrimSpace(card.ManaCost)

	if typeLine == "" && manaCost == "" {
		return "", false
	}

	switch {
	case strings.Contains(typeLine, "basic") && strings.Contains(typeLine, "land"):
		return "common", true
	case strings.Contains(typeLine, "land"):
		return "uncommon", true
	case strings.Contains(typeLine, "legendary"):
		return "rare", true
	case strings.Contains(typeLine, "planeswalker"):
		return "mythic", true
	case manaCost != "" && len(manaCost) <= 3:
		return "common", true
	default:
		return "uncommon", true
	}
}

// remoteRaritySource is the last resort: a Scryfall exact-name lookup.
// Failures here are a silent miss, not an error.
func remoteRaritySource(scryfall *ScryfallService) raritySource {
	return raritySource{
		name: "remote",
		resolve: func(ctx context.Context, card *models.Card) (string, bool) {
			if card.Name == "" {
				return "", false
			}
			remote, err := scryfall.GetCardByName(ctx, card.Name)
			if err != nil || remote == nil {
				return "", false
			}
			rarity := strings.ToLower(strings.TrimSpace(remote.Rarity))
			if rarity == "" {
				return "", false
			}
			return rarity, true
		},
	}
}

// rarityTieOrder breaks frequency ties between disagreeing printings;
// rarer wins.
var rarityTieOrder = map[string]int{
	"mythic":   6,
	"rare":     5,
	"uncommon": 4,
	"common":   3,
	"special":  2,
	"basic":    1,
}

// pickRarity picks the most frequent value among matches; frequency ties
// go to the rarer value, then alphabetically for anything off the known
// scale, keeping the result deterministic.
func pickRarity(candidates []string) string {
	counts := make(map[string]int)
	for _, r := range candidates {
		counts[r]++
	}

	best := ""
	bestCount := 0
	for rarity, count := range counts {
		switch {
		case count > bestCount:
			best, bestCount = rarity, count
		case count == bestCount && rarityTieOrder[rarity] > rarityTieOrder[best]:
			best = rarity
		case count == bestCount && rarityTieOrder[rarity] == rarityTieOrder[best] && rarity < best:
			best = rarity
		}
	}
	return best
}
