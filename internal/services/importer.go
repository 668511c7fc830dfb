package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sparkarcanum/spark-arcanum/internal/metrics"
	"github.com/sparkarcanum/spark-arcanum/internal/models"
)

const importBatchSize = 100

// ImportResult summarizes one importer run. Callers get aggregate numbers
// only; row-level detail goes to the server log.
type ImportResult struct {
	Sets     int           `json:"sets"`
	Cards    int           `json:"cards"`
	Errors   int           `json:"errors"`
	Duration time.Duration `json:"duration"`
}

// CardImporter ingests an AllPrintings document into the cards table with
// idempotent batched upserts. Re-running it on the same file is the retry
// mechanism; every write is keyed on the upstream UUID.
type CardImporter struct {
	db        *gorm.DB
	batchSize int

	mu      sync.Mutex
	running bool
}

func NewCardImporter(db *gorm.DB) *CardImporter {
	return &CardImporter{
		db:        db,
		batchSize: importBatchSize,
	}
}

// IsRunning returns whether an import is currently in progress
func (s *CardImporter) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ImportAllPrintings streams the document at path and upserts every card.
// A card without a UUID aborts the run before any write for that record;
// batches already committed stay committed. Per-record write failures are
// logged, counted and skipped.
func (s *CardImporter) ImportAllPrintings(ctx context.Context, path string) (*ImportResult, error) {
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
	result := &ImportResult{}
	batch := make([]models.Card, 0, s.batchSize)

	err := walkAllPrintings(path, func(code string, set *rawSet) error {
		if err := s.upsertSet(ctx, code, set); err != nil {
			log.Printf("Warning: failed to upsert set %s: %v", code, err)
		}
		result.Sets++

		for i := range set.Cards {
			raw := &set.Cards[i]
			if strings.TrimSpace(raw.UUID) == "" {
				return fmt.Errorf("card %q in set %s has no uuid, aborting import", raw.Name, code)
			}

			batch = append(batch, mapRawCard(raw, code))
			if len(batch) >= s.batchSize {
				s.flushBatch(ctx, batch, result)
				batch = batch[:0]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.flushBatch(ctx, batch, result)

	if err := s.writeMetadata(ctx, result.Cards); err != nil {
		log.Printf("Warning: failed to write import metadata: %v", err)
	}
	s.refreshGauges(ctx)

	result.Duration = time.Since(start)
	metrics.ImportDuration.Observe(result.Duration.Seconds())
	log.Printf("Import complete: %d sets, %d cards, %d errors in %s",
		result.Sets, result.Cards, result.Errors, result.Duration.Round(time.Millisecond))

	return result, nil
}

// flushBatch commits one batch in its own transaction. Records are upserted
// independently so a single bad row costs that row, not the batch. Counters
// merge only after the commit succeeds.
func (s *CardImporter) flushBatch(ctx context.Context, batch []models.Card, result *ImportResult) {
	if len(batch) == 0 {
		return
	}

	upserted, failed := 0, 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range batch {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "uuid"}},
				UpdateAll: true,
			}).Create(&batch[i]).Error
			if err != nil {
				log.Printf("Warning: failed to upsert card %s (%s): %v", batch[i].Name, batch[i].UUID, err)
				failed++
				continue
			}
			upserted++
		}
		return nil
	})
	if err != nil {
		log.Printf("Warning: batch commit failed, %d cards not written: %v", len(batch), err)
		result.Errors += len(batch)
		metrics.ImportErrorsTotal.Add(float64(len(batch)))
		return
	}

	result.Cards += upserted
	result.Errors += failed
	metrics.CardsImportedTotal.Add(float64(upserted))
	metrics.ImportErrorsTotal.Add(float64(failed))
	log.Printf("Imported batch of %d cards (%d total, %d errors)", len(batch), result.Cards, result.Errors)
}

func (s *CardImporter) upsertSet(ctx context.Context, code string, set *rawSet) error {
	row := models.CardSet{
		Code:         code,
		Name:         set.Name,
		ReleaseDate:  set.ReleaseDate,
		SetType:      set.Type,
		Block:        set.Block,
		KeyruneCode:  set.KeyruneCode,
		BaseSetSize:  set.BaseSetSize,
		TotalSetSize: set.TotalSetSize,
		CardCount:    len(set.Cards),
		IsOnlineOnly: set.IsOnlineOnly,
		IsFoilOnly:   set.IsFoilOnly,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (s *CardImporter) writeMetadata(ctx context.Context, count int) error {
	meta := models.ImportMetadata{
		ID:          1,
		RecordCount: count,
		Description: "MTGJSON AllPrintings import",
		CompletedAt: time.Now(),
	}
	return s.db.WithContext(ctx).Save(&meta).Error
}

func (s *CardImporter) refreshGauges(ctx context.Context) {
	var cards, sets int64
	if err := s.db.WithContext(ctx).Model(&models.Card{}).Count(&cards).Error; err == nil {
		metrics.CardDatabaseSize.Set(float64(cards))
	}
	if err := s.db.WithContext(ctx).Model(&models.CardSet{}).Count(&sets).Error; err == nil {
		metrics.SetDatabaseSize.Set(float64(sets))
	}
}

// mapRawCard converts one MTGJSON card into the stored row shape. Every
// declared column receives an explicit value; absent arrays become [] and
// absent objects become JSON null, never an undefined column.
func mapRawCard(raw *rawCard, setCode string) models.Card {
	if raw.SetCode != "" {
		setCode = raw.SetCode
	}

	return models.Card{
		UUID:     raw.UUID,
		Name:     raw.Name,
		SetCode:  setCode,
		Number:   raw.Number,
		Rarity:   strings.ToLower(raw.Rarity),
		Language: raw.Language,

		AsciiName:     raw.AsciiName,
		FaceName:      raw.FaceName,
		ManaCost:      raw.ManaCost,
		ManaValue:     raw.ManaValue,
		FaceManaValue: raw.FaceManaValue,
		Type:          raw.Type,
		Text:          raw.Text,
		OriginalText:  raw.OriginalText,
		FlavorText:    raw.FlavorText,
		Power:         raw.Power,
		Toughness:     raw.Toughness,
		Loyalty:       raw.Loyalty,
		Defense:       raw.Defense,
		Layout:        raw.Layout,
		Side:          raw.Side,

		Artist:        raw.Artist,
		BorderColor:   raw.BorderColor,
		FrameVersion:  raw.FrameVersion,
		SecurityStamp: raw.SecurityStamp,
		Watermark:     raw.Watermark,

		EdhrecRank:      raw.EdhrecRank,
		EdhrecSaltiness: raw.EdhrecSaltiness,

		IsAlternative: raw.IsAlternative,
		IsFullArt:     raw.IsFullArt,
		IsFunny:       raw.IsFunny,
		IsOnlineOnly:  raw.IsOnlineOnly,
		IsOversized:   raw.IsOversized,
		IsPromo:       raw.IsPromo,
		IsReprint:     raw.IsReprint,
		IsTextless:    raw.IsTextless,
		HasFoil:       raw.HasFoil,
		HasNonFoil:    raw.HasNonFoil,

		ScryfallID:             raw.Identifiers["scryfallId"],
		ScryfallOracleID:       raw.Identifiers["scryfallOracleId"],
		ScryfallIllustrationID: raw.Identifiers["scryfallIllustrationId"],
		MultiverseID:           raw.Identifiers["multiverseId"],
		TcgplayerProductID:     raw.Identifiers["tcgplayerProductId"],

		Colors:         jsonStringArray(raw.Colors),
		ColorIdentity:  jsonStringArray(raw.ColorIdentity),
		ColorIndicator: jsonStringArray(raw.ColorIndicator),
		Types:          jsonStringArray(raw.Types),
		Subtypes:       jsonStringArray(raw.Subtypes),
		Supertypes:     jsonStringArray(raw.Supertypes),
		Keywords:       jsonStringArray(raw.Keywords),
		Finishes:       jsonStringArray(raw.Finishes),
		FrameEffects:   jsonStringArray(raw.FrameEffects),
		Printings:      jsonStringArray(raw.Printings),
		Variations:     jsonStringArray(raw.Variations),
		OtherFaceIDs:   jsonStringArray(raw.OtherFaceIds),
		ArtistIDs:      jsonStringArray(raw.ArtistIds),
		BoosterTypes:   jsonStringArray(raw.BoosterTypes),
		Legalities:     jsonStringMap(raw.Legalities),
		ForeignData:    jsonRawArray(raw.ForeignData),
		Rulings:        jsonRawArray(raw.Rulings),
		Identifiers:    jsonStringMap(raw.Identifiers),
		PurchaseUrls:   jsonStringMap(raw.PurchaseUrls),
	}
}

func jsonStringArray(values []string) datatypes.JSON {
	if values == nil {
		return datatypes.JSON("[]")
	}
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}

func jsonStringMap(m map[string]string) datatypes.JSON {
	if m == nil {
		return datatypes.JSON("null")
	}
	b, _ := json.Marshal(m)
	return datatypes.JSON(b)
}

func jsonRawArray(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}
