package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sparkarcanum/spark-arcanum/internal/metrics"
	"github.com/sparkarcanum/spark-arcanum/internal/models"
)

const (
	defaultSearchLimit  = 50
	maxSearchLimit      = 200
	maxSearchCandidates = 1000
)

// CardSearchService answers ranked name searches: a cheap SQL prefilter
// narrows the table to candidates containing every token, then the scorer
// orders them.
type CardSearchService struct {
	db *gorm.DB
}

func NewCardSearchService(db *gorm.DB) *CardSearchService {
	return &CardSearchService{db: db}
}

func (s *CardSearchService) Search(ctx context.Context, query, setCode string, limit int) (*models.CardSearchResult, error) {
	start := time.Now()
	metrics.SearchRequestsTotal.Inc()

	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	dbq := s.db.WithContext(ctx).Model(&models.Card{})
	if setCode != "" {
		dbq = dbq.Where("UPPER(set_code) = UPPER(?)", setCode)
	}
	for _, token := range strings.Fields(strings.ToLower(query)) {
		dbq = dbq.Where("LOWER(name) LIKE ?", "%"+token+"%")
	}

	var candidates []models.Card
	if err := dbq.Order("name").Limit(maxSearchCandidates).Find(&candidates).Error; err != nil {
		return nil, err
	}

	ranked := RankCardsByName(query, candidates)
	total := len(ranked)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	return &models.CardSearchResult{
		Cards:      ranked,
		TotalCount: total,
		HasMore:    total > len(ranked),
	}, nil
}
