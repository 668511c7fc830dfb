package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/sparkarcanum/spark-arcanum/internal/metrics"
)

const scryfallBaseURL = "https://api.scryfall.com"

// ScryfallService is the remote last-resort card lookup. Scryfall asks
// integrators to stay under 10 requests per second, so every call goes
// through a shared limiter.
type ScryfallService struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewScryfallService() *ScryfallService {
	baseURL := os.Getenv("SCRYFALL_API_URL")
	if baseURL == "" {
		baseURL = scryfallBaseURL
	}

	return &ScryfallService{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 1),
	}
}

// ScryfallCard is the slice of the Scryfall card object this backend
// consumes.
type ScryfallCard struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Rarity          string `json:"rarity"`
	Set             string `json:"set"`
	CollectorNumber string `json:"collector_number"`
	TypeLine        string `json:"type_line"`
	ManaCost        string `json:"mana_cost"`
	OracleText      string `json:"oracle_text"`
	ReleasedAt      string `json:"released_at"`
}

// GetCardByName looks up a card by its exact name. A card Scryfall does
// not know yields (nil, nil); absence is not an error.
func (s *ScryfallService) GetCardByName(ctx context.Context, name string) (*ScryfallCard, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/cards/named?exact=%s", s.baseURL, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.ScryfallRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to query scryfall: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.ScryfallRequestsTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		metrics.ScryfallRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("scryfall API returned status %d", resp.StatusCode)
	}

	var card ScryfallCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		metrics.ScryfallRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to decode scryfall response: %w", err)
	}

	metrics.ScryfallRequestsTotal.WithLabelValues("hit").Inc()
	return &card, nil
}
