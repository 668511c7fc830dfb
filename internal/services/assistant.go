package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"

	"github.com/sparkarcanum/spark-arcanum/internal/metrics"
	"github.com/sparkarcanum/spark-arcanum/internal/models"
)

const (
	assistantModel   = "gemini-2.0-flash"
	assistantAPIURL  = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	assistantTimeout = 30 * time.Second

	// Answers are short strings, so 256 entries stays well under a megabyte.
	answerCacheSize = 256
)

// ErrAssistantDisabled is returned by AskQuestion when no GEMINI_API_KEY is
// configured. Handlers map it to 503 instead of treating it as a failure.
var ErrAssistantDisabled = errors.New("assistant disabled: GEMINI_API_KEY not set")

// AssistantService answers free-text Magic questions via the Gemini API,
// optionally grounding them with a card looked up from the database.
type AssistantService struct {
	db         *gorm.DB
	apiKey     string
	apiURL     string
	httpClient *http.Client
	enabled    bool
	answers    *lru.Cache[string, string]
}

// NewAssistantService creates the assistant. It is safe to construct without
// an API key; every AskQuestion call then returns ErrAssistantDisabled.
func NewAssistantService(db *gorm.DB) *AssistantService {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if keyPath := os.Getenv("GEMINI_API_KEY_FILE"); keyPath != "" {
			if data, err := os.ReadFile(keyPath); err == nil {
				apiKey = strings.TrimSpace(string(data))
			}
		}
	}

	answers, err := lru.New[string, string](answerCacheSize)
	if err != nil {
		log.Printf("Warning: failed to create assistant answer cache: %v", err)
	}

	svc := &AssistantService{
		db:         db,
		apiKey:     apiKey,
		apiURL:     fmt.Sprintf(assistantAPIURL, assistantModel),
		httpClient: &http.Client{Timeout: assistantTimeout},
		enabled:    apiKey != "",
		answers:    answers,
	}

	if svc.enabled {
		log.Printf("Assistant service: enabled (model=%s, answer_cache=%d)", assistantModel, answerCacheSize)
	} else {
		log.Printf("Assistant service: disabled (no GEMINI_API_KEY)")
	}

	return svc
}

// IsEnabled returns whether the assistant has an API key.
func (s *AssistantService) IsEnabled() bool {
	return s.enabled
}

// AssistantAnswer is the result returned to the client.
type AssistantAnswer struct {
	Question string `json:"question"`
	CardName string `json:"card_name,omitempty"`
	Answer   string `json:"answer"`
	Cached   bool   `json:"cached"`
}

const assistantPrompt = `You are a Magic: The Gathering rules and deck-building expert. Answer the question below accurately and concisely.

RULES:
- Cite comprehensive rule numbers (e.g., 601.2) when the answer depends on them
- If card context is provided, base your answer on that exact card text
- If the question is ambiguous, state your interpretation before answering
- Keep the answer under 300 words

%sQUESTION:
%s`

// AskQuestion forwards a question to Gemini. Repeated questions about the
// same card are served from the LRU cache without a network call.
func (s *AssistantService) AskQuestion(ctx context.Context, question, cardName string) (*AssistantAnswer, error) {
	if !s.enabled {
		return nil, ErrAssistantDisabled
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question")
	}

	metrics.AssistantRequestsTotal.Inc()

	cacheKey := strings.ToLower(cardName) + "\x1f" + question
	if s.answers != nil {
		if cached, ok := s.answers.Get(cacheKey); ok {
			metrics.AssistantCacheHits.Inc()
			return &AssistantAnswer{Question: question, CardName: cardName, Answer: cached, Cached: true}, nil
		}
	}

	startTime := time.Now()

	answer, err := s.generate(ctx, s.buildPrompt(ctx, question, cardName))
	if err != nil {
		return nil, err
	}

	if s.answers != nil {
		s.answers.Add(cacheKey, answer)
	}

	log.Printf("Assistant answered in %v (question_len=%d, card=%q, answer_len=%d)",
		time.Since(startTime).Round(time.Millisecond), len(question), cardName, len(answer))

	return &AssistantAnswer{Question: question, CardName: cardName, Answer: answer}, nil
}

// buildPrompt resolves the optional card context from the database. A card
// that cannot be found degrades to an uncontextualized question rather than
// failing the request.
func (s *AssistantService) buildPrompt(ctx context.Context, question, cardName string) string {
	if cardName == "" {
		return fmt.Sprintf(assistantPrompt, "", question)
	}

	var card models.Card
	err := s.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", cardName).
		Order("set_code").
		First(&card).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Warning: assistant card lookup for %q failed: %v", cardName, err)
		}
		return fmt.Sprintf(assistantPrompt, "", question)
	}

	return fmt.Sprintf(assistantPrompt, cardContext(&card), question)
}

// cardContext renders the fields Gemini needs to reason about a card.
func cardContext(card *models.Card) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CARD CONTEXT:\nName: %s\n", card.Name)
	if card.ManaCost != "" {
		fmt.Fprintf(&b, "Mana Cost: %s\n", card.ManaCost)
	}
	if card.Type != "" {
		fmt.Fprintf(&b, "Type: %s\n", card.Type)
	}
	if card.Text != "" {
		fmt.Fprintf(&b, "Text: %s\n", card.Text)
	}
	if card.Power != "" || card.Toughness != "" {
		fmt.Fprintf(&b, "Power/Toughness: %s/%s\n", card.Power, card.Toughness)
	}
	if card.Loyalty != "" {
		fmt.Fprintf(&b, "Loyalty: %s\n", card.Loyalty)
	}
	if card.Rarity != "" {
		fmt.Fprintf(&b, "Rarity: %s\n", card.Rarity)
	}
	if card.SetCode != "" {
		fmt.Fprintf(&b, "Set: %s\n", card.SetCode)
	}
	b.WriteString("\n")
	return b.String()
}

// generate makes a single generateContent call and returns the answer text.
func (s *AssistantService) generate(ctx context.Context, prompt string) (string, error) {
	startTime := time.Now()

	req := assistantRequest{
		Contents: []assistantContent{
			{Parts: []assistantPart{{Text: prompt}}},
		},
		GenerationConfig: assistantGenConfig{
			Temperature:     0.2,
			MaxOutputTokens: 1024,
		},
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.apiURL+"?key="+s.apiKey, bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		metrics.AssistantErrorsTotal.WithLabelValues("network").Inc()
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.AssistantAPILatency.Observe(time.Since(startTime).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.AssistantErrorsTotal.WithLabelValues("read").Inc()
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.AssistantErrorsTotal.WithLabelValues("api").Inc()
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp assistantAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		metrics.AssistantErrorsTotal.WithLabelValues("parse").Inc()
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}

	if apiResp.Error != nil {
		metrics.AssistantErrorsTotal.WithLabelValues("api").Inc()
		return "", fmt.Errorf("API error %d: %s", apiResp.Error.Code, apiResp.Error.Message)
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		metrics.AssistantErrorsTotal.WithLabelValues("empty").Inc()
		return "", fmt.Errorf("no response from Gemini")
	}

	var answer strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		answer.WriteString(part.Text)
	}

	text := strings.TrimSpace(answer.String())
	if text == "" {
		metrics.AssistantErrorsTotal.WithLabelValues("empty").Inc()
		return "", fmt.Errorf("no response from Gemini")
	}

	return text, nil
}

// Gemini API types

type assistantRequest struct {
	Contents         []assistantContent `json:"contents"`
	GenerationConfig assistantGenConfig `json:"generationConfig"`
}

type assistantContent struct {
	Parts []assistantPart `json:"parts"`
}

type assistantPart struct {
	Text string `json:"text"`
}

type assistantGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type assistantAPIResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
