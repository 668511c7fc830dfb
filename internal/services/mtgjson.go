package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Raw decode shapes for the MTGJSON AllPrintings document. Field names
// follow the upstream v5 format exactly; this is an external, versioned
// contract we have no control over.

type rawSet struct {
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	ReleaseDate  string    `json:"releaseDate"`
	Type         string    `json:"type"`
	Block        string    `json:"block"`
	KeyruneCode  string    `json:"keyruneCode"`
	BaseSetSize  int       `json:"baseSetSize"`
	TotalSetSize int       `json:"totalSetSize"`
	IsOnlineOnly bool      `json:"isOnlineOnly"`
	IsFoilOnly   bool      `json:"isFoilOnly"`
	Cards        []rawCard `json:"cards"`
}

type rawCard struct {
	UUID            string            `json:"uuid"`
	Name            string            `json:"name"`
	AsciiName       string            `json:"asciiName"`
	FaceName        string            `json:"faceName"`
	SetCode         string            `json:"setCode"`
	Number          string            `json:"number"`
	Rarity          string            `json:"rarity"`
	Language        string            `json:"language"`
	ManaCost        string            `json:"manaCost"`
	ManaValue       float64           `json:"manaValue"`
	FaceManaValue   float64           `json:"faceManaValue"`
	Type            string            `json:"type"`
	Types           []string          `json:"types"`
	Subtypes        []string          `json:"subtypes"`
	Supertypes      []string          `json:"supertypes"`
	Text            string            `json:"text"`
	OriginalText    string            `json:"originalText"`
	FlavorText      string            `json:"flavorText"`
	Power           string            `json:"power"`
	Toughness       string            `json:"toughness"`
	Loyalty         string            `json:"loyalty"`
	Defense         string            `json:"defense"`
	Layout          string            `json:"layout"`
	Side            string            `json:"side"`
	Artist          string            `json:"artist"`
	ArtistIds       []string          `json:"artistIds"`
	BorderColor     string            `json:"borderColor"`
	FrameVersion    string            `json:"frameVersion"`
	FrameEffects    []string          `json:"frameEffects"`
	SecurityStamp   string            `json:"securityStamp"`
	Watermark       string            `json:"watermark"`
	Colors          []string          `json:"colors"`
	ColorIdentity   []string          `json:"colorIdentity"`
	ColorIndicator  []string          `json:"colorIndicator"`
	Keywords        []string          `json:"keywords"`
	Finishes        []string          `json:"finishes"`
	HasFoil         bool              `json:"hasFoil"`
	HasNonFoil      bool              `json:"hasNonFoil"`
	IsAlternative   bool              `json:"isAlternative"`
	IsFullArt       bool              `json:"isFullArt"`
	IsFunny         bool              `json:"isFunny"`
	IsOnlineOnly    bool              `json:"isOnlineOnly"`
	IsOversized     bool              `json:"isOversized"`
	IsPromo         bool              `json:"isPromo"`
	IsReprint       bool              `json:"isReprint"`
	IsTextless      bool              `json:"isTextless"`
	EdhrecRank      int               `json:"edhrecRank"`
	EdhrecSaltiness float64           `json:"edhrecSaltiness"`
	BoosterTypes    []string          `json:"boosterTypes"`
	Printings       []string          `json:"printings"`
	Variations      []string          `json:"variations"`
	OtherFaceIds    []string          `json:"otherFaceIds"`
	Identifiers     map[string]string `json:"identifiers"`
	Legalities      map[string]string `json:"legalities"`
	PurchaseUrls    map[string]string `json:"purchaseUrls"`
	ForeignData     json.RawMessage   `json:"foreignData"`
	Rulings         json.RawMessage   `json:"rulings"`
}

// MTGJSONService owns the local AllPrintings file: where it lives, how it
// is downloaded, and the streaming walk other components consume it with.
type MTGJSONService struct {
	filePath   string
	url        string
	httpClient *http.Client
}

func NewMTGJSONService() *MTGJSONService {
	filePath := os.Getenv("ALLPRINTINGS_PATH")
	if filePath == "" {
		filePath = "./data/AllPrintings.json"
	}

	url := os.Getenv("MTGJSON_URL")
	if url == "" {
		url = "https://mtgjson.com/api/v5/AllPrintings.json"
	}

	return &MTGJSONService{
		filePath: filePath,
		url:      url,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (s *MTGJSONService) FilePath() string {
	return s.filePath
}

// Available reports whether the bulk file exists locally.
func (s *MTGJSONService) Available() bool {
	info, err := os.Stat(s.filePath)
	return err == nil && !info.IsDir()
}

// FileAge returns how long ago the bulk file was written. Zero when the
// file is absent.
func (s *MTGJSONService) FileAge() time.Duration {
	info, err := os.Stat(s.filePath)
	if err != nil {
		return 0
	}
	return time.Since(info.ModTime())
}

// EnsureFile downloads the AllPrintings document when it is missing or
// when force is set. The download goes to a temp file first so a partial
// transfer never clobbers a good copy.
func (s *MTGJSONService) EnsureFile(ctx context.Context, force bool) error {
	if s.Available() && !force {
		return nil
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	log.Printf("Downloading AllPrintings from %s", s.url)

	req, err := http.NewRequestWithContext(ctx, "GET", s.url, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download AllPrintings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("AllPrintings download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, "allprintings-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write AllPrintings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		return err
	}

	log.Printf("Downloaded AllPrintings (%d bytes) to %s", written, s.filePath)
	return nil
}

// WalkSets streams the AllPrintings document and calls fn once per set, in
// document order. The whole file is never held in memory; one set's worth
// of cards is resident at a time. A non-nil error from fn stops the walk.
func (s *MTGJSONService) WalkSets(fn func(code string, set *rawSet) error) error {
	return walkAllPrintings(s.filePath, fn)
}

func walkAllPrintings(path string, fn func(code string, set *rawSet) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open bulk data file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to parse bulk data file: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("unexpected top-level token %v in bulk data file", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to parse bulk data file: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v in bulk data file", keyTok)
		}

		if key != "data" {
			// meta and any future top-level siblings are skipped wholesale
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("failed to skip %q section: %w", key, err)
			}
			continue
		}

		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to parse data section: %w", err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return fmt.Errorf("unexpected data section token %v", tok)
		}

		for dec.More() {
			codeTok, err := dec.Token()
			if err != nil {
				return fmt.Errorf("failed to parse set key: %w", err)
			}
			code, ok := codeTok.(string)
			if !ok {
				return fmt.Errorf("unexpected set key token %v", codeTok)
			}

			var set rawSet
			if err := dec.Decode(&set); err != nil {
				return fmt.Errorf("failed to decode set %s: %w", code, err)
			}

			if err := fn(code, &set); err != nil {
				return err
			}
		}

		if _, err := dec.Token(); err != nil {
			return fmt.Errorf("failed to parse data section close: %w", err)
		}
	}

	return nil
}

// RarityIndex is an in-memory lookup over the bulk file built for the
// rarity backfill: set+collector-number first, then name within a set,
// then name across all sets.
type RarityIndex struct {
	bySetNumber map[string]string
	byNameInSet map[string][]string
	byName      map[string][]string
	size        int
}

// BuildRarityIndex streams the bulk file once and collects rarity values
// only, so the resident footprint stays small. Cards without a rarity are
// left out of the index entirely.
func (s *MTGJSONService) BuildRarityIndex() (*RarityIndex, error) {
	idx := &RarityIndex{
		bySetNumber: make(map[string]string),
		byNameInSet: make(map[string][]string),
		byName:      make(map[string][]string),
	}

	err := s.WalkSets(func(code string, set *rawSet) error {
		setKey := strings.ToLower(code)
		for _, card := range set.Cards {
			rarity := strings.ToLower(strings.TrimSpace(card.Rarity))
			if rarity == "" {
				continue
			}
			nameKey := strings.ToLower(strings.TrimSpace(card.Name))

			numKey := setKey + "|" + normalizeCollectorNumber(card.Number)
			if _, exists := idx.bySetNumber[numKey]; !exists {
				idx.bySetNumber[numKey] = rarity
			}

			inSetKey := setKey + "|" + nameKey
			idx.byNameInSet[inSetKey] = append(idx.byNameInSet[inSetKey], rarity)
			idx.byName[nameKey] = append(idx.byName[nameKey], rarity)
			idx.size++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return idx, nil
}

func (idx *RarityIndex) SetNumber(setCode, number string) (string, bool) {
	key := strings.ToLower(setCode) + "|" + normalizeCollectorNumber(number)
	rarity, ok := idx.bySetNumber[key]
	return rarity, ok
}

func (idx *RarityIndex) NameInSet(name, setCode string) []string {
	key := strings.ToLower(setCode) + "|" + strings.ToLower(strings.TrimSpace(name))
	return idx.byNameInSet[key]
}

func (idx *RarityIndex) NameAnywhere(name string) []string {
	return idx.byName[strings.ToLower(strings.TrimSpace(name))]
}

func (idx *RarityIndex) Size() int {
	return idx.size
}

// normalizeCollectorNumber strips leading zeros so "042" and "42" compare
// equal across data sources.
func normalizeCollectorNumber(number string) string {
	normalized := strings.TrimLeft(strings.TrimSpace(number), "0")
	if normalized == "" && number != "" {
		normalized = "0"
	}
	return strings.ToLower(normalized)
}
