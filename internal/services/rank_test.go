package services

import (
	"reflect"
	"strings"
	"testing"

	"github.com/sparkarcanum/spark-arcanum/internal/models"
)

func cardsNamed(names ...string) []models.Card {
	cards := make([]models.Card, len(names))
	for i, n := range names {
		cards[i] = models.Card{UUID: n, Name: n}
	}
	return cards
}

func rankedNames(cards []models.Card) []string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.Name
	}
	return names
}

func TestRankCardsByName_InteriorMatchBeatsPrefixMatch(t *testing.T) {
	cards := cardsNamed("Boltwing Hatchling", "Lightning Bolt", "Chain Lightning")

	result := RankCardsByName("bolt", cards)

	expected := []string{"Lightning Bolt", "Boltwing Hatchling"}
	if !reflect.DeepEqual(rankedNames(result), expected) {
		t.Errorf("expected %v, got %v", expected, rankedNames(result))
	}
}

func TestRankCardsByName_ExcludesNamesMissingToken(t *testing.T) {
	cards := cardsNamed("Lightning Bolt", "Chain Lightning", "Shock")

	result := RankCardsByName("bolt", cards)

	for _, c := range result {
		if !strings.Contains(strings.ToLower(c.Name), "bolt") {
			t.Errorf("expected every result to contain 'bolt', got %s", c.Name)
		}
	}
	if len(result) != 1 {
		t.Errorf("expected 1 result, got %d", len(result))
	}
}

func TestRankCardsByName_EmptyQueryReturnsAlphabetical(t *testing.T) {
	cards := cardsNamed("Zap", "Ambush Viper", "Cure")

	result := RankCardsByName("", cards)

	expected := []string{"Ambush Viper", "Cure", "Zap"}
	if !reflect.DeepEqual(rankedNames(result), expected) {
		t.Errorf("expected %v, got %v", expected, rankedNames(result))
	}
}

func TestRankCardsByName_WhitespaceQueryReturnsAlphabetical(t *testing.T) {
	cards := cardsNamed("Zap", "Ambush Viper")

	result := RankCardsByName("   \t ", cards)

	expected := []string{"Ambush Viper", "Zap"}
	if !reflect.DeepEqual(rankedNames(result), expected) {
		t.Errorf("expected %v, got %v", expected, rankedNames(result))
	}
}

func TestRankCardsByName_AndSemanticsAcrossTokens(t *testing.T) {
	cards := cardsNamed("Giant Growth", "Giant Spider", "Growth Spiral")

	result := RankCardsByName("giant growth", cards)

	if len(result) != 1 {
		t.Fatalf("expected 1 result, got %d", len(result))
	}
	if result[0].Name != "Giant Growth" {
		t.Errorf("expected 'Giant Growth', got %s", result[0].Name)
	}
}

func TestRankCardsByName_TiesBreakAlphabetically(t *testing.T) {
	// Both names contain "fire" as an interior whole word with identical
	// counts, so their scores are equal.
	cards := cardsNamed("Wall of Fire", "Sphere of Fire")

	result := RankCardsByName("fire", cards)

	expected := []string{"Sphere of Fire", "Wall of Fire"}
	if !reflect.DeepEqual(rankedNames(result), expected) {
		t.Errorf("expected %v, got %v", expected, rankedNames(result))
	}
}

func TestRankCardsByName_CaseInsensitive(t *testing.T) {
	cards := cardsNamed("lightning bolt")

	result := RankCardsByName("BOLT", cards)

	if len(result) != 1 {
		t.Errorf("expected 1 result, got %d", len(result))
	}
}

func TestRankCardsByName_DoesNotMutateInput(t *testing.T) {
	cards := cardsNamed("Zap", "Ambush Viper", "Cure")
	original := make([]models.Card, len(cards))
	copy(original, cards)

	RankCardsByName("viper", cards)
	RankCardsByName("", cards)

	if !reflect.DeepEqual(cards, original) {
		t.Error("expected input slice to be unchanged")
	}
}

func TestScoreName_Weights(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		cardName string
		want     int
		wantOK   bool
	}{
		// 1 exact word (20) + 1 substring (5) + interior (50) + interior exact (25)
		{"interior exact word", "bolt", "Lightning Bolt", 100, true},
		// 0 exact + 1 substring (5) + prefix (30)
		{"prefix substring only", "bolt", "Boltwing Hatchling", 35, true},
		// 1 exact word (20) + 1 substring (5) + prefix (30)
		{"prefix exact word", "bolt", "Bolt Storm", 55, true},
		// 0 exact + 1 substring (5) + interior (50), no exact-word extra
		{"interior substring only", "bolt", "Firebolt", 55, true},
		// 2 exact words (40) + 2 substrings (10) + interior (50) + extra (25)
		{"repeated word", "bolt", "Lava Bolt Bolt", 125, true},
		{"token absent", "bolt", "Shock", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matchers := compileTokens(strings.Fields(strings.ToLower(tt.query)))
			got, ok := scoreName(matchers, tt.cardName)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got ok=%v", tt.wantOK, ok)
			}
			if got != tt.want {
				t.Errorf("expected score %d, got %d", tt.want, got)
			}
		})
	}
}
