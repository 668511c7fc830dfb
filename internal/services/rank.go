package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sparkarcanum/spark-arcanum/internal/models"
)

// Relevance weights for ranked name search. Interior matches deliberately
// outrank prefix matches ("Lightning Bolt" above "Boltwing Hatchling" for
// "bolt"); the weights are product-tuned, do not rebalance them casually.
const (
	exactWordWeight    = 20 // per whole-word occurrence of a token
	partialWeight      = 5  // per substring occurrence, exact ones included
	interiorBonus      = 50 // token present but name does not start with it
	interiorExactBonus = 25 // the interior occurrence is also a whole word
	prefixBonus        = 30 // name starts with the token
)

type tokenMatcher struct {
	text string
	word *regexp.Regexp
}

func compileTokens(tokens []string) []tokenMatcher {
	matchers := make([]tokenMatcher, len(tokens))
	for i, t := range tokens {
		matchers[i] = tokenMatcher{
			text: t,
			word: regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`),
		}
	}
	return matchers
}

// RankCardsByName orders cards by relevance to a free-text query. A card
// survives only if its name contains every whitespace-separated query token
// as a case-insensitive substring. Ties break alphabetically. An empty or
// whitespace-only query returns every card in alphabetical order, unscored.
// The input slice is never modified.
func RankCardsByName(query string, cards []models.Card) []models.Card {
	tokens := strings.Fields(strings.ToLower(query))

	if len(tokens) == 0 {
		out := make([]models.Card, len(cards))
		copy(out, cards)
		sort.Slice(out, func(i, j int) bool {
			return lessByName(out[i].Name, out[j].Name)
		})
		return out
	}

	matchers := compileTokens(tokens)

	type scoredMatch struct {
		card  models.Card
		score int
	}
	scored := make([]scoredMatch, 0, len(cards))
	for _, card := range cards {
		score, ok := scoreName(matchers, card.Name)
		if !ok {
			continue
		}
		scored = append(scored, scoredMatch{card: card, score: score})
	}

	// Sort by score (descending), then by name for consistency
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return lessByName(scored[i].card.Name, scored[j].card.Name)
	})

	out := make([]models.Card, len(scored))
	for i, m := range scored {
		out[i] = m.card
	}
	return out
}

// scoreName accumulates the relevance score of one name against the query
// tokens. Returns ok=false when any token is missing from the name (AND
// semantics across tokens, not OR).
func scoreName(matchers []tokenMatcher, name string) (int, bool) {
	nameLower := strings.ToLower(name)

	total := 0
	for _, m := range matchers {
		partial := strings.Count(nameLower, m.text)
		if partial == 0 {
			return 0, false
		}
		exact := len(m.word.FindAllStringIndex(nameLower, -1))

		total += exact*exactWordWeight + partial*partialWeight

		if strings.HasPrefix(nameLower, m.text) {
			total += prefixBonus
		} else {
			total += interiorBonus
			if exact > 0 {
				total += interiorExactBonus
			}
		}
	}
	return total, true
}

func lessByName(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
