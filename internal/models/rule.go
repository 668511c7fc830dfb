package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Rule is one numbered comprehensive-rules entry (e.g. "100.1a").
// Rows are upserted by Number and content-diffed so re-imports of an
// unchanged rules file write nothing.
type Rule struct {
	ID        uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Number    string         `json:"number" gorm:"uniqueIndex;not null"`
	Text      string         `json:"text" gorm:"not null"`
	Examples  datatypes.JSON `json:"examples"`
	Keywords  datatypes.JSON `json:"keywords"`
	Parent    string         `json:"parent" gorm:"index"`
	Chapter   string         `json:"chapter"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type RuleSearchResult struct {
	Rules      []Rule `json:"rules"`
	TotalCount int    `json:"total_count"`
}

// ParentRuleNumber derives the containing entry for a canonical rule
// number: "100.1a" -> "100.1", "100.1" -> "100", "100" -> "". Numbers
// outside the comprehensive-rules convention yield "".
func ParentRuleNumber(number string) string {
	n := strings.TrimSuffix(strings.TrimSpace(number), ".")
	if n == "" {
		return ""
	}

	i := len(n)
	for i > 0 && n[i-1] >= 'a' && n[i-1] <= 'z' {
		i--
	}
	if i < len(n) {
		return n[:i]
	}

	if dot := strings.LastIndex(n, "."); dot >= 0 {
		return n[:dot]
	}
	return ""
}
