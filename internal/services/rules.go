package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/sparkarcanum/spark-arcanum/internal/metrics"
	"github.com/sparkarcanum/spark-arcanum/internal/models"
)

// Line shapes in the comprehensive-rules text file. Rule numbers are
// canonicalized without trailing periods: "100.", "100.1.", "100.1a"
// become "100", "100.1", "100.1a".
var (
	ruleLineRe    = regexp.MustCompile(`^(\d{3}\.\d+[a-z]?)\.?\s+(.+)$`)
	sectionLineRe = regexp.MustCompile(`^(\d{3})\.\s+(.+)$`)
	chapterLineRe = regexp.MustCompile(`^(\d)\.\s+(.+)$`)
	exampleLineRe = regexp.MustCompile(`^Example:\s*(.+)$`)
)

// ParsedRule is one entry lifted from the rules text, before persistence.
type ParsedRule struct {
	Number   string
	Text     string
	Examples []string
	Keywords []string
	Chapter  string
}

// ParseComprehensiveRules scans the rules text line by line. It collects
// chapter headings ("1. Game Concepts"), section entries ("100. General"),
// rules ("100.1.") and subrules ("100.1a"), attaching Example lines to the
// entry they follow. The table of contents repeats section headings; those
// duplicates overwrite in place. Parsing stops at the Glossary.
func ParseComprehensiveRules(r io.Reader) ([]ParsedRule, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		rules    []ParsedRule
		byNumber = make(map[string]int)
		chapter  string
		open     = -1 // index of the entry still accepting text/examples
		sawRule  bool // a detailed rule, not just contents headings
	)

	put := func(entry ParsedRule) {
		if i, ok := byNumber[entry.Number]; ok {
			open = i
			rules[i] = entry
			return
		}
		byNumber[entry.Number] = len(rules)
		open = len(rules)
		rules = append(rules, entry)
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// The contents section also lists "Glossary"; only stop once
		// real rules have been seen, which never happens in contents.
		if line == "Glossary" && sawRule {
			break
		}

		if m := ruleLineRe.FindStringSubmatch(line); m != nil {
			sawRule = true
			put(ParsedRule{
				Number:   m[1],
				Text:     m[2],
				Keywords: keywordTags(m[1], m[2]),
				Chapter:  chapter,
			})
			continue
		}

		if m := sectionLineRe.FindStringSubmatch(line); m != nil {
			put(ParsedRule{
				Number:  m[1],
				Text:    m[2],
				Chapter: chapter,
			})
			continue
		}

		if m := chapterLineRe.FindStringSubmatch(line); m != nil {
			chapter = m[2]
			open = -1
			continue
		}

		if m := exampleLineRe.FindStringSubmatch(line); m != nil {
			if open >= 0 {
				rules[open].Examples = append(rules[open].Examples, m[1])
			}
			continue
		}

		// Continuation of a wrapped rule body
		if open >= 0 {
			rules[open].Text += " " + line
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan rules text: %w", err)
	}

	if len(rules) == 0 {
		return nil, fmt.Errorf("no rules found in input")
	}
	return rules, nil
}

// keywordTags marks keyword-ability entries. Section 702 introduces each
// keyword with a rule whose whole text is the keyword name ("702.2.
// Deathtouch"); anything longer is prose, not a tag.
func keywordTags(number, text string) []string {
	if !strings.HasPrefix(number, "702.") {
		return nil
	}
	last := number[len(number)-1]
	if last >= 'a' && last <= 'z' {
		return nil
	}
	if len(text) > 40 || strings.Contains(text, ". ") {
		return nil
	}
	return []string{text}
}

// RulesImportResult summarizes one rules import run.
type RulesImportResult struct {
	Parsed   int           `json:"parsed"`
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Errors   int           `json:"errors"`
	Duration time.Duration `json:"duration"`
}

// RulesService parses and imports the comprehensive rules, downloading the
// text file when it is missing.
type RulesService struct {
	db         *gorm.DB
	filePath   string
	url        string
	httpClient *http.Client

	mu      sync.Mutex
	running bool
}

func NewRulesService(db *gorm.DB) *RulesService {
	filePath := os.Getenv("RULES_PATH")
	if filePath == "" {
		filePath = "./data/MagicCompRules.txt"
	}

	return &RulesService{
		db:       db,
		filePath: filePath,
		url:      os.Getenv("RULES_URL"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// IsRunning returns whether a rules import is currently in progress
func (s *RulesService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// CanDownload returns whether a RULES_URL is configured.
func (s *RulesService) CanDownload() bool {
	return s.url != ""
}

// EnsureFile downloads the rules text when it is missing or when force is
// set. Requires RULES_URL; the publisher moves the file on every release.
func (s *RulesService) EnsureFile(ctx context.Context, force bool) error {
	if _, err := os.Stat(s.filePath); err == nil && !force {
		return nil
	}

	if s.url == "" {
		return fmt.Errorf("rules file %s is missing and RULES_URL is not set", s.filePath)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	log.Printf("Downloading comprehensive rules from %s", s.url)

	req, err := http.NewRequestWithContext(ctx, "GET", s.url, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download rules: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rules download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), "comprules-*.txt")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.filePath)
}

// ImportRules parses the local rules file and upserts every entry by
// number. Entries whose content is unchanged are skipped entirely.
func (s *RulesService) ImportRules(ctx context.Context) (*RulesImportResult, error) {
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

	f, err := os.Open(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer f.Close()

	parsed, err := ParseComprehensiveRules(f)
	if err != nil {
		return nil, err
	}

	result := &RulesImportResult{Parsed: len(parsed)}
	for _, entry := range parsed {
		s.upsertRule(ctx, entry, result)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Rule{}).Count(&total).Error; err == nil {
		metrics.RuleDatabaseSize.Set(float64(total))
	}

	result.Duration = time.Since(start)
	log.Printf("Rules import complete: %d parsed, %d created, %d updated, %d skipped, %d errors in %s",
		result.Parsed, result.Created, result.Updated, result.Skipped, result.Errors,
		result.Duration.Round(time.Millisecond))

	return result, nil
}

func (s *RulesService) upsertRule(ctx context.Context, entry ParsedRule, result *RulesImportResult) {
	row := models.Rule{
		Number:   entry.Number,
		Text:     entry.Text,
		Examples: jsonStringArray(entry.Examples),
		Keywords: jsonStringArray(entry.Keywords),
		Parent:   models.ParentRuleNumber(entry.Number),
		Chapter:  entry.Chapter,
	}

	var existing models.Rule
	err := s.db.WithContext(ctx).Where("number = ?", entry.Number).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			log.Printf("Warning: failed to create rule %s: %v", entry.Number, err)
			result.Errors++
			return
		}
		result.Created++
		metrics.RulesImportedTotal.Inc()
		return
	}
	if err != nil {
		log.Printf("Warning: failed to look up rule %s: %v", entry.Number, err)
		result.Errors++
		return
	}

	if existing.Text == row.Text &&
		string(existing.Examples) == string(row.Examples) &&
		string(existing.Keywords) == string(row.Keywords) &&
		existing.Parent == row.Parent &&
		existing.Chapter == row.Chapter {
		result.Skipped++
		return
	}

	err = s.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"text":     row.Text,
		"examples": row.Examples,
		"keywords": row.Keywords,
		"parent":   row.Parent,
		"chapter":  row.Chapter,
	}).Error
	if err != nil {
		log.Printf("Warning: failed to update rule %s: %v", entry.Number, err)
		result.Errors++
		return
	}
	result.Updated++
	metrics.RulesImportedTotal.Inc()
}
