package services

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWalkAllPrintings_SkipsSiblingSections(t *testing.T) {
	// meta deliberately comes before data so the walker has to skip it.
	raw := `{
		"meta": {"date": "2025-08-01", "version": "5.2.2"},
		"data": {
			"LEA": {"name": "Limited Edition Alpha", "cards": [
				{"uuid": "lea-1", "name": "Lightning Bolt"}
			]},
			"M21": {"name": "Core Set 2021", "cards": [
				{"uuid": "m21-1", "name": "Shock"},
				{"uuid": "m21-2", "name": "Opt"}
			]}
		}
	}`
	path := filepath.Join(t.TempDir(), "AllPrintings.json")
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	var codes []string
	var cards int
	err := walkAllPrintings(path, func(code string, set *rawSet) error {
		codes = append(codes, code)
		cards += len(set.Cards)
		return nil
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	if !reflect.DeepEqual(codes, []string{"LEA", "M21"}) {
		t.Errorf("expected sets in document order [LEA M21], got %v", codes)
	}
	if cards != 3 {
		t.Errorf("expected 3 cards walked, got %d", cards)
	}
}

func TestWalkAllPrintings_CallbackErrorStopsWalk(t *testing.T) {
	doc := map[string]any{
		"data": map[string]any{
			"AAA": map[string]any{"name": "First"},
			"BBB": map[string]any{"name": "Second"},
		},
	}
	path := writeAllPrintings(t, doc)

	var seen []string
	err := walkAllPrintings(path, func(code string, set *rawSet) error {
		seen = append(seen, code)
		if code == "AAA" {
			return os.ErrClosed
		}
		return nil
	})

	if err != os.ErrClosed {
		t.Fatalf("expected callback error to surface, got %v", err)
	}
	if !reflect.DeepEqual(seen, []string{"AAA"}) {
		t.Errorf("expected walk to stop after AAA, got %v", seen)
	}
}

func TestWalkAllPrintings_MissingFile(t *testing.T) {
	err := walkAllPrintings(filepath.Join(t.TempDir(), "absent.json"), func(string, *rawSet) error {
		t.Error("callback should not run for a missing file")
		return nil
	})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestBuildRarityIndex(t *testing.T) {
	doc := map[string]any{
		"data": map[string]any{
			"FOO": map[string]any{
				"name": "Foo Set",
				"cards": []any{
					map[string]any{"uuid": "f-1", "name": "Unique Dragon", "number": "42", "rarity": "Rare"},
					map[string]any{"uuid": "f-2", "name": "Dual Blade", "number": "7", "rarity": "Common"},
					map[string]any{"uuid": "f-3", "name": "No Rarity Card", "number": "8"},
				},
			},
			"BAR": map[string]any{
				"name": "Bar Set",
				"cards": []any{
					map[string]any{"uuid": "b-1", "name": "Dual Blade", "number": "101", "rarity": "Uncommon"},
				},
			},
		},
	}
	svc := &MTGJSONService{filePath: writeAllPrintings(t, doc)}

	idx, err := svc.BuildRarityIndex()
	if err != nil {
		t.Fatalf("BuildRarityIndex failed: %v", err)
	}

	// Cards without a rarity stay out of the index.
	if idx.Size() != 3 {
		t.Errorf("expected 3 indexed cards, got %d", idx.Size())
	}

	// Collector numbers normalize, so "042" finds the card stored as "42".
	if rarity, ok := idx.SetNumber("foo", "042"); !ok || rarity != "rare" {
		t.Errorf("expected (rare, true) for foo/042, got (%q, %v)", rarity, ok)
	}
	if _, ok := idx.SetNumber("foo", "999"); ok {
		t.Error("expected no match for an unknown collector number")
	}

	if got := idx.NameInSet("dual blade", "FOO"); !reflect.DeepEqual(got, []string{"common"}) {
		t.Errorf("expected [common] for Dual Blade in FOO, got %v", got)
	}
	if got := idx.NameAnywhere("Dual Blade"); len(got) != 2 {
		t.Errorf("expected 2 rarities for Dual Blade anywhere, got %v", got)
	}
	if got := idx.NameAnywhere("No Rarity Card"); got != nil {
		t.Errorf("expected no entry for a rarity-less card, got %v", got)
	}
}

func TestNormalizeCollectorNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"42", "42"},
		{"042", "42"},
		{" 042 ", "42"},
		{"0", "0"},
		{"000", "0"},
		{"100a", "100a"},
		{"100A", "100a"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeCollectorNumber(tt.in); got != tt.want {
			t.Errorf("normalizeCollectorNumber(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
