package models

import "testing"

func TestParentRuleNumber(t *testing.T) {
	tests := []struct {
		number string
		want   string
	}{
		{"100.1a", "100.1"},
		{"601.2b", "601.2"},
		{"100.1", "100"},
		{"100", ""},
		{"100.", ""},
		{"100.1.", "100"},
		{"702.133c", "702.133"},
		{"", ""},
		{"   ", ""},
		{"abc", ""},
	}

	for _, tt := range tests {
		if got := ParentRuleNumber(tt.number); got != tt.want {
			t.Errorf("ParentRuleNumber(%q): expected %q, got %q", tt.number, tt.want, got)
		}
	}
}
