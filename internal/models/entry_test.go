package models

import (
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	now := time.Date(2026, 4, 1, 6, 30, 0, 0, time.UTC)
	interp := &Interpretation{
		Symbols: []SymbolMeaning{
			{Symbol: "空", Meaning: "自由"},
			{Symbol: "海", Meaning: "感情"},
		},
		PsychologicalMessage: "msg",
	}

	e := NewEntry(now, "空と海の夢", interp)
	if e.ID != now.UnixMilli() {
		t.Errorf("expected ID %d, got %d", now.UnixMilli(), e.ID)
	}
	if len(e.Tags) != 2 || e.Tags[0] != "空" || e.Tags[1] != "海" {
		t.Errorf("expected tags from symbols, got %v", e.Tags)
	}
	if e.Day() != "2026-04-01" {
		t.Errorf("unexpected day: %s", e.Day())
	}
}

func TestNewEntryWithoutInterpretation(t *testing.T) {
	e := NewEntry(time.Now(), "内容のみ", nil)
	if e.Interpretation != nil {
		t.Error("expected nil interpretation")
	}
	if len(e.Tags) != 0 {
		t.Errorf("expected no tags, got %v", e.Tags)
	}
}

func TestSymbolKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Water", "water"},
		{"  空  ", "空"},
		{"MIXED Case", "mixed case"},
	}
	for _, tt := range tests {
		if got := SymbolKey(tt.in); got != tt.want {
			t.Errorf("SymbolKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
