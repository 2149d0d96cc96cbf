package interpret

import (
	"strings"
	"testing"

	"github.com/satory074/dreamscope/internal/constants"
)

func TestMockGeneratorSymbolCount(t *testing.T) {
	g := NewMockGenerator(42)

	tests := []struct {
		content string
		want    int
	}{
		{"ひとつ", 1},
		{"ふたつ の", 2},
		{"みっつ の 言葉", 3},
		{"よっつ の 言葉 が ある", constants.MaxMockSymbols},
	}
	for _, tt := range tests {
		interp := g.Generate(tt.content)
		if len(interp.Symbols) != tt.want {
			t.Errorf("content %q: expected %d symbols, got %d", tt.content, tt.want, len(interp.Symbols))
		}
	}
}

func TestMockGeneratorDeterministicWithSeed(t *testing.T) {
	a := NewMockGenerator(7).Generate("海 で 泳ぐ")
	b := NewMockGenerator(7).Generate("海 で 泳ぐ")

	if a.PsychologicalMessage != b.PsychologicalMessage {
		t.Error("same seed should produce the same message")
	}
	for i := range a.Symbols {
		if a.Symbols[i].Meaning != b.Symbols[i].Meaning {
			t.Errorf("symbol %d meanings differ between same-seed runs", i)
		}
	}
}

func TestMockGeneratorShape(t *testing.T) {
	interp := NewMockGenerator(1).Generate("波 が 高い")

	if interp.DreamText != "波 が 高い" {
		t.Errorf("dream text should echo content, got %q", interp.DreamText)
	}
	for _, s := range interp.Symbols {
		if !strings.HasPrefix(s.Meaning, "「"+s.Symbol+"」は") {
			t.Errorf("meaning %q does not reference symbol %q", s.Meaning, s.Symbol)
		}
	}
	if interp.PsychologicalMessage == "" || interp.DailyInsight == "" {
		t.Error("fixed-set fields must always be populated")
	}
}
