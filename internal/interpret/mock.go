package interpret

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/satory074/dreamscope/internal/constants"
	"github.com/satory074/dreamscope/internal/models"
)

// Generator produces a local substitute interpretation when the remote
// service is unreachable. It is an interface so tests can swap in a
// deterministic implementation.
type Generator interface {
	Generate(content string) *models.Interpretation
}

var mockMeanings = []string{
	"内面の変化を象徴している可能性があります",
	"成長への願望を表しているかもしれません",
	"不安や恐れを表現している可能性があります",
	"希望や期待を象徴している可能性があります",
	"新しい挑戦への準備を表しているかもしれません",
}

var mockMessages = []string{
	"今のあなたは新しい可能性に向かって進む準備ができています。",
	"内なる声に耳を傾け、本当の気持ちと向き合う時期かもしれません。",
	"変化を恐れず、自分を信じて一歩踏み出してみましょう。",
	"潜在的な才能や能力が開花する時期が近づいています。",
	"過去の経験から学び、未来への道筋を見つける時です。",
}

var mockInsights = []string{
	"今日は小さな挑戦から始めてみよう",
	"自分の感情を大切にする一日に",
	"新しい視点で物事を見てみる",
	"直感を信じて行動してみよう",
	"感謝の気持ちを忘れずに過ごそう",
}

// MockGenerator derives symbols from the first words of the content and
// picks the rest from fixed sets. The shape is always valid, so the
// workflow completes with no backend at all.
type MockGenerator struct {
	rng *rand.Rand
}

// NewMockGenerator seeds the generator. Pass a fixed seed in tests to pin
// the chosen meanings.
func NewMockGenerator(seed int64) *MockGenerator {
	return &MockGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *MockGenerator) Generate(content string) *models.Interpretation {
	words := strings.Fields(content)
	n := len(words)
	if n > constants.MaxMockSymbols {
		n = constants.MaxMockSymbols
	}

	symbols := make([]models.SymbolMeaning, 0, n)
	for _, word := range words[:n] {
		symbols = append(symbols, models.SymbolMeaning{
			Symbol:  word,
			Meaning: fmt.Sprintf("「%s」は%s", word, mockMeanings[g.rng.Intn(len(mockMeanings))]),
		})
	}

	return &models.Interpretation{
		DreamText:            content,
		Symbols:              symbols,
		PsychologicalMessage: mockMessages[g.rng.Intn(len(mockMessages))],
		DailyInsight:         mockInsights[g.rng.Intn(len(mockInsights))],
	}
}
