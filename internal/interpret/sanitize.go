package interpret

import (
	"html"
	"strings"

	"github.com/satory074/dreamscope/internal/models"
)

// maxResultSymbols caps interpretation results to guard against a model
// that ignores the prompt.
const maxResultSymbols = 5

// sanitizeInterpretation HTML-escapes every string that arrived from the
// remote service before it is stored or displayed. Model output is
// untrusted input.
func sanitizeInterpretation(interp *models.Interpretation) {
	interp.DreamText = html.EscapeString(interp.DreamText)
	interp.PsychologicalMessage = html.EscapeString(interp.PsychologicalMessage)
	interp.DailyInsight = html.EscapeString(interp.DailyInsight)
	interp.DreamTheme = html.EscapeString(interp.DreamTheme)
	interp.OverallComment = html.EscapeString(interp.OverallComment)

	if len(interp.Symbols) > maxResultSymbols {
		interp.Symbols = interp.Symbols[:maxResultSymbols]
	}
	for i := range interp.Symbols {
		interp.Symbols[i].Symbol = html.EscapeString(interp.Symbols[i].Symbol)
		interp.Symbols[i].Meaning = html.EscapeString(interp.Symbols[i].Meaning)
		interp.Symbols[i].Comment = html.EscapeString(interp.Symbols[i].Comment)
		interp.Symbols[i].Interpretation = html.EscapeString(interp.Symbols[i].Interpretation)
	}
}

func sanitizePending(symbols []models.PendingSymbol) []models.PendingSymbol {
	cleaned := make([]models.PendingSymbol, 0, len(symbols))
	for _, s := range symbols {
		s.Text = html.EscapeString(strings.TrimSpace(s.Text))
		if s.Text == "" {
			continue
		}
		if s.Category == "" {
			s.Category = models.DefaultCategory
		} else {
			s.Category = html.EscapeString(s.Category)
		}
		switch s.Importance {
		case models.ImportanceHigh, models.ImportanceMedium, models.ImportanceLow:
		default:
			s.Importance = models.ImportanceMedium
		}
		cleaned = append(cleaned, s)
	}
	return cleaned
}
