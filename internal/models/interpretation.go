package models

// SymbolMeaning is one interpreted symbol inside an analysis result.
// Comment and Interpretation only appear on results from the two-phase
// analysis endpoint.
type SymbolMeaning struct {
	Symbol         string `json:"symbol"`
	Meaning        string `json:"meaning"`
	Comment        string `json:"comment,omitempty"`
	Interpretation string `json:"interpretation,omitempty"`
}

// Interpretation is the analysis result produced by the remote service
// (or the mock fallback). Field names follow the wire format.
type Interpretation struct {
	DreamText            string          `json:"dreamText"`
	Symbols              []SymbolMeaning `json:"symbols"`
	PsychologicalMessage string          `json:"psychologicalMessage"`
	DailyInsight         string          `json:"dailyInsight"`
	DreamTheme           string          `json:"dreamTheme,omitempty"`
	OverallComment       string          `json:"overallComment,omitempty"`
}
