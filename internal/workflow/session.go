// Package workflow holds the short-lived symbol edit session between
// extraction and interpretation submission.
package workflow

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/satory074/dreamscope/internal/models"
)

type State int

const (
	StateEmpty State = iota
	StatePopulated
	StateSubmitted
)

var (
	ErrEmptySymbol = errors.New("symbol text must not be empty")
	ErrNoSymbols   = errors.New("at least one symbol is required to submit")
	ErrNoContent   = errors.New("original dream content is no longer available")
	ErrNotEditable = errors.New("session is not in an editable state")
	ErrOutOfRange  = errors.New("symbol index out of range")
)

// Session owns the pending symbol list for a single entry attempt. It is
// created empty, populated from the extraction phase, edited by the user,
// and discarded after submission or navigation away. Each populate gets a
// fresh token so a response that arrives after the session moved on can
// be recognized and dropped.
type Session struct {
	token   uuid.UUID
	state   State
	content string
	symbols []models.PendingSymbol
}

func NewSession() *Session {
	return &Session{state: StateEmpty}
}

func (s *Session) State() State {
	return s.state
}

// Token identifies the current attempt. Results carry the token they were
// requested under; Accepts rejects the stale ones.
func (s *Session) Token() uuid.UUID {
	return s.token
}

func (s *Session) Accepts(token uuid.UUID) bool {
	return s.state == StateSubmitted && token == s.token
}

func (s *Session) Content() string {
	return s.content
}

func (s *Session) Symbols() []models.PendingSymbol {
	out := make([]models.PendingSymbol, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Populate seeds the session from the extraction result.
func (s *Session) Populate(content string, extracted []models.PendingSymbol) error {
	if strings.TrimSpace(content) == "" {
		return ErrNoContent
	}
	s.token = uuid.New()
	s.state = StatePopulated
	s.content = content
	s.symbols = make([]models.PendingSymbol, len(extracted))
	copy(s.symbols, extracted)
	return nil
}

// Add appends a user-supplied symbol. Missing category and importance
// take their defaults.
func (s *Session) Add(text, category string, importance models.Importance) error {
	if s.state != StatePopulated {
		return ErrNotEditable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptySymbol
	}
	if category == "" {
		category = models.DefaultCategory
	}
	switch importance {
	case models.ImportanceHigh, models.ImportanceMedium, models.ImportanceLow:
	default:
		importance = models.ImportanceMedium
	}
	s.symbols = append(s.symbols, models.PendingSymbol{
		Text:       text,
		Category:   category,
		Importance: importance,
	})
	return nil
}

// Remove deletes the symbol at position i. An empty list is allowed while
// editing; only submission enforces a minimum.
func (s *Session) Remove(i int) error {
	if s.state != StatePopulated {
		return ErrNotEditable
	}
	if i < 0 || i >= len(s.symbols) {
		return ErrOutOfRange
	}
	s.symbols = append(s.symbols[:i], s.symbols[i+1:]...)
	return nil
}

// Submit finalizes the list and returns the symbol texts for the
// interpretation phase. A session with no symbols or lost content is a
// terminal error for this attempt; the user restarts the entry flow.
func (s *Session) Submit() ([]string, error) {
	if s.state != StatePopulated {
		return nil, ErrNotEditable
	}
	if len(s.symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if strings.TrimSpace(s.content) == "" {
		return nil, ErrNoContent
	}
	texts := make([]string, len(s.symbols))
	for i, sym := range s.symbols {
		texts[i] = sym.Text
	}
	s.state = StateSubmitted
	return texts, nil
}

// Reset discards the attempt and returns the session to empty. The token
// changes, so any in-flight result for the old attempt is dropped.
func (s *Session) Reset() {
	s.token = uuid.New()
	s.state = StateEmpty
	s.content = ""
	s.symbols = nil
}
