package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/satory074/dreamscope/internal/interpret"
	"github.com/satory074/dreamscope/internal/models"
	"github.com/satory074/dreamscope/internal/storage"
)

func setupTestModel(t *testing.T) Model {
	t.Helper()
	store := storage.NewDiskvStore(t.TempDir()+"/data", zap.NewNop())
	if err := store.Init(); err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	if err := store.MarkOnboarded(); err != nil {
		t.Fatalf("mark onboarded failed: %v", err)
	}
	client := interpret.NewClient("http://127.0.0.1:0", zap.NewNop())
	return NewModel(store, client, zap.NewNop())
}

func keyMsg(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func extracted() []models.PendingSymbol {
	return []models.PendingSymbol{{Text: "海", Category: "nature", Importance: models.ImportanceHigh}}
}

func TestExtractionResultAdvancesToCuration(t *testing.T) {
	m := setupTestModel(t)
	m.input.SetValue("海で泳ぐ夢")

	next, _ := m.Update(keyMsg(tea.KeyCtrlS))
	m = next.(Model)
	if !m.busy {
		t.Fatal("expected model to be busy after starting analysis")
	}

	next, _ = m.Update(symbolsExtractedMsg{
		token:   m.session.Token(),
		content: "海で泳ぐ夢",
		symbols: extracted(),
	})
	m = next.(Model)

	if m.state != StateCurate {
		t.Errorf("expected curation state, got %d", m.state)
	}
	if len(m.session.Symbols()) != 1 {
		t.Errorf("expected 1 pending symbol, got %d", len(m.session.Symbols()))
	}
}

func TestTabAwayDiscardsLateExtraction(t *testing.T) {
	m := setupTestModel(t)
	m.input.SetValue("海で泳ぐ夢")

	next, _ := m.Update(keyMsg(tea.KeyCtrlS))
	m = next.(Model)
	requested := m.session.Token()

	// Leave the record tab while the request is in flight.
	next, _ = m.Update(keyMsg(tea.KeyTab))
	m = next.(Model)
	if m.state != StateHistory {
		t.Fatalf("expected history tab, got %d", m.state)
	}
	if m.busy {
		t.Error("leaving the tab should cancel the pending attempt")
	}
	if m.session.Token() == requested {
		t.Error("expected a fresh session token after leaving the tab")
	}

	// The late result lands on whatever view the user is on now.
	next, _ = m.Update(symbolsExtractedMsg{
		token:   requested,
		content: "海で泳ぐ夢",
		symbols: extracted(),
	})
	m = next.(Model)

	if m.state != StateHistory {
		t.Errorf("late result changed the view, got state %d", m.state)
	}
	if len(m.session.Symbols()) != 0 {
		t.Error("late result populated an abandoned session")
	}
}

func TestLateExtractionCannotInterruptClearConfirmation(t *testing.T) {
	m := setupTestModel(t)
	m.input.SetValue("海で泳ぐ夢")

	next, _ := m.Update(keyMsg(tea.KeyCtrlS))
	m = next.(Model)
	requested := m.session.Token()

	// tab x3 to settings, then open the clear confirmation.
	for i := 0; i < 3; i++ {
		next, _ = m.Update(keyMsg(tea.KeyTab))
		m = next.(Model)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	m = next.(Model)
	if m.state != StateConfirmClear {
		t.Fatalf("expected clear confirmation, got %d", m.state)
	}

	next, _ = m.Update(symbolsExtractedMsg{
		token:   requested,
		content: "海で泳ぐ夢",
		symbols: extracted(),
	})
	m = next.(Model)

	if m.state != StateConfirmClear {
		t.Errorf("late result yanked the user out of the confirmation, got state %d", m.state)
	}
}
