package entrylist

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/satory074/dreamscope/internal/models"
)

type Item struct {
	Entry models.Entry
}

func (i Item) Title() string {
	content := strings.ReplaceAll(i.Entry.Content, "\n", " ")
	runes := []rune(content)
	if len(runes) > 40 {
		return string(runes[:40]) + "…"
	}
	return content
}

func (i Item) Description() string {
	desc := i.Entry.CreatedAt.Format("15:04")
	if len(i.Entry.Tags) > 0 {
		desc += " | " + strings.Join(i.Entry.Tags, ", ")
	}
	return desc
}

func (i Item) FilterValue() string { return i.Entry.Content }

type Model struct {
	list list.Model
}

func New(entries []models.Entry, width, height int) Model {
	l := list.New(toItems(entries), list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false) // We handle help globally in the main model
	l.SetShowStatusBar(false)
	return Model{list: l}
}

func toItems(entries []models.Entry) []list.Item {
	items := make([]list.Item, len(entries))
	// Newest first.
	for i := range entries {
		items[i] = Item{Entry: entries[len(entries)-1-i]}
	}
	return items
}

func (m *Model) SetEntries(entries []models.Entry) {
	m.list.SetItems(toItems(entries))
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

func (m *Model) CursorUp()   { m.list.CursorUp() }
func (m *Model) CursorDown() { m.list.CursorDown() }

// Selected returns the entry under the cursor, or false when the list is
// empty.
func (m Model) Selected() (models.Entry, bool) {
	item, ok := m.list.SelectedItem().(Item)
	if !ok {
		return models.Entry{}, false
	}
	return item.Entry, true
}

func (m Model) View() string {
	return m.list.View()
}
