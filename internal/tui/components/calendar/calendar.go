// Package calendar renders a month grid for the history view. Days with
// at least one recorded dream are marked; the selected day drives the
// entry list next to the grid.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	weekdayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	markedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("205")).
			Bold(true)

	todayStyle = lipgloss.NewStyle().
			Underline(true)
)

type Model struct {
	// month holds the first day of the displayed month.
	month    time.Time
	selected time.Time
	today    time.Time
	marked   map[string]int
}

func New(today time.Time) Model {
	// Midnight in the caller's location. Truncate would round to UTC day
	// boundaries and pick the wrong day east of UTC.
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	return Model{
		month:    time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()),
		selected: day,
		today:    day,
		marked:   map[string]int{},
	}
}

// SetMarked replaces the day→entry-count index used to mark cells.
func (m *Model) SetMarked(marked map[string]int) {
	if marked == nil {
		marked = map[string]int{}
	}
	m.marked = marked
}

func (m Model) Selected() string {
	return m.selected.Format("2006-01-02")
}

// EntryCount reports how many entries exist on the selected day.
func (m Model) EntryCount() int {
	return m.marked[m.Selected()]
}

func (m *Model) Move(days int) {
	m.selected = m.selected.AddDate(0, 0, days)
	m.syncMonth()
}

func (m *Model) PrevMonth() {
	m.selected = m.selected.AddDate(0, -1, 0)
	m.syncMonth()
}

func (m *Model) NextMonth() {
	m.selected = m.selected.AddDate(0, 1, 0)
	m.syncMonth()
}

func (m *Model) syncMonth() {
	m.month = time.Date(m.selected.Year(), m.selected.Month(), 1, 0, 0, 0, 0, m.selected.Location())
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(m.month.Format("January 2006")))
	b.WriteString("\n")
	b.WriteString(weekdayStyle.Render("Su Mo Tu We Th Fr Sa"))
	b.WriteString("\n")

	daysInMonth := m.month.AddDate(0, 1, -1).Day()
	// Leading blanks up to the weekday of the 1st.
	cursor := int(m.month.Weekday())
	b.WriteString(strings.Repeat("   ", cursor))

	for day := 1; day <= daysInMonth; day++ {
		date := m.month.AddDate(0, 0, day-1)
		key := date.Format("2006-01-02")
		cell := fmt.Sprintf("%2d", day)

		switch {
		case key == m.Selected():
			cell = selectedStyle.Render(cell)
		case m.marked[key] > 0:
			cell = markedStyle.Render(cell)
		case key == m.today.Format("2006-01-02"):
			cell = todayStyle.Render(cell)
		}
		b.WriteString(cell)

		cursor++
		if cursor%7 == 0 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}
