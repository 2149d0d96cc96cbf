package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/satory074/dreamscope/internal/constants"
	"github.com/satory074/dreamscope/internal/interpret"
	"github.com/satory074/dreamscope/internal/models"
	"github.com/satory074/dreamscope/internal/stats"
	"github.com/satory074/dreamscope/internal/storage"
	"github.com/satory074/dreamscope/internal/tui/components/calendar"
	"github.com/satory074/dreamscope/internal/tui/components/entrylist"
	"github.com/satory074/dreamscope/internal/workflow"
)

type SessionState int

const (
	StateRecord SessionState = iota
	StateHistory
	StateStats
	StateSettings
	StateWelcome
	StateCurate
	StateAddSymbol
	StateResult
	StateEntryDetail
	StateConfirmClear
)

// tabCount is how many of the states are top-level tabs.
const tabCount = 4

type Model struct {
	store   storage.Provider
	client  *interpret.Client
	log     *zap.Logger
	session *workflow.Session

	state         SessionState
	previousState SessionState
	keys          KeyMap
	help          help.Model

	input     textarea.Model
	addInput  textinput.Model
	spin      spinner.Model
	calendar  calendar.Model
	dayList   entrylist.Model
	busy      bool
	statusMsg string
	errMsg    string

	entries  []models.Entry
	settings models.Settings
	symStats map[string]*models.SymbolStat

	// Curation cursor into the session's symbol list.
	cursor int

	result   *models.Interpretation
	detail   models.Entry
	quitting bool
	width    int
	height   int
}

func NewModel(store storage.Provider, client *interpret.Client, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = "昨夜の夢をできるだけ詳しく書いてください..."
	ta.CharLimit = constants.MaxDreamLength
	ta.Focus()

	ti := textinput.New()
	ti.Placeholder = "シンボル名"
	ti.CharLimit = constants.MaxKeywordLength

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := Model{
		store:    store,
		client:   client,
		log:      log,
		session:  workflow.NewSession(),
		state:    StateRecord,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		input:    ta,
		addInput: ti,
		spin:     sp,
		calendar: calendar.New(time.Now()),
		dayList:  entrylist.New(nil, 0, 0),
		symStats: map[string]*models.SymbolStat{},
	}

	m.reload()

	if onboarded, err := store.Onboarded(); err == nil && !onboarded {
		m.state = StateWelcome
	}

	return m
}

// reload refreshes entries, settings, and stats from the store. A
// corrupted store is reset to defaults and the user is told on screen.
func (m *Model) reload() {
	entries, err := m.store.Entries()
	if err == nil {
		m.entries = entries
		if m.settings, err = m.store.GetSettings(); err == nil {
			m.symStats, err = m.store.GetSymbolStats()
		}
	}
	if err != nil {
		m.log.Warn("loading stored data failed", zap.Error(err))
		m.entries = nil
		m.settings = models.DefaultSettings()
		m.symStats = map[string]*models.SymbolStat{}
		if resetErr := m.store.Reset(); resetErr == nil {
			m.errMsg = "保存データが読み込めなかったため初期化しました"
		} else {
			m.errMsg = "保存データの読み込みに失敗しました"
		}
	}

	marked := make(map[string]int, len(m.entries))
	for _, e := range m.entries {
		marked[e.Day()]++
	}
	m.calendar.SetMarked(marked)
	m.dayList.SetEntries(m.entriesOn(m.calendar.Selected()))
}

// entriesOn returns every entry recorded on the given day, so days with
// multiple dreams show all of them.
func (m Model) entriesOn(day string) []models.Entry {
	var out []models.Entry
	for _, e := range m.entries {
		if e.Day() == day {
			out = append(out, e)
		}
	}
	return out
}

// saveResult appends the interpreted entry and folds its symbols into
// the aggregate stats. IDs are bumped when the clock reads at or before
// the previous entry so they stay strictly increasing.
func (m *Model) saveResult(content string, interp *models.Interpretation) error {
	now := time.Now()
	entry := models.NewEntry(now, content, interp)
	if n := len(m.entries); n > 0 && entry.ID <= m.entries[n-1].ID {
		entry.ID = m.entries[n-1].ID + 1
	}
	if err := m.store.AddEntry(entry); err != nil {
		return err
	}

	agg := stats.New(m.symStats)
	agg.RecordSave(entry.ID, interp, now)
	if err := m.store.SaveSymbolStats(agg.Stats()); err != nil {
		m.log.Warn("symbol stats update failed", zap.Error(err))
	}
	m.reload()
	return nil
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateRecord:
		keys = append(keys, m.keys.Analyze)
	case StateCurate:
		keys = append(keys, m.keys.Add, m.keys.Delete, m.keys.Enter, m.keys.Back)
	case StateHistory:
		keys = append(keys, m.keys.Enter)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Left, m.keys.Right, m.keys.Enter, m.keys.Back}

	var actions []key.Binding
	switch m.state {
	case StateRecord:
		actions = []key.Binding{m.keys.Analyze}
	case StateCurate:
		actions = []key.Binding{m.keys.Add, m.keys.Delete}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}
