package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satory074/dreamscope/internal/interpret"
	"github.com/satory074/dreamscope/internal/models"
)

// symbolsExtractedMsg carries the result of the extraction phase. The
// token pins the result to the attempt that requested it; results from
// an abandoned attempt are dropped.
type symbolsExtractedMsg struct {
	token   uuid.UUID
	content string
	symbols []models.PendingSymbol
	err     error
}

type interpretedMsg struct {
	token   uuid.UUID
	content string
	interp  *models.Interpretation
	err     error
}

func (m Model) extractCmd(token uuid.UUID, content string) tea.Cmd {
	return func() tea.Msg {
		symbols, err := m.client.ExtractSymbols(context.Background(), content)
		return symbolsExtractedMsg{token: token, content: content, symbols: symbols, err: err}
	}
}

func (m Model) analyzeCmd(token uuid.UUID, content string, symbols []string) tea.Cmd {
	return func() tea.Msg {
		interp, err := m.client.InterpretWithSymbols(context.Background(), content, symbols)
		return interpretedMsg{token: token, content: content, interp: interp, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.SetWidth(msg.Width - 6)
		m.input.SetHeight(msg.Height / 2)
		m.dayList.SetSize(msg.Width/2, msg.Height-8)
		return m, nil

	case symbolsExtractedMsg:
		// Only the record view may receive extraction results; the token
		// additionally pins them to the attempt that requested them.
		if m.state != StateRecord || msg.token != m.session.Token() {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			m.errMsg = errorText(msg.err)
			return m, nil
		}
		if err := m.session.Populate(msg.content, msg.symbols); err != nil {
			m.errMsg = errorText(err)
			return m, nil
		}
		m.errMsg = ""
		m.cursor = 0
		m.state = StateCurate
		return m, nil

	case interpretedMsg:
		m.busy = false
		if !m.session.Accepts(msg.token) {
			return m, nil
		}
		if msg.err != nil {
			m.errMsg = errorText(msg.err)
			// The attempt stays submitted; esc discards it.
			return m, nil
		}
		if err := m.saveResult(msg.content, msg.interp); err != nil {
			m.errMsg = errorText(err)
			return m, nil
		}
		m.errMsg = ""
		m.result = msg.interp
		m.session.Reset()
		m.input.Reset()
		m.state = StateResult
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.busy {
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	if m.state == StateWelcome {
		if err := m.store.MarkOnboarded(); err == nil {
			m.state = StateRecord
		} else {
			m.errMsg = errorText(err)
			m.state = StateRecord
		}
		return m, nil
	}

	// Tab switching applies only on the top-level tabs.
	if m.state < tabCount {
		switch {
		case key.Matches(msg, m.keys.Tab):
			m.leaveTab()
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.leaveTab()
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	switch m.state {
	case StateRecord:
		return m.updateRecord(msg)
	case StateCurate:
		return m.updateCurate(msg)
	case StateAddSymbol:
		return m.updateAddSymbol(msg)
	case StateResult:
		if key.Matches(msg, m.keys.Enter) || key.Matches(msg, m.keys.Back) {
			m.result = nil
			m.state = StateRecord
		}
		return m, nil
	case StateHistory:
		return m.updateHistory(msg)
	case StateEntryDetail:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Enter) {
			m.state = StateHistory
		}
		return m, nil
	case StateSettings:
		return m.updateSettings(msg)
	case StateConfirmClear:
		return m.updateConfirmClear(msg)
	}
	return m, nil
}

// leaveTab abandons whatever request the current tab has in flight.
// Rotating the session token makes a late result fail its token check.
func (m *Model) leaveTab() {
	if m.state == StateRecord && m.busy {
		m.session.Reset()
		m.busy = false
	}
}

func (m Model) updateRecord(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Analyze) {
		if m.busy {
			return m, nil
		}
		content := strings.TrimSpace(m.input.Value())
		if content == "" {
			m.errMsg = "夢の内容を入力してください"
			return m, nil
		}
		m.errMsg = ""
		m.busy = true
		return m, tea.Batch(m.spin.Tick, m.extractCmd(m.session.Token(), content))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateCurate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	symbols := m.session.Symbols()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(symbols)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Delete):
		if len(symbols) > 0 {
			if err := m.session.Remove(m.cursor); err == nil && m.cursor > 0 {
				m.cursor--
			}
		}
	case key.Matches(msg, m.keys.Add):
		m.addInput.Reset()
		m.addInput.Focus()
		m.state = StateAddSymbol
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Enter):
		if m.busy {
			return m, nil
		}
		content := m.session.Content()
		texts, err := m.session.Submit()
		if err != nil {
			m.errMsg = errorText(err)
			return m, nil
		}
		m.errMsg = ""
		m.busy = true
		return m, tea.Batch(m.spin.Tick, m.analyzeCmd(m.session.Token(), content, texts))
	case key.Matches(msg, m.keys.Back):
		m.session.Reset()
		m.errMsg = ""
		m.state = StateRecord
		return m, textarea.Blink
	}
	return m, nil
}

func (m Model) updateAddSymbol(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		text := strings.TrimSpace(m.addInput.Value())
		if text != "" {
			if err := m.session.Add(text, "", ""); err != nil {
				m.errMsg = errorText(err)
			}
		}
		m.addInput.Blur()
		m.state = StateCurate
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.addInput.Blur()
		m.state = StateCurate
		return m, nil
	}

	var cmd tea.Cmd
	m.addInput, cmd = m.addInput.Update(msg)
	return m, cmd
}

func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		m.calendar.Move(-1)
	case key.Matches(msg, m.keys.Right):
		m.calendar.Move(1)
	case key.Matches(msg, m.keys.Up):
		if m.calendar.EntryCount() > 1 {
			m.dayList.CursorUp()
			return m, nil
		}
		m.calendar.Move(-7)
	case key.Matches(msg, m.keys.Down):
		if m.calendar.EntryCount() > 1 {
			m.dayList.CursorDown()
			return m, nil
		}
		m.calendar.Move(7)
	case msg.String() == "[":
		m.calendar.PrevMonth()
	case msg.String() == "]":
		m.calendar.NextMonth()
	case key.Matches(msg, m.keys.Enter):
		if entry, ok := m.dayList.Selected(); ok {
			m.detail = entry
			m.state = StateEntryDetail
		}
		return m, nil
	default:
		return m, nil
	}
	m.dayList.SetEntries(m.entriesOn(m.calendar.Selected()))
	return m, nil
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		m.settings.ReminderEnabled = !m.settings.ReminderEnabled
		if err := m.store.SaveSettings(m.settings); err != nil {
			m.errMsg = errorText(err)
		} else {
			m.errMsg = ""
		}
	case "c":
		m.previousState = m.state
		m.state = StateConfirmClear
	}
	return m, nil
}

func (m Model) updateConfirmClear(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		if err := m.store.Clear(); err != nil {
			m.errMsg = errorText(err)
		} else {
			// Re-initialize so the store is usable without a restart.
			if err := m.store.Init(); err != nil {
				m.log.Warn("re-init after clear failed", zap.Error(err))
			}
			m.statusMsg = "すべてのデータを削除しました"
		}
		m.reload()
		m.state = m.previousState
	case "n", "esc":
		m.state = m.previousState
	}
	return m, nil
}

// errorText maps the error taxonomy to user-facing Japanese messages.
func errorText(err error) string {
	var ve *interpret.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var ne *interpret.NetworkError
	if errors.As(err, &ne) {
		return "ネットワークエラーが発生しました。接続を確認してください"
	}
	var se *interpret.ServerError
	if errors.As(err, &se) {
		return "サーバーエラーが発生しました。しばらくしてからもう一度お試しください"
	}
	if errors.Is(err, interpret.ErrBusy) {
		return "解析の実行中です。完了までお待ちください"
	}
	return err.Error()
}
