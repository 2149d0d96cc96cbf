package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/satory074/dreamscope/internal/constants"
	"github.com/satory074/dreamscope/internal/stats"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.state == StateWelcome {
		return m.viewWelcome()
	}

	var content string
	switch m.state {
	case StateRecord:
		content = m.viewRecord()
	case StateCurate:
		content = m.viewCurate()
	case StateAddSymbol:
		content = m.viewAddSymbol()
	case StateResult:
		content = m.viewResult()
	case StateHistory:
		content = m.viewHistory()
	case StateEntryDetail:
		content = m.viewEntryDetail()
	case StateStats:
		content = m.viewStats()
	case StateSettings:
		content = m.viewSettings()
	case StateConfirmClear:
		content = m.viewConfirmClear()
	}

	if m.errMsg != "" {
		content += "\n" + dangerStyle.Render(m.errMsg)
	} else if m.statusMsg != "" {
		content += "\n" + subtleStyle.Render(m.statusMsg)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.help.View(m),
	)
}

// activeTab maps sub-states back to the tab they belong to.
func (m Model) activeTab() SessionState {
	switch m.state {
	case StateCurate, StateAddSymbol, StateResult:
		return StateRecord
	case StateEntryDetail:
		return StateHistory
	case StateConfirmClear:
		return StateSettings
	default:
		return m.state
	}
}

func (m Model) viewTabs() string {
	active := m.activeTab()
	var tabs []string
	for i, title := range []string{"Record", "History", "Stats", "Settings"} {
		if active == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewWelcome() string {
	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render("DreamScope へようこそ"),
			"",
			"夢を記録すると、シンボルごとの心理学的な解釈が得られます。",
			"記録を続けると、繰り返し現れるシンボルの統計も見られます。",
			"",
			subtleStyle.Render("何かキーを押して始める"),
		),
	)
}

func (m Model) viewRecord() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("今日の夢"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(fmt.Sprintf("%d/%d文字", len([]rune(m.input.Value())), constants.MaxDreamLength)))
	if m.busy {
		b.WriteString("\n\n" + m.spin.View() + "シンボルを抽出しています...")
	}
	return docStyle.Render(b.String())
}

func (m Model) viewCurate() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("シンボルの確認"))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("解釈に使うシンボルを調整してください"))
	b.WriteString("\n\n")

	symbols := m.session.Symbols()
	if len(symbols) == 0 {
		b.WriteString(subtleStyle.Render("シンボルがありません。a で追加してください"))
	}
	for i, s := range symbols {
		line := fmt.Sprintf("%s (%s, %s)", s.Text, s.Category, s.Importance)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + symbolStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString("\n" + m.spin.View() + "解釈を生成しています...")
	} else {
		b.WriteString("\n" + subtleStyle.Render("enter: 解釈する  a: 追加  d: 削除  esc: やり直す"))
	}
	return docStyle.Render(b.String())
}

func (m Model) viewAddSymbol() string {
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("シンボルの追加"),
		"",
		m.addInput.View(),
		"",
		subtleStyle.Render("enter: 追加  esc: キャンセル"),
	))
}

func (m Model) viewResult() string {
	if m.result == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("解釈結果"))
	b.WriteString("\n\n")
	if m.result.DreamTheme != "" {
		b.WriteString("テーマ: " + m.result.DreamTheme + "\n\n")
	}
	for _, s := range m.result.Symbols {
		b.WriteString(symbolStyle.Render("• "+s.Symbol) + ": " + s.Meaning + "\n")
		if s.Interpretation != "" {
			b.WriteString("  " + subtleStyle.Render(s.Interpretation) + "\n")
		}
	}
	b.WriteString("\n深層心理からのメッセージ:\n" + m.result.PsychologicalMessage + "\n")
	if m.result.DailyInsight != "" {
		b.WriteString("\n今日の気づき:\n" + m.result.DailyInsight + "\n")
	}
	if m.result.OverallComment != "" {
		b.WriteString("\n" + subtleStyle.Render(m.result.OverallComment) + "\n")
	}
	b.WriteString("\n" + subtleStyle.Render("enter: 閉じる"))
	return docStyle.Render(b.String())
}

func (m Model) viewHistory() string {
	day := m.calendar.Selected()
	entries := m.entriesOn(day)

	right := subtleStyle.Render("この日の記録はありません")
	if len(entries) > 0 {
		right = m.dayList.View()
	}

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("履歴"),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			m.calendar.View(),
			"    ",
			lipgloss.JoinVertical(lipgloss.Left,
				fmt.Sprintf("%s (%d件)", day, len(entries)),
				right,
			),
		),
	))
}

func (m Model) viewEntryDetail() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.detail.CreatedAt.Format("2006-01-02 15:04")))
	b.WriteString("\n\n")
	b.WriteString(m.detail.Content)
	b.WriteString("\n")
	if interp := m.detail.Interpretation; interp != nil {
		b.WriteString("\n")
		for _, s := range interp.Symbols {
			b.WriteString(symbolStyle.Render("• "+s.Symbol) + ": " + s.Meaning + "\n")
		}
		if interp.PsychologicalMessage != "" {
			b.WriteString("\n" + interp.PsychologicalMessage + "\n")
		}
		if interp.DailyInsight != "" {
			b.WriteString("\n" + interp.DailyInsight + "\n")
		}
	}
	b.WriteString("\n" + subtleStyle.Render("esc: 戻る"))
	return docStyle.Render(b.String())
}

func (m Model) viewStats() string {
	agg := stats.New(m.symStats)
	summary := agg.Summarize(m.entries)
	streak := stats.Streak(m.entries, time.Now())

	var b strings.Builder
	b.WriteString(titleStyle.Render("統計"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("記録した夢: %d件\n", summary.TotalEntries))
	b.WriteString(fmt.Sprintf("シンボルの種類: %d\n", summary.DistinctSymbols))
	b.WriteString(fmt.Sprintf("1件あたりの平均語数: %.1f\n", summary.AvgWordsPerEntry))
	b.WriteString(fmt.Sprintf("連続記録: %d日\n", streak))

	top := agg.TopSymbols(10)
	if len(top) > 0 {
		b.WriteString("\n" + titleStyle.Render("よく現れるシンボル") + "\n")
		max := top[0].OccurrenceCount
		for _, s := range top {
			bar := strings.Repeat("█", barLen(s.OccurrenceCount, max))
			b.WriteString(fmt.Sprintf("%-14s %s %d\n", s.DisplayText, symbolStyle.Render(bar), s.OccurrenceCount))
		}
	}
	return docStyle.Render(b.String())
}

func barLen(count, max int) int {
	if max <= 0 {
		return 0
	}
	n := count * 20 / max
	if n < 1 {
		n = 1
	}
	return n
}

func (m Model) viewSettings() string {
	reminder := "オフ"
	if m.settings.ReminderEnabled {
		reminder = "オン"
	}
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("設定"),
		"",
		fmt.Sprintf("リマインダー: %s", reminder),
		"",
		subtleStyle.Render("r: リマインダー切替  c: 全データ削除"),
		"",
		subtleStyle.Render("保存先: "+m.store.GetConfigPath()),
	))
}

func (m Model) viewConfirmClear() string {
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("すべての夢と統計を完全に削除します。よろしいですか？"),
			"",
			"[y] はい",
			"[n] いいえ",
		),
	)
}
