package calendar

import (
	"strings"
	"testing"
	"time"
)

func TestSelectionNavigation(t *testing.T) {
	m := New(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))
	if m.Selected() != "2026-03-15" {
		t.Fatalf("unexpected initial selection: %s", m.Selected())
	}

	m.Move(1)
	if m.Selected() != "2026-03-16" {
		t.Errorf("expected 2026-03-16, got %s", m.Selected())
	}

	m.Move(-20)
	// Crossing a month boundary follows the selection.
	if m.Selected() != "2026-02-24" {
		t.Errorf("expected 2026-02-24, got %s", m.Selected())
	}

	m.NextMonth()
	if m.Selected() != "2026-03-24" {
		t.Errorf("expected 2026-03-24, got %s", m.Selected())
	}
}

func TestSelectionUsesLocalDay(t *testing.T) {
	// Early morning east of UTC is still the same local calendar day.
	jst := time.FixedZone("JST", 9*60*60)
	m := New(time.Date(2026, 6, 10, 8, 0, 0, 0, jst))

	if m.Selected() != "2026-06-10" {
		t.Errorf("expected local day 2026-06-10, got %s", m.Selected())
	}
	if !strings.Contains(m.View(), "June 2026") {
		t.Error("view not showing the local month")
	}
}

func TestEntryCount(t *testing.T) {
	m := New(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))
	m.SetMarked(map[string]int{"2026-03-15": 2})

	if m.EntryCount() != 2 {
		t.Errorf("expected 2 entries on selected day, got %d", m.EntryCount())
	}
	m.Move(1)
	if m.EntryCount() != 0 {
		t.Errorf("expected 0 entries, got %d", m.EntryCount())
	}
}

func TestViewShowsMonthAndDays(t *testing.T) {
	m := New(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	view := m.View()

	if !strings.Contains(view, "February 2026") {
		t.Error("view missing month header")
	}
	if !strings.Contains(view, "28") {
		t.Error("view missing last day of February")
	}
	if strings.Contains(view, "29") {
		t.Error("2026 February has no 29th")
	}
}
