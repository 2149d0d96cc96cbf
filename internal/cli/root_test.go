package cli

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/satory074/dreamscope/internal/interpret"
	"github.com/satory074/dreamscope/internal/models"
	"github.com/satory074/dreamscope/internal/storage"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func setupTestContext(t *testing.T) *Context {
	tempDir := t.TempDir()
	store := storage.NewDiskvStore(filepath.Join(tempDir, "data"), nil)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	return &Context{
		Store:  store,
		Client: interpret.NewClient("http://localhost:1", nil),
		Log:    testLogger(),
	}
}

func sampleInterp() *models.Interpretation {
	return &models.Interpretation{
		DreamText: "海で泳ぐ夢",
		Symbols: []models.SymbolMeaning{
			{Symbol: "海", Meaning: "感情の深さ"},
		},
		PsychologicalMessage: "感情に向き合う時期です",
		DailyInsight:         "深呼吸をしよう",
	}
}

func TestSaveInterpretedPersistsEntryAndStats(t *testing.T) {
	ctx := setupTestContext(t)

	entry, err := ctx.SaveInterpreted("海で泳ぐ夢", sampleInterp(), time.Now())
	if err != nil {
		t.Fatalf("SaveInterpreted failed: %v", err)
	}
	if entry.ID == 0 {
		t.Error("expected a nonzero entry ID")
	}
	if len(entry.Tags) != 1 || entry.Tags[0] != "海" {
		t.Errorf("expected symbol tags, got %v", entry.Tags)
	}

	entries, _, symStats, err := ctx.LoadState()
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	stat, ok := symStats["海"]
	if !ok {
		t.Fatal("expected symbol stat for 海")
	}
	if stat.OccurrenceCount != 1 {
		t.Errorf("expected count 1, got %d", stat.OccurrenceCount)
	}
}

func TestSaveInterpretedKeepsIDsIncreasing(t *testing.T) {
	ctx := setupTestContext(t)

	now := time.Now()
	first, err := ctx.SaveInterpreted("夢その1", sampleInterp(), now)
	if err != nil {
		t.Fatalf("SaveInterpreted failed: %v", err)
	}
	// A clock reading at or before the previous entry must not reuse IDs.
	second, err := ctx.SaveInterpreted("夢その2", sampleInterp(), now)
	if err != nil {
		t.Fatalf("SaveInterpreted failed: %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("expected strictly increasing IDs, got %d then %d", first.ID, second.ID)
	}
}

func TestLoadStateSelfHealsCorruption(t *testing.T) {
	ctx := setupTestContext(t)

	if _, err := ctx.SaveInterpreted("夢", sampleInterp(), time.Now()); err != nil {
		t.Fatalf("SaveInterpreted failed: %v", err)
	}

	// Damage the dreams record on disk.
	path := filepath.Join(ctx.Store.GetConfigPath(), "dreams")
	if err := os.WriteFile(path, []byte("{broken"), 0600); err != nil {
		t.Fatalf("failed to corrupt store: %v", err)
	}
	// Reopen to bypass the diskv cache.
	store := storage.NewDiskvStore(ctx.Store.GetConfigPath(), nil)
	if err := store.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	ctx.Store = store

	entries, settings, symStats, err := ctx.LoadState()
	if err != nil {
		t.Fatalf("LoadState should self-heal, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty entries after heal, got %d", len(entries))
	}
	if settings != models.DefaultSettings() {
		t.Errorf("expected default settings after heal, got %+v", settings)
	}
	if len(symStats) != 0 {
		t.Errorf("expected empty stats after heal, got %d", len(symStats))
	}

	// The healed defaults are persisted; the next load succeeds cleanly.
	if _, err := store.Entries(); err != nil {
		t.Errorf("store still corrupted after heal: %v", err)
	}
}

func TestLoadStatePropagatesOtherErrors(t *testing.T) {
	tempDir := t.TempDir()
	ctx := &Context{
		Store: storage.NewDiskvStore(filepath.Join(tempDir, "missing"), nil),
		Log:   testLogger(),
	}

	_, _, _, err := ctx.LoadState()
	if err == nil {
		t.Fatal("expected error loading uninitialized store")
	}
	if errors.Is(err, storage.ErrCorrupted) {
		t.Error("uninitialized store is not corruption")
	}
}

func TestRecordLegacyFlowSavesEntry(t *testing.T) {
	// Proxy is down; the legacy path degrades to a mock interpretation
	// and the entry still saves.
	ctx := setupTestContext(t)
	ctx.Client.SetFallback(interpret.NewMockGenerator(1))

	cmd := &RecordCmd{Content: "長い 階段 を 登る", Legacy: true}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("record --legacy failed: %v", err)
	}

	entries, _, symStats, err := ctx.LoadState()
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Interpretation == nil {
		t.Fatal("expected a mock interpretation on the saved entry")
	}
	if len(symStats) == 0 {
		t.Error("expected symbol stats from the mock interpretation")
	}
}

func TestRecordTwoPhaseFlowWithProxy(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/extract-symbols":
			json.NewEncoder(w).Encode(map[string]any{
				"symbols": []map[string]string{
					{"text": "階段", "category": "object", "importance": "high"},
				},
			})
		case "/api/analyze-symbols":
			json.NewEncoder(w).Encode(map[string]any{
				"dreamText": "階段を登る夢",
				"symbols": []map[string]string{
					{"symbol": "階段", "meaning": "段階的な成長"},
				},
				"psychologicalMessage": "一歩ずつ進んでいます",
				"dailyInsight":         "焦らず進もう",
			})
		default:
			t.Errorf("unexpected proxy path: %s", r.URL.Path)
		}
	}))
	defer proxy.Close()

	ctx := setupTestContext(t)
	ctx.Client = interpret.NewClient(proxy.URL, nil)

	cmd := &RecordCmd{Content: "階段を登る夢", Yes: true}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	entries, _, symStats, err := ctx.LoadState()
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Interpretation.Symbols[0].Symbol != "階段" {
		t.Errorf("unexpected interpretation: %+v", entries[0].Interpretation)
	}
	if _, ok := symStats["階段"]; !ok {
		t.Error("expected symbol stats for 階段")
	}
}
