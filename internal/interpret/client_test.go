package interpret

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/satory074/dreamscope/internal/constants"
	"github.com/satory074/dreamscope/internal/models"
)

func TestExtractSymbolsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/extract-symbols" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req["dreamContent"] != "空を飛ぶ夢" {
			t.Errorf("unexpected dreamContent: %q", req["dreamContent"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"symbols": []map[string]string{
				{"text": "空", "category": "place", "importance": "high"},
				{"text": "飛ぶ", "category": "action", "importance": "medium"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	symbols, err := client.ExtractSymbols(context.Background(), "空を飛ぶ夢")
	if err != nil {
		t.Fatalf("ExtractSymbols failed: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(symbols))
	}
	if symbols[0].Text != "空" || symbols[0].Importance != models.ImportanceHigh {
		t.Errorf("unexpected first symbol: %+v", symbols[0])
	}
}

func TestExtractSymbolsDefaultsMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"symbols": []map[string]string{
				{"text": "  水  "},
				{"text": ""},
				{"text": "火", "importance": "extreme"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	symbols, err := client.ExtractSymbols(context.Background(), "水と火の夢")
	if err != nil {
		t.Fatalf("ExtractSymbols failed: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("expected empty symbol dropped, got %d symbols", len(symbols))
	}
	if symbols[0].Text != "水" {
		t.Errorf("expected trimmed text, got %q", symbols[0].Text)
	}
	if symbols[0].Category != models.DefaultCategory {
		t.Errorf("expected default category, got %q", symbols[0].Category)
	}
	if symbols[1].Importance != models.ImportanceMedium {
		t.Errorf("expected unknown importance coerced to medium, got %q", symbols[1].Importance)
	}
}

func TestExtractSymbolsEmptyResultIsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"symbols": []any{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.ExtractSymbols(context.Background(), "夢")
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
}

func TestExtractSymbolsServerErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "API request failed"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.ExtractSymbols(context.Background(), "夢")
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if se.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", se.Status)
	}
	if se.Message != "API request failed" {
		t.Errorf("expected upstream message, got %q", se.Message)
	}
}

func TestExtractSymbolsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, nil)
	_, err := client.ExtractSymbols(context.Background(), "夢")
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestExtractSymbolsValidation(t *testing.T) {
	client := NewClient("http://localhost:1", nil)

	_, err := client.ExtractSymbols(context.Background(), "")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty content, got %v", err)
	}

	long := strings.Repeat("あ", constants.MaxDreamLength+1)
	_, err = client.ExtractSymbols(context.Background(), long)
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for overlong content, got %v", err)
	}

	// The limit is measured in runes, not bytes.
	exact := strings.Repeat("あ", constants.MaxDreamLength)
	_, err = client.ExtractSymbols(context.Background(), exact)
	if errors.As(err, &ve) {
		t.Error("content at the limit should pass validation")
	}
}

func TestBusyGuardRejectsConcurrentRequests(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		json.NewEncoder(w).Encode(map[string]any{
			"symbols": []map[string]string{{"text": "空"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		client.ExtractSymbols(context.Background(), "夢")
	}()

	// Wait until the first request holds the busy flag.
	deadline := time.Now().Add(2 * time.Second)
	for !client.busy.Load() {
		if time.Now().After(deadline) {
			t.Fatal("first request never became busy")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := client.ExtractSymbols(context.Background(), "別の夢")
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(release)
	wg.Wait()

	// The flag clears once the in-flight request finishes.
	if client.busy.Load() {
		t.Error("busy flag should clear after completion")
	}
}

func TestInterpretWithSymbolsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DreamContent string   `json:"dreamContent"`
			Symbols      []string `json:"symbols"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Symbols) != 2 {
			t.Errorf("expected 2 symbols in request, got %d", len(req.Symbols))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"dreamText": req.DreamContent,
			"symbols": []map[string]string{
				{"symbol": "空", "meaning": "自由", "interpretation": "解放を求めている"},
			},
			"psychologicalMessage": "開放的になりましょう",
			"dailyInsight":         "外に出てみよう",
			"dreamTheme":           "自由",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	interp, err := client.InterpretWithSymbols(context.Background(), "空を飛ぶ夢", []string{"空", "飛ぶ"})
	if err != nil {
		t.Fatalf("InterpretWithSymbols failed: %v", err)
	}
	if interp.DreamTheme != "自由" || len(interp.Symbols) != 1 {
		t.Errorf("unexpected interpretation: %+v", interp)
	}
}

func TestInterpretWithSymbolsRequiresSymbols(t *testing.T) {
	client := NewClient("http://localhost:1", nil)
	_, err := client.InterpretWithSymbols(context.Background(), "夢", nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestInterpretWithSymbolsMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"dreamText": "x"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.InterpretWithSymbols(context.Background(), "夢", []string{"空"})
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError for malformed payload, got %v", err)
	}
}

func TestInterpretWithSymbolsSanitizesRemoteStrings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"dreamText": "<script>alert(1)</script>",
			"symbols": []map[string]string{
				{"symbol": "<b>空</b>", "meaning": "a & b"},
			},
			"psychologicalMessage": `"quoted"`,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	interp, err := client.InterpretWithSymbols(context.Background(), "夢", []string{"空"})
	if err != nil {
		t.Fatalf("InterpretWithSymbols failed: %v", err)
	}
	if strings.Contains(interp.DreamText, "<script>") {
		t.Errorf("dream text not escaped: %q", interp.DreamText)
	}
	if interp.Symbols[0].Symbol != "&lt;b&gt;空&lt;/b&gt;" {
		t.Errorf("symbol not escaped: %q", interp.Symbols[0].Symbol)
	}
	if interp.Symbols[0].Meaning != "a &amp; b" {
		t.Errorf("meaning not escaped: %q", interp.Symbols[0].Meaning)
	}
}

func TestInterpretWithSymbolsCapsSymbolCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbols := make([]map[string]string, 9)
		for i := range symbols {
			symbols[i] = map[string]string{"symbol": "s", "meaning": "m"}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"symbols":              symbols,
			"psychologicalMessage": "msg",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	interp, err := client.InterpretWithSymbols(context.Background(), "夢", []string{"s"})
	if err != nil {
		t.Fatalf("InterpretWithSymbols failed: %v", err)
	}
	if len(interp.Symbols) != maxResultSymbols {
		t.Errorf("expected symbols capped at %d, got %d", maxResultSymbols, len(interp.Symbols))
	}
}

func TestAnalyzeDreamFallsBackToMock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	client.SetFallback(NewMockGenerator(1))

	interp, err := client.AnalyzeDream(context.Background(), "長い 階段 を 登る 夢")
	if err != nil {
		t.Fatalf("AnalyzeDream should never fail past validation: %v", err)
	}
	if interp == nil || len(interp.Symbols) == 0 {
		t.Fatal("expected a mock interpretation")
	}
	if interp.PsychologicalMessage == "" || interp.DailyInsight == "" {
		t.Error("mock interpretation is missing fixed-set fields")
	}
}

func TestAnalyzeDreamUsesRemoteResultWhenAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			DreamContent string `json:"dreamContent"`
			SystemPrompt string `json:"systemPrompt"`
			Prompt       string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.SystemPrompt == "" || req.Prompt == "" {
			t.Error("expected prompts in legacy request")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"symbols": []map[string]string{
				{"symbol": "階段", "meaning": "段階的な成長"},
			},
			"psychologicalMessage": "一歩ずつ進んでいます",
			"dailyInsight":         "焦らず進もう",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	interp, err := client.AnalyzeDream(context.Background(), "階段を登る夢")
	if err != nil {
		t.Fatalf("AnalyzeDream failed: %v", err)
	}
	if interp.Symbols[0].Symbol != "階段" {
		t.Errorf("unexpected symbol: %+v", interp.Symbols[0])
	}
	// The dream text backfills from the request when the model omits it.
	if interp.DreamText != "階段を登る夢" {
		t.Errorf("expected backfilled dream text, got %q", interp.DreamText)
	}
}
