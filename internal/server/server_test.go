package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeUpstream returns a Gemini-shaped response whose single part is the
// given text.
func fakeUpstream(t *testing.T, partText string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected upstream path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") == "" {
			t.Error("expected API key in upstream query")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": partText}}}},
			},
		})
	}))
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestExtractSymbolsEndpoint(t *testing.T) {
	upstream := fakeUpstream(t, `{"symbols": [{"text": "空", "category": "place", "importance": "high"}]}`)
	defer upstream.Close()

	s := New(":0", "test-key", nil, WithUpstream(upstream.URL))
	rec := postJSON(t, s.Handler(), "/api/extract-symbols", `{"dreamContent": "空を飛ぶ夢"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Symbols []struct {
			Text string `json:"text"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(resp.Symbols) != 1 || resp.Symbols[0].Text != "空" {
		t.Errorf("unexpected symbols: %+v", resp.Symbols)
	}
}

func TestExtractSymbolsStripsCodeFences(t *testing.T) {
	upstream := fakeUpstream(t, "```json\n{\"symbols\": []}\n```")
	defer upstream.Close()

	s := New(":0", "test-key", nil, WithUpstream(upstream.URL))
	rec := postJSON(t, s.Handler(), "/api/extract-symbols", `{"dreamContent": "夢"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !json.Valid(rec.Body.Bytes()) {
		t.Errorf("expected valid JSON body, got %q", rec.Body.String())
	}
}

func TestMissingAPIKey(t *testing.T) {
	s := New(":0", "", nil)
	rec := postJSON(t, s.Handler(), "/api/extract-symbols", `{"dreamContent": "夢"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if resp["error"] != "API key not configured on server" {
		t.Errorf("unexpected error message: %q", resp["error"])
	}
}

func TestUpstreamFailureForwardsStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	s := New(":0", "test-key", nil, WithUpstream(upstream.URL))
	rec := postJSON(t, s.Handler(), "/api/extract-symbols", `{"dreamContent": "夢"}`)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected upstream status forwarded, got %d", rec.Code)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "API request failed" {
		t.Errorf("unexpected error message: %q", resp["error"])
	}
}

func TestAnalyzeSymbolsValidation(t *testing.T) {
	s := New(":0", "test-key", nil)

	rec := postJSON(t, s.Handler(), "/api/analyze-symbols", `{"dreamContent": "夢"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without symbols, got %d", rec.Code)
	}

	rec = postJSON(t, s.Handler(), "/api/analyze-symbols", `{"symbols": ["空"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without content, got %d", rec.Code)
	}

	rec = postJSON(t, s.Handler(), "/api/analyze-symbols", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestAnalyzeDreamPassthrough(t *testing.T) {
	var captured string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			captured = req.Contents[0].Parts[0].Text
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": `{"dreamText": "夢"}`}}}},
			},
		})
	}))
	defer upstream.Close()

	s := New(":0", "test-key", nil, WithUpstream(upstream.URL))
	rec := postJSON(t, s.Handler(), "/api/analyze-dream",
		`{"dreamContent": "夢", "systemPrompt": "SYS", "prompt": "PROMPT"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(captured, "SYS") || !strings.Contains(captured, "PROMPT") {
		t.Errorf("client prompts not forwarded upstream: %q", captured)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := New(":0", "", nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := New(":0", "", nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/extract-symbols", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`{"a": 1}`, `{"a": 1}`, false},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`, false},
		{"```\n[1, 2]\n```", `[1, 2]`, false},
		{"not json at all", "", true},
	}
	for _, tt := range tests {
		got, err := extractJSON(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("extractJSON(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("extractJSON(%q): %v", tt.in, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
