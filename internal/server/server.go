// Package server is the thin proxy between the client and the Gemini
// API. It keeps the upstream credential out of the client, builds the
// prompts for the two-phase flow, and forwards the model's JSON verbatim.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Server struct {
	addr         string
	apiKey       string
	upstreamBase string
	model        string
	http         *http.Client
	log          *zap.Logger
}

type Option func(*Server)

// WithUpstream overrides the Gemini base URL, used by tests to point at
// a stub.
func WithUpstream(base string) Option {
	return func(s *Server) { s.upstreamBase = strings.TrimRight(base, "/") }
}

func New(addr, apiKey string, log *zap.Logger, opts ...Option) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		addr:         addr,
		apiKey:       apiKey,
		upstreamBase: defaultUpstreamBase,
		model:        defaultModel,
		http:         &http.Client{Timeout: 60 * time.Second},
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the HTTP surface. Split from Run so tests can mount it
// on httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/extract-symbols", s.extractSymbols)
	mux.HandleFunc("POST /api/analyze-symbols", s.analyzeSymbols)
	mux.HandleFunc("POST /api/analyze-dream", s.analyzeDream)
	mux.HandleFunc("GET /health", s.health)
	return withCORS(mux)
}

func (s *Server) Run() error {
	s.log.Info("proxy listening", zap.String("addr", s.addr))
	if s.apiKey == "" {
		s.log.Warn("GEMINI_API_KEY is not set; analysis endpoints will fail")
	}
	return http.ListenAndServe(s.addr, s.Handler())
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

const extractSystemPrompt = "あなたは夢分析の専門家です。夢の内容から象徴的なシンボルを抽出します。"

func buildExtractPrompt(content string) string {
	return fmt.Sprintf(`以下の夢の内容から、象徴的に重要なシンボル（物、人、場所、行動など）を抽出してください。

夢の内容: %s

必ず以下のJSON形式で回答してください:
{
    "symbols": [
        {"text": "シンボル名", "category": "カテゴリ（person/place/object/action/emotion/other）", "importance": "high/medium/low"}
    ]
}

注意点:
- シンボルは最大8つまでにしてください
- 心理学的に意味のあるものを優先してください`, content)
}

const analyzeSymbolsSystemPrompt = "あなたは夢の解釈の専門家です。ユング心理学と認知心理学の観点から夢を分析します。"

func buildAnalyzeSymbolsPrompt(content string, symbols []string) string {
	return fmt.Sprintf(`以下の夢の内容と、ユーザーが選択したシンボルをもとに心理学的な解釈を提供してください。

夢の内容: %s
シンボル: %s

必ず以下のJSON形式で回答してください:
{
    "dreamText": "夢の文章",
    "symbols": [
        {"symbol": "シンボル名", "meaning": "意味の説明", "comment": "補足コメント", "interpretation": "心理学的解釈"}
    ],
    "psychologicalMessage": "深層心理からのメッセージ",
    "dailyInsight": "今日の気づき（1文）",
    "dreamTheme": "夢全体のテーマ",
    "overallComment": "総合コメント"
}

注意点:
- symbols配列には選択されたシンボルのみを含めてください
- 日本語で回答してください`, content, strings.Join(symbols, ", "))
}

func (s *Server) extractSymbols(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DreamContent string `json:"dreamContent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.DreamContent) == "" {
		writeError(w, http.StatusBadRequest, "dreamContent is required")
		return
	}
	s.proxy(w, r, extractSystemPrompt, buildExtractPrompt(req.DreamContent))
}

func (s *Server) analyzeSymbols(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DreamContent string   `json:"dreamContent"`
		Symbols      []string `json:"symbols"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.DreamContent) == "" {
		writeError(w, http.StatusBadRequest, "dreamContent is required")
		return
	}
	if len(req.Symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols are required")
		return
	}
	s.proxy(w, r, analyzeSymbolsSystemPrompt, buildAnalyzeSymbolsPrompt(req.DreamContent, req.Symbols))
}

// analyzeDream is the legacy passthrough: the client supplies its own
// prompts and gets the raw interpretation JSON back.
func (s *Server) analyzeDream(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DreamContent string `json:"dreamContent"`
		SystemPrompt string `json:"systemPrompt"`
		Prompt       string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	s.proxy(w, r, req.SystemPrompt, req.Prompt)
}

func (s *Server) proxy(w http.ResponseWriter, r *http.Request, systemPrompt, prompt string) {
	if s.apiKey == "" {
		writeError(w, http.StatusInternalServerError, "API key not configured on server")
		return
	}
	result, err := s.generate(r.Context(), systemPrompt, prompt)
	if err != nil {
		s.log.Error("upstream call failed", zap.String("path", r.URL.Path), zap.Error(err))
		if ue, ok := err.(*upstreamError); ok {
			writeError(w, ue.status, "API request failed")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(result)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
