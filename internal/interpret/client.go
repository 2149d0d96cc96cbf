// Package interpret talks to the dream analysis proxy. The primary flow
// is two-phase: extract candidate symbols, let the user curate them, then
// request the full interpretation for the confirmed set. A legacy
// single-shot path degrades to a local mock result on any failure.
package interpret

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/satory074/dreamscope/internal/constants"
	"github.com/satory074/dreamscope/internal/models"
)

const DefaultBaseURL = "http://localhost:3000"

type Client struct {
	baseURL  string
	http     *http.Client
	log      *zap.Logger
	fallback Generator

	// Only one extraction or interpretation request may be in flight at a
	// time; concurrent attempts are rejected, not queued.
	busy atomic.Bool
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: constants.RequestTimeout},
		log:      log,
		fallback: NewMockGenerator(time.Now().UnixNano()),
	}
}

// SetFallback swaps the mock strategy used by AnalyzeDream.
func (c *Client) SetFallback(g Generator) {
	c.fallback = g
}

func (c *Client) acquire() error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (c *Client) release() {
	c.busy.Store(false)
}

type extractRequest struct {
	DreamContent string `json:"dreamContent"`
}

type extractResponse struct {
	Symbols []models.PendingSymbol `json:"symbols"`
}

// ExtractSymbols sends raw dream content to the extraction endpoint and
// returns the candidate symbols. Failures propagate: the caller shows an
// error and lets the user retry, there is no fallback at this phase.
func (c *Client) ExtractSymbols(ctx context.Context, content string) ([]models.PendingSymbol, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	var resp extractResponse
	if err := c.post(ctx, "/api/extract-symbols", extractRequest{DreamContent: content}, &resp); err != nil {
		return nil, err
	}
	symbols := sanitizePending(resp.Symbols)
	if len(symbols) == 0 {
		// A success with nothing to curate is indistinguishable from a
		// broken upstream; reject it rather than stranding the workflow.
		return nil, &ServerError{Status: http.StatusOK, Message: "no symbols extracted"}
	}
	return symbols, nil
}

type analyzeSymbolsRequest struct {
	DreamContent string   `json:"dreamContent"`
	Symbols      []string `json:"symbols"`
}

// InterpretWithSymbols requests the full interpretation for the
// user-confirmed symbol list.
func (c *Client) InterpretWithSymbols(ctx context.Context, content string, symbols []string) (*models.Interpretation, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, &ValidationError{Field: "symbols", Message: "シンボルを1つ以上選択してください"}
	}
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	var interp models.Interpretation
	if err := c.post(ctx, "/api/analyze-symbols", analyzeSymbolsRequest{DreamContent: content, Symbols: symbols}, &interp); err != nil {
		return nil, err
	}
	if len(interp.Symbols) == 0 || interp.PsychologicalMessage == "" {
		return nil, &ServerError{Status: http.StatusOK, Message: "malformed interpretation payload"}
	}
	sanitizeInterpretation(&interp)
	return &interp, nil
}

type analyzeDreamRequest struct {
	DreamContent string `json:"dreamContent"`
	SystemPrompt string `json:"systemPrompt"`
	Prompt       string `json:"prompt"`
}

const analyzeSystemPrompt = "あなたは夢の解釈の専門家です。ユング心理学と認知心理学の観点から夢を分析します。"

func buildAnalyzePrompt(content string) string {
	return fmt.Sprintf(`以下の夢の内容を心理学的に解釈してください。

夢の内容: %s

以下の形式でJSONで回答してください:
{
    "dreamText": "夢の文章",
    "symbols": [
        {"symbol": "シンボル名", "meaning": "意味の説明"}
    ],
    "psychologicalMessage": "深層心理からのメッセージ",
    "dailyInsight": "今日の気づき（1文）"
}`, content)
}

// AnalyzeDream is the legacy single-shot path. On any failure beyond the
// busy guard it substitutes a mock result, so the caller always gets a
// usable interpretation.
func (c *Client) AnalyzeDream(ctx context.Context, content string) (*models.Interpretation, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	req := analyzeDreamRequest{
		DreamContent: content,
		SystemPrompt: analyzeSystemPrompt,
		Prompt:       buildAnalyzePrompt(content),
	}
	var interp models.Interpretation
	if err := c.post(ctx, "/api/analyze-dream", req, &interp); err != nil {
		c.log.Warn("analysis failed, falling back to mock", zap.Error(err))
		return c.fallback.Generate(content), nil
	}
	if interp.DreamText == "" {
		interp.DreamText = content
	}
	sanitizeInterpretation(&interp)
	return &interp, nil
}

// post issues one JSON request and decodes the response, mapping
// transport failures to NetworkError and bad responses to ServerError.
func (c *Client) post(ctx context.Context, path string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &errBody)
		return &ServerError{Status: resp.StatusCode, Message: errBody.Error}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return &ServerError{Status: resp.StatusCode, Message: "malformed response body"}
	}
	return nil
}
