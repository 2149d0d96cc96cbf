package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultUpstreamBase = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel        = "gemini-2.0-flash"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// upstreamError preserves the upstream status so handlers can forward it.
type upstreamError struct {
	status int
	msg    string
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.status, e.msg)
}

// generate sends one prompt to the Gemini generateContent endpoint and
// returns the JSON document the model produced.
func (s *Server) generate(ctx context.Context, systemPrompt, prompt string) (json.RawMessage, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: systemPrompt + "\n\n" + prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.7,
			ResponseMimeType: "application/json",
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal upstream request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.upstreamBase, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &upstreamError{status: resp.StatusCode, msg: string(body)}
	}

	var gemini geminiResponse
	if err := json.Unmarshal(body, &gemini); err != nil {
		return nil, fmt.Errorf("parse upstream response: %w", err)
	}
	if gemini.Error != nil {
		return nil, fmt.Errorf("upstream error: %s", gemini.Error.Message)
	}
	if len(gemini.Candidates) == 0 || len(gemini.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty upstream response")
	}

	return extractJSON(gemini.Candidates[0].Content.Parts[0].Text)
}

// extractJSON strips markdown code fences some models wrap around their
// JSON output, then validates the remainder parses.
func extractJSON(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("model returned invalid JSON")
	}
	return json.RawMessage(text), nil
}
