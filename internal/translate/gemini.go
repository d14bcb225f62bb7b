package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiProvider translates batches through the Google Gemini generateContent
// API.
type GeminiProvider struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

func NewGeminiProvider(cfg ProviderConfig) *GeminiProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultGeminiEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	return &GeminiProvider{cfg: cfg, httpClient: &http.Client{}}
}

func (p *GeminiProvider) ID() string { return "gemini" }

func (p *GeminiProvider) Translate(ctx context.Context, batch Batch) (Outcome, error) {
	if p.cfg.APIKey == "" {
		return Outcome{}, newError("gemini", KindAuth, "API key not configured")
	}

	reqBody := map[string]interface{}{
		"system_instruction": map[string]interface{}{
			"parts": []map[string]string{
				{"text": SystemPrompt(batch.Opts)},
			},
		},
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": userPrompt(batch)},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      p.cfg.Temperature,
			"responseMimeType": "application/json",
		},
		"safetySettings": []map[string]string{
			{"category": "HARM_CATEGORY_HARASSMENT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_HATE_SPEECH", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_SEXUALLY_EXPLICIT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "threshold": "BLOCK_NONE"},
		},
	}

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return Outcome{}, newError("gemini", KindProtocol, "encode request: %v", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(p.cfg.Endpoint, "/"), p.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return Outcome{}, newError("gemini", KindProtocol, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Outcome{}, classifyTransport("gemini", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, classifyTransport("gemini", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Outcome{}, classifyStatus("gemini", resp.StatusCode, string(body))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return Outcome{}, newError("gemini", KindProtocol, "decode response: %v", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		if geminiResp.PromptFeedback.BlockReason != "" {
			return Outcome{}, newError("gemini", KindProtocol, "blocked: %s", geminiResp.PromptFeedback.BlockReason)
		}
		return Outcome{}, newError("gemini", KindProtocol, "empty response")
	}

	lines, perr := parseLineArray("gemini", geminiResp.Candidates[0].Content.Parts[0].Text)
	if perr != nil {
		return Outcome{}, perr
	}

	usage := map[string]int{}
	if geminiResp.UsageMetadata.TotalTokenCount > 0 {
		usage["prompt_tokens"] = geminiResp.UsageMetadata.PromptTokenCount
		usage["completion_tokens"] = geminiResp.UsageMetadata.CandidatesTokenCount
		usage["total_tokens"] = geminiResp.UsageMetadata.TotalTokenCount
	}

	return Outcome{
		BatchID:    batch.ID,
		Lines:      lines,
		TokenUsage: usage,
		Latency:    time.Since(start),
	}, nil
}

var _ Provider = (*GeminiProvider)(nil)
