package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAnthropicEndpoint = "https://api.anthropic.com"
	anthropicVersion         = "2023-06-01"
	anthropicMaxTokens       = 2000
)

// AnthropicProvider translates batches through the Anthropic Messages API
type AnthropicProvider struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

func NewAnthropicProvider(cfg ProviderConfig) *AnthropicProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultAnthropicEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-sonnet-20240229"
	}
	return &AnthropicProvider{cfg: cfg, httpClient: &http.Client{}}
}

func (p *AnthropicProvider) ID() string { return "anthropic" }

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *AnthropicProvider) Translate(ctx context.Context, batch Batch) (Outcome, error) {
	if p.cfg.APIKey == "" {
		return Outcome{}, newError("anthropic", KindAuth, "API key not configured")
	}

	payload := anthropicRequest{
		Model:       p.cfg.Model,
		MaxTokens:   anthropicMaxTokens,
		Temperature: p.cfg.Temperature,
		System:      SystemPrompt(batch.Opts),
		Messages: []chatMessage{
			{Role: "user", Content: userPrompt(batch)},
		},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return Outcome{}, newError("anthropic", KindProtocol, "encode request: %v", err)
	}

	endpoint := strings.TrimRight(p.cfg.Endpoint, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return Outcome{}, newError("anthropic", KindProtocol, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Outcome{}, classifyTransport("anthropic", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, classifyTransport("anthropic", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Outcome{}, classifyStatus("anthropic", resp.StatusCode, string(body))
	}

	var msgResp anthropicResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return Outcome{}, newError("anthropic", KindProtocol, "decode response: %v", err)
	}
	if len(msgResp.Content) == 0 {
		return Outcome{}, newError("anthropic", KindProtocol, "empty content")
	}

	lines, perr := parseLineArray("anthropic", msgResp.Content[0].Text)
	if perr != nil {
		return Outcome{}, perr
	}

	usage := map[string]int{}
	if msgResp.Usage.InputTokens > 0 || msgResp.Usage.OutputTokens > 0 {
		usage["prompt_tokens"] = msgResp.Usage.InputTokens
		usage["completion_tokens"] = msgResp.Usage.OutputTokens
		usage["total_tokens"] = msgResp.Usage.InputTokens + msgResp.Usage.OutputTokens
	}

	return Outcome{
		BatchID:    batch.ID,
		Lines:      lines,
		TokenUsage: usage,
		Latency:    time.Since(start),
	}, nil
}

var _ Provider = (*AnthropicProvider)(nil)
