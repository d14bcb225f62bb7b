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

const defaultOpenAIEndpoint = "https://api.openai.com/v1"

// OpenAIProvider translates batches through the OpenAI chat completion API
type OpenAIProvider struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

func NewOpenAIProvider(cfg ProviderConfig) *OpenAIProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultOpenAIEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &OpenAIProvider{cfg: cfg, httpClient: &http.Client{}}
}

func (p *OpenAIProvider) ID() string { return "openai" }

func (p *OpenAIProvider) Translate(ctx context.Context, batch Batch) (Outcome, error) {
	if p.cfg.APIKey == "" {
		return Outcome{}, newError("openai", KindAuth, "API key not configured")
	}
	return chatCompletionTranslate(ctx, p.httpClient, "openai", p.cfg, batch)
}

// chatCompletionRequest is the OpenAI-compatible wire format, shared with
// every backend that speaks it (DeepSeek among them).
type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// chatCompletionTranslate runs one batch through an OpenAI-compatible
// /chat/completions endpoint and normalizes the result.
func chatCompletionTranslate(ctx context.Context, client *http.Client, provider string, cfg ProviderConfig, batch Batch) (Outcome, error) {
	payload := chatCompletionRequest{
		Model: cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(batch.Opts)},
			{Role: "user", Content: userPrompt(batch)},
		},
		Temperature:    cfg.Temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return Outcome{}, newError(provider, KindProtocol, "encode request: %v", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return Outcome{}, newError(provider, KindProtocol, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Outcome{}, classifyTransport(provider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, classifyTransport(provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Outcome{}, classifyStatus(provider, resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return Outcome{}, newError(provider, KindProtocol, "decode response: %v", err)
	}
	if completion.Error != nil {
		return Outcome{}, newError(provider, KindProtocol, "api error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return Outcome{}, newError(provider, KindProtocol, "empty choices")
	}

	lines, perr := parseLineArray(provider, completion.Choices[0].Message.Content)
	if perr != nil {
		return Outcome{}, perr
	}

	usage := map[string]int{}
	if completion.Usage.TotalTokens > 0 {
		usage["prompt_tokens"] = completion.Usage.PromptTokens
		usage["completion_tokens"] = completion.Usage.CompletionTokens
		usage["total_tokens"] = completion.Usage.TotalTokens
	}

	return Outcome{
		BatchID:    batch.ID,
		Lines:      lines,
		TokenUsage: usage,
		Latency:    time.Since(start),
	}, nil
}

var _ Provider = (*OpenAIProvider)(nil)
