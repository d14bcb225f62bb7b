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

const defaultOllamaEndpoint = "http://localhost:11434"

// OllamaProvider translates batches through a local Ollama runtime. It is
// keyless; an unreachable daemon surfaces as a network error like any other
// backend.
type OllamaProvider struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

func NewOllamaProvider(cfg ProviderConfig) *OllamaProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultOllamaEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "llama3"
	}
	return &OllamaProvider{cfg: cfg, httpClient: &http.Client{}}
}

func (p *OllamaProvider) ID() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  struct {
		Temperature float64 `json:"temperature"`
	} `json:"options"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

func (p *OllamaProvider) Translate(ctx context.Context, batch Batch) (Outcome, error) {
	payload := ollamaChatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(batch.Opts)},
			{Role: "user", Content: userPrompt(batch)},
		},
		Stream: false,
		Format: "json",
	}
	payload.Options.Temperature = p.cfg.Temperature

	encoded, err := json.Marshal(payload)
	if err != nil {
		return Outcome{}, newError("ollama", KindProtocol, "encode request: %v", err)
	}

	endpoint := strings.TrimRight(p.cfg.Endpoint, "/") + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return Outcome{}, newError("ollama", KindProtocol, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Outcome{}, classifyTransport("ollama", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, classifyTransport("ollama", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Outcome{}, classifyStatus("ollama", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return Outcome{}, newError("ollama", KindProtocol, "decode response: %v", err)
	}
	if chatResp.Error != "" {
		return Outcome{}, newError("ollama", KindProtocol, "api error: %s", chatResp.Error)
	}

	lines, perr := parseLineArray("ollama", chatResp.Message.Content)
	if perr != nil {
		return Outcome{}, perr
	}

	usage := map[string]int{}
	if chatResp.EvalCount > 0 {
		usage["prompt_eval_count"] = chatResp.PromptEvalCount
		usage["eval_count"] = chatResp.EvalCount
	}

	return Outcome{
		BatchID:    batch.ID,
		Lines:      lines,
		TokenUsage: usage,
		Latency:    time.Since(start),
	}, nil
}

var _ Provider = (*OllamaProvider)(nil)
