package translate

import (
	"context"
	"net/http"
)

const defaultDeepSeekEndpoint = "https://api.deepseek.com"

// DeepSeekProvider translates batches through the DeepSeek chat API, which
// speaks the OpenAI completion wire format.
type DeepSeekProvider struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

func NewDeepSeekProvider(cfg ProviderConfig) *DeepSeekProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultDeepSeekEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	return &DeepSeekProvider{cfg: cfg, httpClient: &http.Client{}}
}

func (p *DeepSeekProvider) ID() string { return "deepseek" }

func (p *DeepSeekProvider) Translate(ctx context.Context, batch Batch) (Outcome, error) {
	if p.cfg.APIKey == "" {
		return Outcome{}, newError("deepseek", KindAuth, "API key not configured")
	}
	return chatCompletionTranslate(ctx, p.httpClient, "deepseek", p.cfg, batch)
}

var _ Provider = (*DeepSeekProvider)(nil)
