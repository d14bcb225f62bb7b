package translate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultDeepLEndpoint = "https://api-free.deepl.com/v2/translate"

// DeepLProvider is the direct-translate style adapter: one form-encoded call
// per batch, no prompt and no context support. Context segments are simply
// discarded.
type DeepLProvider struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

func NewDeepLProvider(cfg ProviderConfig) *DeepLProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultDeepLEndpoint
	}
	return &DeepLProvider{cfg: cfg, httpClient: &http.Client{}}
}

func (p *DeepLProvider) ID() string { return "deepl" }

func (p *DeepLProvider) Translate(ctx context.Context, batch Batch) (Outcome, error) {
	if p.cfg.APIKey == "" {
		return Outcome{}, newError("deepl", KindAuth, "API key not configured")
	}

	form := url.Values{}
	for _, s := range batch.Segments {
		form.Add("text", s.Text)
	}
	form.Set("target_lang", deeplLangCode(batch.Opts.TargetLang))
	if src := batch.Opts.SourceLang; src != "" && src != "auto" {
		form.Set("source_lang", deeplLangCode(src))
	}

	// The preset maps onto DeepL's formality knob; there is no prompt
	switch batch.Opts.Preset {
	case "documentary":
		form.Set("formality", "more")
	case "anime":
		form.Set("formality", "less")
	case "movie":
		form.Set("formality", "default")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{}, newError("deepl", KindProtocol, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+p.cfg.APIKey)

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Outcome{}, classifyTransport("deepl", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, classifyTransport("deepl", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Outcome{}, classifyStatus("deepl", resp.StatusCode, string(body))
	}

	var deeplResp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &deeplResp); err != nil {
		return Outcome{}, newError("deepl", KindProtocol, "decode response: %v", err)
	}

	lines := make([]string, len(deeplResp.Translations))
	for i, t := range deeplResp.Translations {
		lines[i] = t.Text
	}

	return Outcome{
		BatchID:    batch.ID,
		Lines:      lines,
		TokenUsage: map[string]int{},
		Latency:    time.Since(start),
	}, nil
}

// deeplLangCode converts ISO 639-1 codes to DeepL format
func deeplLangCode(code string) string {
	mapping := map[string]string{
		"ko": "KO",
		"en": "EN",
		"ja": "JA",
		"zh": "ZH",
		"de": "DE",
		"fr": "FR",
		"es": "ES",
		"it": "IT",
		"pt": "PT-BR",
		"ru": "RU",
		"nl": "NL",
		"pl": "PL",
	}
	if mapped, ok := mapping[code]; ok {
		return mapped
	}
	return strings.ToUpper(code)
}

var _ Provider = (*DeepLProvider)(nil)
