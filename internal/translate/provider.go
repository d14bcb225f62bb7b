package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/subtrans/backend/internal/subtitle"
)

// ProviderConfig is the immutable per-job configuration for one backend.
// It is constructed once when a job starts and passed down every call; no
// adapter reads ambient state.
type ProviderConfig struct {
	ProviderID       string        `json:"provider_id" yaml:"provider_id"`
	Model            string        `json:"model" yaml:"model"`
	Endpoint         string        `json:"endpoint" yaml:"endpoint"`
	APIKey           string        `json:"-" yaml:"api_key"`
	MaxBatchChars    int           `json:"max_batch_chars" yaml:"max_batch_chars"`
	MaxBatchSegments int           `json:"max_batch_segments" yaml:"max_batch_segments"`
	ContextWindow    int           `json:"context_window" yaml:"context_window"`
	ConcurrencyLimit int           `json:"concurrency_limit" yaml:"concurrency_limit"`
	MaxRetries       int           `json:"max_retries" yaml:"max_retries"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"`
	Temperature      float64       `json:"temperature" yaml:"temperature"`
}

// Defaults returns a copy with zero values replaced by working defaults
func (c ProviderConfig) Defaults() ProviderConfig {
	if c.MaxBatchChars <= 0 {
		c.MaxBatchChars = 4000
	}
	if c.MaxBatchSegments <= 0 {
		c.MaxBatchSegments = 30
	}
	if c.ContextWindow < 0 {
		c.ContextWindow = 0
	}
	if c.ConcurrencyLimit <= 0 {
		c.ConcurrencyLimit = 3
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.3
	}
	return c
}

// Options carry the translation request knobs that are not provider plumbing
type Options struct {
	SourceLang   string `json:"source_lang"`
	TargetLang   string `json:"target_lang"`
	Preset       string `json:"preset"`        // "anime", "movie", "documentary", "custom"
	CustomPrompt string `json:"custom_prompt"` // for "custom" preset
}

// Batch is a bounded group of contiguous segments sent together, with
// read-only context from the neighboring batches. Context segments are never
// translated and never counted against the batch limits.
type Batch struct {
	ID            int
	Segments      []*subtitle.Segment
	ContextBefore []*subtitle.Segment
	ContextAfter  []*subtitle.Segment
	Opts          Options
}

// Chars is the total source character count of the translatable segments
func (b Batch) Chars() int {
	n := 0
	for _, s := range b.Segments {
		n += len(s.Text)
	}
	return n
}

// Outcome is what one provider call produced for one batch. TokenUsage is
// never nil: adapters that get no usage metrics return an empty map.
type Outcome struct {
	BatchID    int
	Lines      []string
	TokenUsage map[string]int
	Latency    time.Duration
}

// Provider is the uniform interface over one translation backend. Adapters
// are stateless with respect to job data and safe for concurrent use.
type Provider interface {
	ID() string
	Translate(ctx context.Context, batch Batch) (Outcome, error)
}

// NewProvider constructs the adapter for cfg.ProviderID. Adding a backend
// means adding one case here and one adapter file, nothing else.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	cfg = cfg.Defaults()
	switch cfg.ProviderID {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "deepseek":
		return NewDeepSeekProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg), nil
	case "gemini":
		return NewGeminiProvider(cfg), nil
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	case "deepl":
		return NewDeepLProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", cfg.ProviderID)
	}
}

// ProviderIDs lists the backends this build knows about
func ProviderIDs() []string {
	return []string{"openai", "deepseek", "ollama", "gemini", "anthropic", "deepl"}
}
