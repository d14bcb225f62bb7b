package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.Translation.Provider != "openai" {
		t.Errorf("provider = %q", cfg.Translation.Provider)
	}
	if cfg.Translation.Layout != "bilingual" {
		t.Errorf("layout = %q", cfg.Translation.Layout)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	path := writeConfigFile(t, `
translation:
  provider: deepseek
  target_language: ko
  max_batch_chars: 2000
  concurrency_limit: 4
  timeout_seconds: 90
  providers:
    deepseek:
      api_key: sk-file
      model: deepseek-chat
    ollama:
      endpoint: http://localhost:11434
      model: llama3
`)
	t.Setenv("CONFIG_FILE", path)

	cfg := Load()
	if cfg.Translation.Provider != "deepseek" {
		t.Errorf("provider = %q", cfg.Translation.Provider)
	}
	if cfg.Translation.MaxBatchChars != 2000 {
		t.Errorf("max_batch_chars = %d", cfg.Translation.MaxBatchChars)
	}
	if cfg.Translation.Providers["deepseek"].APIKey != "sk-file" {
		t.Errorf("deepseek settings = %+v", cfg.Translation.Providers["deepseek"])
	}
}

func TestEnvOverridesFileCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	path := writeConfigFile(t, `
translation:
  providers:
    openai:
      api_key: sk-file
      model: gpt-4o
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg := Load()
	ps := cfg.Translation.Providers["openai"]
	if ps.APIKey != "sk-env" {
		t.Errorf("api key = %q, env must win", ps.APIKey)
	}
	if ps.Model != "gpt-4o" {
		t.Errorf("model = %q, file setting must survive", ps.Model)
	}
}

func TestEnvRegistersProviderWithoutFileEntry(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DEEPL_API_KEY", "key")
	t.Setenv("OLLAMA_ENDPOINT", "http://ollama:11434")

	cfg := Load()
	if cfg.Translation.Providers["deepl"].APIKey != "key" {
		t.Error("deepl not registered from env")
	}
	if cfg.Translation.Providers["ollama"].Endpoint != "http://ollama:11434" {
		t.Error("ollama endpoint not registered from env")
	}
}

func TestServiceConfigSkipsKeylessProviders(t *testing.T) {
	cfg := &Config{Translation: TranslationConfig{
		Provider:       "openai",
		Model:          "shared-model",
		TimeoutSeconds: 60,
		Providers: map[string]ProviderSettings{
			"openai": {APIKey: "sk-x"},
			"gemini": {},                                    // no key, dropped
			"ollama": {Endpoint: "http://localhost:11434"}, // keyless by design
		},
	}}

	sc := cfg.ServiceConfig()
	if _, ok := sc.Providers["gemini"]; ok {
		t.Error("keyless gemini must be skipped")
	}
	if _, ok := sc.Providers["ollama"]; !ok {
		t.Error("ollama must be kept without a key")
	}

	oa := sc.Providers["openai"]
	if oa.Model != "shared-model" {
		t.Errorf("model fallback = %q", oa.Model)
	}
	if oa.Timeout != 60*time.Second {
		t.Errorf("timeout = %s", oa.Timeout)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Port: 8080, Translation: TranslationConfig{Layout: "bilingual"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.Translation.Layout = "tri-lingual"
	if err := cfg.Validate(); err == nil {
		t.Fatal("bad layout accepted")
	}

	cfg.Translation.Layout = ""
	cfg.Translation.Providers = map[string]ProviderSettings{"acme": {}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown provider accepted")
	}

	cfg.Translation.Providers = nil
	cfg.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("port 0 accepted")
	}
}
