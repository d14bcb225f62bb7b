package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicTranslate(t *testing.T) {
	var gotKey, gotVersion, gotPath string
	var gotReq anthropicRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"content": [{"type": "text", "text": "[\"uno\", \"dos\"]"}],
			"usage": {"input_tokens": 12, "output_tokens": 6}
		}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider(ProviderConfig{APIKey: "sk-ant", Endpoint: srv.URL})
	batch := Batch{
		ID:       2,
		Segments: makeSegs("one", "two"),
		Opts:     Options{TargetLang: "es"},
	}
	out, err := p.Translate(context.Background(), batch)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	if gotKey != "sk-ant" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion == "" {
		t.Error("anthropic-version header missing")
	}
	if gotPath != "/v1/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.System == "" {
		t.Error("system prompt missing")
	}
	if gotReq.MaxTokens <= 0 {
		t.Errorf("max_tokens = %d", gotReq.MaxTokens)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}

	if len(out.Lines) != 2 || out.Lines[0] != "uno" {
		t.Errorf("lines = %v", out.Lines)
	}
	if out.TokenUsage["total_tokens"] != 18 {
		t.Errorf("usage = %v", out.TokenUsage)
	}
}

func TestAnthropicTranslateMissingKey(t *testing.T) {
	p := NewAnthropicProvider(ProviderConfig{})
	_, err := p.Translate(context.Background(), Batch{Segments: makeSegs("x"), Opts: Options{TargetLang: "es"}})
	if KindOf(err) != KindAuth {
		t.Fatalf("kind = %s, want %s", KindOf(err), KindAuth)
	}
}
