package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAITranslate(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq chatCompletionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"content": "[\"하나\", \"둘\"]"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(ProviderConfig{
		APIKey:   "sk-test",
		Endpoint: srv.URL,
		Model:    "gpt-4o-mini",
	})

	batch := Batch{
		ID:       3,
		Segments: makeSegs("one", "two"),
		Opts:     Options{TargetLang: "ko"},
	}
	out, err := p.Translate(context.Background(), batch)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.ResponseFormat["type"] != "json_object" {
		t.Errorf("response_format = %v", gotReq.ResponseFormat)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}

	if out.BatchID != 3 {
		t.Errorf("batch id = %d", out.BatchID)
	}
	if len(out.Lines) != 2 || out.Lines[0] != "하나" || out.Lines[1] != "둘" {
		t.Errorf("lines = %v", out.Lines)
	}
	if out.TokenUsage["total_tokens"] != 15 {
		t.Errorf("usage = %v", out.TokenUsage)
	}
}

func TestOpenAITranslateAuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "invalid key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(ProviderConfig{APIKey: "bad", Endpoint: srv.URL})
	_, err := p.Translate(context.Background(), Batch{Segments: makeSegs("x"), Opts: Options{TargetLang: "ko"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindAuth {
		t.Fatalf("kind = %s, want %s", KindOf(err), KindAuth)
	}
}

func TestOpenAITranslateMissingKey(t *testing.T) {
	// No request may go out without credentials
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}))
	defer srv.Close()

	p := NewOpenAIProvider(ProviderConfig{Endpoint: srv.URL})
	_, err := p.Translate(context.Background(), Batch{Segments: makeSegs("x"), Opts: Options{TargetLang: "ko"}})
	if KindOf(err) != KindAuth {
		t.Fatalf("kind = %s, want %s", KindOf(err), KindAuth)
	}
}
