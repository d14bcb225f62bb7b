package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"
)

func TestDeepLTranslate(t *testing.T) {
	var gotForm url.Values
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translations": [{"text": "eins"}, {"text": "zwei"}]}`))
	}))
	defer srv.Close()

	p := NewDeepLProvider(ProviderConfig{APIKey: "key-123", Endpoint: srv.URL})
	batch := Batch{
		ID:       1,
		Segments: makeSegs("one", "two"),
		Opts:     Options{SourceLang: "en", TargetLang: "de", Preset: "documentary"},
	}
	out, err := p.Translate(context.Background(), batch)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	if gotAuth != "DeepL-Auth-Key key-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !reflect.DeepEqual(gotForm["text"], []string{"one", "two"}) {
		t.Errorf("text fields = %v", gotForm["text"])
	}
	if gotForm.Get("target_lang") != "DE" {
		t.Errorf("target_lang = %q", gotForm.Get("target_lang"))
	}
	if gotForm.Get("source_lang") != "EN" {
		t.Errorf("source_lang = %q", gotForm.Get("source_lang"))
	}
	if gotForm.Get("formality") != "more" {
		t.Errorf("formality = %q", gotForm.Get("formality"))
	}

	if !reflect.DeepEqual(out.Lines, []string{"eins", "zwei"}) {
		t.Errorf("lines = %v", out.Lines)
	}
	if out.TokenUsage == nil {
		t.Error("token usage must be non-nil")
	}
}

func TestDeepLSkipsAutoSourceLang(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Has("source_lang") {
			t.Error("source_lang sent for auto detection")
		}
		w.Write([]byte(`{"translations": [{"text": "x"}]}`))
	}))
	defer srv.Close()

	p := NewDeepLProvider(ProviderConfig{APIKey: "k", Endpoint: srv.URL})
	_, err := p.Translate(context.Background(), Batch{
		Segments: makeSegs("x"),
		Opts:     Options{SourceLang: "auto", TargetLang: "ko"},
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
}

func TestDeepLLangCode(t *testing.T) {
	tests := map[string]string{
		"ko": "KO",
		"pt": "PT-BR",
		"sv": "SV",
	}
	for in, want := range tests {
		if got := deeplLangCode(in); got != want {
			t.Errorf("deeplLangCode(%q) = %q, want %q", in, got, want)
		}
	}
}
