package translate

import (
	"reflect"
	"testing"

	"github.com/subtrans/backend/internal/subtitle"
)

func TestParseLayoutMode(t *testing.T) {
	if mode, err := ParseLayoutMode(""); err != nil || mode != LayoutBilingual {
		t.Fatalf("empty input: mode=%s err=%v", mode, err)
	}
	if mode, err := ParseLayoutMode("monolingual"); err != nil || mode != LayoutMonolingual {
		t.Fatalf("monolingual: mode=%s err=%v", mode, err)
	}
	if _, err := ParseLayoutMode("dual"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestBuildLayoutBilingual(t *testing.T) {
	segs := makeSegs("hello\nworld", "skip me")
	segs[0].Translated = "안녕\n세계"
	segs[0].Status = subtitle.StatusTranslated
	segs[1].Status = subtitle.StatusFailed
	segs[1].Err = "network"

	rendered := BuildLayout(segs, LayoutBilingual)
	if len(rendered) != 2 {
		t.Fatalf("rendered %d entries", len(rendered))
	}

	if !reflect.DeepEqual(rendered[0].Lines, []string{"hello", "world", "안녕", "세계"}) {
		t.Fatalf("bilingual lines = %v", rendered[0].Lines)
	}
	if rendered[0].Untranslated {
		t.Fatal("translated segment flagged untranslated")
	}

	if !reflect.DeepEqual(rendered[1].Lines, []string{"skip me"}) {
		t.Fatalf("failed segment lines = %v", rendered[1].Lines)
	}
	if !rendered[1].Untranslated {
		t.Fatal("failed segment not flagged untranslated")
	}

	// Timing passes through untouched
	if rendered[0].Start != segs[0].Start || rendered[0].End != segs[0].End {
		t.Fatal("timing changed")
	}
}

func TestBuildLayoutMonolingual(t *testing.T) {
	segs := makeSegs("source a", "source b")
	segs[0].Translated = "번역 a"
	segs[0].Status = subtitle.StatusTranslated
	segs[1].Status = subtitle.StatusFailed

	rendered := BuildLayout(segs, LayoutMonolingual)

	if !reflect.DeepEqual(rendered[0].Lines, []string{"번역 a"}) {
		t.Fatalf("lines = %v", rendered[0].Lines)
	}
	if !reflect.DeepEqual(rendered[1].Lines, []string{"source b"}) || !rendered[1].Untranslated {
		t.Fatalf("fallback entry = %+v", rendered[1])
	}
}
