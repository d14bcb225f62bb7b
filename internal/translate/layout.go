package translate

import (
	"fmt"
	"strings"

	"github.com/subtrans/backend/internal/subtitle"
)

// LayoutMode selects what the rendered output contains
type LayoutMode string

const (
	// LayoutBilingual emits the source lines followed by the translation
	LayoutBilingual LayoutMode = "bilingual"
	// LayoutMonolingual emits only the translation, falling back to the
	// source text for segments that could not be translated
	LayoutMonolingual LayoutMode = "monolingual"
)

// ParseLayoutMode validates a user-supplied layout mode string
func ParseLayoutMode(s string) (LayoutMode, error) {
	switch LayoutMode(s) {
	case LayoutBilingual, LayoutMonolingual:
		return LayoutMode(s), nil
	case "":
		return LayoutBilingual, nil
	default:
		return "", fmt.Errorf("unknown layout mode: %q", s)
	}
}

// BuildLayout turns the assembled segment sequence into per-segment rendered
// lines for the format writers. Timing passes through untouched; the builder
// never merges, reorders, or re-derives anything. Output length always equals
// input length.
func BuildLayout(segs []*subtitle.Segment, mode LayoutMode) []subtitle.Rendered {
	rendered := make([]subtitle.Rendered, len(segs))

	for i, seg := range segs {
		r := subtitle.Rendered{Start: seg.Start, End: seg.End}
		translated := seg.Status == subtitle.StatusTranslated && strings.TrimSpace(seg.Translated) != ""

		switch mode {
		case LayoutMonolingual:
			if translated {
				r.Lines = splitLines(seg.Translated)
			} else {
				r.Lines = splitLines(seg.Text)
				r.Untranslated = true
			}
		default: // bilingual: source lines in original order, translation appended
			r.Lines = splitLines(seg.Text)
			if translated {
				r.Lines = append(r.Lines, splitLines(seg.Translated)...)
			} else {
				r.Untranslated = true
			}
		}

		rendered[i] = r
	}

	return rendered
}

func splitLines(text string) []string {
	return strings.Split(strings.TrimSpace(text), "\n")
}
