package translate

import (
	"fmt"
	"strings"
)

// SystemPrompt returns the translation system prompt for a given preset
func SystemPrompt(opts Options) string {
	base := fmt.Sprintf(
		"You are a professional subtitle translator. Translate subtitles from %s to %s. "+
			"Maintain the original meaning and timing constraints. "+
			"Keep translations concise and natural for subtitle display. "+
			"Respond with ONLY the translated text for each subtitle segment, maintaining the same number of entries.",
		langName(opts.SourceLang), langName(opts.TargetLang),
	)

	switch opts.Preset {
	case "anime":
		base += "\n\n" +
			"Additional guidelines for anime translation:\n" +
			"- Use casual, natural speech patterns appropriate for anime dialogue\n" +
			"- Preserve honorifics (-san, -kun, -chan, -senpai, -sensei) where the target language keeps them\n" +
			"- Keep character name consistency\n" +
			"- Match the emotional tone (excited, serious, comedic)\n" +
			"- Translate onomatopoeia and sound effects appropriately"

	case "movie":
		base += "\n\n" +
			"Additional guidelines for movie/drama translation:\n" +
			"- Use natural conversational style appropriate for the genre\n" +
			"- Preserve cultural nuances and idioms with equivalent expressions\n" +
			"- Maintain formal/informal register matching the original dialogue\n" +
			"- Keep subtitles readable within typical display time (max 2 lines)"

	case "documentary":
		base += "\n\n" +
			"Additional guidelines for documentary translation:\n" +
			"- Use formal, precise language\n" +
			"- Preserve all technical terminology with accurate translations\n" +
			"- Maintain proper nouns, scientific names, and place names\n" +
			"- Keep numbers, dates, and measurements accurate"
	}

	if opts.Preset == "custom" && opts.CustomPrompt != "" {
		base += "\n\nUser instructions: " + opts.CustomPrompt
	}

	return base
}

// userPrompt builds the numbered-segment request body shared by the chat
// style adapters. Context segments are labeled and explicitly excluded from
// the expected output.
func userPrompt(b Batch) string {
	var sb strings.Builder
	sb.WriteString("Translate the following subtitle segments. Return ONLY a JSON array of strings with the translated text for each segment, in the same order.\n\n")

	if len(b.ContextBefore) > 0 {
		sb.WriteString("Preceding context (do NOT translate, for coherence only):\n")
		for _, s := range b.ContextBefore {
			sb.WriteString(fmt.Sprintf("  %s\n", oneLine(s.Text)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Segments to translate:\n")
	for i, s := range b.Segments {
		sb.WriteString(fmt.Sprintf("[%d] %s\n", i+1, oneLine(s.Text)))
	}

	if len(b.ContextAfter) > 0 {
		sb.WriteString("\nFollowing context (do NOT translate, for coherence only):\n")
		for _, s := range b.ContextAfter {
			sb.WriteString(fmt.Sprintf("  %s\n", oneLine(s.Text)))
		}
	}

	sb.WriteString(fmt.Sprintf("\nReturn exactly %d translations as a JSON array of strings. Example: [\"translated line 1\", \"translated line 2\"]", len(b.Segments)))
	return sb.String()
}

// oneLine collapses intra-segment line breaks for the wire format; layout
// decisions belong to the output builder, not the provider.
func oneLine(text string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(text, "\n", " ")), " ")
}

func langName(code string) string {
	names := map[string]string{
		"ko":    "Korean",
		"en":    "English",
		"ja":    "Japanese",
		"zh":    "Chinese",
		"zh-CN": "Simplified Chinese",
		"zh-TW": "Traditional Chinese",
		"es":    "Spanish",
		"fr":    "French",
		"de":    "German",
		"pt":    "Portuguese",
		"it":    "Italian",
		"ru":    "Russian",
		"ar":    "Arabic",
		"hi":    "Hindi",
		"th":    "Thai",
		"vi":    "Vietnamese",
		"id":    "Indonesian",
		"auto":  "the auto-detected language",
		"":      "the auto-detected language",
	}
	if name, ok := names[code]; ok {
		return name
	}
	return code
}
