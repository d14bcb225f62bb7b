package translate

import (
	"encoding/json"
	"strings"
)

// parseLineArray extracts the JSON array of translated strings from a chat
// model response. Models wrap the array in objects or code fences often
// enough that all three shapes are tolerated; anything else is a protocol
// failure for the caller to classify.
func parseLineArray(provider, content string) ([]string, *Error) {
	// ASS-style \N line breaks are invalid JSON escapes
	content = strings.ReplaceAll(content, `\N`, `\n`)
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var lines []string
	if err := json.Unmarshal([]byte(content), &lines); err == nil {
		return lines, nil
	}

	// {"translations": [...]} or any single-array object
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &wrapped); err == nil {
		for _, v := range wrapped {
			if err := json.Unmarshal(v, &lines); err == nil {
				return lines, nil
			}
		}
	}

	// Last resort: slice out the outermost bracket pair
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(content[start:end+1]), &lines); err == nil {
			return lines, nil
		}
	}

	snippet := content
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return nil, newError(provider, KindProtocol, "no JSON string array in response: %s", snippet)
}
